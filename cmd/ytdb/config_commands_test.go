package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Config path: "+env.configPath)
	requireContains(t, out, "download.type")
	requireContains(t, out, "unavailable,removed,unsupported")
	requireContains(t, out, "Configuration valid")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected init to refuse overwriting without --overwrite")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestConfigValidateRejectsBadValues(t *testing.T) {
	env := setupCLITestEnv(t)
	if err := os.WriteFile(env.configPath, []byte("[download]\ntype = \"podcast\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, err := runCLI(t, []string{"config", "validate"}, env.configPath); err == nil {
		t.Fatal("expected invalid download type to fail validation")
	}
}
