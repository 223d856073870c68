package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"ytdb/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigValidateCommand(ctx))
	configCmd.AddCommand(newConfigInitCommand())

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := initTarget(targetPath)
			if err != nil {
				return err
			}
			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				} else if !errors.Is(err, fs.ErrNotExist) {
					return fmt.Errorf("check config path: %w", err)
				}
			}
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("create config directory: %w", err)
			}
			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Set paths.output_dir to an existing directory before running ytdb download.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

func initTarget(flagValue string) (string, error) {
	if target := strings.TrimSpace(flagValue); target != "" {
		expanded, err := config.ExpandPath(target)
		if err != nil {
			return "", fmt.Errorf("resolve config path: %w", err)
		}
		return expanded, nil
	}
	path, err := config.DefaultConfigPath()
	if err != nil {
		return "", fmt.Errorf("determine default config path: %w", err)
	}
	return path, nil
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "validate",
		Short:       "Validate configuration and show effective settings",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, exists, err := config.Load(ctx.configPath())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("ensure directories: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config path: %s\n", path)
			if !exists {
				fmt.Fprintln(out, "Config file did not exist; defaults were used")
			}
			fmt.Fprintln(out, renderTable(tableSpec{
				headers: []string{"Setting", "Value"},
				rows:    effectiveSettings(cfg),
			}))
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}

func effectiveSettings(cfg *config.Config) [][]string {
	orNone := func(value string) string {
		if strings.TrimSpace(value) == "" {
			return "(none)"
		}
		return value
	}
	return [][]string{
		{"paths.output_dir", orNone(cfg.Paths.OutputDir)},
		{"paths.failed_file", cfg.Paths.FailedFile},
		{"paths.report_file", cfg.Paths.ReportFile},
		{"paths.log_dir", orNone(cfg.Paths.LogDir)},
		{"fetch.ytdlp_binary", cfg.Fetch.YtdlpBinary},
		{"fetch.ffmpeg_binary", cfg.Fetch.FFmpegBinary},
		{"fetch.use_netrc", strconv.FormatBool(cfg.Fetch.UseNetrc)},
		{"fetch.cookies_file", orNone(cfg.Fetch.CookiesFile)},
		{"download.type", string(cfg.TargetType())},
		{"download.skip_kinds", orNone(cfg.SkipKinds().String())},
		{"journal", journalSetting(cfg)},
	}
}

func journalSetting(cfg *config.Config) string {
	if !cfg.Journal.Enabled {
		return "disabled"
	}
	return cfg.Paths.JournalPath
}
