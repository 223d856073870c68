package failure_test

import (
	"testing"

	"ytdb/internal/failure"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		diagnostic string
		want       failure.Kind
	}{
		{"private", "ERROR: [youtube] abc: Private video. Sign in if you've been granted access", failure.KindPrivate},
		{"unavailable", "ERROR: [youtube] abc: Video unavailable", failure.KindUnavailable},
		{"removed", "ERROR: [youtube] abc: This video has been removed by the uploader", failure.KindRemoved},
		{"copyright", "ERROR: blocked on copyright grounds", failure.KindCopyright},
		{"unsupported", "ERROR: Unsupported URL: https://example.com", failure.KindUnsupported},
		{"other", "ERROR: unable to download webpage: HTTP Error 500", failure.KindOther},
		{"empty", "", failure.KindOther},
		{"whitespace only", "\n  \n", failure.KindOther},
		{"last line wins", "WARNING: video is private?\nERROR: Video unavailable\n\n", failure.KindUnavailable},
		{"case insensitive", "ERROR: PRIVATE VIDEO", failure.KindPrivate},
		{"crlf", "WARNING: x\r\nERROR: copyright claim\r\n", failure.KindCopyright},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := failure.Classify(tt.diagnostic); got != tt.want {
				t.Fatalf("Classify(%q) = %s, want %s", tt.diagnostic, got, tt.want)
			}
		})
	}
}

func TestClassifyAvailablePrecedence(t *testing.T) {
	// "available" outranks removed and copyright when both appear.
	got := failure.Classify("ERROR: This video is no longer available because it was removed for copyright")
	if got != failure.KindUnavailable {
		t.Fatalf("expected unavailable, got %s", got)
	}
	got = failure.Classify("this video is no longer available due to a copyright claim")
	if got != failure.KindUnavailable {
		t.Fatalf("expected unavailable for copyright claim wording, got %s", got)
	}
	got = failure.Classify("ERROR: private video, no longer available")
	if got != failure.KindPrivate {
		t.Fatalf("expected private to win, got %s", got)
	}
}

func TestParseKindSet(t *testing.T) {
	set, err := failure.ParseKindSet("removed, PRIVATE", "copyright", "")
	if err != nil {
		t.Fatalf("ParseKindSet: %v", err)
	}
	if got := set.String(); got != "private,removed,copyright" {
		t.Fatalf("unexpected set %q", got)
	}
	if _, err := failure.ParseKindSet("removed,gone"); err == nil {
		t.Fatal("expected error for unknown kind")
	}
	empty, err := failure.ParseKindSet()
	if err != nil || len(empty) != 0 {
		t.Fatalf("expected empty set, got %v err=%v", empty, err)
	}
}

func TestDefaultSkipKinds(t *testing.T) {
	set := failure.DefaultSkipKinds()
	if set.String() != "unavailable,removed,unsupported" {
		t.Fatalf("unexpected default skip kinds %q", set.String())
	}
}

func TestParseKind(t *testing.T) {
	for _, kind := range failure.Kinds() {
		got, err := failure.ParseKind(string(kind))
		if err != nil || got != kind {
			t.Fatalf("ParseKind(%q) = %q, %v", kind, got, err)
		}
	}
	if _, err := failure.ParseKind("nope"); err == nil {
		t.Fatal("expected error")
	}
}
