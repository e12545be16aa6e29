package buildinfo

import (
	"strings"
	"testing"
)

func TestTemplate(t *testing.T) {
	Version, Commit, Date = "v1.2.3", "abc123", "2026-01-01"
	t.Cleanup(func() { Version, Commit, Date = "dev", "none", "unknown" })

	got := Template()
	for _, want := range []string{"{{.Name}} version v1.2.3", "commit: abc123", "built: 2026-01-01"} {
		if !strings.Contains(got, want) {
			t.Errorf("Template() = %q, missing %q", got, want)
		}
	}
	if !strings.HasPrefix(String(), "version: v1.2.3") {
		t.Errorf("String() = %q", String())
	}
}

func TestLogFields(t *testing.T) {
	Commit = "0123456789abcdef"
	t.Cleanup(func() { Commit = "none" })

	fields := LogFields()
	if len(fields) != 4 || fields[3] != "0123456" {
		t.Errorf("LogFields() = %v", fields)
	}
}
