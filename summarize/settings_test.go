package summarize

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSettingsValidate(t *testing.T) {
	t.Parallel()

	hot := 2.5
	ok := 0.7
	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantErr bool
	}{
		{"defaults", func(*Settings) {}, false},
		{"zero chunk", func(s *Settings) { s.ChunkTokenLength = 0 }, true},
		{"zero max tokens", func(s *Settings) { s.MaxTokenLength = 0 }, true},
		{"zero summaries allowed", func(s *Settings) { s.MaxNumberOfSummaries = 0 }, false},
		{"negative summaries", func(s *Settings) { s.MaxNumberOfSummaries = -1 }, true},
		{"negative summary budget", func(s *Settings) { s.SummaryTokenLength = -1 }, true},
		{"temperature in range", func(s *Settings) { s.Temperature = &ok }, false},
		{"temperature out of range", func(s *Settings) { s.Temperature = &hot }, true},
	}
	for _, tt := range tests {
		s := DefaultSettings()
		tt.mutate(&s)
		err := s.Validate()
		if (err != nil) != tt.wantErr {
			t.Fatalf("%s: err=%v, wantErr=%v", tt.name, err, tt.wantErr)
		}
	}
}

func TestLoadSettingsFile_OverlaysBase(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")
	yml := "selected_model: gpt-4.1\nmax_number_of_summaries: 5\ntemperature: 0.2\n"
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	base := DefaultSettings()
	got, err := LoadSettingsFile(path, base)
	if err != nil {
		t.Fatalf("LoadSettingsFile: %v", err)
	}
	if got.Model != "gpt-4.1" || got.MaxNumberOfSummaries != 5 {
		t.Fatalf("overlay not applied: %+v", got)
	}
	if got.Temperature == nil || *got.Temperature != 0.2 {
		t.Fatalf("temperature=%v", got.Temperature)
	}
	if got.ChunkTokenLength != base.ChunkTokenLength || got.Query != base.Query {
		t.Fatalf("base values lost: %+v", got)
	}
}

func TestLoadSettingsFile_Errors(t *testing.T) {
	t.Parallel()

	if _, err := LoadSettingsFile("", DefaultSettings()); err == nil {
		t.Fatalf("expected error for empty path")
	}
	if _, err := LoadSettingsFile(filepath.Join(t.TempDir(), "missing.yaml"), DefaultSettings()); err == nil {
		t.Fatalf("expected error for missing file")
	}

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(bad, []byte("max_token_length: [not, an, int]\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := LoadSettingsFile(bad, DefaultSettings()); err == nil {
		t.Fatalf("expected error for bad yaml")
	}
}
