package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}
}

func TestFromLookup_Defaults(t *testing.T) {
	c, err := FromLookup(lookupFrom(nil))
	if err != nil {
		t.Fatalf("FromLookup() error = %v", err)
	}
	if c.Port != "8080" {
		t.Errorf("Port = %q, want 8080", c.Port)
	}
	if c.LedgerBackend != LedgerMemory {
		t.Errorf("LedgerBackend = %q, want memory", c.LedgerBackend)
	}
	if c.ResolverTimeout != 8*time.Second {
		t.Errorf("ResolverTimeout = %v, want 8s", c.ResolverTimeout)
	}
}

func TestFromLookup_Overrides(t *testing.T) {
	c, err := FromLookup(lookupFrom(map[string]string{
		"PORT":             "9090",
		"RESOLVER_TIMEOUT": "250ms",
		"ALERT_WORKERS":    "2",
		"SEED_DEMO":        "false",
		"LEDGER_BACKEND":   "postgres",
		"DATABASE_URL":     "postgres://localhost/finance",
		"CORS_ORIGINS":     "https://app.example.com, ,http://localhost:3000",
	}))
	if err != nil {
		t.Fatalf("FromLookup() error = %v", err)
	}
	if c.Port != "9090" || c.ResolverTimeout != 250*time.Millisecond || c.AlertWorkers != 2 || c.SeedDemo {
		t.Errorf("unexpected config: %+v", c)
	}
	if len(c.CORSOrigins) != 2 || c.CORSOrigins[1] != "http://localhost:3000" {
		t.Errorf("CORSOrigins = %v", c.CORSOrigins)
	}
}

func TestFromLookup_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad duration", map[string]string{"RESOLVER_TIMEOUT": "soon"}},
		{"bad integer", map[string]string{"ALERT_WORKERS": "many"}},
		{"bad bool", map[string]string{"SEED_DEMO": "perhaps"}},
		{"postgres without url", map[string]string{"LEDGER_BACKEND": "postgres"}},
		{"unknown ledger", map[string]string{"LEDGER_BACKEND": "mongo"}},
		{"openai without key", map[string]string{"RESOLVER_BACKEND": "openai"}},
		{"unknown resolver", map[string]string{"RESOLVER_BACKEND": "oracle"}},
		{"zero workers", map[string]string{"ALERT_WORKERS": "0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := FromLookup(lookupFrom(tt.env)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoad_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("TRANSCRIPT_LIMIT=7\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TRANSCRIPT_LIMIT", "")
	os.Unsetenv("TRANSCRIPT_LIMIT")

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if c.TranscriptLimit != 7 {
		t.Errorf("TranscriptLimit = %d, want 7", c.TranscriptLimit)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Errorf("Load() with missing file error = %v", err)
	}
}
