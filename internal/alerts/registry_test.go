package alerts

import (
	"errors"
	"sync"
	"testing"
)

func TestRegistry_Add(t *testing.T) {
	tests := []struct {
		url     string
		wantErr bool
	}{
		{"https://hooks.example.com/finance", false},
		{"http://localhost:9000/alerts", false},
		{"bq://my-project/finance/alerts", false},
		{"notion://0123456789abcdef0123456789abcdef", false},
		{"ftp://example.com/drop", true},
		{"https:///missing-host", true},
		{"bq://my-project/finance", true},
		{"notion://", true},
		{"not a url at all", true},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			r := NewRegistry()
			ep, err := r.Add(tt.url)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Add(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
			if err == nil && ep.ID == "" {
				t.Error("expected an endpoint ID")
			}
		})
	}
}

func TestRegistry_RestrictedSchemes(t *testing.T) {
	r := NewRegistry(SchemeHTTP, SchemeHTTPS)
	if _, err := r.Add("bq://p/d/t"); !errors.Is(err, ErrUnsupportedScheme) {
		t.Errorf("Add() error = %v, want ErrUnsupportedScheme", err)
	}
}

func TestRegistry_ListRemove(t *testing.T) {
	r := NewRegistry()
	a, _ := r.Add("https://a.example.com")
	b, _ := r.Add("https://b.example.com")

	if got := r.List(); len(got) != 2 {
		t.Fatalf("List() = %d endpoints, want 2", len(got))
	}
	if !r.Remove(a.ID) {
		t.Error("Remove() = false for a registered endpoint")
	}
	if r.Remove(a.ID) {
		t.Error("Remove() = true for an already removed endpoint")
	}
	got := r.List()
	if len(got) != 1 || got[0].ID != b.ID {
		t.Errorf("List() = %+v", got)
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			ep, err := r.Add("https://example.com/hook")
			if err == nil {
				r.Remove(ep.ID)
			}
		}()
		go func() {
			defer wg.Done()
			_ = r.List()
		}()
	}
	wg.Wait()
	if len(r.List()) != 0 {
		t.Error("expected every endpoint removed")
	}
}

func TestParseBigQueryTarget(t *testing.T) {
	target, err := ParseBigQueryTarget("bq://proj-1/finance/alerts")
	if err != nil {
		t.Fatal(err)
	}
	if target.Project != "proj-1" || target.Dataset != "finance" || target.Table != "alerts" {
		t.Errorf("ParseBigQueryTarget() = %+v", target)
	}
}

func TestParseNotionTarget(t *testing.T) {
	id, err := ParseNotionTarget("notion://abc-123")
	if err != nil || id != "abc-123" {
		t.Errorf("ParseNotionTarget() = %q, %v", id, err)
	}
	if _, err := ParseNotionTarget("notion://abc/def"); err == nil {
		t.Error("expected error for nested path")
	}
}
