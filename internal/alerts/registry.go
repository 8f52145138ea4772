// Package alerts delivers alert batches to registered external endpoints.
// Delivery runs on background workers and never blocks the publisher;
// failures are logged and retried a bounded number of times, then dropped.
package alerts

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Endpoint schemes.
const (
	SchemeHTTP     = "http"
	SchemeHTTPS    = "https"
	SchemeBigQuery = "bq"
	SchemeNotion   = "notion"
)

var (
	// ErrUnsupportedScheme is returned when an endpoint URL uses a scheme no sink handles.
	ErrUnsupportedScheme = errors.New("alerts: unsupported endpoint scheme")
	// ErrEndpointNotFound is returned when an endpoint ID is unknown.
	ErrEndpointNotFound = errors.New("alerts: endpoint not found")
)

// Endpoint is a registered alert destination.
type Endpoint struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

// Scheme returns the lower-cased URL scheme of the endpoint.
func (e Endpoint) Scheme() string {
	u, err := url.Parse(e.URL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Scheme)
}

// Registry is the set of alert endpoints. Registration can race with a
// delivery fan-out, so every access holds the lock.
type Registry struct {
	mu        sync.RWMutex
	endpoints map[string]Endpoint
	allowed   map[string]bool
	now       func() time.Time
}

// NewRegistry creates a registry accepting the given schemes. With no schemes
// every supported scheme is accepted.
func NewRegistry(schemes ...string) *Registry {
	if len(schemes) == 0 {
		schemes = []string{SchemeHTTP, SchemeHTTPS, SchemeBigQuery, SchemeNotion}
	}
	allowed := make(map[string]bool, len(schemes))
	for _, s := range schemes {
		allowed[strings.ToLower(s)] = true
	}
	return &Registry{
		endpoints: make(map[string]Endpoint),
		allowed:   allowed,
		now:       time.Now,
	}
}

// Add validates raw and registers it under a new ID.
func (r *Registry) Add(raw string) (Endpoint, error) {
	raw = strings.TrimSpace(raw)
	if err := r.validate(raw); err != nil {
		return Endpoint{}, err
	}

	ep := Endpoint{
		ID:        uuid.New().String(),
		URL:       raw,
		CreatedAt: r.now().UTC(),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.endpoints[ep.ID] = ep
	return ep, nil
}

func (r *Registry) validate(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("Add: parsing %q: %w", raw, err)
	}
	scheme := strings.ToLower(u.Scheme)
	if !r.allowed[scheme] {
		return fmt.Errorf("Add: %q: %w", raw, ErrUnsupportedScheme)
	}
	switch scheme {
	case SchemeHTTP, SchemeHTTPS:
		if u.Host == "" {
			return fmt.Errorf("Add: %q has no host", raw)
		}
	case SchemeBigQuery:
		if _, err := ParseBigQueryTarget(raw); err != nil {
			return fmt.Errorf("Add: %w", err)
		}
	case SchemeNotion:
		if _, err := ParseNotionTarget(raw); err != nil {
			return fmt.Errorf("Add: %w", err)
		}
	}
	return nil
}

// List returns the endpoints ordered by registration time.
func (r *Registry) List() []Endpoint {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Endpoint, 0, len(r.endpoints))
	for _, ep := range r.endpoints {
		out = append(out, ep)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Remove deletes an endpoint and reports whether it existed.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.endpoints[id]; !ok {
		return false
	}
	delete(r.endpoints, id)
	return true
}
