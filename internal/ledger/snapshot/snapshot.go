// Package snapshot persists the in-memory ledger as a JSON document, either
// on local disk or in a Cloud Storage object.
package snapshot

import (
	"context"
	"fmt"
	"strings"

	"github.com/dvloznov/finance-assistant/internal/ledger"
	"github.com/goccy/go-json"
	"google.golang.org/api/option"
)

// Store loads and saves ledger state. Loading a snapshot that does not exist
// yet returns an empty state and no error.
type Store interface {
	Load(ctx context.Context) (ledger.State, error)
	Save(ctx context.Context, state ledger.State) error
	Close() error
}

// Open picks a store for uri: gs://bucket/object goes to Cloud Storage,
// anything else is a local file path.
func Open(ctx context.Context, uri string, opts ...option.ClientOption) (Store, error) {
	if strings.HasPrefix(uri, "gs://") {
		return NewGCSStore(ctx, uri, opts...)
	}
	if strings.TrimSpace(uri) == "" {
		return nil, fmt.Errorf("Open: empty snapshot uri")
	}
	return NewFileStore(uri), nil
}

func encode(state ledger.State) ([]byte, error) {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}
	return data, nil
}

func decode(data []byte) (ledger.State, error) {
	var state ledger.State
	if len(strings.TrimSpace(string(data))) == 0 {
		return state, nil
	}
	if err := json.Unmarshal(data, &state); err != nil {
		return ledger.State{}, fmt.Errorf("decoding snapshot: %w", err)
	}
	return state, nil
}
