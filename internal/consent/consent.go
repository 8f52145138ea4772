// Package consent models savings pots the user has allowed automatic
// transfers into. It never moves money; it only evaluates permissions and
// suggests how an available amount could be split.
package consent

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
)

// DefaultPriority and DefaultMaxPercent apply when a pot leaves them unset.
var (
	DefaultPriority   = 100
	DefaultMaxPercent = decimal.RequireFromString("0.5")
)

// ErrNotFound is returned for an unknown pot ID.
var ErrNotFound = errors.New("consent: pot not found")

// Pot is a savings destination with the user's transfer permissions.
// Lower Priority values are served first.
type Pot struct {
	ID         int64           `json:"id"`
	Name       string          `json:"name"`
	Allowed    bool            `json:"allowed"`
	Priority   int             `json:"priority"`
	MaxPercent decimal.Decimal `json:"max_percent"`
}

// Validate checks the pot name and that MaxPercent is in (0,1].
func (p Pot) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("pot name is required")
	}
	if !p.MaxPercent.IsPositive() || p.MaxPercent.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("max_percent must be in (0, 1], got %s", p.MaxPercent)
	}
	return nil
}

// Allocation is a suggested transfer into one pot.
type Allocation struct {
	PotID     int64           `json:"pot_id"`
	PotName   string          `json:"pot_name"`
	Suggested decimal.Decimal `json:"suggested"`
}

// Config holds the user's pots. It is safe for concurrent use.
type Config struct {
	mu     sync.RWMutex
	pots   map[int64]Pot
	nextID int64
}

// NewConfig creates an empty configuration.
func NewConfig() *Config {
	return &Config{pots: make(map[int64]Pot)}
}

// Put stores p, replacing any pot with the same ID. A zero ID gets the next
// free one; zero Priority and MaxPercent take the defaults.
func (c *Config) Put(p Pot) (Pot, error) {
	p.Name = strings.TrimSpace(p.Name)
	if p.Priority == 0 {
		p.Priority = DefaultPriority
	}
	if p.MaxPercent.IsZero() {
		p.MaxPercent = DefaultMaxPercent
	}
	if err := p.Validate(); err != nil {
		return Pot{}, fmt.Errorf("Put: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if p.ID == 0 {
		c.nextID++
		p.ID = c.nextID
	} else if p.ID > c.nextID {
		c.nextID = p.ID
	}
	c.pots[p.ID] = p
	return p, nil
}

// Remove deletes a pot.
func (c *Config) Remove(id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.pots[id]; !ok {
		return fmt.Errorf("Remove: pot %d: %w", id, ErrNotFound)
	}
	delete(c.pots, id)
	return nil
}

// CanUse reports whether transfers into the pot are allowed.
func (c *Config) CanUse(id int64) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.pots[id]
	return ok && p.Allowed
}

// Prioritized returns every pot ordered by priority, then ID.
func (c *Config) Prioritized() []Pot {
	c.mu.RLock()
	out := make([]Pot, 0, len(c.pots))
	for _, p := range c.pots {
		out = append(out, p)
	}
	c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// SuggestAllocation splits available across the allowed pots in priority
// order. Each pot is offered up to MaxPercent of available, and the total
// never exceeds available, so low-priority pots may be offered less or zero.
func (c *Config) SuggestAllocation(available decimal.Decimal) []Allocation {
	out := []Allocation{}
	if !available.IsPositive() {
		return out
	}
	remaining := available
	for _, p := range c.Prioritized() {
		if !p.Allowed {
			continue
		}
		suggested := decimal.Min(p.MaxPercent.Mul(available), remaining).Round(2)
		remaining = remaining.Sub(suggested)
		out = append(out, Allocation{PotID: p.ID, PotName: p.Name, Suggested: suggested})
	}
	return out
}
