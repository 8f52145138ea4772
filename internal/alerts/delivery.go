package alerts

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// DeliveryStatus is where a delivery attempt stands.
type DeliveryStatus string

const (
	DeliveryPending   DeliveryStatus = "pending"
	DeliveryRunning   DeliveryStatus = "running"
	DeliveryDelivered DeliveryStatus = "delivered"
	DeliveryRetrying  DeliveryStatus = "retrying"
	DeliveryFailed    DeliveryStatus = "failed"
	DeliveryDropped   DeliveryStatus = "dropped"
)

// Delivery is one payload on its way to one endpoint.
type Delivery struct {
	ID          string         `json:"id"`
	EndpointID  string         `json:"endpoint_id"`
	URL         string         `json:"url"`
	AlertCount  int            `json:"alert_count"`
	Status      DeliveryStatus `json:"status"`
	Attempts    int            `json:"attempts"`
	MaxRetries  int            `json:"max_retries"`
	Error       string         `json:"error,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`

	endpoint Endpoint
	payload  Payload
}

// DeliveryFilter narrows ListDeliveries.
type DeliveryFilter struct {
	EndpointID string
	Status     DeliveryStatus
	Limit      int
}

// DeliveryStore keeps the latest state of each delivery in memory, bounded
// to the most recent entries.
type DeliveryStore struct {
	mu         sync.RWMutex
	deliveries map[string]Delivery
	order      []string
	capacity   int
}

// NewDeliveryStore creates a store holding at most capacity deliveries.
func NewDeliveryStore(capacity int) *DeliveryStore {
	if capacity <= 0 {
		capacity = 1000
	}
	return &DeliveryStore{
		deliveries: make(map[string]Delivery),
		capacity:   capacity,
	}
}

// Save records a copy of d.
func (s *DeliveryStore) Save(d *Delivery) error {
	if d.ID == "" {
		return fmt.Errorf("delivery ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.deliveries[d.ID]; !exists {
		s.order = append(s.order, d.ID)
		if len(s.order) > s.capacity {
			oldest := s.order[0]
			s.order = s.order[1:]
			delete(s.deliveries, oldest)
		}
	}
	cp := *d
	if d.CompletedAt != nil {
		t := *d.CompletedAt
		cp.CompletedAt = &t
	}
	s.deliveries[d.ID] = cp
	return nil
}

// Get returns one delivery.
func (s *DeliveryStore) Get(id string) (Delivery, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.deliveries[id]
	return d, ok
}

// ListDeliveries returns matching deliveries, newest first.
func (s *DeliveryStore) ListDeliveries(filter DeliveryFilter) []Delivery {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Delivery
	for _, d := range s.deliveries {
		if filter.EndpointID != "" && d.EndpointID != filter.EndpointID {
			continue
		}
		if filter.Status != "" && d.Status != filter.Status {
			continue
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if filter.Limit > 0 && filter.Limit < len(out) {
		out = out[:filter.Limit]
	}
	return out
}
