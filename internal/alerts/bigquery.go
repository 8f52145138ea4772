package alerts

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/option"
)

// BigQueryTarget is a parsed bq://project/dataset/table endpoint.
type BigQueryTarget struct {
	Project string
	Dataset string
	Table   string
}

// ParseBigQueryTarget parses bq://project/dataset/table.
func ParseBigQueryTarget(raw string) (BigQueryTarget, error) {
	u, err := url.Parse(raw)
	if err != nil || !strings.EqualFold(u.Scheme, SchemeBigQuery) {
		return BigQueryTarget{}, fmt.Errorf("invalid BigQuery endpoint: %s", raw)
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if u.Host == "" || len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return BigQueryTarget{}, fmt.Errorf("invalid BigQuery endpoint (want bq://project/dataset/table): %s", raw)
	}
	return BigQueryTarget{Project: u.Host, Dataset: parts[0], Table: parts[1]}, nil
}

// AlertRow is one alert as streamed into BigQuery.
type AlertRow struct {
	DeliveredAt    time.Time `bigquery:"delivered_at"`
	Type           string    `bigquery:"type"`
	Title          string    `bigquery:"title"`
	Message        string    `bigquery:"message"`
	NotificationID int64     `bigquery:"notification_id"`
	CreatedAt      time.Time `bigquery:"created_at"`
	EndpointID     string    `bigquery:"endpoint_id"`
}

// AlertRows maps a payload to BigQuery rows.
func AlertRows(ep Endpoint, payload Payload, at time.Time) []*AlertRow {
	rows := make([]*AlertRow, 0, len(payload.Alerts))
	for _, a := range payload.Alerts {
		rows = append(rows, &AlertRow{
			DeliveredAt:    at,
			Type:           string(a.Type),
			Title:          a.Title,
			Message:        a.Message,
			NotificationID: a.NotificationID,
			CreatedAt:      a.CreatedAt,
			EndpointID:     ep.ID,
		})
	}
	return rows
}

// BigQuerySink streams alerts into a table. Clients are created per project
// on first use and reused.
type BigQuerySink struct {
	opts []option.ClientOption

	mu      sync.Mutex
	clients map[string]*bigquery.Client
}

// NewBigQuerySink creates a sink; opts are passed to every client.
func NewBigQuerySink(opts ...option.ClientOption) *BigQuerySink {
	return &BigQuerySink{opts: opts, clients: make(map[string]*bigquery.Client)}
}

func (s *BigQuerySink) client(ctx context.Context, project string) (*bigquery.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.clients[project]; ok {
		return c, nil
	}
	c, err := bigquery.NewClient(ctx, project, s.opts...)
	if err != nil {
		return nil, err
	}
	s.clients[project] = c
	return c, nil
}

// Deliver implements Sink.
func (s *BigQuerySink) Deliver(ctx context.Context, ep Endpoint, payload Payload) error {
	target, err := ParseBigQueryTarget(ep.URL)
	if err != nil {
		return err
	}
	rows := AlertRows(ep, payload, time.Now().UTC())
	if len(rows) == 0 {
		return nil
	}
	client, err := s.client(ctx, target.Project)
	if err != nil {
		return fmt.Errorf("BigQuerySink: bigquery client: %w", err)
	}
	inserter := client.Dataset(target.Dataset).Table(target.Table).Inserter()
	if err := inserter.Put(ctx, rows); err != nil {
		return fmt.Errorf("BigQuerySink: inserting rows: %w", err)
	}
	return nil
}

// Close closes every client.
func (s *BigQuerySink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error
	for project, c := range s.clients {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(s.clients, project)
	}
	return firstErr
}
