package alerts

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/dvloznov/finance-assistant/internal/domain"
	"github.com/jomei/notionapi"
)

// ParseNotionTarget returns the database ID of a notion://<database-id> endpoint.
func ParseNotionTarget(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil || !strings.EqualFold(u.Scheme, SchemeNotion) {
		return "", fmt.Errorf("invalid Notion endpoint: %s", raw)
	}
	id := u.Host + strings.TrimSuffix(u.Path, "/")
	if id == "" || strings.Contains(id, "/") {
		return "", fmt.Errorf("invalid Notion endpoint (want notion://database-id): %s", raw)
	}
	return id, nil
}

// PageCreator creates pages in a Notion database.
type PageCreator interface {
	CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error)
}

// NotionClient is the PageCreator backed by the Notion API.
type NotionClient struct {
	client *notionapi.Client
}

// NewNotionClient creates a NotionClient with the provided API token.
func NewNotionClient(token string) *NotionClient {
	return &NotionClient{client: notionapi.NewClient(notionapi.Token(token))}
}

// CreatePage creates a new page in a Notion database with the given properties.
func (n *NotionClient) CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error) {
	req := &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(databaseID),
		},
		Properties: properties,
	}
	page, err := n.client.Page.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("CreatePage: %w", err)
	}
	return page, nil
}

// NotionSink creates one database page per alert.
type NotionSink struct {
	pages PageCreator
}

// NewNotionSink creates a sink over pages.
func NewNotionSink(pages PageCreator) *NotionSink {
	return &NotionSink{pages: pages}
}

// Deliver implements Sink. It stops at the first failed page.
func (s *NotionSink) Deliver(ctx context.Context, ep Endpoint, payload Payload) error {
	databaseID, err := ParseNotionTarget(ep.URL)
	if err != nil {
		return err
	}
	for _, a := range payload.Alerts {
		if _, err := s.pages.CreatePage(ctx, databaseID, AlertToNotionProperties(a)); err != nil {
			return fmt.Errorf("NotionSink: creating page for %s: %w", a.Type, err)
		}
	}
	return nil
}

func richText(s string) []notionapi.RichText {
	return []notionapi.RichText{
		{
			Type: notionapi.ObjectTypeText,
			Text: &notionapi.Text{Content: s},
		},
	}
}

// AlertToNotionProperties maps an alert to the properties of the alerts database:
// Name (title), Type (select), Message (rich text), Created (date).
func AlertToNotionProperties(a domain.Alert) notionapi.Properties {
	title := a.Title
	if title == "" {
		title = string(a.Type)
	}
	props := notionapi.Properties{
		"Name": notionapi.TitleProperty{Title: richText(title)},
		"Type": notionapi.SelectProperty{
			Select: notionapi.Option{Name: string(a.Type)},
		},
	}
	if a.Message != "" {
		props["Message"] = notionapi.RichTextProperty{RichText: richText(a.Message)}
	}
	if !a.CreatedAt.IsZero() {
		d := notionapi.Date(a.CreatedAt)
		props["Created"] = notionapi.DateProperty{
			Date: &notionapi.DateObject{Start: &d},
		}
	}
	return props
}
