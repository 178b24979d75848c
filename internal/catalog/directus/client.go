// Package directus implements the tutorial catalog on top of the Directus REST API
// that backs the learning platform.
package directus

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/qiskit/previewctl/internal/catalog"
	"github.com/qiskit/previewctl/internal/logging"
)

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 8 << 20

// Client talks to the Directus items API.
type Client struct {
	baseURL    *url.URL
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

var _ catalog.Catalog = (*Client)(nil)

// NewClient builds a Client from a validated Config.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	base, err := url.Parse(strings.TrimRight(strings.TrimSpace(cfg.URL), "/"))
	if err != nil {
		return nil, fmt.Errorf("parse learning API url: %w", err)
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Client{
		baseURL:    base,
		token:      cfg.Token,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}, nil
}

// itemID accepts both string (uuid) and numeric primary keys.
type itemID string

func (id *itemID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*id = itemID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("unexpected item id %s", b)
	}
	*id = itemID(n.String())
	return nil
}

type idOnly struct {
	ID itemID `json:"id"`
}

type topicLink struct {
	TopicID string `json:"tutorials_topics_id"`
}

type tutorialPayload struct {
	Slug                   string               `json:"slug"`
	Status                 string               `json:"status"`
	ReadingTime            int                  `json:"reading_time"`
	CatalogFeatured        bool                 `json:"catalog_featured"`
	Category               string               `json:"category"`
	Topics                 []topicLink          `json:"topics"`
	RequiredInstanceAccess []string             `json:"required_instance_access"`
	Translations           []translationPayload `json:"translations,omitempty"`
}

type translationPayload struct {
	TutorialID       string `json:"tutorials_id,omitempty"`
	Title            string `json:"title"`
	ShortDescription string `json:"short_description"`
	Content          string `json:"content"`
	LanguagesCode    string `json:"languages_code"`
}

type envelope struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// FindIDBySlug implements catalog.Catalog.
func (c *Client) FindIDBySlug(ctx context.Context, slug string) (string, bool, error) {
	q := url.Values{}
	q.Set("filter[slug][_eq]", slug)
	q.Set("fields", "id")
	q.Set("limit", "1")

	var items []idOnly
	if err := c.do(ctx, http.MethodGet, q, nil, &items, "items", catalog.TutorialsCollection); err != nil {
		return "", false, err
	}
	if len(items) == 0 {
		return "", false, nil
	}
	return string(items[0].ID), true, nil
}

// FindIDByName implements catalog.Catalog.
func (c *Client) FindIDByName(ctx context.Context, collection, field, value string) (string, error) {
	q := url.Values{}
	q.Set(fmt.Sprintf("filter[%s][_eq]", field), value)
	q.Set("fields", "id")
	q.Set("limit", "1")

	var items []idOnly
	if err := c.do(ctx, http.MethodGet, q, nil, &items, "items", collection); err != nil {
		return "", err
	}
	if len(items) == 0 {
		return "", &catalog.ReferenceNotFoundError{Collection: collection, Field: field, Value: value}
	}
	return string(items[0].ID), nil
}

// Upsert implements catalog.Catalog. Category and topic names are resolved before
// anything is written, so an unknown reference leaves the catalog untouched.
func (c *Client) Upsert(ctx context.Context, t catalog.Tutorial) (string, error) {
	categoryID, err := c.FindIDByName(ctx, catalog.CategoriesCollection, catalog.NameField, t.Category)
	if err != nil {
		return "", err
	}
	topics := make([]topicLink, 0, len(t.Topics))
	for _, name := range t.Topics {
		id, err := c.FindIDByName(ctx, catalog.TopicsCollection, catalog.NameField, name)
		if err != nil {
			return "", err
		}
		topics = append(topics, topicLink{TopicID: id})
	}

	access := t.RequiredInstanceAccess
	if access == nil {
		access = []string{}
	}
	payload := tutorialPayload{
		Slug:                   t.Slug,
		Status:                 t.Status,
		ReadingTime:            t.ReadingTime,
		CatalogFeatured:        t.CatalogFeatured,
		Category:               categoryID,
		Topics:                 topics,
		RequiredInstanceAccess: access,
	}
	translation := translationPayload{
		Title:            t.Translation.Title,
		ShortDescription: t.Translation.ShortDescription,
		Content:          t.Translation.Content,
		LanguagesCode:    t.Translation.LanguageOrDefault(),
	}

	id, found, err := c.FindIDBySlug(ctx, t.Slug)
	if err != nil {
		return "", err
	}

	if !found {
		payload.Translations = []translationPayload{translation}
		var created idOnly
		if err := c.do(ctx, http.MethodPost, nil, payload, &created, "items", catalog.TutorialsCollection); err != nil {
			return "", err
		}
		c.logger.Debug("created tutorial", "slug", t.Slug, "id", created.ID)
		return string(created.ID), nil
	}

	if err := c.do(ctx, http.MethodPatch, nil, payload, nil, "items", catalog.TutorialsCollection, id); err != nil {
		return "", err
	}
	if err := c.upsertTranslation(ctx, id, translation); err != nil {
		return "", err
	}
	c.logger.Debug("updated tutorial", "slug", t.Slug, "id", id)
	return id, nil
}

func (c *Client) upsertTranslation(ctx context.Context, tutorialID string, tr translationPayload) error {
	q := url.Values{}
	q.Set("filter[tutorials_id][_eq]", tutorialID)
	q.Set("filter[languages_code][_eq]", tr.LanguagesCode)
	q.Set("fields", "id")
	q.Set("limit", "1")

	var existing []idOnly
	if err := c.do(ctx, http.MethodGet, q, nil, &existing, "items", catalog.TranslationsCollection); err != nil {
		return err
	}
	if len(existing) > 0 {
		return c.do(ctx, http.MethodPatch, nil, tr, nil, "items", catalog.TranslationsCollection, string(existing[0].ID))
	}
	tr.TutorialID = tutorialID
	return c.do(ctx, http.MethodPost, nil, tr, nil, "items", catalog.TranslationsCollection)
}

// Delete implements catalog.Catalog.
func (c *Client) Delete(ctx context.Context, slug string) error {
	id, found, err := c.FindIDBySlug(ctx, slug)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("delete %q: %w", slug, catalog.ErrNotFound)
	}

	q := url.Values{}
	q.Set("filter[tutorials_id][_eq]", id)
	q.Set("fields", "id")
	q.Set("limit", "-1")
	var translations []idOnly
	if err := c.do(ctx, http.MethodGet, q, nil, &translations, "items", catalog.TranslationsCollection); err != nil {
		return err
	}
	if len(translations) > 0 {
		keys := make([]string, 0, len(translations))
		for _, tr := range translations {
			keys = append(keys, string(tr.ID))
		}
		if err := c.do(ctx, http.MethodDelete, nil, keys, nil, "items", catalog.TranslationsCollection); err != nil {
			return err
		}
	}

	return c.do(ctx, http.MethodDelete, nil, nil, nil, "items", catalog.TutorialsCollection, id)
}

// ListSlugsWithPrefix implements catalog.Catalog.
func (c *Client) ListSlugsWithPrefix(ctx context.Context, prefix string) ([]string, error) {
	q := url.Values{}
	q.Set("fields", "slug")
	q.Set("limit", "-1")
	if prefix != "" {
		q.Set("filter[slug][_starts_with]", prefix)
	}

	var items []struct {
		Slug string `json:"slug"`
	}
	if err := c.do(ctx, http.MethodGet, q, nil, &items, "items", catalog.TutorialsCollection); err != nil {
		return nil, err
	}

	var out []string
	for _, it := range items {
		if strings.HasPrefix(it.Slug, prefix) {
			out = append(out, it.Slug)
		}
	}
	return out, nil
}

// do sends a JSON request and decodes the "data" member of the response into out.
func (c *Client) do(ctx context.Context, method string, query url.Values, body, out any, segments ...string) error {
	u := c.baseURL.JoinPath(segments...)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	op := method + " /" + strings.Join(segments, "/")

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return &catalog.BackendError{Op: op, Err: fmt.Errorf("encode request: %w", err)}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return &catalog.BackendError{Op: op, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("learning API request", "op", op)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &catalog.BackendError{Op: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &catalog.BackendError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &catalog.BackendError{Op: op, StatusCode: resp.StatusCode, Message: errorMessage(raw)}
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return &catalog.BackendError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &catalog.BackendError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response data: %w", err)}
	}
	return nil
}

// errorMessage extracts Directus error messages, falling back to a trimmed body excerpt.
func errorMessage(raw []byte) string {
	var env envelope
	if err := json.Unmarshal(raw, &env); err == nil && len(env.Errors) > 0 {
		msgs := make([]string, 0, len(env.Errors))
		for _, e := range env.Errors {
			if e.Message != "" {
				msgs = append(msgs, e.Message)
			}
		}
		if len(msgs) > 0 {
			return strings.Join(msgs, "; ")
		}
	}
	msg := strings.TrimSpace(string(raw))
	if len(msg) > 200 {
		msg = msg[:200] + "..."
	}
	return msg
}
