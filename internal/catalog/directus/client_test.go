package directus

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qiskit/previewctl/internal/catalog"
)

const testToken = "test-token"

// fakeDirectus serves the subset of the Directus items API the client uses.
type fakeDirectus struct {
	mu       sync.Mutex
	items    map[string][]map[string]any
	nextID   int
	requests []string
	failWith int
}

var filterKey = regexp.MustCompile(`^filter\[(\w+)\]\[(_eq|_starts_with)\]$`)

func newFakeDirectus(t *testing.T) (*fakeDirectus, *Client) {
	t.Helper()
	f := &fakeDirectus{
		items: map[string][]map[string]any{
			catalog.CategoriesCollection: {{"id": float64(7), "name": "Workflow example"}},
			catalog.TopicsCollection: {
				{"id": float64(1), "name": "Scheduling"},
				{"id": float64(2), "name": "PR preview"},
			},
		},
		nextID: 100,
	}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{URL: srv.URL + "/", Token: testToken, Timeout: 5 * time.Second}, nil)
	require.NoError(t, err)
	return f, client
}

func (f *fakeDirectus) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, r.Method+" "+r.URL.Path)
	if r.Header.Get("Authorization") != "Bearer "+testToken {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"errors": []map[string]string{{"message": "Invalid user credentials."}}})
		return
	}
	if f.failWith != 0 {
		writeJSON(w, f.failWith, map[string]any{"errors": []map[string]string{{"message": "boom"}}})
		return
	}

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) < 2 || parts[0] != "items" {
		http.NotFound(w, r)
		return
	}
	collection := parts[1]

	switch {
	case r.Method == http.MethodGet && len(parts) == 2:
		writeJSON(w, http.StatusOK, map[string]any{"data": f.filter(collection, r)})
	case r.Method == http.MethodPost && len(parts) == 2:
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": f.create(collection, body)})
	case r.Method == http.MethodPatch && len(parts) == 3:
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		item := f.find(collection, parts[2])
		if item == nil {
			http.NotFound(w, r)
			return
		}
		for k, v := range body {
			item[k] = v
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": item})
	case r.Method == http.MethodDelete && len(parts) == 3:
		f.remove(collection, parts[2])
		w.WriteHeader(http.StatusNoContent)
	case r.Method == http.MethodDelete && len(parts) == 2:
		var keys []string
		if err := json.NewDecoder(r.Body).Decode(&keys); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		for _, k := range keys {
			f.remove(collection, k)
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "unsupported", http.StatusMethodNotAllowed)
	}
}

func (f *fakeDirectus) filter(collection string, r *http.Request) []map[string]any {
	out := []map[string]any{}
	for _, item := range f.items[collection] {
		match := true
		for key, values := range r.URL.Query() {
			m := filterKey.FindStringSubmatch(key)
			if m == nil {
				continue
			}
			got := fmt.Sprint(item[m[1]])
			switch m[2] {
			case "_eq":
				match = match && got == values[0]
			case "_starts_with":
				match = match && strings.HasPrefix(got, values[0])
			}
		}
		if match {
			out = append(out, item)
		}
	}
	return out
}

func (f *fakeDirectus) create(collection string, body map[string]any) map[string]any {
	f.nextID++
	id := fmt.Sprintf("id-%d", f.nextID)
	body["id"] = id
	if translations, ok := body["translations"].([]any); ok {
		delete(body, "translations")
		for _, tr := range translations {
			trMap := tr.(map[string]any)
			trMap["tutorials_id"] = id
			f.create(catalog.TranslationsCollection, trMap)
		}
	}
	f.items[collection] = append(f.items[collection], body)
	return body
}

func (f *fakeDirectus) find(collection, id string) map[string]any {
	for _, item := range f.items[collection] {
		if fmt.Sprint(item["id"]) == id {
			return item
		}
	}
	return nil
}

func (f *fakeDirectus) remove(collection, id string) {
	kept := f.items[collection][:0]
	for _, item := range f.items[collection] {
		if fmt.Sprint(item["id"]) != id {
			kept = append(kept, item)
		}
	}
	f.items[collection] = kept
}

func (f *fakeDirectus) count(collection string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items[collection])
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func previewTutorial() catalog.Tutorial {
	return catalog.Tutorial{
		Slug:                   "pr-3456-my-tutorial",
		Status:                 "published",
		ReadingTime:            20,
		Category:               "Workflow example",
		Topics:                 []string{"Scheduling", "PR preview"},
		RequiredInstanceAccess: []string{"org/doc"},
		Translation: catalog.Translation{
			Title:            "Preview (PR#3456): My tutorial",
			ShortDescription: "Simple tutorial to test the PR preview script",
			Content:          "Some simple content.\n",
		},
	}
}

func TestUpsertCreatesTutorialWithTranslation(t *testing.T) {
	f, client := newFakeDirectus(t)
	ctx := context.Background()

	_, found, err := client.FindIDBySlug(ctx, "pr-3456-my-tutorial")
	require.NoError(t, err)
	assert.False(t, found)

	id, err := client.Upsert(ctx, previewTutorial())
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	got, found, err := client.FindIDBySlug(ctx, "pr-3456-my-tutorial")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, id, got)

	f.mu.Lock()
	defer f.mu.Unlock()
	tutorial := f.items[catalog.TutorialsCollection][0]
	assert.Equal(t, "7", fmt.Sprint(tutorial["category"]))
	assert.Equal(t, []any{
		map[string]any{"tutorials_topics_id": "1"},
		map[string]any{"tutorials_topics_id": "2"},
	}, tutorial["topics"])
	assert.Equal(t, []any{"org/doc"}, tutorial["required_instance_access"])

	require.Len(t, f.items[catalog.TranslationsCollection], 1)
	tr := f.items[catalog.TranslationsCollection][0]
	assert.Equal(t, "Preview (PR#3456): My tutorial", tr["title"])
	assert.Equal(t, "Some simple content.\n", tr["content"])
	assert.Equal(t, "en-US", tr["languages_code"])
	assert.Equal(t, id, tr["tutorials_id"])
}

func TestUpsertIsIdempotent(t *testing.T) {
	f, client := newFakeDirectus(t)
	ctx := context.Background()

	first, err := client.Upsert(ctx, previewTutorial())
	require.NoError(t, err)

	changed := previewTutorial()
	changed.ReadingTime = 30
	changed.Translation.Content = "Updated.\n"
	second, err := client.Upsert(ctx, changed)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, f.count(catalog.TutorialsCollection))
	assert.Equal(t, 1, f.count(catalog.TranslationsCollection))

	f.mu.Lock()
	defer f.mu.Unlock()
	assert.Equal(t, float64(30), f.items[catalog.TutorialsCollection][0]["reading_time"])
	assert.Equal(t, "Updated.\n", f.items[catalog.TranslationsCollection][0]["content"])
	assert.Contains(t, f.requests, "PATCH /items/tutorials/"+first)
}

func TestUpsertRecreatesMissingTranslation(t *testing.T) {
	f, client := newFakeDirectus(t)
	ctx := context.Background()

	id, err := client.Upsert(ctx, previewTutorial())
	require.NoError(t, err)
	f.mu.Lock()
	f.items[catalog.TranslationsCollection] = nil
	f.mu.Unlock()

	_, err = client.Upsert(ctx, previewTutorial())
	require.NoError(t, err)

	f.mu.Lock()
	defer f.mu.Unlock()
	require.Len(t, f.items[catalog.TranslationsCollection], 1)
	assert.Equal(t, id, f.items[catalog.TranslationsCollection][0]["tutorials_id"])
}

func TestUpsertUnknownTopic(t *testing.T) {
	f, client := newFakeDirectus(t)
	bad := previewTutorial()
	bad.Topics = []string{"Scheduling", "Nonexistent"}

	_, err := client.Upsert(context.Background(), bad)
	var rerr *catalog.ReferenceNotFoundError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "Nonexistent", rerr.Value)
	assert.Equal(t, catalog.TopicsCollection, rerr.Collection)
	assert.Equal(t, 0, f.count(catalog.TutorialsCollection))
}

func TestDeleteRemovesTranslations(t *testing.T) {
	f, client := newFakeDirectus(t)
	ctx := context.Background()

	_, err := client.Upsert(ctx, previewTutorial())
	require.NoError(t, err)
	require.NoError(t, client.Delete(ctx, "pr-3456-my-tutorial"))

	assert.Equal(t, 0, f.count(catalog.TutorialsCollection))
	assert.Equal(t, 0, f.count(catalog.TranslationsCollection))
	assert.ErrorIs(t, client.Delete(ctx, "pr-3456-my-tutorial"), catalog.ErrNotFound)
}

func TestListSlugsWithPrefix(t *testing.T) {
	f, client := newFakeDirectus(t)
	f.mu.Lock()
	for _, slug := range []string{"pr-3456-a", "other-slug", "pr-3456-b", "pr-34567-c"} {
		f.create(catalog.TutorialsCollection, map[string]any{"slug": slug})
	}
	f.mu.Unlock()

	slugs, err := client.ListSlugsWithPrefix(context.Background(), "pr-3456-")
	require.NoError(t, err)
	assert.Equal(t, []string{"pr-3456-a", "pr-3456-b"}, slugs)

	none, err := client.ListSlugsWithPrefix(context.Background(), "pr-1-")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestBackendErrors(t *testing.T) {
	f, client := newFakeDirectus(t)
	f.failWith = http.StatusServiceUnavailable

	_, _, err := client.FindIDBySlug(context.Background(), "x")
	var berr *catalog.BackendError
	require.ErrorAs(t, err, &berr)
	assert.Equal(t, http.StatusServiceUnavailable, berr.StatusCode)
	assert.Equal(t, "boom", berr.Message)
	assert.Equal(t, "GET /items/tutorials", berr.Op)
}

func TestUnauthorized(t *testing.T) {
	f, _ := newFakeDirectus(t)
	srv := httptest.NewServer(f)
	defer srv.Close()

	client, err := NewClient(Config{URL: srv.URL, Token: "wrong", Timeout: time.Second}, nil)
	require.NoError(t, err)

	_, err = client.ListSlugsWithPrefix(context.Background(), "pr-1-")
	var berr *catalog.BackendError
	require.ErrorAs(t, err, &berr)
	assert.Equal(t, http.StatusUnauthorized, berr.StatusCode)
	assert.Contains(t, err.Error(), "Invalid user credentials.")
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client, err := NewClient(Config{URL: url, Token: testToken, Timeout: time.Second}, nil)
	require.NoError(t, err)

	_, _, err = client.FindIDBySlug(context.Background(), "x")
	var berr *catalog.BackendError
	require.ErrorAs(t, err, &berr)
	assert.Zero(t, berr.StatusCode)
	assert.Error(t, berr.Err)
}

func TestErrorMessageFallback(t *testing.T) {
	assert.Equal(t, "plain failure", errorMessage([]byte("  plain failure \n")))
	long := strings.Repeat("x", 300)
	assert.Len(t, errorMessage([]byte(long)), 203)
}

func TestItemIDAcceptsNumbers(t *testing.T) {
	var ids []idOnly
	require.NoError(t, json.Unmarshal([]byte(`[{"id": 12}, {"id": "abc"}]`), &ids))
	assert.Equal(t, itemID("12"), ids[0].ID)
	assert.Equal(t, itemID("abc"), ids[1].ID)
}
