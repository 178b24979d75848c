// Package memory is an in-process catalog used for dry runs and tests.
package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/qiskit/previewctl/internal/catalog"
)

// Record is a stored tutorial with its references resolved to ids.
type Record struct {
	ID          string
	Tutorial    catalog.Tutorial
	CategoryID  string
	TopicIDs    []string
	// Language is the language code the translation was stored under.
	Language string
}

// Store keeps tutorials in insertion order and named references per collection.
type Store struct {
	mu      sync.Mutex
	records []*Record
	refs    map[string]map[string]string
	lenient bool
	newID   func() string
}

// Option configures a Store.
type Option func(*Store)

// WithReferences registers names in a reference collection (categories or topics).
func WithReferences(collection string, names ...string) Option {
	return func(s *Store) {
		for _, name := range names {
			s.register(collection, name)
		}
	}
}

// WithLenientReferences makes unknown category and topic names resolve to fresh ids
// instead of failing. Dry runs use it since they have no real reference data.
func WithLenientReferences() Option {
	return func(s *Store) { s.lenient = true }
}

// WithTutorials seeds the store with existing tutorials.
func WithTutorials(slugs ...string) Option {
	return func(s *Store) {
		for _, slug := range slugs {
			s.records = append(s.records, &Record{ID: s.newID(), Tutorial: catalog.Tutorial{Slug: slug}})
		}
	}
}

// New returns an empty store configured by opts.
func New(opts ...Option) *Store {
	s := &Store{
		refs:  make(map[string]map[string]string),
		newID: func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ catalog.Catalog = (*Store)(nil)

func (s *Store) register(collection, name string) string {
	names, ok := s.refs[collection]
	if !ok {
		names = make(map[string]string)
		s.refs[collection] = names
	}
	if id, ok := names[name]; ok {
		return id
	}
	id := s.newID()
	names[name] = id
	return id
}

func (s *Store) indexOf(slug string) int {
	return slices.IndexFunc(s.records, func(r *Record) bool { return r.Tutorial.Slug == slug })
}

// FindIDBySlug implements catalog.Catalog.
func (s *Store) FindIDBySlug(_ context.Context, slug string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(slug); i >= 0 {
		return s.records[i].ID, true, nil
	}
	return "", false, nil
}

// FindIDByName implements catalog.Catalog. Only the name field is indexed.
func (s *Store) FindIDByName(_ context.Context, collection, field, value string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolve(collection, field, value)
}

func (s *Store) resolve(collection, field, value string) (string, error) {
	if field != catalog.NameField {
		return "", fmt.Errorf("memory catalog only resolves by %q, got %q", catalog.NameField, field)
	}
	if id, ok := s.refs[collection][value]; ok {
		return id, nil
	}
	if s.lenient {
		return s.register(collection, value), nil
	}
	return "", &catalog.ReferenceNotFoundError{Collection: collection, Field: field, Value: value}
}

// Upsert implements catalog.Catalog.
func (s *Store) Upsert(_ context.Context, t catalog.Tutorial) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	categoryID, err := s.resolve(catalog.CategoriesCollection, catalog.NameField, t.Category)
	if err != nil {
		return "", err
	}
	topicIDs := make([]string, 0, len(t.Topics))
	for _, topic := range t.Topics {
		id, err := s.resolve(catalog.TopicsCollection, catalog.NameField, topic)
		if err != nil {
			return "", err
		}
		topicIDs = append(topicIDs, id)
	}

	t.Topics = slices.Clone(t.Topics)
	t.RequiredInstanceAccess = slices.Clone(t.RequiredInstanceAccess)
	rec := &Record{
		Tutorial:    t,
		CategoryID:  categoryID,
		TopicIDs:    topicIDs,
		Language:    t.Translation.LanguageOrDefault(),
	}
	if i := s.indexOf(t.Slug); i >= 0 {
		rec.ID = s.records[i].ID
		s.records[i] = rec
		return rec.ID, nil
	}
	rec.ID = s.newID()
	s.records = append(s.records, rec)
	return rec.ID, nil
}

// Delete implements catalog.Catalog.
func (s *Store) Delete(_ context.Context, slug string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(slug)
	if i < 0 {
		return fmt.Errorf("delete %q: %w", slug, catalog.ErrNotFound)
	}
	s.records = slices.Delete(s.records, i, i+1)
	return nil
}

// ListSlugsWithPrefix implements catalog.Catalog.
func (s *Store) ListSlugsWithPrefix(_ context.Context, prefix string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, r := range s.records {
		if strings.HasPrefix(r.Tutorial.Slug, prefix) {
			out = append(out, r.Tutorial.Slug)
		}
	}
	return out, nil
}

// Get returns a copy of the record stored under slug.
func (s *Store) Get(slug string) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(slug)
	if i < 0 {
		return Record{}, false
	}
	return *s.records[i], true
}

// Slugs returns every stored slug in insertion order.
func (s *Store) Slugs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r.Tutorial.Slug)
	}
	return out
}

// ReferenceID returns the id registered for name in collection.
func (s *Store) ReferenceID(collection, name string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.refs[collection][name]
	return id, ok
}
