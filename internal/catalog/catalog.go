// Package catalog defines the boundary between previewctl and the CMS holding tutorial records.
package catalog

import "context"

// Collection and field names used by the learning API.
const (
	TutorialsCollection    = "tutorials"
	CategoriesCollection   = "tutorials_categories"
	TopicsCollection       = "tutorials_topics"
	TranslationsCollection = "tutorials_translations"

	// NameField is the field category and topic references are resolved by.
	NameField = "name"
	// DefaultLanguage is the language code of the translation sub-record.
	DefaultLanguage = "en-US"
)

// Tutorial is the payload written to the catalog for one tutorial.
type Tutorial struct {
	Slug                   string
	Status                 string
	ReadingTime            int
	CatalogFeatured        bool
	Category               string
	Topics                 []string
	RequiredInstanceAccess []string
	Translation            Translation
}

// Translation is the localized part of a tutorial record.
type Translation struct {
	Title            string
	ShortDescription string
	// Content is the tutorial body as markdown.
	Content string
	// Language defaults to DefaultLanguage when empty.
	Language string
}

// Catalog is the set of operations previewctl needs from the CMS.
type Catalog interface {
	// FindIDBySlug looks a tutorial up by exact slug. found is false when none exists.
	FindIDBySlug(ctx context.Context, slug string) (id string, found bool, err error)
	// FindIDByName resolves a foreign entity by an exact field match.
	// It returns a *ReferenceNotFoundError when nothing matches.
	FindIDByName(ctx context.Context, collection, field, value string) (string, error)
	// Upsert creates the tutorial and its translation, or updates the record with the
	// same slug in place. It returns the record id.
	Upsert(ctx context.Context, t Tutorial) (string, error)
	// Delete removes the tutorial identified by slug and its translations.
	// It returns ErrNotFound when the slug does not exist.
	Delete(ctx context.Context, slug string) error
	// ListSlugsWithPrefix lists tutorial slugs starting with prefix, in catalog order.
	ListSlugsWithPrefix(ctx context.Context, prefix string) ([]string, error)
}

// LanguageOrDefault returns the translation language, falling back to DefaultLanguage.
func (t Translation) LanguageOrDefault() string {
	if t.Language == "" {
		return DefaultLanguage
	}
	return t.Language
}
