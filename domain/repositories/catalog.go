package repositories

import (
	"context"

	"github.com/wras-dhh/server/domain/entities"
)

// ClipQuery describes one catalog lookup. Text is matched case-insensitively
// and trimmed against the MatchLanguage text field; only clips that carry an
// audio path for AudioLanguage qualify. TemplateID scopes the lookup to one
// template's harvested segments; empty means the general catalog (clips with
// no template scope). Inactive clips never match.
type ClipQuery struct {
	Text          string
	MatchLanguage entities.Language
	AudioLanguage entities.Language
	TemplateID    string
}

// CatalogRepository is the Catalog Store consumed by the resolver and the
// synthesis fallback.
type CatalogRepository interface {
	// FindExact returns the first active clip whose text equals the query
	// text, or nil when none matches.
	FindExact(ctx context.Context, q ClipQuery) (*entities.CatalogClip, error)
	// FindContains returns all active clips whose text contains the query
	// text as a substring. Callers rank the candidates.
	FindContains(ctx context.Context, q ClipQuery) ([]*entities.CatalogClip, error)
	// CountByTemplate counts active harvested segments for a template.
	CountByTemplate(ctx context.Context, templateID string) (int64, error)
	// DeactivateByTemplate soft-deletes every active harvested segment of
	// a template and reports how many it touched. Used before a re-harvest
	// and when the template itself is deleted.
	DeactivateByTemplate(ctx context.Context, templateID string) (int64, error)
	Insert(ctx context.Context, clip *entities.CatalogClip) error
	Update(ctx context.Context, clip *entities.CatalogClip) error
}

// TemplateRepository is the template side of the Catalog Store.
type TemplateRepository interface {
	// GetByID returns the active template or domain.ErrNotFound.
	GetByID(ctx context.Context, id string) (*entities.AnnouncementTemplate, error)
	// FindByEnglishText returns an active template with the same trimmed
	// English text, or nil when none exists. Used for duplicate checks.
	FindByEnglishText(ctx context.Context, text string) (*entities.AnnouncementTemplate, error)
	List(ctx context.Context) ([]*entities.AnnouncementTemplate, error)
	Insert(ctx context.Context, template *entities.AnnouncementTemplate) error
	// Deactivate soft-deletes a template, or domain.ErrNotFound when no
	// active template has that id.
	Deactivate(ctx context.Context, id string) error
}
