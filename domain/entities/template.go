package entities

import (
	"strings"
	"time"
)

// AnnouncementTemplate is a reusable announcement text per category, holding
// one text per language. English text is always present; other languages are
// optional and fall back to English at render time.
type AnnouncementTemplate struct {
	ID        string              `bson:"_id,omitempty" json:"id"`
	Category  string              `bson:"category" json:"category"`
	Title     string              `bson:"title" json:"title"`
	Texts     map[Language]string `bson:"texts" json:"texts"`
	Active    bool                `bson:"active" json:"active"`
	CreatedAt time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time           `bson:"updated_at" json:"updated_at"`
}

// NewAnnouncementTemplate creates an active template. englishText must not be
// empty; translations may be filled in later.
func NewAnnouncementTemplate(category, title, englishText string) *AnnouncementTemplate {
	now := time.Now()
	return &AnnouncementTemplate{
		Category: category,
		Title:    title,
		Texts: map[Language]string{
			LanguageEnglish: strings.TrimSpace(englishText),
		},
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// TextFor returns the template text for lang, falling back to the English
// text when no translation is stored.
func (t *AnnouncementTemplate) TextFor(lang Language) string {
	if text, ok := t.Texts[lang]; ok && text != "" {
		return text
	}
	return t.Texts[LanguageEnglish]
}

// SetText stores the text for one language.
func (t *AnnouncementTemplate) SetText(lang Language, text string) {
	if t.Texts == nil {
		t.Texts = make(map[Language]string)
	}
	t.Texts[lang] = strings.TrimSpace(text)
	t.UpdatedAt = time.Now()
}
