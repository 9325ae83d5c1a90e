package entities

import (
	"strings"
	"time"
)

// CatalogClip maps announcement text to stored audio files, one path per
// language. A clip with TemplateID set is a segment harvested from that
// template; a clip without one belongs to the general catalog. Clips are
// soft-deleted by clearing Active, never removed.
type CatalogClip struct {
	ID         string              `bson:"_id,omitempty" json:"id"`
	TemplateID string              `bson:"template_id,omitempty" json:"template_id,omitempty"`
	Texts      map[Language]string `bson:"texts" json:"texts"`
	AudioPaths map[Language]string `bson:"audio_paths" json:"audio_paths"`
	// Span records where a harvested segment sits in its template text.
	SpanStart int       `bson:"span_start,omitempty" json:"span_start,omitempty"`
	SpanEnd   int       `bson:"span_end,omitempty" json:"span_end,omitempty"`
	Active    bool      `bson:"active" json:"active"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// NewHarvestedClip creates an active clip scoped to templateID for one
// literal segment of the template text, recording where the segment sits.
func NewHarvestedClip(templateID, englishText string, spanStart, spanEnd int) *CatalogClip {
	clip := NewCatalogClip(englishText)
	clip.TemplateID = templateID
	clip.SpanStart = spanStart
	clip.SpanEnd = spanEnd
	return clip
}

// NewCatalogClip creates an active general-catalog clip for englishText.
func NewCatalogClip(englishText string) *CatalogClip {
	now := time.Now()
	return &CatalogClip{
		Texts: map[Language]string{
			LanguageEnglish: strings.TrimSpace(englishText),
		},
		AudioPaths: make(map[Language]string),
		Active:     true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// TextFor returns the clip text for lang, empty when not stored.
func (c *CatalogClip) TextFor(lang Language) string {
	return c.Texts[lang]
}

// AudioFor returns the stored audio path for lang, empty when not stored.
func (c *CatalogClip) AudioFor(lang Language) string {
	return c.AudioPaths[lang]
}

// SetAudio records the audio path for one language.
func (c *CatalogClip) SetAudio(lang Language, path string) {
	if c.AudioPaths == nil {
		c.AudioPaths = make(map[Language]string)
	}
	c.AudioPaths[lang] = path
	c.UpdatedAt = time.Now()
}

// SetText records the text for one language.
func (c *CatalogClip) SetText(lang Language, text string) {
	if c.Texts == nil {
		c.Texts = make(map[Language]string)
	}
	c.Texts[lang] = strings.TrimSpace(text)
	c.UpdatedAt = time.Now()
}
