package repositories

import (
	"context"

	"github.com/wras-dhh/server/domain/entities"
)

// Synthesizer abstracts text-to-speech. Each language maps to one configured
// voice identity; the speaking rate is fixed slightly below normal for
// clarity and is not caller-selectable.
type Synthesizer interface {
	// Synthesize returns encoded audio bytes for text spoken in lang's
	// configured voice. Empty output is an error.
	Synthesize(ctx context.Context, text string, lang entities.Language) ([]byte, error)
}
