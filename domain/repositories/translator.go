package repositories

import (
	"context"

	"github.com/wras-dhh/server/domain/entities"
)

// Translator abstracts machine translation from English into one of the
// announcement languages. Implementations must not make failure fatal for
// callers; callers substitute the source text when translation fails.
type Translator interface {
	Translate(ctx context.Context, text string, target entities.Language) (string, error)
}
