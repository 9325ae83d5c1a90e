package repositories

import (
	"context"

	"github.com/wras-dhh/server/domain/entities"
)

// Recognizer abstracts speech-to-text. The container encoding is detected
// from the uploaded filename's extension (wav, mp3, webm). An empty
// transcript is a valid, non-error result.
type Recognizer interface {
	Recognize(ctx context.Context, audio []byte, filename string, lang entities.Language) (string, error)
}
