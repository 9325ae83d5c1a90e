package translate

import (
	"context"
	"fmt"
	"html"
	"strings"

	gtranslate "cloud.google.com/go/translate"
	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/wras-dhh/server/domain/entities"
	"github.com/wras-dhh/server/domain/repositories"
)

// GoogleTranslator implements repositories.Translator on the Google Cloud
// Translation API. Source text is always English.
type GoogleTranslator struct {
	client *gtranslate.Client
	logger *zap.Logger
}

var _ repositories.Translator = (*GoogleTranslator)(nil)

func NewGoogleTranslator(ctx context.Context, logger *zap.Logger) (*GoogleTranslator, error) {
	client, err := gtranslate.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create translate client: %w", err)
	}
	return &GoogleTranslator{client: client, logger: logger}, nil
}

// Translate implements repositories.Translator. Translating to English is a
// no-op since English is the source language.
func (g *GoogleTranslator) Translate(ctx context.Context, text string, target entities.Language) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" || target == entities.LanguageEnglish {
		return text, nil
	}

	tag, err := language.Parse(target.TranslateCode())
	if err != nil {
		return "", fmt.Errorf("invalid target language %s: %w", target, err)
	}

	resp, err := g.client.Translate(ctx, []string{text}, tag, &gtranslate.Options{
		Source: language.English,
		Format: gtranslate.Text,
	})
	if err != nil {
		return "", fmt.Errorf("failed to translate to %s: %w", target, err)
	}
	if len(resp) == 0 || resp[0].Text == "" {
		return "", fmt.Errorf("empty translation returned for %s", target)
	}

	translated := html.UnescapeString(resp[0].Text)
	g.logger.Debug("translated text",
		zap.String("target", string(target)),
		zap.Int("chars", len(translated)),
	)
	return translated, nil
}

func (g *GoogleTranslator) Close() error {
	return g.client.Close()
}
