// Package catalog resolves announcement text to pre-recorded audio clips.
package catalog

import (
	"context"
	"strings"

	"github.com/antzucaro/matchr"
	"go.uber.org/zap"

	"github.com/wras-dhh/server/domain/entities"
	"github.com/wras-dhh/server/domain/repositories"
	"github.com/wras-dhh/server/internal/segmenter"
)

// Resolver maps literal text runs and placeholder values to ordered audio
// clip paths, trying progressively looser matches: exact within the
// template's harvested segments, ranked partial within the same scope, exact
// in the general catalog, then value-specific decomposition.
type Resolver struct {
	repo   repositories.CatalogRepository
	logger *zap.Logger
}

func NewResolver(repo repositories.CatalogRepository, logger *zap.Logger) *Resolver {
	return &Resolver{repo: repo, logger: logger}
}

// ResolveLiteral resolves a literal text run for one language. templateID
// scopes the first two lookup steps to the template's harvested segments.
// A nil result with nil error is a resolution miss: the caller drops the
// segment and continues.
func (r *Resolver) ResolveLiteral(ctx context.Context, text string, lang entities.Language, templateID string) ([]string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	if templateID != "" {
		clip, err := r.repo.FindExact(ctx, repositories.ClipQuery{
			Text:          text,
			MatchLanguage: lang,
			AudioLanguage: lang,
			TemplateID:    templateID,
		})
		if err != nil {
			return nil, err
		}
		if clip != nil {
			return []string{clip.AudioFor(lang)}, nil
		}

		clip, err = r.rankedContains(ctx, repositories.ClipQuery{
			Text:          text,
			MatchLanguage: lang,
			AudioLanguage: lang,
			TemplateID:    templateID,
		})
		if err != nil {
			return nil, err
		}
		if clip != nil {
			r.logger.Debug("resolved literal by partial segment match",
				zap.String("text", text),
				zap.String("language", lang.String()),
				zap.String("matched", clip.TextFor(lang)))
			return []string{clip.AudioFor(lang)}, nil
		}
	}

	clip, err := r.repo.FindExact(ctx, repositories.ClipQuery{
		Text:          text,
		MatchLanguage: lang,
		AudioLanguage: lang,
	})
	if err != nil {
		return nil, err
	}
	if clip != nil {
		return []string{clip.AudioFor(lang)}, nil
	}

	r.logger.Debug("no audio found for literal text",
		zap.String("text", text),
		zap.String("language", lang.String()))
	return nil, nil
}

// ResolvePlaceholder resolves a bound placeholder value for one language.
// Purely numeric values decompose into per-digit words and resolve
// all-or-nothing; station fields fall back to a ranked partial match; train
// names fall back to word-by-word resolution that accepts a partial result.
func (r *Resolver) ResolvePlaceholder(ctx context.Context, name, value string, lang entities.Language) ([]string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}

	if segmenter.IsDigits(value) {
		return r.resolveDigits(ctx, value, lang)
	}

	// Placeholders match against the English text field; the audio column is
	// language-specific. The catalog is keyed by English for dynamic values.
	clip, err := r.repo.FindExact(ctx, repositories.ClipQuery{
		Text:          value,
		MatchLanguage: entities.LanguageEnglish,
		AudioLanguage: lang,
	})
	if err != nil {
		return nil, err
	}
	if clip != nil {
		return []string{clip.AudioFor(lang)}, nil
	}

	switch {
	case strings.Contains(name, "station"):
		clip, err := r.rankedContains(ctx, repositories.ClipQuery{
			Text:          value,
			MatchLanguage: entities.LanguageEnglish,
			AudioLanguage: lang,
		})
		if err != nil {
			return nil, err
		}
		if clip != nil {
			r.logger.Debug("resolved station by partial match",
				zap.String("value", value),
				zap.String("matched", clip.TextFor(entities.LanguageEnglish)))
			return []string{clip.AudioFor(lang)}, nil
		}
	case strings.Contains(name, "train_name"):
		return r.resolveWords(ctx, value, lang)
	}

	r.logger.Debug("no audio found for placeholder",
		zap.String("placeholder", name),
		zap.String("value", value),
		zap.String("language", lang.String()))
	return nil, nil
}

// resolveDigits maps each digit to its English word and resolves the words
// independently. One unresolved digit fails the whole value: a train number
// spoken with missing digits is worse than none at all.
func (r *Resolver) resolveDigits(ctx context.Context, value string, lang entities.Language) ([]string, error) {
	paths := make([]string, 0, len(value))
	for _, digit := range value {
		word, ok := segmenter.DigitWord(digit)
		if !ok {
			return nil, nil
		}
		clip, err := r.repo.FindExact(ctx, repositories.ClipQuery{
			Text:          word,
			MatchLanguage: entities.LanguageEnglish,
			AudioLanguage: lang,
		})
		if err != nil {
			return nil, err
		}
		if clip == nil {
			r.logger.Debug("digit word missing from catalog",
				zap.String("word", word),
				zap.String("language", lang.String()))
			return nil, nil
		}
		paths = append(paths, clip.AudioFor(lang))
	}
	return paths, nil
}

// resolveWords splits value on whitespace and resolves each word
// independently, keeping whatever subset succeeds.
func (r *Resolver) resolveWords(ctx context.Context, value string, lang entities.Language) ([]string, error) {
	var paths []string
	for _, word := range strings.Fields(value) {
		clip, err := r.repo.FindExact(ctx, repositories.ClipQuery{
			Text:          word,
			MatchLanguage: entities.LanguageEnglish,
			AudioLanguage: lang,
		})
		if err != nil {
			return nil, err
		}
		if clip == nil {
			r.logger.Debug("word missing from catalog, skipping",
				zap.String("word", word),
				zap.String("language", lang.String()))
			continue
		}
		paths = append(paths, clip.AudioFor(lang))
	}
	return paths, nil
}

// rankedContains fetches substring candidates and picks the one closest to
// the query by Levenshtein distance, ties broken by shorter candidate text.
// One rule for every partial-match call site.
func (r *Resolver) rankedContains(ctx context.Context, q repositories.ClipQuery) (*entities.CatalogClip, error) {
	candidates, err := r.repo.FindContains(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	query := strings.ToLower(strings.TrimSpace(q.Text))
	var best *entities.CatalogClip
	bestDistance := 0
	for _, clip := range candidates {
		candidate := strings.ToLower(strings.TrimSpace(clip.TextFor(q.MatchLanguage)))
		distance := matchr.Levenshtein(query, candidate)
		if best == nil ||
			distance < bestDistance ||
			(distance == bestDistance && len(candidate) < len(strings.ToLower(best.TextFor(q.MatchLanguage)))) {
			best = clip
			bestDistance = distance
		}
	}
	return best, nil
}
