package usecase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/wras-dhh/server/domain/entities"
	"github.com/wras-dhh/server/domain/repositories"
	"github.com/wras-dhh/server/internal/config"
	"github.com/wras-dhh/server/internal/progress"
	"github.com/wras-dhh/server/internal/segmenter"
	"github.com/wras-dhh/server/internal/worker"
)

// TemplateService owns the template lifecycle beyond storage: harvesting
// per-segment audio so announcements can be assembled from template-scoped
// clips, and soft-deleting templates together with their segments.
type TemplateService struct {
	templates   repositories.TemplateRepository
	clips       repositories.CatalogRepository
	translator  repositories.Translator
	synthesizer repositories.Synthesizer
	tracker     *progress.Tracker
	pool        *worker.Pool
	cfg         *config.Config
	logger      *zap.Logger
}

func NewTemplateService(
	templates repositories.TemplateRepository,
	clips repositories.CatalogRepository,
	translator repositories.Translator,
	synthesizer repositories.Synthesizer,
	tracker *progress.Tracker,
	pool *worker.Pool,
	cfg *config.Config,
	logger *zap.Logger,
) *TemplateService {
	return &TemplateService{
		templates:   templates,
		clips:       clips,
		translator:  translator,
		synthesizer: synthesizer,
		tracker:     tracker,
		pool:        pool,
		cfg:         cfg,
		logger:      logger,
	}
}

// HarvestSegments splits the template's English text into literal runs and
// schedules a job that synthesizes each run in every language, storing the
// results as template-scoped catalog clips. A previous harvest for the same
// template is deactivated first, so re-harvesting replaces rather than
// accumulates. Returns the progress key.
func (s *TemplateService) HarvestSegments(ctx context.Context, templateID string) (string, error) {
	template, err := s.templates.GetByID(ctx, templateID)
	if err != nil {
		return "", err
	}

	literals := literalSegments(template.TextFor(entities.LanguageEnglish))
	if len(literals) == 0 {
		return "", fmt.Errorf("template %s has no literal text to harvest", template.ID)
	}

	key := "segments_" + template.ID
	s.tracker.Start(key, len(entities.GenerationOrder))

	if !s.pool.Submit("segments:"+key, func(ctx context.Context) {
		s.harvest(ctx, key, template, literals)
	}) {
		s.tracker.Fail(key, "server is busy, try again later")
		return "", ErrQueueFull
	}
	return key, nil
}

// Progress returns the tracked state for a harvest key.
func (s *TemplateService) Progress(key string) (progress.Job, bool) {
	return s.tracker.Get(key)
}

// Delete soft-deletes the template and every harvested segment scoped to
// it, returning how many segments were deactivated.
func (s *TemplateService) Delete(ctx context.Context, id string) (int64, error) {
	if err := s.templates.Deactivate(ctx, id); err != nil {
		return 0, err
	}
	removed, err := s.clips.DeactivateByTemplate(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("template %s deactivated but its segments were not: %w", id, err)
	}
	s.logger.Info("template deleted",
		zap.String("template", id),
		zap.Int64("segments_deactivated", removed))
	return removed, nil
}

// harvest runs one segment-generation job. A language is all-or-nothing:
// when any of its segments fails to synthesize the language is skipped and
// the announcement flow will refuse it as incomplete.
func (s *TemplateService) harvest(ctx context.Context, key string, template *entities.AnnouncementTemplate, literals []segmenter.Segment) {
	s.tracker.SetStatus(key, progress.StatusProcessing)

	replaced, err := s.clips.DeactivateByTemplate(ctx, template.ID)
	if err != nil {
		s.tracker.Fail(key, fmt.Sprintf("failed to clear previous segments: %v", err))
		return
	}

	pending := make([]*entities.CatalogClip, 0, len(literals))
	for _, seg := range literals {
		pending = append(pending, entities.NewHarvestedClip(
			template.ID, seg.Value, seg.Start, seg.End))
	}

	completed := 0
	for _, lang := range entities.GenerationOrder {
		s.tracker.SetLanguage(key, lang, completed)

		var size int64
		failed := false
		for _, clip := range pending {
			source := clip.TextFor(entities.LanguageEnglish)
			spoken := source
			if lang != entities.LanguageEnglish {
				translated, err := s.translator.Translate(ctx, source, lang)
				if err != nil {
					s.logger.Warn("segment translation failed, using source text",
						zap.String("language", lang.String()),
						zap.Error(err))
				} else {
					spoken = translated
				}
			}

			audio, err := s.synthesizer.Synthesize(ctx, spoken, lang)
			if err != nil {
				s.logger.Warn("segment synthesis failed, skipping language",
					zap.String("language", lang.String()),
					zap.String("segment", source),
					zap.Error(err))
				failed = true
				break
			}

			path := filepath.Join(
				s.cfg.SynthesizedDir(),
				fmt.Sprintf("segment_%s_%s_%s.mp3", lang, timestamp(), shortID()),
			)
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				s.tracker.Fail(key, fmt.Sprintf("failed to create audio dir: %v", err))
				return
			}
			if err := os.WriteFile(path, audio, 0o644); err != nil {
				s.tracker.Fail(key, fmt.Sprintf("failed to store segment audio: %v", err))
				return
			}

			clip.SetText(lang, spoken)
			clip.SetAudio(lang, s.cfg.AudioURL(path))
			size += int64(len(audio))
		}
		if failed {
			continue
		}

		completed++
		s.tracker.SetLanguage(key, lang, completed)
		s.tracker.SetOutput(key, lang, progress.LanguageOutput{
			FileSize:     size,
			SegmentsUsed: len(pending),
		})
	}

	if completed == 0 {
		s.tracker.Fail(key, "no language could be synthesized")
		return
	}

	for _, clip := range pending {
		if err := s.clips.Insert(ctx, clip); err != nil {
			s.tracker.Fail(key, fmt.Sprintf("failed to store segment: %v", err))
			return
		}
	}

	s.tracker.SetStatus(key, progress.StatusCompleted)
	s.logger.Info("template segments harvested",
		zap.String("template", template.ID),
		zap.Int("segments", len(pending)),
		zap.Int64("replaced", replaced),
		zap.Int("languages", completed))
}

// literalSegments returns the non-blank literal runs of text, values
// trimmed, source spans kept.
func literalSegments(text string) []segmenter.Segment {
	var out []segmenter.Segment
	for _, seg := range segmenter.Split(text) {
		if seg.Kind != segmenter.KindLiteral {
			continue
		}
		value := strings.TrimSpace(seg.Value)
		if value == "" {
			continue
		}
		seg.Value = value
		out = append(out, seg)
	}
	return out
}
