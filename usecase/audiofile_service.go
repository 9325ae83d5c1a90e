package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/wras-dhh/server/domain/entities"
	"github.com/wras-dhh/server/domain/repositories"
	"github.com/wras-dhh/server/internal/config"
	"github.com/wras-dhh/server/internal/progress"
	"github.com/wras-dhh/server/internal/worker"
)

// ErrDuplicate reports that a catalog entry already covers the given text.
var ErrDuplicate = errors.New("already exists")

// AudioFileService creates catalog entries from English text: translate into
// the other three languages, synthesize all four, store the audio files, and
// record everything on one clip. Synthesis runs in the background; callers
// poll by the returned key.
type AudioFileService struct {
	clips       repositories.CatalogRepository
	translator  repositories.Translator
	synthesizer repositories.Synthesizer
	tracker     *progress.Tracker
	pool        *worker.Pool
	cfg         *config.Config
	logger      *zap.Logger
}

func NewAudioFileService(
	clips repositories.CatalogRepository,
	translator repositories.Translator,
	synthesizer repositories.Synthesizer,
	tracker *progress.Tracker,
	pool *worker.Pool,
	cfg *config.Config,
	logger *zap.Logger,
) *AudioFileService {
	return &AudioFileService{
		clips:       clips,
		translator:  translator,
		synthesizer: synthesizer,
		tracker:     tracker,
		pool:        pool,
		cfg:         cfg,
		logger:      logger,
	}
}

// Create registers a new catalog clip for text unless one already exists,
// then schedules audio generation. The returned key is the progress key.
func (s *AudioFileService) Create(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("text cannot be empty")
	}

	existing, err := s.clips.FindExact(ctx, repositories.ClipQuery{
		Text:          text,
		MatchLanguage: entities.LanguageEnglish,
		AudioLanguage: entities.LanguageEnglish,
	})
	if err != nil {
		return "", err
	}
	if existing != nil {
		return "", fmt.Errorf("audio for %q: %w", text, ErrDuplicate)
	}

	clip := entities.NewCatalogClip(text)
	if err := s.clips.Insert(ctx, clip); err != nil {
		return "", err
	}

	key := "audio_" + clip.ID
	if clip.ID == "" {
		key = "audio_" + shortID()
	}
	s.tracker.Start(key, len(entities.GenerationOrder))

	if !s.pool.Submit(key, func(ctx context.Context) {
		s.generate(ctx, key, clip)
	}) {
		s.tracker.Fail(key, "server is busy, try again later")
		return "", ErrQueueFull
	}
	return key, nil
}

// Progress returns the tracked state for an audio generation key.
func (s *AudioFileService) Progress(key string) (progress.Job, bool) {
	return s.tracker.Get(key)
}

// generate fills in the clip's translations and audio, one language at a
// time. A failed language is skipped; the clip keeps whatever succeeded.
func (s *AudioFileService) generate(ctx context.Context, key string, clip *entities.CatalogClip) {
	s.tracker.SetStatus(key, progress.StatusProcessing)
	source := clip.TextFor(entities.LanguageEnglish)

	completed := 0
	for _, lang := range entities.GenerationOrder {
		s.tracker.SetLanguage(key, lang, completed)

		spoken := source
		if lang != entities.LanguageEnglish {
			translated, err := s.translator.Translate(ctx, source, lang)
			if err != nil {
				s.logger.Warn("translation failed, using source text",
					zap.String("language", lang.String()),
					zap.Error(err))
			} else {
				spoken = translated
			}
		}

		audio, err := s.synthesizer.Synthesize(ctx, spoken, lang)
		if err != nil {
			s.logger.Warn("synthesis failed for language",
				zap.String("language", lang.String()),
				zap.Error(err))
			continue
		}

		path := filepath.Join(
			s.cfg.SynthesizedDir(),
			fmt.Sprintf("audio_%s_%s_%s.mp3", lang, timestamp(), shortID()),
		)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			s.tracker.Fail(key, fmt.Sprintf("failed to create audio dir: %v", err))
			return
		}
		if err := os.WriteFile(path, audio, 0o644); err != nil {
			s.tracker.Fail(key, fmt.Sprintf("failed to store audio: %v", err))
			return
		}

		clip.SetText(lang, spoken)
		clip.SetAudio(lang, s.cfg.AudioURL(path))
		completed++
		s.tracker.SetLanguage(key, lang, completed)
		s.tracker.SetOutput(key, lang, progress.LanguageOutput{
			AudioPath: clip.AudioFor(lang),
			FileSize:  int64(len(audio)),
		})
	}

	if completed == 0 {
		s.tracker.Fail(key, "no language could be synthesized")
		return
	}
	if err := s.clips.Update(ctx, clip); err != nil {
		s.tracker.Fail(key, fmt.Sprintf("failed to update catalog entry: %v", err))
		return
	}
	s.tracker.SetStatus(key, progress.StatusCompleted)
	s.logger.Info("audio files generated",
		zap.String("key", key),
		zap.Int("languages", completed))
}
