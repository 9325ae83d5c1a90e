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
	"github.com/wras-dhh/server/internal/media"
)

// wordGapSeconds is the silence inserted between word clips when a phrase
// is assembled word by word instead of from one recording.
const wordGapSeconds = 0.3

// ISLResult is the outcome of one sign-language build: the video, the
// merged four-language audio, and the display text per language.
type ISLResult struct {
	Text     string                       `json:"text"`
	Texts    map[entities.Language]string `json:"texts"`
	VideoURL string                       `json:"video_url"`
	AudioURL string                       `json:"audio_url"`
}

// SignLanguageService turns English text, or speech recognized into text,
// into a sign-language video paired with a merged four-language audio
// track. Audio per language is catalog-first: a whole-phrase recording, then
// word-by-word assembly, then machine translation plus synthesis. Synthesized
// audio is written back to the catalog so the next request hits it.
type SignLanguageService struct {
	clips       repositories.CatalogRepository
	translator  repositories.Translator
	synthesizer repositories.Synthesizer
	recognizer  repositories.Recognizer
	video       *media.VideoBuilder
	concat      *media.AudioConcatenator
	cfg         *config.Config
	logger      *zap.Logger
}

func NewSignLanguageService(
	clips repositories.CatalogRepository,
	translator repositories.Translator,
	synthesizer repositories.Synthesizer,
	recognizer repositories.Recognizer,
	video *media.VideoBuilder,
	concat *media.AudioConcatenator,
	cfg *config.Config,
	logger *zap.Logger,
) *SignLanguageService {
	return &SignLanguageService{
		clips:       clips,
		translator:  translator,
		synthesizer: synthesizer,
		recognizer:  recognizer,
		video:       video,
		concat:      concat,
		cfg:         cfg,
		logger:      logger,
	}
}

// TextToISL builds the video and merged audio for typed English text.
func (s *SignLanguageService) TextToISL(ctx context.Context, text string) (*ISLResult, error) {
	return s.build(ctx, text, config.MergedTextISLSubdir)
}

// SpeechToISL recognizes uploaded audio as English speech and builds the
// video and merged audio for the transcript.
func (s *SignLanguageService) SpeechToISL(ctx context.Context, audio []byte, filename string) (*ISLResult, error) {
	text, err := s.recognizer.Recognize(ctx, audio, filename, entities.LanguageEnglish)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("no speech detected in audio")
	}
	return s.build(ctx, text, config.MergedSpeechISLSubdir)
}

func (s *SignLanguageService) build(ctx context.Context, text, mergedSubdir string) (*ISLResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}

	videoName, err := s.video.Build(ctx, text)
	if err != nil {
		return nil, err
	}

	// pending collects synthesized languages into one catalog clip so the
	// next request for the same text resolves without synthesis.
	pending := entities.NewCatalogClip(text)
	synthesized := false

	texts := make(map[entities.Language]string, len(entities.MergeOrder))
	var trackPaths []string
	var cleanup []string
	defer func() {
		for _, p := range cleanup {
			os.Remove(p)
		}
	}()
	for _, lang := range entities.MergeOrder {
		track, display, err := s.audioForLanguage(ctx, text, lang, pending, &synthesized)
		if err != nil {
			s.logger.Warn("language audio unavailable, skipping",
				zap.String("language", lang.String()),
				zap.Error(err))
			continue
		}
		texts[lang] = display
		trackPaths = append(trackPaths, track)
		cleanup = append(cleanup, track)
	}
	if len(trackPaths) == 0 {
		return nil, fmt.Errorf("no audio could be produced for %q", text)
	}

	mergedPath := filepath.Join(
		s.cfg.AudioRoot, mergedSubdir,
		fmt.Sprintf("merged_audio_%s_%s.mp3", timestamp(), shortID()),
	)
	if err := s.concat.Concatenate(ctx, trackPaths, mergedPath, media.ConcatOptions{}); err != nil {
		return nil, err
	}

	if synthesized {
		if err := s.clips.Insert(ctx, pending); err != nil {
			s.logger.Warn("failed to cache synthesized audio in catalog", zap.Error(err))
		}
	}

	return &ISLResult{
		Text:     text,
		Texts:    texts,
		VideoURL: s.cfg.ISLVideoMount + "/" + videoName,
		AudioURL: s.cfg.AudioURL(mergedPath),
	}, nil
}

// audioForLanguage produces one language's track as a temp file the caller
// removes after merging. It returns the track path and the display text for
// the language.
func (s *SignLanguageService) audioForLanguage(ctx context.Context, text string, lang entities.Language, pending *entities.CatalogClip, synthesized *bool) (string, string, error) {
	paths, display, gap, err := s.resolveAudio(ctx, text, lang, pending, synthesized)
	if err != nil {
		return "", "", err
	}

	track := filepath.Join(os.TempDir(), fmt.Sprintf("isl_track_%s_%s.mp3", lang, shortID()))
	opts := media.ConcatOptions{}
	if gap {
		opts.GapSeconds = wordGapSeconds
	}
	if err := s.concat.Concatenate(ctx, paths, track, opts); err != nil {
		return "", "", err
	}
	return track, display, nil
}

// resolveAudio walks the per-language ladder: whole-phrase catalog hit,
// word-by-word assembly requiring every word, then translate-and-synthesize.
func (s *SignLanguageService) resolveAudio(ctx context.Context, text string, lang entities.Language, pending *entities.CatalogClip, synthesized *bool) ([]string, string, bool, error) {
	clip, err := s.clips.FindExact(ctx, repositories.ClipQuery{
		Text:          text,
		MatchLanguage: entities.LanguageEnglish,
		AudioLanguage: lang,
	})
	if err != nil {
		return nil, "", false, err
	}
	if clip != nil {
		return []string{s.cfg.AudioDiskPath(clip.AudioFor(lang))}, displayText(clip, lang, text), false, nil
	}

	words := strings.Fields(text)
	if len(words) > 1 {
		paths := make([]string, 0, len(words))
		for _, word := range words {
			wordClip, err := s.clips.FindExact(ctx, repositories.ClipQuery{
				Text:          word,
				MatchLanguage: entities.LanguageEnglish,
				AudioLanguage: lang,
			})
			if err != nil {
				return nil, "", false, err
			}
			if wordClip == nil {
				paths = nil
				break
			}
			paths = append(paths, s.cfg.AudioDiskPath(wordClip.AudioFor(lang)))
		}
		if paths != nil {
			return paths, text, true, nil
		}
	}

	path, display, err := s.synthesize(ctx, text, lang, pending, synthesized)
	if err != nil {
		return nil, "", false, err
	}
	return []string{path}, display, false, nil
}

// synthesize translates the text, renders it with the configured voice, and
// stores the result under the audio root. Translation failure is non-fatal:
// the English source text is spoken instead.
func (s *SignLanguageService) synthesize(ctx context.Context, text string, lang entities.Language, pending *entities.CatalogClip, synthesized *bool) (string, string, error) {
	spoken := text
	if lang != entities.LanguageEnglish {
		translated, err := s.translator.Translate(ctx, text, lang)
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
		return "", "", err
	}

	path := filepath.Join(
		s.cfg.SynthesizedDir(),
		fmt.Sprintf("audio_%s_%s_%s.mp3", lang, timestamp(), shortID()),
	)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", "", fmt.Errorf("failed to create synthesized audio dir: %w", err)
	}
	if err := os.WriteFile(path, audio, 0o644); err != nil {
		return "", "", fmt.Errorf("failed to store synthesized audio: %w", err)
	}

	pending.SetText(lang, spoken)
	pending.SetAudio(lang, s.cfg.AudioURL(path))
	*synthesized = true
	return path, spoken, nil
}

// displayText prefers the clip's stored translation for the ticker and
// falls back to the English input.
func displayText(clip *entities.CatalogClip, lang entities.Language, fallback string) string {
	if t := clip.TextFor(lang); t != "" {
		return t
	}
	return fallback
}
