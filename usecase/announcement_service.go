package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wras-dhh/server/domain"
	"github.com/wras-dhh/server/domain/entities"
	"github.com/wras-dhh/server/domain/repositories"
	"github.com/wras-dhh/server/internal/catalog"
	"github.com/wras-dhh/server/internal/config"
	"github.com/wras-dhh/server/internal/media"
	"github.com/wras-dhh/server/internal/progress"
	"github.com/wras-dhh/server/internal/segmenter"
	"github.com/wras-dhh/server/internal/worker"
)

// ErrQueueFull reports that the worker pool rejected a job submission.
var ErrQueueFull = errors.New("generation queue is full")

// GenerateRequest asks for a four-language announcement built from a
// template and concrete placeholder values.
type GenerateRequest struct {
	TemplateID string            `json:"template_id"`
	Bindings   map[string]string `json:"placeholder_values"`
}

// AnnouncementFile describes one generated file on disk.
type AnnouncementFile struct {
	Filename  string    `json:"filename"`
	URL       string    `json:"url"`
	Size      int64     `json:"size"`
	Category  string    `json:"category,omitempty"`
	Language  string    `json:"language,omitempty"`
	Merged    bool      `json:"merged"`
	CreatedAt time.Time `json:"created_at"`
}

// AnnouncementService builds announcements by resolving each template
// segment to catalog audio per language, concatenating the per-language
// tracks, and merging all four into one final track. Generation runs on the
// worker pool; callers poll the tracker by generation key.
type AnnouncementService struct {
	templates repositories.TemplateRepository
	clips     repositories.CatalogRepository
	resolver  *catalog.Resolver
	concat    *media.AudioConcatenator
	tracker   *progress.Tracker
	pool      *worker.Pool
	cfg       *config.Config
	logger    *zap.Logger
}

func NewAnnouncementService(
	templates repositories.TemplateRepository,
	clips repositories.CatalogRepository,
	resolver *catalog.Resolver,
	concat *media.AudioConcatenator,
	tracker *progress.Tracker,
	pool *worker.Pool,
	cfg *config.Config,
	logger *zap.Logger,
) *AnnouncementService {
	return &AnnouncementService{
		templates: templates,
		clips:     clips,
		resolver:  resolver,
		concat:    concat,
		tracker:   tracker,
		pool:      pool,
		cfg:       cfg,
		logger:    logger,
	}
}

// Generate validates the request, registers a job, and schedules the
// language runs on the worker pool. It returns the generation key clients
// poll for progress. Validation failures are reported synchronously so the
// client never polls a job that could not start.
func (s *AnnouncementService) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	template, err := s.templates.GetByID(ctx, req.TemplateID)
	if err != nil {
		return "", err
	}

	english := template.TextFor(entities.LanguageEnglish)
	if strings.TrimSpace(english) == "" {
		return "", fmt.Errorf("template %s has no announcement text", template.ID)
	}
	for _, name := range segmenter.Placeholders(english) {
		if strings.TrimSpace(req.Bindings[name]) == "" {
			return "", fmt.Errorf("missing value for placeholder {%s}", name)
		}
	}

	segments, err := s.clips.CountByTemplate(ctx, template.ID)
	if err != nil {
		return "", err
	}
	if segments == 0 {
		return "", fmt.Errorf("template %s has no harvested audio segments", template.ID)
	}

	key := generationKey(template.ID, req.Bindings)
	s.tracker.Start(key, len(entities.GenerationOrder))

	bindings := cloneBindings(req.Bindings)
	if !s.pool.Submit("announcement:"+key, func(ctx context.Context) {
		s.run(ctx, key, template, bindings)
	}) {
		s.tracker.Fail(key, "server is busy, try again later")
		return "", ErrQueueFull
	}
	return key, nil
}

// Progress returns the tracked state for a generation key.
func (s *AnnouncementService) Progress(key string) (progress.Job, bool) {
	return s.tracker.Get(key)
}

// run executes one generation job: a per-language resolution and
// concatenation pass, then a merge of all four tracks. The merge only
// happens when every language produced audio; a partial set fails the job.
func (s *AnnouncementService) run(ctx context.Context, key string, template *entities.AnnouncementTemplate, bindings map[string]string) {
	s.tracker.SetStatus(key, progress.StatusProcessing)

	produced := make(map[entities.Language]string, len(entities.GenerationOrder))
	completed := 0
	for _, lang := range entities.GenerationOrder {
		s.tracker.SetLanguage(key, lang, completed)

		outputPath, segmentsUsed, err := s.generateLanguage(ctx, template, bindings, lang)
		if err != nil {
			s.logger.Warn("language generation failed",
				zap.String("key", key),
				zap.String("language", lang.String()),
				zap.Error(err))
			continue
		}

		info, statErr := os.Stat(outputPath)
		var size int64
		if statErr == nil {
			size = info.Size()
		}
		s.tracker.SetOutput(key, lang, progress.LanguageOutput{
			AudioPath:    s.cfg.AudioURL(outputPath),
			FileSize:     size,
			SegmentsUsed: segmentsUsed,
		})
		produced[lang] = outputPath
		completed++
		s.tracker.SetLanguage(key, lang, completed)
	}

	if len(produced) < len(entities.GenerationOrder) {
		failure := &domain.PartialLanguageFailure{
			Produced: len(produced),
			Total:    len(entities.GenerationOrder),
		}
		s.tracker.Fail(key, failure.Error())
		return
	}

	s.tracker.SetStatus(key, progress.StatusMerging)
	mergedPath, err := s.merge(ctx, key, template, bindings, produced)
	if err != nil {
		s.tracker.Fail(key, err.Error())
		return
	}
	s.tracker.SetMerged(key, s.cfg.AudioURL(mergedPath))
	s.tracker.SetStatus(key, progress.StatusCompleted)
	s.logger.Info("announcement generation completed",
		zap.String("key", key),
		zap.String("merged", mergedPath))
}

// generateLanguage resolves every segment of the template's text for one
// language and concatenates the resolved clips. Unresolved segments are
// dropped; a language with zero resolved segments is a failure.
func (s *AnnouncementService) generateLanguage(ctx context.Context, template *entities.AnnouncementTemplate, bindings map[string]string, lang entities.Language) (string, int, error) {
	text := template.TextFor(lang)
	segments := segmenter.Split(text)

	var paths []string
	segmentsUsed := 0
	for _, seg := range segments {
		var resolved []string
		var err error
		switch seg.Kind {
		case segmenter.KindPlaceholder:
			resolved, err = s.resolver.ResolvePlaceholder(ctx, seg.Value, bindings[seg.Value], lang)
		default:
			resolved, err = s.resolver.ResolveLiteral(ctx, seg.Value, lang, template.ID)
		}
		if err != nil {
			return "", 0, err
		}
		if len(resolved) == 0 {
			continue
		}
		for _, p := range resolved {
			paths = append(paths, s.cfg.AudioDiskPath(p))
		}
		segmentsUsed++
	}
	if len(paths) == 0 {
		return "", 0, fmt.Errorf("no audio resolved for language %s", lang)
	}

	outputPath := filepath.Join(
		s.cfg.FinalAnnouncementsDir(),
		fmt.Sprintf("final_announcement_%s_%s_%s_%s.mp3",
			sanitizeToken(template.Category), lang, timestamp(), shortID()),
	)
	if err := s.concat.Concatenate(ctx, paths, outputPath, media.ConcatOptions{}); err != nil {
		return "", 0, err
	}
	return outputPath, segmentsUsed, nil
}

// merge concatenates the per-language tracks in the fixed merge order.
func (s *AnnouncementService) merge(ctx context.Context, key string, template *entities.AnnouncementTemplate, bindings map[string]string, produced map[entities.Language]string) (string, error) {
	ordered := make([]string, 0, len(entities.MergeOrder))
	for _, lang := range entities.MergeOrder {
		ordered = append(ordered, produced[lang])
	}

	mergedPath := filepath.Join(
		s.cfg.MergedDir(),
		fmt.Sprintf("merged_announcement_%s_%s_%s.mp3",
			sanitizeToken(trainNumber(bindings)), sanitizeToken(template.Category), timestamp()),
	)
	if err := s.concat.Concatenate(ctx, ordered, mergedPath, media.ConcatOptions{}); err != nil {
		return "", fmt.Errorf("failed to merge language tracks for %s: %w", key, err)
	}
	return mergedPath, nil
}

// List returns generated announcement files, newest first. Merged tracks
// and per-language tracks are listed together.
func (s *AnnouncementService) List() ([]AnnouncementFile, error) {
	var files []AnnouncementFile
	for _, dir := range []string{s.cfg.MergedDir(), s.cfg.FinalAnnouncementsDir()} {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("failed to list %s: %w", dir, err)
		}
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".mp3") {
				continue
			}
			info, err := entry.Info()
			if err != nil {
				continue
			}
			file := AnnouncementFile{
				Filename:  entry.Name(),
				URL:       s.cfg.AudioURL(filepath.Join(dir, entry.Name())),
				Size:      info.Size(),
				CreatedAt: info.ModTime(),
			}
			file.Category, file.Language, file.Merged = parseAnnouncementName(entry.Name())
			files = append(files, file)
		}
	}
	sort.Slice(files, func(i, j int) bool {
		return files[i].CreatedAt.After(files[j].CreatedAt)
	})
	return files, nil
}

// Clear removes all generated announcement files and returns the deleted
// filenames.
func (s *AnnouncementService) Clear() []string {
	var removed []string
	for _, dir := range []string{s.cfg.MergedDir(), s.cfg.FinalAnnouncementsDir()} {
		removed = append(removed, media.ClearDir(dir, ".mp3", s.logger)...)
	}
	return removed
}

// parseAnnouncementName recovers category and language from the generated
// filename conventions. Files that follow neither convention report empty
// fields.
func parseAnnouncementName(name string) (category, language string, merged bool) {
	base := strings.TrimSuffix(name, ".mp3")
	if rest, ok := strings.CutPrefix(base, "merged_announcement_"); ok {
		parts := strings.Split(rest, "_")
		if len(parts) >= 2 {
			return parts[1], "", true
		}
		return "", "", true
	}
	if rest, ok := strings.CutPrefix(base, "final_announcement_"); ok {
		parts := strings.Split(rest, "_")
		if len(parts) >= 2 {
			return parts[0], parts[1], false
		}
	}
	return "", "", false
}

// generationKey identifies a job by template and train so a repeated request
// for the same train reuses the same polling key.
func generationKey(templateID string, bindings map[string]string) string {
	return templateID + "_" + sanitizeToken(trainNumber(bindings))
}

func trainNumber(bindings map[string]string) string {
	if v := strings.TrimSpace(bindings["train_number"]); v != "" {
		return v
	}
	return "unknown"
}

// sanitizeToken makes a binding value safe for use inside a filename.
func sanitizeToken(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return "unknown"
	}
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	return b.String()
}

func cloneBindings(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func timestamp() string {
	return time.Now().Format("20060102_150405")
}

func shortID() string {
	return uuid.New().String()[:8]
}
