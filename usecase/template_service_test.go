package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/wras-dhh/server/domain"
	"github.com/wras-dhh/server/domain/entities"
	"github.com/wras-dhh/server/internal/config"
	"github.com/wras-dhh/server/internal/progress"
	"github.com/wras-dhh/server/internal/worker"
)

type templateFixture struct {
	svc       *TemplateService
	templates *memTemplates
	catalog   *memCatalog
	synth     *fakeSynthesizer
	trans     *fakeTranslator
}

func newTemplateFixture(t *testing.T, templates *memTemplates) *templateFixture {
	t.Helper()
	logger := zaptest.NewLogger(t)
	cfg := &config.Config{
		AudioRoot:  t.TempDir(),
		AudioMount: "/audio_files",
	}
	pool := worker.NewPool(1, 8, 30*time.Second, logger)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		pool.Shutdown(ctx)
	})

	catalog := &memCatalog{}
	synth := &fakeSynthesizer{}
	trans := &fakeTranslator{}
	svc := NewTemplateService(
		templates,
		catalog,
		trans,
		synth,
		progress.NewTracker(logger),
		pool,
		cfg,
		logger,
	)
	return &templateFixture{svc: svc, templates: templates, catalog: catalog, synth: synth, trans: trans}
}

func waitForHarvest(t *testing.T, svc *TemplateService, key string) progress.Job {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		job, ok := svc.Progress(key)
		if ok && (job.Status == progress.StatusCompleted || job.Status == progress.StatusError) {
			return job
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("harvest %s never reached a terminal state", key)
	return progress.Job{}
}

func TestHarvestSegmentsCreatesScopedClips(t *testing.T) {
	templates := &memTemplates{templates: map[string]*entities.AnnouncementTemplate{
		"tpl-arrival": arrivalTemplate(),
	}}
	f := newTemplateFixture(t, templates)

	key, err := f.svc.HarvestSegments(context.Background(), "tpl-arrival")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != "segments_tpl-arrival" {
		t.Errorf("unexpected key: %s", key)
	}

	job := waitForHarvest(t, f.svc, key)
	if job.Status != progress.StatusCompleted {
		t.Fatalf("expected completed, got %s (%s)", job.Status, job.Error)
	}

	// "Train {train_number} arriving at platform {platform_number}" has two
	// literal runs.
	if len(f.catalog.clips) != 2 {
		t.Fatalf("expected 2 harvested clips, got %d", len(f.catalog.clips))
	}
	first, second := f.catalog.clips[0], f.catalog.clips[1]
	if first.TemplateID != "tpl-arrival" || second.TemplateID != "tpl-arrival" {
		t.Error("harvested clips must carry the template scope")
	}
	if first.TextFor(entities.LanguageEnglish) != "Train" {
		t.Errorf("unexpected first segment text: %q", first.TextFor(entities.LanguageEnglish))
	}
	if second.TextFor(entities.LanguageEnglish) != "arriving at platform" {
		t.Errorf("unexpected second segment text: %q", second.TextFor(entities.LanguageEnglish))
	}
	if first.SpanStart != 0 || second.SpanStart <= first.SpanEnd-1 {
		t.Errorf("spans should follow the template text: %d..%d then %d..%d",
			first.SpanStart, first.SpanEnd, second.SpanStart, second.SpanEnd)
	}
	for _, clip := range f.catalog.clips {
		for _, lang := range entities.GenerationOrder {
			if clip.AudioFor(lang) == "" {
				t.Errorf("segment %q missing %s audio", clip.TextFor(entities.LanguageEnglish), lang)
			}
		}
	}
	if got := second.TextFor(entities.LanguageHindi); got != "hindi:arriving at platform" {
		t.Errorf("unexpected hindi segment text: %q", got)
	}

	// 2 segments, 4 languages each; English skips translation.
	if f.synth.calls != 8 {
		t.Errorf("expected 8 synthesis calls, got %d", f.synth.calls)
	}
	if f.trans.calls != 6 {
		t.Errorf("expected 6 translation calls, got %d", f.trans.calls)
	}

	// The harvest is exactly what the announcement gate counts.
	n, err := f.catalog.CountByTemplate(context.Background(), "tpl-arrival")
	if err != nil || n != 2 {
		t.Errorf("expected 2 active segments for the template, got %d (%v)", n, err)
	}
}

func TestHarvestSegmentsReplacesPreviousHarvest(t *testing.T) {
	templates := &memTemplates{templates: map[string]*entities.AnnouncementTemplate{
		"tpl-arrival": arrivalTemplate(),
	}}
	f := newTemplateFixture(t, templates)
	stale := entities.NewHarvestedClip("tpl-arrival", "outdated segment", 0, 16)
	f.catalog.clips = append(f.catalog.clips, stale)

	key, err := f.svc.HarvestSegments(context.Background(), "tpl-arrival")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	job := waitForHarvest(t, f.svc, key)
	if job.Status != progress.StatusCompleted {
		t.Fatalf("expected completed, got %s (%s)", job.Status, job.Error)
	}

	if stale.Active {
		t.Error("previous harvest must be deactivated")
	}
	n, err := f.catalog.CountByTemplate(context.Background(), "tpl-arrival")
	if err != nil || n != 2 {
		t.Errorf("expected only the fresh harvest active, got %d (%v)", n, err)
	}
}

func TestHarvestSegmentsUnknownTemplate(t *testing.T) {
	f := newTemplateFixture(t, &memTemplates{})
	_, err := f.svc.HarvestSegments(context.Background(), "missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestHarvestSegmentsSynthesisFailureFailsJob(t *testing.T) {
	templates := &memTemplates{templates: map[string]*entities.AnnouncementTemplate{
		"tpl-arrival": arrivalTemplate(),
	}}
	f := newTemplateFixture(t, templates)
	f.synth.err = errors.New("voice unavailable")

	key, err := f.svc.HarvestSegments(context.Background(), "tpl-arrival")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	job := waitForHarvest(t, f.svc, key)
	if job.Status != progress.StatusError {
		t.Fatalf("expected error status, got %s", job.Status)
	}
	if len(f.catalog.clips) != 0 {
		t.Error("no clips should be stored when every language fails")
	}
}

func TestDeleteTemplateDeactivatesSegments(t *testing.T) {
	templates := &memTemplates{templates: map[string]*entities.AnnouncementTemplate{
		"tpl-arrival": arrivalTemplate(),
	}}
	f := newTemplateFixture(t, templates)
	f.catalog.clips = append(f.catalog.clips,
		entities.NewHarvestedClip("tpl-arrival", "Train", 0, 5),
		entities.NewCatalogClip("general entry"),
	)

	removed, err := f.svc.Delete(context.Background(), "tpl-arrival")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if removed != 1 {
		t.Errorf("expected 1 segment deactivated, got %d", removed)
	}
	if _, err := templates.GetByID(context.Background(), "tpl-arrival"); !errors.Is(err, domain.ErrNotFound) {
		t.Error("deleted template must not resolve")
	}
	if f.catalog.clips[0].Active {
		t.Error("the template's segments must be deactivated")
	}
	if !f.catalog.clips[1].Active {
		t.Error("general catalog entries must survive a template delete")
	}

	if _, err := f.svc.Delete(context.Background(), "tpl-arrival"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("second delete should report not found, got %v", err)
	}
}
