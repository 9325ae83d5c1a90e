package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/wras-dhh/server/domain"
	"github.com/wras-dhh/server/domain/entities"
	"github.com/wras-dhh/server/internal/config"
	"github.com/wras-dhh/server/internal/media"
)

type fakeTranslator struct {
	calls int
	err   error
}

func (f *fakeTranslator) Translate(_ context.Context, text string, target entities.Language) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return string(target) + ":" + text, nil
}

type fakeSynthesizer struct {
	calls int
	err   error
}

func (f *fakeSynthesizer) Synthesize(_ context.Context, text string, lang entities.Language) ([]byte, error) {
	f.calls++
	if f.err != nil {
		return nil, &domain.SynthesisError{Language: lang, Err: f.err}
	}
	return []byte("audio:" + text), nil
}

type fakeRecognizer struct {
	transcript string
	err        error
}

func (f *fakeRecognizer) Recognize(_ context.Context, _ []byte, _ string, _ entities.Language) (string, error) {
	return f.transcript, f.err
}

type islFixture struct {
	svc        *SignLanguageService
	catalog    *memCatalog
	translator *fakeTranslator
	synth      *fakeSynthesizer
	recognizer *fakeRecognizer
	cfg        *config.Config
	runner     *fakeRunner
	datasetDir string
}

func newISLFixture(t *testing.T, datasetWords ...string) *islFixture {
	t.Helper()
	logger := zaptest.NewLogger(t)
	datasetDir := t.TempDir()
	for _, word := range datasetWords {
		dir := filepath.Join(datasetDir, word)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, word+".mp4"), []byte("video"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	cfg := &config.Config{
		AudioRoot:     t.TempDir(),
		AudioMount:    "/audio_files",
		ISLDatasetDir: datasetDir,
		ISLVideoDir:   t.TempDir(),
		ISLVideoMount: "/final_text_isl_vid",
		FFmpegBin:     "ffmpeg",
	}
	runner := &fakeRunner{}
	f := &islFixture{
		catalog:    &memCatalog{},
		translator: &fakeTranslator{},
		synth:      &fakeSynthesizer{},
		recognizer: &fakeRecognizer{},
		cfg:        cfg,
		runner:     runner,
		datasetDir: datasetDir,
	}
	f.svc = NewSignLanguageService(
		f.catalog,
		f.translator,
		f.synth,
		f.recognizer,
		media.NewVideoBuilder(runner, cfg.FFmpegBin, datasetDir, cfg.ISLVideoDir, logger),
		media.NewAudioConcatenator(runner, cfg.FFmpegBin, logger),
		cfg,
		logger,
	)
	return f
}

// phraseClip stores one clip with the English text and audio in every
// language, backed by real files.
func (f *islFixture) phraseClip(t *testing.T, text string) {
	t.Helper()
	clip := entities.NewCatalogClip(text)
	for _, lang := range entities.MergeOrder {
		name := fmt.Sprintf("%s_%s.mp3", strings.ReplaceAll(strings.ToLower(text), " ", "_"), lang)
		path := filepath.Join(f.cfg.AudioRoot, name)
		if err := os.WriteFile(path, make([]byte, 2048), 0o644); err != nil {
			t.Fatal(err)
		}
		clip.SetAudio(lang, "/audio_files/"+name)
		if lang != entities.LanguageEnglish {
			clip.SetText(lang, string(lang)+" "+text)
		}
	}
	f.catalog.clips = append(f.catalog.clips, clip)
}

func TestTextToISLCatalogPhraseFirst(t *testing.T) {
	f := newISLFixture(t, "train", "arriving")
	f.phraseClip(t, "train arriving")

	result, err := f.svc.TextToISL(context.Background(), "train arriving")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.synth.calls != 0 || f.translator.calls != 0 {
		t.Errorf("catalog hit must not synthesize (synth=%d translate=%d)", f.synth.calls, f.translator.calls)
	}
	if !strings.HasPrefix(result.VideoURL, "/final_text_isl_vid/text_isl_") {
		t.Errorf("unexpected video URL: %s", result.VideoURL)
	}
	if !strings.HasPrefix(result.AudioURL, "/audio_files/"+config.MergedTextISLSubdir+"/") {
		t.Errorf("unexpected audio URL: %s", result.AudioURL)
	}
	if got := result.Texts[entities.LanguageHindi]; got != "hindi train arriving" {
		t.Errorf("ticker should use the stored translation, got %q", got)
	}
}

func TestTextToISLWordByWordUsesGap(t *testing.T) {
	f := newISLFixture(t, "train")
	f.phraseClip(t, "train")
	f.phraseClip(t, "arriving")

	_, err := f.svc.TextToISL(context.Background(), "train arriving")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.synth.calls != 0 {
		t.Errorf("word-by-word hit must not synthesize, got %d calls", f.synth.calls)
	}
	// Each language track interleaves silence between the two word clips.
	var sawGapList bool
	for _, list := range f.runner.lists {
		if len(list) == 3 {
			sawGapList = true
			break
		}
	}
	if !sawGapList {
		t.Errorf("expected a 3-entry concat list with a silence gap, got %v", f.runner.lists)
	}
}

func TestTextToISLSynthesisFallbackCachesClip(t *testing.T) {
	f := newISLFixture(t, "welcome")

	result, err := f.svc.TextToISL(context.Background(), "welcome")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.synth.calls != 4 {
		t.Errorf("expected 4 synthesis calls, got %d", f.synth.calls)
	}
	// English is not translated; the other three are.
	if f.translator.calls != 3 {
		t.Errorf("expected 3 translation calls, got %d", f.translator.calls)
	}
	if got := result.Texts[entities.LanguageMarathi]; got != "marathi:welcome" {
		t.Errorf("ticker should use the translation, got %q", got)
	}

	// The synthesized audio is cached as one clip covering every language.
	if len(f.catalog.clips) != 1 {
		t.Fatalf("expected 1 cached clip, got %d", len(f.catalog.clips))
	}
	cached := f.catalog.clips[0]
	for _, lang := range entities.MergeOrder {
		if cached.AudioFor(lang) == "" {
			t.Errorf("cached clip missing %s audio", lang)
		}
	}

	// A second request hits the cache.
	if _, err := f.svc.TextToISL(context.Background(), "welcome"); err != nil {
		t.Fatalf("unexpected error on cached run: %v", err)
	}
	if f.synth.calls != 4 {
		t.Errorf("cached run must not synthesize again, got %d total calls", f.synth.calls)
	}
}

func TestTextToISLSynthesisFailureSkipsLanguage(t *testing.T) {
	f := newISLFixture(t, "welcome")
	f.synth.err = errors.New("voice unavailable")

	_, err := f.svc.TextToISL(context.Background(), "welcome")
	if err == nil || !strings.Contains(err.Error(), "no audio could be produced") {
		t.Fatalf("expected total audio failure, got %v", err)
	}
}

func TestTextToISLNoVideoMatch(t *testing.T) {
	f := newISLFixture(t)

	_, err := f.svc.TextToISL(context.Background(), "unknown words")
	var videoErr *domain.NoMatchingVideoError
	if !errors.As(err, &videoErr) {
		t.Fatalf("expected NoMatchingVideoError, got %v", err)
	}
}

func TestSpeechToISL(t *testing.T) {
	f := newISLFixture(t, "train")
	f.phraseClip(t, "train")
	f.recognizer.transcript = "train"

	result, err := f.svc.SpeechToISL(context.Background(), []byte("riff"), "clip.wav")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Text != "train" {
		t.Errorf("transcript not carried through: %q", result.Text)
	}
	if !strings.HasPrefix(result.AudioURL, "/audio_files/"+config.MergedSpeechISLSubdir+"/") {
		t.Errorf("speech flow should land in its own directory: %s", result.AudioURL)
	}
}

func TestSpeechToISLEmptyTranscript(t *testing.T) {
	f := newISLFixture(t, "train")
	f.recognizer.transcript = "   "

	_, err := f.svc.SpeechToISL(context.Background(), []byte("riff"), "clip.wav")
	if err == nil || !strings.Contains(err.Error(), "no speech detected") {
		t.Fatalf("expected empty transcript error, got %v", err)
	}
}
