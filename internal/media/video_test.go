package media

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/wras-dhh/server/domain"
)

func writeDataset(t *testing.T, words ...string) string {
	t.Helper()
	dataset := t.TempDir()
	for _, word := range words {
		dir := filepath.Join(dataset, word)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("failed to create dataset dir: %v", err)
		}
		if err := os.WriteFile(filepath.Join(dir, word+".mp4"), []byte("video"), 0o644); err != nil {
			t.Fatalf("failed to write dataset clip: %v", err)
		}
	}
	return dataset
}

func TestBuildNoMatchingWords(t *testing.T) {
	dataset := writeDataset(t, "train", "platform")
	b := NewVideoBuilder(&stubRunner{}, "ffmpeg", dataset, t.TempDir(), zaptest.NewLogger(t))

	_, err := b.Build(context.Background(), "completely unknown words")
	var noMatch *domain.NoMatchingVideoError
	if !errors.As(err, &noMatch) {
		t.Fatalf("expected NoMatchingVideoError, got %v", err)
	}
	if len(noMatch.Vocabulary) != 2 {
		t.Errorf("expected vocabulary of 2 words, got %v", noMatch.Vocabulary)
	}
}

func TestBuildSingleWordCopiesClip(t *testing.T) {
	dataset := writeDataset(t, "train")
	outputDir := t.TempDir()
	b := NewVideoBuilder(&stubRunner{}, "ffmpeg", dataset, outputDir, zaptest.NewLogger(t))

	filename, err := b.Build(context.Background(), "Train")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(filename, "text_isl_") || !strings.HasSuffix(filename, ".mp4") {
		t.Errorf("unexpected output filename %q", filename)
	}
	info, err := os.Stat(filepath.Join(outputDir, filename))
	if err != nil {
		t.Fatalf("output missing: %v", err)
	}
	if info.Size() == 0 {
		t.Error("output must be non-empty")
	}
}

func TestBuildSkipsUnknownWordsKeepsOrder(t *testing.T) {
	dataset := writeDataset(t, "train", "arriving", "platform")
	runner := &stubRunner{}
	b := NewVideoBuilder(runner, "ffmpeg", dataset, t.TempDir(), zaptest.NewLogger(t))

	_, err := b.Build(context.Background(), "train 12 arriving at platform")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(runner.lists) != 1 {
		t.Fatalf("expected one concat list, got %d", len(runner.lists))
	}
	got := runner.lists[0]
	wantOrder := []string{"train", "arriving", "platform"}
	if len(got) != len(wantOrder) {
		t.Fatalf("expected %d clips, got %v", len(wantOrder), got)
	}
	for i, word := range wantOrder {
		if !strings.Contains(got[i], string(filepath.Separator)+word+string(filepath.Separator)) {
			t.Errorf("clip %d: expected word %q in %q", i, word, got[i])
		}
	}
}

func TestBuildDistinctFilenamesPerCall(t *testing.T) {
	dataset := writeDataset(t, "train")
	b := NewVideoBuilder(&stubRunner{}, "ffmpeg", dataset, t.TempDir(), zaptest.NewLogger(t))

	first, err := b.Build(context.Background(), "train")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Hash prefix is stable for the same text, so a later build may only
	// differ in its timestamp suffix.
	if !strings.HasPrefix(first, "text_isl_"+textHash("train")) {
		t.Errorf("filename %q does not embed the text hash", first)
	}
}
