package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/wras-dhh/server/domain"
)

// VideoBuilder assembles a sign-language video for announcement text from a
// fixed per-word clip dataset: one directory per lowercase word, each
// holding at least one video file. The dataset is read-only at runtime and a
// missing word is a normal condition, not an error.
type VideoBuilder struct {
	runner     Runner
	ffmpeg     string
	datasetDir string
	outputDir  string
	logger     *zap.Logger
}

func NewVideoBuilder(runner Runner, ffmpeg, datasetDir, outputDir string, logger *zap.Logger) *VideoBuilder {
	if ffmpeg == "" {
		ffmpeg = "ffmpeg"
	}
	return &VideoBuilder{
		runner:     runner,
		ffmpeg:     ffmpeg,
		datasetDir: datasetDir,
		outputDir:  outputDir,
		logger:     logger,
	}
}

// Build tokenizes text, maps each word to its dataset clip, and concatenates
// the clips in word order. Unresolvable words are skipped; zero resolved
// words raises NoMatchingVideoError carrying the dataset vocabulary.
// Returns the output filename inside the builder's output directory. The
// name embeds a hash of the text plus a timestamp: repeated calls yield
// distinct files so concurrent jobs never collide.
func (b *VideoBuilder) Build(ctx context.Context, text string) (string, error) {
	text = strings.ToLower(strings.TrimSpace(text))
	words := strings.Fields(text)

	var clips []string
	for _, word := range words {
		clip, ok := b.clipFor(word)
		if !ok {
			b.logger.Debug("word not in sign-language dataset, skipping",
				zap.String("word", word))
			continue
		}
		clips = append(clips, clip)
	}

	if len(clips) == 0 {
		return "", &domain.NoMatchingVideoError{Vocabulary: b.Vocabulary()}
	}

	filename := fmt.Sprintf("text_isl_%s_%d.mp4", textHash(text), time.Now().Unix())
	outputPath := filepath.Join(b.outputDir, filename)
	if err := os.MkdirAll(b.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create video output directory: %w", err)
	}

	if len(clips) == 1 {
		if err := copyFile(clips[0], outputPath); err != nil {
			return "", domain.NewConcatenationError(outputPath, err.Error())
		}
		b.logger.Info("single sign clip copied", zap.String("output", outputPath))
		return filename, nil
	}

	listPath := filepath.Join(os.TempDir(), fmt.Sprintf("video_list_%d.txt", time.Now().UnixNano()))
	if err := writeConcatList(listPath, clips); err != nil {
		return "", fmt.Errorf("failed to write concat list: %w", err)
	}
	defer os.Remove(listPath)

	// Dataset clips share a codec and container by convention, so the merge
	// is a stream copy, not a re-encode.
	err := b.runner.Run(ctx, b.ffmpeg,
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c", "copy",
		outputPath,
	)
	if err != nil {
		return "", domain.NewConcatenationError(outputPath, err.Error())
	}

	b.logger.Info("sign-language video built",
		zap.Int("clips", len(clips)),
		zap.String("output", outputPath))
	return filename, nil
}

// clipFor returns the first video file in the word's dataset directory.
// Directory listings are sorted, so the pick is arbitrary but deterministic.
func (b *VideoBuilder) clipFor(word string) (string, bool) {
	dir := filepath.Join(b.datasetDir, word)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".mp4") {
			abs, err := filepath.Abs(filepath.Join(dir, entry.Name()))
			if err != nil {
				return "", false
			}
			return abs, true
		}
	}
	return "", false
}

// Vocabulary lists the words the dataset covers, sorted.
func (b *VideoBuilder) Vocabulary() []string {
	entries, err := os.ReadDir(b.datasetDir)
	if err != nil {
		b.logger.Warn("failed to read sign-language dataset", zap.Error(err))
		return nil
	}
	words := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			words = append(words, entry.Name())
		}
	}
	return words
}
