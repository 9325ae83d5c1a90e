package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/wras-dhh/server/domain"
)

// suspectSizeBytes flags inputs that are implausibly small for real speech.
// Such files are logged but still merged; existence is the hard requirement.
const suspectSizeBytes = 1000

// ConcatOptions tunes one concatenation call.
type ConcatOptions struct {
	// GapSeconds inserts a fixed silence between inputs. Zero means no gap:
	// template-driven segments already carry their own pauses. Word-by-word
	// construction turns this on so isolated words do not run together.
	GapSeconds float64
}

// AudioConcatenator merges ordered audio clips into one output file. Order
// is caller-determined and never changed here.
type AudioConcatenator struct {
	runner Runner
	ffmpeg string
	logger *zap.Logger
}

func NewAudioConcatenator(runner Runner, ffmpeg string, logger *zap.Logger) *AudioConcatenator {
	if ffmpeg == "" {
		ffmpeg = "ffmpeg"
	}
	return &AudioConcatenator{runner: runner, ffmpeg: ffmpeg, logger: logger}
}

// Concatenate merges paths into outputPath in list order. Empty entries are
// filtered first; zero valid inputs is a failure and no output is created.
// The first input must exist (it establishes the base); later inputs that
// fail to load are logged and skipped.
func (c *AudioConcatenator) Concatenate(ctx context.Context, paths []string, outputPath string, opts ConcatOptions) error {
	valid := make([]string, 0, len(paths))
	for _, p := range paths {
		if p != "" {
			valid = append(valid, p)
		}
	}
	if len(valid) == 0 {
		return fmt.Errorf("no valid audio paths to concatenate")
	}

	inputs := make([]string, 0, len(valid))
	for i, p := range valid {
		info, err := os.Stat(p)
		if err != nil {
			if i == 0 {
				return fmt.Errorf("first audio file not found: %s: %w", p, err)
			}
			c.logger.Warn("audio file missing, skipping",
				zap.String("path", p),
				zap.Error(err))
			continue
		}
		if info.Size() < suspectSizeBytes {
			c.logger.Warn("suspiciously small audio file",
				zap.String("path", p),
				zap.Int64("bytes", info.Size()))
		}
		inputs = append(inputs, p)
	}
	if len(inputs) == 0 {
		return fmt.Errorf("no loadable audio inputs remain")
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if len(inputs) == 1 {
		if err := copyFile(inputs[0], outputPath); err != nil {
			return domain.NewConcatenationError(outputPath, err.Error())
		}
		c.logger.Info("single audio input copied",
			zap.String("input", inputs[0]),
			zap.String("output", outputPath))
		return nil
	}

	if opts.GapSeconds > 0 {
		silence, err := c.makeSilence(ctx, opts.GapSeconds)
		if err != nil {
			// No gap is better than no output.
			c.logger.Warn("failed to generate silence gap, merging without it", zap.Error(err))
		} else {
			defer os.Remove(silence)
			inputs = interleave(inputs, silence)
		}
	}

	listPath := filepath.Join(os.TempDir(), fmt.Sprintf("audio_list_%d.txt", time.Now().UnixNano()))
	if err := writeConcatList(listPath, inputs); err != nil {
		return fmt.Errorf("failed to write concat list: %w", err)
	}
	defer os.Remove(listPath)

	err := c.runner.Run(ctx, c.ffmpeg,
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c", "copy",
		outputPath,
	)
	if err != nil {
		return domain.NewConcatenationError(outputPath, err.Error())
	}

	c.logger.Info("audio files concatenated",
		zap.Int("inputs", len(inputs)),
		zap.String("output", outputPath))
	return nil
}

// makeSilence renders a short silent mp3 matching the catalog clips' mono
// layout so the concat demuxer can stream-copy it between segments.
func (c *AudioConcatenator) makeSilence(ctx context.Context, seconds float64) (string, error) {
	path := filepath.Join(os.TempDir(), fmt.Sprintf("silence_%d.mp3", time.Now().UnixNano()))
	err := c.runner.Run(ctx, c.ffmpeg,
		"-y",
		"-f", "lavfi",
		"-i", "anullsrc=r=24000:cl=mono",
		"-t", fmt.Sprintf("%.2f", seconds),
		"-codec:a", "libmp3lame",
		"-q:a", "9",
		path,
	)
	if err != nil {
		return "", err
	}
	return path, nil
}

func interleave(paths []string, separator string) []string {
	out := make([]string, 0, 2*len(paths)-1)
	for i, p := range paths {
		if i > 0 {
			out = append(out, separator)
		}
		out = append(out, p)
	}
	return out
}
