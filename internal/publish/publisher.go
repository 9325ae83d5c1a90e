// Package publish renders self-contained presentation pages for generated
// announcement media and writes them to a served directory.
package publish

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/wras-dhh/server/domain"
	"github.com/wras-dhh/server/domain/entities"
)

// Page is the input for one publication: a sign-language video, the merged
// multi-language audio, and the display text per language for the ticker.
type Page struct {
	Flow     string
	Title    string
	VideoURL string
	AudioURL string
	Texts    map[entities.Language]string
	// NameHint distinguishes filenames of the same flow, e.g. a train
	// number. Optional.
	NameHint string
}

// Publisher writes presentation pages to the first writable directory from
// an ordered candidate list: a primary system path, a local fallback, and a
// temp fallback for constrained deployments. Previous publications are never
// deleted here; cleanup is a separate operation.
type Publisher struct {
	candidates []string
	mountURL   string
	logger     *zap.Logger
}

func NewPublisher(candidates []string, mountURL string, logger *zap.Logger) *Publisher {
	return &Publisher{
		candidates: candidates,
		mountURL:   strings.TrimRight(mountURL, "/"),
		logger:     logger,
	}
}

// Publish renders the page and returns its URL under the public mount
// prefix. The returned URL uses the mount prefix regardless of which
// candidate directory actually received the file.
func (p *Publisher) Publish(page Page) (string, error) {
	dir, err := p.writableDir()
	if err != nil {
		return "", err
	}

	filename := p.filename(page)
	path := filepath.Join(dir, filename)

	html, err := renderPage(page)
	if err != nil {
		return "", fmt.Errorf("failed to render page: %w", err)
	}
	if err := os.WriteFile(path, html, 0o644); err != nil {
		return "", fmt.Errorf("failed to write page: %w", err)
	}

	p.logger.Info("presentation page published",
		zap.String("flow", page.Flow),
		zap.String("path", path))
	return p.mountURL + "/" + filename, nil
}

// writableDir probes the candidates in order with a test write and returns
// the first that accepts one.
func (p *Publisher) writableDir() (string, error) {
	for _, dir := range p.candidates {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			p.logger.Warn("publish directory unavailable",
				zap.String("dir", dir),
				zap.Error(err))
			continue
		}
		probe := filepath.Join(dir, ".write_probe")
		if err := os.WriteFile(probe, []byte("probe"), 0o644); err != nil {
			p.logger.Warn("publish directory not writable",
				zap.String("dir", dir),
				zap.Error(err))
			continue
		}
		os.Remove(probe)
		return dir, nil
	}
	return "", &domain.StorageError{Dirs: p.candidates}
}

// filename is unique per publish call; concurrent publications of the same
// flow must never collide.
func (p *Publisher) filename(page Page) string {
	parts := []string{page.Flow}
	if page.NameHint != "" {
		parts = append(parts, page.NameHint)
	}
	parts = append(parts, time.Now().Format("20060102_150405"))
	return strings.Join(parts, "_") + ".html"
}
