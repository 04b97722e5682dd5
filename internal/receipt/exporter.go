package receipt

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fjod/fitstore/internal/domain"
)

// Exporter writes receipt PDFs into a directory.
type Exporter struct {
	dir      string
	renderer *Renderer
	now      func() time.Time
}

func NewExporter(dir string, renderer *Renderer) *Exporter {
	return &Exporter{dir: dir, renderer: renderer, now: time.Now}
}

// Export writes the PDF and returns its path. A partially written file is never
// left under the final name.
func (e *Exporter) Export(_ context.Context, issued domain.IssuedReceipt) (string, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("create receipt dir: %w", err)
	}

	tmp, err := os.CreateTemp(e.dir, ".ticket-*.pdf")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := WritePDF(tmp, e.renderer.Build(issued), e.now()); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close temp file: %w", err)
	}

	path := filepath.Join(e.dir, Filename(issued))
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("rename receipt: %w", err)
	}
	return path, nil
}
