package render

import (
	"fmt"
	"os"
	"path/filepath"

	apperrors "github.com/Adithya-Monish-Kumar-K/webdex/pkg/errors"
)

// Writer stores pages under an output directory.
type Writer struct {
	dir string
}

// NewWriter creates a Writer that writes pages into the given directory.
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

// Write atomically creates or replaces the file of p. It writes to a .tmp
// file next to the target first and renames on success, so a failed build
// never leaves a truncated page behind. It returns the final path.
func (w *Writer) Write(p Page) (string, error) {
	data, err := p.Bytes()
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrOutput, "write "+p.Path, err)
	}
	finalPath := filepath.Join(w.dir, filepath.FromSlash(p.Path))
	if err := writeAtomic(finalPath, data); err != nil {
		return "", apperrors.Wrap(apperrors.ErrOutput, "write "+p.Path, err)
	}
	return finalPath, nil
}

func writeAtomic(finalPath string, data []byte) error {
	dir := filepath.Dir(finalPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(finalPath)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp page file: %w", err)
	}
	tmpPath := f.Name()
	defer os.Remove(tmpPath)
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("writing page: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("syncing page file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing page file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return fmt.Errorf("setting page file mode: %w", err)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		return fmt.Errorf("renaming page file: %w", err)
	}
	return nil
}
