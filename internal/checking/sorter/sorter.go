// Package sorter copies source files into per-category result folders.
package sorter

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/vietddude/rankcheck/internal/checking/metrics"
	"github.com/vietddude/rankcheck/internal/core/domain"
)

// ErrFlagCategory is returned when asked to place a file under a
// counter-only category.
var ErrFlagCategory = errors.New("counter-only category has no folder")

// Sorter copies files from sourceDir into resultsDir/<category>/.
type Sorter struct {
	sourceDir  string
	resultsDir string
	log        *slog.Logger
}

// New creates a Sorter.
func New(sourceDir, resultsDir string) *Sorter {
	return &Sorter{
		sourceDir:  sourceDir,
		resultsDir: resultsDir,
		log:        slog.Default().With("component", "sorter"),
	}
}

// ResultsDir returns the root of the sorted tree.
func (s *Sorter) ResultsDir() string {
	return s.resultsDir
}

// EnsureRoot creates the results directory.
func (s *Sorter) EnsureRoot() error {
	return os.MkdirAll(s.resultsDir, 0o755)
}

// Place copies file into the category folder, creating the folder on demand.
// A missing source file is not an error: there is nothing to copy.
func (s *Sorter) Place(file string, category domain.Category) (bool, error) {
	if category.IsFlag() {
		return false, fmt.Errorf("%w: %s", ErrFlagCategory, category)
	}

	src := filepath.Join(s.sourceDir, file)
	info, err := os.Stat(src)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		metrics.FilesCopiedTotal.WithLabelValues(string(category), "error").Inc()
		return false, fmt.Errorf("stat %s: %w", file, err)
	}

	folder := filepath.Join(s.resultsDir, filepath.Base(string(category)))
	if err := os.MkdirAll(folder, 0o755); err != nil {
		metrics.FilesCopiedTotal.WithLabelValues(string(category), "error").Inc()
		return false, fmt.Errorf("create folder %s: %w", category, err)
	}

	dst := filepath.Join(folder, file)
	if err := copyPreserving(src, dst, info); err != nil {
		metrics.FilesCopiedTotal.WithLabelValues(string(category), "error").Inc()
		return false, fmt.Errorf("copy %s to %s: %w", file, category, err)
	}

	metrics.FilesCopiedTotal.WithLabelValues(string(category), "ok").Inc()
	return true, nil
}

// MustPlace is Place with errors logged instead of returned; copies are
// best effort and never abort a run.
func (s *Sorter) MustPlace(file string, category domain.Category) bool {
	ok, err := s.Place(file, category)
	if err != nil {
		s.log.Error("Error copying file", "file", file, "category", category, "error", err)
	}
	return ok
}

// copyPreserving streams src to dst and carries over mode and mtime.
func copyPreserving(src, dst string, info os.FileInfo) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	if err := os.Chmod(dst, info.Mode().Perm()); err != nil {
		return err
	}
	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}
