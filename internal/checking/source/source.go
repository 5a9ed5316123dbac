// Package source enumerates the credential files to check.
package source

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/vietddude/rankcheck/internal/core/domain"
)

// ErrSourceMissing is returned when the input directory does not exist.
var ErrSourceMissing = errors.New("source directory not found")

const fileExt = ".txt"

// Scan lists the .txt files in dir as check entries, sorted by file name.
// Files whose name yields no username are skipped.
func Scan(dir string) ([]domain.CheckEntry, error) {
	items, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSourceMissing, dir)
		}
		return nil, fmt.Errorf("read source directory: %w", err)
	}

	entries := make([]domain.CheckEntry, 0, len(items))
	for _, item := range items {
		if !item.Type().IsRegular() || !strings.HasSuffix(item.Name(), fileExt) {
			continue
		}
		username := UsernameFromFilename(item.Name())
		if username == "" {
			continue
		}
		entries = append(entries, domain.CheckEntry{Username: username, File: item.Name()})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].File < entries[j].File })
	return entries, nil
}

// UsernameFromFilename returns the last bracketed segment of a file name,
// e.g. "a[b][player1].txt" -> "player1". Names without brackets yield the
// whole stem.
func UsernameFromFilename(name string) string {
	stem := strings.TrimSuffix(name, fileExt)
	if i := strings.LastIndex(stem, "["); i >= 0 {
		stem = stem[i+1:]
	}
	return strings.TrimRight(stem, "]")
}
