// Package archive implements the FINALIZE-stage move of an original
// file into the archive directory (or its deletion, for --in-place),
// grounded on original_source/qubespdfconverter/client.py's Job._archive
// (Path.mkdir(archive, exist_ok=True); self.path.rename(...)).
//
// Unlike the reference, which silently overwrites a same-named file
// already in the archive directory, this package renames with a
// numeric suffix on collision (the safer alternative spec.md flags as
// worth reconsidering — see DESIGN.md's Open Question decisions).
package archive

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/MeKo-Tech/qvm-pdf-sanitize/internal/metrics"
	"github.com/MeKo-Tech/qvm-pdf-sanitize/internal/sanitizeerr"
)

// Move relocates originalPath into dir, creating dir if necessary and
// renaming with a " (n)" suffix if a same-named file is already there.
// It returns the path the file was moved to.
func Move(originalPath, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", sanitizeerr.New(sanitizeerr.AssemblyFailed, originalPath, 0,
			fmt.Errorf("create archive directory %s: %w", dir, err))
	}

	dest, err := uniqueDest(dir, filepath.Base(originalPath))
	if err != nil {
		return "", sanitizeerr.New(sanitizeerr.AssemblyFailed, originalPath, 0, err)
	}

	if err := os.Rename(originalPath, dest); err != nil {
		return "", sanitizeerr.New(sanitizeerr.AssemblyFailed, originalPath, 0,
			fmt.Errorf("archive %s: %w", originalPath, err))
	}
	return dest, nil
}

// InPlaceDelete removes originalPath, tolerating it already being
// gone (matches the reference's unlink-with-FileNotFoundError-ignored
// behavior).
func InPlaceDelete(originalPath string) error {
	if err := os.Remove(originalPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return sanitizeerr.New(sanitizeerr.AssemblyFailed, originalPath, 0,
			fmt.Errorf("remove original: %w", err))
	}
	return nil
}

// uniqueDest returns dir/base, or dir/base with a " (n)" suffix
// inserted before the extension if dir/base already exists.
func uniqueDest(dir, base string) (string, error) {
	candidate := filepath.Join(dir, base)
	if _, err := os.Stat(candidate); errors.Is(err, os.ErrNotExist) {
		return candidate, nil
	} else if err != nil {
		return "", fmt.Errorf("stat %s: %w", candidate, err)
	}

	metrics.ArchiveCollisions.Inc()

	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	for n := 1; n < 10000; n++ {
		candidate = filepath.Join(dir, fmt.Sprintf("%s (%d)%s", stem, n, ext))
		if _, err := os.Stat(candidate); errors.Is(err, os.ErrNotExist) {
			return candidate, nil
		} else if err != nil {
			return "", fmt.Errorf("stat %s: %w", candidate, err)
		}
	}

	return "", fmt.Errorf("too many archived copies of %q", base)
}
