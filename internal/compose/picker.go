package compose

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var imageExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true}

// PathPicker picks images from a path typed in the terminal. The input may
// be a single file, a directory (its images, sorted by name) or a glob, and
// several entries may be separated by commas.
type PathPicker struct {
	Input string
}

// PickImages implements ImagePicker.
func (p PathPicker) PickImages(ctx context.Context) ([]string, error) {
	var picked []string
	for _, entry := range strings.Split(p.Input, ",") {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		entry = expandHome(strings.TrimSpace(entry))
		if entry == "" {
			continue
		}
		found, err := pickEntry(entry)
		if err != nil {
			return nil, err
		}
		picked = append(picked, found...)
	}
	if len(picked) == 0 {
		return nil, fmt.Errorf("no images found in %q", strings.TrimSpace(p.Input))
	}
	return picked, nil
}

func pickEntry(entry string) ([]string, error) {
	if info, err := os.Stat(entry); err == nil {
		if !info.IsDir() {
			if !isImage(entry) {
				return nil, fmt.Errorf("%s is not a supported image", filepath.Base(entry))
			}
			return []string{absolute(entry)}, nil
		}
		dirEntries, err := os.ReadDir(entry)
		if err != nil {
			return nil, fmt.Errorf("read dir: %w", err)
		}
		var out []string
		for _, de := range dirEntries {
			if !de.IsDir() && isImage(de.Name()) {
				out = append(out, absolute(filepath.Join(entry, de.Name())))
			}
		}
		return out, nil
	}

	matches, err := filepath.Glob(entry)
	if err != nil {
		return nil, fmt.Errorf("bad pattern %q: %w", entry, err)
	}
	sort.Strings(matches)
	var out []string
	for _, m := range matches {
		if isImage(m) {
			out = append(out, absolute(m))
		}
	}
	return out, nil
}

func isImage(name string) bool {
	return imageExts[strings.ToLower(filepath.Ext(name))]
}

func absolute(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
