package download

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Baseline is the set of entry names present in a directory before the
// download was triggered. Those entries never count as progress.
type Baseline map[string]struct{}

// Snapshot records the current entries of dir. A missing directory yields
// an empty baseline.
func Snapshot(dir string) (Baseline, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Baseline{}, nil
		}
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	b := make(Baseline, len(entries))
	for _, e := range entries {
		b[e.Name()] = struct{}{}
	}
	return b, nil
}

// scanResult is one look at the download directory.
type scanResult struct {
	partial      []string
	complete     []string
	partialBytes int64
	finalBytes   int64
}

func (w *Waiter) isPartial(name string) bool {
	for _, suffix := range w.suffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

// scan classifies the new regular files of dir.
func (w *Waiter) scan(dir string, exp Expectation) (scanResult, error) {
	var res scanResult
	entries, err := os.ReadDir(dir)
	if err != nil {
		return res, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") || e.IsDir() {
			continue
		}
		if _, old := exp.Baseline[name]; old {
			continue
		}
		info, err := e.Info()
		if err != nil {
			// Renamed between ReadDir and Info; the next poll sees the new name.
			continue
		}
		if !info.Mode().IsRegular() {
			continue
		}

		path := filepath.Join(dir, name)
		if w.isPartial(name) {
			res.partial = append(res.partial, path)
			res.partialBytes += info.Size()
			continue
		}
		if exp.matches(name, info.Size()) {
			res.complete = append(res.complete, path)
			res.finalBytes += info.Size()
		}
	}
	sort.Strings(res.partial)
	sort.Strings(res.complete)
	return res, nil
}
