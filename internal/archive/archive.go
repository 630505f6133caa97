// Package archive persists submitted feedback and its adapter outcome
// under the project's .anyclick directory, so submissions survive the
// serve process and can be reviewed or re-sent later.
package archive

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/anyclick/anyclick/internal/adapter"
	"github.com/anyclick/anyclick/internal/debug"
	"github.com/anyclick/anyclick/internal/payload"
)

// Dir is the archive directory relative to the project root.
const Dir = ".anyclick/archive"

// ErrNotFound is returned when no record exists for an id.
var ErrNotFound = errors.New("feedback record not found")

// Record is one archived submission.
type Record struct {
	Feedback   *payload.Feedback `json:"feedback"`
	Result     adapter.Result    `json:"result"`
	ArchivedAt time.Time         `json:"archivedAt"`
}

// Archive writes and reads submission records for one project.
type Archive struct {
	basePath string
	mu       sync.RWMutex
}

// New builds an archive rooted at the project directory.
func New(basePath string) *Archive {
	return &Archive{basePath: basePath}
}

func (a *Archive) dir() string {
	return filepath.Join(a.basePath, filepath.FromSlash(Dir))
}

// recordPath names a record file. The archive timestamp prefixes the
// feedback id so directory order is chronological.
func (a *Archive) recordPath(rec *Record) string {
	name := fmt.Sprintf("%s-%s.json", rec.ArchivedAt.UTC().Format("20060102T150405"), rec.Feedback.ID)
	return filepath.Join(a.dir(), name)
}

// Save archives one submission atomically (temp file + rename).
func (a *Archive) Save(fb *payload.Feedback, res adapter.Result) error {
	if fb == nil || fb.ID == "" {
		return errors.New("feedback with an id is required")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if err := os.MkdirAll(a.dir(), 0755); err != nil {
		return fmt.Errorf("failed to create archive directory: %w", err)
	}

	rec := &Record{Feedback: fb, Result: res, ArchivedAt: time.Now()}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal feedback record: %w", err)
	}

	path := a.recordPath(rec)
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	debug.Log("archive", "archived feedback %s -> %s", fb.ID, path)
	return nil
}

// Get loads the record for a feedback id.
func (a *Archive) Get(id string) (*Record, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	names, err := a.names()
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		if strings.HasSuffix(name, "-"+id+".json") {
			return a.load(filepath.Join(a.dir(), name))
		}
	}
	return nil, ErrNotFound
}

// List returns up to limit records, newest first. limit <= 0 means all.
func (a *Archive) List(limit int) ([]*Record, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	names, err := a.names()
	if err != nil {
		return nil, err
	}

	// Filenames sort chronologically; walk backwards for newest first.
	sort.Strings(names)
	var recs []*Record
	for i := len(names) - 1; i >= 0; i-- {
		if limit > 0 && len(recs) >= limit {
			break
		}
		rec, err := a.load(filepath.Join(a.dir(), names[i]))
		if err != nil {
			debug.Warn("archive", "skipping unreadable record %s: %v", names[i], err)
			continue
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// Prune removes records archived before the cutoff and returns how many
// were deleted.
func (a *Archive) Prune(before time.Time) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	names, err := a.names()
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, name := range names {
		path := filepath.Join(a.dir(), name)
		rec, err := a.load(path)
		if err != nil {
			continue
		}
		if rec.ArchivedAt.Before(before) {
			if err := os.Remove(path); err != nil {
				return removed, fmt.Errorf("failed to remove record: %w", err)
			}
			removed++
		}
	}
	return removed, nil
}

// names lists record filenames. A missing directory is an empty archive.
func (a *Archive) names() ([]string, error) {
	entries, err := os.ReadDir(a.dir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read archive directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, e.Name())
	}
	return names, nil
}

func (a *Archive) load(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read record: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to parse record: %w", err)
	}
	return &rec, nil
}
