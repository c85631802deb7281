package wad

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/mrsinham/b0spt/internal/dicom"
	"go.uber.org/multierr"
)

// ErrResultsWritten is returned when results are added or written after
// the results file has been written.
var ErrResultsWritten = errors.New("results already written")

// Result categories understood by the host.
const (
	CategoryDateTime = "datetime"
	CategoryObject   = "object"
)

// Entry is one registered result.
type Entry struct {
	Category string `json:"category"`
	Name     string `json:"name"`
	Val      any    `json:"val"`
}

// Results accumulates entries and writes them once to the results file.
type Results struct {
	path    string
	entries []Entry
	written bool
}

// NewResults returns an empty bundle that Write stores at path.
func NewResults(path string) *Results {
	return &Results{path: path}
}

// Path returns the results file path.
func (r *Results) Path() string {
	return r.path
}

func (r *Results) add(category, name string, val any) error {
	if r.written {
		return ErrResultsWritten
	}
	r.entries = append(r.entries, Entry{Category: category, Name: name, Val: val})
	return nil
}

// AddDateTime registers a timestamp in the host's datetime format.
func (r *Results) AddDateTime(name string, t time.Time) error {
	return r.add(CategoryDateTime, name, t.Format(dicom.DateTimeLayout))
}

// AddObject registers a file produced by the module.
func (r *Results) AddObject(name, path string) error {
	return r.add(CategoryObject, name, path)
}

// Entries returns a copy of the registered entries.
func (r *Results) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Write stores the entries as a JSON array. It succeeds at most once.
func (r *Results) Write() (err error) {
	if r.written {
		return ErrResultsWritten
	}

	entries := r.entries
	if entries == nil {
		entries = []Entry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}

	f, err := os.Create(r.path)
	if err != nil {
		return fmt.Errorf("create results: %w", err)
	}
	defer func() { err = multierr.Append(err, f.Close()) }()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	r.written = true
	return nil
}
