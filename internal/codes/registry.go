// Package codes holds the registry of Taiwan security codes.
package codes

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dyike/bestfour/internal/models"
)

//go:embed seed.csv
var seedCSV []byte

var csvHeader = []string{"type", "code", "name", "ISIN", "start", "market", "group", "CFI"}

// Registry maps security codes to their exchange listing.
type Registry struct {
	entries []models.CodeInfo
	byCode  map[string]models.CodeInfo
}

func NewRegistry(entries []models.CodeInfo) *Registry {
	r := &Registry{byCode: make(map[string]models.CodeInfo, len(entries))}
	for _, e := range entries {
		if _, dup := r.byCode[e.Code]; dup {
			continue
		}
		r.byCode[e.Code] = e
		r.entries = append(r.entries, e)
	}
	sort.SliceStable(r.entries, func(i, j int) bool { return r.entries[i].Code < r.entries[j].Code })
	return r
}

// Seed returns the registry bundled with the binary.
func Seed() (*Registry, error) {
	return LoadCSV(bytes.NewReader(seedCSV))
}

// Open loads the registry written by `codes update` at path, falling back to
// the bundled seed when the file does not exist.
func Open(path string) (*Registry, error) {
	if path != "" {
		f, err := os.Open(path)
		switch {
		case err == nil:
			defer f.Close()
			return LoadCSV(f)
		case !errors.Is(err, os.ErrNotExist):
			return nil, fmt.Errorf("open codes file: %w", err)
		}
	}
	return Seed()
}

// LoadCSV parses a registry CSV with a header row.
func LoadCSV(r io.Reader) (*Registry, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(csvHeader)

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read codes csv: %w", err)
	}
	if len(records) == 0 {
		return NewRegistry(nil), nil
	}

	entries := make([]models.CodeInfo, 0, len(records)-1)
	for _, rec := range records[1:] {
		entries = append(entries, models.CodeInfo{
			Type:   rec[0],
			Code:   strings.TrimSpace(rec[1]),
			Name:   rec[2],
			ISIN:   rec[3],
			Start:  rec[4],
			Market: rec[5],
			Group:  rec[6],
			CFI:    rec[7],
		})
	}
	return NewRegistry(entries), nil
}

// WriteCSV writes entries in the format read by LoadCSV.
func WriteCSV(w io.Writer, entries []models.CodeInfo) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, e := range entries {
		if err := cw.Write([]string{e.Type, e.Code, e.Name, e.ISIN, e.Start, e.Market, e.Group, e.CFI}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Save atomically replaces the registry file at path.
func Save(path string, entries []models.CodeInfo) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create codes dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".codes-*.csv")
	if err != nil {
		return fmt.Errorf("create temp codes file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := WriteCSV(tmp, entries); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write codes csv: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp codes file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace codes file: %w", err)
	}
	return nil
}

func (r *Registry) Lookup(code string) (models.CodeInfo, bool) {
	info, ok := r.byCode[strings.TrimSpace(code)]
	return info, ok
}

// All returns the entries ordered by code.
func (r *Registry) All() []models.CodeInfo {
	out := make([]models.CodeInfo, len(r.entries))
	copy(out, r.entries)
	return out
}

func (r *Registry) Len() int { return len(r.entries) }
