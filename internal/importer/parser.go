// Package importer parses bank export files and runs the import
// pipeline that stores their transactions and kicks off classification.
package importer

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/tallybook-dev/tallybook/internal/model"
)

// Parser converts one bank export format into SourceRecords.
type Parser interface {
	Parse(r io.Reader) ([]model.SourceRecord, error)
	Format() string
}

// Registry holds named parsers.
type Registry struct {
	parsers map[string]Parser
}

// NewRegistry creates an empty parser registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]Parser)}
}

// Register adds a parser. Panics on duplicate format.
func (r *Registry) Register(p Parser) {
	key := strings.ToLower(p.Format())
	if _, ok := r.parsers[key]; ok {
		panic("duplicate parser format: " + key)
	}
	r.parsers[key] = p
}

// Get returns the parser for format, or nil.
func (r *Registry) Get(format string) Parser {
	return r.parsers[strings.ToLower(format)]
}

// ForFile picks a parser from the file extension.
func (r *Registry) ForFile(path string) (Parser, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	p := r.Get(ext)
	if p == nil {
		return nil, fmt.Errorf("no parser for %q files", ext)
	}
	return p, nil
}

// DefaultRegistry returns a registry with all built-in parsers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&QIFParser{})
	r.Register(&CSVParser{})
	return r
}

// dateLayouts are tried in order when parsing source dates. Day-first
// layouts come before month-first because the exports this tool grew up
// on are Australian.
var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"2/1/2006",
	"02/01/06",
	"02-01-2006",
	"2.1.2006",
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}
