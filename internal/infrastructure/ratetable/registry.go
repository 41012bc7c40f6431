// Package ratetable loads versioned UK rate tables from YAML, either the
// tables embedded in the binary or an override directory.
package ratetable

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/homeledger/taxengine/internal/domain/shared"
	"github.com/homeledger/taxengine/internal/domain/tax"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:embed tables/*.yaml
var embedded embed.FS

// Registry holds one validated rate table per tax year. It is safe for
// concurrent use; tables are immutable once loaded.
type Registry struct {
	mu     sync.RWMutex
	tables map[string]*tax.RateTable
	logger *zap.Logger
}

// Option configures a Registry
type Option func(*Registry)

// WithLogger sets the logger used while loading tables
func WithLogger(logger *zap.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		tables: make(map[string]*tax.RateTable),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// LoadDefault returns a registry holding the embedded tables, overlaid with
// any tables in dir when dir is not empty.
func LoadDefault(dir string, opts ...Option) (*Registry, error) {
	r := NewRegistry(opts...)
	if err := r.LoadEmbedded(); err != nil {
		return nil, err
	}
	if dir != "" {
		if err := r.LoadDir(dir); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// LoadEmbedded loads the tables compiled into the binary.
func (r *Registry) LoadEmbedded() error {
	sub, err := fs.Sub(embedded, "tables")
	if err != nil {
		return fmt.Errorf("open embedded rate tables: %w", err)
	}
	return r.loadFS(sub, "embedded")
}

// LoadDir loads every *.yaml file in dir. A table for a year already present
// replaces it.
func (r *Registry) LoadDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("rate table dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("rate table dir %s is not a directory", dir)
	}
	return r.loadFS(os.DirFS(dir), dir)
}

func (r *Registry) loadFS(fsys fs.FS, source string) error {
	names, err := fs.Glob(fsys, "*.yaml")
	if err != nil {
		return fmt.Errorf("list rate tables in %s: %w", source, err)
	}
	sort.Strings(names)
	for _, name := range names {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("read rate table %s: %w", name, err)
		}
		table, err := Parse(data)
		if err != nil {
			return fmt.Errorf("rate table %s: %w", filepath.Join(source, name), err)
		}
		r.Add(table)
		r.logger.Debug("Loaded rate table",
			zap.String("tax_year", table.TaxYear),
			zap.String("version", table.Version),
			zap.String("source", source),
		)
	}
	return nil
}

// Parse decodes and validates one YAML rate table. Unknown keys are rejected.
func Parse(data []byte) (*tax.RateTable, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var table tax.RateTable
	if err := dec.Decode(&table); err != nil {
		return nil, shared.NewInvalidInputError("decode rate table: %v", err)
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}
	return &table, nil
}

// Add registers a table, replacing any table for the same year.
func (r *Registry) Add(table *tax.RateTable) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tables[table.TaxYear] = table
}

// Table returns the table for a tax-year key such as "2025-2026".
func (r *Registry) Table(taxYear string) (*tax.RateTable, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tables[taxYear]
	if !ok {
		return nil, shared.NewUnknownRateTableError(taxYear)
	}
	return t, nil
}

// Keys returns the loaded tax years in ascending order.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.tables))
	for k := range r.tables {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Latest returns the most recent table.
func (r *Registry) Latest() (*tax.RateTable, error) {
	keys := r.Keys()
	if len(keys) == 0 {
		return nil, shared.NewUnknownRateTableError("latest")
	}
	return r.Table(keys[len(keys)-1])
}

// String lists the loaded years
func (r *Registry) String() string {
	return "ratetable.Registry[" + strings.Join(r.Keys(), ", ") + "]"
}
