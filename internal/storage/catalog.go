package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/roman-kulish/propeller-charts/internal/propeller"
)

const (
	filePrefix    = "APC_Prop_"
	fileExtension = ".sqlite"
)

var (
	// ErrNotFound is returned when no dataset matches a selection
	ErrNotFound = errors.New("propeller dataset not found")

	// ErrAmbiguous is returned when a partial name matches several datasets
	ErrAmbiguous = errors.New("ambiguous propeller selection")
)

// Catalog lists and opens the dataset files of a directory.
type Catalog struct {
	dir string
}

// NewCatalog creates a catalog over dir.
func NewCatalog(dir string) *Catalog {
	return &Catalog{dir: dir}
}

// Dir returns the catalog directory.
func (c *Catalog) Dir() string {
	return c.dir
}

// Path returns the dataset file path of the named propeller.
func (c *Catalog) Path(name string) string {
	return filepath.Join(c.dir, filePrefix+name+fileExtension)
}

// Propellers returns the names of all datasets in the directory, sorted.
func (c *Catalog) Propellers() ([]string, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return nil, fmt.Errorf("reading data directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		file := e.Name()
		if e.IsDir() || !strings.HasPrefix(file, filePrefix) || !strings.HasSuffix(file, fileExtension) {
			continue
		}
		if name := strings.TrimSuffix(strings.TrimPrefix(file, filePrefix), fileExtension); name != "" {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names, nil
}

// Resolve maps a user selection to a propeller name. The selection is a
// 1-based index into Propellers, an exact name, or a case-insensitive part of
// exactly one name.
func (c *Catalog) Resolve(selection string) (string, error) {
	selection = strings.TrimSpace(selection)
	if selection == "" {
		return "", fmt.Errorf("empty selection: %w", ErrNotFound)
	}

	names, err := c.Propellers()
	if err != nil {
		return "", err
	}
	if len(names) == 0 {
		return "", fmt.Errorf("no datasets in %s: %w", c.dir, ErrNotFound)
	}

	if i, err := strconv.Atoi(selection); err == nil {
		if i < 1 || i > len(names) {
			return "", fmt.Errorf("index %d outside 1-%d: %w", i, len(names), ErrNotFound)
		}
		return names[i-1], nil
	}

	if slices.Contains(names, selection) {
		return selection, nil
	}

	var matches []string
	needle := strings.ToLower(selection)
	for _, name := range names {
		lower := strings.ToLower(name)
		if lower == needle {
			return name, nil
		}
		if strings.Contains(lower, needle) {
			matches = append(matches, name)
		}
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%q: %w", selection, ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("%q matches %s: %w", selection, strings.Join(matches, ", "), ErrAmbiguous)
	}
}

// Load reads the dataset of the named propeller.
func (c *Catalog) Load(ctx context.Context, name string) (ds *propeller.Dataset, err error) {
	path := c.Path(name)
	if _, err = os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("checking dataset file: %w", err)
	}

	store := NewSqliteStore(path)
	defer closeWithError(store, &err)

	if ds, err = store.LoadDataset(ctx); err != nil {
		return nil, fmt.Errorf("loading %s: %w", name, err)
	}
	return ds, nil
}

// Save writes ds to its dataset file in the catalog directory.
func (c *Catalog) Save(ctx context.Context, ds *propeller.Dataset) (path string, err error) {
	if err = os.MkdirAll(c.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	path = c.Path(ds.Name)
	store := NewSqliteStore(path)
	defer closeWithError(store, &err)

	if err = store.SaveDataset(ctx, ds); err != nil {
		return "", fmt.Errorf("saving %s: %w", ds.Name, err)
	}
	return path, nil
}
