package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"feed-ingest/models"
)

// JSONStore keeps the catalog as one JSON document on disk.
type JSONStore struct {
	path string
}

func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

// Path returns the catalog file location.
func (s *JSONStore) Path() string { return s.path }

// Load reads the catalog. A missing file is an empty catalog.
func (s *JSONStore) Load(ctx context.Context) (*models.Catalog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return models.NewCatalog(), nil
	}
	if err != nil {
		return nil, &models.UpsertError{Op: "load", Err: err}
	}

	catalog := models.NewCatalog()
	if err := json.Unmarshal(data, catalog); err != nil {
		return nil, &models.UpsertError{Op: "load", Err: fmt.Errorf("decode %s: %w", s.path, err)}
	}
	if catalog.Products == nil {
		catalog.Products = make(map[string]*models.CanonicalProduct)
	}
	for id, p := range catalog.Products {
		if p == nil {
			delete(catalog.Products, id)
		}
	}
	if catalog.Partners == nil {
		catalog.Partners = []string{}
	}
	return catalog, nil
}

// Save atomically replaces the catalog file.
func (s *JSONStore) Save(ctx context.Context, catalog *models.Catalog) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(catalog, "", "  ")
	if err != nil {
		return &models.UpsertError{Op: "save", Err: fmt.Errorf("encode: %w", err)}
	}
	if err := writeFileAtomic(s.path, append(data, '\n')); err != nil {
		return &models.UpsertError{Op: "save", Err: err}
	}
	return nil
}

func (s *JSONStore) Close() error { return nil }
