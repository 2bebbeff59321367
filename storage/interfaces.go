package storage

import (
	"context"

	"feed-ingest/models"
)

// CatalogRepository is the interface any catalog backend must satisfy.
// Save replaces the whole catalog atomically: a failed Save leaves the
// previously saved catalog readable.
type CatalogRepository interface {
	Load(ctx context.Context) (*models.Catalog, error)
	Save(ctx context.Context, catalog *models.Catalog) error
	Close() error
}

// ErrorReportWriter is the interface for persisting a run's ingestion errors.
type ErrorReportWriter interface {
	WriteErrors(errs []models.FeedIngestionError) error
	Close() error
}
