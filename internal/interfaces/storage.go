package interfaces

import (
	"context"
	"time"

	"github.com/ternarybob/sideline/internal/models"
)

// CatalogStorage is the durable site catalog. Writes are serialized by the
// implementation; upserts are atomic per URL. Rows are never hard-deleted,
// only transitioned to inactive.
type CatalogStorage interface {
	Upsert(ctx context.Context, site models.SiteUpsert) (models.UpsertOutcome, error)
	GetByURL(ctx context.Context, url string) (*models.Site, error)
	ListActive(ctx context.Context) ([]models.Site, error)
	ListByStatus(ctx context.Context, status models.SiteStatus) ([]models.Site, error)
	Quarantine(ctx context.Context, url, reason string) error
	Reactivate(ctx context.Context, url string, confidence int) error
	Deactivate(ctx context.Context, url string) error
	CountAddedSince(ctx context.Context, t time.Time) (int, error)
	Status(ctx context.Context) (*models.CatalogStatus, error)
	Close() error
}
