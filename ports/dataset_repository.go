package ports

import (
	"context"

	"chemviz/domain/core"
	"chemviz/domain/equipment"
)

// DatasetRepository is the per-owner retention store for equipment datasets.
// Implementations keep at most a fixed number of datasets per owner.
type DatasetRepository interface {
	// Ingest evicts the owner's oldest datasets as needed and persists the new one with its
	// records, all as one atomic unit
	Ingest(ctx context.Context, owner core.UserID, ds equipment.NewDataset) (*equipment.IngestResult, error)

	// List returns the owner's datasets newest first, without records
	List(ctx context.Context, owner core.UserID, limit int) ([]equipment.DatasetSummary, error)

	// Get returns a dataset with its records ordered by equipment name
	Get(ctx context.Context, owner core.UserID, id core.DatasetID) (*equipment.Dataset, error)

	// Delete removes a dataset and its records
	Delete(ctx context.Context, owner core.UserID, id core.DatasetID) error

	// MaxDatasets is the per-owner retention limit
	MaxDatasets() int
}
