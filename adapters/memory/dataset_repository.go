package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"chemviz/domain/core"
	"chemviz/domain/equipment"
	apperrors "chemviz/internal/errors"
	"chemviz/ports"
)

// ownerShelf holds one owner's datasets, oldest first
type ownerShelf struct {
	mu       sync.Mutex
	datasets []*equipment.Dataset
}

// DatasetRepository is an in-process retention store.
// Each owner has its own lock, so ingests for different owners never contend.
type DatasetRepository struct {
	maxDatasets int
	now         func() time.Time

	mu      sync.Mutex
	shelves map[core.UserID]*ownerShelf

	nextRecordID atomic.Int64
}

var _ ports.DatasetRepository = (*DatasetRepository)(nil)

// NewDatasetRepository creates an empty store keeping at most maxDatasets per owner
func NewDatasetRepository(maxDatasets int) *DatasetRepository {
	return &DatasetRepository{
		maxDatasets: maxDatasets,
		now:         time.Now,
		shelves:     make(map[core.UserID]*ownerShelf),
	}
}

// MaxDatasets returns the per-owner retention limit
func (r *DatasetRepository) MaxDatasets() int {
	return r.maxDatasets
}

func (r *DatasetRepository) shelf(owner core.UserID) *ownerShelf {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.shelves[owner]
	if !ok {
		s = &ownerShelf{}
		r.shelves[owner] = s
	}
	return s
}

// Ingest evicts the owner's oldest datasets as needed and stores the new one.
// The shelf is only mutated after every check has passed, so a failure leaves it untouched.
func (r *DatasetRepository) Ingest(ctx context.Context, owner core.UserID, nd equipment.NewDataset) (*equipment.IngestResult, error) {
	s := r.shelf(owner)
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, apperrors.PersistenceFailure("transaction aborted", err)
	}

	excess := len(s.datasets) - r.maxDatasets + 1
	if excess < 0 {
		excess = 0
	}

	ds := &equipment.Dataset{
		DatasetSummary: equipment.DatasetSummary{
			ID:        core.DatasetID(core.NewID()),
			OwnerID:   owner,
			Name:      nd.Name,
			CreatedAt: r.now().UTC(),
			Summary:   nd.Summary,
		},
		Records: make([]equipment.Record, len(nd.Records)),
	}
	ds.TypeDistribution = copyDistribution(nd.Summary.TypeDistribution)
	for i, rec := range nd.Records {
		rec.ID = r.nextRecordID.Add(1)
		rec.DatasetID = ds.ID
		ds.Records[i] = rec
	}
	equipment.SortRecords(ds.Records)

	evicted := make([]core.DatasetID, 0, excess)
	for _, old := range s.datasets[:excess] {
		evicted = append(evicted, old.ID)
	}

	kept := make([]*equipment.Dataset, 0, len(s.datasets)-excess+1)
	kept = append(kept, s.datasets[excess:]...)
	s.datasets = append(kept, ds)

	return &equipment.IngestResult{Dataset: cloneDataset(ds), Evicted: evicted}, nil
}

// List returns the owner's datasets newest first
func (r *DatasetRepository) List(ctx context.Context, owner core.UserID, limit int) ([]equipment.DatasetSummary, error) {
	s := r.shelf(owner)
	s.mu.Lock()
	defer s.mu.Unlock()

	summaries := make([]equipment.DatasetSummary, 0, len(s.datasets))
	for i := len(s.datasets) - 1; i >= 0 && len(summaries) < limit; i-- {
		summary := s.datasets[i].DatasetSummary
		summary.TypeDistribution = copyDistribution(summary.TypeDistribution)
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// Get returns an owner's dataset with its records
func (r *DatasetRepository) Get(ctx context.Context, owner core.UserID, id core.DatasetID) (*equipment.Dataset, error) {
	s := r.shelf(owner)
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ds := range s.datasets {
		if ds.ID == id {
			return cloneDataset(ds), nil
		}
	}
	return nil, apperrors.NotFound("Dataset")
}

// Delete removes an owner's dataset and its records
func (r *DatasetRepository) Delete(ctx context.Context, owner core.UserID, id core.DatasetID) error {
	s := r.shelf(owner)
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, ds := range s.datasets {
		if ds.ID == id {
			s.datasets = append(s.datasets[:i:i], s.datasets[i+1:]...)
			return nil
		}
	}
	return apperrors.NotFound("Dataset")
}

func cloneDataset(ds *equipment.Dataset) *equipment.Dataset {
	out := *ds
	out.TypeDistribution = copyDistribution(ds.TypeDistribution)
	out.Records = append([]equipment.Record(nil), ds.Records...)
	if out.Records == nil {
		out.Records = []equipment.Record{}
	}
	return &out
}

func copyDistribution(in map[string]int) map[string]int {
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
