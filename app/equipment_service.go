package app

import (
	"context"
	"time"

	"golang.org/x/sync/semaphore"

	"chemviz/domain/core"
	"chemviz/domain/equipment"
	"chemviz/internal"
	"chemviz/internal/config"
	"chemviz/internal/errors"
	"chemviz/internal/ingestion"
	"chemviz/internal/metrics"
	"chemviz/internal/report"
	"chemviz/ports"
)

// EquipmentService exposes dataset ingestion, retrieval and reporting for an owner
type EquipmentService struct {
	datasets  ports.DatasetRepository
	users     ports.UserRepository
	logger    *internal.Logger
	metrics   *metrics.Metrics
	ingestSem *semaphore.Weighted
	events    ports.DatasetEventPublisher
	now       func() time.Time
}

// NewEquipmentService creates the service. metrics may be nil.
func NewEquipmentService(datasets ports.DatasetRepository, users ports.UserRepository, cfg config.IngestConfig, logger *internal.Logger, m *metrics.Metrics) *EquipmentService {
	return &EquipmentService{
		datasets:  datasets,
		users:     users,
		logger:    logger,
		metrics:   m,
		ingestSem: semaphore.NewWeighted(cfg.MaxConcurrent),
		now:       time.Now,
	}
}

// WithEventPublisher streams dataset changes to p
func (s *EquipmentService) WithEventPublisher(p ports.DatasetEventPublisher) *EquipmentService {
	s.events = p
	return s
}

// Ingest parses an uploaded CSV and stores it as the owner's newest dataset,
// evicting the oldest ones when the owner is at capacity
func (s *EquipmentService) Ingest(ctx context.Context, owner core.UserID, filename string, data []byte) (*equipment.Dataset, error) {
	start := s.now()
	log := s.logger.WithFields(internal.Fields{"owner": owner.String(), "file": filename, "bytes": len(data)})

	result, err := s.parse(ctx, data)
	if err != nil {
		s.observeIngest(errorOutcome(err), 0, 0, start)
		log.WithError(err).Warn("upload rejected")
		return nil, err
	}

	stored, err := s.datasets.Ingest(ctx, owner, result.NewDataset(filename))
	if err != nil {
		s.observeIngest(errorOutcome(err), 0, 0, start)
		log.WithError(err).Error("failed to persist dataset")
		return nil, err
	}

	s.observeIngest(metrics.OutcomeCreated, len(stored.Dataset.Records), len(stored.Evicted), start)
	if len(stored.Evicted) > 0 {
		log.WithField("evicted", stored.Evicted).Info("evicted oldest datasets")
	}
	for _, id := range stored.Evicted {
		s.publish(equipment.EventDatasetEvicted, owner, id, "")
	}
	s.publish(equipment.EventDatasetCreated, owner, stored.Dataset.ID, stored.Dataset.Name)
	log.WithFields(internal.Fields{
		"dataset": stored.Dataset.ID.String(),
		"records": stored.Dataset.TotalRecords,
	}).Info("dataset created")

	return stored.Dataset, nil
}

// parse runs the ingestion pipeline under the concurrency limit
func (s *EquipmentService) parse(ctx context.Context, data []byte) (*ingestion.Result, error) {
	if err := s.ingestSem.Acquire(ctx, 1); err != nil {
		return nil, errors.Wrap(err, "ingest cancelled")
	}
	defer s.ingestSem.Release(1)

	return ingestion.Parse(data)
}

// ListRecent returns the owner's retained datasets, newest first
func (s *EquipmentService) ListRecent(ctx context.Context, owner core.UserID) ([]equipment.DatasetSummary, error) {
	return s.datasets.List(ctx, owner, s.datasets.MaxDatasets())
}

// GetDataset returns one of the owner's datasets with its records
func (s *EquipmentService) GetDataset(ctx context.Context, owner core.UserID, id core.DatasetID) (*equipment.Dataset, error) {
	return s.datasets.Get(ctx, owner, id)
}

// DeleteDataset removes one of the owner's datasets and its records
func (s *EquipmentService) DeleteDataset(ctx context.Context, owner core.UserID, id core.DatasetID) error {
	if err := s.datasets.Delete(ctx, owner, id); err != nil {
		return err
	}
	s.logger.WithFields(internal.Fields{"owner": owner.String(), "dataset": id.String()}).Info("dataset deleted")
	s.publish(equipment.EventDatasetDeleted, owner, id, "")
	return nil
}

// AssembleReportData projects a stored dataset for rendering
func (s *EquipmentService) AssembleReportData(ctx context.Context, owner core.UserID, id core.DatasetID) (*report.ReportData, error) {
	ds, err := s.datasets.Get(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByID(ctx, owner)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load report owner")
	}

	return report.Assemble(ds, user.Username, s.now()), nil
}

// RenderReport assembles and renders a dataset report in the requested format
func (s *EquipmentService) RenderReport(ctx context.Context, owner core.UserID, id core.DatasetID, format report.Format) (*report.Document, error) {
	data, err := s.AssembleReportData(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	doc, err := report.Render(data, format)
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.ObserveReport(string(format))
	}
	return doc, nil
}

func (s *EquipmentService) publish(kind equipment.EventType, owner core.UserID, id core.DatasetID, name string) {
	if s.events == nil {
		return
	}
	s.events.Publish(equipment.Event{
		Type:      kind,
		OwnerID:   owner,
		DatasetID: id,
		Name:      name,
		Timestamp: s.now().UTC(),
	})
}

func (s *EquipmentService) observeIngest(outcome string, rows, evicted int, start time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.ObserveIngest(outcome, rows, evicted, s.now().Sub(start).Seconds())
}

func errorOutcome(err error) string {
	switch errors.GetCode(err) {
	case errors.CodeMissingColumns:
		return metrics.OutcomeMissingColumns
	case errors.CodeInvalidFormat:
		return metrics.OutcomeInvalidFormat
	case errors.CodePersistenceFailure:
		return metrics.OutcomePersistenceFailure
	default:
		return metrics.OutcomeError
	}
}
