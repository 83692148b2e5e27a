package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"chemviz/domain/core"
	"chemviz/domain/equipment"
	apperrors "chemviz/internal/errors"
	"chemviz/ports"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// recordInsertBatch bounds rows per multi-row INSERT; 6 params per row stays below the 65535 limit
const recordInsertBatch = 1000

// datasetRepository implements the DatasetRepository interface
type datasetRepository struct {
	db          *sqlx.DB
	maxDatasets int
	now         func() time.Time
}

// datasetRow is the equipment_datasets row shape
type datasetRow struct {
	ID               string    `db:"id"`
	UserID           string    `db:"user_id"`
	Name             string    `db:"name"`
	CreatedAt        time.Time `db:"created_at"`
	TotalRecords     int       `db:"total_records"`
	AvgFlowrate      float64   `db:"avg_flowrate"`
	AvgPressure      float64   `db:"avg_pressure"`
	AvgTemperature   float64   `db:"avg_temperature"`
	TypeDistribution []byte    `db:"type_distribution"`
}

const datasetColumns = `id, user_id, name, created_at, total_records,
	avg_flowrate, avg_pressure, avg_temperature, type_distribution`

// NewDatasetRepository creates a retention store keeping at most maxDatasets per owner
func NewDatasetRepository(db *sqlx.DB, maxDatasets int) ports.DatasetRepository {
	return &datasetRepository{db: db, maxDatasets: maxDatasets, now: time.Now}
}

// MaxDatasets returns the per-owner retention limit
func (r *datasetRepository) MaxDatasets() int {
	return r.maxDatasets
}

// Ingest evicts the owner's oldest datasets as needed and persists the new dataset in one transaction
func (r *datasetRepository) Ingest(ctx context.Context, owner core.UserID, nd equipment.NewDataset) (*equipment.IngestResult, error) {
	distributionJSON, err := json.Marshal(nd.Summary.TypeDistribution)
	if err != nil {
		return nil, apperrors.PersistenceFailure("failed to marshal type distribution", err)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, apperrors.PersistenceFailure("failed to begin transaction", err)
	}
	defer tx.Rollback()

	// Serializes concurrent ingests for the same owner
	var lockedID string
	if err := tx.GetContext(ctx, &lockedID, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, string(owner)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.PersistenceFailure("owner does not exist", err)
		}
		return nil, apperrors.PersistenceFailure("failed to lock owner", err)
	}

	evicted, err := r.evictOldest(ctx, tx, owner)
	if err != nil {
		return nil, apperrors.PersistenceFailure("failed to evict old datasets", err)
	}

	ds := &equipment.Dataset{
		DatasetSummary: equipment.DatasetSummary{
			ID:        core.DatasetID(core.NewID()),
			OwnerID:   owner,
			Name:      nd.Name,
			CreatedAt: r.now().UTC().Truncate(time.Microsecond),
			Summary:   nd.Summary,
		},
	}

	_, err = tx.ExecContext(ctx, `INSERT INTO equipment_datasets (`+datasetColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		string(ds.ID), string(owner), ds.Name, ds.CreatedAt, ds.TotalRecords,
		ds.AvgFlowrate, ds.AvgPressure, ds.AvgTemperature, distributionJSON,
	)
	if err != nil {
		return nil, apperrors.PersistenceFailure("failed to create dataset", err)
	}

	records, err := insertRecords(ctx, tx, ds.ID, nd.Records)
	if err != nil {
		return nil, apperrors.PersistenceFailure("failed to insert records", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, apperrors.PersistenceFailure("failed to commit dataset", err)
	}

	equipment.SortRecords(records)
	ds.Records = records

	return &equipment.IngestResult{Dataset: ds, Evicted: evicted}, nil
}

// evictOldest deletes the oldest datasets so that one more fits under the limit
func (r *datasetRepository) evictOldest(ctx context.Context, tx *sqlx.Tx, owner core.UserID) ([]core.DatasetID, error) {
	var ids []string
	err := tx.SelectContext(ctx, &ids, `
		SELECT id FROM equipment_datasets
		WHERE user_id = $1
		ORDER BY created_at ASC, id ASC`, string(owner))
	if err != nil {
		return nil, fmt.Errorf("failed to list datasets: %w", err)
	}

	excess := len(ids) - r.maxDatasets + 1
	if excess <= 0 {
		return nil, nil
	}

	doomed := ids[:excess]
	if _, err := tx.ExecContext(ctx, `DELETE FROM equipment_datasets WHERE id = ANY($1)`, pq.Array(doomed)); err != nil {
		return nil, fmt.Errorf("failed to delete datasets: %w", err)
	}

	evicted := make([]core.DatasetID, len(doomed))
	for i, id := range doomed {
		evicted[i] = core.DatasetID(id)
	}
	return evicted, nil
}

// insertRecords bulk inserts records in batches and returns them with their assigned IDs
func insertRecords(ctx context.Context, tx *sqlx.Tx, datasetID core.DatasetID, records []equipment.Record) ([]equipment.Record, error) {
	stored := make([]equipment.Record, len(records))
	copy(stored, records)

	for start := 0; start < len(stored); start += recordInsertBatch {
		end := start + recordInsertBatch
		if end > len(stored) {
			end = len(stored)
		}
		batch := stored[start:end]

		placeholders := make([]string, len(batch))
		args := make([]interface{}, 0, len(batch)*6)
		for i, rec := range batch {
			base := i * 6
			placeholders[i] = fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d)",
				base+1, base+2, base+3, base+4, base+5, base+6)
			args = append(args, string(datasetID), rec.EquipmentName, rec.EquipmentType,
				rec.Flowrate, rec.Pressure, rec.Temperature)
		}

		query := `INSERT INTO equipment_records
			(dataset_id, equipment_name, equipment_type, flowrate, pressure, temperature)
			VALUES ` + strings.Join(placeholders, ", ") + ` RETURNING id`

		var ids []int64
		if err := tx.SelectContext(ctx, &ids, query, args...); err != nil {
			return nil, err
		}
		if len(ids) != len(batch) {
			return nil, fmt.Errorf("inserted %d records, expected %d", len(ids), len(batch))
		}
		for i := range batch {
			batch[i].ID = ids[i]
			batch[i].DatasetID = datasetID
		}
	}

	return stored, nil
}

// List returns the owner's datasets newest first
func (r *datasetRepository) List(ctx context.Context, owner core.UserID, limit int) ([]equipment.DatasetSummary, error) {
	var rows []datasetRow
	err := r.db.SelectContext(ctx, &rows, `SELECT `+datasetColumns+`
		FROM equipment_datasets
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`, string(owner), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query datasets: %w", err)
	}

	summaries := make([]equipment.DatasetSummary, 0, len(rows))
	for _, row := range rows {
		summary, err := row.toSummary()
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// Get retrieves an owner's dataset with records ordered by equipment name
func (r *datasetRepository) Get(ctx context.Context, owner core.UserID, id core.DatasetID) (*equipment.Dataset, error) {
	var row datasetRow
	err := r.db.GetContext(ctx, &row, `SELECT `+datasetColumns+`
		FROM equipment_datasets
		WHERE id = $1 AND user_id = $2`, string(id), string(owner))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("Dataset")
		}
		return nil, fmt.Errorf("failed to get dataset: %w", err)
	}

	summary, err := row.toSummary()
	if err != nil {
		return nil, err
	}

	records := []equipment.Record{}
	err = r.db.SelectContext(ctx, &records, `
		SELECT id, dataset_id, equipment_name, equipment_type, flowrate, pressure, temperature
		FROM equipment_records
		WHERE dataset_id = $1
		ORDER BY equipment_name COLLATE "C" ASC, id ASC`, string(id))
	if err != nil {
		return nil, fmt.Errorf("failed to get records: %w", err)
	}

	return &equipment.Dataset{DatasetSummary: summary, Records: records}, nil
}

// Delete removes an owner's dataset; records go with it via ON DELETE CASCADE
func (r *datasetRepository) Delete(ctx context.Context, owner core.UserID, id core.DatasetID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM equipment_datasets WHERE id = $1 AND user_id = $2`,
		string(id), string(owner))
	if err != nil {
		return fmt.Errorf("failed to delete dataset: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return apperrors.NotFound("Dataset")
	}
	return nil
}

func (row datasetRow) toSummary() (equipment.DatasetSummary, error) {
	distribution := make(map[string]int)
	if len(row.TypeDistribution) > 0 {
		if err := json.Unmarshal(row.TypeDistribution, &distribution); err != nil {
			return equipment.DatasetSummary{}, fmt.Errorf("failed to unmarshal type distribution: %w", err)
		}
		if distribution == nil {
			distribution = make(map[string]int)
		}
	}

	return equipment.DatasetSummary{
		ID:        core.DatasetID(row.ID),
		OwnerID:   core.UserID(row.UserID),
		Name:      row.Name,
		CreatedAt: row.CreatedAt,
		Summary: equipment.Summary{
			TotalRecords:     row.TotalRecords,
			AvgFlowrate:      row.AvgFlowrate,
			AvgPressure:      row.AvgPressure,
			AvgTemperature:   row.AvgTemperature,
			TypeDistribution: distribution,
		},
	}, nil
}
