package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chemviz/domain/core"
	"chemviz/domain/equipment"
	apperrors "chemviz/internal/errors"
)

const testOwner = core.UserID("0190b6a4-0000-7000-8000-000000000001")

var datasetColumnNames = []string{
	"id", "user_id", "name", "created_at", "total_records",
	"avg_flowrate", "avg_pressure", "avg_temperature", "type_distribution",
}

func newMockRepository(t *testing.T, maxDatasets int) (*datasetRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	repo := NewDatasetRepository(sqlx.NewDb(db, "postgres"), maxDatasets).(*datasetRepository)
	repo.now = func() time.Time { return time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC) }
	return repo, mock
}

func sampleNewDataset() equipment.NewDataset {
	return equipment.NewDataset{
		Name: "plant.csv",
		Summary: equipment.Summary{
			TotalRecords:     2,
			AvgFlowrate:      60,
			AvgPressure:      3.3,
			AvgTemperature:   40,
			TypeDistribution: map[string]int{"Pump": 1, "Valve": 1},
		},
		Records: []equipment.Record{
			{EquipmentName: "Valve-2", EquipmentType: "Valve", Pressure: 2.1},
			{EquipmentName: "Pump-1", EquipmentType: "Pump", Flowrate: 120, Pressure: 4.5, Temperature: 80},
		},
	}
}

func expectOwnerLock(mock sqlmock.Sqlmock) {
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM users WHERE id = $1 FOR UPDATE")).
		WithArgs(string(testOwner)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(string(testOwner)))
}

func TestDatasetRepositoryIngestEvictsOldest(t *testing.T) {
	repo, mock := newMockRepository(t, 5)

	existing := sqlmock.NewRows([]string{"id"})
	for _, id := range []string{"d1", "d2", "d3", "d4", "d5"} {
		existing.AddRow(id)
	}

	mock.ExpectBegin()
	expectOwnerLock(mock)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM equipment_datasets")).
		WithArgs(string(testOwner)).
		WillReturnRows(existing)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM equipment_datasets WHERE id = ANY($1)")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO equipment_datasets")).
		WithArgs(sqlmock.AnyArg(), string(testOwner), "plant.csv", repo.now().UTC(), 2,
			60.0, 3.3, 40.0, []byte(`{"Pump":1,"Valve":1}`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO equipment_records")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11).AddRow(12))
	mock.ExpectCommit()

	result, err := repo.Ingest(context.Background(), testOwner, sampleNewDataset())
	require.NoError(t, err)

	assert.Equal(t, []core.DatasetID{"d1"}, result.Evicted)
	assert.Equal(t, "plant.csv", result.Dataset.Name)
	assert.Equal(t, testOwner, result.Dataset.OwnerID)
	require.Len(t, result.Dataset.Records, 2)
	assert.Equal(t, "Pump-1", result.Dataset.Records[0].EquipmentName)
	assert.Equal(t, int64(12), result.Dataset.Records[0].ID)
	assert.Equal(t, result.Dataset.ID, result.Dataset.Records[0].DatasetID)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDatasetRepositoryIngestBelowCapacity(t *testing.T) {
	repo, mock := newMockRepository(t, 5)

	mock.ExpectBegin()
	expectOwnerLock(mock)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM equipment_datasets")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("d1"))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO equipment_datasets")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO equipment_records")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1).AddRow(2))
	mock.ExpectCommit()

	result, err := repo.Ingest(context.Background(), testOwner, sampleNewDataset())
	require.NoError(t, err)
	assert.Empty(t, result.Evicted)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDatasetRepositoryIngestRollsBackOnFailure(t *testing.T) {
	repo, mock := newMockRepository(t, 5)

	existing := sqlmock.NewRows([]string{"id"})
	for _, id := range []string{"d1", "d2", "d3", "d4", "d5"} {
		existing.AddRow(id)
	}

	mock.ExpectBegin()
	expectOwnerLock(mock)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM equipment_datasets")).
		WillReturnRows(existing)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM equipment_datasets")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO equipment_datasets")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO equipment_records")).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	result, err := repo.Ingest(context.Background(), testOwner, sampleNewDataset())
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Equal(t, apperrors.CodePersistenceFailure, apperrors.GetCode(err))
	assert.Contains(t, err.Error(), "Database error")

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDatasetRepositoryIngestMissingOwner(t *testing.T) {
	repo, mock := newMockRepository(t, 5)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM users WHERE id = $1 FOR UPDATE")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	_, err := repo.Ingest(context.Background(), testOwner, sampleNewDataset())
	require.Error(t, err)
	assert.Equal(t, apperrors.CodePersistenceFailure, apperrors.GetCode(err))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDatasetRepositoryList(t *testing.T) {
	repo, mock := newMockRepository(t, 5)
	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("FROM equipment_datasets")).
		WithArgs(string(testOwner), 5).
		WillReturnRows(sqlmock.NewRows(datasetColumnNames).
			AddRow("d2", string(testOwner), "b.csv", created, 3, 1.5, 2.0, 3.25, []byte(`{"Pump":3}`)).
			AddRow("d1", string(testOwner), "a.csv", created.Add(-time.Hour), 0, 0.0, 0.0, 0.0, []byte(`{}`)))

	summaries, err := repo.List(context.Background(), testOwner, 5)
	require.NoError(t, err)

	require.Len(t, summaries, 2)
	assert.Equal(t, core.DatasetID("d2"), summaries[0].ID)
	assert.Equal(t, map[string]int{"Pump": 3}, summaries[0].TypeDistribution)
	assert.Equal(t, 3.25, summaries[0].AvgTemperature)
	assert.NotNil(t, summaries[1].TypeDistribution)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDatasetRepositoryGet(t *testing.T) {
	repo, mock := newMockRepository(t, 5)
	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("FROM equipment_datasets")).
		WithArgs("d1", string(testOwner)).
		WillReturnRows(sqlmock.NewRows(datasetColumnNames).
			AddRow("d1", string(testOwner), "a.csv", created, 1, 120.0, 4.5, 80.0, []byte(`{"Pump":1}`)))
	mock.ExpectQuery(regexp.QuoteMeta("FROM equipment_records")).
		WithArgs("d1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "dataset_id", "equipment_name", "equipment_type", "flowrate", "pressure", "temperature"}).
			AddRow(7, "d1", "Pump-1", "Pump", 120.0, 4.5, 80.0))

	ds, err := repo.Get(context.Background(), testOwner, "d1")
	require.NoError(t, err)

	assert.Equal(t, "a.csv", ds.Name)
	require.Len(t, ds.Records, 1)
	assert.Equal(t, equipment.Record{
		ID:            7,
		DatasetID:     "d1",
		EquipmentName: "Pump-1",
		EquipmentType: "Pump",
		Flowrate:      120,
		Pressure:      4.5,
		Temperature:   80,
	}, ds.Records[0])

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDatasetRepositoryRecordOrderMatchesIngest(t *testing.T) {
	repo, mock := newMockRepository(t, 5)
	repo.now = func() time.Time { return time.Date(2024, 3, 1, 10, 30, 0, 123456789, time.UTC) }

	nd := sampleNewDataset()
	nd.Records[1].EquipmentName = "pump-1"

	mock.ExpectBegin()
	expectOwnerLock(mock)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM equipment_datasets")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO equipment_datasets")).
		WithArgs(sqlmock.AnyArg(), string(testOwner), "plant.csv",
			time.Date(2024, 3, 1, 10, 30, 0, 123456000, time.UTC), 2,
			60.0, 3.3, 40.0, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO equipment_records")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1).AddRow(2))
	mock.ExpectCommit()

	result, err := repo.Ingest(context.Background(), testOwner, nd)
	require.NoError(t, err)
	assert.Equal(t, 123456000, result.Dataset.CreatedAt.Nanosecond())

	ingested := []string{result.Dataset.Records[0].EquipmentName, result.Dataset.Records[1].EquipmentName}
	assert.Equal(t, []string{"Valve-2", "pump-1"}, ingested)

	// byte order in the database too, whatever its default collation
	mock.ExpectQuery(regexp.QuoteMeta("FROM equipment_datasets")).
		WillReturnRows(sqlmock.NewRows(datasetColumnNames).
			AddRow("d1", string(testOwner), "plant.csv", result.Dataset.CreatedAt, 2, 60.0, 3.3, 40.0, []byte(`{"Pump":1,"Valve":1}`)))
	mock.ExpectQuery(regexp.QuoteMeta(`ORDER BY equipment_name COLLATE "C" ASC, id ASC`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "dataset_id", "equipment_name", "equipment_type", "flowrate", "pressure", "temperature"}).
			AddRow(1, "d1", "Valve-2", "Valve", 0.0, 2.1, 0.0).
			AddRow(2, "d1", "pump-1", "Pump", 120.0, 4.5, 80.0))

	ds, err := repo.Get(context.Background(), testOwner, "d1")
	require.NoError(t, err)
	assert.Equal(t, ingested, []string{ds.Records[0].EquipmentName, ds.Records[1].EquipmentName})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDatasetRepositoryGetNotFound(t *testing.T) {
	repo, mock := newMockRepository(t, 5)

	mock.ExpectQuery(regexp.QuoteMeta("FROM equipment_datasets")).
		WithArgs("missing", string(testOwner)).
		WillReturnRows(sqlmock.NewRows(datasetColumnNames))

	_, err := repo.Get(context.Background(), testOwner, "missing")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.GetCode(err))
	assert.Equal(t, "Dataset not found.", err.Error())

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDatasetRepositoryDelete(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		code     string
	}{
		{"deleted", 1, ""},
		{"not found", 0, apperrors.CodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newMockRepository(t, 5)
			mock.ExpectExec(regexp.QuoteMeta("DELETE FROM equipment_datasets WHERE id = $1 AND user_id = $2")).
				WithArgs("d1", string(testOwner)).
				WillReturnResult(sqlmock.NewResult(0, tt.affected))

			err := repo.Delete(context.Background(), testOwner, "d1")
			if tt.code == "" {
				require.NoError(t, err)
			} else {
				assert.Equal(t, tt.code, apperrors.GetCode(err))
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
