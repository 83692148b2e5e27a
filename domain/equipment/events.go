package equipment

import (
	"time"

	"chemviz/domain/core"
)

// EventType names a change to an owner's retained datasets
type EventType string

const (
	EventDatasetCreated EventType = "dataset.created"
	EventDatasetEvicted EventType = "dataset.evicted"
	EventDatasetDeleted EventType = "dataset.deleted"
)

// Event reports a dataset change to the owner's live listeners
type Event struct {
	Type      EventType      `json:"type"`
	OwnerID   core.UserID    `json:"-"`
	DatasetID core.DatasetID `json:"dataset_id"`
	Name      string         `json:"name,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}
