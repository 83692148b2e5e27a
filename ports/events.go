package ports

import "chemviz/domain/equipment"

// DatasetEventPublisher fans dataset changes out to interested listeners.
// Publish must not block the caller.
type DatasetEventPublisher interface {
	Publish(event equipment.Event)
}
