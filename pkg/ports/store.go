package ports

import (
	"context"

	"github.com/jPabloBC/ingenit-flows/pkg/domain"
)

// FlowStore defines the interface for persisting flow documents.
type FlowStore interface {
	// Save persists the flow under flow.ID, replacing any previous version.
	Save(ctx context.Context, flow *domain.Flow) error

	// Load retrieves the flow with the given id.
	// Returns domain.ErrFlowNotFound if the flow does not exist.
	Load(ctx context.Context, id string) (*domain.Flow, error)

	// Delete removes the flow. Deleting a missing flow is not an error.
	Delete(ctx context.Context, id string) error

	// List returns the ids of all stored flows in ascending order.
	List(ctx context.Context) ([]string, error)
}

// SaveHandler adapts a store to the save callback of an editor.
func SaveHandler(store FlowStore) func(context.Context, *domain.Flow) error {
	return func(ctx context.Context, flow *domain.Flow) error {
		return store.Save(ctx, flow)
	}
}
