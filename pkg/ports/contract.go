package ports

import (
	"context"
	"testing"
	"time"

	"github.com/jPabloBC/ingenit-flows/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contractFlow(id string) *domain.Flow {
	f := domain.NewFlow(id, "Contract "+id)
	f.Description = "round trip"
	f.StartNode = &domain.MarkerDef{ID: "start", Label: "Inicio"}
	f.Menus = []domain.MenuDef{{
		ID:      "menu-1",
		Title:   "Principal",
		Message: "Elige",
		Options: []domain.Option{{ID: "1", Text: "Fin", Action: domain.ActionEnd, NextNodeID: "end"}},
	}}
	f.EndNodes = []domain.MarkerDef{{ID: "end", Label: "Fin"}}
	f.Connections = []domain.Connection{
		{ID: "e-start-menu-1", Source: "start", Target: "menu-1", ValidationStatus: domain.EdgePass},
		{ID: "e-menu-1-option-1", Source: "menu-1", Target: "end", SourceHandle: "option-1", Label: "Fin", ValidationStatus: domain.EdgePending},
	}
	f.Extra = map[string]any{"botId": "bot-1"}
	f.UpdatedAt = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return f
}

// RunFlowStoreContract runs a suite of tests to verify that a FlowStore implementation
// adheres to the defined interface contract.
func RunFlowStoreContract(t *testing.T, store FlowStore) {
	ctx := context.Background()
	flowID := "contract-test-flow-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		flow := contractFlow(flowID)

		err := store.Save(ctx, flow)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, flowID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, flow.Name, loaded.Name)
		assert.Equal(t, flow.Description, loaded.Description)
		require.Len(t, loaded.Menus, 1)
		assert.Equal(t, flow.Menus[0].Options, loaded.Menus[0].Options)
		assert.Equal(t, flow.Connections, loaded.Connections)
		assert.Equal(t, "bot-1", loaded.Extra["botId"], "unknown keys must survive storage")
		assert.True(t, flow.UpdatedAt.Equal(loaded.UpdatedAt))
	})

	t.Run("Save Overwrites", func(t *testing.T) {
		flow := contractFlow(flowID)
		flow.Name = "renamed"
		require.NoError(t, store.Save(ctx, flow))

		loaded, err := store.Load(ctx, flowID)
		require.NoError(t, err)
		assert.Equal(t, "renamed", loaded.Name)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+flowID)
		assert.ErrorIs(t, err, domain.ErrFlowNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, contractFlow(flowID)))

		err := store.Delete(ctx, flowID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, flowID)
		assert.ErrorIs(t, err, domain.ErrFlowNotFound, "Load after Delete should return ErrFlowNotFound")

		assert.NoError(t, store.Delete(ctx, flowID), "Delete of a missing flow is a no-op")
	})

	t.Run("List", func(t *testing.T) {
		id1 := flowID + "-1"
		id2 := flowID + "-2"
		require.NoError(t, store.Save(ctx, contractFlow(id2)))
		require.NoError(t, store.Save(ctx, contractFlow(id1)))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
		assert.IsIncreasing(t, ids)
	})
}
