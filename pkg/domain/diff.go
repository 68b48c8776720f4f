package domain

import (
	"encoding/json"
	"reflect"
	"sort"
)

// FlowDiff lists the node and connection ids that differ between two documents.
// It is designed to be printed by tools that rewrite stored flows.
type FlowDiff struct {
	NodesAdded   []string `json:"nodes_added,omitempty"`
	NodesRemoved []string `json:"nodes_removed,omitempty"`
	NodesChanged []string `json:"nodes_changed,omitempty"`
	EdgesAdded   []string `json:"edges_added,omitempty"`
	EdgesRemoved []string `json:"edges_removed,omitempty"`
	EdgesChanged []string `json:"edges_changed,omitempty"`

	// MetadataChanged is set when name, description, status or unknown top-level keys differ.
	MetadataChanged bool `json:"metadata_changed,omitempty"`
}

// Diff compares oldFlow with newFlow. A nil oldFlow yields a diff where
// everything in newFlow is added. Timestamps are ignored.
func Diff(oldFlow, newFlow *Flow) *FlowDiff {
	if newFlow == nil {
		return nil
	}
	if oldFlow == nil {
		oldFlow = &Flow{}
	}

	diff := &FlowDiff{}
	diff.NodesAdded, diff.NodesRemoved, diff.NodesChanged = diffKeyed(nodeIndex(oldFlow), nodeIndex(newFlow))
	diff.EdgesAdded, diff.EdgesRemoved, diff.EdgesChanged = diffKeyed(edgeIndex(oldFlow), edgeIndex(newFlow))
	diff.MetadataChanged = oldFlow.Name != newFlow.Name ||
		oldFlow.Description != newFlow.Description ||
		oldFlow.ValidationStatus != newFlow.ValidationStatus ||
		!reflect.DeepEqual(normalizeExtra(oldFlow.Extra), normalizeExtra(newFlow.Extra))
	return diff
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *FlowDiff) IsEmpty() bool {
	return len(d.NodesAdded) == 0 &&
		len(d.NodesRemoved) == 0 &&
		len(d.NodesChanged) == 0 &&
		len(d.EdgesAdded) == 0 &&
		len(d.EdgesRemoved) == 0 &&
		len(d.EdgesChanged) == 0 &&
		!d.MetadataChanged
}

func nodeIndex(f *Flow) map[string][]byte {
	idx := make(map[string][]byte)
	put := func(kind NodeKind, id string, v any) {
		data, _ := json.Marshal(v)
		idx[id] = append([]byte(kind+":"), data...)
	}
	if f.StartNode != nil {
		put(KindStart, f.StartNode.ID, f.StartNode)
	}
	for _, d := range f.Menus {
		put(KindMenu, d.ID, d)
	}
	for _, d := range f.SystemMessages {
		put(KindSystemMessage, d.ID, d)
	}
	for _, d := range f.ClientMessages {
		put(KindClientMessage, d.ID, d)
	}
	for _, d := range f.Decisions {
		put(KindDecision, d.ID, d)
	}
	for _, d := range f.Delays {
		put(KindDelay, d.ID, d)
	}
	for _, d := range f.EndNodes {
		put(KindEnd, d.ID, d)
	}
	return idx
}

func edgeIndex(f *Flow) map[string][]byte {
	idx := make(map[string][]byte, len(f.Connections))
	for _, c := range f.Connections {
		data, _ := json.Marshal(c)
		idx[c.ID] = data
	}
	return idx
}

func diffKeyed(old, new map[string][]byte) (added, removed, changed []string) {
	for id, nv := range new {
		ov, ok := old[id]
		switch {
		case !ok:
			added = append(added, id)
		case string(ov) != string(nv):
			changed = append(changed, id)
		}
	}
	for id := range old {
		if _, ok := new[id]; !ok {
			removed = append(removed, id)
		}
	}
	sort.Strings(added)
	sort.Strings(removed)
	sort.Strings(changed)
	return added, removed, changed
}

func normalizeExtra(m map[string]any) map[string]any {
	if len(m) == 0 {
		return nil
	}
	return m
}
