package legacy

import (
	"encoding/json"
	"fmt"

	"github.com/codr1/nailbook/internal/slots"
)

// Encode writes the canonical shape of each collection. The output is
// deterministic, so normalising it again reproduces the same bytes.
func Encode(store *slots.Store) (Documents, error) {
	snap := store.Snapshot()

	open := make(map[string][]slots.Entry, len(snap.Open))
	for d, bucket := range snap.Open {
		open[d.String()] = bucket
	}
	slotsDoc, err := json.Marshal(open)
	if err != nil {
		return Documents{}, fmt.Errorf("encode slots: %w", err)
	}

	doneDoc, err := json.Marshal(snap.Done)
	if err != nil {
		return Documents{}, fmt.Errorf("encode done: %w", err)
	}

	marked := make([]string, 0, len(snap.Marked))
	for _, d := range snap.Marked {
		marked = append(marked, d.String())
	}
	markedDoc, err := json.Marshal(marked)
	if err != nil {
		return Documents{}, fmt.Errorf("encode marked days: %w", err)
	}

	return Documents{Slots: slotsDoc, Done: doneDoc, Marked: markedDoc}, nil
}
