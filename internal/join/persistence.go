package join

import (
	"encoding/json"
	"fmt"
	"time"
)

// Snapshot is a point-in-time, JSON-serializable capture of a
// JoinDefinition's bag contents, for crash-diagnostic dumps and test
// fixtures. Keyed by species name to pending values, since a join bag
// has no per-instance payload worth persisting beyond the value itself
// — the reply channel of a sync pending instance cannot be serialized
// and is never included.
type Snapshot struct {
	TakenAt   time.Time        `json:"taken_at"`
	Molecules map[string][]any `json:"molecules"`
}

// TakeSnapshot captures the current bag contents of jd.
func TakeSnapshot(jd *JoinDefinition) Snapshot {
	jd.mu.Lock()
	mols := jd.bag.snapshot()
	jd.mu.Unlock()
	return Snapshot{TakenAt: time.Now(), Molecules: mols}
}

// EncodeSnapshotJSON encodes a snapshot to JSON.
func EncodeSnapshotJSON(s Snapshot) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

// DecodeSnapshotJSON decodes a snapshot from JSON.
func DecodeSnapshotJSON(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return s, nil
}
