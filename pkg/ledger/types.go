package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// Payload is the content of one audit record: the full evaluation input and
// output. Field order is fixed by the struct, so the canonical bytes of a
// payload are stable.
type Payload struct {
	// ScenarioID, TenantID, and Options reproduce the request.
	ScenarioID string          `json:"scenario_id"`
	TenantID   string          `json:"tenant_id"`
	Options    json.RawMessage `json:"options"`

	// Result is the full ranked result set returned to the caller.
	Result json.RawMessage `json:"result"`

	// CatalogVersion pins the catalog snapshot the evaluation ran against.
	CatalogVersion string `json:"catalog_version"`
}

// canonical returns the stable byte encoding hashed into the chain.
func (p Payload) canonical() ([]byte, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encoding audit payload: %w", err)
	}
	return data, nil
}

// Record is one appended ledger entry.
type Record struct {
	// Seq is the 1-based chain position assigned at append time.
	Seq int64 `json:"seq"`

	// ID is the record UUID.
	ID string `json:"id"`

	// Payload is the canonical payload bytes.
	Payload []byte `json:"payload"`

	// PrevHash is the hash of the immediately preceding record; the genesis
	// record uses the empty string.
	PrevHash string `json:"prev_hash"`

	// Hash is hex(sha256(payload || prev_hash)).
	Hash string `json:"hash"`

	// RecordedAt is when the record was appended.
	RecordedAt time.Time `json:"recorded_at"`
}

// ChainHash computes the chained hash for payload bytes on top of the
// previous record's hash.
func ChainHash(payload []byte, prevHash string) string {
	h := sha256.New()
	h.Write(payload)
	h.Write([]byte(prevHash))
	return hex.EncodeToString(h.Sum(nil))
}
