package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrChainIntegrity is returned by Append after a verification failure has
// halted the ledger, and by Verify when a stored hash does not match its
// recomputation.
var ErrChainIntegrity = errors.New("audit chain integrity violation")

// ChainError pinpoints the first corrupt record found by Verify.
type ChainError struct {
	// Seq is the sequence number of the first record whose stored hash does
	// not equal hash(payload || prev_hash).
	Seq int64
}

func (e *ChainError) Error() string {
	return fmt.Sprintf("audit chain integrity violation at seq %d", e.Seq)
}

// Is makes ChainError match ErrChainIntegrity.
func (e *ChainError) Is(target error) bool { return target == ErrChainIntegrity }

// Storage persists ledger records. Implementations must reject duplicate
// sequence numbers but need not synchronize appends; the Ledger serializes
// them.
type Storage interface {
	// Append persists a record.
	Append(ctx context.Context, rec *Record) error

	// Last returns the record with the highest sequence number, or nil when
	// the ledger is empty.
	Last(ctx context.Context) (*Record, error)

	// Walk streams records in sequence order, calling fn for each. A non-nil
	// error from fn stops the walk and is returned.
	Walk(ctx context.Context, fn func(*Record) error) error

	// Close releases backend resources.
	Close() error
}

// Ledger is the append-only, hash-chained audit ledger.
type Ledger struct {
	storage Storage
	logger  *slog.Logger
	now     func() time.Time

	// mu serializes read-previous-hash + append. Without it two concurrent
	// appends could chain onto the same predecessor and fork the chain.
	mu       sync.Mutex
	lastSeq  int64
	lastHash string
	loaded   bool
	halted   bool
}

// New creates a ledger over the given storage backend.
func New(storage Storage, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{
		storage: storage,
		logger:  logger.With("component", "ledger"),
		now:     time.Now,
	}
}

// Append appends one record for an evaluation and returns it. Appends are
// refused with ErrChainIntegrity once a verification failure has halted the
// ledger.
func (l *Ledger) Append(ctx context.Context, p Payload) (*Record, error) {
	payload, err := p.canonical()
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.halted {
		return nil, fmt.Errorf("ledger halted: %w", ErrChainIntegrity)
	}

	if !l.loaded {
		last, err := l.storage.Last(ctx)
		if err != nil {
			return nil, fmt.Errorf("reading ledger head: %w", err)
		}
		if last != nil {
			l.lastSeq, l.lastHash = last.Seq, last.Hash
		}
		l.loaded = true
	}

	rec := &Record{
		Seq:        l.lastSeq + 1,
		ID:         uuid.NewString(),
		Payload:    payload,
		PrevHash:   l.lastHash,
		Hash:       ChainHash(payload, l.lastHash),
		RecordedAt: l.now().UTC(),
	}

	if err := l.storage.Append(ctx, rec); err != nil {
		return nil, fmt.Errorf("appending audit record: %w", err)
	}

	l.lastSeq, l.lastHash = rec.Seq, rec.Hash

	l.logger.DebugContext(ctx, "audit record appended",
		"seq", rec.Seq, "scenario_id", p.ScenarioID, "tenant_id", p.TenantID)
	return rec, nil
}

// Verify walks the whole chain recomputing every hash. On the first mismatch
// it halts further appends and returns a ChainError naming the corrupt
// sequence number. A nil return means 100% of records verified.
func (l *Ledger) Verify(ctx context.Context) error {
	prevHash := ""
	var prevSeq int64

	err := l.storage.Walk(ctx, func(rec *Record) error {
		if rec.Seq != prevSeq+1 {
			return &ChainError{Seq: rec.Seq}
		}
		if rec.PrevHash != prevHash || rec.Hash != ChainHash(rec.Payload, prevHash) {
			return &ChainError{Seq: rec.Seq}
		}
		prevHash = rec.Hash
		prevSeq = rec.Seq
		return nil
	})

	if err != nil {
		var chainErr *ChainError
		if errors.As(err, &chainErr) {
			l.mu.Lock()
			l.halted = true
			l.mu.Unlock()
			l.logger.Error("audit chain corrupt, halting appends", "seq", chainErr.Seq)
		}
		return err
	}
	return nil
}

// Close closes the underlying storage.
func (l *Ledger) Close() error { return l.storage.Close() }
