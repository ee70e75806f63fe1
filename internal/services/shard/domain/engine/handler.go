// Package engine executes colony commands against construction sites:
// decide, apply with a generation check, then journal.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/wasmColonies/core/internal/services/shard/domain/aggregate"
	"github.com/wasmColonies/core/internal/services/shard/domain/command"
	"github.com/wasmColonies/core/internal/services/shard/domain/construction"
	"github.com/wasmColonies/core/internal/services/shard/domain/event"
	"github.com/wasmColonies/core/internal/services/shard/domain/replay"
	"github.com/wasmColonies/core/internal/services/shard/protocol"
)

var (
	// ErrJournalRequired indicates a missing event journal.
	ErrJournalRequired = errors.New("event journal is required")
	// ErrSitesRequired indicates a missing aggregate store.
	ErrSitesRequired = errors.New("aggregate store is required")
	// ErrDeciderRequired indicates a missing decider.
	ErrDeciderRequired = errors.New("decider is required")
	// ErrAggregateIDRequired indicates a command without a player id.
	ErrAggregateIDRequired = errors.New("aggregate id is required")
)

// EventJournal appends and lists journaled events.
type EventJournal interface {
	Append(ctx context.Context, aggregateID string, evt event.ColonyEvent) (event.Record, error)
	replay.EventStore
}

// ChainVerifier is implemented by journals that can check their hash chain.
type ChainVerifier interface {
	VerifyChain(ctx context.Context, aggregateID string) error
}

// Decider returns a decision for a command.
type Decider interface {
	Decide(state construction.State, cmd protocol.ColonyCommand) command.Decision
}

// Handler executes commands one at a time. Each player owns one construction
// site whose aggregate id is the player id.
type Handler struct {
	journal EventJournal
	sites   *aggregate.Store
	decider Decider

	mu sync.Mutex
}

// NewHandler wires a handler from its collaborators.
func NewHandler(journal EventJournal, sites *aggregate.Store, decider Decider) (*Handler, error) {
	if journal == nil {
		return nil, ErrJournalRequired
	}
	if sites == nil {
		return nil, ErrSitesRequired
	}
	if decider == nil {
		return nil, ErrDeciderRequired
	}
	return &Handler{journal: journal, sites: sites, decider: decider}, nil
}

// Result captures one command's outcome.
type Result struct {
	Decision command.Decision
	Records  []event.Record
	State    construction.State
}

// Execute decides cmd against playerID's site and applies the resulting
// events. The generation read before deciding must still be current when the
// first event applies; otherwise the error matches aggregate.ErrConflict and
// nothing is applied. Rejected commands return a nil error.
func (h *Handler) Execute(ctx context.Context, playerID string, cmd protocol.ColonyCommand) (Result, error) {
	id := strings.TrimSpace(playerID)
	if id == "" {
		return Result{}, ErrAggregateIDRequired
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	state := h.sites.Load(id)
	decision := h.decider.Decide(state, cmd)
	result := Result{Decision: decision, State: state}
	if decision.Rejected() {
		return result, nil
	}
	records, next, err := h.applyLocked(ctx, id, state.Generation, decision.Events)
	result.Records = records
	result.State = next
	return result, err
}

// FinishTick records TickFinished(tick) on every site with history.
func (h *Handler) FinishTick(ctx context.Context, tick uint64) ([]event.Record, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var (
		records []event.Record
		errs    []error
	)
	for _, id := range h.sites.IDs() {
		state := h.sites.Load(id)
		applied, _, err := h.applyLocked(ctx, id, state.Generation, []event.ColonyEvent{event.TickFinished(tick)})
		records = append(records, applied...)
		if err != nil {
			errs = append(errs, fmt.Errorf("finish tick %d for %s: %w", tick, id, err))
		}
	}
	return records, errors.Join(errs...)
}

func (h *Handler) applyLocked(ctx context.Context, id string, generation uint64, events []event.ColonyEvent) ([]event.Record, construction.State, error) {
	state := h.sites.Load(id)
	records := make([]event.Record, 0, len(events))
	for _, evt := range events {
		// A cancelled event must change neither the site nor the journal.
		if err := ctx.Err(); err != nil {
			if len(records) > 0 {
				return records, state, wrapNonRetryable(err)
			}
			return records, state, err
		}
		next, err := h.sites.Apply(id, generation, evt)
		if err != nil {
			if len(records) > 0 {
				return records, state, wrapNonRetryable(err)
			}
			return records, state, err
		}
		state = next
		generation = next.Generation
		// The site already moved; the journal must follow even if ctx ends now.
		record, err := h.journal.Append(context.WithoutCancel(ctx), id, evt)
		if err != nil {
			return records, state, wrapNonRetryable(fmt.Errorf("journal %s after apply: %w", evt, err))
		}
		records = append(records, record)
	}
	return records, state, nil
}

// State returns playerID's current site.
func (h *Handler) State(playerID string) construction.State {
	return h.sites.Load(playerID)
}

// View builds the snapshot playerID receives for tick.
func (h *Handler) View(playerID string, tick uint64) *protocol.ColonyView {
	view := &protocol.ColonyView{Tick: tick, PlayerID: playerID, Sites: []protocol.SiteView{}}
	state := h.sites.Load(playerID)
	if state.Generation > 0 {
		view.Sites = append(view.Sites, state.View())
	}
	return view
}

// Verify replays every journaled stream and compares the result with live
// state, then checks the hash chain when the journal supports it.
func (h *Handler) Verify(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var errs []error
	for _, id := range h.sites.IDs() {
		replayed, err := replay.Replay(ctx, h.journal, id, replay.Options{})
		if err != nil {
			errs = append(errs, fmt.Errorf("replay %s: %w", id, err))
			continue
		}
		if live := h.sites.Load(id); replayed.State != live {
			errs = append(errs, fmt.Errorf("replay %s: got %+v, live %+v", id, replayed.State, live))
		}
		if verifier, ok := h.journal.(ChainVerifier); ok {
			if err := verifier.VerifyChain(ctx, id); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
