// Package orchestrator drives the shard's tick: poll every active player's
// decision unit concurrently, then feed their commands to the engine.
package orchestrator

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	apperrors "github.com/wasmColonies/core/internal/platform/errors"
	"github.com/wasmColonies/core/internal/platform/otel"
	"github.com/wasmColonies/core/internal/services/shard/domain/engine"
	"github.com/wasmColonies/core/internal/services/shard/domain/event"
	"github.com/wasmColonies/core/internal/services/shard/protocol"
	"github.com/wasmColonies/core/internal/services/shard/roster"
)

// DefaultBatchSize caps concurrent invocations per tick.
const DefaultBatchSize = 10

// DefaultInterval is the tick cadence.
const DefaultInterval = time.Second

// Invoker fetches one player's commands for a tick.
type Invoker interface {
	FetchCommands(ctx context.Context, target protocol.PlayerTarget, tick uint64, view *protocol.ColonyView) ([]protocol.ColonyCommand, error)
}

// Engine applies commands and advances construction.
type Engine interface {
	Execute(ctx context.Context, playerID string, cmd protocol.ColonyCommand) (engine.Result, error)
	FinishTick(ctx context.Context, tick uint64) ([]event.Record, error)
	View(playerID string, tick uint64) *protocol.ColonyView
}

// Config tunes the loop.
type Config struct {
	BatchSize int
	Interval  time.Duration
	// FirstTick is the number of the first tick Run executes.
	FirstTick uint64
	// Logf receives diagnostics. Defaults to log.Printf.
	Logf func(string, ...any)
	// Tracer defaults to the global "shard.orchestrator" tracer.
	Tracer trace.Tracer
}

// Loop runs ticks one at a time.
type Loop struct {
	roster    roster.Source
	invoker   Invoker
	engine    Engine
	batchSize int
	interval  time.Duration
	next      uint64
	logf      func(string, ...any)
	tracer    trace.Tracer
}

// New wires a loop from its collaborators.
func New(source roster.Source, invoker Invoker, eng Engine, cfg Config) (*Loop, error) {
	if source == nil {
		return nil, errors.New("roster is required")
	}
	if invoker == nil {
		return nil, errors.New("invoker is required")
	}
	if eng == nil {
		return nil, errors.New("engine is required")
	}
	l := &Loop{
		roster:    source,
		invoker:   invoker,
		engine:    eng,
		batchSize: cfg.BatchSize,
		interval:  cfg.Interval,
		next:      cfg.FirstTick,
		logf:      cfg.Logf,
		tracer:    cfg.Tracer,
	}
	if l.batchSize <= 0 {
		l.batchSize = DefaultBatchSize
	}
	if l.interval <= 0 {
		l.interval = DefaultInterval
	}
	if l.logf == nil {
		l.logf = log.Printf
	}
	if l.tracer == nil {
		l.tracer = otel.Tracer("shard.orchestrator")
	}
	return l, nil
}

// Submission is one command attributed to the player who proposed it.
type Submission struct {
	PlayerID string
	Command  protocol.ColonyCommand
}

// Batch is the result of polling every player for one tick.
type Batch struct {
	Tick        uint64
	Players     int
	Submissions []Submission
	// Fallbacks counts players whose invocation failed and who were given Pass.
	Fallbacks int
	// Dropped counts commands discarded for naming a different tick.
	Dropped int
}

// TickReport summarizes one executed tick.
type TickReport struct {
	Tick       uint64
	Players    int
	Commands   int
	Fallbacks  int
	Dropped    int
	Rejections int
	Errors     []error
	Duration   time.Duration
}

type playerResult struct {
	commands []protocol.ColonyCommand
	fallback bool
	dropped  int
}

// Collect polls every active player for tick with at most BatchSize
// invocations in flight and returns their commands grouped in roster order.
// A failed invocation contributes exactly Pass(tick) for that player.
func (l *Loop) Collect(ctx context.Context, tick uint64) (Batch, error) {
	listed, err := l.roster.ListActive(ctx)
	if err != nil {
		return Batch{Tick: tick}, err
	}
	players := make([]protocol.PlayerTarget, 0, len(listed))
	for _, player := range listed {
		player.PlayerID = strings.TrimSpace(player.PlayerID)
		if player.PlayerID == "" {
			l.logf("warn: tick %d: skipping roster entry with empty player id (actor %s)", tick, player.ActorKey)
			continue
		}
		players = append(players, player)
	}

	results := make([]playerResult, len(players))
	var g errgroup.Group
	g.SetLimit(l.batchSize)
	for i, player := range players {
		g.Go(func() error {
			results[i] = l.fetch(ctx, tick, player)
			return nil
		})
	}
	_ = g.Wait()

	batch := Batch{Tick: tick, Players: len(players)}
	for i, result := range results {
		if result.fallback {
			batch.Fallbacks++
		}
		batch.Dropped += result.dropped
		for _, cmd := range result.commands {
			batch.Submissions = append(batch.Submissions, Submission{PlayerID: players[i].PlayerID, Command: cmd})
		}
	}
	return batch, nil
}

func (l *Loop) fetch(ctx context.Context, tick uint64, player protocol.PlayerTarget) playerResult {
	ctx, span := l.tracer.Start(ctx, "shard.player_tick", trace.WithAttributes(
		attribute.Int64("tick", int64(tick)),
		attribute.String("player_id", player.PlayerID),
	))
	defer span.End()

	commands, err := l.invoker.FetchCommands(ctx, player, tick, l.engine.View(player.PlayerID, tick))
	if err != nil {
		kind := failureKind(err)
		l.logf("warn: player %s tick %d %s: %v", player.PlayerID, tick, kind, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, kind)
		span.SetAttributes(attribute.String("failure", kind))
		return playerResult{commands: []protocol.ColonyCommand{protocol.Pass(tick)}, fallback: true}
	}

	result := playerResult{commands: make([]protocol.ColonyCommand, 0, len(commands))}
	for _, cmd := range commands {
		if cmd.Kind != protocol.CommandUnknown && cmd.Tick != tick {
			l.logf("player %s tick %d: dropping %s for another tick", player.PlayerID, tick, cmd)
			result.dropped++
			continue
		}
		result.commands = append(result.commands, cmd)
	}
	span.SetAttributes(attribute.Int("commands", len(result.commands)))
	return result
}

func failureKind(err error) string {
	switch apperrors.CodeOf(err) {
	case apperrors.CodeInvokeUnreachable:
		return "unreachable"
	case apperrors.CodeInvokeRemote:
		return "remote"
	case apperrors.CodeInvokeProtocol:
		return "protocol"
	default:
		return "error"
	}
}

// Apply feeds batch to the engine in order, then finishes the tick. Apply
// errors are collected in the report; they never stop the remaining
// submissions.
func (l *Loop) Apply(ctx context.Context, batch Batch) TickReport {
	report := TickReport{
		Tick:      batch.Tick,
		Players:   batch.Players,
		Commands:  len(batch.Submissions),
		Fallbacks: batch.Fallbacks,
		Dropped:   batch.Dropped,
	}
	for _, sub := range batch.Submissions {
		result, err := l.engine.Execute(ctx, sub.PlayerID, sub.Command)
		if err != nil {
			l.logf("error: player %s tick %d apply %s: %v", sub.PlayerID, batch.Tick, sub.Command, err)
			report.Errors = append(report.Errors, err)
			continue
		}
		for _, rejection := range result.Decision.Rejections {
			l.logf("player %s tick %d: %s rejected: %s", sub.PlayerID, batch.Tick, sub.Command, rejection)
			report.Rejections++
		}
	}
	if _, err := l.engine.FinishTick(ctx, batch.Tick); err != nil {
		l.logf("error: finish tick %d: %v", batch.Tick, err)
		report.Errors = append(report.Errors, err)
	}
	return report
}

// RunTick collects and applies one tick.
func (l *Loop) RunTick(ctx context.Context, tick uint64) (TickReport, error) {
	started := time.Now()
	ctx, span := l.tracer.Start(ctx, "shard.tick", trace.WithAttributes(attribute.Int64("tick", int64(tick))))
	defer span.End()

	batch, err := l.Collect(ctx, tick)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "collect players")
		return TickReport{Tick: tick, Duration: time.Since(started)}, err
	}
	if err := ctx.Err(); err != nil {
		// Shutdown during collection: every player would be a fallback Pass.
		span.SetStatus(codes.Error, "cancelled")
		return TickReport{Tick: tick, Players: batch.Players, Duration: time.Since(started)}, err
	}
	report := l.Apply(ctx, batch)
	report.Duration = time.Since(started)
	span.SetAttributes(
		attribute.Int("players", report.Players),
		attribute.Int("commands", report.Commands),
		attribute.Int("fallbacks", report.Fallbacks),
		attribute.Int("rejections", report.Rejections),
	)
	if len(report.Errors) > 0 {
		span.SetStatus(codes.Error, "apply errors")
	}
	return report, nil
}

// Run executes a tick every interval until ctx is cancelled. A tick that
// overruns the interval delays the next one; ticks never overlap.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		tick := l.next
		l.next++
		report, err := l.RunTick(ctx, tick)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			l.logf("error: tick %d: %v", tick, err)
			continue
		}
		l.logf("tick %d: players=%d commands=%d fallbacks=%d dropped=%d rejections=%d errors=%d in %s",
			report.Tick, report.Players, report.Commands, report.Fallbacks, report.Dropped,
			report.Rejections, len(report.Errors), report.Duration.Round(time.Millisecond))
	}
}

// NextTick returns the number Run will use for its next tick.
func (l *Loop) NextTick() uint64 {
	return l.next
}
