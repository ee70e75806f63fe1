// Package decisionunit serves PlayerTick invocations for one player. It is
// the reference counterpart of the shard's invoker.
package decisionunit

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/wasmColonies/core/internal/services/shard/lattice"
	"github.com/wasmColonies/core/internal/services/shard/protocol"
)

// Strategy chooses a player's commands for one tick.
type Strategy interface {
	Decide(ctx context.Context, req protocol.PlayerTickRequest) ([]protocol.ColonyCommand, error)
}

// StrategyFunc adapts a function to Strategy.
type StrategyFunc func(ctx context.Context, req protocol.PlayerTickRequest) ([]protocol.ColonyCommand, error)

// Decide calls f.
func (f StrategyFunc) Decide(ctx context.Context, req protocol.PlayerTickRequest) ([]protocol.ColonyCommand, error) {
	return f(ctx, req)
}

// Options tunes a Handler.
type Options struct {
	// Verify checks the invocation's signed claims before deciding.
	Verify bool
	Logf   func(string, ...any)
}

// Handler answers invocations addressed to a decision unit.
type Handler struct {
	strategy Strategy
	verify   bool
	logf     func(string, ...any)
}

// NewHandler creates a handler backed by strategy.
func NewHandler(strategy Strategy, opts Options) (*Handler, error) {
	if strategy == nil {
		return nil, errors.New("strategy is required")
	}
	logf := opts.Logf
	if logf == nil {
		logf = log.Printf
	}
	return &Handler{strategy: strategy, verify: opts.Verify, logf: logf}, nil
}

// Handle decodes one invocation envelope and returns the encoded response.
// Failures after the envelope is decoded are reported inside the response so
// the caller can correlate them; an undecodable envelope returns an error and
// no reply.
func (h *Handler) Handle(ctx context.Context, data []byte) ([]byte, error) {
	var inv lattice.Invocation
	if err := protocol.Decode(data, &inv); err != nil {
		return nil, fmt.Errorf("decode invocation: %w", err)
	}
	return protocol.Encode(h.respond(ctx, inv))
}

func (h *Handler) respond(ctx context.Context, inv lattice.Invocation) lattice.InvocationResponse {
	if h.verify {
		if _, err := lattice.Verify(inv); err != nil {
			h.logf("reject invocation %s: %v", inv.ID, err)
			return lattice.RespondError(inv, "invalid invocation: "+err.Error())
		}
	}
	if inv.Operation != protocol.OpPlayerTick {
		return lattice.RespondError(inv, fmt.Sprintf("unsupported operation %q", inv.Operation))
	}
	var req protocol.PlayerTickRequest
	if err := protocol.Decode(inv.Msg, &req); err != nil {
		return lattice.RespondError(inv, "decode player tick: "+err.Error())
	}
	commands, err := h.strategy.Decide(ctx, req)
	if err != nil {
		h.logf("player %s tick %d: decide: %v", req.PlayerID, req.Tick, err)
		return lattice.RespondError(inv, err.Error())
	}
	if commands == nil {
		commands = []protocol.ColonyCommand{}
	}
	msg, err := protocol.Encode(protocol.PlayerTickResponse{Commands: commands})
	if err != nil {
		return lattice.RespondError(inv, "encode player tick response: "+err.Error())
	}
	return lattice.Respond(inv, msg)
}
