// Package invoker asks player decision units for their commands over the bus.
package invoker

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/wasmColonies/core/internal/platform/errors"
	"github.com/wasmColonies/core/internal/platform/timeouts"
	"github.com/wasmColonies/core/internal/services/shard/bus"
	"github.com/wasmColonies/core/internal/services/shard/lattice"
	"github.com/wasmColonies/core/internal/services/shard/protocol"
)

// Config controls request routing and the per-call wait.
type Config struct {
	Namespace string
	Prefix    string
	// Timeout bounds each request. Zero means timeouts.RPCRequest.
	Timeout time.Duration
}

// Invoker sends signed PlayerTick invocations and decodes the replies.
// It holds no mutable state and is safe for concurrent use.
type Invoker struct {
	requester bus.Requester
	key       *lattice.HostKey
	origin    lattice.Entity
	namespace string
	prefix    string
	timeout   time.Duration
}

// New builds an invoker that signs with key and sends through requester.
func New(requester bus.Requester, key *lattice.HostKey, cfg Config) (*Invoker, error) {
	if requester == nil {
		return nil, errors.New("bus requester is required")
	}
	if key == nil {
		return nil, errors.New("host key is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = timeouts.RPCRequest
	}
	return &Invoker{
		requester: requester,
		key:       key,
		origin:    lattice.Actor(lattice.SystemActor),
		namespace: cfg.Namespace,
		prefix:    cfg.Prefix,
		timeout:   timeout,
	}, nil
}

// Timeout returns the per-call wait.
func (i *Invoker) Timeout() time.Duration {
	return i.timeout
}

// FetchCommands asks target's decision unit for its commands for tick.
//
// Errors carry one of three codes: CodeInvokeUnreachable for bus failures and
// timeouts, CodeInvokeRemote when the unit replied with an error, and
// CodeInvokeProtocol when a message could not be encoded or decoded.
func (i *Invoker) FetchCommands(ctx context.Context, target protocol.PlayerTarget, tick uint64, view *protocol.ColonyView) ([]protocol.ColonyCommand, error) {
	meta := map[string]string{"player_id": target.PlayerID, "actor_key": target.ActorKey}

	request, err := protocol.Encode(protocol.PlayerTickRequest{Tick: tick, PlayerID: target.PlayerID, GameState: view})
	if err != nil {
		return nil, apperrors.WrapWithMetadata(apperrors.CodeInvokeProtocol, "encode player tick", meta, err)
	}
	inv, err := lattice.NewInvocation(i.key, i.origin, lattice.Actor(target.ActorKey), protocol.OpPlayerTick, request)
	if err != nil {
		return nil, apperrors.WrapWithMetadata(apperrors.CodeInvokeProtocol, "build invocation", meta, err)
	}
	envelope, err := protocol.Encode(inv)
	if err != nil {
		return nil, apperrors.WrapWithMetadata(apperrors.CodeInvokeProtocol, "encode invocation", meta, err)
	}

	callCtx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()
	subject := lattice.RPCSubject(i.namespace, i.prefix, target.ActorKey)
	reply, err := i.requester.Request(callCtx, subject, envelope)
	if err != nil {
		return nil, apperrors.WrapWithMetadata(apperrors.CodeInvokeUnreachable, fmt.Sprintf("request %s", subject), meta, err)
	}

	var response lattice.InvocationResponse
	if err := protocol.Decode(reply, &response); err != nil {
		return nil, apperrors.WrapWithMetadata(apperrors.CodeInvokeProtocol, "decode invocation response", meta, err)
	}
	if response.InvocationID != inv.ID {
		return nil, apperrors.WithMetadata(apperrors.CodeInvokeProtocol,
			fmt.Sprintf("response for invocation %q, want %q", response.InvocationID, inv.ID), meta)
	}
	if response.Error != nil {
		return nil, apperrors.WithMetadata(apperrors.CodeInvokeRemote, "decision unit error: "+*response.Error, meta)
	}
	var tickResponse protocol.PlayerTickResponse
	if err := protocol.Decode(response.Msg, &tickResponse); err != nil {
		return nil, apperrors.WrapWithMetadata(apperrors.CodeInvokeProtocol, "decode player tick response", meta, err)
	}
	return tickResponse.Commands, nil
}
