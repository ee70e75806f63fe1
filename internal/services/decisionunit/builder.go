package decisionunit

import (
	"context"

	"github.com/wasmColonies/core/internal/services/shard/protocol"
)

// Builder keeps one mine under construction at all times.
type Builder struct{}

// Decide starts a mine when nothing is being built and passes otherwise.
func (Builder) Decide(_ context.Context, req protocol.PlayerTickRequest) ([]protocol.ColonyCommand, error) {
	if req.GameState.UnderConstruction() {
		return []protocol.ColonyCommand{protocol.Pass(req.Tick)}, nil
	}
	return []protocol.ColonyCommand{protocol.ConstructUnit(req.Tick, protocol.UnitMine)}, nil
}
