// Package roster lists the players whose decision units the shard polls.
package roster

import (
	"context"
	"fmt"
	"strings"

	"github.com/wasmColonies/core/internal/services/shard/protocol"
)

// Source returns the active players in enrollment order.
type Source interface {
	ListActive(ctx context.Context) ([]protocol.PlayerTarget, error)
}

// Static is a fixed, in-memory roster.
type Static []protocol.PlayerTarget

// ListActive returns a copy of the roster.
func (s Static) ListActive(ctx context.Context) ([]protocol.PlayerTarget, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]protocol.PlayerTarget(nil), s...), nil
}

// ParseSeed reads "player=actorKey" pairs separated by commas. Order is
// preserved and blank entries are skipped.
func ParseSeed(value string) (Static, error) {
	var targets Static
	seen := make(map[string]struct{})
	for _, entry := range strings.Split(value, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		playerID, actorKey, ok := strings.Cut(entry, "=")
		playerID = strings.TrimSpace(playerID)
		actorKey = strings.TrimSpace(actorKey)
		if !ok || playerID == "" || actorKey == "" {
			return nil, fmt.Errorf("roster entry %q: want player=actor_key", entry)
		}
		if _, dup := seen[playerID]; dup {
			return nil, fmt.Errorf("roster entry %q: duplicate player %s", entry, playerID)
		}
		seen[playerID] = struct{}{}
		targets = append(targets, protocol.PlayerTarget{PlayerID: playerID, ActorKey: actorKey})
	}
	return targets, nil
}
