package protocol

// OpPlayerTick is the operation name decision units answer each tick.
const OpPlayerTick = "PlayerTick"

// PlayerTarget binds a player to the actor key of their decision unit.
type PlayerTarget struct {
	PlayerID string `msgpack:"player_id"`
	ActorKey string `msgpack:"actor_key"`
}

// SiteView is the read model of one construction site.
type SiteView struct {
	ID         string   `msgpack:"id"`
	Began      uint64   `msgpack:"began"`
	Remaining  uint64   `msgpack:"remaining"`
	Yields     UnitType `msgpack:"yields"`
	Generation uint64   `msgpack:"generation"`
}

// ColonyView is the game-state snapshot a player sees at the start of a tick.
type ColonyView struct {
	Tick     uint64     `msgpack:"tick"`
	PlayerID string     `msgpack:"player_id"`
	Sites    []SiteView `msgpack:"sites"`
}

// UnderConstruction reports whether any site still has ticks remaining.
func (v *ColonyView) UnderConstruction() bool {
	if v == nil {
		return false
	}
	for _, site := range v.Sites {
		if site.Remaining > 0 {
			return true
		}
	}
	return false
}

// PlayerTickRequest asks a decision unit for its commands for Tick. The
// shard fills GameState; decision units never set it.
type PlayerTickRequest struct {
	Tick      uint64      `msgpack:"tick"`
	PlayerID  string      `msgpack:"player_id"`
	GameState *ColonyView `msgpack:"game_state"`
}

// PlayerTickResponse carries the commands a decision unit proposes.
type PlayerTickResponse struct {
	Commands []ColonyCommand `msgpack:"commands"`
}
