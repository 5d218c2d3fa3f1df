package bzapi

import "time"

// EventType identifies the kind of an Event.
type EventType int

const (
	NullEvent EventType = iota
	ShotFiredEvent
	PlayerDieEvent
	PlayerJoinEvent
	PlayerPartEvent
	TickEvent
)

func (t EventType) String() string {
	switch t {
	case ShotFiredEvent:
		return "shot_fired"
	case PlayerDieEvent:
		return "player_die"
	case PlayerJoinEvent:
		return "player_join"
	case PlayerPartEvent:
		return "player_part"
	case TickEvent:
		return "tick"
	default:
		return "null"
	}
}

// Event is implemented by every payload the server delivers.
type Event interface {
	Type() EventType
}

// ShotFiredEventData is sent when a player fires.
type ShotFiredEventData struct {
	PlayerID int
	ShotID   int
	ShotType string
	Pos      Vec3
	Time     time.Time
}

func (*ShotFiredEventData) Type() EventType { return ShotFiredEvent }

// PlayerDieEventData is sent when a player is killed. Plugins may rewrite
// KillerID and KillerTeam before the server scores the kill.
type PlayerDieEventData struct {
	PlayerID       int
	Team           Team
	KillerID       int
	KillerTeam     Team
	FlagKilledWith string
	ShotID         int
	State          PlayerState
	Time           time.Time
}

func (*PlayerDieEventData) Type() EventType { return PlayerDieEvent }

// PlayerJoinEventData is sent after a player joins.
type PlayerJoinEventData struct {
	PlayerID int
	Team     Team
	Callsign string
	Time     time.Time
}

func (*PlayerJoinEventData) Type() EventType { return PlayerJoinEvent }

// PlayerPartEventData is sent after a player leaves.
type PlayerPartEventData struct {
	PlayerID int
	Reason   string
	Time     time.Time
}

func (*PlayerPartEventData) Type() EventType { return PlayerPartEvent }

// TickEventData is sent once per server tick.
type TickEventData struct {
	Time time.Time
}

func (*TickEventData) Type() EventType { return TickEvent }
