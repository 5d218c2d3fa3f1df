// Package bzapi describes the surface of the game server that plugins talk to.
// The server owns players, shots and events; plugins only see these interfaces.
package bzapi

import "errors"

// ServerPlayerID is the synthetic player that owns server-spawned shots.
const ServerPlayerID = 253

var (
	// ErrFlagExists is returned when a custom flag tag is already registered.
	ErrFlagExists = errors.New("flag already registered")

	// ErrVarExists is returned when a custom server variable is already registered.
	ErrVarExists = errors.New("server variable already registered")
)

// Plugin is implemented by every extension loaded into the server.
type Plugin interface {
	Name() string
	Init(config string) error
	Event(e Event)
	Cleanup()
}

// EventRegistry manages plugin subscriptions.
type EventRegistry interface {
	RegisterEvent(t EventType, p Plugin)
	RemoveEvent(t EventType, p Plugin)
	FlushEvents(p Plugin)
}

// FlagRegistry manages custom flag types.
type FlagRegistry interface {
	RegisterCustomFlag(spec FlagSpec) error
	RemoveCustomFlag(tag string)
}

// VarRegistry manages server variables (BZDB).
type VarRegistry interface {
	RegisterCustomDouble(name string, def float64) error
	RemoveCustomVar(name string)
	Double(name string) float64
}

// PlayerSource resolves players. Records returned by PlayerByIndex must be
// handed back through FreePlayerRecord; passing nil is allowed.
type PlayerSource interface {
	PlayerByIndex(id int) *PlayerRecord
	FreePlayerRecord(r *PlayerRecord)
	// PlayerTeam returns NoTeam for players that are not connected.
	PlayerTeam(id int) Team
	// PlayerFlag returns the tag of the held flag, or "" if none.
	PlayerFlag(id int) string
}

// ShotSpawner creates server-owned shots and resolves shot GUIDs.
type ShotSpawner interface {
	FireServerShot(tag string, pos, vel Vec3, team Team) uint32
	// ShotGUID returns 0 when (playerID, shotID) names no live shot.
	ShotGUID(playerID, shotID int) uint32
}

// ShotMetadata is the key-value sidecar attached to live shots.
type ShotMetadata interface {
	SetShotMetaDataS(guid uint32, key, value string)
	SetShotMetaDataI(guid uint32, key string, value int)
	ShotMetaDataS(guid uint32, key string) string
	ShotMetaDataI(guid uint32, key string) int
	ShotHasMetaData(guid uint32, key string) bool
}

// Host is the full server surface handed to a plugin.
type Host interface {
	EventRegistry
	FlagRegistry
	VarRegistry
	PlayerSource
	ShotSpawner
	ShotMetadata
}
