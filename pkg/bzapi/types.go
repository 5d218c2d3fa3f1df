package bzapi

import (
	"fmt"
	"strings"
	"unicode"
)

// Vec3 is a position or velocity in world units.
type Vec3 struct {
	X, Y, Z float64
}

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

// Scale returns v * s.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// Team identifies a player's team.
type Team int

// NoTeam is returned for players that cannot be resolved.
const NoTeam Team = -1

const (
	RogueTeam Team = iota
	RedTeam
	GreenTeam
	BlueTeam
	PurpleTeam
	RabbitTeam
	HunterTeam
	ObserverTeam
)

func (t Team) String() string {
	switch t {
	case NoTeam:
		return "none"
	case RogueTeam:
		return "rogue"
	case RedTeam:
		return "red"
	case GreenTeam:
		return "green"
	case BlueTeam:
		return "blue"
	case PurpleTeam:
		return "purple"
	case RabbitTeam:
		return "rabbit"
	case HunterTeam:
		return "hunter"
	case ObserverTeam:
		return "observer"
	default:
		return fmt.Sprintf("team(%d)", int(t))
	}
}

// ParseTeam is the inverse of Team.String.
func ParseTeam(s string) (Team, error) {
	for t := NoTeam; t <= ObserverTeam; t++ {
		if strings.EqualFold(s, t.String()) {
			return t, nil
		}
	}
	return NoTeam, fmt.Errorf("unknown team %q", s)
}

// FlagQuality classifies a flag as helpful or harmful to its holder.
type FlagQuality int

const (
	GoodFlag FlagQuality = iota
	BadFlag
)

// FlagSpec describes a custom flag type.
type FlagSpec struct {
	Tag     string
	Name    string
	Help    string
	Cost    int // 0 means not purchasable
	Quality FlagQuality
}

// DisplayName is the held-flag string the server reports, e.g. "AirshoT (+AT)".
// Letters of Name matching the tag are capitalised, the way the server renders them.
func (f FlagSpec) DisplayName() string {
	name := []rune(f.Name)
	tag := []rune(f.Tag)
	ti := 0
	for i, r := range name {
		if ti >= len(tag) {
			break
		}
		if unicode.ToUpper(r) == unicode.ToUpper(tag[ti]) {
			name[i] = unicode.ToUpper(r)
			ti++
		}
	}
	return fmt.Sprintf("%s (+%s)", string(name), f.Tag)
}

// PlayerState is the kinematic snapshot of a tank.
type PlayerState struct {
	Pos      Vec3
	Rotation float64 // heading in radians
	Velocity Vec3
}

// PlayerRecord is a snapshot of a connected player.
type PlayerRecord struct {
	PlayerID        int
	Callsign        string
	Team            Team
	CurrentFlag     string // display name, "" when no flag is held
	CurrentFlagAbbr string
	LastKnownState  PlayerState
}
