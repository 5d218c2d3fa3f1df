package simhost

import (
	"fmt"
	"math"

	"github.com/bzplugins/airshot/pkg/bzapi"
)

func (h *Host) spawn(playerID int, tag string, pos, vel bzapi.Vec3, team bzapi.Team) *Shot {
	slot := h.nextSlot[playerID]
	h.nextSlot[playerID] = slot + 1

	s := &Shot{
		GUID:     h.nextGUID,
		PlayerID: playerID,
		ShotID:   slot,
		Tag:      tag,
		Pos:      pos,
		Vel:      vel,
		Team:     team,
	}
	h.nextGUID++
	h.shots[s.GUID] = s
	h.slots[slotKey{player: playerID, shot: slot}] = s.GUID
	return s
}

// Fire makes a tank shoot along its heading and delivers the shot fired event.
// It returns the tank's shot.
func (h *Host) Fire(playerID int) (Shot, error) {
	p, ok := h.players[playerID]
	if !ok {
		return Shot{}, fmt.Errorf("%d: %w", playerID, ErrUnknownPlayer)
	}

	st := p.LastKnownState
	speed := h.Double("_shotSpeed")
	vel := bzapi.Vec3{X: math.Cos(st.Rotation), Y: math.Sin(st.Rotation)}.Scale(speed).Add(st.Velocity)
	s := h.spawn(playerID, p.CurrentFlagAbbr, st.Pos, vel, p.Team)

	before := h.nextGUID
	h.dispatch(&bzapi.ShotFiredEventData{
		PlayerID: playerID,
		ShotID:   s.ShotID,
		ShotType: s.Tag,
		Pos:      s.Pos,
		Time:     h.now(),
	})

	for guid := before; guid < h.nextGUID; guid++ {
		spawned, ok := h.shots[guid]
		if !ok || !spawned.Server() {
			continue
		}
		for _, o := range h.observers {
			o.ServerShotSpawned(*spawned, h.meta.Snapshot(guid))
		}
	}

	return *s, nil
}

// FireServerShot implements bzapi.ShotSpawner. vel is scaled by _shotSpeed.
func (h *Host) FireServerShot(tag string, pos, vel bzapi.Vec3, team bzapi.Team) uint32 {
	s := h.spawn(bzapi.ServerPlayerID, tag, pos, vel.Scale(h.Double("_shotSpeed")), team)
	h.logger.Debug("Server shot fired", "guid", s.GUID, "tag", tag, "team", team.String())
	return s.GUID
}

// ShotGUID implements bzapi.ShotSpawner.
func (h *Host) ShotGUID(playerID, shotID int) uint32 {
	return h.slots[slotKey{player: playerID, shot: shotID}]
}

// Shot returns a live shot.
func (h *Host) Shot(guid uint32) (Shot, bool) {
	s, ok := h.shots[guid]
	if !ok {
		return Shot{}, false
	}
	return *s, true
}

// ServerShots returns the live server-spawned shots in spawn order.
func (h *Host) ServerShots() []Shot {
	var out []Shot
	for guid := uint32(1); guid < h.nextGUID; guid++ {
		if s, ok := h.shots[guid]; ok && s.Server() {
			out = append(out, *s)
		}
	}
	return out
}

// LiveShots returns the number of shots in flight.
func (h *Host) LiveShots() int {
	return len(h.shots)
}

// ExpireShot destroys a shot along with its metadata.
func (h *Host) ExpireShot(guid uint32) error {
	s, ok := h.shots[guid]
	if !ok {
		return fmt.Errorf("%d: %w", guid, ErrUnknownShot)
	}
	delete(h.shots, guid)
	delete(h.slots, slotKey{player: s.PlayerID, shot: s.ShotID})
	h.meta.Clear(guid)
	return nil
}

// Kill reports that killerID's shot slot shotID killed victimID. Plugins see
// the death before it is scored; the returned event carries their changes.
// The killing shot is destroyed afterwards and the victim drops its flag.
func (h *Host) Kill(victimID, killerID, shotID int) (bzapi.PlayerDieEventData, error) {
	victim, ok := h.players[victimID]
	if !ok {
		return bzapi.PlayerDieEventData{}, fmt.Errorf("victim %d: %w", victimID, ErrUnknownPlayer)
	}

	guid := h.ShotGUID(killerID, shotID)
	killerTeam := h.PlayerTeam(killerID)
	flag := ""
	if s, ok := h.shots[guid]; ok {
		killerTeam = s.Team
		flag = s.Tag
	}

	data := &bzapi.PlayerDieEventData{
		PlayerID:       victimID,
		Team:           victim.Team,
		KillerID:       killerID,
		KillerTeam:     killerTeam,
		FlagKilledWith: flag,
		ShotID:         shotID,
		State:          victim.LastKnownState,
		Time:           h.now(),
	}
	meta := h.meta.Snapshot(guid)

	h.dispatch(data)

	kill := Kill{
		VictimID:           victimID,
		VictimTeam:         victim.Team,
		OriginalKillerID:   killerID,
		OriginalKillerTeam: killerTeam,
		ShotGUID:           guid,
		Meta:               meta,
		Event:              *data,
	}
	for _, o := range h.observers {
		o.PlayerKilled(kill)
	}

	if guid != 0 {
		_ = h.ExpireShot(guid)
	}
	victim.CurrentFlag, victim.CurrentFlagAbbr = "", ""

	return *data, nil
}

// Tick delivers a tick event.
func (h *Host) Tick() {
	h.dispatch(&bzapi.TickEventData{Time: h.now()})
}
