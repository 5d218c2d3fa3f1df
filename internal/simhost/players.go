package simhost

import (
	"fmt"
	"strings"

	"github.com/bzplugins/airshot/pkg/bzapi"
)

// Join adds a player and announces it.
func (h *Host) Join(id int, callsign string, team bzapi.Team) error {
	if _, ok := h.players[id]; ok {
		return fmt.Errorf("%d: %w", id, ErrPlayerExists)
	}
	h.players[id] = &bzapi.PlayerRecord{
		PlayerID: id,
		Callsign: callsign,
		Team:     team,
	}
	h.dispatch(&bzapi.PlayerJoinEventData{PlayerID: id, Team: team, Callsign: callsign, Time: h.now()})
	return nil
}

// Part removes a player. Shots already in flight stay alive.
func (h *Host) Part(id int, reason string) error {
	if _, ok := h.players[id]; !ok {
		return fmt.Errorf("%d: %w", id, ErrUnknownPlayer)
	}
	delete(h.players, id)
	h.dispatch(&bzapi.PlayerPartEventData{PlayerID: id, Reason: reason, Time: h.now()})
	return nil
}

// GiveFlag makes a player hold a registered flag.
func (h *Host) GiveFlag(id int, tag string) error {
	p, ok := h.players[id]
	if !ok {
		return fmt.Errorf("%d: %w", id, ErrUnknownPlayer)
	}
	spec, ok := h.Flag(tag)
	if !ok {
		return fmt.Errorf("%s: %w", tag, ErrUnknownFlag)
	}
	p.CurrentFlag = spec.DisplayName()
	p.CurrentFlagAbbr = strings.ToUpper(spec.Tag)
	return nil
}

// DropFlag clears the player's flag.
func (h *Host) DropFlag(id int) error {
	p, ok := h.players[id]
	if !ok {
		return fmt.Errorf("%d: %w", id, ErrUnknownPlayer)
	}
	p.CurrentFlag, p.CurrentFlagAbbr = "", ""
	return nil
}

// SetState updates a player's position, heading and velocity.
func (h *Host) SetState(id int, s bzapi.PlayerState) error {
	p, ok := h.players[id]
	if !ok {
		return fmt.Errorf("%d: %w", id, ErrUnknownPlayer)
	}
	p.LastKnownState = s
	return nil
}

// PlayerByIndex implements bzapi.PlayerSource. The returned record is a copy.
func (h *Host) PlayerByIndex(id int) *bzapi.PlayerRecord {
	h.lookups++
	p, ok := h.players[id]
	if !ok {
		return nil
	}
	rec := *p
	h.live[&rec] = true
	return &rec
}

// FreePlayerRecord implements bzapi.PlayerSource.
func (h *Host) FreePlayerRecord(r *bzapi.PlayerRecord) {
	h.frees++
	if r == nil {
		return
	}
	if !h.live[r] {
		h.doubleFrees++
		return
	}
	delete(h.live, r)
}

// PlayerTeam implements bzapi.PlayerSource.
func (h *Host) PlayerTeam(id int) bzapi.Team {
	p, ok := h.players[id]
	if !ok {
		return bzapi.NoTeam
	}
	return p.Team
}

// PlayerFlag implements bzapi.PlayerSource.
func (h *Host) PlayerFlag(id int) string {
	p, ok := h.players[id]
	if !ok {
		return ""
	}
	return p.CurrentFlagAbbr
}

// RecordStats reports player record bookkeeping: lookups, frees (including
// nil), records still outstanding and frees of already released records.
type RecordStats struct {
	Lookups     int
	Frees       int
	Outstanding int
	DoubleFrees int
}

// Records returns the current record bookkeeping.
func (h *Host) Records() RecordStats {
	return RecordStats{
		Lookups:     h.lookups,
		Frees:       h.frees,
		Outstanding: len(h.live),
		DoubleFrees: h.doubleFrees,
	}
}

// Players returns the number of connected players.
func (h *Host) Players() int {
	return len(h.players)
}
