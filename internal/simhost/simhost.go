// Package simhost is an in-process game server implementing bzapi.Host.
// It tracks players, shots and their metadata and delivers events to loaded
// plugins synchronously, the way the real server does on its event loop.
package simhost

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bzplugins/airshot/internal/config"
	"github.com/bzplugins/airshot/internal/dispatcher"
	"github.com/bzplugins/airshot/internal/shotmeta"
	"github.com/bzplugins/airshot/pkg/bzapi"

	"github.com/spf13/viper"
)

var (
	ErrUnknownPlayer = errors.New("unknown player")
	ErrPlayerExists  = errors.New("player already joined")
	ErrUnknownFlag   = errors.New("unknown flag")
	ErrUnknownShot   = errors.New("unknown shot")
	ErrPluginLoaded  = errors.New("plugin already loaded")
)

// Shot is a live projectile.
type Shot struct {
	GUID     uint32
	PlayerID int
	ShotID   int
	Tag      string
	Pos      bzapi.Vec3
	Vel      bzapi.Vec3
	Team     bzapi.Team
}

// Server reports whether the shot was spawned by the server rather than a tank.
func (s Shot) Server() bool {
	return s.PlayerID == bzapi.ServerPlayerID
}

// Kill describes a death after plugins have seen it.
type Kill struct {
	VictimID           int
	VictimTeam         bzapi.Team
	OriginalKillerID   int
	OriginalKillerTeam bzapi.Team
	ShotGUID           uint32
	Meta               map[string]string
	Event              bzapi.PlayerDieEventData
}

// Reattributed reports whether a plugin changed the killer.
func (k Kill) Reattributed() bool {
	return k.Event.KillerID != k.OriginalKillerID
}

// Observer is notified of server shots and kills, e.g. to keep a ledger.
type Observer interface {
	ServerShotSpawned(shot Shot, meta map[string]string)
	PlayerKilled(kill Kill)
}

// Options configures a Host.
type Options struct {
	Logger *slog.Logger

	// EventLogger receives dispatcher debug output; defaults to Logger.
	EventLogger dispatcher.Logger

	BZDB config.BZDBConfig
	Now  func() time.Time
}

type slotKey struct {
	player int
	shot   int
}

// Host is a single-threaded simulated server. It is not safe for concurrent use.
type Host struct {
	logger *slog.Logger
	now    func() time.Time
	events *dispatcher.Dispatcher

	vars   *viper.Viper
	custom map[string]bool

	flags   map[string]bzapi.FlagSpec
	players map[int]*bzapi.PlayerRecord
	plugins map[string]bzapi.Plugin

	shots    map[uint32]*Shot
	slots    map[slotKey]uint32
	nextSlot map[int]int
	nextGUID uint32
	meta     *shotmeta.Store

	live        map[*bzapi.PlayerRecord]bool
	lookups     int
	frees       int
	doubleFrees int

	observers []Observer
}

var _ bzapi.Host = (*Host)(nil)

// New creates an empty server seeded with the built-in shot variables.
func New(opts Options) (*Host, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	evLogger := opts.EventLogger
	if evLogger == nil {
		evLogger = logger
	}
	events, err := dispatcher.New(evLogger)
	if err != nil {
		return nil, fmt.Errorf("creating dispatcher: %w", err)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	vars := viper.New()
	vars.SetDefault("_muzzleFront", opts.BZDB.MuzzleFront)
	vars.SetDefault("_muzzleHeight", opts.BZDB.MuzzleHeight)
	vars.SetDefault("_shotSpeed", opts.BZDB.ShotSpeed)

	return &Host{
		logger:   logger,
		now:      now,
		events:   events,
		vars:     vars,
		custom:   make(map[string]bool),
		flags:    make(map[string]bzapi.FlagSpec),
		players:  make(map[int]*bzapi.PlayerRecord),
		plugins:  make(map[string]bzapi.Plugin),
		shots:    make(map[uint32]*Shot),
		slots:    make(map[slotKey]uint32),
		nextSlot: make(map[int]int),
		nextGUID: 1,
		meta:     shotmeta.New(),
		live:     make(map[*bzapi.PlayerRecord]bool),
	}, nil
}

// Observe registers an observer.
func (h *Host) Observe(o Observer) {
	h.observers = append(h.observers, o)
}

// LoadPlugin initializes p and keeps it until UnloadPlugin.
func (h *Host) LoadPlugin(p bzapi.Plugin, cfg string) error {
	name := p.Name()
	if _, ok := h.plugins[name]; ok {
		return fmt.Errorf("%s: %w", name, ErrPluginLoaded)
	}
	if err := p.Init(cfg); err != nil {
		return fmt.Errorf("initializing %s: %w", name, err)
	}
	h.plugins[name] = p
	h.logger.Info("Loaded plugin", "plugin", name)
	return nil
}

// UnloadPlugin cleans up and forgets the named plugin.
func (h *Host) UnloadPlugin(name string) {
	p, ok := h.plugins[name]
	if !ok {
		return
	}
	p.Cleanup()
	h.events.RemoveOwner(name)
	delete(h.plugins, name)
	h.logger.Info("Unloaded plugin", "plugin", name)
}

// UnloadAll unloads every plugin.
func (h *Host) UnloadAll() {
	for name := range h.plugins {
		h.UnloadPlugin(name)
	}
}

func (h *Host) dispatch(e bzapi.Event) {
	if err := h.events.Dispatch(e); err != nil && !errors.Is(err, dispatcher.ErrNoHandler) {
		h.logger.Error("Dispatching event", "event", e.Type().String(), "error", err)
	}
}

// RegisterEvent implements bzapi.EventRegistry.
func (h *Host) RegisterEvent(t bzapi.EventType, p bzapi.Plugin) {
	h.events.Register(t, p.Name(), p.Event, dispatcher.Logged())
}

// RemoveEvent implements bzapi.EventRegistry.
func (h *Host) RemoveEvent(t bzapi.EventType, p bzapi.Plugin) {
	h.events.Remove(t, p.Name())
}

// FlushEvents implements bzapi.EventRegistry.
func (h *Host) FlushEvents(p bzapi.Plugin) {
	h.events.RemoveOwner(p.Name())
}

// RegisterCustomFlag implements bzapi.FlagRegistry.
func (h *Host) RegisterCustomFlag(spec bzapi.FlagSpec) error {
	tag := strings.ToUpper(spec.Tag)
	if _, ok := h.flags[tag]; ok {
		return fmt.Errorf("%s: %w", tag, bzapi.ErrFlagExists)
	}
	h.flags[tag] = spec
	return nil
}

// RemoveCustomFlag implements bzapi.FlagRegistry. Players holding the flag lose it.
func (h *Host) RemoveCustomFlag(tag string) {
	tag = strings.ToUpper(tag)
	delete(h.flags, tag)
	for _, p := range h.players {
		if p.CurrentFlagAbbr == tag {
			p.CurrentFlag, p.CurrentFlagAbbr = "", ""
		}
	}
}

// Flag returns a registered flag.
func (h *Host) Flag(tag string) (bzapi.FlagSpec, bool) {
	f, ok := h.flags[strings.ToUpper(tag)]
	return f, ok
}

// RegisterCustomDouble implements bzapi.VarRegistry.
func (h *Host) RegisterCustomDouble(name string, def float64) error {
	if h.custom[name] || h.vars.IsSet(name) {
		return fmt.Errorf("%s: %w", name, bzapi.ErrVarExists)
	}
	h.custom[name] = true
	h.vars.Set(name, def)
	return nil
}

// RemoveCustomVar implements bzapi.VarRegistry. Built-in variables are kept.
func (h *Host) RemoveCustomVar(name string) {
	if !h.custom[name] {
		return
	}
	delete(h.custom, name)
	h.vars.Set(name, nil)
}

// Double implements bzapi.VarRegistry. Unknown variables read as 0.
func (h *Host) Double(name string) float64 {
	return h.vars.GetFloat64(name)
}

// SetVar changes a variable the way /set does.
func (h *Host) SetVar(name string, value float64) {
	h.vars.Set(name, value)
}
