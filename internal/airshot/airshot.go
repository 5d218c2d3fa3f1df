// Package airshot implements the Airshot (+AT) custom flag: a tank holding it
// fires two extra shots angled upward, and kills made by those shots are
// credited back to the tank.
package airshot

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bzplugins/airshot/pkg/bzapi"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/bzplugins/airshot/internal/airshot"

const (
	FlagTag  = "AT"
	FlagName = "Airshot"
	FlagHelp = "Extra two shots at an angle upward."

	// AngleVar is the upward angle in radians of the middle shot; the top
	// shot uses twice this.
	AngleVar     = "_airshotAngle"
	DefaultAngle = 0.12

	MetaType  = "type"
	MetaOwner = "owner"
)

// built-in server variables read when firing
const (
	MuzzleFrontVar  = "_muzzleFront"
	MuzzleHeightVar = "_muzzleHeight"
	ShotSpeedVar    = "_shotSpeed"
)

// Flag is the custom flag registered on Init.
var Flag = bzapi.FlagSpec{
	Tag:     FlagTag,
	Name:    FlagName,
	Help:    FlagHelp,
	Cost:    0,
	Quality: bzapi.GoodFlag,
}

// Dependencies holds optional collaborators of the plugin.
type Dependencies struct {
	Logger *slog.Logger

	// Angle overrides DefaultAngle as the registered value of AngleVar.
	// Nil keeps DefaultAngle; a zero angle fires the extra shots flat.
	Angle *float64
}

// Plugin is the Airshot flag extension. It keeps no state of its own between
// events; everything lives on the host.
type Plugin struct {
	host   bzapi.Host
	logger *slog.Logger
	angle  float64

	spawned    metric.Int64Counter
	attributed metric.Int64Counter
}

var _ bzapi.Plugin = (*Plugin)(nil)

// New creates the plugin bound to host.
func New(host bzapi.Host, deps Dependencies) *Plugin {
	p := &Plugin{
		host:   host,
		logger: deps.Logger,
		angle:  DefaultAngle,
	}
	if deps.Angle != nil {
		p.angle = *deps.Angle
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}

	m := otel.Meter(instrumentationName)
	var err error
	if p.spawned, err = m.Int64Counter("airshot.shots.spawned",
		metric.WithDescription("Extra shots spawned for Airshot carriers")); err != nil {
		p.logger.Warn("creating spawned counter", "error", err)
	}
	if p.attributed, err = m.Int64Counter("airshot.kills.attributed",
		metric.WithDescription("Kills credited back to Airshot carriers")); err != nil {
		p.logger.Warn("creating attributed counter", "error", err)
	}

	return p
}

// Name implements bzapi.Plugin.
func (p *Plugin) Name() string {
	return "Airshot Flag"
}

// Init registers the flag and server variable and subscribes to events.
func (p *Plugin) Init(string) error {
	if err := p.host.RegisterCustomFlag(Flag); err != nil {
		return fmt.Errorf("registering flag %s: %w", Flag.Tag, err)
	}
	if err := p.host.RegisterCustomDouble(AngleVar, p.angle); err != nil {
		p.host.RemoveCustomFlag(Flag.Tag)
		return fmt.Errorf("registering %s: %w", AngleVar, err)
	}

	p.host.RegisterEvent(bzapi.ShotFiredEvent, p)
	p.host.RegisterEvent(bzapi.PlayerDieEvent, p)

	p.logger.Info("Plugin loaded", "plugin", p.Name(), "flag", Flag.DisplayName(), "angle", p.angle)
	return nil
}

// Cleanup undoes everything Init registered.
func (p *Plugin) Cleanup() {
	p.host.FlushEvents(p)
	p.host.RemoveCustomVar(AngleVar)
	p.host.RemoveCustomFlag(Flag.Tag)
	p.logger.Info("Plugin unloaded", "plugin", p.Name())
}

// Event implements bzapi.Plugin.
func (p *Plugin) Event(e bzapi.Event) {
	switch data := e.(type) {
	case *bzapi.ShotFiredEventData:
		p.handleShotFired(data)
	case *bzapi.PlayerDieEventData:
		p.handlePlayerDie(data)
	default:
	}
}

func (p *Plugin) handleShotFired(data *bzapi.ShotFiredEventData) {
	rec := p.host.PlayerByIndex(data.PlayerID)
	defer p.host.FreePlayerRecord(rec)

	if rec == nil || rec.CurrentFlagAbbr != Flag.Tag {
		return
	}

	b := Ballistics{
		MuzzleFront:  p.host.Double(MuzzleFrontVar),
		MuzzleHeight: p.host.Double(MuzzleHeightVar),
		ShotSpeed:    p.host.Double(ShotSpeedVar),
	}
	angle := p.host.Double(AngleVar)
	flag := p.host.PlayerFlag(data.PlayerID)

	for _, shot := range ExtraShots(rec.LastKnownState, b, angle) {
		guid := p.host.FireServerShot(Flag.Tag, shot.Pos, shot.Vel, rec.Team)
		p.host.SetShotMetaDataS(guid, MetaType, flag)
		p.host.SetShotMetaDataI(guid, MetaOwner, data.PlayerID)

		p.add(p.spawned)
		p.logger.Debug("Spawned airshot", "player", data.PlayerID, "guid", guid,
			"vx", shot.Vel.X, "vy", shot.Vel.Y, "vz", shot.Vel.Z)
	}
}

func (p *Plugin) handlePlayerDie(data *bzapi.PlayerDieEventData) {
	guid := p.host.ShotGUID(data.KillerID, data.ShotID)

	if !p.host.ShotHasMetaData(guid, MetaType) || !p.host.ShotHasMetaData(guid, MetaOwner) {
		return
	}
	if p.host.ShotMetaDataS(guid, MetaType) != Flag.Tag {
		return
	}

	owner := p.host.ShotMetaDataI(guid, MetaOwner)
	data.KillerID = owner
	data.KillerTeam = p.host.PlayerTeam(owner)

	p.add(p.attributed)
	p.logger.Debug("Credited airshot kill", "victim", data.PlayerID, "killer", owner,
		"team", data.KillerTeam.String(), "guid", guid)
}

func (p *Plugin) add(c metric.Int64Counter) {
	if c == nil {
		return
	}
	c.Add(context.Background(), 1, metric.WithAttributes(attribute.String("flag", Flag.Tag)))
}
