package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bzplugins/airshot/internal/simhost"
	"github.com/bzplugins/airshot/pkg/bzapi"
)

var (
	ErrUnknownOp = errors.New("unknown step operation")
	ErrNoShot    = errors.New("no such shot")
)

// Report summarizes a replay.
type Report struct {
	Steps       int
	ServerShots int
	Kills       []simhost.Kill
}

// Runner replays scenarios against a host.
type Runner struct {
	host   *simhost.Host
	logger *slog.Logger

	serverShots []simhost.Shot
	lastShot    map[int]int
	kills       []simhost.Kill
}

var _ simhost.Observer = (*Runner)(nil)

// NewRunner creates a runner and subscribes it to host notifications.
func NewRunner(host *simhost.Host, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Runner{
		host:     host,
		logger:   logger,
		lastShot: make(map[int]int),
	}
	host.Observe(r)
	return r
}

// ServerShotSpawned implements simhost.Observer.
func (r *Runner) ServerShotSpawned(shot simhost.Shot, _ map[string]string) {
	r.serverShots = append(r.serverShots, shot)
}

// PlayerKilled implements simhost.Observer.
func (r *Runner) PlayerKilled(k simhost.Kill) {
	r.kills = append(r.kills, k)
}

// Run executes every step in order and stops at the first failure.
func (r *Runner) Run(ctx context.Context, sc *Scenario) (*Report, error) {
	shotsBefore, killsBefore := len(r.serverShots), len(r.kills)

	for i, st := range sc.Steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := r.step(st); err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i+1, st.Op, err)
		}
	}

	r.logger.Info("Scenario complete", "scenario", sc.Name, "steps", len(sc.Steps),
		"serverShots", len(r.serverShots)-shotsBefore, "kills", len(r.kills)-killsBefore)

	return &Report{
		Steps:       len(sc.Steps),
		ServerShots: len(r.serverShots) - shotsBefore,
		Kills:       append([]simhost.Kill(nil), r.kills[killsBefore:]...),
	}, nil
}

func (r *Runner) step(st Step) error {
	h := r.host
	switch st.Op {
	case OpJoin:
		team, err := bzapi.ParseTeam(st.Team)
		if err != nil {
			return err
		}
		callsign := st.Callsign
		if callsign == "" {
			callsign = fmt.Sprintf("player%d", st.Player)
		}
		return h.Join(st.Player, callsign, team)
	case OpPart:
		return h.Part(st.Player, st.Reason)
	case OpFlag:
		return h.GiveFlag(st.Player, st.Flag)
	case OpDrop:
		return h.DropFlag(st.Player)
	case OpState:
		return h.SetState(st.Player, bzapi.PlayerState{
			Pos:      st.Pos.vec3(),
			Rotation: st.Rotation,
			Velocity: st.Velocity.vec3(),
		})
	case OpFire:
		shot, err := h.Fire(st.Player)
		if err != nil {
			return err
		}
		r.lastShot[st.Player] = shot.ShotID
		return nil
	case OpKill:
		killer, slot, err := r.resolveShot(st)
		if err != nil {
			return err
		}
		ev, err := h.Kill(st.Victim, killer, slot)
		if err != nil {
			return err
		}
		r.logger.Debug("Kill", "victim", ev.PlayerID, "killer", ev.KillerID, "team", ev.KillerTeam.String())
		return nil
	case OpExpire:
		killer, slot, err := r.resolveShot(st)
		if err != nil {
			return err
		}
		return h.ExpireShot(h.ShotGUID(killer, slot))
	case OpSet:
		h.SetVar(st.Var, st.Value)
		return nil
	case OpTick:
		h.Tick()
		return nil
	default:
		return fmt.Errorf("%q: %w", st.Op, ErrUnknownOp)
	}
}

func (r *Runner) resolveShot(st Step) (killer, slot int, err error) {
	if st.ServerShot > 0 {
		if st.ServerShot > len(r.serverShots) {
			return 0, 0, fmt.Errorf("server shot %d: %w", st.ServerShot, ErrNoShot)
		}
		s := r.serverShots[st.ServerShot-1]
		return bzapi.ServerPlayerID, s.ShotID, nil
	}
	if st.Shot != nil {
		return st.Killer, *st.Shot, nil
	}
	slot, ok := r.lastShot[st.Killer]
	if !ok {
		return 0, 0, fmt.Errorf("last shot of %d: %w", st.Killer, ErrNoShot)
	}
	return st.Killer, slot, nil
}

// Describe renders a kill as credited, e.g. for printing.
func Describe(k simhost.Kill) string {
	killer := fmt.Sprintf("player %d (%s)", k.Event.KillerID, k.Event.KillerTeam)
	if serverKiller(k.Event.KillerID) {
		killer = "server"
	}
	s := fmt.Sprintf("player %d (%s) killed by %s", k.VictimID, k.VictimTeam, killer)
	if k.Reattributed() {
		s += fmt.Sprintf(" via %s shot", k.Meta["type"])
	}
	return s
}
