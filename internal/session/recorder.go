// Package session records what happens on a simulated server into the
// storage ledger and replays scripted scenarios against it.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/bzplugins/airshot/internal/model"
	"github.com/bzplugins/airshot/internal/queue"
	"github.com/bzplugins/airshot/internal/simhost"
	"github.com/bzplugins/airshot/internal/storage"
	"github.com/bzplugins/airshot/pkg/bzapi"

	"gorm.io/datatypes"
)

// DefaultBufferLimit bounds each pending-row buffer.
const DefaultBufferLimit = 10000

// Recorder turns host notifications into ledger rows. Rows are buffered
// and written on Flush.
type Recorder struct {
	backend storage.Backend
	logger  *slog.Logger
	now     func() time.Time

	shots *queue.Queue[model.ServerShot]
	kills *queue.Queue[model.KillCredit]

	credits map[int]int
}

var _ simhost.Observer = (*Recorder)(nil)

// NewRecorder creates a recorder writing to backend.
func NewRecorder(backend storage.Backend, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		backend: backend,
		logger:  logger,
		now:     time.Now,
		shots:   queue.New[model.ServerShot](DefaultBufferLimit),
		kills:   queue.New[model.KillCredit](DefaultBufferLimit),
		credits: make(map[int]int),
	}
}

// Start opens a new session in the ledger.
func (r *Recorder) Start(s *model.Session) error {
	if s.StartTime.IsZero() {
		s.StartTime = r.now()
	}
	if err := r.backend.StartSession(s); err != nil {
		return fmt.Errorf("starting session %q: %w", s.Name, err)
	}
	r.logger.Info("Session started", "session", s.Name, "id", s.ID)
	return nil
}

// ServerShotSpawned implements simhost.Observer.
func (r *Recorder) ServerShotSpawned(shot simhost.Shot, meta map[string]string) {
	owner := -1
	if v, ok := meta["owner"]; ok {
		if id, err := strconv.Atoi(v); err == nil {
			owner = id
		}
	}
	if r.shots.Push(model.ServerShot{
		Time:    r.now(),
		GUID:    shot.GUID,
		Slot:    shot.ShotID,
		Tag:     shot.Tag,
		OwnerID: owner,
		Team:    shot.Team.String(),
		PosX:    shot.Pos.X,
		PosY:    shot.Pos.Y,
		PosZ:    shot.Pos.Z,
		VelX:    shot.Vel.X,
		VelY:    shot.Vel.Y,
		VelZ:    shot.Vel.Z,
		Meta:    jsonMap(meta),
	}) == 0 {
		r.logger.Warn("Server shot buffer full, dropping", "guid", shot.GUID)
	}
}

// PlayerKilled implements simhost.Observer.
func (r *Recorder) PlayerKilled(k simhost.Kill) {
	r.credits[k.Event.KillerID]++
	if r.kills.Push(model.KillCredit{
		Time:               r.now(),
		VictimID:           k.VictimID,
		VictimTeam:         k.VictimTeam.String(),
		KillerID:           k.Event.KillerID,
		KillerTeam:         k.Event.KillerTeam.String(),
		OriginalKillerID:   k.OriginalKillerID,
		OriginalKillerTeam: k.OriginalKillerTeam.String(),
		ShotGUID:           k.ShotGUID,
		ShotSlot:           k.Event.ShotID,
		Flag:               k.Event.FlagKilledWith,
		Reattributed:       k.Reattributed(),
		Meta:               jsonMap(k.Meta),
	}) == 0 {
		r.logger.Warn("Kill buffer full, dropping", "victim", k.VictimID)
	}
}

// Credits returns kills per credited killer so far. Server kills are keyed
// by bzapi.ServerPlayerID.
func (r *Recorder) Credits() map[int]int {
	out := make(map[int]int, len(r.credits))
	for id, n := range r.credits {
		out[id] = n
	}
	return out
}

// Pending returns the number of buffered rows.
func (r *Recorder) Pending() int {
	return r.shots.Len() + r.kills.Len()
}

// Flush writes buffered rows to the backend. Every row is attempted; the
// errors are joined.
func (r *Recorder) Flush() error {
	var errs []error
	shots := r.shots.Drain()
	for i := range shots {
		if err := r.backend.RecordServerShot(&shots[i]); err != nil {
			errs = append(errs, err)
		}
	}
	kills := r.kills.Drain()
	for i := range kills {
		if err := r.backend.RecordKill(&kills[i]); err != nil {
			errs = append(errs, err)
		}
	}
	if dropped := r.shots.Dropped() + r.kills.Dropped(); dropped > 0 {
		r.logger.Warn("Rows dropped since start", "count", dropped)
	}
	r.logger.Debug("Flushed ledger", "shots", len(shots), "kills", len(kills), "errors", len(errs))
	return errors.Join(errs...)
}

func jsonMap(m map[string]string) datatypes.JSONMap {
	if m == nil {
		return nil
	}
	out := make(datatypes.JSONMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// serverKiller reports whether the killer is the server itself.
func serverKiller(id int) bool {
	return id == bzapi.ServerPlayerID
}
