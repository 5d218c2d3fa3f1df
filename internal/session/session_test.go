package session

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/bzplugins/airshot/internal/airshot"
	"github.com/bzplugins/airshot/internal/config"
	"github.com/bzplugins/airshot/internal/model"
	"github.com/bzplugins/airshot/internal/simhost"
	"github.com/bzplugins/airshot/internal/storage/memory"
	"github.com/bzplugins/airshot/pkg/bzapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHost(t *testing.T) *simhost.Host {
	t.Helper()
	h, err := simhost.New(simhost.Options{
		BZDB: config.BZDBConfig{MuzzleFront: 4.42, MuzzleHeight: 1.57, ShotSpeed: 100},
	})
	require.NoError(t, err)
	require.NoError(t, h.LoadPlugin(airshot.New(h, airshot.Dependencies{}), ""))
	t.Cleanup(h.UnloadAll)
	return h
}

func TestLoadScenario(t *testing.T) {
	sc, err := LoadScenario("testdata/crossfire.json")
	require.NoError(t, err)

	assert.Equal(t, "crossfire", sc.Name)
	require.Len(t, sc.Steps, 12)
	assert.Equal(t, Step{Op: OpJoin, Player: 1, Callsign: "alpha", Team: "red"}, sc.Steps[0])
	assert.Equal(t, Vec{X: 10}, sc.Steps[3].Velocity)
	assert.Equal(t, 2, sc.Steps[6].ServerShot)
	assert.Nil(t, sc.Steps[8].Shot)
}

func TestReadScenario_Errors(t *testing.T) {
	_, err := ReadScenario(strings.NewReader(`{"name": "empty", "steps": []}`))
	assert.ErrorContains(t, err, "no steps")

	_, err = ReadScenario(strings.NewReader(`{`))
	assert.Error(t, err)

	_, err = LoadScenario("testdata/missing.json")
	assert.Error(t, err)
}

func TestReadScenario_ExplicitShot(t *testing.T) {
	sc, err := ReadScenario(strings.NewReader(`{"steps": [{"op": "kill", "victim": 2, "killer": 1, "shot": 0}]}`))
	require.NoError(t, err)
	require.NotNil(t, sc.Steps[0].Shot)
	assert.Equal(t, 0, *sc.Steps[0].Shot)
	assert.True(t, strings.HasPrefix(sc.Name, "scenario-"))
	assert.Len(t, sc.Name, len("scenario-")+8)
}

func TestRunner_Crossfire(t *testing.T) {
	h := newHost(t)
	r := NewRunner(h, nil)
	sc, err := LoadScenario("testdata/crossfire.json")
	require.NoError(t, err)

	rep, err := r.Run(context.Background(), sc)
	require.NoError(t, err)

	assert.Equal(t, 12, rep.Steps)
	assert.Equal(t, 2, rep.ServerShots)
	require.Len(t, rep.Kills, 2)

	airshotKill := rep.Kills[0]
	assert.True(t, airshotKill.Reattributed())
	assert.Equal(t, bzapi.ServerPlayerID, airshotKill.OriginalKillerID)
	assert.Equal(t, 1, airshotKill.Event.KillerID)
	assert.Equal(t, bzapi.RedTeam, airshotKill.Event.KillerTeam)
	assert.Equal(t, "player 2 (blue) killed by player 1 (red) via AT shot", Describe(airshotKill))

	tankKill := rep.Kills[1]
	assert.False(t, tankKill.Reattributed())
	assert.Equal(t, 3, tankKill.Event.KillerID)
	assert.Equal(t, "player 1 (red) killed by player 3 (green)", Describe(tankKill))

	assert.Empty(t, h.ServerShots(), "one shot killed, the other expired")
}

func TestRunner_Errors(t *testing.T) {
	tests := []struct {
		name string
		step Step
		want error
	}{
		{"unknown op", Step{Op: "teleport"}, ErrUnknownOp},
		{"no server shot", Step{Op: OpKill, Victim: 1, ServerShot: 3}, ErrNoShot},
		{"no last shot", Step{Op: OpExpire, Killer: 9}, ErrNoShot},
		{"unknown player", Step{Op: OpFire, Player: 9}, simhost.ErrUnknownPlayer},
		{"unknown flag", Step{Op: OpFlag, Player: 1, Flag: "ZZ"}, simhost.ErrUnknownFlag},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHost(t)
			require.NoError(t, h.Join(1, "alpha", bzapi.RedTeam))
			r := NewRunner(h, nil)

			_, err := r.Run(context.Background(), &Scenario{Steps: []Step{tt.step}})
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorContains(t, err, "step 1")
		})
	}
}

func TestRunner_BadTeam(t *testing.T) {
	r := NewRunner(newHost(t), nil)
	_, err := r.Run(context.Background(), &Scenario{Steps: []Step{{Op: OpJoin, Player: 1, Team: "orange"}}})
	assert.ErrorContains(t, err, "unknown team")
}

func TestRunner_Cancelled(t *testing.T) {
	r := NewRunner(newHost(t), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Run(ctx, &Scenario{Steps: []Step{{Op: OpTick}}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRecorder_WritesLedger(t *testing.T) {
	h := newHost(t)
	backend := memory.New(config.MemoryConfig{})
	rec := NewRecorder(backend, nil)
	rec.now = func() time.Time { return time.Unix(100, 0).UTC() }
	h.Observe(rec)

	s := &model.Session{Name: "ledger", Plugin: "Airshot Flag"}
	require.NoError(t, rec.Start(s))
	assert.Equal(t, time.Unix(100, 0).UTC(), s.StartTime)

	sc, err := LoadScenario("testdata/crossfire.json")
	require.NoError(t, err)
	_, err = NewRunner(h, nil).Run(context.Background(), sc)
	require.NoError(t, err)

	assert.Equal(t, 4, rec.Pending())
	assert.Equal(t, map[int]int{1: 1, 3: 1}, rec.Credits())
	require.NoError(t, rec.Flush())
	assert.Equal(t, 0, rec.Pending())

	shots := backend.ServerShots()
	require.Len(t, shots, 2)
	for _, shot := range shots {
		assert.Equal(t, "AT", shot.Tag)
		assert.Equal(t, 1, shot.OwnerID)
		assert.Equal(t, "red", shot.Team)
		assert.Equal(t, "AT", shot.Meta["type"])
		assert.Equal(t, s.ID, shot.SessionID)
	}
	assert.Greater(t, shots[1].VelZ, shots[0].VelZ)

	kills := backend.Kills()
	require.Len(t, kills, 2)
	assert.True(t, kills[0].Reattributed)
	assert.Equal(t, 1, kills[0].KillerID)
	assert.Equal(t, "red", kills[0].KillerTeam)
	assert.Equal(t, bzapi.ServerPlayerID, kills[0].OriginalKillerID)
	assert.Equal(t, "AT", kills[0].Flag)
	assert.False(t, kills[1].Reattributed)
	assert.Nil(t, kills[1].Meta)
}
