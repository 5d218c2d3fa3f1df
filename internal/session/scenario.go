package session

import (
	"fmt"
	"io"

	"github.com/bzplugins/airshot/pkg/bzapi"

	"github.com/google/uuid"
	"github.com/spf13/viper"
)

// Step operations.
const (
	OpJoin   = "join"
	OpPart   = "part"
	OpFlag   = "flag"
	OpDrop   = "drop"
	OpState  = "state"
	OpFire   = "fire"
	OpKill   = "kill"
	OpExpire = "expire"
	OpSet    = "set"
	OpTick   = "tick"
)

// Vec is a JSON friendly bzapi.Vec3.
type Vec struct {
	X float64 `mapstructure:"x"`
	Y float64 `mapstructure:"y"`
	Z float64 `mapstructure:"z"`
}

func (v Vec) vec3() bzapi.Vec3 {
	return bzapi.Vec3{X: v.X, Y: v.Y, Z: v.Z}
}

// Step is one scripted action. Fields not used by Op are ignored.
type Step struct {
	Op string `mapstructure:"op"`

	// join, part, flag, drop, state, fire
	Player   int     `mapstructure:"player"`
	Callsign string  `mapstructure:"callsign"`
	Team     string  `mapstructure:"team"`
	Reason   string  `mapstructure:"reason"`
	Flag     string  `mapstructure:"flag"`
	Pos      Vec     `mapstructure:"pos"`
	Rotation float64 `mapstructure:"rotation"`
	Velocity Vec     `mapstructure:"velocity"`

	// kill, expire. ServerShot (1-based, in spawn order) selects a server
	// shot; otherwise Shot selects Killer's slot, defaulting to its last shot.
	Victim     int  `mapstructure:"victim"`
	Killer     int  `mapstructure:"killer"`
	Shot       *int `mapstructure:"shot"`
	ServerShot int  `mapstructure:"serverShot"`

	// set
	Var   string  `mapstructure:"var"`
	Value float64 `mapstructure:"value"`
}

// Scenario is a named list of steps.
type Scenario struct {
	Name  string `mapstructure:"name"`
	Steps []Step `mapstructure:"steps"`
}

// LoadScenario reads a JSON scenario file.
func LoadScenario(path string) (*Scenario, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading scenario file: %w", err)
	}
	return decodeScenario(v)
}

// ReadScenario reads a JSON scenario from r.
func ReadScenario(r io.Reader) (*Scenario, error) {
	v := viper.New()
	v.SetConfigType("json")
	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading scenario: %w", err)
	}
	return decodeScenario(v)
}

func decodeScenario(v *viper.Viper) (*Scenario, error) {
	var sc Scenario
	if err := v.Unmarshal(&sc); err != nil {
		return nil, fmt.Errorf("error decoding scenario: %w", err)
	}
	if len(sc.Steps) == 0 {
		return nil, fmt.Errorf("scenario %q has no steps", sc.Name)
	}
	// unnamed scenarios still need a distinct session and export file
	if sc.Name == "" {
		sc.Name = "scenario-" + uuid.NewString()[:8]
	}
	return &sc, nil
}
