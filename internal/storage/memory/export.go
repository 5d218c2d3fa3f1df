package memory

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bzplugins/airshot/internal/model"
)

// SessionExport is the root JSON structure
type SessionExport struct {
	Name        string             `json:"name"`
	Plugin      string             `json:"plugin"`
	StartTime   time.Time          `json:"startTime"`
	Angle       float64            `json:"angle"`
	ServerShots []model.ServerShot `json:"serverShots"`
	Kills       []model.KillCredit `json:"kills"`
	Scoreboard  []ScoreJSON        `json:"scoreboard"`
}

// ScoreJSON is a player's kill count as credited
type ScoreJSON struct {
	PlayerID     int `json:"playerId"`
	Kills        int `json:"kills"`
	Reattributed int `json:"reattributed"`
}

// exportJSON writes the session data to a (optionally gzipped) JSON file
func (b *Backend) exportJSON() error {
	export := b.buildExport()

	name := strings.ReplaceAll(b.session.Name, " ", "_")
	name = strings.ReplaceAll(name, ":", "_")
	if name == "" {
		name = "session"
	}
	timestamp := b.session.StartTime.Format("20060102_150405")

	var filename string
	if b.cfg.CompressOutput {
		filename = fmt.Sprintf("%s_%s.json.gz", name, timestamp)
	} else {
		filename = fmt.Sprintf("%s_%s.json", name, timestamp)
	}

	outputPath := filepath.Join(b.cfg.OutputDir, filename)

	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if b.cfg.CompressOutput {
		if err := writeGzipJSON(outputPath, export); err != nil {
			return err
		}
	} else {
		if err := writeJSON(outputPath, export); err != nil {
			return err
		}
	}

	b.lastExportPath = outputPath
	return nil
}

func (b *Backend) buildExport() SessionExport {
	export := SessionExport{
		Name:        b.session.Name,
		Plugin:      b.session.Plugin,
		StartTime:   b.session.StartTime,
		Angle:       b.session.Angle,
		ServerShots: make([]model.ServerShot, 0, len(b.shots)),
		Kills:       make([]model.KillCredit, 0, len(b.kills)),
		Scoreboard:  make([]ScoreJSON, 0),
	}
	export.ServerShots = append(export.ServerShots, b.shots...)
	export.Kills = append(export.Kills, b.kills...)

	scores := make(map[int]*ScoreJSON)
	for _, k := range b.kills {
		s, ok := scores[k.KillerID]
		if !ok {
			s = &ScoreJSON{PlayerID: k.KillerID}
			scores[k.KillerID] = s
		}
		s.Kills++
		if k.Reattributed {
			s.Reattributed++
		}
	}
	for _, s := range scores {
		export.Scoreboard = append(export.Scoreboard, *s)
	}
	sort.Slice(export.Scoreboard, func(i, j int) bool {
		return export.Scoreboard[i].PlayerID < export.Scoreboard[j].PlayerID
	})

	return export
}

func writeJSON(path string, data any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

func writeGzipJSON(path string, data any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	gz := gzip.NewWriter(f)
	defer gz.Close()

	encoder := json.NewEncoder(gz)
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
