// Package influx writes the session ledger as InfluxDB points. While the
// server is unreachable points are appended as gzipped line protocol to a
// backup file instead.
package influx

import (
	"compress/gzip"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/bzplugins/airshot/internal/config"
	"github.com/bzplugins/airshot/internal/model"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2_api "github.com/influxdata/influxdb-client-go/v2/api"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/influxdata/influxdb-client-go/v2/domain"
	"github.com/rs/zerolog"
)

const (
	ShotMeasurement = "server_shots"
	KillMeasurement = "kill_credits"
)

var pingTimeout = 5 * time.Second

// Backend implements storage.Backend for InfluxDB.
type Backend struct {
	cfg config.InfluxConfig
	log zerolog.Logger

	client     influxdb2.Client
	writer     influxdb2_api.WriteAPI
	backupFile *os.File
	backup     *gzip.Writer
	session    string
	nextID     uint
	mu         sync.Mutex
}

// New creates an InfluxDB backend. It connects on Init.
func New(cfg config.InfluxConfig, log zerolog.Logger) *Backend {
	return &Backend{cfg: cfg, log: log}
}

// Online reports whether points go to the server rather than the backup file.
func (b *Backend) Online() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.writer != nil
}

// Init connects to the server. If it cannot be reached the backup file is opened.
func (b *Backend) Init() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.client = influxdb2.NewClientWithOptions(
		b.cfg.URL(),
		b.cfg.Token,
		influxdb2.DefaultOptions().
			SetBatchSize(2500).
			SetFlushInterval(1000),
	)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	running, err := b.client.Ping(ctx)
	if err != nil || !running {
		b.log.Info().Str("backupPath", b.cfg.BackupPath).
			Msg("Failed to initialize InfluxDB client, writing to backup file")
		return b.openBackup()
	}

	if err := b.ensureBucket(ctx); err != nil {
		return err
	}

	b.writer = b.client.WriteAPI(b.cfg.Org, b.cfg.Bucket)
	go func(errorsCh <-chan error) {
		for writeErr := range errorsCh {
			b.log.Error().Err(writeErr).Str("bucket", b.cfg.Bucket).
				Msg("Error sending data to InfluxDB")
		}
	}(b.writer.Errors())

	b.log.Info().Str("url", b.cfg.URL()).Str("bucket", b.cfg.Bucket).Msg("InfluxDB client initialized")
	return nil
}

func (b *Backend) openBackup() error {
	if b.cfg.BackupPath == "" {
		return fmt.Errorf("influxDB unreachable and no backup path configured")
	}
	if err := os.MkdirAll(filepath.Dir(b.cfg.BackupPath), 0755); err != nil {
		return fmt.Errorf("error creating backup directory: %w", err)
	}
	file, err := os.OpenFile(b.cfg.BackupPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("error creating backup file: %w", err)
	}
	b.backupFile = file
	b.backup = gzip.NewWriter(file)
	return nil
}

func (b *Backend) ensureBucket(ctx context.Context) error {
	org, err := b.client.OrganizationsAPI().FindOrganizationByName(ctx, b.cfg.Org)
	if err != nil {
		b.log.Info().Str("org", b.cfg.Org).Msg("Organization not found, creating")
		org, err = b.client.OrganizationsAPI().CreateOrganizationWithName(ctx, b.cfg.Org)
		if err != nil {
			return fmt.Errorf("creating organization %s: %w", b.cfg.Org, err)
		}
	}

	if _, err = b.client.BucketsAPI().FindBucketByName(ctx, b.cfg.Bucket); err == nil {
		return nil
	}
	b.log.Info().Str("bucket", b.cfg.Bucket).Msg("Bucket not found, creating")

	rule := domain.RetentionRuleTypeExpire
	_, err = b.client.BucketsAPI().CreateBucketWithName(ctx, org, b.cfg.Bucket, domain.RetentionRule{
		Type:         &rule,
		EverySeconds: 60 * 60 * 24 * 90, // 90 days
	})
	if err != nil {
		return fmt.Errorf("creating bucket %s: %w", b.cfg.Bucket, err)
	}
	return nil
}

// Close flushes pending points and releases the client and backup file.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.writer != nil {
		b.writer.Flush()
	}
	if b.client != nil {
		b.client.Close()
	}

	var err error
	if b.backup != nil {
		err = b.backup.Close()
		if cerr := b.backupFile.Close(); err == nil {
			err = cerr
		}
		b.backup, b.backupFile = nil, nil
	}
	b.writer = nil
	return err
}

// StartSession tags later points with the session name.
func (b *Backend) StartSession(s *model.Session) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	s.ID = b.nextID
	b.session = s.Name
	return nil
}

// RecordServerShot writes a server shot point.
func (b *Backend) RecordServerShot(s *model.ServerShot) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.writePoint(ShotPoint(b.session, s))
}

// RecordKill writes a kill point.
func (b *Backend) RecordKill(k *model.KillCredit) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.writePoint(KillPoint(b.session, k))
}

func (b *Backend) writePoint(point *influxdb2_write.Point) error {
	if b.writer != nil {
		b.writer.WritePoint(point)
		return nil
	}
	if b.backup == nil {
		return fmt.Errorf("influxDB client not initialized and backup writer not available")
	}

	lineProtocol := influxdb2_write.PointToLineProtocol(point, time.Nanosecond)
	if _, err := b.backup.Write([]byte(lineProtocol)); err != nil {
		return fmt.Errorf("error writing to InfluxDB backup file: %w", err)
	}
	return nil
}

// ShotPoint converts a server shot to a point.
func ShotPoint(session string, s *model.ServerShot) *influxdb2_write.Point {
	return influxdb2_write.NewPoint(ShotMeasurement,
		tags("session", session, "tag", s.Tag, "team", s.Team),
		map[string]interface{}{
			"guid":  int64(s.GUID),
			"slot":  s.Slot,
			"owner": s.OwnerID,
			"pos_x": s.PosX,
			"pos_y": s.PosY,
			"pos_z": s.PosZ,
			"vel_x": s.VelX,
			"vel_y": s.VelY,
			"vel_z": s.VelZ,
		},
		s.Time,
	)
}

// KillPoint converts a kill credit to a point.
func KillPoint(session string, k *model.KillCredit) *influxdb2_write.Point {
	return influxdb2_write.NewPoint(KillMeasurement,
		tags("session", session, "flag", k.Flag, "killer_team", k.KillerTeam,
			"reattributed", strconv.FormatBool(k.Reattributed)),
		map[string]interface{}{
			"victim":          k.VictimID,
			"killer":          k.KillerID,
			"original_killer": k.OriginalKillerID,
			"shot_guid":       int64(k.ShotGUID),
		},
		k.Time,
	)
}

// tags builds a tag set from key/value pairs, leaving out empty values.
func tags(kv ...string) map[string]string {
	m := make(map[string]string, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		if kv[i+1] != "" {
			m[kv[i]] = kv[i+1]
		}
	}
	return m
}
