// Command airshot_sim replays a scripted match on a simulated server with the
// Airshot flag loaded and records every server shot and credited kill.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"time"

	"github.com/bzplugins/airshot/internal/airshot"
	"github.com/bzplugins/airshot/internal/config"
	"github.com/bzplugins/airshot/internal/logging"
	"github.com/bzplugins/airshot/internal/model"
	intOtel "github.com/bzplugins/airshot/internal/otel"
	"github.com/bzplugins/airshot/internal/session"
	"github.com/bzplugins/airshot/internal/simhost"
	"github.com/bzplugins/airshot/internal/storage"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

const ExtensionName = "airshot_sim"

var errNoScenario = errors.New("no scenario given")

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	sessionStart := time.Now()

	fs := pflag.NewFlagSet(ExtensionName, pflag.ContinueOnError)
	configDir := fs.StringP("config", "c", ".", "directory containing "+config.FileName)
	scenarioPath := fs.StringP("scenario", "s", "", "scenario file to replay")
	fs.String("storage", "memory", "ledger backend: memory, sqlite, postgres or influx")
	fs.String("log-level", "info", "DEBUG, INFO, WARN or ERROR")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *scenarioPath == "" && fs.NArg() > 0 {
		*scenarioPath = fs.Arg(0)
	}
	if *scenarioPath == "" {
		return errNoScenario
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	// Initialize slog manager with initial config
	slogManager := logging.NewSlogManager()
	slogManager.Setup(nil, "info", nil)
	logger := slogManager.Logger()

	if err := config.Load(*configDir); err != nil {
		logger.Warn("Failed to load config, using defaults!", "error", err)
	} else {
		logger.Info("Loaded config", "path", viper.ConfigFileUsed())
	}
	if err := viper.BindPFlag("storage.type", fs.Lookup("storage")); err != nil {
		return fmt.Errorf("binding --storage: %w", err)
	}
	if err := viper.BindPFlag("logLevel", fs.Lookup("log-level")); err != nil {
		return fmt.Errorf("binding --log-level: %w", err)
	}
	level := viper.GetString("logLevel")

	logFile, err := logging.OpenLogFile(viper.GetString("logsDir"), ExtensionName, sessionStart)
	if err != nil {
		return err
	}
	defer logFile.Close()

	var otelProvider *intOtel.Provider
	otelCfg := config.GetOTelConfig()
	if otelCfg.Enabled {
		otelProvider, err = intOtel.New(intOtel.Config{
			Enabled:      otelCfg.Enabled,
			ServiceName:  otelCfg.ServiceName,
			BatchTimeout: otelCfg.BatchTimeout,
			LogWriter:    logFile,
			Endpoint:     otelCfg.Endpoint,
			Insecure:     otelCfg.Insecure,
		})
		if err != nil {
			logger.Error("Failed to initialize OTel provider", "error", err)
			otelProvider = nil
		}
	}

	var sinks []io.Writer
	if gl := config.GetGraylogConfig(); gl.Enabled {
		w, err := logging.NewGraylogWriter(gl.Address, ExtensionName)
		if err != nil {
			logger.Error("Failed to connect to Graylog", "error", err)
		} else {
			defer w.Close()
			sinks = append(sinks, w)
		}
	}

	var host *simhost.Host
	var sessionName string
	slogManager.Context = func() []slog.Attr {
		if host == nil {
			return nil
		}
		return []slog.Attr{slog.String("session", sessionName), slog.Int("players", host.Players())}
	}

	// Re-setup logging with file output and optional OTel
	var otelLogProvider *sdklog.LoggerProvider
	if otelProvider != nil {
		otelLogProvider = otelProvider.LoggerProvider()
	}
	slogManager.Setup(logFile, level, otelLogProvider, sinks...)
	logger = slogManager.Logger()
	logger.Info("Logging to file", "path", logFile.Name())

	zl := logging.NewZerolog(logFile, level)

	backend, err := storage.NewBackend(config.GetStorageConfig(), zl.With().Str("component", "storage").Logger())
	if err != nil {
		return err
	}
	if err := backend.Init(); err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}

	host, err = simhost.New(simhost.Options{
		Logger:      logger,
		EventLogger: logging.NewDispatcherLogger(zl.With().Str("component", "dispatcher").Logger()),
		BZDB:        config.GetBZDBConfig(),
	})
	if err != nil {
		_ = backend.Close()
		return err
	}
	recorder := session.NewRecorder(backend, logger)
	host.Observe(recorder)

	angle := config.GetAngle()
	plugin := airshot.New(host, airshot.Dependencies{
		Logger: logger.With("plugin", "airshot"),
		Angle:  &angle,
	})
	if err := host.LoadPlugin(plugin, ""); err != nil {
		_ = backend.Close()
		return err
	}

	err = replay(ctx, host, recorder, plugin, *scenarioPath, sessionStart, &sessionName, stdout, logger)

	host.UnloadAll()
	if ferr := recorder.Flush(); ferr != nil {
		logger.Error("Failed to write ledger", "error", ferr)
		err = errors.Join(err, ferr)
	}
	if cerr := backend.Close(); cerr != nil {
		err = errors.Join(err, fmt.Errorf("closing storage: %w", cerr))
	}
	if exp, ok := backend.(storage.Exporter); ok && exp.ExportedFilePath() != "" {
		fmt.Fprintf(stdout, "ledger: %s\n", exp.ExportedFilePath())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if otelProvider != nil {
		if serr := otelProvider.Shutdown(shutdownCtx); serr != nil {
			logger.Error("OTel shutdown failed", "error", serr)
		}
	}
	_ = slogManager.Flush(shutdownCtx)

	return err
}

func replay(
	ctx context.Context,
	host *simhost.Host,
	recorder *session.Recorder,
	plugin *airshot.Plugin,
	path string,
	start time.Time,
	sessionName *string,
	stdout io.Writer,
	logger *slog.Logger,
) error {
	sc, err := session.LoadScenario(path)
	if err != nil {
		return err
	}
	*sessionName = sc.Name

	if err := recorder.Start(&model.Session{
		Name:      sc.Name,
		Plugin:    plugin.Name(),
		StartTime: start,
		Angle:     host.Double(airshot.AngleVar),
	}); err != nil {
		return err
	}

	report, err := session.NewRunner(host, logger).Run(ctx, sc)
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "%s: %d steps, %d airshots, %d kills\n", sc.Name, report.Steps, report.ServerShots, len(report.Kills))
	for i, k := range report.Kills {
		fmt.Fprintf(stdout, "%3d  %s\n", i+1, session.Describe(k))
	}

	credits := recorder.Credits()
	ids := make([]int, 0, len(credits))
	for id := range credits {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		fmt.Fprintf(stdout, "player %d: %d\n", id, credits[id])
	}
	return nil
}
