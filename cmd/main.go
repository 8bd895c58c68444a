package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"thermal_guard/internal/config"
	"thermal_guard/internal/hal"
	"thermal_guard/internal/handlers"
	"thermal_guard/internal/logger"
	"thermal_guard/internal/metrics"
	"thermal_guard/internal/models"
	"thermal_guard/internal/repository"
	"thermal_guard/internal/repository/db"
	"thermal_guard/internal/server"
	"thermal_guard/internal/service"
	"thermal_guard/internal/thermal"
)

const (
	shutdownTimeout = 10 * time.Second
	connectTimeout  = 10 * time.Second
)

// @title        Thermal Guard API
// @version      1.0
// @description  Heater regulation and thermal protection driven by Marlin configuration headers.
// @BasePath     /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Type "Bearer" followed by a space and the token.
func main() {
	configPath := flag.String("config", "", "path to config.yml (default: configs/config.yml)")
	dumpConfig := flag.Bool("dump-config", false, "print the resolved firmware configuration as YAML and exit")
	flag.Parse()

	// load config.yml
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.New(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}
	log := logger.Get(cfg.Log.Level)

	defines, err := config.LoadHeaders(cfg.Firmware.Headers)
	if err != nil {
		log.Fatalw("error reading firmware headers", "headers", cfg.Firmware.Headers, "err", err)
	}
	generatedKey := cfg.Auth.SigningKey == ""
	if generatedKey {
		cfg.Auth.SigningKey = randomKey()
	}
	reg, err := config.NewRegistry(cfg, defines)
	if err != nil {
		log.Fatalw("invalid firmware configuration", "err", err)
	}

	if *dumpConfig {
		out, err := service.NewConfigService(reg).YAML()
		if err != nil {
			log.Fatalw("failed to encode config", "err", err)
		}
		fmt.Print(string(out))
		return
	}
	if generatedKey {
		log.Warnw("auth.signing_key not set; using a random key, tokens will not survive a restart")
	}

	// open DB
	conn, err := db.InitDB(cfg.DB.Path)
	if err != nil {
		log.Fatalw("failed to init sqlite", "path", cfg.DB.Path, "err", err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()
	repos := repository.NewRepository(conn)

	adc := thermal.ADCSpec{Max: cfg.HAL.ADCMax(), VRef: cfg.HAL.VRef, PullupOhms: cfg.HAL.PullupOhms}
	board, sim, err := openBoard(cfg, reg.Channels(), adc, log)
	if err != nil {
		log.Fatalw("failed to open board", "driver", cfg.HAL.Driver, "err", err)
	}
	defer func() {
		if cerr := board.Close(); cerr != nil {
			log.Errorw("failed to close board", "err", cerr)
		}
	}()

	// wire the control loop
	reader, err := thermal.NewSensorReader(reg.Channels(), board, adc)
	if err != nil {
		log.Fatalw("failed to build sensor reader", "err", err)
	}
	prom := metrics.NewPromObs()
	loop, err := thermal.NewLoop(reg.Channels(), reader, board, thermal.LoopConfig{
		SensorBudget:    cfg.Control.SensorBudget,
		MaxSensorErrors: cfg.Control.MaxSensorErrors,
		Observer:        prom,
	}, log)
	if err != nil {
		log.Fatalw("failed to build control loop", "err", err)
	}

	recorder := service.NewRecorder(loop.Events(), loop.Snapshot, repos, cfg.Control.SnapshotEvery, log)
	if err := recorder.ReportPrevious(context.Background()); err != nil {
		log.Warnw("failed to load previous heater states", "err", err)
	}

	deps := service.Deps{
		Repos:    repos,
		Loop:     loop,
		Registry: reg,
		Inputs:   board,
		Stream:   recorder,
	}
	if sim != nil {
		deps.Sim = sim
	}
	services := service.NewService(deps)
	apiHandler := handlers.NewHandler(services, log, prom.Handler())

	// context for background goroutines
	loopCtx, stopLoop := context.WithCancel(context.Background())
	recCtx, stopRecorder := context.WithCancel(context.Background())
	defer stopRecorder()

	go loop.Run(loopCtx, cfg.Control.Tick)
	recDone := make(chan struct{})
	go func() {
		defer close(recDone)
		recorder.Run(recCtx)
	}()
	log.Infow("control loop started",
		"machine", reg.Machine().Name,
		"heaters", len(reg.Channels()),
		"driver", cfg.HAL.Driver,
		"tick", cfg.Control.Tick)

	// start HTTP server
	srv := &server.Server{}
	runHTTPServer(srv, cfg.Port, apiHandler, log)

	// graceful shutdown
	waitForShutdown(srv, log)

	// the loop turns every heater off on exit; record that before the
	// recorder stops
	stopLoop()
	<-loop.Done()
	stopRecorder()
	<-recDone
	log.Infow("stopped")
}

// openBoard connects the configured hardware driver. The returned Sim is
// non-nil only for the simulation driver.
func openBoard(cfg config.App, channels []models.HeaterChannel, adc thermal.ADCSpec, log *logger.Logger) (hal.Board, *hal.Sim, error) {
	switch cfg.HAL.Driver {
	case config.DriverSerial:
		board, err := hal.OpenSerial(cfg.HAL.Serial, log)
		if err != nil {
			if ports, perr := hal.SerialPorts(); perr == nil {
				log.Infow("available serial ports", "ports", ports)
			}
			return nil, nil, err
		}
		return board, nil, nil
	case config.DriverOPCUA:
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()
		board, err := hal.OpenOPCUA(ctx, cfg.HAL.OPCUA, log)
		if err != nil {
			return nil, nil, err
		}
		return board, nil, nil
	}

	plants := make([]hal.Plant, 0, len(channels))
	for _, ch := range channels {
		conv, err := thermal.NewConverter(ch.SensorType, adc)
		if err != nil {
			return nil, nil, fmt.Errorf("channel %s: %w", ch.ID, err)
		}
		rate := cfg.HAL.Sim.HotendRate
		if ch.ID.IsBed() {
			rate = cfg.HAL.Sim.BedRate
		}
		plants = append(plants, hal.Plant{
			AnalogPin: ch.AnalogPin,
			PWMPin:    ch.PWMPin,
			RateCPerS: rate,
			Encoder:   conv,
		})
	}
	sim := hal.NewSim(cfg.HAL.Sim, adc.Max, plants)
	return sim, sim, nil
}

func randomKey() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b)
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if port == "" {
			port = "8080"
		}
		log.Infow("http server listening", "port", port)
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown blocks until SIGINT or SIGTERM, then drains the HTTP server.
func waitForShutdown(srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
}
