package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/viper"

	_ "voltage_sweeper/docs"
	"voltage_sweeper/internal/handlers"
	"voltage_sweeper/internal/instrument"
	"voltage_sweeper/internal/logger"
	"voltage_sweeper/internal/repository"
	"voltage_sweeper/internal/repository/db"
	"voltage_sweeper/internal/server"
	"voltage_sweeper/internal/service"
	"voltage_sweeper/internal/sweep"
)

// @title        Voltage Sweeper API
// @version      1.0
// @description  Bench automation service for power-supply voltage sweeps.
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// load config.yml first so the log level comes from it
	if err := loadConfig(); err != nil {
		logger.Get(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}
	log := logger.Get(viper.GetString("log.level"))

	// open DB
	sqlDB, err := openDB(log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	// ensure the CSV export directory exists before the first run finishes
	exportDir := viper.GetString("export.dir")
	if exportDir == "" {
		exportDir = "exports"
	}
	if err := os.MkdirAll(exportDir, 0o755); err != nil {
		log.Fatalw("failed to create export dir", "dir", exportDir, "err", err)
	}

	// connect instrument ports (real bench hardware or simulators)
	psu, uart, closePorts, err := buildPorts(log)
	if err != nil {
		log.Fatalw("failed to connect instruments", "err", err)
	}
	defer closePorts()

	// wire dependencies
	repos := repository.NewRepository(sqlDB)
	services := service.NewService(repos, service.Deps{
		PSU:       psu,
		UART:      uart,
		ExportDir: exportDir,
		Log:       log,
	})
	apiHandler := handlers.NewHandler(services, log)

	// start HTTP server
	srv := &server.Server{}
	runHTTPServer(srv, viper.GetString("port"), apiHandler, log)

	// graceful shutdown
	waitForShutdown(srv, services, log)
}

func loadConfig() error {
	viper.AddConfigPath("configs") // configs/config.yml
	viper.SetConfigName("config")
	return viper.ReadInConfig()
}

// openDB initializes the SQLite database using configuration.
func openDB(log *logger.Logger) (*sql.DB, error) {
	dbPath := viper.GetString("db.path")
	if dbPath == "" {
		log.Infow("db.path not set in config; using default file", "default", "sweeper.db")
		dbPath = "sweeper.db"
	}
	return db.Init(dbPath)
}

// buildPorts constructs and connects the command and signal ports. With
// instrument.simulate the whole stack runs against in-process simulators.
func buildPorts(log *logger.Logger) (sweep.CommandPort, sweep.SignalPort, func(), error) {
	if viper.GetBool("instrument.simulate") {
		log.Infow("instrument simulation enabled")
		psu := instrument.NewSimPSU(viper.GetFloat64("psu.max_voltage"))
		uart := instrument.NewSimUART(
			viper.GetDuration("uart.sim_delay"),
		)
		return psu, uart, func() {}, nil
	}

	psu := instrument.NewPSU(instrument.PSUConfig{
		Addr:       viper.GetString("psu.addr"),
		MaxVoltage: viper.GetFloat64("psu.max_voltage"),
		MaxCurrent: viper.GetFloat64("psu.max_current"),
	}, log)
	if err := psu.Connect(); err != nil {
		return nil, nil, nil, err
	}

	closers := []func(){func() { _ = psu.Close() }}
	closeAll := func() {
		for _, f := range closers {
			f()
		}
	}

	// The serial link is optional; without it only UART-gated sweeps are
	// rejected, everything else works.
	var sigPort sweep.SignalPort
	if port := viper.GetString("uart.port"); port != "" {
		uart := instrument.NewUART(instrument.UARTConfig{
			Port:     port,
			BaudRate: viper.GetInt("uart.baud_rate"),
		}, log)
		if err := uart.Connect(); err != nil {
			closeAll()
			return nil, nil, nil, err
		}
		closers = append(closers, func() { _ = uart.Close() })
		sigPort = uart
	}

	return psu, sigPort, closeAll, nil
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if port == "" {
			port = "8080"
		}
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(srv *server.Server, services *service.Service, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// stop a running sweep so outputs are de-energized before exit
	if err := services.Sweep.Stop(context.Background()); err != nil && err != service.ErrNoActiveSweep {
		log.Errorw("failed to stop sweep during shutdown", "err", err)
	}

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalw("server forced to shutdown", "err", err)
	}
}
