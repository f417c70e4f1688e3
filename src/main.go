package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"tabledb/src/auth"
	"tabledb/src/directors"
	"tabledb/src/engine"
	"tabledb/src/helpers"
	"tabledb/src/metrics"
	"tabledb/src/server"
	"tabledb/src/settings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// printUsage prints helpful usage information
func printUsage() {
	log.Println("tabledb - A small in-memory relational store")
	log.Println("\nUsage:")
	log.Println("  tabledb [options]")
	log.Println("\nOptions:")
	flag.PrintDefaults()

	log.Println("\nExamples:")
	log.Println("  tabledb --datadir=/data")
	log.Println("  tabledb --port=1777 --metrics=:9090 --auth --users=admin:secret")
}

func main() {
	args := settings.GetSettings()

	flag.StringVar(&args.DataDir, "datadir", "./datafiles", "Directory to store database files")
	flag.StringVar(&args.Host, "host", "127.0.0.1", "Host name or IP address to listen on")
	flag.IntVar(&args.Port, "port", 1777, "Port for the TCP server")
	flag.StringVar(&args.MetricsAddr, "metrics", "", "Address for the Prometheus metrics endpoint (empty to disable)")
	flag.BoolVar(&args.Verbose, "verbose", false, "Enable verbose logging")
	flag.BoolVar(&args.Debug, "debug", false, "Enable debug mode")
	flag.BoolVar(&args.AuthEnabled, "auth", false, "Enable authentication")
	flag.StringVar(&args.Users, "users", "", "Comma separated name:password pairs to create at startup")
	flag.StringVar(&args.Version, "version", "0.1.0", "Shows version")

	flag.Parse()

	if err := validateArguments(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n\n", err)
		printUsage()
		os.Exit(1)
	}

	logger, err := newLogger(args)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	if args.Verbose {
		sugar.Infow("tabledb starting",
			"dataDir", args.DataDir,
			"host", args.Host,
			"port", args.Port,
			"metrics", args.MetricsAddr,
			"auth", args.AuthEnabled,
			"version", args.Version)
	}

	if err := run(args, sugar); err != nil {
		sugar.Errorw("Server exited with error", "error", err)
		logger.Sync()
		os.Exit(1)
	}
}

func newLogger(args *settings.Arguments) (*zap.Logger, error) {
	if args.Debug {
		// Development configuration with more verbose output
		z := zap.NewDevelopmentConfig()
		z.OutputPaths = []string{"stdout"}
		return z.Build()
	}
	z := zap.NewProductionConfig()
	if args.Verbose {
		z.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return z.Build()
}

// run wires the components together and blocks until a shutdown signal.
func run(args *settings.Arguments, logger *zap.SugaredLogger) error {
	store, err := engine.NewDatabaseStore(args.DataDir, logger)
	if err != nil {
		return fmt.Errorf("failed to create database store: %w", err)
	}

	var recorder *metrics.Recorder
	if args.MetricsAddr != "" {
		recorder = metrics.NewRecorder()
	}

	service := directors.NewDatabaseService(engine.NewDatabaseFactory(store), logger, recorder)

	users, err := seedUsers(args.Users)
	if err != nil {
		return err
	}
	if args.AuthEnabled && len(users.ListUsers()) == 0 {
		logger.Warn("Authentication enabled but no users configured; every connection will be rejected")
	}

	srv := server.NewServer(args, service, users, logger)
	if err := srv.Start(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutting down server...")
		return srv.Stop()
	})

	if recorder != nil {
		metricsServer := &http.Server{
			Addr:              args.MetricsAddr,
			Handler:           recorder.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}

		g.Go(func() error {
			logger.Infow("Metrics endpoint listening", "addr", args.MetricsAddr)
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})

		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return metricsServer.Shutdown(shutdownCtx)
		})
	}

	return g.Wait()
}

// seedUsers builds the credential store from name:password pairs.
func seedUsers(list string) (*auth.UserStore, error) {
	users := auth.NewUserStore(auth.DefaultParams)
	for _, entry := range strings.Split(list, ",") {
		entry = helpers.StripQuotes(entry)
		if entry == "" {
			continue
		}
		name, password, ok := strings.Cut(entry, ":")
		if !ok {
			return nil, fmt.Errorf("invalid user entry %q: expected name:password", entry)
		}
		if err := users.AddUser(helpers.StripQuotes(name), helpers.StripQuotes(password)); err != nil {
			return nil, err
		}
	}
	return users, nil
}

// validateArguments validates the arguments and returns an error if invalid
func validateArguments(args *settings.Arguments) error {
	// Check if data directory exists and is accessible
	dirInfo, err := os.Stat(args.DataDir)
	if err != nil {
		if os.IsNotExist(err) {
			// Try to create the directory
			err = os.MkdirAll(args.DataDir, 0755)
			if err != nil {
				return fmt.Errorf("could not create data directory: %w", err)
			}
		} else {
			return fmt.Errorf("error accessing data directory: %w", err)
		}
	} else if !dirInfo.IsDir() {
		return fmt.Errorf("data directory path exists but is not a directory: %s", args.DataDir)
	}

	// Validate port range
	if args.Port < 1 || args.Port > 65535 {
		return fmt.Errorf("invalid port number: %d (must be between 1 and 65535)", args.Port)
	}

	if args.MetricsAddr != "" && args.MetricsAddr == fmt.Sprintf("%s:%d", args.Host, args.Port) {
		return fmt.Errorf("metrics address %s collides with the server address", args.MetricsAddr)
	}

	if args.AuthEnabled && strings.TrimSpace(args.Users) == "" {
		return fmt.Errorf("-auth requires at least one user in -users")
	}

	return nil
}
