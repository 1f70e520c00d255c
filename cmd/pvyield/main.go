package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/joho/godotenv"

	"github.com/chrissnell/pvyield/internal/app"
	"github.com/chrissnell/pvyield/internal/controllers/restserver"
	"github.com/chrissnell/pvyield/internal/log"
	"github.com/chrissnell/pvyield/internal/simulation"
	"github.com/chrissnell/pvyield/pkg/config"
	"github.com/chrissnell/pvyield/pkg/responseformat"
)

const version = "1.0-" + runtime.GOOS + "/" + runtime.GOARCH

func main() {
	cfgFile := flag.String("config", "", "Path to the simulation input document (JSON or YAML)")
	cfgBackend := flag.String("config-backend", "", "Input backend type: 'json' or 'yaml' (default: from file extension)")
	output := flag.String("output", "", "Write the full result to this file (default: summary on stdout)")
	format := flag.String("format", "", "Output format: json, msgpack or csv (default: from -output extension)")
	workers := flag.Int("workers", 0, "Plants simulated in parallel (default: $"+simulation.WorkersEnv+" or number of CPUs)")
	timescale := flag.String("timescaledb", "", "TimescaleDB connection string; overrides the storage section of the input")
	serve := flag.Bool("serve", false, "Serve the REST API instead of running a single simulation")
	listen := flag.String("listen", "", "REST API listen address (default: 0.0.0.0)")
	port := flag.Int("port", 0, "REST API port (default: 8080)")
	cert := flag.String("tls-cert", "", "TLS certificate for the REST API")
	key := flag.String("tls-key", "", "TLS key for the REST API")
	dataDir := flag.String("data-dir", ".", "Directory weather and device files posted to the REST API are read from")
	envFile := flag.String("env", ".env", "Environment file to load if present")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("pvyield %s\n", version)
		os.Exit(0)
	}

	// A missing .env file is not an error.
	if err := godotenv.Load(*envFile); err != nil && !os.IsNotExist(err) {
		fmt.Printf("Failed to load %s: %v\n", *envFile, err)
		os.Exit(1)
	}

	// Set up logging
	if err := log.Init(*debug); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	var provider config.InputProvider
	if *cfgFile != "" {
		filename, _ := filepath.Abs(*cfgFile)
		p, err := config.NewProvider(*cfgBackend, filename)
		if err != nil {
			log.Errorf("Failed to load input: %v", err)
			os.Exit(1)
		}
		provider = p
	} else if !*serve {
		log.Errorf("No input document given. Did you pass the -config flag? Run with -h for help")
		os.Exit(1)
	}

	if *workers == 0 {
		*workers = simulation.WorkersFromEnv()
	}

	opts := app.Options{
		OutputFile: *output,
		Format:     responseformat.Format(*format),
		Serve:      *serve,
		Workers:    *workers,
		Server: restserver.Options{
			ListenAddr: *listen,
			Port:       *port,
			Cert:       *cert,
			Key:        *key,
			DataDir:    *dataDir,
		},
	}
	if *timescale != "" {
		opts.TimescaleDB = &config.TimescaleDBData{ConnectionString: *timescale}
	}

	// Create and run the application
	application := app.New(provider, opts, log.GetSugaredLogger())
	if err := application.Run(context.Background()); err != nil {
		log.Errorf("Application error: %v", err)
		log.Sync()
		os.Exit(1)
	}
}
