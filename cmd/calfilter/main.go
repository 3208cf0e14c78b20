package main

import (
	"context"
	"flag"
	"net"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"calfilter/internal/config"
	appLog "calfilter/internal/log"
	"calfilter/internal/web"
)

const version = "1.0.0"

type flagConfig struct {
	configPath string
	listen     string
	port       string
	debug      bool
}

func main() {
	flags := parseFlags()

	conf, err := config.Load(flags.configPath)
	if err != nil && conf != nil {
		// First run with an unwritable config location.
		appLog.Warn("could not write default config; continuing with defaults", "config_path", flags.configPath, "err", err)
	} else if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}

	// Precedence: flags > environment > config file > defaults.
	if err := conf.ApplyEnv(); err != nil {
		appLog.Error("invalid environment", err)
		os.Exit(1)
	}
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	if flags.port != "" {
		if err := conf.SetPort(flags.port); err != nil {
			appLog.Error("invalid -port", err)
			os.Exit(1)
		}
	}
	if flags.debug {
		conf.LogLevel = "debug"
	}
	conf.Normalize()
	appLog.SetLevel(appLog.ParseLevel(conf.LogLevel))

	appLog.Info("calfilter starting", "version", version)
	appLog.Info("effective config",
		"listen", conf.Listen,
		"default_start_day", conf.DefaultStartDay,
		"default_end_day", conf.DefaultEndDay,
		"fetch_timeout", conf.FetchTimeout().String(),
		"metrics_path", conf.MetricsPath,
		"log_level", conf.LogLevel,
	)
	printUsage(conf)

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	srv := web.NewServer(conf)
	if err := srv.ListenAndServe(ctx); err != nil {
		appLog.Error("HTTP server failed", err)
		os.Exit(1)
	}
	appLog.Info("calfilter exiting")
}

// printUsage logs how to query the service.
func printUsage(conf *config.Config) {
	appLog.Info("try: curl 'http://localhost" + portSuffix(conf.Listen) + "/?start=0&end=2'")
	appLog.Info("query parameters",
		"url", "iCal URL (optional)",
		"start", "start day offset from today (0 = today, 1 = tomorrow, ...)",
		"end", "end day offset from today (must be greater than start)",
		"plaintext", "set to 'true' for one summary per line",
	)
}

func portSuffix(listen string) string {
	_, port, err := net.SplitHostPort(listen)
	if err != nil {
		return ""
	}
	return ":" + port
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "", "Path to YAML config file (created with defaults if missing)")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address, e.g. :8080 (overrides config)")
	flag.StringVar(&cfg.port, "port", "", "HTTP port on all interfaces (overrides -listen port)")
	flag.BoolVar(&cfg.debug, "debug", false, "Enable debug logging")

	flag.Parse()

	return cfg
}
