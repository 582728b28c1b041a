package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/marcus/agentview/internal/app"
	"github.com/marcus/agentview/internal/config"
	"github.com/marcus/agentview/internal/prefs"
	"github.com/marcus/agentview/internal/source"
	"github.com/marcus/agentview/internal/source/gateway"
	"github.com/marcus/agentview/internal/source/local"
)

// version is injected at build time via -ldflags.
var version = ""

var (
	configPath  = flag.String("config", "", "path to config file")
	dataDir     = flag.String("data-dir", "", "local session directory (overrides config)")
	gatewayURL  = flag.String("gateway", "", "gateway base URL (overrides config, implies gateway mode)")
	debugFlag   = flag.Bool("debug", false, "enable debug logging")
	showVersion = flag.Bool("version", false, "print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(effectiveVersion(version))
		return
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprintln(os.Stderr, "agentview requires a terminal")
		os.Exit(1)
	}

	// Setup logging
	logLevel := slog.LevelInfo
	if *debugFlag {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))

	// Load configuration
	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *dataDir != "" {
		cfg.Source.DataDir = *dataDir
	}
	if *gatewayURL != "" {
		cfg.Source.Mode = "gateway"
		cfg.Source.GatewayURL = *gatewayURL
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}

	// Select the session source
	var src source.Source
	switch cfg.Source.Mode {
	case "gateway":
		src = gateway.New(cfg.Source.GatewayURL)
	default:
		src = local.New(cfg.DataDir())
	}

	// Open display preferences
	store, err := prefs.Open(cfg.PrefsPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open preferences: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	// Create and run application
	model, err := app.New(cfg, src, store, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	p := tea.NewProgram(model, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running application: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFrom(path)
	}
	return config.Load()
}

// effectiveVersion returns the injected version, falling back to module
// build info.
func effectiveVersion(v string) string {
	if v != "" {
		return v
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "unknown"
}
