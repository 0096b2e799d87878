package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/authdemo/console/internal/app"
	"github.com/authdemo/console/internal/client"
	"github.com/authdemo/console/internal/config"
	"github.com/authdemo/console/internal/logging"
	tea "github.com/charmbracelet/bubbletea"
)

func main() {
	configPath := flag.String("config", "", "Path to an optional YAML config file")
	authURL := flag.String("auth", "", "Override the Auth service base URL")
	app1URL := flag.String("app1", "", "Override the App1 service base URL")
	app2URL := flag.String("app2", "", "Override the App2 service base URL")
	pretty := flag.Bool("pretty", false, "Render JSON results with syntax highlighting")
	flag.Parse()

	cfg, err := config.LoadClient(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *authURL != "" {
		cfg.AuthServiceURL = *authURL
	}
	if *app1URL != "" {
		cfg.App1URL = *app1URL
	}
	if *app2URL != "" {
		cfg.App2URL = *app2URL
	}
	if *pretty {
		cfg.Pretty = true
	}

	logFile, err := logging.OpenFile(cfg.LogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()
	logger := logging.Init(cfg.LogLevel, cfg.LogFormat, logFile)

	endpoints := client.Endpoints{
		Auth: cfg.AuthServiceURL,
		App1: cfg.App1URL,
		App2: cfg.App2URL,
	}
	httpClient, err := client.NewHTTPClient(endpoints, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logger.Info("console starting", "auth", endpoints.Auth, "app1", endpoints.App1, "app2", endpoints.App2)

	m := app.New(httpClient, endpoints, app.Options{Pretty: cfg.Pretty})
	p := tea.NewProgram(m, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
