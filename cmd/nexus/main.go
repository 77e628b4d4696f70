package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/csheth/nexus/internal/gemini"
	"github.com/csheth/nexus/internal/pipeline"
	"github.com/csheth/nexus/internal/store"
	"github.com/csheth/nexus/internal/tui"
)

func main() {
	cachePath := flag.String("cache", store.DefaultLocalPath(), "path to the local transcript cache")
	noAltScreen := flag.Bool("no-alt-screen", false, "disable the alternate screen buffer")
	model := flag.String("model", "", "override the default Gemini model")
	search := flag.Bool("search", false, "enable search grounding for generation")
	clientID := flag.String("drive-client-id", os.Getenv("NEXUS_DRIVE_CLIENT_ID"), "OAuth client id enabling Drive sync")
	clientSecret := flag.String("drive-client-secret", os.Getenv("NEXUS_DRIVE_CLIENT_SECRET"), "OAuth client secret")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()

	logger, err := buildLogger(*verbose)
	if err != nil {
		fmt.Println("failed to initialize logger:", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()

	var responder tui.Responder
	providerName := ""
	client, err := gemini.NewFromEnv(ctx, gemini.Config{Model: *model})
	if err != nil {
		fmt.Println("Generation disabled:", err)
	} else {
		providerName = client.Name()
		responder = pipeline.New(client, pipeline.Config{
			Options: pipeline.Options{EnableSearch: *search},
			Logger:  logger,
		})
	}

	var session *store.Session
	if *clientID != "" {
		session, err = store.Authenticate(store.SessionConfig{
			ClientID:     *clientID,
			ClientSecret: *clientSecret,
			TokenPath:    filepath.Join(filepath.Dir(*cachePath), "drive_token.json"),
		})
		if err != nil {
			fmt.Println("Cloud sync disabled:", err)
		}
	}

	opts := []tea.ProgramOption{}
	if !*noAltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	program := tea.NewProgram(
		tui.New(tui.Config{
			Responder:    responder,
			ProviderName: providerName,
			Local:        store.NewLocal(*cachePath, logger),
			Session:      session,
			Logger:       logger,
		}),
		opts...,
	)

	if _, err := program.Run(); err != nil {
		fmt.Println("program error:", err)
		os.Exit(1)
	}
}

func buildLogger(verbose bool) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	config.OutputPaths = []string{"stderr"}
	if verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	} else {
		config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	}
	return config.Build()
}
