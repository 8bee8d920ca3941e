package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/muesli/termenv"
	"github.com/peterh/liner"
	"github.com/suPer8Hu/focusbot/internal/cli"
	"github.com/suPer8Hu/focusbot/internal/client"
	"github.com/suPer8Hu/focusbot/internal/logger"
	"github.com/suPer8Hu/focusbot/internal/session"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "focusbot:", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	// failures the user already sees inline stay out of the terminal
	log, err := logger.New(getEnv("FOCUSBOT_LOG_LEVEL", "error"), "console")
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	statePath := os.Getenv("FOCUSBOT_STATE")
	if statePath == "" {
		if statePath, err = session.DefaultStatePath(); err != nil {
			return err
		}
	}
	store, err := session.OpenFileStorage(statePath)
	if err != nil {
		return err
	}

	timeout := time.Duration(0)
	if v := os.Getenv("FOCUSBOT_TIMEOUT"); v != "" {
		if timeout, err = time.ParseDuration(v); err != nil {
			secs, aerr := strconv.Atoi(v)
			if aerr != nil {
				return fmt.Errorf("FOCUSBOT_TIMEOUT: %w", err)
			}
			timeout = time.Duration(secs) * time.Second
		}
	}
	api := client.New(getEnv("FOCUSBOT_API_URL", client.DefaultBaseURL), timeout)

	ctrl := session.NewController(api, store, log, termenv.HasDarkBackground)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	if ctrl.RestoreSession(ctx) {
		log.Info("session restored", zap.String("email", ctrl.State().User.Email))
	}

	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	historyFile := filepath.Join(filepath.Dir(statePath), "input_history")
	if f, err := os.Open(historyFile); err == nil {
		_, _ = line.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.OpenFile(historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600); err == nil {
			_, _ = line.WriteHistory(f)
			_ = f.Close()
		}
		_ = line.Close()
	}()

	out := termenv.NewOutput(os.Stdout)
	repl := cli.New(ctrl, line, os.Stdout, cli.NewRenderer(os.Stdout, out.EnvColorProfile()))
	return repl.Run(ctx)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
