package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/sonnes/samvad/chatfile"
	"github.com/sonnes/samvad/completion"
	"github.com/sonnes/samvad/config"
	"github.com/sonnes/samvad/driver"
	"github.com/sonnes/samvad/watcher"
)

func watchCmd() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Watch the transcript file and append assistant replies",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "file",
				Aliases: []string{"f"},
				Usage:   "Transcript file to watch",
			},
			&cli.StringFlag{
				Name:  "model",
				Usage: "Model identifier",
			},
			&cli.StringFlag{
				Name:  "base-url",
				Usage: "Chat-completions endpoint base URL",
			},
			&cli.IntFlag{
				Name:  "max-context",
				Usage: "Conversation window size",
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "Config file path",
			},
		},
		Action: runWatch,
	}
}

func runWatch(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return err
	}

	// Flags win over file values.
	if v := cmd.String("file"); v != "" {
		cfg.File = v
	}
	if v := cmd.String("model"); v != "" {
		cfg.Model = v
	}
	if v := cmd.String("base-url"); v != "" {
		cfg.BaseURL = v
	}
	if v := cmd.Int("max-context"); v > 0 {
		cfg.MaxContext = int(v)
	}
	if cfg.Model == "" {
		cfg.Model = completion.DefaultModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = completion.DefaultBaseURL
	}

	store := chatfile.New(cfg.File)
	if err := store.Ensure(); err != nil {
		return err
	}

	client := &completion.Client{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
	}

	d := driver.New(store, client, driver.Config{
		MaxContext: cfg.MaxContext,
		Debounce:   cfg.Debounce(),
		Logger:     log.With("component", "driver"),
	})

	w, err := watcher.New(cfg.File, log.With("component", "watcher"))
	if err != nil {
		return err
	}
	defer w.Close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("init: watching transcript", "file", cfg.File, "model", cfg.Model)
	fmt.Printf("Monitoring %s for new messages...\n", cfg.File)
	fmt.Println("Type your message and press Enter twice to send.")

	err = d.Run(ctx, w.Events())

	stats := d.Stats()
	log.Info("stopped", "replies", stats[driver.Replied], "failures", stats[driver.Failed])
	return err
}
