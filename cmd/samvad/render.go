package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/sonnes/samvad/chatfile"
	"github.com/sonnes/samvad/config"
	"github.com/sonnes/samvad/render"
	htmlrender "github.com/sonnes/samvad/render/html"
	"github.com/sonnes/samvad/render/terminal"
	"github.com/sonnes/samvad/transcript"
)

func renderCmd() *cli.Command {
	return &cli.Command{
		Name:  "render",
		Usage: "Pretty-print the transcript file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "file",
				Aliases: []string{"f"},
				Value:   config.DefaultFile,
				Usage:   "Transcript file to render",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"o"},
				Value:   "terminal",
				Usage:   "Output format: terminal, html",
			},
			&cli.IntFlag{
				Name:  "width",
				Usage: "Terminal output width (0 = auto-detect)",
			},
			&cli.StringFlag{
				Name:  "out",
				Usage: "Write output to a file instead of stdout",
			},
		},
		Action: runRender,
	}
}

func runRender(ctx context.Context, cmd *cli.Command) error {
	store := chatfile.New(cmd.String("file"))
	content, err := store.Read()
	if err != nil {
		return err
	}

	messages := transcript.Parse(content, 0)
	if len(messages) == 0 {
		return fmt.Errorf("no messages in %s", store.Path())
	}

	var renderer render.Renderer
	switch format := cmd.String("format"); format {
	case "terminal":
		renderer = &terminal.Renderer{Width: int(cmd.Int("width"))}
	case "html":
		renderer = htmlrender.New()
	default:
		return fmt.Errorf("unknown output format %q", format)
	}

	w := os.Stdout
	if out := cmd.String("out"); out != "" {
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}
	return renderer.Render(w, messages)
}
