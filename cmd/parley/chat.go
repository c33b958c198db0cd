package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/parley/internal/logger"
)

func chatCmd() *cli.Command {
	var showProb bool
	return &cli.Command{
		Name:  "chat",
		Usage: "Interactive single-turn loop: every line gets one response",
		Flags: concat(modelFlags(), searchFlags(), corpusFlags(), []cli.Flag{
			&cli.BoolFlag{
				Name:        "show-prob",
				Usage:       "print the response probability",
				Destination: &showProb,
			},
		}),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			r, err := newResponder(cmd, log)
			if err != nil {
				return err
			}
			if stdinIsTTY() {
				fmt.Println("Type a message, /exit or Ctrl+D to quit.")
			}
			for {
				if err := ctx.Err(); err != nil {
					return nil
				}
				line, err := readInteractiveLine("> ")
				if errors.Is(err, io.EOF) {
					return nil
				}
				if err != nil {
					return err
				}
				line = strings.TrimSpace(line)
				switch line {
				case "":
					continue
				case "/exit", "/quit":
					return nil
				}
				resp := r.respond(line)
				if showProb {
					fmt.Printf("%s  (p=%.4g, rounds=%d)\n", resp.Output, resp.Probability, resp.Rounds)
				} else {
					fmt.Println(resp.Output)
				}
			}
		},
	}
}
