package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"quipcup/app"
	"quipcup/config"
)

func main() {
	cliApp := &cli.App{
		Name:  "quipcup",
		Usage: "live tournament scoring console",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "path to a YAML configuration file",
				EnvVars: []string{"QUIPCUP_CONFIG"},
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			viewCommand(),
			exportCommand(),
			resetCommand(),
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := cliApp.RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the admin console or a viewer server",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "role", Usage: "admin or viewer, overrides ROLE"},
		},
		Action: func(c *cli.Context) error {
			return withApp(c, func(cfg *config.Config) error {
				if role := c.String("role"); role != "" {
					cfg.Role = role
				}
				return cfg.Validate()
			}, func(a *app.App) error {
				return a.Serve(c.Context)
			})
		},
	}
}

func viewCommand() *cli.Command {
	return &cli.Command{
		Name:  "view",
		Usage: "follow the tournament and print the board on every update",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "phase", Usage: "pin a phase id instead of following the live one"},
		},
		Action: func(c *cli.Context) error {
			return withApp(c, func(cfg *config.Config) error {
				cfg.Role = config.RoleViewer
				return cfg.Validate()
			}, func(a *app.App) error {
				return a.Watch(c.Context, os.Stdout, c.String("phase"))
			})
		},
	}
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "write the standings workbook",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Value: "standings.xlsx", Usage: "workbook path"},
			&cli.StringFlag{Name: "chart", Usage: "optional standings chart path (PNG)"},
		},
		Action: func(c *cli.Context) error {
			return withApp(c, nil, func(a *app.App) error {
				return a.Export(c.Context, c.String("out"), c.String("chart"))
			})
		},
	}
}

func resetCommand() *cli.Command {
	return &cli.Command{
		Name:  "reset",
		Usage: "soft reset: clear scores and drafts, keep teams and branding",
		Action: func(c *cli.Context) error {
			return withApp(c, nil, func(a *app.App) error {
				doc, err := a.Reset(c.Context)
				if err != nil {
					return err
				}
				fmt.Printf("reset %q, now at %s\n", doc.TournamentName, doc.CurrentPhase)
				return nil
			})
		},
	}
}

// withApp loads configuration, lets adjust override it, opens the App and
// runs fn against it.
func withApp(c *cli.Context, adjust func(*config.Config) error, fn func(*app.App) error) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if adjust != nil {
		if err := adjust(cfg); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}

	logger, err := config.NewLogger(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	a, err := app.New(c.Context, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("close", zap.Error(err))
		}
	}()
	return fn(a)
}
