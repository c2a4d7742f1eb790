package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/connctd/mdpresent"
	"github.com/urfave/cli"
)

var (
	httpAddr      string
	targetMinutes int
	noAutoStart   bool
	present       bool
)

var serveCommand = cli.Command{
	Name:        "serve",
	Aliases:     []string{"s"},
	Description: "Serve the presentation with live reload and remote control",
	Usage:       "serve [--addr :8080] [--target 30] slides.md",
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:        "addr",
			Usage:       "Specify the address to listen on",
			Destination: &httpAddr,
		},
		cli.IntFlag{
			Name:        "target",
			Usage:       "Target duration in minutes",
			Destination: &targetMinutes,
		},
		cli.BoolFlag{
			Name:        "no-auto-start",
			Usage:       "Do not start the timer when the presentation starts",
			Destination: &noAutoStart,
		},
		cli.BoolFlag{
			Name:        "present",
			Usage:       "Start presenting right away",
			Destination: &present,
		},
	},
	Action: func(ctx *cli.Context) error {
		path, err := markdownPath(ctx)
		if err != nil {
			return err
		}
		if httpAddr != "" {
			config.Addr = httpAddr
		}
		if targetMinutes > 0 {
			config.Timer.TargetSeconds = int((time.Duration(targetMinutes) * time.Minute).Seconds())
		}
		if noAutoStart {
			config.Timer.AutoStart = false
		}

		cctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		c := make(chan os.Signal, 1)
		signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)

		session := mdpresent.NewSession(config.SessionOptions()...)
		defer session.Close()

		watcher := mdpresent.NewWatcher(path, session, log)
		if err := watcher.Load(); err != nil {
			return err
		}

		server, err := mdpresent.NewPresenterServer(cctx, session, config.Addr, log)
		if err != nil {
			return err
		}
		if err := server.Run(); err != nil {
			return err
		}
		defer server.Close()
		if present {
			session.Start()
		}

		watchErr := make(chan error, 1)
		go func() {
			watchErr <- watcher.Run(cctx)
		}()

		select {
		case <-c:
			log.Info("shutting down")
			return nil
		case err := <-watchErr:
			return err
		}
	},
}
