package main

import (
	"os"

	"github.com/connctd/mdpresent"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"
)

var (
	configPath string
	config     mdpresent.Config
	log        *logrus.Logger
)

func main() {
	app := cli.NewApp()
	app.Name = "mdp"
	app.Usage = "Present markdown slides"
	app.Version = mdpresent.Version
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:        "config, c",
			Usage:       "YAML config file",
			Destination: &configPath,
		},
	}
	app.Before = setup
	app.Commands = []cli.Command{
		serveCommand,
		renderCommand,
		parseCommand,
		assetsCommand,
	}

	if err := app.Run(os.Args); err != nil {
		if log != nil {
			log.WithError(err).Error("mdp failed")
		} else {
			logrus.WithError(err).Error("mdp failed")
		}
		os.Exit(1)
	}
}

func setup(ctx *cli.Context) (err error) {
	config, err = mdpresent.LoadConfig(configPath)
	if err != nil {
		return err
	}
	log, err = mdpresent.NewLogger(config.Logging)
	return err
}

// markdownPath resolves the markdown file from the first argument or the
// config.
func markdownPath(ctx *cli.Context) (string, error) {
	if p := ctx.Args().First(); p != "" {
		return p, nil
	}
	if config.Markdown != "" {
		return config.Markdown, nil
	}
	return "", mdpresent.ErrNoMarkdownSource
}
