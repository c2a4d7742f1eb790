package main

import (
	"encoding/json"
	"os"

	"github.com/urfave/cli"
)

var parseCommand = cli.Command{
	Name:    "parse",
	Aliases: []string{"p"},
	Usage:   "parse slides.md, print the slides as JSON",
	Action: func(ctx *cli.Context) error {
		path, err := markdownPath(ctx)
		if err != nil {
			return err
		}
		pres, err := parseFile(path)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(pres)
	},
}
