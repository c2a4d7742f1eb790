package main

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/connctd/mdpresent"
	"github.com/urfave/cli"
)

var defaultDistDir = "./dist"

var renderCommand = cli.Command{
	Name:    "render",
	Aliases: []string{"build", "r", "b"},
	Usage:   "render slides.md [dist]",
	Action: func(ctx *cli.Context) error {
		path, err := markdownPath(ctx)
		if err != nil {
			return err
		}
		distDir := ctx.Args().Get(1)
		if distDir == "" {
			distDir = defaultDistDir
		}
		pres, err := parseFile(path)
		if err != nil {
			return err
		}
		if pres.Error != "" {
			return fmt.Errorf("parse %s: %s", path, pres.Error)
		}
		if err := os.MkdirAll(distDir, 0755); err != nil {
			return err
		}
		if err := mdpresent.EmitAssets(distDir); err != nil {
			return err
		}
		indexBytes, err := mdpresent.RenderDeck(pres)
		if err != nil {
			return err
		}
		indexPath := filepath.Join(distDir, "index.html")
		if err := ioutil.WriteFile(indexPath, indexBytes, 0644); err != nil {
			return err
		}
		log.WithField("slides", pres.TotalSlides).WithField("out", indexPath).Info("rendered presentation")
		return nil
	},
}

var assetsCommand = cli.Command{
	Name:  "assets",
	Usage: "assets [dist]",
	Action: func(ctx *cli.Context) error {
		distDir := ctx.Args().First()
		if distDir == "" {
			distDir = defaultDistDir
		}
		return mdpresent.EmitAssets(distDir)
	},
}

func parseFile(path string) (*mdpresent.Presentation, error) {
	buf, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return mdpresent.Parse(string(buf)), nil
}
