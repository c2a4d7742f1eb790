package mdpresent

import (
	"fmt"
	"io/ioutil"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gobuffalo/packr/v2"
)

var assetBox = packr.New("assets", "./web")

// AssetHandler serves the browser assets.
func AssetHandler() http.Handler {
	return http.FileServer(assetBox)
}

// EmitAssets writes the browser assets into destDir/assets.
func EmitAssets(destDir string) error {
	destPath := filepath.Join(destDir, "assets")
	if err := os.MkdirAll(destPath, 0755); err != nil {
		return fmt.Errorf("create asset dir: %w", err)
	}
	for _, f := range assetBox.List() {
		fPath := filepath.Join(destPath, f)
		if err := os.MkdirAll(filepath.Dir(fPath), 0755); err != nil {
			return fmt.Errorf("create asset dir: %w", err)
		}
		data, err := assetBox.Find(f)
		if err != nil {
			return fmt.Errorf("read asset %s: %w", f, err)
		}
		if err := ioutil.WriteFile(fPath, data, 0644); err != nil {
			return fmt.Errorf("write asset %s: %w", f, err)
		}
	}
	return nil
}
