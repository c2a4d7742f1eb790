package mdpresent

import (
	"context"
	"fmt"
	"io/ioutil"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// Watcher keeps a session's markdown in sync with a file on disk.
type Watcher struct {
	path    string
	session *Session
	log     logrus.FieldLogger
}

func NewWatcher(path string, session *Session, log logrus.FieldLogger) *Watcher {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Watcher{
		path:    filepath.Clean(path),
		session: session,
		log:     log.WithFields(logrus.Fields{"component": "watcher", "file": path}),
	}
}

// Load reads the file into the session once.
func (w *Watcher) Load() error {
	buf, err := ioutil.ReadFile(w.path)
	if err != nil {
		return fmt.Errorf("read markdown: %w", err)
	}
	pres := w.session.UpdateMarkdown(string(buf))
	if pres.Error != "" {
		w.log.WithField("error", pres.Error).Warn("markdown did not parse")
	} else {
		w.log.WithField("slides", pres.TotalSlides).Debug("markdown loaded")
	}
	return nil
}

// Run watches the file until ctx is done. The directory is watched rather
// than the file so editors that replace the file on save keep working.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.log.WithError(err).Warn("watch error")
		case evt, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(evt.Name) != w.path {
				continue
			}
			if evt.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.log.WithField("op", evt.Op.String()).Info("markdown changed, reparsing")
			if err := w.Load(); err != nil {
				w.log.WithError(err).Warn("reload failed")
			}
		}
	}
}
