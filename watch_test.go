package mdpresent

import (
	"context"
	"io/ioutil"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherReloadsMarkdown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slides.md")
	require.NoError(t, ioutil.WriteFile(path, []byte("# One"), 0644))

	session, _ := newTestSession(t, "")
	log := logrus.New()
	log.SetOutput(ioutil.Discard)
	watcher := NewWatcher(path, session, log)
	require.NoError(t, watcher.Load())
	assert.Equal(t, 1, session.Presentation().TotalSlides)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- watcher.Run(ctx)
	}()
	// give the watcher time to register the directory
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, ioutil.WriteFile(path, []byte("# One\n---\n# Two"), 0644))
	require.Eventually(t, func() bool {
		return session.Presentation().TotalSlides == 2
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatcherLoadMissingFile(t *testing.T) {
	session, _ := newTestSession(t, "")
	watcher := NewWatcher(filepath.Join(t.TempDir(), "missing.md"), session, nil)
	assert.Error(t, watcher.Load())
}
