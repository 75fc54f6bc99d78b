package catalog

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meridian-pos/meridian-pos/internal/platform/filestore"
)

func writeCatalogFile(t *testing.T, path string, records ...string) {
	t.Helper()
	content := Header + "\n" + strings.Join(records, "\n") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestWatcherReloadsOnExternalEdit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.csv")
	writeCatalogFile(t, path, `p01,Atlas,100,"",40`)

	repo, err := Open(filestore.New(discard(), nil), path, discard())
	require.NoError(t, err)

	w := NewWatcher(repo, 10*time.Millisecond, time.Millisecond, discard(), nil)
	snapshots := make(chan []Product, 1)
	w.OnCatalogChanged(func(products []Product) {
		select {
		case snapshots <- products:
		default:
		}
	})
	w.Start(context.Background())
	defer w.Stop()

	writeCatalogFile(t, path, `p01,Atlas,100,"",40`, `p02,Pen,12,"",300`)
	// Coarse filesystem timestamps could hide back-to-back writes.
	require.NoError(t, os.Chtimes(path, time.Now(), time.Now().Add(time.Second)))

	select {
	case snapshot := <-snapshots:
		require.Len(t, snapshot, 2)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher never reported the external edit")
	}
	require.Equal(t, 2, repo.Count())
}

func TestWatcherStartIsIdempotentAndStopIsSafe(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.csv")
	repo, err := Open(filestore.New(discard(), nil), path, discard())
	require.NoError(t, err)

	w := NewWatcher(repo, 10*time.Millisecond, time.Millisecond, discard(), nil)
	w.Start(context.Background())
	w.Start(context.Background())
	w.Stop()
	w.Stop()
}

func TestWatcherStopsWhenContextCancelled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.csv")
	repo, err := Open(filestore.New(discard(), nil), path, discard())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	w := NewWatcher(repo, 10*time.Millisecond, time.Millisecond, discard(), nil)
	w.Start(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		w.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return after context cancellation")
	}
}
