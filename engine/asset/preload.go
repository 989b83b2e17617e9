package asset

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
)

// Preload loads every listed asset concurrently and pins the results so they stay cached
// until Close. The loader is picked by file extension: images become textures, .gltf and
// .glb files become meshes, and .yaml files are read as material definitions.
//
// Parameters:
//   - ctx: cancels assets that have not started loading yet
//   - paths: the asset paths relative to the root
//
// Returns:
//   - error: every load failure joined together, or nil
func (m *manager) Preload(ctx context.Context, paths ...string) error {
	if len(paths) == 0 {
		return nil
	}

	pool := worker.NewDynamicWorkerPool(m.workers, len(paths), 1*time.Second)
	defer pool.Stop()

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		errs   []error
		loaded []any
	)
	for i, path := range paths {
		wg.Add(1)
		pool.SubmitTask(worker.Task{
			ID:      i,
			Payload: path,
			Do: func() (any, error) {
				defer wg.Done()
				if err := ctx.Err(); err != nil {
					mu.Lock()
					errs = append(errs, fmt.Errorf("preload %s: %w", path, err))
					mu.Unlock()
					return nil, err
				}

				asset, err := m.load(path)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					errs = append(errs, fmt.Errorf("preload %s: %w", path, err))
					return nil, err
				}
				loaded = append(loaded, asset)
				return asset, nil
			},
		})
	}
	wg.Wait()

	m.mu.Lock()
	if !m.closed {
		m.pinned = append(m.pinned, loaded...)
	}
	m.mu.Unlock()

	m.logger.Info("preload finished", "requested", len(paths), "loaded", len(loaded), "failed", len(errs))
	return errors.Join(errs...)
}

// load dispatches a path to the loader its extension selects.
func (m *manager) load(path string) (any, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp":
		return m.MakeTexture(path)
	case ".gltf", ".glb":
		return m.MakeStaticMesh(path)
	case ".yaml", ".yml":
		return m.LoadMaterial(path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}
