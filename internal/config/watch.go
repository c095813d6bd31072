package config

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/farm-maintenance/internal/maintenance"
)

// WatchCatalog reloads the catalog at path whenever the file is written or
// replaced and hands the new catalog to onChange. It runs until ctx is
// cancelled. A reload that fails to parse or validate is logged and the
// previous catalog stays in effect.
func WatchCatalog(ctx context.Context, path string, onChange func(maintenance.Catalog)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Watch the directory: a rename over the file drops a watch on the file itself.
	target := filepath.Clean(path)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return err
	}

	log.WithField("path", path).Info("Watching maintenance catalog")

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			catalog, err := LoadCatalog(path)
			if err != nil {
				log.WithError(err).WithField("path", path).Error("Catalog reload failed, keeping previous catalog")
				continue
			}

			log.WithFields(log.Fields{"path": path, "tasks": len(catalog.Tasks)}).Info("Catalog reloaded")
			onChange(catalog)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.WithError(err).Error("Catalog watcher error")
		}
	}
}
