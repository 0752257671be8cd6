package index

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// renameWindow is how long a Rename waits for its matching Create.
const renameWindow = 200 * time.Millisecond

// EventHandler receives vault events. Paths are vault-relative and
// '/'-separated; they may name documents or folders.
type EventHandler interface {
	OnCreate(ctx context.Context, path string)
	OnRename(ctx context.Context, path, oldPath string)
	OnModify(ctx context.Context, path string)
	OnDelete(ctx context.Context, path string)
}

// Watch starts an fsnotify watcher on the vault root and dispatches events to
// h until ctx is cancelled. Only Markdown files and directories are reported;
// hidden entries are ignored.
//
// fsnotify reports a rename as a Rename on the old path followed by a Create
// on the new one. The watcher pairs the two into a single OnRename. A Rename
// with no Create inside renameWindow means the entry left the vault and is
// reported as OnDelete.
func Watch(ctx context.Context, h EventHandler, vaultRoot string, logger *slog.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	dirs := make(map[string]struct{})
	if err := addDirsRecursive(w, vaultRoot, dirs); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", vaultRoot))

	var pendingRename string
	var renameTimer *time.Timer
	var renameCh <-chan time.Time

	schedule := func(rel string) {
		pendingRename = rel
		if renameTimer == nil {
			renameTimer = time.NewTimer(renameWindow)
			renameCh = renameTimer.C
		} else {
			renameTimer.Reset(renameWindow)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if renameTimer != nil {
				renameTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-renameCh:
			if pendingRename != "" {
				logger.Debug("watcher: moved out", slog.String("path", pendingRename))
				h.OnDelete(ctx, pendingRename)
				pendingRename = ""
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			absPath := ev.Name
			rel, relErr := filepath.Rel(vaultRoot, absPath)
			if relErr != nil || hiddenPath(rel) {
				continue
			}
			rel = filepath.ToSlash(rel)

			_, wasDir := dirs[absPath]
			isMarkdown := strings.HasSuffix(absPath, ".md")

			switch {
			case ev.Op&fsnotify.Create != 0:
				info, statErr := os.Stat(absPath)
				isDir := statErr == nil && info.IsDir()
				if isDir {
					if addErr := addDirsRecursive(w, absPath, dirs); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", absPath),
							slog.String("error", addErr.Error()))
					}
				} else if !isMarkdown {
					continue
				}

				if pendingRename != "" {
					old := pendingRename
					pendingRename = ""
					if renameTimer != nil {
						renameTimer.Stop()
					}
					logger.Debug("watcher: renamed", slog.String("path", rel), slog.String("old_path", old))
					h.OnRename(ctx, rel, old)
					continue
				}
				logger.Debug("watcher: created", slog.String("path", rel))
				h.OnCreate(ctx, rel)

			case ev.Op&fsnotify.Write != 0:
				if !isMarkdown {
					continue
				}
				logger.Debug("watcher: modified", slog.String("path", rel))
				h.OnModify(ctx, rel)

			case ev.Op&fsnotify.Remove != 0:
				if !isMarkdown && !wasDir {
					continue
				}
				forgetDirs(dirs, absPath)
				logger.Debug("watcher: deleted", slog.String("path", rel))
				h.OnDelete(ctx, rel)

			case ev.Op&fsnotify.Rename != 0:
				if !isMarkdown && !wasDir {
					continue
				}
				forgetDirs(dirs, absPath)
				if pendingRename != "" {
					h.OnDelete(ctx, pendingRename)
				}
				schedule(rel)
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// addDirsRecursive adds root and all its non-hidden subdirectories to the
// watcher and records them in dirs.
func addDirsRecursive(w *fsnotify.Watcher, root string, dirs map[string]struct{}) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		dirs[path] = struct{}{}
		return w.Add(path)
	})
}

// forgetDirs drops abs and everything below it from dirs.
func forgetDirs(dirs map[string]struct{}, abs string) {
	prefix := abs + string(os.PathSeparator)
	for d := range dirs {
		if d == abs || strings.HasPrefix(d, prefix) {
			delete(dirs, d)
		}
	}
}

// hiddenPath reports whether any segment of a relative path is hidden.
func hiddenPath(rel string) bool {
	for _, seg := range strings.Split(filepath.ToSlash(rel), "/") {
		if strings.HasPrefix(seg, ".") && seg != "." {
			return true
		}
	}
	return false
}
