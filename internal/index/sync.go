package index

import (
	"log/slog"

	"github.com/starford/foldernote/internal/storage"
)

// Sync drops ledger entries whose child file no longer exists in the vault.
func Sync(db LinkIndex, store storage.Provider, logger *slog.Logger) error {
	metas, err := store.List("")
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Path] = struct{}{}
	}

	removed, err := db.Prune(disk)
	if err != nil {
		return err
	}
	if removed > 0 {
		logger.Debug("sync: removed stale links", slog.Int("count", removed))
	}
	return nil
}
