package album

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lzande/pixel-sentinel/internal/report"
	"github.com/lzande/pixel-sentinel/internal/store"
	"github.com/lzande/pixel-sentinel/internal/util"
)

// KeyDelimiter replaces the path separator in album display keys
const KeyDelimiter = " - "

// DeriveKey maps a relative file path to its album key: the containing
// directory with path separators replaced for display. Files at the watch
// root land in the "." album.
func DeriveKey(relPath string) string {
	dir := filepath.Dir(filepath.Clean(relPath))
	return strings.ReplaceAll(dir, string(filepath.Separator), KeyDelimiter)
}

// CountByKey tallies paths per album key
func CountByKey(paths []string) map[string]int {
	counts := make(map[string]int)
	for _, p := range paths {
		counts[DeriveKey(p)]++
	}
	return counts
}

// Index maintains the persisted album set against the current file set
type Index struct {
	store  *store.Store
	events *report.EventLogger
}

// New creates a new album Index
func New(st *store.Store, events *report.EventLogger) *Index {
	return &Index{store: st, events: events}
}

// Reconcile makes the persisted album name set equal the set of keys derived
// from all current file records: missing albums are created under the default
// group, orphaned albums are removed. Runs after every reconciliation pass
// and is idempotent.
func (ix *Index) Reconcile() (created, removed []string, err error) {
	files, err := ix.store.LoadFiles()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load files: %w", err)
	}

	derived := make(map[string]bool, len(files))
	for path := range files {
		derived[DeriveKey(path)] = true
	}

	persisted, err := ix.store.AlbumNames()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load albums: %w", err)
	}

	for key := range derived {
		if !persisted[key] {
			created = append(created, key)
		}
	}
	for name := range persisted {
		if !derived[name] {
			removed = append(removed, name)
		}
	}
	sort.Strings(created)
	sort.Strings(removed)

	for _, key := range created {
		if err := ix.store.InsertAlbum(key, store.DefaultGroupID); err != nil {
			return created, removed, fmt.Errorf("failed to create album %q: %w", key, err)
		}
		util.InfoLog("Album %q created", key)
		ix.events.LogAlbum("create", key)
	}

	for _, name := range removed {
		if err := ix.store.DeleteAlbumByName(name); err != nil {
			return created, removed, fmt.Errorf("failed to remove album %q: %w", name, err)
		}
		util.InfoLog("Album %q removed", name)
		ix.events.LogAlbum("remove", name)
	}

	return created, removed, nil
}
