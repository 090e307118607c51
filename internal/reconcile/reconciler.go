package reconcile

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/lzande/pixel-sentinel/internal/report"
	"github.com/lzande/pixel-sentinel/internal/scan"
	"github.com/lzande/pixel-sentinel/internal/store"
	"github.com/lzande/pixel-sentinel/internal/util"
	"github.com/schollz/progressbar/v3"
)

// AddedFile is a file that is new for notification purposes: a previously
// unseen path, or a known path whose content was replaced
type AddedFile struct {
	Path     string
	Checksum string
}

// Move pairs the prior and current path of a file whose bytes did not change
type Move struct {
	OldPath string
	NewPath string
}

// Result summarizes one reconciliation pass
type Result struct {
	Added   []AddedFile
	Moved   []Move
	Deleted []string

	Hashed  int // files fingerprinted this pass
	Reused  int // files whose stored fingerprint was trusted via mtime
	Skipped int // unreadable files left out of the pass
}

// Reconciler diffs a scan against the persisted file state and updates the
// store to match. It holds no state between runs; every pass reloads the
// prior state and re-derives truth from the filesystem.
type Reconciler struct {
	store  *store.Store
	events *report.EventLogger
}

// Config holds reconciler configuration
type Config struct {
	Store  *store.Store
	Events *report.EventLogger
}

// New creates a new Reconciler
func New(cfg *Config) *Reconciler {
	return &Reconciler{
		store:  cfg.Store,
		events: cfg.Events,
	}
}

// Run processes one scan: fingerprints new or touched files, upserts them,
// then classifies every difference against the prior state as an addition,
// a move, or a deletion and applies it to the store.
//
// Store mutation failures are fatal for the pass; unreadable files are
// logged, skipped, and picked up again on the next run.
func (r *Reconciler) Run(entries []scan.Entry) (*Result, error) {
	prior, err := r.store.LoadFiles()
	if err != nil {
		return nil, fmt.Errorf("failed to load prior state: %w", err)
	}

	result := &Result{}

	current, err := r.process(entries, prior, result)
	if err != nil {
		return nil, err
	}

	if err := r.classify(entries, prior, current, result); err != nil {
		return result, err
	}

	return result, nil
}

// process upserts every scan entry into the store, fingerprinting only files
// whose path is unknown or whose mtime changed. A matching mtime is trusted:
// the stored fingerprint is reused without touching the file's bytes.
func (r *Reconciler) process(entries []scan.Entry, prior map[string]store.FileRecord, result *Result) (map[string]store.FileRecord, error) {
	current := make(map[string]store.FileRecord, len(entries))

	var bar *progressbar.ProgressBar
	if util.IsTerminal(os.Stdout.Fd()) && !util.IsQuiet() {
		width := 40
		if w := util.GetTerminalWidth(); w < 80 {
			width = w / 2
		}
		bar = progressbar.NewOptions(len(entries),
			progressbar.OptionSetDescription("Reconciling"),
			progressbar.OptionSetWidth(width),
			progressbar.OptionShowCount(),
			progressbar.OptionThrottle(200*time.Millisecond),
			progressbar.OptionClearOnFinish(),
		)
	}

	for _, e := range entries {
		if bar != nil {
			bar.Add(1)
		}

		rec, known := prior[e.RelPath]
		if known && rec.Mtime == e.MtimeUnix {
			result.Reused++
			current[e.RelPath] = rec
			continue
		}

		checksum, err := util.Fingerprint(e.AbsPath)
		if err != nil {
			util.WarnLog("Skipping unreadable file %s: %v", e.AbsPath, err)
			r.events.LogSkip(e.RelPath, err)
			result.Skipped++
			if known {
				// Keep the prior record so the file is not mistaken
				// for a deletion; the next pass retries the hash.
				current[e.RelPath] = rec
			}
			continue
		}
		result.Hashed++

		f := store.FileRecord{Path: e.RelPath, Checksum: checksum, Mtime: e.MtimeUnix}
		if err := r.store.UpsertFile(&f); err != nil {
			return nil, fmt.Errorf("failed to record %s: %w", e.RelPath, err)
		}
		current[e.RelPath] = f
	}

	if bar != nil {
		bar.Finish()
	}

	return current, nil
}

// classify computes the Added, Moved, and Deleted sets against the prior
// state and applies moves and deletions to the store.
func (r *Reconciler) classify(entries []scan.Entry, prior, current map[string]store.FileRecord, result *Result) error {
	// Reverse index prior checksum -> path. Duplicate-content files collapse
	// to one entry, last path in lexical order winning. Which duplicate a
	// move resolves to is a known ambiguity, not a disambiguation.
	priorPaths := make([]string, 0, len(prior))
	for p := range prior {
		priorPaths = append(priorPaths, p)
	}
	sort.Strings(priorPaths)

	reverse := make(map[string]string, len(prior))
	for _, p := range priorPaths {
		reverse[prior[p].Checksum] = p
	}

	// Moves first: same bytes under a new path, with the old path gone from
	// the tree. The old path staying put means a copy, which is an addition.
	movedNew := make(map[string]bool)
	claimed := make(map[string]bool)

	for _, e := range entries {
		cur, ok := current[e.RelPath]
		if !ok {
			continue // skipped as unreadable
		}

		old, ok := reverse[cur.Checksum]
		if !ok || old == e.RelPath || claimed[old] {
			continue
		}
		if _, stillThere := current[old]; stillThere {
			continue
		}

		if err := r.store.RenameFile(old, e.RelPath); err != nil {
			return fmt.Errorf("failed to apply move %s -> %s: %w", old, e.RelPath, err)
		}

		result.Moved = append(result.Moved, Move{OldPath: old, NewPath: e.RelPath})
		movedNew[e.RelPath] = true
		claimed[old] = true
		r.events.LogMove(old, e.RelPath)
	}

	// Added: unknown path, or known path with replaced content. Moved files
	// are moves, not additions.
	for _, e := range entries {
		cur, ok := current[e.RelPath]
		if !ok || movedNew[e.RelPath] {
			continue
		}

		old, known := prior[e.RelPath]
		if !known || old.Checksum != cur.Checksum {
			result.Added = append(result.Added, AddedFile{Path: e.RelPath, Checksum: cur.Checksum})
			r.events.LogAdd(e.RelPath, cur.Checksum)
		}
	}

	// Deleted: prior paths no longer on disk and not consumed by a move
	for _, p := range priorPaths {
		if _, ok := current[p]; ok || claimed[p] {
			continue
		}

		if err := r.store.DeleteFile(p); err != nil {
			return fmt.Errorf("failed to delete record %s: %w", p, err)
		}
		result.Deleted = append(result.Deleted, p)
		r.events.LogDelete(p)
	}

	return nil
}
