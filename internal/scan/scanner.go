package scan

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/lzande/pixel-sentinel/internal/util"
)

// DefaultExcludedDirs are directory names never descended into.
// Synology keeps snapshot and thumbnail trees inside shared folders.
var DefaultExcludedDirs = []string{"#snapshot", "@eaDir"}

// DefaultExcludedFiles are file names never reported
var DefaultExcludedFiles = []string{"Thumbs.db"}

// Entry is one regular file observed under the watch root
type Entry struct {
	RelPath   string // path relative to the root, the store key
	AbsPath   string // absolute path for hashing
	MtimeUnix int64
}

// Scanner walks a directory tree and reports the files it contains
type Scanner struct {
	root         string
	excludeDirs  map[string]bool
	excludeFiles map[string]bool
}

// Config holds scanner configuration
type Config struct {
	Root         string
	ExcludeDirs  []string // defaults applied when nil
	ExcludeFiles []string // defaults applied when nil
}

// New creates a new Scanner
func New(cfg *Config) *Scanner {
	dirs := cfg.ExcludeDirs
	if dirs == nil {
		dirs = DefaultExcludedDirs
	}
	files := cfg.ExcludeFiles
	if files == nil {
		files = DefaultExcludedFiles
	}

	dirMap := make(map[string]bool, len(dirs))
	for _, d := range dirs {
		dirMap[d] = true
	}
	fileMap := make(map[string]bool, len(files))
	for _, f := range files {
		fileMap[f] = true
	}

	return &Scanner{
		root:         cfg.Root,
		excludeDirs:  dirMap,
		excludeFiles: fileMap,
	}
}

// Scan walks the root and returns every regular file under it, excluding
// configured directory and file names. Excluded directories are pruned during
// traversal, so their descendants are never visited. WalkDir visits entries in
// lexical order, so the result is deterministic for a given tree.
//
// A missing root is fatal: no partial scan is attempted.
func (s *Scanner) Scan() ([]Entry, error) {
	info, err := os.Stat(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", util.ErrRootMissing, s.root)
		}
		return nil, fmt.Errorf("failed to stat watch root %s: %w", s.root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", util.ErrRootMissing, s.root)
	}

	var entries []Entry

	walkErr := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			util.WarnLog("Error accessing path %s: %v", path, err)
			return nil // Continue walking
		}

		name := d.Name()

		if d.IsDir() {
			if path != s.root && s.excludeDirs[name] {
				util.DebugLog("Pruning excluded directory: %s", path)
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}

		if s.excludeFiles[name] {
			util.DebugLog("Skipping excluded file: %s", path)
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			util.WarnLog("Error reading info for %s: %v", path, err)
			return nil
		}

		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return fmt.Errorf("failed to relativize %s: %w", path, err)
		}

		entries = append(entries, Entry{
			RelPath:   rel,
			AbsPath:   path,
			MtimeUnix: fi.ModTime().Unix(),
		})

		return nil
	})

	if walkErr != nil {
		return nil, fmt.Errorf("walk error: %w", walkErr)
	}

	util.DebugLog("Scan found %d files under %s", len(entries), s.root)
	return entries, nil
}
