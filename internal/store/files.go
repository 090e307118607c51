package store

import (
	"database/sql"
	"fmt"
)

// LoadFiles returns all file records keyed by relative path.
// This is the prior-state snapshot a reconciliation pass diffs against.
func (s *Store) LoadFiles() (map[string]FileRecord, error) {
	rows, err := s.db.Query("SELECT path, checksum, mtime FROM files")
	if err != nil {
		return nil, fmt.Errorf("failed to query files: %w", err)
	}
	defer rows.Close()

	files := make(map[string]FileRecord)
	for rows.Next() {
		var f FileRecord
		if err := rows.Scan(&f.Path, &f.Checksum, &f.Mtime); err != nil {
			return nil, fmt.Errorf("failed to scan file: %w", err)
		}
		files[f.Path] = f
	}

	return files, rows.Err()
}

// UpsertFile inserts or replaces the record for a path
func (s *Store) UpsertFile(f *FileRecord) error {
	return s.Transaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO files (path, checksum, mtime)
			VALUES (?, ?, ?)
			ON CONFLICT(path) DO UPDATE SET
				checksum = excluded.checksum,
				mtime = excluded.mtime
		`, f.Path, f.Checksum, f.Mtime)
		if err != nil {
			return fmt.Errorf("failed to upsert file: %w", err)
		}
		return nil
	})
}

// RenameFile moves a record from oldPath to newPath. When a pass has already
// upserted a record at newPath (the usual case for a detected move), the stale
// oldPath row is dropped and the fresher row wins; otherwise the path is
// mutated in place, preserving checksum and mtime.
func (s *Store) RenameFile(oldPath, newPath string) error {
	return s.Transaction(func(tx *sql.Tx) error {
		var n int
		if err := tx.QueryRow(
			"SELECT COUNT(*) FROM files WHERE path = ?", newPath,
		).Scan(&n); err != nil {
			return fmt.Errorf("failed to check rename target: %w", err)
		}

		if n > 0 {
			if _, err := tx.Exec("DELETE FROM files WHERE path = ?", oldPath); err != nil {
				return fmt.Errorf("failed to drop stale path: %w", err)
			}
			return nil
		}

		if _, err := tx.Exec(
			"UPDATE files SET path = ? WHERE path = ?", newPath, oldPath,
		); err != nil {
			return fmt.Errorf("failed to rename file: %w", err)
		}
		return nil
	})
}

// DeleteFile removes the record for a path
func (s *Store) DeleteFile(path string) error {
	return s.Transaction(func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM files WHERE path = ?", path); err != nil {
			return fmt.Errorf("failed to delete file: %w", err)
		}
		return nil
	})
}

// CountFiles returns the number of tracked files
func (s *Store) CountFiles() (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM files").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count files: %w", err)
	}
	return count, nil
}
