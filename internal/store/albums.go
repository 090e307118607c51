package store

import (
	"database/sql"
	"fmt"
)

// AlbumNames returns the distinct set of persisted album names
func (s *Store) AlbumNames() (map[string]bool, error) {
	rows, err := s.db.Query("SELECT DISTINCT name FROM albums")
	if err != nil {
		return nil, fmt.Errorf("failed to query album names: %w", err)
	}
	defer rows.Close()

	names := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan album name: %w", err)
		}
		names[name] = true
	}

	return names, rows.Err()
}

// InsertAlbum creates an album linked to the given group
func (s *Store) InsertAlbum(name string, groupID int64) error {
	return s.Transaction(func(tx *sql.Tx) error {
		if _, err := tx.Exec(
			"INSERT INTO albums (name, group_id) VALUES (?, ?)", name, groupID,
		); err != nil {
			return fmt.Errorf("failed to insert album: %w", err)
		}
		return nil
	})
}

// DeleteAlbumByName removes every album row carrying the given name,
// including duplicates linked to other groups
func (s *Store) DeleteAlbumByName(name string) error {
	return s.Transaction(func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM albums WHERE name = ?", name); err != nil {
			return fmt.Errorf("failed to delete album: %w", err)
		}
		return nil
	})
}

// AlbumExists reports whether any album row carries the given name
func (s *Store) AlbumExists(name string) (bool, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM albums WHERE name = ?", name).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check album: %w", err)
	}
	return count > 0, nil
}

// GetAlbumByID retrieves an album, or nil if absent
func (s *Store) GetAlbumByID(id int64) (*Album, error) {
	a := &Album{}
	err := s.db.QueryRow(
		"SELECT album_id, name, group_id FROM albums WHERE album_id = ?", id,
	).Scan(&a.ID, &a.Name, &a.GroupID)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get album: %w", err)
	}

	return a, nil
}

// GetAlbums returns all albums ordered by name
func (s *Store) GetAlbums() ([]Album, error) {
	rows, err := s.db.Query(
		"SELECT album_id, name, group_id FROM albums ORDER BY name ASC",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query albums: %w", err)
	}
	defer rows.Close()

	var albums []Album
	for rows.Next() {
		var a Album
		if err := rows.Scan(&a.ID, &a.Name, &a.GroupID); err != nil {
			return nil, fmt.Errorf("failed to scan album: %w", err)
		}
		albums = append(albums, a)
	}

	return albums, rows.Err()
}

// AlbumWithGroup pairs an album with its linked group name for display
type AlbumWithGroup struct {
	ID        int64
	Name      string
	GroupName string
}

// GetAlbumsWithGroups returns all albums joined with their group names
func (s *Store) GetAlbumsWithGroups() ([]AlbumWithGroup, error) {
	rows, err := s.db.Query(`
		SELECT albums.album_id, albums.name, groups.name
		FROM albums
		JOIN groups ON groups.group_id = albums.group_id
		ORDER BY albums.name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query albums: %w", err)
	}
	defer rows.Close()

	var albums []AlbumWithGroup
	for rows.Next() {
		var a AlbumWithGroup
		if err := rows.Scan(&a.ID, &a.Name, &a.GroupName); err != nil {
			return nil, fmt.Errorf("failed to scan album: %w", err)
		}
		albums = append(albums, a)
	}

	return albums, rows.Err()
}

// UpdateAlbumGroup relinks an album to a different group
func (s *Store) UpdateAlbumGroup(albumID, groupID int64) error {
	return s.Transaction(func(tx *sql.Tx) error {
		if _, err := tx.Exec(
			"UPDATE albums SET group_id = ? WHERE album_id = ?", groupID, albumID,
		); err != nil {
			return fmt.Errorf("failed to update album group: %w", err)
		}
		return nil
	})
}

// DuplicateAlbum inserts a copy of an album under a new group, so a second
// subscriber group receives alerts for the same directory
func (s *Store) DuplicateAlbum(albumID, groupID int64) error {
	return s.Transaction(func(tx *sql.Tx) error {
		var name string
		err := tx.QueryRow(
			"SELECT name FROM albums WHERE album_id = ?", albumID,
		).Scan(&name)
		if err != nil {
			return fmt.Errorf("failed to look up album: %w", err)
		}

		if _, err := tx.Exec(
			"INSERT INTO albums (name, group_id) VALUES (?, ?)", name, groupID,
		); err != nil {
			return fmt.Errorf("failed to duplicate album: %w", err)
		}
		return nil
	})
}
