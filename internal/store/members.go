package store

import (
	"database/sql"
	"fmt"

	"github.com/lzande/pixel-sentinel/internal/util"
)

// CreateGroup adds a new subscriber group with a unique name
func (s *Store) CreateGroup(name string) error {
	return s.Transaction(func(tx *sql.Tx) error {
		if _, err := tx.Exec("INSERT INTO groups (name) VALUES (?)", name); err != nil {
			return fmt.Errorf("failed to create group: %w", err)
		}
		return nil
	})
}

// GroupExists reports whether a group with the given name exists
func (s *Store) GroupExists(name string) (bool, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM groups WHERE name = ?", name).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check group: %w", err)
	}
	return count > 0, nil
}

// GetGroupByID retrieves a group, or nil if absent
func (s *Store) GetGroupByID(id int64) (*Group, error) {
	g := &Group{}
	err := s.db.QueryRow(
		"SELECT group_id, name FROM groups WHERE group_id = ?", id,
	).Scan(&g.ID, &g.Name)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}

	return g, nil
}

// GetGroups returns all groups ordered by id
func (s *Store) GetGroups() ([]Group, error) {
	rows, err := s.db.Query("SELECT group_id, name FROM groups ORDER BY group_id")
	if err != nil {
		return nil, fmt.Errorf("failed to query groups: %w", err)
	}
	defer rows.Close()

	var groups []Group
	for rows.Next() {
		var g Group
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, g)
	}

	return groups, rows.Err()
}

// DeleteGroup removes a group and all of its members in one transaction
func (s *Store) DeleteGroup(id int64) error {
	return s.Transaction(func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM members WHERE group_id = ?", id); err != nil {
			return fmt.Errorf("failed to delete group members: %w", err)
		}
		if _, err := tx.Exec("DELETE FROM groups WHERE group_id = ?", id); err != nil {
			return fmt.Errorf("failed to delete group: %w", err)
		}
		return nil
	})
}

// AddMember adds a subscriber to a group
func (s *Store) AddMember(name, email string, groupID int64) error {
	return s.Transaction(func(tx *sql.Tx) error {
		if _, err := tx.Exec(
			"INSERT INTO members (name, email, group_id) VALUES (?, ?, ?)",
			name, email, groupID,
		); err != nil {
			return fmt.Errorf("failed to add member: %w", err)
		}
		return nil
	})
}

// GetMembers returns the members of a group
func (s *Store) GetMembers(groupID int64) ([]Member, error) {
	rows, err := s.db.Query(
		"SELECT member_id, name, email, group_id FROM members WHERE group_id = ? ORDER BY member_id",
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query members: %w", err)
	}
	defer rows.Close()

	var members []Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.GroupID); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, m)
	}

	return members, rows.Err()
}

// RemoveMember removes a member from a group
func (s *Store) RemoveMember(memberID, groupID int64) error {
	return s.Transaction(func(tx *sql.Tx) error {
		res, err := tx.Exec(
			"DELETE FROM members WHERE member_id = ? AND group_id = ?", memberID, groupID,
		)
		if err != nil {
			return fmt.Errorf("failed to remove member: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return fmt.Errorf("%w: member %d in group %d", util.ErrNotFound, memberID, groupID)
		}
		return nil
	})
}

// Subscriber is a (name, email) pair that should receive an album alert
type Subscriber struct {
	Name  string
	Email string
}

// Subscribers resolves the unique subscribers for an album across every group
// the album is linked to. Deduplication by (name, email) happens in the query.
func (s *Store) Subscribers(albumName string) ([]Subscriber, error) {
	rows, err := s.db.Query(`
		SELECT DISTINCT members.name, members.email
		FROM albums
		JOIN groups ON albums.group_id = groups.group_id
		JOIN members ON members.group_id = groups.group_id
		WHERE albums.name = ?
		ORDER BY members.name, members.email
	`, albumName)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve subscribers: %w", err)
	}
	defer rows.Close()

	var subs []Subscriber
	for rows.Next() {
		var sub Subscriber
		if err := rows.Scan(&sub.Name, &sub.Email); err != nil {
			return nil, fmt.Errorf("failed to scan subscriber: %w", err)
		}
		subs = append(subs, sub)
	}

	return subs, rows.Err()
}
