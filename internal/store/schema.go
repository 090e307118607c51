package store

// Schema v1 - Initial database schema
const schemaV1 = `
-- Schema version tracking
CREATE TABLE IF NOT EXISTS schema_version (
  version INTEGER PRIMARY KEY,
  applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Files seen under the watch root
CREATE TABLE IF NOT EXISTS files (
  path TEXT PRIMARY KEY,
  checksum TEXT NOT NULL,
  mtime INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_files_checksum ON files(checksum);

-- Subscriber groups
CREATE TABLE IF NOT EXISTS groups (
  group_id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT UNIQUE NOT NULL
);

-- Group members
CREATE TABLE IF NOT EXISTS members (
  member_id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL,
  email TEXT NOT NULL,
  group_id INTEGER,
  FOREIGN KEY (group_id) REFERENCES groups (group_id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_members_group_id ON members(group_id);

-- Albums derived from directory structure. The same album name may appear
-- under several groups (the duplicate-album operation), so name is indexed
-- but not unique; the distinct name set is what reconciliation maintains.
CREATE TABLE IF NOT EXISTS albums (
  album_id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL,
  group_id INTEGER,
  FOREIGN KEY (group_id) REFERENCES groups (group_id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_albums_name ON albums(name);
CREATE INDEX IF NOT EXISTS idx_albums_group_id ON albums(group_id);

-- Albums start out linked to the seeded default group
INSERT OR IGNORE INTO groups (group_id, name) VALUES (1, 'Unassigned');
`
