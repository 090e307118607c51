package store

import (
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	st, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	return st
}

func TestStoreOpenAndMigrate(t *testing.T) {
	st := openTestStore(t)

	version, err := st.getSchemaVersion()
	if err != nil {
		t.Fatalf("failed to get schema version: %v", err)
	}
	if version != currentSchemaVersion {
		t.Errorf("expected schema version %d, got %d", currentSchemaVersion, version)
	}

	tables := []string{"files", "albums", "groups", "members", "schema_version"}
	for _, table := range tables {
		var count int
		err := st.db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
		if err != nil {
			t.Fatalf("failed to query table %s: %v", table, err)
		}
		if count != 1 {
			t.Errorf("expected table %s to exist", table)
		}
	}

	// The default group is seeded by the schema
	g, err := st.GetGroupByID(DefaultGroupID)
	if err != nil {
		t.Fatalf("failed to get default group: %v", err)
	}
	if g == nil || g.Name != "Unassigned" {
		t.Errorf("expected seeded default group, got %+v", g)
	}
}

func TestFileUpsertAndLoad(t *testing.T) {
	st := openTestStore(t)

	f := FileRecord{Path: "A/1.jpg", Checksum: "fp1", Mtime: 100}
	if err := st.UpsertFile(&f); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	// Upsert under the same path replaces the record
	f2 := FileRecord{Path: "A/1.jpg", Checksum: "fp2", Mtime: 200}
	if err := st.UpsertFile(&f2); err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}

	files, err := st.LoadFiles()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("expected 1 record, got %d", len(files))
	}
	got := files["A/1.jpg"]
	if got.Checksum != "fp2" || got.Mtime != 200 {
		t.Errorf("unexpected record after upsert: %+v", got)
	}
}

func TestRenameFileInPlace(t *testing.T) {
	st := openTestStore(t)

	if err := st.UpsertFile(&FileRecord{Path: "A/1.jpg", Checksum: "fp1", Mtime: 100}); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	if err := st.RenameFile("A/1.jpg", "B/1.jpg"); err != nil {
		t.Fatalf("rename failed: %v", err)
	}

	files, _ := st.LoadFiles()
	if len(files) != 1 {
		t.Fatalf("expected 1 record, got %d", len(files))
	}
	got, ok := files["B/1.jpg"]
	if !ok {
		t.Fatal("expected record at new path")
	}
	if got.Checksum != "fp1" || got.Mtime != 100 {
		t.Errorf("rename must preserve checksum and mtime, got %+v", got)
	}
}

func TestRenameFileDropsStaleRow(t *testing.T) {
	st := openTestStore(t)

	// A pass that already upserted the new path leaves a stale old row;
	// rename must keep the fresher new-path record.
	st.UpsertFile(&FileRecord{Path: "A/1.jpg", Checksum: "fp1", Mtime: 100})
	st.UpsertFile(&FileRecord{Path: "B/1.jpg", Checksum: "fp1", Mtime: 150})

	if err := st.RenameFile("A/1.jpg", "B/1.jpg"); err != nil {
		t.Fatalf("rename failed: %v", err)
	}

	files, _ := st.LoadFiles()
	if len(files) != 1 {
		t.Fatalf("expected 1 record, got %d", len(files))
	}
	if got := files["B/1.jpg"]; got.Mtime != 150 {
		t.Errorf("expected the upserted record to win, got %+v", got)
	}
}

func TestDeleteFile(t *testing.T) {
	st := openTestStore(t)

	st.UpsertFile(&FileRecord{Path: "A/1.jpg", Checksum: "fp1", Mtime: 100})
	if err := st.DeleteFile("A/1.jpg"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	count, err := st.CountFiles()
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 0 {
		t.Errorf("expected 0 files, got %d", count)
	}
}

func TestAlbumOperations(t *testing.T) {
	st := openTestStore(t)

	if err := st.InsertAlbum("Vacation", DefaultGroupID); err != nil {
		t.Fatalf("insert album failed: %v", err)
	}

	names, err := st.AlbumNames()
	if err != nil {
		t.Fatalf("album names failed: %v", err)
	}
	if !names["Vacation"] {
		t.Error("expected album Vacation to exist")
	}

	albums, err := st.GetAlbums()
	if err != nil {
		t.Fatalf("get albums failed: %v", err)
	}
	if len(albums) != 1 {
		t.Fatalf("expected 1 album, got %d", len(albums))
	}

	// Duplicate under a second group keeps one name, two rows
	if err := st.CreateGroup("Family"); err != nil {
		t.Fatalf("create group failed: %v", err)
	}
	groups, _ := st.GetGroups()
	var familyID int64
	for _, g := range groups {
		if g.Name == "Family" {
			familyID = g.ID
		}
	}

	if err := st.DuplicateAlbum(albums[0].ID, familyID); err != nil {
		t.Fatalf("duplicate album failed: %v", err)
	}

	albums, _ = st.GetAlbums()
	if len(albums) != 2 {
		t.Fatalf("expected 2 album rows after duplicate, got %d", len(albums))
	}
	names, _ = st.AlbumNames()
	if len(names) != 1 {
		t.Errorf("expected 1 distinct album name, got %d", len(names))
	}

	// Deleting by name removes every row carrying it
	if err := st.DeleteAlbumByName("Vacation"); err != nil {
		t.Fatalf("delete album failed: %v", err)
	}
	albums, _ = st.GetAlbums()
	if len(albums) != 0 {
		t.Errorf("expected no album rows, got %d", len(albums))
	}
}

func TestUpdateAlbumGroup(t *testing.T) {
	st := openTestStore(t)

	st.CreateGroup("Friends")
	st.InsertAlbum("Party", DefaultGroupID)

	albums, _ := st.GetAlbums()
	groups, _ := st.GetGroups()
	var friendsID int64
	for _, g := range groups {
		if g.Name == "Friends" {
			friendsID = g.ID
		}
	}

	if err := st.UpdateAlbumGroup(albums[0].ID, friendsID); err != nil {
		t.Fatalf("update album group failed: %v", err)
	}

	withGroups, err := st.GetAlbumsWithGroups()
	if err != nil {
		t.Fatalf("get albums with groups failed: %v", err)
	}
	if len(withGroups) != 1 || withGroups[0].GroupName != "Friends" {
		t.Errorf("expected album linked to Friends, got %+v", withGroups)
	}
}

func TestDeleteGroupCascadesMembers(t *testing.T) {
	st := openTestStore(t)

	st.CreateGroup("Club")
	groups, _ := st.GetGroups()
	var clubID int64
	for _, g := range groups {
		if g.Name == "Club" {
			clubID = g.ID
		}
	}

	st.AddMember("Alice", "alice@example.com", clubID)
	st.AddMember("Bob", "bob@example.com", clubID)

	if err := st.DeleteGroup(clubID); err != nil {
		t.Fatalf("delete group failed: %v", err)
	}

	members, err := st.GetMembers(clubID)
	if err != nil {
		t.Fatalf("get members failed: %v", err)
	}
	if len(members) != 0 {
		t.Errorf("expected members removed with group, got %d", len(members))
	}
}

func TestSubscribersDeduplicated(t *testing.T) {
	st := openTestStore(t)

	st.CreateGroup("G1")
	st.CreateGroup("G2")
	groups, _ := st.GetGroups()
	var g1, g2 int64
	for _, g := range groups {
		switch g.Name {
		case "G1":
			g1 = g.ID
		case "G2":
			g2 = g.ID
		}
	}

	// Carol is in both groups; the album is linked to both
	st.AddMember("Carol", "carol@example.com", g1)
	st.AddMember("Carol", "carol@example.com", g2)
	st.AddMember("Dave", "dave@example.com", g2)

	st.InsertAlbum("Trip", g1)
	st.InsertAlbum("Trip", g2)

	subs, err := st.Subscribers("Trip")
	if err != nil {
		t.Fatalf("subscribers failed: %v", err)
	}

	if len(subs) != 2 {
		t.Fatalf("expected 2 unique subscribers, got %d: %+v", len(subs), subs)
	}
	if subs[0].Name != "Carol" || subs[1].Name != "Dave" {
		t.Errorf("unexpected subscriber order: %+v", subs)
	}
}
