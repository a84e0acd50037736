package catalog

import "testing"

func TestUpsertFileResetsIndexedCommit(t *testing.T) {
	c := NewMemCatalog()
	path := []byte("src/main.go")

	if err := c.UpsertFile("r1", "master", path, "c1"); err != nil {
		t.Fatal(err)
	}
	if err := c.MarkFileIndexed("r1", "master", path, "c1"); err != nil {
		t.Fatal(err)
	}

	pending, err := c.ListFilesNeedingIndex("r1")
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected no pending files after indexing, got %d", len(pending))
	}

	// a new commit touches the same path again
	if err := c.UpsertFile("r1", "master", path, "c2"); err != nil {
		t.Fatal(err)
	}
	pending, err = c.ListFilesNeedingIndex("r1")
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 || pending[0].ChangedCommitID != "c2" {
		t.Fatalf("expected one pending file at c2, got %+v", pending)
	}
}

func TestUpsertFileOpaquePathBytes(t *testing.T) {
	c := NewMemCatalog()
	// non-UTF-8 path bytes must round-trip unharmed
	path := []byte{0xff, 0xfe, 'x', 0x00, 'y'}

	if err := c.UpsertFile("r1", "master", path, "c1"); err != nil {
		t.Fatal(err)
	}
	pending, err := c.ListFilesNeedingIndex("r1")
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending file, got %d", len(pending))
	}
	if string(pending[0].Path) != string(path) {
		t.Fatalf("path bytes mismatch: got %x want %x", pending[0].Path, path)
	}
}

func TestMarkFileDeletedReopensNeedsIndexThenDrains(t *testing.T) {
	c := NewMemCatalog()
	path := []byte("gone.txt")

	if err := c.UpsertFile("r1", "master", path, "c1"); err != nil {
		t.Fatal(err)
	}
	if err := c.MarkFileIndexed("r1", "master", path, "c1"); err != nil {
		t.Fatal(err)
	}
	if err := c.MarkFileDeleted("r1", "master", path); err != nil {
		t.Fatal(err)
	}

	pending, err := c.ListFilesNeedingIndex("r1")
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 || !pending[0].Deleted {
		t.Fatalf("expected deleted file surfaced once for the indexer to retract, got %+v", pending)
	}

	// indexer acknowledges the retraction by marking it indexed again
	if err := c.MarkFileIndexed("r1", "master", path, "c1"); err != nil {
		t.Fatal(err)
	}
	pending, err = c.ListFilesNeedingIndex("r1")
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected deleted file to stop resurfacing after ack, got %+v", pending)
	}
}

func TestCreateCommitIfAbsentIdempotent(t *testing.T) {
	c := NewMemCatalog()
	if err := c.CreateCommitIfAbsent("r1", "c1"); err != nil {
		t.Fatal(err)
	}
	if err := c.MarkCommitIndexed("r1", "c1"); err != nil {
		t.Fatal(err)
	}
	// re-discovering the same commit (e.g. via a merge from another branch)
	// must not clobber its Indexed state back to NotIndexed.
	if err := c.CreateCommitIfAbsent("r1", "c1"); err != nil {
		t.Fatal(err)
	}
	notIndexed, err := c.ListCommitsNotIndexed("r1")
	if err != nil {
		t.Fatal(err)
	}
	if len(notIndexed) != 0 {
		t.Fatalf("expected c1 to stay indexed, got not-indexed list %+v", notIndexed)
	}
}

func TestClearCommitsForHistoryRewrite(t *testing.T) {
	c := NewMemCatalog()
	if err := c.CreateCommitIfAbsent("r1", "c1"); err != nil {
		t.Fatal(err)
	}
	if err := c.ClearCommits("r1"); err != nil {
		t.Fatal(err)
	}
	notIndexed, err := c.ListCommitsNotIndexed("r1")
	if err != nil {
		t.Fatal(err)
	}
	if len(notIndexed) != 0 {
		t.Fatalf("expected empty commit set after ClearCommits, got %+v", notIndexed)
	}
}

func TestBranchIndexedCommitRoundtrip(t *testing.T) {
	c := NewMemCatalog()
	if err := c.InsertBranch(&Branch{RepoID: "r1", Name: "master"}); err != nil {
		t.Fatal(err)
	}
	b, err := c.FindBranch("r1", "master")
	if err != nil {
		t.Fatal(err)
	}
	if b == nil || b.IndexedCommitID != nil {
		t.Fatalf("expected fresh branch with nil IndexedCommitID, got %+v", b)
	}
	if err := c.MarkBranchIndexed("r1", "master", "c9"); err != nil {
		t.Fatal(err)
	}
	b, err = c.FindBranch("r1", "master")
	if err != nil {
		t.Fatal(err)
	}
	if b.IndexedCommitID == nil || *b.IndexedCommitID != "c9" {
		t.Fatalf("expected IndexedCommitID c9, got %+v", b)
	}
}
