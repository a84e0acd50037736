package gitbackend

import (
	"testing"
	"time"

	git2go "github.com/libgit2/git2go/v31"

	"lab.nexedi.com/kirr/codelauf/internal/gitid"
)

// fixtureRepo builds a throwaway on-disk repository via git2go directly (no
// shell-out to git, no testdata bundles) so gitbackend can be exercised
// without any external fixture.
type fixtureRepo struct {
	dir  string
	repo *git2go.Repository
}

func newFixtureRepo(t *testing.T) *fixtureRepo {
	t.Helper()
	dir := t.TempDir()
	repo, err := git2go.InitRepository(dir, false)
	if err != nil {
		t.Fatalf("init repo: %v", err)
	}
	t.Cleanup(repo.Free)
	return &fixtureRepo{dir: dir, repo: repo}
}

func (f *fixtureRepo) blob(t *testing.T, content string) *git2go.Oid {
	t.Helper()
	odb, err := f.repo.Odb()
	if err != nil {
		t.Fatalf("odb: %v", err)
	}
	oid, err := odb.Write([]byte(content), git2go.ObjectBlob)
	if err != nil {
		t.Fatalf("write blob: %v", err)
	}
	return oid
}

// commit writes a single top-level tree {path: content, ...} and a commit
// on top of it, parented on parents.
func (f *fixtureRepo) commit(t *testing.T, files map[string]string, parents ...*git2go.Commit) *git2go.Commit {
	t.Helper()
	tb, err := f.repo.TreeBuilder()
	if err != nil {
		t.Fatalf("tree builder: %v", err)
	}
	defer tb.Free()

	for name, content := range files {
		oid := f.blob(t, content)
		if err := tb.Insert(name, oid, git2go.FilemodeBlob); err != nil {
			t.Fatalf("tree insert %s: %v", name, err)
		}
	}
	treeOid, err := tb.Write()
	if err != nil {
		t.Fatalf("tree write: %v", err)
	}
	tree, err := f.repo.LookupTree(treeOid)
	if err != nil {
		t.Fatalf("lookup tree: %v", err)
	}
	defer tree.Free()

	sig := &git2go.Signature{Name: "tester", Email: "tester@example.com", When: time.Unix(1700000000, 0)}
	commitOid, err := f.repo.CreateCommit("refs/heads/master", sig, sig, "test commit", tree, parents...)
	if err != nil {
		t.Fatalf("create commit: %v", err)
	}
	c, err := f.repo.LookupCommit(commitOid)
	if err != nil {
		t.Fatalf("lookup commit: %v", err)
	}
	return c
}

func TestResolveRefAndFindCommit(t *testing.T) {
	fx := newFixtureRepo(t)
	c1 := fx.commit(t, map[string]string{"a.txt": "hello"})

	r, err := (&Backend{}).Open(fx.dir)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	id, err := r.ResolveRef("refs/heads/master")
	if err != nil {
		t.Fatal(err)
	}
	if id.String() != c1.Id().String() {
		t.Fatalf("resolved %s, want %s", id, c1.Id())
	}

	commit, err := r.FindCommit(id)
	if err != nil {
		t.Fatal(err)
	}
	if commit.Message() != "test commit" {
		t.Fatalf("unexpected message %q", commit.Message())
	}
}

func TestWalkTreeListsAllBlobs(t *testing.T) {
	fx := newFixtureRepo(t)
	c1 := fx.commit(t, map[string]string{"a.txt": "1", "b.txt": "2"})

	r, err := (&Backend{}).Open(fx.dir)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	id, _ := gitid.Sha1FromBytes(c1.Id()[:])
	commit, err := r.FindCommit(id)
	if err != nil {
		t.Fatal(err)
	}
	tree, err := r.TreeOf(commit)
	if err != nil {
		t.Fatal(err)
	}
	entries, err := r.WalkTree(tree)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d: %+v", len(entries), entries)
	}
}

func TestTreeDiffAddedAndModified(t *testing.T) {
	fx := newFixtureRepo(t)
	c1 := fx.commit(t, map[string]string{"a.txt": "1", "b.txt": "2"})
	c2 := fx.commit(t, map[string]string{"a.txt": "1-changed", "b.txt": "2"}, c1)

	r, err := (&Backend{}).Open(fx.dir)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	id1, _ := gitid.Sha1FromBytes(c1.Id()[:])
	id2, _ := gitid.Sha1FromBytes(c2.Id()[:])
	commit1, err := r.FindCommit(id1)
	if err != nil {
		t.Fatal(err)
	}
	commit2, err := r.FindCommit(id2)
	if err != nil {
		t.Fatal(err)
	}
	tree1, err := r.TreeOf(commit1)
	if err != nil {
		t.Fatal(err)
	}
	tree2, err := r.TreeOf(commit2)
	if err != nil {
		t.Fatal(err)
	}

	deltas, err := r.TreeDiff(tree1, tree2)
	if err != nil {
		t.Fatal(err)
	}
	if len(deltas) != 1 || deltas[0].Status != Modified || string(deltas[0].NewPath) != "a.txt" {
		t.Fatalf("expected single Modified delta on a.txt, got %+v", deltas)
	}
}

func TestMergeBasesAndRevwalk(t *testing.T) {
	fx := newFixtureRepo(t)
	c1 := fx.commit(t, map[string]string{"a.txt": "1"})
	c2 := fx.commit(t, map[string]string{"a.txt": "2"}, c1)

	r, err := (&Backend{}).Open(fx.dir)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	id1, _ := gitid.Sha1FromBytes(c1.Id()[:])
	id2, _ := gitid.Sha1FromBytes(c2.Id()[:])

	bases, err := r.MergeBases(id1, id2)
	if err != nil {
		t.Fatal(err)
	}
	if len(bases) != 1 || bases[0].String() != id1.String() {
		t.Fatalf("expected merge base %s, got %+v", id1, bases)
	}

	walked, err := r.Revwalk([]gitid.Sha1{id2}, []gitid.Sha1{id1})
	if err != nil {
		t.Fatal(err)
	}
	if len(walked) != 1 || walked[0].String() != id2.String() {
		t.Fatalf("expected revwalk to yield only c2, got %+v", walked)
	}
}
