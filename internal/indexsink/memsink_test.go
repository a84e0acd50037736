package indexsink

import (
	"context"
	"testing"
)

func TestPutCommitUpsertsById(t *testing.T) {
	s := NewMemSink()
	ctx := context.Background()

	if err := s.PutCommit(ctx, "c1", CommitDoc{Message: "first"}); err != nil {
		t.Fatal(err)
	}
	if err := s.PutCommit(ctx, "c1", CommitDoc{Message: "second"}); err != nil {
		t.Fatal(err)
	}
	if len(s.Commits) != 1 {
		t.Fatalf("expected one commit document keyed by id, got %d", len(s.Commits))
	}
	if s.Commits["c1"].Message != "second" {
		t.Fatalf("expected last write to win, got %q", s.Commits["c1"].Message)
	}
	if s.PutCommitCalls != 2 {
		t.Fatalf("expected 2 calls recorded, got %d", s.PutCommitCalls)
	}
}

func TestDeleteFileRemovesDocument(t *testing.T) {
	s := NewMemSink()
	ctx := context.Background()

	if err := s.PutFile(ctx, "f1", FileDoc{Path: "a.txt"}); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteFile(ctx, "f1"); err != nil {
		t.Fatal(err)
	}
	if _, ok := s.Files["f1"]; ok {
		t.Fatal("expected file document removed after DeleteFile")
	}
	if !s.Deleted["f1"] {
		t.Fatal("expected f1 recorded as deleted")
	}
}
