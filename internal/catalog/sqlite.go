// Copyright (C) 2015-2016  Nexedi SA and Contributors.
//                          Kirill Smelkov <kirr@nexedi.com>
//
// This program is free software: you can Use, Study, Modify and Redistribute
// it under the terms of the GNU General Public License version 3, or (at your
// option) any later version, as published by the Free Software Foundation.
//
// This program is distributed WITHOUT ANY WARRANTY; without even the implied
// warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
//
// See COPYING file for full licensing terms.

package catalog

import (
	"database/sql"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"lab.nexedi.com/kirr/codelauf/internal/codelauferr"
)

// SQLiteCatalog is the production Catalog, backed by a SQLite database file
// at <data_dir>/db.sqlite. Every exported method is one atomic statement,
// satisfying spec §5's "each operation must be individually atomic and
// durable on return".
type SQLiteCatalog struct {
	db *sqlx.DB
}

// Open opens (creating if absent) the SQLite database at path and applies
// any pending migrations, per spec §4.1's "schema evolution is required".
func Open(path string) (*SQLiteCatalog, error) {
	db, err := sqlx.Connect("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, codelauferr.New(codelauferr.CatalogErr, "catalog.Open", err)
	}

	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, codelauferr.New(codelauferr.CatalogErr, "catalog.Open: migrate", err)
	}

	return &SQLiteCatalog{db: db}, nil
}

func migrateUp(db *sqlx.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return err
	}
	driver, err := sqlite3.WithInstance(db.DB, &sqlite3.Config{})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}

func (c *SQLiteCatalog) Close() error {
	return c.db.Close()
}

var _ Catalog = (*SQLiteCatalog)(nil)

// ---- repositories ----

func (c *SQLiteCatalog) FindRepoByURI(uri string) (*Repository, error) {
	row := c.db.QueryRow(
		`SELECT id, uri, path, sync_state, added_datetime, fetched_datetime, indexed_datetime
		   FROM repositories WHERE uri = ?`, uri)

	r, err := scanRepository(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, codelauferr.New(codelauferr.CatalogErr, "catalog.FindRepoByURI", err)
	}
	return r, nil
}

func scanRepository(row *sql.Row) (*Repository, error) {
	var (
		r                        Repository
		added, fetched, indexed  sql.NullString
		syncState                string
	)
	err := row.Scan(&r.ID, &r.URI, &r.Path, &syncState, &added, &fetched, &indexed)
	if err != nil {
		return nil, err
	}
	r.SyncState = SyncState(syncState)
	r.AddedDatetime = nullStringToTime(added)
	r.FetchedDatetime = nullStringToTime(fetched)
	r.IndexedDatetime = nullStringToTime(indexed)
	return &r, nil
}

func (c *SQLiteCatalog) InsertRepo(r *Repository) error {
	_, err := c.db.Exec(
		`INSERT INTO repositories(id, uri, path, sync_state, added_datetime, fetched_datetime, indexed_datetime)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.URI, r.Path, string(r.SyncState),
		timeToNullString(r.AddedDatetime), timeToNullString(r.FetchedDatetime), timeToNullString(r.IndexedDatetime))
	if err != nil {
		return codelauferr.New(codelauferr.CatalogErr, "catalog.InsertRepo", err)
	}
	return nil
}

func (c *SQLiteCatalog) UpdateRepo(r *Repository) error {
	_, err := c.db.Exec(
		`UPDATE repositories
		    SET uri = ?, path = ?, sync_state = ?, added_datetime = ?, fetched_datetime = ?, indexed_datetime = ?
		  WHERE id = ?`,
		r.URI, r.Path, string(r.SyncState),
		timeToNullString(r.AddedDatetime), timeToNullString(r.FetchedDatetime), timeToNullString(r.IndexedDatetime),
		r.ID)
	if err != nil {
		return codelauferr.New(codelauferr.CatalogErr, "catalog.UpdateRepo", err)
	}
	return nil
}

// ---- branches ----

func (c *SQLiteCatalog) FindBranch(repoID, name string) (*Branch, error) {
	row := c.db.QueryRow(`SELECT repo_id, name, indexed_commit_id FROM branches WHERE repo_id = ? AND name = ?`, repoID, name)

	var b Branch
	var indexedCommit sql.NullString
	err := row.Scan(&b.RepoID, &b.Name, &indexedCommit)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, codelauferr.New(codelauferr.CatalogErr, "catalog.FindBranch", err)
	}
	if indexedCommit.Valid {
		b.IndexedCommitID = &indexedCommit.String
	}
	return &b, nil
}

func (c *SQLiteCatalog) InsertBranch(b *Branch) error {
	_, err := c.db.Exec(`INSERT INTO branches(repo_id, name, indexed_commit_id) VALUES (?, ?, ?)`,
		b.RepoID, b.Name, nullableString(b.IndexedCommitID))
	if err != nil {
		return codelauferr.New(codelauferr.CatalogErr, "catalog.InsertBranch", err)
	}
	return nil
}

func (c *SQLiteCatalog) MarkBranchIndexed(repoID, name, commitID string) error {
	_, err := c.db.Exec(`UPDATE branches SET indexed_commit_id = ? WHERE repo_id = ? AND name = ?`,
		commitID, repoID, name)
	if err != nil {
		return codelauferr.New(codelauferr.CatalogErr, "catalog.MarkBranchIndexed", err)
	}
	return nil
}

// ---- commits ----

// CreateCommitIfAbsent inserts a NotIndexed row for (repoID, commitID); a
// no-op if the row already exists (spec §4.1: "insert if absent").
func (c *SQLiteCatalog) CreateCommitIfAbsent(repoID, commitID string) error {
	_, err := c.db.Exec(`INSERT OR IGNORE INTO commits(repo_id, id, state) VALUES (?, ?, ?)`,
		repoID, commitID, string(NotIndexed))
	if err != nil {
		return codelauferr.New(codelauferr.CatalogErr, "catalog.CreateCommitIfAbsent", err)
	}
	return nil
}

func (c *SQLiteCatalog) ListCommitsNotIndexed(repoID string) ([]string, error) {
	var idv []string
	err := c.db.Select(&idv, `SELECT id FROM commits WHERE repo_id = ? AND state = ?`, repoID, string(NotIndexed))
	if err != nil {
		return nil, codelauferr.New(codelauferr.CatalogErr, "catalog.ListCommitsNotIndexed", err)
	}
	return idv, nil
}

func (c *SQLiteCatalog) MarkCommitIndexed(repoID, commitID string) error {
	_, err := c.db.Exec(`UPDATE commits SET state = ? WHERE repo_id = ? AND id = ?`,
		string(Indexed), repoID, commitID)
	if err != nil {
		return codelauferr.New(codelauferr.CatalogErr, "catalog.MarkCommitIndexed", err)
	}
	return nil
}

func (c *SQLiteCatalog) ClearCommits(repoID string) error {
	_, err := c.db.Exec(`DELETE FROM commits WHERE repo_id = ?`, repoID)
	if err != nil {
		return codelauferr.New(codelauferr.CatalogErr, "catalog.ClearCommits", err)
	}
	return nil
}

// ---- files ----

// UpsertFile overwrites changed_commit_id and nulls indexed_commit_id if the
// row exists, inserts a fresh row otherwise — one atomic statement via
// SQLite's upsert clause (spec §4.1: "Atomic").
func (c *SQLiteCatalog) UpsertFile(repoID, branch string, path []byte, changedCommitID string) error {
	_, err := c.db.Exec(`
		INSERT INTO files(repo_id, branch, path, changed_commit_id, indexed_commit_id, deleted)
		VALUES (?, ?, ?, ?, NULL, 0)
		ON CONFLICT(repo_id, branch, path) DO UPDATE SET
			changed_commit_id = excluded.changed_commit_id,
			indexed_commit_id = NULL,
			deleted = 0`,
		repoID, branch, path, changedCommitID)
	if err != nil {
		return codelauferr.New(codelauferr.CatalogErr, "catalog.UpsertFile", err)
	}
	return nil
}

func (c *SQLiteCatalog) ListFilesNeedingIndex(repoID string) ([]*PendingFile, error) {
	rows, err := c.db.Query(`
		SELECT repo_id, branch, path, changed_commit_id, indexed_commit_id, deleted
		  FROM files
		 WHERE repo_id = ?
		   AND (indexed_commit_id IS NULL OR indexed_commit_id != changed_commit_id)`, repoID)
	if err != nil {
		return nil, codelauferr.New(codelauferr.CatalogErr, "catalog.ListFilesNeedingIndex", err)
	}
	defer rows.Close()

	var out []*PendingFile
	for rows.Next() {
		var f PendingFile
		var indexedCommit sql.NullString
		var deleted int
		if err := rows.Scan(&f.RepoID, &f.Branch, &f.Path, &f.ChangedCommitID, &indexedCommit, &deleted); err != nil {
			return nil, codelauferr.New(codelauferr.CatalogErr, "catalog.ListFilesNeedingIndex: scan", err)
		}
		if indexedCommit.Valid {
			f.IndexedCommitID = &indexedCommit.String
		}
		f.Deleted = deleted != 0
		out = append(out, &f)
	}
	if err := rows.Err(); err != nil {
		return nil, codelauferr.New(codelauferr.CatalogErr, "catalog.ListFilesNeedingIndex: rows", err)
	}
	return out, nil
}

func (c *SQLiteCatalog) MarkFileIndexed(repoID, branch string, path []byte, indexedCommitID string) error {
	_, err := c.db.Exec(`UPDATE files SET indexed_commit_id = ? WHERE repo_id = ? AND branch = ? AND path = ?`,
		indexedCommitID, repoID, branch, path)
	if err != nil {
		return codelauferr.New(codelauferr.CatalogErr, "catalog.MarkFileIndexed", err)
	}
	return nil
}

// MarkFileDeleted flags a file as removed and reopens its NeedsIndex
// window (by nulling indexed_commit_id) so the indexer's next drain issues
// a sink deletion for it exactly once.
func (c *SQLiteCatalog) MarkFileDeleted(repoID, branch string, path []byte) error {
	_, err := c.db.Exec(`UPDATE files SET deleted = 1, indexed_commit_id = NULL WHERE repo_id = ? AND branch = ? AND path = ?`,
		repoID, branch, path)
	if err != nil {
		return codelauferr.New(codelauferr.CatalogErr, "catalog.MarkFileDeleted", err)
	}
	return nil
}

// ---- time <-> TEXT helpers ----

func timeToNullString(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339), Valid: true}
}

func nullStringToTime(s sql.NullString) *time.Time {
	if !s.Valid {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s.String)
	if err != nil {
		return nil
	}
	return &t
}

func nullableString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
