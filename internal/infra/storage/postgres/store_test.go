package postgres

import (
	"context"
	"database/sql"
	"io"
	"strings"
	"testing"

	"fishlog/internal/infra/storage/postgres/testutil"
)

func TestNewCreatesTableAndRoundTrips(t *testing.T) {
	ctx := context.Background()
	db, conn := testutil.NewStubDB()
	restore := OverrideSQLOpen(func(driver, dsn string) (*sql.DB, error) {
		if driver != "pgx" || dsn != defaultDSN {
			t.Fatalf("unexpected open(%s, %s)", driver, dsn)
		}
		return db, nil
	})
	defer restore()

	s, err := New(ctx, "", nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	var sawDDL bool
	for _, stmt := range conn.Statements() {
		if strings.Contains(strings.ToUpper(stmt), "CREATE TABLE IF NOT EXISTS DOCUMENTS") {
			sawDDL = true
		}
	}
	if !sawDDL {
		t.Fatalf("expected documents table DDL, got %v", conn.Statements())
	}

	w, _ := s.Output(ctx, "Specie.json")
	_, _ = io.WriteString(w, `[{"id":"s1"}]`)
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if payload, ok := conn.Payload("Specie.json"); !ok || string(payload) != `[{"id":"s1"}]` {
		t.Fatalf("unexpected stored payload %q", payload)
	}
	r, err := s.Input(ctx, "Specie.json")
	if err != nil {
		t.Fatalf("input: %v", err)
	}
	b, _ := io.ReadAll(r)
	if string(b) != `[{"id":"s1"}]` {
		t.Fatalf("unexpected content %q", b)
	}
	r, _ = s.Input(ctx, "Trip.json")
	if b, _ := io.ReadAll(r); len(b) != 0 {
		t.Fatalf("expected empty stream for missing document")
	}
}

func TestNewPingFailure(t *testing.T) {
	db, conn := testutil.NewStubDB()
	conn.FailPing = true
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()
	if _, err := New(context.Background(), "postgres://x", nil); err == nil {
		t.Fatalf("expected ping error")
	}
}

func TestCommitFailureSurfacesOnClose(t *testing.T) {
	db, conn := testutil.NewStubDB()
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()
	s, err := New(context.Background(), "", nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	conn.FailCommit = true
	w, _ := s.Output(context.Background(), "Trip.json")
	_, _ = io.WriteString(w, "[]")
	if err := w.Close(); err == nil {
		t.Fatalf("expected commit error")
	}
}

func TestQueryFailureSurfacesOnInput(t *testing.T) {
	db, conn := testutil.NewStubDB()
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()
	s, err := New(context.Background(), "", nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	conn.FailQuery = true
	if _, err := s.Input(context.Background(), "Trip.json"); err == nil {
		t.Fatalf("expected query error")
	}
}

func TestInputSelectsOnlyTheNamedDocument(t *testing.T) {
	ctx := context.Background()
	db, conn := testutil.NewStubDB()
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()
	s, err := New(ctx, "", nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	conn.Rows["Specie.json"] = []byte(`[{"id":"s1"}]`)
	conn.Rows["Trip.json"] = []byte(`[{"id":"t1"}]`)

	r, err := s.Input(ctx, "Trip.json")
	if err != nil {
		t.Fatalf("input: %v", err)
	}
	if b, _ := io.ReadAll(r); string(b) != `[{"id":"t1"}]` {
		t.Fatalf("unexpected content %q", b)
	}
	queries := conn.QueriedStatements()
	if len(queries) != 1 || !strings.Contains(queries[0], "WHERE name = $1") {
		t.Fatalf("expected one keyed select, got %v", queries)
	}
}
