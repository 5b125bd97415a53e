package migrate

import (
	"context"
	"errors"
	"io/fs"
	"testing"

	"github.com/DhruvilJayani/coursecompass/db"
	"github.com/DhruvilJayani/coursecompass/pkg/logger"
)

type poolStub struct {
	pingErr error
	closed  bool
}

func (p *poolStub) Ping(context.Context) error { return p.pingErr }
func (p *poolStub) Close()                     { p.closed = true }

func TestNewValidatesArguments(t *testing.T) {
	log := logger.Discard()
	if _, err := New(nil, "postgres://x", "", log); err == nil {
		t.Fatalf("expected error for nil pool")
	}
	if _, err := New(&poolStub{}, "", "", log); err == nil {
		t.Fatalf("expected error for empty dsn")
	}
	if _, err := New(&poolStub{}, "postgres://x", "/does/not/exist", log); err == nil {
		t.Fatalf("expected error for missing migrations dir")
	}
}

func TestNewUsesEmbeddedMigrationsByDefault(t *testing.T) {
	r, err := New(&poolStub{}, "postgres://x", "", nil)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if r.Source() != "embedded:migrations" {
		t.Fatalf("unexpected source %q", r.Source())
	}
}

func TestNewAcceptsDirectory(t *testing.T) {
	dir := t.TempDir()
	r, err := New(&poolStub{}, "postgres://x", dir, logger.Discard())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if r.Source() != dir {
		t.Fatalf("expected source %q, got %q", dir, r.Source())
	}
}

func TestEmbeddedMigrationsPresent(t *testing.T) {
	matches, err := fs.Glob(db.Migrations, db.MigrationsDir+"/*.sql")
	if err != nil {
		t.Fatalf("glob embedded migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("expected embedded migrations")
	}
}

func TestPingAndClose(t *testing.T) {
	pool := &poolStub{pingErr: errors.New("refused")}
	r, err := New(pool, "postgres://x", "", logger.Discard())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if err := r.Ping(context.Background()); err == nil {
		t.Fatalf("expected ping error")
	}
	r.Close()
	if !pool.closed {
		t.Fatalf("expected pool to be closed")
	}
}
