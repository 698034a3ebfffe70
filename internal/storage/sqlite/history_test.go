package sqlite

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/sandevgo/talkdata/internal/core"
)

func newTestRepo(t *testing.T) *TurnsRepo {
	t.Helper()
	db, err := NewDB(t.Context(), filepath.Join(t.TempDir(), "talkdata.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewTurnsRepo(db)
}

func testTurn(req, resp string) core.Turn {
	now := time.Now().UTC().Truncate(time.Second)
	return core.Turn{
		Request:  core.TurnRecord{Text: req, Time: now},
		Response: core.TurnRecord{Text: resp, Time: now},
	}
}

func TestTurnsRepoRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := t.Context()

	if err := repo.AppendTurn(ctx, "s1", testTurn("first", "SELECT 1;")); err != nil {
		t.Fatal(err)
	}
	if err := repo.AppendTurn(ctx, "s1", testTurn("second", "SELECT 2;")); err != nil {
		t.Fatal(err)
	}

	turns, err := repo.GetTurns(ctx, "s1", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(turns) != 2 {
		t.Fatalf("got %d turns, want 2", len(turns))
	}

	// Insertion order, oldest first
	if turns[0].Request.Text != "first" || turns[1].Request.Text != "second" {
		t.Errorf("turns out of order: %q, %q", turns[0].Request.Text, turns[1].Request.Text)
	}
	if turns[0].Response.Text != "SELECT 1;" {
		t.Errorf("response = %q", turns[0].Response.Text)
	}
}

func TestTurnsRepoLimitKeepsNewest(t *testing.T) {
	repo := newTestRepo(t)
	ctx := t.Context()

	for _, q := range []string{"one", "two", "three", "four"} {
		if err := repo.AppendTurn(ctx, "s1", testTurn(q, "SELECT 1;")); err != nil {
			t.Fatal(err)
		}
	}

	turns, err := repo.GetTurns(ctx, "s1", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(turns) != 2 {
		t.Fatalf("got %d turns, want 2", len(turns))
	}
	// The two newest, still oldest first
	if turns[0].Request.Text != "three" || turns[1].Request.Text != "four" {
		t.Errorf("limit kept %q, %q; want the newest pair", turns[0].Request.Text, turns[1].Request.Text)
	}
}

func TestTurnsRepoSessionsAreIsolated(t *testing.T) {
	repo := newTestRepo(t)
	ctx := t.Context()

	if err := repo.AppendTurn(ctx, "s1", testTurn("mine", "SELECT 1;")); err != nil {
		t.Fatal(err)
	}
	if err := repo.AppendTurn(ctx, "s2", testTurn("yours", "SELECT 2;")); err != nil {
		t.Fatal(err)
	}

	turns, err := repo.GetTurns(ctx, "s1", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(turns) != 1 || turns[0].Request.Text != "mine" {
		t.Errorf("session s1 sees %+v", turns)
	}

	turns, err = repo.GetTurns(ctx, "missing", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(turns) != 0 {
		t.Errorf("unknown session should have no turns, got %d", len(turns))
	}
}
