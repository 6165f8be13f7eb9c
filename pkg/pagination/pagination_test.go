package pagination

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestCursorRoundTrip(t *testing.T) {
	want := Cursor{CreatedAt: time.Date(2026, 3, 2, 9, 0, 0, 123, time.UTC), ID: uuid.New()}
	got, err := ParseCursor(EncodeCursor(want))
	if err != nil {
		t.Fatalf("ParseCursor: %v", err)
	}
	if !got.CreatedAt.Equal(want.CreatedAt) || got.ID != want.ID {
		t.Fatalf("cursor mismatch: %+v vs %+v", got, want)
	}
}

func TestParseCursorRejectsGarbage(t *testing.T) {
	if c, err := ParseCursor(""); err != nil || c != nil {
		t.Fatalf("empty cursor should be nil, nil")
	}
	if _, err := ParseCursor("not-base64!"); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestNormalizeLimit(t *testing.T) {
	if NormalizeLimit(0) != DefaultLimit || NormalizeLimit(1000) != MaxLimit || NormalizeLimit(7) != 7 {
		t.Fatal("unexpected limit normalization")
	}
}

func TestPage(t *testing.T) {
	type row struct{ n int }
	rows := []row{{1}, {2}, {3}}
	cursorOf := func(r row) Cursor { return Cursor{CreatedAt: time.Unix(int64(r.n), 0).UTC(), ID: uuid.Nil} }

	got, next := Page(rows, 2, cursorOf)
	if len(got) != 2 || next == "" {
		t.Fatalf("expected two rows and a cursor, got %d %q", len(got), next)
	}
	decoded, err := ParseCursor(next)
	if err != nil || decoded.CreatedAt.Unix() != 2 {
		t.Fatalf("cursor should point at the last row returned")
	}

	got, next = Page(rows, 5, cursorOf)
	if len(got) != 3 || next != "" {
		t.Fatalf("expected full page without cursor")
	}
}

func TestAfterArgsUsesUTC(t *testing.T) {
	zone := time.FixedZone("CST", -6*60*60)
	id := uuid.New()
	c := Cursor{CreatedAt: time.Date(2026, 3, 2, 3, 0, 0, 0, zone), ID: id}

	args := c.AfterArgs()
	if len(args) != 3 {
		t.Fatalf("expected three bind args, got %d", len(args))
	}
	at, ok := args[0].(time.Time)
	if !ok || at.Location() != time.UTC || at.Hour() != 9 {
		t.Fatalf("timestamp should be bound in UTC, got %v", args[0])
	}
	if args[1] != args[0] || args[2] != id {
		t.Fatalf("unexpected bind args %v", args)
	}
}
