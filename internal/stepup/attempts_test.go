package stepup

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/stepup/internal/cache"
)

func TestTrackerIncrementAndReset(t *testing.T) {
	ctx := context.Background()
	tr := NewTracker(cache.NewMemory("", time.Minute), "att", time.Minute)
	user := uuid.New()

	n, err := tr.Increment(ctx, user, "a")
	if err != nil || n != 1 {
		t.Fatalf("Increment = %d, %v", n, err)
	}
	n, err = tr.Increment(ctx, user, "a")
	if err != nil || n != 2 {
		t.Fatalf("Increment = %d, %v", n, err)
	}

	// Otra acción no comparte contador.
	n, err = tr.Increment(ctx, user, "b")
	if err != nil || n != 1 {
		t.Fatalf("Increment(b) = %d, %v", n, err)
	}

	if err := tr.Reset(ctx, user, "a"); err != nil {
		t.Fatal(err)
	}
	c, err := tr.Count(ctx, user, "a")
	if err != nil || c != 0 {
		t.Fatalf("Count after reset = %d, %v", c, err)
	}
}

func TestTrackerRemainingClamps(t *testing.T) {
	ctx := context.Background()
	tr := NewTracker(cache.NewMemory("", time.Minute), "att", time.Minute)
	user := uuid.New()

	r, err := tr.Remaining(ctx, user, "a", 3)
	if err != nil || r != 3 {
		t.Fatalf("Remaining sin fallos = %d, %v", r, err)
	}

	for i := 0; i < 5; i++ {
		if _, err := tr.Increment(ctx, user, "a"); err != nil {
			t.Fatal(err)
		}
	}
	// 5 fallos sobre max 3: nunca negativo.
	r, err = tr.Remaining(ctx, user, "a", 3)
	if err != nil || r != 0 {
		t.Fatalf("Remaining = %d, %v (want 0)", r, err)
	}
}

func TestClampRemaining(t *testing.T) {
	cases := []struct {
		max   int
		count int64
		want  int
	}{
		{3, 0, 3},
		{3, 1, 2},
		{3, 3, 0},
		{3, 10, 0},
		{3, -1, 3}, // contador corrupto negativo no infla el resultado
	}
	for _, c := range cases {
		if got := clampRemaining(c.max, c.count); got != c.want {
			t.Errorf("clampRemaining(%d, %d) = %d, want %d", c.max, c.count, got, c.want)
		}
	}
}
