package cache

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestMemoryGetSetDelete(t *testing.T) {
	ctx := context.Background()
	c := NewMemory("t", time.Minute)

	if _, err := c.Get(ctx, "missing"); !IsNotFound(err) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}

	if err := c.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatal(err)
	}
	v, err := c.Get(ctx, "k")
	if err != nil || v != "v" {
		t.Fatalf("Get = %q, %v", v, err)
	}

	ok, err := c.Exists(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("Exists = %v, %v", ok, err)
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Get(ctx, "k"); !IsNotFound(err) {
		t.Fatalf("want ErrNotFound after delete, got %v", err)
	}
}

func TestMemoryTTLExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemory("", time.Minute)

	if err := c.Set(ctx, "k", "v", 30*time.Millisecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(60 * time.Millisecond)

	if _, err := c.Get(ctx, "k"); !IsNotFound(err) {
		t.Fatalf("want ErrNotFound after expiry, got %v", err)
	}
	ok, _ := c.Exists(ctx, "k")
	if ok {
		t.Fatal("Exists should be false after expiry")
	}
}

func TestMemoryIncrementIsAtomic(t *testing.T) {
	ctx := context.Background()
	c := NewMemory("", time.Minute)

	const workers = 50
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.Increment(ctx, "cnt", time.Minute); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	v, err := c.Get(ctx, "cnt")
	if err != nil {
		t.Fatal(err)
	}
	if v != "50" {
		t.Fatalf("counter = %s, want 50 (lost increments)", v)
	}
}

func TestMemoryIncrementReanchorsTTL(t *testing.T) {
	ctx := context.Background()
	c := NewMemory("", time.Minute)

	if _, err := c.Increment(ctx, "cnt", 50*time.Millisecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(30 * time.Millisecond)
	// Segundo incremento reancla la ventana.
	n, err := c.Increment(ctx, "cnt", 50*time.Millisecond)
	if err != nil || n != 2 {
		t.Fatalf("Increment = %d, %v", n, err)
	}
	time.Sleep(30 * time.Millisecond)

	v, err := c.Get(ctx, "cnt")
	if err != nil || v != "2" {
		t.Fatalf("counter should survive re-anchored window: %q, %v", v, err)
	}

	time.Sleep(40 * time.Millisecond)
	if _, err := c.Get(ctx, "cnt"); !IsNotFound(err) {
		t.Fatalf("counter should expire after window, got %v", err)
	}
}
