package confirmation

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestNext_ShapeAndAlphabet(t *testing.T) {
	gen := NewGenerator(func(context.Context, string) (bool, error) { return false, nil })
	code, err := gen.Next(context.Background())
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if len(code) != CodeLength {
		t.Fatalf("expected %d chars, got %q", CodeLength, code)
	}
	for _, c := range code {
		if !strings.ContainsRune(alphabet, c) {
			t.Fatalf("code %q contains %q outside the alphabet", code, c)
		}
	}
}

func TestNext_UniqueAcrossMany(t *testing.T) {
	gen := NewGenerator(func(context.Context, string) (bool, error) { return false, nil })
	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		code, err := gen.Next(context.Background())
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		if _, dup := seen[code]; dup {
			t.Fatalf("duplicate code %q after %d draws", code, i)
		}
		seen[code] = struct{}{}
	}
}

func TestNext_RetriesOnCollision(t *testing.T) {
	calls := 0
	gen := NewGenerator(func(context.Context, string) (bool, error) {
		calls++
		return calls <= 2, nil // first two candidates collide
	})
	if _, err := gen.Next(context.Background()); err != nil {
		t.Fatalf("Next should survive transient collisions: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 existence checks, got %d", calls)
	}
}

func TestNext_BoundedRetries(t *testing.T) {
	gen := NewGenerator(func(context.Context, string) (bool, error) { return true, nil })
	if _, err := gen.Next(context.Background()); !errors.Is(err, ErrExhausted) {
		t.Fatalf("expected ErrExhausted, got %v", err)
	}
}

func TestNext_PropagatesStoreError(t *testing.T) {
	boom := errors.New("db down")
	gen := NewGenerator(func(context.Context, string) (bool, error) { return false, boom })
	if _, err := gen.Next(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected store error, got %v", err)
	}
}
