package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/autou/email-triage/internal/core"
)

func newEntry(hash string, expiresIn time.Duration) *core.CacheEntry {
	now := time.Now()
	return &core.CacheEntry{
		ContentHash:    hash,
		Category:       core.CategoryProdutivo,
		Confidence:     0.9,
		SuggestedReply: "Prezado(a), recebemos sua solicitação.\n\nAtenciosamente,",
		ModelUsed:      "gpt-4o-mini",
		LastSeen:       now,
		ExpiresAt:      now.Add(expiresIn),
	}
}

func TestMemoryCacheRoundTrip(t *testing.T) {
	c := NewMemoryCache(zap.NewNop(), time.Hour)
	defer c.Stop()
	ctx := context.Background()

	if err := c.Set(ctx, newEntry("abc123", time.Hour)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	entry, err := c.Get(ctx, "abc123")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if entry.Category != core.CategoryProdutivo {
		t.Errorf("expected category %q, got %q", core.CategoryProdutivo, entry.Category)
	}
	if entry.Confidence != 0.9 {
		t.Errorf("expected confidence 0.9, got %v", entry.Confidence)
	}
}

func TestMemoryCacheMiss(t *testing.T) {
	c := NewMemoryCache(zap.NewNop(), time.Hour)
	defer c.Stop()

	_, err := c.Get(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := NewMemoryCache(zap.NewNop(), time.Hour)
	defer c.Stop()
	ctx := context.Background()

	if err := c.Set(ctx, newEntry("stale", -time.Minute)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	_, err := c.Get(ctx, "stale")
	if !errors.Is(err, ErrExpired) {
		t.Errorf("expected ErrExpired, got %v", err)
	}

	if err := c.Cleanup(ctx); err != nil {
		t.Fatalf("Cleanup failed: %v", err)
	}
	_, err = c.Get(ctx, "stale")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after cleanup, got %v", err)
	}
}

func TestMemoryCacheDelete(t *testing.T) {
	c := NewMemoryCache(zap.NewNop(), time.Hour)
	defer c.Stop()
	ctx := context.Background()

	if err := c.Set(ctx, newEntry("gone", time.Hour)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := c.Delete(ctx, "gone"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := c.Get(ctx, "gone"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}
