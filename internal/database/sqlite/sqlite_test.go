package sqlite

import (
	"context"
	"path/filepath"
	"testing"
)

func setupPool(t *testing.T) *Pool {
	t.Helper()
	pool, err := Initialize(filepath.Join(t.TempDir(), "images.db"))
	if err != nil {
		t.Fatalf("failed to initialize database: %v", err)
	}
	t.Cleanup(func() { pool.Close() })
	return pool
}

func TestLabelRepository_GetOrCreate(t *testing.T) {
	pool := setupPool(t)
	repo := NewLabelRepository(pool)
	ctx := context.Background()

	first, err := repo.GetOrCreate(ctx, "alice")
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	if first.Name != "alice" || first.ID == 0 {
		t.Errorf("unexpected label: %+v", first)
	}

	second, err := repo.GetOrCreate(ctx, "alice")
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("expected same id for same name, got %d and %d", first.ID, second.ID)
	}

	other, err := repo.GetOrCreate(ctx, "bob")
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	if other.ID == first.ID {
		t.Error("expected distinct ids for distinct names")
	}
}

func TestLabelRepository_Lookups(t *testing.T) {
	pool := setupPool(t)
	repo := NewLabelRepository(pool)
	ctx := context.Background()

	created, err := repo.GetOrCreate(ctx, "alice")
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}

	byID, err := repo.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if byID == nil || byID.Name != "alice" {
		t.Errorf("unexpected GetByID result: %+v", byID)
	}

	byName, err := repo.GetByName(ctx, "alice")
	if err != nil {
		t.Fatalf("GetByName failed: %v", err)
	}
	if byName == nil || byName.ID != created.ID {
		t.Errorf("unexpected GetByName result: %+v", byName)
	}

	missing, err := repo.GetByName(ctx, "nobody")
	if err != nil {
		t.Fatalf("GetByName failed: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for unknown name, got %+v", missing)
	}
}

func TestImageRepository_CreateAndList(t *testing.T) {
	pool := setupPool(t)
	labels := NewLabelRepository(pool)
	images := NewImageRepository(pool)
	ctx := context.Background()

	alice, err := labels.GetOrCreate(ctx, "alice")
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}

	paths := []string{"/data/images/alice/0.jpg", "/data/images/alice/1.jpg"}
	for _, p := range paths {
		if _, err := images.Create(ctx, p, alice.ID); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	stored, err := images.ListByLabel(ctx, alice.ID)
	if err != nil {
		t.Fatalf("ListByLabel failed: %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("expected 2 images, got %d", len(stored))
	}
	// Insertion order must be preserved: training iterates in this order.
	for i, p := range paths {
		if stored[i].Path != p {
			t.Errorf("expected path %q at index %d, got %q", p, i, stored[i].Path)
		}
	}

	count, err := images.CountAll(ctx)
	if err != nil {
		t.Fatalf("CountAll failed: %v", err)
	}
	if count != 2 {
		t.Errorf("expected count 2, got %d", count)
	}
}

func TestDeleteAll_WipesDerivedCache(t *testing.T) {
	pool := setupPool(t)
	labels := NewLabelRepository(pool)
	images := NewImageRepository(pool)
	ctx := context.Background()

	alice, _ := labels.GetOrCreate(ctx, "alice")
	images.Create(ctx, "/data/images/alice/0.jpg", alice.ID)

	if err := images.DeleteAll(ctx); err != nil {
		t.Fatalf("images DeleteAll failed: %v", err)
	}
	if err := labels.DeleteAll(ctx); err != nil {
		t.Fatalf("labels DeleteAll failed: %v", err)
	}

	remaining, err := labels.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(remaining) != 0 {
		t.Errorf("expected no labels after wipe, got %d", len(remaining))
	}
	count, _ := images.CountAll(ctx)
	if count != 0 {
		t.Errorf("expected no images after wipe, got %d", count)
	}
}
