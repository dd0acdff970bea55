package vector

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestMemoryIndex_AddSearch(t *testing.T) {
	idx, err := NewMemoryIndex(3)
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()
	ctx := context.Background()

	entries := []Entry{
		{CardID: "a", MentorID: "m1", Vector: []float32{1, 0, 0}},
		{CardID: "b", MentorID: "m2", Vector: []float32{0.9, 0.1, 0}},
		{CardID: "c", MentorID: "m3", Vector: []float32{0, 1, 0}},
	}
	if err := idx.Add(ctx, entries); err != nil {
		t.Fatal(err)
	}
	if idx.Size() != 3 {
		t.Errorf("Size=%d", idx.Size())
	}

	results, err := idx.Search(ctx, []float32{2, 0, 0}, SearchOptions{NumCandidates: 10, Limit: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].CardID != "a" || results[0].MentorID != "m1" {
		t.Errorf("top result should be a/m1, got %s/%s", results[0].CardID, results[0].MentorID)
	}
	if math.Abs(results[0].Score-1) > 1e-6 {
		t.Errorf("query and stored vectors are normalized, top score = %v", results[0].Score)
	}
	if results[1].CardID != "b" {
		t.Errorf("second result should be b, got %s", results[1].CardID)
	}
}

func TestMemoryIndex_SearchFloor(t *testing.T) {
	idx, _ := NewMemoryIndex(2)
	ctx := context.Background()
	_ = idx.Add(ctx, []Entry{
		{CardID: "near", Vector: []float32{1, 0.1}},
		{CardID: "far", Vector: []float32{0, 1}},
	})
	results, err := idx.Search(ctx, []float32{1, 0}, SearchOptions{Limit: 10, MinScore: 0.85})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].CardID != "near" {
		t.Errorf("floor should drop far vector, got %+v", results)
	}
	if _, err := idx.Search(ctx, []float32{1}, SearchOptions{Limit: 1}); err == nil {
		t.Error("expected dimension mismatch error")
	}
}

func TestMemoryIndex_AddReplaces(t *testing.T) {
	idx, _ := NewMemoryIndex(2)
	ctx := context.Background()
	_ = idx.Add(ctx, []Entry{{CardID: "x", MentorID: "m1", Vector: []float32{1, 0}}})
	_ = idx.Add(ctx, []Entry{{CardID: "x", MentorID: "m1", Vector: []float32{0, 1}}})
	if idx.Size() != 1 {
		t.Fatalf("re-adding a card should replace it, size = %d", idx.Size())
	}
	results, _ := idx.Search(ctx, []float32{0, 1}, SearchOptions{Limit: 1, MinScore: 0.99})
	if len(results) != 1 {
		t.Error("replaced vector should be searchable")
	}
}

func TestMemoryIndex_Remove(t *testing.T) {
	idx, _ := NewMemoryIndex(2)
	ctx := context.Background()
	_ = idx.Add(ctx, []Entry{{CardID: "x", Vector: []float32{1, 0}}, {CardID: "y", Vector: []float32{0, 1}}})
	if err := idx.Remove(ctx, []string{"x"}); err != nil {
		t.Fatal(err)
	}
	if idx.Size() != 1 {
		t.Errorf("expected size 1, got %d", idx.Size())
	}
	_ = idx.Add(ctx, []Entry{{CardID: "y", Vector: []float32{1, 1}}})
	if idx.Size() != 1 {
		t.Errorf("positions must be rebuilt after remove, size = %d", idx.Size())
	}
}

func TestMemoryIndex_SaveLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "cards.vec")
	ctx := context.Background()
	idx, _ := NewMemoryIndex(2)
	_ = idx.Add(ctx, []Entry{
		{CardID: "card-1", MentorID: "mentor-1", Vector: []float32{1, 0}},
		{CardID: "card-2", MentorID: "mentor-2", Vector: []float32{0, 1}},
	})
	if err := idx.Save(path); err != nil {
		t.Fatal(err)
	}

	loaded, _ := NewMemoryIndex(2)
	if err := loaded.Load(path); err != nil {
		t.Fatal(err)
	}
	if loaded.Size() != 2 {
		t.Fatalf("loaded size = %d", loaded.Size())
	}
	results, _ := loaded.Search(ctx, []float32{0, 1}, SearchOptions{Limit: 1})
	if len(results) != 1 || results[0].CardID != "card-2" || results[0].MentorID != "mentor-2" {
		t.Errorf("loaded search = %+v", results)
	}

	wrongDim, _ := NewMemoryIndex(3)
	if err := wrongDim.Load(path); err == nil {
		t.Error("expected dimension mismatch on load")
	}
	if err := loaded.Load(filepath.Join(dir, "missing.vec")); err != nil {
		t.Errorf("missing file should be ignored: %v", err)
	}
	garbage := filepath.Join(dir, "garbage.vec")
	_ = os.WriteFile(garbage, []byte("nope"), 0600)
	if err := loaded.Load(garbage); err == nil {
		t.Error("expected error for a file without the header")
	}
}

func TestInnerProduct(t *testing.T) {
	if got := InnerProduct([]float32{1, 2}, []float32{3, 4}); got != 11 {
		t.Errorf("InnerProduct = %v", got)
	}
	if got := InnerProduct([]float32{1}, []float32{1, 2}); got != 0 {
		t.Errorf("mismatched lengths should give 0, got %v", got)
	}
}
