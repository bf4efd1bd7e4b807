package store

import (
	"context"
	"testing"

	"github.com/asedra/attila/internal/domain"
)

func TestDefaultFunctionsSeededOnce(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	functions, err := s.ListFunctions(ctx, true)
	if err != nil {
		t.Fatalf("ListFunctions failed: %v", err)
	}
	if len(functions) != len(defaultFunctions) {
		t.Fatalf("expected %d seeded functions, got %d", len(defaultFunctions), len(functions))
	}
	for _, fn := range functions {
		if !fn.IsSystem {
			t.Fatalf("seeded function %q not marked system", fn.Name)
		}
	}

	// Re-running the seed is a no-op once the table is populated
	if err := s.seedDefaultFunctions(ctx); err != nil {
		t.Fatalf("seedDefaultFunctions failed: %v", err)
	}
	again, err := s.ListFunctions(ctx, true)
	if err != nil {
		t.Fatalf("ListFunctions failed: %v", err)
	}
	if len(again) != len(functions) {
		t.Fatalf("seed ran twice: %d functions", len(again))
	}
}

func TestFunctionCRUD(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	fn := &domain.Function{
		Name:      "Web Search",
		Category:  "analysis",
		IsEnabled: true,
	}
	if err := s.CreateFunction(ctx, fn); err != nil {
		t.Fatalf("CreateFunction failed: %v", err)
	}
	if fn.ID == "" || fn.Icon != "gear" {
		t.Fatalf("unexpected function: %+v", fn)
	}

	enabled := false
	updated, err := s.UpdateFunction(ctx, fn.ID, FunctionUpdate{IsEnabled: &enabled})
	if err != nil {
		t.Fatalf("UpdateFunction failed: %v", err)
	}
	if updated == nil || updated.IsEnabled {
		t.Fatalf("unexpected function: %+v", updated)
	}

	visible, err := s.ListFunctions(ctx, false)
	if err != nil {
		t.Fatalf("ListFunctions failed: %v", err)
	}
	for _, f := range visible {
		if f.ID == fn.ID {
			t.Fatalf("disabled function still listed: %+v", f)
		}
	}

	ok, err := s.DeleteFunction(ctx, fn.ID)
	if err != nil || !ok {
		t.Fatalf("DeleteFunction failed: ok=%v err=%v", ok, err)
	}
}

func TestDeleteFunctionRefusesSystem(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	functions, err := s.ListFunctions(ctx, true)
	if err != nil {
		t.Fatalf("ListFunctions failed: %v", err)
	}

	ok, err := s.DeleteFunction(ctx, functions[0].ID)
	if err != nil {
		t.Fatalf("DeleteFunction failed: %v", err)
	}
	if ok {
		t.Fatalf("system function %q was deleted", functions[0].Name)
	}
}

func TestFunctionCategories(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	categories, err := s.FunctionCategories(ctx)
	if err != nil {
		t.Fatalf("FunctionCategories failed: %v", err)
	}
	want := map[string]bool{"idea": true, "task": true, "integration": true}
	if len(categories) != len(want) {
		t.Fatalf("unexpected categories: %v", categories)
	}
	for _, c := range categories {
		if !want[c] {
			t.Fatalf("unexpected category %q", c)
		}
	}
}
