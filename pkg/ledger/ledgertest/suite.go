// Package ledgertest provides a conformance suite for ledger.ResourceStore
// implementations.
package ledgertest

import (
	"testing"
	"time"

	"github.com/rmax-ai/schedgraph/pkg/domain"
	"github.com/rmax-ai/schedgraph/pkg/ledger"
)

// RunResourceStoreTests runs a comprehensive test suite against a ResourceStore implementation.
func RunResourceStoreTests(t *testing.T, store ledger.ResourceStore) {
	first := domain.NewPeriod(domain.Date(2025, time.January, 13))
	second := first.Next()

	t.Run("Set and Get", func(t *testing.T) {
		store.Clear()

		res := ledger.OperationalResource{
			ID:         1234,
			TotalHours: 70,
			SkillHours: map[domain.Skill]domain.Work{
				domain.MtnMech: 70,
				domain.MtnElec: 35.5,
			},
		}
		store.Set(first, res)

		got, ok := store.Get(first, 1234)
		if !ok {
			t.Fatal("expected to find resource")
		}
		if got.ID != res.ID || got.TotalHours != res.TotalHours {
			t.Errorf("got %+v, want %+v", got, res)
		}
		if got.SkillHours[domain.MtnMech] != 70 || got.SkillHours[domain.MtnElec] != 35.5 {
			t.Errorf("skill hours: got %v", got.SkillHours)
		}
	})

	t.Run("Get non-existent", func(t *testing.T) {
		store.Clear()
		if _, ok := store.Get(first, 1); ok {
			t.Error("expected not to find resource")
		}
	})

	t.Run("Periods are independent", func(t *testing.T) {
		store.Clear()

		store.Set(first, ledger.OperationalResource{ID: 1, TotalHours: 10})
		store.Set(second, ledger.OperationalResource{ID: 1, TotalHours: 20})

		a, _ := store.Get(first, 1)
		b, _ := store.Get(second, 1)
		if a.TotalHours != 10 || b.TotalHours != 20 {
			t.Errorf("expected 10 and 20, got %v and %v", a.TotalHours, b.TotalHours)
		}
	})

	t.Run("Overwrite", func(t *testing.T) {
		store.Clear()

		store.Set(first, ledger.OperationalResource{ID: 1, TotalHours: 10})
		store.Set(first, ledger.OperationalResource{ID: 1, TotalHours: 5})

		got, _ := store.Get(first, 1)
		if got.TotalHours != 5 {
			t.Errorf("expected 5, got %v", got.TotalHours)
		}
		if n := len(store.GetAll()); n != 1 {
			t.Errorf("expected 1 entry, got %d", n)
		}
	})

	t.Run("GetAll", func(t *testing.T) {
		store.Clear()

		store.Set(first, ledger.OperationalResource{ID: 1, TotalHours: 10})
		store.Set(first, ledger.OperationalResource{ID: 2, TotalHours: 10})
		store.Set(second, ledger.OperationalResource{ID: 1, TotalHours: 10})

		all := store.GetAll()
		if len(all) != 3 {
			t.Fatalf("expected 3 entries, got %d", len(all))
		}
		seen := make(map[domain.Period]int)
		for _, pr := range all {
			seen[pr.Period]++
		}
		if seen[first] != 2 || seen[second] != 1 {
			t.Errorf("unexpected distribution: %v", seen)
		}
	})

	t.Run("Clear", func(t *testing.T) {
		store.Set(first, ledger.OperationalResource{ID: 9, TotalHours: 1})
		store.Clear()

		if all := store.GetAll(); len(all) != 0 {
			t.Errorf("expected empty store, got %d entries", len(all))
		}
		if _, ok := store.Get(first, 9); ok {
			t.Error("expected cleared resource to be gone")
		}
	})

	t.Run("Returned values are copies", func(t *testing.T) {
		store.Clear()

		store.Set(first, ledger.OperationalResource{
			ID:         1,
			SkillHours: map[domain.Skill]domain.Work{domain.MtnMech: 8},
		})
		got, _ := store.Get(first, 1)
		got.SkillHours[domain.MtnMech] = 0

		again, _ := store.Get(first, 1)
		if again.SkillHours[domain.MtnMech] != 8 {
			t.Errorf("store shares skill hours with callers")
		}
	})
}
