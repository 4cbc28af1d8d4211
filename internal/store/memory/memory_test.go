package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"supermart/backend/internal/domain"
	"supermart/backend/internal/store"
)

func TestAdjustStockFloorsAtZero(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()

	if err := s.AdjustStock(ctx, "S718", -40); err != nil {
		t.Fatalf("draining stock to zero should succeed: %v", err)
	}
	if err := s.AdjustStock(ctx, "S718", -1); !errors.Is(err, store.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock below zero, got %v", err)
	}
	if err := s.AdjustStock(ctx, "NOPE", 1); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown product, got %v", err)
	}
}

func TestInsertSaleRejectsDuplicateReference(t *testing.T) {
	s := New()
	ctx := context.Background()

	first, err := s.InsertSale(ctx, domain.SaleRecord{ReferenceNumber: "AB12CD34", Total: 5.40})
	if err != nil {
		t.Fatalf("first insert failed: %v", err)
	}
	if first.ID == 0 {
		t.Fatalf("expected assigned id, got %d", first.ID)
	}
	if first.Date.IsZero() {
		t.Fatalf("expected date to default to now")
	}

	if _, err := s.InsertSale(ctx, domain.SaleRecord{ReferenceNumber: "AB12CD34"}); !errors.Is(err, store.ErrDuplicateReference) {
		t.Fatalf("expected ErrDuplicateReference, got %v", err)
	}
	if _, err := s.InsertSale(ctx, domain.SaleRecord{}); !errors.Is(err, store.ErrInvalidRecord) {
		t.Fatalf("expected ErrInvalidRecord without a reference, got %v", err)
	}
}

func TestAppendSaleRemarksJoinsWithSeparator(t *testing.T) {
	s := New()
	ctx := context.Background()

	if _, err := s.InsertSale(ctx, domain.SaleRecord{ReferenceNumber: "AB12CD34"}); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	if err := s.AppendSaleRemarks(ctx, "AB12CD34", "first note"); err != nil {
		t.Fatalf("first append failed: %v", err)
	}
	if err := s.AppendSaleRemarks(ctx, "AB12CD34", "second note"); err != nil {
		t.Fatalf("second append failed: %v", err)
	}

	sale, err := s.GetSaleByReference(ctx, "AB12CD34")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if sale.Remarks != "first note | second note" {
		t.Fatalf("unexpected remarks %q", sale.Remarks)
	}
}

func TestListSalesDateWindow(t *testing.T) {
	s := New()
	ctx := context.Background()
	base := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)

	for i, ref := range []string{"REF00001", "REF00002", "REF00003"} {
		_, err := s.InsertSale(ctx, domain.SaleRecord{
			ReferenceNumber: ref,
			Date:            base.AddDate(0, 0, i),
		})
		if err != nil {
			t.Fatalf("insert %s: %v", ref, err)
		}
	}

	all, err := s.ListSales(ctx, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 records, got %d", len(all))
	}

	windowed, err := s.ListSales(ctx, base.AddDate(0, 0, 1), base.AddDate(0, 0, 2))
	if err != nil {
		t.Fatalf("list windowed: %v", err)
	}
	if len(windowed) != 1 || windowed[0].ReferenceNumber != "REF00002" {
		t.Fatalf("expected the middle record only, got %v", windowed)
	}
}

func TestNameLookupsAreCaseInsensitive(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()

	item, err := s.FindProductByName(ctx, "sourdough loaf")
	if err != nil {
		t.Fatalf("product lookup failed: %v", err)
	}
	if item.ID != "S718" {
		t.Fatalf("expected S718, got %s", item.ID)
	}

	aisle, err := s.GetAisleByName(ctx, "DAIRY")
	if err != nil {
		t.Fatalf("aisle lookup failed: %v", err)
	}
	if aisle.ID != "D644" {
		t.Fatalf("expected D644, got %s", aisle.ID)
	}
}

func TestSetEmployeeLocked(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()

	if err := s.SetEmployeeLocked(ctx, "C208", true); err != nil {
		t.Fatalf("lock failed: %v", err)
	}
	employee, err := s.GetEmployee(ctx, "C208")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if !employee.Locked {
		t.Fatalf("expected account to be locked")
	}

	if err := s.SetEmployeeLocked(ctx, "X999", true); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown employee, got %v", err)
	}
}
