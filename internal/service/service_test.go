package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"supermart/backend/internal/cache"
	"supermart/backend/internal/domain"
	"supermart/backend/internal/store"
	"supermart/backend/internal/store/memory"
)

// Seeded fixtures used throughout: "Sourdough Loaf" costs 5.00 with 40
// in stock, J221 is a Premium customer, M417 is a manager and C208 a
// regular employee.

func newTestService() (*Service, *memory.Store) {
	repo := memory.NewSeeded()
	return New(repo, cache.NoopCatalogCache{}, 5*time.Second), repo
}

func managerCtx() context.Context {
	return WithActor(context.Background(), domain.Actor{EmployeeID: "M417", Role: domain.RoleManager})
}

func employeeCtx() context.Context {
	return WithActor(context.Background(), domain.Actor{EmployeeID: "C208", Role: domain.RoleEmployee})
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func productQuantity(t *testing.T, repo *memory.Store, name string) int {
	t.Helper()
	item, err := repo.FindProductByName(context.Background(), name)
	if err != nil {
		t.Fatalf("lookup %q: %v", name, err)
	}
	return item.Quantity
}

func TestSelfCheckoutCashAppliesTax(t *testing.T) {
	svc, repo := newTestService()

	resp, err := svc.Checkout(context.Background(), domain.CheckoutRequest{
		Lines:         []domain.CartLine{{Name: "Sourdough Loaf", Quantity: 1}},
		PaymentMethod: "Cash",
	})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if !almostEqual(resp.Total, 5.40) {
		t.Fatalf("expected total 5.40, got %.2f", resp.Total)
	}
	if !almostEqual(resp.Tax, 0.40) {
		t.Fatalf("expected tax 0.40, got %.2f", resp.Tax)
	}
	if resp.Discount != 0 || resp.Surcharge != 0 {
		t.Fatalf("expected no discount or surcharge, got %.2f / %.2f", resp.Discount, resp.Surcharge)
	}
	if len(resp.ReferenceNumber) != 8 {
		t.Fatalf("expected 8-char reference, got %q", resp.ReferenceNumber)
	}
	if got := productQuantity(t, repo, "Sourdough Loaf"); got != 39 {
		t.Fatalf("expected stock 39 after sale, got %d", got)
	}
}

func TestCardSurchargeAppliedAfterTax(t *testing.T) {
	svc, _ := newTestService()

	resp, err := svc.Checkout(context.Background(), domain.CheckoutRequest{
		Lines:         []domain.CartLine{{Name: "Sourdough Loaf", Quantity: 1}},
		PaymentMethod: "CARD",
	})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if !almostEqual(resp.Surcharge, 0.11) {
		t.Fatalf("expected surcharge 0.11, got %.2f", resp.Surcharge)
	}
	if !almostEqual(resp.Total, 5.51) {
		t.Fatalf("expected total 5.51, got %.2f", resp.Total)
	}
}

func TestPremiumMemberDiscount(t *testing.T) {
	svc, _ := newTestService()

	resp, err := svc.Checkout(context.Background(), domain.CheckoutRequest{
		CustomerID:    "J221",
		Lines:         []domain.CartLine{{Name: "Sourdough Loaf", Quantity: 1}},
		PaymentMethod: "cash",
	})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if !almostEqual(resp.Discount, 0.15) {
		t.Fatalf("expected discount 0.15, got %.2f", resp.Discount)
	}
	if !almostEqual(resp.Total, 5.24) {
		t.Fatalf("expected total 5.24, got %.2f", resp.Total)
	}
}

func TestAssistedCheckoutEmployeeCustomerDiscount(t *testing.T) {
	svc, _ := newTestService()

	resp, err := svc.Checkout(managerCtx(), domain.CheckoutRequest{
		CustomerID:    "C208",
		Lines:         []domain.CartLine{{Name: "Sourdough Loaf", Quantity: 1}},
		PaymentMethod: "cash",
		Assisted:      true,
	})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if !almostEqual(resp.Discount, 1.00) {
		t.Fatalf("expected 20%% discount of 1.00, got %.2f", resp.Discount)
	}
	if !almostEqual(resp.Total, 4.32) {
		t.Fatalf("expected total 4.32, got %.2f", resp.Total)
	}
}

func TestEmployeeRingingOwnBadgeGetsNoDiscount(t *testing.T) {
	svc, _ := newTestService()

	resp, err := svc.Checkout(employeeCtx(), domain.CheckoutRequest{
		CustomerID:    "C208",
		Lines:         []domain.CartLine{{Name: "Sourdough Loaf", Quantity: 1}},
		PaymentMethod: "cash",
		Assisted:      true,
	})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if resp.Discount != 0 {
		t.Fatalf("expected no discount for self-rung sale, got %.2f", resp.Discount)
	}
	if !almostEqual(resp.Total, 5.40) {
		t.Fatalf("expected total 5.40, got %.2f", resp.Total)
	}
}

func TestCheckoutRejectsUnknownPaymentMethod(t *testing.T) {
	svc, repo := newTestService()

	_, err := svc.Checkout(context.Background(), domain.CheckoutRequest{
		Lines:         []domain.CartLine{{Name: "Sourdough Loaf", Quantity: 1}},
		PaymentMethod: "bitcoin",
	})
	if !errors.Is(err, ErrInvalidPaymentMethod) {
		t.Fatalf("expected ErrInvalidPaymentMethod, got %v", err)
	}

	sales, err := repo.ListSales(context.Background(), time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("list sales: %v", err)
	}
	if len(sales) != 0 {
		t.Fatalf("expected no ledger records, got %d", len(sales))
	}
	if got := productQuantity(t, repo, "Sourdough Loaf"); got != 40 {
		t.Fatalf("expected untouched stock 40, got %d", got)
	}
}

func TestCheckoutFailsWholeCartWhenOutOfStock(t *testing.T) {
	svc, repo := newTestService()

	_, err := svc.Checkout(context.Background(), domain.CheckoutRequest{
		Lines: []domain.CartLine{
			{Name: "Chocolate Bar", Quantity: 1},
			{Name: "Sourdough Loaf", Quantity: 1000},
		},
		PaymentMethod: "cash",
	})
	var stockErr *OutOfStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected OutOfStockError, got %v", err)
	}
	if stockErr.Available != 40 {
		t.Fatalf("expected available 40 reported, got %d", stockErr.Available)
	}

	if got := productQuantity(t, repo, "Chocolate Bar"); got != 150 {
		t.Fatalf("expected untouched stock for valid line, got %d", got)
	}
	sales, _ := repo.ListSales(context.Background(), time.Time{}, time.Time{})
	if len(sales) != 0 {
		t.Fatalf("expected no ledger records, got %d", len(sales))
	}
}

func TestCheckoutFailsWholeCartOnUnknownItem(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Checkout(context.Background(), domain.CheckoutRequest{
		Lines:         []domain.CartLine{{Name: "Dragonfruit", Quantity: 1}},
		PaymentMethod: "cash",
	})
	var notFound *ItemNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ItemNotFoundError, got %v", err)
	}
	if notFound.Name != "Dragonfruit" {
		t.Fatalf("expected missing item name in error, got %q", notFound.Name)
	}
}

func TestPremiumSignupChargesMembershipFee(t *testing.T) {
	svc, repo := newTestService()

	resp, err := svc.Checkout(context.Background(), domain.CheckoutRequest{
		Lines:         []domain.CartLine{{Name: "Sourdough Loaf", Quantity: 1}},
		PaymentMethod: "cash",
		NewCustomer: &domain.CustomerCreateRequest{
			Name:       "Avery Quinn",
			Phone:      "555-0100",
			Membership: "Premium",
		},
	})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if !almostEqual(resp.Subtotal, 55.00) {
		t.Fatalf("expected subtotal 55.00 with membership fee, got %.2f", resp.Subtotal)
	}

	sales, _ := repo.ListSales(context.Background(), time.Time{}, time.Time{})
	if len(sales) != 1 {
		t.Fatalf("expected one ledger record, got %d", len(sales))
	}
	if !strings.Contains(sales[0].Items, "membership:1:50.00") {
		t.Fatalf("expected membership line in ledger items, got %q", sales[0].Items)
	}
	// Membership fee never touches inventory.
	if got := productQuantity(t, repo, "Sourdough Loaf"); got != 39 {
		t.Fatalf("expected stock 39, got %d", got)
	}

	customer, err := repo.FindCustomerByName(context.Background(), "Avery Quinn")
	if err != nil {
		t.Fatalf("expected customer created: %v", err)
	}
	if customer.Membership != domain.MembershipPremium {
		t.Fatalf("expected Premium membership, got %s", customer.Membership)
	}
}

func TestRefundRestocksAndRecordsNegativeSale(t *testing.T) {
	svc, repo := newTestService()

	sale, err := svc.Checkout(managerCtx(), domain.CheckoutRequest{
		Lines:         []domain.CartLine{{Name: "Sourdough Loaf", Quantity: 2}},
		PaymentMethod: "cash",
		Assisted:      true,
	})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	resp, err := svc.Refund(employeeCtx(), domain.RefundRequest{
		ReferenceNumber: sale.ReferenceNumber,
		Lines:           []domain.RefundLine{{Name: "Sourdough Loaf", Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("refund failed: %v", err)
	}
	if !almostEqual(resp.Amount, 5.00) {
		t.Fatalf("expected refund amount 5.00, got %.2f", resp.Amount)
	}
	if resp.OriginalReference != sale.ReferenceNumber {
		t.Fatalf("expected original reference %q, got %q", sale.ReferenceNumber, resp.OriginalReference)
	}

	if got := productQuantity(t, repo, "Sourdough Loaf"); got != 39 {
		t.Fatalf("expected stock back to 39, got %d", got)
	}

	original, err := repo.GetSaleByReference(context.Background(), sale.ReferenceNumber)
	if err != nil {
		t.Fatalf("original sale lookup: %v", err)
	}
	if !strings.Contains(original.Remarks, "Refund Ref: "+resp.RefundReference) {
		t.Fatalf("expected refund annotation on original, got %q", original.Remarks)
	}

	refundRecord, err := repo.GetSaleByReference(context.Background(), resp.RefundReference)
	if err != nil {
		t.Fatalf("refund record lookup: %v", err)
	}
	if refundRecord.Quantity != -1 || !almostEqual(refundRecord.Total, -5.00) {
		t.Fatalf("expected negative quantity and total, got %d / %.2f", refundRecord.Quantity, refundRecord.Total)
	}
	if refundRecord.Tax != 0 || refundRecord.Discount != 0 {
		t.Fatalf("tax and discount are never refunded, got %.2f / %.2f", refundRecord.Tax, refundRecord.Discount)
	}
	if refundRecord.PaymentMethod != "refund" {
		t.Fatalf("expected payment method refund, got %q", refundRecord.PaymentMethod)
	}
	if refundRecord.Remarks != "Refund Transaction" {
		t.Fatalf("unexpected refund remarks %q", refundRecord.Remarks)
	}
}

func TestRefundWindowExpires(t *testing.T) {
	svc, repo := newTestService()

	_, err := repo.InsertSale(context.Background(), domain.SaleRecord{
		EmployeeID:      "M417",
		CustomerID:      "TOKEN123",
		Items:           "Sourdough Loaf:1:5.00",
		Quantity:        1,
		Total:           5.40,
		Date:            time.Now().UTC().Add(-8 * 24 * time.Hour),
		ReferenceNumber: "OLDSALE1",
		PaymentMethod:   "cash",
	})
	if err != nil {
		t.Fatalf("seed sale: %v", err)
	}

	_, err = svc.Refund(employeeCtx(), domain.RefundRequest{
		ReferenceNumber: "OLDSALE1",
		Lines:           []domain.RefundLine{{Name: "Sourdough Loaf", Quantity: 1}},
	})
	if !errors.Is(err, ErrRefundWindowExpired) {
		t.Fatalf("expected ErrRefundWindowExpired, got %v", err)
	}
}

func TestRefundUnknownReference(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Refund(employeeCtx(), domain.RefundRequest{
		ReferenceNumber: "NOPE0000",
		Lines:           []domain.RefundLine{{Name: "Sourdough Loaf", Quantity: 1}},
	})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRefundRejectedForEmployeeCustomer(t *testing.T) {
	svc, repo := newTestService()

	_, err := repo.InsertSale(context.Background(), domain.SaleRecord{
		EmployeeID:      "M417",
		CustomerID:      "C208",
		Items:           "Sourdough Loaf:1:5.00",
		Quantity:        1,
		Total:           5.40,
		ReferenceNumber: "EMPSALE1",
		PaymentMethod:   "cash",
	})
	if err != nil {
		t.Fatalf("seed sale: %v", err)
	}

	_, err = svc.Refund(employeeCtx(), domain.RefundRequest{
		ReferenceNumber: "EMPSALE1",
		Lines:           []domain.RefundLine{{Name: "Sourdough Loaf", Quantity: 1}},
	})
	if !errors.Is(err, ErrEmployeeCustomerRefund) {
		t.Fatalf("expected ErrEmployeeCustomerRefund, got %v", err)
	}
}

func TestRefundRejectedForProcessorOfOriginalSale(t *testing.T) {
	svc, repo := newTestService()

	_, err := repo.InsertSale(context.Background(), domain.SaleRecord{
		EmployeeID:      "C208",
		CustomerID:      "TOKEN456",
		Items:           "Sourdough Loaf:1:5.00",
		Quantity:        1,
		Total:           5.40,
		ReferenceNumber: "OWNSALE1",
		PaymentMethod:   "cash",
	})
	if err != nil {
		t.Fatalf("seed sale: %v", err)
	}

	_, err = svc.Refund(employeeCtx(), domain.RefundRequest{
		ReferenceNumber: "OWNSALE1",
		Lines:           []domain.RefundLine{{Name: "Sourdough Loaf", Quantity: 1}},
	})
	if !errors.Is(err, ErrSelfRefund) {
		t.Fatalf("expected ErrSelfRefund, got %v", err)
	}
}

func TestRefundSkipsInvalidLines(t *testing.T) {
	svc, repo := newTestService()

	_, err := repo.InsertSale(context.Background(), domain.SaleRecord{
		EmployeeID:      "M417",
		CustomerID:      "TOKEN789",
		Items:           "Sourdough Loaf:2:5.00, membership:1:50.00",
		Quantity:        3,
		Total:           64.80,
		ReferenceNumber: "MIXSALE1",
		PaymentMethod:   "cash",
	})
	if err != nil {
		t.Fatalf("seed sale: %v", err)
	}

	resp, err := svc.Refund(employeeCtx(), domain.RefundRequest{
		ReferenceNumber: "MIXSALE1",
		Lines: []domain.RefundLine{
			{Name: "membership", Quantity: 1},
			{Name: "Dragonfruit", Quantity: 1},
			{Name: "Sourdough Loaf", Quantity: 5},
			{Name: "Sourdough Loaf", Quantity: 2},
		},
	})
	if err != nil {
		t.Fatalf("refund failed: %v", err)
	}
	if !almostEqual(resp.Amount, 10.00) {
		t.Fatalf("expected refund of 10.00, got %.2f", resp.Amount)
	}
	if len(resp.Warnings) != 3 {
		t.Fatalf("expected 3 warnings for skipped lines, got %d: %v", len(resp.Warnings), resp.Warnings)
	}
}

func TestRefundWithNoValidLinesAborts(t *testing.T) {
	svc, repo := newTestService()

	_, err := repo.InsertSale(context.Background(), domain.SaleRecord{
		EmployeeID:      "M417",
		CustomerID:      "TOKEN790",
		Items:           "membership:1:50.00",
		Quantity:        1,
		Total:           54.00,
		ReferenceNumber: "MEMSALE1",
		PaymentMethod:   "cash",
	})
	if err != nil {
		t.Fatalf("seed sale: %v", err)
	}

	_, err = svc.Refund(employeeCtx(), domain.RefundRequest{
		ReferenceNumber: "MEMSALE1",
		Lines:           []domain.RefundLine{{Name: "membership", Quantity: 1}},
	})
	if !errors.Is(err, ErrNoRefundableItems) {
		t.Fatalf("expected ErrNoRefundableItems, got %v", err)
	}
}

func TestRefundCannotExceedSoldQuantityAcrossLines(t *testing.T) {
	svc, repo := newTestService()

	_, err := repo.InsertSale(context.Background(), domain.SaleRecord{
		EmployeeID:      "M417",
		CustomerID:      "TOKEN791",
		Items:           "Sourdough Loaf:2:5.00",
		Quantity:        2,
		Total:           10.80,
		ReferenceNumber: "DBLSALE1",
		PaymentMethod:   "cash",
	})
	if err != nil {
		t.Fatalf("seed sale: %v", err)
	}

	resp, err := svc.Refund(employeeCtx(), domain.RefundRequest{
		ReferenceNumber: "DBLSALE1",
		Lines: []domain.RefundLine{
			{Name: "Sourdough Loaf", Quantity: 2},
			{Name: "Sourdough Loaf", Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("refund failed: %v", err)
	}
	if !almostEqual(resp.Amount, 10.00) {
		t.Fatalf("expected refund capped at 10.00, got %.2f", resp.Amount)
	}
	if len(resp.Warnings) != 1 {
		t.Fatalf("expected one warning for the over-ask, got %v", resp.Warnings)
	}
}

func TestRefundCapHoldsAcrossSeparateCalls(t *testing.T) {
	svc, repo := newTestService()

	_, err := repo.InsertSale(context.Background(), domain.SaleRecord{
		EmployeeID:      "M417",
		CustomerID:      "TOKEN795",
		Items:           "Sourdough Loaf:3:5.00",
		Quantity:        3,
		Total:           16.20,
		ReferenceNumber: "TWOCALLS",
		PaymentMethod:   "cash",
	})
	if err != nil {
		t.Fatalf("seed sale: %v", err)
	}

	first, err := svc.Refund(employeeCtx(), domain.RefundRequest{
		ReferenceNumber: "TWOCALLS",
		Lines:           []domain.RefundLine{{Name: "Sourdough Loaf", Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("first refund failed: %v", err)
	}
	if !almostEqual(first.Amount, 10.00) {
		t.Fatalf("expected 10.00 on first refund, got %.2f", first.Amount)
	}

	// Only one unit is left; asking for two again must fail outright.
	_, err = svc.Refund(employeeCtx(), domain.RefundRequest{
		ReferenceNumber: "TWOCALLS",
		Lines:           []domain.RefundLine{{Name: "Sourdough Loaf", Quantity: 2}},
	})
	if !errors.Is(err, ErrNoRefundableItems) {
		t.Fatalf("expected second over-ask to be rejected, got %v", err)
	}

	second, err := svc.Refund(employeeCtx(), domain.RefundRequest{
		ReferenceNumber: "TWOCALLS",
		Lines:           []domain.RefundLine{{Name: "Sourdough Loaf", Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("refund of the last unit failed: %v", err)
	}
	if !almostEqual(second.Amount, 5.00) {
		t.Fatalf("expected 5.00 on final refund, got %.2f", second.Amount)
	}

	_, err = svc.Refund(employeeCtx(), domain.RefundRequest{
		ReferenceNumber: "TWOCALLS",
		Lines:           []domain.RefundLine{{Name: "Sourdough Loaf", Quantity: 1}},
	})
	if !errors.Is(err, ErrNoRefundableItems) {
		t.Fatalf("expected fully-refunded sale to reject further refunds, got %v", err)
	}
}

func TestLargeRefundRequiresManager(t *testing.T) {
	svc, repo := newTestService()

	_, err := repo.InsertSale(context.Background(), domain.SaleRecord{
		EmployeeID:      "M417",
		CustomerID:      "TOKEN792",
		Items:           "Sourdough Loaf:45:5.00",
		Quantity:        45,
		Total:           243.00,
		ReferenceNumber: "BIGSALE1",
		PaymentMethod:   "cash",
	})
	if err != nil {
		t.Fatalf("seed sale: %v", err)
	}

	_, err = svc.Refund(employeeCtx(), domain.RefundRequest{
		ReferenceNumber: "BIGSALE1",
		Lines:           []domain.RefundLine{{Name: "Sourdough Loaf", Quantity: 45}},
	})
	if !errors.Is(err, ErrRefundRequiresManager) {
		t.Fatalf("expected ErrRefundRequiresManager, got %v", err)
	}

	resp, err := svc.Refund(WithActor(context.Background(), domain.Actor{EmployeeID: "M999", Role: domain.RoleManager}), domain.RefundRequest{
		ReferenceNumber: "BIGSALE1",
		Lines:           []domain.RefundLine{{Name: "Sourdough Loaf", Quantity: 45}},
	})
	if err != nil {
		t.Fatalf("manager refund failed: %v", err)
	}
	if !almostEqual(resp.Amount, 225.00) {
		t.Fatalf("expected refund of 225.00, got %.2f", resp.Amount)
	}
}

func TestRefundUsesStoredSoldPriceNotShelfPrice(t *testing.T) {
	svc, repo := newTestService()

	// Sold at 4.00 before a price increase to the current 5.00 shelf price.
	_, err := repo.InsertSale(context.Background(), domain.SaleRecord{
		EmployeeID:      "M417",
		CustomerID:      "TOKEN793",
		Items:           "Sourdough Loaf:1:4.00",
		Quantity:        1,
		Total:           4.32,
		ReferenceNumber: "OLDPRICE",
		PaymentMethod:   "cash",
	})
	if err != nil {
		t.Fatalf("seed sale: %v", err)
	}

	resp, err := svc.Refund(employeeCtx(), domain.RefundRequest{
		ReferenceNumber: "OLDPRICE",
		Lines:           []domain.RefundLine{{Name: "Sourdough Loaf", Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("refund failed: %v", err)
	}
	if !almostEqual(resp.Amount, 4.00) {
		t.Fatalf("expected refund at sold price 4.00, got %.2f", resp.Amount)
	}
}

func TestRefundOfRefundRecordRejected(t *testing.T) {
	svc, repo := newTestService()

	_, err := repo.InsertSale(context.Background(), domain.SaleRecord{
		EmployeeID:      "M417",
		CustomerID:      "TOKEN794",
		Items:           "Sourdough Loaf:1:5.00",
		Quantity:        -1,
		Total:           -5.00,
		ReferenceNumber: "RFNDREC1",
		PaymentMethod:   "refund",
	})
	if err != nil {
		t.Fatalf("seed refund record: %v", err)
	}

	_, err = svc.Refund(employeeCtx(), domain.RefundRequest{
		ReferenceNumber: "RFNDREC1",
		Lines:           []domain.RefundLine{{Name: "Sourdough Loaf", Quantity: 1}},
	})
	if !errors.Is(err, ErrNoRefundableItems) {
		t.Fatalf("expected refund-of-refund to be rejected, got %v", err)
	}
}

func TestAddProductCreatesAisleForManagerOnly(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.AddProduct(employeeCtx(), domain.ProductCreateRequest{
		Name:      "Oat Milk 1L",
		Category:  "dairy",
		Quantity:  20,
		Price:     3.99,
		AisleName: "New Arrivals",
	})
	if !errors.Is(err, ErrManagerRequired) {
		t.Fatalf("expected ErrManagerRequired for new aisle, got %v", err)
	}

	item, err := svc.AddProduct(managerCtx(), domain.ProductCreateRequest{
		Name:      "Oat Milk 1L",
		Category:  "dairy",
		Quantity:  20,
		Price:     3.99,
		AisleName: "New Arrivals",
	})
	if err != nil {
		t.Fatalf("manager add product failed: %v", err)
	}
	if item.AisleName != "New Arrivals" {
		t.Fatalf("expected aisle recorded, got %q", item.AisleName)
	}

	products, err := svc.ListAisleProducts(context.Background(), "New Arrivals")
	if err != nil {
		t.Fatalf("list aisle products: %v", err)
	}
	if len(products) != 1 || products[0].Name != "Oat Milk 1L" {
		t.Fatalf("expected the new product shelved in the new aisle, got %v", products)
	}
}

func TestAddProductRejectsDelimiterNames(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.AddProduct(managerCtx(), domain.ProductCreateRequest{
		Name:      "Chips: Spicy, Large",
		Category:  "snack",
		Quantity:  5,
		Price:     2.99,
		AisleName: "Snacks",
	})
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError for delimiter characters, got %v", err)
	}
}

func TestRestockAddsQuantity(t *testing.T) {
	svc, repo := newTestService()

	item, err := svc.Restock(managerCtx(), domain.RestockRequest{ProductID: "S718", Delta: 10})
	if err != nil {
		t.Fatalf("restock failed: %v", err)
	}
	if item.Quantity != 50 {
		t.Fatalf("expected quantity 50, got %d", item.Quantity)
	}

	if err := repo.AdjustStock(context.Background(), "S718", -100); !errors.Is(err, store.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock driving below zero, got %v", err)
	}
}

func TestCreateEmployeeRequiresManager(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.CreateEmployee(employeeCtx(), domain.EmployeeCreateRequest{
		Name:     "Sam Doyle",
		Role:     "Employee",
		Password: "longenough",
	})
	if !errors.Is(err, ErrManagerRequired) {
		t.Fatalf("expected ErrManagerRequired, got %v", err)
	}

	created, err := svc.CreateEmployee(managerCtx(), domain.EmployeeCreateRequest{
		Name:     "Sam Doyle",
		Role:     "Employee",
		Password: "longenough",
	})
	if err != nil {
		t.Fatalf("manager create failed: %v", err)
	}
	if created.ID == "" || created.ID[0] != 'S' {
		t.Fatalf("expected id derived from name, got %q", created.ID)
	}
	if created.Role != domain.RoleEmployee {
		t.Fatalf("expected Employee role, got %s", created.Role)
	}
}

func TestListAislesServesFromCatalog(t *testing.T) {
	svc, _ := newTestService()

	listings, err := svc.ListAisles(context.Background())
	if err != nil {
		t.Fatalf("list aisles: %v", err)
	}
	if len(listings) != 5 {
		t.Fatalf("expected 5 seeded aisles, got %d", len(listings))
	}
	for _, listing := range listings {
		if listing.Aisle.Name == "Dairy" && len(listing.Products) != 2 {
			t.Fatalf("expected 2 dairy products, got %d", len(listing.Products))
		}
	}
}
