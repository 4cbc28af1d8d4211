package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"supermart/backend/internal/domain"
	"supermart/backend/internal/ident"
	"supermart/backend/internal/receipt"
	"supermart/backend/internal/store"
)

const (
	taxRate          = 0.08
	cardFeeRate      = 0.02
	premiumDiscount  = 0.03
	employeeDiscount = 0.20
	membershipFee    = 50.00

	membershipLineName = "membership"

	paymentCash   = "cash"
	paymentCard   = "card"
	paymentRefund = "refund"
)

// refInsertAttempts bounds reference number regeneration on collision.
const refInsertAttempts = 5

type txStatus string

const (
	txBuilding  txStatus = "building"
	txPriced    txStatus = "priced"
	txCommitted txStatus = "committed"
	txAborted   txStatus = "aborted"
)

// transaction tracks one checkout from cart to ledger. A transaction
// that fails anywhere before the ledger insert leaves no trace; once
// the ledger row exists the sale stands.
type transaction struct {
	status   txStatus
	lines    []domain.CartLine
	subtotal float64
	quantity int
}

func isMembershipLine(name string) bool {
	return strings.EqualFold(strings.TrimSpace(name), membershipLineName)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Checkout prices the cart, applies discount and tax, validates the
// payment, and commits the sale to the ledger. Inventory decrements
// happen after the ledger insert and are best effort: a line that fails
// to decrement is reported in Warnings and the sale stands.
func (s *Service) Checkout(ctx context.Context, req domain.CheckoutRequest) (domain.CheckoutResponse, error) {
	processorID := ""
	if req.Assisted {
		actor, ok := ActorFromContext(ctx)
		if !ok {
			return domain.CheckoutResponse{}, fmt.Errorf("assisted checkout requires an authenticated employee")
		}
		processorID = actor.EmployeeID
	}

	// Payment method is validated before anything is priced or stored.
	method := strings.ToLower(strings.TrimSpace(req.PaymentMethod))
	if method != paymentCash && method != paymentCard {
		return domain.CheckoutResponse{}, fmt.Errorf("%w: %q", ErrInvalidPaymentMethod, req.PaymentMethod)
	}

	customerID, membership, extraLines, err := s.resolveCustomer(ctx, req)
	if err != nil {
		return domain.CheckoutResponse{}, err
	}

	tx := &transaction{status: txBuilding, lines: append(extraLines, req.Lines...)}
	if len(tx.lines) == 0 {
		return domain.CheckoutResponse{}, ErrEmptyCart
	}

	if err := s.priceCart(ctx, tx); err != nil {
		tx.status = txAborted
		return domain.CheckoutResponse{}, err
	}
	tx.status = txPriced

	discountPct, discountAmount := s.discount(ctx, processorID, customerID, req.Assisted, tx.subtotal)
	afterDiscount := round2(tx.subtotal - discountAmount)
	taxAmount := round2(afterDiscount * taxRate)
	afterTax := round2(afterDiscount + taxAmount)

	cardFee := 0.0
	if method == paymentCard {
		cardFee = round2(afterTax * cardFeeRate)
	}
	finalTotal := round2(afterTax + cardFee)

	sale := domain.SaleRecord{
		EmployeeID:    processorID,
		CustomerID:    customerID,
		Items:         EncodeLines(tx.lines),
		Quantity:      tx.quantity,
		Tax:           taxAmount,
		Discount:      discountAmount,
		Total:         finalTotal,
		Membership:    membership,
		PaymentMethod: method,
	}

	inserted, err := s.insertWithFreshReference(ctx, sale)
	if err != nil {
		tx.status = txAborted
		return domain.CheckoutResponse{}, fmt.Errorf("record sale: %w", err)
	}
	tx.status = txCommitted

	warnings := s.decrementInventory(ctx, tx.lines)

	rendered := receipt.Render(ctx, receipt.Data{
		Reference:          inserted.ReferenceNumber,
		Membership:         membership,
		Lines:              tx.lines,
		Subtotal:           round2(tx.subtotal),
		DiscountPercentage: discountPct,
		DiscountAmount:     discountAmount,
		TotalAfterDiscount: afterDiscount,
		TaxAmount:          taxAmount,
		CardFee:            cardFee,
		FinalTotal:         finalTotal,
		PaymentMethod:      method,
	}, s.priceLookup())

	return domain.CheckoutResponse{
		ReferenceNumber: inserted.ReferenceNumber,
		Subtotal:        round2(tx.subtotal),
		Discount:        discountAmount,
		Tax:             taxAmount,
		Surcharge:       cardFee,
		Total:           finalTotal,
		PaymentMethod:   method,
		Receipt:         rendered,
		Warnings:        warnings,
	}, nil
}

// resolveCustomer maps the request to a customer identity. Anonymous
// shoppers get a one-off token instead of a customer record, matching
// how the ledger treats walk-ins. A Premium signup during checkout adds
// the fixed membership fee line.
func (s *Service) resolveCustomer(ctx context.Context, req domain.CheckoutRequest) (customerID string, membership string, extraLines []domain.CartLine, err error) {
	if req.NewCustomer != nil {
		customer, err := s.RegisterCustomer(ctx, *req.NewCustomer)
		if err != nil {
			return "", "", nil, err
		}
		if customer.Membership == domain.MembershipPremium {
			extraLines = append(extraLines, domain.CartLine{Name: membershipLineName, Quantity: 1, SoldPrice: membershipFee})
		}
		return customer.ID, string(customer.Membership), extraLines, nil
	}

	customerID = strings.TrimSpace(req.CustomerID)
	if customerID == "" {
		token, err := ident.NewReferenceNumber()
		if err != nil {
			return "", "", nil, err
		}
		return token, string(domain.MembershipAnonymous), nil, nil
	}

	customer, err := s.repo.GetCustomer(ctx, customerID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// The id may belong to staff shopping on their own
			// badge; the discount rules sort that out later.
			if _, empErr := s.repo.GetEmployee(ctx, customerID); empErr == nil {
				return customerID, string(domain.MembershipRegular), nil, nil
			}
		}
		return "", "", nil, fmt.Errorf("customer %s: %w", customerID, err)
	}
	return customer.ID, string(customer.Membership), nil, nil
}

// priceCart freezes a sold price on every line and totals the cart. The
// membership fee line is priced at the fixed fee and exempt from stock
// checks. Any stock or catalog miss fails the whole cart.
func (s *Service) priceCart(ctx context.Context, tx *transaction) error {
	total := 0.0
	quantity := 0

	for i := range tx.lines {
		line := &tx.lines[i]
		if line.Quantity <= 0 {
			return &ValidationError{Field: "quantity", Reason: fmt.Sprintf("must be positive for %q", line.Name)}
		}

		if isMembershipLine(line.Name) {
			line.SoldPrice = membershipFee
		} else {
			item, err := s.repo.FindProductByName(ctx, line.Name)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return &ItemNotFoundError{Name: line.Name}
				}
				return err
			}
			if line.Quantity > item.Quantity {
				return &OutOfStockError{Name: line.Name, Requested: line.Quantity, Available: item.Quantity}
			}
			line.SoldPrice = item.Price
		}

		total += line.SoldPrice * float64(line.Quantity)
		quantity += line.Quantity
	}

	tx.subtotal = total
	tx.quantity = quantity
	return nil
}

// discount applies at most one discount. The staff discount needs an
// assisted checkout, a customer who is on the employee roster, and a
// processor other than that customer. An employee ringing up their own
// badge is logged and gets nothing, including the premium rate.
func (s *Service) discount(ctx context.Context, processorID string, customerID string, assisted bool, subtotal float64) (pct int, amount float64) {
	if assisted && processorID != "" {
		if _, err := s.repo.GetEmployee(ctx, customerID); err == nil {
			if processorID != customerID {
				return 20, round2(subtotal * employeeDiscount)
			}
			log.Printf("[service] WARN: self-checkout staff discount refused: employee=%s", processorID)
			return 0, 0
		}
	}

	customer, err := s.repo.GetCustomer(ctx, customerID)
	if err == nil && customer.Membership == domain.MembershipPremium {
		return 3, round2(subtotal * premiumDiscount)
	}
	return 0, 0
}

func (s *Service) insertWithFreshReference(ctx context.Context, sale domain.SaleRecord) (*domain.SaleRecord, error) {
	for attempt := 0; attempt < refInsertAttempts; attempt++ {
		ref, err := ident.NewReferenceNumber()
		if err != nil {
			return nil, err
		}
		sale.ReferenceNumber = ref

		inserted, err := s.repo.InsertSale(ctx, sale)
		if errors.Is(err, store.ErrDuplicateReference) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return inserted, nil
	}
	return nil, fmt.Errorf("could not allocate a unique reference number after %d attempts", refInsertAttempts)
}

// decrementInventory runs after the ledger insert. Each failed line is
// reported and skipped; the committed sale is never rolled back here.
func (s *Service) decrementInventory(ctx context.Context, lines []domain.CartLine) []string {
	var warnings []string
	for _, line := range lines {
		if isMembershipLine(line.Name) {
			continue
		}
		item, err := s.repo.FindProductByName(ctx, line.Name)
		if err == nil {
			err = s.repo.AdjustStock(ctx, item.ID, -line.Quantity)
		}
		if err != nil {
			log.Printf("[service] WARN: inventory update failed for %q: %v", line.Name, err)
			warnings = append(warnings, fmt.Sprintf("inventory update failed for %q: %v", line.Name, err))
		}
	}
	return warnings
}

type repoPriceLookup struct {
	repo store.Repository
}

func (l repoPriceLookup) PriceFor(ctx context.Context, name string) (float64, bool) {
	item, err := l.repo.FindProductByName(ctx, name)
	if err != nil {
		return 0, false
	}
	return item.Price, true
}

func (s *Service) priceLookup() receipt.PriceLookup {
	return repoPriceLookup{repo: s.repo}
}

// ListSales returns ledger records for the given window.
func (s *Service) ListSales(ctx context.Context, from time.Time, to time.Time) ([]domain.SaleRecord, error) {
	return s.repo.ListSales(ctx, from, to)
}

func (s *Service) GetSale(ctx context.Context, referenceNumber string) (domain.SaleRecord, error) {
	sale, err := s.repo.GetSaleByReference(ctx, strings.TrimSpace(referenceNumber))
	if err != nil {
		return domain.SaleRecord{}, err
	}
	return *sale, nil
}
