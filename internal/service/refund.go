package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"supermart/backend/internal/domain"
	"supermart/backend/internal/ident"
	"supermart/backend/internal/receipt"
	"supermart/backend/internal/store"
)

const (
	refundWindow         = 7 * 24 * time.Hour
	managerRefundCeiling = 200.00
)

// Refund reverses part or all of a prior sale. Preconditions run in a
// fixed order: the sale must exist, be inside the refund window, not
// belong to an employee customer, and not be processed by the employee
// who rang up the original sale. Refund pricing always uses the sold
// prices frozen in the ledger, never current shelf prices.
func (s *Service) Refund(ctx context.Context, req domain.RefundRequest) (domain.RefundResponse, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return domain.RefundResponse{}, fmt.Errorf("refunds require an authenticated employee")
	}

	sale, err := s.repo.GetSaleByReference(ctx, strings.TrimSpace(req.ReferenceNumber))
	if err != nil {
		return domain.RefundResponse{}, fmt.Errorf("sale %s: %w", req.ReferenceNumber, err)
	}
	if strings.EqualFold(sale.PaymentMethod, paymentRefund) {
		return domain.RefundResponse{}, fmt.Errorf("%w: record %s is itself a refund", ErrNoRefundableItems, sale.ReferenceNumber)
	}

	if time.Since(sale.Date) > refundWindow {
		return domain.RefundResponse{}, ErrRefundWindowExpired
	}

	if _, err := s.repo.GetEmployee(ctx, sale.CustomerID); err == nil {
		return domain.RefundResponse{}, ErrEmployeeCustomerRefund
	}

	if sale.EmployeeID != "" && sale.EmployeeID == actor.EmployeeID {
		return domain.RefundResponse{}, ErrSelfRefund
	}

	soldLines, err := DecodeLines(sale.Items)
	if err != nil {
		return domain.RefundResponse{}, fmt.Errorf("decode sale items: %w", err)
	}

	// Remaining refundable quantity per item: sold quantities minus what
	// earlier refunds already took (recovered from the remarks
	// annotations), decremented further as requested lines are accepted
	// so one call cannot refund the same units twice either.
	remaining := make(map[string]int, len(soldLines))
	soldPrice := make(map[string]float64, len(soldLines))
	for _, line := range soldLines {
		remaining[line.Name] += line.Quantity
		soldPrice[line.Name] = line.SoldPrice
	}
	for name, qty := range previouslyRefunded(sale.Remarks) {
		remaining[name] -= qty
	}

	var (
		accepted []domain.CartLine
		warnings []string
		total    float64
		totalQty int
	)
	for _, line := range req.Lines {
		name := strings.TrimSpace(line.Name)
		switch {
		case line.Quantity <= 0:
			warnings = append(warnings, fmt.Sprintf("invalid quantity for %q", name))
			continue
		case isMembershipLine(name):
			warnings = append(warnings, "membership fee cannot be refunded")
			continue
		}
		have, sold := remaining[name]
		if !sold {
			warnings = append(warnings, fmt.Sprintf("%q was not part of the original sale", name))
			continue
		}
		if line.Quantity > have {
			warnings = append(warnings, fmt.Sprintf("refund quantity for %q exceeds refundable quantity (%d)", name, have))
			continue
		}

		price := soldPrice[name]
		if price == 0 {
			// Legacy records without a frozen price fall back to the
			// current shelf price.
			if item, err := s.repo.FindProductByName(ctx, name); err == nil {
				price = item.Price
			}
		}

		remaining[name] -= line.Quantity
		accepted = append(accepted, domain.CartLine{Name: name, Quantity: line.Quantity, SoldPrice: price})
		total += price * float64(line.Quantity)
		totalQty += line.Quantity
	}

	if len(accepted) == 0 {
		return domain.RefundResponse{}, ErrNoRefundableItems
	}

	total = round2(total)
	if total > managerRefundCeiling && !actor.Role.CanAuthorizeLargeRefund() {
		return domain.RefundResponse{}, ErrRefundRequiresManager
	}

	refundRef, err := s.allocateRefundReference(ctx)
	if err != nil {
		return domain.RefundResponse{}, err
	}

	// Shelf restock is best effort, same policy as checkout decrements.
	for _, line := range accepted {
		item, err := s.repo.FindProductByName(ctx, line.Name)
		if err == nil {
			err = s.repo.AdjustStock(ctx, item.ID, line.Quantity)
		}
		if err != nil {
			log.Printf("[service] WARN: restock failed for %q: %v", line.Name, err)
			warnings = append(warnings, fmt.Sprintf("restock failed for %q: %v", line.Name, err))
		}
	}

	annotation := fmt.Sprintf("Refunded: %s (Refund Ref: %s)", describeRefundLines(accepted), refundRef)
	if err := s.repo.AppendSaleRemarks(ctx, sale.ReferenceNumber, annotation); err != nil {
		log.Printf("[service] WARN: could not annotate sale %s: %v", sale.ReferenceNumber, err)
		warnings = append(warnings, fmt.Sprintf("could not annotate original sale: %v", err))
	}

	refundRecord := domain.SaleRecord{
		EmployeeID:      actor.EmployeeID,
		CustomerID:      sale.CustomerID,
		Items:           EncodeLines(accepted),
		Quantity:        -totalQty,
		Tax:             0,
		Discount:        0,
		Total:           -total,
		Membership:      "",
		ReferenceNumber: refundRef,
		PaymentMethod:   paymentRefund,
		Remarks:         "Refund Transaction",
	}
	if _, err := s.repo.InsertSale(ctx, refundRecord); err != nil {
		return domain.RefundResponse{}, fmt.Errorf("record refund: %w", err)
	}

	rendered := receipt.Render(ctx, receipt.Data{
		Reference:          sale.ReferenceNumber,
		RefundReference:    refundRef,
		Membership:         "",
		Lines:              accepted,
		Subtotal:           total,
		DiscountPercentage: 0,
		DiscountAmount:     0,
		TotalAfterDiscount: total,
		TaxAmount:          0,
		CardFee:            0,
		FinalTotal:         -total,
		PaymentMethod:      paymentRefund,
		IsRefund:           true,
	}, s.priceLookup())

	return domain.RefundResponse{
		RefundReference:   refundRef,
		OriginalReference: sale.ReferenceNumber,
		Amount:            total,
		Receipt:           rendered,
		Warnings:          warnings,
	}, nil
}

// allocateRefundReference generates a reference that is fresh against
// the ledger at generation time. The insert still guards against a
// race via the uniqueness constraint.
func (s *Service) allocateRefundReference(ctx context.Context) (string, error) {
	for attempt := 0; attempt < refInsertAttempts; attempt++ {
		ref, err := ident.NewReferenceNumber()
		if err != nil {
			return "", err
		}
		if _, err := s.repo.GetSaleByReference(ctx, ref); errors.Is(err, store.ErrNotFound) {
			return ref, nil
		}
	}
	return "", fmt.Errorf("could not allocate a refund reference after %d attempts", refInsertAttempts)
}

func describeRefundLines(lines []domain.CartLine) string {
	parts := make([]string, 0, len(lines))
	for _, line := range lines {
		parts = append(parts, fmt.Sprintf("%s x%d", line.Name, line.Quantity))
	}
	return strings.Join(parts, ", ")
}

// previouslyRefunded reads quantities back out of the "Refunded: ..."
// annotations written by earlier refund calls, the inverse of
// describeRefundLines.
func previouslyRefunded(remarks string) map[string]int {
	const (
		prefix = "Refunded: "
		suffix = " (Refund Ref: "
	)
	totals := make(map[string]int)
	for _, segment := range strings.Split(remarks, " | ") {
		if !strings.HasPrefix(segment, prefix) {
			continue
		}
		body := segment[len(prefix):]
		if idx := strings.Index(body, suffix); idx >= 0 {
			body = body[:idx]
		}
		for _, part := range strings.Split(body, ", ") {
			cut := strings.LastIndex(part, " x")
			if cut <= 0 {
				continue
			}
			qty, err := strconv.Atoi(part[cut+2:])
			if err != nil || qty <= 0 {
				continue
			}
			totals[part[:cut]] += qty
		}
	}
	return totals
}
