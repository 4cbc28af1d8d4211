// Package receipt renders printable till receipts. Rendering is pure
// string assembly; the only outward dependency is an optional price
// lookup used when a line carries no frozen sold price.
package receipt

import (
	"context"
	"fmt"
	"strings"

	"supermart/backend/internal/domain"
)

// PriceLookup resolves a current shelf price for lines that were stored
// without a sold price. The fallback price may differ from what the
// customer paid; it is display-only.
type PriceLookup interface {
	PriceFor(ctx context.Context, name string) (float64, bool)
}

type Data struct {
	Reference          string
	RefundReference    string
	Membership         string
	Lines              []domain.CartLine
	Subtotal           float64
	DiscountPercentage int
	DiscountAmount     float64
	TotalAfterDiscount float64
	TaxAmount          float64
	CardFee            float64
	FinalTotal         float64
	PaymentMethod      string
	IsRefund           bool
}

const rule = "==============================="

func Render(ctx context.Context, data Data, lookup PriceLookup) string {
	var b strings.Builder

	b.WriteString(rule + "\n")
	if data.IsRefund {
		b.WriteString("         REFUND RECEIPT\n")
	} else {
		b.WriteString("          SUPERMARKET\n")
	}
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "Ref No: %s\n", data.Reference)
	if data.IsRefund && data.RefundReference != "" {
		fmt.Fprintf(&b, "Refund Ref: %s\n", data.RefundReference)
	}
	fmt.Fprintf(&b, "Membership Status: %s\n", data.Membership)
	if data.IsRefund {
		b.WriteString("Items Refunded:\n")
	} else {
		b.WriteString("Items Purchased:\n")
	}

	for _, line := range data.Lines {
		unitPrice := line.SoldPrice
		if unitPrice == 0 && lookup != nil {
			if p, ok := lookup.PriceFor(ctx, line.Name); ok {
				unitPrice = p
			}
		}
		note := ""
		if data.IsRefund {
			note = " (Refunded)"
		}
		fmt.Fprintf(&b, "- %s x%d @ $%.2f each = $%.2f%s\n",
			line.Name, line.Quantity, unitPrice, unitPrice*float64(line.Quantity), note)
	}

	b.WriteString("-------------------------------\n")
	fmt.Fprintf(&b, "Subtotal: $%.2f\n", data.Subtotal)
	fmt.Fprintf(&b, "Discount (%d%%): -$%.2f\n", data.DiscountPercentage, data.DiscountAmount)
	fmt.Fprintf(&b, "Total after discount: $%.2f\n", data.TotalAfterDiscount)
	fmt.Fprintf(&b, "Tax (8%%): +$%.2f\n", data.TaxAmount)
	if data.CardFee != 0 {
		fmt.Fprintf(&b, "Card Transaction Fee (2%%): +$%.2f\n", data.CardFee)
	}
	fmt.Fprintf(&b, "Final Total: $%.2f\n", data.FinalTotal)
	fmt.Fprintf(&b, "Payment Method: %s\n", capitalize(data.PaymentMethod))
	b.WriteString(rule + "\n")
	if data.IsRefund {
		b.WriteString("       Refund Processed\n")
	} else {
		b.WriteString("    Thank you for shopping!\n")
	}
	b.WriteString(rule + "\n")

	return b.String()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
