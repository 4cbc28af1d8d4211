package service

import (
	"fmt"
	"strconv"
	"strings"

	"supermart/backend/internal/domain"
)

// Line items are stored in the ledger as "name:qty:price" segments
// joined by ", ". Product names are validated against the delimiter
// characters at creation time, so decoding a record written by this
// system always round-trips.

const lineSeparator = ", "

func EncodeLines(lines []domain.CartLine) string {
	parts := make([]string, 0, len(lines))
	for _, line := range lines {
		parts = append(parts, fmt.Sprintf("%s:%d:%.2f", line.Name, line.Quantity, line.SoldPrice))
	}
	return strings.Join(parts, lineSeparator)
}

func DecodeLines(encoded string) ([]domain.CartLine, error) {
	if strings.TrimSpace(encoded) == "" {
		return nil, nil
	}

	segments := strings.Split(encoded, lineSeparator)
	lines := make([]domain.CartLine, 0, len(segments))
	for _, segment := range segments {
		fields := strings.Split(segment, ":")
		if len(fields) != 3 {
			return nil, fmt.Errorf("malformed line item %q", segment)
		}
		qty, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, fmt.Errorf("malformed quantity in %q: %w", segment, err)
		}
		price, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return nil, fmt.Errorf("malformed price in %q: %w", segment, err)
		}
		lines = append(lines, domain.CartLine{
			Name:      fields[0],
			Quantity:  qty,
			SoldPrice: price,
		})
	}
	return lines, nil
}

// ValidateProductName rejects names that would corrupt the ledger
// encoding.
func ValidateProductName(name string) error {
	if strings.TrimSpace(name) == "" {
		return &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if strings.ContainsAny(name, ":,") {
		return &ValidationError{Field: "name", Reason: "must not contain ':' or ','"}
	}
	return nil
}
