// Package report builds the multi-sheet sales workbook handed to store
// management: today's sales, the trailing week, top products, top
// employees, and overall insights.
package report

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"supermart/backend/internal/domain"
	"supermart/backend/internal/service"
	"supermart/backend/internal/store"
)

var salesHeader = []interface{}{
	"id", "employee_id", "customer_id", "items", "quantity", "tax",
	"discount", "total", "date", "membership", "reference_number",
	"payment_method", "remarks",
}

type Generator struct {
	repo store.Repository
	now  func() time.Time
}

func NewGenerator(repo store.Repository) *Generator {
	return &Generator{repo: repo, now: time.Now}
}

// Write renders the workbook to w.
func (g *Generator) Write(ctx context.Context, w io.Writer) error {
	now := g.now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	weekStart := dayStart.AddDate(0, 0, -7)

	today, err := g.repo.ListSales(ctx, dayStart, time.Time{})
	if err != nil {
		return fmt.Errorf("today sales: %w", err)
	}
	weekly, err := g.repo.ListSales(ctx, weekStart, time.Time{})
	if err != nil {
		return fmt.Errorf("weekly sales: %w", err)
	}
	all, err := g.repo.ListSales(ctx, time.Time{}, time.Time{})
	if err != nil {
		return fmt.Errorf("overall sales: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := writeSalesSheet(f, "Today Sales", today); err != nil {
		return err
	}
	if err := writeSalesSheet(f, "Weekly Sales", weekly); err != nil {
		return err
	}
	if err := writeTopProducts(f, all); err != nil {
		return err
	}
	if err := writeTopEmployees(f, all); err != nil {
		return err
	}
	if err := writeOverallInsights(f, all); err != nil {
		return err
	}

	// The default sheet is replaced by the first real one.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}
	if idx, err := f.GetSheetIndex("Today Sales"); err == nil && idx >= 0 {
		f.SetActiveSheet(idx)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSalesSheet(f *excelize.File, name string, sales []domain.SaleRecord) error {
	if _, err := f.NewSheet(name); err != nil {
		return err
	}
	if err := f.SetSheetRow(name, "A1", &salesHeader); err != nil {
		return err
	}
	for i, sale := range sales {
		row := []interface{}{
			sale.ID, sale.EmployeeID, sale.CustomerID, sale.Items, sale.Quantity, sale.Tax,
			sale.Discount, sale.Total, sale.Date.Format("2006-01-02 15:04:05"), sale.Membership,
			sale.ReferenceNumber, sale.PaymentMethod, sale.Remarks,
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(name, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

// writeTopProducts aggregates quantity sold per product across the
// whole ledger. Refund records carry positive per-line quantities but a
// negative record quantity, so only positive-quantity records count.
func writeTopProducts(f *excelize.File, sales []domain.SaleRecord) error {
	const name = "Top Products"
	if _, err := f.NewSheet(name); err != nil {
		return err
	}

	totals := map[string]int{}
	for _, sale := range sales {
		if sale.Quantity < 0 {
			continue
		}
		lines, err := service.DecodeLines(sale.Items)
		if err != nil {
			continue
		}
		for _, line := range lines {
			totals[line.Name] += line.Quantity
		}
	}

	type productTotal struct {
		name string
		qty  int
	}
	ranked := make([]productTotal, 0, len(totals))
	for product, qty := range totals {
		ranked = append(ranked, productTotal{name: product, qty: qty})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].qty == ranked[j].qty {
			return ranked[i].name < ranked[j].name
		}
		return ranked[i].qty > ranked[j].qty
	})

	header := []interface{}{"Product", "Total Quantity Sold"}
	if err := f.SetSheetRow(name, "A1", &header); err != nil {
		return err
	}
	for i, entry := range ranked {
		row := []interface{}{entry.name, entry.qty}
		if err := f.SetSheetRow(name, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return err
		}
	}
	return nil
}

func writeTopEmployees(f *excelize.File, sales []domain.SaleRecord) error {
	const name = "Top Employees"
	if _, err := f.NewSheet(name); err != nil {
		return err
	}

	type employeeTotal struct {
		id         string
		salesCount int
		totalSales float64
	}
	totals := map[string]*employeeTotal{}
	for _, sale := range sales {
		if sale.EmployeeID == "" {
			continue
		}
		entry, ok := totals[sale.EmployeeID]
		if !ok {
			entry = &employeeTotal{id: sale.EmployeeID}
			totals[sale.EmployeeID] = entry
		}
		entry.salesCount++
		entry.totalSales += sale.Total
	}

	ranked := make([]*employeeTotal, 0, len(totals))
	for _, entry := range totals {
		ranked = append(ranked, entry)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].totalSales == ranked[j].totalSales {
			return ranked[i].id < ranked[j].id
		}
		return ranked[i].totalSales > ranked[j].totalSales
	})

	header := []interface{}{"employee_id", "sales_count", "total_sales"}
	if err := f.SetSheetRow(name, "A1", &header); err != nil {
		return err
	}
	for i, entry := range ranked {
		row := []interface{}{entry.id, entry.salesCount, entry.totalSales}
		if err := f.SetSheetRow(name, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return err
		}
	}
	return nil
}

func writeOverallInsights(f *excelize.File, sales []domain.SaleRecord) error {
	const name = "Overall Insights"
	if _, err := f.NewSheet(name); err != nil {
		return err
	}

	total := 0.0
	for _, sale := range sales {
		total += sale.Total
	}
	average := 0.0
	if len(sales) > 0 {
		average = total / float64(len(sales))
	}

	header := []interface{}{"Overall Total Sales", "Average Sale Amount", "Total Transactions"}
	if err := f.SetSheetRow(name, "A1", &header); err != nil {
		return err
	}
	row := []interface{}{total, average, len(sales)}
	return f.SetSheetRow(name, "A2", &row)
}
