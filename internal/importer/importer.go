// Package importer loads a spreadsheet workbook into the store. Sheet
// names select the collection; rows that fail validation are skipped
// and reported, never fatal.
package importer

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"supermart/backend/internal/domain"
	"supermart/backend/internal/service"
)

type Loader struct {
	svc *service.Service
}

func New(svc *service.Service) *Loader {
	return &Loader{svc: svc}
}

// Load reads the workbook and inserts rows sheet by sheet. Recognized
// sheets are "employees", "customers", "aisles" and "inventory"; any
// other sheet is reported as skipped. The first row of each sheet is a
// header naming the columns.
func (l *Loader) Load(ctx context.Context, r io.Reader) (domain.ImportSummary, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return domain.ImportSummary{}, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	summary := domain.ImportSummary{}
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return summary, fmt.Errorf("read sheet %q: %w", sheet, err)
		}
		if len(rows) < 2 {
			continue
		}
		header := indexHeader(rows[0])
		data := rows[1:]

		switch strings.ToLower(strings.TrimSpace(sheet)) {
		case "employees":
			l.loadEmployees(ctx, header, data, &summary)
		case "customers":
			l.loadCustomers(ctx, header, data, &summary)
		case "aisles":
			l.loadAisles(ctx, header, data, &summary)
		case "inventory":
			l.loadInventory(ctx, header, data, &summary)
		default:
			summary.Skipped = append(summary.Skipped, fmt.Sprintf("sheet %q: unknown collection", sheet))
		}
	}
	return summary, nil
}

func (l *Loader) loadEmployees(ctx context.Context, header map[string]int, rows [][]string, summary *domain.ImportSummary) {
	for i, row := range rows {
		req := domain.EmployeeCreateRequest{
			Name:     cell(row, header, "name"),
			Role:     cell(row, header, "role"),
			Password: cell(row, header, "password"),
		}
		if _, err := l.svc.CreateEmployee(ctx, req); err != nil {
			summary.Skipped = append(summary.Skipped, fmt.Sprintf("employees row %d: %v", i+2, err))
			continue
		}
		summary.Employees++
	}
}

func (l *Loader) loadCustomers(ctx context.Context, header map[string]int, rows [][]string, summary *domain.ImportSummary) {
	for i, row := range rows {
		req := domain.CustomerCreateRequest{
			Name:       cell(row, header, "name"),
			Phone:      cell(row, header, "phone"),
			Membership: cell(row, header, "membership"),
		}
		if _, err := l.svc.RegisterCustomer(ctx, req); err != nil {
			summary.Skipped = append(summary.Skipped, fmt.Sprintf("customers row %d: %v", i+2, err))
			continue
		}
		summary.Customers++
	}
}

func (l *Loader) loadAisles(ctx context.Context, header map[string]int, rows [][]string, summary *domain.ImportSummary) {
	for i, row := range rows {
		req := domain.AisleCreateRequest{Name: cell(row, header, "name")}
		if _, err := l.svc.CreateAisle(ctx, req); err != nil {
			summary.Skipped = append(summary.Skipped, fmt.Sprintf("aisles row %d: %v", i+2, err))
			continue
		}
		summary.Aisles++
	}
}

func (l *Loader) loadInventory(ctx context.Context, header map[string]int, rows [][]string, summary *domain.ImportSummary) {
	for i, row := range rows {
		qty, err := strconv.Atoi(strings.TrimSpace(cell(row, header, "quantity")))
		if err != nil {
			summary.Skipped = append(summary.Skipped, fmt.Sprintf("inventory row %d: bad quantity", i+2))
			continue
		}
		price, err := strconv.ParseFloat(strings.TrimSpace(cell(row, header, "price")), 64)
		if err != nil {
			summary.Skipped = append(summary.Skipped, fmt.Sprintf("inventory row %d: bad price", i+2))
			continue
		}
		req := domain.ProductCreateRequest{
			Name:      cell(row, header, "name"),
			Category:  cell(row, header, "category"),
			Quantity:  qty,
			Price:     price,
			AisleName: cell(row, header, "aisle_name"),
		}
		if _, err := l.svc.AddProduct(ctx, req); err != nil {
			summary.Skipped = append(summary.Skipped, fmt.Sprintf("inventory row %d: %v", i+2, err))
			continue
		}
		summary.Products++
	}
}

func indexHeader(row []string) map[string]int {
	index := make(map[string]int, len(row))
	for i, name := range row {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return index
}

func cell(row []string, header map[string]int, name string) string {
	idx, ok := header[name]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
