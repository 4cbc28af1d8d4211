package store

import (
	"context"
	"errors"
	"time"

	"supermart/backend/internal/domain"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrDuplicateID        = errors.New("duplicate id")
	ErrDuplicateReference = errors.New("duplicate reference number")
	ErrInvalidRecord      = errors.New("invalid record")
)

type Repository interface {
	CreateEmployee(ctx context.Context, employee domain.Employee) (*domain.Employee, error)
	GetEmployee(ctx context.Context, id string) (*domain.Employee, error)
	ListEmployees(ctx context.Context) ([]domain.Employee, error)
	DeleteEmployee(ctx context.Context, id string) error
	SetEmployeeLocked(ctx context.Context, id string, locked bool) error

	CreateCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error)
	GetCustomer(ctx context.Context, id string) (*domain.Customer, error)
	FindCustomerByName(ctx context.Context, name string) (*domain.Customer, error)
	ListCustomers(ctx context.Context) ([]domain.Customer, error)

	CreateProduct(ctx context.Context, item domain.InventoryItem) (*domain.InventoryItem, error)
	GetProduct(ctx context.Context, id string) (*domain.InventoryItem, error)
	FindProductByName(ctx context.Context, name string) (*domain.InventoryItem, error)
	ListProducts(ctx context.Context) ([]domain.InventoryItem, error)
	ListProductsByAisle(ctx context.Context, aisleName string) ([]domain.InventoryItem, error)
	// AdjustStock adds delta to the product quantity. Negative deltas
	// fail with ErrInsufficientStock rather than driving stock below zero.
	AdjustStock(ctx context.Context, productID string, delta int) error

	CreateAisle(ctx context.Context, aisle domain.Aisle) (*domain.Aisle, error)
	GetAisleByName(ctx context.Context, name string) (*domain.Aisle, error)
	ListAisles(ctx context.Context) ([]domain.Aisle, error)

	// InsertSale appends one ledger record and returns it with the
	// store-assigned monotonic ID. ErrDuplicateReference signals a
	// reference number collision.
	InsertSale(ctx context.Context, sale domain.SaleRecord) (*domain.SaleRecord, error)
	GetSaleByReference(ctx context.Context, referenceNumber string) (*domain.SaleRecord, error)
	// ListSales returns ledger records with Date in [from, to). Zero
	// bounds are open ended.
	ListSales(ctx context.Context, from time.Time, to time.Time) ([]domain.SaleRecord, error)
	// AppendSaleRemarks appends text to the record's remarks. Existing
	// remark content is never rewritten.
	AppendSaleRemarks(ctx context.Context, referenceNumber string, remark string) error
}
