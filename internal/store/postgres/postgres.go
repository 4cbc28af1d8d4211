package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"supermart/backend/internal/domain"
	"supermart/backend/internal/store"
)

// Store backs the repository with PostgreSQL. Tables mirror the domain
// records one to one; sales.reference_number carries a unique index so
// reference collisions surface as ErrDuplicateReference.
type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) CreateEmployee(ctx context.Context, employee domain.Employee) (*domain.Employee, error) {
	if employee.ID == "" || employee.Name == "" || employee.PasswordHash == "" {
		return nil, store.ErrInvalidRecord
	}
	if _, ok := domain.ParseRole(string(employee.Role)); !ok {
		return nil, store.ErrInvalidRecord
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO employees (id, name, role, password_hash, locked)
		VALUES ($1,$2,$3,$4,$5)
	`, employee.ID, employee.Name, string(employee.Role), employee.PasswordHash, employee.Locked)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrDuplicateID
		}
		return nil, err
	}

	created := employee
	return &created, nil
}

func (s *Store) GetEmployee(ctx context.Context, id string) (*domain.Employee, error) {
	var employee domain.Employee
	var role string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, role, password_hash, locked
		FROM employees
		WHERE id = $1
	`, id).Scan(&employee.ID, &employee.Name, &role, &employee.PasswordHash, &employee.Locked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	employee.Role = domain.Role(role)
	return &employee, nil
}

func (s *Store) ListEmployees(ctx context.Context) ([]domain.Employee, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, role, password_hash, locked
		FROM employees
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	employees := make([]domain.Employee, 0, 32)
	for rows.Next() {
		var employee domain.Employee
		var role string
		if err := rows.Scan(&employee.ID, &employee.Name, &role, &employee.PasswordHash, &employee.Locked); err != nil {
			return nil, err
		}
		employee.Role = domain.Role(role)
		employees = append(employees, employee)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return employees, nil
}

func (s *Store) DeleteEmployee(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM employees WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) SetEmployeeLocked(ctx context.Context, id string, locked bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE employees SET locked = $2 WHERE id = $1`, id, locked)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) CreateCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error) {
	if customer.ID == "" || customer.Name == "" {
		return nil, store.ErrInvalidRecord
	}
	if _, ok := domain.ParseMembership(string(customer.Membership)); !ok {
		return nil, store.ErrInvalidRecord
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO customers (id, name, phone, membership)
		VALUES ($1,$2,$3,$4)
	`, customer.ID, customer.Name, customer.Phone, string(customer.Membership))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrDuplicateID
		}
		return nil, err
	}

	created := customer
	return &created, nil
}

func (s *Store) GetCustomer(ctx context.Context, id string) (*domain.Customer, error) {
	var customer domain.Customer
	var membership string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, phone, membership
		FROM customers
		WHERE id = $1
	`, id).Scan(&customer.ID, &customer.Name, &customer.Phone, &membership)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	customer.Membership = domain.Membership(membership)
	return &customer, nil
}

func (s *Store) FindCustomerByName(ctx context.Context, name string) (*domain.Customer, error) {
	var customer domain.Customer
	var membership string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, phone, membership
		FROM customers
		WHERE lower(name) = lower($1)
		LIMIT 1
	`, name).Scan(&customer.ID, &customer.Name, &customer.Phone, &membership)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	customer.Membership = domain.Membership(membership)
	return &customer, nil
}

func (s *Store) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, phone, membership
		FROM customers
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	customers := make([]domain.Customer, 0, 64)
	for rows.Next() {
		var customer domain.Customer
		var membership string
		if err := rows.Scan(&customer.ID, &customer.Name, &customer.Phone, &membership); err != nil {
			return nil, err
		}
		customer.Membership = domain.Membership(membership)
		customers = append(customers, customer)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return customers, nil
}

func (s *Store) CreateProduct(ctx context.Context, item domain.InventoryItem) (*domain.InventoryItem, error) {
	if item.ID == "" || item.Name == "" || item.Price < 0 || item.Quantity < 0 {
		return nil, store.ErrInvalidRecord
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO inventory (id, name, category, quantity, price, aisle_name)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, item.ID, item.Name, item.Category, item.Quantity, item.Price, item.AisleName)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrDuplicateID
		}
		return nil, err
	}

	created := item
	return &created, nil
}

func (s *Store) GetProduct(ctx context.Context, id string) (*domain.InventoryItem, error) {
	var item domain.InventoryItem
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, category, quantity, price, aisle_name
		FROM inventory
		WHERE id = $1
	`, id).Scan(&item.ID, &item.Name, &item.Category, &item.Quantity, &item.Price, &item.AisleName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

func (s *Store) FindProductByName(ctx context.Context, name string) (*domain.InventoryItem, error) {
	var item domain.InventoryItem
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, category, quantity, price, aisle_name
		FROM inventory
		WHERE lower(name) = lower($1)
		LIMIT 1
	`, name).Scan(&item.ID, &item.Name, &item.Category, &item.Quantity, &item.Price, &item.AisleName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListProducts(ctx context.Context) ([]domain.InventoryItem, error) {
	return s.queryProducts(ctx, `
		SELECT id, name, category, quantity, price, aisle_name
		FROM inventory
		ORDER BY category, name
	`)
}

func (s *Store) ListProductsByAisle(ctx context.Context, aisleName string) ([]domain.InventoryItem, error) {
	return s.queryProducts(ctx, `
		SELECT id, name, category, quantity, price, aisle_name
		FROM inventory
		WHERE lower(aisle_name) = lower($1)
		ORDER BY category, name
	`, aisleName)
}

func (s *Store) queryProducts(ctx context.Context, query string, args ...any) ([]domain.InventoryItem, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.InventoryItem, 0, 128)
	for rows.Next() {
		var item domain.InventoryItem
		if err := rows.Scan(&item.ID, &item.Name, &item.Category, &item.Quantity, &item.Price, &item.AisleName); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

// AdjustStock applies the delta conditionally so concurrent sales can
// never drive a quantity negative.
func (s *Store) AdjustStock(ctx context.Context, productID string, delta int) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE inventory
		SET quantity = quantity + $2
		WHERE id = $1 AND quantity + $2 >= 0
	`, productID, delta)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		if _, err := s.GetProduct(ctx, productID); err != nil {
			return err
		}
		return store.ErrInsufficientStock
	}
	return nil
}

func (s *Store) CreateAisle(ctx context.Context, aisle domain.Aisle) (*domain.Aisle, error) {
	if aisle.ID == "" || aisle.Name == "" {
		return nil, store.ErrInvalidRecord
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO aisles (id, name)
		VALUES ($1,$2)
	`, aisle.ID, aisle.Name)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrDuplicateID
		}
		return nil, err
	}

	created := aisle
	return &created, nil
}

func (s *Store) GetAisleByName(ctx context.Context, name string) (*domain.Aisle, error) {
	var aisle domain.Aisle
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name
		FROM aisles
		WHERE lower(name) = lower($1)
	`, name).Scan(&aisle.ID, &aisle.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &aisle, nil
}

func (s *Store) ListAisles(ctx context.Context) ([]domain.Aisle, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name
		FROM aisles
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	aisles := make([]domain.Aisle, 0, 16)
	for rows.Next() {
		var aisle domain.Aisle
		if err := rows.Scan(&aisle.ID, &aisle.Name); err != nil {
			return nil, err
		}
		aisles = append(aisles, aisle)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return aisles, nil
}

func (s *Store) InsertSale(ctx context.Context, sale domain.SaleRecord) (*domain.SaleRecord, error) {
	if sale.ReferenceNumber == "" {
		return nil, store.ErrInvalidRecord
	}
	if sale.Date.IsZero() {
		sale.Date = time.Now().UTC()
	}

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO sales (employee_id, customer_id, items, quantity, tax, discount, total, date, membership, reference_number, payment_method, remarks)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		RETURNING id
	`, nullIfEmpty(sale.EmployeeID), sale.CustomerID, sale.Items, sale.Quantity, sale.Tax, sale.Discount,
		sale.Total, sale.Date, sale.Membership, sale.ReferenceNumber, sale.PaymentMethod, sale.Remarks,
	).Scan(&sale.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrDuplicateReference
		}
		return nil, err
	}

	created := sale
	return &created, nil
}

func (s *Store) GetSaleByReference(ctx context.Context, referenceNumber string) (*domain.SaleRecord, error) {
	var sale domain.SaleRecord
	var employeeID sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, employee_id, customer_id, items, quantity, tax, discount, total, date, membership, reference_number, payment_method, remarks
		FROM sales
		WHERE reference_number = $1
	`, referenceNumber).Scan(
		&sale.ID, &employeeID, &sale.CustomerID, &sale.Items, &sale.Quantity, &sale.Tax, &sale.Discount,
		&sale.Total, &sale.Date, &sale.Membership, &sale.ReferenceNumber, &sale.PaymentMethod, &sale.Remarks,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	sale.EmployeeID = employeeID.String
	return &sale, nil
}

func (s *Store) ListSales(ctx context.Context, from time.Time, to time.Time) ([]domain.SaleRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, employee_id, customer_id, items, quantity, tax, discount, total, date, membership, reference_number, payment_method, remarks
		FROM sales
		WHERE ($1::timestamptz IS NULL OR date >= $1)
		  AND ($2::timestamptz IS NULL OR date < $2)
		ORDER BY id
	`, nullIfZeroTime(from), nullIfZeroTime(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sales := make([]domain.SaleRecord, 0, 256)
	for rows.Next() {
		var sale domain.SaleRecord
		var employeeID sql.NullString
		if err := rows.Scan(
			&sale.ID, &employeeID, &sale.CustomerID, &sale.Items, &sale.Quantity, &sale.Tax, &sale.Discount,
			&sale.Total, &sale.Date, &sale.Membership, &sale.ReferenceNumber, &sale.PaymentMethod, &sale.Remarks,
		); err != nil {
			return nil, err
		}
		sale.EmployeeID = employeeID.String
		sales = append(sales, sale)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sales, nil
}

func (s *Store) AppendSaleRemarks(ctx context.Context, referenceNumber string, remark string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE sales
		SET remarks = CASE WHEN remarks = '' THEN $2 ELSE remarks || ' | ' || $2 END
		WHERE reference_number = $1
	`, referenceNumber, remark)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullIfZeroTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
