package memory

import (
	"context"
	"log"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"supermart/backend/internal/domain"
	"supermart/backend/internal/store"
)

type Store struct {
	mu              sync.RWMutex
	employeesByID   map[string]domain.Employee
	customersByID   map[string]domain.Customer
	productsByID    map[string]domain.InventoryItem
	aislesByID      map[string]domain.Aisle
	sales           []domain.SaleRecord
	salesByRef      map[string]int
	nextSaleID      int64
}

func New() *Store {
	return &Store{
		employeesByID: make(map[string]domain.Employee),
		customersByID: make(map[string]domain.Customer),
		productsByID:  make(map[string]domain.InventoryItem),
		aislesByID:    make(map[string]domain.Aisle),
		sales:         make([]domain.SaleRecord, 0, 128),
		salesByRef:    make(map[string]int),
		nextSaleID:    1,
	}
}

// seedEmployees builds the initial staff accounts for dev/demo mode.
// Passwords come from SEED_MANAGER_PASSWORD and SEED_CASHIER_PASSWORD.
// If unset, hardcoded dev defaults are used with a warning. Production
// deployments use PostgreSQL (DATABASE_URL) and never touch these.
func seedEmployees() map[string]domain.Employee {
	managerPwd := envOr("SEED_MANAGER_PASSWORD", "manager123")
	cashierPwd := envOr("SEED_CASHIER_PASSWORD", "cashier123")
	if os.Getenv("SEED_MANAGER_PASSWORD") == "" || os.Getenv("SEED_CASHIER_PASSWORD") == "" {
		log.Println("[memory-store] WARNING: using default dev credentials. Set SEED_MANAGER_PASSWORD and SEED_CASHIER_PASSWORD to override.")
	}

	employees := map[string]domain.Employee{}
	for _, e := range []struct {
		id       string
		name     string
		role     domain.Role
		password string
	}{
		{"M417", "Marisol Vega", domain.RoleManager, managerPwd},
		{"C208", "Calvin Reyes", domain.RoleEmployee, cashierPwd},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(e.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("[memory-store] failed to hash seed password for %s: %v", e.id, err)
		}
		employees[e.id] = domain.Employee{
			ID:           e.id,
			Name:         e.name,
			Role:         e.role,
			PasswordHash: string(hash),
		}
	}
	return employees
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func NewSeeded() *Store {
	s := New()
	s.employeesByID = seedEmployees()

	aisles := []domain.Aisle{
		{ID: "P301", Name: "Produce"},
		{ID: "D644", Name: "Dairy"},
		{ID: "B120", Name: "Bakery"},
		{ID: "S877", Name: "Snacks"},
		{ID: "H455", Name: "Household"},
	}
	for _, a := range aisles {
		s.aislesByID[a.ID] = a
	}

	products := []domain.InventoryItem{
		{ID: "A104", Name: "Apples 1lb", Category: "produce", Quantity: 140, Price: 2.50, AisleName: "Produce"},
		{ID: "B217", Name: "Bananas 1lb", Category: "produce", Quantity: 200, Price: 0.79, AisleName: "Produce"},
		{ID: "M530", Name: "Whole Milk 1gal", Category: "dairy", Quantity: 80, Price: 4.25, AisleName: "Dairy"},
		{ID: "E342", Name: "Eggs Dozen", Category: "dairy", Quantity: 96, Price: 3.89, AisleName: "Dairy"},
		{ID: "S718", Name: "Sourdough Loaf", Category: "bakery", Quantity: 40, Price: 5.00, AisleName: "Bakery"},
		{ID: "C903", Name: "Chocolate Bar", Category: "snack", Quantity: 150, Price: 1.99, AisleName: "Snacks"},
		{ID: "P566", Name: "Potato Chips", Category: "snack", Quantity: 120, Price: 3.49, AisleName: "Snacks"},
		{ID: "D481", Name: "Dish Soap", Category: "household", Quantity: 60, Price: 2.99, AisleName: "Household"},
		{ID: "T274", Name: "Paper Towels", Category: "household", Quantity: 75, Price: 6.49, AisleName: "Household"},
	}
	for _, p := range products {
		s.productsByID[p.ID] = p
	}

	customers := []domain.Customer{
		{ID: "J221", Name: "Jordan Blake", Phone: "555-0147", Membership: domain.MembershipPremium},
		{ID: "R839", Name: "Riley Chen", Phone: "555-0192", Membership: domain.MembershipRegular},
	}
	for _, c := range customers {
		s.customersByID[c.ID] = c
	}

	return s
}

func (s *Store) CreateEmployee(_ context.Context, employee domain.Employee) (*domain.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if employee.ID == "" || employee.Name == "" || employee.PasswordHash == "" {
		return nil, store.ErrInvalidRecord
	}
	if _, ok := domain.ParseRole(string(employee.Role)); !ok {
		return nil, store.ErrInvalidRecord
	}
	if _, exists := s.employeesByID[employee.ID]; exists {
		return nil, store.ErrDuplicateID
	}

	s.employeesByID[employee.ID] = employee
	created := employee
	return &created, nil
}

func (s *Store) GetEmployee(_ context.Context, id string) (*domain.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	employee, ok := s.employeesByID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	found := employee
	return &found, nil
}

func (s *Store) ListEmployees(_ context.Context) ([]domain.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	employees := make([]domain.Employee, 0, len(s.employeesByID))
	for _, e := range s.employeesByID {
		employees = append(employees, e)
	}
	slices.SortFunc(employees, func(a, b domain.Employee) int {
		return cmpString(a.ID, b.ID)
	})
	return employees, nil
}

func (s *Store) DeleteEmployee(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.employeesByID[id]; !exists {
		return store.ErrNotFound
	}
	delete(s.employeesByID, id)
	return nil
}

func (s *Store) SetEmployeeLocked(_ context.Context, id string, locked bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	employee, exists := s.employeesByID[id]
	if !exists {
		return store.ErrNotFound
	}
	employee.Locked = locked
	s.employeesByID[id] = employee
	return nil
}

func (s *Store) CreateCustomer(_ context.Context, customer domain.Customer) (*domain.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if customer.ID == "" || customer.Name == "" {
		return nil, store.ErrInvalidRecord
	}
	if _, ok := domain.ParseMembership(string(customer.Membership)); !ok {
		return nil, store.ErrInvalidRecord
	}
	if _, exists := s.customersByID[customer.ID]; exists {
		return nil, store.ErrDuplicateID
	}

	s.customersByID[customer.ID] = customer
	created := customer
	return &created, nil
}

func (s *Store) GetCustomer(_ context.Context, id string) (*domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	customer, ok := s.customersByID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	found := customer
	return &found, nil
}

func (s *Store) FindCustomerByName(_ context.Context, name string) (*domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.customersByID {
		if strings.EqualFold(c.Name, name) {
			found := c
			return &found, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) ListCustomers(_ context.Context) ([]domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	customers := make([]domain.Customer, 0, len(s.customersByID))
	for _, c := range s.customersByID {
		customers = append(customers, c)
	}
	slices.SortFunc(customers, func(a, b domain.Customer) int {
		return cmpString(a.ID, b.ID)
	})
	return customers, nil
}

func (s *Store) CreateProduct(_ context.Context, item domain.InventoryItem) (*domain.InventoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item.ID == "" || item.Name == "" || item.Price < 0 || item.Quantity < 0 {
		return nil, store.ErrInvalidRecord
	}
	if _, exists := s.productsByID[item.ID]; exists {
		return nil, store.ErrDuplicateID
	}

	s.productsByID[item.ID] = item
	created := item
	return &created, nil
}

func (s *Store) GetProduct(_ context.Context, id string) (*domain.InventoryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.productsByID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	found := item
	return &found, nil
}

func (s *Store) FindProductByName(_ context.Context, name string) (*domain.InventoryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, item := range s.productsByID {
		if strings.EqualFold(item.Name, name) {
			found := item
			return &found, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) ListProducts(_ context.Context) ([]domain.InventoryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]domain.InventoryItem, 0, len(s.productsByID))
	for _, item := range s.productsByID {
		items = append(items, item)
	}
	sortProducts(items)
	return items, nil
}

func (s *Store) ListProductsByAisle(_ context.Context, aisleName string) ([]domain.InventoryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]domain.InventoryItem, 0, 8)
	for _, item := range s.productsByID {
		if strings.EqualFold(item.AisleName, aisleName) {
			items = append(items, item)
		}
	}
	sortProducts(items)
	return items, nil
}

func (s *Store) AdjustStock(_ context.Context, productID string, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.productsByID[productID]
	if !ok {
		return store.ErrNotFound
	}
	if item.Quantity+delta < 0 {
		return store.ErrInsufficientStock
	}
	item.Quantity += delta
	s.productsByID[productID] = item
	return nil
}

func (s *Store) CreateAisle(_ context.Context, aisle domain.Aisle) (*domain.Aisle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if aisle.ID == "" || aisle.Name == "" {
		return nil, store.ErrInvalidRecord
	}
	if _, exists := s.aislesByID[aisle.ID]; exists {
		return nil, store.ErrDuplicateID
	}
	for _, existing := range s.aislesByID {
		if strings.EqualFold(existing.Name, aisle.Name) {
			return nil, store.ErrDuplicateID
		}
	}

	s.aislesByID[aisle.ID] = aisle
	created := aisle
	return &created, nil
}

func (s *Store) GetAisleByName(_ context.Context, name string) (*domain.Aisle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.aislesByID {
		if strings.EqualFold(a.Name, name) {
			found := a
			return &found, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) ListAisles(_ context.Context) ([]domain.Aisle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	aisles := make([]domain.Aisle, 0, len(s.aislesByID))
	for _, a := range s.aislesByID {
		aisles = append(aisles, a)
	}
	slices.SortFunc(aisles, func(a, b domain.Aisle) int {
		return cmpString(a.Name, b.Name)
	})
	return aisles, nil
}

func (s *Store) InsertSale(_ context.Context, sale domain.SaleRecord) (*domain.SaleRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sale.ReferenceNumber == "" {
		return nil, store.ErrInvalidRecord
	}
	if _, exists := s.salesByRef[sale.ReferenceNumber]; exists {
		return nil, store.ErrDuplicateReference
	}

	sale.ID = s.nextSaleID
	s.nextSaleID++
	if sale.Date.IsZero() {
		sale.Date = time.Now().UTC()
	}

	s.sales = append(s.sales, sale)
	s.salesByRef[sale.ReferenceNumber] = len(s.sales) - 1
	created := sale
	return &created, nil
}

func (s *Store) GetSaleByReference(_ context.Context, referenceNumber string) (*domain.SaleRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.salesByRef[referenceNumber]
	if !ok {
		return nil, store.ErrNotFound
	}
	found := s.sales[idx]
	return &found, nil
}

func (s *Store) ListSales(_ context.Context, from time.Time, to time.Time) ([]domain.SaleRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]domain.SaleRecord, 0, len(s.sales))
	for _, sale := range s.sales {
		if !from.IsZero() && sale.Date.Before(from) {
			continue
		}
		if !to.IsZero() && !sale.Date.Before(to) {
			continue
		}
		records = append(records, sale)
	}
	return records, nil
}

func (s *Store) AppendSaleRemarks(_ context.Context, referenceNumber string, remark string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.salesByRef[referenceNumber]
	if !ok {
		return store.ErrNotFound
	}
	if s.sales[idx].Remarks == "" {
		s.sales[idx].Remarks = remark
	} else {
		s.sales[idx].Remarks += " | " + remark
	}
	return nil
}

func sortProducts(items []domain.InventoryItem) {
	slices.SortFunc(items, func(a, b domain.InventoryItem) int {
		if a.Category == b.Category {
			return cmpString(a.Name, b.Name)
		}
		return cmpString(a.Category, b.Category)
	})
}

func cmpString(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
