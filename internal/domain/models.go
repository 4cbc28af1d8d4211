package domain

import "time"

// Role is the closed set of staff roles. Anything outside this set is
// rejected at the edge, so capability checks never compare raw strings.
type Role string

const (
	RoleManager  Role = "Manager"
	RoleEmployee Role = "Employee"
)

func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleManager:
		return RoleManager, true
	case RoleEmployee:
		return RoleEmployee, true
	}
	return "", false
}

func (r Role) CanManageStaff() bool { return r == RoleManager }

func (r Role) CanCreateAisle() bool { return r == RoleManager }

func (r Role) CanAuthorizeLargeRefund() bool { return r == RoleManager }

func (r Role) CanImportData() bool { return r == RoleManager }

type Membership string

const (
	MembershipRegular   Membership = "Regular"
	MembershipPremium   Membership = "Premium"
	MembershipAnonymous Membership = "Anonymous"
)

func ParseMembership(s string) (Membership, bool) {
	switch Membership(s) {
	case MembershipRegular:
		return MembershipRegular, true
	case MembershipPremium:
		return MembershipPremium, true
	case MembershipAnonymous:
		return MembershipAnonymous, true
	}
	return "", false
}

type Employee struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Role         Role   `json:"role"`
	PasswordHash string `json:"-"`
	Locked       bool   `json:"locked"`
}

type Customer struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Phone      string     `json:"phone"`
	Membership Membership `json:"membership"`
}

type InventoryItem struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Category  string  `json:"category"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
	AisleName string  `json:"aisle_name"`
}

type Aisle struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CartLine is one entry of a cart being priced. SoldPrice is the unit
// price frozen at pricing time; it never tracks later catalog changes.
type CartLine struct {
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	SoldPrice float64 `json:"sold_price"`
}

// SaleRecord is one row of the append-only sales ledger. Refunds are
// stored as separate records with negative Quantity and Total, never as
// edits to the original. Items holds the encoded line items.
type SaleRecord struct {
	ID              int64     `json:"id"`
	EmployeeID      string    `json:"employee_id"`
	CustomerID      string    `json:"customer_id"`
	Items           string    `json:"items"`
	Quantity        int       `json:"quantity"`
	Tax             float64   `json:"tax"`
	Discount        float64   `json:"discount"`
	Total           float64   `json:"total"`
	Date            time.Time `json:"date"`
	Membership      string    `json:"membership"`
	ReferenceNumber string    `json:"reference_number"`
	PaymentMethod   string    `json:"payment_method"`
	Remarks         string    `json:"remarks"`
}

type LoginRequest struct {
	EmployeeID string `json:"employee_id"`
	Password   string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	EmployeeID string
	Role       Role
}

type CheckoutRequest struct {
	CustomerID    string     `json:"customer_id"`
	Lines         []CartLine `json:"lines"`
	PaymentMethod string     `json:"payment_method"`
	// Assisted marks an employee-operated checkout. Self-checkout
	// requests leave it false even when the customer is on staff.
	Assisted bool `json:"assisted"`
	// NewCustomer registers a customer as part of this checkout. A
	// Premium signup adds the membership fee line to the cart.
	NewCustomer *CustomerCreateRequest `json:"new_customer,omitempty"`
}

type CheckoutResponse struct {
	ReferenceNumber string   `json:"reference_number"`
	Subtotal        float64  `json:"subtotal"`
	Discount        float64  `json:"discount"`
	Tax             float64  `json:"tax"`
	Surcharge       float64  `json:"surcharge"`
	Total           float64  `json:"total"`
	PaymentMethod   string   `json:"payment_method"`
	Receipt         string   `json:"receipt"`
	Warnings        []string `json:"warnings,omitempty"`
}

type RefundLine struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

type RefundRequest struct {
	ReferenceNumber string       `json:"reference_number"`
	Lines           []RefundLine `json:"lines"`
}

type RefundResponse struct {
	RefundReference   string   `json:"refund_reference"`
	OriginalReference string   `json:"original_reference"`
	Amount            float64  `json:"amount"`
	Receipt           string   `json:"receipt"`
	Warnings          []string `json:"warnings,omitempty"`
}

type EmployeeCreateRequest struct {
	Name     string `json:"name"`
	Role     string `json:"role"`
	Password string `json:"password"`
}

type CustomerCreateRequest struct {
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Membership string `json:"membership"`
}

type ProductCreateRequest struct {
	Name      string  `json:"name"`
	Category  string  `json:"category"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
	AisleName string  `json:"aisle_name"`
}

type RestockRequest struct {
	ProductID string `json:"product_id"`
	Delta     int    `json:"delta"`
}

type AisleCreateRequest struct {
	Name string `json:"name"`
}

// AisleListing is an aisle together with the products shelved in it,
// derived from inventory rows rather than stored.
type AisleListing struct {
	Aisle    Aisle           `json:"aisle"`
	Products []InventoryItem `json:"products"`
}

type ImportSummary struct {
	Employees int      `json:"employees"`
	Customers int      `json:"customers"`
	Aisles    int      `json:"aisles"`
	Products  int      `json:"products"`
	Skipped   []string `json:"skipped,omitempty"`
}
