package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"supermart/backend/internal/cache"
	"supermart/backend/internal/domain"
	"supermart/backend/internal/ident"
	"supermart/backend/internal/store"
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

const aisleListingCacheKey = "catalog:aisles"

type Service struct {
	repo       store.Repository
	catalog    cache.CatalogCache
	catalogTTL time.Duration
}

func New(repo store.Repository, catalog cache.CatalogCache, catalogTTL time.Duration) *Service {
	if catalog == nil {
		catalog = cache.NoopCatalogCache{}
	}
	if catalogTTL < time.Second {
		catalogTTL = 20 * time.Second
	}

	return &Service{
		repo:       repo,
		catalog:    catalog,
		catalogTTL: catalogTTL,
	}
}

func (s *Service) CreateEmployee(ctx context.Context, req domain.EmployeeCreateRequest) (domain.Employee, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || !actor.Role.CanManageStaff() {
		return domain.Employee{}, ErrManagerRequired
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return domain.Employee{}, &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	role, ok := domain.ParseRole(strings.TrimSpace(req.Role))
	if !ok {
		return domain.Employee{}, &ValidationError{Field: "role", Reason: "must be Manager or Employee"}
	}
	if len(req.Password) < 8 {
		return domain.Employee{}, &ValidationError{Field: "password", Reason: "must be at least 8 characters"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.Employee{}, fmt.Errorf("hash password: %w", err)
	}

	id, err := s.newEmployeeID(ctx, req.Name)
	if err != nil {
		return domain.Employee{}, err
	}

	created, err := s.repo.CreateEmployee(ctx, domain.Employee{
		ID:           id,
		Name:         req.Name,
		Role:         role,
		PasswordHash: string(hash),
	})
	if err != nil {
		return domain.Employee{}, err
	}
	return *created, nil
}

func (s *Service) ListEmployees(ctx context.Context) ([]domain.Employee, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || !actor.Role.CanManageStaff() {
		return nil, ErrManagerRequired
	}
	return s.repo.ListEmployees(ctx)
}

func (s *Service) RemoveEmployee(ctx context.Context, id string) error {
	actor, ok := ActorFromContext(ctx)
	if !ok || !actor.Role.CanManageStaff() {
		return ErrManagerRequired
	}
	if actor.EmployeeID == id {
		return &ValidationError{Field: "id", Reason: "cannot remove your own account"}
	}
	return s.repo.DeleteEmployee(ctx, id)
}

func (s *Service) UnlockEmployee(ctx context.Context, id string) error {
	actor, ok := ActorFromContext(ctx)
	if !ok || !actor.Role.CanManageStaff() {
		return ErrManagerRequired
	}
	return s.repo.SetEmployeeLocked(ctx, id, false)
}

func (s *Service) RegisterCustomer(ctx context.Context, req domain.CustomerCreateRequest) (domain.Customer, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return domain.Customer{}, &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	membership, ok := domain.ParseMembership(strings.TrimSpace(req.Membership))
	if !ok || membership == domain.MembershipAnonymous {
		return domain.Customer{}, &ValidationError{Field: "membership", Reason: "must be Regular or Premium"}
	}

	id, err := s.newCustomerID(ctx, req.Name)
	if err != nil {
		return domain.Customer{}, err
	}

	created, err := s.repo.CreateCustomer(ctx, domain.Customer{
		ID:         id,
		Name:       req.Name,
		Phone:      strings.TrimSpace(req.Phone),
		Membership: membership,
	})
	if err != nil {
		return domain.Customer{}, err
	}
	return *created, nil
}

func (s *Service) LookupCustomer(ctx context.Context, name string) (domain.Customer, error) {
	customer, err := s.repo.FindCustomerByName(ctx, strings.TrimSpace(name))
	if err != nil {
		return domain.Customer{}, err
	}
	return *customer, nil
}

func (s *Service) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	return s.repo.ListCustomers(ctx)
}

func (s *Service) AddProduct(ctx context.Context, req domain.ProductCreateRequest) (domain.InventoryItem, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return domain.InventoryItem{}, fmt.Errorf("authenticated employee required")
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Category = strings.TrimSpace(req.Category)
	req.AisleName = strings.TrimSpace(req.AisleName)
	if err := ValidateProductName(req.Name); err != nil {
		return domain.InventoryItem{}, err
	}
	if req.AisleName == "" {
		return domain.InventoryItem{}, &ValidationError{Field: "aisle_name", Reason: "must not be empty"}
	}
	if req.Price < 0 || req.Quantity < 0 {
		return domain.InventoryItem{}, &ValidationError{Field: "price", Reason: "price and quantity must not be negative"}
	}

	// A product shelved in a new aisle creates the aisle, which is a
	// manager capability.
	if _, err := s.repo.GetAisleByName(ctx, req.AisleName); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return domain.InventoryItem{}, err
		}
		if !actor.Role.CanCreateAisle() {
			return domain.InventoryItem{}, ErrManagerRequired
		}
		if _, err := s.createAisle(ctx, req.AisleName); err != nil {
			return domain.InventoryItem{}, err
		}
	}

	id, err := s.newProductID(ctx, req.Name)
	if err != nil {
		return domain.InventoryItem{}, err
	}

	created, err := s.repo.CreateProduct(ctx, domain.InventoryItem{
		ID:        id,
		Name:      req.Name,
		Category:  req.Category,
		Quantity:  req.Quantity,
		Price:     req.Price,
		AisleName: req.AisleName,
	})
	if err != nil {
		return domain.InventoryItem{}, err
	}

	s.invalidateCatalog(ctx)
	return *created, nil
}

func (s *Service) Restock(ctx context.Context, req domain.RestockRequest) (domain.InventoryItem, error) {
	if _, ok := ActorFromContext(ctx); !ok {
		return domain.InventoryItem{}, fmt.Errorf("authenticated employee required")
	}
	if req.Delta == 0 {
		return domain.InventoryItem{}, &ValidationError{Field: "delta", Reason: "must not be zero"}
	}

	if err := s.repo.AdjustStock(ctx, req.ProductID, req.Delta); err != nil {
		return domain.InventoryItem{}, err
	}
	item, err := s.repo.GetProduct(ctx, req.ProductID)
	if err != nil {
		return domain.InventoryItem{}, err
	}

	s.invalidateCatalog(ctx)
	return *item, nil
}

func (s *Service) ListProducts(ctx context.Context) ([]domain.InventoryItem, error) {
	return s.repo.ListProducts(ctx)
}

func (s *Service) CreateAisle(ctx context.Context, req domain.AisleCreateRequest) (domain.Aisle, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || !actor.Role.CanCreateAisle() {
		return domain.Aisle{}, ErrManagerRequired
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Aisle{}, &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	aisle, err := s.createAisle(ctx, name)
	if err != nil {
		return domain.Aisle{}, err
	}

	s.invalidateCatalog(ctx)
	return aisle, nil
}

// ListAisles returns every aisle with its shelved products. The result
// feeds the floor displays, so it is served from the catalog cache when
// warm.
func (s *Service) ListAisles(ctx context.Context) ([]domain.AisleListing, error) {
	if cached, ok, err := s.catalog.Get(ctx, aisleListingCacheKey); err == nil && ok {
		return cached, nil
	} else if err != nil {
		log.Printf("[service] WARN: catalog cache read failed: %v", err)
	}

	aisles, err := s.repo.ListAisles(ctx)
	if err != nil {
		return nil, err
	}

	listings := make([]domain.AisleListing, 0, len(aisles))
	for _, aisle := range aisles {
		products, err := s.repo.ListProductsByAisle(ctx, aisle.Name)
		if err != nil {
			return nil, err
		}
		listings = append(listings, domain.AisleListing{Aisle: aisle, Products: products})
	}

	if err := s.catalog.Set(ctx, aisleListingCacheKey, listings, s.catalogTTL); err != nil {
		log.Printf("[service] WARN: catalog cache write failed: %v", err)
	}
	return listings, nil
}

func (s *Service) ListAisleProducts(ctx context.Context, aisleName string) ([]domain.InventoryItem, error) {
	if _, err := s.repo.GetAisleByName(ctx, aisleName); err != nil {
		return nil, err
	}
	return s.repo.ListProductsByAisle(ctx, aisleName)
}

func (s *Service) createAisle(ctx context.Context, name string) (domain.Aisle, error) {
	id, err := s.newAisleID(ctx, name)
	if err != nil {
		return domain.Aisle{}, err
	}
	created, err := s.repo.CreateAisle(ctx, domain.Aisle{ID: id, Name: name})
	if err != nil {
		return domain.Aisle{}, err
	}
	return *created, nil
}

func (s *Service) invalidateCatalog(ctx context.Context) {
	if err := s.catalog.Invalidate(ctx, aisleListingCacheKey); err != nil {
		log.Printf("[service] WARN: catalog cache invalidation failed: %v", err)
	}
}

func (s *Service) newEmployeeID(ctx context.Context, name string) (string, error) {
	return ident.NewEntityID(name, func(id string) bool {
		_, err := s.repo.GetEmployee(ctx, id)
		return err == nil
	})
}

func (s *Service) newCustomerID(ctx context.Context, name string) (string, error) {
	return ident.NewEntityID(name, func(id string) bool {
		_, err := s.repo.GetCustomer(ctx, id)
		return err == nil
	})
}

func (s *Service) newProductID(ctx context.Context, name string) (string, error) {
	return ident.NewEntityID(name, func(id string) bool {
		_, err := s.repo.GetProduct(ctx, id)
		return err == nil
	})
}

func (s *Service) newAisleID(ctx context.Context, name string) (string, error) {
	return ident.NewEntityID(name, func(id string) bool {
		for _, a := range s.knownAisles(ctx) {
			if a.ID == id {
				return true
			}
		}
		return false
	})
}

func (s *Service) knownAisles(ctx context.Context) []domain.Aisle {
	aisles, err := s.repo.ListAisles(ctx)
	if err != nil {
		return nil
	}
	return aisles
}
