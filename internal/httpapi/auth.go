package httpapi

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"supermart/backend/internal/domain"
	"supermart/backend/internal/store"
)

// maxLoginFailures consecutive bad passwords lock the account until a
// manager unlocks it.
const maxLoginFailures = 3

var (
	errInvalidCredentials = errors.New("invalid credentials")
	errAccountLocked      = errors.New("account locked; ask a manager to unlock it")
)

type EmployeeStore interface {
	GetEmployee(ctx context.Context, id string) (*domain.Employee, error)
	SetEmployeeLocked(ctx context.Context, id string, locked bool) error
}

type AuthManager struct {
	mu        sync.Mutex
	secret    []byte
	tokenTTL  time.Duration
	employees EmployeeStore
	failures  map[string]int
}

type posCustomClaims struct {
	jwtlib.RegisteredClaims
	Role string `json:"role"`
}

func NewAuthManager(secret string, tokenTTL time.Duration, employees EmployeeStore) *AuthManager {
	if secret == "" {
		secret = "dev-change-me"
	}
	if tokenTTL <= 0 {
		tokenTTL = 8 * time.Hour
	}

	return &AuthManager{
		secret:    []byte(secret),
		tokenTTL:  tokenTTL,
		employees: employees,
		failures:  make(map[string]int),
	}
}

func (a *AuthManager) Login(ctx context.Context, req domain.LoginRequest) (domain.LoginResponse, error) {
	employeeID := strings.TrimSpace(req.EmployeeID)
	if employeeID == "" {
		return domain.LoginResponse{}, errInvalidCredentials
	}

	employee, err := a.employees.GetEmployee(ctx, employeeID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.LoginResponse{}, errInvalidCredentials
		}
		return domain.LoginResponse{}, err
	}
	if employee.Locked {
		return domain.LoginResponse{}, errAccountLocked
	}

	if !verifyPassword(employee.PasswordHash, req.Password) {
		if a.recordFailure(employeeID) >= maxLoginFailures {
			if err := a.employees.SetEmployeeLocked(ctx, employeeID, true); err != nil {
				log.Printf("[auth] WARN: could not lock account %s: %v", employeeID, err)
			} else {
				log.Printf("[auth] WARN: account %s locked after %d failed logins", employeeID, maxLoginFailures)
			}
			return domain.LoginResponse{}, errAccountLocked
		}
		return domain.LoginResponse{}, errInvalidCredentials
	}

	a.resetFailures(employeeID)

	expiresAt := time.Now().UTC().Add(a.tokenTTL)
	token, err := a.sign(employee.ID, string(employee.Role), expiresAt)
	if err != nil {
		return domain.LoginResponse{}, err
	}

	return domain.LoginResponse{
		AccessToken: token,
		Role:        string(employee.Role),
		ExpiresAt:   expiresAt.Format(time.RFC3339),
	}, nil
}

func (a *AuthManager) ParseToken(tokenStr string) (domain.Actor, error) {
	claims := &posCustomClaims{}
	token, err := jwtlib.ParseWithClaims(tokenStr, claims, func(t *jwtlib.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	}, jwtlib.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return domain.Actor{}, errors.New("invalid or expired token")
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return domain.Actor{}, errors.New("invalid token subject")
	}
	role, ok := domain.ParseRole(claims.Role)
	if !ok {
		return domain.Actor{}, errors.New("invalid token role")
	}
	return domain.Actor{EmployeeID: sub, Role: role}, nil
}

// ResetFailures clears the failed-login counter, used alongside a
// manager unlock so the next attempt starts clean.
func (a *AuthManager) ResetFailures(employeeID string) {
	a.resetFailures(employeeID)
}

func (a *AuthManager) sign(employeeID, role string, expiresAt time.Time) (string, error) {
	claims := posCustomClaims{
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   employeeID,
			IssuedAt:  jwtlib.NewNumericDate(time.Now().UTC()),
			ExpiresAt: jwtlib.NewNumericDate(expiresAt),
			Issuer:    "supermart",
		},
		Role: role,
	}
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

func (a *AuthManager) recordFailure(employeeID string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.failures[employeeID]++
	return a.failures[employeeID]
}

func (a *AuthManager) resetFailures(employeeID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.failures, employeeID)
}

func verifyPassword(stored string, input string) bool {
	if stored == "" || strings.TrimSpace(input) == "" || !isPasswordHash(stored) {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(input)) == nil
}

func isPasswordHash(value string) bool {
	return strings.HasPrefix(value, "$2a$") || strings.HasPrefix(value, "$2b$") || strings.HasPrefix(value, "$2y$")
}
