package auth

import (
	"strings"

	"github.com/eduserv/ledger/internal/pkg/apperrors"
	pkgauth "github.com/eduserv/ledger/internal/pkg/auth"
)

// Operator roles carried in session tokens.
const (
	RoleAdmin  = "admin"
	RoleBursar = "bursar"
	RoleViewer = "viewer"
)

// DefaultWriteRoles may append to the ledger and edit the registry.
var DefaultWriteRoles = []string{RoleAdmin, RoleBursar}

// AuthorizationService decides what a verified session may do
type AuthorizationService struct {
	writeRoles map[string]bool
}

// NewAuthorizationService creates a new AuthorizationService. An empty role
// list falls back to DefaultWriteRoles.
func NewAuthorizationService(writeRoles []string) *AuthorizationService {
	if len(writeRoles) == 0 {
		writeRoles = DefaultWriteRoles
	}
	roles := make(map[string]bool, len(writeRoles))
	for _, r := range writeRoles {
		roles[strings.ToLower(strings.TrimSpace(r))] = true
	}
	return &AuthorizationService{writeRoles: roles}
}

// CanWrite returns nil when the session may record payments, expenses,
// catalog entries and registry changes.
func (s *AuthorizationService) CanWrite(sess pkgauth.Session) error {
	if sess.IsZero() {
		return apperrors.NewUnauthorizedError("authentication required")
	}
	if !s.writeRoles[strings.ToLower(sess.Role)] {
		return apperrors.NewPermissionDeniedError("role " + sess.Role + " is read-only")
	}
	return nil
}
