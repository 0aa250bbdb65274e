package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/Puru1375/ai-smart-internship-allocation/internal/apperror"
	"github.com/Puru1375/ai-smart-internship-allocation/internal/util"
	"github.com/gofiber/fiber/v2"
)

const (
	HeaderUser          = "X-Auth-User"
	HeaderRole          = "X-Auth-Role"
	HeaderGatewaySecret = "X-Auth-Gateway-Secret"

	identityKey = "identity"
)

type Role string

const (
	RoleAdmin        Role = "admin"
	RoleApplicant    Role = "applicant"
	RoleOrganization Role = "organization"
)

// ParseRole maps gateway role names, including the legacy aliases, onto a Role.
func ParseRole(raw string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "admin":
		return RoleAdmin, true
	case "applicant", "student":
		return RoleApplicant, true
	case "organization", "organisation", "company":
		return RoleOrganization, true
	default:
		return "", false
	}
}

// Identity is the caller as asserted by the authentication gateway.
type Identity struct {
	UserID string
	Role   Role
}

// Authenticate reads the gateway identity headers. When secret is non-empty
// the request must also carry it in X-Auth-Gateway-Secret.
func Authenticate(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if secret != "" {
			got := c.Get(HeaderGatewaySecret)
			if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
				return util.AppErrorResponse(c, apperror.New(apperror.KindUnauthorized, "request did not come through the auth gateway"))
			}
		}
		userID := strings.TrimSpace(c.Get(HeaderUser))
		if userID == "" {
			return util.AppErrorResponse(c, apperror.New(apperror.KindUnauthorized, "missing caller identity"))
		}
		role, ok := ParseRole(c.Get(HeaderRole))
		if !ok {
			return util.AppErrorResponse(c, apperror.New(apperror.KindUnauthorized, "missing or unknown caller role"))
		}
		c.Locals(identityKey, Identity{UserID: userID, Role: role})
		return c.Next()
	}
}

// RequireRole admits only callers holding one of roles. It must run after Authenticate.
func RequireRole(roles ...Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := IdentityFrom(c)
		if !ok {
			return util.AppErrorResponse(c, apperror.New(apperror.KindUnauthorized, "missing caller identity"))
		}
		for _, r := range roles {
			if id.Role == r {
				return c.Next()
			}
		}
		return util.AppErrorResponse(c, apperror.New(apperror.KindForbidden, "role not allowed").
			WithDetails(map[string]any{"role": string(id.Role)}))
	}
}

func IdentityFrom(c *fiber.Ctx) (Identity, bool) {
	id, ok := c.Locals(identityKey).(Identity)
	return id, ok
}
