package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-autopilot/pkg/util"
)

const operatorKey = "auth_operator"

// Middleware validates bearer tokens on protected routes. Tokens are
// self-contained; no lookup backs them.
type Middleware struct {
	tokens *TokenManager
}

// NewMiddleware constructs middleware.
func NewMiddleware(tokens *TokenManager) *Middleware {
	return &Middleware{tokens: tokens}
}

// Handle enforces authentication for protected routes.
func (m *Middleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return util.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return util.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return util.NewUnauthorized("invalid token")
	}

	c.Locals(operatorKey, claims.Operator)
	return c.Next()
}

// OperatorFromContext retrieves the authenticated operator name.
func OperatorFromContext(c *fiber.Ctx) (string, bool) {
	val, ok := c.Locals(operatorKey).(string)
	return val, ok && val != ""
}
