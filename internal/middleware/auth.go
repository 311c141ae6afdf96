// Package middleware holds the HTTP middleware of the API server:
// authentication, request ids, request logging, metrics and rate limiting.
package middleware

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/greenfields-vn/chomart/internal/domain"
)

const actorContextKey = "actor"

// Claims is the JWT payload issued by the account service. Subject carries
// the numeric account id.
type Claims struct {
	Role     string `json:"role"`
	Category string `json:"category,omitempty"`
	jwt.RegisteredClaims
}

// Authenticate verifies the Bearer token and stores the resulting actor on
// the request context. Requests without a valid token are rejected.
func Authenticate(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				return domain.Errorf(domain.EUNAUTHORIZED, "auth", "Missing bearer token")
			}

			actor, err := parseActor(token, secret)
			if err != nil {
				return domain.WrapError(err, domain.EUNAUTHORIZED, "auth", "Invalid token")
			}

			c.Set(actorContextKey, actor)
			return next(c)
		}
	}
}

func parseActor(token, secret string) (domain.Actor, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return domain.Actor{}, err
	}
	if !parsed.Valid {
		return domain.Actor{}, fmt.Errorf("invalid token")
	}

	var id int64
	if _, err := fmt.Sscanf(claims.Subject, "%d", &id); err != nil {
		return domain.Actor{}, fmt.Errorf("malformed subject %q", claims.Subject)
	}

	role := domain.Role(claims.Role)
	switch role {
	case domain.RoleBuyer, domain.RoleVendor, domain.RoleAdmin:
	default:
		return domain.Actor{}, fmt.Errorf("unknown role %q", claims.Role)
	}

	return domain.Actor{
		ID:       id,
		Role:     role,
		Category: domain.BuyerCategory(claims.Category),
	}, nil
}

// ActorFromContext returns the authenticated actor placed by Authenticate.
func ActorFromContext(c echo.Context) (domain.Actor, error) {
	actor, ok := c.Get(actorContextKey).(domain.Actor)
	if !ok {
		return domain.Actor{}, domain.Errorf(domain.EUNAUTHORIZED, "auth", "Authentication required")
	}
	return actor, nil
}

// RequireRole rejects authenticated actors whose role is not listed.
func RequireRole(roles ...domain.Role) echo.MiddlewareFunc {
	allowed := make(map[domain.Role]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor, err := ActorFromContext(c)
			if err != nil {
				return err
			}
			if !allowed[actor.Role] {
				return domain.Forbidden("auth", "Insufficient role")
			}
			return next(c)
		}
	}
}
