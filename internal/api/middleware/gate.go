package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/storefront/storefront-api/internal/core/domain"
	"github.com/storefront/storefront-api/internal/core/policy"
	"github.com/storefront/storefront-api/internal/core/ports"
	"github.com/storefront/storefront-api/internal/pkg/metrics"
)

const (
	principalKey = "principal"
	abilityKey   = "ability"
)

// Owner tells the gate where to find the owner of the addressed resource.
type Owner int

const (
	// OwnerNone evaluates the rule unconditionally.
	OwnerNone Owner = iota
	// OwnerParamID takes the owner id from the :id path parameter.
	OwnerParamID
	// OwnerParamEmail matches the :email path parameter against the principal.
	OwnerParamEmail
	// OwnerSelf treats the principal as the owner.
	OwnerSelf
	// OwnerDeferred only requires that some rule could allow the action; the
	// handler checks ownership once it has loaded the resource.
	OwnerDeferred
)

// Requirement is what a route demands of the caller.
type Requirement struct {
	Public  bool
	Action  policy.Action
	Subject policy.Subject
	Owner   Owner
}

// Public marks a route that skips authentication.
func Public() Requirement {
	return Requirement{Public: true}
}

// Require builds a policy requirement.
func Require(action policy.Action, subject policy.Subject, owner Owner) Requirement {
	return Requirement{Action: action, Subject: subject, Owner: owner}
}

// Principal is the authenticated caller.
type Principal struct {
	ID    string
	Email string
	Role  string
}

// Gate authenticates bearer tokens and evaluates route requirements.
type Gate struct {
	tokens    ports.TokenService
	abilities *policy.Factory
}

func NewGate(tokens ports.TokenService, abilities *policy.Factory) *Gate {
	return &Gate{tokens: tokens, abilities: abilities}
}

// Check returns the middleware enforcing req.
func (g *Gate) Check(req Requirement) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if req.Public {
			return next
		}

		return func(c echo.Context) error {
			token, err := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if err != nil {
				return err
			}

			claims, err := g.tokens.Verify(token)
			if err != nil {
				return domain.ErrInvalidToken
			}
			if claims.Type != domain.TokenAccess {
				return domain.ErrInvalidToken
			}

			p := Principal{ID: claims.Subject, Email: claims.Email, Role: claims.Role}
			ability := g.abilities.For(p.ID, p.Role)
			c.Set(principalKey, p)
			c.Set(abilityKey, ability)

			allowed := decide(c, req, p, ability)
			recordDecision(req, allowed)
			if !allowed {
				return domain.ErrForbidden
			}
			return next(c)
		}
	}
}

func decide(c echo.Context, req Requirement, p Principal, ability policy.Ability) bool {
	switch req.Owner {
	case OwnerParamID:
		return ability.CanOwn(req.Action, req.Subject, c.Param("id"))
	case OwnerParamEmail:
		owner := ""
		if strings.EqualFold(strings.TrimSpace(c.Param("email")), p.Email) {
			owner = p.ID
		}
		return ability.CanOwn(req.Action, req.Subject, owner)
	case OwnerSelf:
		return ability.CanOwn(req.Action, req.Subject, p.ID)
	case OwnerDeferred:
		return ability.CanSome(req.Action, req.Subject)
	default:
		return ability.Can(req.Action, req.Subject)
	}
}

func recordDecision(req Requirement, allowed bool) {
	decision := "deny"
	if allowed {
		decision = "allow"
	}
	metrics.AuthzDecisionsTotal.WithLabelValues(string(req.Subject), string(req.Action), decision).Inc()
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
	}
	return strings.TrimSpace(parts[1]), nil
}

// PrincipalFrom returns the principal attached by the gate.
func PrincipalFrom(c echo.Context) (Principal, bool) {
	p, ok := c.Get(principalKey).(Principal)
	return p, ok
}

// AbilityFrom returns the ability attached by the gate.
func AbilityFrom(c echo.Context) (policy.Ability, bool) {
	a, ok := c.Get(abilityKey).(policy.Ability)
	return a, ok
}
