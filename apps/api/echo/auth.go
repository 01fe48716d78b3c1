package echoapi

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/Zakaria-Filali-dev/banat-hawaa-school-sub001/core/user"
)

const (
	contextTokenKey   = "userToken"
	contextProfileKey = "profile"
	supabaseAudience  = "authenticated"
)

// Claims represents the claims of the access tokens issued by the Supabase auth server.
type Claims struct {
	jwt.StandardClaims
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"` // database role, e.g. "authenticated"; not the school role
}

func newJWTMiddleware(secret string) echo.MiddlewareFunc {
	return middleware.JWTWithConfig(middleware.JWTConfig{
		SigningKey:    []byte(secret),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    contextTokenKey,
		Claims:        new(Claims),
	})
}

// NewClaims returns the claims of an access token for the user, valid for ttl.
func NewClaims(prof user.Profile, ttl time.Duration) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Subject:   prof.ID,
			Audience:  supabaseAudience,
			ExpiresAt: now.Add(ttl).Unix(),
			IssuedAt:  now.Unix(),
		},
		Email: prof.Email,
		Role:  supabaseAudience,
	}
}

// GenerateToken generates a signed JWT token string representing the user Claims.
func GenerateToken(claims *Claims, secret string) (string, error) {
	token := jwt.NewWithClaims(jwt.GetSigningMethod(middleware.AlgorithmHS256), claims)
	ss, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

// getContextProfile returns the Profile of the authenticated user, looked up in the Relational Store.
// The school role is never read from the token.
func getContextProfile(ctx echo.Context, svc *user.Service) (user.Profile, error) {
	if prof, ok := ctx.Get(contextProfileKey).(user.Profile); ok {
		return prof, nil
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return user.Profile{}, errors.Wrap(err, "getting context claims")
	}
	prof, err := svc.GetProfile(ctx.Request().Context(), user.GetFilter{ID: claims.Subject})
	if err != nil {
		return user.Profile{}, errors.Wrap(err, "finding profile by ID")
	}
	ctx.Set(contextProfileKey, prof)
	return prof, nil
}
