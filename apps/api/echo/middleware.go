package echoapi

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/Zakaria-Filali-dev/banat-hawaa-school-sub001/core"
	"github.com/Zakaria-Filali-dev/banat-hawaa-school-sub001/core/user"
)

var (
	corsAllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}
	corsAllowHeaders = []string{"authorization", "x-client-info", "apikey", "content-type"}
)

// routes registers the API endpoints with their middleware applied route by route:
// group middleware would answer 404 instead of 405 to unsupported methods.
type routes struct {
	group     *echo.Group
	preflight echo.HandlerFunc
	guard     echo.MiddlewareFunc
	jwt       echo.MiddlewareFunc
	admin     echo.MiddlewareFunc
}

func (r routes) public() []echo.MiddlewareFunc {
	return []echo.MiddlewareFunc{r.guard}
}

func (r routes) authed() []echo.MiddlewareFunc {
	return []echo.MiddlewareFunc{r.guard, r.jwt}
}

func (r routes) adminOnly() []echo.MiddlewareFunc {
	return []echo.MiddlewareFunc{r.guard, r.jwt, r.admin}
}

// handle registers h on path along with the CORS preflight handler.
func (r routes) handle(method, path string, h echo.HandlerFunc, m []echo.MiddlewareFunc) {
	r.group.Add(method, path, h, m...)
	r.group.OPTIONS(path, r.preflight)
}

// configGuard answers with a core.ConfigError while required configuration is missing.
func configGuard(conf *core.Config) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if missing := conf.Missing(); len(missing) > 0 {
				return core.NewConfigError(missing...)
			}
			return next(ctx)
		}
	}
}

func adminMiddleware(svc *user.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			prof, err := getContextProfile(ctx, svc)
			if err != nil {
				if core.IsNotFound(err) {
					return errHttpForbidden
				}
				return errors.Wrap(err, "getting context profile")
			}
			if prof.IsAdmin() {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

func corsConfig(origins []string) middleware.CORSConfig {
	return middleware.CORSConfig{
		// preflight requests are answered by the OPTIONS handlers
		Skipper:      func(ctx echo.Context) bool { return ctx.Request().Method == http.MethodOptions },
		AllowOrigins: origins,
		AllowMethods: corsAllowMethods,
		AllowHeaders: corsAllowHeaders,
	}
}

// newPreflightHandler answers CORS preflight requests with a 200.
func newPreflightHandler(origins []string) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		h := ctx.Response().Header()
		h.Add(echo.HeaderVary, echo.HeaderOrigin)
		if origin := allowedOrigin(origins, ctx.Request().Header.Get(echo.HeaderOrigin)); origin != "" {
			h.Set(echo.HeaderAccessControlAllowOrigin, origin)
			h.Set(echo.HeaderAccessControlAllowMethods, strings.Join(corsAllowMethods, ","))
			h.Set(echo.HeaderAccessControlAllowHeaders, strings.Join(corsAllowHeaders, ", "))
		}
		return ctx.String(http.StatusOK, "ok")
	}
}

func allowedOrigin(origins []string, origin string) string {
	if len(origins) == 0 {
		return "*"
	}
	for _, o := range origins {
		if o == "*" {
			return "*"
		}
		if o == origin {
			return origin
		}
	}
	return ""
}
