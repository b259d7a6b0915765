package identity

import (
	"net/http"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// HTTPError is the stable boundary shape for a failed request. Message codes
// are documented; the raw internal error never leaves the process.
type HTTPError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteHTTPError maps a lifecycle error onto a response. Every taxonomy error
// is a 4xx; anything unrecognized is a 500 with a generic body.
func WriteHTTPError(ctx router.Context, err error, logger Logger) error {
	if logger == nil {
		logger = defLogger{}
	}

	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	status := statusForCategory(richErr.Category)
	if status >= http.StatusInternalServerError {
		logger.Error(
			"request failed: %s category=%s details=%s",
			richErr.Message,
			richErr.Category,
			print.MaybePrettyJSON(richErr.Metadata),
		)
		return ctx.JSON(status, HTTPError{
			Code:    "INTERNAL",
			Message: "An unexpected server error occurred",
		})
	}

	logger.Info("request rejected: %s category=%s", richErr.TextCode, richErr.Category)

	return ctx.JSON(status, HTTPError{
		Code:    richErr.TextCode,
		Message: richErr.Message,
	})
}

// statusForCategory collapses the taxonomy onto the boundary statuses: auth
// failures are 401, every other recoverable error is a 400. AccountNotFound
// intentionally rides the 400 bucket, matching the documented surface.
func statusForCategory(category errors.Category) int {
	switch category {
	case errors.CategoryAuth:
		return http.StatusUnauthorized
	case errors.CategoryConflict,
		errors.CategoryValidation,
		errors.CategoryBadInput,
		errors.CategoryNotFound:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// RequireRole gates a route on a session role. RolePublic means no identity
// required and skips token validation entirely.
func RequireRole(tokens TokenService, cfg Config, role Role) router.MiddlewareFunc {
	logger := defLogger{}

	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			if role == RolePublic {
				return next(ctx)
			}

			raw := bearerToken(ctx)
			if raw == "" {
				return WriteHTTPError(ctx, ErrTokenMalformed, logger)
			}

			claims, err := tokens.Validate(raw)
			if err != nil {
				return WriteHTTPError(ctx, err, logger)
			}

			if !claims.HasRole(string(role)) {
				return WriteHTTPError(ctx, errors.New("insufficient role", errors.CategoryAuth).
					WithTextCode("FORBIDDEN_ROLE"), logger)
			}

			session, err := sessionFromAuthClaims(claims)
			if err != nil {
				return WriteHTTPError(ctx, err, logger)
			}

			ctx.Locals(cfg.GetContextKey(), session)
			return next(ctx)
		}
	}
}

// GetRouterSession retrieves the decoded session stored by RequireRole.
func GetRouterSession(ctx router.Context, key string) (*SessionObject, error) {
	val := ctx.Locals(key)
	if val == nil {
		return nil, ErrUnableToDecodeSession
	}

	session, ok := val.(*SessionObject)
	if !ok {
		return nil, ErrUnableToDecodeSession
	}

	return session, nil
}

func bearerToken(ctx router.Context) string {
	header := ctx.Header("Authorization")
	if header == "" {
		return ""
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
