package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
)

// Sanitize strips characters that would be interpreted as store query
// operators from parsed JSON request bodies: object keys starting with '$'
// or containing '.' are dropped. It must run after the body-limit stage and
// before any handler binds the body. Routes that need the raw body for
// signature verification are excluded via the skipper.
func Sanitize(skipper echomiddleware.Skipper) echo.MiddlewareFunc {
	if skipper == nil {
		skipper = echomiddleware.DefaultSkipper
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if skipper(c) || !isJSONBody(c.Request()) {
				return next(c)
			}

			body, err := io.ReadAll(c.Request().Body)
			if err != nil {
				return err
			}
			if len(bytes.TrimSpace(body)) == 0 {
				c.Request().Body = io.NopCloser(bytes.NewReader(body))
				return next(c)
			}

			var payload any
			if err := json.Unmarshal(body, &payload); err != nil {
				// Leave malformed bodies to the handler's bind error.
				c.Request().Body = io.NopCloser(bytes.NewReader(body))
				return next(c)
			}

			clean, err := json.Marshal(stripOperators(payload))
			if err != nil {
				return err
			}

			c.Request().Body = io.NopCloser(bytes.NewReader(clean))
			c.Request().ContentLength = int64(len(clean))
			return next(c)
		}
	}
}

func isJSONBody(r *http.Request) bool {
	if r.Body == nil || r.ContentLength == 0 {
		return false
	}
	ct := r.Header.Get(echo.HeaderContentType)
	return strings.HasPrefix(ct, echo.MIMEApplicationJSON)
}

// stripOperators walks the decoded payload and removes operator-shaped keys.
func stripOperators(v any) any {
	switch val := v.(type) {
	case map[string]any:
		clean := make(map[string]any, len(val))
		for k, inner := range val {
			if strings.HasPrefix(k, "$") || strings.Contains(k, ".") {
				continue
			}
			clean[k] = stripOperators(inner)
		}
		return clean
	case []any:
		for i, inner := range val {
			val[i] = stripOperators(inner)
		}
		return val
	default:
		return v
	}
}

// CollapseDuplicateParams resolves parameter pollution: a query parameter
// supplied multiple times collapses to its last value unless the field is
// whitelisted as legitimately array-valued.
func CollapseDuplicateParams(whitelist ...string) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(whitelist))
	for _, f := range whitelist {
		allowed[f] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			q := c.Request().URL.Query()
			changed := false
			for key, vals := range q {
				if len(vals) <= 1 {
					continue
				}
				field, _ := splitBracket(key)
				if _, ok := allowed[field]; ok {
					continue
				}
				q[key] = vals[len(vals)-1:]
				changed = true
			}
			if changed {
				c.Request().URL.RawQuery = q.Encode()
			}
			return next(c)
		}
	}
}

// splitBracket reduces "price[gte]" to "price" so the whitelist applies to
// the field regardless of operator suffix.
func splitBracket(key string) (field, rest string) {
	if i := strings.IndexByte(key, '['); i > 0 {
		return key[:i], key[i:]
	}
	return key, ""
}
