package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "net/http" // HTTP status codes for responses
    "strconv"  // numeric claim conversion
    "strings"  // string utilities for prefix checking and trimming

    "github.com/golang-jwt/jwt/v5" // JWT library for parsing and validating tokens
    "github.com/labstack/echo/v4"  // Echo framework used for defining middleware and handlers
)

// JWTAuth returns an Echo middleware that validates a Bearer access token and
// injects the token's claims into the request context.  The provided secret
// must match the one used when issuing tokens.  Handlers downstream read the
// authenticated identity via `c.Get("user_id")` (uint64), `c.Get("role")`
// (string) and `c.Get("session_id")` (string); claims are normalized here so
// no handler has to repeat the type juggling.
func JWTAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            // A valid header starts with "Bearer " followed by the JWT.
            auth := c.Request().Header.Get("Authorization")
            if !strings.HasPrefix(auth, "Bearer ") {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
            }
            raw := strings.TrimPrefix(auth, "Bearer ")

            // Parse with HS256 and our secret; reject any other signing method.
            tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
                if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
                    return nil, echo.ErrUnauthorized
                }
                return []byte(secret), nil
            })
            if err != nil || !tok.Valid {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
            }

            claims, ok := tok.Claims.(jwt.MapClaims)
            if !ok {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
            }

            uid, ok := subjectID(claims)
            if !ok {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid subject"})
            }
            c.Set("user_id", uid)
            if role, ok := claims["role"].(string); ok {
                c.Set("role", role)
            }
            if sid, ok := claims["sid"].(string); ok {
                c.Set("session_id", sid)
            }
            return next(c)
        }
    }
}

// subjectID extracts the numeric user id from the sub claim.  JWT
// numbers decode as float64; string subjects are parsed as a fallback.
func subjectID(claims jwt.MapClaims) (uint64, bool) {
    switch v := claims["sub"].(type) {
    case float64:
        return uint64(v), true
    case string:
        if n, err := strconv.ParseUint(v, 10, 64); err == nil {
            return n, true
        }
    }
    return 0, false
}
