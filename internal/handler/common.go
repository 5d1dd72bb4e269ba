package handler // handler defines http handlers

import (
    "errors"
    "regexp"

    "github.com/labstack/echo/v4"
)

// getUserID extracts the authenticated user id placed in the context
// by the JWT middleware.
func getUserID(c echo.Context) (uint64, error) {
    if id, ok := c.Get("user_id").(uint64); ok && id != 0 {
        return id, nil
    }
    return 0, errors.New("invalid user_id in context")
}

// dateKeyPattern matches the YYYY-MM-DD date keys attendance records
// and notes are addressed by.
var dateKeyPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

func validDateKey(s string) bool { return dateKeyPattern.MatchString(s) }
