package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"
)

// Health answers liveness probes. It deliberately touches no backing
// store; a degraded Redis or broker must not fail the probe.
func Health(c echo.Context) error {
    return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}
