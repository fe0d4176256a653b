package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/example/checkout-stock-reservation/internal/handler"
)

// RegisterRoutes registers the service's HTTP surface on the
// provided Echo instance.  The surface is deliberately small: a
// health check for load balancers and the read-only availability
// estimate.  Checkout mutations arrive over the message queue, not
// over HTTP.
func RegisterRoutes(e *echo.Echo, avail *handler.AvailabilityHandler) {
	e.GET("/healthz", handler.Health)

	v1 := e.Group("/v1")
	v1.GET("/variants/:id/availability", avail.Estimate)
}
