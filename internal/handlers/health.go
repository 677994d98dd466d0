package handlers

import "github.com/gofiber/fiber/v2"

// HealthCheck handles GET /health. It is intentionally lightweight — no
// database queries, no authentication — so load balancers and container
// probes can use it as a liveness signal.
func HealthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// Welcome handles GET / for unauthenticated discovery of the API root.
func Welcome(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"message": "Welcome to the Fantasy Football League API."})
}
