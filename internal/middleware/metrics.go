package middleware

import (
	"sync"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
)

var (
	promOnce sync.Once
	prom     *fiberprometheus.FiberPrometheus
)

// Metrics registers the HTTP request collectors (once per process) and
// mounts the /metrics endpoint on app. The returned handler records every
// request that follows it in the chain.
func Metrics(app *fiber.App) fiber.Handler {
	promOnce.Do(func() {
		prom = fiberprometheus.New("foodshare-api")
	})
	prom.RegisterAt(app, "/metrics")
	return prom.Middleware
}
