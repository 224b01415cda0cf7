package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/samirrijal/lunchpick/internal/adapters/provider"
)

// RecommendHandler serves GET /recommend?lat=&lng=[&strategy=].
// An empty result is a 200 with "items": [] and "state": "EMPTY".
func RecommendHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderCacheControl, "no-store")
		if deps.Recommender == nil {
			return errInternal(c, "recommender not configured")
		}

		rec, err := deps.Recommender.RecommendRaw(c.UserContext(), c.Query("lat"), c.Query("lng"), c.Query("strategy"))
		if err != nil {
			return writeRecommendError(c, err)
		}
		return c.JSON(rec)
	}
}

// ProvidersHandler lists registered adapters and marks the active ones.
func ProvidersHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		providers := []provider.Info{}
		if deps.Providers != nil {
			providers = deps.Providers.Describe()
		}
		return c.JSON(fiber.Map{"providers": providers})
	}
}
