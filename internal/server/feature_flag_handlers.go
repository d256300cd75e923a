package server

import "github.com/gofiber/fiber/v2"

// FeatureFlagsResponse carries the configured values next to what they
// evaluate to for the caller, so a client can tell a rollout from an "off".
type FeatureFlagsResponse struct {
	Raw       map[string]string `json:"raw"`
	Evaluated map[string]bool   `json:"evaluated"`
}

// GetFeatureFlags reports flags for the optional caller. Anonymous callers
// see partial rollouts as off.
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	return c.JSON(FeatureFlagsResponse{
		Raw:       s.featureFlags.Raw(),
		Evaluated: s.featureFlags.Snapshot(callerID(c)),
	})
}
