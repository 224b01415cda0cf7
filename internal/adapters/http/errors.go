package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/samirrijal/lunchpick/internal/core/domain"
)

// APIError is a structured error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`  // BAD_INPUT, SEARCH_FAILURE, RATE_LIMITED, INTERNAL
	Error     string `json:"error"` // Human-readable message
	RequestID string `json:"request_id,omitempty"`
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code string, message string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Error:     message,
		RequestID: reqID,
	})
}

// errBadInput returns a 400 error.
func errBadInput(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusBadRequest, string(domain.KindBadInput), msg)
}

// errSearchFailure returns a 502 error. The upstream body is never echoed.
func errSearchFailure(c *fiber.Ctx) error {
	return newError(c, fiber.StatusBadGateway, string(domain.KindSearchFailure), "place search failed")
}

func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusInternalServerError, "INTERNAL", msg)
}

// apiErrorFor maps a recommendation error to its public envelope.
func apiErrorFor(err error) APIError {
	var re *domain.RecommendError
	switch domain.KindOf(err) {
	case domain.KindBadInput:
		msg := "invalid input"
		if errors.As(err, &re) {
			msg = re.Message
		}
		return APIError{Status: fiber.StatusBadRequest, Code: string(domain.KindBadInput), Error: msg}
	case domain.KindSearchFailure, domain.KindUpstreamFailure:
		return APIError{Status: fiber.StatusBadGateway, Code: string(domain.KindSearchFailure), Error: "place search failed"}
	default:
		return APIError{Status: fiber.StatusInternalServerError, Code: "INTERNAL", Error: "internal error"}
	}
}

// writeRecommendError writes the envelope for err.
func writeRecommendError(c *fiber.Ctx, err error) error {
	e := apiErrorFor(err)
	switch e.Status {
	case fiber.StatusBadRequest:
		return errBadInput(c, e.Error)
	case fiber.StatusBadGateway:
		return errSearchFailure(c)
	default:
		return errInternal(c, e.Error)
	}
}
