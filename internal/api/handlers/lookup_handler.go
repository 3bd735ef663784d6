package handlers

import (
	"errors"
	"log"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/zdziszkee/iban-registry/internal/service"
)

const defaultSearchLimit = 20

// LookupHandler handles the bank lookup HTTP surface.
type LookupHandler struct {
	service service.LookupService
}

// NewLookupHandler creates a new handler instance.
func NewLookupHandler(svc service.LookupService) *LookupHandler {
	return &LookupHandler{service: svc}
}

type batchLookupRequest struct {
	IBANs []string `json:"ibans"`
}

type validateIBANRequest struct {
	IBAN string `json:"iban"`
}

// GetByIBAN resolves an IBAN to bank metadata. Unsupported countries yield a
// well-formed miss; only a structurally invalid IBAN is a client error.
func (h *LookupHandler) GetByIBAN(c fiber.Ctx) error {
	raw := c.Params("iban")

	result, err := h.service.ResolveByIBAN(c.Context(), raw)
	if err != nil {
		return handleError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(result)
}

// GetBySortCode resolves an exact national sort code.
func (h *LookupHandler) GetBySortCode(c fiber.Ctx) error {
	code := c.Params("code")

	result, err := h.service.ResolveBySortCode(c.Context(), code)
	if err != nil {
		return handleError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(result)
}

// GetByBIC resolves a BIC to one registry entry.
func (h *LookupHandler) GetByBIC(c fiber.Ctx) error {
	bic := strings.ToUpper(c.Params("bic"))

	result, err := h.service.ResolveByBIC(c.Context(), bic)
	if err != nil {
		return handleError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(result)
}

// Search returns ranked name matches. A too-short query is an empty result,
// not an error.
func (h *LookupHandler) Search(c fiber.Ctx) error {
	term := c.Query("query")
	limit := defaultSearchLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return badRequest(c, "limit must be an integer")
		}
		limit = parsed
	}

	results, err := h.service.SearchByName(c.Context(), term, limit)
	if err != nil {
		return handleError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(results)
}

// GetStatus reports registry health.
func (h *LookupHandler) GetStatus(c fiber.Ctx) error {
	status, err := h.service.Status(c.Context())
	if err != nil {
		return handleError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(status)
}

// BatchLookup resolves up to the batch cap of IBANs in one request.
func (h *LookupHandler) BatchLookup(c fiber.Ctx) error {
	var req batchLookupRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	results, err := h.service.BatchResolveByIBAN(c.Context(), req.IBANs)
	if err != nil {
		return handleError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"results": results})
}

// ValidateIBAN runs the pure validator for direct UI field validation.
func (h *LookupHandler) ValidateIBAN(c fiber.Ctx) error {
	var req validateIBANRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	return c.Status(fiber.StatusOK).JSON(h.service.ValidateIBAN(req.IBAN))
}

func badRequest(c fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"code":    "INVALID_INPUT",
		"message": message,
	})
}

// handleError maps service errors to structured client responses. Internal
// faults are logged but never leaked.
func handleError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"code":    "NOT_FOUND",
			"message": "Bank not found",
		})
	case errors.Is(err, service.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"code":    "INVALID_INPUT",
			"message": err.Error(),
		})
	default:
		log.Printf("ERROR: lookup request failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"code":    "INTERNAL",
			"message": "Internal server error",
		})
	}
}
