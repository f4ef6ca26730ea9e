package handler

import (
	"errors"

	"go-shop-pos/internal/model"
	"go-shop-pos/internal/service"

	"github.com/gofiber/fiber/v2"
)

type SaleHandler struct {
	service service.SaleService
}

func NewSaleHandler(s service.SaleService) *SaleHandler {
	return &SaleHandler{service: s}
}

// CreateSale commits a cart as one atomic sale.
// POST /api/sales
func (h *SaleHandler) CreateSale(c *fiber.Ctx) error {
	var req service.SaleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	var operatorID *uint
	if id, ok := getUserID(c); ok {
		operatorID = &id
	}

	sale, err := h.service.SubmitSale(c.UserContext(), &req, operatorID)
	if err != nil {
		return saleError(c, err)
	}

	return c.Status(201).JSON(sale.ToResponse())
}

// saleError maps sale failures to HTTP statuses. Rejected carts surface as
// 400 with the message as-is so the register can show it; lock contention is
// 409 and anything else stays a generic 500.
func saleError(c *fiber.Ctx, err error) error {
	if errors.Is(err, service.ErrBusy) {
		return c.Status(409).JSON(fiber.Map{"error": err.Error()})
	}

	var notFound *service.NotFoundError
	var noStock *service.InsufficientStockError
	var invalid *service.ValidationError
	if errors.Is(err, service.ErrEmptyCart) ||
		errors.Is(err, service.ErrInsufficientPayment) ||
		errors.As(err, &notFound) ||
		errors.As(err, &noStock) ||
		errors.As(err, &invalid) {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
}

// GetSales lists sales newest first, optionally filtered by calendar date.
// GET /api/sales?date=YYYY-MM-DD
func (h *SaleHandler) GetSales(c *fiber.Ctx) error {
	sales, err := h.service.ListSales(c.Query("date"))
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}

	responses := make([]model.SaleResponse, len(sales))
	for i := range sales {
		responses[i] = sales[i].ToResponse()
	}
	return c.JSON(responses)
}
