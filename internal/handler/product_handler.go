package handler

import (
	"errors"

	"go-shop-pos/internal/model"
	"go-shop-pos/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ProductHandler struct {
	service service.ProductService
}

func NewProductHandler(s service.ProductService) *ProductHandler {
	return &ProductHandler{service: s}
}

// GetProducts lists all products ordered by id.
// GET /api/products
func (h *ProductHandler) GetProducts(c *fiber.Ctx) error {
	products, err := h.service.GetAll()
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	return c.JSON(products)
}

// CreateProduct adds a product to the catalog.
// POST /api/products
func (h *ProductHandler) CreateProduct(c *fiber.Ctx) error {
	var product model.Product
	if err := c.BodyParser(&product); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	if err := h.service.Create(&product); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(201).JSON(product)
}

// UpdateProduct partially edits a product. Existing sale snapshots are
// unaffected by price or name changes.
// PUT /api/products/:id
func (h *ProductHandler) UpdateProduct(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid product ID"})
	}

	var req service.ProductUpdate
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	product, err := h.service.Update(id, &req)
	if err != nil {
		return productError(c, err)
	}
	return c.JSON(product)
}

// DeleteProduct removes a product from the catalog.
// DELETE /api/products/:id
func (h *ProductHandler) DeleteProduct(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid product ID"})
	}

	if err := h.service.Delete(id); err != nil {
		return productError(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

// RestockProduct adds stock to an existing product.
// POST /api/products/:id/restock
func (h *ProductHandler) RestockProduct(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid product ID"})
	}

	var req struct {
		Qty int `json:"qty"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	product, err := h.service.Restock(id, req.Qty)
	if err != nil {
		return productError(c, err)
	}
	return c.JSON(product)
}

func productError(c *fiber.Ctx, err error) error {
	var notFound *service.NotFoundError
	if errors.As(err, &notFound) {
		return c.Status(404).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(400).JSON(fiber.Map{"error": err.Error()})
}
