package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"go-shop-pos/internal/service"

	"github.com/gofiber/fiber/v2"
)

type BackupHandler struct {
	service service.BackupService
}

func NewBackupHandler(s service.BackupService) *BackupHandler {
	return &BackupHandler{service: s}
}

// ExportFull downloads the complete backup as a JSON attachment.
// GET /api/export
func (h *BackupHandler) ExportFull(c *fiber.Ctx) error {
	export, err := h.service.ExportFull()
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Export failed"})
	}
	return sendBackup(c, export, "shop_backup")
}

// ExportProducts downloads a products-only backup (empty sales history).
// GET /api/export/products
func (h *BackupHandler) ExportProducts(c *fiber.Ctx) error {
	export, err := h.service.ExportProductsOnly()
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Export failed"})
	}
	return sendBackup(c, export, "shop_products")
}

// ImportBackup destructively restores a snapshot. Accepts the backup either
// as the raw JSON body or as an uploaded multipart file.
// POST /api/import
func (h *BackupHandler) ImportBackup(c *fiber.Ctx) error {
	raw, err := backupPayload(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}

	result, err := h.service.ImportFull(raw)
	if err != nil {
		if errors.Is(err, service.ErrMalformedBackup) {
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(500).JSON(fiber.Map{"error": "Import failed"})
	}

	return c.JSON(fiber.Map{
		"ok":       true,
		"products": result.Products,
		"sales":    result.Sales,
	})
}

func backupPayload(c *fiber.Ctx) ([]byte, error) {
	if fh, err := c.FormFile("file"); err == nil {
		f, err := fh.Open()
		if err != nil {
			return nil, errors.New("could not read uploaded file")
		}
		defer f.Close()
		return io.ReadAll(f)
	}

	body := c.Body()
	if len(body) == 0 {
		return nil, errors.New("missing backup file")
	}
	return body, nil
}

func sendBackup(c *fiber.Ctx, export *service.BackupExport, prefix string) error {
	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Export failed"})
	}

	filename := fmt.Sprintf("%s_%s.json", prefix, time.Now().Format("2006-01-02"))
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename=%q`, filename))
	return c.Send(data)
}
