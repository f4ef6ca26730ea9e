package service

import (
	"encoding/json"
	"fmt"
	"time"

	"go-shop-pos/internal/model"
	"go-shop-pos/internal/repository"
	"go-shop-pos/pkg/validator"

	"gorm.io/gorm"
)

// BackupExport is the serialized v2 snapshot shape. Sales embed their item
// snapshots; item `id` aliases the product id for older consumers.
type BackupExport struct {
	Version    int                  `json:"version"`
	ExportedAt string               `json:"exportedAt"`
	Products   []model.Product      `json:"products"`
	Sales      []model.SaleResponse `json:"sales"`
}

// ImportResult reports how many records a restore brought in.
type ImportResult struct {
	Products int64 `json:"products"`
	Sales    int64 `json:"sales"`
}

type BackupService interface {
	ExportFull() (*BackupExport, error)
	ExportProductsOnly() (*BackupExport, error)
	ImportFull(raw []byte) (*ImportResult, error)
}

type backupService struct {
	productRepo repository.ProductRepository
	saleRepo    repository.SaleRepository
	db          *gorm.DB
}

func NewBackupService(pRepo repository.ProductRepository, sRepo repository.SaleRepository, db *gorm.DB) BackupService {
	return &backupService{
		productRepo: pRepo,
		saleRepo:    sRepo,
		db:          db,
	}
}

// ExportFull reads the whole state without locking; a snapshot taken while a
// sale commits may be slightly stale, which is fine for backups.
func (s *backupService) ExportFull() (*BackupExport, error) {
	export, err := s.ExportProductsOnly()
	if err != nil {
		return nil, err
	}

	sales, err := s.saleRepo.FindAll()
	if err != nil {
		return nil, err
	}
	export.Sales = make([]model.SaleResponse, len(sales))
	for i := range sales {
		export.Sales[i] = sales[i].ToResponse()
	}
	return export, nil
}

func (s *backupService) ExportProductsOnly() (*BackupExport, error) {
	products, err := s.productRepo.FindAll()
	if err != nil {
		return nil, err
	}
	return &BackupExport{
		Version:    model.BackupVersion,
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Products:   products,
		Sales:      []model.SaleResponse{},
	}, nil
}

// ImportFull destructively replaces all products and sales with the snapshot.
// Parsing and structural validation happen before the transaction opens, and
// the replacement itself is atomic: on any failure the pre-import state stays.
func (s *backupService) ImportFull(raw []byte) (*ImportResult, error) {
	var backup model.BackupFile
	if err := json.Unmarshal(raw, &backup); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedBackup, err)
	}
	if errs := validator.ValidateStruct(&backup); len(errs) > 0 {
		first := errs[0]
		return nil, fmt.Errorf("%w: field '%s' failed on tag '%s'", ErrMalformedBackup, first.FailedField, first.Tag)
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		// Children before parents: sale items, sales, products.
		if err := s.saleRepo.DeleteAll(tx); err != nil {
			return err
		}
		if err := s.productRepo.DeleteAll(tx); err != nil {
			return err
		}

		for _, bp := range backup.Products {
			if err := s.productRepo.Insert(tx, restoredProduct(&bp)); err != nil {
				return err
			}
		}
		for _, bs := range backup.Sales {
			if err := s.saleRepo.Insert(tx, restoredSale(&bs)); err != nil {
				return err
			}
		}

		// The snapshot ids bypass the serial sequences; bump them so the next
		// regular insert does not collide with a restored row.
		return resetIDSequences(tx)
	})
	if err != nil {
		return nil, err
	}

	products, err := s.productRepo.Count()
	if err != nil {
		return nil, err
	}
	sales, err := s.saleRepo.Count()
	if err != nil {
		return nil, err
	}
	return &ImportResult{Products: products, Sales: sales}, nil
}

// restoredProduct maps a snapshot record back to a row, id kept verbatim.
func restoredProduct(bp *model.BackupProduct) *model.Product {
	p := &model.Product{
		ID:       bp.ID,
		Name:     *bp.Name,
		Emoji:    bp.Emoji,
		Price:    *bp.Price,
		Stock:    bp.Stock,
		Barcode:  bp.Barcode,
		Category: bp.Category,
		Img:      bp.Img,
	}
	if p.Emoji == "" {
		p.Emoji = model.DefaultEmoji
	}
	if p.Category == "" {
		p.Category = model.DefaultCategory
	}
	return p
}

// restoredSale maps a snapshot sale and its items back to rows. Item product
// references are kept as-is even when they no longer resolve to a product;
// the snapshot's own name/price/qty stay the source of truth for display.
func restoredSale(bs *model.BackupSale) *model.Sale {
	paid := bs.Total
	if bs.Paid != nil {
		paid = bs.Paid
	}

	sale := &model.Sale{
		ID:    bs.ID,
		Ts:    *bs.Ts,
		Date:  *bs.Date,
		Total: *bs.Total,
		Paid:  *paid,
		Items: make([]model.SaleItem, len(bs.Items)),
	}
	for i, bi := range bs.Items {
		item := model.SaleItem{
			ProductID: bi.ProductRef(),
			Name:      *bi.Name,
			Emoji:     bi.Emoji,
			Qty:       *bi.Qty,
			Price:     *bi.Price,
		}
		if item.Emoji == "" {
			item.Emoji = model.DefaultEmoji
		}
		sale.Items[i] = item
	}
	return sale
}

func resetIDSequences(tx *gorm.DB) error {
	for _, table := range []string{"products", "sales", "sale_items"} {
		stmt := fmt.Sprintf(
			"SELECT setval(pg_get_serial_sequence('%s', 'id'), COALESCE((SELECT MAX(id) FROM %s), 0) + 1, false)",
			table, table,
		)
		if err := tx.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}
