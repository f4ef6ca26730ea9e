package repository

import (
	"go-shop-pos/internal/model"

	"gorm.io/gorm"
)

type SaleRepository interface {
	// Create appends a sale and its item snapshots inside the caller's
	// transaction. Sales are write-once; there is no update path.
	Create(tx *gorm.DB, sale *model.Sale) error
	FindAll() ([]model.Sale, error)
	FindByDate(date string) ([]model.Sale, error)
	Count() (int64, error)
	DailySummary(date string) (*DailySummary, error)

	// Wipe-and-replace, used only by backup import.
	DeleteAll(tx *gorm.DB) error
	Insert(tx *gorm.DB, sale *model.Sale) error
}

// DailySummary aggregates one calendar day of the ledger.
type DailySummary struct {
	Date    string `json:"date"`
	Count   int64  `json:"count"`
	Revenue int64  `json:"revenue"`
}

type saleRepo struct {
	db *gorm.DB
}

func NewSaleRepo(db *gorm.DB) SaleRepository {
	return &saleRepo{db}
}

func (r *saleRepo) Create(tx *gorm.DB, sale *model.Sale) error {
	return tx.Create(sale).Error
}

func (r *saleRepo) FindAll() ([]model.Sale, error) {
	var sales []model.Sale
	err := r.db.Preload("Items").Order("ts DESC").Find(&sales).Error
	return sales, err
}

func (r *saleRepo) FindByDate(date string) ([]model.Sale, error) {
	var sales []model.Sale
	err := r.db.Preload("Items").Where("date = ?", date).Order("ts DESC").Find(&sales).Error
	return sales, err
}

func (r *saleRepo) Count() (int64, error) {
	var count int64
	err := r.db.Model(&model.Sale{}).Count(&count).Error
	return count, err
}

func (r *saleRepo) DailySummary(date string) (*DailySummary, error) {
	summary := DailySummary{Date: date}

	err := r.db.Model(&model.Sale{}).Where("date = ?", date).Count(&summary.Count).Error
	if err != nil {
		return nil, err
	}

	err = r.db.Model(&model.Sale{}).
		Where("date = ?", date).
		Select("COALESCE(SUM(total), 0)").
		Scan(&summary.Revenue).Error
	if err != nil {
		return nil, err
	}

	return &summary, nil
}

// DeleteAll removes items before their parent sales (children first).
func (r *saleRepo) DeleteAll(tx *gorm.DB) error {
	if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&model.SaleItem{}).Error; err != nil {
		return err
	}
	return tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&model.Sale{}).Error
}

// Insert writes a sale with its items preserving ids verbatim (backup import).
func (r *saleRepo) Insert(tx *gorm.DB, sale *model.Sale) error {
	return tx.Create(sale).Error
}
