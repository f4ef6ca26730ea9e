package repository

import (
	"go-shop-pos/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductRepository interface {
	Create(product *model.Product) error
	FindAll() ([]model.Product, error)
	FindByID(id uint) (*model.Product, error)
	Update(product *model.Product) error
	Delete(id uint) error
	AddStock(id uint, qty int) (*model.Product, error)
	Count() (int64, error)
	CountLowStock(threshold int) (int64, error)

	// Transactional operations used by the sale engine and backup import.
	LockForUpdate(tx *gorm.DB, id uint) (*model.Product, error)
	DecrementStock(tx *gorm.DB, id uint, qty int) error
	DeleteAll(tx *gorm.DB) error
	Insert(tx *gorm.DB, product *model.Product) error
}

type productRepo struct {
	db *gorm.DB
}

func NewProductRepo(db *gorm.DB) ProductRepository {
	return &productRepo{db}
}

func (r *productRepo) Create(product *model.Product) error {
	return r.db.Create(product).Error
}

func (r *productRepo) FindAll() ([]model.Product, error) {
	var products []model.Product
	err := r.db.Order("id ASC").Find(&products).Error
	return products, err
}

func (r *productRepo) FindByID(id uint) (*model.Product, error) {
	var product model.Product
	err := r.db.First(&product, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepo) Update(product *model.Product) error {
	return r.db.Save(product).Error
}

func (r *productRepo) Delete(id uint) error {
	res := r.db.Delete(&model.Product{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// AddStock restocks atomically without read-modify-write.
func (r *productRepo) AddStock(id uint, qty int) (*model.Product, error) {
	res := r.db.Model(&model.Product{}).
		Where("id = ?", id).
		UpdateColumn("stock", gorm.Expr("stock + ?", qty))
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.FindByID(id)
}

func (r *productRepo) Count() (int64, error) {
	var count int64
	err := r.db.Model(&model.Product{}).Count(&count).Error
	return count, err
}

func (r *productRepo) CountLowStock(threshold int) (int64, error) {
	var count int64
	err := r.db.Model(&model.Product{}).Where("stock < ?", threshold).Count(&count).Error
	return count, err
}

// LockForUpdate fetches the row under FOR UPDATE so concurrent sale commits on
// the same product serialize. Blocks until the competing transaction finishes
// (bounded by the lock_timeout the caller sets on the transaction).
func (r *productRepo) LockForUpdate(tx *gorm.DB, id uint) (*model.Product, error) {
	var product model.Product
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&product, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// DecrementStock reduces stock on an already-locked row. The caller must have
// verified qty against the locked stock count; no re-validation here.
func (r *productRepo) DecrementStock(tx *gorm.DB, id uint, qty int) error {
	return tx.Model(&model.Product{}).
		Where("id = ?", id).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty)).Error
}

func (r *productRepo) DeleteAll(tx *gorm.DB) error {
	return tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&model.Product{}).Error
}

// Insert writes a product preserving its id verbatim (backup import).
func (r *productRepo) Insert(tx *gorm.DB, product *model.Product) error {
	return tx.Create(product).Error
}
