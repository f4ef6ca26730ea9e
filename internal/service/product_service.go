package service

import (
	"errors"

	"go-shop-pos/internal/model"
	"go-shop-pos/internal/repository"
	"go-shop-pos/internal/ws"
	"go-shop-pos/pkg/validator"

	"gorm.io/gorm"
)

// ProductUpdate carries a partial product edit; nil fields keep their value.
// Stock edits here are an admin override — the sale engine is the only path
// that can take stock below its current count during normal operation.
type ProductUpdate struct {
	Name     *string `json:"name"`
	Emoji    *string `json:"emoji"`
	Price    *int64  `json:"price"`
	Stock    *int    `json:"stock"`
	Barcode  *string `json:"barcode"`
	Category *string `json:"category"`
	Img      *string `json:"img"`
}

type ProductService interface {
	Create(req *model.Product) error
	Update(id uint, req *ProductUpdate) (*model.Product, error)
	Delete(id uint) error
	Restock(id uint, qty int) (*model.Product, error)
	GetAll() ([]model.Product, error)
}

type productService struct {
	productRepo repository.ProductRepository
	wsHub       *ws.Hub
}

func NewProductService(pRepo repository.ProductRepository, hub *ws.Hub) ProductService {
	return &productService{productRepo: pRepo, wsHub: hub}
}

func (s *productService) Create(req *model.Product) error {
	if req.Emoji == "" {
		req.Emoji = model.DefaultEmoji
	}
	if req.Category == "" {
		req.Category = model.DefaultCategory
	}
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		first := errs[0]
		return &ValidationError{Field: first.FailedField, Tag: first.Tag}
	}

	if err := s.productRepo.Create(req); err != nil {
		return err
	}

	go s.broadcast("product_created", req)
	return nil
}

func (s *productService) Update(id uint, req *ProductUpdate) (*model.Product, error) {
	product, err := s.productRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "product", ID: id}
		}
		return nil, err
	}

	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Emoji != nil {
		product.Emoji = *req.Emoji
	}
	if req.Price != nil {
		product.Price = *req.Price
	}
	if req.Stock != nil {
		product.Stock = *req.Stock
	}
	if req.Barcode != nil {
		product.Barcode = *req.Barcode
	}
	if req.Category != nil {
		product.Category = *req.Category
	}
	if req.Img != nil {
		product.Img = *req.Img
	}

	if errs := validator.ValidateStruct(product); len(errs) > 0 {
		first := errs[0]
		return nil, &ValidationError{Field: first.FailedField, Tag: first.Tag}
	}

	if err := s.productRepo.Update(product); err != nil {
		return nil, err
	}

	go s.broadcast("product_updated", product)
	return product, nil
}

// Delete removes a product. Historical sale items keep their snapshots; their
// product reference simply stops resolving.
func (s *productService) Delete(id uint) error {
	if err := s.productRepo.Delete(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &NotFoundError{Resource: "product", ID: id}
		}
		return err
	}
	return nil
}

func (s *productService) Restock(id uint, qty int) (*model.Product, error) {
	if qty <= 0 {
		return nil, errors.New("quantity must be greater than 0")
	}

	product, err := s.productRepo.AddStock(id, qty)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "product", ID: id}
		}
		return nil, err
	}

	go s.broadcast("product_restocked", product)
	return product, nil
}

func (s *productService) GetAll() ([]model.Product, error) {
	return s.productRepo.FindAll()
}

func (s *productService) broadcast(action string, p *model.Product) {
	s.wsHub.BroadcastJSON(map[string]interface{}{
		"type":   "stock_update",
		"action": action,
		"product": map[string]interface{}{
			"id":    p.ID,
			"name":  p.Name,
			"stock": p.Stock,
			"price": p.Price,
		},
	})
}
