package service

import (
	"time"

	"go-shop-pos/internal/model"
	"go-shop-pos/internal/repository"
)

// lowStockThreshold flags products that should be restocked soon.
const lowStockThreshold = 5

// ShopStats is the counter overview shown on the register dashboard.
type ShopStats struct {
	TotalProducts int64                   `json:"total_products"`
	LowStockCount int64                   `json:"low_stock_count"`
	Today         *repository.DailySummary `json:"today"`
}

type StatsService interface {
	GetStats() (*ShopStats, error)
}

type statsService struct {
	productRepo repository.ProductRepository
	saleRepo    repository.SaleRepository
}

func NewStatsService(pRepo repository.ProductRepository, sRepo repository.SaleRepository) StatsService {
	return &statsService{productRepo: pRepo, saleRepo: sRepo}
}

func (s *statsService) GetStats() (*ShopStats, error) {
	stats := &ShopStats{}

	var err error
	if stats.TotalProducts, err = s.productRepo.Count(); err != nil {
		return nil, err
	}
	if stats.LowStockCount, err = s.productRepo.CountLowStock(lowStockThreshold); err != nil {
		return nil, err
	}
	if stats.Today, err = s.saleRepo.DailySummary(model.SaleDate(time.Now())); err != nil {
		return nil, err
	}

	return stats, nil
}
