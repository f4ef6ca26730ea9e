package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go-shop-pos/internal/model"
	"go-shop-pos/internal/repository"
	"go-shop-pos/internal/ws"
	"go-shop-pos/pkg/validator"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// SaleLine is one cart entry: product id plus requested quantity.
type SaleLine struct {
	ID  uint `json:"id" validate:"required"`
	Qty int  `json:"qty" validate:"required,gt=0"`
}

// SaleRequest is the body of POST /api/sales. Paid == 0 means exact payment
// (card or correct change); a positive Paid must cover the total.
type SaleRequest struct {
	Items []SaleLine `json:"items" validate:"dive"`
	Paid  int64      `json:"paid" validate:"gte=0"`
}

type SaleService interface {
	SubmitSale(ctx context.Context, req *SaleRequest, operatorID *uint) (*model.Sale, error)
	ListSales(date string) ([]model.Sale, error)
}

type saleService struct {
	productRepo repository.ProductRepository
	saleRepo    repository.SaleRepository
	db          *gorm.DB
	wsHub       *ws.Hub
	lockTimeout time.Duration
}

func NewSaleService(pRepo repository.ProductRepository, sRepo repository.SaleRepository, db *gorm.DB, hub *ws.Hub, lockTimeout time.Duration) SaleService {
	return &saleService{
		productRepo: pRepo,
		saleRepo:    sRepo,
		db:          db,
		wsHub:       hub,
		lockTimeout: lockTimeout,
	}
}

// SubmitSale commits the whole cart as one atomic sale or rejects it without
// touching anything. Row locks are taken in ascending product id order across
// all callers, so two carts sharing two products can never deadlock; carts on
// disjoint products do not block each other at all.
func (s *saleService) SubmitSale(ctx context.Context, req *SaleRequest, operatorID *uint) (*model.Sale, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyCart
	}
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		first := errs[0]
		return nil, &ValidationError{Field: first.FailedField, Tag: first.Tag}
	}

	var sale *model.Sale

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Bound the wait on contended rows; 55P03 surfaces as ErrBusy.
		if err := tx.Exec(fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", s.lockTimeout.Milliseconds())).Error; err != nil {
			return err
		}

		// A. Lock every referenced product, ascending id order.
		locked := make(map[uint]*model.Product)
		for _, id := range distinctSortedIDs(req.Items) {
			p, err := s.productRepo.LockForUpdate(tx, id)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return &NotFoundError{Resource: "product", ID: id}
				}
				if isLockTimeout(err) {
					return ErrBusy
				}
				return err
			}
			locked[id] = p
		}

		// B. Validate quantities against the locked counts and build the
		// snapshots. remaining tracks the running stock so duplicate lines
		// for one product cannot jointly oversell it.
		remaining := make(map[uint]int, len(locked))
		for id, p := range locked {
			remaining[id] = p.Stock
		}

		var total int64
		items := make([]model.SaleItem, 0, len(req.Items))
		for _, line := range req.Items {
			p := locked[line.ID]
			if remaining[line.ID] < line.Qty {
				return &InsufficientStockError{ProductID: p.ID, Name: p.Name, Available: remaining[line.ID]}
			}
			remaining[line.ID] -= line.Qty

			pid := p.ID
			items = append(items, model.SaleItem{
				ProductID: &pid,
				Name:      p.Name,
				Emoji:     p.Emoji,
				Qty:       line.Qty,
				Price:     p.Price,
			})
			total += p.Price * int64(line.Qty)
		}

		// C. Payment check. Zero means exact payment.
		paid := req.Paid
		if paid > 0 && paid < total {
			return ErrInsufficientPayment
		}
		if paid <= 0 {
			paid = total
		}

		// D. All validations passed — adjust stock and append the sale.
		for id, p := range locked {
			if sold := p.Stock - remaining[id]; sold > 0 {
				if err := s.productRepo.DecrementStock(tx, id, sold); err != nil {
					return err
				}
			}
		}

		now := time.Now()
		sale = &model.Sale{
			Ts:     now.UnixMilli(),
			Date:   model.SaleDate(now),
			Total:  total,
			Paid:   paid,
			UserID: operatorID,
			Items:  items,
		}
		return s.saleRepo.Create(tx, sale)
	})

	if err != nil {
		return nil, err
	}

	// Let other registers refresh their stock view.
	go s.broadcastSale(sale)

	return sale, nil
}

func (s *saleService) ListSales(date string) ([]model.Sale, error) {
	if date != "" {
		return s.saleRepo.FindByDate(date)
	}
	return s.saleRepo.FindAll()
}

func (s *saleService) broadcastSale(sale *model.Sale) {
	items := make([]map[string]interface{}, 0, len(sale.Items))
	for _, it := range sale.Items {
		items = append(items, map[string]interface{}{
			"product_id": it.ProductID,
			"name":       it.Name,
			"qty":        it.Qty,
		})
	}
	s.wsHub.BroadcastJSON(map[string]interface{}{
		"type":    "stock_update",
		"action":  "sale_committed",
		"sale_id": sale.ID,
		"total":   sale.Total,
		"items":   items,
	})
}

// distinctSortedIDs returns the unique product ids of a cart in ascending
// order — the global lock acquisition order for all registers.
func distinctSortedIDs(items []SaleLine) []uint {
	seen := make(map[uint]bool, len(items))
	ids := make([]uint, 0, len(items))
	for _, line := range items {
		if !seen[line.ID] {
			seen[line.ID] = true
			ids = append(ids, line.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// isLockTimeout reports whether err is Postgres 55P03 (lock_not_available).
func isLockTimeout(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "55P03"
}
