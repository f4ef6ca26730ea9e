package model

import "time"

// Sale is one committed checkout. Ts is a millisecond epoch timestamp
// (compatible with JS Date.now()), Date the UTC calendar day derived from it.
// Total and Paid are minor currency units.
type Sale struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	Ts     int64  `gorm:"not null" json:"ts"`
	Date   string `gorm:"type:varchar(10);not null;index" json:"date"`
	Total  int64  `gorm:"not null" json:"total"`
	Paid   int64  `gorm:"not null" json:"paid"`
	UserID *uint  `gorm:"index" json:"user_id,omitempty"`
	User   *User  `gorm:"foreignKey:UserID" json:"-"`

	// Items are owned by the sale and die with it.
	Items []SaleItem `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE" json:"items"`
}

// SaleItem is a snapshot of a product at the moment of sale. Name, emoji and
// price never change afterwards, even if the product is edited or deleted;
// ProductID is a weak reference that may no longer resolve.
type SaleItem struct {
	ID        uint   `gorm:"primaryKey" json:"-"`
	SaleID    uint   `gorm:"not null;index" json:"-"`
	ProductID *uint  `json:"product_id"`
	Name      string `gorm:"type:varchar(200);not null" json:"name"`
	Emoji     string `gorm:"type:varchar(10);default:'🛒'" json:"emoji"`
	Qty       int    `gorm:"not null" json:"qty"`
	Price     int64  `gorm:"not null" json:"price"` // unit price at sale time
}

// SaleDate formats a sale timestamp as the UTC calendar date stored alongside it.
func SaleDate(ts time.Time) string {
	return ts.UTC().Format("2006-01-02")
}

// SaleItemResponse is the wire form of a SaleItem. The `id` field aliases the
// originating product id for compatibility with older snapshot consumers.
type SaleItemResponse struct {
	ID        *uint  `json:"id"`
	ProductID *uint  `json:"product_id"`
	Name      string `json:"name"`
	Emoji     string `json:"emoji"`
	Qty       int    `json:"qty"`
	Price     int64  `json:"price"`
}

// SaleResponse is the wire form of a Sale with its items.
type SaleResponse struct {
	ID    uint               `json:"id"`
	Ts    int64              `json:"ts"`
	Date  string             `json:"date"`
	Total int64              `json:"total"`
	Paid  int64              `json:"paid"`
	Items []SaleItemResponse `json:"items"`
}

// ToResponse converts a SaleItem to its wire form.
func (i *SaleItem) ToResponse() SaleItemResponse {
	return SaleItemResponse{
		ID:        i.ProductID,
		ProductID: i.ProductID,
		Name:      i.Name,
		Emoji:     i.Emoji,
		Qty:       i.Qty,
		Price:     i.Price,
	}
}

// ToResponse converts a Sale to its wire form.
func (s *Sale) ToResponse() SaleResponse {
	items := make([]SaleItemResponse, len(s.Items))
	for n, it := range s.Items {
		items[n] = it.ToResponse()
	}
	return SaleResponse{
		ID:    s.ID,
		Ts:    s.Ts,
		Date:  s.Date,
		Total: s.Total,
		Paid:  s.Paid,
		Items: items,
	}
}
