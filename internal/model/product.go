package model

// Product is an item sold at the counter. Price is stored in minor currency
// units (1 PLN = 100) so money math stays integer-only.
type Product struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Name     string `gorm:"type:varchar(200);not null" json:"name" validate:"required"`
	Emoji    string `gorm:"type:varchar(10);default:'🛒'" json:"emoji"`
	Price    int64  `gorm:"not null" json:"price" validate:"gte=0"`
	Stock    int    `gorm:"default:0" json:"stock" validate:"gte=0"`
	Barcode  string `gorm:"type:varchar(100);default:''" json:"barcode"`
	Category string `gorm:"type:varchar(100);default:'Other'" json:"category"`
	Img      string `gorm:"type:text" json:"img"` // base64 JPEG, resized client-side
}

// DefaultEmoji is applied when a product (or imported record) carries none.
const DefaultEmoji = "🛒"

// DefaultCategory groups products with no explicit category.
const DefaultCategory = "Other"
