package model

// BackupVersion is the snapshot schema version this backend writes.
const BackupVersion = 2

// BackupFile is the full-state snapshot exchanged by /api/export and
// /api/import. Required fields are pointers so structural validation can tell
// "absent" from "zero" when parsing uploaded snapshots.
type BackupFile struct {
	Version    int             `json:"version"`
	ExportedAt string          `json:"exportedAt"`
	Products   []BackupProduct `json:"products" validate:"dive"`
	Sales      []BackupSale    `json:"sales" validate:"dive"`
}

// BackupProduct mirrors Product in the snapshot. The id is authoritative and
// re-inserted verbatim on import.
type BackupProduct struct {
	ID       uint    `json:"id"`
	Name     *string `json:"name" validate:"required"`
	Emoji    string  `json:"emoji"`
	Price    *int64  `json:"price" validate:"required"`
	Stock    int     `json:"stock"`
	Barcode  string  `json:"barcode"`
	Category string  `json:"category"`
	Img      string  `json:"img"`
}

// BackupSale mirrors Sale plus its embedded items.
type BackupSale struct {
	ID    uint             `json:"id"`
	Ts    *int64           `json:"ts" validate:"required"`
	Date  *string          `json:"date" validate:"required"`
	Total *int64           `json:"total" validate:"required"`
	Paid  *int64           `json:"paid"`
	Items []BackupSaleItem `json:"items" validate:"dive"`
}

// BackupSaleItem mirrors SaleItem. Older snapshots carry the product reference
// in `id`, newer ones in `product_id`; ProductRef resolves both.
type BackupSaleItem struct {
	ID        *uint   `json:"id"`
	ProductID *uint   `json:"product_id"`
	Name      *string `json:"name" validate:"required"`
	Emoji     string  `json:"emoji"`
	Qty       *int    `json:"qty" validate:"required"`
	Price     *int64  `json:"price" validate:"required"`
}

// ProductRef returns the weak product reference for an imported item,
// preferring the legacy `id` field over `product_id`. A zero id counts as
// unset, like a null; product ids start at 1.
func (i *BackupSaleItem) ProductRef() *uint {
	if i.ID != nil && *i.ID != 0 {
		return i.ID
	}
	return i.ProductID
}
