package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaleDateIsUTC(t *testing.T) {
	// 23:30 in UTC+2 is already the next day locally, but the ledger date
	// follows UTC.
	warsaw := time.FixedZone("CEST", 2*60*60)
	ts := time.Date(2024, 6, 1, 23, 30, 0, 0, warsaw)

	assert.Equal(t, "2024-06-01", SaleDate(ts))
	assert.Equal(t, "2024-06-01", SaleDate(ts.UTC()))
}

// The serialized item `id` aliases the product id; a deleted product leaves
// both null while the snapshot fields keep rendering.
func TestSaleItemResponseAliasesProductID(t *testing.T) {
	pid := uint(7)
	item := SaleItem{ID: 101, SaleID: 5, ProductID: &pid, Name: "Juice", Emoji: "🧃", Qty: 2, Price: 250}

	resp := item.ToResponse()
	require.NotNil(t, resp.ID)
	assert.Equal(t, pid, *resp.ID)
	assert.Equal(t, pid, *resp.ProductID)

	raw, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":7,"product_id":7,"name":"Juice","emoji":"🧃","qty":2,"price":250}`, string(raw))
}

func TestSaleItemResponseDanglingReference(t *testing.T) {
	item := SaleItem{ID: 101, SaleID: 5, ProductID: nil, Name: "Old product", Emoji: "🛒", Qty: 1, Price: 100}

	raw, err := json.Marshal(item.ToResponse())
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":null,"product_id":null,"name":"Old product","emoji":"🛒","qty":1,"price":100}`, string(raw))
}

func TestSaleResponseOmitsInternalKeys(t *testing.T) {
	pid := uint(1)
	sale := Sale{
		ID: 3, Ts: 1710061200000, Date: "2024-03-10", Total: 600, Paid: 600,
		Items: []SaleItem{{ID: 55, SaleID: 3, ProductID: &pid, Name: "Sandwich", Emoji: "🥪", Qty: 2, Price: 300}},
	}

	raw, err := json.Marshal(sale.ToResponse())
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.NotContains(t, decoded, "user_id")

	items := decoded["items"].([]interface{})
	item := items[0].(map[string]interface{})
	assert.NotContains(t, item, "sale_id", "surrogate keys stay internal")
	assert.EqualValues(t, 1, item["id"])
}
