package entity

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestLineItem_Recalculate(t *testing.T) {
	item := LineItem{
		Description: "Layer feed 50kg",
		Quantity:    dec("3"),
		UnitPrice:   dec("45000.50"),
	}

	item.Recalculate()
	assert.True(t, item.TotalPrice.Equal(dec("135001.50")), "TotalPrice = %s", item.TotalPrice)

	// Idempotent: recomputing without changes yields the same total.
	item.Recalculate()
	assert.True(t, item.TotalPrice.Equal(dec("135001.50")))

	item.Quantity = dec("4")
	item.Recalculate()
	item.Recalculate()
	assert.True(t, item.TotalPrice.Equal(dec("180002")), "TotalPrice = %s", item.TotalPrice)
}

func TestDocument_RecalculateTotals(t *testing.T) {
	doc := Document{
		Items: []LineItem{
			{Quantity: dec("10"), UnitPrice: dec("1200")},
			{Quantity: dec("2.5"), UnitPrice: dec("800.40")},
		},
		Tax: dec("500"),
		// A stale, independently edited total must be overwritten.
		Total: dec("999999"),
	}

	doc.RecalculateTotals()

	assert.True(t, doc.Items[0].TotalPrice.Equal(dec("12000")))
	assert.True(t, doc.Items[1].TotalPrice.Equal(dec("2001")))
	assert.True(t, doc.Subtotal.Equal(dec("14001")))
	assert.True(t, doc.Total.Equal(dec("14501")))

	// The aggregate total always equals the sum of item totals plus tax.
	sum := decimal.Zero
	for _, it := range doc.Items {
		sum = sum.Add(it.TotalPrice)
	}
	assert.True(t, doc.Total.Equal(sum.Add(doc.Tax)))
}

func TestDocument_RecalculateTotals_Empty(t *testing.T) {
	var doc Document
	doc.RecalculateTotals()
	assert.True(t, doc.Subtotal.Equal(decimal.Zero))
	assert.True(t, doc.Total.Equal(decimal.Zero))
}

func TestStockReceipt_Remaining(t *testing.T) {
	r := StockReceipt{ExpectedQuantity: 100, ReceivedQuantity: 35}
	assert.Equal(t, int64(65), r.Remaining())
}
