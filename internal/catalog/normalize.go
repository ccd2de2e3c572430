package catalog

import (
	"math"

	"github.com/huertohogar/storefront/pkg/pocketbase"
)

// Product is the canonical product shape used by the rest of the
// application. PocketBase records are loosely typed (price as number or
// string, stock optional, image as stored filename or absolute URL), so
// everything is normalized here before any business logic sees it.
type Product struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Price       int64  `json:"price"`
	Image       string `json:"image"`
	Unit        string `json:"unit"`
	Code        string `json:"code"`
	Category    string `json:"category"`
	Description string `json:"description"`
	// Stock is nil when the record carries no stock field, which means the
	// product is sold without a cap.
	Stock *int `json:"stock,omitempty"`
}

// FromRecord converts a raw products record into its canonical form.
func FromRecord(rec pocketbase.Record) Product {
	return Product{
		ID:          rec.ID(),
		Title:       rec.GetString("title"),
		Price:       int64(math.Round(rec.GetFloat("price"))),
		Image:       rec.GetString("image"),
		Unit:        rec.GetString("unit"),
		Code:        rec.GetString("code"),
		Category:    rec.GetString("category"),
		Description: rec.GetString("description"),
		Stock:       normalizeStock(rec),
	}
}

// normalizeStock distinguishes "no stock field" from "stock zero". Only
// numeric values count; a null or malformed field is treated as absent.
func normalizeStock(rec pocketbase.Record) *int {
	if !rec.Has("stock") {
		return nil
	}
	switch rec["stock"].(type) {
	case float64, string:
		stock := rec.GetInt("stock")
		if stock < 0 {
			stock = 0
		}
		return &stock
	default:
		return nil
	}
}
