package cart

// Item is one line of the local cart: a denormalized snapshot of the
// product at the time it was added.
type Item struct {
	ProductID string `json:"productId"`
	Title     string `json:"title"`
	Price     int64  `json:"price"`
	Qty       int    `json:"qty"`
	Image     string `json:"image"`
	Unit      string `json:"unit"`
	Code      string `json:"code"`
	// Stock is the cap known at add time; nil means uncapped.
	Stock *int `json:"stock,omitempty"`
	// ServerID is the id of the mirrored remote record, once known.
	ServerID string `json:"-"`
}

// capQty clamps a desired quantity to the item's stock cap.
func (i Item) capQty(qty int) int {
	if i.Stock != nil && qty > *i.Stock {
		return *i.Stock
	}
	return qty
}
