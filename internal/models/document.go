package models

// UnknownProduct is substituted when a source row carries no product title.
const UnknownProduct = "Unknown"

// Document is one retrievable unit of review text. Immutable once created.
type Document struct {
	Text     string
	Metadata map[string]string
}

// ProductName returns the product_name metadata entry, or UnknownProduct
// when it is absent or empty.
func (d Document) ProductName() string {
	if name := d.Metadata["product_name"]; name != "" {
		return name
	}
	return UnknownProduct
}
