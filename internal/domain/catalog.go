package domain

// DefaultCategory is assigned to items the remote catalog does not categorise.
const DefaultCategory = "Premios"

// CatalogItem is a redeemable prize. Category, Size and Brand are optional; an empty
// string means the item does not declare the attribute.
type CatalogItem struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Fitcoins    int    `json:"fitcoins"`
	Stock       int    `json:"stock"`
	Category    string `json:"category,omitempty"`
	Size        string `json:"size,omitempty"`
	Brand       string `json:"brand,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
}
