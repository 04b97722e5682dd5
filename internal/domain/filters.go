package domain

import "slices"

const DefaultMaxPrice = 10000

// Filters narrows the catalog. Empty strings and empty sets mean "no constraint";
// the price range is always applied and is inclusive on both ends.
type Filters struct {
	Search     string   `json:"search"`
	MinPrice   int      `json:"min_price"`
	MaxPrice   int      `json:"max_price"`
	Categories []string `json:"categories"`
	Sizes      []string `json:"sizes"`
	Brand      string   `json:"brand"`
}

func DefaultFilters() Filters {
	return Filters{
		MinPrice:   0,
		MaxPrice:   DefaultMaxPrice,
		Categories: []string{},
		Sizes:      []string{},
	}
}

// FiltersPatch carries a partial update; nil fields keep their previous value.
type FiltersPatch struct {
	Search     *string   `json:"search,omitempty"`
	MinPrice   *int      `json:"min_price,omitempty"`
	MaxPrice   *int      `json:"max_price,omitempty"`
	Categories *[]string `json:"categories,omitempty"`
	Sizes      *[]string `json:"sizes,omitempty"`
	Brand      *string   `json:"brand,omitempty"`
}

func (f Filters) Merge(p FiltersPatch) Filters {
	out := f.Clone()
	if p.Search != nil {
		out.Search = *p.Search
	}
	if p.MinPrice != nil {
		out.MinPrice = *p.MinPrice
	}
	if p.MaxPrice != nil {
		out.MaxPrice = *p.MaxPrice
	}
	if p.Categories != nil {
		out.Categories = slices.Clone(*p.Categories)
	}
	if p.Sizes != nil {
		out.Sizes = slices.Clone(*p.Sizes)
	}
	if p.Brand != nil {
		out.Brand = *p.Brand
	}
	return out
}

func (f Filters) Clone() Filters {
	out := f
	out.Categories = slices.Clone(f.Categories)
	out.Sizes = slices.Clone(f.Sizes)
	if out.Categories == nil {
		out.Categories = []string{}
	}
	if out.Sizes == nil {
		out.Sizes = []string{}
	}
	return out
}

// IsActive reports whether any filter differs from the cleared state.
func (f Filters) IsActive() bool {
	return f.Search != "" ||
		len(f.Categories) > 0 ||
		len(f.Sizes) > 0 ||
		f.Brand != "" ||
		f.MinPrice > 0 ||
		f.MaxPrice < DefaultMaxPrice
}
