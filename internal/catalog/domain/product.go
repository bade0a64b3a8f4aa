package domain

import (
	"slices"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          string
	Name        string
	Description string
	Category    string
	Region      string
	Price       decimal.Decimal
	Unit        string
	ImageRefs   []string
	Featured    bool
	FarmerName  string
	Stock       int
}

func (p Product) Clone() Product {
	p.ImageRefs = slices.Clone(p.ImageRefs)
	return p
}

type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// Facets are the values the UI offers as filter choices.
type Facets struct {
	Categories []string
	Regions    []string
}
