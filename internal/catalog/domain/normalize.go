package domain

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/dwikikusuma/farmgate/pkg/money"
)

// RawProduct is a product as upstream sends it. Different backends use
// different field names for the same thing; Normalize is the only place that
// knows about them.
type RawProduct struct {
	ID           string          `json:"id,omitempty"`
	MongoID      string          `json:"_id,omitempty"`
	Name         string          `json:"name"`
	Description  string          `json:"description,omitempty"`
	Category     string          `json:"category,omitempty"`
	Region       string          `json:"region,omitempty"`
	Location     string          `json:"location,omitempty"`
	Price        json.RawMessage `json:"price,omitempty"`
	PricePerUnit json.RawMessage `json:"pricePerUnit,omitempty"`
	Unit         string          `json:"unit,omitempty"`
	Images       []string        `json:"images,omitempty"`
	Image        string          `json:"image,omitempty"`
	Featured     bool            `json:"featured,omitempty"`
	FarmerName   string          `json:"farmerName,omitempty"`
	Farmer       *RawFarmer      `json:"farmer,omitempty"`
	Stock        json.RawMessage `json:"stock,omitempty"`
}

type RawFarmer struct {
	Name string `json:"name"`
}

// Normalize maps the upstream shape onto Product. The price is the first
// positive value of price then pricePerUnit; anything unusable becomes zero.
func (r RawProduct) Normalize() Product {
	p := Product{
		ID:          firstNonEmpty(r.ID, r.MongoID),
		Name:        strings.TrimSpace(r.Name),
		Description: strings.TrimSpace(r.Description),
		Category:    strings.TrimSpace(r.Category),
		Region:      strings.TrimSpace(firstNonEmpty(r.Region, r.Location)),
		Unit:        strings.TrimSpace(r.Unit),
		Featured:    r.Featured,
		FarmerName:  strings.TrimSpace(r.FarmerName),
	}

	p.Price = money.Sanitize(money.FromJSON(r.Price))
	if !p.Price.IsPositive() {
		p.Price = money.Sanitize(money.FromJSON(r.PricePerUnit))
	}

	if len(r.Images) > 0 {
		p.ImageRefs = make([]string, 0, len(r.Images))
		for _, img := range r.Images {
			if img = strings.TrimSpace(img); img != "" {
				p.ImageRefs = append(p.ImageRefs, img)
			}
		}
	} else if img := strings.TrimSpace(r.Image); img != "" {
		p.ImageRefs = []string{img}
	}

	if p.FarmerName == "" && r.Farmer != nil {
		p.FarmerName = strings.TrimSpace(r.Farmer.Name)
	}
	if stock := money.FromJSON(r.Stock); stock.IsPositive() {
		p.Stock = int(stock.IntPart())
	}
	return p
}

// NormalizeAll drops entries without an id.
func NormalizeAll(raw []RawProduct) []Product {
	out := make([]Product, 0, len(raw))
	for _, r := range raw {
		p := r.Normalize()
		if p.ID == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

// ToRaw renders p in the canonical upstream shape.
func ToRaw(p Product) RawProduct {
	return RawProduct{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		Region:      p.Region,
		Price:       json.RawMessage(p.Price.String()),
		Unit:        p.Unit,
		Images:      p.ImageRefs,
		Featured:    p.Featured,
		FarmerName:  p.FarmerName,
		Stock:       json.RawMessage(strconv.Itoa(p.Stock)),
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
