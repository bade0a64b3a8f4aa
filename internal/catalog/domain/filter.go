package domain

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Filter selects products. Empty string fields and nil bounds match
// everything.
type Filter struct {
	Category string
	Region   string
	Search   string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Featured bool

	Page  int
	Limit int
}

// Normalized trims text fields and clamps paging.
func (f Filter) Normalized() Filter {
	f.Category = strings.TrimSpace(f.Category)
	f.Region = strings.TrimSpace(f.Region)
	f.Search = strings.TrimSpace(f.Search)
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
	return f
}

// InvertedRange reports a min price above the max price.
func (f Filter) InvertedRange() bool {
	return f.MinPrice != nil && f.MaxPrice != nil && f.MinPrice.GreaterThan(*f.MaxPrice)
}

// Matches applies the predicate shared by the remote and local paths:
// case-insensitive substring on category and region, search over name or
// description, inclusive price bounds and the featured flag.
func (f Filter) Matches(p Product) bool {
	if f.Category != "" && !containsFold(p.Category, f.Category) {
		return false
	}
	if f.Region != "" && !containsFold(p.Region, f.Region) {
		return false
	}
	if f.Search != "" && !containsFold(p.Name, f.Search) && !containsFold(p.Description, f.Search) {
		return false
	}
	if f.MinPrice != nil && p.Price.LessThan(*f.MinPrice) {
		return false
	}
	if f.MaxPrice != nil && p.Price.GreaterThan(*f.MaxPrice) {
		return false
	}
	if f.Featured && !p.Featured {
		return false
	}
	return true
}

// Query encodes the filter as catalog service query parameters.
func (f Filter) Query() url.Values {
	q := url.Values{}
	if f.Page > 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.Category != "" {
		q.Set("category", f.Category)
	}
	if f.Region != "" {
		q.Set("region", f.Region)
	}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.MinPrice != nil {
		q.Set("minPrice", f.MinPrice.String())
	}
	if f.MaxPrice != nil {
		q.Set("maxPrice", f.MaxPrice.String())
	}
	if f.Featured {
		q.Set("featured", "true")
	}
	return q
}

// Key identifies equivalent filters.
func (f Filter) Key() string {
	return f.Query().Encode()
}

// Apply returns the matching products in their original order.
func Apply(products []Product, f Filter) []Product {
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if f.Matches(p) {
			out = append(out, p.Clone())
		}
	}
	return out
}

// Paginate cuts one page out of products. Page and limit must already be
// normalized.
func Paginate(products []Product, page, limit int) ([]Product, Pagination) {
	total := len(products)
	pg := Pagination{Page: page, Limit: limit, Total: total}
	if limit > 0 {
		pg.TotalPages = (total + limit - 1) / limit
	}

	start := (page - 1) * limit
	if start >= total {
		return []Product{}, pg
	}
	end := min(start+limit, total)
	return products[start:end], pg
}

// CollectFacets gathers distinct categories and regions. The first spelling
// seen wins; comparison ignores case.
func CollectFacets(sets ...[]Product) Facets {
	cats := map[string]string{}
	regions := map[string]string{}
	for _, set := range sets {
		for _, p := range set {
			addFacet(cats, p.Category)
			addFacet(regions, p.Region)
		}
	}
	return Facets{Categories: sortedValues(cats), Regions: sortedValues(regions)}
}

func addFacet(m map[string]string, v string) {
	v = strings.TrimSpace(v)
	if v == "" {
		return
	}
	k := strings.ToLower(v)
	if _, ok := m[k]; !ok {
		m[k] = v
	}
}

func sortedValues(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return strings.ToLower(out[i]) < strings.ToLower(out[j]) })
	return out
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
