package order

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	contractx "github.com/kornthana/orderdesk-agent/engine/contract"
)

// StaticCatalog serves product lookups from a fixed in-memory set,
// keyed case-insensitively by name.
type StaticCatalog struct {
	products map[string]contractx.Product
}

func NewStaticCatalog(products []contractx.Product) *StaticCatalog {
	index := make(map[string]contractx.Product, len(products))
	for _, p := range products {
		index[strings.ToLower(strings.TrimSpace(p.Name))] = p
	}
	return &StaticCatalog{products: index}
}

func (c *StaticCatalog) Lookup(ctx context.Context, name string) (contractx.Product, error) {
	p, ok := c.products[strings.ToLower(strings.TrimSpace(name))]
	if !ok || !p.InStock {
		return contractx.Product{}, contractx.ErrProductNotFound
	}
	return p, nil
}

// ParseProducts reads the CATALOG_PRODUCTS environment format:
// "Widget:4999,Laptop:99900" (name:price-cents, price optional).
func ParseProducts(csv string) ([]contractx.Product, error) {
	var products []contractx.Product
	for _, item := range strings.Split(csv, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		name, price, hasPrice := strings.Cut(item, ":")
		p := contractx.Product{Name: strings.TrimSpace(name), InStock: true}
		if p.Name == "" {
			return nil, fmt.Errorf("%w: catalog entry %q has no name", contractx.ErrConfiguration, item)
		}
		if hasPrice {
			cents, err := strconv.Atoi(strings.TrimSpace(price))
			if err != nil || cents < 0 {
				return nil, fmt.Errorf("%w: catalog entry %q has invalid price", contractx.ErrConfiguration, item)
			}
			p.PriceCents = cents
		}
		products = append(products, p)
	}
	if len(products) == 0 {
		return nil, fmt.Errorf("%w: catalog is empty", contractx.ErrConfiguration)
	}
	return products, nil
}
