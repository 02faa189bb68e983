// Package catalog holds the credit packages offered for purchase. It is the
// only place that maps a package or a provider price to a credit amount.
package catalog

import (
	"fmt"

	"github.com/shopspring/decimal"

	domainerrors "github.com/cvtoletter/backend/internal/domain/errors"
)

// Package is one purchasable bundle of credits.
type Package struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Credits  int64           `json:"credits"`
	Price    decimal.Decimal `json:"price"`
	Currency string          `json:"currency"`
	PriceRef string          `json:"-"`
}

// PricePerCredit is rounded to cents.
func (p Package) PricePerCredit() decimal.Decimal {
	if p.Credits <= 0 {
		return decimal.Zero
	}
	return p.Price.Div(decimal.NewFromInt(p.Credits)).Round(2)
}

// Catalog is immutable after construction and safe for concurrent use.
type Catalog struct {
	packages   []Package
	byID       map[string]Package
	byPriceRef map[string]Package
}

// New validates packages and builds the lookup tables.
func New(packages []Package) (*Catalog, error) {
	c := &Catalog{
		packages:   make([]Package, 0, len(packages)),
		byID:       make(map[string]Package, len(packages)),
		byPriceRef: make(map[string]Package, len(packages)),
	}

	for _, p := range packages {
		switch {
		case p.ID == "":
			return nil, fmt.Errorf("catalog: package with empty id")
		case p.Credits <= 0:
			return nil, fmt.Errorf("catalog: package %q must grant a positive number of credits", p.ID)
		case p.PriceRef == "":
			return nil, fmt.Errorf("catalog: package %q has no price reference", p.ID)
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate package id %q", p.ID)
		}
		if _, dup := c.byPriceRef[p.PriceRef]; dup {
			return nil, fmt.Errorf("catalog: duplicate price reference %q", p.PriceRef)
		}

		c.packages = append(c.packages, p)
		c.byID[p.ID] = p
		c.byPriceRef[p.PriceRef] = p
	}

	if len(c.packages) == 0 {
		return nil, fmt.Errorf("catalog: no packages configured")
	}
	return c, nil
}

// ByID returns domainerrors.ErrPackageNotFound for unknown ids.
func (c *Catalog) ByID(id string) (Package, error) {
	p, ok := c.byID[id]
	if !ok {
		return Package{}, fmt.Errorf("%w: %s", domainerrors.ErrPackageNotFound, id)
	}
	return p, nil
}

// ByPriceRef looks a package up by the provider's price identifier.
func (c *Catalog) ByPriceRef(priceRef string) (Package, bool) {
	p, ok := c.byPriceRef[priceRef]
	return p, ok
}

// Packages returns the packages in configured order.
func (c *Catalog) Packages() []Package {
	out := make([]Package, len(c.packages))
	copy(out, c.packages)
	return out
}
