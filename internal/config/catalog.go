package config

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cvtoletter/backend/internal/domain/catalog"
)

type CatalogConfig struct {
	Currency string          `yaml:"currency"`
	Packages []PackageConfig `yaml:"packages" validate:"required,min=1,dive"`
}

type PackageConfig struct {
	ID       string          `yaml:"id" validate:"required"`
	Name     string          `yaml:"name" validate:"required"`
	Credits  int64           `yaml:"credits" validate:"gt=0"`
	Price    decimal.Decimal `yaml:"price"`
	PriceRef string          `yaml:"price_ref" validate:"required"`
}

func (c CatalogConfig) validate() error {
	ids := make(map[string]bool, len(c.Packages))
	refs := make(map[string]bool, len(c.Packages))
	for _, p := range c.Packages {
		if ids[p.ID] {
			return fmt.Errorf("catalog: duplicate package id %q", p.ID)
		}
		if refs[p.PriceRef] {
			return fmt.Errorf("catalog: duplicate price_ref %q", p.PriceRef)
		}
		if p.Price.IsNegative() {
			return fmt.Errorf("catalog: package %q has negative price", p.ID)
		}
		ids[p.ID] = true
		refs[p.PriceRef] = true
	}
	return nil
}

// Build turns the configured packages into the runtime catalog.
func (c CatalogConfig) Build() (*catalog.Catalog, error) {
	packages := make([]catalog.Package, 0, len(c.Packages))
	for _, p := range c.Packages {
		packages = append(packages, catalog.Package{
			ID:       p.ID,
			Name:     p.Name,
			Credits:  p.Credits,
			Price:    p.Price,
			Currency: c.Currency,
			PriceRef: p.PriceRef,
		})
	}
	return catalog.New(packages)
}
