package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/cvtoletter/backend/internal/domain/catalog"
)

type PackagesHandler struct {
	catalog *catalog.Catalog
}

type PackageResponse struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Credits        int64           `json:"credits"`
	Price          decimal.Decimal `json:"price"`
	PricePerCredit decimal.Decimal `json:"price_per_credit"`
	Currency       string          `json:"currency"`
}

func NewPackagesHandler(c *catalog.Catalog) *PackagesHandler {
	return &PackagesHandler{catalog: c}
}

// ListPackages handles GET /api/v1/packages. Public.
func (h *PackagesHandler) ListPackages(c echo.Context) error {
	packages := h.catalog.Packages()
	out := make([]PackageResponse, 0, len(packages))
	for _, p := range packages {
		out = append(out, PackageResponse{
			ID:             p.ID,
			Name:           p.Name,
			Credits:        p.Credits,
			Price:          p.Price,
			PricePerCredit: p.PricePerCredit(),
			Currency:       p.Currency,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"packages": out})
}
