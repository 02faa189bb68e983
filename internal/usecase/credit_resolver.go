package usecase

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"github.com/cvtoletter/backend/internal/domain/catalog"
	domainerrors "github.com/cvtoletter/backend/internal/domain/errors"
	"github.com/cvtoletter/backend/internal/domain/provider"
)

// CreditSource names the tier that produced a credit amount.
type CreditSource string

const (
	CreditSourceSessionMetadata CreditSource = "session_metadata"
	CreditSourceIntentMetadata  CreditSource = "payment_intent_metadata"
	CreditSourcePriceCatalog    CreditSource = "price_catalog"
)

const metadataCredits = "credits"

// Resolution is the credit amount granted by a paid checkout session.
type Resolution struct {
	Credits   int64
	Source    CreditSource
	PackageID string
	PriceRef  string
}

// CreditResolver determines how many credits a checkout session grants. It is
// read-only: session metadata first, then payment intent metadata, then the
// first line item's price looked up in the catalog.
type CreditResolver struct {
	provider provider.PaymentProvider
	catalog  *catalog.Catalog
	logger   *zap.Logger
}

func NewCreditResolver(p provider.PaymentProvider, c *catalog.Catalog, logger *zap.Logger) *CreditResolver {
	return &CreditResolver{
		provider: p,
		catalog:  c,
		logger:   logger,
	}
}

// Resolve never guesses: when no tier yields a positive amount it returns
// RESOLUTION_INDETERMINATE. Provider errors are returned as-is.
func (r *CreditResolver) Resolve(ctx context.Context, session *provider.CheckoutSession) (*Resolution, error) {
	log := r.logger.With(zap.String("session_id", session.ID))
	packageID := session.Metadata["package_id"]

	if credits, ok := r.parseCredits(log, session.Metadata, CreditSourceSessionMetadata); ok {
		return &Resolution{Credits: credits, Source: CreditSourceSessionMetadata, PackageID: packageID}, nil
	}

	if session.PaymentIntentID != "" {
		intent, err := r.provider.GetPaymentIntent(ctx, session.PaymentIntentID)
		if err != nil {
			return nil, err
		}
		if credits, ok := r.parseCredits(log, intent.Metadata, CreditSourceIntentMetadata); ok {
			if packageID == "" {
				packageID = intent.Metadata["package_id"]
			}
			return &Resolution{Credits: credits, Source: CreditSourceIntentMetadata, PackageID: packageID}, nil
		}
	}

	items := session.LineItems
	if len(items) == 0 {
		var err error
		items, err = r.provider.ListLineItems(ctx, session.ID)
		if err != nil {
			return nil, err
		}
	}
	if len(items) > 0 && items[0].PriceRef != "" {
		if pkg, ok := r.catalog.ByPriceRef(items[0].PriceRef); ok {
			return &Resolution{
				Credits:   pkg.Credits,
				Source:    CreditSourcePriceCatalog,
				PackageID: pkg.ID,
				PriceRef:  items[0].PriceRef,
			}, nil
		}
		log.Warn("Line item price not in catalog", zap.String("price_ref", items[0].PriceRef))
	}

	log.Error("Could not resolve credits for checkout session",
		zap.Bool("has_payment_intent", session.PaymentIntentID != ""),
		zap.Int("line_items", len(items)))
	return nil, domainerrors.NewResolutionIndeterminateError(session.ID)
}

func (r *CreditResolver) parseCredits(log *zap.Logger, metadata map[string]string, source CreditSource) (int64, bool) {
	raw, ok := metadata[metadataCredits]
	if !ok || raw == "" {
		return 0, false
	}

	credits, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || credits <= 0 {
		log.Warn("Ignoring invalid credits metadata",
			zap.String("source", string(source)),
			zap.String("value", raw))
		return 0, false
	}
	return credits, true
}
