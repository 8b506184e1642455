package cart

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"golang.org/x/sync/errgroup"

	"github.com/hazalmir/cartsvc/internal/catalog"
)

// ErrBadCustomization is returned when a line item's customization payload is
// not a JSON object.
var ErrBadCustomization = errors.New("customization must be a JSON object")

// Catalog is the slice of the product catalog the validator needs: an
// existence lookup by product id.
type Catalog interface {
	Product(ctx context.Context, id string) (*catalog.Product, error)
}

// ItemInput is a proposed line item before catalog validation.
type ItemInput struct {
	ProductID      string
	Quantity       int
	PurchaseOption PurchaseOption
	StartDate      *time.Time
	EndDate        *time.Time
	Customization  json.RawMessage
}

// ItemValidator confirms each proposed item references an existing catalog
// product and normalizes it into its persisted shape.
type ItemValidator struct {
	catalog Catalog
}

// NewItemValidator creates an ItemValidator backed by the given catalog.
func NewItemValidator(c Catalog) *ItemValidator {
	return &ItemValidator{catalog: c}
}

// ValidateItems validates every input before anything is persisted: a single
// failure fails the whole batch and nothing is written. Catalog lookups for
// independent items run concurrently; the result keeps input order.
func (v *ItemValidator) ValidateItems(ctx context.Context, inputs []ItemInput) ([]LineItem, error) {
	items := make([]LineItem, len(inputs))

	g, ctx := errgroup.WithContext(ctx)
	for i, in := range inputs {
		i, in := i, in
		g.Go(func() error {
			item, err := v.validate(ctx, in)
			if err != nil {
				return err
			}
			items[i] = *item
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return items, nil
}

// validate performs the remote existence lookup and copies the input fields
// verbatim into the persisted shape. No price or availability is cached on
// the line item; readers resolve prices lazily against the catalog.
func (v *ItemValidator) validate(ctx context.Context, in ItemInput) (*LineItem, error) {
	if len(in.Customization) > 0 {
		if err := validateCustomization(in.Customization); err != nil {
			return nil, err
		}
	}

	if _, err := v.catalog.Product(ctx, in.ProductID); err != nil {
		return nil, err
	}

	opt := in.PurchaseOption
	if opt == "" {
		opt = PurchaseBuy
	}

	return &LineItem{
		ProductID:      in.ProductID,
		Quantity:       in.Quantity,
		PurchaseOption: opt,
		StartDate:      in.StartDate,
		EndDate:        in.EndDate,
		Customization:  in.Customization,
	}, nil
}

// validateCustomization ensures the opaque payload is a single well-formed
// JSON object. The contents are never interpreted.
func validateCustomization(raw json.RawMessage) error {
	d := jx.DecodeBytes(raw)
	if d.Next() != jx.Object {
		return ErrBadCustomization
	}
	if err := d.Skip(); err != nil {
		return errors.Wrap(ErrBadCustomization, err.Error())
	}
	return nil
}
