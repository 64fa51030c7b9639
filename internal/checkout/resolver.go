package checkout

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/zalar2202/logashop/pkg/db/models"
	"github.com/zalar2202/logashop/pkg/enums"
	pkgerrors "github.com/zalar2202/logashop/pkg/errors"
	"github.com/zalar2202/logashop/pkg/logger"
	"github.com/zalar2202/logashop/pkg/types"
)

type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// ResolvedItem is one cart line frozen against the live catalog: the
// price, stock flags, and display fields the rest of checkout needs.
type ResolvedItem struct {
	ProductID          uuid.UUID
	VariantID          *uuid.UUID
	Name               string
	Slug               string
	SKU                string
	ImageURL           *string
	Attributes         types.VariantAttributes
	ProductType        enums.ProductType
	UnitPriceCents     int
	Quantity           int
	LineTotalCents     int
	TrackInventory     bool
	AllowBackorder     bool
	VariantTracksStock bool
	DigitalFile        *types.DigitalFile
}

// Resolver validates cart lines against the catalog and snapshots them.
type Resolver struct {
	products productLoader
	logg     *logger.Logger
}

// NewResolver builds the cart snapshot resolver.
func NewResolver(products productLoader, logg *logger.Logger) (*Resolver, error) {
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Resolver{products: products, logg: logg}, nil
}

// Resolve walks every cart line and returns the full snapshot, or a
// validation error aggregating every problem found. It never fails on
// the first bad line; the buyer sees all of them at once. The stock
// check here is advisory; the reservation step enforces it for real.
func (r *Resolver) Resolve(ctx context.Context, items []models.CartItem) ([]ResolvedItem, error) {
	var (
		resolved []ResolvedItem
		problems error
	)

	for _, item := range items {
		line, err := r.resolveLine(ctx, item)
		if err != nil {
			var lineErr *lineError
			if stderrors.As(err, &lineErr) {
				problems = multierr.Append(problems, lineErr)
				continue
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve cart line")
		}
		resolved = append(resolved, *line)
	}

	if problems != nil {
		messages := make([]string, 0)
		for _, err := range multierr.Errors(problems) {
			messages = append(messages, err.Error())
		}
		return nil, pkgerrors.New(pkgerrors.CodeValidation, strings.Join(messages, "; "))
	}
	if len(resolved) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no valid items in cart")
	}
	return resolved, nil
}

type lineError struct {
	msg string
}

func (e *lineError) Error() string {
	return e.msg
}

func lineErrorf(format string, args ...any) error {
	return &lineError{msg: fmt.Sprintf(format, args...)}
}

func (r *Resolver) resolveLine(ctx context.Context, item models.CartItem) (*ResolvedItem, error) {
	if item.Quantity < 1 {
		return nil, lineErrorf("cart line %s has an invalid quantity", item.ID)
	}

	product, err := r.products.FindByID(ctx, item.ProductID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, lineErrorf("product %s is no longer available", item.ProductID)
		}
		return nil, err
	}
	if !product.IsPurchasable() {
		return nil, lineErrorf("%s is not available", product.Name)
	}

	var variant *models.ProductVariant
	if item.VariantID != nil {
		for i := range product.Variants {
			if product.Variants[i].ID == *item.VariantID {
				variant = &product.Variants[i]
				break
			}
		}
		if variant == nil {
			return nil, lineErrorf("%s no longer offers the selected option", product.Name)
		}
	}

	price := product.EffectivePriceCents()
	if variant != nil && variant.PriceCents != nil {
		price = *variant.PriceCents
	}

	stock := product.Stock
	variantTracksStock := false
	if variant != nil && variant.Stock != nil {
		stock = *variant.Stock
		variantTracksStock = true
	}

	if product.TrackInventory && !product.AllowBackorder && item.Quantity > stock {
		return nil, lineErrorf("%s only has %d in stock (requested %d)", product.Name, stock, item.Quantity)
	}

	line := &ResolvedItem{
		ProductID:          product.ID,
		VariantID:          item.VariantID,
		Name:               product.Name,
		Slug:               product.Slug,
		SKU:                product.SKU,
		ImageURL:           product.PrimaryImageURL,
		ProductType:        product.Type,
		UnitPriceCents:     price,
		Quantity:           item.Quantity,
		LineTotalCents:     price * item.Quantity,
		TrackInventory:     product.TrackInventory,
		AllowBackorder:     product.AllowBackorder,
		VariantTracksStock: variantTracksStock,
		DigitalFile:        product.DigitalFile,
	}
	if variant != nil {
		line.Attributes = variant.Attributes
		if variant.SKU != nil {
			line.SKU = *variant.SKU
		}
	}
	return line, nil
}
