package checkout

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zalar2202/logashop/pkg/db/models"
	"github.com/zalar2202/logashop/pkg/enums"
	pkgerrors "github.com/zalar2202/logashop/pkg/errors"
	"github.com/zalar2202/logashop/pkg/logger"
	"github.com/zalar2202/logashop/pkg/types"
)

type stubProductLoader struct {
	products map[uuid.UUID]*models.Product
	err      error
}

func (s *stubProductLoader) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	product, ok := s.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return product, nil
}

func newResolver(t *testing.T, loader productLoader) *Resolver {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	resolver, err := NewResolver(loader, logg)
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	return resolver
}

func intPtr(v int) *int { return &v }

func activeProduct(name string, priceCents, stock int) *models.Product {
	return &models.Product{
		ID:             uuid.New(),
		SKU:            strings.ToUpper(name),
		Slug:           strings.ToLower(name),
		Name:           name,
		Type:           enums.ProductTypePhysical,
		Status:         enums.ProductStatusActive,
		BasePriceCents: priceCents,
		Stock:          stock,
		TrackInventory: true,
	}
}

func TestResolve_SnapshotsPricesAndStockFlags(t *testing.T) {
	t.Parallel()

	product := activeProduct("Poster", 2500, 10)
	product.SalePriceCents = intPtr(2000)
	loader := &stubProductLoader{products: map[uuid.UUID]*models.Product{product.ID: product}}
	resolver := newResolver(t, loader)

	items, err := resolver.Resolve(context.Background(), []models.CartItem{
		{ID: uuid.New(), ProductID: product.ID, Quantity: 3},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected one resolved item, got %d", len(items))
	}
	line := items[0]
	if line.UnitPriceCents != 2000 {
		t.Fatalf("sale price must win, got %d", line.UnitPriceCents)
	}
	if line.LineTotalCents != 6000 {
		t.Fatalf("line total = %d", line.LineTotalCents)
	}
	if line.Name != "Poster" || line.SKU != "POSTER" {
		t.Fatalf("snapshot fields wrong: %+v", line)
	}
}

func TestResolve_VariantOverrides(t *testing.T) {
	t.Parallel()

	product := activeProduct("Shirt", 3000, 50)
	variantSKU := "SHIRT-L-RED"
	variant := models.ProductVariant{
		ID:         uuid.New(),
		ProductID:  product.ID,
		SKU:        &variantSKU,
		Attributes: types.VariantAttributes{{Key: "size", Value: "L"}, {Key: "color", Value: "red"}},
		PriceCents: intPtr(3500),
		Stock:      intPtr(2),
	}
	product.Variants = []models.ProductVariant{variant}
	loader := &stubProductLoader{products: map[uuid.UUID]*models.Product{product.ID: product}}
	resolver := newResolver(t, loader)

	items, err := resolver.Resolve(context.Background(), []models.CartItem{
		{ID: uuid.New(), ProductID: product.ID, VariantID: &variant.ID, Quantity: 2},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	line := items[0]
	if line.UnitPriceCents != 3500 || line.SKU != variantSKU {
		t.Fatalf("variant overrides not applied: %+v", line)
	}
	if !line.VariantTracksStock {
		t.Fatal("variant with own stock must be flagged")
	}

	// Requesting more than the variant's stock fails even though the
	// product itself has plenty.
	_, err = resolver.Resolve(context.Background(), []models.CartItem{
		{ID: uuid.New(), ProductID: product.ID, VariantID: &variant.ID, Quantity: 3},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !strings.Contains(typed.Message(), "only has 2 in stock (requested 3)") {
		t.Fatalf("message = %q", typed.Message())
	}
}

func TestResolve_AggregatesAllProblems(t *testing.T) {
	t.Parallel()

	archived := activeProduct("Old", 1000, 10)
	archived.Status = enums.ProductStatusArchived
	short := activeProduct("Scarce", 1000, 1)
	loader := &stubProductLoader{products: map[uuid.UUID]*models.Product{
		archived.ID: archived,
		short.ID:    short,
	}}
	resolver := newResolver(t, loader)

	_, err := resolver.Resolve(context.Background(), []models.CartItem{
		{ID: uuid.New(), ProductID: archived.ID, Quantity: 1},
		{ID: uuid.New(), ProductID: uuid.New(), Quantity: 1},
		{ID: uuid.New(), ProductID: short.ID, Quantity: 5},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	msg := typed.Message()
	if !strings.Contains(msg, "Old is not available") ||
		!strings.Contains(msg, "no longer available") ||
		!strings.Contains(msg, "Scarce only has 1 in stock") {
		t.Fatalf("expected all three problems, got %q", msg)
	}
	if strings.Count(msg, ";") != 2 {
		t.Fatalf("expected messages joined by semicolons, got %q", msg)
	}
}

func TestResolve_BackorderAndUntrackedPass(t *testing.T) {
	t.Parallel()

	backorder := activeProduct("Preorder", 1000, 0)
	backorder.AllowBackorder = true
	untracked := activeProduct("Service", 5000, 0)
	untracked.TrackInventory = false
	loader := &stubProductLoader{products: map[uuid.UUID]*models.Product{
		backorder.ID: backorder,
		untracked.ID: untracked,
	}}
	resolver := newResolver(t, loader)

	items, err := resolver.Resolve(context.Background(), []models.CartItem{
		{ID: uuid.New(), ProductID: backorder.ID, Quantity: 2},
		{ID: uuid.New(), ProductID: untracked.ID, Quantity: 1},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected both lines to resolve, got %d", len(items))
	}
}

func TestResolve_EmptyCart(t *testing.T) {
	t.Parallel()

	resolver := newResolver(t, &stubProductLoader{})

	_, err := resolver.Resolve(context.Background(), nil)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if typed.Message() != "no valid items in cart" {
		t.Fatalf("message = %q", typed.Message())
	}
}

func TestResolve_DependencyFailure(t *testing.T) {
	t.Parallel()

	resolver := newResolver(t, &stubProductLoader{err: errors.New("db down")})

	_, err := resolver.Resolve(context.Background(), []models.CartItem{
		{ID: uuid.New(), ProductID: uuid.New(), Quantity: 1},
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}
