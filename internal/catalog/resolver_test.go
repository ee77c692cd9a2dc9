package catalog

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jaswa1/arbitrary-rage/internal/engine"
	"github.com/jaswa1/arbitrary-rage/internal/models"
)

func floatPtr(v float64) *float64 { return &v }
func strPtr(v string) *string     { return &v }

func sealedProduct(id string) *models.Product {
	return &models.Product{ID: id, Name: id, Kind: models.ProductKindSealed, Category: "pokemon"}
}

func TestResolve_MissingProduct(t *testing.T) {
	r := NewResolver(&stubRepo{}, 0.05, nil)
	_, err := r.Resolve(context.Background(), "ghost")
	if !errors.Is(err, engine.ErrNotFound) {
		t.Fatalf("err=%v want ErrNotFound", err)
	}
}

func TestResolve_SingleIsNotResolvable(t *testing.T) {
	repo := &stubRepo{products: map[string]*models.Product{
		"card": {ID: "card", Kind: models.ProductKindSingle},
	}}
	r := NewResolver(repo, 0.05, nil)
	_, err := r.Resolve(context.Background(), "card")
	if !errors.Is(err, engine.ErrNotFound) {
		t.Fatalf("err=%v want ErrNotFound", err)
	}
}

func TestResolve_EmptyCompositionIsNotAnError(t *testing.T) {
	repo := &stubRepo{products: map[string]*models.Product{"box": sealedProduct("box")}}
	r := NewResolver(repo, 0.05, nil)
	comp, err := r.Resolve(context.Background(), "box")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(comp.Components) != 0 || len(comp.Warnings) != 0 {
		t.Fatalf("comp=%+v want empty without warnings", comp)
	}
}

func TestResolve_ValidComposition(t *testing.T) {
	repo := &stubRepo{
		products: map[string]*models.Product{"box": sealedProduct("box")},
		mappings: map[string][]models.ComponentMapping{
			"box": {
				{ID: "m1", SealedProductID: "box", SingleProductID: "cardA", Quantity: 1, Guaranteed: true},
				{ID: "m2", SealedProductID: "box", SingleProductID: "cardB", Quantity: 1, Rarity: strPtr("rare"), PullProbability: floatPtr(0.4)},
				{ID: "m3", SealedProductID: "box", SingleProductID: "cardC", Quantity: 1, Rarity: strPtr("rare"), PullProbability: floatPtr(0.6)},
			},
		},
	}
	r := NewResolver(repo, 0.05, nil)
	comp, err := r.Resolve(context.Background(), "box")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(comp.Components) != 3 {
		t.Fatalf("components=%d want 3", len(comp.Components))
	}
	if len(comp.Warnings) != 0 {
		t.Fatalf("warnings=%v want none", comp.Warnings)
	}
}

func TestResolve_FlagsInconsistentMappings(t *testing.T) {
	repo := &stubRepo{
		products: map[string]*models.Product{"box": sealedProduct("box")},
		mappings: map[string][]models.ComponentMapping{
			"box": {
				{ID: "m1", SealedProductID: "box", SingleProductID: "cardA", Quantity: 0, Guaranteed: true},
				{ID: "m2", SealedProductID: "box", SingleProductID: "cardB", Quantity: 1},
				{ID: "m3", SealedProductID: "box", SingleProductID: "cardC", Quantity: 1, PullProbability: floatPtr(1.5)},
				{ID: "m4", SealedProductID: "box", SingleProductID: "cardD", Quantity: 1, Rarity: strPtr("rare"), PullProbability: floatPtr(0.7)},
				{ID: "m5", SealedProductID: "box", SingleProductID: "cardE", Quantity: 1, Rarity: strPtr("rare"), PullProbability: floatPtr(0.7)},
			},
		},
	}
	r := NewResolver(repo, 0.05, nil)
	comp, err := r.Resolve(context.Background(), "box")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	// Four problems: zero quantity, missing probability, probability out of
	// range, and a rarity tier summing past 1.
	if len(comp.Warnings) != 4 {
		t.Fatalf("warnings=%v want 4", comp.Warnings)
	}
	var tierWarning bool
	for _, w := range comp.Warnings {
		if strings.Contains(w, "rare") && strings.Contains(w, "sum") {
			tierWarning = true
		}
	}
	if !tierWarning {
		t.Fatalf("warnings=%v want a rarity tier sum warning", comp.Warnings)
	}
}

func TestResolve_ToleranceAllowsSlightOversum(t *testing.T) {
	repo := &stubRepo{
		products: map[string]*models.Product{"box": sealedProduct("box")},
		mappings: map[string][]models.ComponentMapping{
			"box": {
				{ID: "m1", SealedProductID: "box", SingleProductID: "cardA", Quantity: 1, Rarity: strPtr("rare"), PullProbability: floatPtr(0.52)},
				{ID: "m2", SealedProductID: "box", SingleProductID: "cardB", Quantity: 1, Rarity: strPtr("rare"), PullProbability: floatPtr(0.52)},
			},
		},
	}
	r := NewResolver(repo, 0.05, nil)
	comp, err := r.Resolve(context.Background(), "box")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(comp.Warnings) != 0 {
		t.Fatalf("warnings=%v want none inside tolerance", comp.Warnings)
	}
}
