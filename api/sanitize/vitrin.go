package sanitize

import (
	"errors"
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/lengapp/leng-api/models"
)

// Vitrin caps
const (
	MaxVitrinTitle    = 100
	MaxVitrinProducts = 30
	MaxProductName    = 100
)

// ErrNegativePrice is returned when a product has a price below zero
var ErrNegativePrice = errors.New("product price must be zero or more")

// Vitrin sanitizes a storefront. Products without a name are dropped and
// duplicate product ids keep their first occurrence.
func Vitrin(in models.Vitrin) (models.Vitrin, error) {
	out := models.Vitrin{
		Enabled:  in.Enabled,
		Title:    Text(in.Title, MaxVitrinTitle),
		Products: []models.VitrinProduct{},
	}
	products := in.Products
	if len(products) > MaxVitrinProducts {
		products = products[:MaxVitrinProducts]
	}
	seen := mapset.NewThreadUnsafeSet[string]()
	for i, p := range products {
		if p.PriceCents < 0 {
			return models.Vitrin{}, ErrNegativePrice
		}
		clean := models.VitrinProduct{
			ID:         Text(p.ID, MaxID),
			Name:       Text(p.Name, MaxProductName),
			PriceCents: p.PriceCents,
			ImageURL:   URL(p.ImageURL, MaxURL),
			URL:        URL(p.URL, MaxURL),
		}
		if clean.Name == "" {
			continue
		}
		if clean.ID == "" {
			clean.ID = fmt.Sprintf("product-%d", i)
		}
		if !seen.Add(clean.ID) {
			continue
		}
		out.Products = append(out.Products, clean)
	}
	return out, nil
}
