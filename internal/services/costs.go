package services

import (
	"fmt"

	"github.com/stivenPRO500/siembrasApp/internal/models"
)

// ComputeUsageCost prices one product usage line. Catalog prices are per
// presentation unit; cup and pound quantities are converted through the
// product's capacity fields.
func ComputeUsageCost(product *models.Product, quantity float64, unit models.UsageUnit) (float64, error) {
	if quantity < 0 {
		return 0, fmt.Errorf("%w: quantity must not be negative", models.ErrValidation)
	}

	switch unit {
	case models.UnitUnits:
		return quantity * product.Price, nil

	case models.UnitCups:
		if product.CupsPerUnit == nil || *product.CupsPerUnit <= 0 {
			return 0, fmt.Errorf("%w: product %q has no cup capacity", models.ErrValidation, product.Name)
		}
		return quantity * (product.Price / *product.CupsPerUnit), nil

	case models.UnitPounds:
		if product.PoundsPerBag == nil || *product.PoundsPerBag <= 0 {
			return 0, fmt.Errorf("%w: product %q has no pounds per bag", models.ErrValidation, product.Name)
		}
		return quantity * (product.Price / *product.PoundsPerBag), nil
	}

	return 0, fmt.Errorf("%w: unknown usage unit %q", models.ErrValidation, unit)
}

// PriceUsages prices every line against the catalog and returns the lines
// with costs filled in plus their sum.
func PriceUsages(products map[string]*models.Product, usages []models.ProductUsage) ([]models.ProductUsage, float64, error) {
	priced := make([]models.ProductUsage, 0, len(usages))
	total := 0.0
	for _, usage := range usages {
		product, ok := products[usage.ProductID.String()]
		if !ok {
			return nil, 0, fmt.Errorf("%w: product %s not in catalog", models.ErrValidation, usage.ProductID)
		}
		cost, err := ComputeUsageCost(product, usage.Quantity, usage.Unit)
		if err != nil {
			return nil, 0, err
		}
		usage.Cost = cost
		priced = append(priced, usage)
		total += cost
	}
	return priced, total, nil
}
