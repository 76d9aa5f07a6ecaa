package service

import (
	"github.com/bwmarrin/snowflake"
	productdomain "github.com/smallbiznis/stockbook/internal/product/domain"
	"github.com/smallbiznis/stockbook/internal/transaction/domain"
)

// stockDelta is one product's net stock movement for a transaction:
// negative for sales, positive for purchases.
type stockDelta struct {
	ProductID int64
	Delta     int64
}

// computeStockDeltas aggregates requested quantities per product and, for
// sales, checks feasibility against the product snapshot. Aggregation comes
// first: a product referenced by several line items must be checked against
// the sum of their quantities, not line by line against a stale figure.
func computeStockDeltas(kind string, lines []parsedLine, products map[int64]*productdomain.Product) ([]stockDelta, error) {
	required := make(map[int64]int64, len(lines))
	order := make([]int64, 0, len(lines))
	for _, line := range lines {
		if _, ok := required[line.ProductID]; !ok {
			order = append(order, line.ProductID)
		}
		required[line.ProductID] += line.Quantity
	}

	sign := int64(1)
	if kind == domain.KindSale {
		sign = -1
	}

	deltas := make([]stockDelta, 0, len(order))
	for _, productID := range order {
		quantity := required[productID]
		if kind == domain.KindSale {
			product := products[productID]
			if product == nil {
				return nil, domain.ErrProductNotFound
			}
			if product.Stock < quantity {
				return nil, &productdomain.InsufficientStockError{
					ProductID: snowflake.ID(product.ID),
					Name:      product.Name,
					Available: product.Stock,
					Required:  quantity,
				}
			}
		}
		deltas = append(deltas, stockDelta{ProductID: productID, Delta: sign * quantity})
	}

	return deltas, nil
}
