package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	contactdomain "github.com/smallbiznis/stockbook/internal/contact/domain"
	productdomain "github.com/smallbiznis/stockbook/internal/product/domain"
	"github.com/smallbiznis/stockbook/internal/transaction/domain"
	"gorm.io/gorm"
)

// parsedLine is a line item with its product reference resolved to an ID.
type parsedLine struct {
	ProductID int64
	Quantity  int64
	UnitPrice decimal.Decimal
}

// parseRequest performs pure shape validation: kind, contact reference
// presence, line item bounds and reference formats. No reads.
func parseRequest(req domain.CreateRequest) (contactID int64, lines []parsedLine, err error) {
	if !domain.ValidKind(req.Kind) {
		return 0, nil, domain.ErrInvalidKind
	}
	if len(req.LineItems) == 0 {
		return 0, nil, domain.ErrEmptyLineItems
	}

	var contactRef *string
	switch req.Kind {
	case domain.KindSale:
		if req.CustomerID == nil || strings.TrimSpace(*req.CustomerID) == "" {
			return 0, nil, domain.ErrMissingCustomer
		}
		if req.VendorID != nil && strings.TrimSpace(*req.VendorID) != "" {
			return 0, nil, domain.ErrContactMismatch
		}
		contactRef = req.CustomerID
	case domain.KindPurchase:
		if req.VendorID == nil || strings.TrimSpace(*req.VendorID) == "" {
			return 0, nil, domain.ErrMissingVendor
		}
		if req.CustomerID != nil && strings.TrimSpace(*req.CustomerID) != "" {
			return 0, nil, domain.ErrContactMismatch
		}
		contactRef = req.VendorID
	}

	parsedContact, err := snowflake.ParseString(strings.TrimSpace(*contactRef))
	if err != nil {
		return 0, nil, domain.ErrContactNotFound
	}

	lines = make([]parsedLine, 0, len(req.LineItems))
	for _, item := range req.LineItems {
		if item.Quantity < 1 {
			return 0, nil, domain.ErrInvalidQuantity
		}
		if item.UnitPrice.IsNegative() {
			return 0, nil, domain.ErrInvalidUnitPrice
		}
		productID, err := snowflake.ParseString(strings.TrimSpace(item.ProductID))
		if err != nil {
			return 0, nil, domain.ErrProductNotFound
		}
		lines = append(lines, parsedLine{
			ProductID: productID.Int64(),
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}

	return parsedContact.Int64(), lines, nil
}

// resolvedRefs is the consistent snapshot the ledger and the commit work
// from: one batch product fetch, one contact fetch, all tenant-scoped.
type resolvedRefs struct {
	contact  *contactdomain.Contact
	products map[int64]*productdomain.Product
}

// resolveReferences confirms the contact resolves within the tenant with the
// role the kind demands, and that every distinct product reference resolves
// within the tenant. A partial product match is treated as not found.
func (s *Service) resolveReferences(ctx context.Context, db *gorm.DB, businessID int64, kind string, contactID int64, lines []parsedLine) (*resolvedRefs, error) {
	role := contactdomain.RoleCustomer
	if kind == domain.KindPurchase {
		role = contactdomain.RoleVendor
	}

	contact, err := s.contactRepo.FindByIDAndRole(ctx, db, businessID, contactID, role)
	if err != nil {
		return nil, err
	}
	if contact == nil {
		return nil, domain.ErrContactNotFound
	}

	distinct := make([]int64, 0, len(lines))
	seen := make(map[int64]struct{}, len(lines))
	for _, line := range lines {
		if _, ok := seen[line.ProductID]; ok {
			continue
		}
		seen[line.ProductID] = struct{}{}
		distinct = append(distinct, line.ProductID)
	}

	items, err := s.productRepo.FindByIDs(ctx, db, businessID, distinct)
	if err != nil {
		return nil, err
	}
	if len(items) != len(distinct) {
		return nil, domain.ErrProductNotFound
	}

	products := make(map[int64]*productdomain.Product, len(items))
	for i := range items {
		products[items[i].ID] = &items[i]
	}

	return &resolvedRefs{contact: contact, products: products}, nil
}
