package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	contactdomain "github.com/smallbiznis/stockbook/internal/contact/domain"
	productdomain "github.com/smallbiznis/stockbook/internal/product/domain"
	"github.com/smallbiznis/stockbook/internal/tenantctx"
	"github.com/smallbiznis/stockbook/internal/transaction/domain"
	"github.com/smallbiznis/stockbook/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Repo        domain.Repository
	ProductRepo productdomain.Repository
	ContactRepo contactdomain.Repository
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	repo        domain.Repository
	productRepo productdomain.Repository
	contactRepo contactdomain.Repository
	genID       *snowflake.Node
}

func New(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("transaction.service"),
		repo:        p.Repo,
		productRepo: p.ProductRepo,
		contactRepo: p.ContactRepo,
		genID:       p.GenID,
	}
}

// Create commits a transaction. Validation and the feasibility pass run
// before any write; the record insert and the stock deltas are applied in a
// single database transaction, with each delta re-checked by a conditional
// update so a concurrent sale cannot oversell between the pass and the
// commit. Any failure inside the scope rolls back the whole unit.
func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Response, error) {
	businessID, ok := tenantctx.BusinessIDFromContext(ctx)
	if !ok || businessID == 0 {
		return nil, domain.ErrInvalidBusiness
	}

	contactID, lines, err := parseRequest(req)
	if err != nil {
		return nil, err
	}

	refs, err := s.resolveReferences(ctx, s.db, businessID.Int64(), req.Kind, contactID, lines)
	if err != nil {
		return nil, err
	}

	deltas, err := computeStockDeltas(req.Kind, lines, refs.products)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.UnitPrice.Mul(decimal.NewFromInt(line.Quantity)))
	}

	now := time.Now().UTC()
	occurredAt := now
	if req.OccurredAt != nil {
		occurredAt = req.OccurredAt.UTC()
	}

	txn := &domain.Transaction{
		ID:          s.genID.Generate().Int64(),
		BusinessID:  businessID.Int64(),
		Kind:        req.Kind,
		TotalAmount: total,
		OccurredAt:  occurredAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	switch req.Kind {
	case domain.KindSale:
		txn.CustomerID = &refs.contact.ID
	case domain.KindPurchase:
		txn.VendorID = &refs.contact.ID
	}

	txnLines := make([]domain.TransactionLine, 0, len(lines))
	for _, line := range lines {
		txnLines = append(txnLines, domain.TransactionLine{
			ID:            s.genID.Generate().Int64(),
			TransactionID: txn.ID,
			ProductID:     line.ProductID,
			Quantity:      line.Quantity,
			UnitPrice:     line.UnitPrice,
		})
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Insert(ctx, tx, txn, txnLines); err != nil {
			return err
		}

		for _, delta := range deltas {
			applied, err := s.productRepo.ApplyStockDelta(ctx, tx, businessID.Int64(), delta.ProductID, delta.Delta)
			if err != nil {
				return err
			}
			if !applied {
				// A concurrent writer consumed the stock after the
				// feasibility pass. Re-read inside the transaction for an
				// accurate figure and abort the whole unit.
				current, err := s.productRepo.FindByID(ctx, tx, businessID.Int64(), delta.ProductID)
				if err != nil {
					return err
				}
				insufficient := &productdomain.InsufficientStockError{
					ProductID: snowflake.ID(delta.ProductID),
					Required:  -delta.Delta,
				}
				if current != nil {
					insufficient.Name = current.Name
					insufficient.Available = current.Stock
				}
				return insufficient
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("transaction committed",
		zap.String("transaction_id", snowflake.ID(txn.ID).String()),
		zap.String("kind", txn.Kind),
		zap.String("total_amount", txn.TotalAmount.String()),
		zap.Int("line_items", len(txnLines)),
	)

	resp := s.toResponse(txn, txnLines, refs.contact, refs.products)
	return &resp, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) ([]domain.Response, *pagination.PageInfo, error) {
	businessID, ok := tenantctx.BusinessIDFromContext(ctx)
	if !ok || businessID == 0 {
		return nil, nil, domain.ErrInvalidBusiness
	}

	kind := strings.TrimSpace(req.Kind)
	if kind != "" && !domain.ValidKind(kind) {
		return nil, nil, domain.ErrInvalidKind
	}

	req.Page.Normalize()
	filter := domain.ListFilter{
		Kind:      kind,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
	}

	items, total, err := s.repo.Find(ctx, s.db, businessID.Int64(), filter, req.Page)
	if err != nil {
		return nil, nil, err
	}

	resp, err := s.enrich(ctx, businessID.Int64(), items)
	if err != nil {
		return nil, nil, err
	}
	pageInfo := pagination.BuildPageInfo(req.Page, total)
	return resp, &pageInfo, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Response, error) {
	businessID, ok := tenantctx.BusinessIDFromContext(ctx)
	if !ok || businessID == 0 {
		return nil, domain.ErrInvalidBusiness
	}

	txnID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, businessID.Int64(), txnID.Int64())
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}

	resp, err := s.enrich(ctx, businessID.Int64(), []domain.Transaction{*item})
	if err != nil {
		return nil, err
	}
	return &resp[0], nil
}

func (s *Service) ListByContact(ctx context.Context, contactID string, page pagination.Pagination) (*domain.ContactTransactionsResponse, error) {
	businessID, ok := tenantctx.BusinessIDFromContext(ctx)
	if !ok || businessID == 0 {
		return nil, domain.ErrInvalidBusiness
	}

	parsed, err := snowflake.ParseString(strings.TrimSpace(contactID))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	contact, err := s.contactRepo.FindByID(ctx, s.db, businessID.Int64(), parsed.Int64())
	if err != nil {
		return nil, err
	}
	if contact == nil {
		return nil, domain.ErrContactNotFound
	}

	page.Normalize()
	filter := domain.ListFilter{}
	if contact.Role == contactdomain.RoleCustomer {
		filter.CustomerID = &contact.ID
	} else {
		filter.VendorID = &contact.ID
	}

	items, total, err := s.repo.Find(ctx, s.db, businessID.Int64(), filter, page)
	if err != nil {
		return nil, err
	}

	resp, err := s.enrich(ctx, businessID.Int64(), items)
	if err != nil {
		return nil, err
	}

	return &domain.ContactTransactionsResponse{
		Contact:      contactSummary(contact),
		Role:         contact.Role,
		Transactions: resp,
		PageInfo:     pagination.BuildPageInfo(page, total),
	}, nil
}

// enrich resolves contact and product summaries for a page of transactions
// with one batch fetch per record kind.
func (s *Service) enrich(ctx context.Context, businessID int64, items []domain.Transaction) ([]domain.Response, error) {
	if len(items) == 0 {
		return []domain.Response{}, nil
	}

	txnIDs := make([]int64, 0, len(items))
	contactIDs := make([]int64, 0, len(items))
	seenContacts := make(map[int64]struct{}, len(items))
	for _, item := range items {
		txnIDs = append(txnIDs, item.ID)
		for _, ref := range []*int64{item.CustomerID, item.VendorID} {
			if ref == nil {
				continue
			}
			if _, ok := seenContacts[*ref]; ok {
				continue
			}
			seenContacts[*ref] = struct{}{}
			contactIDs = append(contactIDs, *ref)
		}
	}

	lines, err := s.repo.LinesByTransactionIDs(ctx, s.db, txnIDs)
	if err != nil {
		return nil, err
	}

	productIDs := make([]int64, 0, len(lines))
	seenProducts := make(map[int64]struct{}, len(lines))
	linesByTxn := make(map[int64][]domain.TransactionLine, len(items))
	for _, line := range lines {
		linesByTxn[line.TransactionID] = append(linesByTxn[line.TransactionID], line)
		if _, ok := seenProducts[line.ProductID]; ok {
			continue
		}
		seenProducts[line.ProductID] = struct{}{}
		productIDs = append(productIDs, line.ProductID)
	}

	contacts, err := s.contactRepo.FindByIDs(ctx, s.db, businessID, contactIDs)
	if err != nil {
		return nil, err
	}
	contactByID := make(map[int64]*contactdomain.Contact, len(contacts))
	for i := range contacts {
		contactByID[contacts[i].ID] = &contacts[i]
	}

	products, err := s.productRepo.FindByIDs(ctx, s.db, businessID, productIDs)
	if err != nil {
		return nil, err
	}
	productByID := make(map[int64]*productdomain.Product, len(products))
	for i := range products {
		productByID[products[i].ID] = &products[i]
	}

	resp := make([]domain.Response, 0, len(items))
	for _, item := range items {
		var contact *contactdomain.Contact
		if item.CustomerID != nil {
			contact = contactByID[*item.CustomerID]
		} else if item.VendorID != nil {
			contact = contactByID[*item.VendorID]
		}
		resp = append(resp, s.toResponse(&item, linesByTxn[item.ID], contact, productByID))
	}
	return resp, nil
}

func (s *Service) toResponse(txn *domain.Transaction, lines []domain.TransactionLine, contact *contactdomain.Contact, products map[int64]*productdomain.Product) domain.Response {
	resp := domain.Response{
		ID:          snowflake.ID(txn.ID).String(),
		BusinessID:  snowflake.ID(txn.BusinessID).String(),
		Kind:        txn.Kind,
		TotalAmount: txn.TotalAmount,
		OccurredAt:  txn.OccurredAt,
		CreatedAt:   txn.CreatedAt,
	}

	if contact != nil {
		summary := contactSummary(contact)
		switch txn.Kind {
		case domain.KindSale:
			resp.Customer = &summary
		case domain.KindPurchase:
			resp.Vendor = &summary
		}
	}

	resp.LineItems = make([]domain.LineItemResponse, 0, len(lines))
	for _, line := range lines {
		lineResp := domain.LineItemResponse{
			ProductID: snowflake.ID(line.ProductID).String(),
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		}
		if product := products[line.ProductID]; product != nil {
			lineResp.Product = &domain.ProductSummary{
				ID:       snowflake.ID(product.ID).String(),
				Name:     product.Name,
				Category: product.Category,
			}
		}
		resp.LineItems = append(resp.LineItems, lineResp)
	}

	return resp
}

func contactSummary(c *contactdomain.Contact) domain.ContactSummary {
	return domain.ContactSummary{
		ID:    snowflake.ID(c.ID).String(),
		Name:  c.Name,
		Phone: c.Phone,
		Email: c.Email,
	}
}
