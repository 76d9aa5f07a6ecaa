package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/stockbook/internal/product/domain"
	"github.com/smallbiznis/stockbook/internal/tenantctx"
	"github.com/smallbiznis/stockbook/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	repo  domain.Repository
	genID *snowflake.Node
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("product.service"),
		repo:  p.Repo,
		genID: p.GenID,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Response, error) {
	businessID, ok := tenantctx.BusinessIDFromContext(ctx)
	if !ok || businessID == 0 {
		return nil, domain.ErrInvalidBusiness
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}
	category := strings.TrimSpace(req.Category)
	if category == "" {
		return nil, domain.ErrInvalidCategory
	}
	if req.Price.IsNegative() {
		return nil, domain.ErrInvalidPrice
	}
	if req.Stock < 0 {
		return nil, domain.ErrInvalidStock
	}

	description := strings.TrimSpace(ptrToString(req.Description))
	var descriptionPtr *string
	if description != "" {
		descriptionPtr = &description
	}

	now := time.Now().UTC()
	p := &domain.Product{
		ID:          s.genID.Generate().Int64(),
		BusinessID:  businessID.Int64(),
		Name:        name,
		Description: descriptionPtr,
		Price:       req.Price,
		Stock:       req.Stock,
		Category:    category,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if req.Metadata != nil {
		p.Metadata = datatypes.JSONMap(req.Metadata)
	}
	if err := s.repo.Create(ctx, s.db, p); err != nil {
		return nil, err
	}
	resp := s.toResponse(p)
	return &resp, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) ([]domain.Response, *pagination.PageInfo, error) {
	businessID, ok := tenantctx.BusinessIDFromContext(ctx)
	if !ok || businessID == 0 {
		return nil, nil, domain.ErrInvalidBusiness
	}

	req.Page.Normalize()
	filter := domain.ListRequest{
		Search:   strings.TrimSpace(req.Search),
		Category: strings.TrimSpace(req.Category),
		SortBy:   strings.TrimSpace(req.SortBy),
		OrderBy:  strings.TrimSpace(req.OrderBy),
	}

	items, total, err := s.repo.List(ctx, s.db, businessID.Int64(), filter, req.Page)
	if err != nil {
		return nil, nil, err
	}

	resp := make([]domain.Response, 0, len(items))
	for _, item := range items {
		resp = append(resp, s.toResponse(&item))
	}
	pageInfo := pagination.BuildPageInfo(req.Page, total)
	return resp, &pageInfo, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Response, error) {
	businessID, ok := tenantctx.BusinessIDFromContext(ctx)
	if !ok || businessID == 0 {
		return nil, domain.ErrInvalidBusiness
	}

	productID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, businessID.Int64(), productID.Int64())
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}

	resp := s.toResponse(item)
	return &resp, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateRequest) (*domain.Response, error) {
	businessID, ok := tenantctx.BusinessIDFromContext(ctx)
	if !ok || businessID == 0 {
		return nil, domain.ErrInvalidBusiness
	}

	productID, err := snowflake.ParseString(strings.TrimSpace(req.ID))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, businessID.Int64(), productID.Int64())
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, domain.ErrInvalidName
		}
		item.Name = name
	}
	if req.Description != nil {
		description := strings.TrimSpace(*req.Description)
		if description == "" {
			item.Description = nil
		} else {
			item.Description = &description
		}
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			return nil, domain.ErrInvalidPrice
		}
		item.Price = *req.Price
	}
	if req.Category != nil {
		category := strings.TrimSpace(*req.Category)
		if category == "" {
			return nil, domain.ErrInvalidCategory
		}
		item.Category = category
	}
	if req.Metadata != nil {
		item.Metadata = datatypes.JSONMap(req.Metadata)
	}

	item.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, s.db, item); err != nil {
		return nil, err
	}

	resp := s.toResponse(item)
	return &resp, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	businessID, ok := tenantctx.BusinessIDFromContext(ctx)
	if !ok || businessID == 0 {
		return domain.ErrInvalidBusiness
	}

	productID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return domain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, businessID.Int64(), productID.Int64())
	if err != nil {
		return err
	}
	if item == nil {
		return domain.ErrNotFound
	}

	return s.repo.Delete(ctx, s.db, businessID.Int64(), productID.Int64())
}

// AdjustStock applies a manual stock correction through the same conditional
// delta primitive the transaction commit uses.
func (s *Service) AdjustStock(ctx context.Context, req domain.AdjustStockRequest) (*domain.Response, error) {
	businessID, ok := tenantctx.BusinessIDFromContext(ctx)
	if !ok || businessID == 0 {
		return nil, domain.ErrInvalidBusiness
	}

	productID, err := snowflake.ParseString(strings.TrimSpace(req.ID))
	if err != nil {
		return nil, domain.ErrInvalidID
	}
	if req.Quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}

	var delta int64
	switch req.Operation {
	case domain.StockOperationAdd:
		delta = req.Quantity
	case domain.StockOperationRemove:
		delta = -req.Quantity
	default:
		return nil, domain.ErrInvalidOperation
	}

	item, err := s.repo.FindByID(ctx, s.db, businessID.Int64(), productID.Int64())
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}

	applied, err := s.repo.ApplyStockDelta(ctx, s.db, businessID.Int64(), productID.Int64(), delta)
	if err != nil {
		return nil, err
	}
	if !applied {
		// Re-read for an accurate figure; the conditional update already
		// rejected the underflow.
		current, err := s.repo.FindByID(ctx, s.db, businessID.Int64(), productID.Int64())
		if err != nil {
			return nil, err
		}
		available := item.Stock
		if current != nil {
			available = current.Stock
		}
		return nil, &domain.InsufficientStockError{
			ProductID: snowflake.ID(item.ID),
			Name:      item.Name,
			Available: available,
			Required:  req.Quantity,
		}
	}

	updated, err := s.repo.FindByID(ctx, s.db, businessID.Int64(), productID.Int64())
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, domain.ErrNotFound
	}

	resp := s.toResponse(updated)
	return &resp, nil
}

func (s *Service) toResponse(p *domain.Product) domain.Response {
	resp := domain.Response{
		ID:          snowflake.ID(p.ID).String(),
		BusinessID:  snowflake.ID(p.BusinessID).String(),
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Stock:       p.Stock,
		Category:    p.Category,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}

	if len(p.Metadata) > 0 {
		resp.Metadata = map[string]any(p.Metadata)
	}

	return resp
}

func ptrToString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
