package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/stockbook/internal/contact/domain"
	"github.com/smallbiznis/stockbook/internal/tenantctx"
	"github.com/smallbiznis/stockbook/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
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
		log:   p.Log.Named("contact.service"),
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
	phone := strings.TrimSpace(req.Phone)
	if phone == "" {
		return nil, domain.ErrInvalidPhone
	}
	if !domain.ValidRole(req.Role) {
		return nil, domain.ErrInvalidRole
	}

	now := time.Now().UTC()
	c := &domain.Contact{
		ID:         s.genID.Generate().Int64(),
		BusinessID: businessID.Int64(),
		Name:       name,
		Phone:      phone,
		Email:      normalizeOptional(req.Email, true),
		Address:    normalizeOptional(req.Address, false),
		Role:       req.Role,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.Create(ctx, s.db, c); err != nil {
		return nil, err
	}
	resp := s.toResponse(c)
	return &resp, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) ([]domain.Response, *pagination.PageInfo, error) {
	businessID, ok := tenantctx.BusinessIDFromContext(ctx)
	if !ok || businessID == 0 {
		return nil, nil, domain.ErrInvalidBusiness
	}

	role := strings.TrimSpace(req.Role)
	if role != "" && !domain.ValidRole(role) {
		return nil, nil, domain.ErrInvalidRole
	}

	req.Page.Normalize()
	filter := domain.ListRequest{
		Search: strings.TrimSpace(req.Search),
		Role:   role,
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

	contactID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, businessID.Int64(), contactID.Int64())
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

	contactID, err := snowflake.ParseString(strings.TrimSpace(req.ID))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, businessID.Int64(), contactID.Int64())
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
	if req.Phone != nil {
		phone := strings.TrimSpace(*req.Phone)
		if phone == "" {
			return nil, domain.ErrInvalidPhone
		}
		item.Phone = phone
	}
	if req.Email != nil {
		item.Email = normalizeOptional(req.Email, true)
	}
	if req.Address != nil {
		item.Address = normalizeOptional(req.Address, false)
	}

	// Role is intentionally not updatable: transactions reference contacts
	// by role, and a role flip would retroactively invalidate them.

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

	contactID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return domain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, businessID.Int64(), contactID.Int64())
	if err != nil {
		return err
	}
	if item == nil {
		return domain.ErrNotFound
	}

	return s.repo.Delete(ctx, s.db, businessID.Int64(), contactID.Int64())
}

func (s *Service) toResponse(c *domain.Contact) domain.Response {
	return domain.Response{
		ID:         snowflake.ID(c.ID).String(),
		BusinessID: snowflake.ID(c.BusinessID).String(),
		Name:       c.Name,
		Phone:      c.Phone,
		Email:      c.Email,
		Address:    c.Address,
		Role:       c.Role,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}

func normalizeOptional(value *string, lower bool) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	if lower {
		trimmed = strings.ToLower(trimmed)
	}
	return &trimmed
}
