package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/smallbiznis/stockbook/internal/auth/domain"
	"github.com/smallbiznis/stockbook/internal/auth/repository"
	"github.com/smallbiznis/stockbook/internal/config"
	"github.com/smallbiznis/stockbook/internal/tenantctx"
	"github.com/smallbiznis/stockbook/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const tokenIssuer = "stockbook"

type Params struct {
	fx.In

	Cfg   config.Config
	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  repository.Repository
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	repo     repository.Repository
	genID    *snowflake.Node
	secret   []byte
	tokenTTL time.Duration
}

func New(p Params) domain.Service {
	secret := p.Cfg.AuthJWTSecret
	if secret == "" {
		secret = "stockbook-dev-secret"
		p.Log.Warn("AUTH_JWT_SECRET is not set, using development secret")
	}
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("auth.service"),
		repo:     p.Repo,
		genID:    p.GenID,
		secret:   []byte(secret),
		tokenTTL: p.Cfg.AuthTokenTTL,
	}
}

func (s *Service) Register(ctx context.Context, req domain.RegisterRequest) (*domain.AuthResponse, error) {
	username := strings.TrimSpace(req.Username)
	if len(username) < 3 || len(username) > 30 {
		return nil, domain.ErrInvalidUsername
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, domain.ErrInvalidEmail
	}
	if len(req.Password) < 6 {
		return nil, domain.ErrInvalidPassword
	}
	businessName := strings.TrimSpace(req.BusinessName)
	if businessName == "" || len(businessName) > 100 {
		return nil, domain.ErrInvalidBusinessName
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	business := &domain.Business{
		ID:           s.genID.Generate().Int64(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		BusinessName: businessName,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, s.db, business); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrUserExists
		}
		return nil, err
	}

	s.log.Info("business registered", zap.String("business_id", snowflake.ID(business.ID).String()))
	return s.issue(business)
}

func (s *Service) Login(ctx context.Context, req domain.LoginRequest) (*domain.AuthResponse, error) {
	login := strings.TrimSpace(req.Login)
	if login == "" || req.Password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	business, err := s.repo.FindByLogin(ctx, s.db, strings.ToLower(login))
	if err != nil {
		return nil, err
	}
	if business == nil {
		// Usernames are case-sensitive, emails are stored lowercased.
		business, err = s.repo.FindByLogin(ctx, s.db, login)
		if err != nil {
			return nil, err
		}
	}
	if business == nil {
		return nil, domain.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(business.PasswordHash), []byte(req.Password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	return s.issue(business)
}

func (s *Service) Profile(ctx context.Context) (*domain.Profile, error) {
	businessID, ok := tenantctx.BusinessIDFromContext(ctx)
	if !ok || businessID == 0 {
		return nil, domain.ErrInvalidToken
	}

	business, err := s.repo.FindByID(ctx, s.db, businessID.Int64())
	if err != nil {
		return nil, err
	}
	if business == nil {
		return nil, domain.ErrNotFound
	}

	profile := toProfile(business)
	return &profile, nil
}

func (s *Service) VerifyToken(token string) (snowflake.ID, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(tokenIssuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, domain.ErrTokenExpired
		}
		return 0, domain.ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return 0, domain.ErrInvalidToken
	}

	businessID, err := snowflake.ParseString(claims.Subject)
	if err != nil {
		return 0, domain.ErrInvalidToken
	}
	return businessID, nil
}

func (s *Service) issue(business *domain.Business) (*domain.AuthResponse, error) {
	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   snowflake.ID(business.ID).String(),
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, err
	}

	return &domain.AuthResponse{
		Token:    token,
		Business: toProfile(business),
	}, nil
}

func toProfile(b *domain.Business) domain.Profile {
	return domain.Profile{
		ID:           snowflake.ID(b.ID).String(),
		Username:     b.Username,
		Email:        b.Email,
		BusinessName: b.BusinessName,
		CreatedAt:    b.CreatedAt,
	}
}
