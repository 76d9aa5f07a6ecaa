package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/stockbook/internal/auth"
	authdomain "github.com/smallbiznis/stockbook/internal/auth/domain"
	"github.com/smallbiznis/stockbook/internal/config"
	"github.com/smallbiznis/stockbook/internal/contact"
	contactdomain "github.com/smallbiznis/stockbook/internal/contact/domain"
	obsmetrics "github.com/smallbiznis/stockbook/internal/observability/metrics"
	"github.com/smallbiznis/stockbook/internal/product"
	productdomain "github.com/smallbiznis/stockbook/internal/product/domain"
	"github.com/smallbiznis/stockbook/internal/report"
	reportdomain "github.com/smallbiznis/stockbook/internal/report/domain"
	"github.com/smallbiznis/stockbook/internal/transaction"
	txdomain "github.com/smallbiznis/stockbook/internal/transaction/domain"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	auth.Module,
	product.Module,
	contact.Module,
	transaction.Module,
	report.Module,
	fx.Provide(NewServer),
	fx.Invoke(run),
)

func NewEngine(cfg config.Config, log *zap.Logger, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(log))
	r.Use(otelgin.Middleware(cfg.AppName))
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func run(lc fx.Lifecycle, cfg config.Config, log *zap.Logger, r *gin.Engine, _ *Server) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine     *gin.Engine
	cfg        config.Config
	db         *gorm.DB
	genID      *snowflake.Node
	authSvc    authdomain.Service
	productSvc productdomain.Service
	contactSvc contactdomain.Service
	txnSvc     txdomain.Service
	reportSvc  reportdomain.Service
}

type ServerParams struct {
	fx.In

	Gin        *gin.Engine
	Cfg        config.Config
	DB         *gorm.DB
	GenID      *snowflake.Node
	AuthSvc    authdomain.Service
	ProductSvc productdomain.Service
	ContactSvc contactdomain.Service
	TxnSvc     txdomain.Service
	ReportSvc  reportdomain.Service
}

func NewServer(p ServerParams) *Server {
	s := &Server{
		engine:     p.Gin,
		cfg:        p.Cfg,
		db:         p.DB,
		genID:      p.GenID,
		authSvc:    p.AuthSvc,
		productSvc: p.ProductSvc,
		contactSvc: p.ContactSvc,
		txnSvc:     p.TxnSvc,
		reportSvc:  p.ReportSvc,
	}

	s.registerAPIRoutes()

	return s
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	// -------- Auth --------
	api.POST("/auth/register", s.Register)
	api.POST("/auth/login", s.Login)
	api.POST("/auth/logout", s.AuthRequired(), s.Logout)
	api.GET("/auth/profile", s.AuthRequired(), s.GetProfile)

	// -------- Products --------
	api.GET("/products", s.AuthRequired(), s.ListProducts)
	api.POST("/products", s.AuthRequired(), s.CreateProduct)
	api.GET("/products/:id", s.AuthRequired(), s.GetProductByID)
	api.PUT("/products/:id", s.AuthRequired(), s.UpdateProduct)
	api.DELETE("/products/:id", s.AuthRequired(), s.DeleteProduct)
	api.PATCH("/products/:id/stock", s.AuthRequired(), s.AdjustProductStock)

	// -------- Contacts --------
	api.GET("/contacts", s.AuthRequired(), s.ListContacts)
	api.POST("/contacts", s.AuthRequired(), s.CreateContact)
	api.GET("/contacts/:id", s.AuthRequired(), s.GetContactByID)
	api.PUT("/contacts/:id", s.AuthRequired(), s.UpdateContact)
	api.DELETE("/contacts/:id", s.AuthRequired(), s.DeleteContact)

	// -------- Transactions --------
	api.GET("/transactions", s.AuthRequired(), s.ListTransactions)
	api.POST("/transactions", s.AuthRequired(), s.CreateTransaction)
	api.GET("/transactions/:id", s.AuthRequired(), s.GetTransactionByID)
	api.GET("/transactions/contact/:contactId", s.AuthRequired(), s.ListTransactionsByContact)

	// -------- Reports --------
	api.GET("/reports/inventory", s.AuthRequired(), s.GetInventoryReport)
	api.GET("/reports/transactions", s.AuthRequired(), s.GetTransactionReport)
	api.GET("/reports/dashboard", s.AuthRequired(), s.GetDashboard)
}
