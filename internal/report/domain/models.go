package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type Service interface {
	Inventory(ctx context.Context, req InventoryRequest) (*InventoryReport, error)
	Transactions(ctx context.Context, req TransactionReportRequest) (*TransactionReport, error)
	Dashboard(ctx context.Context) (*DashboardSummary, error)
}

const DefaultLowStockThreshold = 10

type InventoryRequest struct {
	LowStockThreshold int64
	Category          string
	SortBy            string
	OrderBy           string
}

type ProductBrief struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Category string          `json:"category"`
	Price    decimal.Decimal `json:"price"`
	Stock    int64           `json:"stock"`
}

type CategoryStat struct {
	Category   string          `json:"category"`
	Count      int             `json:"count"`
	TotalStock int64           `json:"total_stock"`
	TotalValue decimal.Decimal `json:"total_value"`
}

type InventorySummary struct {
	TotalProducts     int             `json:"total_products"`
	TotalValue        decimal.Decimal `json:"total_value"`
	LowStockCount     int             `json:"low_stock_count"`
	OutOfStockCount   int             `json:"out_of_stock_count"`
	LowStockThreshold int64           `json:"low_stock_threshold"`
}

type InventoryReport struct {
	Summary            InventorySummary `json:"summary"`
	Products           []ProductBrief   `json:"products"`
	LowStockProducts   []ProductBrief   `json:"low_stock_products"`
	OutOfStockProducts []ProductBrief   `json:"out_of_stock_products"`
	CategoryStats      []CategoryStat   `json:"category_stats"`
}

const (
	PeriodToday = "today"
	PeriodWeek  = "week"
	PeriodMonth = "month"
	PeriodYear  = "year"
)

type TransactionReportRequest struct {
	Period    string
	StartDate *time.Time
	EndDate   *time.Time
	Kind      string
}

type PartyStat struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	TransactionCount int             `json:"transaction_count"`
}

type DateRange struct {
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
}

type TransactionReportSummary struct {
	TotalTransactions int             `json:"total_transactions"`
	SalesCount        int             `json:"sales_count"`
	PurchasesCount    int             `json:"purchases_count"`
	TotalSales        decimal.Decimal `json:"total_sales"`
	TotalPurchases    decimal.Decimal `json:"total_purchases"`
	NetProfit         decimal.Decimal `json:"net_profit"`
	Period            string          `json:"period"`
	DateRange         DateRange       `json:"date_range"`
}

type TransactionReport struct {
	Summary      TransactionReportSummary `json:"summary"`
	TopCustomers []PartyStat              `json:"top_customers"`
	TopVendors   []PartyStat              `json:"top_vendors"`
}

type DashboardOverview struct {
	TotalProducts  int   `json:"total_products"`
	TotalCustomers int64 `json:"total_customers"`
	TotalVendors   int64 `json:"total_vendors"`
	LowStockCount  int   `json:"low_stock_count"`
}

type PeriodStat struct {
	Sales            decimal.Decimal `json:"sales"`
	Purchases        decimal.Decimal `json:"purchases"`
	Profit           decimal.Decimal `json:"profit"`
	TransactionCount int             `json:"transaction_count"`
}

type DashboardSummary struct {
	Overview  DashboardOverview `json:"overview"`
	Today     PeriodStat        `json:"today"`
	ThisMonth PeriodStat        `json:"this_month"`
	Alerts    struct {
		LowStockProducts []ProductBrief `json:"low_stock_products"`
	} `json:"alerts"`
}

var (
	ErrInvalidBusiness = errors.New("invalid_business")
	ErrInvalidPeriod   = errors.New("invalid_period")
	ErrInvalidKind     = errors.New("invalid_kind")
)
