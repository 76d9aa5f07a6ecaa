package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	contactdomain "github.com/smallbiznis/stockbook/internal/contact/domain"
	productdomain "github.com/smallbiznis/stockbook/internal/product/domain"
	"github.com/smallbiznis/stockbook/internal/report/domain"
	"github.com/smallbiznis/stockbook/internal/tenantctx"
	txdomain "github.com/smallbiznis/stockbook/internal/transaction/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	ProductRepo productdomain.Repository
	ContactRepo contactdomain.Repository
	TxnRepo     txdomain.Repository
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	productRepo productdomain.Repository
	contactRepo contactdomain.Repository
	txnRepo     txdomain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("report.service"),
		productRepo: p.ProductRepo,
		contactRepo: p.ContactRepo,
		txnRepo:     p.TxnRepo,
	}
}

func (s *Service) Inventory(ctx context.Context, req domain.InventoryRequest) (*domain.InventoryReport, error) {
	businessID, ok := tenantctx.BusinessIDFromContext(ctx)
	if !ok || businessID == 0 {
		return nil, domain.ErrInvalidBusiness
	}

	threshold := req.LowStockThreshold
	if threshold <= 0 {
		threshold = domain.DefaultLowStockThreshold
	}

	products, err := s.productRepo.FindAll(ctx, s.db, businessID.Int64())
	if err != nil {
		return nil, err
	}

	category := strings.ToLower(strings.TrimSpace(req.Category))
	report := &domain.InventoryReport{
		Products:           []domain.ProductBrief{},
		LowStockProducts:   []domain.ProductBrief{},
		OutOfStockProducts: []domain.ProductBrief{},
	}

	totalValue := decimal.Zero
	statsByCategory := make(map[string]*domain.CategoryStat)
	for i := range products {
		p := &products[i]
		if category != "" && !strings.Contains(strings.ToLower(p.Category), category) {
			continue
		}

		brief := productBrief(p)
		report.Products = append(report.Products, brief)

		value := p.Price.Mul(decimal.NewFromInt(p.Stock))
		totalValue = totalValue.Add(value)

		if p.Stock <= threshold {
			report.LowStockProducts = append(report.LowStockProducts, brief)
		}
		if p.Stock == 0 {
			report.OutOfStockProducts = append(report.OutOfStockProducts, brief)
		}

		stat := statsByCategory[p.Category]
		if stat == nil {
			stat = &domain.CategoryStat{Category: p.Category, TotalValue: decimal.Zero}
			statsByCategory[p.Category] = stat
		}
		stat.Count++
		stat.TotalStock += p.Stock
		stat.TotalValue = stat.TotalValue.Add(value)
	}

	sortProducts(report.Products, req.SortBy, req.OrderBy)

	report.CategoryStats = make([]domain.CategoryStat, 0, len(statsByCategory))
	for _, stat := range statsByCategory {
		report.CategoryStats = append(report.CategoryStats, *stat)
	}
	sort.Slice(report.CategoryStats, func(i, j int) bool {
		return report.CategoryStats[i].Category < report.CategoryStats[j].Category
	})

	report.Summary = domain.InventorySummary{
		TotalProducts:     len(report.Products),
		TotalValue:        totalValue,
		LowStockCount:     len(report.LowStockProducts),
		OutOfStockCount:   len(report.OutOfStockProducts),
		LowStockThreshold: threshold,
	}

	return report, nil
}

func (s *Service) Transactions(ctx context.Context, req domain.TransactionReportRequest) (*domain.TransactionReport, error) {
	businessID, ok := tenantctx.BusinessIDFromContext(ctx)
	if !ok || businessID == 0 {
		return nil, domain.ErrInvalidBusiness
	}

	kind := strings.TrimSpace(req.Kind)
	if kind != "" && !txdomain.ValidKind(kind) {
		return nil, domain.ErrInvalidKind
	}

	start, end, period, err := resolvePeriod(req)
	if err != nil {
		return nil, err
	}

	items, err := s.txnRepo.FindAll(ctx, s.db, businessID.Int64(), txdomain.ListFilter{
		Kind:      kind,
		StartDate: start,
		EndDate:   end,
	})
	if err != nil {
		return nil, err
	}

	summary := domain.TransactionReportSummary{
		TotalTransactions: len(items),
		TotalSales:        decimal.Zero,
		TotalPurchases:    decimal.Zero,
		Period:            period,
		DateRange:         domain.DateRange{StartDate: start, EndDate: end},
	}

	customerTotals := make(map[int64]*domain.PartyStat)
	vendorTotals := make(map[int64]*domain.PartyStat)
	for _, item := range items {
		switch item.Kind {
		case txdomain.KindSale:
			summary.SalesCount++
			summary.TotalSales = summary.TotalSales.Add(item.TotalAmount)
			if item.CustomerID != nil {
				accumulate(customerTotals, *item.CustomerID, item.TotalAmount)
			}
		case txdomain.KindPurchase:
			summary.PurchasesCount++
			summary.TotalPurchases = summary.TotalPurchases.Add(item.TotalAmount)
			if item.VendorID != nil {
				accumulate(vendorTotals, *item.VendorID, item.TotalAmount)
			}
		}
	}
	summary.NetProfit = summary.TotalSales.Sub(summary.TotalPurchases)

	topCustomers, err := s.topParties(ctx, businessID.Int64(), customerTotals)
	if err != nil {
		return nil, err
	}
	topVendors, err := s.topParties(ctx, businessID.Int64(), vendorTotals)
	if err != nil {
		return nil, err
	}

	return &domain.TransactionReport{
		Summary:      summary,
		TopCustomers: topCustomers,
		TopVendors:   topVendors,
	}, nil
}

func (s *Service) Dashboard(ctx context.Context) (*domain.DashboardSummary, error) {
	businessID, ok := tenantctx.BusinessIDFromContext(ctx)
	if !ok || businessID == 0 {
		return nil, domain.ErrInvalidBusiness
	}

	now := time.Now().UTC()
	startOfToday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	products, err := s.productRepo.FindAll(ctx, s.db, businessID.Int64())
	if err != nil {
		return nil, err
	}
	totalCustomers, err := s.contactRepo.CountByRole(ctx, s.db, businessID.Int64(), contactdomain.RoleCustomer)
	if err != nil {
		return nil, err
	}
	totalVendors, err := s.contactRepo.CountByRole(ctx, s.db, businessID.Int64(), contactdomain.RoleVendor)
	if err != nil {
		return nil, err
	}
	monthTxns, err := s.txnRepo.FindAll(ctx, s.db, businessID.Int64(), txdomain.ListFilter{StartDate: &startOfMonth})
	if err != nil {
		return nil, err
	}

	summary := &domain.DashboardSummary{
		Today:     zeroPeriodStat(),
		ThisMonth: zeroPeriodStat(),
	}
	summary.Alerts.LowStockProducts = []domain.ProductBrief{}

	lowStock := 0
	for i := range products {
		if products[i].Stock <= domain.DefaultLowStockThreshold {
			lowStock++
			summary.Alerts.LowStockProducts = append(summary.Alerts.LowStockProducts, productBrief(&products[i]))
		}
	}
	summary.Overview = domain.DashboardOverview{
		TotalProducts:  len(products),
		TotalCustomers: totalCustomers,
		TotalVendors:   totalVendors,
		LowStockCount:  lowStock,
	}

	for _, item := range monthTxns {
		applyToPeriod(&summary.ThisMonth, &item)
		if !item.OccurredAt.Before(startOfToday) {
			applyToPeriod(&summary.Today, &item)
		}
	}
	summary.Today.Profit = summary.Today.Sales.Sub(summary.Today.Purchases)
	summary.ThisMonth.Profit = summary.ThisMonth.Sales.Sub(summary.ThisMonth.Purchases)

	return summary, nil
}

func (s *Service) topParties(ctx context.Context, businessID int64, totals map[int64]*domain.PartyStat) ([]domain.PartyStat, error) {
	if len(totals) == 0 {
		return []domain.PartyStat{}, nil
	}

	ids := make([]int64, 0, len(totals))
	for id := range totals {
		ids = append(ids, id)
	}
	contacts, err := s.contactRepo.FindByIDs(ctx, s.db, businessID, ids)
	if err != nil {
		return nil, err
	}
	for i := range contacts {
		if stat := totals[contacts[i].ID]; stat != nil {
			stat.Name = contacts[i].Name
		}
	}

	stats := make([]domain.PartyStat, 0, len(totals))
	for id, stat := range totals {
		stat.ID = snowflake.ID(id).String()
		stats = append(stats, *stat)
	}
	sort.Slice(stats, func(i, j int) bool {
		return stats[i].TotalAmount.GreaterThan(stats[j].TotalAmount)
	})
	if len(stats) > 5 {
		stats = stats[:5]
	}
	return stats, nil
}

func resolvePeriod(req domain.TransactionReportRequest) (start, end *time.Time, period string, err error) {
	period = strings.TrimSpace(req.Period)
	if period == "" {
		return req.StartDate, req.EndDate, "custom", nil
	}

	now := time.Now().UTC()
	var from, to time.Time
	switch period {
	case domain.PeriodToday:
		from = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		to = from.AddDate(0, 0, 1)
	case domain.PeriodWeek:
		from = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).
			AddDate(0, 0, -int(now.Weekday()))
		to = from.AddDate(0, 0, 7)
	case domain.PeriodMonth:
		from = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		to = from.AddDate(0, 1, 0)
	case domain.PeriodYear:
		from = time.Date(now.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
		to = from.AddDate(1, 0, 0)
	default:
		return nil, nil, "", domain.ErrInvalidPeriod
	}
	return &from, &to, period, nil
}

func accumulate(totals map[int64]*domain.PartyStat, contactID int64, amount decimal.Decimal) {
	stat := totals[contactID]
	if stat == nil {
		stat = &domain.PartyStat{TotalAmount: decimal.Zero}
		totals[contactID] = stat
	}
	stat.TotalAmount = stat.TotalAmount.Add(amount)
	stat.TransactionCount++
}

func applyToPeriod(stat *domain.PeriodStat, item *txdomain.Transaction) {
	stat.TransactionCount++
	switch item.Kind {
	case txdomain.KindSale:
		stat.Sales = stat.Sales.Add(item.TotalAmount)
	case txdomain.KindPurchase:
		stat.Purchases = stat.Purchases.Add(item.TotalAmount)
	}
}

func zeroPeriodStat() domain.PeriodStat {
	return domain.PeriodStat{
		Sales:     decimal.Zero,
		Purchases: decimal.Zero,
		Profit:    decimal.Zero,
	}
}

func productBrief(p *productdomain.Product) domain.ProductBrief {
	return domain.ProductBrief{
		ID:       snowflake.ID(p.ID).String(),
		Name:     p.Name,
		Category: p.Category,
		Price:    p.Price,
		Stock:    p.Stock,
	}
}

func sortProducts(products []domain.ProductBrief, sortBy, orderBy string) {
	desc := strings.EqualFold(orderBy, "desc")
	sort.SliceStable(products, func(i, j int) bool {
		var less bool
		switch sortBy {
		case "price":
			less = products[i].Price.LessThan(products[j].Price)
		case "stock":
			less = products[i].Stock < products[j].Stock
		case "category":
			less = products[i].Category < products[j].Category
		default:
			less = products[i].Name < products[j].Name
		}
		if desc {
			return !less
		}
		return less
	})
}
