package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	contactdomain "github.com/smallbiznis/stockbook/internal/contact/domain"
	contactrepository "github.com/smallbiznis/stockbook/internal/contact/repository"
	productdomain "github.com/smallbiznis/stockbook/internal/product/domain"
	productrepository "github.com/smallbiznis/stockbook/internal/product/repository"
	"github.com/smallbiznis/stockbook/internal/report/domain"
	"github.com/smallbiznis/stockbook/internal/tenantctx"
	txdomain "github.com/smallbiznis/stockbook/internal/transaction/domain"
	txrepository "github.com/smallbiznis/stockbook/internal/transaction/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupService(t *testing.T) (domain.Service, *gorm.DB, *snowflake.Node) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_loc=auto", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	require.NoError(t, conn.AutoMigrate(
		&productdomain.Product{},
		&contactdomain.Contact{},
		&txdomain.Transaction{},
		&txdomain.TransactionLine{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := New(Params{
		DB:          conn,
		Log:         zap.NewNop(),
		ProductRepo: productrepository.Provide(),
		ContactRepo: contactrepository.Provide(),
		TxnRepo:     txrepository.Provide(),
	})
	return svc, conn, node
}

func seedProduct(t *testing.T, conn *gorm.DB, node *snowflake.Node, businessID int64, name, category, price string, stock int64) {
	t.Helper()

	require.NoError(t, conn.Create(&productdomain.Product{
		ID:         node.Generate().Int64(),
		BusinessID: businessID,
		Name:       name,
		Price:      decimal.RequireFromString(price),
		Stock:      stock,
		Category:   category,
		CreatedAt:  time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
	}).Error)
}

func seedContact(t *testing.T, conn *gorm.DB, node *snowflake.Node, businessID int64, name, role string) int64 {
	t.Helper()

	id := node.Generate().Int64()
	require.NoError(t, conn.Create(&contactdomain.Contact{
		ID:         id,
		BusinessID: businessID,
		Name:       name,
		Phone:      "555-0100",
		Role:       role,
		CreatedAt:  time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
	}).Error)
	return id
}

func seedTransaction(t *testing.T, conn *gorm.DB, node *snowflake.Node, businessID int64, kind string, contactID int64, amount string, occurredAt time.Time) {
	t.Helper()

	txn := &txdomain.Transaction{
		ID:          node.Generate().Int64(),
		BusinessID:  businessID,
		Kind:        kind,
		TotalAmount: decimal.RequireFromString(amount),
		OccurredAt:  occurredAt,
		CreatedAt:   occurredAt,
		UpdatedAt:   occurredAt,
	}
	if kind == txdomain.KindSale {
		txn.CustomerID = &contactID
	} else {
		txn.VendorID = &contactID
	}
	require.NoError(t, conn.Create(txn).Error)
}

func TestInventoryReport(t *testing.T) {
	svc, conn, node := setupService(t)
	businessID := node.Generate().Int64()
	ctx := tenantctx.WithBusinessID(context.Background(), businessID)

	seedProduct(t, conn, node, businessID, "Widget", "widgets", "10.00", 50)
	seedProduct(t, conn, node, businessID, "Gadget", "gadgets", "5.00", 3)
	seedProduct(t, conn, node, businessID, "Gizmo", "gadgets", "2.00", 0)
	seedProduct(t, conn, node, node.Generate().Int64(), "Foreign", "widgets", "1.00", 100)

	report, err := svc.Inventory(ctx, domain.InventoryRequest{})
	require.NoError(t, err)

	assert.Equal(t, 3, report.Summary.TotalProducts)
	// 50*10 + 3*5 + 0*2
	assert.True(t, report.Summary.TotalValue.Equal(decimal.RequireFromString("515.00")), "total %s", report.Summary.TotalValue)
	assert.Equal(t, 2, report.Summary.LowStockCount)
	assert.Equal(t, 1, report.Summary.OutOfStockCount)
	assert.Equal(t, int64(domain.DefaultLowStockThreshold), report.Summary.LowStockThreshold)

	require.Len(t, report.CategoryStats, 2)
	assert.Equal(t, "gadgets", report.CategoryStats[0].Category)
	assert.Equal(t, 2, report.CategoryStats[0].Count)
	assert.Equal(t, int64(3), report.CategoryStats[0].TotalStock)
}

func TestInventoryReport_CategoryFilterAndThreshold(t *testing.T) {
	svc, conn, node := setupService(t)
	businessID := node.Generate().Int64()
	ctx := tenantctx.WithBusinessID(context.Background(), businessID)

	seedProduct(t, conn, node, businessID, "Widget", "widgets", "10.00", 50)
	seedProduct(t, conn, node, businessID, "Gadget", "gadgets", "5.00", 40)

	report, err := svc.Inventory(ctx, domain.InventoryRequest{
		Category:          "widgets",
		LowStockThreshold: 60,
	})
	require.NoError(t, err)
	require.Len(t, report.Products, 1)
	assert.Equal(t, "Widget", report.Products[0].Name)
	assert.Equal(t, 1, report.Summary.LowStockCount)
}

func TestTransactionReport(t *testing.T) {
	svc, conn, node := setupService(t)
	businessID := node.Generate().Int64()
	ctx := tenantctx.WithBusinessID(context.Background(), businessID)

	alice := seedContact(t, conn, node, businessID, "Alice", contactdomain.RoleCustomer)
	bob := seedContact(t, conn, node, businessID, "Bob", contactdomain.RoleCustomer)
	supplier := seedContact(t, conn, node, businessID, "Supply Co", contactdomain.RoleVendor)

	now := time.Now().UTC()
	seedTransaction(t, conn, node, businessID, txdomain.KindSale, alice, "100.00", now)
	seedTransaction(t, conn, node, businessID, txdomain.KindSale, alice, "50.00", now)
	seedTransaction(t, conn, node, businessID, txdomain.KindSale, bob, "200.00", now)
	seedTransaction(t, conn, node, businessID, txdomain.KindPurchase, supplier, "120.00", now)

	report, err := svc.Transactions(ctx, domain.TransactionReportRequest{Period: domain.PeriodMonth})
	require.NoError(t, err)

	assert.Equal(t, 4, report.Summary.TotalTransactions)
	assert.Equal(t, 3, report.Summary.SalesCount)
	assert.Equal(t, 1, report.Summary.PurchasesCount)
	assert.True(t, report.Summary.TotalSales.Equal(decimal.RequireFromString("350.00")))
	assert.True(t, report.Summary.TotalPurchases.Equal(decimal.RequireFromString("120.00")))
	assert.True(t, report.Summary.NetProfit.Equal(decimal.RequireFromString("230.00")))

	require.Len(t, report.TopCustomers, 2)
	assert.Equal(t, "Bob", report.TopCustomers[0].Name)
	assert.True(t, report.TopCustomers[0].TotalAmount.Equal(decimal.RequireFromString("200.00")))
	assert.Equal(t, 2, report.TopCustomers[1].TransactionCount)

	require.Len(t, report.TopVendors, 1)
	assert.Equal(t, "Supply Co", report.TopVendors[0].Name)
}

func TestTransactionReport_InvalidInput(t *testing.T) {
	svc, _, node := setupService(t)
	ctx := tenantctx.WithBusinessID(context.Background(), node.Generate().Int64())

	_, err := svc.Transactions(ctx, domain.TransactionReportRequest{Period: "quarter"})
	assert.ErrorIs(t, err, domain.ErrInvalidPeriod)

	_, err = svc.Transactions(ctx, domain.TransactionReportRequest{Kind: "transfer"})
	assert.ErrorIs(t, err, domain.ErrInvalidKind)
}

func TestDashboard(t *testing.T) {
	svc, conn, node := setupService(t)
	businessID := node.Generate().Int64()
	ctx := tenantctx.WithBusinessID(context.Background(), businessID)

	seedProduct(t, conn, node, businessID, "Widget", "widgets", "10.00", 50)
	seedProduct(t, conn, node, businessID, "Gadget", "gadgets", "5.00", 2)
	alice := seedContact(t, conn, node, businessID, "Alice", contactdomain.RoleCustomer)
	supplier := seedContact(t, conn, node, businessID, "Supply Co", contactdomain.RoleVendor)

	now := time.Now().UTC()
	seedTransaction(t, conn, node, businessID, txdomain.KindSale, alice, "100.00", now)
	seedTransaction(t, conn, node, businessID, txdomain.KindPurchase, supplier, "40.00", now)

	summary, err := svc.Dashboard(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Overview.TotalProducts)
	assert.Equal(t, int64(1), summary.Overview.TotalCustomers)
	assert.Equal(t, int64(1), summary.Overview.TotalVendors)
	assert.Equal(t, 1, summary.Overview.LowStockCount)
	require.Len(t, summary.Alerts.LowStockProducts, 1)
	assert.Equal(t, "Gadget", summary.Alerts.LowStockProducts[0].Name)

	assert.Equal(t, 2, summary.Today.TransactionCount)
	assert.True(t, summary.Today.Sales.Equal(decimal.RequireFromString("100.00")))
	assert.True(t, summary.Today.Profit.Equal(decimal.RequireFromString("60.00")))
	assert.Equal(t, 2, summary.ThisMonth.TransactionCount)
}
