package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	contactdomain "github.com/smallbiznis/stockbook/internal/contact/domain"
	contactrepository "github.com/smallbiznis/stockbook/internal/contact/repository"
	productdomain "github.com/smallbiznis/stockbook/internal/product/domain"
	productrepository "github.com/smallbiznis/stockbook/internal/product/repository"
	"github.com/smallbiznis/stockbook/internal/tenantctx"
	"github.com/smallbiznis/stockbook/internal/transaction/domain"
	"github.com/smallbiznis/stockbook/internal/transaction/repository"
	"github.com/smallbiznis/stockbook/pkg/db/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func mustNode(t *testing.T) *snowflake.Node {
	t.Helper()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	return node
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_loc=auto", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	_ = conn.Exec("PRAGMA busy_timeout = 5000").Error

	require.NoError(t, conn.AutoMigrate(
		&productdomain.Product{},
		&contactdomain.Contact{},
		&domain.Transaction{},
		&domain.TransactionLine{},
	))
	return conn
}

func setupService(t *testing.T) (domain.Service, *gorm.DB, *snowflake.Node) {
	t.Helper()

	conn := openTestDB(t)
	node := mustNode(t)
	svc := New(Params{
		DB:          conn,
		Log:         zap.NewNop(),
		GenID:       node,
		Repo:        repository.Provide(),
		ProductRepo: productrepository.Provide(),
		ContactRepo: contactrepository.Provide(),
	})
	return svc, conn, node
}

func seedProduct(t *testing.T, conn *gorm.DB, node *snowflake.Node, businessID int64, name string, price string, stock int64) *productdomain.Product {
	t.Helper()

	p := &productdomain.Product{
		ID:         node.Generate().Int64(),
		BusinessID: businessID,
		Name:       name,
		Price:      decimal.RequireFromString(price),
		Stock:      stock,
		Category:   "general",
		CreatedAt:  time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
	}
	require.NoError(t, conn.Create(p).Error)
	return p
}

func seedContact(t *testing.T, conn *gorm.DB, node *snowflake.Node, businessID int64, name, role string) *contactdomain.Contact {
	t.Helper()

	c := &contactdomain.Contact{
		ID:         node.Generate().Int64(),
		BusinessID: businessID,
		Name:       name,
		Phone:      "555-0100",
		Role:       role,
		CreatedAt:  time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
	}
	require.NoError(t, conn.Create(c).Error)
	return c
}

func currentStock(t *testing.T, conn *gorm.DB, productID int64) int64 {
	t.Helper()

	var stock int64
	require.NoError(t, conn.Table("products").Select("stock").Where("id = ?", productID).Scan(&stock).Error)
	return stock
}

func countRows(t *testing.T, conn *gorm.DB, table string) int64 {
	t.Helper()

	var n int64
	require.NoError(t, conn.Table(table).Count(&n).Error)
	return n
}

func strptr(s string) *string { return &s }

func TestCreateSale_CommitsRecordAndStockTogether(t *testing.T) {
	svc, conn, node := setupService(t)
	businessID := node.Generate().Int64()
	ctx := tenantctx.WithBusinessID(context.Background(), businessID)

	widget := seedProduct(t, conn, node, businessID, "Widget", "10.00", 20)
	gadget := seedProduct(t, conn, node, businessID, "Gadget", "3.50", 5)
	customer := seedContact(t, conn, node, businessID, "Alice", contactdomain.RoleCustomer)

	resp, err := svc.Create(ctx, domain.CreateRequest{
		Kind:       domain.KindSale,
		CustomerID: strptr(snowflake.ID(customer.ID).String()),
		LineItems: []domain.LineItemRequest{
			{ProductID: snowflake.ID(widget.ID).String(), Quantity: 4, UnitPrice: decimal.RequireFromString("10.00")},
			{ProductID: snowflake.ID(gadget.ID).String(), Quantity: 2, UnitPrice: decimal.RequireFromString("3.50")},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, resp)

	assert.Equal(t, domain.KindSale, resp.Kind)
	assert.True(t, resp.TotalAmount.Equal(decimal.RequireFromString("47.00")), "total %s", resp.TotalAmount)
	require.NotNil(t, resp.Customer)
	assert.Equal(t, "Alice", resp.Customer.Name)
	require.Len(t, resp.LineItems, 2)
	require.NotNil(t, resp.LineItems[0].Product)
	assert.Equal(t, "Widget", resp.LineItems[0].Product.Name)

	assert.Equal(t, int64(16), currentStock(t, conn, widget.ID))
	assert.Equal(t, int64(3), currentStock(t, conn, gadget.ID))
	assert.Equal(t, int64(1), countRows(t, conn, "transactions"))
	assert.Equal(t, int64(2), countRows(t, conn, "transaction_lines"))
}

func TestCreateSale_AggregatesQuantitiesAcrossLines(t *testing.T) {
	svc, conn, node := setupService(t)
	businessID := node.Generate().Int64()
	ctx := tenantctx.WithBusinessID(context.Background(), businessID)

	widget := seedProduct(t, conn, node, businessID, "Widget", "10.00", 5)
	customer := seedContact(t, conn, node, businessID, "Alice", contactdomain.RoleCustomer)

	// Each line passes alone; their sum must be checked against stock.
	_, err := svc.Create(ctx, domain.CreateRequest{
		Kind:       domain.KindSale,
		CustomerID: strptr(snowflake.ID(customer.ID).String()),
		LineItems: []domain.LineItemRequest{
			{ProductID: snowflake.ID(widget.ID).String(), Quantity: 3, UnitPrice: decimal.RequireFromString("10.00")},
			{ProductID: snowflake.ID(widget.ID).String(), Quantity: 3, UnitPrice: decimal.RequireFromString("10.00")},
		},
	})

	var stockErr *productdomain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, widget.ID, stockErr.ProductID.Int64())
	assert.Equal(t, "Widget", stockErr.Name)
	assert.Equal(t, int64(5), stockErr.Available)
	assert.Equal(t, int64(6), stockErr.Required)

	assert.Equal(t, int64(5), currentStock(t, conn, widget.ID))
	assert.Equal(t, int64(0), countRows(t, conn, "transactions"))
	assert.Equal(t, int64(0), countRows(t, conn, "transaction_lines"))
}

func TestCreateSale_RejectsWrongRoleContact(t *testing.T) {
	svc, conn, node := setupService(t)
	businessID := node.Generate().Int64()
	ctx := tenantctx.WithBusinessID(context.Background(), businessID)

	widget := seedProduct(t, conn, node, businessID, "Widget", "10.00", 20)
	vendor := seedContact(t, conn, node, businessID, "Supply Co", contactdomain.RoleVendor)

	_, err := svc.Create(ctx, domain.CreateRequest{
		Kind:       domain.KindSale,
		CustomerID: strptr(snowflake.ID(vendor.ID).String()),
		LineItems: []domain.LineItemRequest{
			{ProductID: snowflake.ID(widget.ID).String(), Quantity: 1, UnitPrice: decimal.RequireFromString("10.00")},
		},
	})
	assert.ErrorIs(t, err, domain.ErrContactNotFound)
}

func TestCreateSale_ContactReferenceShape(t *testing.T) {
	svc, conn, node := setupService(t)
	businessID := node.Generate().Int64()
	ctx := tenantctx.WithBusinessID(context.Background(), businessID)

	widget := seedProduct(t, conn, node, businessID, "Widget", "10.00", 20)
	customer := seedContact(t, conn, node, businessID, "Alice", contactdomain.RoleCustomer)
	vendor := seedContact(t, conn, node, businessID, "Supply Co", contactdomain.RoleVendor)
	lines := []domain.LineItemRequest{
		{ProductID: snowflake.ID(widget.ID).String(), Quantity: 1, UnitPrice: decimal.RequireFromString("10.00")},
	}

	_, err := svc.Create(ctx, domain.CreateRequest{Kind: domain.KindSale, LineItems: lines})
	assert.ErrorIs(t, err, domain.ErrMissingCustomer)

	_, err = svc.Create(ctx, domain.CreateRequest{Kind: domain.KindPurchase, LineItems: lines})
	assert.ErrorIs(t, err, domain.ErrMissingVendor)

	_, err = svc.Create(ctx, domain.CreateRequest{
		Kind:       domain.KindSale,
		CustomerID: strptr(snowflake.ID(customer.ID).String()),
		VendorID:   strptr(snowflake.ID(vendor.ID).String()),
		LineItems:  lines,
	})
	assert.ErrorIs(t, err, domain.ErrContactMismatch)

	_, err = svc.Create(ctx, domain.CreateRequest{
		Kind:       "transfer",
		CustomerID: strptr(snowflake.ID(customer.ID).String()),
		LineItems:  lines,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidKind)

	_, err = svc.Create(ctx, domain.CreateRequest{
		Kind:       domain.KindSale,
		CustomerID: strptr(snowflake.ID(customer.ID).String()),
	})
	assert.ErrorIs(t, err, domain.ErrEmptyLineItems)
}

func TestCreate_RejectsCrossTenantProduct(t *testing.T) {
	svc, conn, node := setupService(t)
	businessID := node.Generate().Int64()
	otherBusinessID := node.Generate().Int64()
	ctx := tenantctx.WithBusinessID(context.Background(), businessID)

	foreign := seedProduct(t, conn, node, otherBusinessID, "Foreign", "10.00", 20)
	customer := seedContact(t, conn, node, businessID, "Alice", contactdomain.RoleCustomer)

	_, err := svc.Create(ctx, domain.CreateRequest{
		Kind:       domain.KindSale,
		CustomerID: strptr(snowflake.ID(customer.ID).String()),
		LineItems: []domain.LineItemRequest{
			{ProductID: snowflake.ID(foreign.ID).String(), Quantity: 1, UnitPrice: decimal.RequireFromString("10.00")},
		},
	})
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
	assert.Equal(t, int64(20), currentStock(t, conn, foreign.ID))
	assert.Equal(t, int64(0), countRows(t, conn, "transactions"))
}

func TestCreatePurchase_IncrementsStock(t *testing.T) {
	svc, conn, node := setupService(t)
	businessID := node.Generate().Int64()
	ctx := tenantctx.WithBusinessID(context.Background(), businessID)

	widget := seedProduct(t, conn, node, businessID, "Widget", "10.00", 2)
	vendor := seedContact(t, conn, node, businessID, "Supply Co", contactdomain.RoleVendor)

	resp, err := svc.Create(ctx, domain.CreateRequest{
		Kind:     domain.KindPurchase,
		VendorID: strptr(snowflake.ID(vendor.ID).String()),
		LineItems: []domain.LineItemRequest{
			{ProductID: snowflake.ID(widget.ID).String(), Quantity: 30, UnitPrice: decimal.RequireFromString("4.25")},
		},
	})
	require.NoError(t, err)

	require.NotNil(t, resp.Vendor)
	assert.Equal(t, "Supply Co", resp.Vendor.Name)
	assert.True(t, resp.TotalAmount.Equal(decimal.RequireFromString("127.50")))
	assert.Equal(t, int64(32), currentStock(t, conn, widget.ID))
}

func TestCreateSale_ConcurrentOversellStopsAtZero(t *testing.T) {
	svc, conn, node := setupService(t)
	businessID := node.Generate().Int64()
	ctx := tenantctx.WithBusinessID(context.Background(), businessID)

	const stock = 5
	const attempts = 8

	widget := seedProduct(t, conn, node, businessID, "Widget", "10.00", stock)
	customer := seedContact(t, conn, node, businessID, "Alice", contactdomain.RoleCustomer)

	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Create(ctx, domain.CreateRequest{
				Kind:       domain.KindSale,
				CustomerID: strptr(snowflake.ID(customer.ID).String()),
				LineItems: []domain.LineItemRequest{
					{ProductID: snowflake.ID(widget.ID).String(), Quantity: 1, UnitPrice: decimal.RequireFromString("10.00")},
				},
			})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var committed, rejected int
	for err := range results {
		if err == nil {
			committed++
			continue
		}
		var stockErr *productdomain.InsufficientStockError
		require.True(t, errors.As(err, &stockErr), "unexpected error: %v", err)
		rejected++
	}

	assert.Equal(t, stock, committed)
	assert.Equal(t, attempts-stock, rejected)
	assert.Equal(t, int64(0), currentStock(t, conn, widget.ID))
	assert.Equal(t, int64(stock), countRows(t, conn, "transactions"))
}

func TestGet_TenantIsolation(t *testing.T) {
	svc, conn, node := setupService(t)
	businessID := node.Generate().Int64()
	otherBusinessID := node.Generate().Int64()
	ctx := tenantctx.WithBusinessID(context.Background(), businessID)

	widget := seedProduct(t, conn, node, businessID, "Widget", "10.00", 20)
	customer := seedContact(t, conn, node, businessID, "Alice", contactdomain.RoleCustomer)

	resp, err := svc.Create(ctx, domain.CreateRequest{
		Kind:       domain.KindSale,
		CustomerID: strptr(snowflake.ID(customer.ID).String()),
		LineItems: []domain.LineItemRequest{
			{ProductID: snowflake.ID(widget.ID).String(), Quantity: 1, UnitPrice: decimal.RequireFromString("10.00")},
		},
	})
	require.NoError(t, err)

	got, err := svc.Get(ctx, resp.ID)
	require.NoError(t, err)
	assert.Equal(t, resp.ID, got.ID)

	otherCtx := tenantctx.WithBusinessID(context.Background(), otherBusinessID)
	_, err = svc.Get(otherCtx, resp.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListByContact_FiltersByRoleColumn(t *testing.T) {
	svc, conn, node := setupService(t)
	businessID := node.Generate().Int64()
	ctx := tenantctx.WithBusinessID(context.Background(), businessID)

	widget := seedProduct(t, conn, node, businessID, "Widget", "10.00", 100)
	alice := seedContact(t, conn, node, businessID, "Alice", contactdomain.RoleCustomer)
	bob := seedContact(t, conn, node, businessID, "Bob", contactdomain.RoleCustomer)

	for _, customer := range []*contactdomain.Contact{alice, alice, bob} {
		_, err := svc.Create(ctx, domain.CreateRequest{
			Kind:       domain.KindSale,
			CustomerID: strptr(snowflake.ID(customer.ID).String()),
			LineItems: []domain.LineItemRequest{
				{ProductID: snowflake.ID(widget.ID).String(), Quantity: 1, UnitPrice: decimal.RequireFromString("10.00")},
			},
		})
		require.NoError(t, err)
	}

	resp, err := svc.ListByContact(ctx, snowflake.ID(alice.ID).String(), pagination.Pagination{})
	require.NoError(t, err)
	assert.Equal(t, "Alice", resp.Contact.Name)
	assert.Equal(t, contactdomain.RoleCustomer, resp.Role)
	assert.Len(t, resp.Transactions, 2)
	assert.Equal(t, int64(2), resp.PageInfo.TotalItems)
}

func TestList_FiltersByKindAndDate(t *testing.T) {
	svc, conn, node := setupService(t)
	businessID := node.Generate().Int64()
	ctx := tenantctx.WithBusinessID(context.Background(), businessID)

	widget := seedProduct(t, conn, node, businessID, "Widget", "10.00", 100)
	customer := seedContact(t, conn, node, businessID, "Alice", contactdomain.RoleCustomer)
	vendor := seedContact(t, conn, node, businessID, "Supply Co", contactdomain.RoleVendor)

	old := time.Now().UTC().AddDate(0, -2, 0)
	_, err := svc.Create(ctx, domain.CreateRequest{
		Kind:       domain.KindSale,
		CustomerID: strptr(snowflake.ID(customer.ID).String()),
		OccurredAt: &old,
		LineItems: []domain.LineItemRequest{
			{ProductID: snowflake.ID(widget.ID).String(), Quantity: 1, UnitPrice: decimal.RequireFromString("10.00")},
		},
	})
	require.NoError(t, err)

	_, err = svc.Create(ctx, domain.CreateRequest{
		Kind:     domain.KindPurchase,
		VendorID: strptr(snowflake.ID(vendor.ID).String()),
		LineItems: []domain.LineItemRequest{
			{ProductID: snowflake.ID(widget.ID).String(), Quantity: 5, UnitPrice: decimal.RequireFromString("4.00")},
		},
	})
	require.NoError(t, err)

	sales, _, err := svc.List(ctx, domain.ListRequest{Kind: domain.KindSale})
	require.NoError(t, err)
	assert.Len(t, sales, 1)

	since := time.Now().UTC().AddDate(0, -1, 0)
	recent, _, err := svc.List(ctx, domain.ListRequest{StartDate: &since})
	require.NoError(t, err)
	assert.Len(t, recent, 1)
	assert.Equal(t, domain.KindPurchase, recent[0].Kind)

	_, _, err = svc.List(ctx, domain.ListRequest{Kind: "transfer"})
	assert.ErrorIs(t, err, domain.ErrInvalidKind)
}
