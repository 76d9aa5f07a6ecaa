package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/stockbook/internal/product/domain"
	"github.com/smallbiznis/stockbook/internal/product/repository"
	"github.com/smallbiznis/stockbook/internal/tenantctx"
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
	require.NoError(t, conn.AutoMigrate(&domain.Product{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := New(Params{
		DB:    conn,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.Provide(),
	})
	return svc, conn, node
}

func createProduct(t *testing.T, svc domain.Service, ctx context.Context, name string, stock int64) *domain.Response {
	t.Helper()

	resp, err := svc.Create(ctx, domain.CreateRequest{
		Name:     name,
		Price:    decimal.RequireFromString("9.99"),
		Stock:    stock,
		Category: "general",
	})
	require.NoError(t, err)
	return resp
}

func TestCreate_Validation(t *testing.T) {
	svc, _, node := setupService(t)
	ctx := tenantctx.WithBusinessID(context.Background(), node.Generate().Int64())

	_, err := svc.Create(ctx, domain.CreateRequest{Price: decimal.Zero, Category: "general"})
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	_, err = svc.Create(ctx, domain.CreateRequest{Name: "Widget", Price: decimal.Zero})
	assert.ErrorIs(t, err, domain.ErrInvalidCategory)

	_, err = svc.Create(ctx, domain.CreateRequest{
		Name: "Widget", Category: "general",
		Price: decimal.RequireFromString("-1"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidPrice)

	_, err = svc.Create(ctx, domain.CreateRequest{
		Name: "Widget", Category: "general",
		Price: decimal.Zero, Stock: -1,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidStock)

	_, err = svc.Create(context.Background(), domain.CreateRequest{
		Name: "Widget", Category: "general", Price: decimal.Zero,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidBusiness)
}

func TestAdjustStock_AddAndRemove(t *testing.T) {
	svc, _, node := setupService(t)
	ctx := tenantctx.WithBusinessID(context.Background(), node.Generate().Int64())

	created := createProduct(t, svc, ctx, "Widget", 10)

	resp, err := svc.AdjustStock(ctx, domain.AdjustStockRequest{
		ID:        created.ID,
		Operation: domain.StockOperationAdd,
		Quantity:  15,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(25), resp.Stock)

	resp, err = svc.AdjustStock(ctx, domain.AdjustStockRequest{
		ID:        created.ID,
		Operation: domain.StockOperationRemove,
		Quantity:  25,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), resp.Stock)
}

func TestAdjustStock_RemoveBelowZero(t *testing.T) {
	svc, _, node := setupService(t)
	ctx := tenantctx.WithBusinessID(context.Background(), node.Generate().Int64())

	created := createProduct(t, svc, ctx, "Widget", 4)

	_, err := svc.AdjustStock(ctx, domain.AdjustStockRequest{
		ID:        created.ID,
		Operation: domain.StockOperationRemove,
		Quantity:  5,
	})

	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, created.ID, stockErr.ProductID.String())
	assert.Equal(t, int64(4), stockErr.Available)
	assert.Equal(t, int64(5), stockErr.Required)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), got.Stock)
}

func TestAdjustStock_InvalidInput(t *testing.T) {
	svc, _, node := setupService(t)
	ctx := tenantctx.WithBusinessID(context.Background(), node.Generate().Int64())

	created := createProduct(t, svc, ctx, "Widget", 4)

	_, err := svc.AdjustStock(ctx, domain.AdjustStockRequest{
		ID: created.ID, Operation: "set", Quantity: 1,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidOperation)

	_, err = svc.AdjustStock(ctx, domain.AdjustStockRequest{
		ID: created.ID, Operation: domain.StockOperationAdd, Quantity: 0,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, err = svc.AdjustStock(ctx, domain.AdjustStockRequest{
		ID: "not-an-id", Operation: domain.StockOperationAdd, Quantity: 1,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidID)
}

func TestGet_TenantIsolation(t *testing.T) {
	svc, _, node := setupService(t)
	ctx := tenantctx.WithBusinessID(context.Background(), node.Generate().Int64())
	otherCtx := tenantctx.WithBusinessID(context.Background(), node.Generate().Int64())

	created := createProduct(t, svc, ctx, "Widget", 10)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Widget", got.Name)

	_, err = svc.Get(otherCtx, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestList_SearchAndCategory(t *testing.T) {
	svc, _, node := setupService(t)
	ctx := tenantctx.WithBusinessID(context.Background(), node.Generate().Int64())

	_, err := svc.Create(ctx, domain.CreateRequest{
		Name: "Blue Widget", Price: decimal.Zero, Stock: 1, Category: "widgets",
	})
	require.NoError(t, err)
	_, err = svc.Create(ctx, domain.CreateRequest{
		Name: "Red Gadget", Price: decimal.Zero, Stock: 1, Category: "gadgets",
	})
	require.NoError(t, err)

	items, pageInfo, err := svc.List(ctx, domain.ListRequest{Search: "blue"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Blue Widget", items[0].Name)
	assert.Equal(t, int64(1), pageInfo.TotalItems)

	items, _, err = svc.List(ctx, domain.ListRequest{Category: "gadgets"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Red Gadget", items[0].Name)
}

func TestUpdate_PartialFields(t *testing.T) {
	svc, _, node := setupService(t)
	ctx := tenantctx.WithBusinessID(context.Background(), node.Generate().Int64())

	created := createProduct(t, svc, ctx, "Widget", 10)

	name := "Widget Mk II"
	price := decimal.RequireFromString("19.99")
	updated, err := svc.Update(ctx, domain.UpdateRequest{
		ID:    created.ID,
		Name:  &name,
		Price: &price,
	})
	require.NoError(t, err)
	assert.Equal(t, "Widget Mk II", updated.Name)
	assert.True(t, updated.Price.Equal(price))
	assert.Equal(t, created.Category, updated.Category)
	assert.Equal(t, int64(10), updated.Stock)
}
