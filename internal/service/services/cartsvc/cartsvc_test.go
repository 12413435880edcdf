package cartsvc

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/corray333/backend-labs/coffeeshop/internal/dal/memory"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/errs"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/models/cart"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/models/menu"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/models/pricing"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/models/voucher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const email = "sari@example.com"

func ptr(s string) *string {
	return &s
}

func newFixture(t *testing.T) (*memory.Store, *CartService) {
	t.Helper()

	store := memory.NewStore()
	store.PutMenuItem(menu.MenuItem{MenuID: "C01", Name: "Latte", PriceMinor: 15000, Categories: []string{"coffee"}})
	store.PutMenuItem(menu.MenuItem{MenuID: "S01", Name: "Croissant", PriceMinor: 5000, Categories: []string{"snack"}})
	store.PutMenuItem(menu.MenuItem{MenuID: "B01", Name: "Bundle", PriceMinor: 10000, Categories: []string{"bundle"}})

	n := 0
	svc := MustNewCartService(
		WithUnitOfWork(store.Factory()),
		WithTaxRate(pricing.DefaultTaxRatePercent),
		WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("line-%d", n)
		}),
	)

	return store, svc
}

func TestAddItemMergesSameTriple(t *testing.T) {
	store, svc := newFixture(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, email, AddItemInput{MenuID: "C01", Quantity: 1, Option1: ptr("hot"), Option2: []string{"oat", "ice"}})
	require.NoError(t, err)
	line, err := svc.AddItem(ctx, email, AddItemInput{MenuID: "C01", Quantity: 2, Option1: ptr("hot"), Option2: []string{"ice", "oat"}})
	require.NoError(t, err)
	assert.Equal(t, int64(3), line.Quantity)

	_, err = svc.AddItem(ctx, email, AddItemInput{MenuID: "C01", Quantity: 1, Option1: ptr("iced")})
	require.NoError(t, err)

	stored := store.Cart(email)
	require.Len(t, stored.Lines, 2)
	assert.Equal(t, "line-1", stored.Lines[0].ItemID)
	assert.Equal(t, int64(3), stored.Lines[0].Quantity)
	assert.Equal(t, int64(3), stored.Version)
}

func TestAddItemRejects(t *testing.T) {
	store, svc := newFixture(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, email, AddItemInput{MenuID: "C01", Quantity: 0})
	assert.ErrorIs(t, err, errs.ErrValidation)

	_, err = svc.AddItem(ctx, email, AddItemInput{MenuID: "X99", Quantity: 1})
	assert.ErrorIs(t, err, errs.ErrNotFound)

	assert.Empty(t, store.Cart(email).Lines)
}

func TestAddItemSaveFailureLeavesCart(t *testing.T) {
	store, svc := newFixture(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, email, AddItemInput{MenuID: "C01", Quantity: 1})
	require.NoError(t, err)

	store.FailOn("cart.Save", errors.New("connection reset"))
	_, err = svc.AddItem(ctx, email, AddItemInput{MenuID: "S01", Quantity: 1})
	require.Error(t, err)

	stored := store.Cart(email)
	require.Len(t, stored.Lines, 1)
	assert.Equal(t, "C01", stored.Lines[0].MenuID)
}

func TestSetQuantityFirstMatch(t *testing.T) {
	store, svc := newFixture(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, email, AddItemInput{MenuID: "C01", Quantity: 1, Option1: ptr("hot")})
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, email, AddItemInput{MenuID: "C01", Quantity: 1, Option1: ptr("iced")})
	require.NoError(t, err)

	update, err := svc.SetQuantity(ctx, email, "C01", 3)
	require.NoError(t, err)

	assert.Equal(t, int64(15000), update.LinePrice)
	assert.Equal(t, int64(45000), update.LineTotal)
	assert.Equal(t, pricing.Breakdown{Subtotal: 60000, Tax: 6000, Total: 66000}, update.Breakdown)

	stored := store.Cart(email)
	assert.Equal(t, int64(3), stored.Lines[0].Quantity)
	assert.Equal(t, int64(1), stored.Lines[1].Quantity)

	_, err = svc.SetQuantity(ctx, email, "C01", 0)
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestRemoveItem(t *testing.T) {
	store, svc := newFixture(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, email, AddItemInput{MenuID: "C01", Quantity: 1})
	require.NoError(t, err)

	require.NoError(t, svc.RemoveItem(ctx, email, "line-1"))
	require.NoError(t, svc.RemoveItem(ctx, email, "line-1"))
	assert.Empty(t, store.Cart(email).Lines)
}

func TestViewSurfacesStaleLines(t *testing.T) {
	store, svc := newFixture(t)
	store.PutCart(cart.Cart{
		UserEmail: email,
		Lines: []cart.Line{
			{ItemID: "a", MenuID: "C01", Quantity: 2},
			{ItemID: "b", MenuID: "GONE", Quantity: 1},
			{ItemID: "c", MenuID: "S01", Quantity: 1},
		},
	})

	view, err := svc.View(context.Background(), email)
	require.NoError(t, err)

	require.Len(t, view.Lines, 3)
	assert.Empty(t, view.Lines[0].Error)
	assert.NotEmpty(t, view.Lines[1].Error)
	assert.Equal(t, pricing.Breakdown{Subtotal: 35000, Tax: 3500, Total: 38500}, view.Breakdown)
}

func TestViewEmptyCart(t *testing.T) {
	_, svc := newFixture(t)

	view, err := svc.View(context.Background(), email)
	require.NoError(t, err)
	assert.Empty(t, view.Lines)
	assert.Zero(t, view.Total)
}

func TestApplyVoucher(t *testing.T) {
	store, svc := newFixture(t)
	store.PutVoucher(voucher.Voucher{Code: "HEMAT", DiscountMinor: 1000, IsValid: true})
	store.PutVoucher(voucher.Voucher{Code: "EXPIRED", DiscountMinor: 1000, IsValid: false})
	ctx := context.Background()

	_, err := svc.AddItem(ctx, email, AddItemInput{MenuID: "B01", Quantity: 1})
	require.NoError(t, err)

	tests := []struct {
		name     string
		code     string
		applied  bool
		discount int64
		total    int64
		message  string
	}{
		{name: "valid", code: "HEMAT", applied: true, discount: 1000, total: 10000, message: pricing.MessageVoucherApplied},
		{name: "invalid flag", code: "EXPIRED", total: 11000, message: pricing.MessageVoucherInvalid},
		{name: "unknown", code: "NOPE", total: 11000, message: pricing.MessageVoucherInvalid},
		{name: "empty", code: "", total: 11000, message: pricing.MessageVoucherMissing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			preview, err := svc.ApplyVoucher(ctx, email, tt.code)
			require.NoError(t, err)
			assert.Equal(t, tt.applied, preview.Applied)
			assert.Equal(t, tt.discount, preview.Discount)
			assert.Equal(t, int64(1000), preview.Tax)
			assert.Equal(t, tt.total, preview.Total)
			assert.Equal(t, tt.message, preview.Message)
		})
	}

	assert.Equal(t, int64(1), store.Cart(email).Version)
}
