package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alturino/storefront/cart/request"
	"github.com/Alturino/storefront/internal/config"
	inErrors "github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/internal/repository"
	"github.com/Alturino/storefront/internal/session"
	"github.com/Alturino/storefront/internal/testutil"
)

type fixture struct {
	c           context.Context
	env         *testutil.Env
	svc         *CartService
	store       *session.Store
	productA    repository.Product
	productB    repository.Product
	unavailable repository.Product
}

func setup(t *testing.T) fixture {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	c := testutil.Context()
	env := testutil.Setup(t, c)

	category := testutil.SeedCategory(t, c, env.Queries, 0, "rings")
	store := session.NewStore(env.Cache, config.Session{CookieName: "sessionid", TTL: time.Hour})
	return fixture{
		c:           c,
		env:         env,
		svc:         NewCartService(env.Pool, env.Queries, store),
		store:       store,
		productA:    testutil.SeedProduct(t, c, env.Queries, testutil.ProductSeed{CategoryID: category.ID, Slug: "a", Price: "10.00"}),
		productB:    testutil.SeedProduct(t, c, env.Queries, testutil.ProductSeed{CategoryID: category.ID, Slug: "b", Price: "5.00"}),
		unavailable: testutil.SeedProduct(t, c, env.Queries, testutil.ProductSeed{CategoryID: category.ID, Slug: "c", Price: "1.00", Unavailable: true}),
	}
}

func anonymous() session.RequestContext {
	return session.RequestContext{Session: session.New()}
}

func owned(userID uuid.UUID) session.RequestContext {
	return session.RequestContext{
		Principal: uuid.NullUUID{UUID: userID, Valid: true},
		Session:   session.New(),
	}
}

func TestResolveCart(t *testing.T) {
	f := setup(t)

	t.Run("anonymous cart is created once and reused", func(t *testing.T) {
		rc := anonymous()
		first, created, err := f.svc.ResolveCart(f.c, rc)
		require.NoError(t, err)
		assert.True(t, created)
		assert.False(t, first.UserID.Valid)
		assert.Equal(t, first.ID, rc.Session.CartID)

		second, created, err := f.svc.ResolveCart(f.c, rc)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, first.ID, second.ID)
	})

	t.Run("session pointing at a user cart gets a new anonymous cart", func(t *testing.T) {
		user := testutil.SeedUser(t, f.c, f.env.Queries, "owner@example.com")
		userCart, _, err := f.svc.ResolveCart(f.c, owned(user.ID))
		require.NoError(t, err)

		rc := anonymous()
		rc.Session.SetCartID(userCart.ID)
		cart, created, err := f.svc.ResolveCart(f.c, rc)
		require.NoError(t, err)
		assert.True(t, created)
		assert.NotEqual(t, userCart.ID, cart.ID)
	})

	t.Run("concurrent user resolves share one cart", func(t *testing.T) {
		user := testutil.SeedUser(t, f.c, f.env.Queries, "race@example.com")

		const workers = 8
		ids := make([]int64, workers)
		errs := make([]error, workers)
		var wg sync.WaitGroup
		for i := range workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				cart, _, err := f.svc.ResolveCart(f.c, owned(user.ID))
				ids[i], errs[i] = cart.ID, err
			}()
		}
		wg.Wait()

		for i := range workers {
			require.NoError(t, errs[i])
			assert.Equal(t, ids[0], ids[i])
		}
	})
}

func TestCartMutations(t *testing.T) {
	f := setup(t)
	cart, _, err := f.svc.ResolveCart(f.c, anonymous())
	require.NoError(t, err)

	t.Run("adding the same product twice sums quantities", func(t *testing.T) {
		_, err := f.svc.AddItem(f.c, cart.ID, f.productA.ID, 2)
		require.NoError(t, err)
		actual, err := f.svc.AddItem(f.c, cart.ID, f.productA.ID, 3)
		require.NoError(t, err)

		require.Len(t, actual.Items, 1)
		assert.Equal(t, int32(5), actual.Items[0].Quantity)
	})

	t.Run("total is quantity times live price", func(t *testing.T) {
		_, err := f.svc.UpdateQuantity(f.c, cart.ID, f.productA.ID, 2)
		require.NoError(t, err)
		actual, err := f.svc.AddItem(f.c, cart.ID, f.productB.ID, 1)
		require.NoError(t, err)

		assert.True(t, decimal.RequireFromString("25.00").Equal(actual.TotalPrice()))
		assert.Equal(t, 3, actual.ItemCount())
	})

	t.Run("price change is reflected on read", func(t *testing.T) {
		require.NoError(t, f.env.Queries.UpdateProductPrice(
			f.c,
			f.productB.ID,
			repository.NumericFromDecimal(decimal.RequireFromString("7.50")),
		))
		actual, err := f.svc.FindCart(f.c, cart.ID)
		require.NoError(t, err)
		assert.True(t, decimal.RequireFromString("27.50").Equal(actual.TotalPrice()))

		require.NoError(t, f.env.Queries.UpdateProductPrice(
			f.c,
			f.productB.ID,
			repository.NumericFromDecimal(decimal.RequireFromString("5.00")),
		))
	})

	tests := []struct {
		name    string
		run     func() error
		wantErr error
	}{
		{
			name: "add with zero quantity",
			run: func() error {
				_, err := f.svc.AddItem(f.c, cart.ID, f.productA.ID, 0)
				return err
			},
			wantErr: inErrors.ErrValidation,
		},
		{
			name: "add unknown product",
			run: func() error {
				_, err := f.svc.AddItem(f.c, cart.ID, uuid.New(), 1)
				return err
			},
			wantErr: inErrors.ErrNotFound,
		},
		{
			name: "add unavailable product",
			run: func() error {
				_, err := f.svc.AddItem(f.c, cart.ID, f.unavailable.ID, 1)
				return err
			},
			wantErr: inErrors.ErrValidation,
		},
		{
			name: "add over the per product maximum",
			run: func() error {
				_, err := f.svc.AddItem(f.c, cart.ID, f.productB.ID, 1000)
				return err
			},
			wantErr: inErrors.ErrValidation,
		},
		{
			name: "add that sums past the per product maximum",
			run: func() error {
				_, err := f.svc.AddItem(f.c, cart.ID, f.productA.ID, 998)
				return err
			},
			wantErr: inErrors.ErrValidation,
		},
		{
			name: "update over the per product maximum",
			run: func() error {
				_, err := f.svc.UpdateQuantity(f.c, cart.ID, f.productA.ID, 2147483647)
				return err
			},
			wantErr: inErrors.ErrValidation,
		},
		{
			name: "bulk update over the per product maximum",
			run: func() error {
				_, err := f.svc.UpdateQuantities(f.c, cart.ID, []request.UpdateItem{
					{ProductID: f.productA.ID, Quantity: 1000},
				})
				return err
			},
			wantErr: inErrors.ErrValidation,
		},
		{
			name: "update product not in cart",
			run: func() error {
				_, err := f.svc.UpdateQuantity(f.c, cart.ID, f.unavailable.ID, 1)
				return err
			},
			wantErr: inErrors.ErrNotFound,
		},
		{
			name: "update to zero",
			run: func() error {
				_, err := f.svc.UpdateQuantity(f.c, cart.ID, f.productA.ID, 0)
				return err
			},
			wantErr: inErrors.ErrValidation,
		},
		{
			name: "remove product not in cart",
			run: func() error {
				_, err := f.svc.RemoveItem(f.c, cart.ID, f.unavailable.ID)
				return err
			},
			wantErr: inErrors.ErrNotFound,
		},
		{
			name: "mutate unknown cart",
			run: func() error {
				_, err := f.svc.AddItem(f.c, -1, f.productA.ID, 1)
				return err
			},
			wantErr: inErrors.ErrNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.run(), tt.wantErr)
		})
	}

	t.Run("bulk update is all or nothing", func(t *testing.T) {
		_, err := f.svc.UpdateQuantities(f.c, cart.ID, []request.UpdateItem{
			{ProductID: f.productA.ID, Quantity: 9},
			{ProductID: f.unavailable.ID, Quantity: 1},
		})
		assert.ErrorIs(t, err, inErrors.ErrNotFound)

		actual, err := f.svc.FindCart(f.c, cart.ID)
		require.NoError(t, err)
		assert.Equal(t, int32(2), actual.Quantities()[f.productA.ID])
	})

	t.Run("bulk update with zero removes the line", func(t *testing.T) {
		actual, err := f.svc.UpdateQuantities(f.c, cart.ID, []request.UpdateItem{
			{ProductID: f.productA.ID, Quantity: 4},
			{ProductID: f.productB.ID, Quantity: 0},
		})
		require.NoError(t, err)
		assert.Equal(t, map[uuid.UUID]int32{f.productA.ID: 4}, actual.Quantities())
	})

	t.Run("remove the last line", func(t *testing.T) {
		actual, err := f.svc.RemoveItem(f.c, cart.ID, f.productA.ID)
		require.NoError(t, err)
		assert.True(t, actual.IsEmpty())
		assert.True(t, actual.TotalPrice().IsZero())
	})
}

func TestMergeOnLogin(t *testing.T) {
	f := setup(t)

	t.Run("anonymous lines fold into the user cart", func(t *testing.T) {
		user := testutil.SeedUser(t, f.c, f.env.Queries, "merge@example.com")
		userCart, _, err := f.svc.ResolveCart(f.c, owned(user.ID))
		require.NoError(t, err)
		_, err = f.svc.AddItem(f.c, userCart.ID, f.productA.ID, 1)
		require.NoError(t, err)
		_, err = f.svc.AddItem(f.c, userCart.ID, f.productB.ID, 3)
		require.NoError(t, err)

		rc := anonymous()
		anonymousCart, _, err := f.svc.ResolveCart(f.c, rc)
		require.NoError(t, err)
		_, err = f.svc.AddItem(f.c, anonymousCart.ID, f.productA.ID, 2)
		require.NoError(t, err)

		merged, err := f.svc.MergeOnLogin(f.c, rc, user.ID)
		require.NoError(t, err)

		assert.Equal(t, userCart.ID, merged.ID)
		assert.Equal(t, map[uuid.UUID]int32{f.productA.ID: 3, f.productB.ID: 3}, merged.Quantities())
		assert.Equal(t, userCart.ID, rc.Session.CartID)

		_, err = f.svc.FindCart(f.c, anonymousCart.ID)
		assert.ErrorIs(t, err, inErrors.ErrNotFound)
	})

	t.Run("first login transfers the anonymous cart", func(t *testing.T) {
		user := testutil.SeedUser(t, f.c, f.env.Queries, "first@example.com")

		rc := anonymous()
		anonymousCart, _, err := f.svc.ResolveCart(f.c, rc)
		require.NoError(t, err)
		_, err = f.svc.AddItem(f.c, anonymousCart.ID, f.productA.ID, 1)
		require.NoError(t, err)

		merged, err := f.svc.MergeOnLogin(f.c, rc, user.ID)
		require.NoError(t, err)

		require.Len(t, merged.Items, 1)
		assert.Equal(t, int32(1), merged.Items[0].Quantity)
		assert.True(t, decimal.RequireFromString("10.00").Equal(merged.TotalPrice()))
		assert.Equal(t, user.ID, merged.UserID.UUID)

		stale := anonymous()
		stale.Session.SetCartID(anonymousCart.ID)
		fresh, created, err := f.svc.ResolveCart(f.c, stale)
		require.NoError(t, err)
		assert.True(t, created)
		assert.NotEqual(t, anonymousCart.ID, fresh.ID)
	})

	t.Run("cart of another user is left alone", func(t *testing.T) {
		other := testutil.SeedUser(t, f.c, f.env.Queries, "other@example.com")
		otherCart, _, err := f.svc.ResolveCart(f.c, owned(other.ID))
		require.NoError(t, err)
		_, err = f.svc.AddItem(f.c, otherCart.ID, f.productB.ID, 2)
		require.NoError(t, err)

		user := testutil.SeedUser(t, f.c, f.env.Queries, "someone@example.com")
		rc := anonymous()
		rc.Session.SetCartID(otherCart.ID)

		merged, err := f.svc.MergeOnLogin(f.c, rc, user.ID)
		require.NoError(t, err)
		assert.NotEqual(t, otherCart.ID, merged.ID)
		assert.True(t, merged.IsEmpty())

		untouched, err := f.svc.FindCart(f.c, otherCart.ID)
		require.NoError(t, err)
		assert.Equal(t, map[uuid.UUID]int32{f.productB.ID: 2}, untouched.Quantities())
	})

	t.Run("merged quantities are capped", func(t *testing.T) {
		user := testutil.SeedUser(t, f.c, f.env.Queries, "cap@example.com")
		userCart, _, err := f.svc.ResolveCart(f.c, owned(user.ID))
		require.NoError(t, err)
		_, err = f.svc.AddItem(f.c, userCart.ID, f.productA.ID, 900)
		require.NoError(t, err)

		rc := anonymous()
		anonymousCart, _, err := f.svc.ResolveCart(f.c, rc)
		require.NoError(t, err)
		_, err = f.svc.AddItem(f.c, anonymousCart.ID, f.productA.ID, 500)
		require.NoError(t, err)

		merged, err := f.svc.MergeOnLogin(f.c, rc, user.ID)
		require.NoError(t, err)
		assert.Equal(t, map[uuid.UUID]int32{f.productA.ID: 999}, merged.Quantities())
	})

	t.Run("failed merge for an unknown user keeps the anonymous cart", func(t *testing.T) {
		rc := anonymous()
		anonymousCart, _, err := f.svc.ResolveCart(f.c, rc)
		require.NoError(t, err)
		_, err = f.svc.AddItem(f.c, anonymousCart.ID, f.productA.ID, 2)
		require.NoError(t, err)

		_, err = f.svc.MergeOnLogin(f.c, rc, uuid.New())
		require.Error(t, err)

		assert.Equal(t, anonymousCart.ID, rc.Session.CartID)
		survivor, err := f.svc.FindCart(f.c, anonymousCart.ID)
		require.NoError(t, err)
		assert.Equal(t, map[uuid.UUID]int32{f.productA.ID: 2}, survivor.Quantities())
	})

	t.Run("failure midway rolls back every merged line", func(t *testing.T) {
		user := testutil.SeedUser(t, f.c, f.env.Queries, "rollback@example.com")
		userCart, _, err := f.svc.ResolveCart(f.c, owned(user.ID))
		require.NoError(t, err)
		_, err = f.svc.AddItem(f.c, userCart.ID, f.productA.ID, 1)
		require.NoError(t, err)

		rc := anonymous()
		anonymousCart, _, err := f.svc.ResolveCart(f.c, rc)
		require.NoError(t, err)
		_, err = f.svc.AddItem(f.c, anonymousCart.ID, f.productA.ID, 2)
		require.NoError(t, err)
		_, err = f.svc.AddItem(f.c, anonymousCart.ID, f.productB.ID, 1)
		require.NoError(t, err)

		_, err = f.env.Pool.Exec(f.c, fmt.Sprintf(`
CREATE FUNCTION reject_cart_item() RETURNS trigger LANGUAGE plpgsql AS $$
BEGIN
    RAISE EXCEPTION 'cart item rejected';
END $$;
CREATE TRIGGER reject_cart_item BEFORE INSERT OR UPDATE ON cart_items
    FOR EACH ROW WHEN (NEW.cart_id = %d AND NEW.product_id = '%s')
    EXECUTE FUNCTION reject_cart_item();`, userCart.ID, f.productB.ID))
		require.NoError(t, err)
		t.Cleanup(func() {
			_, err := f.env.Pool.Exec(
				context.Background(),
				`DROP TRIGGER reject_cart_item ON cart_items; DROP FUNCTION reject_cart_item();`,
			)
			assert.NoError(t, err)
		})

		_, err = f.svc.MergeOnLogin(f.c, rc, user.ID)
		require.Error(t, err)

		assert.Equal(t, anonymousCart.ID, rc.Session.CartID)
		survivor, err := f.svc.FindCart(f.c, anonymousCart.ID)
		require.NoError(t, err)
		assert.Equal(t, map[uuid.UUID]int32{f.productA.ID: 2, f.productB.ID: 1}, survivor.Quantities())
		untouched, err := f.svc.FindCart(f.c, userCart.ID)
		require.NoError(t, err)
		assert.Equal(t, map[uuid.UUID]int32{f.productA.ID: 1}, untouched.Quantities())
	})

	t.Run("logout starts a fresh empty cart", func(t *testing.T) {
		user := testutil.SeedUser(t, f.c, f.env.Queries, "logout@example.com")
		rc := owned(user.ID)
		userCart, _, err := f.svc.ResolveCart(f.c, rc)
		require.NoError(t, err)
		_, err = f.svc.AddItem(f.c, userCart.ID, f.productA.ID, 1)
		require.NoError(t, err)
		rc.Session.SetOrderID(99)

		fresh, err := f.svc.ResetOnLogout(f.c, rc)
		require.NoError(t, err)

		assert.NotEqual(t, userCart.ID, fresh.ID)
		assert.Equal(t, fresh.ID, rc.Session.CartID)
		assert.Equal(t, int64(0), rc.Session.OrderID)

		anon := session.RequestContext{Session: rc.Session}
		resolved, created, err := f.svc.ResolveCart(f.c, anon)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, fresh.ID, resolved.ID)
		assert.True(t, resolved.IsEmpty())
	})
}
