package service

import (
	"context"
	"slices"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cartService "github.com/Alturino/storefront/cart/service"
	"github.com/Alturino/storefront/internal/config"
	"github.com/Alturino/storefront/internal/constants"
	inErrors "github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/internal/repository"
	"github.com/Alturino/storefront/internal/session"
	"github.com/Alturino/storefront/internal/testutil"
	"github.com/Alturino/storefront/order/request"
	"github.com/Alturino/storefront/order/response"
)

type fixture struct {
	c        context.Context
	env      *testutil.Env
	svc      *OrderService
	carts    *cartService.CartService
	productA repository.Product
	productB repository.Product
}

func setup(t *testing.T) fixture {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	c := testutil.Context()
	env := testutil.Setup(t, c)

	category := testutil.SeedCategory(t, c, env.Queries, 0, "necklaces")
	store := session.NewStore(env.Cache, config.Session{CookieName: "sessionid", TTL: time.Hour})
	return fixture{
		c:        c,
		env:      env,
		svc:      NewOrderService(env.Pool, env.Queries),
		carts:    cartService.NewCartService(env.Pool, env.Queries, store),
		productA: testutil.SeedProduct(t, c, env.Queries, testutil.ProductSeed{CategoryID: category.ID, Slug: "a", Price: "10.00"}),
		productB: testutil.SeedProduct(t, c, env.Queries, testutil.ProductSeed{CategoryID: category.ID, Slug: "b", Price: "5.00"}),
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

func TestGetOrCreateOrder(t *testing.T) {
	f := setup(t)

	t.Run("order numbers are sequential and zero padded", func(t *testing.T) {
		first, created, err := f.svc.GetOrCreateOrder(f.c, anonymous())
		require.NoError(t, err)
		assert.True(t, created)

		second, created, err := f.svc.GetOrCreateOrder(f.c, anonymous())
		require.NoError(t, err)
		assert.True(t, created)

		assert.Equal(t, "000001", first.OrderNumber)
		assert.Equal(t, "000002", second.OrderNumber)
	})

	t.Run("anonymous order is kept in the session", func(t *testing.T) {
		rc := anonymous()
		first, _, err := f.svc.GetOrCreateOrder(f.c, rc)
		require.NoError(t, err)
		assert.Equal(t, first.ID, rc.Session.OrderID)
		assert.Equal(t, constants.OrderStatusPending, first.Status)

		again, created, err := f.svc.GetOrCreateOrder(f.c, rc)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, first.ID, again.ID)
	})

	t.Run("user order is reused and prefilled from the profile", func(t *testing.T) {
		user := testutil.SeedUser(t, f.c, f.env.Queries, "buyer@example.com")
		first, created, err := f.svc.GetOrCreateOrder(f.c, owned(user.ID))
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, user.Email, first.Email)
		assert.Equal(t, "Jane", first.FirstName)
		assert.Equal(t, user.ID, first.UserID.UUID)

		again, created, err := f.svc.GetOrCreateOrder(f.c, owned(user.ID))
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, first.ID, again.ID)
	})

	t.Run("session order of a user is not reused anonymously", func(t *testing.T) {
		user := testutil.SeedUser(t, f.c, f.env.Queries, "owned-order@example.com")
		userOrder, _, err := f.svc.GetOrCreateOrder(f.c, owned(user.ID))
		require.NoError(t, err)

		rc := anonymous()
		rc.Session.SetOrderID(userOrder.ID)
		order, created, err := f.svc.GetOrCreateOrder(f.c, rc)
		require.NoError(t, err)
		assert.True(t, created)
		assert.NotEqual(t, userOrder.ID, order.ID)
	})

	t.Run("concurrent anonymous orders get distinct contiguous numbers", func(t *testing.T) {
		const workers = 10
		numbers := make([]int, workers)
		errs := make([]error, workers)
		var wg sync.WaitGroup
		for i := range workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				order, _, err := f.svc.GetOrCreateOrder(f.c, anonymous())
				if err != nil {
					errs[i] = err
					return
				}
				assert.Len(t, order.OrderNumber, 6)
				numbers[i], errs[i] = strconv.Atoi(order.OrderNumber)
			}()
		}
		wg.Wait()

		for _, err := range errs {
			require.NoError(t, err)
		}
		slices.Sort(numbers)
		for i := 1; i < workers; i++ {
			assert.Equal(t, numbers[i-1]+1, numbers[i])
		}
	})

	t.Run("paid order is replaced by a new pending one", func(t *testing.T) {
		rc := anonymous()
		paid, _, err := f.svc.GetOrCreateOrder(f.c, rc)
		require.NoError(t, err)
		_, err = f.env.Queries.MarkOrderPaid(f.c, paid.ID)
		require.NoError(t, err)

		order, created, err := f.svc.GetOrCreateOrder(f.c, rc)
		require.NoError(t, err)
		assert.True(t, created)
		assert.NotEqual(t, paid.ID, order.ID)
	})
}

func TestSyncWithCart(t *testing.T) {
	f := setup(t)

	rc := anonymous()
	cart, _, err := f.carts.ResolveCart(f.c, rc)
	require.NoError(t, err)
	_, err = f.carts.AddItem(f.c, cart.ID, f.productA.ID, 2)
	require.NoError(t, err)
	_, err = f.carts.AddItem(f.c, cart.ID, f.productB.ID, 1)
	require.NoError(t, err)

	order, _, err := f.svc.GetOrCreateOrder(f.c, rc)
	require.NoError(t, err)

	t.Run("snapshot carries lines and total", func(t *testing.T) {
		synced, err := f.svc.SyncWithCart(f.c, order.ID, cart.ID)
		require.NoError(t, err)

		assert.True(t, decimal.RequireFromString("25.00").Equal(synced.TotalPrice))
		require.Len(t, synced.Items, 2)
		for _, item := range synced.Items {
			assert.True(t, item.ProductID.Valid)
			assert.NotEmpty(t, item.Name)
		}
	})

	t.Run("syncing twice is idempotent", func(t *testing.T) {
		first, err := f.svc.SyncWithCart(f.c, order.ID, cart.ID)
		require.NoError(t, err)
		second, err := f.svc.SyncWithCart(f.c, order.ID, cart.ID)
		require.NoError(t, err)

		assert.True(t, first.TotalPrice.Equal(second.TotalPrice))
		assert.Equal(t, lines(first.Items), lines(second.Items))
	})

	t.Run("cart changes replace the snapshot", func(t *testing.T) {
		_, err := f.carts.RemoveItem(f.c, cart.ID, f.productB.ID)
		require.NoError(t, err)

		synced, err := f.svc.SyncWithCart(f.c, order.ID, cart.ID)
		require.NoError(t, err)
		assert.True(t, decimal.RequireFromString("20.00").Equal(synced.TotalPrice))
		assert.Equal(t, map[string]int32{"a": 2}, lines(synced.Items))
	})

	t.Run("catalog edits leave the snapshot alone until the next sync", func(t *testing.T) {
		_, err := f.env.Pool.Exec(
			f.c,
			`UPDATE products SET name = 'renamed', price = 12.50 WHERE id = $1`,
			f.productA.ID,
		)
		require.NoError(t, err)

		stored, err := f.svc.FindOrder(f.c, order.ID)
		require.NoError(t, err)
		assert.True(t, decimal.RequireFromString("20.00").Equal(stored.TotalPrice))
		assert.Equal(t, map[string]int32{"a": 2}, lines(stored.Items))
		require.Len(t, stored.Items, 1)
		assert.True(t, decimal.RequireFromString("10.00").Equal(stored.Items[0].Price))

		resynced, err := f.svc.SyncWithCart(f.c, order.ID, cart.ID)
		require.NoError(t, err)
		assert.True(t, decimal.RequireFromString("25.00").Equal(resynced.TotalPrice))
		assert.Equal(t, map[string]int32{"renamed": 2}, lines(resynced.Items))
	})

	t.Run("unknown order", func(t *testing.T) {
		_, err := f.svc.SyncWithCart(f.c, -1, cart.ID)
		assert.ErrorIs(t, err, inErrors.ErrNotFound)
	})

	t.Run("non pending order is rejected", func(t *testing.T) {
		_, err := f.env.Queries.UpdateOrderStatus(f.c, order.ID, constants.OrderStatusCancelled)
		require.NoError(t, err)

		_, err = f.svc.SyncWithCart(f.c, order.ID, cart.ID)
		assert.ErrorIs(t, err, inErrors.ErrOrderNotPending)
	})
}

func TestOrderHistory(t *testing.T) {
	f := setup(t)
	user := testutil.SeedUser(t, f.c, f.env.Queries, "history@example.com")
	order, _, err := f.svc.GetOrCreateOrder(f.c, owned(user.ID))
	require.NoError(t, err)

	orders, err := f.svc.ListOrders(f.c, user.ID)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, order.ID, orders[0].ID)

	found, err := f.svc.FindOrderByNumber(f.c, user.ID, order.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, order.ID, found.ID)

	stranger := testutil.SeedUser(t, f.c, f.env.Queries, "stranger@example.com")
	_, err = f.svc.FindOrderByNumber(f.c, stranger.ID, order.OrderNumber)
	assert.ErrorIs(t, err, inErrors.ErrNotFound)

	ship := request.ShipOrder{OrderNumber: order.OrderNumber, TrackingNumber: "1Z999AA10123456784", EstimatedDelivery: "2026-11-02"}

	t.Run("pending order cannot ship", func(t *testing.T) {
		_, err := f.svc.ShipOrder(f.c, ship)
		assert.ErrorIs(t, err, inErrors.ErrOrderNotShippable)
	})

	t.Run("shipment needs a valid request", func(t *testing.T) {
		_, err := f.svc.ShipOrder(f.c, request.ShipOrder{OrderNumber: order.OrderNumber, TrackingNumber: "1Z", EstimatedDelivery: "next week"})
		assert.ErrorIs(t, err, inErrors.ErrValidation)

		_, err = f.svc.ShipOrder(f.c, request.ShipOrder{OrderNumber: "999999", TrackingNumber: "1Z"})
		assert.ErrorIs(t, err, inErrors.ErrNotFound)
	})

	t.Run("history shows notes and shipment", func(t *testing.T) {
		_, err := f.env.Queries.UpdateOrderContact(f.c, repository.UpdateOrderContactParams{
			ID:        order.ID,
			Email:     user.Email,
			FirstName: "Jane",
			LastName:  "Doe",
			Notes:     "gift wrap please",
		})
		require.NoError(t, err)
		_, err = f.env.Queries.MarkOrderPaid(f.c, order.ID)
		require.NoError(t, err)

		shipped, err := f.svc.ShipOrder(f.c, ship)
		require.NoError(t, err)
		assert.Equal(t, constants.OrderStatusShipped, shipped.Status)

		orders, err := f.svc.ListOrders(f.c, user.ID)
		require.NoError(t, err)
		require.Len(t, orders, 1)
		assert.Equal(t, "gift wrap please", orders[0].Notes)
		assert.Equal(t, "1Z999AA10123456784", orders[0].TrackingNumber)
		assert.Equal(t, "2026-11-02", orders[0].EstimatedDelivery)

		_, err = f.svc.ShipOrder(f.c, ship)
		assert.ErrorIs(t, err, inErrors.ErrOrderNotShippable)
	})
}

// lines keys each snapshot line by product name, which the seeds set to the slug.
func lines(items []response.OrderItem) map[string]int32 {
	out := make(map[string]int32, len(items))
	for _, item := range items {
		out[item.Name] = item.Quantity
	}
	return out
}
