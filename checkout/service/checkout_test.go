package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cartService "github.com/Alturino/storefront/cart/service"
	"github.com/Alturino/storefront/checkout/request"
	"github.com/Alturino/storefront/checkout/response"
	"github.com/Alturino/storefront/internal/config"
	"github.com/Alturino/storefront/internal/constants"
	inErrors "github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/internal/payment"
	"github.com/Alturino/storefront/internal/repository"
	"github.com/Alturino/storefront/internal/session"
	"github.com/Alturino/storefront/internal/testutil"
	orderService "github.com/Alturino/storefront/order/service"
	userRequest "github.com/Alturino/storefront/user/request"
	userService "github.com/Alturino/storefront/user/service"
)

// processor fakes the payment processor. Intents are created with the requested amount and
// report status when retrieved.
type processor struct {
	mu      sync.Mutex
	status  string
	fail    bool
	intents map[string]payment.PaymentIntent
}

func (p *processor) setStatus(status string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status = status
}

func (p *processor) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if p.fail {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":{"type":"api_error","message":"unavailable"}}`))
		return
	}

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/v1/payment_intents":
		body := struct {
			Amount   int64  `json:"amount"`
			Currency string `json:"currency"`
		}{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		id := "pi_" + uuid.NewString()
		intent := payment.PaymentIntent{
			ID:           id,
			ClientSecret: id + "_secret",
			Amount:       body.Amount,
			Currency:     body.Currency,
			Status:       "requires_payment_method",
		}
		p.intents[id] = intent
		_ = json.NewEncoder(w).Encode(intent)
	case r.Method == http.MethodGet:
		id := r.URL.Path[len("/v1/payment_intents/"):]
		intent, ok := p.intents[id]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"message":"no such payment_intent"}}`))
			return
		}
		intent.Status = p.status
		_ = json.NewEncoder(w).Encode(intent)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

type fixture struct {
	c         context.Context
	env       *testutil.Env
	svc       *CheckoutService
	carts     *cartService.CartService
	orders    *orderService.OrderService
	addresses *userService.AddressService
	processor *processor
	product   repository.Product
}

func setup(t *testing.T) fixture {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	c := testutil.Context()
	env := testutil.Setup(t, c)

	fake := &processor{status: "requires_payment_method", intents: map[string]payment.PaymentIntent{}}
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	store := session.NewStore(env.Cache, config.Session{CookieName: "sessionid", TTL: time.Hour})
	carts := cartService.NewCartService(env.Pool, env.Queries, store)
	orders := orderService.NewOrderService(env.Pool, env.Queries)
	payments := payment.NewClient(config.Payment{BaseURL: server.URL, SecretKey: "sk_test", Currency: "usd", Timeout: 5 * time.Second})

	category := testutil.SeedCategory(t, c, env.Queries, 0, "earrings")
	return fixture{
		c:         c,
		env:       env,
		svc:       NewCheckoutService(env.Pool, env.Queries, env.Cache, carts, orders, payments),
		carts:     carts,
		orders:    orders,
		addresses: userService.NewAddressService(env.Pool, env.Queries),
		processor: fake,
		product:   testutil.SeedProduct(t, c, env.Queries, testutil.ProductSeed{CategoryID: category.ID, Slug: "hoop", Price: "10.00"}),
	}
}

func address(street string) *userRequest.Address {
	return &userRequest.Address{
		FirstName:     "Jane",
		LastName:      "Doe",
		StreetAddress: street,
		City:          "Springfield",
		PostalCode:    "12345",
		Country:       "US",
	}
}

var contact = request.Contact{Email: "jane@example.com", FirstName: "Jane", LastName: "Doe", Notes: "leave at the door"}

// fill adds the product to the visitor's cart.
func (f fixture) fill(t *testing.T, rc session.RequestContext) {
	t.Helper()
	cart, _, err := f.carts.ResolveCart(f.c, rc)
	require.NoError(t, err)
	_, err = f.carts.AddItem(f.c, cart.ID, f.product.ID, 1)
	require.NoError(t, err)
}

func TestAnonymousCheckout(t *testing.T) {
	f := setup(t)
	rc := session.RequestContext{Session: session.New()}

	t.Run("empty cart cannot check out", func(t *testing.T) {
		_, err := f.svc.View(f.c, rc, constants.CheckoutStepContact)
		assert.ErrorIs(t, err, inErrors.ErrEmptyCart)
	})

	f.fill(t, rc)

	t.Run("skipping contact names the required step", func(t *testing.T) {
		_, err := f.svc.View(f.c, rc, constants.CheckoutStepShipping)
		require.ErrorIs(t, err, inErrors.ErrCheckoutStep)
		var stepErr inErrors.StepError
		require.True(t, errors.As(err, &stepErr))
		assert.Equal(t, constants.CheckoutStepContact, stepErr.Required)
	})

	t.Run("contact", func(t *testing.T) {
		view, err := f.svc.SubmitContact(f.c, rc, contact)
		require.NoError(t, err)
		assert.Equal(t, constants.CheckoutStepContact, view.Order.CheckoutStep)
		assert.Equal(t, contact.Email, view.Order.Email)
		assert.Equal(t, contact.Notes, view.Order.Notes)
		assert.Equal(t, constants.CheckoutStepShipping, view.NextStep)
		assert.True(t, decimal.RequireFromString("10.00").Equal(view.Order.TotalPrice))
		assert.Equal(t, view.Order.ID, rc.Session.OrderID)
	})

	t.Run("anonymous visitors cannot save defaults", func(t *testing.T) {
		_, err := f.svc.SubmitShipping(f.c, rc, request.Shipping{Address: address("1 Main St"), SaveAsDefault: true})
		assert.ErrorIs(t, err, inErrors.ErrValidation)
	})

	t.Run("shipping needs exactly one address source", func(t *testing.T) {
		_, err := f.svc.SubmitShipping(f.c, rc, request.Shipping{})
		assert.ErrorIs(t, err, inErrors.ErrValidation)
	})

	var shipping response.Step
	t.Run("shipping", func(t *testing.T) {
		var err error
		shipping, err = f.svc.SubmitShipping(f.c, rc, request.Shipping{Address: address("1 Main St")})
		require.NoError(t, err)
		require.NotNil(t, shipping.ShippingAddress)
		assert.Equal(t, constants.AddressTypeShipping, shipping.ShippingAddress.AddressType)
		assert.Equal(t, constants.CheckoutStepShipping, shipping.Order.CheckoutStep)
	})

	t.Run("revisiting contact keeps the furthest step", func(t *testing.T) {
		view, err := f.svc.SubmitContact(f.c, rc, request.Contact{Email: "other@example.com", FirstName: "Jane", LastName: "Doe"})
		require.NoError(t, err)
		assert.Equal(t, "other@example.com", view.Order.Email)
		assert.Equal(t, constants.CheckoutStepShipping, view.Order.CheckoutStep)
	})

	t.Run("billing copies shipping", func(t *testing.T) {
		view, err := f.svc.SubmitBilling(f.c, rc, request.Billing{SameAsShipping: true})
		require.NoError(t, err)
		require.NotNil(t, view.BillingAddress)
		assert.Equal(t, constants.AddressTypeBilling, view.BillingAddress.AddressType)
		assert.NotEqual(t, shipping.ShippingAddress.ID, view.BillingAddress.ID)
		assert.Equal(t, shipping.ShippingAddress.StreetAddress, view.BillingAddress.StreetAddress)
		assert.Equal(t, constants.CheckoutStepBilling, view.Order.CheckoutStep)
	})

	var intent response.PaymentIntent
	t.Run("payment intent covers the total in minor units", func(t *testing.T) {
		var err error
		intent, err = f.svc.CreatePaymentIntent(f.c, rc)
		require.NoError(t, err)
		assert.Equal(t, int64(1000), intent.Amount)
		assert.Equal(t, "usd", intent.Currency)
		assert.NotEmpty(t, intent.ClientSecret)

		view, err := f.svc.View(f.c, rc, constants.CheckoutStepPayment)
		require.NoError(t, err)
		assert.Equal(t, intent.IntentID, view.Order.PaymentIntentID)
		assert.Equal(t, constants.CheckoutStepPayment, view.Order.CheckoutStep)
	})

	t.Run("confirming a foreign intent", func(t *testing.T) {
		_, err := f.svc.ConfirmPayment(f.c, rc, request.ConfirmPayment{PaymentIntentID: "pi_unknown"})
		assert.ErrorIs(t, err, inErrors.ErrValidation)
	})

	t.Run("confirming an unpaid intent", func(t *testing.T) {
		_, err := f.svc.ConfirmPayment(f.c, rc, request.ConfirmPayment{PaymentIntentID: intent.IntentID})
		assert.ErrorIs(t, err, inErrors.ErrPaymentFailed)
		assert.ErrorIs(t, err, ErrPaymentNotSucceeded)
	})

	t.Run("confirming a paid intent completes the order", func(t *testing.T) {
		sub := f.env.Cache.Subscribe(f.c, constants.ChannelOrderPaid)
		t.Cleanup(func() { _ = sub.Close() })
		_, err := sub.Receive(f.c)
		require.NoError(t, err)

		f.processor.setStatus(payment.StatusSucceeded)
		cartID := rc.Session.CartID
		order, err := f.svc.ConfirmPayment(f.c, rc, request.ConfirmPayment{PaymentIntentID: intent.IntentID})
		require.NoError(t, err)

		assert.Equal(t, constants.OrderStatusProcessing, order.Status)
		assert.Equal(t, constants.CheckoutStepComplete, order.CheckoutStep)
		assert.NotNil(t, order.PaidAt)
		assert.Len(t, order.Items, 1)
		assert.Equal(t, int64(0), rc.Session.OrderID)

		cart, err := f.carts.FindCart(f.c, cartID)
		require.NoError(t, err)
		assert.True(t, cart.IsEmpty())

		c, cancel := context.WithTimeout(f.c, 5*time.Second)
		defer cancel()
		msg, err := sub.ReceiveMessage(c)
		require.NoError(t, err)
		event := response.OrderPaid{}
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &event))
		assert.Equal(t, order.OrderNumber, event.OrderNumber)
		assert.Equal(t, "10.00", event.TotalPrice)
	})

	t.Run("the next checkout starts a new order", func(t *testing.T) {
		f.fill(t, rc)
		view, err := f.svc.View(f.c, rc, constants.CheckoutStepContact)
		require.NoError(t, err)
		assert.Equal(t, constants.OrderStatusPending, view.Order.Status)
		assert.Equal(t, constants.CheckoutStepNone, view.Order.CheckoutStep)
	})
}

func TestUserCheckout(t *testing.T) {
	f := setup(t)
	user := testutil.SeedUser(t, f.c, f.env.Queries, "shopper@example.com")
	stranger := testutil.SeedUser(t, f.c, f.env.Queries, "stranger@example.com")
	rc := session.RequestContext{Principal: uuid.NullUUID{UUID: user.ID, Valid: true}, Session: session.New()}
	f.fill(t, rc)

	saved, err := f.addresses.CreateAddress(f.c, user.ID, userRequest.CreateAddress{
		Address:     *address("1 Saved St"),
		AddressType: constants.AddressTypeShipping,
	})
	require.NoError(t, err)
	foreign, err := f.addresses.CreateAddress(f.c, stranger.ID, userRequest.CreateAddress{
		Address:     *address("9 Foreign St"),
		AddressType: constants.AddressTypeShipping,
	})
	require.NoError(t, err)

	view, err := f.svc.SubmitContact(f.c, rc, contact)
	require.NoError(t, err)
	assert.Equal(t, user.ID, view.Order.UserID.UUID)

	t.Run("shipping page lists saved addresses", func(t *testing.T) {
		view, err := f.svc.View(f.c, rc, constants.CheckoutStepShipping)
		require.NoError(t, err)
		require.Len(t, view.SavedAddresses, 1)
		assert.Equal(t, saved.ID, view.SavedAddresses[0].ID)
	})

	t.Run("address of another user", func(t *testing.T) {
		_, err := f.svc.SubmitShipping(f.c, rc, request.Shipping{AddressID: foreign.ID})
		assert.ErrorIs(t, err, inErrors.ErrNotFound)
	})

	t.Run("saved address is referenced", func(t *testing.T) {
		view, err := f.svc.SubmitShipping(f.c, rc, request.Shipping{AddressID: saved.ID})
		require.NoError(t, err)
		assert.Equal(t, saved.ID, view.Order.ShippingAddressID)
	})

	var shippingID int64
	t.Run("new address saved as default", func(t *testing.T) {
		view, err := f.svc.SubmitShipping(f.c, rc, request.Shipping{Address: address("2 New St"), SaveAsDefault: true})
		require.NoError(t, err)
		require.NotNil(t, view.ShippingAddress)
		assert.True(t, view.ShippingAddress.IsDefault)
		shippingID = view.ShippingAddress.ID

		addresses, err := f.addresses.ListAddresses(f.c, user.ID)
		require.NoError(t, err)
		defaults := 0
		for _, addr := range addresses {
			if addr.AddressType == constants.AddressTypeShipping && addr.IsDefault {
				defaults++
			}
		}
		assert.Equal(t, 1, defaults)
	})

	t.Run("processor failure leaves the order pending", func(t *testing.T) {
		_, err := f.svc.SubmitBilling(f.c, rc, request.Billing{SameAsShipping: true})
		require.NoError(t, err)

		f.processor.mu.Lock()
		f.processor.fail = true
		f.processor.mu.Unlock()
		t.Cleanup(func() {
			f.processor.mu.Lock()
			f.processor.fail = false
			f.processor.mu.Unlock()
		})

		_, err = f.svc.CreatePaymentIntent(f.c, rc)
		assert.ErrorIs(t, err, inErrors.ErrPaymentFailed)

		view, err := f.svc.View(f.c, rc, constants.CheckoutStepPayment)
		require.NoError(t, err)
		assert.Equal(t, constants.OrderStatusPending, view.Order.Status)
		assert.Empty(t, view.Order.PaymentIntentID)
	})

	t.Run("billing same as a deleted shipping address", func(t *testing.T) {
		require.NoError(t, f.addresses.DeleteAddress(f.c, user.ID, shippingID))

		view, err := f.svc.View(f.c, rc, constants.CheckoutStepBilling)
		require.NoError(t, err)
		assert.Zero(t, view.Order.ShippingAddressID)

		_, err = f.svc.SubmitBilling(f.c, rc, request.Billing{SameAsShipping: true})
		require.ErrorIs(t, err, inErrors.ErrValidation)
		var validationErr inErrors.ValidationError
		require.True(t, errors.As(err, &validationErr))
		assert.Contains(t, validationErr.Fields, "same_as_shipping")
	})
}

func TestConfirmPaymentAfterCartChange(t *testing.T) {
	f := setup(t)
	rc := session.RequestContext{Session: session.New()}
	f.fill(t, rc)

	_, err := f.svc.SubmitContact(f.c, rc, contact)
	require.NoError(t, err)
	_, err = f.svc.SubmitShipping(f.c, rc, request.Shipping{Address: address("1 Main St")})
	require.NoError(t, err)
	_, err = f.svc.SubmitBilling(f.c, rc, request.Billing{SameAsShipping: true})
	require.NoError(t, err)
	created, err := f.svc.CreatePaymentIntent(f.c, rc)
	require.NoError(t, err)
	f.processor.setStatus(payment.StatusSucceeded)

	orderID, cartID := rc.Session.OrderID, rc.Session.CartID
	verified := payment.PaymentIntent{ID: created.IntentID, Amount: created.Amount, Status: payment.StatusSucceeded}
	complete := func() error {
		return repository.RunInTx(f.c, f.env.Pool, func(q *repository.Queries, tx pgx.Tx) error {
			_, err := completeOrder(f.c, q, orderID, cartID, verified)
			return err
		})
	}
	assertPending := func(t *testing.T, quantity int32) {
		t.Helper()
		order, err := f.orders.FindOrder(f.c, orderID)
		require.NoError(t, err)
		assert.Equal(t, constants.OrderStatusPending, order.Status)
		cart, err := f.carts.FindCart(f.c, cartID)
		require.NoError(t, err)
		assert.Equal(t, map[uuid.UUID]int32{f.product.ID: quantity}, cart.Quantities())
	}

	t.Run("order re-synced after verification", func(t *testing.T) {
		_, err := f.carts.UpdateQuantity(f.c, cartID, f.product.ID, 2)
		require.NoError(t, err)
		_, err = f.orders.SyncWithCart(f.c, orderID, cartID)
		require.NoError(t, err)

		assert.ErrorIs(t, complete(), ErrPaymentMismatch)
		assertPending(t, 2)
	})

	t.Run("cart edited after verification", func(t *testing.T) {
		_, err := f.carts.UpdateQuantity(f.c, cartID, f.product.ID, 1)
		require.NoError(t, err)
		_, err = f.orders.SyncWithCart(f.c, orderID, cartID)
		require.NoError(t, err)
		_, err = f.carts.UpdateQuantity(f.c, cartID, f.product.ID, 3)
		require.NoError(t, err)

		assert.ErrorIs(t, complete(), ErrPaymentMismatch)
		assertPending(t, 3)
	})

	t.Run("confirming after the cart changed", func(t *testing.T) {
		_, err := f.svc.ConfirmPayment(f.c, rc, request.ConfirmPayment{PaymentIntentID: created.IntentID})
		assert.ErrorIs(t, err, ErrPaymentMismatch)
		assert.ErrorIs(t, err, inErrors.ErrPaymentFailed)
		assertPending(t, 3)
	})

	t.Run("restoring the paid cart completes", func(t *testing.T) {
		_, err := f.carts.UpdateQuantity(f.c, cartID, f.product.ID, 1)
		require.NoError(t, err)

		order, err := f.svc.ConfirmPayment(f.c, rc, request.ConfirmPayment{PaymentIntentID: created.IntentID})
		require.NoError(t, err)
		assert.Equal(t, constants.OrderStatusProcessing, order.Status)
		assert.True(t, decimal.RequireFromString("10.00").Equal(order.TotalPrice))
	})
}
