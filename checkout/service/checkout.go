package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	cartResponse "github.com/Alturino/storefront/cart/response"
	"github.com/Alturino/storefront/checkout/internal/otel"
	"github.com/Alturino/storefront/checkout/request"
	"github.com/Alturino/storefront/checkout/response"
	"github.com/Alturino/storefront/internal/constants"
	inErrors "github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/metrics"
	inOtel "github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/internal/payment"
	"github.com/Alturino/storefront/internal/repository"
	"github.com/Alturino/storefront/internal/session"
	orderResponse "github.com/Alturino/storefront/order/response"
	userRequest "github.com/Alturino/storefront/user/request"
	userResponse "github.com/Alturino/storefront/user/response"
	userService "github.com/Alturino/storefront/user/service"
)

var (
	ErrPaymentNotSucceeded = errors.Join(errors.New("payment has not succeeded"), inErrors.ErrPaymentFailed)
	ErrPaymentMismatch     = errors.Join(errors.New("payment does not match order"), inErrors.ErrPaymentFailed)
)

type CartResolver interface {
	ResolveCart(c context.Context, rc session.RequestContext) (cartResponse.Cart, bool, error)
}

type OrderSyncer interface {
	GetOrCreateOrder(c context.Context, rc session.RequestContext) (orderResponse.Order, bool, error)
	SyncWithCart(c context.Context, orderID int64, cartID int64) (orderResponse.Order, error)
}

type PaymentProcessor interface {
	Currency() string
	CreatePaymentIntent(c context.Context, amount int64, currency string, orderNumber string) (payment.PaymentIntent, error)
	RetrievePaymentIntent(c context.Context, id string) (payment.PaymentIntent, error)
}

type CheckoutService struct {
	pool     *pgxpool.Pool
	queries  *repository.Queries
	cache    *redis.Client
	carts    CartResolver
	orders   OrderSyncer
	payments PaymentProcessor
}

func NewCheckoutService(
	pool *pgxpool.Pool,
	queries *repository.Queries,
	cache *redis.Client,
	carts CartResolver,
	orders OrderSyncer,
	payments PaymentProcessor,
) *CheckoutService {
	return &CheckoutService{
		pool:     pool,
		queries:  queries,
		cache:    cache,
		carts:    carts,
		orders:   orders,
		payments: payments,
	}
}

// state is the cart and synced order every checkout step starts from.
type state struct {
	cart  cartResponse.Cart
	order orderResponse.Order
}

// begin resolves the cart, which must not be empty, finds or creates the pending order
// and replaces its lines with the cart contents.
func (svc *CheckoutService) begin(c context.Context, rc session.RequestContext) (state, error) {
	cart, _, err := svc.carts.ResolveCart(c, rc)
	if err != nil {
		return state{}, fmt.Errorf("failed resolving cart with error=%w", err)
	}
	if cart.IsEmpty() {
		return state{}, fmt.Errorf("failed beginning checkout of cartId=%d with error=%w", cart.ID, inErrors.ErrEmptyCart)
	}

	order, _, err := svc.orders.GetOrCreateOrder(c, rc)
	if err != nil {
		return state{}, fmt.Errorf("failed resolving order with error=%w", err)
	}
	order, err = svc.orders.SyncWithCart(c, order.ID, cart.ID)
	if err != nil {
		return state{}, fmt.Errorf("failed syncing order with error=%w", err)
	}
	zerolog.Ctx(c).Trace().
		Int64(log.KeyCartID, cart.ID).
		Str(log.KeyOrderNumber, order.OrderNumber).
		Str(log.KeyCheckoutStep, order.CheckoutStep).
		Msg("began checkout")

	return state{cart: cart, order: order}, nil
}

// enter runs begin and checks that every step before step is complete.
func (svc *CheckoutService) enter(c context.Context, rc session.RequestContext, step string) (state, error) {
	st, err := svc.begin(c, rc)
	if err != nil {
		return state{}, err
	}
	if err = Reachable(st.order.CheckoutStep, step); err != nil {
		return state{}, err
	}
	return st, nil
}

// advance records step as completed unless the order already got further.
func advance(c context.Context, q *repository.Queries, order repository.Order, step string) (repository.Order, error) {
	if stepIndex(order.CheckoutStep) >= stepIndex(step) {
		return order, nil
	}
	order, err := q.UpdateOrderCheckoutStep(c, order.ID, step)
	if err != nil {
		return repository.Order{}, fmt.Errorf("failed advancing checkout to step=%s with error=%w", step, err)
	}
	return order, nil
}

func (svc *CheckoutService) view(c context.Context, rc session.RequestContext, step string, order orderResponse.Order) (response.Step, error) {
	view := response.Step{Step: step, NextStep: Next(step), Order: order}

	if order.ShippingAddressID != 0 {
		addr, err := svc.queries.FindAddressById(c, order.ShippingAddressID)
		if err != nil {
			return response.Step{}, fmt.Errorf("failed finding shipping address with error=%w", err)
		}
		shipping := userResponse.AddressFromRow(addr)
		view.ShippingAddress = &shipping
	}
	if order.BillingAddressID != 0 {
		addr, err := svc.queries.FindAddressById(c, order.BillingAddressID)
		if err != nil {
			return response.Step{}, fmt.Errorf("failed finding billing address with error=%w", err)
		}
		billing := userResponse.AddressFromRow(addr)
		view.BillingAddress = &billing
	}
	if rc.IsAuthenticated() && (step == constants.CheckoutStepShipping || step == constants.CheckoutStepBilling) {
		rows, err := svc.queries.FindAddressesByUserId(c, rc.Principal.UUID)
		if err != nil {
			return response.Step{}, fmt.Errorf("failed finding saved addresses with error=%w", err)
		}
		for _, row := range rows {
			if row.AddressType == step {
				view.SavedAddresses = append(view.SavedAddresses, userResponse.AddressFromRow(row))
			}
		}
	}
	return view, nil
}

// View returns what the page of step needs, after syncing the order with the cart.
func (svc *CheckoutService) View(c context.Context, rc session.RequestContext, step string) (response.Step, error) {
	c, span := otel.Tracer.Start(c, "CheckoutService View")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CheckoutService View").
		Str(log.KeyCheckoutStep, step).
		Str(log.KeyProcess, "entering checkout step").
		Logger()

	logger.Trace().Msg("entering checkout step")
	st, err := svc.enter(c, rc, step)
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Step{}, err
	}
	view, err := svc.view(c, rc, step, st.order)
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Step{}, err
	}
	logger.Trace().Msg("entered checkout step")

	return view, nil
}

func (svc *CheckoutService) SubmitContact(c context.Context, rc session.RequestContext, param request.Contact) (response.Step, error) {
	c, span := otel.Tracer.Start(c, "CheckoutService SubmitContact")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CheckoutService SubmitContact").
		Str(log.KeyEmail, param.Email).
		Str(log.KeyProcess, "entering contact step").
		Logger()

	st, err := svc.enter(c, rc, constants.CheckoutStepContact)
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Step{}, err
	}

	logger = logger.With().Str(log.KeyOrderNumber, st.order.OrderNumber).Str(log.KeyProcess, "saving contact").Logger()
	var order orderResponse.Order
	err = repository.RunInTx(c, svc.pool, func(q *repository.Queries, tx pgx.Tx) error {
		row, err := q.UpdateOrderContact(c, repository.UpdateOrderContactParams{
			ID:        st.order.ID,
			Email:     param.Email,
			FirstName: param.FirstName,
			LastName:  param.LastName,
			Phone:     param.Phone,
			Notes:     param.Notes,
		})
		if err != nil {
			return fmt.Errorf("failed updating order contact with error=%w", err)
		}
		row, err = advance(c, q, row, constants.CheckoutStepContact)
		if err != nil {
			return err
		}
		order = st.order.WithRow(row)
		return nil
	})
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Step{}, err
	}
	logger.Info().Msg("saved contact")

	return svc.view(c, rc, constants.CheckoutStepContact, order)
}

// chooseAddress stores the address a shipping or billing submission names and returns its
// row. Saved addresses are referenced when their type matches and copied otherwise.
func chooseAddress(
	c context.Context,
	q *repository.Queries,
	rc session.RequestContext,
	addressType string,
	addressID int64,
	addr *userRequest.Address,
	saveAsDefault bool,
) (repository.Address, error) {
	if saveAsDefault && !rc.IsAuthenticated() {
		return repository.Address{}, inErrors.NewValidationError("save_as_default", "requires a signed in user")
	}

	if addr != nil {
		return userService.SaveAddress(c, q, rc.Principal, addressType, *addr, saveAsDefault)
	}

	if !rc.IsAuthenticated() {
		return repository.Address{}, inErrors.NewValidationError("address_id", "saved addresses require a signed in user")
	}
	saved, err := q.FindAddressByIdAndUserId(c, addressID, rc.Principal.UUID)
	if err != nil {
		if repository.IsNoRows(err) {
			return repository.Address{}, fmt.Errorf("failed finding addressId=%d with error=%w", addressID, inErrors.ErrNotFound)
		}
		return repository.Address{}, fmt.Errorf("failed finding addressId=%d with error=%w", addressID, err)
	}
	if saved.AddressType != addressType {
		return userService.SaveAddress(c, q, rc.Principal, addressType, userRequest.AddressFromRow(saved), saveAsDefault)
	}
	if saveAsDefault {
		return userService.MakeDefault(c, q, rc.Principal.UUID, saved.ID)
	}
	return saved, nil
}

func (svc *CheckoutService) SubmitShipping(c context.Context, rc session.RequestContext, param request.Shipping) (response.Step, error) {
	c, span := otel.Tracer.Start(c, "CheckoutService SubmitShipping")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CheckoutService SubmitShipping").
		Str(log.KeyProcess, "entering shipping step").
		Logger()

	if err := param.Check(); err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Step{}, err
	}
	st, err := svc.enter(c, rc, constants.CheckoutStepShipping)
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Step{}, err
	}

	logger = logger.With().Str(log.KeyOrderNumber, st.order.OrderNumber).Str(log.KeyProcess, "saving shipping address").Logger()
	var order orderResponse.Order
	err = repository.RunInTx(c, svc.pool, func(q *repository.Queries, tx pgx.Tx) error {
		addr, err := chooseAddress(c, q, rc, constants.AddressTypeShipping, param.AddressID, param.Address, param.SaveAsDefault)
		if err != nil {
			return err
		}
		row, err := q.UpdateOrderShippingAddress(c, st.order.ID, addr.ID)
		if err != nil {
			return fmt.Errorf("failed updating order shipping address with error=%w", err)
		}
		row, err = advance(c, q, row, constants.CheckoutStepShipping)
		if err != nil {
			return err
		}
		order = st.order.WithRow(row)
		return nil
	})
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Step{}, err
	}
	logger.Info().Int64(log.KeyAddressID, order.ShippingAddressID).Msg("saved shipping address")

	return svc.view(c, rc, constants.CheckoutStepShipping, order)
}

func (svc *CheckoutService) SubmitBilling(c context.Context, rc session.RequestContext, param request.Billing) (response.Step, error) {
	c, span := otel.Tracer.Start(c, "CheckoutService SubmitBilling")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CheckoutService SubmitBilling").
		Bool("sameAsShipping", param.SameAsShipping).
		Str(log.KeyProcess, "entering billing step").
		Logger()

	if err := param.Check(); err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Step{}, err
	}
	st, err := svc.enter(c, rc, constants.CheckoutStepBilling)
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Step{}, err
	}

	logger = logger.With().Str(log.KeyOrderNumber, st.order.OrderNumber).Str(log.KeyProcess, "saving billing address").Logger()
	var order orderResponse.Order
	err = repository.RunInTx(c, svc.pool, func(q *repository.Queries, tx pgx.Tx) error {
		var addr repository.Address
		if param.SameAsShipping {
			if st.order.ShippingAddressID == 0 {
				return inErrors.NewValidationError("same_as_shipping", "no shipping address on the order")
			}
			shipping, err := q.FindAddressById(c, st.order.ShippingAddressID)
			if err != nil {
				if repository.IsNoRows(err) {
					return inErrors.NewValidationError("same_as_shipping", "no shipping address on the order")
				}
				return fmt.Errorf("failed finding shipping address with error=%w", err)
			}
			owner := repository.NullUUIDFromPg(shipping.UserID)
			addr, err = userService.SaveAddress(
				c,
				q,
				owner,
				constants.AddressTypeBilling,
				userRequest.AddressFromRow(shipping),
				param.SaveAsDefault && owner.Valid,
			)
			if err != nil {
				return err
			}
		} else {
			var err error
			addr, err = chooseAddress(c, q, rc, constants.AddressTypeBilling, param.AddressID, param.Address, param.SaveAsDefault)
			if err != nil {
				return err
			}
		}

		row, err := q.UpdateOrderBillingAddress(c, st.order.ID, addr.ID)
		if err != nil {
			return fmt.Errorf("failed updating order billing address with error=%w", err)
		}
		row, err = advance(c, q, row, constants.CheckoutStepBilling)
		if err != nil {
			return err
		}
		order = st.order.WithRow(row)
		return nil
	})
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Step{}, err
	}
	logger.Info().Int64(log.KeyAddressID, order.BillingAddressID).Msg("saved billing address")

	return svc.view(c, rc, constants.CheckoutStepBilling, order)
}

// CreatePaymentIntent asks the processor for an intent over the order total and stores it
// on the order. A processor failure leaves the order pending without retrying.
func (svc *CheckoutService) CreatePaymentIntent(c context.Context, rc session.RequestContext) (response.PaymentIntent, error) {
	c, span := otel.Tracer.Start(c, "CheckoutService CreatePaymentIntent")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CheckoutService CreatePaymentIntent").
		Str(log.KeyProcess, "entering payment step").
		Logger()

	st, err := svc.enter(c, rc, constants.CheckoutStepPayment)
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.PaymentIntent{}, err
	}

	amount, err := payment.ToMinorUnits(st.order.TotalPrice)
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.PaymentIntent{}, err
	}
	currency := svc.payments.Currency()
	logger = logger.With().
		Str(log.KeyOrderNumber, st.order.OrderNumber).
		Int64(log.KeyPaymentAmount, amount).
		Str(log.KeyCurrency, currency).
		Str(log.KeyProcess, "creating payment intent").
		Logger()

	logger.Trace().Msg("creating payment intent")
	intent, err := svc.payments.CreatePaymentIntent(c, amount, currency, st.order.OrderNumber)
	if err != nil {
		metrics.PaymentIntents.WithLabelValues(metrics.ResultFailure).Inc()
		err = fmt.Errorf("failed creating payment intent with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.PaymentIntent{}, err
	}
	metrics.PaymentIntents.WithLabelValues(metrics.ResultSuccess).Inc()

	logger = logger.With().Str(log.KeyPaymentIntentID, intent.ID).Str(log.KeyProcess, "storing payment intent").Logger()
	err = repository.RunInTx(c, svc.pool, func(q *repository.Queries, tx pgx.Tx) error {
		row, err := q.UpdateOrderPaymentIntent(c, st.order.ID, intent.ID, repository.NumericFromDecimal(st.order.TotalPrice))
		if err != nil {
			if repository.IsNoRows(err) {
				return fmt.Errorf("failed storing payment intent with error=%w", inErrors.ErrOrderNotPending)
			}
			return fmt.Errorf("failed storing payment intent with error=%w", err)
		}
		_, err = advance(c, q, row, constants.CheckoutStepPayment)
		return err
	})
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.PaymentIntent{}, err
	}
	logger.Info().Msg("created payment intent")

	return response.PaymentIntent{
		IntentID:     intent.ID,
		ClientSecret: intent.ClientSecret,
		Amount:       amount,
		Currency:     currency,
	}, nil
}

// ConfirmPayment completes the order once the processor reports the stored intent as
// succeeded for the current total. The cart is emptied with the same transaction and the
// session forgets the order; the caller persists the session.
func (svc *CheckoutService) ConfirmPayment(
	c context.Context,
	rc session.RequestContext,
	param request.ConfirmPayment,
) (orderResponse.Order, error) {
	c, span := otel.Tracer.Start(c, "CheckoutService ConfirmPayment")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CheckoutService ConfirmPayment").
		Str(log.KeyPaymentIntentID, param.PaymentIntentID).
		Str(log.KeyProcess, "entering payment step").
		Logger()

	st, err := svc.enter(c, rc, constants.CheckoutStepPayment)
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return orderResponse.Order{}, err
	}
	logger = logger.With().Str(log.KeyOrderNumber, st.order.OrderNumber).Logger()
	if st.order.PaymentIntentID == "" || st.order.PaymentIntentID != param.PaymentIntentID {
		err = inErrors.NewValidationError("payment_intent_id", "does not belong to the current order")
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return orderResponse.Order{}, err
	}

	logger = logger.With().Str(log.KeyProcess, "verifying payment").Logger()
	amount, err := payment.ToMinorUnits(st.order.TotalPrice)
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return orderResponse.Order{}, err
	}
	intent, err := svc.payments.RetrievePaymentIntent(c, param.PaymentIntentID)
	if err != nil {
		err = fmt.Errorf("failed verifying payment with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return orderResponse.Order{}, err
	}
	switch {
	case intent.Status != payment.StatusSucceeded:
		err = fmt.Errorf("failed verifying payment status=%s with error=%w", intent.Status, ErrPaymentNotSucceeded)
	case intent.ID != st.order.PaymentIntentID || intent.Amount != amount:
		err = fmt.Errorf("failed verifying payment amount=%d expected=%d with error=%w", intent.Amount, amount, ErrPaymentMismatch)
	}
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return orderResponse.Order{}, err
	}
	logger.Trace().Msg("verified payment")

	logger = logger.With().Str(log.KeyProcess, "completing order").Logger()
	var order orderResponse.Order
	err = repository.RunInTx(c, svc.pool, func(q *repository.Queries, tx pgx.Tx) error {
		row, err := completeOrder(c, q, st.order.ID, st.cart.ID, intent)
		if err != nil {
			return err
		}
		order = st.order.WithRow(row)
		return nil
	})
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return orderResponse.Order{}, err
	}
	rc.Session.SetOrderID(0)
	metrics.CheckoutsCompleted.Inc()
	logger.Info().Msg("completed order")

	svc.publishPaid(c, order)

	return order, nil
}

// completeOrder marks the order paid and empties the cart. The order row and then the
// cart row are locked, and the intent is checked again against what is locked, so a cart
// edited or an order re-synced after verification is refused.
func completeOrder(
	c context.Context,
	q *repository.Queries,
	orderID int64,
	cartID int64,
	intent payment.PaymentIntent,
) (repository.Order, error) {
	locked, err := q.FindOrderByIdForUpdate(c, orderID)
	if err != nil {
		if repository.IsNoRows(err) {
			return repository.Order{}, fmt.Errorf("failed locking orderId=%d with error=%w", orderID, inErrors.ErrNotFound)
		}
		return repository.Order{}, fmt.Errorf("failed locking orderId=%d with error=%w", orderID, err)
	}
	if locked.Status != constants.OrderStatusPending {
		return repository.Order{}, fmt.Errorf("failed completing order status=%s with error=%w", locked.Status, inErrors.ErrOrderNotPending)
	}
	amount, err := payment.ToMinorUnits(repository.DecimalFromNumeric(locked.TotalPrice))
	if err != nil {
		return repository.Order{}, err
	}
	if locked.PaymentIntentID.String != intent.ID || amount != intent.Amount {
		return repository.Order{}, fmt.Errorf(
			"failed completing order amount=%d intentAmount=%d with error=%w",
			amount,
			intent.Amount,
			ErrPaymentMismatch,
		)
	}

	if _, err = q.FindCartByIdForUpdate(c, cartID); err != nil {
		if repository.IsNoRows(err) {
			return repository.Order{}, fmt.Errorf("failed locking cartId=%d with error=%w", cartID, inErrors.ErrNotFound)
		}
		return repository.Order{}, fmt.Errorf("failed locking cartId=%d with error=%w", cartID, err)
	}
	same, err := cartMatchesOrder(c, q, cartID, orderID)
	if err != nil {
		return repository.Order{}, err
	}
	if !same {
		return repository.Order{}, fmt.Errorf("failed completing order, cart changed with error=%w", ErrPaymentMismatch)
	}

	row, err := q.MarkOrderPaid(c, orderID)
	if err != nil {
		if repository.IsNoRows(err) {
			return repository.Order{}, fmt.Errorf("failed marking order paid with error=%w", inErrors.ErrOrderNotPending)
		}
		return repository.Order{}, fmt.Errorf("failed marking order paid with error=%w", err)
	}
	if _, err = q.DeleteCartItems(c, cartID); err != nil {
		return repository.Order{}, fmt.Errorf("failed clearing cart with error=%w", err)
	}
	if err = q.TouchCart(c, cartID); err != nil {
		return repository.Order{}, fmt.Errorf("failed touching cart with error=%w", err)
	}
	return row, nil
}

// cartMatchesOrder reports whether the cart holds exactly the products and quantities
// snapshotted into the order.
func cartMatchesOrder(c context.Context, q *repository.Queries, cartID int64, orderID int64) (bool, error) {
	cartItems, err := q.FindCartItems(c, cartID)
	if err != nil {
		return false, fmt.Errorf("failed finding cart items with error=%w", err)
	}
	orderItems, err := q.FindOrderItems(c, orderID)
	if err != nil {
		return false, fmt.Errorf("failed finding order items with error=%w", err)
	}
	if len(cartItems) != len(orderItems) {
		return false, nil
	}

	quantities := make(map[uuid.UUID]int32, len(cartItems))
	for _, item := range cartItems {
		quantities[item.ProductID] = item.Quantity
	}
	for _, item := range orderItems {
		if !item.ProductID.Valid || quantities[item.ProductID.Bytes] != item.Quantity {
			return false, nil
		}
	}
	return true, nil
}

// publishPaid announces a paid order. Delivery is best effort; the order is already
// committed.
func (svc *CheckoutService) publishPaid(c context.Context, order orderResponse.Order) {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CheckoutService publishPaid").
		Str(log.KeyOrderNumber, order.OrderNumber).
		Logger()

	event := response.OrderPaid{
		OrderID:         order.ID,
		OrderNumber:     order.OrderNumber,
		Email:           order.Email,
		TotalPrice:      order.TotalPrice.StringFixed(2),
		PaymentIntentID: order.PaymentIntentID,
	}
	if order.UserID.Valid {
		event.UserID = order.UserID.UUID.String()
	}
	if order.PaidAt != nil {
		event.PaidAt = order.PaidAt.UTC().Format(time.RFC3339)
	}
	payload, err := json.Marshal(event)
	if err != nil {
		logger.Error().Err(err).Msg("failed marshalling order paid event")
		return
	}
	if err = svc.cache.Publish(c, constants.ChannelOrderPaid, payload).Err(); err != nil {
		logger.Error().Err(err).Msg("failed publishing order paid event")
		return
	}
	logger.Trace().Msg("published order paid event")
}
