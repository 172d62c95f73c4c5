package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/internal/constants"
	inErrors "github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/metrics"
	inOtel "github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/internal/repository"
	"github.com/Alturino/storefront/internal/session"
	"github.com/Alturino/storefront/internal/validate"
	"github.com/Alturino/storefront/order/internal/otel"
	"github.com/Alturino/storefront/order/request"
	"github.com/Alturino/storefront/order/response"
)

type OrderService struct {
	pool    *pgxpool.Pool
	queries *repository.Queries
}

func NewOrderService(pool *pgxpool.Pool, queries *repository.Queries) *OrderService {
	return &OrderService{pool: pool, queries: queries}
}

func load(c context.Context, q *repository.Queries, order repository.Order) (response.Order, error) {
	items, err := q.FindOrderItems(c, order.ID)
	if err != nil {
		return response.Order{}, fmt.Errorf("failed finding items of orderId=%d with error=%w", order.ID, err)
	}
	return response.FromRows(order, items), nil
}

// insertOrder takes the next order number from the counter row. The number is only
// consumed when the surrounding transaction commits.
func insertOrder(c context.Context, q *repository.Queries, params repository.InsertOrderParams) (repository.Order, error) {
	next, err := q.NextOrderNumber(c)
	if err != nil {
		return repository.Order{}, fmt.Errorf("failed taking next order number with error=%w", err)
	}
	params.OrderNumber = fmt.Sprintf(constants.OrderNumberFormat, next)
	order, err := q.InsertOrder(c, params)
	if err != nil {
		return repository.Order{}, fmt.Errorf("failed inserting order with error=%w", err)
	}
	return order, nil
}

// GetOrCreateOrder returns the pending order of the request. Authenticated users have at
// most one pending order. Anonymous visitors keep theirs in the session, which the caller
// persists.
func (svc *OrderService) GetOrCreateOrder(c context.Context, rc session.RequestContext) (response.Order, bool, error) {
	c, span := otel.Tracer.Start(c, "OrderService GetOrCreateOrder")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "OrderService GetOrCreateOrder").Logger()

	switch owner := rc.Owner().(type) {
	case session.Owned:
		logger = logger.With().
			Str(log.KeyUserID, owner.UserID.String()).
			Str(log.KeyProcess, "resolving user order").
			Logger()

		var order response.Order
		var created bool
		err := repository.RunInTx(c, svc.pool, func(q *repository.Queries, tx pgx.Tx) error {
			row, isNew, err := pendingUserOrder(c, q, tx, owner.UserID)
			if err != nil {
				return err
			}
			created = isNew
			order, err = load(c, q, row)
			return err
		})
		if err != nil {
			err = fmt.Errorf("failed resolving user order with error=%w", err)
			inOtel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return response.Order{}, false, err
		}
		if created {
			metrics.OrdersCreated.WithLabelValues(metrics.OwnerUser).Inc()
		}
		logger.Trace().Str(log.KeyOrderNumber, order.OrderNumber).Bool("created", created).Msg("resolved user order")
		return order, created, nil

	case session.Anonymous:
		logger = logger.With().
			Int64(log.KeyOrderID, rc.Session.OrderID).
			Str(log.KeyProcess, "resolving anonymous order").
			Logger()

		if rc.Session.OrderID != 0 {
			row, err := svc.queries.FindAnonymousPendingOrderById(c, rc.Session.OrderID)
			switch {
			case err == nil:
				order, err := load(c, svc.queries, row)
				if err != nil {
					inOtel.RecordError(err, span)
					logger.Error().Err(err).Msg(err.Error())
					return response.Order{}, false, err
				}
				return order, false, nil
			case repository.IsNoRows(err):
				logger.Debug().Msg("session order is gone or no longer pending")
			default:
				err = fmt.Errorf("failed finding anonymous order with error=%w", err)
				inOtel.RecordError(err, span)
				logger.Error().Err(err).Msg(err.Error())
				return response.Order{}, false, err
			}
		}

		var order repository.Order
		err := repository.RunInTx(c, svc.pool, func(q *repository.Queries, tx pgx.Tx) error {
			var err error
			order, err = insertOrder(c, q, repository.InsertOrderParams{UserID: pgtype.UUID{}})
			return err
		})
		if err != nil {
			err = fmt.Errorf("failed creating anonymous order with error=%w", err)
			inOtel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return response.Order{}, false, err
		}
		metrics.OrdersCreated.WithLabelValues(metrics.OwnerAnonymous).Inc()
		rc.Session.SetOrderID(order.ID)
		logger.Info().Str(log.KeyOrderNumber, order.OrderNumber).Msg("created anonymous order")
		return response.FromRows(order, nil), true, nil
	}

	return response.Order{}, false, fmt.Errorf("unknown order owner %T", rc.Owner())
}

func pendingUserOrder(c context.Context, q *repository.Queries, tx pgx.Tx, userID uuid.UUID) (repository.Order, bool, error) {
	order, err := q.FindPendingOrderByUserId(c, userID)
	if err == nil {
		return order, false, nil
	}
	if !repository.IsNoRows(err) {
		return repository.Order{}, false, fmt.Errorf("failed finding pending order with error=%w", err)
	}

	user, err := q.FindUserById(c, userID)
	if err != nil {
		if repository.IsNoRows(err) {
			return repository.Order{}, false, fmt.Errorf("failed finding userId=%s with error=%w", userID, inErrors.ErrUserNotFound)
		}
		return repository.Order{}, false, fmt.Errorf("failed finding userId=%s with error=%w", userID, err)
	}

	err = repository.Savepoint(c, tx, func(sq *repository.Queries) error {
		order, err = insertOrder(c, sq, repository.InsertOrderParams{
			UserID:    repository.PgUUID(userID),
			Email:     user.Email,
			FirstName: user.FirstName,
			LastName:  user.LastName,
			Phone:     user.Phone,
		})
		return err
	})
	if err == nil {
		return order, true, nil
	}
	if !repository.IsUniqueViolation(err) {
		return repository.Order{}, false, err
	}

	zerolog.Ctx(c).Debug().Str(log.KeyUserID, userID.String()).Msg("lost pending order race, retrying lookup")
	order, err = q.FindPendingOrderByUserId(c, userID)
	if err != nil {
		return repository.Order{}, false, fmt.Errorf("failed finding pending order after conflict with error=%w", err)
	}
	return order, false, nil
}

// SyncWithCart replaces the order lines with a snapshot of the cart and recomputes the
// total. Running it twice without cart changes yields the same lines and total.
func (svc *OrderService) SyncWithCart(c context.Context, orderID int64, cartID int64) (response.Order, error) {
	c, span := otel.Tracer.Start(c, "OrderService SyncWithCart")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderService SyncWithCart").
		Int64(log.KeyOrderID, orderID).
		Int64(log.KeyCartID, cartID).
		Str(log.KeyProcess, "syncing order with cart").
		Logger()

	logger.Trace().Msg("syncing order with cart")
	var order response.Order
	err := repository.RunInTx(c, svc.pool, func(q *repository.Queries, tx pgx.Tx) error {
		row, err := q.FindOrderByIdForUpdate(c, orderID)
		if err != nil {
			return orderLookupErr(orderID, err)
		}
		if row.Status != constants.OrderStatusPending {
			return fmt.Errorf("failed syncing order status=%s with error=%w", row.Status, inErrors.ErrOrderNotPending)
		}
		if _, err = q.DeleteOrderItems(c, orderID); err != nil {
			return fmt.Errorf("failed deleting order items with error=%w", err)
		}
		if _, err = q.SnapshotCartIntoOrder(c, orderID, cartID); err != nil {
			return fmt.Errorf("failed copying cart into order with error=%w", err)
		}
		row, err = q.RecomputeOrderTotal(c, orderID)
		if err != nil {
			return fmt.Errorf("failed recomputing order total with error=%w", err)
		}
		order, err = load(c, q, row)
		return err
	})
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Order{}, err
	}
	logger.Info().Stringer(log.KeyTotalPrice, order.TotalPrice).Int("items", len(order.Items)).Msg("synced order with cart")

	return order, nil
}

func (svc *OrderService) FindOrder(c context.Context, orderID int64) (response.Order, error) {
	c, span := otel.Tracer.Start(c, "OrderService FindOrder")
	defer span.End()

	row, err := svc.queries.FindOrderById(c, orderID)
	if err != nil {
		err = orderLookupErr(orderID, err)
		inOtel.RecordError(err, span)
		zerolog.Ctx(c).Error().Err(err).Str(log.KeyTag, "OrderService FindOrder").Msg(err.Error())
		return response.Order{}, err
	}
	return load(c, svc.queries, row)
}

func (svc *OrderService) ListOrders(c context.Context, userID uuid.UUID) ([]response.Order, error) {
	c, span := otel.Tracer.Start(c, "OrderService ListOrders")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderService ListOrders").
		Str(log.KeyUserID, userID.String()).
		Str(log.KeyProcess, "finding orders").
		Logger()

	logger.Trace().Msg("finding orders")
	rows, err := svc.queries.FindOrdersByUserId(c, userID)
	if err != nil {
		err = fmt.Errorf("failed finding orders with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}

	orders := make([]response.Order, len(rows))
	for i, row := range rows {
		if orders[i], err = load(c, svc.queries, row); err != nil {
			inOtel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return nil, err
		}
	}
	logger.Trace().Int("count", len(orders)).Msg("found orders")

	return orders, nil
}

func (svc *OrderService) FindOrderByNumber(c context.Context, userID uuid.UUID, orderNumber string) (response.Order, error) {
	c, span := otel.Tracer.Start(c, "OrderService FindOrderByNumber")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderService FindOrderByNumber").
		Str(log.KeyUserID, userID.String()).
		Str(log.KeyOrderNumber, orderNumber).
		Logger()

	row, err := svc.queries.FindOrderByNumberAndUserId(c, orderNumber, userID)
	if err != nil {
		if repository.IsNoRows(err) {
			err = fmt.Errorf("failed finding order number=%s with error=%w", orderNumber, inErrors.ErrNotFound)
		} else {
			err = fmt.Errorf("failed finding order number=%s with error=%w", orderNumber, err)
		}
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Order{}, err
	}

	order, err := load(c, svc.queries, row)
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Order{}, err
	}
	return order, nil
}

// ShipOrder records the shipment of a paid order and moves it to SHIPPED.
func (svc *OrderService) ShipOrder(c context.Context, param request.ShipOrder) (response.Order, error) {
	c, span := otel.Tracer.Start(c, "OrderService ShipOrder")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderService ShipOrder").
		Str(log.KeyOrderNumber, param.OrderNumber).
		Str("trackingNumber", param.TrackingNumber).
		Str(log.KeyProcess, "validating shipment").
		Logger()

	if err := validate.StructCtx(c, param); err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Order{}, err
	}
	eta := pgtype.Date{}
	if param.EstimatedDelivery != "" {
		parsed, err := time.Parse(time.DateOnly, param.EstimatedDelivery)
		if err != nil {
			err = inErrors.NewValidationError("estimated_delivery", "must be a date formatted as YYYY-MM-DD")
			inOtel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return response.Order{}, err
		}
		eta = pgtype.Date{Time: parsed, Valid: true}
	}

	logger = logger.With().Str(log.KeyProcess, "shipping order").Logger()
	logger.Trace().Msg("shipping order")
	var order response.Order
	err := repository.RunInTx(c, svc.pool, func(q *repository.Queries, tx pgx.Tx) error {
		row, err := q.FindOrderByNumberForUpdate(c, param.OrderNumber)
		if err != nil {
			if repository.IsNoRows(err) {
				return fmt.Errorf("failed finding order number=%s with error=%w", param.OrderNumber, inErrors.ErrNotFound)
			}
			return fmt.Errorf("failed finding order number=%s with error=%w", param.OrderNumber, err)
		}
		if row.Status != constants.OrderStatusProcessing {
			return fmt.Errorf("failed shipping order status=%s with error=%w", row.Status, inErrors.ErrOrderNotShippable)
		}
		row, err = q.ShipOrder(c, repository.ShipOrderParams{
			ID:                row.ID,
			TrackingNumber:    param.TrackingNumber,
			EstimatedDelivery: eta,
		})
		if err != nil {
			return fmt.Errorf("failed shipping order with error=%w", err)
		}
		order, err = load(c, q, row)
		return err
	})
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Order{}, err
	}
	logger.Info().Msg("shipped order")

	return order, nil
}

func orderLookupErr(orderID int64, err error) error {
	if repository.IsNoRows(err) {
		return fmt.Errorf("failed finding orderId=%d with error=%w", orderID, inErrors.ErrNotFound)
	}
	return fmt.Errorf("failed finding orderId=%d with error=%w", orderID, err)
}
