package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/cart/internal/otel"
	"github.com/Alturino/storefront/cart/request"
	"github.com/Alturino/storefront/cart/response"
	"github.com/Alturino/storefront/internal/constants"
	inErrors "github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/metrics"
	inOtel "github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/internal/repository"
	"github.com/Alturino/storefront/internal/session"
)

// CartBinder claims the cart slot of a session.
type CartBinder interface {
	BindCart(c context.Context, sess *session.Session, cartID int64) (int64, error)
}

type CartService struct {
	pool     *pgxpool.Pool
	queries  *repository.Queries
	sessions CartBinder
}

func NewCartService(pool *pgxpool.Pool, queries *repository.Queries, sessions CartBinder) *CartService {
	return &CartService{pool: pool, queries: queries, sessions: sessions}
}

func load(c context.Context, q *repository.Queries, cart repository.Cart) (response.Cart, error) {
	rows, err := q.FindCartItems(c, cart.ID)
	if err != nil {
		return response.Cart{}, fmt.Errorf("failed finding cart items of cartId=%d with error=%w", cart.ID, err)
	}
	return response.FromRows(cart, rows), nil
}

// userCart returns the single cart of userID, creating it when missing. A concurrent
// creation loses on the carts_user_id_key index inside a savepoint and the lookup is
// retried in the same transaction.
func userCart(c context.Context, q *repository.Queries, tx pgx.Tx, userID uuid.UUID) (repository.Cart, bool, error) {
	cart, err := q.FindCartByUserId(c, userID)
	if err == nil {
		return cart, false, nil
	}
	if !repository.IsNoRows(err) {
		return repository.Cart{}, false, fmt.Errorf("failed finding cart of userId=%s with error=%w", userID, err)
	}

	err = repository.Savepoint(c, tx, func(sq *repository.Queries) error {
		cart, err = sq.InsertCart(c, repository.PgUUID(userID))
		return err
	})
	if err == nil {
		metrics.CartsCreated.WithLabelValues(metrics.OwnerUser).Inc()
		return cart, true, nil
	}
	if !repository.IsUniqueViolation(err) {
		return repository.Cart{}, false, fmt.Errorf("failed inserting cart of userId=%s with error=%w", userID, err)
	}

	zerolog.Ctx(c).Debug().Str(log.KeyUserID, userID.String()).Msg("lost cart creation race, retrying lookup")
	cart, err = q.FindCartByUserId(c, userID)
	if err != nil {
		return repository.Cart{}, false, fmt.Errorf("failed finding cart of userId=%s after conflict with error=%w", userID, err)
	}
	return cart, false, nil
}

// ResolveCart returns the cart the request works on, creating it when needed, and points
// the session at it. The caller persists the session.
func (svc *CartService) ResolveCart(c context.Context, rc session.RequestContext) (response.Cart, bool, error) {
	c, span := otel.Tracer.Start(c, "CartService ResolveCart")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService ResolveCart").
		Logger()

	switch owner := rc.Owner().(type) {
	case session.Owned:
		logger = logger.With().
			Str(log.KeyUserID, owner.UserID.String()).
			Str(log.KeyProcess, "resolving user cart").
			Logger()
		logger.Trace().Msg("resolving user cart")

		var cart response.Cart
		var created bool
		err := repository.RunInTx(c, svc.pool, func(q *repository.Queries, tx pgx.Tx) error {
			row, isNew, err := userCart(c, q, tx, owner.UserID)
			if err != nil {
				return err
			}
			created = isNew
			cart, err = load(c, q, row)
			return err
		})
		if err != nil {
			err = fmt.Errorf("failed resolving user cart with error=%w", err)
			inOtel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return response.Cart{}, false, err
		}
		rc.Session.SetCartID(cart.ID)
		logger.Trace().Int64(log.KeyCartID, cart.ID).Bool(log.KeyCartCreated, created).Msg("resolved user cart")
		return cart, created, nil

	case session.Anonymous:
		logger = logger.With().
			Int64(log.KeyAnonymousCartID, owner.CartID).
			Str(log.KeyProcess, "resolving anonymous cart").
			Logger()
		logger.Trace().Msg("resolving anonymous cart")

		if owner.CartID != 0 {
			row, err := svc.queries.FindAnonymousCartById(c, owner.CartID)
			switch {
			case err == nil:
				cart, err := load(c, svc.queries, row)
				if err != nil {
					inOtel.RecordError(err, span)
					logger.Error().Err(err).Msg(err.Error())
					return response.Cart{}, false, err
				}
				logger.Trace().Msg("resolved anonymous cart")
				return cart, false, nil
			case repository.IsNoRows(err):
				logger.Debug().Msg("session cart is gone or owned, creating a new one")
			default:
				err = fmt.Errorf("failed finding anonymous cart with error=%w", err)
				inOtel.RecordError(err, span)
				logger.Error().Err(err).Msg(err.Error())
				return response.Cart{}, false, err
			}
		}

		cart, created, err := svc.createAnonymousCart(c, rc.Session)
		if err != nil {
			err = fmt.Errorf("failed creating anonymous cart with error=%w", err)
			inOtel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return response.Cart{}, false, err
		}
		logger.Trace().Int64(log.KeyCartID, cart.ID).Bool(log.KeyCartCreated, created).Msg("resolved anonymous cart")
		return cart, created, nil
	}

	return response.Cart{}, false, fmt.Errorf("unknown cart owner %T", rc.Owner())
}

// createAnonymousCart inserts an ownerless cart and binds it to the session. The insert is
// committed before binding so a concurrent loser can read the winner. A losing cart is
// deleted.
func (svc *CartService) createAnonymousCart(c context.Context, sess *session.Session) (response.Cart, bool, error) {
	logger := zerolog.Ctx(c)

	row, err := svc.queries.InsertCart(c, pgtype.UUID{})
	if err != nil {
		return response.Cart{}, false, fmt.Errorf("failed inserting cart with error=%w", err)
	}

	bound, err := svc.sessions.BindCart(c, sess, row.ID)
	if err != nil {
		if _, delErr := svc.queries.DeleteCart(c, row.ID); delErr != nil {
			logger.Error().Err(delErr).Int64(log.KeyCartID, row.ID).Msg("failed deleting unbound cart")
		}
		return response.Cart{}, false, err
	}
	if bound == row.ID {
		metrics.CartsCreated.WithLabelValues(metrics.OwnerAnonymous).Inc()
		return response.FromRows(row, nil), true, nil
	}

	logger.Debug().Int64(log.KeyCartID, bound).Msg("lost session cart race, discarding new cart")
	if _, err = svc.queries.DeleteCart(c, row.ID); err != nil {
		return response.Cart{}, false, fmt.Errorf("failed deleting discarded cart with error=%w", err)
	}
	winner, err := svc.queries.FindCartById(c, bound)
	if err != nil {
		return response.Cart{}, false, fmt.Errorf("failed finding bound cartId=%d with error=%w", bound, err)
	}
	cart, err := load(c, svc.queries, winner)
	return cart, false, err
}

func (svc *CartService) FindCart(c context.Context, cartID int64) (response.Cart, error) {
	c, span := otel.Tracer.Start(c, "CartService FindCart")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService FindCart").
		Int64(log.KeyCartID, cartID).
		Logger()

	row, err := svc.queries.FindCartById(c, cartID)
	if err != nil {
		if repository.IsNoRows(err) {
			err = fmt.Errorf("failed finding cartId=%d with error=%w", cartID, inErrors.ErrNotFound)
		} else {
			err = fmt.Errorf("failed finding cartId=%d with error=%w", cartID, err)
		}
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}

	cart, err := load(c, svc.queries, row)
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}
	return cart, nil
}

// addItem adds to an existing line. A line summed past MaxItemQuantity is refused.
func addItem(c context.Context, q *repository.Queries, cartID int64, productID uuid.UUID, quantity int32) error {
	if err := checkQuantity("quantity", quantity); err != nil {
		return err
	}

	product, err := q.FindProductById(c, productID)
	if err != nil {
		if repository.IsNoRows(err) {
			return fmt.Errorf("failed finding productId=%s with error=%w", productID, inErrors.ErrNotFound)
		}
		return fmt.Errorf("failed finding productId=%s with error=%w", productID, err)
	}
	if !product.IsAvailable {
		return inErrors.NewValidationError("product_id", "product is not available")
	}

	item, err := q.UpsertCartItem(c, repository.UpsertCartItemParams{
		CartID:    cartID,
		ProductID: productID,
		Quantity:  quantity,
	})
	if err != nil {
		return fmt.Errorf("failed upserting cart item with error=%w", err)
	}
	if item.Quantity > constants.MaxItemQuantity {
		return inErrors.NewValidationError(
			"quantity",
			fmt.Sprintf("cannot exceed %d of one product", constants.MaxItemQuantity),
		)
	}
	return nil
}

func checkQuantity(field string, quantity int32) error {
	switch {
	case quantity < 1:
		return inErrors.NewValidationError(field, "must be greater than or equal to 1")
	case quantity > constants.MaxItemQuantity:
		return inErrors.NewValidationError(
			field,
			fmt.Sprintf("must be less than or equal to %d", constants.MaxItemQuantity),
		)
	}
	return nil
}

func (svc *CartService) AddItem(
	c context.Context,
	cartID int64,
	productID uuid.UUID,
	quantity int32,
) (response.Cart, error) {
	c, span := otel.Tracer.Start(c, "CartService AddItem")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService AddItem").
		Int64(log.KeyCartID, cartID).
		Str(log.KeyProductID, productID.String()).
		Int32(log.KeyQuantity, quantity).
		Str(log.KeyProcess, "adding item").
		Logger()

	logger.Trace().Msg("adding item")
	var cart response.Cart
	err := repository.RunInTx(c, svc.pool, func(q *repository.Queries, tx pgx.Tx) error {
		row, err := q.FindCartByIdForUpdate(c, cartID)
		if err != nil {
			return cartLookupErr(cartID, err)
		}
		if err = addItem(c, q, cartID, productID, quantity); err != nil {
			return err
		}
		if err = q.TouchCart(c, cartID); err != nil {
			return fmt.Errorf("failed touching cart with error=%w", err)
		}
		cart, err = load(c, q, row)
		return err
	})
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}
	logger.Info().Msg("added item")

	return cart, nil
}

func (svc *CartService) UpdateQuantity(
	c context.Context,
	cartID int64,
	productID uuid.UUID,
	quantity int32,
) (response.Cart, error) {
	c, span := otel.Tracer.Start(c, "CartService UpdateQuantity")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService UpdateQuantity").
		Int64(log.KeyCartID, cartID).
		Str(log.KeyProductID, productID.String()).
		Int32(log.KeyQuantity, quantity).
		Str(log.KeyProcess, "updating quantity").
		Logger()

	logger.Trace().Msg("updating quantity")
	var cart response.Cart
	err := repository.RunInTx(c, svc.pool, func(q *repository.Queries, tx pgx.Tx) error {
		row, err := q.FindCartByIdForUpdate(c, cartID)
		if err != nil {
			return cartLookupErr(cartID, err)
		}
		if err = updateQuantity(c, q, cartID, productID, quantity); err != nil {
			return err
		}
		if err = q.TouchCart(c, cartID); err != nil {
			return fmt.Errorf("failed touching cart with error=%w", err)
		}
		cart, err = load(c, q, row)
		return err
	})
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}
	logger.Info().Msg("updated quantity")

	return cart, nil
}

func updateQuantity(c context.Context, q *repository.Queries, cartID int64, productID uuid.UUID, quantity int32) error {
	if err := checkQuantity("quantity", quantity); err != nil {
		return err
	}
	if _, err := q.UpdateCartItemQuantity(c, repository.UpdateCartItemQuantityParams{
		CartID:    cartID,
		ProductID: productID,
		Quantity:  quantity,
	}); err != nil {
		if repository.IsNoRows(err) {
			return fmt.Errorf("failed finding productId=%s in cart with error=%w", productID, inErrors.ErrNotFound)
		}
		return fmt.Errorf("failed updating cart item with error=%w", err)
	}
	return nil
}

func removeItem(c context.Context, q *repository.Queries, cartID int64, productID uuid.UUID) error {
	deleted, err := q.DeleteCartItem(c, cartID, productID)
	if err != nil {
		return fmt.Errorf("failed deleting cart item with error=%w", err)
	}
	if deleted == 0 {
		return fmt.Errorf("failed finding productId=%s in cart with error=%w", productID, inErrors.ErrNotFound)
	}
	return nil
}

func (svc *CartService) RemoveItem(c context.Context, cartID int64, productID uuid.UUID) (response.Cart, error) {
	c, span := otel.Tracer.Start(c, "CartService RemoveItem")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService RemoveItem").
		Int64(log.KeyCartID, cartID).
		Str(log.KeyProductID, productID.String()).
		Str(log.KeyProcess, "removing item").
		Logger()

	logger.Trace().Msg("removing item")
	var cart response.Cart
	err := repository.RunInTx(c, svc.pool, func(q *repository.Queries, tx pgx.Tx) error {
		row, err := q.FindCartByIdForUpdate(c, cartID)
		if err != nil {
			return cartLookupErr(cartID, err)
		}
		if err = removeItem(c, q, cartID, productID); err != nil {
			return err
		}
		if err = q.TouchCart(c, cartID); err != nil {
			return fmt.Errorf("failed touching cart with error=%w", err)
		}
		cart, err = load(c, q, row)
		return err
	})
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}
	logger.Info().Msg("removed item")

	return cart, nil
}

// UpdateQuantities applies every line or none. A zero quantity removes the line.
func (svc *CartService) UpdateQuantities(
	c context.Context,
	cartID int64,
	items []request.UpdateItem,
) (response.Cart, error) {
	c, span := otel.Tracer.Start(c, "CartService UpdateQuantities")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService UpdateQuantities").
		Int64(log.KeyCartID, cartID).
		Any(log.KeyCartItems, items).
		Str(log.KeyProcess, "updating quantities").
		Logger()

	logger.Trace().Msg("updating quantities")
	var cart response.Cart
	err := repository.RunInTx(c, svc.pool, func(q *repository.Queries, tx pgx.Tx) error {
		row, err := q.FindCartByIdForUpdate(c, cartID)
		if err != nil {
			return cartLookupErr(cartID, err)
		}
		for i, item := range items {
			switch {
			case item.Quantity < 0:
				return inErrors.NewValidationError(
					fmt.Sprintf("items[%d].quantity", i),
					"must be greater than or equal to 0",
				)
			case item.Quantity == 0:
				err = removeItem(c, q, cartID, item.ProductID)
			default:
				if err = checkQuantity(fmt.Sprintf("items[%d].quantity", i), item.Quantity); err != nil {
					return err
				}
				err = updateQuantity(c, q, cartID, item.ProductID, item.Quantity)
			}
			if err != nil {
				return err
			}
		}
		if err = q.TouchCart(c, cartID); err != nil {
			return fmt.Errorf("failed touching cart with error=%w", err)
		}
		cart, err = load(c, q, row)
		return err
	})
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}
	logger.Info().Msg("updated quantities")

	return cart, nil
}

func cartLookupErr(cartID int64, err error) error {
	if repository.IsNoRows(err) {
		return fmt.Errorf("failed finding cartId=%d with error=%w", cartID, inErrors.ErrNotFound)
	}
	return fmt.Errorf("failed finding cartId=%d with error=%w", cartID, err)
}
