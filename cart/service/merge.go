package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/cart/internal/otel"
	"github.com/Alturino/storefront/cart/response"
	"github.com/Alturino/storefront/internal/constants"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/metrics"
	inOtel "github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/internal/repository"
	"github.com/Alturino/storefront/internal/session"
)

// MergeOnLogin folds the session's anonymous cart into the user's cart and deletes it.
// A session cart owned by another user is left alone. Everything happens in one
// transaction; on failure the anonymous cart survives untouched. Merged lines are capped
// at the per product maximum.
func (svc *CartService) MergeOnLogin(
	c context.Context,
	rc session.RequestContext,
	userID uuid.UUID,
) (response.Cart, error) {
	c, span := otel.Tracer.Start(c, "CartService MergeOnLogin")
	defer span.End()

	anonymousCartID := rc.Session.CartID
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService MergeOnLogin").
		Str(log.KeyUserID, userID.String()).
		Int64(log.KeyAnonymousCartID, anonymousCartID).
		Str(log.KeyProcess, "merging carts").
		Logger()

	logger.Trace().Msg("merging carts")
	outcome := metrics.OutcomeNoop
	var cart response.Cart
	err := repository.RunInTx(c, svc.pool, func(q *repository.Queries, tx pgx.Tx) error {
		outcome = metrics.OutcomeNoop

		userRow, _, err := userCart(c, q, tx, userID)
		if err != nil {
			return err
		}

		if anonymousCartID != 0 && anonymousCartID != userRow.ID {
			anonymous, err := q.FindCartByIdForUpdate(c, anonymousCartID)
			switch {
			case repository.IsNoRows(err):
				logger.Debug().Msg("session cart no longer exists")
			case err != nil:
				return fmt.Errorf("failed locking anonymous cart with error=%w", err)
			case !anonymous.UserID.Valid:
				items, err := q.FindCartItems(c, anonymous.ID)
				if err != nil {
					return fmt.Errorf("failed finding anonymous cart items with error=%w", err)
				}
				for _, item := range items {
					merged, err := q.UpsertCartItem(c, repository.UpsertCartItemParams{
						CartID:    userRow.ID,
						ProductID: item.ProductID,
						Quantity:  item.Quantity,
					})
					if err != nil {
						return fmt.Errorf("failed merging productId=%s with error=%w", item.ProductID, err)
					}
					if merged.Quantity <= constants.MaxItemQuantity {
						continue
					}
					if _, err = q.UpdateCartItemQuantity(c, repository.UpdateCartItemQuantityParams{
						CartID:    userRow.ID,
						ProductID: item.ProductID,
						Quantity:  constants.MaxItemQuantity,
					}); err != nil {
						return fmt.Errorf("failed capping productId=%s with error=%w", item.ProductID, err)
					}
				}
				if _, err = q.DeleteCart(c, anonymous.ID); err != nil {
					return fmt.Errorf("failed deleting anonymous cart with error=%w", err)
				}
				if err = q.TouchCart(c, userRow.ID); err != nil {
					return fmt.Errorf("failed touching cart with error=%w", err)
				}
				outcome = metrics.OutcomeMerged
			case anonymous.UserID.Bytes != userID:
				logger.Warn().Msg("session cart belongs to another user, not merging")
				outcome = metrics.OutcomeDiscarded
			}
		}

		cart, err = load(c, q, userRow)
		return err
	})
	if err != nil {
		err = fmt.Errorf("failed merging carts with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}
	metrics.CartMerges.WithLabelValues(outcome).Inc()
	rc.Session.SetCartID(cart.ID)
	logger.Info().Int64(log.KeyCartID, cart.ID).Str("outcome", outcome).Msg("merged carts")

	return cart, nil
}

// ResetOnLogout gives the session a fresh anonymous cart and forgets its pending order.
func (svc *CartService) ResetOnLogout(c context.Context, rc session.RequestContext) (response.Cart, error) {
	c, span := otel.Tracer.Start(c, "CartService ResetOnLogout")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService ResetOnLogout").
		Str(log.KeyProcess, "creating anonymous cart").
		Logger()

	logger.Trace().Msg("creating anonymous cart")
	row, err := svc.queries.InsertCart(c, pgtype.UUID{})
	if err != nil {
		err = fmt.Errorf("failed creating anonymous cart with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}
	metrics.CartsCreated.WithLabelValues(metrics.OwnerAnonymous).Inc()

	rc.Session.SetCartID(row.ID)
	rc.Session.SetOrderID(0)
	logger.Info().Int64(log.KeyCartID, row.ID).Msg("created anonymous cart")

	return response.FromRows(row, nil), nil
}
