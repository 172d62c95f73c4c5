package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	inErrors "github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/internal/log"
	inOtel "github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/internal/repository"
	"github.com/Alturino/storefront/user/internal/otel"
	"github.com/Alturino/storefront/user/request"
	"github.com/Alturino/storefront/user/response"
)

type AddressService struct {
	pool    *pgxpool.Pool
	queries *repository.Queries
}

func NewAddressService(pool *pgxpool.Pool, queries *repository.Queries) *AddressService {
	return &AddressService{pool: pool, queries: queries}
}

// SaveAddress stores addr for owner. The first address of a type becomes the owner's
// default and makeDefault moves the default to the new row. Ownerless addresses are never
// defaults. Callers run it inside a transaction.
func SaveAddress(
	c context.Context,
	q *repository.Queries,
	owner uuid.NullUUID,
	addressType string,
	addr request.Address,
	makeDefault bool,
) (repository.Address, error) {
	if !owner.Valid {
		row, err := q.InsertAddress(c, addr.InsertParams(pgtype.UUID{}, addressType, false))
		if err != nil {
			return repository.Address{}, fmt.Errorf("failed inserting address with error=%w", err)
		}
		return row, nil
	}

	count, err := q.CountAddressesByUserIdAndType(c, owner.UUID, addressType)
	if err != nil {
		return repository.Address{}, fmt.Errorf("failed counting addresses with error=%w", err)
	}
	isDefault := makeDefault || count == 0
	if isDefault && count > 0 {
		if err = q.ClearDefaultAddress(c, owner.UUID, addressType); err != nil {
			return repository.Address{}, fmt.Errorf("failed clearing default address with error=%w", err)
		}
	}

	row, err := q.InsertAddress(c, addr.InsertParams(repository.PgUUID(owner.UUID), addressType, isDefault))
	if err != nil {
		return repository.Address{}, fmt.Errorf("failed inserting address with error=%w", err)
	}
	return row, nil
}

// MakeDefault clears the current default of the address type and marks addressID.
func MakeDefault(c context.Context, q *repository.Queries, userID uuid.UUID, addressID int64) (repository.Address, error) {
	addr, err := q.FindAddressByIdAndUserId(c, addressID, userID)
	if err != nil {
		return repository.Address{}, addressLookupErr(addressID, err)
	}
	if addr.IsDefault {
		return addr, nil
	}
	if err = q.ClearDefaultAddress(c, userID, addr.AddressType); err != nil {
		return repository.Address{}, fmt.Errorf("failed clearing default address with error=%w", err)
	}
	addr, err = q.SetDefaultAddress(c, addressID, userID)
	if err != nil {
		return repository.Address{}, fmt.Errorf("failed setting default addressId=%d with error=%w", addressID, err)
	}
	return addr, nil
}

func (svc *AddressService) ListAddresses(c context.Context, userID uuid.UUID) ([]response.Address, error) {
	c, span := otel.Tracer.Start(c, "AddressService ListAddresses")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "AddressService ListAddresses").
		Str(log.KeyUserID, userID.String()).
		Logger()

	rows, err := svc.queries.FindAddressesByUserId(c, userID)
	if err != nil {
		err = fmt.Errorf("failed finding addresses with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	return response.AddressesFromRows(rows), nil
}

func (svc *AddressService) CreateAddress(
	c context.Context,
	userID uuid.UUID,
	param request.CreateAddress,
) (response.Address, error) {
	c, span := otel.Tracer.Start(c, "AddressService CreateAddress")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "AddressService CreateAddress").
		Str(log.KeyUserID, userID.String()).
		Str(log.KeyAddressType, param.AddressType).
		Str(log.KeyProcess, "creating address").
		Logger()

	logger.Trace().Msg("creating address")
	var addr repository.Address
	err := repository.RunInTx(c, svc.pool, func(q *repository.Queries, tx pgx.Tx) error {
		var err error
		addr, err = SaveAddress(
			c,
			q,
			uuid.NullUUID{UUID: userID, Valid: true},
			param.AddressType,
			param.Address,
			param.IsDefault,
		)
		return err
	})
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Address{}, err
	}
	logger.Info().Int64(log.KeyAddressID, addr.ID).Bool("default", addr.IsDefault).Msg("created address")

	return response.AddressFromRow(addr), nil
}

func (svc *AddressService) SetDefaultAddress(c context.Context, userID uuid.UUID, addressID int64) (response.Address, error) {
	c, span := otel.Tracer.Start(c, "AddressService SetDefaultAddress")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "AddressService SetDefaultAddress").
		Str(log.KeyUserID, userID.String()).
		Int64(log.KeyAddressID, addressID).
		Str(log.KeyProcess, "setting default address").
		Logger()

	logger.Trace().Msg("setting default address")
	var addr repository.Address
	err := repository.RunInTx(c, svc.pool, func(q *repository.Queries, tx pgx.Tx) error {
		var err error
		addr, err = MakeDefault(c, q, userID, addressID)
		return err
	})
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Address{}, err
	}
	logger.Info().Msg("set default address")

	return response.AddressFromRow(addr), nil
}

func (svc *AddressService) DeleteAddress(c context.Context, userID uuid.UUID, addressID int64) error {
	c, span := otel.Tracer.Start(c, "AddressService DeleteAddress")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "AddressService DeleteAddress").
		Str(log.KeyUserID, userID.String()).
		Int64(log.KeyAddressID, addressID).
		Logger()

	deleted, err := svc.queries.DeleteAddress(c, addressID, userID)
	if err == nil && deleted == 0 {
		err = inErrors.ErrNotFound
	}
	if err != nil {
		err = fmt.Errorf("failed deleting addressId=%d with error=%w", addressID, err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Info().Msg("deleted address")

	return nil
}

func addressLookupErr(addressID int64, err error) error {
	if repository.IsNoRows(err) {
		return fmt.Errorf("failed finding addressId=%d with error=%w", addressID, inErrors.ErrNotFound)
	}
	return fmt.Errorf("failed finding addressId=%d with error=%w", addressID, err)
}
