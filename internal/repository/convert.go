package repository

import (
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

func NumericFromDecimal(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{
		Int:              d.Coefficient(),
		Exp:              d.Exponent(),
		InfinityModifier: pgtype.Finite,
		NaN:              false,
		Valid:            true,
	}
}

func NullNumericFromDecimal(d decimal.NullDecimal) pgtype.Numeric {
	if !d.Valid {
		return pgtype.Numeric{}
	}
	return NumericFromDecimal(d.Decimal)
}

func DecimalFromNumeric(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid || n.Int == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(n.Int, n.Exp)
}

func NullDecimalFromNumeric(n pgtype.Numeric) decimal.NullDecimal {
	if !n.Valid || n.Int == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(DecimalFromNumeric(n))
}

func PgUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}

func NullUUIDFromPg(id pgtype.UUID) uuid.NullUUID {
	if !id.Valid {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: id.Bytes, Valid: true}
}

func PgText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}
