package repository

import (
	"context"

	"github.com/google/uuid"
)

const productImageColumns = `id, product_id, image, alt_text, is_primary, is_secondary, position, created_at`

func scanProductImage(row interface{ Scan(...interface{}) error }) (ProductImage, error) {
	var i ProductImage
	err := row.Scan(
		&i.ID,
		&i.ProductID,
		&i.Image,
		&i.AltText,
		&i.IsPrimary,
		&i.IsSecondary,
		&i.Position,
		&i.CreatedAt,
	)
	return i, err
}

const insertProductImage = `-- name: InsertProductImage :one
INSERT INTO product_images (product_id, image, alt_text, is_primary, is_secondary, position)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + productImageColumns

type InsertProductImageParams struct {
	ProductID   uuid.UUID `json:"product_id"`
	Image       string    `json:"image"`
	AltText     string    `json:"alt_text"`
	IsPrimary   bool      `json:"is_primary"`
	IsSecondary bool      `json:"is_secondary"`
	Position    int32     `json:"position"`
}

func (q *Queries) InsertProductImage(ctx context.Context, arg InsertProductImageParams) (ProductImage, error) {
	row := q.db.QueryRow(ctx, insertProductImage,
		arg.ProductID,
		arg.Image,
		arg.AltText,
		arg.IsPrimary,
		arg.IsSecondary,
		arg.Position,
	)
	return scanProductImage(row)
}

const clearPrimaryImage = `-- name: ClearPrimaryImage :execrows
UPDATE product_images SET is_primary = FALSE WHERE product_id = $1 AND is_primary`

func (q *Queries) ClearPrimaryImage(ctx context.Context, productID uuid.UUID) (int64, error) {
	result, err := q.db.Exec(ctx, clearPrimaryImage, productID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const clearSecondaryImage = `-- name: ClearSecondaryImage :execrows
UPDATE product_images SET is_secondary = FALSE WHERE product_id = $1 AND is_secondary`

func (q *Queries) ClearSecondaryImage(ctx context.Context, productID uuid.UUID) (int64, error) {
	result, err := q.db.Exec(ctx, clearSecondaryImage, productID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const findProductImages = `-- name: FindProductImages :many
SELECT ` + productImageColumns + ` FROM product_images
WHERE product_id = $1
ORDER BY position, created_at, id`

func (q *Queries) FindProductImages(ctx context.Context, productID uuid.UUID) ([]ProductImage, error) {
	rows, err := q.db.Query(ctx, findProductImages, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []ProductImage{}
	for rows.Next() {
		i, err := scanProductImage(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
