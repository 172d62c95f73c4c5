package testutil

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/Alturino/storefront/internal/repository"
)

const Password = "password"

func SeedUser(t *testing.T, c context.Context, q *repository.Queries, email string) repository.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed hashing password with error: %s", err)
	}
	user, err := q.InsertUser(c, repository.InsertUserParams{
		Username:  email,
		Email:     email,
		Password:  string(hashed),
		FirstName: "Jane",
		LastName:  "Doe",
		Phone:     "+15550100",
	})
	if err != nil {
		t.Fatalf("failed inserting user with error: %s", err)
	}
	return user
}

func SeedCategory(t *testing.T, c context.Context, q *repository.Queries, parentID int32, slug string) repository.Category {
	t.Helper()
	parent := pgtype.Int4{}
	if parentID != 0 {
		parent = pgtype.Int4{Int32: parentID, Valid: true}
	}
	category, err := q.InsertCategory(c, repository.InsertCategoryParams{ParentID: parent, Name: slug, Slug: slug})
	if err != nil {
		t.Fatalf("failed inserting category with error: %s", err)
	}
	return category
}

type ProductSeed struct {
	CategoryID  int32
	MaterialID  int32
	Slug        string
	Price       string
	Unavailable bool
}

func SeedProduct(t *testing.T, c context.Context, q *repository.Queries, seed ProductSeed) repository.Product {
	t.Helper()
	material := pgtype.Int4{}
	if seed.MaterialID != 0 {
		material = pgtype.Int4{Int32: seed.MaterialID, Valid: true}
	}
	product, err := q.InsertProduct(c, repository.InsertProductParams{
		CategoryID:  seed.CategoryID,
		MaterialID:  material,
		Name:        seed.Slug,
		Slug:        seed.Slug,
		Description: "description of " + seed.Slug,
		Price:       repository.NumericFromDecimal(decimal.RequireFromString(seed.Price)),
		IsAvailable: !seed.Unavailable,
		Stock:       100,
	})
	if err != nil {
		t.Fatalf("failed inserting product with error: %s", err)
	}
	return product
}
