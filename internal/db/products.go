package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CreateProduct inserts a catalog product
func (db *DB) CreateProduct(ctx context.Context, code, description string) (*Product, error) {
	var p Product
	err := db.pool.QueryRow(ctx,
		`INSERT INTO products (code, description)
		 VALUES ($1, $2)
		 RETURNING id, code, description, active, created_at`,
		code, description,
	).Scan(&p.ID, &p.Code, &p.Description, &p.Active, &p.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, "") {
			return nil, &DuplicateCodeError{Entity: "product", Code: code}
		}
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return &p, nil
}

// GetProduct retrieves an active product by ID
func (db *DB) GetProduct(ctx context.Context, id uuid.UUID) (*Product, error) {
	var p Product
	err := db.pool.QueryRow(ctx,
		`SELECT id, code, description, active, created_at
		 FROM products WHERE id = $1 AND active`, id,
	).Scan(&p.ID, &p.Code, &p.Description, &p.Active, &p.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &p, nil
}

// ListProducts retrieves active products ordered by code
func (db *DB) ListProducts(ctx context.Context) ([]Product, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, code, description, active, created_at
		 FROM products WHERE active ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Code, &p.Description, &p.Active, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// UpdateProduct updates a product's code and description
func (db *DB) UpdateProduct(ctx context.Context, id uuid.UUID, code, description string) (*Product, error) {
	var p Product
	err := db.pool.QueryRow(ctx,
		`UPDATE products SET code = $2, description = $3
		 WHERE id = $1 AND active
		 RETURNING id, code, description, active, created_at`,
		id, code, description,
	).Scan(&p.ID, &p.Code, &p.Description, &p.Active, &p.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, &NotFoundError{Entity: "product", ID: id}
		}
		if isUniqueViolation(err, "") {
			return nil, &DuplicateCodeError{Entity: "product", Code: code}
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return &p, nil
}

// DeactivateProduct soft-deletes a product
func (db *DB) DeactivateProduct(ctx context.Context, id uuid.UUID) error {
	tag, err := db.pool.Exec(ctx,
		`UPDATE products SET active = FALSE WHERE id = $1 AND active`, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &NotFoundError{Entity: "product", ID: id}
	}
	return nil
}

// RecipeStepInput is one entry of a product recipe being written
type RecipeStepInput struct {
	PhaseID          uuid.UUID
	Ordinal          int
	EstimatedMinutes int
	ShelfLifeHours   *int
}

// ListRecipeSteps returns a product's active recipe ordered by ordinal, then
// by creation order for steps that tie.
func (db *DB) ListRecipeSteps(ctx context.Context, productID uuid.UUID) ([]RecipeStep, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT rs.id, rs.product_id, rs.phase_id, ph.code, ph.description,
		        rs.ordinal, rs.estimated_minutes, rs.shelf_life_hours, rs.active, rs.created_at
		 FROM recipe_steps rs
		 JOIN phases ph ON ph.id = rs.phase_id
		 WHERE rs.product_id = $1 AND rs.active AND ph.active
		 ORDER BY rs.ordinal, rs.created_at`,
		productID)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipe steps: %w", err)
	}
	defer rows.Close()

	var steps []RecipeStep
	for rows.Next() {
		var s RecipeStep
		if err := rows.Scan(&s.ID, &s.ProductID, &s.PhaseID, &s.PhaseCode, &s.PhaseDescription,
			&s.Ordinal, &s.EstimatedMinutes, &s.ShelfLifeHours, &s.Active, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan recipe step: %w", err)
		}
		steps = append(steps, s)
	}
	return steps, rows.Err()
}

// ReplaceRecipeSteps atomically replaces a product's recipe: the previous
// steps are deactivated and the new sequence inserted. Existing batch phases
// are not touched; they are materialized copies.
func (db *DB) ReplaceRecipeSteps(ctx context.Context, productID uuid.UUID, steps []RecipeStepInput) error {
	product, err := db.GetProduct(ctx, productID)
	if err != nil {
		return err
	}
	if product == nil {
		return &NotFoundError{Entity: "product", ID: productID}
	}

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`UPDATE recipe_steps SET active = FALSE WHERE product_id = $1 AND active`,
		productID); err != nil {
		return fmt.Errorf("failed to retire recipe steps: %w", err)
	}

	for _, s := range steps {
		if _, err := tx.Exec(ctx,
			`INSERT INTO recipe_steps (product_id, phase_id, ordinal, estimated_minutes, shelf_life_hours)
			 VALUES ($1, $2, $3, $4, $5)`,
			productID, s.PhaseID, s.Ordinal, s.EstimatedMinutes, s.ShelfLifeHours); err != nil {
			return fmt.Errorf("failed to insert recipe step: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// EstimatedMinutes looks up the estimated duration of one phase within a
// product's recipe; ok is false when the phase is not part of the recipe.
func (db *DB) EstimatedMinutes(ctx context.Context, productID, phaseID uuid.UUID) (int, bool, error) {
	var minutes int
	err := db.pool.QueryRow(ctx,
		`SELECT estimated_minutes FROM recipe_steps
		 WHERE product_id = $1 AND phase_id = $2 AND active
		 ORDER BY created_at LIMIT 1`,
		productID, phaseID,
	).Scan(&minutes)
	if err != nil {
		if err == pgx.ErrNoRows {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to look up estimated minutes: %w", err)
	}
	return minutes, true, nil
}
