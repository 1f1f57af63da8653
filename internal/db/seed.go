package db

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// seedSchema validates catalog seed files before anything touches the
// database, so a malformed file fails fast with item-level messages instead of
// half-applied inserts.
const seedSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"properties": {
		"phases": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["code", "description"],
				"properties": {
					"code": {"type": "string", "minLength": 1},
					"description": {"type": "string"},
					"checklist": {
						"type": "array",
						"items": {
							"type": "object",
							"required": ["description"],
							"properties": {
								"description": {"type": "string", "minLength": 1},
								"mandatory": {"type": "boolean"}
							}
						}
					}
				}
			}
		},
		"products": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["code", "recipe"],
				"properties": {
					"code": {"type": "string", "minLength": 1},
					"description": {"type": "string"},
					"recipe": {
						"type": "array",
						"minItems": 1,
						"items": {
							"type": "object",
							"required": ["phase", "ordinal"],
							"properties": {
								"phase": {"type": "string", "minLength": 1},
								"ordinal": {"type": "integer", "minimum": 1},
								"estimated_minutes": {"type": "integer", "minimum": 0},
								"shelf_life_hours": {"type": "integer", "minimum": 0}
							}
						}
					}
				}
			}
		},
		"machines": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["code"],
				"properties": {
					"code": {"type": "string", "minLength": 1},
					"description": {"type": "string"},
					"sector": {"type": "string"}
				}
			}
		}
	}
}`

// Seed is a catalog bootstrap file: phases with their checklists, products
// with their recipes (referencing phases by code), and machines.
type Seed struct {
	Phases []struct {
		Code        string `json:"code"`
		Description string `json:"description"`
		Checklist   []struct {
			Description string `json:"description"`
			Mandatory   *bool  `json:"mandatory"`
		} `json:"checklist"`
	} `json:"phases"`
	Products []struct {
		Code        string `json:"code"`
		Description string `json:"description"`
		Recipe      []struct {
			Phase            string `json:"phase"`
			Ordinal          int    `json:"ordinal"`
			EstimatedMinutes int    `json:"estimated_minutes"`
			ShelfLifeHours   *int   `json:"shelf_life_hours"`
		} `json:"recipe"`
	} `json:"products"`
	Machines []struct {
		Code        string `json:"code"`
		Description string `json:"description"`
		Sector      string `json:"sector"`
	} `json:"machines"`
}

// ParseSeed validates raw JSON against the seed schema and decodes it
func ParseSeed(raw []byte) (*Seed, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(seedSchema),
		gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to validate seed file: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, fmt.Errorf("invalid seed file: %s", strings.Join(msgs, "; "))
	}

	var seed Seed
	if err := json.Unmarshal(raw, &seed); err != nil {
		return nil, fmt.Errorf("failed to decode seed file: %w", err)
	}
	return &seed, nil
}

// ApplySeed upserts the seed's catalog entries. Existing codes are updated in
// place, and recipes are replaced wholesale so re-running a seed file is safe.
func (db *DB) ApplySeed(ctx context.Context, seed *Seed) error {
	for _, p := range seed.Phases {
		var phaseID string
		err := db.pool.QueryRow(ctx,
			`INSERT INTO phases (code, description)
			 VALUES ($1, $2)
			 ON CONFLICT (code) DO UPDATE SET description = EXCLUDED.description, active = TRUE
			 RETURNING id`,
			p.Code, p.Description).Scan(&phaseID)
		if err != nil {
			return fmt.Errorf("failed to seed phase %s: %w", p.Code, err)
		}
		for i, item := range p.Checklist {
			mandatory := true
			if item.Mandatory != nil {
				mandatory = *item.Mandatory
			}
			var exists bool
			err := db.pool.QueryRow(ctx,
				`SELECT EXISTS (
					SELECT 1 FROM checklist_items
					WHERE phase_id = $1 AND description = $2 AND active
				 )`, phaseID, item.Description).Scan(&exists)
			if err != nil {
				return fmt.Errorf("failed to seed checklist for phase %s: %w", p.Code, err)
			}
			if exists {
				continue
			}
			if _, err := db.pool.Exec(ctx,
				`INSERT INTO checklist_items (phase_id, description, mandatory, ordinal)
				 VALUES ($1, $2, $3, $4)`,
				phaseID, item.Description, mandatory, i+1); err != nil {
				return fmt.Errorf("failed to seed checklist for phase %s: %w", p.Code, err)
			}
		}
	}

	for _, prod := range seed.Products {
		var productID string
		err := db.pool.QueryRow(ctx,
			`INSERT INTO products (code, description)
			 VALUES ($1, $2)
			 ON CONFLICT (code) DO UPDATE SET description = EXCLUDED.description, active = TRUE
			 RETURNING id`,
			prod.Code, prod.Description).Scan(&productID)
		if err != nil {
			return fmt.Errorf("failed to seed product %s: %w", prod.Code, err)
		}

		if _, err := db.pool.Exec(ctx,
			`UPDATE recipe_steps SET active = FALSE WHERE product_id = $1 AND active`,
			productID); err != nil {
			return fmt.Errorf("failed to replace recipe for product %s: %w", prod.Code, err)
		}
		for _, step := range prod.Recipe {
			tag, err := db.pool.Exec(ctx,
				`INSERT INTO recipe_steps (product_id, phase_id, ordinal, estimated_minutes, shelf_life_hours)
				 SELECT $1, id, $3, $4, $5 FROM phases WHERE code = $2 AND active`,
				productID, step.Phase, step.Ordinal, step.EstimatedMinutes, step.ShelfLifeHours)
			if err != nil {
				return fmt.Errorf("failed to seed recipe for product %s: %w", prod.Code, err)
			}
			if tag.RowsAffected() == 0 {
				return fmt.Errorf("seed recipe for product %s references unknown phase %q", prod.Code, step.Phase)
			}
		}
	}

	for _, m := range seed.Machines {
		if _, err := db.pool.Exec(ctx,
			`INSERT INTO machines (code, description, sector)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (code) DO UPDATE
			 SET description = EXCLUDED.description, sector = EXCLUDED.sector, active = TRUE`,
			m.Code, m.Description, m.Sector); err != nil {
			return fmt.Errorf("failed to seed machine %s: %w", m.Code, err)
		}
	}
	return nil
}
