package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/FordLabs/PeopleMover/internal/domain"
)

const roleSelect = `SELECT r.id, r.name, r.space_uuid, c.id, c.color
	FROM space_roles r
	LEFT JOIN colors c ON c.id = r.color_id`

func scanRole(row pgx.Row) (domain.SpaceRole, error) {
	var (
		role      domain.SpaceRole
		colorID   *int64
		colorName *string
	)
	if err := row.Scan(&role.ID, &role.Name, &role.SpaceUUID, &colorID, &colorName); err != nil {
		return role, err
	}
	if colorID != nil {
		role.Color = &domain.Color{ID: *colorID, Color: stringOrEmpty(colorName)}
	}
	return role, nil
}

// ListRoles returns the roles of a space.
func (r *Repository) ListRoles(ctx context.Context, spaceUUID string) ([]domain.SpaceRole, error) {
	rows, err := r.pool.Query(ctx, roleSelect+` WHERE r.space_uuid = $1 ORDER BY r.id`, spaceUUID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []domain.SpaceRole
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// GetRole fetches one role of a space.
func (r *Repository) GetRole(ctx context.Context, spaceUUID string, id int64) (*domain.SpaceRole, error) {
	role, err := scanRole(r.pool.QueryRow(ctx, roleSelect+` WHERE r.space_uuid = $1 AND r.id = $2`, spaceUUID, id))
	if err != nil {
		return nil, mapError(err)
	}
	return &role, nil
}

// CreateRole inserts a role.
func (r *Repository) CreateRole(ctx context.Context, role *domain.SpaceRole) error {
	if role == nil {
		return fmt.Errorf("role required")
	}
	return r.inTx(ctx, func(tx pgx.Tx) error {
		const query = `INSERT INTO space_roles (name, space_uuid, color_id) VALUES ($1, $2, $3) RETURNING id`
		if err := tx.QueryRow(ctx, query, role.Name, role.SpaceUUID, colorIDOrNil(role.Color)).Scan(&role.ID); err != nil {
			return mapError(err)
		}
		return touchSpace(ctx, tx, role.SpaceUUID)
	})
}

// UpdateRole renames or recolors a role.
func (r *Repository) UpdateRole(ctx context.Context, role *domain.SpaceRole) error {
	if role == nil {
		return fmt.Errorf("role required")
	}
	return r.inTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE space_roles SET name = $3, color_id = $4 WHERE space_uuid = $1 AND id = $2`,
			role.SpaceUUID, role.ID, role.Name, colorIDOrNil(role.Color))
		if err != nil {
			return mapError(err)
		}
		if err := expectAffected(tag); err != nil {
			return err
		}
		return touchSpace(ctx, tx, role.SpaceUUID)
	})
}

// DeleteRole removes a role; people holding it keep no role.
func (r *Repository) DeleteRole(ctx context.Context, spaceUUID string, id int64) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM space_roles WHERE space_uuid = $1 AND id = $2`, spaceUUID, id)
		if err != nil {
			return mapError(err)
		}
		if err := expectAffected(tag); err != nil {
			return err
		}
		return touchSpace(ctx, tx, spaceUUID)
	})
}

// ListColors returns the global palette.
func (r *Repository) ListColors(ctx context.Context) ([]domain.Color, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, color FROM colors ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var colors []domain.Color
	for rows.Next() {
		var c domain.Color
		if err := rows.Scan(&c.ID, &c.Color); err != nil {
			return nil, err
		}
		colors = append(colors, c)
	}
	return colors, rows.Err()
}

func colorIDOrNil(color *domain.Color) any {
	if color == nil || color.ID == 0 {
		return nil
	}
	return color.ID
}
