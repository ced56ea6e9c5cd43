package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/FordLabs/PeopleMover/internal/domain"
)

const spaceColumns = `id, uuid, name, created_by, created_at, last_modified_date, today_view_is_public`

func scanSpace(row pgx.Row) (domain.Space, error) {
	var s domain.Space
	err := row.Scan(&s.ID, &s.UUID, &s.Name, &s.CreatedBy, &s.CreatedAt, &s.LastModifiedDate, &s.TodayViewIsPublic)
	return s, err
}

// CreateSpace inserts a space with its owner mapping and unassigned product.
func (r *Repository) CreateSpace(ctx context.Context, space *domain.Space, ownerID string) error {
	if space == nil {
		return fmt.Errorf("space required")
	}
	return r.inTx(ctx, func(tx pgx.Tx) error {
		const insertSpace = `INSERT INTO spaces (uuid, name, created_by, created_at, last_modified_date, today_view_is_public)
			VALUES ($1, $2, $3, NOW(), NOW(), $4)
			RETURNING ` + spaceColumns
		created, err := scanSpace(tx.QueryRow(ctx, insertSpace, space.UUID, space.Name, space.CreatedBy, space.TodayViewIsPublic))
		if err != nil {
			return mapError(err)
		}
		*space = created

		if _, err := tx.Exec(ctx, `INSERT INTO user_space_mappings (user_id, space_uuid, permission) VALUES ($1, $2, $3)`,
			ownerID, space.UUID, domain.PermissionOwner); err != nil {
			return mapError(err)
		}
		if _, err := tx.Exec(ctx, `INSERT INTO products (name, space_uuid) VALUES ($1, $2)`,
			domain.UnassignedProductName, space.UUID); err != nil {
			return mapError(err)
		}
		return nil
	})
}

// GetSpaceByUUID fetches a space by its public identifier.
func (r *Repository) GetSpaceByUUID(ctx context.Context, uuid string) (*domain.Space, error) {
	s, err := scanSpace(r.pool.QueryRow(ctx, `SELECT `+spaceColumns+` FROM spaces WHERE uuid = $1`, uuid))
	if err != nil {
		return nil, mapError(err)
	}
	return &s, nil
}

// GetSpaceByName fetches a space by case-insensitive name.
func (r *Repository) GetSpaceByName(ctx context.Context, name string) (*domain.Space, error) {
	s, err := scanSpace(r.pool.QueryRow(ctx, `SELECT `+spaceColumns+` FROM spaces WHERE LOWER(name) = LOWER($1) ORDER BY id LIMIT 1`, name))
	if err != nil {
		return nil, mapError(err)
	}
	return &s, nil
}

// ListSpaces returns every space.
func (r *Repository) ListSpaces(ctx context.Context) ([]domain.Space, error) {
	return r.querySpaces(ctx, `SELECT `+spaceColumns+` FROM spaces ORDER BY id`)
}

// ListSpacesByUser returns spaces the user is mapped to.
func (r *Repository) ListSpacesByUser(ctx context.Context, userID string) ([]domain.Space, error) {
	const query = `SELECT s.id, s.uuid, s.name, s.created_by, s.created_at, s.last_modified_date, s.today_view_is_public
		FROM spaces s
		JOIN user_space_mappings m ON m.space_uuid = s.uuid
		WHERE m.user_id = $1
		ORDER BY s.id`
	return r.querySpaces(ctx, query, userID)
}

func (r *Repository) querySpaces(ctx context.Context, query string, args ...any) ([]domain.Space, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var spaces []domain.Space
	for rows.Next() {
		s, err := scanSpace(rows)
		if err != nil {
			return nil, err
		}
		spaces = append(spaces, s)
	}
	return spaces, rows.Err()
}

// UpdateSpace mutates the space name and public flag.
func (r *Repository) UpdateSpace(ctx context.Context, space *domain.Space) error {
	if space == nil {
		return fmt.Errorf("space required")
	}
	const query = `UPDATE spaces
		SET name = $2,
			today_view_is_public = $3,
			last_modified_date = NOW()
		WHERE uuid = $1
		RETURNING ` + spaceColumns
	updated, err := scanSpace(r.pool.QueryRow(ctx, query, space.UUID, space.Name, space.TodayViewIsPublic))
	if err != nil {
		return mapError(err)
	}
	*space = updated
	return nil
}

// DeleteSpace removes a space; dependent rows cascade.
func (r *Repository) DeleteSpace(ctx context.Context, uuid string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM spaces WHERE uuid = $1`, uuid)
	if err != nil {
		return mapError(err)
	}
	return expectAffected(tag)
}

// GetMapping returns the user's mapping for a space.
func (r *Repository) GetMapping(ctx context.Context, userID, spaceUUID string) (*domain.UserSpaceMapping, error) {
	const query = `SELECT id, user_id, space_uuid, permission FROM user_space_mappings WHERE user_id = $1 AND space_uuid = $2`
	var m domain.UserSpaceMapping
	if err := r.pool.QueryRow(ctx, query, userID, spaceUUID).Scan(&m.ID, &m.UserID, &m.SpaceUUID, &m.Permission); err != nil {
		return nil, mapError(err)
	}
	return &m, nil
}

// ListMappingsBySpace returns the members of a space.
func (r *Repository) ListMappingsBySpace(ctx context.Context, spaceUUID string) ([]domain.UserSpaceMapping, error) {
	return r.queryMappings(ctx, `SELECT id, user_id, space_uuid, permission FROM user_space_mappings WHERE space_uuid = $1 ORDER BY id`, spaceUUID)
}

// ListMappings returns every user-space mapping.
func (r *Repository) ListMappings(ctx context.Context) ([]domain.UserSpaceMapping, error) {
	return r.queryMappings(ctx, `SELECT id, user_id, space_uuid, permission FROM user_space_mappings ORDER BY id`)
}

func (r *Repository) queryMappings(ctx context.Context, query string, args ...any) ([]domain.UserSpaceMapping, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var mappings []domain.UserSpaceMapping
	for rows.Next() {
		var m domain.UserSpaceMapping
		if err := rows.Scan(&m.ID, &m.UserID, &m.SpaceUUID, &m.Permission); err != nil {
			return nil, err
		}
		mappings = append(mappings, m)
	}
	return mappings, rows.Err()
}

// UpsertMapping grants or changes a user's permission on a space.
func (r *Repository) UpsertMapping(ctx context.Context, mapping *domain.UserSpaceMapping) error {
	if mapping == nil {
		return fmt.Errorf("mapping required")
	}
	return r.inTx(ctx, func(tx pgx.Tx) error {
		const query = `INSERT INTO user_space_mappings (user_id, space_uuid, permission)
			VALUES ($1, $2, $3)
			ON CONFLICT (user_id, space_uuid) DO UPDATE SET permission = EXCLUDED.permission
			RETURNING id`
		if err := tx.QueryRow(ctx, query, mapping.UserID, mapping.SpaceUUID, mapping.Permission).Scan(&mapping.ID); err != nil {
			return mapError(err)
		}
		return touchSpace(ctx, tx, mapping.SpaceUUID)
	})
}

// DeleteMapping revokes a user's access to a space.
func (r *Repository) DeleteMapping(ctx context.Context, userID, spaceUUID string) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM user_space_mappings WHERE user_id = $1 AND space_uuid = $2`, userID, spaceUUID)
		if err != nil {
			return mapError(err)
		}
		if err := expectAffected(tag); err != nil {
			return err
		}
		return touchSpace(ctx, tx, spaceUUID)
	})
}
