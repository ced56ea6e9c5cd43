package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/FordLabs/PeopleMover/internal/domain"
	"github.com/FordLabs/PeopleMover/internal/repository"
)

func tagTable(kind domain.TagKind) (string, error) {
	switch kind {
	case domain.TagKindProduct:
		return "product_tags", nil
	case domain.TagKindLocation:
		return "location_tags", nil
	case domain.TagKindPerson:
		return "person_tags", nil
	default:
		return "", fmt.Errorf("%w: tag kind %q", repository.ErrInvalidArgument, kind)
	}
}

// ListTags returns the tags of one kind in a space.
func (r *Repository) ListTags(ctx context.Context, kind domain.TagKind, spaceUUID string) ([]domain.Tag, error) {
	table, err := tagTable(kind)
	if err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, `SELECT id, name, space_uuid FROM `+table+` WHERE space_uuid = $1 ORDER BY id`, spaceUUID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []domain.Tag
	for rows.Next() {
		var t domain.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.SpaceUUID); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// CreateTag inserts a tag of the given kind.
func (r *Repository) CreateTag(ctx context.Context, kind domain.TagKind, tag *domain.Tag) error {
	if tag == nil {
		return fmt.Errorf("tag required")
	}
	table, err := tagTable(kind)
	if err != nil {
		return err
	}
	return r.inTx(ctx, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `INSERT INTO `+table+` (name, space_uuid) VALUES ($1, $2) RETURNING id`, tag.Name, tag.SpaceUUID).Scan(&tag.ID); err != nil {
			return mapError(err)
		}
		return touchSpace(ctx, tx, tag.SpaceUUID)
	})
}

// UpdateTag renames a tag.
func (r *Repository) UpdateTag(ctx context.Context, kind domain.TagKind, tag *domain.Tag) error {
	if tag == nil {
		return fmt.Errorf("tag required")
	}
	table, err := tagTable(kind)
	if err != nil {
		return err
	}
	return r.inTx(ctx, func(tx pgx.Tx) error {
		cmd, err := tx.Exec(ctx, `UPDATE `+table+` SET name = $3 WHERE space_uuid = $1 AND id = $2`, tag.SpaceUUID, tag.ID, tag.Name)
		if err != nil {
			return mapError(err)
		}
		if err := expectAffected(cmd); err != nil {
			return err
		}
		return touchSpace(ctx, tx, tag.SpaceUUID)
	})
}

// DeleteTag removes a tag; links to people and products cascade.
func (r *Repository) DeleteTag(ctx context.Context, kind domain.TagKind, spaceUUID string, id int64) error {
	table, err := tagTable(kind)
	if err != nil {
		return err
	}
	return r.inTx(ctx, func(tx pgx.Tx) error {
		cmd, err := tx.Exec(ctx, `DELETE FROM `+table+` WHERE space_uuid = $1 AND id = $2`, spaceUUID, id)
		if err != nil {
			return mapError(err)
		}
		if err := expectAffected(cmd); err != nil {
			return err
		}
		return touchSpace(ctx, tx, spaceUUID)
	})
}
