package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/FordLabs/PeopleMover/internal/domain"
)

const personSelect = `SELECT p.id, p.name, p.notes, p.new_person, p.space_uuid,
		r.id, r.name, c.id, c.color
	FROM people p
	LEFT JOIN space_roles r ON r.id = p.space_role_id
	LEFT JOIN colors c ON c.id = r.color_id`

// personRow holds the nullable role columns of a joined person.
type personRow struct {
	person    domain.Person
	roleID    *int64
	roleName  *string
	colorID   *int64
	colorName *string
}

func (p *personRow) targets() []any {
	return []any{&p.person.ID, &p.person.Name, &p.person.Notes, &p.person.NewPerson, &p.person.SpaceUUID,
		&p.roleID, &p.roleName, &p.colorID, &p.colorName}
}

func (p *personRow) build() domain.Person {
	person := p.person
	person.Tags = []domain.Tag{}
	if p.roleID != nil {
		role := &domain.SpaceRole{ID: *p.roleID, Name: stringOrEmpty(p.roleName), SpaceUUID: person.SpaceUUID}
		if p.colorID != nil {
			role.Color = &domain.Color{ID: *p.colorID, Color: stringOrEmpty(p.colorName)}
		}
		person.SpaceRole = role
	}
	return person
}

// ListPeople returns the people of a space with roles and tags.
func (r *Repository) ListPeople(ctx context.Context, spaceUUID string) ([]domain.Person, error) {
	rows, err := r.pool.Query(ctx, personSelect+` WHERE p.space_uuid = $1 ORDER BY p.id`, spaceUUID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var people []domain.Person
	index := map[int64]int{}
	for rows.Next() {
		var row personRow
		if err := rows.Scan(row.targets()...); err != nil {
			return nil, err
		}
		index[row.person.ID] = len(people)
		people = append(people, row.build())
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	tags, err := r.personTags(ctx, spaceUUID, nil)
	if err != nil {
		return nil, err
	}
	for personID, personTags := range tags {
		if i, ok := index[personID]; ok {
			people[i].Tags = personTags
		}
	}
	return people, nil
}

// GetPerson fetches one person of a space.
func (r *Repository) GetPerson(ctx context.Context, spaceUUID string, id int64) (*domain.Person, error) {
	var row personRow
	if err := r.pool.QueryRow(ctx, personSelect+` WHERE p.space_uuid = $1 AND p.id = $2`, spaceUUID, id).Scan(row.targets()...); err != nil {
		return nil, mapError(err)
	}
	person := row.build()
	tags, err := r.personTags(ctx, spaceUUID, &id)
	if err != nil {
		return nil, err
	}
	if t, ok := tags[id]; ok {
		person.Tags = t
	}
	return &person, nil
}

func (r *Repository) personTags(ctx context.Context, spaceUUID string, personID *int64) (map[int64][]domain.Tag, error) {
	const query = `SELECT ppt.person_id, t.id, t.name, t.space_uuid
		FROM person_person_tags ppt
		JOIN person_tags t ON t.id = ppt.tag_id
		WHERE t.space_uuid = $1 AND ($2::bigint IS NULL OR ppt.person_id = $2)
		ORDER BY ppt.person_id, t.id`
	rows, err := r.pool.Query(ctx, query, spaceUUID, personID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[int64][]domain.Tag{}
	for rows.Next() {
		var owner int64
		var tag domain.Tag
		if err := rows.Scan(&owner, &tag.ID, &tag.Name, &tag.SpaceUUID); err != nil {
			return nil, err
		}
		out[owner] = append(out[owner], tag)
	}
	return out, rows.Err()
}

// CountPeople returns the number of people in a space.
func (r *Repository) CountPeople(ctx context.Context, spaceUUID string) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(1) FROM people WHERE space_uuid = $1`, spaceUUID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// CreatePerson inserts a person and links their tags.
func (r *Repository) CreatePerson(ctx context.Context, person *domain.Person) error {
	if person == nil {
		return fmt.Errorf("person required")
	}
	return r.inTx(ctx, func(tx pgx.Tx) error {
		const query = `INSERT INTO people (name, notes, new_person, space_role_id, space_uuid)
			VALUES ($1, $2, $3, $4, $5) RETURNING id`
		if err := tx.QueryRow(ctx, query, person.Name, person.Notes, person.NewPerson, roleIDOrNil(person.SpaceRole), person.SpaceUUID).Scan(&person.ID); err != nil {
			return mapError(err)
		}
		if err := replacePersonTags(ctx, tx, person.ID, person.Tags); err != nil {
			return err
		}
		return touchSpace(ctx, tx, person.SpaceUUID)
	})
}

// UpdatePerson rewrites a person and their tags.
func (r *Repository) UpdatePerson(ctx context.Context, person *domain.Person) error {
	if person == nil {
		return fmt.Errorf("person required")
	}
	return r.inTx(ctx, func(tx pgx.Tx) error {
		const query = `UPDATE people
			SET name = $3, notes = $4, new_person = $5, space_role_id = $6
			WHERE space_uuid = $1 AND id = $2`
		tag, err := tx.Exec(ctx, query, person.SpaceUUID, person.ID, person.Name, person.Notes, person.NewPerson, roleIDOrNil(person.SpaceRole))
		if err != nil {
			return mapError(err)
		}
		if err := expectAffected(tag); err != nil {
			return err
		}
		if err := replacePersonTags(ctx, tx, person.ID, person.Tags); err != nil {
			return err
		}
		return touchSpace(ctx, tx, person.SpaceUUID)
	})
}

// DeletePerson removes a person and every assignment they hold.
func (r *Repository) DeletePerson(ctx context.Context, spaceUUID string, id int64) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM assignments WHERE space_uuid = $1 AND person_id = $2`, spaceUUID, id); err != nil {
			return mapError(err)
		}
		tag, err := tx.Exec(ctx, `DELETE FROM people WHERE space_uuid = $1 AND id = $2`, spaceUUID, id)
		if err != nil {
			return mapError(err)
		}
		if err := expectAffected(tag); err != nil {
			return err
		}
		return touchSpace(ctx, tx, spaceUUID)
	})
}

func replacePersonTags(ctx context.Context, tx pgx.Tx, personID int64, tags []domain.Tag) error {
	if _, err := tx.Exec(ctx, `DELETE FROM person_person_tags WHERE person_id = $1`, personID); err != nil {
		return mapError(err)
	}
	if len(tags) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, tag := range tags {
		batch.Queue(`INSERT INTO person_person_tags (person_id, tag_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, personID, tag.ID)
	}
	br := tx.SendBatch(ctx, batch)
	for range tags {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return mapError(err)
		}
	}
	return br.Close()
}

func roleIDOrNil(role *domain.SpaceRole) any {
	if role == nil || role.ID == 0 {
		return nil
	}
	return role.ID
}
