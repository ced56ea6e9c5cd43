package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/FordLabs/PeopleMover/internal/domain"
)

const assignmentSelect = `SELECT a.id, a.product_id, a.placeholder, a.space_uuid, a.effective_date,
		p.id, p.name, p.notes, p.new_person, p.space_uuid,
		r.id, r.name, c.id, c.color
	FROM assignments a
	JOIN people p ON p.id = a.person_id
	LEFT JOIN space_roles r ON r.id = p.space_role_id
	LEFT JOIN colors c ON c.id = r.color_id`

func scanAssignment(row pgx.Row) (domain.Assignment, error) {
	var (
		a         domain.Assignment
		effective *time.Time
		person    personRow
	)
	targets := append([]any{&a.ID, &a.ProductID, &a.Placeholder, &a.SpaceUUID, &effective}, person.targets()...)
	if err := row.Scan(targets...); err != nil {
		return a, err
	}
	a.EffectiveDate = domain.DatePtr(effective)
	a.Person = person.build()
	return a, nil
}

func queryAssignments(ctx context.Context, q querier, query string, args ...any) ([]domain.Assignment, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assignments []domain.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

// ListAssignmentsForPerson returns a person's full history, baseline first.
func (r *Repository) ListAssignmentsForPerson(ctx context.Context, spaceUUID string, personID int64) ([]domain.Assignment, error) {
	return queryAssignments(ctx, r.pool, assignmentSelect+`
		WHERE a.space_uuid = $1 AND a.person_id = $2
		ORDER BY a.effective_date ASC NULLS FIRST, a.id ASC`, spaceUUID, personID)
}

// ListAssignmentsByDate returns the batches recorded exactly at date.
func (r *Repository) ListAssignmentsByDate(ctx context.Context, spaceUUID string, date domain.Date) ([]domain.Assignment, error) {
	return queryAssignments(ctx, r.pool, assignmentSelect+`
		WHERE a.space_uuid = $1 AND a.effective_date = $2
		ORDER BY a.id ASC`, spaceUUID, date.Time())
}

// ListAssignmentsBySpace returns every assignment of a space.
func (r *Repository) ListAssignmentsBySpace(ctx context.Context, spaceUUID string) ([]domain.Assignment, error) {
	return queryAssignments(ctx, r.pool, assignmentSelect+`
		WHERE a.space_uuid = $1
		ORDER BY a.effective_date ASC NULLS FIRST, a.id ASC`, spaceUUID)
}

// GetAssignment fetches one assignment.
func (r *Repository) GetAssignment(ctx context.Context, spaceUUID string, id int64) (*domain.Assignment, error) {
	a, err := scanAssignment(r.pool.QueryRow(ctx, assignmentSelect+` WHERE a.space_uuid = $1 AND a.id = $2`, spaceUUID, id))
	if err != nil {
		return nil, mapError(err)
	}
	return &a, nil
}

// ReplaceAssignmentsForDate swaps the person's batch at date for assignments.
func (r *Repository) ReplaceAssignmentsForDate(ctx context.Context, spaceUUID string, personID int64, date domain.Date, assignments []domain.Assignment) ([]domain.Assignment, error) {
	var stored []domain.Assignment
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM assignments WHERE space_uuid = $1 AND person_id = $2 AND effective_date = $3`,
			spaceUUID, personID, date.Time()); err != nil {
			return mapError(err)
		}
		ids := make([]int64, 0, len(assignments))
		for _, a := range assignments {
			var id int64
			const insert = `INSERT INTO assignments (person_id, product_id, placeholder, space_uuid, effective_date)
				VALUES ($1, $2, $3, $4, $5) RETURNING id`
			if err := tx.QueryRow(ctx, insert, personID, a.ProductID, a.Placeholder, spaceUUID, date.Time()).Scan(&id); err != nil {
				return mapError(err)
			}
			ids = append(ids, id)
		}
		if err := touchSpace(ctx, tx, spaceUUID); err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		var err error
		stored, err = queryAssignments(ctx, tx, assignmentSelect+` WHERE a.id = ANY($1) ORDER BY a.id`, ids)
		return err
	})
	if err != nil {
		return nil, err
	}
	return stored, nil
}

// DeleteAssignmentsForDate removes the person's batch at date.
func (r *Repository) DeleteAssignmentsForDate(ctx context.Context, spaceUUID string, personID int64, date domain.Date) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM assignments WHERE space_uuid = $1 AND person_id = $2 AND effective_date = $3`,
			spaceUUID, personID, date.Time()); err != nil {
			return mapError(err)
		}
		return touchSpace(ctx, tx, spaceUUID)
	})
}

// DeleteAssignmentsForPerson removes every assignment of a person.
func (r *Repository) DeleteAssignmentsForPerson(ctx context.Context, spaceUUID string, personID int64) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM assignments WHERE space_uuid = $1 AND person_id = $2`, spaceUUID, personID); err != nil {
			return mapError(err)
		}
		return touchSpace(ctx, tx, spaceUUID)
	})
}

// UpdateAssignment rewrites product, placeholder and effective date of an assignment.
func (r *Repository) UpdateAssignment(ctx context.Context, assignment *domain.Assignment) error {
	if assignment == nil {
		return fmt.Errorf("assignment required")
	}
	return r.inTx(ctx, func(tx pgx.Tx) error {
		const query = `UPDATE assignments SET product_id = $3, placeholder = $4, effective_date = $5
			WHERE space_uuid = $1 AND id = $2`
		tag, err := tx.Exec(ctx, query, assignment.SpaceUUID, assignment.ID, assignment.ProductID, assignment.Placeholder,
			domain.TimePtr(assignment.EffectiveDate))
		if err != nil {
			return mapError(err)
		}
		if err := expectAffected(tag); err != nil {
			return err
		}
		return touchSpace(ctx, tx, assignment.SpaceUUID)
	})
}
