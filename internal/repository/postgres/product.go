package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/FordLabs/PeopleMover/internal/domain"
)

const productSelect = `SELECT p.id, p.name, p.space_uuid, p.start_date, p.end_date, p.archived, p.notes, p.url,
		l.id, l.name
	FROM products p
	LEFT JOIN location_tags l ON l.id = p.location_id`

func scanProduct(row pgx.Row) (domain.Product, error) {
	var (
		p            domain.Product
		start, end   *time.Time
		notes, url   *string
		locationID   *int64
		locationName *string
	)
	if err := row.Scan(&p.ID, &p.Name, &p.SpaceUUID, &start, &end, &p.Archived, &notes, &url, &locationID, &locationName); err != nil {
		return p, err
	}
	p.StartDate = domain.DatePtr(start)
	p.EndDate = domain.DatePtr(end)
	p.Notes = stringOrEmpty(notes)
	p.URL = stringOrEmpty(url)
	p.Tags = []domain.Tag{}
	if locationID != nil {
		p.Location = &domain.Tag{ID: *locationID, Name: stringOrEmpty(locationName), SpaceUUID: p.SpaceUUID}
	}
	return p, nil
}

// ListProducts returns the products of a space with location and tags.
func (r *Repository) ListProducts(ctx context.Context, spaceUUID string) ([]domain.Product, error) {
	rows, err := r.pool.Query(ctx, productSelect+` WHERE p.space_uuid = $1 ORDER BY p.id`, spaceUUID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []domain.Product
	index := map[int64]int{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		index[p.ID] = len(products)
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	tags, err := r.productTags(ctx, spaceUUID)
	if err != nil {
		return nil, err
	}
	for productID, productTags := range tags {
		if i, ok := index[productID]; ok {
			products[i].Tags = productTags
		}
	}
	return products, nil
}

func (r *Repository) productTags(ctx context.Context, spaceUUID string) (map[int64][]domain.Tag, error) {
	const query = `SELECT ppt.product_id, t.id, t.name, t.space_uuid
		FROM product_product_tags ppt
		JOIN product_tags t ON t.id = ppt.tag_id
		WHERE t.space_uuid = $1
		ORDER BY ppt.product_id, t.id`
	rows, err := r.pool.Query(ctx, query, spaceUUID)
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

// GetProduct fetches one product of a space.
func (r *Repository) GetProduct(ctx context.Context, spaceUUID string, id int64) (*domain.Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx, productSelect+` WHERE p.space_uuid = $1 AND p.id = $2`, spaceUUID, id))
	if err != nil {
		return nil, mapError(err)
	}
	return &p, nil
}

// GetProductByName fetches a product by case-insensitive name.
func (r *Repository) GetProductByName(ctx context.Context, spaceUUID, name string) (*domain.Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx, productSelect+` WHERE p.space_uuid = $1 AND LOWER(p.name) = LOWER($2)`, spaceUUID, name))
	if err != nil {
		return nil, mapError(err)
	}
	return &p, nil
}

// CreateProduct inserts a product and links its tags.
func (r *Repository) CreateProduct(ctx context.Context, product *domain.Product) error {
	if product == nil {
		return fmt.Errorf("product required")
	}
	return r.inTx(ctx, func(tx pgx.Tx) error {
		const query = `INSERT INTO products (name, space_uuid, start_date, end_date, archived, notes, url, location_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
		if err := tx.QueryRow(ctx, query,
			product.Name,
			product.SpaceUUID,
			domain.TimePtr(product.StartDate),
			domain.TimePtr(product.EndDate),
			product.Archived,
			nilIfEmpty(product.Notes),
			nilIfEmpty(product.URL),
			locationIDOrNil(product.Location),
		).Scan(&product.ID); err != nil {
			return mapError(err)
		}
		if err := replaceProductTags(ctx, tx, product.ID, product.Tags); err != nil {
			return err
		}
		return touchSpace(ctx, tx, product.SpaceUUID)
	})
}

// UpdateProduct rewrites a product and its tags.
func (r *Repository) UpdateProduct(ctx context.Context, product *domain.Product) error {
	if product == nil {
		return fmt.Errorf("product required")
	}
	return r.inTx(ctx, func(tx pgx.Tx) error {
		const query = `UPDATE products
			SET name = $3, start_date = $4, end_date = $5, archived = $6, notes = $7, url = $8, location_id = $9
			WHERE space_uuid = $1 AND id = $2`
		tag, err := tx.Exec(ctx, query,
			product.SpaceUUID,
			product.ID,
			product.Name,
			domain.TimePtr(product.StartDate),
			domain.TimePtr(product.EndDate),
			product.Archived,
			nilIfEmpty(product.Notes),
			nilIfEmpty(product.URL),
			locationIDOrNil(product.Location),
		)
		if err != nil {
			return mapError(err)
		}
		if err := expectAffected(tag); err != nil {
			return err
		}
		if err := replaceProductTags(ctx, tx, product.ID, product.Tags); err != nil {
			return err
		}
		return touchSpace(ctx, tx, product.SpaceUUID)
	})
}

// DeleteProduct removes a product and the assignments pointing at it.
func (r *Repository) DeleteProduct(ctx context.Context, spaceUUID string, id int64) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM assignments WHERE space_uuid = $1 AND product_id = $2`, spaceUUID, id); err != nil {
			return mapError(err)
		}
		tag, err := tx.Exec(ctx, `DELETE FROM products WHERE space_uuid = $1 AND id = $2`, spaceUUID, id)
		if err != nil {
			return mapError(err)
		}
		if err := expectAffected(tag); err != nil {
			return err
		}
		return touchSpace(ctx, tx, spaceUUID)
	})
}

func replaceProductTags(ctx context.Context, tx pgx.Tx, productID int64, tags []domain.Tag) error {
	if _, err := tx.Exec(ctx, `DELETE FROM product_product_tags WHERE product_id = $1`, productID); err != nil {
		return mapError(err)
	}
	if len(tags) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, tag := range tags {
		batch.Queue(`INSERT INTO product_product_tags (product_id, tag_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, productID, tag.ID)
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

func locationIDOrNil(location *domain.Tag) any {
	if location == nil || location.ID == 0 {
		return nil
	}
	return location.ID
}
