package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jakechorley/rotation-control/pkg/core/model"
	"github.com/jakechorley/rotation-control/pkg/db"
)

// GetPersonnel retrieves all personnel records
func (d *DB) GetPersonnel(ctx context.Context) ([]model.Personnel, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, first_name, last_name, email, department, status
		FROM personnel
		ORDER BY first_name, last_name, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query personnel: %w", err)
	}
	defer rows.Close()

	var personnel []model.Personnel
	for rows.Next() {
		var p model.Personnel
		if err := rows.Scan(&p.ID, &p.FirstName, &p.LastName, &p.Email, &p.Department, &p.Status); err != nil {
			return nil, fmt.Errorf("failed to scan personnel: %w", err)
		}
		personnel = append(personnel, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating personnel: %w", err)
	}

	return personnel, nil
}

// GetPersonnelByID retrieves one personnel record, returning db.ErrNotFound if absent
func (d *DB) GetPersonnelByID(ctx context.Context, id string) (*model.Personnel, error) {
	var p model.Personnel
	err := d.pool.QueryRow(ctx, `
		SELECT id, first_name, last_name, email, department, status
		FROM personnel
		WHERE id = $1
	`, id).Scan(&p.ID, &p.FirstName, &p.LastName, &p.Email, &p.Department, &p.Status)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("personnel %s: %w", id, db.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get personnel: %w", err)
	}
	return &p, nil
}

// UpsertPersonnel inserts or refreshes personnel records in a single transaction
func (d *DB) UpsertPersonnel(ctx context.Context, personnel []model.Personnel) error {
	if len(personnel) == 0 {
		return nil
	}

	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, p := range personnel {
		_, err := tx.Exec(ctx, `
			INSERT INTO personnel (id, first_name, last_name, email, department, status)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id) DO UPDATE SET
				first_name = EXCLUDED.first_name,
				last_name = EXCLUDED.last_name,
				email = EXCLUDED.email,
				department = EXCLUDED.department,
				status = EXCLUDED.status
		`, p.ID, p.FirstName, p.LastName, p.Email, p.Department, p.Status)
		if err != nil {
			return fmt.Errorf("failed to upsert personnel %s: %w", p.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
