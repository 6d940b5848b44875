package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/Richwell111/auth2/internal/core/domain"
)

// PostgresRepository implements ports.MembershipRepository using PostgreSQL.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates and returns a new PostgresRepository instance.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// ListBySubject returns all memberships for a subject ordered by join time
// descending, so the first row is the most recently joined tenant.
func (r *PostgresRepository) ListBySubject(ctx context.Context, subjectID string) ([]domain.TenantMembership, error) {
	query := `SELECT id, user_id, organization_id, role, joined_at FROM tenant_members
	          WHERE user_id = $1 ORDER BY joined_at DESC`

	rows, errQuery := r.db.QueryContext(ctx, query, subjectID)
	if errQuery != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMembershipUnavailable, errQuery)
	}
	defer func() {
		if errClose := rows.Close(); errClose != nil {
			log.Printf("failed to close rows: %v", errClose)
		}
	}()

	var memberships []domain.TenantMembership
	for rows.Next() {
		var m domain.TenantMembership
		if errScan := rows.Scan(&m.ID, &m.SubjectID, &m.TenantID, &m.Role, &m.JoinedAt); errScan != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrMembershipUnavailable, errScan)
		}
		memberships = append(memberships, m)
	}
	if errRows := rows.Err(); errRows != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMembershipUnavailable, errRows)
	}

	return memberships, nil
}

// Get is the point lookup for an authorization check.
func (r *PostgresRepository) Get(ctx context.Context, subjectID, tenantID string) (*domain.TenantMembership, error) {
	query := `SELECT id, user_id, organization_id, role, joined_at FROM tenant_members
	          WHERE user_id = $1 AND organization_id = $2`

	var m domain.TenantMembership
	errRow := r.db.QueryRowContext(ctx, query, subjectID, tenantID).
		Scan(&m.ID, &m.SubjectID, &m.TenantID, &m.Role, &m.JoinedAt)
	if errors.Is(errRow, sql.ErrNoRows) {
		return nil, domain.ErrNoMembership
	}
	if errRow != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMembershipUnavailable, errRow)
	}
	return &m, nil
}

func (r *PostgresRepository) Create(ctx context.Context, m *domain.TenantMembership) error {
	query := `INSERT INTO tenant_members (id, user_id, organization_id, role, joined_at)
	          VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.ExecContext(ctx, query, m.ID, m.SubjectID, m.TenantID, string(m.Role), m.JoinedAt)
	if err != nil {
		return fmt.Errorf("create membership: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tenant_members WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete membership: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete membership: %w", err)
	}
	if affected == 0 {
		return domain.ErrNoMembership
	}
	return nil
}

func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
