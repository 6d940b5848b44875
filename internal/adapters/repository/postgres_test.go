package repository

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Richwell111/auth2/internal/core/domain"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestDB(t *testing.T) (*sql.DB, func()) {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("auth2_test"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForListeningPort("5432").
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start container: %s", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %s", err)
	}

	db, err := sql.Open("pgx", connStr)
	if err != nil {
		t.Fatalf("failed to open db: %s", err)
	}

	schemaPath := filepath.Join(".", "schema.sql")
	schema, err := os.ReadFile(schemaPath)
	if err != nil {
		t.Fatalf("failed to read schema: %s", err)
	}

	if _, err := db.Exec(string(schema)); err != nil {
		t.Fatalf("failed to apply schema: %s", err)
	}

	return db, func() {
		db.Close()
		pgContainer.Terminate(ctx)
	}
}

func TestPostgresRepository_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewPostgresRepository(db)
	ctx := context.Background()
	base := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)

	// 1. Create memberships joined at t1 < t2 < t3
	memberships := []domain.TenantMembership{
		{ID: "550e8400-e29b-41d4-a716-446655440000", SubjectID: "u1", TenantID: "org-t1", Role: domain.RoleOwner, JoinedAt: base},
		{ID: "550e8400-e29b-41d4-a716-446655440001", SubjectID: "u1", TenantID: "org-t2", Role: domain.RoleMember, JoinedAt: base.Add(time.Hour)},
		{ID: "550e8400-e29b-41d4-a716-446655440002", SubjectID: "u1", TenantID: "org-t3", Role: domain.RoleAdmin, JoinedAt: base.Add(2 * time.Hour)},
	}
	for i := range memberships {
		if err := repo.Create(ctx, &memberships[i]); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	// 2. ListBySubject returns most recent join first
	listed, err := repo.ListBySubject(ctx, "u1")
	if err != nil {
		t.Fatalf("ListBySubject failed: %v", err)
	}
	if len(listed) != 3 || listed[0].TenantID != "org-t3" {
		t.Errorf("expected org-t3 first, got %+v", listed)
	}

	// 3. Point lookup
	m, err := repo.Get(ctx, "u1", "org-t2")
	if err != nil || m.Role != domain.RoleMember {
		t.Errorf("Get failed: %v, %+v", err, m)
	}

	// 4. Missing pair
	if _, err := repo.Get(ctx, "u1", "org-x"); !errors.Is(err, domain.ErrNoMembership) {
		t.Errorf("expected ErrNoMembership, got %v", err)
	}

	// 5. Unknown subject lists empty
	empty, err := repo.ListBySubject(ctx, "nobody")
	if err != nil || len(empty) != 0 {
		t.Errorf("expected no memberships, got %v, %+v", err, empty)
	}

	// 6. Delete
	if err := repo.Delete(ctx, memberships[1].ID); err != nil {
		t.Errorf("Delete failed: %v", err)
	}
	if _, err := repo.Get(ctx, "u1", "org-t2"); !errors.Is(err, domain.ErrNoMembership) {
		t.Errorf("deleted membership should be gone, got %v", err)
	}
}
