package postgresql_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/cmlabs-hris/payroll-engine/internal/pkg/database"
)

// TestDatabaseSetup holds a connection to a disposable test database
type TestDatabaseSetup struct {
	DB *database.DB
}

// NewTestDatabase connects to TEST_DATABASE_URL and recreates the schema.
// Tests are skipped when the variable is unset.
func NewTestDatabase(t *testing.T) *TestDatabaseSetup {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := database.NewPostgreSQLDB(dsn)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	setup := &TestDatabaseSetup{DB: db}
	if err := setup.resetSchema(context.Background()); err != nil {
		db.Close()
		t.Fatalf("failed to reset schema: %v", err)
	}
	t.Cleanup(setup.Close)
	return setup
}

func (s *TestDatabaseSetup) resetSchema(ctx context.Context) error {
	ddl, err := os.ReadFile(filepath.Join("..", "..", "..", "migrations", "0001_init.up.sql"))
	if err != nil {
		return fmt.Errorf("read migration: %w", err)
	}

	if _, err := s.DB.Exec(ctx, "DROP SCHEMA public CASCADE; CREATE SCHEMA public"); err != nil {
		return fmt.Errorf("drop schema: %w", err)
	}
	if _, err := s.DB.Exec(ctx, string(ddl)); err != nil {
		return fmt.Errorf("apply migration: %w", err)
	}
	return nil
}

// SeedEmployee inserts an active employee, with a personnel type when salary is non-empty
func (s *TestDatabaseSetup) SeedEmployee(ctx context.Context, name, salary string) (string, error) {
	var typeID *string
	if salary != "" {
		var id string
		err := s.DB.QueryRow(ctx,
			`INSERT INTO personnel_types (name, basic_salary) VALUES ($1, $2::numeric) RETURNING id`,
			name+" type", salary,
		).Scan(&id)
		if err != nil {
			return "", err
		}
		typeID = &id
	}

	var id string
	err := s.DB.QueryRow(ctx,
		`INSERT INTO employees (full_name, personnel_type_id) VALUES ($1, $2) RETURNING id`,
		name, typeID,
	).Scan(&id)
	return id, err
}

// Close closes the database connection
func (s *TestDatabaseSetup) Close() {
	s.DB.Close()
}
