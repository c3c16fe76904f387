package postgres

import (
	"context"
	"fmt"

	"tillpoint/db"
)

// EnsureSchema applies the embedded DDL. Statements are idempotent so
// this runs unconditionally on startup.
func EnsureSchema(ctx context.Context, pool *Pool) error {
	if _, err := pool.Exec(ctx, db.Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
