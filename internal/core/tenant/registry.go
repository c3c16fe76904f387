package tenant

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"

	"tillpoint/internal/core/apperror"
)

// Registry provides access to tenant metadata.
type Registry interface {
	// GetBySlug retrieves tenant by URL-safe slug.
	GetBySlug(ctx context.Context, slug string) (*Tenant, error)

	// GetByID retrieves tenant by UUID string.
	GetByID(ctx context.Context, tenantID string) (*Tenant, error)

	// ListActive returns all active tenants.
	ListActive(ctx context.Context) ([]*Tenant, error)

	// Create inserts a new tenant row and populates t.ID.
	Create(ctx context.Context, t *Tenant) error
}

// PostgresRegistry implements Registry over the shared database, with a
// short-lived in-memory cache: tenant settings change rarely and are read
// on every request.
type PostgresRegistry struct {
	pool *pgxpool.Pool

	mu       sync.RWMutex
	cache    map[string]cachedTenant // keyed by slug
	cacheTTL time.Duration
}

type cachedTenant struct {
	tenant   *Tenant
	loadedAt time.Time
}

// NewPostgresRegistry creates a registry with a 30 second settings cache.
func NewPostgresRegistry(pool *pgxpool.Pool) *PostgresRegistry {
	return &PostgresRegistry{
		pool:     pool,
		cache:    make(map[string]cachedTenant),
		cacheTTL: 30 * time.Second,
	}
}

func (r *PostgresRegistry) GetBySlug(ctx context.Context, slug string) (*Tenant, error) {
	r.mu.RLock()
	if c, ok := r.cache[slug]; ok && time.Since(c.loadedAt) < r.cacheTTL {
		r.mu.RUnlock()
		return c.tenant, nil
	}
	r.mu.RUnlock()

	var t Tenant
	err := pgxscan.Get(ctx, r.pool, &t, `
		SELECT id, slug, display_name, status, settings
		FROM tenants
		WHERE slug = $1
	`, slug)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("tenant", slug)
		}
		return nil, fmt.Errorf("get tenant by slug: %w", err)
	}

	r.mu.Lock()
	r.cache[slug] = cachedTenant{tenant: &t, loadedAt: time.Now()}
	r.mu.Unlock()

	return &t, nil
}

func (r *PostgresRegistry) GetByID(ctx context.Context, tenantID string) (*Tenant, error) {
	var t Tenant
	err := pgxscan.Get(ctx, r.pool, &t, `
		SELECT id, slug, display_name, status, settings
		FROM tenants
		WHERE id = $1
	`, tenantID)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("tenant", tenantID)
		}
		return nil, fmt.Errorf("get tenant by id: %w", err)
	}
	return &t, nil
}

func (r *PostgresRegistry) ListActive(ctx context.Context) ([]*Tenant, error) {
	var tenants []*Tenant
	err := pgxscan.Select(ctx, r.pool, &tenants, `
		SELECT id, slug, display_name, status, settings
		FROM tenants
		WHERE status = $1
		ORDER BY slug
	`, StatusActive)
	if err != nil {
		return nil, fmt.Errorf("list active tenants: %w", err)
	}
	return tenants, nil
}

func (r *PostgresRegistry) Create(ctx context.Context, t *Tenant) error {
	if t == nil {
		return fmt.Errorf("tenant is nil")
	}
	if t.Status == "" {
		t.Status = StatusActive
	}

	err := r.pool.QueryRow(ctx, `
		INSERT INTO tenants (slug, display_name, status, settings)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, t.Slug, t.DisplayName, t.Status, t.Settings).Scan(&t.ID)
	if err != nil {
		return fmt.Errorf("create tenant: %w", err)
	}

	r.mu.Lock()
	delete(r.cache, t.Slug)
	r.mu.Unlock()

	return nil
}

var _ Registry = (*PostgresRegistry)(nil)
