package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arbradar/arbradar/internal/domain"
)

// VenueStore implements domain.VenueStore using PostgreSQL.
type VenueStore struct {
	pool *pgxpool.Pool
}

// NewVenueStore creates a new VenueStore backed by the given connection pool.
func NewVenueStore(pool *pgxpool.Pool) *VenueStore {
	return &VenueStore{pool: pool}
}

const venueCols = `id, name, slug, status, fee_rate, created_at, updated_at`

func scanVenue(row pgx.Row) (domain.Venue, error) {
	var v domain.Venue
	var status string
	err := row.Scan(&v.ID, &v.Name, &v.Slug, &status, &v.FeeRate, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return domain.Venue{}, err
	}
	v.Status = domain.VenueStatus(status)
	return v, nil
}

// FindOrCreate resolves a venue by slug, inserting it when missing. The
// insert races safely: on a slug conflict the existing row is returned
// untouched.
func (s *VenueStore) FindOrCreate(ctx context.Context, v domain.Venue) (domain.Venue, error) {
	const query = `
		INSERT INTO venues (id, name, slug, status, fee_rate, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		ON CONFLICT (slug) DO UPDATE SET updated_at = venues.updated_at
		RETURNING ` + venueCols

	row := s.pool.QueryRow(ctx, query,
		uuid.New().String(), v.Name, v.Slug, string(v.Status), v.FeeRate,
	)
	out, err := scanVenue(row)
	if err != nil {
		return domain.Venue{}, fmt.Errorf("postgres: find or create venue %s: %w", v.Slug, err)
	}
	return out, nil
}

// GetBySlug retrieves a venue by its slug.
func (s *VenueStore) GetBySlug(ctx context.Context, slug string) (domain.Venue, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+venueCols+` FROM venues WHERE slug = $1`, slug)
	v, err := scanVenue(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Venue{}, domain.ErrNotFound
		}
		return domain.Venue{}, fmt.Errorf("postgres: get venue %s: %w", slug, err)
	}
	return v, nil
}

// List returns all venues ordered by name.
func (s *VenueStore) List(ctx context.Context) ([]domain.Venue, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+venueCols+` FROM venues ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list venues: %w", err)
	}
	defer rows.Close()

	var venues []domain.Venue
	for rows.Next() {
		v, err := scanVenue(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan venue: %w", err)
		}
		venues = append(venues, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list venues rows: %w", err)
	}
	return venues, nil
}

// Count returns the total number of venues.
func (s *VenueStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM venues").Scan(&count); err != nil {
		return 0, fmt.Errorf("postgres: count venues: %w", err)
	}
	return count, nil
}

var _ domain.VenueStore = (*VenueStore)(nil)
