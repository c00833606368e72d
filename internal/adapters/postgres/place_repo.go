package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/spotfinder/internal/core/domain"
	"github.com/samirrijal/spotfinder/internal/core/ports"
	"github.com/samirrijal/spotfinder/internal/pkg/telemetry"
)

const placeColumns = `id::text, name, COALESCE(description, ''), COALESCE(address, ''),
       COALESCE(city, ''), COALESCE(state, ''), COALESCE(zip, ''), COALESCE(category, ''),
       latitude, longitude, COALESCE(amenities, '{}'), COALESCE(images, '{}'),
       COALESCE(phone, ''), COALESCE(website, ''), COALESCE(opening_hours, ''), created_at`

// PlaceRepo implements ports.PlaceRepository over the locations table.
type PlaceRepo struct {
	db Querier
}

// NewPlaceRepo creates a new PlaceRepo.
func NewPlaceRepo(db Querier) *PlaceRepo {
	return &PlaceRepo{db: db}
}

// Search returns catalog rows matching f, newest first.
func (r *PlaceRepo) Search(ctx context.Context, f ports.CatalogFilter) ([]domain.Place, error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanCatalogSelect)
	defer span.End()

	sql, args := buildSearch(f)

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query locations: %w", err)
	}
	defer rows.Close()

	places := []domain.Place{}
	for rows.Next() {
		p, err := scanPlace(rows)
		if err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		places = append(places, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate locations: %w", err)
	}
	return places, nil
}

// GetByID returns a single catalog row. Ids that are not UUIDs are
// reported as not found without a round trip.
func (r *PlaceRepo) GetByID(ctx context.Context, id string) (*domain.Place, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}

	row := r.db.QueryRow(ctx, `SELECT `+placeColumns+` FROM locations WHERE id = $1`, id)
	p, err := scanPlace(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get location: %w", err)
	}
	return &p, nil
}

// buildSearch renders f into SQL with positional arguments.
func buildSearch(f ports.CatalogFilter) (string, []any) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Text != "" {
		p := arg("%" + escapeLike(f.Text) + "%")
		where = append(where, fmt.Sprintf("(name ILIKE %s OR description ILIKE %s)", p, p))
	}
	if f.Category != "" {
		where = append(where, "category = "+arg(f.Category))
	}
	if len(f.Amenities) > 0 {
		where = append(where, "amenities @> "+arg(f.Amenities))
	}
	if f.Bounds != nil {
		where = append(where,
			fmt.Sprintf("latitude BETWEEN %s AND %s", arg(f.Bounds.South), arg(f.Bounds.North)),
			fmt.Sprintf("longitude BETWEEN %s AND %s", arg(f.Bounds.West), arg(f.Bounds.East)),
		)
	}

	var b strings.Builder
	b.WriteString("SELECT " + placeColumns + " FROM locations")
	if len(where) > 0 {
		b.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY created_at DESC, id")
	if f.Limit > 0 {
		b.WriteString(" LIMIT " + arg(f.Limit))
	}
	return b.String(), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func scanPlace(row pgx.Row) (domain.Place, error) {
	var p domain.Place
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Address,
		&p.City, &p.State, &p.Zip, &p.Category,
		&p.Location.Lat, &p.Location.Lon, &p.Amenities, &p.Images,
		&p.Phone, &p.Website, &p.OpeningHours, &p.CreatedAt,
	)
	p.Source = domain.SourceCatalog
	return p, err
}
