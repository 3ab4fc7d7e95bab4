package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"ticket-booking/internal/data/entity"
	"ticket-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type ItemRepository interface {
	Create(ctx context.Context, item *entity.Item) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Item, error)
	FindAll(ctx context.Context, category entity.Category, limit, offset int) ([]*entity.Item, error)
	CountAll(ctx context.Context, category entity.Category) (int64, error)
	Count(ctx context.Context) (int64, error)
}

type itemRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewItemRepository(db database.PgxIface, log *zap.Logger) ItemRepository {
	return &itemRepository{
		db:  db,
		log: log.With(zap.String("repository", "item")),
	}
}

const itemSelect = `
	SELECT id, title, description, category, genres, duration, rating, poster_url,
	       venue, language, year, showtimes, is_active, created_at, updated_at
	FROM items
`

func (r *itemRepository) Create(ctx context.Context, item *entity.Item) error {
	showtimes, err := json.Marshal(item.Showtimes)
	if err != nil {
		return fmt.Errorf("encode showtimes: %w", err)
	}

	query := `
		INSERT INTO items (id, title, description, category, genres, duration, rating, poster_url,
		                   venue, language, year, showtimes, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err = r.db.Exec(ctx, query,
		item.ID,
		item.Title,
		item.Description,
		item.Category,
		item.Genres,
		item.Duration,
		item.Rating,
		item.PosterURL,
		item.Venue,
		item.Language,
		item.Year,
		showtimes,
		item.IsActive,
		item.CreatedAt,
		item.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create item",
			zap.Error(err),
			zap.String("title", item.Title),
		)
		return fmt.Errorf("create item %s: %w", item.Title, err)
	}

	return nil
}

func (r *itemRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Item, error) {
	item, err := scanItem(r.db.QueryRow(ctx, itemSelect+` WHERE id = $1 AND is_active = TRUE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find item by ID",
			zap.Error(err),
			zap.String("item_id", id.String()),
		)
		return nil, fmt.Errorf("find item %s: %w", id, err)
	}

	return item, nil
}

// FindAll lists active items; an empty category matches all of them.
func (r *itemRepository) FindAll(ctx context.Context, category entity.Category, limit, offset int) ([]*entity.Item, error) {
	query := itemSelect + `
		WHERE is_active = TRUE AND ($1 = '' OR category = $1)
		ORDER BY created_at DESC, title
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, string(category), limit, offset)
	if err != nil {
		r.log.Error("Failed to get items",
			zap.Error(err),
			zap.String("category", string(category)),
		)
		return nil, fmt.Errorf("find items: %w", err)
	}
	defer rows.Close()

	var items []*entity.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			r.log.Error("Failed to scan item row", zap.Error(err))
			return nil, fmt.Errorf("scan item row: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		r.log.Error("Rows iteration error", zap.Error(err))
		return nil, fmt.Errorf("iterate item rows: %w", err)
	}

	return items, nil
}

func (r *itemRepository) CountAll(ctx context.Context, category entity.Category) (int64, error) {
	query := `SELECT COUNT(*) FROM items WHERE is_active = TRUE AND ($1 = '' OR category = $1)`

	var count int64
	if err := r.db.QueryRow(ctx, query, string(category)).Scan(&count); err != nil {
		r.log.Error("Database error counting items", zap.Error(err))
		return 0, fmt.Errorf("count items: %w", err)
	}

	return count, nil
}

// Count includes inactive items; seeding uses it to detect an empty catalog.
func (r *itemRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM items`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count catalog: %w", err)
	}
	return count, nil
}

func scanItem(row pgx.Row) (*entity.Item, error) {
	var (
		item      entity.Item
		showtimes []byte
	)
	err := row.Scan(
		&item.ID,
		&item.Title,
		&item.Description,
		&item.Category,
		&item.Genres,
		&item.Duration,
		&item.Rating,
		&item.PosterURL,
		&item.Venue,
		&item.Language,
		&item.Year,
		&showtimes,
		&item.IsActive,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(showtimes, &item.Showtimes); err != nil {
		return nil, fmt.Errorf("decode showtimes: %w", err)
	}
	return &item, nil
}
