package usecase

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	"ticket-booking/internal/data/entity"
	"ticket-booking/internal/data/repository"
	"ticket-booking/internal/dto/request"
	"ticket-booking/internal/dto/response"
	"ticket-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

//go:embed sample_catalog.json
var sampleCatalog []byte

type ItemService interface {
	ListItems(ctx context.Context, req *request.ListItemsRequest) (*response.PaginatedResponse[response.ItemResponse], error)
	GetItem(ctx context.Context, itemID string) (*response.ItemResponse, error)
	// SeedSampleCatalog inserts the sample movies and events when the
	// catalog is empty and reports how many items were added.
	SeedSampleCatalog(ctx context.Context) (int, error)
}

type itemService struct {
	itemRepo repository.ItemRepository
	log      *zap.Logger
}

func NewItemService(itemRepo repository.ItemRepository, log *zap.Logger) ItemService {
	return &itemService{
		itemRepo: itemRepo,
		log:      log.With(zap.String("service", "item")),
	}
}

func (s *itemService) ListItems(ctx context.Context, req *request.ListItemsRequest) (*response.PaginatedResponse[response.ItemResponse], error) {
	if req.Page < 1 {
		req.Page = 1
	}
	req.PerPage = req.Limit()

	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, newValidationError(errs)
	}

	category := entity.Category(req.Category)

	items, err := s.itemRepo.FindAll(ctx, category, req.Limit(), req.Offset())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	total, err := s.itemRepo.CountAll(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	data := make([]response.ItemResponse, len(items))
	for i, item := range items {
		data[i] = response.ItemToResponse(item)
	}

	return response.NewPaginatedResponse(data, req.Page, req.PerPage, total), nil
}

func (s *itemService) GetItem(ctx context.Context, itemID string) (*response.ItemResponse, error) {
	item, err := findItem(ctx, s.itemRepo, itemID)
	if err != nil {
		return nil, err
	}

	resp := response.ItemToResponse(item)
	return &resp, nil
}

type sampleItem struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Category    entity.Category   `json:"category"`
	Genres      []string          `json:"genres"`
	Duration    int               `json:"duration"`
	Rating      float64           `json:"rating"`
	PosterURL   string            `json:"poster_url"`
	Venue       string            `json:"venue"`
	Language    string            `json:"language"`
	Year        string            `json:"year"`
	Showtimes   []entity.Showtime `json:"showtimes"`
}

func (s *itemService) SeedSampleCatalog(ctx context.Context) (int, error) {
	count, err := s.itemRepo.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if count > 0 {
		s.log.Info("Catalog already populated, skipping seed", zap.Int64("items", count))
		return 0, nil
	}

	var samples []sampleItem
	if err := json.Unmarshal(sampleCatalog, &samples); err != nil {
		return 0, fmt.Errorf("decode sample catalog: %w", err)
	}

	// spread created_at so newest-first listing keeps the file order
	base := time.Now()
	for i, sample := range samples {
		created := base.Add(-time.Duration(i) * time.Second)
		item := &entity.Item{
			BaseNoDelete: entity.BaseNoDelete{
				ID:        uuid.New(),
				CreatedAt: created,
				UpdatedAt: created,
			},
			Title:       sample.Title,
			Description: optional(sample.Description),
			Category:    sample.Category,
			Genres:      sample.Genres,
			Duration:    sample.Duration,
			Rating:      sample.Rating,
			PosterURL:   optional(sample.PosterURL),
			Venue:       optional(sample.Venue),
			Language:    optional(sample.Language),
			Year:        optional(sample.Year),
			Showtimes:   sample.Showtimes,
			IsActive:    true,
		}
		if err := s.itemRepo.Create(ctx, item); err != nil {
			return i, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
	}

	s.log.Info("Sample catalog seeded", zap.Int("items", len(samples)))
	return len(samples), nil
}

// findItem resolves an item id, mapping a missing item to ErrItemNotFound.
func findItem(ctx context.Context, repo repository.ItemRepository, itemID string) (*entity.Item, error) {
	id, err := uuid.Parse(itemID)
	if err != nil {
		return nil, ErrItemNotFound
	}

	item, err := repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if item == nil {
		return nil, ErrItemNotFound
	}
	return item, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
