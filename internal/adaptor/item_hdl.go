package adaptor

import (
	"net/http"

	"ticket-booking/internal/dto/request"
	"ticket-booking/internal/usecase"
	"ticket-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type ItemHandler struct {
	service usecase.ItemService
	log     *zap.Logger
}

func NewItemHandler(service usecase.ItemService, log *zap.Logger) *ItemHandler {
	return &ItemHandler{
		service: service,
		log:     log.With(zap.String("handler", "item")),
	}
}

// ListItems handles GET /api/items?category=&page=&per_page=
func (h *ItemHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := &request.ListItemsRequest{
		PaginatedRequest: request.PaginatedRequest{
			Page:    utils.ParseInt(query.Get("page"), 1),
			PerPage: utils.ParseInt(query.Get("per_page"), 10),
		},
		Category: query.Get("category"),
	}

	items, err := h.service.ListItems(r.Context(), req)
	if err != nil {
		handleServiceError(w, h.log, err, "list items")
		return
	}

	utils.ResponseSuccess(w, "success", items)
}

// GetItem handles GET /api/items/{id}
func (h *ItemHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.service.GetItem(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.log, err, "get item")
		return
	}

	utils.ResponseSuccess(w, "success", item)
}
