package wire

import (
	"ticket-booking/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

// Catalog browsing is public
func wireItem(r chi.Router, itemHandler *adaptor.ItemHandler) {
	r.Get("/api/items", itemHandler.ListItems)
	r.Get("/api/items/{id}", itemHandler.GetItem)
}
