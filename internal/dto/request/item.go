package request

type ListItemsRequest struct {
	PaginatedRequest
	Category string `json:"category" validate:"omitempty,oneof=movies shows concerts sports parks festivals"`
}
