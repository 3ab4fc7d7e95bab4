package request

// ShowRequest names one seat grid of an item.
type ShowRequest struct {
	Showtime string `json:"showtime" validate:"required,max=20"`
	ShowDate string `json:"show_date" validate:"required,datetime=2006-01-02"`
}

type AvailabilityRequest struct {
	ShowRequest
	Seats []string `json:"seats" validate:"required,min=1,max=96,unique,dive,required"`
}
