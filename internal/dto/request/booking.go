package request

type CheckoutRequest struct {
	ItemID string `json:"item_id" validate:"required,uuid"`
	ShowRequest
	Seats []string `json:"seats" validate:"required,min=1,max=96,unique,dive,required"`
}

type CompletePaymentRequest struct {
	Outcome   string  `json:"outcome" validate:"required,oneof=success failed cancelled"`
	PaymentID *string `json:"payment_id,omitempty" validate:"omitempty,max=100"`
}
