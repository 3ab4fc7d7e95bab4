package usecase

import (
	"ticket-booking/internal/data/repository"
	"ticket-booking/pkg/utils"

	"go.uber.org/zap"
)

type Service struct {
	Auth    AuthService
	User    UserService
	Item    ItemService
	Seat    SeatService
	Booking BookingService
}

func NewService(repo *repository.Repository, gateway PaymentGateway, config *utils.Config, log *zap.Logger) *Service {
	seats := NewSeatService(repo.Item, repo.Seat, config.Booking, log)

	return &Service{
		Auth:    NewAuthService(repo, config, log),
		User:    NewUserService(repo.User, log),
		Item:    NewItemService(repo.Item, log),
		Seat:    seats,
		Booking: NewBookingService(repo, seats, gateway, config, log),
	}
}
