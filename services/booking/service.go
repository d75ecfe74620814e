package booking

import (
	"context"
	"errors"
	"time"

	bookingRepo "senara/database/repository/booking"
	"senara/models"

	"go.uber.org/zap"
)

// DefaultBookingService implements BookingService over the SQLite repository.
type DefaultBookingService struct {
	Repo   bookingRepo.BookingRepository
	Logger *zap.Logger
	// Now is injectable so tests can pin "today" for MyAppointments.
	Now func() time.Time
}

func NewDefaultBookingService(repo bookingRepo.BookingRepository, logger *zap.Logger) *DefaultBookingService {
	return &DefaultBookingService{Repo: repo, Logger: logger, Now: time.Now}
}

func (s *DefaultBookingService) ListStudios(ctx context.Context, city string) ([]string, error) {
	return s.Repo.ListStudios(ctx, city)
}

func (s *DefaultBookingService) CheckService(ctx context.Context, city, serviceName string) (bool, error) {
	return s.Repo.ServiceOffered(ctx, city, serviceName)
}

func (s *DefaultBookingService) AvailableEmployees(ctx context.Context, city, serviceName, date, timeOfDay string) ([]models.Employee, error) {
	return s.Repo.AvailableEmployees(ctx, city, serviceName, date, timeOfDay)
}

func (s *DefaultBookingService) OpenSlots(ctx context.Context, city, serviceName, date, timeOfDay string) ([]models.Slot, error) {
	return s.Repo.OpenSlots(ctx, city, serviceName, date, timeOfDay)
}

func (s *DefaultBookingService) ConfirmAppointment(ctx context.Context, req models.AppointmentRequest) (*models.AppointmentConfirmation, error) {
	category, err := PriceCategoryFor(req.City, req.CardFlag)
	if err != nil {
		return nil, NewBookingError("%s", err.Error())
	}

	conf, err := s.Repo.ConfirmAppointment(ctx, req, category)
	switch {
	case errors.Is(err, bookingRepo.ErrSlotUnavailable):
		return nil, NewBookingError("No available service found for the given time and location.")
	case errors.Is(err, bookingRepo.ErrNoPrice):
		return nil, NewBookingError("No price found for service %s with category %s.", req.ServiceName, category)
	case err != nil:
		s.Logger.Error("confirm appointment failed",
			zap.String("city", req.City),
			zap.String("service", req.ServiceName),
			zap.Error(err))
		return nil, err
	}
	s.Logger.Info("appointment confirmed",
		zap.Int64("appointment_id", conf.AppointmentID),
		zap.String("city", req.City),
		zap.String("service", req.ServiceName))
	return conf, nil
}

func (s *DefaultBookingService) CancelAppointment(ctx context.Context, appointmentID int64, userID string) error {
	err := s.Repo.CancelAppointment(ctx, appointmentID, userID)
	if errors.Is(err, bookingRepo.ErrNotOwned) {
		return NewBookingError("No appointment found with ID %d for the specified user.", appointmentID)
	}
	if err != nil {
		s.Logger.Error("cancel appointment failed",
			zap.Int64("appointment_id", appointmentID),
			zap.Error(err))
		return err
	}
	s.Logger.Info("appointment cancelled", zap.Int64("appointment_id", appointmentID))
	return nil
}

func (s *DefaultBookingService) MyAppointments(ctx context.Context, userID string) ([]models.Appointment, error) {
	today := s.Now().Format("2006-01-02")
	return s.Repo.UpcomingAppointments(ctx, userID, today)
}
