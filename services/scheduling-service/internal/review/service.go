package review

import (
	"context"
	"log/slog"

	"github.com/docslot/docslot/services/scheduling-service/internal/model"
	"github.com/docslot/docslot/services/scheduling-service/internal/storage"
)

type Service struct {
	reviews      *storage.ReviewRepository
	reservations *storage.ReservationRepository
	logger       *slog.Logger
}

func NewService(reviews *storage.ReviewRepository, reservations *storage.ReservationRepository, logger *slog.Logger) *Service {
	return &Service{reviews: reviews, reservations: reservations, logger: logger}
}

// Add records a patient review against a completed reservation, identified
// by its confirmation code.
func (s *Service) Add(ctx context.Context, confirmationCode string, rating int, text string) (model.Review, error) {
	if rating < 1 || rating > 5 {
		return model.Review{}, ErrInvalidRating
	}

	res, err := s.reservations.GetByCode(ctx, confirmationCode)
	if err != nil {
		return model.Review{}, err
	}
	if res.Status != model.StatusCompleted {
		return model.Review{}, ErrReservationNotCompleted
	}

	rev := model.Review{
		ReservationID: res.ID,
		Rating:        rating,
		Text:          text,
		Visible:       true,
	}
	id, err := s.reviews.Insert(ctx, &rev)
	if err != nil {
		if storage.IsUniqueViolation(err) {
			return model.Review{}, ErrDuplicateReview
		}
		return model.Review{}, err
	}
	rev.ID = id

	s.logger.InfoContext(ctx, "review recorded",
		slog.String("review_id", id),
		slog.String("reservation_id", res.ID),
		slog.Int("rating", rating))
	return rev, nil
}

// DoctorSummary aggregates the visible ratings for a doctor.
func (s *Service) DoctorSummary(ctx context.Context, doctorID string) (Summary, error) {
	ratings, err := s.reviews.VisibleRatings(ctx, doctorID)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(ratings), nil
}

func (s *Service) Respond(ctx context.Context, doctorID, reviewID, response string) error {
	return s.reviews.SetResponse(ctx, doctorID, reviewID, response)
}

// SetVisibility is the moderation hook: hidden reviews drop out of the
// doctor's aggregate but stay on record.
func (s *Service) SetVisibility(ctx context.Context, reviewID string, visible bool) error {
	return s.reviews.SetVisibility(ctx, reviewID, visible)
}
