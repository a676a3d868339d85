package review

import "errors"

var (
	ErrDuplicateReview         = errors.New("review: reservation already reviewed")
	ErrReservationNotCompleted = errors.New("review: reservation is not completed")
	ErrInvalidRating           = errors.New("review: rating must be between 1 and 5")
)
