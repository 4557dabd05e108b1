package service

import (
	"context"
	"errors"
	"time"

	"github.com/example/foodhub/pkg/models"
	"github.com/example/foodhub/pkg/repository"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type RatingSink interface {
	ApplyRating(ctx context.Context, target models.ReviewTarget, id primitive.ObjectID, summary models.RatingSummary) error
}

type ReviewInput struct {
	TargetType models.ReviewTarget
	TargetID   primitive.ObjectID
	OrderID    primitive.ObjectID
	Rating     int
	Comment    string
}

type ReviewService struct {
	reviews ReviewStore
	ratings RatingSink
	logger  *zap.Logger
	now     func() time.Time
}

func NewReviewService(reviews ReviewStore, ratings RatingSink, logger *zap.Logger) *ReviewService {
	return &ReviewService{reviews: reviews, ratings: ratings, logger: logger.Named("review"), now: time.Now}
}

func validRating(r int) bool { return r >= 1 && r <= 5 }

func (s *ReviewService) Create(ctx context.Context, actor models.Actor, userName string, in ReviewInput) (*models.Review, error) {
	if in.TargetType != models.ReviewRestaurant && in.TargetType != models.ReviewFood {
		return nil, invalidInput("Target type must be restaurant or food")
	}
	if in.TargetID.IsZero() {
		return nil, invalidInput("Review target is required")
	}
	if !validRating(in.Rating) {
		return nil, invalidInput("Rating must be between 1 and 5")
	}

	now := s.now()
	rv := &models.Review{
		UserID:     actor.ID,
		UserName:   userName,
		TargetType: in.TargetType,
		TargetID:   in.TargetID,
		OrderID:    in.OrderID,
		Rating:     in.Rating,
		Comment:    in.Comment,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.reviews.Create(ctx, rv); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, &Error{Kind: ErrAlreadyExists, Message: "You have already reviewed this item"}
		}
		return nil, err
	}
	if err := s.refreshRating(ctx, rv.TargetType, rv.TargetID); err != nil {
		return nil, err
	}
	return rv, nil
}

func (s *ReviewService) List(ctx context.Context, f models.ReviewFilter) ([]*models.Review, error) {
	return s.reviews.List(ctx, f)
}

func (s *ReviewService) ListMine(ctx context.Context, actor models.Actor) ([]*models.Review, error) {
	return s.reviews.List(ctx, models.ReviewFilter{UserID: actor.ID})
}

// Update changes rating and comment. Zero values keep the stored ones.
func (s *ReviewService) Update(ctx context.Context, actor models.Actor, id primitive.ObjectID, rating int, comment string) (*models.Review, error) {
	rv, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if rating != 0 {
		if !validRating(rating) {
			return nil, invalidInput("Rating must be between 1 and 5")
		}
		rv.Rating = rating
	}
	if comment != "" {
		rv.Comment = comment
	}
	rv.UpdatedAt = s.now()

	if err := s.reviews.Update(ctx, rv); err != nil {
		return nil, orNotFound(err, "Review not found")
	}
	if err := s.refreshRating(ctx, rv.TargetType, rv.TargetID); err != nil {
		return nil, err
	}
	return rv, nil
}

func (s *ReviewService) Delete(ctx context.Context, actor models.Actor, id primitive.ObjectID) error {
	rv, err := s.owned(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.reviews.Delete(ctx, id); err != nil {
		return orNotFound(err, "Review not found")
	}
	return s.refreshRating(ctx, rv.TargetType, rv.TargetID)
}

func (s *ReviewService) owned(ctx context.Context, actor models.Actor, id primitive.ObjectID) (*models.Review, error) {
	rv, err := s.reviews.Get(ctx, id)
	if err != nil {
		return nil, orNotFound(err, "Review not found")
	}
	if rv.UserID != actor.ID && !actor.IsAdmin() {
		return nil, forbidden("Not authorized")
	}
	return rv, nil
}

// refreshRating writes the target's average, rounded to one decimal, and count.
func (s *ReviewService) refreshRating(ctx context.Context, target models.ReviewTarget, id primitive.ObjectID) error {
	summary, err := s.reviews.Summary(ctx, target, id)
	if err != nil {
		return err
	}
	summary.Average = decimal.NewFromFloat(summary.Average).Round(1).InexactFloat64()
	if err := s.ratings.ApplyRating(ctx, target, id, summary); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("Reviewed target no longer exists",
				zap.String("target_type", string(target)),
				zap.String("target_id", id.Hex()))
			return nil
		}
		return err
	}
	return nil
}
