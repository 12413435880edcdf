package reviewsvc

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/corray333/backend-labs/coffeeshop/internal/dal/interfaces/imenurepo"
	"github.com/corray333/backend-labs/coffeeshop/internal/dal/interfaces/iorderrepo"
	"github.com/corray333/backend-labs/coffeeshop/internal/dal/interfaces/ireviewrepo"
	"github.com/corray333/backend-labs/coffeeshop/internal/dal/postgres"
	"github.com/corray333/backend-labs/coffeeshop/internal/dal/uow"
	"github.com/corray333/backend-labs/coffeeshop/internal/metrics"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/errs"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/models/order"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/models/review"
	"go.opentelemetry.io/otel"
)

// ErrNotInOrder is returned when the reviewed item was not bought in the given order.
var ErrNotInOrder = errs.NewValidation("This item is not part of your order")

// ReviewService gates and stores product reviews.
type ReviewService struct {
	newUOW func() unitOfWork
	now    func() time.Time
}

type unitOfWork interface {
	Begin(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	MenuRepository() imenurepo.IMenuRepository
	OrderRepository() iorderrepo.IOrderRepository
	ReviewRepository() ireviewrepo.IReviewRepository
}

// option is a function that configures the ReviewService.
type option func(*ReviewService)

// MustNewReviewService creates a new ReviewService.
func MustNewReviewService(opts ...option) *ReviewService {
	s := &ReviewService{
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.newUOW == nil {
		panic("reviewsvc: storage is not configured")
	}

	return s
}

// WithPostgresClient sets the Postgres client for the ReviewService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithPostgresClient(pgClient *postgres.Client) option {
	return func(s *ReviewService) {
		s.newUOW = func() unitOfWork {
			return uow.NewUnitOfWork(pgClient)
		}
	}
}

// WithUnitOfWork sets a custom unit of work constructor.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithUnitOfWork(factory func() uow.UnitOfWork) option {
	return func(s *ReviewService) {
		s.newUOW = func() unitOfWork {
			return factory()
		}
	}
}

// WithClock overrides the time source.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithClock(now func() time.Time) option {
	return func(s *ReviewService) {
		s.now = now
	}
}

// SubmitInput is a review as entered by the customer.
type SubmitInput struct {
	OrderID int64
	MenuID  string
	Rating  int
	Text    string
}

// CheckReview reports whether userEmail already reviewed menuID for orderID.
func (s *ReviewService) CheckReview(ctx context.Context, userEmail string, orderID int64, menuID string) (bool, error) {
	ctx, span := otel.Tracer("reviewsvc").Start(ctx, "CheckReview")
	defer span.End()

	return s.newUOW().ReviewRepository().Exists(ctx, review.Key{
		MenuID:    menuID,
		UserEmail: userEmail,
		OrderID:   orderID,
	})
}

// SubmitReview stores the review and bumps the item's rating bucket. A second
// review for the same item, user and order is rejected with errs.ErrAlreadyReviewed.
func (s *ReviewService) SubmitReview(ctx context.Context, userEmail string, in SubmitInput) (review.Review, error) {
	ctx, span := otel.Tracer("reviewsvc").Start(ctx, "SubmitReview")
	defer span.End()

	rv, err := s.submit(ctx, userEmail, in)
	metrics.ReviewsTotal.WithLabelValues(submitResult(err)).Inc()
	if err != nil {
		return review.Review{}, err
	}

	return rv, nil
}

func submitResult(err error) string {
	switch {
	case err == nil:
		return "accepted"
	case errors.Is(err, errs.ErrAlreadyReviewed):
		return "duplicate"
	case errors.Is(err, errs.ErrValidation), errors.Is(err, errs.ErrNotFound):
		return "rejected"
	default:
		return "error"
	}
}

func (s *ReviewService) submit(ctx context.Context, userEmail string, in SubmitInput) (review.Review, error) {
	if err := review.ValidateRating(in.Rating); err != nil {
		return review.Review{}, err
	}

	work := s.newUOW()
	if err := work.Begin(ctx); err != nil {
		return review.Review{}, err
	}
	defer func() { _ = work.Rollback(ctx) }()

	o, err := work.OrderRepository().GetByID(ctx, in.OrderID)
	if err != nil {
		return review.Review{}, err
	}
	if o.UserEmail != userEmail {
		return review.Review{}, errs.NotFound("order", in.OrderID)
	}
	if !slices.ContainsFunc(o.Lines, func(l order.LineSnapshot) bool { return l.MenuID == in.MenuID }) {
		return review.Review{}, ErrNotInOrder
	}

	key := review.Key{
		MenuID:    in.MenuID,
		UserEmail: userEmail,
		OrderID:   in.OrderID,
	}
	exists, err := work.ReviewRepository().Exists(ctx, key)
	if err != nil {
		return review.Review{}, err
	}
	if exists {
		return review.Review{}, errs.ErrAlreadyReviewed
	}

	rv := review.Review{
		Key:       key,
		Text:      in.Text,
		Rating:    in.Rating,
		CreatedAt: s.now(),
	}
	if err := work.ReviewRepository().Insert(ctx, rv); err != nil {
		return review.Review{}, err
	}
	if err := work.MenuRepository().IncrementRatingBucket(ctx, in.MenuID, in.Rating); err != nil {
		return review.Review{}, err
	}

	if err := work.Commit(ctx); err != nil {
		return review.Review{}, err
	}

	return rv, nil
}
