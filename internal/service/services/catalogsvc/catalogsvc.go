package catalogsvc

import (
	"context"
	"io"
	"slices"
	"time"

	"github.com/corray333/backend-labs/coffeeshop/internal/dal/imagekit"
	"github.com/corray333/backend-labs/coffeeshop/internal/dal/interfaces/imenurepo"
	"github.com/corray333/backend-labs/coffeeshop/internal/dal/interfaces/ireviewrepo"
	"github.com/corray333/backend-labs/coffeeshop/internal/dal/interfaces/iuserrepo"
	"github.com/corray333/backend-labs/coffeeshop/internal/dal/postgres"
	"github.com/corray333/backend-labs/coffeeshop/internal/dal/uow"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/errs"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/models/menu"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/models/review"
	"go.opentelemetry.io/otel"
)

const similarLimit = 4

// CatalogService serves the menu and its admin maintenance.
type CatalogService struct {
	newUOW   func() unitOfWork
	uploader imageUploader
	now      func() time.Time
}

type unitOfWork interface {
	Begin(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	MenuRepository() imenurepo.IMenuRepository
	ReviewRepository() ireviewrepo.IReviewRepository
	UserRepository() iuserrepo.IUserRepository
}

type imageUploader interface {
	Upload(ctx context.Context, file io.Reader, name string) (string, error)
}

// Image is an uploaded product image.
type Image struct {
	File io.Reader
	Name string
}

// option is a function that configures the CatalogService.
type option func(*CatalogService)

// MustNewCatalogService creates a new CatalogService.
func MustNewCatalogService(opts ...option) *CatalogService {
	s := &CatalogService{
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.newUOW == nil {
		panic("catalogsvc: storage is not configured")
	}

	return s
}

// WithPostgresClient sets the Postgres client for the CatalogService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithPostgresClient(pgClient *postgres.Client) option {
	return func(s *CatalogService) {
		s.newUOW = func() unitOfWork {
			return uow.NewUnitOfWork(pgClient)
		}
	}
}

// WithUnitOfWork sets a custom unit of work constructor.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithUnitOfWork(factory func() uow.UnitOfWork) option {
	return func(s *CatalogService) {
		s.newUOW = func() unitOfWork {
			return factory()
		}
	}
}

// WithImageUploader sets the asset host used for product images.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithImageUploader(uploader imageUploader) option {
	return func(s *CatalogService) {
		s.uploader = uploader
	}
}

// WithClock overrides the time source.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithClock(now func() time.Time) option {
	return func(s *CatalogService) {
		s.now = now
	}
}

// ListMenu returns the menu, optionally narrowed to items sharing a category,
// each annotated with its average rating.
func (s *CatalogService) ListMenu(ctx context.Context, categories []string) ([]menu.ListedItem, error) {
	ctx, span := otel.Tracer("catalogsvc").Start(ctx, "ListMenu")
	defer span.End()

	items, err := s.newUOW().MenuRepository().Query(ctx, &menu.QueryMenuModel{Categories: categories})
	if err != nil {
		return nil, err
	}

	listed := make([]menu.ListedItem, 0, len(items))
	for _, item := range items {
		listed = append(listed, menu.NewListedItem(item))
	}

	return listed, nil
}

// GetProduct returns an item with its rating summary, similar items and reviews.
func (s *CatalogService) GetProduct(ctx context.Context, menuID string) (menu.ProductDetail, error) {
	ctx, span := otel.Tracer("catalogsvc").Start(ctx, "GetProduct")
	defer span.End()

	work := s.newUOW()

	item, err := work.MenuRepository().GetByID(ctx, menuID)
	if err != nil {
		return menu.ProductDetail{}, err
	}

	candidates, err := work.MenuRepository().Query(ctx, &menu.QueryMenuModel{
		Categories: item.Categories,
		Limit:      similarLimit + 1,
	})
	if err != nil {
		return menu.ProductDetail{}, err
	}
	similar := make([]menu.ListedItem, 0, similarLimit)
	for _, c := range candidates {
		if c.MenuID == item.MenuID || len(similar) == similarLimit {
			continue
		}
		similar = append(similar, menu.NewListedItem(c))
	}

	reviews, err := work.ReviewRepository().ListByMenu(ctx, menuID)
	if err != nil {
		return menu.ProductDetail{}, err
	}

	emails := make([]string, 0, len(reviews))
	for _, r := range reviews {
		if !slices.Contains(emails, r.UserEmail) {
			emails = append(emails, r.UserEmail)
		}
	}
	authors, err := work.UserRepository().GetByEmails(ctx, emails)
	if err != nil {
		return menu.ProductDetail{}, err
	}

	annotated := make([]review.WithAuthor, 0, len(reviews))
	for _, r := range reviews {
		wa := review.WithAuthor{Review: r, AuthorName: review.UnknownAuthor}
		if u, ok := authors[r.UserEmail]; ok {
			wa.AuthorName = u.UserName
			wa.ProfileImage = u.ProfileImage
		}
		annotated = append(annotated, wa)
	}

	return menu.ProductDetail{
		Item:         item,
		Rating:       menu.Aggregate(item.Ratings),
		Similar:      similar,
		Reviews:      annotated,
		TotalReviews: len(annotated),
	}, nil
}

// CreateItem uploads the optional image, then allocates a menu id from the
// categories and inserts the item under a per-prefix lock.
func (s *CatalogService) CreateItem(ctx context.Context, in menu.ItemInput, image *Image) (menu.MenuItem, error) {
	ctx, span := otel.Tracer("catalogsvc").Start(ctx, "CreateItem")
	defer span.End()

	if err := in.Validate(true); err != nil {
		return menu.MenuItem{}, err
	}
	prefix, err := menu.Prefix(in.Categories)
	if err != nil {
		return menu.MenuItem{}, err
	}

	if image != nil {
		in.ImageRef, err = s.upload(ctx, in.Name, image)
		if err != nil {
			return menu.MenuItem{}, err
		}
	}

	work := s.newUOW()
	if err := work.Begin(ctx); err != nil {
		return menu.MenuItem{}, err
	}
	defer func() { _ = work.Rollback(ctx) }()

	if err := work.MenuRepository().LockPrefix(ctx, prefix); err != nil {
		return menu.MenuItem{}, err
	}
	existing, err := work.MenuRepository().ListIDsWithPrefix(ctx, prefix)
	if err != nil {
		return menu.MenuItem{}, err
	}

	now := s.now()
	item := menu.MenuItem{
		MenuID:      menu.NextMenuID(prefix, existing),
		Name:        in.Name,
		PriceMinor:  in.PriceMinor,
		Description: in.Description,
		Categories:  in.Categories,
		ImageRef:    in.ImageRef,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := work.MenuRepository().Insert(ctx, item); err != nil {
		return menu.MenuItem{}, err
	}

	if err := work.Commit(ctx); err != nil {
		return menu.MenuItem{}, err
	}

	return item, nil
}

// UpdateItem edits name, price, description and optionally the image of an item.
func (s *CatalogService) UpdateItem(
	ctx context.Context,
	menuID string,
	in menu.ItemInput,
	image *Image,
) (menu.MenuItem, error) {
	ctx, span := otel.Tracer("catalogsvc").Start(ctx, "UpdateItem")
	defer span.End()

	if err := in.Validate(false); err != nil {
		return menu.MenuItem{}, err
	}

	if image != nil {
		ref, err := s.upload(ctx, in.Name, image)
		if err != nil {
			return menu.MenuItem{}, err
		}
		in.ImageRef = ref
	}

	work := s.newUOW()
	if err := work.MenuRepository().Update(ctx, menuID, in, s.now()); err != nil {
		return menu.MenuItem{}, err
	}

	return work.MenuRepository().GetByID(ctx, menuID)
}

// DeleteItem removes an item. Orders keep their snapshots; carts keep a stale reference.
func (s *CatalogService) DeleteItem(ctx context.Context, menuID string) error {
	ctx, span := otel.Tracer("catalogsvc").Start(ctx, "DeleteItem")
	defer span.End()

	return s.newUOW().MenuRepository().Delete(ctx, menuID)
}

func (s *CatalogService) upload(ctx context.Context, productName string, image *Image) (string, error) {
	if s.uploader == nil {
		return "", &errs.UpstreamError{Provider: "imagekit", Message: "image upload is not configured"}
	}

	return s.uploader.Upload(ctx, image.File, imagekit.FileName(productName, image.Name))
}
