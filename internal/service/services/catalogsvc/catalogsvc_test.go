package catalogsvc

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/corray333/backend-labs/coffeeshop/internal/dal/memory"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/errs"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/models/menu"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/models/review"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/models/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, time.June, 1, 10, 0, 0, 0, time.UTC)

type fakeUploader struct {
	names []string
	err   error
}

func (f *fakeUploader) Upload(_ context.Context, file io.Reader, name string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	_, _ = io.ReadAll(file)
	f.names = append(f.names, name)

	return "https://ik.imagekit.io/shop/" + name, nil
}

func newService(t *testing.T, store *memory.Store, uploader *fakeUploader) *CatalogService {
	t.Helper()

	return MustNewCatalogService(
		WithUnitOfWork(store.Factory()),
		WithImageUploader(uploader),
		WithClock(func() time.Time { return fixedNow }),
	)
}

func TestListMenuFiltersAndAnnotates(t *testing.T) {
	store := memory.NewStore()
	store.PutMenuItem(menu.MenuItem{MenuID: "C01", Name: "Latte", Categories: []string{"coffee"}, Ratings: menu.RatingCounters{0, 0, 0, 1, 3}})
	store.PutMenuItem(menu.MenuItem{MenuID: "S01", Name: "Croissant", Categories: []string{"snack"}})
	store.PutMenuItem(menu.MenuItem{MenuID: "CS01", Name: "Combo", Categories: []string{"coffee", "snack"}})

	svc := newService(t, store, &fakeUploader{})

	all, err := svc.ListMenu(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	coffee, err := svc.ListMenu(context.Background(), []string{"coffee"})
	require.NoError(t, err)
	require.Len(t, coffee, 2)
	assert.Equal(t, "C01", coffee[0].MenuID)
	assert.InDelta(t, 4.8, coffee[0].AverageRating, 1e-9)
	assert.Equal(t, "CS01", coffee[1].MenuID)
	assert.Zero(t, coffee[1].AverageRating)
}

func TestGetProduct(t *testing.T) {
	store := memory.NewStore()
	store.PutMenuItem(menu.MenuItem{MenuID: "C01", Name: "Latte", Categories: []string{"coffee"}, Ratings: menu.RatingCounters{0, 0, 0, 1, 1}})
	for _, id := range []string{"C02", "C03", "C04", "C05", "C06"} {
		store.PutMenuItem(menu.MenuItem{MenuID: id, Categories: []string{"coffee"}})
	}
	store.PutMenuItem(menu.MenuItem{MenuID: "S01", Categories: []string{"snack"}})
	store.PutUser(user.User{Email: "sari@example.com", UserName: "Sari", ProfileImage: "sari.png"})

	work := store.NewUnitOfWork()
	require.NoError(t, work.ReviewRepository().Insert(context.Background(), review.Review{
		Key:       review.Key{MenuID: "C01", UserEmail: "sari@example.com", OrderID: 1},
		Rating:    5,
		CreatedAt: fixedNow,
	}))
	require.NoError(t, work.ReviewRepository().Insert(context.Background(), review.Review{
		Key:       review.Key{MenuID: "C01", UserEmail: "gone@example.com", OrderID: 2},
		Rating:    4,
		CreatedAt: fixedNow.Add(-time.Hour),
	}))

	svc := newService(t, store, &fakeUploader{})
	detail, err := svc.GetProduct(context.Background(), "C01")
	require.NoError(t, err)

	assert.Equal(t, "Latte", detail.Item.Name)
	assert.InDelta(t, 4.5, detail.Rating.AverageRating, 1e-9)
	require.Len(t, detail.Similar, 4)
	for _, s := range detail.Similar {
		assert.NotEqual(t, "C01", s.MenuID)
	}
	require.Equal(t, 2, detail.TotalReviews)
	assert.Equal(t, "Sari", detail.Reviews[0].AuthorName)
	assert.Equal(t, "sari.png", detail.Reviews[0].ProfileImage)
	assert.Equal(t, review.UnknownAuthor, detail.Reviews[1].AuthorName)

	_, err = svc.GetProduct(context.Background(), "X99")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestCreateItemAllocatesID(t *testing.T) {
	store := memory.NewStore()
	for _, id := range []string{"CS01", "CS02", "CF05"} {
		store.PutMenuItem(menu.MenuItem{MenuID: id, Categories: []string{"coffee"}})
	}
	uploader := &fakeUploader{}
	svc := newService(t, store, uploader)

	item, err := svc.CreateItem(context.Background(), menu.ItemInput{
		Name:       "Kopi Susu",
		PriceMinor: 18000,
		Categories: []string{"coffee", "snack"},
	}, &Image{File: strings.NewReader("img"), Name: "photo.jpg"})
	require.NoError(t, err)

	assert.Equal(t, "CS03", item.MenuID)
	assert.Zero(t, item.Sold)
	assert.Equal(t, "https://ik.imagekit.io/shop/Kopi_Susu.jpg", item.ImageRef)
	assert.Equal(t, []string{"Kopi_Susu.jpg"}, uploader.names)

	stored, ok := store.MenuItem("CS03")
	require.True(t, ok)
	assert.Equal(t, fixedNow, stored.CreatedAt)

	next, err := svc.CreateItem(context.Background(), menu.ItemInput{
		Name:       "Kopi Gula Aren",
		PriceMinor: 20000,
		Categories: []string{"coffee", "snack"},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "CS04", next.MenuID)
}

func TestCreateItemUploadFailureStoresNothing(t *testing.T) {
	store := memory.NewStore()
	uploadErr := &errs.UpstreamError{Provider: "imagekit", Message: "quota exceeded"}
	svc := newService(t, store, &fakeUploader{err: uploadErr})

	_, err := svc.CreateItem(context.Background(), menu.ItemInput{
		Name:       "Matcha",
		PriceMinor: 22000,
		Categories: []string{"non-coffee"},
	}, &Image{File: strings.NewReader("img"), Name: "m.png"})
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrUpstream)

	_, ok := store.MenuItem("N01")
	assert.False(t, ok)
}

func TestCreateItemValidation(t *testing.T) {
	svc := newService(t, memory.NewStore(), &fakeUploader{})

	_, err := svc.CreateItem(context.Background(), menu.ItemInput{Name: "X", PriceMinor: 1}, nil)
	assert.ErrorIs(t, err, errs.ErrValidation)

	_, err = svc.CreateItem(context.Background(), menu.ItemInput{Name: "X", PriceMinor: -5, Categories: []string{"coffee"}}, nil)
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestCreateItemRollsBackOnInsertFailure(t *testing.T) {
	store := memory.NewStore()
	store.FailOn("menu.Insert", errors.New("disk full"))
	svc := newService(t, store, &fakeUploader{})

	_, err := svc.CreateItem(context.Background(), menu.ItemInput{
		Name:       "Tea",
		PriceMinor: 10000,
		Categories: []string{"tea"},
	}, nil)
	require.Error(t, err)

	store.ClearFailures()
	item, err := svc.CreateItem(context.Background(), menu.ItemInput{
		Name:       "Tea",
		PriceMinor: 10000,
		Categories: []string{"tea"},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "T01", item.MenuID)
}

func TestUpdateAndDeleteItem(t *testing.T) {
	store := memory.NewStore()
	store.PutMenuItem(menu.MenuItem{MenuID: "C01", Name: "Latte", PriceMinor: 15000, ImageRef: "old.png", Categories: []string{"coffee"}})
	svc := newService(t, store, &fakeUploader{})

	updated, err := svc.UpdateItem(context.Background(), "C01", menu.ItemInput{
		Name:        "Caffe Latte",
		PriceMinor:  17000,
		Description: "double shot",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Caffe Latte", updated.Name)
	assert.Equal(t, int64(17000), updated.PriceMinor)
	assert.Equal(t, "old.png", updated.ImageRef)
	assert.Equal(t, fixedNow, updated.UpdatedAt)

	_, err = svc.UpdateItem(context.Background(), "X99", menu.ItemInput{Name: "X"}, nil)
	assert.ErrorIs(t, err, errs.ErrNotFound)

	require.NoError(t, svc.DeleteItem(context.Background(), "C01"))
	assert.ErrorIs(t, svc.DeleteItem(context.Background(), "C01"), errs.ErrNotFound)
}
