package cartsvc

import (
	"context"
	"fmt"

	"github.com/corray333/backend-labs/coffeeshop/internal/dal/interfaces/icartrepo"
	"github.com/corray333/backend-labs/coffeeshop/internal/dal/interfaces/imenurepo"
	"github.com/corray333/backend-labs/coffeeshop/internal/dal/interfaces/ivoucherrepo"
	"github.com/corray333/backend-labs/coffeeshop/internal/dal/postgres"
	"github.com/corray333/backend-labs/coffeeshop/internal/dal/uow"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/models/cart"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/models/menu"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/models/pricing"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/models/voucher"
	"github.com/google/uuid"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"
)

// CartService manages per-user carts and their pricing.
type CartService struct {
	newUOW func() unitOfWork
	calc   pricing.Calculator
	newID  func() string
}

type unitOfWork interface {
	Begin(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	MenuRepository() imenurepo.IMenuRepository
	CartRepository() icartrepo.ICartRepository
	VoucherRepository() ivoucherrepo.IVoucherRepository
}

// option is a function that configures the CartService.
type option func(*CartService)

// MustNewCartService creates a new CartService. The tax rate is read from
// pricing.tax_rate_percent unless WithTaxRate is given.
func MustNewCartService(opts ...option) *CartService {
	s := &CartService{
		calc:  pricing.NewCalculator(viper.GetInt64("pricing.tax_rate_percent")),
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.newUOW == nil {
		panic("cartsvc: storage is not configured")
	}

	return s
}

// WithPostgresClient sets the Postgres client for the CartService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithPostgresClient(pgClient *postgres.Client) option {
	return func(s *CartService) {
		s.newUOW = func() unitOfWork {
			return uow.NewUnitOfWork(pgClient)
		}
	}
}

// WithUnitOfWork sets a custom unit of work constructor.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithUnitOfWork(factory func() uow.UnitOfWork) option {
	return func(s *CartService) {
		s.newUOW = func() unitOfWork {
			return factory()
		}
	}
}

// WithTaxRate overrides the configured tax rate.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithTaxRate(percent int64) option {
	return func(s *CartService) {
		s.calc = pricing.NewCalculator(percent)
	}
}

// WithIDGenerator overrides the cart line id generator.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithIDGenerator(newID func() string) option {
	return func(s *CartService) {
		s.newID = newID
	}
}

// AddItemInput describes a line to add to the cart.
type AddItemInput struct {
	MenuID   string
	Quantity int64
	Option1  *string
	Option2  []string
}

// QuantityUpdate is the outcome of SetQuantity.
type QuantityUpdate struct {
	pricing.Breakdown
	LinePrice int64 `json:"line_price"`
	LineTotal int64 `json:"line_total"`
}

// View returns the cart of userEmail resolved against the catalog. Lines whose
// item was removed from the menu carry an error and are not priced.
func (s *CartService) View(ctx context.Context, userEmail string) (cart.View, error) {
	ctx, span := otel.Tracer("cartsvc").Start(ctx, "View")
	defer span.End()

	work := s.newUOW()

	c, err := work.CartRepository().Get(ctx, userEmail)
	if err != nil {
		return cart.View{}, err
	}
	items, err := loadItems(ctx, work.MenuRepository(), c.MenuIDs())
	if err != nil {
		return cart.View{}, err
	}

	lines, priced := cart.Resolve(c.Lines, items)

	return cart.View{
		Lines:     lines,
		Breakdown: s.calc.Price(priced, nil),
	}, nil
}

// AddItem merges the line into the cart of userEmail.
func (s *CartService) AddItem(ctx context.Context, userEmail string, in AddItemInput) (cart.Line, error) {
	ctx, span := otel.Tracer("cartsvc").Start(ctx, "AddItem")
	defer span.End()

	if in.Quantity < 1 {
		return cart.Line{}, cart.ErrInvalidQuantity
	}

	var line cart.Line
	err := s.mutate(ctx, userEmail, func(work unitOfWork, c *cart.Cart) error {
		if _, err := work.MenuRepository().GetByID(ctx, in.MenuID); err != nil {
			return err
		}

		var err error
		line, err = c.Add(in.MenuID, in.Quantity, in.Option1, in.Option2, s.newID)

		return err
	})
	if err != nil {
		return cart.Line{}, err
	}

	return line, nil
}

// SetQuantity sets the quantity of the first line for menuID and returns the
// repriced cart. A cart without such a line is left as is.
func (s *CartService) SetQuantity(
	ctx context.Context,
	userEmail string,
	menuID string,
	quantity int64,
) (QuantityUpdate, error) {
	ctx, span := otel.Tracer("cartsvc").Start(ctx, "SetQuantity")
	defer span.End()

	if quantity < 1 {
		return QuantityUpdate{}, cart.ErrInvalidQuantity
	}

	var update QuantityUpdate
	err := s.mutate(ctx, userEmail, func(work unitOfWork, c *cart.Cart) error {
		if _, err := c.SetQuantity(menuID, quantity); err != nil {
			return err
		}

		items, err := loadItems(ctx, work.MenuRepository(), c.MenuIDs())
		if err != nil {
			return err
		}
		_, priced := cart.Resolve(c.Lines, items)
		update.Breakdown = s.calc.Price(priced, nil)

		if item, ok := items[menuID]; ok {
			update.LinePrice = item.PriceMinor
			update.LineTotal = item.PriceMinor * quantity
		}

		return nil
	})
	if err != nil {
		return QuantityUpdate{}, err
	}

	return update, nil
}

// RemoveItem deletes the line with itemID. Removing a missing line is not an error.
func (s *CartService) RemoveItem(ctx context.Context, userEmail, itemID string) error {
	ctx, span := otel.Tracer("cartsvc").Start(ctx, "RemoveItem")
	defer span.End()

	return s.mutate(ctx, userEmail, func(_ unitOfWork, c *cart.Cart) error {
		c.Remove(itemID)
		return nil
	})
}

// ApplyVoucher prices the current cart with the voucher named by code.
// The cart itself is not changed.
func (s *CartService) ApplyVoucher(ctx context.Context, userEmail, code string) (pricing.VoucherPreview, error) {
	ctx, span := otel.Tracer("cartsvc").Start(ctx, "ApplyVoucher")
	defer span.End()

	work := s.newUOW()

	c, err := work.CartRepository().Get(ctx, userEmail)
	if err != nil {
		return pricing.VoucherPreview{}, err
	}
	items, err := loadItems(ctx, work.MenuRepository(), c.MenuIDs())
	if err != nil {
		return pricing.VoucherPreview{}, err
	}
	_, priced := cart.Resolve(c.Lines, items)

	var v *voucher.Voucher
	if code != "" {
		v, err = work.VoucherRepository().GetByCode(ctx, code)
		if err != nil {
			return pricing.VoucherPreview{}, err
		}
	}

	return s.calc.Preview(priced, code, v), nil
}

// mutate runs fn on the locked cart of userEmail and saves the result in the same transaction.
func (s *CartService) mutate(
	ctx context.Context,
	userEmail string,
	fn func(work unitOfWork, c *cart.Cart) error,
) error {
	work := s.newUOW()
	if err := work.Begin(ctx); err != nil {
		return err
	}
	defer func() { _ = work.Rollback(ctx) }()

	c, err := work.CartRepository().Lock(ctx, userEmail)
	if err != nil {
		return fmt.Errorf("failed to lock cart: %w", err)
	}

	if err := fn(work, &c); err != nil {
		return err
	}

	if _, err := work.CartRepository().Save(ctx, c); err != nil {
		return err
	}

	return work.Commit(ctx)
}

func loadItems(ctx context.Context, repo imenurepo.IMenuRepository, ids []string) (map[string]menu.MenuItem, error) {
	if len(ids) == 0 {
		return map[string]menu.MenuItem{}, nil
	}

	items, err := repo.Query(ctx, &menu.QueryMenuModel{MenuIDs: ids})
	if err != nil {
		return nil, err
	}

	return menu.ByID(items), nil
}
