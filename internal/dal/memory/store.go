// Package memory is an in-process implementation of the repositories and the
// unit of work. Transactions are serialized and roll back to a snapshot.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/corray333/backend-labs/coffeeshop/internal/dal/interfaces/iauditrepo"
	"github.com/corray333/backend-labs/coffeeshop/internal/dal/interfaces/icartrepo"
	"github.com/corray333/backend-labs/coffeeshop/internal/dal/interfaces/imenurepo"
	"github.com/corray333/backend-labs/coffeeshop/internal/dal/interfaces/iorderrepo"
	"github.com/corray333/backend-labs/coffeeshop/internal/dal/interfaces/ioutboxrepo"
	"github.com/corray333/backend-labs/coffeeshop/internal/dal/interfaces/ireviewrepo"
	"github.com/corray333/backend-labs/coffeeshop/internal/dal/interfaces/iuserrepo"
	"github.com/corray333/backend-labs/coffeeshop/internal/dal/interfaces/ivoucherrepo"
	"github.com/corray333/backend-labs/coffeeshop/internal/dal/uow"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/models/auditlog"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/models/cart"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/models/menu"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/models/order"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/models/outbox"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/models/review"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/models/user"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/models/voucher"
)

type state struct {
	menu     map[string]menu.MenuItem
	carts    map[string]cart.Cart
	vouchers map[string]voucher.Voucher
	orders   map[int64]order.Order
	reviews  []review.Review
	users    map[string]user.User
	outbox   []outbox.Event
	audit    []auditlog.OrderStatusChange
}

func newState() state {
	return state{
		menu:     make(map[string]menu.MenuItem),
		carts:    make(map[string]cart.Cart),
		vouchers: make(map[string]voucher.Voucher),
		orders:   make(map[int64]order.Order),
		users:    make(map[string]user.User),
	}
}

func (s state) clone() state {
	c := newState()
	for k, v := range s.menu {
		c.menu[k] = cloneMenuItem(v)
	}
	for k, v := range s.carts {
		c.carts[k] = cloneCart(v)
	}
	for k, v := range s.vouchers {
		c.vouchers[k] = v
	}
	for k, v := range s.orders {
		c.orders[k] = cloneOrder(v)
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	c.reviews = slices.Clone(s.reviews)
	c.outbox = slices.Clone(s.outbox)
	c.audit = slices.Clone(s.audit)

	return c
}

func cloneMenuItem(item menu.MenuItem) menu.MenuItem {
	item.Categories = slices.Clone(item.Categories)
	return item
}

func cloneCart(c cart.Cart) cart.Cart {
	lines := make([]cart.Line, 0, len(c.Lines))
	for _, l := range c.Lines {
		l.Option2 = slices.Clone(l.Option2)
		lines = append(lines, l)
	}
	c.Lines = lines

	return c
}

func cloneOrder(o order.Order) order.Order {
	lines := make([]order.LineSnapshot, 0, len(o.Lines))
	for _, l := range o.Lines {
		l.Option2 = slices.Clone(l.Option2)
		lines = append(lines, l)
	}
	o.Lines = lines

	return o
}

// Store holds the in-memory data.
type Store struct {
	mu   sync.Mutex
	txMu sync.Mutex
	st   state

	// Sequences live outside the snapshot so rolled back ids are never reused.
	nextOrderID  int64
	nextOutboxID int64
	nextAuditID  int64

	failures map[string]error
}

// NewStore initializes an empty Store.
func NewStore() *Store {
	return &Store{
		st:       newState(),
		failures: make(map[string]error),
	}
}

// FailOn makes every call of op (for example "menu.IncrementSold") return err.
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = err
}

// ClearFailures removes all injected failures.
func (s *Store) ClearFailures() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = make(map[string]error)
}

// fail must be called with mu held.
func (s *Store) fail(op string) error {
	return s.failures[op]
}

// Factory returns a unit of work constructor bound to the store.
func (s *Store) Factory() func() uow.UnitOfWork {
	return func() uow.UnitOfWork {
		return s.NewUnitOfWork()
	}
}

// NewUnitOfWork creates a unit of work over the store.
func (s *Store) NewUnitOfWork() *UnitOfWork {
	return &UnitOfWork{store: s}
}

// PutMenuItem seeds a menu item.
func (s *Store) PutMenuItem(item menu.MenuItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.menu[item.MenuID] = cloneMenuItem(item)
}

// MenuItem returns a stored menu item.
func (s *Store) MenuItem(menuID string) (menu.MenuItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.st.menu[menuID]

	return cloneMenuItem(item), ok
}

// PutUser seeds a user.
func (s *Store) PutUser(u user.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.users[u.Email] = u
}

// PutVoucher seeds a voucher.
func (s *Store) PutVoucher(v voucher.Voucher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.vouchers[v.Code] = v
}

// PutCart replaces a user's cart.
func (s *Store) PutCart(c cart.Cart) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.carts[c.UserEmail] = cloneCart(c)
}

// Cart returns the stored cart of a user.
func (s *Store) Cart(userEmail string) cart.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.st.carts[userEmail]
	if !ok {
		return cart.Cart{UserEmail: userEmail, Lines: []cart.Line{}}
	}

	return cloneCart(c)
}

// Orders returns every stored order ordered by id.
func (s *Store) Orders() []order.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	orders := make([]order.Order, 0, len(s.st.orders))
	for _, o := range s.st.orders {
		orders = append(orders, cloneOrder(o))
	}
	slices.SortFunc(orders, func(a, b order.Order) int {
		return int(a.ID - b.ID)
	})

	return orders
}

// PutOrder stores an order as is, advancing the order sequence past its id.
func (s *Store) PutOrder(o order.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.orders[o.ID] = cloneOrder(o)
	if o.ID > s.nextOrderID {
		s.nextOrderID = o.ID
	}
}

// Reviews returns every stored review.
func (s *Store) Reviews() []review.Review {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.st.reviews)
}

// OutboxEvents returns every outbox row, published or not.
func (s *Store) OutboxEvents() []outbox.Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.st.outbox)
}

// AuditLog returns every recorded status change.
func (s *Store) AuditLog() []auditlog.OrderStatusChange {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.st.audit)
}

// UnitOfWork is a serialized transaction over a Store.
type UnitOfWork struct {
	store    *Store
	inTx     bool
	snapshot state
}

func (u *UnitOfWork) Begin(_ context.Context) error {
	u.store.mu.Lock()
	err := u.store.fail("uow.Begin")
	u.store.mu.Unlock()
	if err != nil {
		return err
	}

	u.store.txMu.Lock()
	u.store.mu.Lock()
	u.snapshot = u.store.st.clone()
	u.store.mu.Unlock()
	u.inTx = true

	return nil
}

func (u *UnitOfWork) Commit(_ context.Context) error {
	if !u.inTx {
		return nil
	}

	u.store.mu.Lock()
	err := u.store.fail("uow.Commit")
	u.store.mu.Unlock()
	if err != nil {
		return err
	}

	u.inTx = false
	u.snapshot = state{}
	u.store.txMu.Unlock()

	return nil
}

func (u *UnitOfWork) Rollback(_ context.Context) error {
	if !u.inTx {
		return nil
	}

	u.store.mu.Lock()
	u.store.st = u.snapshot
	u.store.mu.Unlock()

	u.inTx = false
	u.snapshot = state{}
	u.store.txMu.Unlock()

	return nil
}

func (u *UnitOfWork) MenuRepository() imenurepo.IMenuRepository {
	return &menuRepository{store: u.store}
}

func (u *UnitOfWork) CartRepository() icartrepo.ICartRepository {
	return &cartRepository{store: u.store}
}

func (u *UnitOfWork) OrderRepository() iorderrepo.IOrderRepository {
	return &orderRepository{store: u.store}
}

func (u *UnitOfWork) VoucherRepository() ivoucherrepo.IVoucherRepository {
	return &voucherRepository{store: u.store}
}

func (u *UnitOfWork) ReviewRepository() ireviewrepo.IReviewRepository {
	return &reviewRepository{store: u.store}
}

func (u *UnitOfWork) UserRepository() iuserrepo.IUserRepository {
	return &userRepository{store: u.store}
}

func (u *UnitOfWork) OutboxRepository() ioutboxrepo.IOutboxRepository {
	return &outboxRepository{store: u.store}
}

func (u *UnitOfWork) AuditRepository() iauditrepo.IAuditRepository {
	return &auditRepository{store: u.store}
}
