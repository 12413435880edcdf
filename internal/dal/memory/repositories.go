package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/corray333/backend-labs/coffeeshop/internal/service/errs"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/models/auditlog"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/models/cart"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/models/menu"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/models/order"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/models/outbox"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/models/review"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/models/user"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/models/voucher"
)

type menuRepository struct {
	store *Store
}

func (r *menuRepository) Query(_ context.Context, filter *menu.QueryMenuModel) ([]menu.MenuItem, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err := r.store.fail("menu.Query"); err != nil {
		return nil, err
	}

	items := []menu.MenuItem{}
	for _, item := range r.store.st.menu {
		if len(filter.MenuIDs) > 0 && !slices.Contains(filter.MenuIDs, item.MenuID) {
			continue
		}
		if len(filter.Categories) > 0 && !overlaps(item.Categories, filter.Categories) {
			continue
		}
		items = append(items, cloneMenuItem(item))
	}
	slices.SortFunc(items, func(a, b menu.MenuItem) int {
		return strings.Compare(a.MenuID, b.MenuID)
	})
	if filter.Limit > 0 && len(items) > filter.Limit {
		items = items[:filter.Limit]
	}

	return items, nil
}

func overlaps(a, b []string) bool {
	for _, v := range a {
		if slices.Contains(b, v) {
			return true
		}
	}

	return false
}

func (r *menuRepository) GetByID(_ context.Context, menuID string) (menu.MenuItem, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err := r.store.fail("menu.GetByID"); err != nil {
		return menu.MenuItem{}, err
	}

	item, ok := r.store.st.menu[menuID]
	if !ok {
		return menu.MenuItem{}, errs.NotFound("menu item", menuID)
	}

	return cloneMenuItem(item), nil
}

func (r *menuRepository) LockPrefix(_ context.Context, _ string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	return r.store.fail("menu.LockPrefix")
}

func (r *menuRepository) ListIDsWithPrefix(_ context.Context, prefix string) ([]string, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err := r.store.fail("menu.ListIDsWithPrefix"); err != nil {
		return nil, err
	}

	ids := []string{}
	for id := range r.store.st.menu {
		if strings.HasPrefix(id, prefix) {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)

	return ids, nil
}

func (r *menuRepository) Insert(_ context.Context, item menu.MenuItem) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err := r.store.fail("menu.Insert"); err != nil {
		return err
	}

	if _, ok := r.store.st.menu[item.MenuID]; ok {
		return fmt.Errorf("menu item %s already exists", item.MenuID)
	}
	r.store.st.menu[item.MenuID] = cloneMenuItem(item)

	return nil
}

func (r *menuRepository) Update(_ context.Context, menuID string, in menu.ItemInput, updatedAt time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err := r.store.fail("menu.Update"); err != nil {
		return err
	}

	item, ok := r.store.st.menu[menuID]
	if !ok {
		return errs.NotFound("menu item", menuID)
	}
	item.Name = in.Name
	item.PriceMinor = in.PriceMinor
	item.Description = in.Description
	item.UpdatedAt = updatedAt
	if in.ImageRef != "" {
		item.ImageRef = in.ImageRef
	}
	if len(in.Categories) > 0 {
		item.Categories = slices.Clone(in.Categories)
	}
	r.store.st.menu[menuID] = item

	return nil
}

func (r *menuRepository) Delete(_ context.Context, menuID string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err := r.store.fail("menu.Delete"); err != nil {
		return err
	}

	if _, ok := r.store.st.menu[menuID]; !ok {
		return errs.NotFound("menu item", menuID)
	}
	delete(r.store.st.menu, menuID)

	return nil
}

func (r *menuRepository) IncrementSold(_ context.Context, menuID string, delta int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err := r.store.fail("menu.IncrementSold"); err != nil {
		return err
	}

	item, ok := r.store.st.menu[menuID]
	if !ok {
		return &errs.StaleReferenceError{MenuID: menuID}
	}
	item.Sold += delta
	r.store.st.menu[menuID] = item

	return nil
}

func (r *menuRepository) IncrementRatingBucket(_ context.Context, menuID string, star int) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err := r.store.fail("menu.IncrementRatingBucket"); err != nil {
		return err
	}

	if star < 1 || star > menu.MaxStars {
		return fmt.Errorf("rating bucket %d out of range", star)
	}
	item, ok := r.store.st.menu[menuID]
	if !ok {
		return &errs.StaleReferenceError{MenuID: menuID}
	}
	item.Ratings[star-1]++
	r.store.st.menu[menuID] = item

	return nil
}

type cartRepository struct {
	store *Store
}

func (r *cartRepository) Get(_ context.Context, userEmail string) (cart.Cart, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err := r.store.fail("cart.Get"); err != nil {
		return cart.Cart{}, err
	}

	c, ok := r.store.st.carts[userEmail]
	if !ok {
		return cart.Cart{UserEmail: userEmail, Lines: []cart.Line{}}, nil
	}

	return cloneCart(c), nil
}

func (r *cartRepository) Lock(_ context.Context, userEmail string) (cart.Cart, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err := r.store.fail("cart.Lock"); err != nil {
		return cart.Cart{}, err
	}

	c, ok := r.store.st.carts[userEmail]
	if !ok {
		c = cart.Cart{UserEmail: userEmail, Lines: []cart.Line{}}
		r.store.st.carts[userEmail] = c
	}

	return cloneCart(c), nil
}

func (r *cartRepository) Save(_ context.Context, c cart.Cart) (cart.Cart, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err := r.store.fail("cart.Save"); err != nil {
		return cart.Cart{}, err
	}

	stored := r.store.st.carts[c.UserEmail]
	if stored.Version != c.Version {
		return cart.Cart{}, fmt.Errorf("cart of %s: %w", c.UserEmail, errs.ErrConcurrentModification)
	}
	c.Version++
	r.store.st.carts[c.UserEmail] = cloneCart(c)

	return c, nil
}

type orderRepository struct {
	store *Store
}

func (r *orderRepository) Insert(_ context.Context, o order.Order) (order.Order, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err := r.store.fail("order.Insert"); err != nil {
		return order.Order{}, err
	}

	r.store.nextOrderID++
	o.ID = r.store.nextOrderID
	if o.Lines == nil {
		o.Lines = []order.LineSnapshot{}
	}
	r.store.st.orders[o.ID] = cloneOrder(o)

	return o, nil
}

func (r *orderRepository) Query(_ context.Context, filter *order.QueryOrdersModel) ([]order.Order, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err := r.store.fail("order.Query"); err != nil {
		return nil, err
	}

	return r.query(filter), nil
}

// query must be called with mu held.
func (r *orderRepository) query(filter *order.QueryOrdersModel) []order.Order {
	orders := []order.Order{}
	for _, o := range r.store.st.orders {
		if len(filter.Ids) > 0 && !slices.Contains(filter.Ids, o.ID) {
			continue
		}
		if len(filter.UserEmails) > 0 && !slices.Contains(filter.UserEmails, o.UserEmail) {
			continue
		}
		if len(filter.Statuses) > 0 && !slices.Contains(filter.Statuses, o.Status) {
			continue
		}
		orders = append(orders, cloneOrder(o))
	}
	slices.SortFunc(orders, func(a, b order.Order) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(orders) {
			return []order.Order{}
		}
		orders = orders[filter.Offset:]
	}
	if filter.Limit > 0 && len(orders) > filter.Limit {
		orders = orders[:filter.Limit]
	}

	return orders
}

func (r *orderRepository) GetByID(_ context.Context, id int64) (order.Order, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err := r.store.fail("order.GetByID"); err != nil {
		return order.Order{}, err
	}

	o, ok := r.store.st.orders[id]
	if !ok {
		return order.Order{}, errs.NotFound("order", id)
	}

	return cloneOrder(o), nil
}

func (r *orderRepository) UpdateStatus(_ context.Context, id int64, status order.Status) (order.Status, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err := r.store.fail("order.UpdateStatus"); err != nil {
		return "", err
	}

	o, ok := r.store.st.orders[id]
	if !ok {
		return "", errs.NotFound("order", id)
	}
	old := o.Status
	o.Status = status
	r.store.st.orders[id] = o

	return old, nil
}

func (r *orderRepository) Delete(_ context.Context, id int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err := r.store.fail("order.Delete"); err != nil {
		return err
	}

	if _, ok := r.store.st.orders[id]; !ok {
		return errs.NotFound("order", id)
	}
	delete(r.store.st.orders, id)

	return nil
}

func (r *orderRepository) SumTotals(_ context.Context, from, to time.Time) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err := r.store.fail("order.SumTotals"); err != nil {
		return 0, err
	}

	var total int64
	for _, o := range r.store.st.orders {
		if !o.CreatedAt.Before(from) && o.CreatedAt.Before(to) {
			total += o.TotalPriceMinor
		}
	}

	return total, nil
}

type voucherRepository struct {
	store *Store
}

func (r *voucherRepository) GetByCode(_ context.Context, code string) (*voucher.Voucher, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err := r.store.fail("voucher.GetByCode"); err != nil {
		return nil, err
	}

	v, ok := r.store.st.vouchers[code]
	if !ok {
		return nil, nil
	}

	return &v, nil
}

type reviewRepository struct {
	store *Store
}

func (r *reviewRepository) Exists(_ context.Context, key review.Key) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err := r.store.fail("review.Exists"); err != nil {
		return false, err
	}

	return r.exists(key), nil
}

// exists must be called with mu held.
func (r *reviewRepository) exists(key review.Key) bool {
	return slices.ContainsFunc(r.store.st.reviews, func(rv review.Review) bool {
		return rv.Key == key
	})
}

func (r *reviewRepository) Insert(_ context.Context, rv review.Review) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err := r.store.fail("review.Insert"); err != nil {
		return err
	}

	if r.exists(rv.Key) {
		return errs.ErrAlreadyReviewed
	}
	r.store.st.reviews = append(r.store.st.reviews, rv)

	return nil
}

func (r *reviewRepository) ListByMenu(_ context.Context, menuID string) ([]review.Review, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err := r.store.fail("review.ListByMenu"); err != nil {
		return nil, err
	}

	reviews := []review.Review{}
	for _, rv := range r.store.st.reviews {
		if rv.MenuID == menuID {
			reviews = append(reviews, rv)
		}
	}
	slices.SortStableFunc(reviews, func(a, b review.Review) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	return reviews, nil
}

type userRepository struct {
	store *Store
}

func (r *userRepository) GetByEmail(_ context.Context, email string) (user.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err := r.store.fail("user.GetByEmail"); err != nil {
		return user.User{}, err
	}

	u, ok := r.store.st.users[email]
	if !ok {
		return user.User{}, errs.NotFound("user", email)
	}

	return u, nil
}

func (r *userRepository) GetByEmails(_ context.Context, emails []string) (map[string]user.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err := r.store.fail("user.GetByEmails"); err != nil {
		return nil, err
	}

	result := make(map[string]user.User, len(emails))
	for _, email := range emails {
		if u, ok := r.store.st.users[email]; ok {
			result[email] = u
		}
	}

	return result, nil
}

func (r *userRepository) Count(_ context.Context) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err := r.store.fail("user.Count"); err != nil {
		return 0, err
	}

	return int64(len(r.store.st.users)), nil
}

type outboxRepository struct {
	store *Store
}

func (r *outboxRepository) Enqueue(_ context.Context, event outbox.Event) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err := r.store.fail("outbox.Enqueue"); err != nil {
		return err
	}

	r.store.nextOutboxID++
	event.ID = r.store.nextOutboxID
	r.store.st.outbox = append(r.store.st.outbox, event)

	return nil
}

func (r *outboxRepository) Due(_ context.Context, now time.Time, limit int) ([]outbox.Event, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err := r.store.fail("outbox.Due"); err != nil {
		return nil, err
	}

	due := []outbox.Event{}
	waiting := make(map[int64]bool)
	for _, e := range r.store.st.outbox {
		if e.Published() || e.Exhausted() {
			continue
		}
		earlier := waiting[e.OrderID]
		waiting[e.OrderID] = true
		if earlier || e.AvailableAt.After(now) {
			continue
		}
		due = append(due, e)
		if limit > 0 && len(due) == limit {
			break
		}
	}

	return due, nil
}

func (r *outboxRepository) MarkPublished(_ context.Context, id int64, at time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err := r.store.fail("outbox.MarkPublished"); err != nil {
		return err
	}

	for i := range r.store.st.outbox {
		if r.store.st.outbox[i].ID == id {
			r.store.st.outbox[i].PublishedAt = &at
		}
	}

	return nil
}

func (r *outboxRepository) Reschedule(_ context.Context, event outbox.Event) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err := r.store.fail("outbox.Reschedule"); err != nil {
		return err
	}

	for i := range r.store.st.outbox {
		if r.store.st.outbox[i].ID == event.ID {
			r.store.st.outbox[i].Attempts = event.Attempts
			r.store.st.outbox[i].LastError = event.LastError
			r.store.st.outbox[i].AvailableAt = event.AvailableAt
		}
	}

	return nil
}

func (r *outboxRepository) Purge(_ context.Context, before time.Time) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err := r.store.fail("outbox.Purge"); err != nil {
		return 0, err
	}

	n := len(r.store.st.outbox)
	r.store.st.outbox = slices.DeleteFunc(r.store.st.outbox, func(e outbox.Event) bool {
		return e.Published() && e.PublishedAt.Before(before)
	})

	return int64(n - len(r.store.st.outbox)), nil
}

type auditRepository struct {
	store *Store
}

func (r *auditRepository) LogStatusChange(_ context.Context, change auditlog.OrderStatusChange) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err := r.store.fail("audit.LogStatusChange"); err != nil {
		return err
	}

	r.store.nextAuditID++
	change.ID = r.store.nextAuditID
	r.store.st.audit = append(r.store.st.audit, change)

	return nil
}

func (r *auditRepository) ListByOrder(_ context.Context, orderID int64) ([]auditlog.OrderStatusChange, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err := r.store.fail("audit.ListByOrder"); err != nil {
		return nil, err
	}

	changes := []auditlog.OrderStatusChange{}
	for _, c := range r.store.st.audit {
		if c.OrderID == orderID {
			changes = append(changes, c)
		}
	}

	return changes, nil
}
