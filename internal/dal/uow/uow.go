package uow

import (
	"context"
	"errors"

	"github.com/corray333/backend-labs/coffeeshop/internal/dal/interfaces/iauditrepo"
	"github.com/corray333/backend-labs/coffeeshop/internal/dal/interfaces/icartrepo"
	"github.com/corray333/backend-labs/coffeeshop/internal/dal/interfaces/imenurepo"
	"github.com/corray333/backend-labs/coffeeshop/internal/dal/interfaces/iorderrepo"
	"github.com/corray333/backend-labs/coffeeshop/internal/dal/interfaces/ioutboxrepo"
	"github.com/corray333/backend-labs/coffeeshop/internal/dal/interfaces/ireviewrepo"
	"github.com/corray333/backend-labs/coffeeshop/internal/dal/interfaces/iuserrepo"
	"github.com/corray333/backend-labs/coffeeshop/internal/dal/interfaces/ivoucherrepo"
	"github.com/corray333/backend-labs/coffeeshop/internal/dal/postgres"
	auditrepo "github.com/corray333/backend-labs/coffeeshop/internal/dal/repositories/audit/postgres"
	cartrepo "github.com/corray333/backend-labs/coffeeshop/internal/dal/repositories/cart/postgres"
	menurepo "github.com/corray333/backend-labs/coffeeshop/internal/dal/repositories/menu/postgres"
	orderrepo "github.com/corray333/backend-labs/coffeeshop/internal/dal/repositories/order/postgres"
	outboxrepo "github.com/corray333/backend-labs/coffeeshop/internal/dal/repositories/outbox/postgres"
	reviewrepo "github.com/corray333/backend-labs/coffeeshop/internal/dal/repositories/review/postgres"
	userrepo "github.com/corray333/backend-labs/coffeeshop/internal/dal/repositories/user/postgres"
	voucherrepo "github.com/corray333/backend-labs/coffeeshop/internal/dal/repositories/voucher/postgres"
	"github.com/jackc/pgx/v5"
)

// UnitOfWork groups the repositories that must share one transaction.
type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	MenuRepository() imenurepo.IMenuRepository
	CartRepository() icartrepo.ICartRepository
	OrderRepository() iorderrepo.IOrderRepository
	VoucherRepository() ivoucherrepo.IVoucherRepository
	ReviewRepository() ireviewrepo.IReviewRepository
	UserRepository() iuserrepo.IUserRepository
	OutboxRepository() ioutboxrepo.IOutboxRepository
	AuditRepository() iauditrepo.IAuditRepository
}

type unitOfWork struct {
	client *postgres.Client
	tx     pgx.Tx

	menuRepo    imenurepo.IMenuRepository
	cartRepo    icartrepo.ICartRepository
	orderRepo   iorderrepo.IOrderRepository
	voucherRepo ivoucherrepo.IVoucherRepository
	reviewRepo  ireviewrepo.IReviewRepository
	userRepo    iuserrepo.IUserRepository
	outboxRepo  ioutboxrepo.IOutboxRepository
	auditRepo   iauditrepo.IAuditRepository
}

func (u *unitOfWork) MenuRepository() imenurepo.IMenuRepository {
	return u.menuRepo
}

func (u *unitOfWork) CartRepository() icartrepo.ICartRepository {
	return u.cartRepo
}

func (u *unitOfWork) OrderRepository() iorderrepo.IOrderRepository {
	return u.orderRepo
}

func (u *unitOfWork) VoucherRepository() ivoucherrepo.IVoucherRepository {
	return u.voucherRepo
}

func (u *unitOfWork) ReviewRepository() ireviewrepo.IReviewRepository {
	return u.reviewRepo
}

func (u *unitOfWork) UserRepository() iuserrepo.IUserRepository {
	return u.userRepo
}

func (u *unitOfWork) OutboxRepository() ioutboxrepo.IOutboxRepository {
	return u.outboxRepo
}

func (u *unitOfWork) AuditRepository() iauditrepo.IAuditRepository {
	return u.auditRepo
}

// NewUnitOfWork creates a unit of work whose repositories run on the pool until Begin.
func NewUnitOfWork(client *postgres.Client) *unitOfWork {
	u := &unitOfWork{
		client: client,
	}
	u.bind(client.Pool())

	return u
}

func (u *unitOfWork) bind(conn postgres.GenericConn) {
	u.menuRepo = menurepo.NewMenuRepository(conn)
	u.cartRepo = cartrepo.NewCartRepository(conn)
	u.orderRepo = orderrepo.NewPostgresOrderRepository(conn)
	u.voucherRepo = voucherrepo.NewVoucherRepository(conn)
	u.reviewRepo = reviewrepo.NewReviewRepository(conn)
	u.userRepo = userrepo.NewUserRepository(conn)
	u.outboxRepo = outboxrepo.NewOutboxRepository(conn)
	u.auditRepo = auditrepo.NewAuditRepository(conn)
}

func (u *unitOfWork) Begin(ctx context.Context) error {
	tx, err := u.client.Pool().Begin(ctx)
	if err != nil {
		return err
	}

	u.tx = tx
	// Repositories now share the transaction
	u.bind(tx)

	return nil
}

func (u *unitOfWork) Commit(ctx context.Context) error {
	if u.tx == nil {
		return nil
	}

	return u.tx.Commit(ctx)
}

// Rollback is a no-op after a successful Commit, so it can always be deferred.
func (u *unitOfWork) Rollback(ctx context.Context) error {
	if u.tx == nil {
		return nil
	}

	err := u.tx.Rollback(ctx)
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}

	return err
}
