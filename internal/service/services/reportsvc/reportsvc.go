package reportsvc

import (
	"context"
	"slices"
	"time"

	"github.com/corray333/backend-labs/coffeeshop/internal/dal/interfaces/iorderrepo"
	"github.com/corray333/backend-labs/coffeeshop/internal/dal/interfaces/iuserrepo"
	"github.com/corray333/backend-labs/coffeeshop/internal/dal/postgres"
	"github.com/corray333/backend-labs/coffeeshop/internal/dal/uow"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/models/order"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/models/report"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"
)

// ReportService builds the admin dashboard figures.
type ReportService struct {
	newUOW func() unitOfWork
	now    func() time.Time
}

type unitOfWork interface {
	OrderRepository() iorderrepo.IOrderRepository
	UserRepository() iuserrepo.IUserRepository
}

// option is a function that configures the ReportService.
type option func(*ReportService)

// MustNewReportService creates a new ReportService.
func MustNewReportService(opts ...option) *ReportService {
	s := &ReportService{
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.newUOW == nil {
		panic("reportsvc: storage is not configured")
	}

	return s
}

// WithPostgresClient sets the Postgres client for the ReportService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithPostgresClient(pgClient *postgres.Client) option {
	return func(s *ReportService) {
		s.newUOW = func() unitOfWork {
			return uow.NewUnitOfWork(pgClient)
		}
	}
}

// WithUnitOfWork sets a custom unit of work constructor.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithUnitOfWork(factory func() uow.UnitOfWork) option {
	return func(s *ReportService) {
		s.newUOW = func() unitOfWork {
			return factory()
		}
	}
}

// WithClock overrides the time source.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithClock(now func() time.Time) option {
	return func(s *ReportService) {
		s.now = now
	}
}

// Overview returns this month's turnover, today's revenue with its change
// against yesterday, and the customer count. The aggregates run concurrently.
func (s *ReportService) Overview(ctx context.Context) (report.Overview, error) {
	ctx, span := otel.Tracer("reportsvc").Start(ctx, "Overview")
	defer span.End()

	month, today, yesterday := report.Windows(s.now())

	var (
		overview       report.Overview
		yesterdayTotal int64
	)

	g, gctx := errgroup.WithContext(ctx)
	sum := func(w report.Window, dst *int64) func() error {
		return func() error {
			total, err := s.newUOW().OrderRepository().SumTotals(gctx, w.From, w.To)
			if err != nil {
				return err
			}
			*dst = total

			return nil
		}
	}
	g.Go(sum(month, &overview.TurnoverMonth))
	g.Go(sum(today, &overview.Profit))
	g.Go(sum(yesterday, &yesterdayTotal))
	g.Go(func() error {
		count, err := s.newUOW().UserRepository().Count(gctx)
		if err != nil {
			return err
		}
		overview.Customers = count

		return nil
	})

	if err := g.Wait(); err != nil {
		return report.Overview{}, err
	}

	overview.ProfitChange = report.PercentChange(overview.Profit, yesterdayTotal)

	return overview, nil
}

// OrderReport returns every order as a report row, sorted by status rank and then newest first.
func (s *ReportService) OrderReport(ctx context.Context) ([]report.OrderRow, error) {
	ctx, span := otel.Tracer("reportsvc").Start(ctx, "OrderReport")
	defer span.End()

	work := s.newUOW()

	orders, err := work.OrderRepository().Query(ctx, &order.QueryOrdersModel{})
	if err != nil {
		return nil, err
	}

	emails := make([]string, 0, len(orders))
	for _, o := range orders {
		if !slices.Contains(emails, o.UserEmail) {
			emails = append(emails, o.UserEmail)
		}
	}
	users, err := work.UserRepository().GetByEmails(ctx, emails)
	if err != nil {
		return nil, err
	}

	rows := make([]report.OrderRow, 0, len(orders))
	for _, o := range orders {
		name := report.UnknownCustomer
		if u, ok := users[o.UserEmail]; ok {
			name = u.UserName
		}
		rows = append(rows, report.NewOrderRow(o, name))
	}
	report.SortRows(rows)

	return rows, nil
}
