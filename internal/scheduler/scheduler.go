// Package scheduler drives the billing pipeline: periodic usage
// tracking, monthly invoice generation, and the overdue sweep. It is
// the component that serializes invoice generation per account, which
// the generator itself assumes but does not enforce.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	accountdomain "github.com/cloudkhata/cloudkhata/internal/account/domain"
	"github.com/cloudkhata/cloudkhata/internal/clock"
	invoicedomain "github.com/cloudkhata/cloudkhata/internal/invoice/domain"
	"github.com/cloudkhata/cloudkhata/internal/lock"
	usagedomain "github.com/cloudkhata/cloudkhata/internal/usage/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var ErrInvalidConfig = errors.New("scheduler: missing dependency")

type Params struct {
	fx.In

	Log         *zap.Logger
	Clock       clock.Clock
	AccountRepo accountdomain.Repository
	Tracker     usagedomain.Tracker
	Generator   invoicedomain.Generator
	Locker      *lock.Locker `optional:"true"`
	Config      Config       `optional:"true"`
}

type Scheduler struct {
	log         *zap.Logger
	cfg         Config
	clock       clock.Clock
	accountRepo accountdomain.Repository
	tracker     usagedomain.Tracker
	generator   invoicedomain.Generator
	locker      *lock.Locker

	lastSweep        time.Time
	lastInvoiceMonth string
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.Clock == nil || p.AccountRepo == nil || p.Tracker == nil || p.Generator == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		log:         p.Log.Named("scheduler"),
		cfg:         p.Config.withDefaults(),
		clock:       p.Clock,
		accountRepo: p.AccountRepo,
		tracker:     p.Tracker,
		generator:   p.Generator,
		locker:      p.Locker,
	}, nil
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.TrackInterval)
	defer ticker.Stop()

	for {
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RunOnce executes one scheduler tick: track every active account, close
// the previous month into invoices on the invoice day, and sweep overdue
// invoices when the sweep interval has elapsed. Per-account failures are
// joined and reported but never stop the remaining accounts.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	now := s.clock.Now()

	accounts, err := s.accountRepo.ListActiveAccounts(ctx)
	if err != nil {
		return fmt.Errorf("listing active accounts: %w", err)
	}

	invoicing := s.shouldInvoice(now)
	var jobErr error
	for _, account := range accounts {
		if ctx.Err() != nil {
			return errors.Join(jobErr, ctx.Err())
		}
		if err := s.processAccount(ctx, account, now, invoicing); err != nil {
			jobErr = errors.Join(jobErr, err)
		}
	}
	if invoicing {
		s.lastInvoiceMonth = now.Format("2006-01")
	}

	if now.Sub(s.lastSweep) >= s.cfg.SweepInterval {
		changed, err := s.generator.SweepOverdue(ctx)
		if err != nil {
			jobErr = errors.Join(jobErr, fmt.Errorf("overdue sweep: %w", err))
		} else {
			s.lastSweep = now
			if changed > 0 {
				s.log.Info("invoices marked overdue", zap.Int("count", changed))
			}
		}
	}
	return jobErr
}

// processAccount holds the account's billing lock across tracking and
// invoicing so a second scheduler replica cannot double-select the same
// unbilled records.
func (s *Scheduler) processAccount(ctx context.Context, account accountdomain.Account, now time.Time, invoicing bool) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.AccountTimeout)
	defer cancel()

	release, ok, err := s.acquireLock(ctx, account.ID.String())
	if err != nil {
		return fmt.Errorf("account %s: acquiring lock: %w", account.ID, err)
	}
	if !ok {
		s.log.Debug("account locked elsewhere, skipping",
			zap.String("account_id", account.ID.String()),
		)
		return nil
	}
	defer release()

	report, err := s.tracker.TrackAllActiveResources(ctx, account.ID)
	if err != nil {
		return fmt.Errorf("account %s: tracking: %w", account.ID, err)
	}
	if report.WriteFailures > 0 || len(report.CategoryErrors) > 0 {
		s.log.Warn("tracking pass degraded",
			zap.String("account_id", account.ID.String()),
			zap.Int("write_failures", report.WriteFailures),
			zap.Int("category_errors", len(report.CategoryErrors)),
		)
	}

	if invoicing {
		periodStart, periodEnd := previousMonth(now)
		result := s.generator.GenerateInvoice(ctx, invoicedomain.GenerateInvoiceRequest{
			AccountID:   account.ID,
			PeriodStart: periodStart,
			PeriodEnd:   periodEnd,
		})
		// an empty unbilled set is routine for idle accounts
		if !result.Success {
			s.log.Info("monthly invoice not generated",
				zap.String("account_id", account.ID.String()),
				zap.String("reason", result.Error),
			)
		}
	}
	return nil
}

func (s *Scheduler) acquireLock(ctx context.Context, accountID string) (release func(), ok bool, err error) {
	if s.locker == nil {
		return func() {}, true, nil
	}
	key := "billing:account:" + accountID
	token, ok, err := s.locker.TryLock(ctx, key, s.cfg.LockTTL)
	if err != nil || !ok {
		return nil, false, err
	}
	return func() {
		if err := s.locker.Release(context.WithoutCancel(ctx), key, token); err != nil {
			s.log.Warn("lock release failed", zap.String("key", key), zap.Error(err))
		}
	}, true, nil
}

func (s *Scheduler) shouldInvoice(now time.Time) bool {
	if now.Day() != s.cfg.InvoiceDay {
		return false
	}
	return s.lastInvoiceMonth != now.Format("2006-01")
}

// previousMonth returns the closed calendar month preceding now.
func previousMonth(now time.Time) (time.Time, time.Time) {
	end := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	start := end.AddDate(0, -1, 0)
	return start, end
}
