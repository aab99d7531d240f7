package cart

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/festbook-cart/internal/events"
	"github.com/noah-isme/festbook-cart/internal/fx"
	"github.com/noah-isme/festbook-cart/internal/obs"
	"github.com/noah-isme/festbook-cart/internal/pricing"
	"github.com/noah-isme/festbook-cart/internal/store"
)

// UnitOfWork is a transaction exposing the full query set.
type UnitOfWork interface {
	Querier
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TxStarter opens units of work.
type TxStarter interface {
	Begin(ctx context.Context) (UnitOfWork, error)
}

// PoolTx opens units of work on a pgx pool.
type PoolTx struct {
	Pool store.Beginner
}

// Begin implements TxStarter.
func (p PoolTx) Begin(ctx context.Context) (UnitOfWork, error) {
	uow, err := store.Begin(ctx, p.Pool)
	if err != nil {
		return nil, err
	}
	return uow, nil
}

// Emitter publishes domain events.
type Emitter interface {
	Emit(ctx context.Context, topic, aggregateID string, payload any) (store.DomainEvent, error)
}

// Service runs reconciliation passes and cart mutations for one user at a
// time.
type Service struct {
	// Q serves reads made outside a unit of work.
	Q          Querier
	Tx         TxStarter
	Engine     Engine
	Events     Emitter
	Policy     fx.Policy
	ServiceFee decimal.Decimal
	Logger     zerolog.Logger
	Now        func() time.Time
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) logger(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &s.Logger
}

// pass is a committed reconciliation together with its totals.
type pass struct {
	User   store.User
	Result Result
	Totals pricing.Totals
}

// Reconcile re-prices the user's cart, persisting repairs in a single unit
// of work that is only opened when the cart has lines.
func (s *Service) Reconcile(ctx context.Context, userID int64) (Result, pricing.Totals, error) {
	p, err := s.reconcile(ctx, userID)
	if err != nil {
		return Result{}, pricing.Totals{}, err
	}
	return p.Result, p.Totals, nil
}

func (s *Service) reconcile(ctx context.Context, userID int64) (_ pass, err error) {
	defer func() {
		if err != nil {
			obs.ReconcileTotal.WithLabelValues("error").Inc()
		}
	}()
	if s == nil || s.Q == nil || s.Tx == nil {
		return pass{}, fmt.Errorf("%w: cart service not configured", ErrServer)
	}
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return pass{}, err
	}
	lines, err := s.Q.ListCartLines(ctx, user.ID)
	if err != nil {
		return pass{}, s.fail(ctx, user.ID, "list cart lines", err)
	}
	now := s.now()

	if len(lines) == 0 {
		gold, err := s.Engine.Membership.IsGold(ctx, s.Q, user.ID, now)
		if err != nil {
			return pass{}, s.fail(ctx, user.ID, "membership", err)
		}
		res := Result{Gold: gold, GoldOnly: gold}
		obs.ReconcileTotal.WithLabelValues("empty").Inc()
		return pass{User: user, Result: res, Totals: pricing.Compute(nil, gold, s.ServiceFee)}, nil
	}

	uow, err := s.Tx.Begin(ctx)
	if err != nil {
		return pass{}, s.fail(ctx, user.ID, "begin", err)
	}
	committed := false
	defer func() {
		if !committed {
			if rbErr := uow.Rollback(ctx); rbErr != nil {
				s.logger(ctx).Error().Err(rbErr).Int64("user_id", user.ID).Msg("cart reconcile rollback failed")
			}
		}
	}()

	res, err := s.Engine.Reconcile(ctx, uow, Pass{User: user, Lines: lines, Now: now})
	if err != nil {
		return pass{}, s.fail(ctx, user.ID, "reconcile", err)
	}
	if err := uow.Commit(ctx); err != nil {
		return pass{}, s.fail(ctx, user.ID, "commit", err)
	}
	committed = true

	totals := pricing.Compute(res.Items(), res.GoldOnly, s.ServiceFee)
	obs.ReconcileTotal.WithLabelValues("ok").Inc()
	for _, ev := range res.Events {
		obs.ReconcileEventsTotal.WithLabelValues(ev.Kind.String()).Inc()
	}
	s.publish(ctx, user, res, totals)
	return pass{User: user, Result: res, Totals: totals}, nil
}

func (s *Service) loadUser(ctx context.Context, userID int64) (store.User, error) {
	if userID <= 0 {
		return store.User{}, ErrUserNotFound
	}
	user, err := s.Q.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.User{}, ErrUserNotFound
		}
		return store.User{}, s.fail(ctx, userID, "load user", err)
	}
	return user, nil
}

// fail logs the cause and returns it wrapped in ErrServer.
func (s *Service) fail(ctx context.Context, userID int64, stage string, err error) error {
	s.logger(ctx).Error().Err(err).Int64("user_id", userID).Str("stage", stage).Msg("cart operation failed")
	return fmt.Errorf("%w: %s: %w", ErrServer, stage, err)
}

type repricedPayload struct {
	UserID   int64           `json:"userId"`
	Reasons  []string        `json:"reasons"`
	Events   []Event         `json:"events"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Currency string          `json:"currency"`
}

// publish emits repricing events after commit. Failures are logged only.
func (s *Service) publish(ctx context.Context, user store.User, res Result, totals pricing.Totals) {
	if s.Events == nil || len(res.Events) == 0 {
		return
	}
	aggregate := "user:" + strconv.FormatInt(user.ID, 10)
	if _, err := s.Events.Emit(ctx, events.TopicCartRepriced, aggregate, repricedPayload{
		UserID:   user.ID,
		Reasons:  Reasons(res.Events),
		Events:   res.Events,
		Subtotal: totals.Subtotal,
		Currency: user.Currency.Code,
	}); err != nil {
		s.logger(ctx).Warn().Err(err).Int64("user_id", user.ID).Msg("emit cart.repriced failed")
	}
	for _, ev := range res.Events {
		if ev.Kind != LineEvicted {
			continue
		}
		if _, err := s.Events.Emit(ctx, events.TopicCartLineEvicted, aggregate, ev); err != nil {
			s.logger(ctx).Warn().Err(err).Int64("user_id", user.ID).Int64("cart_id", ev.LineID).Msg("emit cart.line_evicted failed")
		}
	}
}

// inTx runs fn in a unit of work, committing on success.
func (s *Service) inTx(ctx context.Context, fn func(UnitOfWork) error) error {
	uow, err := s.Tx.Begin(ctx)
	if err != nil {
		return err
	}
	if err := fn(uow); err != nil {
		if rbErr := uow.Rollback(ctx); rbErr != nil {
			s.logger(ctx).Error().Err(rbErr).Msg("cart rollback failed")
		}
		return err
	}
	return uow.Commit(ctx)
}
