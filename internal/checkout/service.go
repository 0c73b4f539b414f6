package checkout

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/coupons"
	"github.com/angelmondragon/storefront/internal/profile"
	"github.com/angelmondragon/storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
	"github.com/angelmondragon/storefront/pkg/types"
)

type committer interface {
	Commit(ctx context.Context, m *Machine) (*Placed, error)
}

type commitRecorder interface {
	ObserveCommit(outcome string, duration time.Duration)
}

// Service runs the checkout wizard for one shopper at a time.
type Service interface {
	Start(ctx context.Context, userID uuid.UUID, lang enums.Language) (*View, error)
	Get(ctx context.Context, userID uuid.UUID) (*View, error)
	Abandon(ctx context.Context, userID uuid.UUID) error
	UpdateShipping(ctx context.Context, userID uuid.UUID, addr types.ShippingAddress) (*View, error)
	SelectDelivery(ctx context.Context, userID uuid.UUID, option enums.DeliveryOption) (*View, error)
	SelectPayment(ctx context.Context, userID uuid.UUID, sel PaymentSelection) (*View, error)
	Advance(ctx context.Context, userID uuid.UUID) (*View, error)
	Retreat(ctx context.Context, userID uuid.UUID) (*View, error)
	JumpTo(ctx context.Context, userID uuid.UUID, step enums.CheckoutStep) (*View, error)
	ApplyCoupon(ctx context.Context, userID uuid.UUID, code string) (*View, error)
	RemoveCoupon(ctx context.Context, userID uuid.UUID) (*View, error)
	PlaceOrder(ctx context.Context, userID uuid.UUID) (*View, error)
}

// ServiceDeps wires the service collaborators.
type ServiceDeps struct {
	Sessions        SessionStore
	Cart            cart.Store
	Profiles        profile.Store
	Engine          coupons.Engine
	Committer       committer
	Guard           CommitGuard
	Costs           DeliveryCosts
	Rules           Rules
	DefaultLanguage enums.Language
	StepTimeout     time.Duration
	Logger          *logger.Logger
	Metrics         commitRecorder
	Clock           func() time.Time
}

type service struct {
	sessions    SessionStore
	cart        cart.Store
	profiles    profile.Store
	engine      coupons.Engine
	committer   committer
	guard       CommitGuard
	costs       DeliveryCosts
	rules       Rules
	defaultLang enums.Language
	stepTimeout time.Duration
	logg        *logger.Logger
	metrics     commitRecorder
	now         func() time.Time
}

// NewService builds the checkout service.
func NewService(deps ServiceDeps) (Service, error) {
	if deps.Sessions == nil {
		return nil, fmt.Errorf("session store required")
	}
	if deps.Cart == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if deps.Profiles == nil {
		return nil, fmt.Errorf("profile store required")
	}
	if deps.Engine == nil {
		return nil, fmt.Errorf("coupon engine required")
	}
	if deps.Committer == nil {
		return nil, fmt.Errorf("order committer required")
	}
	if deps.Guard == nil {
		deps.Guard = NewLocalGuard()
	}
	if !deps.DefaultLanguage.IsValid() {
		deps.DefaultLanguage = enums.LanguageArabic
	}
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	return &service{
		sessions:    deps.Sessions,
		cart:        deps.Cart,
		profiles:    deps.Profiles,
		engine:      deps.Engine,
		committer:   deps.Committer,
		guard:       deps.Guard,
		costs:       deps.Costs,
		rules:       deps.Rules,
		defaultLang: deps.DefaultLanguage,
		stepTimeout: deps.StepTimeout,
		logg:        deps.Logger,
		metrics:     deps.Metrics,
		now:         deps.Clock,
	}, nil
}

// Start resumes the open session or opens a new one pre-filled from the default address.
func (s *service) Start(ctx context.Context, userID uuid.UUID, lang enums.Language) (*View, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user required")
	}
	c, err := s.loadOptional(ctx, userID)
	if err != nil {
		return nil, err
	}
	if c == nil || c.Confirmed() {
		if !lang.IsValid() {
			lang = s.defaultLang
		}
		c = NewContext(userID, lang, s.prefill(ctx, userID), s.now().UTC())
		s.logg.Info(s.logg.WithSessionID(ctx, c.SessionID), "checkout.session.started")
	} else if lang.IsValid() {
		c.Language = lang
	}
	return s.persist(ctx, NewMachine(c, s.rules, s.now), nil)
}

func (s *service) Get(ctx context.Context, userID uuid.UUID) (*View, error) {
	return s.mutate(ctx, userID, func(*Machine) error { return nil })
}

// Abandon drops the session. The cart is left untouched.
func (s *service) Abandon(ctx context.Context, userID uuid.UUID) error {
	ioCtx, cancel := withStepTimeout(ctx, s.stepTimeout)
	defer cancel()
	if err := s.sessions.Delete(ioCtx, userID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "abandon checkout")
	}
	return nil
}

func (s *service) UpdateShipping(ctx context.Context, userID uuid.UUID, addr types.ShippingAddress) (*View, error) {
	return s.mutate(ctx, userID, func(m *Machine) error { return m.SetShipping(addr) })
}

func (s *service) SelectDelivery(ctx context.Context, userID uuid.UUID, option enums.DeliveryOption) (*View, error) {
	return s.mutate(ctx, userID, func(m *Machine) error { return m.SelectDelivery(option) })
}

func (s *service) SelectPayment(ctx context.Context, userID uuid.UUID, sel PaymentSelection) (*View, error) {
	return s.mutate(ctx, userID, func(m *Machine) error { return m.SelectPayment(sel) })
}

func (s *service) Advance(ctx context.Context, userID uuid.UUID) (*View, error) {
	return s.mutate(ctx, userID, func(m *Machine) error { return m.Advance() })
}

func (s *service) Retreat(ctx context.Context, userID uuid.UUID) (*View, error) {
	return s.mutate(ctx, userID, func(m *Machine) error { return m.Retreat() })
}

func (s *service) JumpTo(ctx context.Context, userID uuid.UUID, step enums.CheckoutStep) (*View, error) {
	return s.mutate(ctx, userID, func(m *Machine) error { return m.JumpTo(step) })
}

// ApplyCoupon validates code against the live subtotal and stores it on the session.
func (s *service) ApplyCoupon(ctx context.Context, userID uuid.UUID, code string) (*View, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon code required").
			WithDetails(map[string]string{"code": "is required"})
	}
	m, err := s.machine(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := m.requireOpen(); err != nil {
		return nil, err
	}
	lines, err := s.readLines(ctx, m.Context())
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, s.exitEmptyCart(ctx, userID)
	}

	validateCtx, cancel := withStepTimeout(ctx, s.stepTimeout)
	applied, err := s.engine.Validate(validateCtx, code, cart.Subtotal(lines))
	cancel()
	if err != nil {
		return nil, err
	}
	if err := m.ApplyCoupon(*applied); err != nil {
		return nil, err
	}
	return s.persist(ctx, m, lines)
}

// RemoveCoupon clears the coupon without touching its usage counter.
func (s *service) RemoveCoupon(ctx context.Context, userID uuid.UUID) (*View, error) {
	return s.mutate(ctx, userID, func(m *Machine) error { return m.RemoveCoupon() })
}

// PlaceOrder commits the session. A confirmed session answers with its existing order, and a
// second submit while the first is running is refused.
func (s *service) PlaceOrder(ctx context.Context, userID uuid.UUID) (*View, error) {
	started := s.now()
	m, err := s.machine(ctx, userID)
	if err != nil {
		return nil, err
	}
	if m.Context().Confirmed() {
		return s.confirmedView(m), nil
	}
	if err := m.ReadyToCommit(); err != nil {
		s.observe(metrics.OutcomeRejected, started)
		return nil, err
	}

	release, err := s.guard.Acquire(ctx, userID)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeCommitInProgress) {
			s.observe(metrics.OutcomeInProgress, started)
		}
		return nil, err
	}
	defer release()

	// Another request may have finished the commit while this one waited for the guard.
	m, err = s.machine(ctx, userID)
	if err != nil {
		return nil, err
	}
	if m.Context().Confirmed() {
		return s.confirmedView(m), nil
	}

	ctx = s.logg.WithSessionID(ctx, m.Context().SessionID)
	placed, err := s.committer.Commit(ctx, m)
	if err != nil {
		return nil, s.commitFailed(ctx, m, err, started)
	}

	ctx = s.logg.WithOrderNumber(ctx, placed.OrderNumber)
	if err := s.save(ctx, m.Context()); err != nil {
		s.logg.Error(ctx, "checkout.session.save_after_commit_failed", err)
	}
	s.observe(metrics.OutcomeSuccess, started)
	return s.confirmedView(m), nil
}

func (s *service) commitFailed(ctx context.Context, m *Machine, err error, started time.Time) error {
	if reason, ok := coupons.ReasonOf(err); ok {
		s.observe(metrics.OutcomeRejected, started)
		if removeErr := m.RemoveCoupon(); removeErr == nil {
			if saveErr := s.save(ctx, m.Context()); saveErr != nil {
				s.logg.Error(ctx, "checkout.session.save_failed", saveErr)
			}
		}
		return pkgerrors.Wrap(pkgerrors.CodeCouponRejected, err, "coupon no longer applies").
			WithDetails(map[string]any{"reason": reason, "removed": true})
	}
	if pkgerrors.IsCode(err, pkgerrors.CodeCartEmpty) {
		s.observe(metrics.OutcomeRejected, started)
		return s.exitEmptyCart(ctx, m.Context().UserID)
	}
	if pkgerrors.IsCode(err, pkgerrors.CodeValidation) || pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		s.observe(metrics.OutcomeRejected, started)
		return err
	}
	s.observe(metrics.OutcomeFailed, started)
	return err
}

// mutate loads the session, applies fn and stores the result with fresh totals.
func (s *service) mutate(ctx context.Context, userID uuid.UUID, fn func(m *Machine) error) (*View, error) {
	m, err := s.machine(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := fn(m); err != nil {
		return nil, err
	}
	return s.persist(ctx, m, nil)
}

// persist re-reads the cart, recalculates the coupon, saves the session and renders it. A session
// whose cart went empty is closed.
func (s *service) persist(ctx context.Context, m *Machine, lines []cart.Line) (*View, error) {
	if m.Context().Confirmed() {
		if err := s.save(ctx, m.Context()); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save checkout session")
		}
		return s.confirmedView(m), nil
	}
	if lines == nil {
		var err error
		if lines, err = s.readLines(ctx, m.Context()); err != nil {
			return nil, err
		}
	}
	if len(lines) == 0 {
		return nil, s.exitEmptyCart(ctx, m.Context().UserID)
	}

	var notices []Notice
	discount, notice, err := s.recalculate(m, cart.Subtotal(lines))
	if err != nil {
		return nil, err
	}
	if notice != nil {
		notices = append(notices, *notice)
	}
	totals := ComputeTotals(lines, s.costs.Cost(m.Context().Delivery), discount)

	if err := s.save(ctx, m.Context()); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save checkout session")
	}
	return buildView(m, s.costs, lines, totals, notices), nil
}

// recalculate keeps the discount in step with subtotal and drops a coupon that stopped applying.
func (s *service) recalculate(m *Machine, subtotal decimal.Decimal) (decimal.Decimal, *Notice, error) {
	c := m.Context()
	if c.Coupon == nil {
		return decimal.Zero, nil, nil
	}
	discount, err := s.engine.Recalculate(*c.Coupon, subtotal)
	if err == nil {
		c.Coupon.Discount = discount
		return discount, nil, nil
	}
	reason, _ := coupons.ReasonOf(err)
	code := c.Coupon.Code
	if err := m.RemoveCoupon(); err != nil {
		return decimal.Zero, nil, err
	}
	notice := &Notice{
		Code:    string(pkgerrors.CodeCouponRejected),
		Reason:  reason,
		Message: fmt.Sprintf("coupon %s no longer applies and was removed", code),
	}
	return decimal.Zero, notice, nil
}

func (s *service) confirmedView(m *Machine) *View {
	placed := m.Context().Placed
	return buildView(m, s.costs, nil, placed.Totals, nil)
}

func (s *service) machine(ctx context.Context, userID uuid.UUID) (*Machine, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user required")
	}
	c, err := s.loadOptional(ctx, userID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no active checkout")
	}
	return NewMachine(c, s.rules, s.now), nil
}

func (s *service) loadOptional(ctx context.Context, userID uuid.UUID) (*Context, error) {
	ioCtx, cancel := withStepTimeout(ctx, s.stepTimeout)
	defer cancel()
	c, err := s.sessions.Load(ioCtx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load checkout session")
	}
	return c, nil
}

func (s *service) save(ctx context.Context, c *Context) error {
	ioCtx, cancel := withStepTimeout(ctx, s.stepTimeout)
	defer cancel()
	return s.sessions.Save(ioCtx, c)
}

func (s *service) readLines(ctx context.Context, c *Context) ([]cart.Line, error) {
	ioCtx, cancel := withStepTimeout(ctx, s.stepTimeout)
	defer cancel()
	lines, err := s.cart.GetLines(ioCtx, c.UserID, c.Language)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read cart")
	}
	if lines == nil {
		lines = []cart.Line{}
	}
	return lines, nil
}

// exitEmptyCart closes the session and reports the empty cart.
func (s *service) exitEmptyCart(ctx context.Context, userID uuid.UUID) error {
	ioCtx, cancel := withStepTimeout(ctx, s.stepTimeout)
	defer cancel()
	if err := s.sessions.Delete(ioCtx, userID); err != nil {
		s.logg.Error(ctx, "checkout.session.delete_failed", err)
	}
	return pkgerrors.New(pkgerrors.CodeCartEmpty, "cart is empty")
}

func (s *service) prefill(ctx context.Context, userID uuid.UUID) *types.ShippingAddress {
	ioCtx, cancel := withStepTimeout(ctx, s.stepTimeout)
	defer cancel()
	addr, err := s.profiles.GetDefaultAddress(ioCtx, userID)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "checkout.prefill.failed")
		return nil
	}
	return addr
}

func (s *service) observe(outcome string, started time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.ObserveCommit(outcome, s.now().Sub(started))
}
