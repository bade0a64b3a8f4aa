package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"sync"
	"time"

	accountdomain "github.com/dwikikusuma/farmgate/internal/account/domain"
	cartdomain "github.com/dwikikusuma/farmgate/internal/cart/domain"
	"github.com/dwikikusuma/farmgate/internal/checkout/domain"
	orderdomain "github.com/dwikikusuma/farmgate/internal/order/domain"
	paymentapp "github.com/dwikikusuma/farmgate/internal/payment/app"
	paymentdomain "github.com/dwikikusuma/farmgate/internal/payment/domain"
	"github.com/dwikikusuma/farmgate/pkg/httpclient"
	"github.com/dwikikusuma/farmgate/pkg/logger"
	"github.com/dwikikusuma/farmgate/pkg/metrics"
	"github.com/dwikikusuma/farmgate/pkg/notify"
	"github.com/google/uuid"
)

var (
	ErrEmptyCart          = errors.New("cart is empty")
	ErrUnpricedItems      = errors.New("cart has items without a price")
	ErrNoSession          = errors.New("no checkout in progress")
	ErrInvalidStep        = errors.New("not allowed at this checkout step")
	ErrSubmissionInFlight = errors.New("order submission already in progress")
	ErrAlreadySubmitted   = errors.New("order already submitted")
	ErrNoPaymentAttempt   = errors.New("no mobile money payment to confirm")

	ErrPaymentAwaitInFlight = errors.New("payment confirmation already in progress")
)

// RedirectCart is where the UI goes when checkout cannot start.
const RedirectCart = "/cart"

// DefaultSubmitTimeout bounds a submission once it has started. The request
// that triggered it may go away sooner.
const DefaultSubmitTimeout = 45 * time.Second

// MessageUnreachable is shown when the backend could not be reached or did
// not answer in time.
const MessageUnreachable = "We could not reach the store. Please try again."

const (
	NoticeEmptyCart        = "checkout_empty_cart"
	NoticeUnpricedItems    = "checkout_unpriced_items"
	NoticeOrderFailed      = "order_failed"
	NoticeOrderPlaced      = "order_placed"
	NoticePaymentPrompt    = "payment_prompt_sent"
	NoticePaymentFailed    = "payment_initiation_failed"
	NoticeAccountFailed    = "account_registration_failed"
	NoticeAccountCreated   = "account_created"
	NoticePaymentConfirmed = "payment_confirmed"
	NoticePaymentPending   = "payment_not_confirmed"
)

// Service is the checkout orchestrator. It holds at most one session.
type Service struct {
	cart     CartReader
	orders   OrderPlacer
	payments PaymentInitiator
	poller   PaymentAwaiter
	accounts AccountRegistrar

	fees          domain.FeePolicy
	submitTimeout time.Duration
	log           *slog.Logger
	metrics       *metrics.Metrics
	notices       notify.Sink
	now           func() time.Time
	newID         func() string

	mu         sync.Mutex
	session    *domain.Session
	submitting bool
	awaiting   bool
}

type Option func(*Service)

func WithFeePolicy(p domain.FeePolicy) Option {
	return func(s *Service) { s.fees = p }
}

// WithSubmitTimeout bounds the order, payment and account calls of one
// submission.
func WithSubmitTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.submitTimeout = d
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.log = logger.OrDefault(l) }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithNotices(sink notify.Sink) Option {
	return func(s *Service) { s.notices = notify.OrDiscard(sink) }
}

// WithAccounts enables guest account creation. Without it a request to
// create an account is ignored with a warning.
func WithAccounts(a AccountRegistrar) Option {
	return func(s *Service) { s.accounts = a }
}

func NewService(cart CartReader, orders OrderPlacer, payments PaymentInitiator, poller PaymentAwaiter, opts ...Option) *Service {
	s := &Service{
		cart:          cart,
		orders:        orders,
		payments:      payments,
		poller:        poller,
		fees:          domain.DefaultFeePolicy(),
		submitTimeout: DefaultSubmitTimeout,
		log:           slog.Default(),
		notices:       notify.Discard,
		now:           time.Now,
		newID:         uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Begin opens a session at INFO. An empty cart is a hard stop: the caller
// gets ErrEmptyCart and a notice redirecting to the cart.
//
// Details typed into an unfinished session are carried over.
func (s *Service) Begin(ctx context.Context) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.submitting {
		return domain.Session{}, ErrSubmissionInFlight
	}

	snap := s.cart.Current(ctx)
	if snap.Empty() {
		s.emptyCartLocked()
		return domain.Session{}, ErrEmptyCart
	}

	var details domain.Details
	if s.session != nil && !s.session.Submitted() {
		details = s.session.Details
	}
	s.session = &domain.Session{
		ID:        s.newID(),
		Step:      domain.StepInfo,
		Details:   details,
		Quote:     domain.NewQuote(snap, s.fees),
		StartedAt: s.now(),
	}
	s.log.Info("checkout started", slog.String("session_id", s.session.ID), slog.Int("items", snap.Totals.Items))
	return s.session.Clone(), nil
}

// Current returns a copy of the session, if there is one.
func (s *Service) Current() (domain.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return domain.Session{}, false
	}
	return s.session.Clone(), true
}

// Update replaces the customer's details. It does not validate; Next and
// Submit do.
func (s *Service) Update(d domain.Details) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.editableLocked(); err != nil {
		return domain.Session{}, err
	}
	s.session.Details = d
	return s.session.Clone(), nil
}

// Next validates the current step and advances. INFO checks customer and
// delivery details. REVIEW re-prices the cart and refuses an empty or
// unpriced cart.
func (s *Service) Next(ctx context.Context) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.editableLocked(); err != nil {
		return domain.Session{}, err
	}

	sess := s.session
	next := sess.Step.Next()
	if next == "" {
		return domain.Session{}, fmt.Errorf("%w: cannot advance from %s", ErrInvalidStep, sess.Step)
	}

	switch sess.Step {
	case domain.StepInfo:
		d := sess.Details
		if err := domain.ValidateInfo(&d); err != nil {
			return domain.Session{}, err
		}
		sess.Details = d
		sess.Quote = domain.NewQuote(s.cart.Current(ctx), s.fees)
	case domain.StepReview:
		snap := s.cart.Current(ctx)
		if err := s.guardLocked(snap); err != nil {
			return domain.Session{}, err
		}
		sess.Quote = domain.NewQuote(snap, s.fees)
	}

	sess.Step = next
	return sess.Clone(), nil
}

// Previous steps back from REVIEW or PAYMENT.
func (s *Service) Previous() (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.editableLocked(); err != nil {
		return domain.Session{}, err
	}
	prev := s.session.Step.Previous()
	if prev == "" {
		return domain.Session{}, fmt.Errorf("%w: cannot go back from %s", ErrInvalidStep, s.session.Step)
	}
	s.session.Step = prev
	return s.session.Clone(), nil
}

// Submit places the order from PAYMENT.
//
// The order is the only step that can fail the submission: on failure the
// session stays at PAYMENT, the cart is untouched and the backend's message
// is returned and emitted as a notice. Once the order exists, payment
// initiation and account registration are attempted in that order and their
// failures become warnings. The cart is then cleared and the session moves
// to CONFIRMATION.
//
// Once started, a submission runs under its own timeout. Cancelling ctx does
// not abort it, so an order the backend has accepted is always recorded.
func (s *Service) Submit(ctx context.Context) (domain.Session, error) {
	s.mu.Lock()
	if err := s.editableLocked(); err != nil {
		s.mu.Unlock()
		return domain.Session{}, err
	}
	if s.session.Step != domain.StepPayment {
		step := s.session.Step
		s.mu.Unlock()
		return domain.Session{}, fmt.Errorf("%w: submit from %s", ErrInvalidStep, step)
	}

	details := s.session.Details
	if err := errors.Join(domain.ValidateInfo(&details), domain.ValidatePayment(&details)); err != nil {
		s.mu.Unlock()
		return domain.Session{}, err
	}
	snap := s.cart.Current(ctx)
	if err := s.guardLocked(snap); err != nil {
		s.mu.Unlock()
		return domain.Session{}, err
	}
	quote := domain.NewQuote(snap, s.fees)
	s.session.Details = details
	s.session.Quote = quote
	sessionID := s.session.ID
	s.submitting = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.submitting = false
		s.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.submitTimeout)
	defer cancel()

	log := s.log.With(slog.String("session_id", sessionID))

	result, err := s.orders.PlaceOrder(ctx, orderRequest(details, snap, quote))
	if err != nil {
		msg := UserMessage(err)
		log.Warn("order submission failed", slog.Any("err", err))
		s.metrics.CheckoutSubmission("order_failed")
		s.notify(notify.LevelError, NoticeOrderFailed, msg, "")
		return domain.Session{}, err
	}
	if result.TotalAmount.IsZero() {
		result.TotalAmount = quote.Total
	}
	log.Info("order placed", slog.String("order_id", result.OrderID), slog.String("order_number", result.OrderNumber))

	s.mu.Lock()
	s.session.Order = &result
	s.mu.Unlock()

	var warnings []string
	var attempt *paymentdomain.Attempt

	if details.PaymentMethod == orderdomain.PaymentMobileMoney {
		a, err := s.payments.Initiate(ctx, pushRequest(details, result))
		if err != nil {
			log.Warn("payment initiation failed", slog.String("order_id", result.OrderID), slog.Any("err", err))
			msg := "Your order was placed but we could not start the M-Pesa payment: " + UserMessage(err)
			warnings = append(warnings, msg)
			s.notify(notify.LevelWarning, NoticePaymentFailed, msg, "")
		} else {
			attempt = &a
			s.notify(notify.LevelInfo, NoticePaymentPrompt, "Check your phone and enter your M-Pesa PIN to pay.", "")
		}
	}

	var accountID string
	if details.CreateAccount {
		accountID, warnings = s.register(ctx, log, details, warnings)
	}

	s.cart.Clear(ctx)

	s.mu.Lock()
	s.session.Payment = attempt
	s.session.Account = accountID
	s.session.Warnings = append(s.session.Warnings, warnings...)
	s.session.Step = domain.StepConfirmation
	out := s.session.Clone()
	s.mu.Unlock()

	outcome := "placed"
	if len(warnings) > 0 {
		outcome = "placed_with_warnings"
	}
	s.metrics.CheckoutSubmission(outcome)
	s.notify(notify.LevelSuccess, NoticeOrderPlaced, "Order "+result.OrderNumber+" placed.", "")
	return out, nil
}

func (s *Service) register(ctx context.Context, log *slog.Logger, d domain.Details, warnings []string) (string, []string) {
	if s.accounts == nil {
		msg := "Your order was placed but accounts cannot be created right now."
		s.notify(notify.LevelWarning, NoticeAccountFailed, msg, "")
		return "", append(warnings, msg)
	}

	user, err := s.accounts.Register(ctx, accountdomain.RegisterRequest{
		Name:     d.Customer.Name,
		Email:    d.Customer.Email,
		Phone:    d.Customer.Phone,
		Password: d.Password,
		Address:  d.Delivery.Address,
		Town:     d.Delivery.Town,
	})
	if err != nil {
		log.Warn("account registration failed", slog.Any("err", err))
		msg := "Your order was placed but we could not create your account: " + UserMessage(err)
		s.notify(notify.LevelWarning, NoticeAccountFailed, msg, "")
		return "", append(warnings, msg)
	}
	s.notify(notify.LevelSuccess, NoticeAccountCreated, "Your account has been created.", "")
	return user.ID, warnings
}

// AwaitPayment waits for the session's mobile money payment to settle and
// records the outcome. Cancelling ctx stops the wait between queries; the
// attempt then stays PENDING. Only one wait runs at a time; a second caller
// gets ErrPaymentAwaitInFlight.
func (s *Service) AwaitPayment(ctx context.Context, opts ...paymentapp.AwaitOption) (paymentdomain.Outcome, error) {
	s.mu.Lock()
	if s.session == nil {
		s.mu.Unlock()
		return paymentdomain.Outcome{}, ErrNoSession
	}
	if s.session.Payment == nil {
		s.mu.Unlock()
		return paymentdomain.Outcome{}, ErrNoPaymentAttempt
	}
	att := *s.session.Payment
	if att.Status.IsTerminal() {
		s.mu.Unlock()
		return paymentdomain.Outcome{Success: att.Status == paymentdomain.StatusCompleted, Status: att.Status}, nil
	}
	if s.awaiting {
		s.mu.Unlock()
		return paymentdomain.Outcome{Status: att.Status}, ErrPaymentAwaitInFlight
	}
	s.awaiting = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.awaiting = false
		s.mu.Unlock()
	}()

	out, err := s.poller.Await(ctx, att.ID, opts...)
	if err != nil {
		return out, err
	}

	s.mu.Lock()
	if s.session != nil && s.session.Payment != nil && s.session.Payment.ID == att.ID {
		s.session.Payment.Transition(out.Status, s.now())
	}
	s.mu.Unlock()

	if out.Success {
		s.notify(notify.LevelSuccess, NoticePaymentConfirmed, "Payment received. Thank you!", "")
	} else {
		s.notify(notify.LevelWarning, NoticePaymentPending, paymentMessage(out.Status), "")
	}
	return out, nil
}

func paymentMessage(st paymentdomain.Status) string {
	switch st {
	case paymentdomain.StatusFailed:
		return "The M-Pesa payment failed. Your order is saved; you can pay on delivery."
	case paymentdomain.StatusCancelled:
		return "The M-Pesa payment was cancelled. Your order is saved; you can pay on delivery."
	default:
		return "We have not received payment confirmation yet. Your order is saved."
	}
}

func (s *Service) editableLocked() error {
	switch {
	case s.session == nil:
		return ErrNoSession
	case s.submitting:
		return ErrSubmissionInFlight
	case s.session.Submitted() || s.session.Step == domain.StepConfirmation:
		return ErrAlreadySubmitted
	}
	return nil
}

func (s *Service) guardLocked(snap cartdomain.Snapshot) error {
	if snap.Empty() {
		s.emptyCartLocked()
		return ErrEmptyCart
	}
	for _, l := range snap.Lines {
		if !l.Valid() {
			s.notify(notify.LevelWarning, NoticeUnpricedItems,
				l.Name+" is no longer available at a price. Remove it from your cart to continue.", RedirectCart)
			return fmt.Errorf("%w: %s", ErrUnpricedItems, l.Name)
		}
	}
	return nil
}

func (s *Service) emptyCartLocked() {
	s.notify(notify.LevelInfo, NoticeEmptyCart, "Your cart is empty.", RedirectCart)
}

func (s *Service) notify(level notify.Level, code, msg, redirect string) {
	s.notices.Notify(notify.Notice{Level: level, Code: code, Message: msg, Redirect: redirect, At: s.now()})
}

func orderRequest(d domain.Details, snap cartdomain.Snapshot, q domain.Quote) orderdomain.CreateOrderRequest {
	items := make([]orderdomain.OrderItemRequest, 0, len(snap.Lines))
	for _, l := range snap.Lines {
		items = append(items, orderdomain.OrderItemRequest{
			ProductID: l.ProductID,
			Name:      l.Name,
			Unit:      l.Unit,
			UnitPrice: l.UnitPrice,
			Quantity:  l.Quantity,
		})
	}
	return orderdomain.CreateOrderRequest{
		Customer:         d.Customer,
		Delivery:         d.Delivery,
		PaymentMethod:    d.PaymentMethod,
		MobileMoneyPhone: d.MobileMoneyPhone,
		DeliveryFee:      q.DeliveryFee,
		Items:            items,
	}
}

func pushRequest(d domain.Details, r orderdomain.OrderResult) paymentdomain.PushRequest {
	ref := r.OrderNumber
	if ref == "" {
		ref = r.OrderID
	}
	return paymentdomain.PushRequest{
		Phone:            d.MobileMoneyPhone,
		Amount:           r.TotalAmount,
		OrderID:          r.OrderID,
		AccountReference: ref,
		TransactionDesc:  "Payment for order " + ref,
	}
}

// UserMessage is the text to show for err. Backend messages are passed
// through verbatim; transport failures get MessageUnreachable.
func UserMessage(err error) string {
	var apiErr *httpclient.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	var urlErr *url.Error
	var netErr net.Error
	if errors.As(err, &urlErr) || errors.As(err, &netErr) ||
		errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return MessageUnreachable
	}
	return err.Error()
}
