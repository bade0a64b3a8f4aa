package app_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/cucumber/godog"
	cartapp "github.com/dwikikusuma/farmgate/internal/cart/app"
	cartdomain "github.com/dwikikusuma/farmgate/internal/cart/domain"
	"github.com/dwikikusuma/farmgate/internal/checkout/app"
	"github.com/dwikikusuma/farmgate/internal/checkout/domain"
	"github.com/dwikikusuma/farmgate/internal/checkout/infra/adapter"
	orderapp "github.com/dwikikusuma/farmgate/internal/order/app"
	orderdomain "github.com/dwikikusuma/farmgate/internal/order/domain"
	paymentapp "github.com/dwikikusuma/farmgate/internal/payment/app"
	paymentdomain "github.com/dwikikusuma/farmgate/internal/payment/domain"
	"github.com/dwikikusuma/farmgate/pkg/httpclient"
	"github.com/dwikikusuma/farmgate/pkg/logger"
	"github.com/dwikikusuma/farmgate/pkg/notify"
	"github.com/shopspring/decimal"
)

type orderBackend struct {
	reject string
	orders []orderdomain.Order
}

func (b *orderBackend) CreateOrder(_ context.Context, o orderdomain.Order) (orderdomain.OrderResult, error) {
	if b.reject != "" {
		return orderdomain.OrderResult{}, &httpclient.APIError{StatusCode: 400, Message: b.reject}
	}
	b.orders = append(b.orders, o)
	return orderdomain.OrderResult{OrderID: "ord-1", OrderNumber: "FG-0001"}, nil
}

type paymentBackend struct {
	mu      sync.Mutex
	reject  bool
	pushes  []paymentdomain.PushRequest
	script  []paymentdomain.Status
	queries int
}

func (b *paymentBackend) Push(_ context.Context, req paymentdomain.PushRequest) (paymentdomain.PushResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.reject {
		return paymentdomain.PushResult{Success: false, Message: "M-Pesa is unavailable"}, nil
	}
	b.pushes = append(b.pushes, req)
	return paymentdomain.PushResult{Success: true, TransactionID: "ws_CO_feature"}, nil
}

func (b *paymentBackend) Status(_ context.Context, _ string) (paymentdomain.Status, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.queries++
	if len(b.script) == 0 {
		return paymentdomain.StatusPending, nil
	}
	i := min(b.queries, len(b.script)) - 1
	return b.script[i], nil
}

type checkoutFeature struct {
	ledger   *cartapp.Ledger
	orders   *orderBackend
	payments *paymentBackend
	notices  *notify.Recorder
	svc      *app.Service

	details domain.Details
	session domain.Session
	outcome paymentdomain.Outcome
	err     error
}

func (f *checkoutFeature) reset() {
	log := logger.Discard()
	f.ledger = cartapp.NewLedger(cartapp.WithLogger(log))
	f.orders = &orderBackend{}
	f.payments = &paymentBackend{}
	f.notices = &notify.Recorder{}
	f.svc = app.NewService(
		adapter.NewLedgerReader(f.ledger),
		orderapp.NewService(f.orders),
		paymentapp.NewService(f.payments, paymentapp.WithLogger(log)),
		paymentapp.NewPoller(f.payments, paymentapp.WithPollLogger(log)),
		app.WithNotices(f.notices),
		app.WithLogger(log),
	)
	f.details = domain.Details{}
	f.session = domain.Session{}
	f.outcome = paymentdomain.Outcome{}
	f.err = nil
}

func (f *checkoutFeature) theCustomer(name, phone, address, town string) error {
	f.details.Customer = orderdomain.Customer{Name: name, Phone: phone}
	f.details.Delivery = orderdomain.Delivery{Address: address, Town: town}
	return nil
}

func (f *checkoutFeature) theCartContains(qty int, name string, price int64) error {
	f.ledger.Add(cartdomain.Item{
		ProductID: strings.ToLower(strings.ReplaceAll(name, " ", "-")),
		Name:      name,
		Price:     decimal.NewFromInt(price),
	}, qty)
	return nil
}

func (f *checkoutFeature) paysByMobileMoney() error {
	f.details.PaymentMethod = orderdomain.PaymentMobileMoney
	return nil
}

func (f *checkoutFeature) paysCashOnDelivery() error {
	f.details.PaymentMethod = orderdomain.PaymentCashOnDelivery
	return nil
}

func (f *checkoutFeature) orderServiceRejects(msg string) error {
	f.orders.reject = msg
	return nil
}

func (f *checkoutFeature) paymentServiceRejectsPushes() error {
	f.payments.reject = true
	return nil
}

func (f *checkoutFeature) beginsCheckout() error {
	f.session, f.err = f.svc.Begin(context.Background())
	return nil
}

func (f *checkoutFeature) proceedsToPayment() error {
	ctx := context.Background()
	if _, err := f.svc.Begin(ctx); err != nil {
		return err
	}
	if _, err := f.svc.Update(f.details); err != nil {
		return err
	}
	for range 2 {
		if _, err := f.svc.Next(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (f *checkoutFeature) submitsTheOrder() error {
	f.session, f.err = f.svc.Submit(context.Background())
	return nil
}

func (f *checkoutFeature) paymentServiceReports(statuses string) error {
	f.payments.script = nil
	for _, s := range strings.Split(statuses, ",") {
		f.payments.script = append(f.payments.script, paymentdomain.ParseStatus(s))
	}
	return nil
}

func (f *checkoutFeature) waitsForPayment(attempts int) error {
	f.outcome, f.err = f.svc.AwaitPayment(context.Background(), paymentapp.MaxAttempts(attempts), paymentapp.Interval(0))
	return f.err
}

func (f *checkoutFeature) checkoutIsAt(step string) error {
	s, ok := f.svc.Current()
	if !ok {
		return errors.New("no checkout session")
	}
	if string(s.Step) != step {
		return fmt.Errorf("step is %s, want %s (last error: %v)", s.Step, step, f.err)
	}
	return nil
}

func (f *checkoutFeature) orderTotalIs(total int64) error {
	if f.session.Order == nil {
		return fmt.Errorf("no order (last error: %v)", f.err)
	}
	if !f.session.Order.TotalAmount.Equal(decimal.NewFromInt(total)) {
		return fmt.Errorf("order total %s, want %d", f.session.Order.TotalAmount, total)
	}
	return nil
}

func (f *checkoutFeature) deliveryFeeSent(fee int64) error {
	if len(f.orders.orders) != 1 {
		return fmt.Errorf("%d orders sent, want 1", len(f.orders.orders))
	}
	if got := f.orders.orders[0].DeliveryFee; !got.Equal(decimal.NewFromInt(fee)) {
		return fmt.Errorf("delivery fee %s, want %d", got, fee)
	}
	return nil
}

func (f *checkoutFeature) cartIsEmpty() error {
	if n := f.ledger.Totals().Items; n != 0 {
		return fmt.Errorf("cart holds %d items", n)
	}
	return nil
}

func (f *checkoutFeature) cartHolds(n int) error {
	if got := f.ledger.Totals().Items; got != n {
		return fmt.Errorf("cart holds %d items, want %d", got, n)
	}
	return nil
}

func (f *checkoutFeature) pushWasSent(amount int64, phone string) error {
	if len(f.payments.pushes) != 1 {
		return fmt.Errorf("%d pushes sent, want 1", len(f.payments.pushes))
	}
	p := f.payments.pushes[0]
	if !p.Amount.Equal(decimal.NewFromInt(amount)) || p.Phone != phone {
		return fmt.Errorf("push %s to %s, want %d to %s", p.Amount, p.Phone, amount, phone)
	}
	return nil
}

func (f *checkoutFeature) noPushWasSent() error {
	if len(f.payments.pushes) != 0 {
		return fmt.Errorf("%d pushes sent, want none", len(f.payments.pushes))
	}
	return nil
}

func (f *checkoutFeature) submissionFailsWith(msg string) error {
	if f.err == nil {
		return errors.New("submission succeeded")
	}
	if got := app.UserMessage(f.err); got != msg {
		return fmt.Errorf("message %q, want %q", got, msg)
	}
	return nil
}

func (f *checkoutFeature) noticeWasEmitted(code string) error {
	for _, c := range f.notices.Codes() {
		if c == code {
			return nil
		}
	}
	return fmt.Errorf("no %q notice in %v", code, f.notices.Codes())
}

func (f *checkoutFeature) paymentOutcomeIs(status string, queries int) error {
	if string(f.outcome.Status) != status {
		return fmt.Errorf("outcome %s, want %s", f.outcome.Status, status)
	}
	if f.payments.queries != queries {
		return fmt.Errorf("%d status queries, want %d", f.payments.queries, queries)
	}
	return nil
}

func (f *checkoutFeature) refusedWithRedirect(redirect string) error {
	if !errors.Is(f.err, app.ErrEmptyCart) {
		return fmt.Errorf("error %v, want empty cart", f.err)
	}
	for _, n := range f.notices.Notices() {
		if n.Redirect == redirect {
			return nil
		}
	}
	return fmt.Errorf("no notice redirecting to %s", redirect)
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	f := &checkoutFeature{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		f.reset()
		return ctx, nil
	})

	ctx.Step(`^the customer "([^"]*)" with phone "([^"]*)" delivering to "([^"]*)" in "([^"]*)"$`, f.theCustomer)
	ctx.Step(`^the cart contains (\d+) of "([^"]*)" at (\d+)$`, f.theCartContains)
	ctx.Step(`^the customer pays by mobile money$`, f.paysByMobileMoney)
	ctx.Step(`^the customer pays cash on delivery$`, f.paysCashOnDelivery)
	ctx.Step(`^the order service rejects orders with "([^"]*)"$`, f.orderServiceRejects)
	ctx.Step(`^the payment service rejects pushes$`, f.paymentServiceRejectsPushes)

	ctx.Step(`^the customer begins checkout$`, f.beginsCheckout)
	ctx.Step(`^the customer proceeds to payment$`, f.proceedsToPayment)
	ctx.Step(`^the customer submits the order$`, f.submitsTheOrder)
	ctx.Step(`^the payment service reports "([^"]*)"$`, f.paymentServiceReports)
	ctx.Step(`^the customer waits for payment with (\d+) attempts$`, f.waitsForPayment)

	ctx.Step(`^the checkout is at "([^"]*)"$`, f.checkoutIsAt)
	ctx.Step(`^the order total is (\d+)$`, f.orderTotalIs)
	ctx.Step(`^the delivery fee sent was (\d+)$`, f.deliveryFeeSent)
	ctx.Step(`^the cart is empty$`, f.cartIsEmpty)
	ctx.Step(`^the cart holds (\d+) items$`, f.cartHolds)
	ctx.Step(`^an STK push of (\d+) was sent to "([^"]*)"$`, f.pushWasSent)
	ctx.Step(`^no STK push was sent$`, f.noPushWasSent)
	ctx.Step(`^the submission fails with "([^"]*)"$`, f.submissionFailsWith)
	ctx.Step(`^a "([^"]*)" notice was emitted$`, f.noticeWasEmitted)
	ctx.Step(`^the payment outcome is "([^"]*)" after (\d+) status queries$`, f.paymentOutcomeIs)
	ctx.Step(`^checkout is refused with a redirect to "([^"]*)"$`, f.refusedWithRedirect)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"../../../features/checkout.feature"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
