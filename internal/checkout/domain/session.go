package domain

import (
	"time"

	orderdomain "github.com/dwikikusuma/farmgate/internal/order/domain"
	paymentdomain "github.com/dwikikusuma/farmgate/internal/payment/domain"
)

// Step is a checkout screen. Steps only move forward, except for an explicit
// step back before CONFIRMATION.
type Step string

const (
	StepInfo         Step = "INFO"
	StepReview       Step = "REVIEW"
	StepPayment      Step = "PAYMENT"
	StepConfirmation Step = "CONFIRMATION"
)

// Next is the step after s, or "" when s has no successor reachable by Next.
// PAYMENT leaves only through a successful submission.
func (s Step) Next() Step {
	switch s {
	case StepInfo:
		return StepReview
	case StepReview:
		return StepPayment
	default:
		return ""
	}
}

// Previous is the step before s, or "" when going back is not allowed.
func (s Step) Previous() Step {
	switch s {
	case StepReview:
		return StepInfo
	case StepPayment:
		return StepReview
	default:
		return ""
	}
}

// Details is everything the customer types during checkout.
type Details struct {
	Customer         orderdomain.Customer
	Delivery         orderdomain.Delivery
	PaymentMethod    orderdomain.PaymentMethod
	MobileMoneyPhone string

	// CreateAccount asks for a guest account to be registered with Password
	// once the order is placed.
	CreateAccount bool
	Password      string
}

type Session struct {
	ID        string
	Step      Step
	Details   Details
	Quote     Quote
	StartedAt time.Time

	// Order is set once, when the order service accepts the order.
	Order    *orderdomain.OrderResult
	Payment  *paymentdomain.Attempt
	Account  string
	Warnings []string
}

func (s Session) Submitted() bool { return s.Order != nil }

// Clone returns a copy that shares nothing mutable with s.
func (s Session) Clone() Session {
	out := s
	out.Quote = s.Quote.Clone()
	if s.Order != nil {
		o := *s.Order
		out.Order = &o
	}
	if s.Payment != nil {
		p := *s.Payment
		out.Payment = &p
	}
	out.Warnings = append([]string(nil), s.Warnings...)
	return out
}
