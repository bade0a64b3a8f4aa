// Package domain holds the mobile-money payment model: attempt status,
// push requests and the outcome of waiting for confirmation.
package domain

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the state of one payment attempt.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
	StatusCancelled Status = "CANCELLED"
	StatusTimeout   Status = "TIMEOUT"
)

// IsTerminal reports whether no further transition is possible.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled, StatusTimeout:
		return true
	default:
		return false
	}
}

// ParseStatus maps a status string from the payment service onto Status.
// Matching ignores case. Values it does not recognise are PENDING, so an
// unexpected answer keeps the poller waiting rather than ending the attempt.
func ParseStatus(raw string) Status {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "COMPLETED", "SUCCESS", "SUCCESSFUL":
		return StatusCompleted
	case "FAILED":
		return StatusFailed
	case "CANCELLED", "CANCELED":
		return StatusCancelled
	default:
		return StatusPending
	}
}

// Attempt is one STK push and what is known about it.
type Attempt struct {
	ID        string          `json:"id"`
	OrderID   string          `json:"orderId"`
	Phone     string          `json:"phone"`
	Amount    decimal.Decimal `json:"amount"`
	Status    Status          `json:"status"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// Transition moves the attempt to s. It is refused once the attempt is
// terminal, and reports whether the status changed.
func (a *Attempt) Transition(s Status, at time.Time) bool {
	if a.Status.IsTerminal() || a.Status == s {
		return false
	}
	a.Status = s
	a.UpdatedAt = at
	return true
}

// Outcome is the result of waiting for an attempt to settle.
type Outcome struct {
	Success bool   `json:"success"`
	Status  Status `json:"status"`
}

// PushRequest asks the payment service to prompt the customer's phone.
type PushRequest struct {
	Phone            string
	Amount           decimal.Decimal
	OrderID          string
	AccountReference string
	TransactionDesc  string
}

// PushResult is the payment service's answer to a push.
type PushResult struct {
	Success       bool
	TransactionID string
	Message       string
}

// ErrInvalidPhone is returned for numbers that are not Kenyan mobile numbers.
var ErrInvalidPhone = errors.New("invalid phone number")

var (
	phoneNoise   = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "")
	kenyanMobile = regexp.MustCompile(`^(?:\+?254|0)([17]\d{8})$`)
)

// NormalizePhone accepts 07XXXXXXXX, 01XXXXXXXX, +2547XXXXXXXX and
// 2547XXXXXXXX (and the 01 equivalents) and returns the 254XXXXXXXXX form.
func NormalizePhone(raw string) (string, error) {
	m := kenyanMobile.FindStringSubmatch(phoneNoise.Replace(strings.TrimSpace(raw)))
	if m == nil {
		return "", ErrInvalidPhone
	}
	return "254" + m[1], nil
}
