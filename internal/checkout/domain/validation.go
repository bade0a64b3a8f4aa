package domain

import (
	"errors"
	"net/mail"
	"strings"

	orderdomain "github.com/dwikikusuma/farmgate/internal/order/domain"
	paymentdomain "github.com/dwikikusuma/farmgate/internal/payment/domain"
)

const MinPasswordLength = 6

// ValidationError is one field that blocks the customer from moving on.
// Several are combined with errors.Join.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// FieldErrors unpacks every ValidationError in err, including joined ones.
func FieldErrors(err error) []*ValidationError {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []*ValidationError
		for _, e := range joined.Unwrap() {
			out = append(out, FieldErrors(e)...)
		}
		return out
	}
	if ve, ok := err.(*ValidationError); ok {
		return []*ValidationError{ve}
	}
	if inner := errors.Unwrap(err); inner != nil {
		return FieldErrors(inner)
	}
	return nil
}

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

// ValidateInfo checks the customer and delivery fields entered on the INFO
// step. Phone numbers are normalised in place.
func ValidateInfo(d *Details) error {
	var errs []error

	d.Customer.Name = strings.TrimSpace(d.Customer.Name)
	if d.Customer.Name == "" {
		errs = append(errs, invalid("name", "Name is required"))
	}

	d.Customer.Email = strings.TrimSpace(d.Customer.Email)
	if d.Customer.Email != "" {
		if _, err := mail.ParseAddress(d.Customer.Email); err != nil {
			errs = append(errs, invalid("email", "Enter a valid email address"))
		}
	}

	if phone, err := paymentdomain.NormalizePhone(d.Customer.Phone); err != nil {
		errs = append(errs, invalid("phone", "Enter a valid Kenyan phone number (07XXXXXXXX or 01XXXXXXXX)"))
	} else {
		d.Customer.Phone = phone
	}

	d.Delivery.Address = strings.TrimSpace(d.Delivery.Address)
	if d.Delivery.Address == "" {
		errs = append(errs, invalid("address", "Delivery address is required"))
	}
	d.Delivery.Town = strings.TrimSpace(d.Delivery.Town)
	if d.Delivery.Town == "" {
		errs = append(errs, invalid("town", "Town is required"))
	}

	if d.CreateAccount {
		if d.Customer.Email == "" {
			errs = append(errs, invalid("email", "Email is required to create an account"))
		}
		if len(d.Password) < MinPasswordLength {
			errs = append(errs, invalid("password", "Password must be at least 6 characters"))
		}
	}

	return errors.Join(errs...)
}

// ValidatePayment checks the payment choice made on the PAYMENT step. The
// M-Pesa number is only kept for mobile money.
func ValidatePayment(d *Details) error {
	if !d.PaymentMethod.Valid() {
		return invalid("paymentMethod", "Choose a payment method")
	}
	if d.PaymentMethod != orderdomain.PaymentMobileMoney {
		d.MobileMoneyPhone = ""
		return nil
	}

	raw := d.MobileMoneyPhone
	if strings.TrimSpace(raw) == "" {
		raw = d.Customer.Phone
	}
	phone, err := paymentdomain.NormalizePhone(raw)
	if err != nil {
		return invalid("mobileMoneyPhone", "Enter the M-Pesa number to charge")
	}
	d.MobileMoneyPhone = phone
	return nil
}
