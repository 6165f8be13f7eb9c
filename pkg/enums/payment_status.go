package enums

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

// PaymentStatus tracks the lifecycle of a checkout payment.
type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusProcessing PaymentStatus = "processing"
	PaymentStatusCompleted  PaymentStatus = "completed"
	PaymentStatusFailed     PaymentStatus = "failed"
	PaymentStatusRejected   PaymentStatus = "rejected"
)

var validPaymentStatuses = []PaymentStatus{
	PaymentStatusPending,
	PaymentStatusProcessing,
	PaymentStatusCompleted,
	PaymentStatusFailed,
	PaymentStatusRejected,
}

// String implements fmt.Stringer.
func (p PaymentStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentStatus.
func (p PaymentStatus) IsValid() bool {
	for _, candidate := range validPaymentStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// IsTerminalFailure reports whether the payment no longer blocks a new
// attempt for the same quotation.
func (p PaymentStatus) IsTerminalFailure() bool {
	return p == PaymentStatusFailed || p == PaymentStatusRejected
}

// AcceptsProof reports whether a proof of payment may be attached.
func (p PaymentStatus) AcceptsProof() bool {
	return p == PaymentStatusPending || p == PaymentStatusProcessing
}

// ParsePaymentStatus converts raw input into a PaymentStatus. Rows written by
// the old dashboard use upper-case spellings (PENDING, COMPLETED, ...), which
// are folded onto the canonical values.
func ParsePaymentStatus(value string) (PaymentStatus, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validPaymentStatuses {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment status %q", value)
}

// Scan folds legacy spellings while reading rows.
func (p *PaymentStatus) Scan(src any) error {
	var raw string
	switch v := src.(type) {
	case string:
		raw = v
	case []byte:
		raw = string(v)
	case nil:
		*p = ""
		return nil
	default:
		return fmt.Errorf("PaymentStatus: unsupported Scan type %T", src)
	}
	parsed, err := ParsePaymentStatus(raw)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Value implements driver.Valuer.
func (p PaymentStatus) Value() (driver.Value, error) {
	return string(p), nil
}
