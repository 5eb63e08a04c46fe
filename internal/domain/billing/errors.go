package billing

import "errors"

var (
	ErrBillingNotFound        = errors.New("billing record not found")
	ErrInvalidConsultationFee = errors.New("consultation fee must be greater than 0")
	ErrInvalidPaymentStatus   = errors.New("invalid payment status")
	ErrInvalidDiscount        = errors.New("invalid discount")
)
