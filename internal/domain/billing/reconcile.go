package billing

import (
	"math"
	"strings"
	"time"
)

// NewServiceItems fills in the quantity default and the per-line subtotal.
func NewServiceItems(items []ServiceItem) []ServiceItem {
	out := make([]ServiceItem, 0, len(items))
	for _, it := range items {
		if it.Quantity <= 0 {
			it.Quantity = 1
		}
		it.Subtotal = it.Price * float64(it.Quantity)
		out = append(out, it)
	}
	return out
}

// ComputeDiscount returns the amount a discount rule takes off subtotal.
// A fixed discount never exceeds the subtotal.
func ComputeDiscount(kind DiscountType, value, subtotal float64) float64 {
	switch kind {
	case DiscountPercentage:
		return roundMoney(subtotal * value / 100)
	case DiscountFixed:
		return math.Min(value, subtotal)
	}
	return 0
}

// NewDiscount turns a caller's rule into a stored discount. A nil input or a
// non-positive value means no discount.
func NewDiscount(in *DiscountInput, subtotal float64) (*Discount, error) {
	if in == nil || in.Value <= 0 {
		return nil, nil
	}
	if in.Type != DiscountFixed && in.Type != DiscountPercentage {
		return nil, ErrInvalidDiscount
	}
	if in.Type == DiscountPercentage && in.Value > 100 {
		return nil, ErrInvalidDiscount
	}
	return &Discount{
		Type:   in.Type,
		Value:  in.Value,
		Amount: ComputeDiscount(in.Type, in.Value, subtotal),
		Reason: in.Reason,
	}, nil
}

// Recalculate derives servicesTotal, subtotal, the discount amount and
// totalAmount from the fee, the service lines and the stored discount rule.
func (b *Billing) Recalculate() {
	b.ServicesTotal = 0
	for _, s := range b.Services {
		b.ServicesTotal += s.Subtotal
	}
	b.Subtotal = b.ConsultationFee + b.ServicesTotal

	var discount float64
	if b.Discount != nil {
		b.Discount.Amount = ComputeDiscount(b.Discount.Type, b.Discount.Value, b.Subtotal)
		discount = b.Discount.Amount
	}
	b.TotalAmount = math.Max(0, b.Subtotal-discount)
}

// ApplyConsultationChange moves the consultation part of the bill to a new
// fee and type. A percentage discount follows the new subtotal; a fixed
// discount keeps its stored amount. A paid bill whose total now exceeds what
// was collected becomes partial. amountPaid is never changed.
//
// It reports whether anything changed; when it returns false b is untouched.
func (b *Billing) ApplyConsultationChange(fee float64, consultationType string, now time.Time) bool {
	if b.ConsultationFee == fee && b.ConsultationType == consultationType {
		return false
	}

	subtotal := b.ServicesTotal + fee
	var discount float64
	if b.Discount != nil {
		if b.Discount.Type == DiscountPercentage {
			b.Discount.Amount = ComputeDiscount(DiscountPercentage, b.Discount.Value, subtotal)
		}
		discount = b.Discount.Amount
	}

	b.ConsultationFee = fee
	b.ConsultationType = consultationType
	b.Subtotal = subtotal
	b.TotalAmount = math.Max(0, subtotal-discount)

	if b.PaymentStatus == StatusPaid && b.TotalAmount > b.AmountPaid {
		b.PaymentStatus = StatusPartial
	}
	b.UpdatedAt = now
	return true
}

// IsServiceAddOn reports whether a consultation type label marks a bill that
// only itemises extra services. Labels compare trimmed and case-insensitively.
func IsServiceAddOn(consultationType string, labels []string) bool {
	ct := strings.TrimSpace(consultationType)
	for _, l := range labels {
		if strings.EqualFold(ct, strings.TrimSpace(l)) {
			return true
		}
	}
	return false
}

func roundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}
