package promo

import "fmt"

// DiscountType selects how a discount value is applied to a purchase.
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// ValidateValue enforces creation-time bounds: percentages live in
// [0,100], fixed amounts must be positive.
func ValidateValue(kind DiscountType, value int64) error {
	switch kind {
	case DiscountPercentage:
		if value < 0 || value > 100 {
			return fmt.Errorf("%w: %d", ErrInvalidPercentage, value)
		}
		return nil
	case DiscountFixed:
		if value <= 0 {
			return fmt.Errorf("%w: %d", ErrInvalidValue, value)
		}
		return nil
	default:
		return fmt.Errorf("unknown discount type %q", kind)
	}
}

// ApplyDiscount returns the amount payable after the discount. Amounts
// are in the smallest currency unit. The result never goes below zero.
func ApplyDiscount(kind DiscountType, value int64, purchaseAmount int64) int64 {
	switch kind {
	case DiscountPercentage:
		discounted := purchaseAmount - purchaseAmount*value/100
		if discounted < 0 {
			return 0
		}
		return discounted
	case DiscountFixed:
		discounted := purchaseAmount - value
		if discounted < 0 {
			return 0
		}
		return discounted
	default:
		return purchaseAmount
	}
}
