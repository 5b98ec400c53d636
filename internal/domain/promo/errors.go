package promo

import "errors"

var (
	ErrCodeNotFound         = errors.New("promotion code not found")
	ErrCodeInactive         = errors.New("promotion code is inactive")
	ErrCodeExpired          = errors.New("promotion code has expired")
	ErrCodeExhausted        = errors.New("promotion code has no uses remaining")
	ErrBelowMinimumPurchase = errors.New("purchase amount below code minimum")
	ErrAlreadyRedeemed      = errors.New("voucher already redeemed by this user")
	ErrRateLimited          = errors.New("too many redemption attempts")
	ErrInvalidPercentage    = errors.New("percentage must be between 0 and 100")
	ErrInvalidValue         = errors.New("code value must be positive")
)
