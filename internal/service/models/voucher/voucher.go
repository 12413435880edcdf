package voucher

// Voucher is a discount code. There is no expiry beyond the IsValid flag.
type Voucher struct {
	Code          string `json:"code"`
	DiscountMinor int64  `json:"discount"`
	IsValid       bool   `json:"isValid"`
}
