package domain

import (
	"math"
	"strings"
	"time"
)

// Language enumerates the storefront locales supported by checkout.
type Language string

const (
	LanguageRussian  Language = "ru"
	LanguageEstonian Language = "et"
	LanguageEnglish  Language = "en"
)

// ParseLanguage normalises a client-supplied language tag. Unknown values
// return false so the caller can fall back to automatic locale detection.
func ParseLanguage(value string) (Language, bool) {
	switch Language(strings.ToLower(strings.TrimSpace(value))) {
	case LanguageRussian:
		return LanguageRussian, true
	case LanguageEstonian:
		return LanguageEstonian, true
	case LanguageEnglish:
		return LanguageEnglish, true
	default:
		return "", false
	}
}

// PromoType identifies how a promo code discounts the order.
type PromoType string

const (
	// PromoPercentage applies a percentage (0-100) to the whole order.
	PromoPercentage PromoType = "percentage_discount"
	// PromoFixed subtracts a flat currency amount from the order.
	PromoFixed PromoType = "fixed_discount"
)

// promoAliases maps legacy promo type names still sent by older storefront
// builds onto the canonical values.
var promoAliases = map[string]PromoType{
	"cart_discount":      PromoPercentage,
	"flat_discount":      PromoFixed,
	"min_total_discount": PromoFixed,
}

// ParsePromoType resolves canonical and legacy promo type names.
func ParsePromoType(value string) (PromoType, bool) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	switch PromoType(normalized) {
	case PromoPercentage:
		return PromoPercentage, true
	case PromoFixed:
		return PromoFixed, true
	}
	if alias, ok := promoAliases[normalized]; ok {
		return alias, true
	}
	return "", false
}

// Promo describes an optional discount applied to a checkout.
type Promo struct {
	Type  PromoType `json:"type"`
	Value float64   `json:"value"`
}

// Valid reports whether the promo can be turned into a coupon.
func (p Promo) Valid() bool {
	if p.Value <= 0 {
		return false
	}
	switch p.Type {
	case PromoPercentage:
		return p.Value <= 100
	case PromoFixed:
		return true
	default:
		return false
	}
}

// CartItem is one client-supplied cart entry. Prices arrive in major
// currency units (euros), quantities as whole numbers.
type CartItem struct {
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unitPrice"`
	Qty       int64   `json:"qty"`
}

// Sellable reports whether the entry survives defensive filtering.
func (i CartItem) Sellable() bool {
	return i.UnitPrice > 0 && i.Qty > 0
}

// Customer holds the contact details collected by the storefront.
type Customer struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Address string `json:"address,omitempty"`
	Comment string `json:"comment,omitempty"`
}

// Delivery describes the requested delivery slot.
type Delivery struct {
	Method string `json:"method"`
	Date   string `json:"date,omitempty"`
	Time   string `json:"time,omitempty"`
}

// PendingOrder is the unit of state cached between checkout session
// creation and the payment-completed webhook. It is never mutated in
// place: created once, read and deleted exactly once on fulfillment.
type PendingOrder struct {
	ID          string     `json:"id"`
	Customer    Customer   `json:"customer"`
	Delivery    Delivery   `json:"delivery"`
	Cart        []CartItem `json:"cart"`
	DeliveryFee float64    `json:"deliveryFee"`
	Discount    float64    `json:"discount"`
	Language    Language   `json:"language,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// Subtotal returns the cart total in minor units, excluding delivery and
// discount. Unsellable entries are skipped.
func (o PendingOrder) Subtotal() int64 {
	var total int64
	for _, item := range o.Cart {
		if !item.Sellable() {
			continue
		}
		total += MinorUnits(item.UnitPrice) * item.Qty
	}
	return total
}

// Total returns the grand total in minor units: subtotal plus delivery
// fee minus discount, floored at zero.
func (o PendingOrder) Total() int64 {
	total := o.Subtotal() + MinorUnits(o.DeliveryFee) - MinorUnits(o.Discount)
	if total < 0 {
		return 0
	}
	return total
}

// MinorUnits converts a major-unit amount to integer minor units
// (cents), rounding half away from zero to match the storefront's own
// price arithmetic.
func MinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
