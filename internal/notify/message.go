package notify

import (
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sushix/checkout-api/internal/domain"
)

// sanitizer strips any markup from customer-supplied text before it is
// embedded into an HTML-mode message.
var sanitizer = bluemonday.StrictPolicy()

type messageLabels struct {
	order    string
	customer string
	delivery string
	items    string
	subtotal string
	fee      string
	discount string
	total    string
}

var labelsByLanguage = map[domain.Language]messageLabels{
	domain.LanguageRussian: {
		order:    "Новый оплаченный заказ",
		customer: "Клиент",
		delivery: "Доставка",
		items:    "Состав заказа",
		subtotal: "Сумма",
		fee:      "Доставка",
		discount: "Скидка",
		total:    "Итого",
	},
	domain.LanguageEstonian: {
		order:    "Uus makstud tellimus",
		customer: "Klient",
		delivery: "Tarne",
		items:    "Tellimuse sisu",
		subtotal: "Summa",
		fee:      "Tarne",
		discount: "Allahindlus",
		total:    "Kokku",
	},
	domain.LanguageEnglish: {
		order:    "New paid order",
		customer: "Customer",
		delivery: "Delivery",
		items:    "Order items",
		subtotal: "Subtotal",
		fee:      "Delivery fee",
		discount: "Discount",
		total:    "Total",
	},
}

var printerTags = map[domain.Language]language.Tag{
	domain.LanguageRussian:  language.Russian,
	domain.LanguageEstonian: language.Estonian,
	domain.LanguageEnglish:  language.English,
}

// RenderOrderMessage formats a pending order as a Telegram HTML message:
// customer contact details, delivery slot, itemised cart with per-line
// totals, and the subtotal/fee/discount/total breakdown.
func RenderOrderMessage(order domain.PendingOrder) string {
	lang := order.Language
	labels, ok := labelsByLanguage[lang]
	if !ok {
		lang = domain.LanguageEnglish
		labels = labelsByLanguage[lang]
	}
	printer := message.NewPrinter(printerTags[lang])

	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s</b> #%s\n\n", labels.order, sanitizer.Sanitize(order.ID))

	fmt.Fprintf(&b, "<b>%s</b>\n", labels.customer)
	fmt.Fprintf(&b, "%s\n", sanitizer.Sanitize(order.Customer.Name))
	if order.Customer.Phone != "" {
		fmt.Fprintf(&b, "%s\n", sanitizer.Sanitize(order.Customer.Phone))
	}
	if order.Customer.Email != "" {
		fmt.Fprintf(&b, "%s\n", sanitizer.Sanitize(order.Customer.Email))
	}
	if order.Customer.Address != "" {
		fmt.Fprintf(&b, "%s\n", sanitizer.Sanitize(order.Customer.Address))
	}
	if order.Customer.Comment != "" {
		fmt.Fprintf(&b, "💬 %s\n", sanitizer.Sanitize(order.Customer.Comment))
	}

	if order.Delivery.Method != "" {
		fmt.Fprintf(&b, "\n<b>%s</b>: %s", labels.delivery, sanitizer.Sanitize(order.Delivery.Method))
		if order.Delivery.Date != "" {
			fmt.Fprintf(&b, ", %s", sanitizer.Sanitize(order.Delivery.Date))
		}
		if order.Delivery.Time != "" {
			fmt.Fprintf(&b, " %s", sanitizer.Sanitize(order.Delivery.Time))
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "\n<b>%s</b>\n", labels.items)
	line := 0
	for _, item := range order.Cart {
		if !item.Sellable() {
			continue
		}
		line++
		lineTotal := domain.MinorUnits(item.UnitPrice) * item.Qty
		fmt.Fprintf(&b, "%d. %s × %d — %s\n", line, sanitizer.Sanitize(item.Name), item.Qty, formatAmount(printer, lineTotal))
	}

	fmt.Fprintf(&b, "\n%s: %s\n", labels.subtotal, formatAmount(printer, order.Subtotal()))
	if order.DeliveryFee > 0 {
		fmt.Fprintf(&b, "%s: %s\n", labels.fee, formatAmount(printer, domain.MinorUnits(order.DeliveryFee)))
	}
	if order.Discount > 0 {
		fmt.Fprintf(&b, "%s: -%s\n", labels.discount, formatAmount(printer, domain.MinorUnits(order.Discount)))
	}
	fmt.Fprintf(&b, "<b>%s: %s</b>", labels.total, formatAmount(printer, order.Total()))

	return b.String()
}

func formatAmount(printer *message.Printer, minorUnits int64) string {
	return printer.Sprintf("%.2f €", float64(minorUnits)/100)
}
