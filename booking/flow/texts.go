package flow

import (
	"fmt"
	"strings"
	"time"

	"github.com/wowmotion/bookingbot/booking/store"
)

// FormatTenge renders an amount with thousands grouping, e.g. 200 000 ₸.
func FormatTenge(amount int64) string {
	s := fmt.Sprintf("%d", amount)
	if amount < 0 {
		s = s[1:]
	}
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)
	out := strings.Join(parts, " ")
	if amount < 0 {
		out = "-" + out
	}
	return out + " ₸"
}

// SummaryData holds everything the admin caption shows about a booking.
type SummaryData struct {
	FullName       string
	Phone          string
	Username       string
	PlanName       string
	Price          int64
	RegistrationID string
}

// AdminSummary renders the caption for the admin's receipt notification.
func AdminSummary(d SummaryData, at time.Time) string {
	handle := "не указан"
	if d.Username != "" {
		handle = "@" + d.Username
	}
	var b strings.Builder
	b.WriteString("🆕 Новая заявка на фотосессию!\n\n")
	fmt.Fprintf(&b, "👤 Имя: %s\n", d.FullName)
	fmt.Fprintf(&b, "📞 Телефон: %s\n", d.Phone)
	fmt.Fprintf(&b, "💬 Telegram: %s\n", handle)
	fmt.Fprintf(&b, "📦 Пакет: %s\n", d.PlanName)
	fmt.Fprintf(&b, "💰 Стоимость: %s\n", FormatTenge(d.Price))
	b.WriteString("💳 Статус: Ожидает подтверждения оплаты\n")
	fmt.Fprintf(&b, "🕐 Время: %s\n", at.Format("02.01.2006 15:04"))
	if d.RegistrationID != "" {
		fmt.Fprintf(&b, "\n🆔 Заявка: %s", d.RegistrationID)
	} else {
		b.WriteString("\n⚠️ Номер заявки получить не удалось, нужна ручная проверка")
	}
	return b.String()
}

// PaymentConfirmedText is sent to the user once the admin confirms payment.
func PaymentConfirmedText(reg *store.Registration) string {
	return fmt.Sprintf(
		"✅ Ваша оплата подтверждена!\n\n"+
			"Пакет: %s\n"+
			"Мы свяжемся с вами по номеру %s для согласования даты фотосессии. До встречи! 📸",
		reg.PlanName, reg.PhoneNumber,
	)
}
