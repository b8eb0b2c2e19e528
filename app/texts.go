package app

import (
	"fmt"
	"strings"

	"github.com/wowmotion/bookingbot/booking/catalog"
	"github.com/wowmotion/bookingbot/booking/flow"
	coreconfig "github.com/wowmotion/bookingbot/core/config"
)

const (
	textWelcome = "Здравствуйте! 👋\n\n" +
		"Я помогу записаться на фотосессию. Выберите действие:"

	textMainMenu = "Главное меню. Выберите действие:"

	textAskName = "Отлично! Как вас зовут? Напишите имя и фамилию."

	textAskPhone = "Спасибо! Теперь отправьте номер телефона в формате +77XXXXXXXXX или 87XXXXXXXXX."

	textBadPhone = "Не получилось распознать номер. 🤔\n" +
		"Отправьте его в формате +77XXXXXXXXX или 87XXXXXXXXX."

	textAwaitReceipt = "Ждём скриншот чека об оплате. 🧾\n" +
		"Отправьте его фотографией в этот чат."

	textAwaitConfirmation = "Чек получен, ждём подтверждения оплаты. Мы напишем вам, как только всё проверим. ⏳"

	textReceiptForwarded = "Чек получен! ✅\n" +
		"Мы проверим оплату и пришлём подтверждение в этот чат."

	textCancelled = "Запись отменена. Возвращайтесь, когда будете готовы! 📸"

	textNothingToCancel = "Сейчас нет активной записи. Нажмите /start, чтобы начать."

	textUnknown = "Я вас не понял. 🤖 Нажмите /start, чтобы открыть меню."

	textOrphanPhoto = "Сейчас мы не ждём от вас фото. Если хотите записаться, нажмите /start."

	textRegistrationFailed = "Что-то пошло не так при сохранении заявки. 😔 Попробуйте ещё раз чуть позже через /start."

	textExportEmpty = "Заявок пока нет."

	textChooseCategory = "Выберите, какую фотосессию вы хотите заказать:"

	textChoosePlan = "Выберите пакет:"
)

// groupTitles maps catalog group ids to their menu buttons. Groups
// outside the map fall back to the raw id so new categories still show up.
var groupTitles = map[string]string{
	"solo":  "📸 Solo",
	"duo":   "👯 Duo",
	"trio":  "👩‍👩‍👧 Trio",
	"extra": "✨ Доп. услуги",
}

func groupButtonText(group string) string {
	if title, ok := groupTitles[group]; ok {
		return title
	}
	return group
}

func welcomeForPlan(plan catalog.Plan) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Вы выбрали пакет «%s» — %s.\n\n", plan.Name, flow.FormatTenge(plan.Price))
	if plan.Description != "" {
		b.WriteString(plan.Description + "\n\n")
	}
	b.WriteString(textAskName)
	return b.String()
}

func priceList(plans []catalog.Plan) string {
	var b strings.Builder
	b.WriteString("💰 Наши пакеты:\n")
	group := ""
	for _, p := range plans {
		if p.Group != group {
			group = p.Group
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "• %s — %s\n", p.Name, flow.FormatTenge(p.Price))
		if p.Description != "" {
			fmt.Fprintf(&b, "  %s\n", p.Description)
		}
	}
	return b.String()
}

func paymentInstructions(plan catalog.Plan, booking coreconfig.BookingConfig) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Заявка сохранена! 🎉\n\nК оплате: %s за пакет «%s».\n\n", flow.FormatTenge(plan.Price), plan.Name)
	if booking.KaspiPayURL != "" {
		fmt.Fprintf(&b, "💳 Оплатить через Kaspi: %s\n", booking.KaspiPayURL)
	}
	if booking.PaymentRecipient != "" {
		fmt.Fprintf(&b, "Получатель: %s\n", booking.PaymentRecipient)
	}
	b.WriteString("\nПосле оплаты отправьте сюда скриншот чека. 🧾")
	if booking.ContactNote != "" {
		b.WriteString("\n\n" + booking.ContactNote)
	}
	return b.String()
}

func planButtonText(plan catalog.Plan) string {
	if plan.Label != "" {
		return plan.Label
	}
	return fmt.Sprintf("%s — %s", plan.Name, flow.FormatTenge(plan.Price))
}
