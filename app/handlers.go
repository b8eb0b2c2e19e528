package app

import (
	"bytes"
	"errors"
	"strings"
	"time"

	"github.com/wowmotion/bookingbot/booking/export"
	"github.com/wowmotion/bookingbot/booking/flow"
	"github.com/wowmotion/bookingbot/booking/session"
	"github.com/wowmotion/bookingbot/booking/store"
	"github.com/wowmotion/bookingbot/core/logger"
	"github.com/wowmotion/bookingbot/core/telegram/callbacks"
	tghelpers "github.com/wowmotion/bookingbot/core/telegram/helpers"
	"github.com/wowmotion/bookingbot/core/telegram/keyboard"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

// Callback keys wired into the registry.
const (
	cbMainMenu   = "main_menu"
	cbSeePrices  = "see_prices"
	cbChoosePlan = "choose_plan"
	cbGroup      = "plan_group"
	cbPlan       = "plan"
)

func (a *App) mainMenuMarkup() *tele.ReplyMarkup {
	return keyboard.InlineButtons([]keyboard.InlineBtn{
		{Text: "📸 Записаться на фотосессию", Unique: cbChoosePlan},
		{Text: "💰 Цены", Unique: cbSeePrices},
	})
}

func (a *App) groupMenuMarkup() *tele.ReplyMarkup {
	var btns []keyboard.InlineBtn
	for _, group := range a.catalog.Groups() {
		btns = append(btns, keyboard.InlineBtn{
			Text:   groupButtonText(group),
			Unique: cbGroup,
			Data:   group,
		})
	}
	btns = append(btns, keyboard.InlineBtn{Text: "🔙 Главное меню", Unique: cbMainMenu})
	return keyboard.InlineButtons(btns)
}

func (a *App) planMenuMarkup(group string) *tele.ReplyMarkup {
	var btns []keyboard.InlineBtn
	for _, plan := range a.catalog.PlansByGroup(group) {
		btns = append(btns, keyboard.InlineBtn{
			Text:   planButtonText(plan),
			Unique: cbPlan,
			Data:   plan.ID,
		})
	}
	btns = append(btns, keyboard.InlineBtn{Text: "🔙 Назад", Unique: cbChoosePlan})
	return keyboard.InlineButtons(btns)
}

func (a *App) handleStart(c tele.Context) error {
	a.engine.Cancel(c.Sender().ID)
	return tghelpers.SendKeyboard(c, textWelcome, a.mainMenuMarkup())
}

func (a *App) handleCancel(c tele.Context) error {
	userID := c.Sender().ID
	if !a.sessions.InProgress(userID) {
		return tghelpers.SendText(c, textNothingToCancel)
	}
	a.engine.Cancel(userID)
	return tghelpers.SendText(c, textCancelled)
}

func (a *App) handleExport(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "export")
	regs, err := a.store.ListAll(ctx)
	if err != nil {
		return err
	}
	if len(regs) == 0 {
		return tghelpers.SendText(c, textExportEmpty)
	}
	data, err := export.CSV(regs)
	if err != nil {
		return err
	}
	doc := &tele.Document{
		File:     tele.FromReader(bytes.NewReader(data)),
		FileName: export.Filename(time.Now()),
		MIME:     "text/csv",
	}
	return c.Send(doc)
}

func (a *App) cbShowMainMenu(c tele.Context) error {
	_ = c.Respond()
	return tghelpers.EditOrSend(c, textMainMenu, a.mainMenuMarkup())
}

func (a *App) cbShowPrices(c tele.Context) error {
	_ = c.Respond()
	markup := keyboard.InlineButtons([]keyboard.InlineBtn{
		{Text: "📸 Записаться", Unique: cbChoosePlan},
		{Text: "⬅️ Назад", Unique: cbMainMenu},
	})
	return tghelpers.EditOrSend(c, priceList(a.catalog.Plans()), markup)
}

func (a *App) cbChoosePlanMenu(c tele.Context) error {
	_ = c.Respond()
	return tghelpers.EditOrSend(c, textChooseCategory, a.groupMenuMarkup())
}

func (a *App) cbShowGroup(c tele.Context) error {
	group := callbacks.CallbackPayload(c)
	if len(a.catalog.PlansByGroup(group)) == 0 {
		_ = c.Respond(&tele.CallbackResponse{Text: "Категория не найдена"})
		return tghelpers.EditOrSend(c, textChooseCategory, a.groupMenuMarkup())
	}
	_ = c.Respond()
	return tghelpers.EditOrSend(c, textChoosePlan, a.planMenuMarkup(group))
}

func (a *App) cbSelectPlan(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "select_plan")
	planID := callbacks.CallbackPayload(c)

	plan, err := a.engine.StartRegistration(ctx, c.Sender().ID, planID)
	if err != nil {
		if errors.Is(err, flow.ErrPlanNotFound) {
			_ = c.Respond(&tele.CallbackResponse{Text: "Пакет не найден"})
			return tghelpers.EditOrSend(c, textMainMenu, a.mainMenuMarkup())
		}
		return err
	}
	_ = c.Respond()
	return tghelpers.EditOrSend(c, welcomeForPlan(plan))
}

// cbConfirmPayment handles the admin pressing the confirmation button
// under a receipt. Access is checked in-handler because the button lives
// in the admin chat and carries the registration id as payload.
func (a *App) cbConfirmPayment(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "confirm_payment")
	if c.Sender() == nil || c.Sender().ID != a.adminChatID {
		return c.Respond(&tele.CallbackResponse{Text: "Недостаточно прав"})
	}

	regID := callbacks.CallbackPayload(c)
	result, err := a.engine.ConfirmPayment(ctx, regID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Respond(&tele.CallbackResponse{Text: "Заявка не найдена", ShowAlert: true})
		}
		logger.Error(ctx, "app", "confirm.fail",
			slog.String("registration_id", regID),
			slog.String("err", err.Error()),
		)
		return c.Respond(&tele.CallbackResponse{Text: "Ошибка подтверждения", ShowAlert: true})
	}

	ack := "Оплата подтверждена ✅"
	if !result.UserNotified {
		ack = "Оплата подтверждена, но клиент не получил уведомление"
	}
	_ = c.Respond(&tele.CallbackResponse{Text: ack})

	// Strike the button and stamp the caption so the receipt cannot be
	// confirmed twice by accident.
	caption := ""
	if msg := c.Message(); msg != nil {
		caption = msg.Caption
	}
	return c.EditCaption(caption+"\n\n✅ ПЛАТЁЖ ПОДТВЕРЖДЁН", &tele.ReplyMarkup{})
}

// ManagerHandler advances the booking dialogue for users mid-conversation.
func (a *App) ManagerHandler(c tele.Context) error {
	userID := c.Sender().ID
	ctx := tghelpers.WithHandler(c, "booking_fsm")

	switch a.sessions.Step(userID) {
	case session.StepCollectingName:
		name := strings.TrimSpace(c.Text())
		if name == "" {
			return tghelpers.SendText(c, textAskName)
		}
		if err := a.engine.SubmitName(ctx, userID, name); err != nil {
			return err
		}
		return tghelpers.SendText(c, textAskPhone)

	case session.StepCollectingPhone:
		username := ""
		if c.Sender() != nil {
			username = c.Sender().Username
		}
		result, err := a.engine.SubmitPhone(ctx, userID, username, c.Text())
		switch {
		case errors.Is(err, flow.ErrInvalidPhone):
			return tghelpers.SendText(c, textBadPhone)
		case err != nil:
			logger.Error(ctx, "app", "registration.persist.fail",
				slog.Int64("user_id", userID),
				slog.String("err", err.Error()),
			)
			return tghelpers.SendText(c, textRegistrationFailed)
		}
		return tghelpers.SendText(c, paymentInstructions(result.Plan, a.booking))

	case session.StepAwaitingReceipt:
		photo := c.Message().Photo
		if photo == nil {
			return tghelpers.SendText(c, textAwaitReceipt)
		}
		if _, err := a.engine.SubmitReceipt(ctx, userID, photo.FileID); err != nil {
			logger.Error(ctx, "app", "receipt.forward.fail",
				slog.Int64("user_id", userID),
				slog.String("err", err.Error()),
			)
			return tghelpers.SendText(c, textRegistrationFailed)
		}
		return tghelpers.SendText(c, textReceiptForwarded)

	case session.StepAwaitingConfirmation:
		return tghelpers.SendText(c, textAwaitConfirmation)
	}
	return nil
}

// InProgress reports whether the user is mid-dialogue.
func (a *App) InProgress(userID int64) bool {
	return a.sessions.InProgress(userID)
}

func (a *App) unknownText(c tele.Context) error {
	return tghelpers.SendText(c, textUnknown)
}

func (a *App) unknownPhoto(c tele.Context) error {
	return tghelpers.SendText(c, textOrphanPhoto)
}

func (a *App) onRateLimited(c tele.Context) error {
	return tghelpers.SendText(c, "Слишком много сообщений, подождите немного 🙏")
}
