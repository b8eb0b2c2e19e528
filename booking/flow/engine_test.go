package flow

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/wowmotion/bookingbot/booking/catalog"
	"github.com/wowmotion/bookingbot/booking/session"
	"github.com/wowmotion/bookingbot/booking/store"
	coreconfig "github.com/wowmotion/bookingbot/core/config"
)

type fakeNotifier struct {
	adminNotices []AdminNotice
	userMessages map[string][]string
	adminErr     error
	userErr      error
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{userMessages: make(map[string][]string)}
}

func (f *fakeNotifier) NotifyAdmin(_ context.Context, notice AdminNotice) error {
	if f.adminErr != nil {
		return f.adminErr
	}
	f.adminNotices = append(f.adminNotices, notice)
	return nil
}

func (f *fakeNotifier) NotifyUser(_ context.Context, telegramID, text string) error {
	if f.userErr != nil {
		return f.userErr
	}
	f.userMessages[telegramID] = append(f.userMessages[telegramID], text)
	return nil
}

// flakyStore lets tests fail individual store operations.
type flakyStore struct {
	*store.MemoryStore
	createErr   error
	readBackErr error
}

func (f *flakyStore) CreateRegistration(ctx context.Context, reg *store.Registration) error {
	if f.createErr != nil {
		return f.createErr
	}
	return f.MemoryStore.CreateRegistration(ctx, reg)
}

func (f *flakyStore) LatestByTelegramID(ctx context.Context, telegramID string) (*store.Registration, error) {
	if f.readBackErr != nil {
		return nil, f.readBackErr
	}
	return f.MemoryStore.LatestByTelegramID(ctx, telegramID)
}

func testEngineWithStore(t *testing.T, st store.Store) (*Engine, *session.Manager, *fakeNotifier) {
	t.Helper()
	cat, err := catalog.New([]coreconfig.Plan{
		{ID: "solo1", Name: "Solo Базовый", Price: 200000, Group: "solo"},
		{ID: "solo2", Name: "Premium Solo", Price: 280000, Group: "solo"},
	})
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	sessions := session.NewManager()
	notifier := newFakeNotifier()
	return NewEngine(cat, sessions, st, notifier), sessions, notifier
}

func testEngine(t *testing.T) (*Engine, *session.Manager, *store.MemoryStore, *fakeNotifier) {
	t.Helper()
	st := store.NewMemoryStore()
	eng, sessions, notifier := testEngineWithStore(t, st)
	return eng, sessions, st, notifier
}

func TestStartRegistrationUnknownPlan(t *testing.T) {
	eng, sessions, _, _ := testEngine(t)
	_, err := eng.StartRegistration(context.Background(), 1, "nope")
	if !errors.Is(err, ErrPlanNotFound) {
		t.Fatalf("expected ErrPlanNotFound, got %v", err)
	}
	if sessions.InProgress(1) {
		t.Fatal("failed start must not open a session")
	}
}

func TestPhoneRetriesKeepNameAndStep(t *testing.T) {
	eng, sessions, _, _ := testEngine(t)
	ctx := context.Background()

	if _, err := eng.StartRegistration(ctx, 1, "solo1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := eng.SubmitName(ctx, 1, "Aigerim K."); err != nil {
		t.Fatalf("name: %v", err)
	}

	for i := 0; i < 3; i++ {
		if _, err := eng.SubmitPhone(ctx, 1, "aigerim", "123456"); !errors.Is(err, ErrInvalidPhone) {
			t.Fatalf("attempt %d: expected ErrInvalidPhone, got %v", i, err)
		}
	}

	sess, _ := sessions.Snapshot(1)
	if sess.Step != session.StepCollectingPhone {
		t.Fatalf("step advanced on invalid phone: %v", sess.Step)
	}
	if sess.FullName != "Aigerim K." {
		t.Fatalf("name changed across retries: %q", sess.FullName)
	}
}

func TestSubmitPhonePersistsAndRecoversID(t *testing.T) {
	eng, sessions, st, _ := testEngine(t)
	ctx := context.Background()

	if _, err := eng.StartRegistration(ctx, 1, "solo1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := eng.SubmitName(ctx, 1, "Aigerim K."); err != nil {
		t.Fatalf("name: %v", err)
	}

	res, err := eng.SubmitPhone(ctx, 1, "aigerim", "8 707 123 45 67")
	if err != nil {
		t.Fatalf("phone: %v", err)
	}
	if res.RegistrationID == "" {
		t.Fatal("registration id must be recovered via read-back")
	}
	if res.Plan.ID != "solo1" {
		t.Fatalf("wrong plan: %+v", res.Plan)
	}

	stored, err := st.ByID(ctx, res.RegistrationID)
	if err != nil {
		t.Fatalf("by id: %v", err)
	}
	if stored.PhoneNumber != "+7 707 123 45 67" {
		t.Fatalf("phone not normalized: %q", stored.PhoneNumber)
	}
	if stored.PlanName != "Solo Базовый" {
		t.Fatalf("plan name snapshot missing: %q", stored.PlanName)
	}
	if stored.IsPaid {
		t.Fatal("new registration must be unpaid")
	}
	if stored.TelegramUsername == nil || *stored.TelegramUsername != "@aigerim" {
		t.Fatalf("username not stored with handle prefix: %v", stored.TelegramUsername)
	}

	if sessions.Step(1) != session.StepAwaitingReceipt {
		t.Fatalf("expected awaiting receipt, got %v", sessions.Step(1))
	}
}

func TestReceiptNotifiesAdminWithRegistrationID(t *testing.T) {
	eng, sessions, _, notifier := testEngine(t)
	ctx := context.Background()

	_, _ = eng.StartRegistration(ctx, 1, "solo1")
	_ = eng.SubmitName(ctx, 1, "Aigerim K.")
	res, err := eng.SubmitPhone(ctx, 1, "aigerim", "87071234567")
	if err != nil {
		t.Fatalf("phone: %v", err)
	}

	notice, err := eng.SubmitReceipt(ctx, 1, "file123")
	if err != nil {
		t.Fatalf("receipt: %v", err)
	}
	if notice.RegistrationID != res.RegistrationID {
		t.Fatalf("notice id %q != registration id %q", notice.RegistrationID, res.RegistrationID)
	}
	if notice.PhotoFileID != "file123" {
		t.Fatalf("photo id lost: %q", notice.PhotoFileID)
	}
	if len(notifier.adminNotices) != 1 {
		t.Fatalf("admin notices: %d", len(notifier.adminNotices))
	}
	for _, part := range []string{"Aigerim K.", "+7 707 123 45 67", "@aigerim", "Solo Базовый", "200 000 ₸", res.RegistrationID} {
		if !strings.Contains(notice.Summary, part) {
			t.Fatalf("summary missing %q: %q", part, notice.Summary)
		}
	}
	if sessions.Step(1) != session.StepAwaitingConfirmation {
		t.Fatalf("expected awaiting confirmation, got %v", sessions.Step(1))
	}
}

func TestConfirmPaymentHappyPath(t *testing.T) {
	eng, sessions, st, notifier := testEngine(t)
	ctx := context.Background()

	_, _ = eng.StartRegistration(ctx, 1, "solo1")
	_ = eng.SubmitName(ctx, 1, "Aigerim K.")
	res, _ := eng.SubmitPhone(ctx, 1, "aigerim", "87071234567")
	_, _ = eng.SubmitReceipt(ctx, 1, "file123")

	confirm, err := eng.ConfirmPayment(ctx, res.RegistrationID)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if !confirm.UserNotified {
		t.Fatal("user should be notified")
	}
	if !confirm.Registration.IsPaid {
		t.Fatal("result registration must be paid")
	}

	stored, _ := st.ByID(ctx, res.RegistrationID)
	if !stored.IsPaid {
		t.Fatal("stored registration must be paid")
	}
	if msgs := notifier.userMessages["1"]; len(msgs) != 1 {
		t.Fatalf("user messages: %v", msgs)
	}
	if sessions.InProgress(1) {
		t.Fatal("session should be closed after confirmation")
	}
}

func TestConfirmPaymentUnknownID(t *testing.T) {
	eng, _, _, notifier := testEngine(t)
	_, err := eng.ConfirmPayment(context.Background(), "no-such-id")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected store.ErrNotFound, got %v", err)
	}
	if len(notifier.userMessages) != 0 {
		t.Fatal("no user may be notified for unknown id")
	}
}

func TestConfirmPaymentIdempotent(t *testing.T) {
	eng, _, _, notifier := testEngine(t)
	ctx := context.Background()

	_, _ = eng.StartRegistration(ctx, 1, "solo1")
	_ = eng.SubmitName(ctx, 1, "Aigerim K.")
	res, _ := eng.SubmitPhone(ctx, 1, "aigerim", "87071234567")
	_, _ = eng.SubmitReceipt(ctx, 1, "file123")

	if _, err := eng.ConfirmPayment(ctx, res.RegistrationID); err != nil {
		t.Fatalf("first confirm: %v", err)
	}
	if _, err := eng.ConfirmPayment(ctx, res.RegistrationID); err != nil {
		t.Fatalf("second confirm must succeed: %v", err)
	}
	if msgs := notifier.userMessages["1"]; len(msgs) != 2 {
		t.Fatalf("each confirm notifies once, got %v", msgs)
	}
}

func TestConfirmSurvivesNotifyFailure(t *testing.T) {
	eng, _, st, notifier := testEngine(t)
	ctx := context.Background()

	_, _ = eng.StartRegistration(ctx, 1, "solo1")
	_ = eng.SubmitName(ctx, 1, "Aigerim K.")
	res, _ := eng.SubmitPhone(ctx, 1, "aigerim", "87071234567")

	notifier.userErr = errors.New("blocked by user")
	confirm, err := eng.ConfirmPayment(ctx, res.RegistrationID)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if confirm.UserNotified {
		t.Fatal("notification failed, flag must be false")
	}
	stored, _ := st.ByID(ctx, res.RegistrationID)
	if !stored.IsPaid {
		t.Fatal("payment mark must survive notify failure")
	}
}

func TestWrongStepInputs(t *testing.T) {
	eng, _, _, _ := testEngine(t)
	ctx := context.Background()

	if err := eng.SubmitName(ctx, 1, "x"); !errors.Is(err, ErrWrongStep) {
		t.Fatalf("name without session: %v", err)
	}
	if _, err := eng.SubmitPhone(ctx, 1, "", "87071234567"); !errors.Is(err, ErrWrongStep) {
		t.Fatalf("phone without session: %v", err)
	}
	if _, err := eng.SubmitReceipt(ctx, 1, "f"); !errors.Is(err, ErrWrongStep) {
		t.Fatalf("receipt without session: %v", err)
	}
}

func TestCreateFailureClearsSession(t *testing.T) {
	st := &flakyStore{MemoryStore: store.NewMemoryStore(), createErr: errors.New("db down")}
	eng, sessions, _ := testEngineWithStore(t, st)
	ctx := context.Background()

	_, _ = eng.StartRegistration(ctx, 1, "solo1")
	_ = eng.SubmitName(ctx, 1, "Aigerim K.")

	if _, err := eng.SubmitPhone(ctx, 1, "aigerim", "87071234567"); err == nil {
		t.Fatal("expected create error")
	}
	if sessions.InProgress(1) {
		t.Fatal("failed create must clear the session")
	}
}

func TestReadBackFailureContinuesWithoutID(t *testing.T) {
	st := &flakyStore{MemoryStore: store.NewMemoryStore(), readBackErr: errors.New("select timeout")}
	eng, sessions, notifier := testEngineWithStore(t, st)
	ctx := context.Background()

	_, _ = eng.StartRegistration(ctx, 1, "solo1")
	_ = eng.SubmitName(ctx, 1, "Aigerim K.")

	res, err := eng.SubmitPhone(ctx, 1, "aigerim", "87071234567")
	if err != nil {
		t.Fatalf("read-back failure must not fail the flow: %v", err)
	}
	if res.RegistrationID != "" {
		t.Fatalf("no id should be recovered, got %q", res.RegistrationID)
	}
	if sessions.Step(1) != session.StepAwaitingReceipt {
		t.Fatalf("flow must still advance, got %v", sessions.Step(1))
	}

	notice, err := eng.SubmitReceipt(ctx, 1, "file123")
	if err != nil {
		t.Fatalf("receipt: %v", err)
	}
	if notice.RegistrationID != "" {
		t.Fatalf("notice must carry no id, got %q", notice.RegistrationID)
	}
	if !strings.Contains(notice.Summary, "нужна ручная проверка") {
		t.Fatalf("summary must flag the missing id: %q", notice.Summary)
	}
	if len(notifier.adminNotices) != 1 {
		t.Fatalf("admin notices: %d", len(notifier.adminNotices))
	}
}

func TestReceiptSurvivesAdminNotifyFailure(t *testing.T) {
	eng, sessions, _, notifier := testEngine(t)
	ctx := context.Background()

	_, _ = eng.StartRegistration(ctx, 1, "solo1")
	_ = eng.SubmitName(ctx, 1, "Aigerim K.")
	_, _ = eng.SubmitPhone(ctx, 1, "aigerim", "87071234567")

	notifier.adminErr = errors.New("chat not found")
	if _, err := eng.SubmitReceipt(ctx, 1, "file123"); err != nil {
		t.Fatalf("admin notify failure must not surface: %v", err)
	}
	if sessions.Step(1) != session.StepAwaitingConfirmation {
		t.Fatalf("flow must still advance, got %v", sessions.Step(1))
	}
}

func TestRestartMidDialogueResetsCollection(t *testing.T) {
	eng, sessions, _, _ := testEngine(t)
	ctx := context.Background()

	_, _ = eng.StartRegistration(ctx, 1, "solo1")
	_ = eng.SubmitName(ctx, 1, "Aigerim K.")

	if _, err := eng.StartRegistration(ctx, 1, "solo2"); err != nil {
		t.Fatalf("restart: %v", err)
	}
	sess, _ := sessions.Snapshot(1)
	if sess.PlanID != "solo2" || sess.FullName != "" || sess.Step != session.StepCollectingName {
		t.Fatalf("restart did not reset: %+v", sess)
	}
}

func TestFormatTenge(t *testing.T) {
	cases := map[int64]string{
		5000:   "5 000 ₸",
		200000: "200 000 ₸",
		70000:  "70 000 ₸",
		999:    "999 ₸",
	}
	for in, want := range cases {
		if got := FormatTenge(in); got != want {
			t.Errorf("FormatTenge(%d) = %q, want %q", in, got, want)
		}
	}
}
