package callbacks

import (
	"testing"

	tele "gopkg.in/telebot.v4"
)

func TestParseCallbackData(t *testing.T) {
	cases := []struct {
		name    string
		data    string
		unique  string
		payload string
	}{
		{"key only", "\fmain_menu", "main_menu", ""},
		{"key and payload", "\fplan|solo1", "plan", "solo1"},
		{"payload keeps separators", "\fconfirm|ab|cd", "confirm", "ab|cd"},
		{"no prefix", "pay|duo", "pay", "duo"},
		{"empty", "", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			u, p := ParseCallbackData(&tele.Callback{Data: tc.data})
			if u != tc.unique || p != tc.payload {
				t.Fatalf("got (%q, %q), want (%q, %q)", u, p, tc.unique, tc.payload)
			}
		})
	}
}

type cbContext struct {
	tele.Context
	cb *tele.Callback
}

func (c cbContext) Callback() *tele.Callback { return c.cb }

func TestCallbackKey(t *testing.T) {
	cases := []struct {
		name string
		cb   *tele.Callback
		want string
	}{
		{"unique wins", &tele.Callback{Unique: "plan", Data: "\fother|x"}, "plan"},
		{"falls back to data", &tele.Callback{Data: "\fmain_menu"}, "main_menu"},
		{"no callback", nil, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CallbackKey(cbContext{cb: tc.cb}); got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestParseCallbackDataNil(t *testing.T) {
	u, p := ParseCallbackData(nil)
	if u != "" || p != "" {
		t.Fatalf("expected empty result, got (%q, %q)", u, p)
	}
}
