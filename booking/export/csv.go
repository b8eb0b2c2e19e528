// Package export renders registrations as CSV for the admin.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/wowmotion/bookingbot/booking/store"
	"github.com/wowmotion/bookingbot/core/telegram/format"
)

var header = []string{
	"id", "full_name", "phone_number", "telegram_username",
	"telegram_id", "plan_id", "plan_name", "is_paid", "created_at",
}

// CSV renders the registrations with a header row, preserving input order.
func CSV(regs []store.Registration) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("export header: %w", err)
	}
	for _, reg := range regs {
		row := []string{
			reg.ID,
			reg.FullName,
			reg.PhoneNumber,
			format.DerefString(reg.TelegramUsername, ""),
			reg.TelegramID,
			reg.PlanID,
			reg.PlanName,
			fmt.Sprintf("%t", reg.IsPaid),
			reg.CreatedAt.Format(time.RFC3339),
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("export row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("export flush: %w", err)
	}
	return buf.Bytes(), nil
}

// Filename returns a dated name for the exported document.
func Filename(at time.Time) string {
	return fmt.Sprintf("registrations_%s.csv", at.Format("2006-01-02"))
}
