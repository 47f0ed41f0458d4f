package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// EntryStatus is the payment state of a single schedule entry. Payment
// capture itself happens outside this engine; only the stored status is
// tracked here.
type EntryStatus string

const (
	EntryStatusPending EntryStatus = "PENDING"
	EntryStatusPaid    EntryStatus = "PAID"
	EntryStatusOverdue EntryStatus = "OVERDUE"
)

// dueDateLayout is the wire format for schedule due dates.
const dueDateLayout = "2006-01-02"

// PaymentEntry is one due payment of an offer's schedule.
type PaymentEntry struct {
	PaymentNumber int             `json:"payment_number" db:"payment_number"`
	DueDate       time.Time       `json:"due_date" db:"due_date"`
	Amount        decimal.Decimal `json:"amount" db:"amount"`
	Status        EntryStatus     `json:"status" db:"status"`
}

type paymentEntryJSON struct {
	PaymentNumber int             `json:"payment_number"`
	DueDate       string          `json:"due_date"`
	Amount        decimal.Decimal `json:"amount"`
	Status        EntryStatus     `json:"status"`
}

// MarshalJSON renders the due date as an ISO date string; downstream
// display and notification consumers rely on that shape.
func (e PaymentEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal(paymentEntryJSON{
		PaymentNumber: e.PaymentNumber,
		DueDate:       e.DueDate.Format(dueDateLayout),
		Amount:        e.Amount,
		Status:        e.Status,
	})
}

func (e *PaymentEntry) UnmarshalJSON(data []byte) error {
	var raw paymentEntryJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	due, err := time.Parse(dueDateLayout, raw.DueDate)
	if err != nil {
		return err
	}
	e.PaymentNumber = raw.PaymentNumber
	e.DueDate = due
	e.Amount = raw.Amount
	e.Status = raw.Status
	return nil
}

// GenerateSchedule produces the payment schedule for an approved
// amount. Entry count is durationMonths for MONTHLY and durationMonths*4
// for WEEKLY. Each entry carries ceil(total/count) except the last,
// which takes the exact remainder so the entries always sum to total.
// Rounding is resolved here and nowhere else. The first entry is due
// 30 days after now; later entries step by one calendar month or seven
// days. now is injected so tests can fix the clock.
func GenerateSchedule(total decimal.Decimal, durationMonths int, frequency PaymentFrequency, now time.Time) []PaymentEntry {
	count := durationMonths
	if frequency == FrequencyWeekly {
		count = durationMonths * 4
	}

	perEntry := total.Div(decimal.NewFromInt(int64(count))).Ceil()
	firstDue := now.Truncate(24 * time.Hour).AddDate(0, 0, 30)

	entries := make([]PaymentEntry, 0, count)
	for n := 1; n <= count; n++ {
		amount := perEntry
		if n == count {
			amount = total.Sub(perEntry.Mul(decimal.NewFromInt(int64(count - 1))))
		}

		dueDate := firstDue
		if frequency == FrequencyMonthly {
			dueDate = firstDue.AddDate(0, n-1, 0)
		} else {
			dueDate = firstDue.AddDate(0, 0, 7*(n-1))
		}

		entries = append(entries, PaymentEntry{
			PaymentNumber: n,
			DueDate:       dueDate,
			Amount:        amount,
			Status:        EntryStatusPending,
		})
	}

	return entries
}
