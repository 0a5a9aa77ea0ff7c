// Package finecalc は延滞料金の計算だけを行う。副作用なし、同じ入力なら常に同じ結果。
package finecalc

import (
	"time"

	"github.com/shopspring/decimal"

	"circulation-backend/internal/platform/clock"
	"circulation-backend/internal/rates"
)

type Status string

const (
	StatusOverdue Status = "overdue"
	StatusOnTime  Status = "on_time"
)

// Input: 計算に必要な貸出の情報
type Input struct {
	IssueID    string
	UserID     string
	BookID     string
	Category   string
	DueDate    time.Time
	ReturnDate *time.Time // nil なら asOf を返却日とみなす
}

type Assessment struct {
	IssueID        string          `json:"issue_id"`
	UserID         string          `json:"user_id"`
	BookID         string          `json:"book_id"`
	DueDate        time.Time       `json:"due_date"`
	EffectiveDate  time.Time       `json:"effective_date"`
	OverdueDaysRaw int             `json:"overdue_days_raw"`
	GracePeriod    int             `json:"grace_period_days"`
	OverdueDays    int             `json:"overdue_days"`
	DailyRate      decimal.Decimal `json:"daily_rate"`
	MaximumFine    decimal.Decimal `json:"maximum_fine"`
	FineAmount     decimal.Decimal `json:"fine_amount"`
	Capped         bool            `json:"capped"`
	Status         Status          `json:"status"`
	CalculatedOn   time.Time       `json:"calculated_on"`
}

// Calculate は
//
//	raw     = max(0, 返却日 - 期限日)
//	overdue = max(0, raw - 猶予日数)
//	amount  = min(overdue * 日額, 上限)  小数2桁
//
// 猶予は上限を当てる前に差し引く。上限 0 以下は上限なし。
func Calculate(in Input, table rates.Table, asOf time.Time) Assessment {
	effective := clock.DateOf(asOf)
	if in.ReturnDate != nil {
		effective = clock.DateOf(*in.ReturnDate)
	}
	rate := table.Resolve(in.Category)

	raw := clock.DaysBetween(in.DueDate, effective)
	if raw < 0 {
		raw = 0
	}
	overdue := raw - rate.GracePeriodDays
	if overdue < 0 {
		overdue = 0
	}

	amount := rate.DailyRate.Mul(decimal.NewFromInt(int64(overdue)))
	capped := false
	if amount.GreaterThan(rate.MaximumFine) {
		amount = rate.MaximumFine
		capped = true
	}
	amount = amount.Round(2)

	status := StatusOnTime
	if overdue > 0 {
		status = StatusOverdue
	}

	return Assessment{
		IssueID:        in.IssueID,
		UserID:         in.UserID,
		BookID:         in.BookID,
		DueDate:        clock.DateOf(in.DueDate),
		EffectiveDate:  effective,
		OverdueDaysRaw: raw,
		GracePeriod:    rate.GracePeriodDays,
		OverdueDays:    overdue,
		DailyRate:      rate.DailyRate,
		MaximumFine:    rate.MaximumFine,
		FineAmount:     amount,
		Capped:         capped,
		Status:         status,
		CalculatedOn:   clock.DateOf(asOf),
	}
}
