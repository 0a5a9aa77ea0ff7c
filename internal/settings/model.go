package settings

import (
	"time"

	"circulation-backend/internal/rates"
)

type Setting struct {
	Key       string
	Value     string
	UpdatedBy *string
	UpdatedAt time.Time
}

type Kind string

const (
	KindInt   Kind = "int"
	KindMoney Kind = "money"
)

// 運用値のデフォルト（settings テーブルに無ければこれ）
const (
	KeyDefaultLoanDays     = "default_loan_days"
	KeyMaxBooksPerUser     = "max_books_per_user"
	KeyMaxPendingRequests  = "max_pending_requests"
	DefaultLoanDays        = 14
	DefaultMaxBooksPerUser = 5
	DefaultMaxPending      = 5
)

type keyDef struct {
	Kind    Kind
	Default string
	// Positive: 0 を受け付けない（件数・日数の上限、罰金上限）
	Positive bool
}

// known は受け付けるキーの一覧。料金系は rates の組み込み値をデフォルトとして表示する
func known() map[string]keyDef {
	def := rates.DefaultTable()
	m := map[string]keyDef{
		KeyDefaultLoanDays:          {KindInt, itoa(DefaultLoanDays), true},
		KeyMaxBooksPerUser:          {KindInt, itoa(DefaultMaxBooksPerUser), true},
		KeyMaxPendingRequests:       {KindInt, itoa(DefaultMaxPending), true},
		rates.KeyGracePeriodDays:    {KindInt, itoa(def.Default.GracePeriodDays), false},
		rates.KeyDefaultDailyRate:   {KindMoney, def.Default.DailyRate.StringFixed(2), false},
		rates.KeyDefaultMaximumFine: {KindMoney, def.Default.MaximumFine.StringFixed(2), true},
	}
	entries := def.Entries()
	for _, c := range rates.Categories {
		r := entries[c]
		m[rates.RateKey(c, "daily_rate")] = keyDef{KindMoney, r.DailyRate.StringFixed(2), false}
		m[rates.RateKey(c, "grace_period_days")] = keyDef{KindInt, itoa(r.GracePeriodDays), false}
		m[rates.RateKey(c, "maximum_fine")] = keyDef{KindMoney, r.MaximumFine.StringFixed(2), true}
	}
	return m
}
