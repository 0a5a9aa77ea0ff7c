package rates

import (
	"context"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"circulation-backend/internal/platform/logger"
)

// Category は資料区分。料金表のキーでもある
type Category string

const (
	RegularBook   Category = "regular_book"
	ReferenceBook Category = "reference_book"
	Journal       Category = "journal"
	Magazine      Category = "magazine"
)

var Categories = []Category{RegularBook, ReferenceBook, Journal, Magazine}

func (c Category) Valid() bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}

// ParseCategory: "reference" も "reference_book" も受け付ける
func ParseCategory(s string) (Category, bool) {
	k := strings.ToLower(strings.TrimSpace(s))
	if c := Category(k + "_book"); c.Valid() {
		return c, true
	}
	if c := Category(k); c.Valid() {
		return c, true
	}
	return "", false
}

type Rate struct {
	DailyRate       decimal.Decimal `json:"daily_rate"`
	GracePeriodDays int             `json:"grace_period_days"`
	MaximumFine     decimal.Decimal `json:"maximum_fine"` // 0 以下は上限なし
}

const DefaultGracePeriodDays = 2

// Table は区分ごとの料金と、区分不明時のデフォルト
type Table struct {
	rates   map[Category]Rate
	Default Rate
}

func DefaultTable() Table {
	return Table{
		rates: map[Category]Rate{
			RegularBook:   {DailyRate: decimal.RequireFromString("1.00"), GracePeriodDays: 2, MaximumFine: decimal.RequireFromString("50.00")},
			ReferenceBook: {DailyRate: decimal.RequireFromString("5.00"), GracePeriodDays: 0, MaximumFine: decimal.RequireFromString("200.00")},
			Journal:       {DailyRate: decimal.RequireFromString("2.00"), GracePeriodDays: 1, MaximumFine: decimal.RequireFromString("100.00")},
			Magazine:      {DailyRate: decimal.RequireFromString("0.50"), GracePeriodDays: 2, MaximumFine: decimal.RequireFromString("25.00")},
		},
		Default: Rate{
			DailyRate:       decimal.RequireFromString("1.00"),
			GracePeriodDays: DefaultGracePeriodDays,
			MaximumFine:     decimal.RequireFromString("100.00"),
		},
	}
}

// NewTable: テストや固定料金用
func NewTable(def Rate, rates map[Category]Rate) Table {
	t := Table{rates: make(map[Category]Rate, len(rates)), Default: def}
	for k, v := range rates {
		t.rates[k] = v
	}
	return t
}

// Resolve: 区分+"_book" → 区分そのもの → デフォルト の順に引く
func (t Table) Resolve(category string) Rate {
	k := strings.ToLower(strings.TrimSpace(category))
	if r, ok := t.rates[Category(k+"_book")]; ok {
		return r
	}
	if r, ok := t.rates[Category(k)]; ok {
		return r
	}
	return t.Default
}

// Entries: 区分ごとの料金のコピー（管理画面表示用）
func (t Table) Entries() map[Category]Rate {
	out := make(map[Category]Rate, len(t.rates))
	for k, v := range t.rates {
		out[k] = v
	}
	return out
}

// -------------- settings からの読み込み --------------

// Source は設定の key/value を返すもの（settings.Service）
type Source interface {
	Values(ctx context.Context) (map[string]string, error)
}

const (
	KeyDefaultDailyRate   = "default_daily_rate"
	KeyDefaultMaximumFine = "default_maximum_fine"
	KeyGracePeriodDays    = "grace_period_days"
	keyRatePrefix         = "fine_rate."
)

func RateKey(c Category, field string) string { return keyRatePrefix + string(c) + "." + field }

// FromValues: 解釈できない値は無視してデフォルトを残す
func FromValues(values map[string]string) Table {
	t := DefaultTable()

	t.Default = overrideRate(t.Default, values, KeyDefaultDailyRate, KeyGracePeriodDays, KeyDefaultMaximumFine)
	for _, c := range Categories {
		t.rates[c] = overrideRate(t.rates[c], values,
			RateKey(c, "daily_rate"), RateKey(c, "grace_period_days"), RateKey(c, "maximum_fine"))
	}
	return t
}

func overrideRate(r Rate, values map[string]string, dailyKey, graceKey, maxKey string) Rate {
	if v, ok := values[dailyKey]; ok {
		if d, ok := parseMoney(dailyKey, v); ok {
			r.DailyRate = d
		}
	}
	if v, ok := values[graceKey]; ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || n < 0 {
			logger.Log.WithField("key", graceKey).WithField("value", v).Warn("ignoring invalid setting")
		} else {
			r.GracePeriodDays = n
		}
	}
	if v, ok := values[maxKey]; ok {
		// 上限 0 は全額 0 円になるので受け付けない
		if d, ok := parseMoney(maxKey, v); ok && d.IsPositive() {
			r.MaximumFine = d
		} else if ok {
			logger.Log.WithField("key", maxKey).WithField("value", v).Warn("ignoring non-positive maximum fine")
		}
	}
	return r
}

func parseMoney(key, v string) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(strings.TrimSpace(v))
	if err != nil || d.IsNegative() {
		logger.Log.WithField("key", key).WithField("value", v).Warn("ignoring invalid setting")
		return decimal.Zero, false
	}
	return d, true
}
