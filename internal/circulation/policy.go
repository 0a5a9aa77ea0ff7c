package circulation

import (
	"context"
	"strconv"
	"strings"

	"circulation-backend/internal/platform/logger"
	"circulation-backend/internal/rates"
	"circulation-backend/internal/settings"
)

// Policy は1操作の間だけ使う運用値のスナップショット。操作ごとに読み直す
type Policy struct {
	LoanDays           int
	MaxBooksPerUser    int
	MaxPendingRequests int
	Rates              rates.Table
}

func DefaultPolicy() Policy {
	return Policy{
		LoanDays:           settings.DefaultLoanDays,
		MaxBooksPerUser:    settings.DefaultMaxBooksPerUser,
		MaxPendingRequests: settings.DefaultMaxPending,
		Rates:              rates.DefaultTable(),
	}
}

// LoadPolicy: 設定が読めなくても組み込みのデフォルトで続行する
func LoadPolicy(ctx context.Context, src rates.Source) Policy {
	if src == nil {
		return DefaultPolicy()
	}
	values, err := src.Values(ctx)
	if err != nil {
		logger.Log.WithError(err).Warn("circulation policy: settings unavailable, using built-in defaults")
		return DefaultPolicy()
	}
	return PolicyFromValues(values)
}

func PolicyFromValues(values map[string]string) Policy {
	p := DefaultPolicy()
	p.LoanDays = positiveInt(values, settings.KeyDefaultLoanDays, p.LoanDays)
	p.MaxBooksPerUser = positiveInt(values, settings.KeyMaxBooksPerUser, p.MaxBooksPerUser)
	p.MaxPendingRequests = positiveInt(values, settings.KeyMaxPendingRequests, p.MaxPendingRequests)
	p.Rates = rates.FromValues(values)
	return p
}

func positiveInt(values map[string]string, key string, def int) int {
	v, ok := values[key]
	if !ok {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n <= 0 {
		logger.Log.WithField("key", key).WithField("value", v).Warn("ignoring invalid setting")
		return def
	}
	return n
}
