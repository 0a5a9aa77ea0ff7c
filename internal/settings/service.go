package settings

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"circulation-backend/internal/platform/apierr"
	"circulation-backend/internal/platform/logger"
)

type Service struct {
	store Store
	known map[string]keyDef
}

func NewService(store Store) *Service {
	return &Service{store: store, known: known()}
}

// Values は保存済みの上書き値だけを返す（rates.Source / circulation.PolicySource）
func (s *Service) Values(ctx context.Context) (map[string]string, error) {
	list, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("settings の取得失敗: %w", err)
	}
	out := make(map[string]string, len(list))
	for _, st := range list {
		out[st.Key] = st.Value
	}
	return out, nil
}

// List: 既知キーすべての実効値。未保存はデフォルトを表示
func (s *Service) List(ctx context.Context) ([]SettingResponse, error) {
	list, err := s.store.List(ctx)
	if err != nil {
		logger.Log.WithError(err).Error("list settings failed")
		return nil, apierr.ErrInternal("failed to list settings")
	}
	saved := make(map[string]Setting, len(list))
	for _, st := range list {
		saved[st.Key] = st
	}

	keys := make([]string, 0, len(s.known))
	for k := range s.known {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	res := make([]SettingResponse, 0, len(keys))
	for _, k := range keys {
		sp := s.known[k]
		r := SettingResponse{Key: k, Kind: sp.Kind, Default: sp.Default, Value: sp.Default}
		if st, ok := saved[k]; ok {
			at := st.UpdatedAt
			r.Value, r.Overridden, r.UpdatedBy, r.UpdatedAt = st.Value, true, st.UpdatedBy, &at
		}
		res = append(res, r)
	}
	return res, nil
}

func (s *Service) Set(ctx context.Context, key, value, actor string) (SettingResponse, error) {
	key = strings.TrimSpace(key)
	sp, ok := s.known[key]
	if !ok {
		return SettingResponse{}, apierr.ErrNotFound("unknown setting key")
	}
	norm, err := normalize(sp.Kind, value)
	if err != nil {
		return SettingResponse{}, err
	}
	if sp.Positive && isZero(norm) {
		return SettingResponse{}, apierr.ErrInvalid("value must be greater than zero")
	}
	if err := s.store.Upsert(ctx, key, norm, actor); err != nil {
		logger.Log.WithError(err).WithField("key", key).Error("update setting failed")
		return SettingResponse{}, apierr.ErrInternal("failed to update setting")
	}
	logger.Log.WithField("key", key).WithField("value", norm).WithField("by", actor).Info("setting updated")

	return SettingResponse{Key: key, Value: norm, Kind: sp.Kind, Default: sp.Default, Overridden: true, UpdatedBy: &actor}, nil
}

func normalize(kind Kind, v string) (string, error) {
	v = strings.TrimSpace(v)
	switch kind {
	case KindInt:
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return "", apierr.ErrInvalid("value must be a non-negative integer")
		}
		return strconv.Itoa(n), nil
	case KindMoney:
		d, err := decimal.NewFromString(v)
		if err != nil || d.IsNegative() {
			return "", apierr.ErrInvalid("value must be a non-negative amount")
		}
		return d.StringFixed(2), nil
	}
	return "", apierr.ErrInvalid("unsupported setting")
}

func isZero(norm string) bool {
	d, err := decimal.NewFromString(norm)
	return err == nil && d.IsZero()
}

func itoa(n int) string { return strconv.Itoa(n) }
