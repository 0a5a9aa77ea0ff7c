package settings

import (
	"context"
	"database/sql"

	"circulation-backend/internal/platform/db"
)

type Store interface {
	List(ctx context.Context) ([]Setting, error)
	Upsert(ctx context.Context, key, value, updatedBy string) error
}

type SQLStore struct{ db db.DBTX }

func NewStore(d db.DBTX) *SQLStore { return &SQLStore{db: d} }

func (s *SQLStore) List(ctx context.Context) ([]Setting, error) {
	const q = `
		SELECT setting_key, setting_value, updated_by, updated_at
		FROM settings
		ORDER BY setting_key`

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := make([]Setting, 0, 32)
	for rows.Next() {
		var st Setting
		var by sql.NullString
		if err := rows.Scan(&st.Key, &st.Value, &by, &st.UpdatedAt); err != nil {
			return nil, err
		}
		st.UpdatedBy = nullToPtr(by)
		res = append(res, st)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Upsert: setting_key（PK）で INSERT または UPDATE
func (s *SQLStore) Upsert(ctx context.Context, key, value, updatedBy string) error {
	const q = `
	INSERT INTO settings (setting_key, setting_value, updated_by, updated_at)
	VALUES (?, ?, ?, UTC_TIMESTAMP())
	ON DUPLICATE KEY UPDATE
	setting_value = VALUES(setting_value),
	updated_by    = VALUES(updated_by),
	updated_at    = VALUES(updated_at)`

	_, err := s.db.ExecContext(ctx, q, key, value, updatedBy)
	return err
}

func nullToPtr(ns sql.NullString) *string {
	if ns.Valid {
		v := ns.String
		return &v
	}
	return nil
}
