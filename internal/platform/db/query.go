package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/mysql" // dialect import
	"github.com/go-sql-driver/mysql"
)

const dialectMySQL = "mysql"

var ErrBuildingQuery = errors.New("building query failed")

// From: 一覧系の動的 WHERE 用。プレースホルダ(?)で組み立てる
func From(table any) *goqu.SelectDataset {
	return goqu.Dialect(dialectMySQL).From(table).Prepared(true)
}

// Count は ds の WHERE をそのまま使って件数を数える
func Count(ctx context.Context, q DBTX, ds *goqu.SelectDataset) (int64, error) {
	query, args, err := ds.Select(goqu.COUNT(goqu.Star())).ToSQL()
	if err != nil {
		return 0, errors.Join(ErrBuildingQuery, err)
	}
	var total int64
	if err := q.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return total, nil
}

// IsDuplicateKey: UNIQUE 制約違反（MySQL 1062）
func IsDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1062
	}
	return false
}
