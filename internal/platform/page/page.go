package page

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	DefaultLimit = 50
	MaxLimit     = 200
)

type Page struct {
	Limit  int
	Offset int
	Order  string // asc|desc
}

// FromQuery: ?limit=&offset=&order= を読む。不正値はデフォルト
func FromQuery(c *gin.Context) Page {
	p := Page{
		Limit:  parseIntDefault(c.Query("limit"), DefaultLimit),
		Offset: parseIntDefault(c.Query("offset"), 0),
		Order:  c.DefaultQuery("order", "desc"),
	}
	return p.Normalize()
}

func (p Page) Normalize() Page {
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	if p.Order != "asc" {
		p.Order = "desc"
	}
	return p
}

// Next: 次ページがあれば offset を返す
func (p Page) Next(total int64) *int {
	next := p.Offset + p.Limit
	if int64(next) < total {
		return &next
	}
	return nil
}

func parseIntDefault(s string, d int) int {
	if s == "" {
		return d
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return d
	}
	return v
}
