package catalog

import "time"

type Book struct {
	BookID          string
	ISBN            *string
	Title           string
	Author          string
	Category        string
	TotalCopies     int
	AvailableCopies int
	CreatedAt       time.Time
}

// Availability: 貸出可否の判定に使う在庫
type Availability struct {
	BookID    string
	Category  string
	Available int
	Total     int
}

type Filter struct {
	Query         *string // title/author/isbn 部分一致
	Category      *string
	AvailableOnly bool
}
