package catalog

import "time"

type BookResponse struct {
	BookID          string    `json:"book_id"`
	ISBN            *string   `json:"isbn,omitempty"`
	Title           string    `json:"title"`
	Author          string    `json:"author"`
	Category        string    `json:"category"`
	TotalCopies     int       `json:"total_copies"`
	AvailableCopies int       `json:"available_copies"`
	CreatedAt       time.Time `json:"created_at"`
}

type ListBooksResponse struct {
	Items      []BookResponse `json:"items"`
	Total      int64          `json:"total"`
	NextOffset *int           `json:"next_offset,omitempty"`
}

type CreateBookRequest struct {
	ISBN        *string `json:"isbn,omitempty"`
	Title       string  `json:"title" binding:"required"`
	Author      string  `json:"author" binding:"required"`
	Category    string  `json:"category" binding:"required"` // regular|reference|journal|magazine
	TotalCopies int     `json:"total_copies" binding:"required"`
}

type AdjustCopiesRequest struct {
	TotalCopies int `json:"total_copies"`
}

func toResponse(b Book) BookResponse {
	return BookResponse{
		BookID:          b.BookID,
		ISBN:            b.ISBN,
		Title:           b.Title,
		Author:          b.Author,
		Category:        b.Category,
		TotalCopies:     b.TotalCopies,
		AvailableCopies: b.AvailableCopies,
		CreatedAt:       b.CreatedAt,
	}
}
