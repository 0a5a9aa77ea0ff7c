package fines

import (
	"time"

	"circulation-backend/internal/platform/clock"
)

type FineResponse struct {
	FineID         string     `json:"fine_id"`
	IssueID        string     `json:"issue_id"`
	UserID         string     `json:"user_id"`
	BookID         string     `json:"book_id"`
	FineAmount     string     `json:"fine_amount"`
	DaysOverdue    int        `json:"days_overdue"`
	Status         Status     `json:"status"`
	CalculatedDate string     `json:"calculated_date"`
	PaidDate       *time.Time `json:"paid_date,omitempty"`
	WaivedDate     *time.Time `json:"waived_date,omitempty"`
	PaymentMethod  *string    `json:"payment_method,omitempty"`
	ReminderCount  int        `json:"reminder_count"`
}

type TransactionResponse struct {
	TransactionID string    `json:"transaction_id"`
	Type          TxType    `json:"type"`
	Amount        string    `json:"amount"`
	PaymentMethod *string   `json:"payment_method,omitempty"`
	Notes         *string   `json:"notes,omitempty"`
	Reference     string    `json:"reference"`
	ProcessedBy   string    `json:"processed_by"`
	CreatedAt     time.Time `json:"created_at"`
}

type FineDetailResponse struct {
	FineResponse
	Transactions []TransactionResponse `json:"transactions"`
}

type ListFinesResponse struct {
	Items      []FineResponse `json:"items"`
	Total      int64          `json:"total"`
	NextOffset *int           `json:"next_offset,omitempty"`
}

type StatsResponse struct {
	OutstandingTotal   string `json:"outstanding_total"`
	OutstandingCount   int64  `json:"outstanding_count"`
	CollectedThisMonth string `json:"collected_this_month"`
	WaivedTotal        string `json:"waived_total"`
	AverageFine        string `json:"average_fine"`
	StudentsWithFines  int64  `json:"students_with_fines"`
	Currency           string `json:"currency"`
}

type PayRequest struct {
	Method string  `json:"method"` // cash|card|bank_transfer|other（未指定は cash）
	Notes  *string `json:"notes,omitempty"`
}

type WaiveRequest struct {
	Reason string `json:"reason" binding:"required"`
}

func ToResponse(f Fine) FineResponse {
	return FineResponse{
		FineID:         f.FineID,
		IssueID:        f.IssueID,
		UserID:         f.UserID,
		BookID:         f.BookID,
		FineAmount:     f.FineAmount.StringFixed(2),
		DaysOverdue:    f.DaysOverdue,
		Status:         f.Status,
		CalculatedDate: f.CalculatedDate.Format(clock.DateLayout),
		PaidDate:       f.PaidDate,
		WaivedDate:     f.WaivedDate,
		PaymentMethod:  f.PaymentMethod,
		ReminderCount:  f.ReminderCount,
	}
}

func toTxResponse(t Transaction) TransactionResponse {
	return TransactionResponse{
		TransactionID: t.TransactionID,
		Type:          t.Type,
		Amount:        t.Amount.StringFixed(2),
		PaymentMethod: t.PaymentMethod,
		Notes:         t.Notes,
		Reference:     t.Reference,
		ProcessedBy:   t.ProcessedBy,
		CreatedAt:     t.CreatedAt,
	}
}
