package circulation

import (
	"time"

	"circulation-backend/internal/finecalc"
	"circulation-backend/internal/fines"
	"circulation-backend/internal/platform/clock"
)

// IssueBookRequest: 貸出（管理者がカウンタで行う）
type IssueBookRequest struct {
	BookID   string `json:"book_id" binding:"required"`
	UserID   string `json:"user_id" binding:"required"`
	LoanDays *int   `json:"loan_days,omitempty"` // 未指定: 承認済み申請の希望日数 → 設定値
}

// ReturnBookRequest: return_date 未指定は今日
type ReturnBookRequest struct {
	ReturnDate *string `json:"return_date,omitempty"` // YYYY-MM-DD
}

type IssueResponse struct {
	IssueID    string      `json:"issue_id"`
	BookID     string      `json:"book_id"`
	UserID     string      `json:"user_id"`
	Category   string      `json:"category,omitempty"`
	IssueDate  string      `json:"issue_date"`
	DueDate    string      `json:"due_date"`
	ReturnDate *string     `json:"return_date,omitempty"`
	Status     IssueStatus `json:"status"`
	IssuedBy   string      `json:"issued_by"`
}

type ListIssuesResponse struct {
	Items      []IssueResponse `json:"items"`
	Total      int64           `json:"total"`
	NextOffset *int            `json:"next_offset,omitempty"`
}

// ReturnResponse: 返却結果。罰金が無ければ fine は省略
type ReturnResponse struct {
	Issue      IssueResponse       `json:"issue"`
	Assessment AssessmentResponse  `json:"assessment"`
	Fine       *fines.FineResponse `json:"fine,omitempty"`
}

type AssessmentResponse struct {
	IssueID        string          `json:"issue_id"`
	DueDate        string          `json:"due_date"`
	EffectiveDate  string          `json:"effective_date"`
	OverdueDaysRaw int             `json:"overdue_days_raw"`
	GracePeriod    int             `json:"grace_period_days"`
	OverdueDays    int             `json:"overdue_days"`
	DailyRate      string          `json:"daily_rate"`
	MaximumFine    string          `json:"maximum_fine"`
	FineAmount     string          `json:"fine_amount"`
	Capped         bool            `json:"capped"`
	Status         finecalc.Status `json:"status"`
}

type SweepResult struct {
	Scanned       int       `json:"scanned"`
	Transitioned  int       `json:"transitioned"`
	FinesRecorded int       `json:"fines_recorded"`
	Failed        int       `json:"failed"`
	RanAt         time.Time `json:"ran_at"`
}

type CreateRequestRequest struct {
	BookID            string  `json:"book_id" binding:"required"`
	RequestedDuration int     `json:"requested_duration,omitempty"`
	Priority          string  `json:"priority,omitempty"` // normal|high
	Notes             *string `json:"notes,omitempty"`
}

type ProcessRequestRequest struct {
	AdminNotes *string `json:"admin_notes,omitempty"`
}

type RequestResponse struct {
	RequestID         string        `json:"request_id"`
	BookID            string        `json:"book_id"`
	UserID            string        `json:"user_id"`
	Status            RequestStatus `json:"status"`
	RequestedDuration int           `json:"requested_duration"`
	Priority          Priority      `json:"priority"`
	Notes             *string       `json:"notes,omitempty"`
	AdminNotes        *string       `json:"admin_notes,omitempty"`
	ProcessedBy       *string       `json:"processed_by,omitempty"`
	IssueID           *string       `json:"issue_id,omitempty"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

type ListRequestsResponse struct {
	Items      []RequestResponse `json:"items"`
	Total      int64             `json:"total"`
	NextOffset *int              `json:"next_offset,omitempty"`
}

func toIssueResponse(is Issue) IssueResponse {
	res := IssueResponse{
		IssueID:   is.IssueID,
		BookID:    is.BookID,
		UserID:    is.UserID,
		Category:  is.Category,
		IssueDate: is.IssueDate.Format(clock.DateLayout),
		DueDate:   is.DueDate.Format(clock.DateLayout),
		Status:    is.Status,
		IssuedBy:  is.IssuedBy,
	}
	if is.ReturnDate != nil {
		d := is.ReturnDate.Format(clock.DateLayout)
		res.ReturnDate = &d
	}
	return res
}

func toAssessmentResponse(a finecalc.Assessment) AssessmentResponse {
	return AssessmentResponse{
		IssueID:        a.IssueID,
		DueDate:        a.DueDate.Format(clock.DateLayout),
		EffectiveDate:  a.EffectiveDate.Format(clock.DateLayout),
		OverdueDaysRaw: a.OverdueDaysRaw,
		GracePeriod:    a.GracePeriod,
		OverdueDays:    a.OverdueDays,
		DailyRate:      a.DailyRate.StringFixed(2),
		MaximumFine:    a.MaximumFine.StringFixed(2),
		FineAmount:     a.FineAmount.StringFixed(2),
		Capped:         a.Capped,
		Status:         a.Status,
	}
}

func toRequestResponse(r BookRequest) RequestResponse {
	return RequestResponse{
		RequestID:         r.RequestID,
		BookID:            r.BookID,
		UserID:            r.UserID,
		Status:            r.Status,
		RequestedDuration: r.RequestedDuration,
		Priority:          r.Priority,
		Notes:             r.Notes,
		AdminNotes:        r.AdminNotes,
		ProcessedBy:       r.ProcessedBy,
		IssueID:           r.IssueID,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}
