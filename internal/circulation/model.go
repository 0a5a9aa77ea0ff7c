package circulation

import "time"

type IssueStatus string

const (
	StatusIssued   IssueStatus = "issued"
	StatusOverdue  IssueStatus = "overdue"
	StatusReturned IssueStatus = "returned"
)

// Active: 貸出中（延滞含む）
func (s IssueStatus) Active() bool { return s == StatusIssued || s == StatusOverdue }

// Issue は1冊の貸出。returned になった後は変更しない
type Issue struct {
	IssueID    string
	BookID     string
	UserID     string
	IssueDate  time.Time
	DueDate    time.Time
	ReturnDate *time.Time
	Status     IssueStatus
	IssuedBy   string
	Category   string // books.category（JOIN した時だけ入る）
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type IssueFilter struct {
	UserID *string
	BookID *string
	Status *IssueStatus
}

type RequestStatus string

const (
	RequestPending   RequestStatus = "pending"
	RequestApproved  RequestStatus = "approved"
	RequestRejected  RequestStatus = "rejected"
	RequestFulfilled RequestStatus = "fulfilled"
	RequestCancelled RequestStatus = "cancelled"
)

// Active: 同じ本への二重申請を防ぐ対象
func (s RequestStatus) Active() bool { return s == RequestPending || s == RequestApproved }

// 許される遷移。approved → fulfilled は貸出処理の中でのみ行う
var requestTransitions = map[RequestStatus][]RequestStatus{
	RequestPending:  {RequestApproved, RequestRejected, RequestCancelled},
	RequestApproved: {RequestFulfilled},
}

func canTransition(from, to RequestStatus) bool {
	for _, s := range requestTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

type Priority string

const (
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

type BookRequest struct {
	RequestID         string
	BookID            string
	UserID            string
	Status            RequestStatus
	RequestedDuration int // 希望貸出日数（0 は既定値）
	Priority          Priority
	Notes             *string
	AdminNotes        *string
	ProcessedBy       *string
	IssueID           *string // fulfilled の時の貸出
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type RequestFilter struct {
	UserID *string
	BookID *string
	Status *RequestStatus
}
