package fines

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusOverdue Status = "overdue"
	StatusPaid    Status = "paid"
	StatusWaived  Status = "waived"
)

// Unsettled: 支払い・免除がまだ（金額の再計算を受け付ける）
func (s Status) Unsettled() bool { return s == StatusPending || s == StatusOverdue }

type Fine struct {
	FineID         string
	IssueID        string
	UserID         string
	BookID         string
	FineAmount     decimal.Decimal
	DaysOverdue    int
	Status         Status
	CalculatedDate time.Time
	PaidDate       *time.Time
	WaivedDate     *time.Time
	PaymentMethod  *string
	ReminderCount  int
	LastRemindedAt *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Outstanding: 未確定かつ金額が残っているもの。期限内の遡及返却で 0 円に戻った行は含まない
func (f Fine) Outstanding() bool { return f.Status.Unsettled() && f.FineAmount.IsPositive() }

type TxType string

const (
	TxPayment TxType = "payment"
	TxWaiver  TxType = "waiver"
)

// Transaction は支払い・免除の記録（追記のみ）
type Transaction struct {
	TransactionID string
	FineID        string
	Type          TxType
	Amount        decimal.Decimal
	PaymentMethod *string
	Notes         *string
	Reference     string
	ProcessedBy   string
	CreatedAt     time.Time
}

type Filter struct {
	UserID *string
	BookID *string
	Status *Status
}

type Stats struct {
	OutstandingTotal   decimal.Decimal
	OutstandingCount   int64
	CollectedThisMonth decimal.Decimal
	WaivedTotal        decimal.Decimal
	AverageFine        decimal.Decimal
	StudentsWithFines  int64
}

var PaymentMethods = map[string]struct{}{
	"cash":          {},
	"card":          {},
	"bank_transfer": {},
	"other":         {},
}
