package clock

import (
	"crypto/rand"
	"time"

	"github.com/google/uuid"
	ulid "github.com/oklog/ulid/v2"
)

const DateLayout = "2006-01-02"

// -------------- Clock --------------

type Clock interface{ Now() time.Time }

type Real struct{}

func (Real) Now() time.Time { return time.Now().UTC() }

// Fixed はテスト用。Set で進められる
type Fixed struct{ T time.Time }

func NewFixed(t time.Time) *Fixed { return &Fixed{T: t.UTC()} }

func (f *Fixed) Now() time.Time  { return f.T }
func (f *Fixed) Set(t time.Time) { f.T = t }
func (f *Fixed) AddDays(n int)   { f.T = f.T.AddDate(0, 0, n) }

// Today: UTC の日付（時刻切り捨て）
func Today(c Clock) time.Time { return DateOf(c.Now()) }

// DateOf は時刻を UTC 0:00 に丸める。DATE 列と比較する値はすべてこれを通す
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween: to - from の日数（日付単位、負もあり）
func DaysBetween(from, to time.Time) int {
	return int(DateOf(to).Sub(DateOf(from)).Hours() / 24)
}

// -------------- ID --------------

type IDGen interface{ NewULID(t time.Time) string }

type ULIDGen struct{}

func (ULIDGen) NewULID(t time.Time) string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}

// NewReference: 支払い・免除の控え番号
func NewReference() string { return uuid.NewString() }
