package catalog

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"

	"circulation-backend/internal/platform/page"
)

// 背ラベル用 CSV。ラベルプリンタのソフトが CP932 しか読めないので encoding で切り替える
const (
	LabelEncodingUTF8 = "utf8"
	LabelEncodingSJIS = "sjis"
)

// LabelRows: 1冊（所蔵数ぶん）1行。列は book_id, title, author, category, copy_no
func LabelRows(books []Book) [][]string {
	rows := make([][]string, 0, len(books))
	for _, b := range books {
		for n := 1; n <= b.TotalCopies; n++ {
			rows = append(rows, []string{b.BookID, b.Title, b.Author, b.Category, strconv.Itoa(n)})
		}
	}
	return rows
}

func WriteLabelsCSV(w io.Writer, rows [][]string, encoding string) error {
	var out io.Writer = w
	var closer io.Closer
	if encoding == LabelEncodingSJIS {
		tw := transform.NewWriter(w, japanese.ShiftJIS.NewEncoder()) // Windowsの「ANSI（CP932）」相当
		out, closer = tw, tw
	}
	cw := csv.NewWriter(out)
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	if closer != nil {
		return closer.Close()
	}
	return nil
}

// Labels: フィルタに合う本をすべて（ページングせずに）集める
func (s *Service) Labels(ctx context.Context, f Filter) ([][]string, error) {
	var all []Book
	p := page.Page{Limit: page.MaxLimit, Order: "asc"}
	for {
		books, total, err := s.store.List(ctx, s.db, f, p)
		if err != nil {
			return nil, wrap(err, "failed to list books")
		}
		all = append(all, books...)
		next := p.Next(total)
		if next == nil || len(books) == 0 {
			break
		}
		p.Offset = *next
	}
	return LabelRows(all), nil
}
