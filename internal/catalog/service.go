package catalog

import (
	"context"
	"strings"

	"circulation-backend/internal/platform/apierr"
	"circulation-backend/internal/platform/clock"
	"circulation-backend/internal/platform/db"
	"circulation-backend/internal/platform/logger"
	"circulation-backend/internal/platform/page"
	"circulation-backend/internal/rates"
)

type Service struct {
	db    db.DBTX
	tx    db.TxRunner
	store Store
	clock clock.Clock
	id    clock.IDGen
}

func NewService(q db.DBTX, tx db.TxRunner, store Store) *Service {
	return &Service{db: q, tx: tx, store: store, clock: clock.Real{}, id: clock.ULIDGen{}}
}

func (s *Service) ListBooks(ctx context.Context, f Filter, p page.Page) (ListBooksResponse, error) {
	p = p.Normalize()
	books, total, err := s.store.List(ctx, s.db, f, p)
	if err != nil {
		logger.Log.WithError(err).Error("list books failed")
		return ListBooksResponse{}, apierr.ErrInternal("failed to list books")
	}
	items := make([]BookResponse, 0, len(books))
	for _, b := range books {
		items = append(items, toResponse(b))
	}
	return ListBooksResponse{Items: items, Total: total, NextOffset: p.Next(total)}, nil
}

func (s *Service) GetBook(ctx context.Context, bookID string) (BookResponse, error) {
	b, err := s.store.Get(ctx, s.db, bookID)
	if err != nil {
		return BookResponse{}, wrap(err, "failed to get book")
	}
	return toResponse(*b), nil
}

func (s *Service) CreateBook(ctx context.Context, in CreateBookRequest) (BookResponse, error) {
	title, author := strings.TrimSpace(in.Title), strings.TrimSpace(in.Author)
	if title == "" || author == "" {
		return BookResponse{}, apierr.ErrInvalid("title and author are required")
	}
	cat, ok := rates.ParseCategory(in.Category)
	if !ok {
		return BookResponse{}, apierr.ErrInvalid("unknown category")
	}
	if in.TotalCopies <= 0 {
		return BookResponse{}, apierr.ErrInvalid("total_copies must be > 0")
	}

	now := s.clock.Now()
	b := &Book{
		BookID:          s.id.NewULID(now),
		ISBN:            in.ISBN,
		Title:           title,
		Author:          author,
		Category:        string(cat),
		TotalCopies:     in.TotalCopies,
		AvailableCopies: in.TotalCopies,
		CreatedAt:       now,
	}
	if err := s.store.Create(ctx, s.db, b); err != nil {
		if db.IsDuplicateKey(err) {
			return BookResponse{}, apierr.ErrConflict("isbn already registered")
		}
		logger.Log.WithError(err).Error("create book failed")
		return BookResponse{}, apierr.ErrInternal("failed to create book")
	}
	logger.Log.WithField("book_id", b.BookID).WithField("copies", b.TotalCopies).Info("book created")
	return toResponse(*b), nil
}

// AdjustCopies は蔵書数を変える。貸出中の冊数より少なくはできない
func (s *Service) AdjustCopies(ctx context.Context, bookID string, total int) (BookResponse, error) {
	if total < 0 {
		return BookResponse{}, apierr.ErrInvalid("total_copies must be >= 0")
	}

	var out *Book
	err := s.tx.RunInTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		av, err := s.store.LockAvailability(ctx, tx, bookID)
		if err != nil {
			return err
		}
		onLoan := av.Total - av.Available
		if total < onLoan {
			return apierr.ErrConflict("total_copies cannot be less than copies on loan")
		}
		if err := s.store.SetTotal(ctx, tx, bookID, total, total-onLoan); err != nil {
			return err
		}
		out, err = s.store.Get(ctx, tx, bookID)
		return err
	})
	if err != nil {
		return BookResponse{}, wrap(err, "failed to adjust copies")
	}
	return toResponse(*out), nil
}

// wrap: APIError はそのまま、それ以外は INTERNAL に落とす
func wrap(err error, msg string) error {
	if apierr.CodeOf(err) != apierr.CodeInternal {
		return err
	}
	logger.Log.WithError(err).Error(msg)
	return apierr.ErrInternal(msg)
}
