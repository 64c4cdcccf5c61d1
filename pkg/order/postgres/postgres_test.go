package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"ordersvc/pkg/order"
)

func newMock(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(db), mock
}

func TestAdd(t *testing.T) {
	repo, mock := newMock(t)
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO orders (id,user_id,product_id,mode) VALUES ($1,$2,$3,$4) RETURNING created_at")).
		WithArgs(sqlmock.AnyArg(), int64(1), int64(2), "approved").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(created))

	got, err := repo.Add(context.Background(), order.Order{UserID: 1, ProductID: 2, Mode: order.ModeApproved})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if got.ID == "" {
		t.Fatal("expected generated id")
	}
	if !got.CreatedAt.Equal(created) {
		t.Fatalf("expected created_at %v, got %v", created, got.CreatedAt)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestAddStorageFailure(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectQuery("INSERT INTO orders").WillReturnError(errors.New("connection reset"))

	_, err := repo.Add(context.Background(), order.Order{UserID: 1, ProductID: 2, Mode: order.ModeDraft})
	if !errors.Is(err, order.ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
}

func TestGet(t *testing.T) {
	repo, mock := newMock(t)
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery("SELECT id,user_id,product_id,mode,created_at FROM orders WHERE id").
		WithArgs("o-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "product_id", "mode", "created_at"}).
			AddRow("o-1", int64(1), int64(2), "draft", created))
	mock.ExpectQuery("SELECT id,user_id,product_id,mode,created_at FROM orders WHERE id").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "product_id", "mode", "created_at"}))

	got, err := repo.Get(context.Background(), "o-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Mode != order.ModeDraft || got.UserID != 1 {
		t.Fatalf("unexpected order: %+v", got)
	}

	if _, err := repo.Get(context.Background(), "missing"); !errors.Is(err, order.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestList(t *testing.T) {
	repo, mock := newMock(t)
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery("SELECT id,user_id,product_id,mode,created_at FROM orders ORDER BY").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "product_id", "mode", "created_at"}).
			AddRow("o-1", int64(1), int64(2), "draft", created).
			AddRow("o-2", int64(3), int64(4), "approved", created.Add(time.Second)))

	list, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[1].ID != "o-2" {
		t.Fatalf("unexpected list: %+v", list)
	}
}

func TestEnsureSchema(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS orders").WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
