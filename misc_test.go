package gostore

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newGORMMySQLMock() (string, *gorm.DB, sqlmock.Sqlmock, error) {
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		return "", nil, nil, err
	}

	dialector := mysql.New(mysql.Config{
		Conn:                      mockDB,
		SkipInitializeWithVersion: true,
	})

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return "", nil, nil, err
	}

	return "mysql", db.Debug(), mock, nil
}

func newGORMPostgresMock() (string, *gorm.DB, sqlmock.Sqlmock, error) {
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		return "", nil, nil, err
	}

	dialector := postgres.New(postgres.Config{
		Conn: mockDB,
	})

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return "", nil, nil, err
	}

	return "postgres", db.Debug(), mock, nil
}

type gormMock struct {
	db   *gorm.DB
	mock sqlmock.Sqlmock
}

// newGORMMocks opens a mocked connection per supported dialect, keyed by
// dialect name.
func newGORMMocks(t *testing.T) map[string]gormMock {
	t.Helper()

	ret := make(map[string]gormMock)
	for _, open := range []func() (string, *gorm.DB, sqlmock.Sqlmock, error){newGORMMySQLMock, newGORMPostgresMock} {
		name, db, mock, err := open()
		if err != nil {
			t.Fatalf("cannot open %s mock: %v", name, err)
		}

		ret[name] = gormMock{db: db, mock: mock}
	}

	return ret
}

// placeholder matches both "?" and "$n" bind variables.
const placeholder = `(?:\?|\$\d+)`

// quoted matches an identifier in any quoting style.
func quoted(ident string) string {
	return "[`\"]?" + ident + "[`\"]?"
}

type user struct {
	ID   int64
	Name string
}

var _userID = OrderedKey("id", func(u user) int64 { return u.ID })

// countingSource records the I/O calls made through it and every source
// derived from it.
type countingSource struct {
	Source[user, int64]

	root     *countingSource
	boundErr error
	finds    atomic.Int64
	bounds   atomic.Int64
}

func (s *countingSource) top() *countingSource {
	if s.root != nil {
		return s.root
	}

	return s
}

func (s *countingSource) wrap(src Source[user, int64]) Source[user, int64] {
	return &countingSource{Source: src, root: s.top()}
}

func (s *countingSource) Where(key Key[user, int64], op Operator, value int64) Source[user, int64] {
	return s.wrap(s.Source.Where(key, op, value))
}

func (s *countingSource) OrderBy(key Key[user, int64], direction Direction) Source[user, int64] {
	return s.wrap(s.Source.OrderBy(key, direction))
}

func (s *countingSource) Limit(n int) Source[user, int64] {
	return s.wrap(s.Source.Limit(n))
}

func (s *countingSource) Find(ctx context.Context) ([]user, error) {
	s.top().finds.Add(1)
	return s.Source.Find(ctx)
}

func (s *countingSource) Min(ctx context.Context, key Key[user, int64]) (int64, error) {
	top := s.top()
	top.bounds.Add(1)

	if top.boundErr != nil {
		return 0, top.boundErr
	}

	return s.Source.Min(ctx, key)
}

func (s *countingSource) Max(ctx context.Context, key Key[user, int64]) (int64, error) {
	top := s.top()
	top.bounds.Add(1)

	if top.boundErr != nil {
		return 0, top.boundErr
	}

	return s.Source.Max(ctx, key)
}
