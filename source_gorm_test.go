package gostore

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_GORMSource_PaginateKeyset(t *testing.T) {
	tests := []struct {
		name      string
		cursor    Cursor[int64]
		direction Direction
		where     string
		order     string
		rows      []int64
		min, max  int64
	}{
		{"after ascending", After[int64](2), DirectionASC, "id > ", "id ASC", []int64{3, 4}, 3, 5},
		{"before ascending", Before[int64](4), DirectionASC, "id < ", "id ASC", []int64{1, 2}, 1, 3},
		{"after descending", After[int64](4), DirectionDESC, "id < ", "id DESC", []int64{3, 2}, 1, 3},
		{"before descending", Before[int64](2), DirectionDESC, "id > ", "id DESC", []int64{5, 4}, 3, 5},
	}

	for name, m := range newGORMMocks(t) {
		for _, tt := range tests {
			t.Run(name+"/"+tt.name, func(t *testing.T) {
				key, _ := tt.cursor.Key()
				where := ` WHERE ` + tt.where + placeholder

				rows := sqlmock.NewRows([]string{"id", "name"})
				for _, id := range tt.rows {
					rows.AddRow(id, "user")
				}

				m.mock.ExpectQuery(`^SELECT \* FROM ` + quoted("users") + where + ` ORDER BY ` + tt.order + ` LIMIT 2$`).
					WithArgs(key).
					WillReturnRows(rows)
				m.mock.ExpectQuery(`^SELECT MIN\(id\) FROM ` + quoted("users") + where + `$`).
					WithArgs(key).
					WillReturnRows(sqlmock.NewRows([]string{"MIN(id)"}).AddRow(tt.min))
				m.mock.ExpectQuery(`^SELECT MAX\(id\) FROM ` + quoted("users") + where + `$`).
					WithArgs(key).
					WillReturnRows(sqlmock.NewRows([]string{"MAX(id)"}).AddRow(tt.max))

				page, err := PaginateKeyset[user, int64](
					context.Background(), NewGORMSource[user, int64](m.db), _userID, 2, tt.cursor, tt.direction,
				)
				require.NoError(t, err)

				assert.Equal(t, tt.rows, userIDs(page.Items()))
				assert.Equal(t, tt.min, page.MinKey())
				assert.Equal(t, tt.max, page.MaxKey())
				require.NoError(t, m.mock.ExpectationsWereMet())
			})
		}
	}
}

func Test_GORMSource_EmptyPageSkipsBounds(t *testing.T) {
	for name, m := range newGORMMocks(t) {
		t.Run(name, func(t *testing.T) {
			m.mock.ExpectQuery(`^SELECT \* FROM ` + quoted("users") + ` WHERE id > ` + placeholder + ` ORDER BY id ASC LIMIT 10$`).
				WithArgs(100).
				WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))

			page, err := PaginateKeyset[user, int64](
				context.Background(), NewGORMSource[user, int64](m.db), _userID, 10, After[int64](100), DirectionASC,
			)
			require.NoError(t, err)

			assert.True(t, page.IsEmpty())
			assert.Zero(t, page.MinKey())
			assert.Zero(t, page.MaxKey())
			require.NoError(t, m.mock.ExpectationsWereMet())
		})
	}
}

func Test_GORMSource_DerivedSourcesAreIndependent(t *testing.T) {
	for name, m := range newGORMMocks(t) {
		t.Run(name, func(t *testing.T) {
			base := NewGORMSource[user, int64](m.db.Where("name = ?", "bob"))
			_ = base.Where(_userID, OperatorGT, 1).OrderBy(_userID, DirectionDESC).Limit(3)

			m.mock.ExpectQuery(`^SELECT count\(\*\) FROM ` + quoted("users") + ` WHERE name = ` + placeholder + `$`).
				WithArgs("bob").
				WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

			total, err := base.Count(context.Background())
			require.NoError(t, err)
			assert.Equal(t, int64(4), total)
			require.NoError(t, m.mock.ExpectationsWereMet())
		})
	}
}

func Test_GORMSource_Paginate(t *testing.T) {
	for name, m := range newGORMMocks(t) {
		t.Run(name, func(t *testing.T) {
			m.mock.ExpectQuery(`^SELECT count\(\*\) FROM ` + quoted("users") + `$`).
				WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))
			m.mock.ExpectQuery(`^SELECT \* FROM ` + quoted("users") + ` ORDER BY id ASC LIMIT 2 OFFSET 2$`).
				WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(3, "c").AddRow(4, "d"))

			src := NewGORMSource[user, int64](m.db.Order("id ASC"))

			page, err := Paginate[user](context.Background(), src, 2, 2)
			require.NoError(t, err)

			assert.Equal(t, []int64{3, 4}, userIDs(page.Items()))
			assert.Equal(t, int64(5), page.Total())
			assert.Equal(t, 3, page.TotalPages())
			require.NoError(t, m.mock.ExpectationsWereMet())
		})
	}
}

func Test_GORMSource_Errors(t *testing.T) {
	_, db, mock, err := newGORMMySQLMock()
	require.NoError(t, err)

	ctx := context.Background()
	boom := errors.New("connection reset")

	t.Run("query failure is wrapped", func(t *testing.T) {
		mock.ExpectQuery(`^SELECT \* FROM`).WillReturnError(boom)

		_, err := NewGORMSource[user, int64](db).Find(ctx)
		require.ErrorIs(t, err, boom)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("invalid key never reaches the database", func(t *testing.T) {
		bad := OrderedKey("id) OR (1=1", _userID.Value)

		_, err := NewGORMSource[user, int64](db).Where(bad, OperatorGT, 1).Find(ctx)
		require.ErrorIs(t, err, ErrInvalidArgument)

		_, err = NewGORMSource[user, int64](db).Min(ctx, OrderedKey("", _userID.Value))
		require.ErrorIs(t, err, ErrInvalidArgument)

		_, err = NewGORMSource[user, int64](db).Where(_userID, ">=", 1).Count(ctx)
		require.ErrorIs(t, err, ErrInvalidArgument)

		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("nil db", func(t *testing.T) {
		src := NewGORMSource[user, int64](nil)

		_, err := src.Where(_userID, OperatorGT, 1).OrderBy(_userID, DirectionASC).Limit(2).Find(ctx)
		require.ErrorIs(t, err, ErrInvalidArgument)

		_, err = PaginateKeyset[user, int64](ctx, src, _userID, 10, NoCursor[int64](), DirectionASC)
		require.ErrorIs(t, err, ErrInvalidArgument)

		_, err = Paginate[user](ctx, src, 1, 10)
		require.ErrorIs(t, err, ErrInvalidArgument)
	})
}
