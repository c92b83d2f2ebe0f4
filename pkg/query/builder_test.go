package query

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/dbassert/internal/queryir"
	"github.com/roach88/dbassert/internal/store"
	"github.com/roach88/dbassert/internal/testutil"
)

func seeded(t *testing.T) *store.Store {
	t.Helper()
	return testutil.NewStore(t,
		"CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT, team_id INTEGER, deleted_at TEXT)",
		"CREATE TABLE teams (id INTEGER PRIMARY KEY, name TEXT)",
		`INSERT INTO teams (id, name) VALUES (1, 'core'), (2, 'infra')`,
		`INSERT INTO users (id, name, team_id, deleted_at) VALUES
			(1, 'ada', 1, NULL),
			(2, 'grace', 1, NULL),
			(3, 'linus', 2, '2024-01-01'),
			(4, 'ken', 2, NULL),
			(5, 'rob', NULL, NULL)`,
	)
}

func TestBuilder_ToSQL(t *testing.T) {
	testCases := []struct {
		name       string
		build      func() *Builder
		wantSQL    string
		wantParams []any
	}{
		{
			name:       "bare table",
			build:      func() *Builder { return Table(nil, "users") },
			wantSQL:    `select * from "users"`,
			wantParams: nil,
		},
		{
			name: "where and or",
			build: func() *Builder {
				return Table(nil, "users").Where("name", "ada").OrWhere("id", ">", 3)
			},
			wantSQL:    `select * from "users" where "name" = ? or "id" > ?`,
			wantParams: []any{"ada", 3},
		},
		{
			name: "group",
			build: func() *Builder {
				return Table(nil, "users").
					WhereNull("deleted_at").
					WhereGroup(func(g *Builder) { g.Where("team_id", 1).OrWhere("team_id", "=", 2) })
			},
			wantSQL:    `select * from "users" where "deleted_at" is null and ("team_id" = ? or "team_id" = ?)`,
			wantParams: []any{1, 2},
		},
		{
			name: "full clause set",
			build: func() *Builder {
				return Table(nil, "users").
					Select("teams.name").
					LeftJoin("teams", "users.team_id", "=", "teams.id").
					WhereIn("users.id", 1, 2).
					GroupBy("teams.name").
					HavingRaw("count(*) > ?", 1).
					OrderBy("teams.name", "desc").
					Limit(2)
			},
			wantSQL: `select "teams"."name" from "users" left join "teams" on "users"."team_id" = "teams"."id"` +
				` where "users"."id" in (?, ?) group by "teams"."name" having count(*) > ? order by "teams"."name" desc limit 2`,
			wantParams: []any{1, 2, 1},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			sql, params, err := tc.build().ToSQL()
			require.NoError(t, err)
			assert.Equal(t, tc.wantSQL, sql)
			assert.Equal(t, tc.wantParams, params)
		})
	}
}

func TestBuilder_ToRawSQL(t *testing.T) {
	raw, err := Table(nil, "users").Where("name", "o'neil").WhereOp("id", "<=", 4).ToRawSQL()
	require.NoError(t, err)
	assert.Equal(t, `select * from "users" where "name" = 'o''neil' and "id" <= 4`, raw)
}

func TestBuilder_InvalidQuery(t *testing.T) {
	_, err := Table(nil, "users; drop table users").Exists(context.Background())
	require.Error(t, err)

	var verr *queryir.ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.Contains(t, err.Error(), "compile exists")
}

func TestBuilder_Execution(t *testing.T) {
	st := seeded(t)
	ctx := context.Background()

	t.Run("exists", func(t *testing.T) {
		ok, err := Table(st, "users").Where("name", "ada").Exists(ctx)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = Table(st, "users").Where("name", "nobody").Exists(ctx)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("doesnt exist", func(t *testing.T) {
		missing, err := Table(st, "users").Where("name", "nobody").DoesntExist(ctx)
		require.NoError(t, err)
		assert.True(t, missing)
	})

	t.Run("count", func(t *testing.T) {
		n, err := Table(st, "users").WhereNull("deleted_at").Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(4), n)
	})

	t.Run("count ignores order and projection", func(t *testing.T) {
		n, err := Table(st, "users").Select("name").OrderBy("name", "asc").Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(5), n)
	})

	t.Run("grouped count counts groups", func(t *testing.T) {
		n, err := Table(st, "users").WhereNotNull("team_id").GroupBy("team_id").Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
	})

	t.Run("limited count respects limit", func(t *testing.T) {
		n, err := Table(st, "users").Limit(2).Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
	})

	t.Run("join", func(t *testing.T) {
		rows, err := Table(st, "users").
			Select("users.name", "teams.name").
			Join("teams", "users.team_id", "=", "teams.id").
			Where("teams.name", "infra").
			OrderBy("users.id", "asc").
			Get(ctx)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, []any{"linus", "infra"}, rows[0].Values)
		assert.Equal(t, []any{"ken", "infra"}, rows[1].Values)
	})

	t.Run("get", func(t *testing.T) {
		rows, err := Table(st, "users").Select("id", "name").WhereIn("id", 1, 2).Get(ctx)
		require.NoError(t, err)

		want := []Row{
			{Columns: []string{"id", "name"}, Values: []any{int64(1), "ada"}},
			{Columns: []string{"id", "name"}, Values: []any{int64(2), "grace"}},
		}
		if diff := cmp.Diff(want, rows); diff != "" {
			t.Errorf("rows mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("get with no rows is empty not nil", func(t *testing.T) {
		rows, err := Table(st, "users").Where("id", 99).Get(ctx)
		require.NoError(t, err)
		assert.NotNil(t, rows)
		assert.Empty(t, rows)
	})
}

func TestLazyRows(t *testing.T) {
	st := seeded(t)
	ctx := context.Background()

	t.Run("take bounds the fetch", func(t *testing.T) {
		lazy := Table(st, "users").Select("id").Lazy()

		total, err := lazy.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(5), total)

		rows, err := lazy.Take(ctx, 2)
		require.NoError(t, err)
		assert.Len(t, rows, 2)
	})

	t.Run("take keeps a tighter existing limit", func(t *testing.T) {
		rows, err := Table(st, "users").Limit(1).Lazy().Take(ctx, 3)
		require.NoError(t, err)
		assert.Len(t, rows, 1)
	})

	t.Run("take zero never queries", func(t *testing.T) {
		rows, err := Table(nil, "users").Lazy().Take(ctx, 0)
		require.NoError(t, err)
		assert.Equal(t, []Row{}, rows)
	})

	t.Run("detached from later changes", func(t *testing.T) {
		b := Table(st, "users")
		lazy := b.Lazy()
		b.Where("name", "ada")

		total, err := lazy.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(5), total)
	})
}

func TestBuilder_CloneIndependence(t *testing.T) {
	b := Table(nil, "users").Where("name", "ada").WhereIn("id", 1, 2).Select("name")
	c := b.Clone()

	c.Where("id", 3).Select("id").GroupBy("id")

	assert.Len(t, b.Conditions(), 2)
	assert.Equal(t, []string{"name"}, b.Columns())
	assert.Empty(t, b.Groups())
	assert.Len(t, c.Conditions(), 3)
}

func TestBuilder_BaseScan(t *testing.T) {
	b := Table(nil, "users").
		Join("teams", "users.team_id", "=", "teams.id").
		Where("name", "ada").
		GroupBy("team_id").
		HavingRaw("count(*) > ?", 1).
		OrderBy("id", "asc").
		Limit(10)

	scan := b.BaseScan()

	sql, params, err := scan.ToSQL()
	require.NoError(t, err)
	assert.Equal(t, `select * from "users" order by "id" asc limit 10`, sql)
	assert.Empty(t, params)

	bindings, err := b.Bindings()
	require.NoError(t, err)
	assert.Equal(t, []any{"ada", 1}, bindings)
	assert.Len(t, b.Joins(), 1)
	assert.Len(t, b.Havings(), 1)
	assert.Equal(t, "users", scan.TableName())
}

func TestBuilder_ConditionsAreCopies(t *testing.T) {
	b := Table(nil, "users").WhereIn("id", 1, 2)

	conds := b.Conditions()
	in := conds[0].Pred.(queryir.In)
	in.Values[0] = 99

	bindings, err := b.Bindings()
	require.NoError(t, err)
	assert.Equal(t, []any{1, 2}, bindings)
}

func TestBuilder_DriverErrorsUnmodified(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	boom := errors.New("disk I/O error")
	mock.ExpectQuery(`select count(*) as "aggregate" from "users" where "name" = ?`).
		WithArgs("ada").
		WillReturnError(boom)

	_, err = Table(db, "users").Where("name", "ada").Count(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBuilder_ExistsQueryShape(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`select exists(select "id" from "users" where "id" > ?) as "exists"`).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(int64(1)))

	ok, err := Table(db, "users").Select("id").WhereOp("id", ">", 1).OrderBy("id", "desc").Exists(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBuilder_CountQueryShape(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`select count(*) as "aggregate" from (select "team_id" from "users" group by "team_id") as "sub"`).
		WillReturnRows(sqlmock.NewRows([]string{"aggregate"}).AddRow(int64(3)))

	n, err := Table(db, "users").Select("team_id").GroupBy("team_id").Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestModel(t *testing.T) {
	st := seeded(t)

	m := For[userModel](st).Where("team_id", 1).WhereOp("id", ">", 1).Select("name")
	assert.Equal(t, "users", m.Base().TableName())

	rows, err := m.Base().Get(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)

	name, ok := rows[0].Get("name")
	assert.True(t, ok)
	assert.Equal(t, "grace", name)
}

func TestRow_MarshalJSON(t *testing.T) {
	r := Row{Columns: []string{"z", "a", "html"}, Values: []any{int64(1), nil, "<b>&</b>"}}

	b, err := r.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"z":1,"a":null,"html":"<b>&</b>"}`, string(b))

	_, ok := r.Get("missing")
	assert.False(t, ok)
}

type userModel struct{}

func (userModel) TableName() string { return "users" }
