package dbassert

import (
	"fmt"
	"testing"

	"github.com/roach88/dbassert/internal/store"
	"github.com/roach88/dbassert/internal/testutil"
)

// mockT records failures instead of failing the enclosing test.
type mockT struct {
	failed  bool
	stopped bool
	msg     string
}

func (m *mockT) Errorf(format string, args ...any) {
	m.msg = fmt.Sprintf(format, args...)
	m.failed = true
}

func (m *mockT) FailNow() {
	m.stopped = true
}

const (
	usersSchema  = "CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT, email TEXT, status TEXT)"
	ordersSchema = "CREATE TABLE orders (id INTEGER PRIMARY KEY, user_id INTEGER, status TEXT, total INTEGER)"
)

// ordersStore holds 7 orders: 5 paid, 2 open.
func ordersStore(t *testing.T) *store.Store {
	t.Helper()
	return testutil.NewStore(t,
		usersSchema,
		ordersSchema,
		`INSERT INTO users (id, name, email, status) VALUES
			(1, 'ada', 'ada@example.com', 'active'),
			(2, 'grace', 'grace@example.com', 'active'),
			(3, 'linus', 'linus@example.com', 'banned'),
			(4, 'Zoë <b>', 'zoe@example.com', 'active')`,
		`INSERT INTO orders (id, user_id, status, total) VALUES
			(1, 1, 'paid', 10),
			(2, 1, 'paid', 20),
			(3, 2, 'open', 5),
			(4, 2, 'paid', 30),
			(5, 3, 'paid', 40),
			(6, 3, 'open', 15),
			(7, 4, 'paid', 50)`,
	)
}

// emptyStore holds the schema and no rows.
func emptyStore(t *testing.T) *store.Store {
	t.Helper()
	return testutil.NewStore(t, usersSchema, ordersSchema)
}

type order struct{}

func (order) TableName() string { return "orders" }
