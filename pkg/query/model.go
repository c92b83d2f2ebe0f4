package query

// Tabler is implemented by model types that know their table.
// TableName must not depend on the receiver's contents.
type Tabler interface {
	TableName() string
}

// Model is a typed query over the table of T. It is the higher-level
// variant of Builder; Base exposes the builder underneath.
type Model[T Tabler] struct {
	base *Builder
}

// For starts a model query against T's table.
func For[T Tabler](db Queryer) *Model[T] {
	var zero T
	return &Model[T]{base: Table(db, zero.TableName())}
}

// Base returns the underlying base query.
func (m *Model[T]) Base() *Builder {
	return m.base
}

// Where adds an equality filter.
func (m *Model[T]) Where(field string, value any) *Model[T] {
	m.base.Where(field, value)
	return m
}

// WhereOp adds a comparison filter.
func (m *Model[T]) WhereOp(field, op string, value any) *Model[T] {
	m.base.WhereOp(field, op, value)
	return m
}

// Select replaces the projection.
func (m *Model[T]) Select(fields ...string) *Model[T] {
	m.base.Select(fields...)
	return m
}
