package queryir

import "strings"

// FieldOf returns the field a predicate targets, or "" when the predicate
// is structural (And, Group, Raw) and names no single field.
func FieldOf(p Predicate) string {
	switch pred := p.(type) {
	case Equals:
		return pred.Field
	case *Equals:
		return pred.Field
	case Compare:
		return pred.Field
	case *Compare:
		return pred.Field
	case In:
		return pred.Field
	case *In:
		return pred.Field
	case IsNull:
		return pred.Field
	case *IsNull:
		return pred.Field
	default:
		return ""
	}
}

// ReferencedFields returns the distinct fields named by the top-level
// conditions, in first-seen order. Unnamed conditions are skipped.
func ReferencedFields(conds []Condition) []string {
	seen := make(map[string]bool, len(conds))
	fields := make([]string, 0, len(conds))
	for _, c := range conds {
		field := FieldOf(c.Pred)
		if field == "" || seen[field] {
			continue
		}
		seen[field] = true
		fields = append(fields, field)
	}
	return fields
}

// Clone returns a deep copy of s. Mutating the copy never affects s.
func Clone(s Select) Select {
	return Select{
		From:    s.From,
		Fields:  cloneStrings(s.Fields),
		Joins:   cloneJoins(s.Joins),
		Where:   CloneConditions(s.Where),
		GroupBy: cloneStrings(s.GroupBy),
		Having:  CloneConditions(s.Having),
		OrderBy: cloneOrders(s.OrderBy),
		Limit:   s.Limit,
	}
}

// BaseScan derives an unfiltered scan of the same table from s.
// Filters, joins, grouping and having clauses are dropped together with the
// parameters they carry. Projection, ordering and limit are kept, minus any
// field qualified with a joined table.
func BaseScan(s Select) Select {
	scan := Clone(s)
	scan.Joins = nil
	scan.Where = nil
	scan.GroupBy = nil
	scan.Having = nil
	scan.Fields = LocalFields(s.From, scan.Fields)

	var orders []Order
	for _, o := range scan.OrderBy {
		if isLocal(s.From, o.Field) {
			orders = append(orders, o)
		}
	}
	scan.OrderBy = orders
	return scan
}

// LocalFields returns the fields that resolve against from alone:
// unqualified names and names qualified with from. It returns nil when
// none are left.
func LocalFields(from string, fields []string) []string {
	var local []string
	for _, f := range fields {
		if isLocal(from, f) {
			local = append(local, f)
		}
	}
	return local
}

func isLocal(from, field string) bool {
	qualifier, _, ok := strings.Cut(field, ".")
	return !ok || qualifier == from
}

// CloneConditions deep-copies a condition list.
func CloneConditions(conds []Condition) []Condition {
	if conds == nil {
		return nil
	}
	out := make([]Condition, len(conds))
	for i, c := range conds {
		out[i] = Condition{Pred: clonePredicate(c.Pred), Or: c.Or}
	}
	return out
}

func clonePredicate(p Predicate) Predicate {
	switch pred := p.(type) {
	case *Equals:
		cp := *pred
		return cp
	case *Compare:
		cp := *pred
		return cp
	case In:
		return In{Field: pred.Field, Values: cloneAny(pred.Values)}
	case *In:
		return In{Field: pred.Field, Values: cloneAny(pred.Values)}
	case *IsNull:
		cp := *pred
		return cp
	case And:
		return cloneAnd(pred)
	case *And:
		return cloneAnd(*pred)
	case Group:
		return Group{Conditions: CloneConditions(pred.Conditions)}
	case *Group:
		return Group{Conditions: CloneConditions(pred.Conditions)}
	case Raw:
		return Raw{SQL: pred.SQL, Args: cloneAny(pred.Args)}
	case *Raw:
		return Raw{SQL: pred.SQL, Args: cloneAny(pred.Args)}
	default:
		// Equals, Compare and IsNull values hold no slices.
		return p
	}
}

func cloneAnd(and And) And {
	if and.Predicates == nil {
		return And{}
	}
	preds := make([]Predicate, len(and.Predicates))
	for i, p := range and.Predicates {
		preds[i] = clonePredicate(p)
	}
	return And{Predicates: preds}
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}

func cloneAny(s []any) []any {
	if s == nil {
		return nil
	}
	return append([]any(nil), s...)
}

func cloneJoins(s []Join) []Join {
	if s == nil {
		return nil
	}
	return append([]Join(nil), s...)
}

func cloneOrders(s []Order) []Order {
	if s == nil {
		return nil
	}
	return append([]Order(nil), s...)
}
