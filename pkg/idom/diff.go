package idom

import (
	"fmt"
	"reflect"

	"github.com/vango-dev/idom/internal/errors"
)

// Attr is a single attribute declaration. A nil Value removes the attribute.
type Attr struct {
	Name  string
	Value any
}

// Pairs converts an alternating name, value, name, value list into attribute
// declarations. In debug mode it panics if the list has odd length or a name
// is not a string; otherwise a trailing name is dropped and non-string names
// are formatted with fmt.
func Pairs(kv ...any) []Attr {
	if len(kv)%2 != 0 && Debug() {
		panic(errors.New("E111").Wrap(ErrUsage).
			WithReason("got %d values, want an even number", len(kv)))
	}
	attrs := make([]Attr, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		name, ok := kv[i].(string)
		if !ok {
			if Debug() {
				panic(errors.New("E111").Wrap(ErrUsage).
					WithReason("name at position %d is %T, want string", i, kv[i]))
			}
			name = fmt.Sprint(kv[i])
		}
		attrs = append(attrs, Attr{Name: name, Value: kv[i+1]})
	}
	return attrs
}

// diffScratch holds the reconciliation state reused across diffs.
type diffScratch struct {
	prev  map[string]any
	order []string
}

// CalculateDiff updates prev to equal next and calls update for every name
// whose value changed, including names that are new. Names that were in prev
// but are not in next are reported with a nil value, in the order they were
// previously declared. When prev is empty every entry of next is reported.
func CalculateDiff[C any](prev *[]Attr, next []Attr, ctx C, update func(C, string, any)) {
	calculateDiff(nil, prev, next, ctx, update)
}

func calculateDiff[C any](s *diffScratch, prev *[]Attr, next []Attr, ctx C, update func(C, string, any)) {
	old := *prev
	isNew := len(old) == 0

	i := 0
	for ; i < len(next) && i < len(old); i++ {
		if old[i].Name != next[i].Name {
			break
		}
		if isNew || !sameValue(old[i].Value, next[i].Value) {
			old[i].Value = next[i].Value
			update(ctx, next[i].Name, next[i].Value)
		}
	}

	if i == len(next) && i == len(old) {
		return
	}
	if isNew {
		for ; i < len(next); i++ {
			old = append(old, next[i])
			update(ctx, next[i].Name, next[i].Value)
		}
		*prev = old
		return
	}

	if s == nil {
		s = &diffScratch{}
	}
	if s.prev == nil {
		s.prev = make(map[string]any)
	}
	for j := i; j < len(old); j++ {
		s.prev[old[j].Name] = old[j].Value
		s.order = append(s.order, old[j].Name)
	}

	old = old[:i]
	for ; i < len(next); i++ {
		name, value := next[i].Name, next[i].Value
		if pv, ok := s.prev[name]; !ok || !sameValue(pv, value) {
			update(ctx, name, value)
		}
		old = append(old, next[i])
		delete(s.prev, name)
	}
	*prev = old

	for _, name := range s.order {
		if _, ok := s.prev[name]; ok {
			update(ctx, name, nil)
			delete(s.prev, name)
		}
	}
	s.order = s.order[:0]
}

// sameValue reports whether two declared values are the same. Comparable
// values use ==; maps and slices are the same only if they share storage;
// functions are never the same.
func sameValue(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}
	if va.Comparable() {
		return a == b
	}
	switch va.Kind() {
	case reflect.Map:
		return va.UnsafePointer() == vb.UnsafePointer()
	case reflect.Slice:
		return va.Len() == vb.Len() && va.UnsafePointer() == vb.UnsafePointer()
	default:
		return false
	}
}
