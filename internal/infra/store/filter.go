package store

import (
	"reflect"

	"github.com/bytedance/sonic"
)

type opKind int

const (
	opEq opKind = iota
	opIn
)

// Cond is a single field condition.
type Cond struct {
	Field  string
	op     opKind
	value  any
	values []string
}

// Filter is a conjunction of conditions. The empty filter matches every record.
type Filter []Cond

// Eq matches records whose field equals v. Eq(field, nil) matches a null or missing field.
func Eq(field string, v any) Cond {
	return Cond{Field: field, op: opEq, value: v}
}

// In matches records whose field equals any of values. An empty list matches nothing.
func In(field string, values []string) Cond {
	return Cond{Field: field, op: opIn, values: values}
}

func Where(conds ...Cond) Filter {
	return Filter(conds)
}

// ByID is shorthand for Where(Eq("id", id)).
func ByID(id string) Filter {
	return Where(Eq("id", id))
}

// Match reports whether a decoded JSON document satisfies f.
func (f Filter) Match(doc map[string]any) bool {
	for _, c := range f {
		if !c.match(doc) {
			return false
		}
	}
	return true
}

func (c Cond) match(doc map[string]any) bool {
	got, ok := doc[c.Field]
	if !ok {
		got = nil
	}

	switch c.op {
	case opIn:
		s, isStr := got.(string)
		if !isStr {
			return false
		}
		for _, v := range c.values {
			if v == s {
				return true
			}
		}
		return false
	default:
		want := normalizeValue(c.value)
		if want == nil {
			return got == nil
		}
		return reflect.DeepEqual(got, want)
	}
}

// normalizeValue converts v to the shape it would have after a JSON round trip.
func normalizeValue(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		return t
	case bool:
		return t
	case *string:
		if t == nil {
			return nil
		}
		return *t
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer && rv.IsNil() {
		return nil
	}
	b, err := sonic.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := sonic.Unmarshal(b, &out); err != nil {
		return v
	}
	return out
}

// toDocument encodes any record into its JSON document form.
func toDocument(doc any) (map[string]any, error) {
	b, err := sonic.Marshal(doc)
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if err := sonic.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// decodeInto copies a document (or a slice of documents) into out.
func decodeInto(src any, out any) error {
	if out == nil {
		return nil
	}
	b, err := sonic.Marshal(src)
	if err != nil {
		return err
	}
	return sonic.Unmarshal(b, out)
}

func docID(doc map[string]any) (string, error) {
	id, ok := doc["id"].(string)
	if !ok || id == "" {
		return "", ErrMissingID
	}
	return id, nil
}

// applyPatch returns a copy of doc with patch applied.
func applyPatch(doc map[string]any, patch Patch) map[string]any {
	next := make(map[string]any, len(doc)+len(patch))
	for k, v := range doc {
		next[k] = v
	}
	for k, v := range patch {
		next[k] = normalizeValue(v)
	}
	return next
}
