package document

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ValueKind tags the shape of a field value.
type ValueKind int

// Field value shapes.
const (
	KindNone ValueKind = iota
	KindString
	KindList
	KindObject
)

// Value is a field value reduced to one of three shapes: string, list or
// object. Scalars (numbers, booleans) become strings.
type Value struct {
	kind   ValueKind
	str    string
	list   []Value
	object map[string]Value
}

// ValueOf converts a decoded JSON value (or a Go equivalent) into a Value.
func ValueOf(v any) Value {
	switch t := v.(type) {
	case nil:
		return Value{}
	case string:
		return Value{kind: KindString, str: t}
	case bool:
		return Value{kind: KindString, str: strconv.FormatBool(t)}
	case float64:
		return Value{kind: KindString, str: strconv.FormatFloat(t, 'f', -1, 64)}
	case float32:
		return Value{kind: KindString, str: strconv.FormatFloat(float64(t), 'f', -1, 32)}
	case int:
		return Value{kind: KindString, str: strconv.Itoa(t)}
	case int64:
		return Value{kind: KindString, str: strconv.FormatInt(t, 10)}
	case []string:
		list := make([]Value, len(t))
		for i, s := range t {
			list[i] = Value{kind: KindString, str: s}
		}
		return Value{kind: KindList, list: list}
	case []any:
		list := make([]Value, len(t))
		for i, item := range t {
			list[i] = ValueOf(item)
		}
		return Value{kind: KindList, list: list}
	case map[string]any:
		obj := make(map[string]Value, len(t))
		for k, item := range t {
			obj[k] = ValueOf(item)
		}
		return Value{kind: KindObject, object: obj}
	case fmt.Stringer:
		return Value{kind: KindString, str: t.String()}
	default:
		return Value{kind: KindString, str: fmt.Sprint(t)}
	}
}

// Kind returns the value shape.
func (v Value) Kind() ValueKind { return v.kind }

// Flatten returns the non-empty text parts of the value in a stable order.
// Lists keep element order; objects are walked by sorted key.
func (v Value) Flatten() []string {
	var parts []string
	v.appendTo(&parts)
	return parts
}

// Text joins the flattened parts with a single space.
func (v Value) Text() string {
	return strings.Join(v.Flatten(), " ")
}

func (v Value) appendTo(parts *[]string) {
	switch v.kind {
	case KindString:
		if s := strings.TrimSpace(v.str); s != "" {
			*parts = append(*parts, s)
		}
	case KindList:
		for _, item := range v.list {
			item.appendTo(parts)
		}
	case KindObject:
		keys := make([]string, 0, len(v.object))
		for k := range v.object {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			v.object[k].appendTo(parts)
		}
	case KindNone:
	}
}
