package soia

import (
	"fmt"
	"strconv"
	"sync"
)

// ============================================================
// Array Values
// ============================================================

// Array is the frozen flavor of an array value: the element sequence is
// immutable after construction. Keyed arrays (types built with
// KeyedArrayOf) additionally carry a lazily built key index; the build
// runs once under an initialization guard, so concurrent readers are
// safe.
type Array struct {
	typ   *Type    // array type; nil for untyped literals
	items []*Value // all frozen

	indexOnce sync.Once
	index     map[string]int // key token -> last item index with that key
}

// MutableArray is the mutable flavor of an array value. Not safe for
// concurrent use, and it never carries a key index.
type MutableArray struct {
	typ   *Type
	items []*Value
}

// List creates a mutable untyped array literal from the given items.
// The literal is typed and checked when assigned to a struct field or
// frozen through NewArray.
func List(items ...*Value) *Value {
	copied := make([]*Value, len(items))
	copy(copied, items)
	return &Value{kind: KindMutableArray, mutArrayVal: &MutableArray{items: copied}}
}

// NewArray constructs a frozen array of the given array type. Items are
// checked against the element type and deeply frozen; the input slice
// is copied in, never aliased. Items supplied as mutable values are
// read at construction time: later mutation of them does not affect
// the array (nor its key index).
func NewArray(t *Type, items ...*Value) (*Value, error) {
	if t == nil || t.Kind != TypeArray {
		return nil, fmt.Errorf("soia: NewArray: not an array type: %s", t)
	}
	frozen := make([]*Value, len(items))
	for i, item := range items {
		fv, err := checkValue(t.Elem, item, true)
		if err != nil {
			return nil, fmt.Errorf("soia: array[%d]: %w", i, err)
		}
		frozen[i] = fv
	}
	return &Value{kind: KindArray, arrayVal: &Array{typ: t, items: frozen}}, nil
}

// MustArray is NewArray, panicking on invalid input.
func MustArray(t *Type, items ...*Value) *Value {
	v, err := NewArray(t, items...)
	if err != nil {
		panic(err)
	}
	return v
}

// Len returns the number of elements of an array value, 0 for any
// other kind.
func (v *Value) Len() int {
	switch v.Kind() {
	case KindArray:
		return len(v.arrayVal.items)
	case KindMutableArray:
		return len(v.mutArrayVal.items)
	default:
		return 0
	}
}

// Index returns the i-th element of an array value.
func (v *Value) Index(i int) (*Value, error) {
	var items []*Value
	switch v.Kind() {
	case KindArray:
		items = v.arrayVal.items
	case KindMutableArray:
		items = v.mutArrayVal.items
	default:
		return nil, fmt.Errorf("soia: expected array, got %s", v.Kind())
	}
	if i < 0 || i >= len(items) {
		return nil, fmt.Errorf("soia: index %d out of bounds (len=%d)", i, len(items))
	}
	return items[i], nil
}

// Append adds an element to a mutable array. Appending to a frozen
// array panics: frozen values have no mutation path.
func (v *Value) Append(item *Value) error {
	if v.Kind() == KindArray {
		panic("soia: cannot append to frozen array")
	}
	if v.Kind() != KindMutableArray {
		panic(fmt.Sprintf("soia: cannot append to %s", v.Kind()))
	}
	ma := v.mutArrayVal
	if ma.typ != nil {
		checked, err := checkValue(ma.typ.Elem, item, false)
		if err != nil {
			return fmt.Errorf("soia: array append: %w", err)
		}
		item = checked
	}
	ma.items = append(ma.items, item)
	return nil
}

// SetAt replaces the i-th element of a mutable array.
func (v *Value) SetAt(i int, item *Value) error {
	if v.Kind() != KindMutableArray {
		panic(fmt.Sprintf("soia: cannot set element on %s", v.Kind()))
	}
	ma := v.mutArrayVal
	if i < 0 || i >= len(ma.items) {
		return fmt.Errorf("soia: index %d out of bounds (len=%d)", i, len(ma.items))
	}
	if ma.typ != nil {
		checked, err := checkValue(ma.typ.Elem, item, false)
		if err != nil {
			return fmt.Errorf("soia: array[%d]: %w", i, err)
		}
		item = checked
	}
	ma.items[i] = item
	return nil
}

// ============================================================
// Keyed Lookup
// ============================================================

// Find returns the element whose key field equals key. The first call
// scans the array once to build the key index; later calls are O(1)
// map lookups. When several elements share a key, the last one wins.
// Find panics if the value is not a frozen keyed array (a programming
// error: mutable arrays and unkeyed arrays have no index).
func (v *Value) Find(key *Value) (*Value, bool) {
	if v.Kind() != KindArray {
		panic(fmt.Sprintf("soia: Find on %s", v.Kind()))
	}
	a := v.arrayVal
	if a.typ == nil || a.typ.KeyField == "" {
		panic("soia: Find on unkeyed array")
	}
	a.indexOnce.Do(a.buildIndex)
	tok, ok := keyToken(key)
	if !ok {
		return nil, false
	}
	i, ok := a.index[tok]
	if !ok {
		return nil, false
	}
	return a.items[i], true
}

// FindOrDefault returns the element whose key field equals key, or the
// element type's default value when no element matches, so call sites
// that only read fields can skip presence checks.
func (v *Value) FindOrDefault(key *Value) *Value {
	if item, ok := v.Find(key); ok {
		return item
	}
	return DefaultOf(v.arrayVal.typ.Elem)
}

func (a *Array) buildIndex() {
	index := make(map[string]int, len(a.items))
	for i, item := range a.items {
		kv, err := item.Field(a.typ.KeyField)
		if err != nil {
			continue
		}
		tok, ok := keyToken(kv)
		if !ok {
			continue
		}
		index[tok] = i // last wins
	}
	a.index = index
}

// keyToken maps a key value to its index token. Only scalar-ish kinds
// are addressable keys.
func keyToken(v *Value) (string, bool) {
	switch v.Kind() {
	case KindBool:
		if v.boolVal {
			return "t", true
		}
		return "f", true
	case KindInt32, KindInt64:
		return strconv.FormatInt(v.intVal, 10), true
	case KindUint64:
		return strconv.FormatUint(uint64(v.intVal), 10), true
	case KindString:
		return v.strVal, true
	case KindBytes:
		return string(v.bytesVal), true
	case KindTimestamp:
		return strconv.FormatInt(v.timeVal.UnixMilli(), 10), true
	case KindEnum:
		return strconv.Itoa(v.enumVal.number), true
	default:
		return "", false
	}
}

// ============================================================
// Conversion internals
// ============================================================

func (a *Array) toMutable() *Value {
	items := make([]*Value, len(a.items))
	copy(items, a.items)
	return &Value{kind: KindMutableArray, mutArrayVal: &MutableArray{typ: a.typ, items: items}}
}

func (ma *MutableArray) shallowCopy() *Value {
	items := make([]*Value, len(ma.items))
	copy(items, ma.items)
	return &Value{kind: KindMutableArray, mutArrayVal: &MutableArray{typ: ma.typ, items: items}}
}

func (ma *MutableArray) toFrozen() *Value {
	items := make([]*Value, len(ma.items))
	for i, item := range ma.items {
		items[i] = item.ToFrozen()
	}
	return &Value{kind: KindArray, arrayVal: &Array{typ: ma.typ, items: items}}
}

// checkArrayValue validates an array value against an array type; see
// checkValue for the freeze contract.
func checkArrayValue(t *Type, v *Value, freeze bool) (*Value, error) {
	switch v.kind {
	case KindArray:
		a := v.arrayVal
		if a.typ != nil && typeEq(a.typ, t) {
			return v, nil // already checked against an identical type
		}
		frozen := make([]*Value, len(a.items))
		for i, item := range a.items {
			fv, err := checkValue(t.Elem, item, true)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			frozen[i] = fv
		}
		return &Value{kind: KindArray, arrayVal: &Array{typ: t, items: frozen}}, nil

	case KindMutableArray:
		ma := v.mutArrayVal
		if freeze {
			frozen := make([]*Value, len(ma.items))
			for i, item := range ma.items {
				fv, err := checkValue(t.Elem, item, true)
				if err != nil {
					return nil, fmt.Errorf("array[%d]: %w", i, err)
				}
				frozen[i] = fv
			}
			return &Value{kind: KindArray, arrayVal: &Array{typ: t, items: frozen}}, nil
		}
		for i, item := range ma.items {
			if _, err := checkValue(t.Elem, item, false); err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
		}
		// Adopt the field's declared type so future appends are checked.
		if ma.typ == nil {
			ma.typ = t
		}
		return v, nil

	default:
		return nil, fmt.Errorf("expected %s, got %s", t, v.kind)
	}
}

// typeEq compares two types structurally; record references compare by
// identity.
func typeEq(a, b *Type) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil || a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case TypePrimitive:
		return a.Primitive == b.Primitive
	case TypeArray:
		return a.KeyField == b.KeyField && typeEq(a.Elem, b.Elem)
	case TypeRecord:
		return a.Record == b.Record
	default:
		return false
	}
}
