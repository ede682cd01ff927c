package soia

import (
	"fmt"
)

// ============================================================
// Struct Values
// ============================================================

// Struct is the frozen flavor of a struct value: deeply immutable,
// shareable across goroutines without synchronization. Always held
// behind a Value wrapper.
type Struct struct {
	typ    *StructType
	fields []*Value // one slot per schema field, never nil, all frozen
}

// MutableStruct is the mutable flavor of a struct value. Each slot may
// hold a frozen or a mutable child; a nil slot reads as the field's
// default. Not safe for concurrent use.
type MutableStruct struct {
	typ    *StructType
	fields []*Value
}

// FieldValue names a field value for struct construction:
// F("name", Str("John")).
type FieldValue struct {
	Name  string
	Value *Value
}

// F creates a FieldValue.
func F(name string, v *Value) FieldValue {
	return FieldValue{Name: name, Value: v}
}

// ============================================================
// Construction
// ============================================================

// New constructs a frozen struct value. Every schema field must be
// given exactly once; inputs are checked against the field types and
// deeply frozen (sequences are copied in, never aliased).
func (st *StructType) New(fields ...FieldValue) (*Value, error) {
	if len(fields) != len(st.fields) {
		return nil, fmt.Errorf("soia: %s: got %d fields, want all %d", st.id, len(fields), len(st.fields))
	}
	return st.Partial(fields...)
}

// Partial constructs a frozen struct value from a subset of fields;
// omitted fields take their default value.
func (st *StructType) Partial(fields ...FieldValue) (*Value, error) {
	if st.byName == nil {
		return nil, fmt.Errorf("soia: struct %s is not defined", st.id)
	}
	slots := make([]*Value, len(st.fields))
	for _, fv := range fields {
		i, ok := st.byName[fv.Name]
		if !ok {
			return nil, fmt.Errorf("soia: %s: no field named %s", st.id, fv.Name)
		}
		if slots[i] != nil {
			return nil, fmt.Errorf("soia: %s: field %s given twice", st.id, fv.Name)
		}
		frozen, err := checkValue(st.fields[i].Type, fv.Value, true)
		if err != nil {
			return nil, fmt.Errorf("soia: %s.%s: %w", st.id, fv.Name, err)
		}
		slots[i] = frozen
	}
	for i := range slots {
		if slots[i] == nil {
			slots[i] = DefaultOf(st.fields[i].Type)
		}
	}
	return &Value{kind: KindStruct, structVal: &Struct{typ: st, fields: slots}}, nil
}

// MustPartial is Partial, panicking on invalid input. Intended for
// package-level constants.
func (st *StructType) MustPartial(fields ...FieldValue) *Value {
	v, err := st.Partial(fields...)
	if err != nil {
		panic(err)
	}
	return v
}

// Default returns the DEFAULT instance: the frozen struct with every
// field at its default. It is computed once per type, so identity
// checks against it are cheap.
func (st *StructType) Default() *Value {
	st.defOnce.Do(func() {
		slots := make([]*Value, len(st.fields))
		for i, f := range st.fields {
			slots[i] = DefaultOf(f.Type)
		}
		st.def = &Value{kind: KindStruct, structVal: &Struct{typ: st, fields: slots}}
	})
	return st.def
}

// Mutable constructs a mutable struct value, optionally assigning the
// given fields (which may hold frozen or mutable children).
func (st *StructType) Mutable(fields ...FieldValue) (*Value, error) {
	if st.byName == nil {
		return nil, fmt.Errorf("soia: struct %s is not defined", st.id)
	}
	v := &Value{kind: KindMutableStruct, mutStructVal: &MutableStruct{
		typ:    st,
		fields: make([]*Value, len(st.fields)),
	}}
	for _, fv := range fields {
		if err := v.SetField(fv.Name, fv.Value); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// ============================================================
// Field Access
// ============================================================

// Field returns the named field's current value. Works uniformly on
// the frozen and mutable flavors, so code that only reads fields can
// accept either; it must not assume the result is immutable.
func (v *Value) Field(name string) (*Value, error) {
	switch v.Kind() {
	case KindStruct:
		s := v.structVal
		i, ok := s.typ.byName[name]
		if !ok {
			return nil, fmt.Errorf("soia: %s: no field named %s", s.typ.id, name)
		}
		return s.fields[i], nil
	case KindMutableStruct:
		m := v.mutStructVal
		i, ok := m.typ.byName[name]
		if !ok {
			return nil, fmt.Errorf("soia: %s: no field named %s", m.typ.id, name)
		}
		if m.fields[i] == nil {
			return DefaultOf(m.typ.fields[i].Type), nil
		}
		return m.fields[i], nil
	default:
		return nil, fmt.Errorf("soia: expected struct, got %s", v.Kind())
	}
}

// FieldByNumber returns the field with the given wire number.
func (v *Value) FieldByNumber(n int) (*Value, error) {
	st := v.structTypeOf()
	if st == nil {
		return nil, fmt.Errorf("soia: expected struct, got %s", v.Kind())
	}
	f, ok := st.FieldByNumber(n)
	if !ok {
		return nil, fmt.Errorf("soia: %s: no field with number %d", st.id, n)
	}
	return v.Field(f.Name)
}

// SetField assigns a field on a mutable struct. The value is checked
// against the field type; it may be frozen or mutable and is stored
// as-is (no copy). Assigning on a frozen struct panics: frozen values
// have no mutation path.
func (v *Value) SetField(name string, fv *Value) error {
	if v.Kind() == KindStruct {
		panic(fmt.Sprintf("soia: cannot set field %s on frozen struct %s", name, v.structVal.typ.id))
	}
	if v.Kind() != KindMutableStruct {
		panic(fmt.Sprintf("soia: cannot set field on %s", v.Kind()))
	}
	m := v.mutStructVal
	i, ok := m.typ.byName[name]
	if !ok {
		return fmt.Errorf("soia: %s: no field named %s", m.typ.id, name)
	}
	checked, err := checkValue(m.typ.fields[i].Type, fv, false)
	if err != nil {
		return fmt.Errorf("soia: %s.%s: %w", m.typ.id, name, err)
	}
	m.fields[i] = checked
	return nil
}

// MutableField returns the named field as a mutable value, promoting it
// on first write-intent access: if the field already holds a mutable
// child that child is returned as-is, otherwise a shallow mutable copy
// of the current value is assigned to the field and returned. Repeat
// calls without an intervening reassignment return the same instance.
// Only struct- and array-typed fields have a mutable flavor.
func (v *Value) MutableField(name string) (*Value, error) {
	if v.Kind() != KindMutableStruct {
		return nil, fmt.Errorf("soia: expected mutable struct, got %s", v.Kind())
	}
	m := v.mutStructVal
	i, ok := m.typ.byName[name]
	if !ok {
		return nil, fmt.Errorf("soia: %s: no field named %s", m.typ.id, name)
	}
	ft := m.typ.fields[i].Type
	if !hasMutableFlavor(ft) {
		return nil, fmt.Errorf("soia: %s.%s: %s has no mutable flavor", m.typ.id, name, ft)
	}
	cur := m.fields[i]
	if cur == nil {
		cur = DefaultOf(ft)
	}
	switch cur.Kind() {
	case KindMutableStruct, KindMutableArray:
		return cur, nil
	}
	mut := cur.ToMutable()
	m.fields[i] = mut
	return mut, nil
}

// hasMutableFlavor reports whether values of a type come in a mutable
// flavor.
func hasMutableFlavor(t *Type) bool {
	if t.Kind == TypeArray {
		return true
	}
	if t.Kind == TypeRecord {
		_, isStruct := t.Record.(*StructType)
		return isStruct
	}
	return false
}

// Replace returns a frozen copy of a frozen struct with the given
// fields reassigned: ToMutable, assignments, ToFrozen in one call.
func (v *Value) Replace(fields ...FieldValue) (*Value, error) {
	if v.Kind() != KindStruct {
		return nil, fmt.Errorf("soia: expected frozen struct, got %s", v.Kind())
	}
	m := v.ToMutable()
	for _, fv := range fields {
		if err := m.SetField(fv.Name, fv.Value); err != nil {
			return nil, err
		}
	}
	return m.ToFrozen(), nil
}

// StructTypeOf returns the struct type of a struct-kind value.
func (v *Value) StructTypeOf() (*StructType, error) {
	st := v.structTypeOf()
	if st == nil {
		return nil, fmt.Errorf("soia: expected struct, got %s", v.Kind())
	}
	return st, nil
}

// ============================================================
// Conversion internals
// ============================================================

func (s *Struct) toMutable() *Value {
	fields := make([]*Value, len(s.fields))
	copy(fields, s.fields)
	return &Value{kind: KindMutableStruct, mutStructVal: &MutableStruct{typ: s.typ, fields: fields}}
}

func (m *MutableStruct) shallowCopy() *Value {
	fields := make([]*Value, len(m.fields))
	copy(fields, m.fields)
	return &Value{kind: KindMutableStruct, mutStructVal: &MutableStruct{typ: m.typ, fields: fields}}
}

func (m *MutableStruct) toFrozen() *Value {
	slots := make([]*Value, len(m.fields))
	allDefault := true
	for i, f := range m.typ.fields {
		cur := m.fields[i]
		if cur == nil {
			slots[i] = DefaultOf(f.Type)
			continue
		}
		frozen, err := checkValue(f.Type, cur, true)
		if err != nil {
			// Slots only ever hold values that passed SetField.
			panic(fmt.Sprintf("soia: corrupt mutable struct %s: %v", m.typ.id, err))
		}
		slots[i] = frozen
		if !isDefault(f.Type, frozen) {
			allDefault = false
		}
	}
	if allDefault {
		return m.typ.Default()
	}
	return &Value{kind: KindStruct, structVal: &Struct{typ: m.typ, fields: slots}}
}

// ============================================================
// Value checking
// ============================================================

// checkValue validates v against t. With freeze set it returns a deeply
// frozen value, reusing already-frozen children; otherwise it preserves
// the value's flavor (mutable children stay live references, as field
// assignment on a mutable struct does not copy).
func checkValue(t *Type, v *Value, freeze bool) (*Value, error) {
	if v == nil || v.kind == KindNull {
		return nil, fmt.Errorf("expected %s, got null", t)
	}
	switch t.Kind {
	case TypePrimitive:
		if v.kind != primitiveKind(t.Primitive) {
			return nil, fmt.Errorf("expected %s, got %s", t, v.kind)
		}
		return v, nil

	case TypeArray:
		return checkArrayValue(t, v, freeze)

	case TypeRecord:
		switch rt := t.Record.(type) {
		case *StructType:
			if v.structTypeOf() != rt {
				return nil, fmt.Errorf("expected %s, got %s", rt.id, describeValue(v))
			}
			if freeze {
				return v.ToFrozen(), nil
			}
			return v, nil
		case *EnumType:
			if v.kind != KindEnum || v.enumVal.typ != rt {
				return nil, fmt.Errorf("expected %s, got %s", rt.id, describeValue(v))
			}
			return v, nil
		}
	}
	return nil, fmt.Errorf("invalid type %s", t)
}

func primitiveKind(p Primitive) Kind {
	switch p {
	case PrimitiveBool:
		return KindBool
	case PrimitiveInt32:
		return KindInt32
	case PrimitiveInt64:
		return KindInt64
	case PrimitiveUint64:
		return KindUint64
	case PrimitiveFloat32:
		return KindFloat32
	case PrimitiveFloat64:
		return KindFloat64
	case PrimitiveString:
		return KindString
	case PrimitiveBytes:
		return KindBytes
	case PrimitiveTimestamp:
		return KindTimestamp
	default:
		return KindNull
	}
}

func describeValue(v *Value) string {
	switch v.Kind() {
	case KindStruct, KindMutableStruct:
		return v.structTypeOf().id
	case KindEnum:
		return v.enumVal.typ.id
	default:
		return v.Kind().String()
	}
}
