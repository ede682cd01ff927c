package soia

import (
	"fmt"
	"time"
)

// Kind identifies the runtime kind of a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt32
	KindInt64
	KindUint64
	KindFloat32
	KindFloat64
	KindString
	KindBytes
	KindTimestamp
	KindStruct        // frozen struct
	KindMutableStruct // mutable struct
	KindArray         // frozen array
	KindMutableArray  // mutable array
	KindEnum
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt32:
		return "int32"
	case KindInt64:
		return "int64"
	case KindUint64:
		return "uint64"
	case KindFloat32:
		return "float32"
	case KindFloat64:
		return "float64"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	case KindTimestamp:
		return "timestamp"
	case KindStruct:
		return "struct"
	case KindMutableStruct:
		return "mutable struct"
	case KindArray:
		return "array"
	case KindMutableArray:
		return "mutable array"
	case KindEnum:
		return "enum"
	default:
		return "unknown"
	}
}

// Value represents a soia value.
//
// Scalar values and enum values are immutable from construction. Struct
// and array values come in a frozen flavor (deeply immutable, safe to
// share across goroutines) and a mutable flavor (freely editable, owned
// by a single goroutine at a time). See ToFrozen and ToMutable.
type Value struct {
	kind Kind

	// Scalar values (only one valid based on kind)
	boolVal  bool
	intVal   int64 // int32/int64, and uint64 bits for KindUint64
	floatVal float64
	strVal   string
	bytesVal []byte
	timeVal  time.Time

	// Container values
	structVal    *Struct
	mutStructVal *MutableStruct
	arrayVal     *Array
	mutArrayVal  *MutableArray

	// Enum value
	enumVal *Enum
}

// ============================================================
// Constructors
// ============================================================

// Bool creates a boolean value.
func Bool(v bool) *Value {
	return &Value{kind: KindBool, boolVal: v}
}

// Int32 creates an int32 value.
func Int32(v int32) *Value {
	return &Value{kind: KindInt32, intVal: int64(v)}
}

// Int64 creates an int64 value.
func Int64(v int64) *Value {
	return &Value{kind: KindInt64, intVal: v}
}

// Uint64 creates a uint64 value.
func Uint64(v uint64) *Value {
	return &Value{kind: KindUint64, intVal: int64(v)}
}

// Float32 creates a float32 value.
func Float32(v float32) *Value {
	return &Value{kind: KindFloat32, floatVal: float64(v)}
}

// Float64 creates a float64 value.
func Float64(v float64) *Value {
	return &Value{kind: KindFloat64, floatVal: v}
}

// Str creates a string value.
func Str(v string) *Value {
	return &Value{kind: KindString, strVal: v}
}

// BytesVal creates a bytes value. The input is copied so later changes
// to the caller's buffer do not leak into the value.
func BytesVal(v []byte) *Value {
	b := make([]byte, len(v))
	copy(b, v)
	return &Value{kind: KindBytes, bytesVal: b}
}

// Time creates a timestamp value. Timestamps carry millisecond
// precision: the input is truncated to the millisecond and normalized
// to UTC.
func Time(v time.Time) *Value {
	return &Value{kind: KindTimestamp, timeVal: time.UnixMilli(v.UnixMilli()).UTC()}
}

// UnixMillis creates a timestamp value from unix milliseconds.
func UnixMillis(ms int64) *Value {
	return &Value{kind: KindTimestamp, timeVal: time.UnixMilli(ms).UTC()}
}

// ============================================================
// Accessors
// ============================================================

// Kind returns the value kind. A nil value reports KindNull.
func (v *Value) Kind() Kind {
	if v == nil {
		return KindNull
	}
	return v.kind
}

// AsBool returns the boolean value.
func (v *Value) AsBool() (bool, error) {
	if v == nil || v.kind != KindBool {
		return false, fmt.Errorf("soia: expected bool, got %s", v.Kind())
	}
	return v.boolVal, nil
}

// AsInt32 returns the int32 value.
func (v *Value) AsInt32() (int32, error) {
	if v == nil || v.kind != KindInt32 {
		return 0, fmt.Errorf("soia: expected int32, got %s", v.Kind())
	}
	return int32(v.intVal), nil
}

// AsInt64 returns the int64 value.
func (v *Value) AsInt64() (int64, error) {
	if v == nil || v.kind != KindInt64 {
		return 0, fmt.Errorf("soia: expected int64, got %s", v.Kind())
	}
	return v.intVal, nil
}

// AsUint64 returns the uint64 value.
func (v *Value) AsUint64() (uint64, error) {
	if v == nil || v.kind != KindUint64 {
		return 0, fmt.Errorf("soia: expected uint64, got %s", v.Kind())
	}
	return uint64(v.intVal), nil
}

// AsFloat32 returns the float32 value.
func (v *Value) AsFloat32() (float32, error) {
	if v == nil || v.kind != KindFloat32 {
		return 0, fmt.Errorf("soia: expected float32, got %s", v.Kind())
	}
	return float32(v.floatVal), nil
}

// AsFloat64 returns the float64 value.
func (v *Value) AsFloat64() (float64, error) {
	if v == nil || v.kind != KindFloat64 {
		return 0, fmt.Errorf("soia: expected float64, got %s", v.Kind())
	}
	return v.floatVal, nil
}

// AsStr returns the string value.
func (v *Value) AsStr() (string, error) {
	if v == nil || v.kind != KindString {
		return "", fmt.Errorf("soia: expected string, got %s", v.Kind())
	}
	return v.strVal, nil
}

// AsBytes returns the bytes value. The returned slice is the value's
// backing storage and must not be modified.
func (v *Value) AsBytes() ([]byte, error) {
	if v == nil || v.kind != KindBytes {
		return nil, fmt.Errorf("soia: expected bytes, got %s", v.Kind())
	}
	return v.bytesVal, nil
}

// AsTime returns the timestamp value.
func (v *Value) AsTime() (time.Time, error) {
	if v == nil || v.kind != KindTimestamp {
		return time.Time{}, fmt.Errorf("soia: expected timestamp, got %s", v.Kind())
	}
	return v.timeVal, nil
}

// IsFrozen reports whether the value is deeply immutable. Scalars and
// enum values are always frozen; struct and array values are frozen in
// their frozen flavor only.
func (v *Value) IsFrozen() bool {
	switch v.Kind() {
	case KindMutableStruct, KindMutableArray:
		return false
	default:
		return true
	}
}

// ============================================================
// Frozen/Mutable Conversion
// ============================================================

// ToFrozen returns a deeply frozen snapshot of the value. Frozen values
// are returned as-is; mutable structs and arrays are converted
// recursively, reusing already-frozen children without copying. Later
// mutation of the source never affects the returned value.
func (v *Value) ToFrozen() *Value {
	switch v.Kind() {
	case KindMutableStruct:
		return v.mutStructVal.toFrozen()
	case KindMutableArray:
		return v.mutArrayVal.toFrozen()
	default:
		return v
	}
}

// ToMutable returns a shallow mutable copy of a struct or array value:
// the copy's entries keep holding the source's (possibly frozen)
// children. Scalars and enum values, which have no mutable flavor,
// are returned as-is.
func (v *Value) ToMutable() *Value {
	switch v.Kind() {
	case KindStruct:
		return v.structVal.toMutable()
	case KindMutableStruct:
		return v.mutStructVal.shallowCopy()
	case KindArray:
		return v.arrayVal.toMutable()
	case KindMutableArray:
		return v.mutArrayVal.shallowCopy()
	default:
		return v
	}
}

// ============================================================
// Equality
// ============================================================

// Equal compares two values structurally. Struct values compare field
// by field (recursively), arrays element by element, enums by variant
// number plus payload. A frozen and a mutable instance holding the same
// data compare equal.
func Equal(a, b *Value) bool {
	ka, kb := normalKind(a), normalKind(b)
	if ka != kb {
		return false
	}
	switch ka {
	case KindNull:
		return true
	case KindBool:
		return a.boolVal == b.boolVal
	case KindInt32, KindInt64, KindUint64:
		return a.intVal == b.intVal
	case KindFloat32, KindFloat64:
		return a.floatVal == b.floatVal
	case KindString:
		return a.strVal == b.strVal
	case KindBytes:
		return string(a.bytesVal) == string(b.bytesVal)
	case KindTimestamp:
		return a.timeVal.Equal(b.timeVal)
	case KindStruct:
		return structEqual(a, b)
	case KindArray:
		return arrayEqual(a, b)
	case KindEnum:
		ea, eb := a.enumVal, b.enumVal
		if ea.typ != eb.typ || ea.number != eb.number {
			return false
		}
		return Equal(ea.value, eb.value)
	default:
		return false
	}
}

// normalKind folds the mutable container kinds into their frozen
// counterparts so Equal can compare across flavors.
func normalKind(v *Value) Kind {
	switch v.Kind() {
	case KindMutableStruct:
		return KindStruct
	case KindMutableArray:
		return KindArray
	default:
		return v.Kind()
	}
}

func structEqual(a, b *Value) bool {
	ta, tb := a.structTypeOf(), b.structTypeOf()
	if ta != tb {
		return false
	}
	for _, f := range ta.fields {
		fa, _ := a.Field(f.Name)
		fb, _ := b.Field(f.Name)
		if !Equal(fa, fb) {
			return false
		}
	}
	return true
}

func arrayEqual(a, b *Value) bool {
	na, nb := a.Len(), b.Len()
	if na != nb {
		return false
	}
	for i := 0; i < na; i++ {
		ia, _ := a.Index(i)
		ib, _ := b.Index(i)
		if !Equal(ia, ib) {
			return false
		}
	}
	return true
}

// structTypeOf returns the struct type of a struct-kind value, nil
// otherwise.
func (v *Value) structTypeOf() *StructType {
	switch v.Kind() {
	case KindStruct:
		return v.structVal.typ
	case KindMutableStruct:
		return v.mutStructVal.typ
	default:
		return nil
	}
}

// ============================================================
// Defaults
// ============================================================

// Default zero values for primitives, shared across all uses.
var (
	defaultBool      = Bool(false)
	defaultInt32     = Int32(0)
	defaultInt64     = Int64(0)
	defaultUint64    = Uint64(0)
	defaultFloat32   = Float32(0)
	defaultFloat64   = Float64(0)
	defaultString    = Str("")
	defaultBytes     = &Value{kind: KindBytes}
	defaultTimestamp = UnixMillis(0)
)

// DefaultOf returns the default value of a type: zero for primitives,
// the empty frozen array for array types, the all-defaults DEFAULT
// singleton for structs and UNKNOWN for enums.
func DefaultOf(t *Type) *Value {
	switch t.Kind {
	case TypePrimitive:
		switch t.Primitive {
		case PrimitiveBool:
			return defaultBool
		case PrimitiveInt32:
			return defaultInt32
		case PrimitiveInt64:
			return defaultInt64
		case PrimitiveUint64:
			return defaultUint64
		case PrimitiveFloat32:
			return defaultFloat32
		case PrimitiveFloat64:
			return defaultFloat64
		case PrimitiveString:
			return defaultString
		case PrimitiveBytes:
			return defaultBytes
		case PrimitiveTimestamp:
			return defaultTimestamp
		}
	case TypeArray:
		return &Value{kind: KindArray, arrayVal: &Array{typ: t}}
	case TypeRecord:
		switch rt := t.Record.(type) {
		case *StructType:
			return rt.Default()
		case *EnumType:
			return rt.Unknown()
		}
	}
	panic(fmt.Sprintf("soia: invalid type %s", t))
}

// isDefault reports whether v equals the default value of t.
func isDefault(t *Type, v *Value) bool {
	return Equal(v, DefaultOf(t))
}
