package soia

import (
	"fmt"
	"sort"
	"sync"
)

// ============================================================
// Type System
// ============================================================
//
// Record definitions are normally produced by the schema compiler and
// handed to this package as ordered field/variant lists plus a stable
// record id (e.g. "user.soia:User"). Nothing here parses schema source.

// Primitive identifies a primitive soia type.
type Primitive uint8

const (
	PrimitiveBool Primitive = iota
	PrimitiveInt32
	PrimitiveInt64
	PrimitiveUint64
	PrimitiveFloat32
	PrimitiveFloat64
	PrimitiveString
	PrimitiveBytes
	PrimitiveTimestamp
)

// String returns the schema-level name of the primitive.
func (p Primitive) String() string {
	switch p {
	case PrimitiveBool:
		return "bool"
	case PrimitiveInt32:
		return "int32"
	case PrimitiveInt64:
		return "int64"
	case PrimitiveUint64:
		return "uint64"
	case PrimitiveFloat32:
		return "float32"
	case PrimitiveFloat64:
		return "float64"
	case PrimitiveString:
		return "string"
	case PrimitiveBytes:
		return "bytes"
	case PrimitiveTimestamp:
		return "timestamp"
	default:
		return "unknown"
	}
}

// primitiveByName is the inverse of Primitive.String.
var primitiveByName = map[string]Primitive{
	"bool":      PrimitiveBool,
	"int32":     PrimitiveInt32,
	"int64":     PrimitiveInt64,
	"uint64":    PrimitiveUint64,
	"float32":   PrimitiveFloat32,
	"float64":   PrimitiveFloat64,
	"string":    PrimitiveString,
	"bytes":     PrimitiveBytes,
	"timestamp": PrimitiveTimestamp,
}

// TypeKind indicates the kind of a type reference.
type TypeKind uint8

const (
	TypePrimitive TypeKind = iota
	TypeArray
	TypeRecord
)

// Type represents a field type: a primitive, an array of an element type
// (optionally keyed by a field of a struct element), or a reference to a
// named record (struct or enum).
type Type struct {
	Kind      TypeKind
	Primitive Primitive  // For Kind == TypePrimitive
	Elem      *Type      // For Kind == TypeArray
	KeyField  string     // For Kind == TypeArray: key field name, "" if unkeyed
	Record    RecordType // For Kind == TypeRecord
}

// Primitive type singletons.
var (
	BoolType      = &Type{Kind: TypePrimitive, Primitive: PrimitiveBool}
	Int32Type     = &Type{Kind: TypePrimitive, Primitive: PrimitiveInt32}
	Int64Type     = &Type{Kind: TypePrimitive, Primitive: PrimitiveInt64}
	Uint64Type    = &Type{Kind: TypePrimitive, Primitive: PrimitiveUint64}
	Float32Type   = &Type{Kind: TypePrimitive, Primitive: PrimitiveFloat32}
	Float64Type   = &Type{Kind: TypePrimitive, Primitive: PrimitiveFloat64}
	StringType    = &Type{Kind: TypePrimitive, Primitive: PrimitiveString}
	BytesType     = &Type{Kind: TypePrimitive, Primitive: PrimitiveBytes}
	TimestampType = &Type{Kind: TypePrimitive, Primitive: PrimitiveTimestamp}
)

// ArrayOf returns the type of an unkeyed array with the given element type.
func ArrayOf(elem *Type) *Type {
	return &Type{Kind: TypeArray, Elem: elem}
}

// KeyedArrayOf returns the type of an array whose struct elements are
// addressable by the named key field (see Value.Find).
func KeyedArrayOf(elem *Type, keyField string) *Type {
	return &Type{Kind: TypeArray, Elem: elem, KeyField: keyField}
}

// RecordOf returns the type referencing the given record.
func RecordOf(rt RecordType) *Type {
	return &Type{Kind: TypeRecord, Record: rt}
}

// String renders the type for error messages.
func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	switch t.Kind {
	case TypePrimitive:
		return t.Primitive.String()
	case TypeArray:
		if t.KeyField != "" {
			return fmt.Sprintf("[%s|%s]", t.Elem, t.KeyField)
		}
		return fmt.Sprintf("[%s]", t.Elem)
	case TypeRecord:
		if t.Record == nil {
			return "<record>"
		}
		return t.Record.RecordID()
	default:
		return "<invalid>"
	}
}

// RecordType is implemented by *StructType and *EnumType.
type RecordType interface {
	// RecordID returns the stable record id, e.g. "user.soia:User".
	RecordID() string
	// RecordKind returns "struct" or "enum".
	RecordKind() string

	descriptor() *Value
}

// Field describes one struct field: wire number is the only identifier
// used by the dense encoding; the name is used only by the readable
// encoding and is free to change.
type Field struct {
	Name   string
	Number int
	Type   *Type
}

// StructType is the definition of a struct record. Create with
// NewStructType, then call Define exactly once. The two-phase protocol
// exists so that recursive schemas can reference a struct type from its
// own field list.
type StructType struct {
	id     string
	fields []Field // ascending by number
	byName map[string]int
	byNum  map[int]int
	maxNum int

	defOnce sync.Once
	def     *Value

	descOnce sync.Once
	desc     *Value
}

// NewStructType allocates an undefined struct type with the given id.
func NewStructType(id string) *StructType {
	return &StructType{id: id, maxNum: -1}
}

// Define sets the field list. It must be called exactly once before the
// type is used to construct values.
func (st *StructType) Define(fields ...Field) error {
	if st.byName != nil {
		return fmt.Errorf("soia: struct %s already defined", st.id)
	}
	byName := make(map[string]int, len(fields))
	byNum := make(map[int]int, len(fields))
	sorted := make([]Field, len(fields))
	copy(sorted, fields)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Number < sorted[j].Number })
	maxNum := -1
	for i, f := range sorted {
		if f.Name == "" {
			return fmt.Errorf("soia: struct %s: empty field name", st.id)
		}
		if f.Number < 0 {
			return fmt.Errorf("soia: struct %s: field %s: negative number %d", st.id, f.Name, f.Number)
		}
		if f.Type == nil {
			return fmt.Errorf("soia: struct %s: field %s: nil type", st.id, f.Name)
		}
		if _, dup := byName[f.Name]; dup {
			return fmt.Errorf("soia: struct %s: duplicate field name %s", st.id, f.Name)
		}
		if _, dup := byNum[f.Number]; dup {
			return fmt.Errorf("soia: struct %s: duplicate field number %d", st.id, f.Number)
		}
		byName[f.Name] = i
		byNum[f.Number] = i
		if f.Number > maxNum {
			maxNum = f.Number
		}
	}
	st.fields = sorted
	st.byName = byName
	st.byNum = byNum
	st.maxNum = maxNum
	return nil
}

// MustStructType creates and defines a struct type, panicking on an
// invalid definition. Intended for package-level schema declarations.
func MustStructType(id string, fields ...Field) *StructType {
	st := NewStructType(id)
	if err := st.Define(fields...); err != nil {
		panic(err)
	}
	return st
}

// RecordID returns the stable record id.
func (st *StructType) RecordID() string { return st.id }

// RecordKind returns "struct".
func (st *StructType) RecordKind() string { return "struct" }

// Fields returns the field list, ascending by wire number. The returned
// slice must not be modified.
func (st *StructType) Fields() []Field { return st.fields }

// FieldByName returns the field with the given name.
func (st *StructType) FieldByName(name string) (Field, bool) {
	i, ok := st.byName[name]
	if !ok {
		return Field{}, false
	}
	return st.fields[i], true
}

// FieldByNumber returns the field with the given wire number.
func (st *StructType) FieldByNumber(n int) (Field, bool) {
	i, ok := st.byNum[n]
	if !ok {
		return Field{}, false
	}
	return st.fields[i], true
}

// Variant describes one enum variant. A nil Type marks a constant
// variant; a non-nil Type marks a data variant carrying one payload of
// that type. Number 0 is reserved for the implicit UNKNOWN variant and
// must not be declared.
type Variant struct {
	Name   string
	Number int
	Type   *Type
}

// EnumType is the definition of an enum record. Like StructType it is
// created undefined and completed with Define.
type EnumType struct {
	id       string
	variants []Variant // ascending by number, UNKNOWN (0) not included
	byName   map[string]int
	byNum    map[int]int

	unknown *Value
	consts  map[string]*Value

	descOnce sync.Once
	desc     *Value
}

// NewEnumType allocates an undefined enum type with the given id.
func NewEnumType(id string) *EnumType {
	et := &EnumType{id: id}
	et.unknown = &Value{kind: KindEnum, enumVal: &Enum{typ: et, number: 0}}
	return et
}

// Define sets the variant list. It must be called exactly once.
func (et *EnumType) Define(variants ...Variant) error {
	if et.byName != nil {
		return fmt.Errorf("soia: enum %s already defined", et.id)
	}
	byName := make(map[string]int, len(variants))
	byNum := make(map[int]int, len(variants))
	sorted := make([]Variant, len(variants))
	copy(sorted, variants)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Number < sorted[j].Number })
	consts := make(map[string]*Value)
	for i, v := range sorted {
		if v.Name == "" || v.Name == unknownKind {
			return fmt.Errorf("soia: enum %s: invalid variant name %q", et.id, v.Name)
		}
		if v.Number <= 0 {
			return fmt.Errorf("soia: enum %s: variant %s: number %d is reserved", et.id, v.Name, v.Number)
		}
		if _, dup := byName[v.Name]; dup {
			return fmt.Errorf("soia: enum %s: duplicate variant name %s", et.id, v.Name)
		}
		if _, dup := byNum[v.Number]; dup {
			return fmt.Errorf("soia: enum %s: duplicate variant number %d", et.id, v.Number)
		}
		byName[v.Name] = i
		byNum[v.Number] = i
		if v.Type == nil {
			consts[v.Name] = &Value{kind: KindEnum, enumVal: &Enum{typ: et, number: v.Number}}
		}
	}
	et.variants = sorted
	et.byName = byName
	et.byNum = byNum
	et.consts = consts
	return nil
}

// MustEnumType creates and defines an enum type, panicking on an invalid
// definition.
func MustEnumType(id string, variants ...Variant) *EnumType {
	et := NewEnumType(id)
	if err := et.Define(variants...); err != nil {
		panic(err)
	}
	return et
}

// RecordID returns the stable record id.
func (et *EnumType) RecordID() string { return et.id }

// RecordKind returns "enum".
func (et *EnumType) RecordKind() string { return "enum" }

// Variants returns the declared variants, ascending by wire number,
// excluding the implicit UNKNOWN. The returned slice must not be
// modified.
func (et *EnumType) Variants() []Variant { return et.variants }

// VariantByName returns the declared variant with the given name.
func (et *EnumType) VariantByName(name string) (Variant, bool) {
	i, ok := et.byName[name]
	if !ok {
		return Variant{}, false
	}
	return et.variants[i], true
}

// VariantByNumber returns the declared variant with the given number.
func (et *EnumType) VariantByNumber(n int) (Variant, bool) {
	i, ok := et.byNum[n]
	if !ok {
		return Variant{}, false
	}
	return et.variants[i], true
}

// ============================================================
// Record Registry
// ============================================================

// Registry maps record ids to record types. It is safe for concurrent
// use. A Registry is an explicit, owned table: this package keeps no
// ambient global registry.
type Registry struct {
	mu      sync.RWMutex
	records map[string]RecordType
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{records: make(map[string]RecordType)}
}

// Register adds a record type. Registering a second record under the
// same id is an error.
func (r *Registry) Register(rt RecordType) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := rt.RecordID()
	if _, exists := r.records[id]; exists {
		return fmt.Errorf("soia: record %s already registered", id)
	}
	r.records[id] = rt
	return nil
}

// MustRegister is Register, panicking on a duplicate id.
func (r *Registry) MustRegister(rt RecordType) {
	if err := r.Register(rt); err != nil {
		panic(err)
	}
}

// Lookup returns the record type registered under id.
func (r *Registry) Lookup(id string) (RecordType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rt, ok := r.records[id]
	return rt, ok
}

// IDs returns the registered record ids in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.records))
	for id := range r.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of registered records.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}
