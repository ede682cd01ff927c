package soia

import (
	"fmt"
)

// ============================================================
// Enum Values
// ============================================================

// unknownKind is the kind string of the implicit UNKNOWN variant.
const unknownKind = "?"

// Enum represents an enum value: a variant number plus, for data
// variants, a frozen payload. Enum values are immutable from
// construction; constants and UNKNOWN are per-type singletons.
type Enum struct {
	typ    *EnumType
	number int    // 0 = UNKNOWN
	value  *Value // nil for constants and UNKNOWN
}

// Unknown returns the UNKNOWN value of the enum: the default enum value
// and the decode target for unrecognized wire variants.
func (et *EnumType) Unknown() *Value {
	return et.unknown
}

// Constant returns the named constant variant. Constants are
// precomputed singletons, so identity checks are cheap. Asking for an
// undeclared name or a data variant is a programming error and panics.
func (et *EnumType) Constant(name string) *Value {
	v, ok := et.consts[name]
	if !ok {
		panic(fmt.Sprintf("soia: enum %s has no constant %s", et.id, name))
	}
	return v
}

// Wrap builds a data variant from a ready payload value. The payload is
// checked against the variant's payload type and deeply frozen.
func (et *EnumType) Wrap(name string, payload *Value) (*Value, error) {
	variant, ok := et.VariantByName(name)
	if !ok {
		return nil, fmt.Errorf("soia: enum %s has no variant %s", et.id, name)
	}
	if variant.Type == nil {
		return nil, fmt.Errorf("soia: enum %s: variant %s carries no payload", et.id, name)
	}
	frozen, err := checkValue(variant.Type, payload, true)
	if err != nil {
		return nil, fmt.Errorf("soia: %s.%s: %w", et.id, name, err)
	}
	return &Value{kind: KindEnum, enumVal: &Enum{typ: et, number: variant.Number, value: frozen}}, nil
}

// MustWrap is Wrap, panicking on invalid input.
func (et *EnumType) MustWrap(name string, payload *Value) *Value {
	v, err := et.Wrap(name, payload)
	if err != nil {
		panic(err)
	}
	return v
}

// Create builds a data variant whose payload is a struct, from
// field-style arguments: Create("trial", F("start_time", ts)) is
// Wrap("trial", Trial.Partial(F("start_time", ts))).
func (et *EnumType) Create(name string, fields ...FieldValue) (*Value, error) {
	variant, ok := et.VariantByName(name)
	if !ok {
		return nil, fmt.Errorf("soia: enum %s has no variant %s", et.id, name)
	}
	if variant.Type == nil || variant.Type.Kind != TypeRecord {
		return nil, fmt.Errorf("soia: enum %s: variant %s has no record payload", et.id, name)
	}
	st, ok := variant.Type.Record.(*StructType)
	if !ok {
		return nil, fmt.Errorf("soia: enum %s: variant %s payload is not a struct", et.id, name)
	}
	payload, err := st.Partial(fields...)
	if err != nil {
		return nil, err
	}
	return et.Wrap(name, payload)
}

// ============================================================
// Accessors
// ============================================================

// EnumKind returns the variant's name, or "?" for UNKNOWN.
func (v *Value) EnumKind() (string, error) {
	e, err := v.asEnum()
	if err != nil {
		return "", err
	}
	if e.number == 0 {
		return unknownKind, nil
	}
	variant, _ := e.typ.VariantByNumber(e.number)
	return variant.Name, nil
}

// EnumPayload returns the payload of a data variant, or nil for
// constants and UNKNOWN.
func (v *Value) EnumPayload() (*Value, error) {
	e, err := v.asEnum()
	if err != nil {
		return nil, err
	}
	return e.value, nil
}

// EnumTypeOf returns the enum type of an enum-kind value.
func (v *Value) EnumTypeOf() (*EnumType, error) {
	e, err := v.asEnum()
	if err != nil {
		return nil, err
	}
	return e.typ, nil
}

func (v *Value) asEnum() (*Enum, error) {
	if v == nil || v.kind != KindEnum {
		return nil, fmt.Errorf("soia: expected enum, got %s", v.Kind())
	}
	return v.enumVal, nil
}

// ============================================================
// Switch helper
// ============================================================

// EnumCase handles one variant in a Switch call. For data variants the
// payload is passed; for constants and UNKNOWN it is nil.
type EnumCase func(payload *Value) error

// Switch dispatches on the value's variant kind. Every kind the value
// can actually take must have a case; hitting a kind with no registered
// case panics. Use the "?" key for UNKNOWN.
func (v *Value) Switch(cases map[string]EnumCase) error {
	kind, err := v.EnumKind()
	if err != nil {
		return err
	}
	c, ok := cases[kind]
	if !ok {
		e := v.enumVal
		panic(fmt.Sprintf("soia: enum %s: unhandled kind %q in switch", e.typ.id, kind))
	}
	payload, _ := v.EnumPayload()
	return c(payload)
}
