package soia

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
)

// ============================================================
// Serializer
// ============================================================
//
// Two wire encodings over the same value model, always
// round-trip-equivalent:
//
//   - Dense: a struct is a positional array, one slot per wire number
//     up to the highest non-default field; an enum is a bare number or
//     [number, payload]. No field names appear, so schema renames do
//     not break decoding.
//   - Readable: a struct is an object keyed by field name, defaults
//     omitted; an enum is a name string, {name: payload}, or "?" for
//     UNKNOWN. Meant for human inspection.
//
// Decoding is tolerant of additive schema evolution: unknown field
// numbers/names and unknown enum variants never fail (the latter
// degrade to UNKNOWN); short dense arrays default-fill.

// maxSafeInt is the largest integer JSON numbers represent exactly.
// 64-bit values beyond it encode as decimal strings.
const maxSafeInt = 1 << 53

// Serializer encodes and decodes values of one declared type.
type Serializer struct {
	typ *Type
}

// NewSerializer creates a serializer for the given type.
func NewSerializer(t *Type) Serializer {
	return Serializer{typ: t}
}

// Type returns the serializer's declared type.
func (s Serializer) Type() *Type { return s.typ }

// EncodeOpts configures encoding flavor.
type EncodeOpts struct {
	// Readable selects the field-name-keyed flavor. The default is the
	// dense positional flavor.
	Readable bool
}

// ToJSON encodes a value to a dense JSON tree (the result of
// json.Unmarshal-style any values). Mutable values are snapshotted via
// ToFrozen first.
func (s Serializer) ToJSON(v *Value) (any, error) {
	return s.ToJSONWithOpts(v, EncodeOpts{})
}

// ToJSONWithOpts encodes a value to a JSON tree with options.
func (s Serializer) ToJSONWithOpts(v *Value, opts EncodeOpts) (any, error) {
	frozen, err := checkValue(s.typ, v, true)
	if err != nil {
		return nil, fmt.Errorf("soia: to_json: %w", err)
	}
	return encodeValue(s.typ, frozen, opts.Readable)
}

// ToJSONCode encodes a value to dense JSON text.
func (s Serializer) ToJSONCode(v *Value) (string, error) {
	return s.ToJSONCodeWithOpts(v, EncodeOpts{})
}

// ToJSONCodeWithOpts encodes a value to JSON text; the readable flavor
// is indented.
func (s Serializer) ToJSONCodeWithOpts(v *Value, opts EncodeOpts) (string, error) {
	tree, err := s.ToJSONWithOpts(v, opts)
	if err != nil {
		return "", err
	}
	var data []byte
	if opts.Readable {
		data, err = json.MarshalIndent(tree, "", "  ")
	} else {
		data, err = json.Marshal(tree)
	}
	if err != nil {
		return "", fmt.Errorf("soia: to_json_code: %w", err)
	}
	return string(data), nil
}

// FromJSON decodes a JSON tree into a frozen value. Either flavor is
// accepted; the JSON shape tells them apart.
func (s Serializer) FromJSON(j any) (*Value, error) {
	return decodeValue(s.typ, j)
}

// FromJSONCode decodes JSON text into a frozen value.
func (s Serializer) FromJSONCode(code string) (*Value, error) {
	var tree any
	if err := json.Unmarshal([]byte(code), &tree); err != nil {
		return nil, fmt.Errorf("soia: from_json_code: %w", err)
	}
	return s.FromJSON(tree)
}

// ============================================================
// Encoding
// ============================================================

func encodeValue(t *Type, v *Value, readable bool) (any, error) {
	switch t.Kind {
	case TypePrimitive:
		return encodePrimitive(t.Primitive, v, readable)
	case TypeArray:
		items := make([]any, v.Len())
		for i := range items {
			item, _ := v.Index(i)
			enc, err := encodeValue(t.Elem, item, readable)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			items[i] = enc
		}
		return items, nil
	case TypeRecord:
		switch rt := t.Record.(type) {
		case *StructType:
			if readable {
				return encodeStructReadable(rt, v)
			}
			return encodeStructDense(rt, v)
		case *EnumType:
			return encodeEnum(v.enumVal, readable)
		}
	}
	return nil, fmt.Errorf("invalid type %s", t)
}

func encodePrimitive(p Primitive, v *Value, readable bool) (any, error) {
	switch p {
	case PrimitiveBool:
		return v.boolVal, nil
	case PrimitiveInt32:
		return v.intVal, nil
	case PrimitiveInt64:
		if v.intVal > maxSafeInt || v.intVal < -maxSafeInt {
			return strconv.FormatInt(v.intVal, 10), nil
		}
		return v.intVal, nil
	case PrimitiveUint64:
		u := uint64(v.intVal)
		if u > maxSafeInt {
			return strconv.FormatUint(u, 10), nil
		}
		return u, nil
	case PrimitiveFloat32, PrimitiveFloat64:
		if math.IsNaN(v.floatVal) || math.IsInf(v.floatVal, 0) {
			return nil, fmt.Errorf("NaN/Infinity not allowed in JSON")
		}
		return v.floatVal, nil
	case PrimitiveString:
		return v.strVal, nil
	case PrimitiveBytes:
		return base64.StdEncoding.EncodeToString(v.bytesVal), nil
	case PrimitiveTimestamp:
		ms := v.timeVal.UnixMilli()
		if readable {
			return map[string]any{
				"unix_millis": ms,
				"formatted":   v.timeVal.Format(time.RFC3339),
			}, nil
		}
		return ms, nil
	default:
		return nil, fmt.Errorf("invalid primitive %s", p)
	}
}

// encodeStructDense emits one slot per wire number, ascending, up to
// the highest non-default field; numbers with no field (removed fields)
// hold null.
func encodeStructDense(st *StructType, v *Value) (any, error) {
	lastNumber := -1
	encoded := make(map[int]any, len(st.fields))
	for _, f := range st.fields {
		fv, _ := v.Field(f.Name)
		enc, err := encodeValue(f.Type, fv, false)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.Name, err)
		}
		encoded[f.Number] = enc
		if !isDefault(f.Type, fv) {
			lastNumber = f.Number
		}
	}
	slots := make([]any, lastNumber+1)
	for n, enc := range encoded {
		if n <= lastNumber {
			slots[n] = enc
		}
	}
	return slots, nil
}

func encodeStructReadable(st *StructType, v *Value) (any, error) {
	obj := make(map[string]any, len(st.fields))
	for _, f := range st.fields {
		fv, _ := v.Field(f.Name)
		if isDefault(f.Type, fv) {
			continue
		}
		enc, err := encodeValue(f.Type, fv, true)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.Name, err)
		}
		obj[f.Name] = enc
	}
	return obj, nil
}

func encodeEnum(e *Enum, readable bool) (any, error) {
	if e.number == 0 {
		if readable {
			return unknownKind, nil
		}
		return int64(0), nil
	}
	variant, _ := e.typ.VariantByNumber(e.number)
	if variant.Type == nil {
		if readable {
			return variant.Name, nil
		}
		return int64(e.number), nil
	}
	payload, err := encodeValue(variant.Type, e.value, readable)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", variant.Name, err)
	}
	if readable {
		return map[string]any{variant.Name: payload}, nil
	}
	return []any{int64(e.number), payload}, nil
}

// ============================================================
// Decoding
// ============================================================

func decodeValue(t *Type, j any) (*Value, error) {
	if j == nil {
		return DefaultOf(t), nil
	}
	switch t.Kind {
	case TypePrimitive:
		return decodePrimitive(t.Primitive, j)
	case TypeArray:
		list, ok := j.([]any)
		if !ok {
			return nil, fmt.Errorf("soia: expected array, got %T", j)
		}
		items := make([]*Value, len(list))
		for i, elem := range list {
			item, err := decodeValue(t.Elem, elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			items[i] = item
		}
		return &Value{kind: KindArray, arrayVal: &Array{typ: t, items: items}}, nil
	case TypeRecord:
		switch rt := t.Record.(type) {
		case *StructType:
			return decodeStruct(rt, j)
		case *EnumType:
			return decodeEnum(rt, j)
		}
	}
	return nil, fmt.Errorf("soia: invalid type %s", t)
}

func decodePrimitive(p Primitive, j any) (*Value, error) {
	switch p {
	case PrimitiveBool:
		b, ok := j.(bool)
		if !ok {
			return nil, fmt.Errorf("soia: expected bool, got %T", j)
		}
		return Bool(b), nil
	case PrimitiveInt32:
		n, err := decodeInt(j)
		if err != nil {
			return nil, err
		}
		if n < math.MinInt32 || n > math.MaxInt32 {
			return nil, fmt.Errorf("soia: int32 out of range: %d", n)
		}
		return Int32(int32(n)), nil
	case PrimitiveInt64:
		n, err := decodeInt(j)
		if err != nil {
			return nil, err
		}
		return Int64(n), nil
	case PrimitiveUint64:
		switch val := j.(type) {
		case float64:
			if val != math.Trunc(val) || val < 0 {
				return nil, fmt.Errorf("soia: expected uint64, got %v", val)
			}
			return Uint64(uint64(val)), nil
		case string:
			u, err := strconv.ParseUint(val, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("soia: expected uint64, got %q", val)
			}
			return Uint64(u), nil
		default:
			return nil, fmt.Errorf("soia: expected uint64, got %T", j)
		}
	case PrimitiveFloat32:
		f, ok := j.(float64)
		if !ok {
			return nil, fmt.Errorf("soia: expected float32, got %T", j)
		}
		return Float32(float32(f)), nil
	case PrimitiveFloat64:
		f, ok := j.(float64)
		if !ok {
			return nil, fmt.Errorf("soia: expected float64, got %T", j)
		}
		return Float64(f), nil
	case PrimitiveString:
		s, ok := j.(string)
		if !ok {
			return nil, fmt.Errorf("soia: expected string, got %T", j)
		}
		return Str(s), nil
	case PrimitiveBytes:
		s, ok := j.(string)
		if !ok {
			return nil, fmt.Errorf("soia: expected base64 string, got %T", j)
		}
		data, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("soia: invalid base64: %w", err)
		}
		return &Value{kind: KindBytes, bytesVal: data}, nil
	case PrimitiveTimestamp:
		switch val := j.(type) {
		case float64:
			if val != math.Trunc(val) {
				return nil, fmt.Errorf("soia: expected unix millis, got %v", val)
			}
			return UnixMillis(int64(val)), nil
		case map[string]any:
			ms, ok := val["unix_millis"].(float64)
			if !ok {
				return nil, fmt.Errorf("soia: timestamp object missing unix_millis")
			}
			return UnixMillis(int64(ms)), nil
		default:
			return nil, fmt.Errorf("soia: expected timestamp, got %T", j)
		}
	default:
		return nil, fmt.Errorf("soia: invalid primitive %s", p)
	}
}

func decodeInt(j any) (int64, error) {
	switch val := j.(type) {
	case float64:
		if val != math.Trunc(val) {
			return 0, fmt.Errorf("soia: expected integer, got %v", val)
		}
		return int64(val), nil
	case string:
		n, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("soia: expected integer, got %q", val)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("soia: expected integer, got %T", j)
	}
}

func decodeStruct(st *StructType, j any) (*Value, error) {
	slots := make([]*Value, len(st.fields))
	switch val := j.(type) {
	case []any:
		// Dense: slot index is the wire number. Slots with no field in
		// the current schema are skipped; missing trailing slots take
		// defaults.
		for n, elem := range val {
			i, ok := st.byNum[n]
			if !ok {
				continue
			}
			fv, err := decodeValue(st.fields[i].Type, elem)
			if err != nil {
				return nil, fmt.Errorf("%s[%d]: %w", st.id, n, err)
			}
			slots[i] = fv
		}
	case map[string]any:
		// Readable: unknown names are skipped.
		for name, elem := range val {
			i, ok := st.byName[name]
			if !ok {
				continue
			}
			fv, err := decodeValue(st.fields[i].Type, elem)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", st.id, name, err)
			}
			slots[i] = fv
		}
	default:
		return nil, fmt.Errorf("soia: %s: expected array or object, got %T", st.id, j)
	}
	for i := range slots {
		if slots[i] == nil {
			slots[i] = DefaultOf(st.fields[i].Type)
		}
	}
	return &Value{kind: KindStruct, structVal: &Struct{typ: st, fields: slots}}, nil
}

func decodeEnum(et *EnumType, j any) (*Value, error) {
	switch val := j.(type) {
	case float64:
		if val != math.Trunc(val) {
			return nil, fmt.Errorf("soia: %s: expected variant number, got %v", et.id, val)
		}
		variant, ok := et.VariantByNumber(int(val))
		if !ok {
			return et.Unknown(), nil // forward compatibility
		}
		if variant.Type != nil {
			return nil, fmt.Errorf("soia: %s: variant %s requires a payload", et.id, variant.Name)
		}
		return et.Constant(variant.Name), nil

	case string:
		if val == unknownKind {
			return et.Unknown(), nil
		}
		variant, ok := et.VariantByName(val)
		if !ok {
			return et.Unknown(), nil // forward compatibility
		}
		if variant.Type != nil {
			return nil, fmt.Errorf("soia: %s: variant %s requires a payload", et.id, variant.Name)
		}
		return et.Constant(variant.Name), nil

	case []any:
		if len(val) != 2 {
			return nil, fmt.Errorf("soia: %s: expected [number, payload], got %d elements", et.id, len(val))
		}
		num, ok := val[0].(float64)
		if !ok || num != math.Trunc(num) {
			return nil, fmt.Errorf("soia: %s: expected variant number, got %T", et.id, val[0])
		}
		variant, ok := et.VariantByNumber(int(num))
		if !ok {
			return et.Unknown(), nil // unknown data variant: drop the payload
		}
		if variant.Type == nil {
			return nil, fmt.Errorf("soia: %s: variant %s carries no payload", et.id, variant.Name)
		}
		payload, err := decodeValue(variant.Type, val[1])
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", et.id, variant.Name, err)
		}
		return et.Wrap(variant.Name, payload)

	case map[string]any:
		if len(val) != 1 {
			return nil, fmt.Errorf("soia: %s: expected single-key object, got %d keys", et.id, len(val))
		}
		for name, raw := range val {
			variant, ok := et.VariantByName(name)
			if !ok {
				return et.Unknown(), nil
			}
			if variant.Type == nil {
				return nil, fmt.Errorf("soia: %s: variant %s carries no payload", et.id, variant.Name)
			}
			payload, err := decodeValue(variant.Type, raw)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", et.id, variant.Name, err)
			}
			return et.Wrap(variant.Name, payload)
		}
		return et.Unknown(), nil

	default:
		return nil, fmt.Errorf("soia: %s: unexpected JSON shape %T", et.id, j)
	}
}
