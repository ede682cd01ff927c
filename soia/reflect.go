package soia

// ============================================================
// Reflection
// ============================================================
//
// Every type has a descriptor: a value of a fixed meta-schema listing
// the type itself plus every record reachable from it, each exactly
// once, addressed by its stable id. The descriptor is an ordinary
// value of this runtime, so it serializes through the ordinary
// Serializer and round-trips like any other value.

// The meta-schema. Two-phase definition because the Type enum and the
// ArrayType struct reference each other.
var (
	metaType       = NewEnumType("soia.reflection:Type")
	metaArrayType  = NewStructType("soia.reflection:ArrayType")
	metaField      = NewStructType("soia.reflection:Field")
	metaRecord     = NewStructType("soia.reflection:Record")
	metaDescriptor = NewStructType("soia.reflection:TypeDescriptor")
)

func init() {
	mustDefine(metaType.Define(
		Variant{Name: "primitive", Number: 1, Type: StringType},
		Variant{Name: "array", Number: 2, Type: RecordOf(metaArrayType)},
		Variant{Name: "record", Number: 3, Type: StringType},
	))
	mustDefine(metaArrayType.Define(
		Field{Name: "item", Number: 0, Type: RecordOf(metaType)},
		Field{Name: "key_field", Number: 1, Type: StringType},
	))
	mustDefine(metaField.Define(
		Field{Name: "name", Number: 0, Type: StringType},
		Field{Name: "type", Number: 1, Type: RecordOf(metaType)},
		Field{Name: "number", Number: 2, Type: Int32Type},
	))
	mustDefine(metaRecord.Define(
		Field{Name: "kind", Number: 0, Type: StringType},
		Field{Name: "id", Number: 1, Type: StringType},
		Field{Name: "fields", Number: 2, Type: ArrayOf(RecordOf(metaField))},
	))
	mustDefine(metaDescriptor.Define(
		Field{Name: "type", Number: 0, Type: RecordOf(metaType)},
		Field{Name: "records", Number: 1, Type: KeyedArrayOf(RecordOf(metaRecord), "id")},
	))
}

func mustDefine(err error) {
	if err != nil {
		panic(err)
	}
}

// TypeDescriptorSerializer returns the serializer for descriptor
// values; use it with TypeDescriptorOf for wire transport.
func TypeDescriptorSerializer() Serializer {
	return NewSerializer(RecordOf(metaDescriptor))
}

// TypeDescriptorOf returns the descriptor of a type. Descriptors of
// record types are computed once per record and cached; the lazy build
// runs under an initialization guard, so concurrent readers are safe.
func TypeDescriptorOf(t *Type) *Value {
	if t.Kind == TypeRecord {
		return t.Record.descriptor()
	}
	return buildDescriptor(t)
}

func (st *StructType) descriptor() *Value {
	st.descOnce.Do(func() {
		st.desc = buildDescriptor(RecordOf(st))
	})
	return st.desc
}

func (et *EnumType) descriptor() *Value {
	et.descOnce.Do(func() {
		et.desc = buildDescriptor(RecordOf(et))
	})
	return et.desc
}

// buildDescriptor walks the closure of records reachable from t. Each
// record appears once, root first, dependencies in discovery order;
// recursion terminates because record bodies are listed flat and
// referenced by id elsewhere.
func buildDescriptor(t *Type) *Value {
	b := &descriptorBuilder{seen: make(map[string]bool)}
	root := b.typeValue(t)
	records := List(b.records...)
	return metaDescriptor.MustPartial(F("type", root), F("records", records))
}

type descriptorBuilder struct {
	seen    map[string]bool
	records []*Value
}

func (b *descriptorBuilder) typeValue(t *Type) *Value {
	switch t.Kind {
	case TypePrimitive:
		return metaType.MustWrap("primitive", Str(t.Primitive.String()))
	case TypeArray:
		arr := metaArrayType.MustPartial(
			F("item", b.typeValue(t.Elem)),
			F("key_field", Str(t.KeyField)),
		)
		return metaType.MustWrap("array", arr)
	case TypeRecord:
		b.visitRecord(t.Record)
		return metaType.MustWrap("record", Str(t.Record.RecordID()))
	default:
		panic("soia: invalid type")
	}
}

func (b *descriptorBuilder) visitRecord(rt RecordType) {
	id := rt.RecordID()
	if b.seen[id] {
		return
	}
	b.seen[id] = true
	// Reserve the slot before recursing so the record precedes its
	// dependencies even in self-referential schemas.
	slot := len(b.records)
	b.records = append(b.records, nil)

	var fields []*Value
	switch rec := rt.(type) {
	case *StructType:
		for _, f := range rec.Fields() {
			fields = append(fields, metaField.MustPartial(
				F("name", Str(f.Name)),
				F("type", b.typeValue(f.Type)),
				F("number", Int32(int32(f.Number))),
			))
		}
	case *EnumType:
		for _, v := range rec.Variants() {
			fv := []FieldValue{
				F("name", Str(v.Name)),
				F("number", Int32(int32(v.Number))),
			}
			if v.Type != nil {
				fv = append(fv, F("type", b.typeValue(v.Type)))
			}
			fields = append(fields, metaField.MustPartial(fv...))
		}
	}
	b.records[slot] = metaRecord.MustPartial(
		F("kind", Str(rt.RecordKind())),
		F("id", Str(id)),
		F("fields", List(fields...)),
	)
}

// TypeDescriptorJSONCode renders a type's descriptor as readable JSON.
func TypeDescriptorJSONCode(t *Type) (string, error) {
	return TypeDescriptorSerializer().ToJSONCodeWithOpts(TypeDescriptorOf(t), EncodeOpts{Readable: true})
}

// TypeDescriptorFromJSONCode decodes a descriptor value from JSON text
// of either flavor.
func TypeDescriptorFromJSONCode(code string) (*Value, error) {
	return TypeDescriptorSerializer().FromJSONCode(code)
}

// TypeDescriptorsEqual compares two descriptor values by their
// JSON-normalized (dense) forms.
func TypeDescriptorsEqual(a, b *Value) (bool, error) {
	ser := TypeDescriptorSerializer()
	ca, err := ser.ToJSONCode(a)
	if err != nil {
		return false, err
	}
	cb, err := ser.ToJSONCode(b)
	if err != nil {
		return false, err
	}
	return ca == cb, nil
}
