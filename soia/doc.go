// Package soia implements the soia record runtime: schema-described
// structs and enums with frozen/mutable duality, dual JSON encodings,
// keyed arrays, and runtime reflection.
//
// # Record Model
//
// Record definitions come from the schema compiler as ordered field
// lists with stable wire numbers (StructType, EnumType). Values are
// dynamic (Value) and come in two flavors:
//   - Frozen: deeply immutable, structural equality, safe to share
//     across goroutines without synchronization.
//   - Mutable: freely editable in place, confined to one owner at a
//     time, convertible to/from frozen.
//
// ToMutable is a shallow copy; ToFrozen is a deep conversion that
// reuses already-frozen children. MutableField promotes a nested field
// to its mutable flavor on first write-intent access.
//
// # Dual Encoding
//
// Serializer produces two round-trip-equivalent JSON flavors:
//   - Dense: positional arrays indexed by wire number. Stable across
//     field renames; the flavor to persist and transmit.
//   - Readable: field-name-keyed objects for human inspection.
//
// Decoding tolerates additive schema evolution: unknown fields are
// skipped, short dense arrays default-fill, and unrecognized enum
// variants degrade to UNKNOWN instead of failing.
//
// # Example
//
//	user := userType.MustPartial(
//		soia.F("user_id", soia.Int64(42)),
//		soia.F("name", soia.Str("John Doe")),
//	)
//	code, _ := soia.NewSerializer(soia.RecordOf(userType)).ToJSONCode(user)
//	// [42,"John Doe"]
//
// # Reflection
//
// TypeDescriptorOf returns a self-describing descriptor of a type and
// every record it transitively references; the descriptor is itself a
// value of this runtime and round-trips through the same Serializer.
package soia
