package soia

import (
	"testing"
	"time"
)

func TestScalarAccessors(t *testing.T) {
	if b, err := Bool(true).AsBool(); err != nil || !b {
		t.Errorf("AsBool() = %v, %v, want true", b, err)
	}
	if n, err := Int32(-7).AsInt32(); err != nil || n != -7 {
		t.Errorf("AsInt32() = %v, %v, want -7", n, err)
	}
	if n, err := Int64(1 << 60).AsInt64(); err != nil || n != 1<<60 {
		t.Errorf("AsInt64() = %v, %v", n, err)
	}
	if u, err := Uint64(1 << 63).AsUint64(); err != nil || u != 1<<63 {
		t.Errorf("AsUint64() = %v, %v", u, err)
	}
	if f, err := Float64(3.5).AsFloat64(); err != nil || f != 3.5 {
		t.Errorf("AsFloat64() = %v, %v, want 3.5", f, err)
	}
	if s, err := Str("hi").AsStr(); err != nil || s != "hi" {
		t.Errorf("AsStr() = %q, %v, want hi", s, err)
	}
}

func TestAccessorKindMismatch(t *testing.T) {
	if _, err := Str("hi").AsInt64(); err == nil {
		t.Error("AsInt64 on string should fail")
	}
	if _, err := Int64(1).AsBool(); err == nil {
		t.Error("AsBool on int64 should fail")
	}
	var nilVal *Value
	if _, err := nilVal.AsStr(); err == nil {
		t.Error("AsStr on nil should fail")
	}
}

func TestBytesCopyIn(t *testing.T) {
	buf := []byte{1, 2, 3}
	v := BytesVal(buf)
	buf[0] = 99
	got, err := v.AsBytes()
	if err != nil {
		t.Fatalf("AsBytes failed: %v", err)
	}
	if got[0] != 1 {
		t.Errorf("bytes value aliased the caller's buffer: got %v", got)
	}
}

func TestTimeMillisecondPrecision(t *testing.T) {
	in := time.Date(2025, 4, 2, 11, 13, 29, 123456789, time.UTC)
	v := Time(in)
	got, err := v.AsTime()
	if err != nil {
		t.Fatalf("AsTime failed: %v", err)
	}
	if got.Nanosecond()%int(time.Millisecond) != 0 {
		t.Errorf("timestamp not truncated to millis: %v", got)
	}
	if got.UnixMilli() != in.UnixMilli() {
		t.Errorf("UnixMilli = %d, want %d", got.UnixMilli(), in.UnixMilli())
	}
}

func TestEqualScalars(t *testing.T) {
	tests := []struct {
		name string
		a, b *Value
		want bool
	}{
		{"equal ints", Int64(5), Int64(5), true},
		{"unequal ints", Int64(5), Int64(6), false},
		{"kind mismatch", Int64(5), Int32(5), false},
		{"equal strings", Str("a"), Str("a"), true},
		{"unequal strings", Str("a"), Str("b"), false},
		{"equal bools", Bool(true), Bool(true), true},
		{"equal bytes", BytesVal([]byte{1}), BytesVal([]byte{1}), true},
		{"unequal bytes", BytesVal([]byte{1}), BytesVal([]byte{2}), false},
		{"equal times", UnixMillis(1000), UnixMillis(1000), true},
		{"nil both", nil, nil, true},
		{"nil one", nil, Int64(0), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Equal(tt.a, tt.b); got != tt.want {
				t.Errorf("Equal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEqualAcrossFlavors(t *testing.T) {
	frozen := johnDoe()
	mut := frozen.ToMutable()
	if !Equal(frozen, mut) {
		t.Error("frozen and mutable copies with equal contents should compare equal")
	}
	if err := mut.SetField("name", Str("Someone Else")); err != nil {
		t.Fatalf("SetField failed: %v", err)
	}
	if Equal(frozen, mut) {
		t.Error("values should differ after mutation")
	}
}

func TestDefaultOf(t *testing.T) {
	if s := mustStr(DefaultOf(StringType)); s != "" {
		t.Errorf("string default = %q, want empty", s)
	}
	if n := mustInt64(DefaultOf(Int64Type)); n != 0 {
		t.Errorf("int64 default = %d, want 0", n)
	}
	arr := DefaultOf(ArrayOf(StringType))
	if arr.Len() != 0 {
		t.Errorf("array default length = %d, want 0", arr.Len())
	}
	ts, err := DefaultOf(TimestampType).AsTime()
	if err != nil || ts.UnixMilli() != 0 {
		t.Errorf("timestamp default = %v, %v, want unix epoch", ts, err)
	}
	enum := DefaultOf(RecordOf(testStatus))
	kind, err := enum.EnumKind()
	if err != nil || kind != "?" {
		t.Errorf("enum default kind = %q, %v, want ?", kind, err)
	}
}

func TestIsFrozen(t *testing.T) {
	if !Int64(1).IsFrozen() {
		t.Error("scalars are always frozen")
	}
	if !johnDoe().IsFrozen() {
		t.Error("frozen struct should report frozen")
	}
	if johnDoe().ToMutable().IsFrozen() {
		t.Error("mutable struct should not report frozen")
	}
}
