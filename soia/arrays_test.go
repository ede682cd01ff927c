package soia

import (
	"testing"
)

func testRegistryOf(t *testing.T, users ...*Value) *Value {
	t.Helper()
	reg, err := testUserRegistry.Partial(F("users", List(users...)))
	if err != nil {
		t.Fatalf("UserRegistry construction failed: %v", err)
	}
	return mustField(reg, "users")
}

func TestFind(t *testing.T) {
	users := testRegistryOf(t, johnDoe(), janeDoe())

	found, ok := users.Find(Int64(42))
	if !ok {
		t.Fatal("Find(42) should find John")
	}
	if got := mustStr(mustField(found, "name")); got != "John Doe" {
		t.Errorf("Find(42).name = %q, want John Doe", got)
	}
	if _, ok := users.Find(Int64(100)); ok {
		t.Error("Find(100) should find nothing")
	}
}

func TestFindOrDefault(t *testing.T) {
	users := testRegistryOf(t, johnDoe())
	if got := mustStr(mustField(users.FindOrDefault(Int64(42)), "name")); got != "John Doe" {
		t.Errorf("FindOrDefault(42).name = %q", got)
	}
	// Misses return the element type's DEFAULT, never an absence.
	miss := users.FindOrDefault(Int64(100))
	if miss != testUser.Default() {
		t.Error("FindOrDefault miss should return the DEFAULT singleton")
	}
	if got := mustStr(mustField(miss, "name")); got != "" {
		t.Errorf("FindOrDefault(100).name = %q, want empty", got)
	}
}

func TestFindDuplicateKeysLastWins(t *testing.T) {
	first := testUser.MustPartial(F("user_id", Int64(7)), F("name", Str("First")))
	second := testUser.MustPartial(F("user_id", Int64(7)), F("name", Str("Second")))
	users := testRegistryOf(t, first, second)

	found, ok := users.Find(Int64(7))
	if !ok {
		t.Fatal("Find(7) should succeed")
	}
	if got := mustStr(mustField(found, "name")); got != "Second" {
		t.Errorf("duplicate key lookup = %q, want the later item", got)
	}
}

func TestFindReadsMutableItemsAtConstruction(t *testing.T) {
	mut, err := testUser.Mutable(F("user_id", Int64(44)), F("name", Str("Lyla Doe")))
	if err != nil {
		t.Fatalf("Mutable failed: %v", err)
	}
	users := testRegistryOf(t, johnDoe(), mut)

	// The index sees the key value the item had when the array froze.
	if err := mut.SetField("user_id", Int64(77)); err != nil {
		t.Fatalf("SetField failed: %v", err)
	}
	found, ok := users.Find(Int64(44))
	if !ok {
		t.Fatal("Find(44) should succeed")
	}
	if got := mustStr(mustField(found, "name")); got != "Lyla Doe" {
		t.Errorf("Find(44).name = %q", got)
	}
}

func TestFindOnUnkeyedArrayPanics(t *testing.T) {
	jane := janeDoe()
	defer func() {
		if recover() == nil {
			t.Error("Find on an unkeyed array should panic")
		}
	}()
	pets := mustField(jane, "pets")
	pets.Find(Str("Fluffy"))
}

func TestNewArrayCopyInAndFreeze(t *testing.T) {
	typ := KeyedArrayOf(RecordOf(testUser), "user_id")
	mut, _ := testUser.Mutable(F("user_id", Int64(1)), F("name", Str("A")))
	arr, err := NewArray(typ, mut)
	if err != nil {
		t.Fatalf("NewArray failed: %v", err)
	}
	// Items supplied as mutable are read, not retained.
	if err := mut.SetField("name", Str("B")); err != nil {
		t.Fatalf("SetField failed: %v", err)
	}
	item, _ := arr.Index(0)
	if got := mustStr(mustField(item, "name")); got != "A" {
		t.Errorf("array item aliased a live mutable value: name = %q", got)
	}
}

func TestNewArrayElementTypeChecked(t *testing.T) {
	if _, err := NewArray(ArrayOf(StringType), Int64(1)); err == nil {
		t.Error("NewArray with a wrong-kind item should fail")
	}
	if _, err := NewArray(StringType); err == nil {
		t.Error("NewArray with a non-array type should fail")
	}
}

func TestAppendTypeChecked(t *testing.T) {
	mut, _ := testUser.Mutable()
	pets, err := mut.MutableField("pets")
	if err != nil {
		t.Fatalf("MutableField failed: %v", err)
	}
	if err := pets.Append(Str("not a pet")); err == nil {
		t.Error("Append with a wrong-kind item should fail")
	}
	if err := pets.Append(testPet.MustPartial(F("name", Str("Simba")))); err != nil {
		t.Errorf("Append failed: %v", err)
	}
	if pets.Len() != 1 {
		t.Errorf("pets length = %d, want 1", pets.Len())
	}
}

func TestAppendToFrozenPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Append to a frozen array should panic")
		}
	}()
	_ = mustField(janeDoe(), "pets").Append(testPet.Default())
}

func TestSetAt(t *testing.T) {
	arr := List(Str("a"), Str("b"))
	if err := arr.SetAt(1, Str("c")); err != nil {
		t.Fatalf("SetAt failed: %v", err)
	}
	item, _ := arr.Index(1)
	if got := mustStr(item); got != "c" {
		t.Errorf("items[1] = %q, want c", got)
	}
	if err := arr.SetAt(5, Str("x")); err == nil {
		t.Error("SetAt out of bounds should fail")
	}
}

func TestIndexOutOfBounds(t *testing.T) {
	arr := List(Str("a"))
	if _, err := arr.Index(1); err == nil {
		t.Error("Index out of bounds should fail")
	}
	if _, err := arr.Index(-1); err == nil {
		t.Error("negative index should fail")
	}
}
