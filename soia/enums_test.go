package soia

import (
	"testing"
)

func TestEnumConstantsAreSingletons(t *testing.T) {
	a := testStatus.Constant("FREE")
	b := testStatus.Constant("FREE")
	if a != b {
		t.Error("constants should be precomputed singletons")
	}
	kind, err := a.EnumKind()
	if err != nil || kind != "FREE" {
		t.Errorf("EnumKind() = %q, %v, want FREE", kind, err)
	}
	payload, err := a.EnumPayload()
	if err != nil || payload != nil {
		t.Errorf("EnumPayload() = %v, %v, want nil", payload, err)
	}
}

func TestEnumUnknown(t *testing.T) {
	u := testStatus.Unknown()
	kind, err := u.EnumKind()
	if err != nil || kind != "?" {
		t.Errorf("EnumKind() = %q, %v, want ?", kind, err)
	}
	if testStatus.Unknown() != u {
		t.Error("UNKNOWN should be a singleton")
	}
}

func TestEnumConstantMisusePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Constant on an undeclared name should panic")
		}
	}()
	testStatus.Constant("GOLD")
}

func TestEnumWrap(t *testing.T) {
	trial := testTrial.MustPartial(F("start_time", UnixMillis(1744974198000)))
	status, err := testStatus.Wrap("trial", trial)
	if err != nil {
		t.Fatalf("Wrap failed: %v", err)
	}
	kind, _ := status.EnumKind()
	if kind != "trial" {
		t.Errorf("EnumKind() = %q, want trial", kind)
	}
	payload, _ := status.EnumPayload()
	if !Equal(payload, trial) {
		t.Error("payload should equal the wrapped value")
	}
}

func TestEnumWrapErrors(t *testing.T) {
	if _, err := testStatus.Wrap("FREE", Int64(1)); err == nil {
		t.Error("Wrap on a constant variant should fail")
	}
	if _, err := testStatus.Wrap("gold", Int64(1)); err == nil {
		t.Error("Wrap on an undeclared variant should fail")
	}
	if _, err := testStatus.Wrap("trial", Int64(1)); err == nil {
		t.Error("Wrap with a wrong-shape payload should fail")
	}
}

func TestEnumCreate(t *testing.T) {
	status, err := testStatus.Create("trial", F("start_time", UnixMillis(1743592409000)))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	payload, _ := status.EnumPayload()
	ts, err := mustField(payload, "start_time").AsTime()
	if err != nil || ts.UnixMilli() != 1743592409000 {
		t.Errorf("start_time = %v, %v", ts, err)
	}
}

func TestEnumEquality(t *testing.T) {
	trial := testTrial.MustPartial(F("start_time", UnixMillis(1000)))
	a, _ := testStatus.Wrap("trial", trial)
	b, _ := testStatus.Wrap("trial", trial)
	if !Equal(a, b) {
		t.Error("same tag and payload should compare equal")
	}
	other, _ := testStatus.Wrap("trial", testTrial.MustPartial(F("start_time", UnixMillis(2000))))
	if Equal(a, other) {
		t.Error("different payloads should not compare equal")
	}
	if Equal(testStatus.Constant("FREE"), testStatus.Constant("PREMIUM")) {
		t.Error("different constants should not compare equal")
	}
}

func TestEnumSwitch(t *testing.T) {
	var got string
	cases := map[string]EnumCase{
		"?":       func(*Value) error { got = "unknown"; return nil },
		"FREE":    func(*Value) error { got = "free"; return nil },
		"PREMIUM": func(*Value) error { got = "premium"; return nil },
		"trial":   func(p *Value) error { got = "trial:" + mustField(p, "start_time").Kind().String(); return nil },
	}

	if err := testStatus.Constant("FREE").Switch(cases); err != nil || got != "free" {
		t.Errorf("Switch(FREE) -> %q, %v", got, err)
	}
	if err := testStatus.Unknown().Switch(cases); err != nil || got != "unknown" {
		t.Errorf("Switch(UNKNOWN) -> %q, %v", got, err)
	}
	status, _ := testStatus.Create("trial", F("start_time", UnixMillis(1)))
	if err := status.Switch(cases); err != nil || got != "trial:timestamp" {
		t.Errorf("Switch(trial) -> %q, %v", got, err)
	}
}

func TestEnumSwitchUnhandledKindPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Switch with a missing case should panic")
		}
	}()
	_ = testStatus.Constant("FREE").Switch(map[string]EnumCase{
		"?": func(*Value) error { return nil },
	})
}
