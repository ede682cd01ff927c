package soia

// The user.soia schema used throughout the package tests.

var testTrial = MustStructType("user.soia:User.Trial",
	Field{Name: "start_time", Number: 0, Type: TimestampType},
)

var testStatus = MustEnumType("user.soia:User.SubscriptionStatus",
	Variant{Name: "FREE", Number: 1},
	Variant{Name: "PREMIUM", Number: 2},
	Variant{Name: "trial", Number: 3, Type: RecordOf(testTrial)},
)

var testPet = MustStructType("user.soia:User.Pet",
	Field{Name: "name", Number: 0, Type: StringType},
	Field{Name: "height_in_meters", Number: 1, Type: Float64Type},
	Field{Name: "picture", Number: 2, Type: StringType},
)

var testUser = MustStructType("user.soia:User",
	Field{Name: "user_id", Number: 0, Type: Int64Type},
	Field{Name: "name", Number: 1, Type: StringType},
	Field{Name: "quote", Number: 2, Type: StringType},
	Field{Name: "pets", Number: 3, Type: ArrayOf(RecordOf(testPet))},
	Field{Name: "subscription_status", Number: 4, Type: RecordOf(testStatus)},
)

var testUserHistory = MustStructType("user.soia:UserHistory",
	Field{Name: "user", Number: 0, Type: RecordOf(testUser)},
)

var testUserRegistry = MustStructType("user.soia:UserRegistry",
	Field{Name: "users", Number: 0, Type: KeyedArrayOf(RecordOf(testUser), "user_id")},
)

var testUserSerializer = NewSerializer(RecordOf(testUser))

// mustField reads a field or fails hard; test convenience.
func mustField(v *Value, name string) *Value {
	fv, err := v.Field(name)
	if err != nil {
		panic(err)
	}
	return fv
}

func mustStr(v *Value) string {
	s, err := v.AsStr()
	if err != nil {
		panic(err)
	}
	return s
}

func mustInt64(v *Value) int64 {
	n, err := v.AsInt64()
	if err != nil {
		panic(err)
	}
	return n
}

func johnDoe() *Value {
	return testUser.MustPartial(
		F("user_id", Int64(42)),
		F("name", Str("John Doe")),
	)
}

func janeDoe() *Value {
	return testUser.MustPartial(
		F("user_id", Int64(43)),
		F("name", Str("Jane Doe")),
		F("quote", Str("I am Jane.")),
		F("pets", List(
			testPet.MustPartial(F("name", Str("Fluffy"))),
			testPet.MustPartial(F("name", Str("Fido"))),
		)),
		F("subscription_status", testStatus.Constant("PREMIUM")),
	)
}
