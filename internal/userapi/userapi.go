// Package userapi declares the user schema and the methods of the demo
// user service. It stands in for compiler-generated schema bindings:
// record types are defined once at package init and shared by the
// server and client binaries.
package userapi

import (
	"time"

	"github.com/soialang/soia-go/service"
	"github.com/soialang/soia-go/soia"
)

// ============================================================
// Records
// ============================================================

// Pet is a pet owned by a user.
var Pet = soia.MustStructType("user.soia:User.Pet",
	soia.Field{Name: "name", Number: 0, Type: soia.StringType},
	soia.Field{Name: "height_in_meters", Number: 1, Type: soia.Float32Type},
	soia.Field{Name: "picture", Number: 2, Type: soia.StringType},
)

// Trial is the payload of the trial subscription variant.
var Trial = soia.MustStructType("user.soia:User.Trial",
	soia.Field{Name: "start_time", Number: 0, Type: soia.TimestampType},
)

// SubscriptionStatus is the subscription state of a user. FREE and
// PREMIUM are constants; trial carries the trial's start time.
var SubscriptionStatus = soia.MustEnumType("user.soia:User.SubscriptionStatus",
	soia.Variant{Name: "FREE", Number: 1},
	soia.Variant{Name: "PREMIUM", Number: 2},
	soia.Variant{Name: "trial", Number: 3, Type: soia.RecordOf(Trial)},
)

// User is one user of the system, addressed by user_id.
var User = soia.MustStructType("user.soia:User",
	soia.Field{Name: "user_id", Number: 0, Type: soia.Int64Type},
	soia.Field{Name: "name", Number: 1, Type: soia.StringType},
	soia.Field{Name: "quote", Number: 2, Type: soia.StringType},
	soia.Field{Name: "pets", Number: 3, Type: soia.ArrayOf(soia.RecordOf(Pet))},
	soia.Field{Name: "subscription_status", Number: 4, Type: soia.RecordOf(SubscriptionStatus)},
)

// UserHistory wraps a user for history tracking.
var UserHistory = soia.MustStructType("user.soia:UserHistory",
	soia.Field{Name: "user", Number: 0, Type: soia.RecordOf(User)},
)

// UserRegistry holds users keyed by user_id for O(1) lookup.
var UserRegistry = soia.MustStructType("user.soia:UserRegistry",
	soia.Field{Name: "users", Number: 0, Type: soia.KeyedArrayOf(soia.RecordOf(User), "user_id")},
)

// Tarzan is a sample user exercising every field.
var Tarzan = User.MustPartial(
	soia.F("user_id", soia.Int64(123)),
	soia.F("name", soia.Str("Tarzan")),
	soia.F("quote", soia.Str("AAAAaAaAaAyAAAAaAaAaAyAAAAaAaAaA")),
	soia.F("pets", soia.List(Pet.MustPartial(
		soia.F("name", soia.Str("Cheeta")),
		soia.F("height_in_meters", soia.Float32(1.67)),
		soia.F("picture", soia.Str("🐒")),
	))),
	soia.F("subscription_status", SubscriptionStatus.MustWrap("trial", Trial.MustPartial(
		soia.F("start_time", soia.Time(time.UnixMilli(1743592409000))),
	))),
)

// ============================================================
// Methods
// ============================================================

// GetUserRequest asks for the user with the given id.
var GetUserRequest = soia.MustStructType("service.soia:GetUserRequest",
	soia.Field{Name: "user_id", Number: 0, Type: soia.Int64Type},
)

// GetUserResponse carries the found user, or the default User if the
// id is unknown.
var GetUserResponse = soia.MustStructType("service.soia:GetUserResponse",
	soia.Field{Name: "user", Number: 0, Type: soia.RecordOf(User)},
)

// AddUserRequest adds or replaces one user.
var AddUserRequest = soia.MustStructType("service.soia:AddUserRequest",
	soia.Field{Name: "user", Number: 0, Type: soia.RecordOf(User)},
)

// AddUserResponse is empty; a non-200 status reports failure.
var AddUserResponse = soia.MustStructType("service.soia:AddUserResponse")

// Method descriptors. The numbers are stable wire identifiers and must
// never be reused for a different method.
var (
	GetUser = service.Method{
		Name:     "GetUser",
		Number:   689081537,
		Request:  soia.RecordOf(GetUserRequest),
		Response: soia.RecordOf(GetUserResponse),
	}
	AddUser = service.Method{
		Name:     "AddUser",
		Number:   893341829,
		Request:  soia.RecordOf(AddUserRequest),
		Response: soia.RecordOf(AddUserResponse),
	}
)

// NewRegistry returns a record registry holding every record this
// package declares.
func NewRegistry() *soia.Registry {
	r := soia.NewRegistry()
	r.MustRegister(User)
	r.MustRegister(Pet)
	r.MustRegister(Trial)
	r.MustRegister(SubscriptionStatus)
	r.MustRegister(UserHistory)
	r.MustRegister(UserRegistry)
	r.MustRegister(GetUserRequest)
	r.MustRegister(GetUserResponse)
	r.MustRegister(AddUserRequest)
	r.MustRegister(AddUserResponse)
	return r
}
