package userapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soialang/soia-go/service"
	"github.com/soialang/soia-go/soia"
)

func TestTarzan(t *testing.T) {
	id, err := mustField(t, Tarzan, "user_id").AsInt64()
	require.NoError(t, err)
	assert.Equal(t, int64(123), id)

	pets := mustField(t, Tarzan, "pets")
	require.Equal(t, 1, pets.Len())
	cheeta, err := pets.Index(0)
	require.NoError(t, err)
	name, err := mustField(t, cheeta, "name").AsStr()
	require.NoError(t, err)
	assert.Equal(t, "Cheeta", name)

	status := mustField(t, Tarzan, "subscription_status")
	kind, err := status.EnumKind()
	require.NoError(t, err)
	assert.Equal(t, "trial", kind)

	assert.True(t, Tarzan.IsFrozen())
}

func TestTarzanRoundTrips(t *testing.T) {
	ser := soia.NewSerializer(soia.RecordOf(User))
	for _, readable := range []bool{false, true} {
		code, err := ser.ToJSONCodeWithOpts(Tarzan, soia.EncodeOpts{Readable: readable})
		require.NoError(t, err)
		back, err := ser.FromJSONCode(code)
		require.NoError(t, err)
		assert.True(t, soia.Equal(Tarzan, back), "readable=%t", readable)
	}
}

func TestRegistryHoldsAllRecords(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, 10, r.Len())
	rt, ok := r.Lookup("user.soia:User")
	require.True(t, ok)
	assert.Equal(t, "struct", rt.RecordKind())
	rt, ok = r.Lookup("user.soia:User.SubscriptionStatus")
	require.True(t, ok)
	assert.Equal(t, "enum", rt.RecordKind())
}

func TestStoreAddAndGet(t *testing.T) {
	store := NewStore()

	req, err := AddUserRequest.Partial(soia.F("user", Tarzan))
	require.NoError(t, err)
	_, err = store.HandleAddUser(req, service.Headers{}, service.Headers{})
	require.NoError(t, err)

	getReq, err := GetUserRequest.Partial(soia.F("user_id", soia.Int64(123)))
	require.NoError(t, err)
	res, err := store.HandleGetUser(getReq, service.Headers{}, service.Headers{})
	require.NoError(t, err)
	assert.True(t, soia.Equal(Tarzan, mustField(t, res, "user")))
}

func TestStoreRejectsZeroUserID(t *testing.T) {
	store := NewStore()
	req, err := AddUserRequest.Partial(soia.F("user", User.Default()))
	require.NoError(t, err)
	_, err = store.HandleAddUser(req, service.Headers{}, service.Headers{})
	assert.ErrorContains(t, err, "invalid user id")
}

func TestStoreRegistrySnapshot(t *testing.T) {
	store := NewStore()
	req, err := AddUserRequest.Partial(soia.F("user", Tarzan))
	require.NoError(t, err)
	_, err = store.HandleAddUser(req, service.Headers{}, service.Headers{})
	require.NoError(t, err)

	reg, err := store.Registry()
	require.NoError(t, err)
	users := mustField(t, reg, "users")
	found, ok := users.Find(soia.Int64(123))
	require.True(t, ok)
	assert.True(t, soia.Equal(Tarzan, found))
}

func mustField(t *testing.T, v *soia.Value, name string) *soia.Value {
	t.Helper()
	f, err := v.Field(name)
	require.NoError(t, err)
	return f
}
