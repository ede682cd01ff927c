package userapi

import (
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/soialang/soia-go/service"
	"github.com/soialang/soia-go/soia"
)

// Store is an in-memory user store with the handlers of the demo
// service. Handlers run concurrently, so the map is mutex-guarded.
type Store struct {
	mu    sync.Mutex
	users map[int64]*soia.Value
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{users: make(map[int64]*soia.Value)}
}

// Register adds the store's handlers to a service.
func (s *Store) Register(svc *service.Service) {
	svc.MustAddMethod(GetUser, s.HandleGetUser)
	svc.MustAddMethod(AddUser, s.HandleAddUser)
}

// HandleGetUser returns the stored user with the requested id, or the
// default User when the id is unknown.
func (s *Store) HandleGetUser(req *soia.Value, _, _ service.Headers) (*soia.Value, error) {
	idField, err := req.Field("user_id")
	if err != nil {
		return nil, err
	}
	id, err := idField.AsInt64()
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	user := s.users[id]
	s.mu.Unlock()
	if user == nil {
		return GetUserResponse.Partial()
	}
	return GetUserResponse.Partial(soia.F("user", user))
}

// HandleAddUser stores the user from the request. A zero user_id is
// rejected so the default User can never be written by accident. It
// echoes the X-Foo request header back, uppercased, as X-Bar.
func (s *Store) HandleAddUser(req *soia.Value, reqHeaders, resHeaders service.Headers) (*soia.Value, error) {
	user, err := req.Field("user")
	if err != nil {
		return nil, err
	}
	idField, err := user.Field("user_id")
	if err != nil {
		return nil, err
	}
	id, err := idField.AsInt64()
	if err != nil {
		return nil, err
	}
	if id == 0 {
		return nil, errors.New("invalid user id")
	}
	s.mu.Lock()
	s.users[id] = user.ToFrozen()
	s.mu.Unlock()
	resHeaders.Set("X-Bar", strings.ToUpper(reqHeaders.Get("X-Foo")))
	return AddUserResponse.Partial()
}

// Registry snapshots the store into a frozen UserRegistry value.
func (s *Store) Registry() (*soia.Value, error) {
	s.mu.Lock()
	users := make([]*soia.Value, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}
	s.mu.Unlock()
	return UserRegistry.Partial(soia.F("users", soia.List(users...)))
}
