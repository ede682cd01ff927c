// Package service implements RPC method dispatch over the soia codec.
//
// A Service is an explicit, owned routing table: methods are registered
// on it once and the table is passed by reference into the transport's
// request entry point. The dispatcher parses a textual envelope, decodes
// the request payload with the method's request serializer, invokes the
// handler, and encodes the response in the same flavor the caller used.
// Headers travel beside the payload as an opaque text side-channel; the
// dispatcher never interprets them.
package service

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/soialang/soia-go/soia"
)

// ============================================================
// Headers
// ============================================================

// Headers is the opaque key/value text side-channel carried beside a
// request and a response. Keys are canonicalized the way HTTP header
// names are, so lookups are case-insensitive.
type Headers map[string]string

// Get returns the value stored under the canonical form of key, or ""
// if absent.
func (h Headers) Get(key string) string {
	if h == nil {
		return ""
	}
	return h[http.CanonicalHeaderKey(key)]
}

// Set stores value under the canonical form of key.
func (h Headers) Set(key, value string) {
	h[http.CanonicalHeaderKey(key)] = value
}

// HeadersFromHTTP copies an http.Header into a Headers map, keeping the
// first value of each entry.
func HeadersFromHTTP(src http.Header) Headers {
	h := make(Headers, len(src))
	for k, vs := range src {
		if len(vs) > 0 {
			h[http.CanonicalHeaderKey(k)] = vs[0]
		}
	}
	return h
}

// ============================================================
// Methods and Handlers
// ============================================================

// Method identifies one RPC method: a name, a stable wire number, and
// the request/response types.
type Method struct {
	Name     string
	Number   int
	Request  *soia.Type
	Response *soia.Type
}

// Handler implements one method. The request value is frozen. Handlers
// may read reqHeaders and write resHeaders. Returning an error produces
// a server-error result; the dispatcher adds no concurrency control, so
// handlers touching shared state must lock it themselves.
type Handler func(req *soia.Value, reqHeaders Headers, resHeaders Headers) (*soia.Value, error)

type methodEntry struct {
	method  Method
	handler Handler
}

// Service routes request envelopes to registered method handlers.
// The zero value is not usable; create with NewService.
type Service struct {
	mu       sync.RWMutex
	byName   map[string]*methodEntry
	byNumber map[int]*methodEntry
	ordered  []*methodEntry
}

// NewService creates an empty service.
func NewService() *Service {
	return &Service{
		byName:   make(map[string]*methodEntry),
		byNumber: make(map[int]*methodEntry),
	}
}

// AddMethod registers a handler for a method. A duplicate name or
// number is an error.
func (s *Service) AddMethod(m Method, h Handler) error {
	if m.Name == "" {
		return errors.New("service: method name is empty")
	}
	if strings.Contains(m.Name, ":") {
		return errors.Errorf("service: method name %q contains ':'", m.Name)
	}
	if m.Request == nil || m.Response == nil {
		return errors.Errorf("service: method %s: nil request or response type", m.Name)
	}
	if h == nil {
		return errors.Errorf("service: method %s: nil handler", m.Name)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.byName[m.Name]; dup {
		return errors.Errorf("service: method %s already registered", m.Name)
	}
	if _, dup := s.byNumber[m.Number]; dup {
		return errors.Errorf("service: method number %d already registered", m.Number)
	}
	e := &methodEntry{method: m, handler: h}
	s.byName[m.Name] = e
	s.byNumber[m.Number] = e
	s.ordered = append(s.ordered, e)
	return nil
}

// MustAddMethod is AddMethod, panicking on error. Intended for service
// setup at program start.
func (s *Service) MustAddMethod(m Method, h Handler) {
	if err := s.AddMethod(m, h); err != nil {
		panic(err)
	}
}

// Methods returns the registered methods in registration order.
func (s *Service) Methods() []Method {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Method, len(s.ordered))
	for i, e := range s.ordered {
		out[i] = e.method
	}
	return out
}

func (s *Service) lookup(name string, number int) (*methodEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if e, ok := s.byNumber[number]; ok {
		return e, true
	}
	// Fall back to the name so callers built against an older numbering
	// still resolve.
	e, ok := s.byName[name]
	return e, ok
}

// ============================================================
// Request handling
// ============================================================

// RawResponse is the transport-agnostic result of dispatching one
// request. StatusCode uses HTTP status semantics: 200 ok, 400 bad
// envelope or undecodable payload, 404 unknown method, 500 handler
// failure.
type RawResponse struct {
	Data        string
	StatusCode  int
	ContentType string
}

const (
	jsonContentType = "application/json"
	textContentType = "text/plain"

	// listBody enumerates the registered methods instead of invoking one.
	listBody = "list"

	readableFormat = "readable"
)

func errorResponse(status int, err error) RawResponse {
	return RawResponse{Data: err.Error(), StatusCode: status, ContentType: textContentType}
}

// HandleRequest dispatches one request envelope.
//
// The envelope is "method:number:format:payload" where format is ""
// for the dense flavor or "readable". The special body "list" returns
// a JSON description of every registered method, including the type
// descriptors of its request and response.
//
// A failure inside the handler, panic included, is reported as a 500
// result rather than escaping into the transport layer.
func (s *Service) HandleRequest(body string, reqHeaders, resHeaders Headers) RawResponse {
	if body == listBody {
		return s.listMethods()
	}

	parts := strings.SplitN(body, ":", 4)
	if len(parts) != 4 {
		return errorResponse(http.StatusBadRequest,
			errors.New("service: bad request envelope: want method:number:format:payload"))
	}
	name, numberStr, format, payload := parts[0], parts[1], parts[2], parts[3]

	number, err := strconv.Atoi(numberStr)
	if err != nil {
		return errorResponse(http.StatusBadRequest,
			errors.Errorf("service: bad method number %q", numberStr))
	}
	if format != "" && format != readableFormat {
		return errorResponse(http.StatusBadRequest,
			errors.Errorf("service: bad format %q", format))
	}

	e, ok := s.lookup(name, number)
	if !ok {
		return errorResponse(http.StatusNotFound,
			errors.Errorf("service: method not found: %s (%d)", name, number))
	}

	req, err := soia.NewSerializer(e.method.Request).FromJSONCode(payload)
	if err != nil {
		return errorResponse(http.StatusBadRequest,
			errors.Wrapf(err, "service: method %s: bad request payload", e.method.Name))
	}

	res, err := s.invoke(e, req, reqHeaders, resHeaders)
	if err != nil {
		return errorResponse(http.StatusInternalServerError,
			errors.Wrapf(err, "service: method %s", e.method.Name))
	}

	code, err := soia.NewSerializer(e.method.Response).ToJSONCodeWithOpts(
		res, soia.EncodeOpts{Readable: format == readableFormat})
	if err != nil {
		return errorResponse(http.StatusInternalServerError,
			errors.Wrapf(err, "service: method %s: bad response value", e.method.Name))
	}
	return RawResponse{Data: code, StatusCode: http.StatusOK, ContentType: jsonContentType}
}

// invoke runs the handler with panic recovery.
func (s *Service) invoke(e *methodEntry, req *soia.Value, reqHeaders, resHeaders Headers) (res *soia.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("handler panic: %v", r)
		}
	}()
	res, err = e.handler(req, reqHeaders, resHeaders)
	if err == nil && res == nil {
		err = errors.New("handler returned no value")
	}
	return res, err
}

func (s *Service) listMethods() RawResponse {
	type methodInfo struct {
		Method   string          `json:"method"`
		Number   int             `json:"number"`
		Request  json.RawMessage `json:"request"`
		Response json.RawMessage `json:"response"`
	}
	methods := s.Methods()
	infos := make([]methodInfo, 0, len(methods))
	for _, m := range methods {
		reqDesc, err := soia.TypeDescriptorJSONCode(m.Request)
		if err != nil {
			return errorResponse(http.StatusInternalServerError,
				errors.Wrapf(err, "service: method %s: request descriptor", m.Name))
		}
		resDesc, err := soia.TypeDescriptorJSONCode(m.Response)
		if err != nil {
			return errorResponse(http.StatusInternalServerError,
				errors.Wrapf(err, "service: method %s: response descriptor", m.Name))
		}
		infos = append(infos, methodInfo{
			Method:   m.Name,
			Number:   m.Number,
			Request:  json.RawMessage(reqDesc),
			Response: json.RawMessage(resDesc),
		})
	}
	data, err := json.MarshalIndent(map[string]any{"methods": infos}, "", "  ")
	if err != nil {
		return errorResponse(http.StatusInternalServerError,
			errors.Wrap(err, "service: marshal method list"))
	}
	return RawResponse{Data: string(data), StatusCode: http.StatusOK, ContentType: jsonContentType}
}

// Envelope renders the request envelope for a method call. Exposed so
// that clients and tools frame requests consistently.
func Envelope(m Method, payload string, readable bool) string {
	format := ""
	if readable {
		format = readableFormat
	}
	return fmt.Sprintf("%s:%d:%s:%s", m.Name, m.Number, format, payload)
}
