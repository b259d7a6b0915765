package identity_test

import (
	"context"
	"io"
	"mime/multipart"
	"sync"

	identity "github.com/ninjaguyyyy/go-identity"

	"github.com/google/uuid"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/mock"
)

// MockLogger implements identity.Logger for testing
type MockLogger struct {
	mock.Mock
}

func (m *MockLogger) Debug(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Info(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Warn(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Error(format string, args ...any) {
	m.Called(format, args)
}

// quietLogger swallows output so lifecycle tests stay silent.
type quietLogger struct{}

func (quietLogger) Debug(string, ...any) {}
func (quietLogger) Info(string, ...any)  {}
func (quietLogger) Warn(string, ...any)  {}
func (quietLogger) Error(string, ...any) {}

// memAccountStore is an in-memory identity.AccountStore enforcing the same
// uniqueness rules as the bun-backed one.
type memAccountStore struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]*identity.Account
}

func newMemAccountStore() *memAccountStore {
	return &memAccountStore{accounts: map[uuid.UUID]*identity.Account{}}
}

func (s *memAccountStore) FindByID(ctx context.Context, id string) (*identity.Account, error) {
	return s.find(func(a *identity.Account) bool {
		return a.ID.String() == id
	})
}

func (s *memAccountStore) FindByEmail(ctx context.Context, email string) (*identity.Account, error) {
	return s.find(func(a *identity.Account) bool {
		return a.Email == identity.NormalizeEmail(email)
	})
}

func (s *memAccountStore) FindByEmailAndRole(ctx context.Context, email string, role identity.Role) (*identity.Account, error) {
	return s.find(func(a *identity.Account) bool {
		return a.Email == identity.NormalizeEmail(email) && a.Role == role
	})
}

func (s *memAccountStore) FindByPhone(ctx context.Context, phone string) (*identity.Account, error) {
	return s.find(func(a *identity.Account) bool {
		return a.Phone == phone
	})
}

func (s *memAccountStore) FindByToken(ctx context.Context, token string) (*identity.Account, error) {
	return s.find(func(a *identity.Account) bool {
		return token != "" && a.VerificationToken == token
	})
}

func (s *memAccountStore) Insert(ctx context.Context, account *identity.Account) (*identity.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.accounts {
		if existing.Email == account.Email {
			return nil, identity.ErrDuplicateEmail
		}
		if existing.Phone == account.Phone {
			return nil, identity.ErrDuplicatePhone
		}
	}

	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}

	clone := *account
	s.accounts[clone.ID] = &clone

	out := clone
	return &out, nil
}

func (s *memAccountStore) Update(ctx context.Context, account *identity.Account) (*identity.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[account.ID]; !ok {
		return nil, repository.NewRecordNotFound()
	}

	clone := *account
	s.accounts[clone.ID] = &clone

	out := clone
	return &out, nil
}

func (s *memAccountStore) find(match func(*identity.Account) bool) (*identity.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.accounts {
		if match(a) {
			clone := *a
			return &clone, nil
		}
	}

	return nil, repository.NewRecordNotFound()
}

// memCodeStore is an in-memory identity.OneTimeCodeStore keyed by phone.
type memCodeStore struct {
	mu    sync.Mutex
	codes map[string]*identity.OneTimeCode
}

func newMemCodeStore() *memCodeStore {
	return &memCodeStore{codes: map[string]*identity.OneTimeCode{}}
}

func (s *memCodeStore) GetByPhone(ctx context.Context, phone string) (*identity.OneTimeCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	code, ok := s.codes[phone]
	if !ok {
		return nil, repository.NewRecordNotFound()
	}

	clone := *code
	return &clone, nil
}

func (s *memCodeStore) Replace(ctx context.Context, code *identity.OneTimeCode) (*identity.OneTimeCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if code.ID == uuid.Nil {
		code.ID = uuid.New()
	}
	code.Attempts = 0
	code.ConsumedAt = nil

	clone := *code
	s.codes[clone.Phone] = &clone

	out := clone
	return &out, nil
}

func (s *memCodeStore) Update(ctx context.Context, code *identity.OneTimeCode) (*identity.OneTimeCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.codes[code.Phone]; !ok {
		return nil, repository.NewRecordNotFound()
	}

	clone := *code
	s.codes[clone.Phone] = &clone

	out := clone
	return &out, nil
}

// sentNotification captures one gateway delivery.
type sentNotification struct {
	Recipient string
	Template  identity.TemplateID
	Data      map[string]any
}

// recorderGateway collects notifications so tests can assert on dispatches
// that happen on a background goroutine.
type recorderGateway struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (g *recorderGateway) Send(ctx context.Context, recipient string, template identity.TemplateID, data map[string]any) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sent = append(g.sent, sentNotification{Recipient: recipient, Template: template, Data: data})
	return nil
}

func (g *recorderGateway) Sent() []sentNotification {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]sentNotification, len(g.sent))
	copy(out, g.sent)
	return out
}

// recorderSink collects activity events.
type recorderSink struct {
	mu     sync.Mutex
	events []identity.ActivityEvent
}

func (s *recorderSink) Record(ctx context.Context, event identity.ActivityEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *recorderSink) Events() []identity.ActivityEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]identity.ActivityEvent, len(s.events))
	copy(out, s.events)
	return out
}

func (s *recorderSink) Types() []identity.ActivityEventType {
	events := s.Events()
	out := make([]identity.ActivityEventType, 0, len(events))
	for _, e := range events {
		out = append(out, e.EventType)
	}
	return out
}

// MockContext mocks router.Context
type MockContext struct {
	mock.Mock
	NextCalled bool
}

func (m *MockContext) Next() error {
	m.NextCalled = true
	return nil
}

func (m *MockContext) Context() context.Context {
	args := m.Called()
	c, ok := args.Get(0).(context.Context)
	if !ok {
		panic("arg needs to be context.Context")
	}
	return c
}

func (m *MockContext) SetContext(ctx context.Context) {
	m.Called(ctx)
}

func (m *MockContext) Path() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) Method() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) Body() []byte {
	args := m.Called()
	return args.Get(0).([]byte)
}

func (m *MockContext) Status(code int) router.Context {
	m.Called(code)
	return m
}

func (m *MockContext) SendString(s string) error {
	args := m.Called(s)
	return args.Error(0)
}

func (m *MockContext) Send(b []byte) error {
	args := m.Called(b)
	return args.Error(0)
}

func (m *MockContext) JSON(code int, val any) error {
	args := m.Called(code, val)
	return args.Error(0)
}

func (m *MockContext) NoContent(code int) error {
	args := m.Called(code)
	return args.Error(0)
}

func (m *MockContext) Render(name string, bind any, layout ...string) error {
	if len(layout) > 0 {
		args := m.Called(name, bind, layout[0])
		return args.Error(0)
	}
	args := m.Called(name, bind)
	return args.Error(0)
}

func (m *MockContext) Redirect(path string, status ...int) error {
	if len(status) > 0 {
		args := m.Called(path, status)
		return args.Error(0)
	}
	args := m.Called(path)
	return args.Error(0)
}

func (m *MockContext) RedirectToRoute(name string, data router.ViewContext, status ...int) error {
	if len(status) > 0 {
		args := m.Called(name, data, status[0])
		return args.Error(0)
	}
	args := m.Called(name, data)
	return args.Error(0)
}

func (m *MockContext) RedirectBack(fallback string, status ...int) error {
	if len(status) > 0 {
		args := m.Called(fallback, status)
		return args.Error(0)
	}
	args := m.Called(fallback)
	return args.Error(0)
}

func (m *MockContext) SetHeader(key, val string) router.Context {
	m.Called(key, val)
	return m
}

func (m *MockContext) Header(key string) string {
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) Get(key string, defaultValue any) any {
	args := m.Called(key, defaultValue)
	return args.Get(0)
}

func (m *MockContext) GetBool(key string, defaultValue bool) bool {
	args := m.Called(key, defaultValue)
	return args.Bool(0)
}

func (m *MockContext) GetInt(key string, def int) int {
	args := m.Called(key, def)
	return args.Int(0)
}

func (m *MockContext) Set(key string, val any) {
	m.Called(key, val)
}

func (m *MockContext) Bind(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) BindJSON(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) BindXML(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) BindQuery(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) CookieParser(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) Cookie(cookie *router.Cookie) {
	m.Called(cookie)
}

func (m *MockContext) Cookies(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		args := m.Called(key, defaultValue[0])
		return args.String(0)
	}
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) Param(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		args := m.Called(key, defaultValue[0])
		return args.String(0)
	}
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) ParamsInt(key string, defaultValue int) int {
	args := m.Called(key, defaultValue)
	return args.Int(0)
}

func (m *MockContext) Query(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		args := m.Called(key, defaultValue[0])
		return args.String(0)
	}
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) QueryValues(key string) []string {
	args := m.Called(key)
	vals, _ := args.Get(0).([]string)
	return vals
}

func (m *MockContext) QueryInt(key string, defaultValue int) int {
	args := m.Called(key, defaultValue)
	return args.Int(0)
}

func (m *MockContext) Queries() map[string]string {
	args := m.Called()
	return args.Get(0).(map[string]string)
}

func (m *MockContext) GetString(key string, defaultValue string) string {
	args := m.Called(key, defaultValue)
	return args.String(0)
}

func (m *MockContext) Locals(key any, value ...any) any {
	if len(value) > 0 {
		m.Called(key, value[0])
		return nil
	}
	args := m.Called(key)
	return args.Get(0)
}

func (m *MockContext) OriginalURL() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) OnNext(callback func() error) {
	m.Called(callback)
}

func (m *MockContext) Referer() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) LocalsMerge(key any, value map[string]any) map[string]any {
	args := m.Called(key, value)
	out, _ := args.Get(0).(map[string]any)
	return out
}

func (m *MockContext) FormFile(key string) (*multipart.FileHeader, error) {
	args := m.Called(key)
	fh, _ := args.Get(0).(*multipart.FileHeader)
	return fh, args.Error(1)
}

func (m *MockContext) FormValue(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		args := m.Called(key, defaultValue[0])
		return args.String(0)
	}
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) IP() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) SendStatus(code int) error {
	args := m.Called(code)
	return args.Error(0)
}

func (m *MockContext) SendStream(r io.Reader) error {
	args := m.Called(r)
	return args.Error(0)
}

func (m *MockContext) RouteName() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) RouteParams() map[string]string {
	args := m.Called()
	out, _ := args.Get(0).(map[string]string)
	return out
}
