package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expensetracker/internal/core"
	"expensetracker/internal/export"
	"expensetracker/internal/remote"
	"expensetracker/internal/session"
)

var testNow = time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)

// fakeBackend is the expense API shared by every session of a test server.
type fakeBackend struct {
	mu       sync.Mutex
	expenses map[int64]core.Expense
	nextID   int64
	loginErr error
	// readErr fails every read call when set.
	readErr error
	calls   []string
}

func newFakeBackend() *fakeBackend {
	b := &fakeBackend{expenses: map[int64]core.Expense{}}
	b.add("Coffee", "3.50", core.NewDate(2024, time.March, 10), core.CategoryFood)
	b.add("Rent March", "900", core.NewDate(2024, time.March, 1), core.CategoryRent)
	b.add("Laptop", "1200", core.NewDate(2023, time.December, 5), core.CategoryTechnology)
	return b
}

func (b *fakeBackend) add(desc, amount string, date core.Timestamp, cat core.Category) core.Expense {
	b.nextID++
	e := core.Expense{
		ID:            b.nextID,
		Description:   desc,
		Amount:        decimal.RequireFromString(amount),
		Date:          date,
		Category:      cat,
		PaymentMethod: core.PaymentCash,
	}
	b.expenses[e.ID] = e
	return e
}

func (b *fakeBackend) record(call string) {
	b.mu.Lock()
	b.calls = append(b.calls, call)
	b.mu.Unlock()
}

func (b *fakeBackend) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.expenses)
}

func (b *fakeBackend) between(start, end time.Time) []core.Expense {
	var out []core.Expense
	for _, e := range b.expenses {
		if !e.Date.Before(start) && !e.Date.After(end) {
			out = append(out, e)
		}
	}
	return out
}

// fakeAPI is one session's view of the backend.
type fakeAPI struct {
	b    *fakeBackend
	sess *session.Session
}

func (f fakeAPI) Login(ctx context.Context, username, password string) (session.Credential, error) {
	f.b.record("login")
	if f.b.loginErr != nil {
		return session.Credential{}, f.b.loginErr
	}
	cred := session.Credential{Token: "opaque-token", TokenType: "Bearer", UserID: 1, Username: username}
	if err := f.sess.Authenticate(ctx, cred); err != nil {
		return session.Credential{}, err
	}
	return cred, nil
}

func (f fakeAPI) Signup(_ context.Context, username, _, _ string) error {
	f.b.record("signup")
	if username == "taken" {
		return &remote.Error{Kind: remote.ErrValidation, Status: 400, Message: "Username is already taken"}
	}
	return nil
}

func (f fakeAPI) Logout(ctx context.Context) error {
	f.b.record("logout")
	return f.sess.Clear(ctx)
}

func (f fakeAPI) ListExpenses(context.Context) ([]core.Expense, error) {
	f.b.record("list")
	f.b.mu.Lock()
	defer f.b.mu.Unlock()
	if f.b.readErr != nil {
		return nil, f.b.readErr
	}
	out := make([]core.Expense, 0, len(f.b.expenses))
	for id := int64(1); id <= f.b.nextID; id++ {
		if e, ok := f.b.expenses[id]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f fakeAPI) GetExpense(_ context.Context, id int64) (core.Expense, error) {
	f.b.mu.Lock()
	defer f.b.mu.Unlock()
	if f.b.readErr != nil {
		return core.Expense{}, f.b.readErr
	}
	e, ok := f.b.expenses[id]
	if !ok {
		return core.Expense{}, &remote.Error{Kind: remote.ErrNotFound, Status: 404}
	}
	return e, nil
}

func (f fakeAPI) ExpensesBetween(_ context.Context, start, end time.Time) ([]core.Expense, error) {
	f.b.mu.Lock()
	defer f.b.mu.Unlock()
	return f.b.between(start, end), nil
}

func (f fakeAPI) CreateExpense(_ context.Context, in core.ExpenseInput) (core.Expense, error) {
	f.b.record("create")
	f.b.mu.Lock()
	defer f.b.mu.Unlock()
	if in.Description == "rejected" {
		return core.Expense{}, &remote.Error{Kind: remote.ErrValidation, Status: 400, Message: "Amount exceeds the limit"}
	}
	return f.b.add(in.Description, in.Amount.String(), in.Date, in.Category), nil
}

func (f fakeAPI) UpdateExpense(_ context.Context, id int64, p core.ExpensePatch) (core.Expense, error) {
	f.b.record("update")
	f.b.mu.Lock()
	defer f.b.mu.Unlock()
	e, ok := f.b.expenses[id]
	if !ok {
		return core.Expense{}, &remote.Error{Kind: remote.ErrNotFound, Status: 404}
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.Amount != nil {
		e.Amount = *p.Amount
	}
	if p.Date != nil {
		e.Date = *p.Date
	}
	f.b.expenses[id] = e
	return e, nil
}

func (f fakeAPI) DeleteExpense(_ context.Context, id int64) error {
	f.b.record("delete")
	f.b.mu.Lock()
	defer f.b.mu.Unlock()
	if _, ok := f.b.expenses[id]; !ok {
		return &remote.Error{Kind: remote.ErrNotFound, Status: 200}
	}
	delete(f.b.expenses, id)
	return nil
}

func (f fakeAPI) MonthlyReport(_ context.Context, year int, month time.Month) ([]core.Expense, error) {
	f.b.mu.Lock()
	defer f.b.mu.Unlock()
	if f.b.readErr != nil {
		return nil, f.b.readErr
	}
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return f.b.between(start, start.AddDate(0, 1, 0).Add(-time.Nanosecond)), nil
}

func (f fakeAPI) YearlyReport(_ context.Context, year int) ([]core.Expense, error) {
	f.b.mu.Lock()
	defer f.b.mu.Unlock()
	if f.b.readErr != nil {
		return nil, f.b.readErr
	}
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return f.b.between(start, start.AddDate(1, 0, 0).Add(-time.Nanosecond)), nil
}

func (f fakeAPI) CategoryReport(_ context.Context, start, end time.Time) ([]core.CategoryReport, error) {
	f.b.mu.Lock()
	defer f.b.mu.Unlock()
	if f.b.readErr != nil {
		return nil, f.b.readErr
	}
	totals := map[core.Category]*core.CategoryReport{}
	var order []core.Category
	for _, e := range f.b.between(start, end.Add(24*time.Hour-time.Nanosecond)) {
		r, ok := totals[e.Category]
		if !ok {
			r = &core.CategoryReport{Category: e.Category}
			totals[e.Category] = r
			order = append(order, e.Category)
		}
		r.Count++
		r.TotalAmount = r.TotalAmount.Add(e.Amount)
	}
	out := make([]core.CategoryReport, 0, len(order))
	for _, c := range order {
		out = append(out, *totals[c])
	}
	return out, nil
}

type testEnv struct {
	srv     *Server
	backend *fakeBackend
	store   *session.MemoryStore
}

func newTestEnv(t *testing.T, opts Options) *testEnv {
	t.Helper()
	env := &testEnv{backend: newFakeBackend(), store: session.NewMemoryStore()}
	srv, err := NewServer(opts, Deps{
		Sessions: env.store,
		NewAPI: func(sess *session.Session) remote.API {
			return fakeAPI{b: env.backend, sess: sess}
		},
		Now: func() time.Time { return testNow },
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	env.srv = srv
	return env
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	e.srv.Handler.ServeHTTP(rr, req)
	return rr
}

func postForm(path string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func findCookie(rr *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rr.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func flashOf(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	c := findCookie(rr, flashCookieName)
	require.NotNil(t, c, "expected a flash cookie")
	msg, err := url.QueryUnescape(c.Value)
	require.NoError(t, err)
	return msg
}

// signIn logs in as alice and returns the session cookie.
func (e *testEnv) signIn(t *testing.T) *http.Cookie {
	t.Helper()
	rr := e.do(postForm("/login", url.Values{"username": {"alice"}, "password": {"secret"}}))
	require.Equal(t, http.StatusSeeOther, rr.Code)
	c := findCookie(rr, sessionCookieName)
	require.NotNil(t, c)
	return c
}

func (e *testEnv) get(path string, c *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if c != nil {
		req.AddCookie(c)
	}
	return e.do(req)
}

func (e *testEnv) post(path string, form url.Values, c *http.Cookie) *httptest.ResponseRecorder {
	req := postForm(path, form)
	if c != nil {
		req.AddCookie(c)
	}
	return e.do(req)
}

func TestHealthAndReady(t *testing.T) {
	env := newTestEnv(t, Options{})

	for _, path := range []string{"/healthz", "/readyz", "/metrics"} {
		rr := env.get(path, nil)
		assert.Equal(t, http.StatusOK, rr.Code, path)
	}
	assert.Contains(t, env.get("/readyz", nil).Body.String(), `"activity_events":"disabled"`)
	assert.Contains(t, env.get("/metrics", nil).Body.String(), "logins_total")

	srv, err := NewServer(Options{}, Deps{
		NewAPI: func(sess *session.Session) remote.API { return fakeAPI{b: newFakeBackend(), sess: sess} },
		Ready:  func(context.Context) error { return errors.New("database is locked") },
	})
	require.NoError(t, err)
	defer srv.Shutdown(context.Background())

	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Contains(t, rr.Body.String(), "database is locked")
}

func TestNewServerRequiresAPIFactory(t *testing.T) {
	_, err := NewServer(Options{}, Deps{})
	assert.Error(t, err)
}

func TestGuardRedirectsToLogin(t *testing.T) {
	env := newTestEnv(t, Options{})

	rr := env.get("/", nil)
	assert.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, "/login", rr.Header().Get("Location"))

	rr = env.get("/expenses?page=1", nil)
	assert.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, "/login?next=%2Fexpenses%3Fpage%3D1", rr.Header().Get("Location"))

	// An unknown or malformed session id is signed out, not an error.
	rr = env.get("/reports", &http.Cookie{Name: sessionCookieName, Value: uuid.NewString()})
	assert.Equal(t, http.StatusFound, rr.Code)
	rr = env.get("/reports", &http.Cookie{Name: sessionCookieName, Value: "../../etc"})
	assert.Equal(t, http.StatusFound, rr.Code)

	assert.Empty(t, env.backend.calls, "no remote call for a signed-out request")
}

func TestLoginSuccess(t *testing.T) {
	env := newTestEnv(t, Options{CookieSecure: true, SessionMaxAge: time.Hour})

	rr := env.post("/login", url.Values{
		"username": {"alice"}, "password": {"secret"}, "next": {"/reports?year=2024"},
	}, nil)
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/reports?year=2024", rr.Header().Get("Location"))

	c := findCookie(rr, sessionCookieName)
	require.NotNil(t, c)
	_, err := uuid.Parse(c.Value)
	assert.NoError(t, err)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, 3600, c.MaxAge)
	assert.Equal(t, 1, env.store.Len())

	rr = env.get("/", c)
	assert.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "Dashboard")
	assert.Contains(t, body, "alice")

	// Already signed in: the login page goes to the dashboard.
	rr = env.get("/login", c)
	assert.Equal(t, http.StatusFound, rr.Code)
}

func TestLoginRotatesSessionID(t *testing.T) {
	env := newTestEnv(t, Options{})
	first := env.signIn(t)

	rr := env.post("/login", url.Values{"username": {"alice"}, "password": {"secret"}}, first)
	require.Equal(t, http.StatusSeeOther, rr.Code)
	second := findCookie(rr, sessionCookieName)
	require.NotNil(t, second)

	assert.NotEqual(t, first.Value, second.Value)
	assert.Equal(t, 1, env.store.Len(), "previous session is dropped")
	assert.Equal(t, http.StatusFound, env.get("/", first).Code)
}

func TestLoginRejectsUnsafeNext(t *testing.T) {
	env := newTestEnv(t, Options{})
	rr := env.post("/login", url.Values{
		"username": {"alice"}, "password": {"secret"}, "next": {"//evil.example.com"},
	}, nil)
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/", rr.Header().Get("Location"))
}

func TestLoginFailure(t *testing.T) {
	env := newTestEnv(t, Options{})

	rr := env.post("/login", url.Values{"username": {"alice"}}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Body.String(), "Password is required")
	assert.Empty(t, env.backend.calls)

	env.backend.loginErr = &remote.Error{Kind: remote.ErrAuthentication, Status: 401}
	rr = env.post("/login", url.Values{"username": {"alice"}, "password": {"wrong"}}, nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Contains(t, rr.Body.String(), "Invalid username or password")
	assert.Nil(t, findCookie(rr, sessionCookieName))
	assert.Equal(t, 0, env.store.Len())

	env.backend.loginErr = &remote.Error{Kind: remote.ErrTransport, Err: errors.New("connection refused")}
	rr = env.post("/login", url.Values{"username": {"alice"}, "password": {"secret"}}, nil)
	assert.Equal(t, http.StatusBadGateway, rr.Code)
}

func TestLoginRateLimited(t *testing.T) {
	env := newTestEnv(t, Options{LoginRateLimit: 2})
	env.backend.loginErr = &remote.Error{Kind: remote.ErrAuthentication, Status: 401}

	form := url.Values{"username": {"alice"}, "password": {"wrong"}}
	assert.Equal(t, http.StatusUnauthorized, env.post("/login", form, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, env.post("/login", form, nil).Code)

	rr := env.post("/login", form, nil)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))

	// Pages stay reachable.
	assert.Equal(t, http.StatusOK, env.get("/login", nil).Code)
}

func TestRegister(t *testing.T) {
	env := newTestEnv(t, Options{})

	rr := env.post("/register", url.Values{
		"username": {"al"}, "email": {"nope"}, "password": {"123"}, "confirm": {"456"},
	}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Body.String(), "Passwords do not match")

	form := url.Values{
		"username": {"taken"}, "email": {"bob@example.com"}, "password": {"secret1"}, "confirm": {"secret1"},
	}
	rr = env.post("/register", form, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Body.String(), "Username is already taken")

	form.Set("username", "bob")
	rr = env.post("/register", form, nil)
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/login", rr.Header().Get("Location"))
	assert.Equal(t, "Account created. Please sign in.", flashOf(t, rr))
	assert.Nil(t, findCookie(rr, sessionCookieName), "registering does not sign in")
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t, Options{})
	c := env.signIn(t)

	rr := env.post("/logout", nil, c)
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/login", rr.Header().Get("Location"))
	cleared := findCookie(rr, sessionCookieName)
	require.NotNil(t, cleared)
	assert.Equal(t, -1, cleared.MaxAge)
	assert.Equal(t, 0, env.store.Len())

	assert.Equal(t, http.StatusFound, env.get("/expenses", c).Code)
}

func TestDashboard(t *testing.T) {
	env := newTestEnv(t, Options{})
	c := env.signIn(t)

	rr := env.get("/", c)
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "March 2024")
	assert.Contains(t, body, "$903.50")
	assert.Contains(t, body, "Coffee")
	assert.Contains(t, body, "Rent")
}

func TestListExpenses(t *testing.T) {
	env := newTestEnv(t, Options{})
	c := env.signIn(t)

	rr := env.get("/expenses", c)
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "Coffee")
	assert.Contains(t, body, "Laptop")
	assert.Contains(t, body, "Page 1 of 1")

	rr = env.get("/expenses?search=rent", c)
	require.Equal(t, http.StatusOK, rr.Code)
	body = rr.Body.String()
	assert.Contains(t, body, "Rent March")
	assert.NotContains(t, body, "Coffee")

	rr = env.get("/expenses?size=5&page=7", c)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "No expenses recorded yet")

	rr = env.get("/expenses?start=2024-03-01&end=2024-03-10", c)
	require.Equal(t, http.StatusOK, rr.Code)
	body = rr.Body.String()
	assert.Contains(t, body, "Coffee", "end date covers the whole day")
	assert.NotContains(t, body, "Laptop")
}

func TestCreateExpense(t *testing.T) {
	env := newTestEnv(t, Options{})
	c := env.signIn(t)

	rr := env.get("/expenses/new", c)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `value="2024-03-15"`)

	form := url.Values{
		"description":   {"Groceries"},
		"amount":        {"abc"},
		"date":          {"2024-03-14"},
		"category":      {"GROCERIES"},
		"paymentMethod": {"CASH"},
	}
	rr = env.post("/expenses", form, c)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Body.String(), "Please enter a valid amount")
	assert.Contains(t, rr.Body.String(), `value="Groceries"`, "input is kept")
	assert.Equal(t, 3, env.backend.count())

	form.Set("amount", "42.10")
	rr = env.post("/expenses", form, c)
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/expenses", rr.Header().Get("Location"))
	assert.Equal(t, "Expense added", flashOf(t, rr))
	assert.Equal(t, 4, env.backend.count())

	form.Set("description", "rejected")
	rr = env.post("/expenses", form, c)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Body.String(), "Amount exceeds the limit")
}

func TestEditAndUpdateExpense(t *testing.T) {
	env := newTestEnv(t, Options{})
	c := env.signIn(t)

	rr := env.get("/expenses/1", c)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `value="Coffee"`)
	assert.Contains(t, rr.Body.String(), `action="/expenses/1"`)

	assert.Equal(t, http.StatusNotFound, env.get("/expenses/abc", c).Code)
	assert.Equal(t, http.StatusNotFound, env.get("/expenses/99", c).Code)

	form := url.Values{
		"description":   {"Espresso"},
		"amount":        {"2.00"},
		"date":          {"2024-03-10"},
		"category":      {"FOOD"},
		"paymentMethod": {"CASH"},
	}
	rr = env.post("/expenses/1", form, c)
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "Expense updated", flashOf(t, rr))

	rr = env.post("/expenses/99", form, c)
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "The expense no longer exists", flashOf(t, rr))
}

func TestUpdateKeepsStoredTimeOfDay(t *testing.T) {
	env := newTestEnv(t, Options{})
	c := env.signIn(t)
	stored := env.backend.expenses[1]
	stored.Date = core.NewTimestamp(time.Date(2024, time.March, 10, 13, 45, 0, 0, time.UTC))
	env.backend.expenses[1] = stored

	rr := env.get("/expenses/1", c)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `name="time" value="13:45:00"`)

	// Resubmit the edit form with only the description changed.
	rr = env.post("/expenses/1", url.Values{
		"description":   {"Cappuccino"},
		"amount":        {"3.50"},
		"date":          {"2024-03-10"},
		"time":          {"13:45:00"},
		"category":      {"FOOD"},
		"paymentMethod": {"CASH"},
	}, c)
	require.Equal(t, http.StatusSeeOther, rr.Code)

	updated := env.backend.expenses[1]
	assert.Equal(t, "Cappuccino", updated.Description)
	assert.Equal(t, "2024-03-10T13:45:00", updated.Date.String())
}

func TestNewExpenseIsStampedWithCurrentTime(t *testing.T) {
	env := newTestEnv(t, Options{})
	c := env.signIn(t)

	rr := env.get("/expenses/new", c)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `name="time" value="12:00:00"`)
}

func TestDeleteTwice(t *testing.T) {
	env := newTestEnv(t, Options{})
	c := env.signIn(t)

	back := url.Values{"back": {"/expenses?page=1"}}
	rr := env.post("/expenses/2/delete", back, c)
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/expenses?page=1", rr.Header().Get("Location"))
	assert.Equal(t, "Expense deleted", flashOf(t, rr))

	rr = env.post("/expenses/2/delete", back, c)
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "The expense no longer exists", flashOf(t, rr))

	rr = env.post("/expenses/1/delete", url.Values{"back": {"https://evil.example.com"}}, c)
	assert.Equal(t, "/expenses", rr.Header().Get("Location"))

	// The flash shows once on the next page.
	req := httptest.NewRequest(http.MethodGet, "/expenses", nil)
	req.AddCookie(c)
	req.AddCookie(&http.Cookie{Name: flashCookieName, Value: url.QueryEscape("Expense deleted")})
	rr = env.do(req)
	assert.Contains(t, rr.Body.String(), "Expense deleted")
	assert.Equal(t, -1, findCookie(rr, flashCookieName).MaxAge)
}

func TestAuthorizationErrorSignsOut(t *testing.T) {
	env := newTestEnv(t, Options{})
	c := env.signIn(t)
	env.backend.readErr = &remote.Error{Kind: remote.ErrAuthorization, Status: 401}

	rr := env.get("/expenses", c)
	assert.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, "/login", rr.Header().Get("Location"))
	cleared := findCookie(rr, sessionCookieName)
	require.NotNil(t, cleared)
	assert.Equal(t, -1, cleared.MaxAge)
	assert.Equal(t, 0, env.store.Len())

	env.backend.readErr = nil
	assert.Equal(t, http.StatusFound, env.get("/expenses", c).Code, "session stays signed out")
}

func TestRemoteFailureStatuses(t *testing.T) {
	env := newTestEnv(t, Options{})
	c := env.signIn(t)

	env.backend.readErr = &remote.Error{Kind: remote.ErrTransport, Err: errors.New("dial tcp: refused")}
	rr := env.get("/", c)
	assert.Equal(t, http.StatusBadGateway, rr.Code)
	assert.Contains(t, rr.Body.String(), "unavailable")

	env.backend.readErr = errors.New("boom")
	assert.Equal(t, http.StatusInternalServerError, env.get("/reports", c).Code)
}

func TestReports(t *testing.T) {
	env := newTestEnv(t, Options{})
	c := env.signIn(t)

	rr := env.get("/reports", c)
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "Monthly Summary (March 2024)")
	assert.Contains(t, body, "Yearly Summary")
	assert.Contains(t, body, "$903.50")

	rr = env.get("/reports?year=2023&month=12", c)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Laptop")

	for _, q := range []string{"month=13", "month=0", "year=abc", "year=1900"} {
		rr = env.get("/reports?"+q, c)
		assert.Equal(t, http.StatusBadRequest, rr.Code, q)
	}
}

func TestExports(t *testing.T) {
	env := newTestEnv(t, Options{})
	c := env.signIn(t)

	rr := env.get("/reports/export.xlsx?year=2024&month=3", c)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, export.ContentTypeXLSX, rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), `filename="expenses-2024-03.xlsx"`)
	assert.True(t, strings.HasPrefix(rr.Body.String(), "PK"), "xlsx is a zip archive")

	rr = env.get("/reports/export.pdf?year=2024&month=3", c)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, export.ContentTypePDF, rr.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rr.Body.String(), "%PDF"))

	assert.Equal(t, http.StatusBadRequest, env.get("/reports/export.pdf?month=20", c).Code)
}

func TestProbesAndUnknownPaths(t *testing.T) {
	env := newTestEnv(t, Options{})

	assert.Equal(t, http.StatusNotFound, env.get("/.env", nil).Code)
	assert.Equal(t, http.StatusNotFound, env.get("/wp-admin/install.php", nil).Code)
	assert.Equal(t, http.StatusNotFound, env.get("/no/such/page", nil).Code)

	rr := env.get("/static/style.css", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotEqual(t, "no-store", rr.Header().Get("Cache-Control"))

	rr = env.get("/login", nil)
	assert.Equal(t, "no-store", rr.Header().Get("Cache-Control"))
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
	assert.NotEmpty(t, rr.Header().Get("Content-Security-Policy"))
}
