package http

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"expensetracker/internal/core"
)

func TestExpenseFormInput(t *testing.T) {
	valid := url.Values{
		"description":   {"  Weekly\x01 shop  "},
		"amount":        {"12.5"},
		"date":          {"2024-06-15"},
		"category":      {"groceries"},
		"paymentMethod": {"CASH"},
		"isRecurring":   {"true"},
	}

	tests := []struct {
		name       string
		modify     func(v url.Values)
		wantErrors []string
	}{
		{name: "valid", modify: func(url.Values) {}},
		{
			name:       "missing description",
			modify:     func(v url.Values) { v.Set("description", "   ") },
			wantErrors: []string{"description"},
		},
		{
			name:       "non numeric amount",
			modify:     func(v url.Values) { v.Set("amount", "abc") },
			wantErrors: []string{"amount"},
		},
		{
			name:       "zero amount",
			modify:     func(v url.Values) { v.Set("amount", "0") },
			wantErrors: []string{"amount"},
		},
		{
			name:       "bad date",
			modify:     func(v url.Values) { v.Set("date", "15/06/2024") },
			wantErrors: []string{"date"},
		},
		{
			name: "unknown category and payment method",
			modify: func(v url.Values) {
				v.Set("category", "HOLIDAYS")
				v.Del("paymentMethod")
			},
			wantErrors: []string{"category", "paymentMethod"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := url.Values{}
			for k, vals := range valid {
				v[k] = append([]string(nil), vals...)
			}
			tt.modify(v)

			form := ParseExpenseForm(v)
			in, ok := form.Input()

			if len(tt.wantErrors) == 0 {
				if !ok {
					t.Fatalf("Input() failed: %v", form.Errors)
				}
				if in.Description != "Weekly shop" {
					t.Errorf("Description = %q, want %q", in.Description, "Weekly shop")
				}
				if !in.Amount.Equal(decimal.RequireFromString("12.50")) {
					t.Errorf("Amount = %s, want 12.50", in.Amount)
				}
				if in.Category != core.CategoryGroceries {
					t.Errorf("Category = %s, want GROCERIES", in.Category)
				}
				if in.Date.DateString() != "2024-06-15" {
					t.Errorf("Date = %s", in.Date.DateString())
				}
				if !in.IsRecurring {
					t.Error("IsRecurring should be true")
				}
				return
			}

			if ok {
				t.Fatal("Input() should fail")
			}
			if len(form.Errors) != len(tt.wantErrors) {
				t.Errorf("got errors %v, want fields %v", form.Errors, tt.wantErrors)
			}
			for _, field := range tt.wantErrors {
				if form.Errors[field] == "" {
					t.Errorf("missing error for %s", field)
				}
			}
		})
	}
}

func TestExpenseFormRoundTrip(t *testing.T) {
	e := core.Expense{
		ID:            7,
		Description:   "Internet",
		Amount:        decimal.RequireFromString("29.9"),
		Date:          core.NewTimestamp(time.Date(2024, time.February, 1, 13, 45, 0, 0, time.UTC)),
		Category:      core.CategoryBill,
		PaymentMethod: core.PaymentIBAN,
		IsRecurring:   true,
	}
	form := ExpenseFormFrom(e)
	if form.Amount != "29.90" {
		t.Errorf("Amount = %q, want 29.90", form.Amount)
	}
	if form.Date != "2024-02-01" || form.Time != "13:45:00" {
		t.Errorf("Date, Time = %q, %q, want 2024-02-01, 13:45:00", form.Date, form.Time)
	}

	in, ok := form.Input()
	if !ok {
		t.Fatalf("Input() failed: %v", form.Errors)
	}
	want := e.Input()
	if in.Description != want.Description || !in.Amount.Equal(want.Amount) || !in.Date.Equal(want.Date.Time) ||
		in.Category != want.Category || in.PaymentMethod != want.PaymentMethod || in.IsRecurring != want.IsRecurring {
		t.Errorf("round trip = %+v, want %+v", in, want)
	}
	if got := in.Patch().Date.String(); got != "2024-02-01T13:45:00" {
		t.Errorf("unchanged edit sends date %s, want 2024-02-01T13:45:00", got)
	}
}

func TestExpenseFormKeepsTimeOfDayOnNewDay(t *testing.T) {
	form := ParseExpenseForm(url.Values{
		"description":   {"Dinner"},
		"amount":        {"30"},
		"date":          {"2024-02-03"},
		"time":          {"20:15:30"},
		"category":      {"FOOD"},
		"paymentMethod": {"CASH"},
	})
	in, ok := form.Input()
	if !ok {
		t.Fatalf("Input() failed: %v", form.Errors)
	}
	if got := in.Date.String(); got != "2024-02-03T20:15:30" {
		t.Errorf("Date = %s, want 2024-02-03T20:15:30", got)
	}

	// A missing or garbled time falls back to the start of the day.
	form.Time = "late"
	in, ok = form.Input()
	if !ok {
		t.Fatalf("Input() failed: %v", form.Errors)
	}
	if got := in.Date.String(); got != "2024-02-03T00:00:00" {
		t.Errorf("Date = %s, want 2024-02-03T00:00:00", got)
	}
}

func TestNewExpenseFormStampsNow(t *testing.T) {
	form := NewExpenseForm(time.Date(2024, time.March, 5, 22, 0, 0, 0, time.UTC))
	if form.Date != "2024-03-05" || form.Time != "22:00:00" {
		t.Errorf("Date, Time = %q, %q, want 2024-03-05, 22:00:00", form.Date, form.Time)
	}
	if form.Errors == nil {
		t.Error("Errors should be initialised")
	}
}

func TestCredentialsFormValidateRegister(t *testing.T) {
	tests := []struct {
		name   string
		form   url.Values
		errors []string
	}{
		{
			name: "valid",
			form: url.Values{"username": {"alice"}, "email": {"alice@example.com"}, "password": {"secret"}, "confirm": {"secret"}},
		},
		{
			name:   "short username",
			form:   url.Values{"username": {"al"}, "email": {"alice@example.com"}, "password": {"secret"}, "confirm": {"secret"}},
			errors: []string{"username"},
		},
		{
			name:   "bad email",
			form:   url.Values{"username": {"alice"}, "email": {"alice"}, "password": {"secret"}, "confirm": {"secret"}},
			errors: []string{"email"},
		},
		{
			name:   "short password and mismatch",
			form:   url.Values{"username": {"alice"}, "email": {"alice@example.com"}, "password": {"abc"}, "confirm": {"abd"}},
			errors: []string{"password", "confirm"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := ParseCredentialsForm(tt.form)
			ok := f.ValidateRegister()
			if ok != (len(tt.errors) == 0) {
				t.Fatalf("ValidateRegister() = %v, errors %v", ok, f.Errors)
			}
			for _, field := range tt.errors {
				if f.Errors[field] == "" {
					t.Errorf("missing error for %s", field)
				}
			}
		})
	}
}

func TestCredentialsFormMessages(t *testing.T) {
	f := ParseCredentialsForm(url.Values{"email": {"not-an-address"}, "password": {"abc"}, "confirm": {"xyz"}})
	if f.ValidateRegister() {
		t.Fatal("ValidateRegister() should fail")
	}
	want := map[string]string{
		"username": "Username must be at least 3 characters",
		"email":    "Please enter a valid email address",
		"password": "Password must be at least 6 characters",
		"confirm":  "Passwords do not match",
	}
	for field, msg := range want {
		if f.Errors[field] != msg {
			t.Errorf("Errors[%s] = %q, want %q", field, f.Errors[field], msg)
		}
	}
	if len(f.Errors) != len(want) {
		t.Errorf("unexpected errors %v", f.Errors)
	}

	f = ParseCredentialsForm(url.Values{})
	if f.ValidateLogin() {
		t.Fatal("ValidateLogin() should fail")
	}
	if f.Errors["username"] != "Username is required" || f.Errors["password"] != "Password is required" {
		t.Errorf("unexpected login errors %v", f.Errors)
	}
}

func TestCredentialsFormValidateLogin(t *testing.T) {
	f := ParseCredentialsForm(url.Values{"username": {" bob "}, "next": {"/reports"}})
	if f.ValidateLogin() {
		t.Fatal("ValidateLogin() should fail without a password")
	}
	if f.Username != "bob" {
		t.Errorf("Username = %q, want bob", f.Username)
	}
	if f.Next != "/reports" {
		t.Errorf("Next = %q, want /reports", f.Next)
	}
	if _, ok := f.Errors["password"]; !ok {
		t.Error("expected a password error")
	}
}

func TestParseReportPeriod(t *testing.T) {
	now := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		query   url.Values
		want    ReportPeriod
		wantErr bool
	}{
		{name: "defaults to now", query: url.Values{}, want: ReportPeriod{2024, time.March}},
		{name: "explicit", query: url.Values{"year": {"2022"}, "month": {"11"}}, want: ReportPeriod{2022, time.November}},
		{name: "next year allowed", query: url.Values{"year": {"2025"}}, want: ReportPeriod{2025, time.March}},
		{name: "far future", query: url.Values{"year": {"2030"}}, wantErr: true},
		{name: "before epoch", query: url.Values{"year": {"1969"}}, wantErr: true},
		{name: "month 13", query: url.Values{"month": {"13"}}, wantErr: true},
		{name: "month 0", query: url.Values{"month": {"0"}}, wantErr: true},
		{name: "not a number", query: url.Values{"month": {"march"}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseReportPeriod(tt.query, now)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestReportPeriodBounds(t *testing.T) {
	p := ReportPeriod{Year: 2024, Month: time.February}

	start, end := p.MonthBounds()
	if start.Format(core.DateLayout) != "2024-02-01" || end.Format(core.DateLayout) != "2024-02-29" {
		t.Errorf("MonthBounds = %s..%s", start, end)
	}
	start, end = p.YearBounds()
	if start.Format(core.DateLayout) != "2024-01-01" || end.Format(core.DateLayout) != "2024-12-31" {
		t.Errorf("YearBounds = %s..%s", start, end)
	}
}

func TestSafeNext(t *testing.T) {
	tests := map[string]string{
		"":                     "/",
		"/expenses?page=2":     "/expenses?page=2",
		"//evil.example.com":   "/",
		"/\\evil.example.com":  "/",
		"https://evil.example": "/",
		"expenses":             "/",
	}
	for in, want := range tests {
		if got := safeNext(in); got != want {
			t.Errorf("safeNext(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseExpenseID(t *testing.T) {
	tests := map[string]bool{"1": true, "42": true, "0": false, "-3": false, "abc": false}
	for raw, wantOK := range tests {
		r := httptest.NewRequest(http.MethodGet, "/expenses/"+raw, nil)
		r.SetPathValue("id", raw)
		_, ok := parseExpenseID(r)
		if ok != wantOK {
			t.Errorf("parseExpenseID(%q) ok = %v, want %v", raw, ok, wantOK)
		}
	}
}

func TestYearOptions(t *testing.T) {
	now := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)

	opts := yearOptions(now, 2022)
	if len(opts) != reportYears {
		t.Fatalf("len = %d, want %d", len(opts), reportYears)
	}
	if opts[0].Value != 2024 || !opts[2].Selected {
		t.Errorf("unexpected options %+v", opts)
	}

	opts = yearOptions(now, 2001)
	last := opts[len(opts)-1]
	if last.Value != 2001 || !last.Selected {
		t.Errorf("selected year outside the window should be appended, got %+v", last)
	}
}
