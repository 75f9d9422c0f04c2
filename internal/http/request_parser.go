package http

import (
	"errors"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"expensetracker/internal/core"
)

// ExpenseForm is the create/edit form as submitted, plus per-field errors.
type ExpenseForm struct {
	Description   string
	Amount        string
	Date          string
	// Time is the time of day carried through the form unchanged, so an
	// edit never moves the stored expense to midnight.
	Time          string
	Category      string
	PaymentMethod string
	IsRecurring   bool

	Errors map[string]string
}

// ParseExpenseForm reads the submitted fields without validating them.
func ParseExpenseForm(form url.Values) ExpenseForm {
	return ExpenseForm{
		Description:   sanitizeInput(form.Get("description")),
		Amount:        strings.TrimSpace(form.Get("amount")),
		Date:          strings.TrimSpace(form.Get("date")),
		Time:          strings.TrimSpace(form.Get("time")),
		Category:      strings.TrimSpace(form.Get("category")),
		PaymentMethod: strings.TrimSpace(form.Get("paymentMethod")),
		IsRecurring:   form.Get("isRecurring") != "",
		Errors:        map[string]string{},
	}
}

// ExpenseFormFrom fills the edit form from a stored expense.
func ExpenseFormFrom(e core.Expense) ExpenseForm {
	return ExpenseForm{
		Description:   e.Description,
		Amount:        e.Amount.StringFixed(2),
		Date:          e.Date.DateString(),
		Time:          e.Date.Format(timeOfDayLayout),
		Category:      string(e.Category),
		PaymentMethod: string(e.PaymentMethod),
		IsRecurring:   e.IsRecurring,
		Errors:        map[string]string{},
	}
}

const timeOfDayLayout = "15:04:05"

// NewExpenseForm is a blank form stamped with the current date and time.
func NewExpenseForm(now time.Time) ExpenseForm {
	return ExpenseForm{
		Date:   now.Format(core.DateLayout),
		Time:   now.Format(timeOfDayLayout),
		Errors: map[string]string{},
	}
}

// Input validates every field, recording one message per failing field, and
// returns the input only when all of them pass.
func (f *ExpenseForm) Input() (core.ExpenseInput, bool) {
	if f.Errors == nil {
		f.Errors = map[string]string{}
	}
	var in core.ExpenseInput

	in.Description = f.Description
	if strings.TrimSpace(f.Description) == "" {
		f.Errors["description"] = "Description is required"
	}

	amount, err := core.ParseAmount(f.Amount)
	if err != nil {
		f.Errors["amount"] = "Please enter a valid amount"
	}
	in.Amount = amount

	date, err := core.ParseDate(f.Date)
	if err != nil {
		f.Errors["date"] = "Please enter a date as YYYY-MM-DD"
	} else if tod, err := time.Parse(timeOfDayLayout, f.Time); err == nil {
		date = core.NewTimestamp(time.Date(date.Year(), date.Month(), date.Day(),
			tod.Hour(), tod.Minute(), tod.Second(), 0, time.UTC))
	}
	in.Date = date

	category, err := core.ParseCategory(f.Category)
	if err != nil {
		f.Errors["category"] = "Category is required"
	}
	in.Category = category

	method, err := core.ParsePaymentMethod(f.PaymentMethod)
	if err != nil {
		f.Errors["paymentMethod"] = "Payment method is required"
	}
	in.PaymentMethod = method

	in.IsRecurring = f.IsRecurring

	if len(f.Errors) > 0 {
		return core.ExpenseInput{}, false
	}
	return in, true
}

// CredentialsForm is the login and register form.
type CredentialsForm struct {
	Username string
	Email    string
	Password string
	Confirm  string
	Next     string

	Errors map[string]string
}

func ParseCredentialsForm(form url.Values) CredentialsForm {
	return CredentialsForm{
		Username: sanitizeInput(form.Get("username")),
		Email:    strings.TrimSpace(form.Get("email")),
		Password: form.Get("password"),
		Confirm:  form.Get("confirm"),
		Next:     safeNext(form.Get("next")),
		Errors:   map[string]string{},
	}
}

// validate reports field errors under the form field name.
var validate = func() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("form")
	})
	return v
}()

type loginInput struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
}

type registerInput struct {
	Username string `form:"username" validate:"required,min=3"`
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required,min=6"`
	Confirm  string `form:"confirm" validate:"eqfield=Password"`
}

var (
	loginMessages = map[string]string{
		"username": "Username is required",
		"password": "Password is required",
	}
	registerMessages = map[string]string{
		"username": "Username must be at least 3 characters",
		"email":    "Please enter a valid email address",
		"password": "Password must be at least 6 characters",
		"confirm":  "Passwords do not match",
	}
)

// ValidateLogin requires both fields.
func (f *CredentialsForm) ValidateLogin() bool {
	return f.check(loginInput{Username: f.Username, Password: f.Password}, loginMessages)
}

// ValidateRegister checks the sign-up fields before anything is sent.
func (f *CredentialsForm) ValidateRegister() bool {
	return f.check(registerInput{
		Username: f.Username,
		Email:    f.Email,
		Password: f.Password,
		Confirm:  f.Confirm,
	}, registerMessages)
}

func (f *CredentialsForm) check(in any, messages map[string]string) bool {
	var verrs validator.ValidationErrors
	if err := validate.Struct(in); errors.As(err, &verrs) {
		for _, fe := range verrs {
			f.Errors[fe.Field()] = messages[fe.Field()]
		}
	}
	return len(f.Errors) == 0
}

// ReportPeriod is the year and month shown on the reports page.
type ReportPeriod struct {
	Year  int
	Month time.Month
}

var errInvalidPeriod = errors.New("invalid report period")

// ParseReportPeriod reads year and month, defaulting each to now. Values
// outside the selectable range are rejected.
func ParseReportPeriod(query url.Values, now time.Time) (ReportPeriod, error) {
	p := ReportPeriod{Year: now.Year(), Month: now.Month()}

	if v := strings.TrimSpace(query.Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil || y < 1970 || y > now.Year()+1 {
			return p, errInvalidPeriod
		}
		p.Year = y
	}
	if v := strings.TrimSpace(query.Get("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			return p, errInvalidPeriod
		}
		p.Month = time.Month(m)
	}
	return p, nil
}

// YearBounds returns the first and last day of the period's year.
func (p ReportPeriod) YearBounds() (time.Time, time.Time) {
	start := time.Date(p.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return start, time.Date(p.Year, time.December, 31, 0, 0, 0, 0, time.UTC)
}

// MonthBounds returns the first and last day of the period's month.
func (p ReportPeriod) MonthBounds() (time.Time, time.Time) {
	start := time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, -1)
}

// parseExpenseID reads the {id} path value; ok is false for anything that
// cannot name a stored expense.
func parseExpenseID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
