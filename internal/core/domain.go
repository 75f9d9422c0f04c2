package core

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

type (
	// Expense is one recorded outflow as the expense API returns it.
	// CreateDate and UpdateDate are assigned by the server and never sent back.
	Expense struct {
		ID            int64           `json:"id"`
		Description   string          `json:"description"`
		Amount        decimal.Decimal `json:"amount"`
		Date          Timestamp       `json:"date"`
		Category      Category        `json:"category"`
		PaymentMethod PaymentMethod   `json:"paymentMethod"`
		IsRecurring   bool            `json:"isRecurring"`
		CreateDate    Timestamp       `json:"createDate"`
		UpdateDate    Timestamp       `json:"updateDate"`
	}

	// ExpenseInput carries the user supplied fields of a new expense.
	ExpenseInput struct {
		Description   string
		Amount        decimal.Decimal
		Date          Timestamp
		Category      Category
		PaymentMethod PaymentMethod
		IsRecurring   bool
	}

	// ExpensePatch is a partial update; nil fields are left unchanged.
	ExpensePatch struct {
		Description   *string
		Amount        *decimal.Decimal
		Date          *Timestamp
		Category      *Category
		PaymentMethod *PaymentMethod
		IsRecurring   *bool
	}

	// CategoryReport is the per-category aggregate of a set of expenses.
	CategoryReport struct {
		Category    Category        `json:"category"`
		Count       int             `json:"count"`
		TotalAmount decimal.Decimal `json:"totalAmount"`
	}
)

var (
	ErrInvalidAmount        = errors.New("amount must be greater than zero")
	ErrEmptyDescription     = errors.New("description is required")
	ErrUnknownCategory      = errors.New("unknown category")
	ErrUnknownPaymentMethod = errors.New("unknown payment method")
	ErrMissingDate          = errors.New("date is required")
	ErrEmptyPatch           = errors.New("nothing to update")
)

func validateAmount(d decimal.Decimal) error {
	if !d.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

func validateDescription(s string) error {
	if strings.TrimSpace(s) == "" {
		return ErrEmptyDescription
	}
	return nil
}

func (e Expense) Validate() error {
	return ExpenseInput{
		Description:   e.Description,
		Amount:        e.Amount,
		Date:          e.Date,
		Category:      e.Category,
		PaymentMethod: e.PaymentMethod,
		IsRecurring:   e.IsRecurring,
	}.Validate()
}

// Input strips the server assigned fields.
func (e Expense) Input() ExpenseInput {
	return ExpenseInput{
		Description:   e.Description,
		Amount:        e.Amount,
		Date:          e.Date,
		Category:      e.Category,
		PaymentMethod: e.PaymentMethod,
		IsRecurring:   e.IsRecurring,
	}
}

// Validate returns the first violated rule; the checks run in form order.
func (in ExpenseInput) Validate() error {
	if err := validateDescription(in.Description); err != nil {
		return err
	}
	if err := validateAmount(in.Amount); err != nil {
		return err
	}
	if in.Date.IsZero() {
		return ErrMissingDate
	}
	if !in.Category.Valid() {
		return ErrUnknownCategory
	}
	if !in.PaymentMethod.Valid() {
		return ErrUnknownPaymentMethod
	}
	return nil
}

// Patch turns a full input into a patch that sets every field.
func (in ExpenseInput) Patch() ExpensePatch {
	return ExpensePatch{
		Description:   &in.Description,
		Amount:        &in.Amount,
		Date:          &in.Date,
		Category:      &in.Category,
		PaymentMethod: &in.PaymentMethod,
		IsRecurring:   &in.IsRecurring,
	}
}

func (p ExpensePatch) IsEmpty() bool {
	return p.Description == nil && p.Amount == nil && p.Date == nil &&
		p.Category == nil && p.PaymentMethod == nil && p.IsRecurring == nil
}

// Validate checks only the fields that are set.
func (p ExpensePatch) Validate() error {
	if p.IsEmpty() {
		return ErrEmptyPatch
	}
	if p.Description != nil {
		if err := validateDescription(*p.Description); err != nil {
			return err
		}
	}
	if p.Amount != nil {
		if err := validateAmount(*p.Amount); err != nil {
			return err
		}
	}
	if p.Date != nil && p.Date.IsZero() {
		return ErrMissingDate
	}
	if p.Category != nil && !p.Category.Valid() {
		return ErrUnknownCategory
	}
	if p.PaymentMethod != nil && !p.PaymentMethod.Valid() {
		return ErrUnknownPaymentMethod
	}
	return nil
}

// Average is total / count, zero for an empty report.
func (r CategoryReport) Average() decimal.Decimal {
	if r.Count <= 0 {
		return decimal.Zero
	}
	return r.TotalAmount.Div(decimal.NewFromInt(int64(r.Count)))
}
