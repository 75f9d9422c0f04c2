package core

import "strings"

type (
	Category      string
	PaymentMethod string
)

const (
	CategoryMaintenance   Category = "MAINTENANCE"
	CategoryCreditCard    Category = "CREDIT_CARD"
	CategoryBill          Category = "BILL"
	CategoryEntertainment Category = "ENTERTAINMENT"
	CategoryRent          Category = "RENT"
	CategoryGroceries     Category = "GROCERIES"
	CategoryTechnology    Category = "TECHNOLOGY"
	CategoryFood          Category = "FOOD"
	CategoryInvestment    Category = "INVESTMENT"
	CategoryEducation     Category = "EDUCATION"
	CategoryChild         Category = "CHILD"
	CategoryDebt          Category = "DEBT"
)

const (
	PaymentIBAN       PaymentMethod = "IBAN"
	PaymentCash       PaymentMethod = "CASH"
	PaymentCreditCard PaymentMethod = "CREDIT_CARD"
)

var categories = []Category{
	CategoryMaintenance, CategoryCreditCard, CategoryBill, CategoryEntertainment,
	CategoryRent, CategoryGroceries, CategoryTechnology, CategoryFood,
	CategoryInvestment, CategoryEducation, CategoryChild, CategoryDebt,
}

var paymentMethods = []PaymentMethod{PaymentIBAN, PaymentCash, PaymentCreditCard}

// Categories returns the closed category set in declaration order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// PaymentMethods returns the closed payment method set.
func PaymentMethods() []PaymentMethod {
	out := make([]PaymentMethod, len(paymentMethods))
	copy(out, paymentMethods)
	return out
}

// ParseCategory accepts any casing and surrounding whitespace.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToUpper(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", ErrUnknownCategory
	}
	return c, nil
}

func ParsePaymentMethod(s string) (PaymentMethod, error) {
	p := PaymentMethod(strings.ToUpper(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", ErrUnknownPaymentMethod
	}
	return p, nil
}

func (c Category) Valid() bool {
	for _, known := range categories {
		if c == known {
			return true
		}
	}
	return false
}

func (c Category) String() string { return string(c) }

// Label is the human form of the tag: CREDIT_CARD -> "Credit Card".
func (c Category) Label() string { return label(string(c)) }

func (p PaymentMethod) Valid() bool {
	for _, known := range paymentMethods {
		if p == known {
			return true
		}
	}
	return false
}

func (p PaymentMethod) String() string { return string(p) }

func (p PaymentMethod) Label() string {
	if p == PaymentIBAN {
		return "IBAN"
	}
	return label(string(p))
}

func label(tag string) string {
	words := strings.Split(strings.ToLower(tag), "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
