// Package matcher resolves a lookup form to a single account record by
// exact equality on every required field.
package matcher

import (
	"context"
	"errors"
	"fmt"

	"github.com/shrimpsizemoose/haksa/internal/models"
	"github.com/shrimpsizemoose/haksa/internal/normalize"
	"github.com/shrimpsizemoose/haksa/internal/store"
)

// Variant selects which fields a lookup requires and how the student
// number is normalized.
type Variant string

const (
	// VariantFull requires all four fields, student number trimmed only.
	VariantFull Variant = "full"
	// VariantBasic requires student number and name.
	VariantBasic Variant = "basic"
	// VariantDemo requires all four fields with a five digit student
	// number and reveals a derived demo password.
	VariantDemo Variant = "demo"
)

func ParseVariant(s string) (Variant, error) {
	switch v := Variant(s); v {
	case VariantFull, VariantBasic, VariantDemo:
		return v, nil
	case "":
		return VariantFull, nil
	default:
		return "", fmt.Errorf("unknown lookup variant %q, use one of full, basic, demo", s)
	}
}

// RequiresContact reports whether birth and phone digits take part in matching.
func (v Variant) RequiresContact() bool {
	return v != VariantBasic
}

var ErrNotFound = errors.New("no matching account")

type ErrorKind int

const (
	KindIncomplete ErrorKind = iota + 1
	KindMalformed
)

// InputError rejects a query before any record is looked at. Field is set
// for malformed lengths and names the form field to focus.
type InputError struct {
	Kind  ErrorKind
	Field string
}

func (e *InputError) Error() string {
	if e.Kind == KindMalformed {
		return fmt.Sprintf("malformed field %s", e.Field)
	}
	return "incomplete input"
}

type Matcher struct {
	store   store.AccountStore
	variant Variant
}

func New(s store.AccountStore, variant Variant) *Matcher {
	return &Matcher{store: s, variant: variant}
}

func (m *Matcher) Variant() Variant {
	return m.variant
}

func (m *Matcher) Normalize(form models.LookupForm) models.Query {
	q := models.Query{
		StudentNo: normalize.StudentNo(form.StudentNo),
		Name:      normalize.Name(form.StudentName),
	}
	if m.variant == VariantDemo {
		q.StudentNo = normalize.StudentNoDigits(form.StudentNo)
	}
	if m.variant.RequiresContact() {
		q.Birth = normalize.Birth(form.Birth)
		q.PhoneLast4 = normalize.PhoneLast4(form.PhoneLast4)
	}
	return q
}

// Validate checks presence first, then fixed lengths in form order.
func (m *Matcher) Validate(q models.Query) error {
	if q.StudentNo == "" || q.Name == "" {
		return &InputError{Kind: KindIncomplete}
	}
	if !m.variant.RequiresContact() {
		return nil
	}
	if q.Birth == "" || q.PhoneLast4 == "" {
		return &InputError{Kind: KindIncomplete}
	}

	if m.variant == VariantDemo && len(q.StudentNo) != normalize.StudentNoDigitsLen {
		return &InputError{Kind: KindMalformed, Field: normalize.FieldStudentNo}
	}
	if len(q.Birth) != normalize.BirthLen {
		return &InputError{Kind: KindMalformed, Field: normalize.FieldBirth}
	}
	if len(q.PhoneLast4) != normalize.PhoneLast4Len {
		return &InputError{Kind: KindMalformed, Field: normalize.FieldPhoneLast4}
	}
	return nil
}

// Match returns the first account in list order whose required fields all
// equal the query, or ErrNotFound.
func (m *Matcher) Match(ctx context.Context, q models.Query) (*models.Account, error) {
	accounts, err := m.store.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load accounts: %w", err)
	}

	for i := range accounts {
		if m.matches(&accounts[i], q) {
			return &accounts[i], nil
		}
	}
	return nil, ErrNotFound
}

func (m *Matcher) matches(a *models.Account, q models.Query) bool {
	if a.StudentNo != q.StudentNo || a.Name != q.Name {
		return false
	}
	if !m.variant.RequiresContact() {
		return true
	}
	return a.Birth == q.Birth && a.PhoneLast4 == q.PhoneLast4
}

// Reachable reports whether typing the account's own fields into the form
// can ever match it under this variant. A demo matcher cannot reach a
// four digit student number, for example.
func (m *Matcher) Reachable(a models.Account) bool {
	q := m.Normalize(models.LookupForm{
		StudentNo:   a.StudentNo,
		StudentName: a.Name,
		Birth:       a.Birth,
		PhoneLast4:  a.PhoneLast4,
	})
	if m.Validate(q) != nil {
		return false
	}
	return m.matches(&a, q)
}
