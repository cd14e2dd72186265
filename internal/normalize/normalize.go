// Package normalize canonicalizes raw form input before it is compared
// against account records. Every function is total and idempotent.
package normalize

import "strings"

const (
	StudentNoDigitsLen = 5
	BirthLen           = 6
	PhoneLast4Len      = 4
)

// Field ids as they appear on the lookup form.
const (
	FieldStudentNo   = "studentNo"
	FieldStudentName = "studentName"
	FieldBirth       = "birth"
	FieldPhoneLast4  = "phoneLast4"
)

// OnlyDigits drops every rune outside 0-9.
func OnlyDigits(v string) string {
	var b strings.Builder
	b.Grow(len(v))
	for i := 0; i < len(v); i++ {
		if c := v[i]; c >= '0' && c <= '9' {
			b.WriteByte(c)
		}
	}
	return b.String()
}

func digits(v string, n int) string {
	d := OnlyDigits(v)
	if len(d) > n {
		return d[:n]
	}
	return d
}

func StudentNo(v string) string {
	return strings.TrimSpace(v)
}

// StudentNoDigits is the stricter student number form: digits only, at most five.
func StudentNoDigits(v string) string {
	return digits(v, StudentNoDigitsLen)
}

// Name strips all whitespace, leading, trailing and internal.
func Name(v string) string {
	return strings.Join(strings.Fields(v), "")
}

// Birth keeps the first six digits (YYMMDD).
func Birth(v string) string {
	return digits(v, BirthLen)
}

func PhoneLast4(v string) string {
	return digits(v, PhoneLast4Len)
}

// Field applies the live clean-up used while the user is typing. Only the
// numeric fields are rewritten; other fields come back unchanged.
func Field(field, v string, strictStudentNo bool) (string, bool) {
	switch field {
	case FieldBirth:
		return Birth(v), true
	case FieldPhoneLast4:
		return PhoneLast4(v), true
	case FieldStudentNo:
		if strictStudentNo {
			return StudentNoDigits(v), true
		}
		return v, true
	case FieldStudentName:
		return v, true
	default:
		return "", false
	}
}
