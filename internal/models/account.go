package models

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Account is one row of the read-only lookup list. The demo password is
// derived on demand and never stored here.
type Account struct {
	StudentNo  string `db:"student_no" json:"studentNo" toml:"student_no" validate:"required"`
	Name       string `db:"name" json:"name" toml:"name" validate:"required"`
	Birth      string `db:"birth" json:"birth" toml:"birth" validate:"omitempty,numeric,len=6"`
	PhoneLast4 string `db:"phone_last4" json:"phoneLast4" toml:"phone_last4" validate:"omitempty,numeric,len=4"`
	GoogleID   string `db:"google_id" json:"googleId" toml:"google_id" validate:"required"`
}

func (a *Account) Validate() error {
	return validate.Struct(a)
}
