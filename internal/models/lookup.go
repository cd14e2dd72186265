package models

// LookupForm carries the raw form values keyed by the input element ids.
type LookupForm struct {
	StudentNo   string `json:"studentNo"`
	StudentName string `json:"studentName"`
	Birth       string `json:"birth"`
	PhoneLast4  string `json:"phoneLast4"`
}

// Query is a LookupForm after normalization.
type Query struct {
	StudentNo  string
	Name       string
	Birth      string
	PhoneLast4 string
}
