// Package model defines domain types used by the service.
package model

// ProductRecord is one spreadsheet row after normalization. Records are
// rebuilt wholesale on every cache refresh and never mutated in place.
type ProductRecord struct {
	Image       string  `json:"image"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
}

// Empty reports whether every descriptive field is blank after trimming.
// Fully empty rows are dropped from fetch results.
func (r ProductRecord) Empty() bool {
	return r.Image == "" && r.Name == "" && r.Description == ""
}
