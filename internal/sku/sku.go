// Package sku derives the 14-character SKU code from eight categorical
// product attributes:
//
//	brand(2) gender(1) season(1) category(1) subcategory(1) model(3) color(3) size(2)
//
// Generation is pure and deterministic.
package sku

import (
	"errors"
	"sort"
	"strings"
)

// Length of every generated code.
const Length = 14

// ErrInvalidSKU is wrapped by every AttributeError.
var ErrInvalidSKU = errors.New("invalid SKU: required attributes are incomplete")

// Policy decides what happens with a present but unknown attribute value.
type Policy string

const (
	// PolicyFallback substitutes the table default and reports the field.
	PolicyFallback Policy = "fallback"
	// PolicyStrict rejects the value.
	PolicyStrict Policy = "strict"
)

// Attributes are the raw values chosen on the add-item form.
// ModelCode and ColorCode are the 3-digit registry codes, not names.
type Attributes struct {
	Brand       string
	Gender      string
	Season      string
	Category    string
	Subcategory string
	ModelCode   string
	ColorCode   string
	Size        string
}

// Result is a generated code plus the fields that fell back to a default.
type Result struct {
	Code      string
	Fallbacks []string
}

// AttributeError lists every offending field, keyed by its JSON name.
type AttributeError struct {
	Missing   []string
	Unknown   []string
	Malformed []string
}

func (e *AttributeError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing "+strings.Join(e.Missing, ", "))
	}
	if len(e.Unknown) > 0 {
		parts = append(parts, "unknown "+strings.Join(e.Unknown, ", "))
	}
	if len(e.Malformed) > 0 {
		parts = append(parts, "malformed "+strings.Join(e.Malformed, ", "))
	}
	return ErrInvalidSKU.Error() + ": " + strings.Join(parts, "; ")
}

func (e *AttributeError) Unwrap() error { return ErrInvalidSKU }

// Fields maps field name to a validator-style tag for the 422 envelope.
func (e *AttributeError) Fields() map[string]string {
	out := make(map[string]string)
	for _, f := range e.Missing {
		out[f] = "required"
	}
	for _, f := range e.Unknown {
		out[f] = "unknown"
	}
	for _, f := range e.Malformed {
		out[f] = "len=3,numeric"
	}
	return out
}

// Generator applies a Policy. The zero value uses PolicyFallback.
type Generator struct {
	policy Policy
}

func NewGenerator(p Policy) *Generator {
	if p != PolicyStrict {
		p = PolicyFallback
	}
	return &Generator{policy: p}
}

// Policy returns the configured unknown-value policy.
func (g *Generator) Policy() Policy {
	if g == nil || g.policy == "" {
		return PolicyFallback
	}
	return g.policy
}

// Generate builds the SKU code for a.
func (g *Generator) Generate(a Attributes) (Result, error) {
	type input struct {
		t     table
		value string
	}
	lookups := []input{
		{brandTable, a.Brand},
		{genderTable, a.Gender},
		{seasonTable, a.Season},
		{categoryTable, a.Category},
		{subcategoryTable, a.Subcategory},
	}

	attrErr := &AttributeError{}
	for _, in := range lookups {
		if Normalize(in.value) == "" {
			attrErr.Missing = append(attrErr.Missing, in.t.field)
		}
	}
	modelCode, modelOK := NormalizeCode(a.ModelCode)
	colorCode, colorOK := NormalizeCode(a.ColorCode)
	size := Normalize(a.Size)
	switch {
	case modelCode == "":
		attrErr.Missing = append(attrErr.Missing, "model_code")
	case !modelOK:
		attrErr.Malformed = append(attrErr.Malformed, "model_code")
	}
	switch {
	case colorCode == "":
		attrErr.Missing = append(attrErr.Missing, "color_code")
	case !colorOK:
		attrErr.Malformed = append(attrErr.Malformed, "color_code")
	}
	if size == "" {
		attrErr.Missing = append(attrErr.Missing, "size")
	}
	if len(attrErr.Missing) > 0 || len(attrErr.Malformed) > 0 {
		return Result{}, attrErr
	}

	var b strings.Builder
	b.Grow(Length)
	var fallbacks []string
	for i, in := range lookups {
		code, known := in.t.lookup(in.value)
		if !known {
			fallbacks = append(fallbacks, in.t.field)
		}
		b.WriteString(code)
		if i == len(lookups)-1 {
			b.WriteString(modelCode)
			b.WriteString(colorCode)
		}
	}
	sizeCode, known := sizeTable.lookup(size)
	if !known {
		fallbacks = append(fallbacks, sizeTable.field)
	}
	b.WriteString(sizeCode)

	if len(fallbacks) > 0 && g.Policy() == PolicyStrict {
		sort.Strings(fallbacks)
		return Result{}, &AttributeError{Unknown: fallbacks}
	}
	return Result{Code: b.String(), Fallbacks: fallbacks}, nil
}

var defaultGenerator = NewGenerator(PolicyFallback)

// Generate uses the fallback policy.
func Generate(a Attributes) (Result, error) { return defaultGenerator.Generate(a) }
