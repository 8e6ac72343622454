package sku

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bagAttrs() Attributes {
	return Attributes{
		Brand:       "نایک",
		Gender:      "زنانه",
		Season:      "بهار",
		Category:    "کیف",
		Subcategory: "کیف دستی",
		ModelCode:   "230",
		ColorCode:   "001",
		Size:        "متوسط",
	}
}

func TestGenerate_HandbagScenario(t *testing.T) {
	res, err := Generate(bagAttrs())
	require.NoError(t, err)

	assert.Equal(t, "JOW11123000102", res.Code)
	assert.Len(t, res.Code, Length)
	assert.Empty(t, res.Fallbacks)
}

func TestGenerate_IsDeterministic(t *testing.T) {
	a := bagAttrs()
	first, err := Generate(a)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := Generate(a)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestGenerate_PositionLayout(t *testing.T) {
	res, err := Generate(Attributes{
		Brand:       "ریبوک",
		Gender:      "مردانه",
		Season:      "زمستان",
		Category:    "کفش",
		Subcategory: "ورزشی",
		ModelCode:   "670",
		ColorCode:   "003",
		Size:        "42",
	})
	require.NoError(t, err)

	code := res.Code
	assert.Equal(t, "PA", code[0:2])
	assert.Equal(t, "M", code[2:3])
	assert.Equal(t, "4", code[3:4])
	assert.Equal(t, "2", code[4:5])
	assert.Equal(t, "3", code[5:6])
	assert.Equal(t, "670", code[6:9])
	assert.Equal(t, "003", code[9:12])
	assert.Equal(t, "42", code[12:14])
}

func TestGenerate_LatinSizesAreCaseInsensitive(t *testing.T) {
	a := bagAttrs()
	a.Size = "xl"
	res, err := Generate(a)
	require.NoError(t, err)
	assert.Equal(t, "05", res.Code[12:])
}

func TestGenerate_MissingAttributes(t *testing.T) {
	a := bagAttrs()
	a.Season = "  "
	a.ColorCode = ""

	_, err := Generate(a)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidSKU))

	var attrErr *AttributeError
	require.True(t, errors.As(err, &attrErr))
	assert.ElementsMatch(t, []string{"season", "color_code"}, attrErr.Missing)
	assert.Equal(t, "required", attrErr.Fields()["season"])
}

func TestGenerate_MalformedRegistryCode(t *testing.T) {
	a := bagAttrs()
	a.ModelCode = "23"

	_, err := Generate(a)
	var attrErr *AttributeError
	require.True(t, errors.As(err, &attrErr))
	assert.Equal(t, []string{"model_code"}, attrErr.Malformed)
}

func TestGenerate_UnknownValueFallsBackAndIsReported(t *testing.T) {
	a := bagAttrs()
	a.Brand = "گوچی"
	a.Size = "XXXL"

	res, err := Generate(a)
	require.NoError(t, err)
	assert.Equal(t, "JO", res.Code[0:2])
	assert.Equal(t, "01", res.Code[12:])
	assert.Equal(t, []string{"brand", "size"}, res.Fallbacks)
}

func TestGenerate_StrictPolicyRejectsUnknownValue(t *testing.T) {
	g := NewGenerator(PolicyStrict)
	a := bagAttrs()
	a.Category = "ساعت"

	_, err := g.Generate(a)
	var attrErr *AttributeError
	require.True(t, errors.As(err, &attrErr))
	assert.Equal(t, []string{"category"}, attrErr.Unknown)
	assert.Equal(t, "unknown", attrErr.Fields()["category"])

	_, err = g.Generate(bagAttrs())
	assert.NoError(t, err)
}

func TestGenerate_NormalizesArabicLettersAndDigits(t *testing.T) {
	a := bagAttrs()
	a.Brand = "\u0646\u0627\u064a\u0643" // Arabic yeh and kaf
	a.Subcategory = "\u06a9\u06cc\u0641\u200c\u062f\u0633\u062a\u06cc"
	a.ModelCode = "\u06f2\u06f3\u06f0"
	a.ColorCode = "\u0660\u0660\u0661"

	res, err := Generate(a)
	require.NoError(t, err)
	assert.Equal(t, "JOW11123000102", res.Code)
	assert.Empty(t, res.Fallbacks)
}

func TestNormalizeCode(t *testing.T) {
	c, ok := NormalizeCode(" \u06f4\u06f5\u06f0 ")
	assert.True(t, ok)
	assert.Equal(t, "450", c)

	_, ok = NormalizeCode("45a")
	assert.False(t, ok)
	_, ok = NormalizeCode("4500")
	assert.False(t, ok)
}

func TestValues_ListsEveryTable(t *testing.T) {
	v := Values()
	for _, f := range []string{"brand", "gender", "season", "category", "subcategory", "size"} {
		assert.NotEmpty(t, v[f], f)
	}
	assert.Contains(t, v["size"], "XL")
}
