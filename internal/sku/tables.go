package sku

import (
	"sort"
	"strings"
)

// table is one attribute lookup with the code used when a value is unknown.
type table struct {
	field string
	codes map[string]string
	def   string
}

func (t table) lookup(v string) (code string, known bool) {
	if c, ok := t.codes[lookupKey(v)]; ok {
		return c, true
	}
	return t.def, false
}

// reindex normalizes the table keys so lookups match whichever yeh/kaf
// variant the source literal was typed with.
func (t *table) reindex() {
	codes := make(map[string]string, len(t.codes))
	for k, v := range t.codes {
		codes[lookupKey(k)] = v
	}
	t.codes = codes
}

func lookupKey(v string) string { return strings.ToUpper(Normalize(v)) }

func init() {
	for _, t := range allTables() {
		t.reindex()
	}
}

func allTables() []*table {
	return []*table{&brandTable, &genderTable, &seasonTable, &categoryTable, &subcategoryTable, &sizeTable}
}

var brandTable = table{
	field: "brand",
	codes: map[string]string{
		"نایک":   "JO",
		"آدیداس": "PH",
		"پوما":   "VE",
		"ریبوک":  "PA",
	},
	def: "JO",
}

var genderTable = table{
	field: "gender",
	codes: map[string]string{
		"زنانه":  "W",
		"مردانه": "M",
	},
	def: "M",
}

var seasonTable = table{
	field: "season",
	codes: map[string]string{
		"بهار":     "1",
		"تابستان":  "2",
		"پاییز":    "3",
		"زمستان":   "4",
		"همه فصل":  "5",
		"بدون فصل": "0",
	},
	def: "0",
}

var categoryTable = table{
	field: "category",
	codes: map[string]string{
		"کیف":        "1",
		"کفش":        "2",
		"پوشاک":      "3",
		"لوازم جانبی": "4",
	},
	def: "1",
}

var subcategoryTable = table{
	field: "subcategory",
	codes: map[string]string{
		"کیف دستی":      "1",
		"کیف کراس بادی": "2",
		"ورزشی":         "3",
		"رسمی":          "4",
	},
	def: "1",
}

var sizeTable = table{
	field: "size",
	codes: map[string]string{
		"XS":    "01",
		"S":     "02",
		"M":     "03",
		"L":     "04",
		"XL":    "05",
		"XXL":   "06",
		"38":    "38",
		"39":    "39",
		"40":    "40",
		"41":    "41",
		"42":    "42",
		"43":    "43",
		"کوچک":  "01",
		"متوسط": "02",
		"بزرگ":  "03",
	},
	def: "01",
}

// Values returns the accepted values per attribute, for the add-item form.
func Values() map[string][]string {
	out := make(map[string][]string)
	for _, t := range allTables() {
		vals := make([]string, 0, len(t.codes))
		for v := range t.codes {
			vals = append(vals, v)
		}
		sort.Strings(vals)
		out[t.field] = vals
	}
	return out
}
