package unitgen

import (
	"fmt"
	"strconv"

	"jourdash/internal/sku"
)

const (
	// BarcodeLength is the printed length: 11-digit serial + 1 check digit.
	BarcodeLength = 12
	serialDigits  = 11
	// MaxSerial is the largest serial that fits in the barcode.
	MaxSerial int64 = 99_999_999_999
)

// CheckDigit computes the GS1 mod-10 check digit for a run of ASCII digits.
func CheckDigit(digits string) int {
	sum := 0
	for i := 0; i < len(digits); i++ {
		d := int(digits[len(digits)-1-i] - '0')
		if i%2 == 0 {
			d *= 3
		}
		sum += d
	}
	return (10 - sum%10) % 10
}

// FromSerial renders serial as a 12-digit barcode.
func FromSerial(serial int64) (string, error) {
	if serial <= 0 || serial > MaxSerial {
		return "", fmt.Errorf("%w: serial %d out of range", ErrBarcodeExhausted, serial)
	}
	body := fmt.Sprintf("%0*d", serialDigits, serial)
	return body + strconv.Itoa(CheckDigit(body)), nil
}

// NormalizeBarcode converts Persian digits and trims scanner whitespace.
func NormalizeBarcode(s string) string { return sku.Normalize(s) }

// ValidBarcode reports whether s is exactly 12 ASCII digits with a correct check digit.
func ValidBarcode(s string) bool {
	if len(s) != BarcodeLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return CheckDigit(s[:serialDigits]) == int(s[serialDigits]-'0')
}

// SerialOf extracts the serial from a valid barcode.
func SerialOf(barcode string) (int64, error) {
	if !ValidBarcode(barcode) {
		return 0, fmt.Errorf("invalid barcode %q", barcode)
	}
	return strconv.ParseInt(barcode[:serialDigits], 10, 64)
}
