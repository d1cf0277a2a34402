package models

import "strings"

// KeySeparator joins the invoice number and identifier in a match key
const KeySeparator = "_"

var nullPlaceholders = map[string]bool{
	"nan":  true,
	"none": true,
	"null": true,
	"nat":  true,
}

// IsBlank reports whether s is empty after trimming or is a textual null
// placeholder such as "nan" or "None".
func IsBlank(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || nullPlaceholders[strings.ToLower(s)]
}

// BuildMatchKey joins a trimmed invoice number and cleansed identifier into
// the key used to pair records across ledgers. ok is false when either part
// is blank, in which case the record takes no part in matching.
func BuildMatchKey(invoiceNo, gstin string) (string, bool) {
	invoiceNo = strings.TrimSpace(invoiceNo)
	gstin = strings.TrimSpace(gstin)
	if IsBlank(invoiceNo) || IsBlank(gstin) {
		return "", false
	}
	return invoiceNo + KeySeparator + gstin, true
}
