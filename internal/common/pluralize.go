// pluralize.go formats amounts and counts for Dutch
// readers: thousands separated by dots, decimals by a comma.

package common

import "fmt"

// FormatNumber formats an integer with dot thousands separators.
// Example: FormatNumber(2350) → "2.350"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	return fmt.Sprintf("%s.%03d", FormatNumber(n/1000), n%1000)
}

// FormatEuro formats an amount in cents.
//
//	FormatEuro(123456) → "€ 1.234,56"
//	FormatEuro(-500)   → "€ -5,00"
func FormatEuro(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("€ %s%s,%02d", sign, FormatNumber(cents/100), cents%100)
}

// PluralizeLeads returns "1 nieuwe lead" / "3 nieuwe leads".
func PluralizeLeads(n int) string {
	if n == 1 {
		return "1 nieuwe lead"
	}
	return fmt.Sprintf("%d nieuwe leads", n)
}
