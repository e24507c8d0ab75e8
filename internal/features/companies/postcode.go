// postcode.go maps the four digits of a Dutch
// postcode to its province with a static range table.

package companies

import (
	"net/http"
	"strconv"
	"strings"

	"pixelwerk.nl/backoffice/internal/common"
)

type postcodeRange struct {
	from, to int
	province string
}

// Ranges are inclusive and sorted. Border areas follow the majority of
// the range.
var postcodeRanges = []postcodeRange{
	{1000, 1299, "Noord-Holland"},
	{1300, 1379, "Flevoland"},
	{1380, 2199, "Noord-Holland"},
	{2200, 3399, "Zuid-Holland"},
	{3400, 3999, "Utrecht"},
	{4000, 4199, "Gelderland"},
	{4200, 4299, "Zuid-Holland"},
	{4300, 4599, "Zeeland"},
	{4600, 5799, "Noord-Brabant"},
	{5800, 6499, "Limburg"},
	{6500, 7399, "Gelderland"},
	{7400, 7799, "Overijssel"},
	{7800, 7999, "Drenthe"},
	{8000, 8199, "Overijssel"},
	{8200, 8259, "Flevoland"},
	{8260, 8299, "Overijssel"},
	{8300, 8329, "Flevoland"},
	{8330, 8399, "Overijssel"},
	{8400, 9299, "Friesland"},
	{9300, 9499, "Drenthe"},
	{9500, 9999, "Groningen"},
}

// LookupPostcode accepts "1234", "1234AB" or "1234 ab" and returns the
// normalized postcode with its province.
func LookupPostcode(raw string) (*PostcodeInfo, error) {
	p := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(raw), " ", ""))
	if len(p) != 4 && !common.IsPostcode(p) {
		return nil, invalidPostcode()
	}
	digits, err := strconv.Atoi(p[:4])
	if err != nil || digits < 1000 {
		return nil, invalidPostcode()
	}

	for _, r := range postcodeRanges {
		if digits >= r.from && digits <= r.to {
			if len(p) == 6 {
				p = p[:4] + " " + p[4:]
			}
			return &PostcodeInfo{Postcode: p, Province: r.province}, nil
		}
	}
	return nil, common.NotFound("Postcode")
}

func invalidPostcode() *common.APIError {
	return &common.APIError{
		Status:  http.StatusBadRequest,
		Message: common.MsgInvalidInput,
		Details: map[string]string{"postcode": "moet een Nederlandse postcode zijn (1234 AB)"},
	}
}
