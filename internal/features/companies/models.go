// Package companies looks up Dutch companies in the chamber of commerce
// registry and maps postcodes to provinces for the lead form.
package companies

// Company is one registry search hit.
type Company struct {
	KvKNumber   string `json:"kvk_number"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Street      string `json:"street"`
	HouseNumber string `json:"house_number"`
	Postcode    string `json:"postcode"`
	City        string `json:"city"`
}

// PostcodeInfo is the answer of GET /api/postcode/{postcode}.
type PostcodeInfo struct {
	Postcode string `json:"postcode"`
	Province string `json:"province"`
}

// searchResponse mirrors the registry's /zoeken payload.
type searchResponse struct {
	Results []struct {
		KvKNumber string `json:"kvkNummer"`
		Name      string `json:"naam"`
		Type      string `json:"type"`
		Address   struct {
			Domestic struct {
				Street      string `json:"straatnaam"`
				HouseNumber int    `json:"huisnummer"`
				Postcode    string `json:"postcode"`
				City        string `json:"plaats"`
			} `json:"binnenlandsAdres"`
		} `json:"adres"`
	} `json:"resultaten"`
}
