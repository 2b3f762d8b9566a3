// Package extract pulls business contact details out of HTML documents:
// company identity, phone numbers, email addresses, postal addresses,
// social profiles and page metadata.
package extract

// LeadRecord is the structured result of scraping one page. Collection
// fields are deduplicated and sorted; scalar fields are empty when nothing
// qualified.
type LeadRecord struct {
	SourceURL    string            `json:"source_url"`
	CanonicalURL string            `json:"canonical_url,omitempty"`
	Website      string            `json:"website,omitempty"`
	CompanyName  string            `json:"company_name,omitempty"`
	Description  string            `json:"description,omitempty"`
	Phones       []string          `json:"phones,omitempty"`
	Emails       []string          `json:"emails,omitempty"`
	Addresses    []string          `json:"addresses,omitempty"`
	SocialLinks  map[string]string `json:"social_links,omitempty"`
}

// HasSignal reports whether the record carries any direct contact value.
// Records without a name, phone or email are not worth persisting.
func (r LeadRecord) HasSignal() bool {
	return r.CompanyName != "" || len(r.Phones) > 0 || len(r.Emails) > 0
}
