package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// minFreeTextAddressFields is the evidence bar for addresses found in
// unstructured text; labeled markup gets by with less.
const minFreeTextAddressFields = 3

// postalAddress holds labeled address components.
type postalAddress struct {
	houseNumber string
	road        string
	unit        string
	suburb      string
	district    string
	city        string
	region      string
	postcode    string
	country     string
}

func (a postalAddress) fields() []string {
	parts := make([]string, 0, 9)
	for _, f := range []string{
		a.houseNumber, a.road, a.unit, a.suburb, a.district,
		a.city, a.region, a.postcode, a.country,
	} {
		if f != "" {
			parts = append(parts, f)
		}
	}
	return parts
}

func (a postalAddress) fieldCount() int { return len(a.fields()) }

// format renders the populated components in a fixed order so the same
// address always serializes identically.
func (a postalAddress) format() string {
	return strings.Join(a.fields(), ", ")
}

// coreFieldCount counts the components that distinguish a street address
// from arbitrary comma-separated text.
func (a postalAddress) coreFieldCount() int {
	n := 0
	for _, f := range []string{a.road, a.houseNumber, a.city, a.postcode, a.region} {
		if f != "" {
			n++
		}
	}
	return n
}

var (
	usZipRE        = regexp.MustCompile(`^\d{5}(?:-\d{4})?$`)
	ukPostcodeRE   = regexp.MustCompile(`(?i)^[A-Z]{1,2}\d[A-Z\d]?\s*\d[A-Z]{2}$`)
	caPostcodeRE   = regexp.MustCompile(`(?i)^[A-Z]\d[A-Z]\s*\d[A-Z]\d$`)
	numericPost    = regexp.MustCompile(`^\d{4,6}$`)
	unitRE         = regexp.MustCompile(`(?i)\b(?:suite|ste\.?|unit|apt\.?|apartment|#)\s*[\w-]+`)
	houseRoadRE    = regexp.MustCompile(`^(\d+[A-Za-z]?)\s+(\S.{2,59})$`)
	doubledCommaRE = regexp.MustCompile(`,\s*,`)

	streetInlineRE = regexp.MustCompile(`(?i)\b(\d+[A-Za-z]?)\s+` +
		`((?:[A-Za-z.'\-]+\s+){0,4}?` +
		`(?:street|st|avenue|ave|road|rd|boulevard|blvd|drive|dr|lane|ln|way|court|ct|place|pl|terrace|ter|circle|cir|parkway|pkwy|highway|hwy|square|sq|plaza)\b\.?)` +
		`\s*(.*)$`)

	usAddressRE = regexp.MustCompile(`^(\d+[A-Za-z]?)\s+([\w .'\-]+?)` +
		`(?:[, ]+((?i:suite|ste\.?|unit|apt\.?|apartment|#)\s*[\w\-]+))?` +
		`,\s*([A-Za-z .'\-]+?)` +
		`,?\s+([A-Z]{2})\s+(\d{5}(?:-\d{4})?)` +
		`(?:,?\s+(USA|U\.S\.A\.|United States))?$`)
)

var usStateCodes = map[string]struct{}{
	"AL": {}, "AK": {}, "AZ": {}, "AR": {}, "CA": {}, "CO": {}, "CT": {},
	"DE": {}, "FL": {}, "GA": {}, "HI": {}, "ID": {}, "IL": {}, "IN": {},
	"IA": {}, "KS": {}, "KY": {}, "LA": {}, "ME": {}, "MD": {}, "MA": {},
	"MI": {}, "MN": {}, "MS": {}, "MO": {}, "MT": {}, "NE": {}, "NV": {},
	"NH": {}, "NJ": {}, "NM": {}, "NY": {}, "NC": {}, "ND": {}, "OH": {},
	"OK": {}, "OR": {}, "PA": {}, "RI": {}, "SC": {}, "SD": {}, "TN": {},
	"TX": {}, "UT": {}, "VT": {}, "VA": {}, "WA": {}, "WV": {}, "WI": {},
	"WY": {}, "DC": {},
}

var countryNames = map[string]string{
	"usa": "USA", "u.s.a.": "USA", "us": "USA",
	"united states": "United States", "united states of america": "United States",
	"canada": "Canada", "uk": "UK", "united kingdom": "United Kingdom",
	"australia": "Australia", "germany": "Germany", "france": "France",
	"ireland": "Ireland", "new zealand": "New Zealand", "netherlands": "Netherlands",
	"spain": "Spain", "italy": "Italy", "india": "India", "singapore": "Singapore",
}

var roadSuffixes = map[string]struct{}{
	"street": {}, "st": {}, "avenue": {}, "ave": {}, "road": {}, "rd": {},
	"boulevard": {}, "blvd": {}, "drive": {}, "dr": {}, "lane": {}, "ln": {},
	"way": {}, "court": {}, "ct": {}, "place": {}, "pl": {}, "terrace": {},
	"ter": {}, "circle": {}, "cir": {}, "parkway": {}, "pkwy": {},
	"highway": {}, "hwy": {}, "square": {}, "sq": {}, "plaza": {},
	"row": {}, "walk": {}, "crescent": {}, "close": {}, "broadway": {},
}

// addresses extracts postal addresses. Structured schema.org blocks are
// read first, then likely containers, then the page body split on block
// boundaries.
func (e *Engine) addresses(doc *goquery.Document) []string {
	var found []string
	keep := func(formatted string) {
		found = mergeAddress(found, formatted)
	}

	doc.Find(`[itemtype*="PostalAddress"]`).Each(func(_ int, sel *goquery.Selection) {
		if addr, ok := parseAddress(nodeText(sel)); ok && addr.coreFieldCount() >= 2 {
			keep(addr.format())
			return
		}
		if assembled := assembleSchemaAddress(sel); assembled != "" {
			if addr, ok := parseAddress(assembled); ok && addr.coreFieldCount() >= 2 {
				keep(addr.format())
			} else {
				keep(assembled)
			}
		}
	})

	containerSel := `address, [class*="address"], [id*="address"], [class*="location"], .contact-info, .contact-details`
	doc.Find(containerSel).Each(func(_ int, sel *goquery.Selection) {
		for _, segment := range textSegments(sel) {
			if addr, ok := parseAddress(segment); ok && addr.fieldCount() >= minFreeTextAddressFields {
				keep(addr.format())
			}
		}
	})

	if len(found) == 0 {
		doc.Find("body").Each(func(_ int, sel *goquery.Selection) {
			for _, segment := range textSegments(sel) {
				if addr, ok := parseAddress(segment); ok && addr.fieldCount() >= minFreeTextAddressFields {
					keep(addr.format())
				}
			}
		})
	}
	return found
}

// mergeAddress appends formatted unless an existing entry already covers it;
// a new superset replaces the entry it extends.
func mergeAddress(existing []string, formatted string) []string {
	lower := strings.ToLower(formatted)
	for i, have := range existing {
		haveLower := strings.ToLower(have)
		if haveLower == lower || strings.Contains(haveLower, lower) {
			return existing
		}
		if strings.Contains(lower, haveLower) {
			existing[i] = formatted
			return existing
		}
	}
	return append(existing, formatted)
}

// assembleSchemaAddress joins labeled schema.org sub-fields.
func assembleSchemaAddress(sel *goquery.Selection) string {
	var parts []string
	for _, prop := range []string{
		"streetAddress", "addressLocality", "addressRegion", "postalCode", "addressCountry",
	} {
		if v := nodeText(sel.Find(`[itemprop="` + prop + `"]`).First()); v != "" {
			parts = append(parts, v)
		}
	}
	if len(parts) < 2 {
		return ""
	}
	return strings.Join(parts, ", ")
}

// parseAddress labels the components of a free-form address string. A
// general heuristic pass runs first; when the text looks US-shaped and the
// general pass came up weak, a stricter US parse is preferred.
func parseAddress(text string) (postalAddress, bool) {
	text = cleanText(text)
	if len(text) < 10 || len(text) > 300 {
		return postalAddress{}, false
	}

	general, generalOK := parseGeneralAddress(text)
	if generalOK && general.coreFieldCount() >= 2 {
		return general, true
	}
	if looksUSAddress(text) {
		if us, ok := parseUSAddress(text); ok {
			return us, true
		}
	}
	if generalOK {
		return general, true
	}
	return postalAddress{}, false
}

func looksUSAddress(text string) bool {
	hasState := false
	for _, tok := range strings.FieldsFunc(text, func(r rune) bool { return r == ' ' || r == ',' }) {
		if _, ok := usStateCodes[tok]; ok {
			hasState = true
			break
		}
	}
	return hasState && usZipRE.MatchString(lastToken(text))
}

func lastToken(text string) string {
	fields := strings.Fields(strings.TrimRight(text, " .,"))
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}

// parseUSAddress applies the strict number-street-city-state-zip shape.
func parseUSAddress(text string) (postalAddress, bool) {
	m := usAddressRE.FindStringSubmatch(strings.TrimRight(text, " .,"))
	if m == nil {
		return postalAddress{}, false
	}
	addr := postalAddress{
		houseNumber: m[1],
		road:        cleanText(m[2]),
		unit:        cleanText(m[3]),
		city:        cleanText(m[4]),
		region:      m[5],
		postcode:    m[6],
		country:     cleanText(m[7]),
	}
	if addr.houseNumber == "" || addr.road == "" || (addr.city == "" && addr.postcode == "") {
		return postalAddress{}, false
	}
	return addr, true
}

// parseGeneralAddress walks comma-separated parts from the end, labeling
// country, postcode, region, city and finally the street line.
func parseGeneralAddress(text string) (postalAddress, bool) {
	var addr postalAddress
	if unit := unitRE.FindString(text); unit != "" {
		addr.unit = cleanText(unit)
		text = strings.Replace(text, unit, "", 1)
	}

	parts := splitParts(text)
	if len(parts) == 0 {
		return postalAddress{}, false
	}

	if mapped, ok := countryNames[strings.ToLower(parts[len(parts)-1])]; ok {
		addr.country = mapped
		parts = parts[:len(parts)-1]
	}

	// Postcode first: a comma-free address keeps everything in one part,
	// and consumePostcode peels the tail off before the street is read.
	for i := len(parts) - 1; i >= 0; i-- {
		part := parts[i]
		switch {
		case addr.postcode == "" && consumePostcode(&addr, part):
		case addr.region == "" && isRegionCode(part):
			addr.region = part
		case addr.road == "" && consumeStreet(&addr, part):
		case addr.city == "":
			addr.city = part
		case addr.suburb == "":
			addr.suburb = part
		case addr.district == "":
			addr.district = part
		}
	}

	if addr.fieldCount() < 2 {
		return postalAddress{}, false
	}
	return addr, true
}

func splitParts(text string) []string {
	raw := strings.Split(text, ",")
	parts := make([]string, 0, len(raw))
	for _, p := range raw {
		if p = cleanText(p); p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// consumePostcode pulls a postal code off the end of part, assigning any
// leading remainder as region or city.
func consumePostcode(addr *postalAddress, part string) bool {
	tokens := strings.Fields(part)
	for take := 2; take >= 1; take-- {
		if len(tokens) < take {
			continue
		}
		tail := strings.Join(tokens[len(tokens)-take:], " ")
		if !isPostcode(tail) {
			continue
		}
		addr.postcode = tail
		assignRest(addr, strings.Join(tokens[:len(tokens)-take], " "))
		return true
	}
	return false
}

// assignRest labels whatever precedes a consumed postcode: a trailing
// region code, then an inline street line, then a short city name.
func assignRest(addr *postalAddress, rest string) {
	tokens := strings.Fields(rest)
	if len(tokens) > 0 && addr.region == "" && isRegionCode(tokens[len(tokens)-1]) {
		addr.region = tokens[len(tokens)-1]
		tokens = tokens[:len(tokens)-1]
		rest = strings.Join(tokens, " ")
	}
	if rest == "" {
		return
	}
	if addr.road == "" && consumeStreet(addr, rest) {
		return
	}
	if addr.city == "" && len(tokens) <= 4 && !strings.ContainsAny(rest, "0123456789") {
		addr.city = rest
	}
}

func isPostcode(s string) bool {
	if usZipRE.MatchString(s) || caPostcodeRE.MatchString(s) || ukPostcodeRE.MatchString(s) {
		return true
	}
	return numericPost.MatchString(s)
}

func isRegionCode(s string) bool {
	if _, ok := usStateCodes[s]; ok {
		return true
	}
	return len(s) == 2 && s == strings.ToUpper(s) && s != strings.ToLower(s)
}

// consumeStreet labels a "number road" part. A road-like suffix is required
// so bare numbers followed by arbitrary words do not pass. Text with prose
// around the street line is handled by the inline form, which may also
// yield a trailing city.
func consumeStreet(addr *postalAddress, part string) bool {
	if m := houseRoadRE.FindStringSubmatch(part); m != nil {
		if road := cleanText(m[2]); hasRoadSuffix(road) {
			addr.houseNumber = m[1]
			addr.road = road
			return true
		}
	}
	m := streetInlineRE.FindStringSubmatch(part)
	if m == nil {
		return false
	}
	addr.houseNumber = m[1]
	addr.road = cleanText(m[2])
	if rest := cleanText(m[3]); rest != "" && addr.city == "" &&
		len(strings.Fields(rest)) <= 4 && !strings.ContainsAny(rest, "0123456789") {
		addr.city = rest
	}
	return true
}

func hasRoadSuffix(road string) bool {
	words := strings.Fields(strings.ToLower(road))
	if len(words) == 0 {
		return false
	}
	_, ok := roadSuffixes[strings.TrimRight(words[len(words)-1], ".")]
	return ok
}

var blockLevelTags = map[string]struct{}{
	"p": {}, "div": {}, "li": {}, "ul": {}, "ol": {}, "tr": {}, "td": {},
	"table": {}, "h1": {}, "h2": {}, "h3": {}, "h4": {}, "h5": {}, "h6": {},
	"address": {}, "section": {}, "article": {}, "footer": {}, "header": {},
	"blockquote": {}, "dd": {}, "dt": {},
}

// textSegments renders the selection with block boundaries preserved and
// groups contiguous lines into address-sized candidates. A blank line or a
// block edge ends a segment.
func textSegments(sel *goquery.Selection) []string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
		case html.ElementNode:
			if n.Data == "script" || n.Data == "style" || n.Data == "noscript" {
				return
			}
			if n.Data == "br" {
				b.WriteString("\n")
				return
			}
			_, block := blockLevelTags[n.Data]
			if block {
				b.WriteString("\n\n")
			}
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				walk(c)
			}
			if block {
				b.WriteString("\n\n")
			}
		}
	}
	for _, node := range sel.Nodes {
		walk(node)
	}

	var segments []string
	var run []string
	flush := func() {
		if len(run) == 0 {
			return
		}
		joined := doubledCommaRE.ReplaceAllString(strings.Join(run, ", "), ",")
		if len(joined) >= 10 && len(joined) <= 300 {
			segments = append(segments, joined)
		}
		run = nil
	}
	for _, line := range strings.Split(b.String(), "\n") {
		cleaned := cleanText(line)
		if cleaned == "" {
			flush()
			continue
		}
		run = append(run, strings.TrimRight(cleaned, ","))
		if len(run) >= 6 {
			flush()
		}
	}
	flush()
	return segments
}
