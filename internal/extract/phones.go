package extract

import (
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/nyaruka/phonenumbers"
)

// Specific containers are scanned first; when a page has fewer than this
// many, the scan widens to general block elements.
const minSpecificPhoneContainers = 3

var (
	phonePatternRE = regexp.MustCompile(`\+?\d[\d\s().\-/]{6,18}\d`)
	phoneLabelRE   = regexp.MustCompile(`(?i)^(?:phone|tel|telephone|call(?:\s+us)?|fax|mobile|cell|office|toll[\s-]?free)[\s:.\-]*`)
	phoneExtRE     = regexp.MustCompile(`(?i)[\s,]*(?:ext\.?|extension|x)\s*\d{1,6}\s*$`)
	vanityWordRE   = regexp.MustCompile(`\b[A-Z]{2,}(?:[\s-][A-Z]{2,})*\b`)
	digitRE        = regexp.MustCompile(`\D`)
	nonAlnumRE     = regexp.MustCompile(`[^0-9A-Za-z]`)
)

// genericPhoneDigits are fictional or placeholder numbers that appear in
// templates and documentation.
var genericPhoneDigits = map[string]struct{}{
	"1234567890":  {},
	"11234567890": {},
	"0123456789":  {},
	"5550100":     {},
	"5555555555":  {},
	"15555555555": {},
	"0000000000":  {},
}

// phones collects valid phone numbers from tel: links and page text,
// normalized to E.164 and returned sorted without duplicates.
func (e *Engine) phones(doc *goquery.Document) []string {
	found := map[string]struct{}{}

	doc.Find(`a[href^="tel:"]`).Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		raw := strings.TrimPrefix(href, "tel:")
		if num, ok := e.parsePhone(raw); ok {
			found[num] = struct{}{}
			return
		}
		if num, ok := e.parsePhone(nodeText(sel)); ok {
			found[num] = struct{}{}
		}
	})

	containers := doc.Find(`address, footer, [itemprop="telephone"], [class*="contact"], [id*="contact"], [class*="phone"], [class*="tel"]`)
	if containers.Length() < minSpecificPhoneContainers {
		containers = containers.AddSelection(doc.Find("p, li, td, span, div"))
	}
	containers.Each(func(_ int, sel *goquery.Selection) {
		// Only leaf-ish nodes, so large subtrees are not rescanned.
		if sel.Children().Length() > 8 {
			return
		}
		for _, match := range phonePatternRE.FindAllString(nodeText(sel), -1) {
			if num, ok := e.parsePhone(match); ok {
				found[num] = struct{}{}
			}
		}
	})

	out := make([]string, 0, len(found))
	for num := range found {
		out = append(out, num)
	}
	sort.Strings(out)
	return out
}

// parsePhone cleans a raw candidate and validates it, returning the E.164
// form. Vanity words, labels and extensions are stripped before parsing.
func (e *Engine) parsePhone(raw string) (string, bool) {
	cleaned := cleanPhoneCandidate(raw)
	if cleaned == "" {
		return "", false
	}
	digits := digitRE.ReplaceAllString(cleaned, "")
	// Vanity candidates carry letters, so length-gate on the alphanumeric
	// count rather than digits alone.
	significant := nonAlnumRE.ReplaceAllString(cleaned, "")
	if len(significant) < 7 || len(significant) > 16 {
		return "", false
	}
	if isGenericPhone(digits) {
		return "", false
	}

	region := e.region
	if strings.HasPrefix(cleaned, "+") {
		region = ""
	}
	num, err := phonenumbers.Parse(cleaned, region)
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return "", false
	}
	return phonenumbers.Format(num, phonenumbers.E164), true
}

func cleanPhoneCandidate(raw string) string {
	s := cleanText(raw)
	s = phoneLabelRE.ReplaceAllString(s, "")
	s = phoneExtRE.ReplaceAllString(s, "")
	// Vanity sequences like 1-800-FLOWERS keep their letters joined so the
	// parser can map them to digits.
	s = vanityWordRE.ReplaceAllStringFunc(s, func(word string) string {
		return strings.NewReplacer(" ", "", "-", "").Replace(word)
	})
	return strings.TrimSpace(s)
}

func isGenericPhone(digits string) bool {
	if _, generic := genericPhoneDigits[digits]; generic {
		return true
	}
	same := true
	for i := 1; i < len(digits); i++ {
		if digits[i] != digits[0] {
			same = false
			break
		}
	}
	return same
}
