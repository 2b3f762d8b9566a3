package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Candidate weights. Explicit publisher metadata wins over page titles,
// titles over structured markup, and recognizer output ranks last.
const (
	weightSiteName       = 10
	weightOGTitleClause  = 8
	weightTitleClause    = 7
	weightOGTitleWhole   = 6
	weightSchemaOrgName  = 6
	weightCopyrightLine  = 5
	weightTitleWhole     = 5
	weightRecognizer     = 4
	maxCompanyNameWords  = 5
	maxCompanyNameLength = 80
)

type candidate struct {
	name   string
	weight int
}

var (
	titleSeparatorRE = regexp.MustCompile(`\s*\|\s*|\s+-\s+|:\s+`)
	copyrightRE      = regexp.MustCompile(`(?i:©|\(c\)|copyright)\s*(?:\d{4}(?:\s*-\s*(?:\d{4}|present))?)?\s*(?:(?i:by)\s+)?([A-Za-z][\w&.,' -]{2,60})`)
	rightsReservedRE = regexp.MustCompile(`(?i)[.,|]?\s*all rights reserved.*$`)
	nonWordOnlyRE    = regexp.MustCompile(`^[\W\d_]+$`)
)

// genericPageNames are navigation labels and boilerplate that never name a
// business.
var genericPageNames = map[string]struct{}{
	"home": {}, "homepage": {}, "home page": {}, "index": {}, "main": {},
	"welcome": {}, "contact": {}, "contact us": {}, "about": {}, "about us": {},
	"login": {}, "log in": {}, "sign in": {}, "sign up": {}, "register": {},
	"blog": {}, "news": {}, "services": {}, "products": {}, "shop": {},
	"store": {}, "untitled": {}, "website": {}, "official site": {},
	"official website": {}, "privacy policy": {}, "terms of service": {},
}

// companyName picks the best-supported business name on the page, or ""
// when nothing credible is found.
func (e *Engine) companyName(doc *goquery.Document) string {
	var candidates []candidate
	add := func(name string, weight int) {
		if cleaned, ok := acceptableName(name); ok {
			candidates = append(candidates, candidate{name: cleaned, weight: weight})
		}
	}

	add(metaContent(doc, `meta[property="og:site_name"]`), weightSiteName)

	if ogTitle := metaContent(doc, `meta[property="og:title"]`); ogTitle != "" {
		if clause := firstShortClause(ogTitle); clause != "" {
			add(clause, weightOGTitleClause)
		}
		add(ogTitle, weightOGTitleWhole)
	}

	if title := nodeText(doc.Find("title").First()); title != "" {
		for _, clause := range splitTitle(title) {
			add(clause, weightTitleClause)
		}
		add(title, weightTitleWhole)
	}

	doc.Find(`[itemtype*="Organization"] [itemprop="name"], [itemtype*="LocalBusiness"] [itemprop="name"]`).
		Each(func(_ int, sel *goquery.Selection) {
			add(nodeText(sel), weightSchemaOrgName)
		})

	samples := recognizerSamples(doc)
	for _, sample := range samples {
		if owner := copyrightOwner(sample); owner != "" {
			add(owner, weightCopyrightLine)
		}
	}
	if e.recognizer != nil {
		for _, sample := range samples {
			for _, org := range e.recognizer.Organizations(sample) {
				add(org, weightRecognizer)
			}
		}
	}

	return pickWinner(candidates)
}

// pickWinner deduplicates case-insensitively keeping the strongest variant,
// then selects by weight with string length as the tiebreak.
func pickWinner(candidates []candidate) string {
	best := map[string]candidate{}
	for _, c := range candidates {
		key := strings.ToLower(c.name)
		cur, ok := best[key]
		if !ok || c.weight > cur.weight || (c.weight == cur.weight && len(c.name) > len(cur.name)) {
			best[key] = c
		}
	}
	var winner candidate
	for _, c := range best {
		if c.weight > winner.weight || (c.weight == winner.weight && len(c.name) > len(winner.name)) {
			winner = c
		}
	}
	return winner.name
}

// acceptableName normalizes a raw candidate and rejects boilerplate.
func acceptableName(name string) (string, bool) {
	name = cleanText(name)
	const welcome = "welcome to "
	if len(name) > len(welcome) && strings.EqualFold(name[:len(welcome)], welcome) {
		name = cleanText(name[len(welcome):])
	}
	if len(name) < 2 || len(name) > maxCompanyNameLength {
		return "", false
	}
	if nonWordOnlyRE.MatchString(name) {
		return "", false
	}
	if _, generic := genericPageNames[strings.ToLower(name)]; generic {
		return "", false
	}
	if len(strings.Fields(name)) > maxCompanyNameWords {
		return "", false
	}
	return name, true
}

func splitTitle(title string) []string {
	parts := titleSeparatorRE.Split(title, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func firstShortClause(s string) string {
	for _, clause := range splitTitle(s) {
		if len(strings.Fields(clause)) <= maxCompanyNameWords {
			return clause
		}
	}
	return ""
}

// copyrightOwner pulls the owner out of a copyright notice, dropping any
// rights-reserved trailer.
func copyrightOwner(text string) string {
	m := copyrightRE.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return cleanText(rightsReservedRE.ReplaceAllString(m[1], ""))
}

// recognizerSamples gathers the short text regions most likely to contain
// the business name.
func recognizerSamples(doc *goquery.Document) []string {
	var samples []string
	seen := map[string]struct{}{}
	push := func(s string) {
		s = cleanText(s)
		if s == "" || len(s) > 300 {
			return
		}
		if _, dup := seen[s]; dup {
			return
		}
		seen[s] = struct{}{}
		samples = append(samples, s)
	}
	doc.Find("h1").Each(func(_ int, sel *goquery.Selection) { push(sel.Text()) })
	doc.Find("footer, .copyright, [class*='copyright']").Each(func(_ int, sel *goquery.Selection) {
		push(sel.Text())
	})
	return samples
}

func metaContent(doc *goquery.Document, selector string) string {
	return attrText(doc.Find(selector).First(), "content")
}
