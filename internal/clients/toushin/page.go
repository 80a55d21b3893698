package toushin

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// genericSiteTitle is what the <title> tag holds when the page carries no
// fund-specific content.
const genericSiteTitle = "投信総合検索ライブラリー"

var (
	assocFromLinkPattern = regexp.MustCompile(`associFundCd=([^&]+)`)
	assocFromTextPattern = regexp.MustCompile(`(?i)associFundCd[=:]([A-Z0-9]{8,})`)

	// The latest published NAV appears either right after the label or
	// somewhere before a yen suffix.
	navAfterLabelPattern = regexp.MustCompile(`基準価額[：:\s]*([0-9,]+)`)
	navBeforeYenPattern  = regexp.MustCompile(`(?s)基準価額.*?([0-9,]+)\s*円`)
)

// FundPage is the parsed fund detail page. Text keeps the page's visible
// text for the latest-NAV scan.
type FundPage struct {
	ISIN          string
	Name          string
	AssocFundCode string
	Text          string
}

// parseFundPage extracts the fund name and association code from the
// detail page HTML.
func parseFundPage(isin string, body []byte) (*FundPage, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	page := &FundPage{
		ISIN: isin,
		Name: fundNameFromTitle(doc.Find("title").First().Text(), isin),
		Text: doc.Text(),
	}

	// The CSV download link carries the association code as a query
	// parameter. Ampersands may still be HTML-escaped in the raw href.
	if href, ok := doc.Find(`a[href*="csv-file-download"]`).First().Attr("href"); ok {
		href = strings.ReplaceAll(href, "&amp;", "&")
		if m := assocFromLinkPattern.FindStringSubmatch(href); m != nil {
			page.AssocFundCode = m[1]
		}
	}

	if page.AssocFundCode == "" {
		if m := assocFromTextPattern.FindStringSubmatch(string(body)); m != nil {
			page.AssocFundCode = m[1]
		}
	}

	return page, nil
}

// fundNameFromTitle derives the fund's display name from the page title.
// Titles look like "fund name｜投信総合検索ライブラリー"; a bare generic
// title means the fund was not found.
func fundNameFromTitle(title, isin string) string {
	title = strings.TrimSpace(title)

	var name string
	switch {
	case strings.Contains(title, "｜"):
		name = strings.TrimSpace(strings.SplitN(title, "｜", 2)[0])
	case strings.Contains(title, "|"):
		name = strings.TrimSpace(strings.SplitN(title, "|", 2)[0])
	case title != "" && title != genericSiteTitle:
		name = title
	}

	if name == "" || name == genericSiteTitle {
		return DefaultFundName(isin)
	}
	return name
}

// LatestNAV scans the page's visible text for the most recently published
// NAV. Values outside the plausible (100, 1000000) yen range are rejected;
// the scan is loose enough to pick up unrelated figures otherwise.
func (p *FundPage) LatestNAV() (int64, bool) {
	m := navAfterLabelPattern.FindStringSubmatch(p.Text)
	if m == nil {
		m = navBeforeYenPattern.FindStringSubmatch(p.Text)
	}
	if m == nil {
		return 0, false
	}

	value, ok := parseYenDigits(m[1])
	if !ok || value <= 100 || value >= 1000000 {
		return 0, false
	}

	return value, true
}

// parseYenDigits parses a comma-separated yen amount. Anything but digits
// after stripping separators is rejected.
func parseYenDigits(s string) (int64, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}

	value, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}
