package crawl

import (
	"net/url"
	"path"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/immoleads/contact-discovery/internal/domain"
	"github.com/immoleads/contact-discovery/internal/extract"
	"github.com/immoleads/contact-discovery/internal/normalize"
)

// Link-priority weights. Contact pages first, keyworded anchors next,
// locale hints last; depth drags everything down.
const (
	scorePathPattern   = 10
	scoreAnchorKeyword = 5
	scoreGermanKeyword = 3
	depthPenalty       = 2
)

// binaryExtensions are never frontier items. Images and PDFs are artifacts
// for the OCR/PDF extractors, which fetch them under their own size caps.
var binaryExtensions = map[string]bool{
	".pdf": true, ".doc": true, ".docx": true, ".xls": true, ".xlsx": true,
	".ppt": true, ".pptx": true, ".zip": true, ".rar": true, ".gz": true,
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".svg": true,
	".webp": true, ".mp3": true, ".mp4": true, ".avi": true, ".mov": true,
	".css": true, ".js": true, ".ico": true, ".woff": true, ".woff2": true,
	".ttf": true,
}

// scoredLink is a frontier candidate harvested from one page.
type scoredLink struct {
	url   string
	score int
}

// harvestLinks collects, filters, and scores the page's outbound links.
// Ordering is deterministic for identical page content: score descending,
// document order breaking ties.
func harvestLinks(page *extract.Page, dctx *domain.DiscoveryContext, depth int) []scoredLink {
	if page.Doc == nil {
		return nil
	}
	base, err := url.Parse(page.URL)
	if err != nil {
		return nil
	}

	var links []scoredLink
	seen := make(map[string]bool)
	page.Doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		target := resolveLink(base, href)
		if target == nil {
			return
		}
		if !dctx.DomainAllowed(target.Hostname()) {
			return
		}
		u := target.String()
		if seen[u] {
			return
		}
		seen[u] = true

		anchor := normalize.CollapseWhitespace(a.Text())
		links = append(links, scoredLink{
			url:   u,
			score: scoreLink(target, anchor, depth, dctx),
		})
	})

	sort.SliceStable(links, func(i, j int) bool { return links[i].score > links[j].score })
	return links
}

// resolveLink turns an href into an absolute, fragment-free http(s) URL,
// or nil for links the crawler never follows.
func resolveLink(base *url.URL, href string) *url.URL {
	href = strings.TrimSpace(href)
	if href == "" {
		return nil
	}
	ref, err := url.Parse(href)
	if err != nil {
		return nil
	}
	target := base.ResolveReference(ref)
	if target.Scheme != "http" && target.Scheme != "https" {
		return nil
	}
	if binaryExtensions[strings.ToLower(path.Ext(target.Path))] {
		return nil
	}
	target.Fragment = ""
	return target
}

// scoreLink ranks a frontier candidate by how likely it leads to a contact
// page.
func scoreLink(u *url.URL, anchorText string, depth int, dctx *domain.DiscoveryContext) int {
	score := 0
	lowerPath := strings.ToLower(u.Path)
	for _, pattern := range domain.ContactURLPatterns {
		if strings.Contains(lowerPath, pattern) {
			score += scorePathPattern
		}
	}

	lowerAnchor := strings.ToLower(anchorText)
	for _, kw := range domain.ContactKeywords {
		if strings.Contains(lowerAnchor, kw) {
			score += scoreAnchorKeyword
		}
	}
	if dctx.IsGermanContext() {
		for _, kw := range domain.GermanContactKeywords {
			if strings.Contains(lowerAnchor, kw) || strings.Contains(lowerPath, kw) {
				score += scoreGermanKeyword
			}
		}
	}

	return score - depthPenalty*depth
}
