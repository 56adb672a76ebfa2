package extract

import (
	"context"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/immoleads/contact-discovery/internal/domain"
)

// socialPlatform couples a platform's URL pattern with its canonical profile
// form. The first capture group is the username.
type socialPlatform struct {
	platform  domain.SocialPlatform
	pattern   *regexp.Regexp
	canonical string
	conf      float64
	// path segments that are platform chrome, not profiles
	excluded map[string]bool
}

var socialPlatforms = []socialPlatform{
	{
		platform:  domain.PlatformFacebook,
		pattern:   regexp.MustCompile(`(?i)(?:https?://)?(?:www\.|m\.)?(?:facebook|fb)\.com/([A-Za-z0-9.\-]{3,75})`),
		canonical: "https://www.facebook.com/%s",
		conf:      0.70,
		excluded: map[string]bool{
			"sharer": true, "share": true, "plugins": true, "dialog": true,
			"photo.php": true, "profile.php": true, "events": true, "groups": true,
			"login": true, "pages": true, "hashtag": true, "watch": true,
		},
	},
	{
		platform:  domain.PlatformInstagram,
		pattern:   regexp.MustCompile(`(?i)(?:https?://)?(?:www\.)?instagram\.com/([A-Za-z0-9._]{2,30})`),
		canonical: "https://www.instagram.com/%s",
		conf:      0.70,
		excluded:  map[string]bool{"p": true, "reel": true, "explore": true, "accounts": true, "stories": true},
	},
	{
		platform:  domain.PlatformTwitter,
		pattern:   regexp.MustCompile(`(?i)(?:https?://)?(?:www\.)?(?:twitter|x)\.com/([A-Za-z0-9_]{2,15})`),
		canonical: "https://twitter.com/%s",
		conf:      0.65,
		excluded: map[string]bool{
			"intent": true, "share": true, "home": true, "search": true,
			"hashtag": true, "i": true, "settings": true,
		},
	},
	{
		platform:  domain.PlatformLinkedIn,
		pattern:   regexp.MustCompile(`(?i)(?:https?://)?(?:www\.)?linkedin\.com/(company|in)/([A-Za-z0-9\-_%.]{2,100})`),
		canonical: "https://www.linkedin.com/%s/%s",
		conf:      0.75,
	},
	{
		platform:  domain.PlatformWhatsApp,
		pattern:   regexp.MustCompile(`(?i)(?:https?://)?(?:wa\.me/|api\.whatsapp\.com/send\?phone=)(\+?\d{6,15})`),
		canonical: "https://wa.me/%s",
		conf:      0.70,
	},
	{
		platform:  domain.PlatformTelegram,
		pattern:   regexp.MustCompile(`(?i)(?:https?://)?(?:t\.me|telegram\.me)/([A-Za-z0-9_]{4,32})`),
		canonical: "https://t.me/%s",
		conf:      0.65,
		excluded:  map[string]bool{"share": true, "joinchat": true},
	},
	{
		platform:  domain.PlatformXING,
		pattern:   regexp.MustCompile(`(?i)(?:https?://)?(?:www\.)?xing\.com/(profile|pages)/([A-Za-z0-9._\-]{2,100})`),
		canonical: "https://www.xing.com/%s/%s",
		conf:      0.75,
	},
}

// businessKeywords mark a profile as a business account. Real-estate
// vocabulary plus the usual company suffixes.
var businessKeywords = append([]string{
	"gmbh", "agentur", "agency", "group", "gruppe", "team", "service", "verwaltung",
}, domain.RealEstateKeywords...)

// SocialExtractor finds social media profile links in anchors and raw text.
// Profiles deduplicate on (platform, username).
type SocialExtractor struct{}

// NewSocialExtractor returns the social media extractor.
func NewSocialExtractor() *SocialExtractor { return &SocialExtractor{} }

// Kind implements Extractor.
func (e *SocialExtractor) Kind() domain.ExtractorKind { return domain.ExtractorSocial }

// Extract implements Extractor by converting detected profiles to contacts
// of method=social_media.
func (e *SocialExtractor) Extract(ctx context.Context, page *Page, dctx *domain.DiscoveryContext) []*domain.Contact {
	profiles := e.ExtractProfiles(ctx, page, dctx)
	out := make([]*domain.Contact, 0, len(profiles))
	for _, p := range profiles {
		c := p.ToContact()
		if dctx != nil {
			c.Language = dctx.Language
			c.CulturalContext = dctx.CulturalContext
		}
		out = append(out, c)
	}
	return dedupeContacts(out)
}

// ExtractProfiles scans anchor hrefs first (with their anchor text as
// display name), then the raw page for bare profile URLs.
func (e *SocialExtractor) ExtractProfiles(_ context.Context, page *Page, _ *domain.DiscoveryContext) []*domain.SocialMediaProfile {
	type candidate struct {
		text string
		name string
	}
	candidates := []candidate{}

	if page.Doc != nil {
		page.Doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
			href, _ := a.Attr("href")
			candidates = append(candidates, candidate{text: href, name: strings.TrimSpace(a.Text())})
		})
	}
	if page.HTML != "" {
		candidates = append(candidates, candidate{text: page.HTML})
	} else if page.Text != "" {
		candidates = append(candidates, candidate{text: page.Text})
	}

	var out []*domain.SocialMediaProfile
	seen := make(map[string]bool)

	for _, sp := range socialPlatforms {
		for _, cand := range candidates {
			for _, m := range sp.pattern.FindAllStringSubmatch(cand.text, -1) {
				p := e.buildProfile(sp, m, cand.name, page.URL)
				if p == nil {
					continue
				}
				key := string(p.Platform) + "|" + strings.ToLower(p.Username)
				if seen[key] {
					continue
				}
				seen[key] = true
				out = append(out, p)
			}
		}
	}
	return out
}

func (e *SocialExtractor) buildProfile(sp socialPlatform, match []string, displayName, sourceURL string) *domain.SocialMediaProfile {
	var username, profileURL string
	switch len(match) {
	case 2:
		username = strings.Trim(match[1], "./")
		if sp.excluded[strings.ToLower(username)] {
			return nil
		}
		profileURL = strings.Replace(sp.canonical, "%s", username, 1)
	case 3:
		// platforms with a path kind: linkedin.com/company/x, xing.com/profile/x
		kind := strings.ToLower(match[1])
		username = strings.Trim(match[2], "./")
		profileURL = strings.Replace(strings.Replace(sp.canonical, "%s", kind, 1), "%s", username, 1)
		if kind == "company" || kind == "pages" {
			displayName = strings.TrimSpace(displayName + " " + username)
		}
	default:
		return nil
	}
	if username == "" {
		return nil
	}

	business := containsAny(username, businessKeywords) || containsAny(displayName, businessKeywords)
	if len(match) == 3 {
		kind := strings.ToLower(match[1])
		if kind == "company" || kind == "pages" {
			business = true
		}
	}

	return &domain.SocialMediaProfile{
		Platform:        sp.platform,
		Username:        username,
		ProfileURL:      profileURL,
		DisplayName:     displayName,
		IsBusiness:      business,
		SourceURL:       sourceURL,
		ConfidenceScore: sp.conf,
	}
}
