package domain

import (
	"strconv"
	"time"
)

// SocialPlatform enumerates the platforms the social extractor recognizes.
type SocialPlatform string

const (
	PlatformFacebook  SocialPlatform = "facebook"
	PlatformInstagram SocialPlatform = "instagram"
	PlatformTwitter   SocialPlatform = "twitter"
	PlatformLinkedIn  SocialPlatform = "linkedin"
	PlatformWhatsApp  SocialPlatform = "whatsapp"
	PlatformTelegram  SocialPlatform = "telegram"
	PlatformXING      SocialPlatform = "xing"
)

// SocialMediaProfile is a profile link observed on a listing page.
// Profiles deduplicate on (platform, username).
type SocialMediaProfile struct {
	Platform        SocialPlatform `json:"platform"`
	Username        string         `json:"username"`
	ProfileURL      string         `json:"profile_url"`
	DisplayName     string         `json:"display_name,omitempty"`
	IsBusiness      bool           `json:"is_business_profile"`
	SourceURL       string         `json:"source_url"`
	ConfidenceScore float64        `json:"confidence_score"`
}

// ToContact converts the profile into a Contact of method=social_media whose
// value is the canonical profile URL.
func (p *SocialMediaProfile) ToContact() *Contact {
	meta := map[string]string{
		"platform":    string(p.Platform),
		"username":    p.Username,
		"is_business": strconv.FormatBool(p.IsBusiness),
	}
	if p.DisplayName != "" {
		meta["display_name"] = p.DisplayName
	}
	return &Contact{
		Method:             MethodSocialMedia,
		Value:              p.ProfileURL,
		ConfidenceScore:    p.ConfidenceScore,
		SourceURL:          p.SourceURL,
		ExtractionMethod:   ExtractionSocialMedia,
		VerificationStatus: StatusUnverified,
		Metadata:           meta,
		ObservedAt:         time.Now().UTC(),
	}
}
