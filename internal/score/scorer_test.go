package score

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/immoleads/contact-discovery/internal/domain"
)

func germanContext() *domain.DiscoveryContext {
	return &domain.DiscoveryContext{
		Language:        "de",
		CulturalContext: "german",
	}
}

func emailContact(value, sourceURL string, method domain.ExtractionMethod) *domain.Contact {
	return &domain.Contact{
		Method:             domain.MethodEmail,
		Value:              value,
		SourceURL:          sourceURL,
		ExtractionMethod:   method,
		VerificationStatus: domain.StatusUnverified,
	}
}

func TestScoreBounds(t *testing.T) {
	s := New()
	contacts := []*domain.Contact{
		emailContact("info@immobilien-huber.de", "https://immobilien-huber.de/kontakt", domain.ExtractionMailtoLink),
		emailContact("x@mailinator.com", "https://acme.de/", domain.ExtractionOCR),
		{Method: domain.MethodPhone, Value: "08912345678", ExtractionMethod: domain.ExtractionStandardPattern, VerificationStatus: domain.StatusInvalid},
		{Method: domain.MethodForm, Value: "not a url", ExtractionMethod: domain.ExtractionFormDetection, VerificationStatus: domain.StatusUnverified},
	}
	for _, c := range contacts {
		v := s.Score(c, germanContext())
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}
}

func TestScoreOrdersEvidence(t *testing.T) {
	s := New()
	dctx := germanContext()

	mailto := s.Score(emailContact("info@immobilien-huber.de", "https://immobilien-huber.de/kontakt", domain.ExtractionMailtoLink), dctx)
	ocr := s.Score(emailContact("info@immobilien-huber.de", "https://immobilien-huber.de/kontakt", domain.ExtractionOCR), dctx)
	throwaway := s.Score(emailContact("info@mailinator.com", "https://immobilien-huber.de/kontakt", domain.ExtractionMailtoLink), dctx)

	assert.Greater(t, mailto, ocr, "mailto outranks OCR for the same value")
	assert.Greater(t, mailto, throwaway, "throwaway domain drags the score down")
}

func TestScoreGermanProviderReputation(t *testing.T) {
	s := New()
	dctx := germanContext()

	tonline := s.Score(emailContact("vermieter@t-online.de", "https://acme.de/", domain.ExtractionStandardPattern), dctx)
	yahoo := s.Score(emailContact("vermieter@yahoo.com", "https://acme.de/", domain.ExtractionStandardPattern), dctx)
	assert.Greater(t, tonline, yahoo)
}

func TestScoreSuspiciousLocalPart(t *testing.T) {
	s := New()
	dctx := germanContext()

	real := s.Score(emailContact("info@acme.de", "https://acme.de/", domain.ExtractionStandardPattern), dctx)
	noreply := s.Score(emailContact("noreply@acme.de", "https://acme.de/", domain.ExtractionStandardPattern), dctx)
	assert.Greater(t, real, noreply)
}

func TestScoreContactPagePathRaisesRelevance(t *testing.T) {
	s := New()
	dctx := germanContext()

	onContact := emailContact("info@acme.de", "https://acme.de/kontakt", domain.ExtractionStandardPattern)
	onListing := emailContact("info@acme.de", "https://acme.de/objekt-123", domain.ExtractionStandardPattern)
	viaContact := emailContact("info@acme.de", "https://acme.de/seite-7", domain.ExtractionStandardPattern)
	viaContact.DiscoveryPath = []string{"https://acme.de/", "https://acme.de/kontakt", "https://acme.de/seite-7"}

	assert.Greater(t, s.Score(onContact, dctx), s.Score(viaContact, dctx))
	assert.Greater(t, s.Score(viaContact, dctx), s.Score(onListing, dctx))
}

func TestScoreMunichLandlineCulturalFit(t *testing.T) {
	s := New()
	munich := &domain.Contact{
		Method:             domain.MethodPhone,
		Value:              "08912345678",
		ExtractionMethod:   domain.ExtractionStandardPattern,
		VerificationStatus: domain.StatusUnverified,
	}
	hamburg := &domain.Contact{
		Method:             domain.MethodPhone,
		Value:              "04012345678",
		ExtractionMethod:   domain.ExtractionStandardPattern,
		VerificationStatus: domain.StatusUnverified,
	}
	assert.Greater(t, s.Score(munich, germanContext()), s.Score(hamburg, germanContext()))
}

func TestScoreVerifiedBeatsInvalid(t *testing.T) {
	s := New()
	verified := emailContact("info@acme.de", "https://acme.de/kontakt", domain.ExtractionMailtoLink)
	verified.VerificationStatus = domain.StatusVerified
	invalid := emailContact("info@acme.de", "https://acme.de/kontakt", domain.ExtractionMailtoLink)
	invalid.VerificationStatus = domain.StatusInvalid

	assert.Greater(t, s.Score(verified, germanContext()), s.Score(invalid, germanContext()))
}

func TestScoreAllIsMonotone(t *testing.T) {
	s := New()
	c := emailContact("info@acme.de", "https://acme.de/kontakt", domain.ExtractionMailtoLink)
	c.ConfidenceScore = 0.90

	s.ScoreAll([]*domain.Contact{c}, germanContext())
	assert.GreaterOrEqual(t, c.ConfidenceScore, 0.90)
	assert.Equal(t, domain.ConfidenceHigh, c.ConfidenceLevel())
}

func TestExplainAccountsForScore(t *testing.T) {
	s := New()
	c := emailContact("info@acme.de", "https://acme.de/kontakt", domain.ExtractionMailtoLink)

	exp := s.Explain(c, germanContext())
	require.Len(t, exp.Factors, 7)

	sumWeights, sumContrib := 0.0, 0.0
	for _, f := range exp.Factors {
		sumWeights += f.Weight
		sumContrib += f.Contribution
		assert.InDelta(t, f.Weight*f.Value, f.Contribution, 1e-9)
	}
	assert.InDelta(t, 1.0, sumWeights, 1e-9)
	assert.InDelta(t, exp.Score, sumContrib, 1e-9)
	assert.Equal(t, domain.LevelFromScore(exp.Score), exp.Level)
}

func TestExplainRecommendsValidation(t *testing.T) {
	s := New()
	c := emailContact("info@acme.de", "https://acme.de/kontakt", domain.ExtractionStandardPattern)

	exp := s.Explain(c, germanContext())
	require.NotEmpty(t, exp.Recommendations)
	assert.Contains(t, exp.Recommendations[0], "validation")
}
