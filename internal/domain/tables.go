package domain

// GermanAreaCodes maps German landline area codes (with the leading zero,
// 3 to 5 digits) to their city or region. Longest-prefix lookup happens in
// GermanAreaCode; this table only needs the codes themselves.
var GermanAreaCodes = map[string]string{
	"030":  "Berlin",
	"040":  "Hamburg",
	"069":  "Frankfurt am Main",
	"089":  "München",
	"0201": "Essen",
	"0202": "Wuppertal",
	"0203": "Duisburg",
	"0211": "Düsseldorf",
	"0221": "Köln",
	"0228": "Bonn",
	"0231": "Dortmund",
	"0234": "Bochum",
	"0241": "Aachen",
	"0251": "Münster",
	"0341": "Leipzig",
	"0351": "Dresden",
	"0361": "Erfurt",
	"0371": "Chemnitz",
	"0381": "Rostock",
	"0391": "Magdeburg",
	"0421": "Bremen",
	"0431": "Kiel",
	"0511": "Hannover",
	"0521": "Bielefeld",
	"0531": "Braunschweig",
	"0611": "Wiesbaden",
	"0621": "Mannheim",
	"0681": "Saarbrücken",
	"0711": "Stuttgart",
	"0721": "Karlsruhe",
	"0761": "Freiburg im Breisgau",
	"0821": "Augsburg",
	"0911": "Nürnberg",

	"0331":  "Potsdam",
	"03381": "Brandenburg an der Havel",
	"04131": "Lüneburg",
	"06131": "Mainz",
}

// GermanMobilePrefixes holds the two digits after the leading zero of a
// national mobile number (015x, 016x, 017x blocks).
var GermanMobilePrefixes = map[string]bool{
	"15": true,
	"16": true,
	"17": true,
}

// PlaceholderEmailDomains are documentation and template domains that never
// belong to a real mailbox.
var PlaceholderEmailDomains = map[string]bool{
	"example.com": true,
	"example.org": true,
	"test.com":    true,
	"domain.com":  true,
	"localhost":   true,
}

// ThrowawayEmailDomains are disposable mail providers. Addresses there are
// dead within minutes, so they are rejected outright.
var ThrowawayEmailDomains = map[string]bool{
	"mailinator.com":    true,
	"guerrillamail.com": true,
	"10minutemail.com":  true,
	"tempmail.org":      true,
	"yopmail.com":       true,
	"trashmail.com":     true,
	"wegwerfmail.de":    true,
}

// SuspiciousTLDs (keyed without the dot) are TLDs dominated by spam and
// parked domains. They lower confidence but do not reject.
var SuspiciousTLDs = map[string]bool{
	"tk":    true,
	"ml":    true,
	"ga":    true,
	"cf":    true,
	"gq":    true,
	"top":   true,
	"click": true,
	"loan":  true,
}

// BlockedVerificationDomains are large providers that greylist or tarpit
// unknown SMTP probes. RCPT results there are meaningless, so the validator
// stops after the MX check.
var BlockedVerificationDomains = map[string]bool{
	"gmail.com":      true,
	"googlemail.com": true,
	"yahoo.com":      true,
	"hotmail.com":    true,
	"outlook.com":    true,
	"live.com":       true,
	"aol.com":        true,
	"icloud.com":     true,
	"gmx.de":         true,
	"gmx.net":        true,
	"web.de":         true,
	"t-online.de":    true,
}

// ContactURLPatterns are path fragments that mark a page as a likely contact
// source. Matched against the lowercased URL path.
var ContactURLPatterns = []string{
	"/kontakt",
	"/contact",
	"/impressum",
	"/imprint",
	"/about",
	"/ueber-uns",
	"/uber-uns",
	"/team",
	"/ansprechpartner",
	"/vermieter",
	"/anbieter",
	"/agentur",
	"/makler",
}

// ContactKeywords are anchor-text fragments that point at contact pages.
var ContactKeywords = []string{
	"kontakt",
	"contact",
	"impressum",
	"e-mail",
	"email",
	"telefon",
	"phone",
	"anfrage",
	"inquiry",
}

// GermanContactKeywords extend ContactKeywords when the run targets a German
// cultural context.
var GermanContactKeywords = []string{
	"vermieter",
	"hausverwaltung",
	"eigentümer",
	"besichtigung",
}

// RealEstateKeywords mark domains and URLs as belonging to the real-estate
// trade. Matched as substrings of the lowercased host or path.
var RealEstateKeywords = []string{
	"immobilien",
	"makler",
	"hausverwaltung",
	"wohnen",
	"wohnung",
	"realty",
	"property",
	"estate",
}
