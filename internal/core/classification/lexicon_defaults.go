package classification

import "sync"

var (
	defaultLexiconOnce sync.Once
	defaultLexicon     *Lexicon
)

// DefaultLexicon returns the built-in lexicon. The value is shared and
// read-only.
func DefaultLexicon() *Lexicon {
	defaultLexiconOnce.Do(func() {
		defaultLexicon = MustNewLexicon(DefaultLexiconSpec())
	})
	return defaultLexicon
}

// DefaultLexiconSpec returns a fresh copy of the built-in keyword lists.
func DefaultLexiconSpec() LexiconSpec {
	return LexiconSpec{
		CaseTypes: map[string][]string{
			"criminal": {
				"criminal", "felony", "misdemeanor", "arrest", "prosecution", "defendant",
				"guilty", "not guilty", "plea", "sentence", "jail", "prison", "probation",
				"parole", "bail", "bond", "indictment", "arraignment", "trial", "jury",
				"verdict", "conviction", "acquittal", "crime", "offense", "violation",
				"murder", "theft", "assault", "robbery", "fraud", "drug", "dui", "dwi",
			},
			"civil": {
				"civil", "plaintiff", "defendant", "damages", "liability", "negligence",
				"tort", "contract", "breach", "settlement", "mediation", "arbitration",
				"injunction", "restraining order", "discovery", "deposition", "motion",
				"summary judgment", "trial", "verdict", "appeal", "litigation", "dispute",
			},
			"corporate": {
				"corporate", "corporation", "business", "company", "merger", "acquisition",
				"securities", "stock", "shareholder", "board of directors", "compliance",
				"regulatory", "sec", "ipo", "partnership", "llc", "incorporation", "bylaws",
				"articles", "due diligence", "intellectual property", "trademark", "patent",
				"copyright", "trade secret", "licensing", "joint venture",
			},
			"family": {
				"family", "divorce", "custody", "child support", "alimony", "spousal support",
				"adoption", "guardianship", "domestic violence", "restraining order",
				"prenuptial", "postnuptial", "separation", "marital property", "visitation",
				"parenting plan", "mediation", "collaborative divorce", "annulment",
			},
			"immigration": {
				"immigration", "visa", "green card", "citizenship", "naturalization",
				"deportation", "removal", "asylum", "refugee", "work permit", "h1b", "l1",
				"f1", "tourist visa", "family visa", "uscis", "ice", "cbp",
				"immigration court", "adjustment of status", "consular processing",
			},
			"employment": {
				"employment", "labor", "workplace", "discrimination", "harassment",
				"wrongful termination", "wage", "salary", "overtime", "benefits",
				"workers compensation", "unemployment", "fmla", "ada", "eeoc", "union",
				"collective bargaining", "workplace safety", "osha",
			},
			"real_estate": {
				"real estate", "property", "deed", "title", "mortgage", "foreclosure",
				"landlord", "tenant", "lease", "rent", "eviction", "zoning", "easement",
				"property tax", "closing", "escrow", "hoa", "condominium", "commercial property",
			},
			"tax": {
				"tax", "irs", "audit", "deduction", "exemption", "penalty", "interest",
				"refund", "return", "income tax", "property tax", "sales tax", "estate tax",
				"gift tax", "tax court", "tax planning", "tax preparation",
			},
			"bankruptcy": {
				"bankruptcy", "chapter 7", "chapter 11", "chapter 13", "debtor", "creditor",
				"discharge", "liquidation", "reorganization", "trustee", "automatic stay",
				"proof of claim", "meeting of creditors", "reaffirmation", "exemption",
			},
			"intellectual_property": {
				"intellectual property", "patent", "trademark", "copyright", "trade secret",
				"infringement", "licensing", "royalty", "prior art", "uspto", "dmca",
				"fair use", "trade dress", "cease and desist",
			},
			"contract": {
				"contract", "agreement", "breach of contract", "terms and conditions",
				"consideration", "indemnification", "warranty", "termination clause",
				"amendment", "addendum", "obligations", "force majeure", "non-disclosure",
				"nda", "service agreement",
			},
			"litigation": {
				"litigation", "lawsuit", "complaint", "petition", "pleading", "summons",
				"subpoena", "discovery", "deposition", "motion to dismiss", "hearing",
				"trial", "appeal", "judgment", "class action", "counterclaim",
			},
			"regulatory": {
				"regulatory", "regulation", "agency", "rulemaking", "federal register",
				"permit", "inspection", "enforcement action", "administrative law", "fda",
				"epa", "fcc", "ftc", "public comment",
			},
			"compliance": {
				"compliance", "internal controls", "code of conduct", "reporting obligations",
				"anti-money laundering", "know your customer", "gdpr", "hipaa",
				"sarbanes-oxley", "whistleblower", "risk assessment", "remediation", "policy",
			},
			"mergers_acquisitions": {
				"merger", "acquisition", "due diligence", "letter of intent",
				"purchase agreement", "stock purchase", "asset purchase", "tender offer",
				"valuation", "closing conditions", "earn-out", "target company",
				"hart-scott-rodino", "antitrust review",
			},
		},
		Urgency: map[string][]string{
			"critical": {
				"emergency", "urgent", "immediate", "asap", "critical", "deadline today",
				"time sensitive", "expires", "statute of limitations", "appeal deadline",
				"motion due", "hearing tomorrow", "trial next week",
			},
			"high": {
				"high priority", "important", "soon", "deadline", "due date", "time limit",
				"hearing", "trial", "deposition", "discovery deadline", "response required",
			},
			"medium": {
				"medium priority", "normal", "standard", "regular", "routine", "review",
				"follow up", "status update",
			},
			"low": {
				"low priority", "when convenient", "no rush", "informational", "fyi",
				"reference", "archive", "background",
			},
		},
		ClientStoplist: []string{
			"court", "judge", "attorney", "lawyer", "counsel", "plaintiff", "defendant",
			"state", "government", "united states", "u.s.", "usa", "district court",
			"supreme court", "appellate court", "superior court", "the court", "the judge",
			"the state", "the government", "the plaintiff", "the defendant", "the united states",
			"court of appeals", "respondent", "petitioner", "prosecutor", "clerk",
		},
		GenericTags: []string{"document", "case", "court", "legal", "law", "attorney", "lawyer"},
		Stopwords:   englishStopwords(),
	}
}
