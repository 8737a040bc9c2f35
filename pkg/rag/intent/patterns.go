package intent

import (
	"regexp"
	"strings"
)

// quickMatchMaxLen keeps the pattern pre-check honest: anything longer
// than a short salutation may bury a real legal question, so it always
// goes through the classifier.
const quickMatchMaxLen = 64

type quickPattern struct {
	re      *regexp.Regexp
	subtype string
}

// Patterns are anchored on both ends so they only fire on messages that
// are entirely a greeting, a thank-you or an identity question, in
// Arabic, Darija written in Latin letters (arabizi), French or English.
var quickPatterns = []quickPattern{
	{
		re:      regexp.MustCompile(`^(hi+|hello+|hey+|yo|good (morning|afternoon|evening))[\s!.?]*$`),
		subtype: SubtypeGreeting,
	},
	{
		re:      regexp.MustCompile(`^(salut|bonjour|bonsoir|coucou|cc|re)[\s!.?]*$`),
		subtype: SubtypeGreeting,
	},
	{
		re:      regexp.MustCompile(`^(salam( [ou3]?alaykou?m)?|slm|sala?mo?( 3likom)?|ahlan|labas( 3lik)?|mrhba|wa+ fin|cv\??)[\s!.?]*$`),
		subtype: SubtypeGreeting,
	},
	{
		re:      regexp.MustCompile(`^(السلام( عليكم)?|سلام|صباح الخير|مساء الخير|مرحبا|أهلا( وسهلا)?|اهلا( وسهلا)?|لاباس)[\s!.؟]*$`),
		subtype: SubtypeGreeting,
	},
	{
		re:      regexp.MustCompile(`^(who are you|what are you|what('?s| is) your name)[\s!.?]*$`),
		subtype: SubtypeIdentity,
	},
	{
		re:      regexp.MustCompile(`^(qui (es[- ]tu|êtes[- ]vous)|t'?es qui|c'?est quoi (ton nom|9anonai))[\s!.?]*$`),
		subtype: SubtypeIdentity,
	},
	{
		re:      regexp.MustCompile(`^(chkoun (nta|nti|ntouma)|chno smitk|nta chkoun)[\s!.?]*$`),
		subtype: SubtypeIdentity,
	},
	{
		re:      regexp.MustCompile(`^(من (انت|أنت|انتم)|شكون (نتا|نتي)|ما اسمك|شنو سميتك)[\s!.؟]*$`),
		subtype: SubtypeIdentity,
	},
	{
		re:      regexp.MustCompile(`^(thanks?( you| a lot)?|thx|ty|merci( beaucoup| bcp)?|cho?u?kran( bzf| bezaf)?|chkr)[\s!.?]*$`),
		subtype: SubtypeThanks,
	},
	{
		re:      regexp.MustCompile(`^(شكرا( جزيلا| بزاف)?|الله يجازيك|بارك الله فيك)[\s!.؟]*$`),
		subtype: SubtypeThanks,
	},
	{
		re:      regexp.MustCompile(`^(ok(ay)?|d'accord|daccord|wakha|واخا|مزيان|bien|top|parfait)[\s!.?؟]*$`),
		subtype: SubtypeSmalltalk,
	},
}

// QuickMatch classifies trivially casual messages without an LLM call.
// It reports false for anything it is not sure about.
func QuickMatch(query string) (*Intent, bool) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" || len(q) > quickMatchMaxLen {
		return nil, false
	}
	for _, p := range quickPatterns {
		if p.re.MatchString(q) {
			return &Intent{Type: TypeCasual, Subtype: p.subtype}, true
		}
	}
	return nil, false
}
