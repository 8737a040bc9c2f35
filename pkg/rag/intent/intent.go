package intent

// Intent type values.
const (
	TypeCasual = "casual"
	TypeLegal  = "legal"
)

// Casual subtypes.
const (
	SubtypeGreeting  = "greeting"
	SubtypeIdentity  = "identity"
	SubtypeThanks    = "thanks"
	SubtypeSmalltalk = "smalltalk"
)

// Legal domains. Each maps to one or more Moroccan legal codes in the
// router's category table; DomainOther searches the whole knowledge base.
const (
	DomainFamily         = "family"
	DomainLabor          = "labor"
	DomainCriminal       = "criminal"
	DomainCommercial     = "commercial"
	DomainRealEstate     = "realestate"
	DomainTax            = "tax"
	DomainConsumer       = "consumer"
	DomainAdministrative = "administrative"
	DomainOther          = "other"
)

// Query complexity. Complex queries get deeper retrieval.
const (
	ComplexitySimple  = "simple"
	ComplexityComplex = "complex"
)

// Intent describes what the user is asking for. Casual intents carry a
// subtype; legal intents carry a domain and a complexity.
type Intent struct {
	Type       string `json:"type"`
	Subtype    string `json:"subtype,omitempty"`
	Domain     string `json:"domain,omitempty"`
	Complexity string `json:"complexity,omitempty"`
}

func (i *Intent) IsCasual() bool {
	return i != nil && i.Type == TypeCasual
}

func (i *Intent) IsComplex() bool {
	return i != nil && i.Complexity == ComplexityComplex
}

var validDomains = map[string]bool{
	DomainFamily:         true,
	DomainLabor:          true,
	DomainCriminal:       true,
	DomainCommercial:     true,
	DomainRealEstate:     true,
	DomainTax:            true,
	DomainConsumer:       true,
	DomainAdministrative: true,
	DomainOther:          true,
}

var validSubtypes = map[string]bool{
	SubtypeGreeting:  true,
	SubtypeIdentity:  true,
	SubtypeThanks:    true,
	SubtypeSmalltalk: true,
}

// normalize coerces unknown field values to safe defaults so a sloppy
// classifier response still yields a usable intent.
func normalize(i *Intent) *Intent {
	switch i.Type {
	case TypeCasual:
		if !validSubtypes[i.Subtype] {
			i.Subtype = SubtypeSmalltalk
		}
		i.Domain = ""
		i.Complexity = ""
	case TypeLegal:
		if !validDomains[i.Domain] {
			i.Domain = DomainOther
		}
		if i.Complexity != ComplexityComplex {
			i.Complexity = ComplexitySimple
		}
		i.Subtype = ""
	default:
		return fallbackIntent()
	}
	return i
}

// fallbackIntent is used whenever classification fails. Treating the
// query as a simple legal question errs on the side of searching the
// knowledge base rather than chatting past a real question.
func fallbackIntent() *Intent {
	return &Intent{
		Type:       TypeLegal,
		Domain:     DomainOther,
		Complexity: ComplexitySimple,
	}
}
