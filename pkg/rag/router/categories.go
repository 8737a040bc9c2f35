package router

import (
	"github.com/berserker-glitch/9anonai-be-sub000/internal/entity"
	"github.com/berserker-glitch/9anonai-be-sub000/pkg/rag/intent"
)

// Knowledge-base categories. Ingested chunks are tagged with exactly one
// of these; retrieval filters must use the same spelling.
const (
	CategoryMoudawana              = "moudawana"
	CategoryEtatCivil              = "etat_civil"
	CategoryCodeTravail            = "code_travail"
	CategorySecuriteSociale        = "securite_sociale"
	CategoryCodePenal              = "code_penal"
	CategoryProcedurePenale        = "procedure_penale"
	CategoryCodeCommerce           = "code_commerce"
	CategoryDroitSocietes          = "droit_societes"
	CategoryObligationsContrats    = "code_obligations_contrats"
	CategoryDroitsReels            = "droits_reels"
	CategoryBaux                   = "baux"
	CategoryCodeGeneralImpots      = "code_general_impots"
	CategoryProtectionConsommateur = "protection_consommateur"
	CategoryFonctionPublique       = "fonction_publique"
	CategoryProcedureCivile        = "procedure_civile"
	CategoryProcedureAdmin         = "procedure_administrative"
)

// domainCategories maps a classified legal domain to the codes most
// likely to contain the answer. Domains missing from the table (and
// DomainOther) search the whole knowledge base.
var domainCategories = map[string][]string{
	intent.DomainFamily:         {CategoryMoudawana, CategoryEtatCivil},
	intent.DomainLabor:          {CategoryCodeTravail, CategorySecuriteSociale},
	intent.DomainCriminal:       {CategoryCodePenal, CategoryProcedurePenale},
	intent.DomainCommercial:     {CategoryCodeCommerce, CategoryDroitSocietes, CategoryObligationsContrats},
	intent.DomainRealEstate:     {CategoryDroitsReels, CategoryBaux, CategoryObligationsContrats},
	intent.DomainTax:            {CategoryCodeGeneralImpots},
	intent.DomainConsumer:       {CategoryProtectionConsommateur, CategoryObligationsContrats},
	intent.DomainAdministrative: {CategoryFonctionPublique, CategoryProcedureAdmin},
}

// CategoriesForDomain returns the category filter for a legal domain,
// or nil when the whole knowledge base should be searched.
func CategoriesForDomain(domain string) []string {
	cats, ok := domainCategories[domain]
	if !ok {
		return nil
	}
	out := make([]string, len(cats))
	copy(out, cats)
	return out
}

// contractCategories maps a contract type to the codes governing it.
// The drafting pipeline uses these for its primary retrieval pass.
var contractCategories = map[string][]string{
	entity.ContractTypeEmployment:  {CategoryCodeTravail, CategorySecuriteSociale},
	entity.ContractTypeLease:       {CategoryBaux, CategoryDroitsReels},
	entity.ContractTypeSale:        {CategoryObligationsContrats, CategoryCodeCommerce},
	entity.ContractTypeService:     {CategoryObligationsContrats, CategoryCodeCommerce},
	entity.ContractTypePartnership: {CategoryDroitSocietes, CategoryCodeCommerce},
	entity.ContractTypeNDA:         {CategoryObligationsContrats, CategoryCodeCommerce},
}

// CategoriesForContractType returns the primary categories for a
// contract type, or nil for unknown types (search everything).
func CategoriesForContractType(contractType string) []string {
	cats, ok := contractCategories[contractType]
	if !ok {
		return nil
	}
	out := make([]string, len(cats))
	copy(out, cats)
	return out
}

// GeneralObligationsCategories is the secondary filter every drafting
// pass searches: the common law of contracts applies to all types.
func GeneralObligationsCategories() []string {
	return []string{CategoryObligationsContrats}
}
