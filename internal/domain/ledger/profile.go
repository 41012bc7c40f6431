package ledger

import (
	"github.com/go-playground/validator/v10"
)

// Regime selects the filing regime for an entity.
type Regime string

const (
	// RegimeSelfAssessment is a sole trader filing SA100/SA103 with HMRC.
	RegimeSelfAssessment Regime = "hmrc"
	// RegimeCompany is a limited company filing with Companies House and CT600.
	RegimeCompany Regime = "companies_house"
)

// IsValid checks if the regime is known
func (r Regime) IsValid() bool {
	return r == RegimeSelfAssessment || r == RegimeCompany
}

// IsCompany returns true for the Companies House regime
func (r Regime) IsCompany() bool {
	return r == RegimeCompany
}

// TaxpayerProfile holds the identification fields checked before filing.
type TaxpayerProfile struct {
	Regime                    Regime `json:"regime"`
	FullName                  string `json:"full_name"`
	UTR                       string `json:"utr" validate:"required"`
	NationalInsuranceNumber   string `json:"national_insurance_number" validate:"required"`
	CompanyName               string `json:"company_name"`
	CompanyRegistrationNumber string `json:"company_registration_number" validate:"required"`
	CompanyUTR                string `json:"company_utr" validate:"required"`
	IsVATRegistered           bool   `json:"is_vat_registered"`
	VATRegistrationNumber     string `json:"vat_registration_number"`
	AccountingBasis           string `json:"accounting_basis"`
}

// ProfileField names a profile field required for filing.
type ProfileField string

const (
	FieldUTR                       ProfileField = "UTR"
	FieldNationalInsuranceNumber   ProfileField = "NationalInsuranceNumber"
	FieldCompanyRegistrationNumber ProfileField = "CompanyRegistrationNumber"
	FieldCompanyUTR                ProfileField = "CompanyUTR"
)

// RequiredFields returns the fields a regime needs, in display order.
func (r Regime) RequiredFields() []ProfileField {
	if r.IsCompany() {
		return []ProfileField{FieldCompanyRegistrationNumber, FieldCompanyUTR}
	}
	return []ProfileField{FieldUTR, FieldNationalInsuranceNumber}
}

// EffectiveRegime defaults an unset regime to self assessment.
func (p TaxpayerProfile) EffectiveRegime() Regime {
	if p.Regime.IsValid() {
		return p.Regime
	}
	return RegimeSelfAssessment
}

// MissingFields returns the required fields for the profile's regime that are
// blank, in the regime's display order.
func (p TaxpayerProfile) MissingFields() []ProfileField {
	required := p.EffectiveRegime().RequiredFields()
	names := make([]string, len(required))
	for i, f := range required {
		names[i] = string(f)
	}
	err := validatorInstance().StructPartial(p, names...)
	if err == nil {
		return nil
	}
	failed := make(map[string]bool)
	if verrs, ok := err.(validator.ValidationErrors); ok {
		for _, e := range verrs {
			failed[e.StructField()] = true
		}
	}
	var missing []ProfileField
	for _, f := range required {
		if failed[string(f)] {
			missing = append(missing, f)
		}
	}
	return missing
}
