package model

import (
	"strings"

	"github.com/sakif/jobtrack/internal/apperror"
)

// Field limits enforced on create and update.
const (
	MaxCompanyLength  = 200
	MaxPositionLength = 200
	MaxURLLength      = 2048
	MaxNotesLength    = 10000
)

// Normalize trims the input, defaults the status to applied and validates
// it. Every problem is reported at once, keyed by the JSON field name, so a
// form can show each message next to its input.
func (in *ApplicationInput) Normalize() error {
	in.Company = strings.TrimSpace(in.Company)
	in.Position = strings.TrimSpace(in.Position)
	in.AppliedDate = strings.TrimSpace(in.AppliedDate)
	in.URL = strings.TrimSpace(in.URL)
	in.Notes = strings.TrimSpace(in.Notes)
	if in.Status == "" {
		in.Status = StatusApplied
	}

	v := apperror.ValidationErrors{}
	checkCompany(v, in.Company)
	checkPosition(v, in.Position)
	checkStatus(v, in.Status)
	checkDate(v, in.AppliedDate)
	checkOptional(v, in.URL, in.Notes)
	return v.Err()
}

// Normalize trims and validates the fields present in the patch. A field
// that is present must satisfy the same rules as on create; in particular
// company and position cannot be blanked out.
func (p *ApplicationPatch) Normalize() error {
	v := apperror.ValidationErrors{}
	if p.Company != nil {
		*p.Company = strings.TrimSpace(*p.Company)
		checkCompany(v, *p.Company)
	}
	if p.Position != nil {
		*p.Position = strings.TrimSpace(*p.Position)
		checkPosition(v, *p.Position)
	}
	if p.Status != nil {
		checkStatus(v, *p.Status)
	}
	if p.AppliedDate != nil {
		*p.AppliedDate = strings.TrimSpace(*p.AppliedDate)
		checkDate(v, *p.AppliedDate)
	}
	url, notes := "", ""
	if p.URL != nil {
		*p.URL = strings.TrimSpace(*p.URL)
		url = *p.URL
	}
	if p.Notes != nil {
		*p.Notes = strings.TrimSpace(*p.Notes)
		notes = *p.Notes
	}
	checkOptional(v, url, notes)
	return v.Err()
}

func checkCompany(v apperror.ValidationErrors, company string) {
	switch {
	case company == "":
		v.Add("company", "Company is required")
	case len(company) > MaxCompanyLength:
		v.Add("company", "Company is too long")
	}
}

func checkPosition(v apperror.ValidationErrors, position string) {
	switch {
	case position == "":
		v.Add("position", "Position is required")
	case len(position) > MaxPositionLength:
		v.Add("position", "Position is too long")
	}
}

func checkStatus(v apperror.ValidationErrors, s Status) {
	if !s.Valid() {
		v.Add("status", "Status must be one of applied, interview, offer, rejected, withdrawn")
	}
}

func checkDate(v apperror.ValidationErrors, date string) {
	if date == "" {
		v.Add("applied_date", "Date is required")
		return
	}
	if _, err := ParseDate(date); err != nil {
		v.Add("applied_date", "Date must be in YYYY-MM-DD format")
	}
}

func checkOptional(v apperror.ValidationErrors, url, notes string) {
	if len(url) > MaxURLLength {
		v.Add("url", "URL is too long")
	}
	if len(notes) > MaxNotesLength {
		v.Add("notes", "Notes are too long")
	}
}
