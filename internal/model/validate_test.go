package model

import (
	"errors"
	"strings"
	"testing"

	"github.com/sakif/jobtrack/internal/apperror"
)

func TestInputNormalize_TrimsAndDefaults(t *testing.T) {
	in := ApplicationInput{
		Company:     "  Stripe ",
		Position:    " Backend Engineer",
		AppliedDate: "2026-02-10",
		Notes:       "  referral  ",
	}
	if err := in.Normalize(); err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if in.Company != "Stripe" || in.Position != "Backend Engineer" || in.Notes != "referral" {
		t.Errorf("Normalize() did not trim: %+v", in)
	}
	if in.Status != StatusApplied {
		t.Errorf("Status = %q, want default %q", in.Status, StatusApplied)
	}
}

func TestInputNormalize_ReportsEveryField(t *testing.T) {
	in := ApplicationInput{Company: "   ", Position: "", Status: "ghosted"}
	err := in.Normalize()
	if !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("Normalize() error = %v, want ErrValidation", err)
	}

	fields := apperror.Fields(err)
	for _, f := range []string{"company", "position", "status", "applied_date"} {
		if _, ok := fields[f]; !ok {
			t.Errorf("missing validation message for %s (got %v)", f, fields)
		}
	}
	if _, ok := fields["url"]; ok {
		t.Error("url is optional and should not be reported")
	}
}

func TestInputNormalize_RejectsMalformedDate(t *testing.T) {
	in := ApplicationInput{Company: "A", Position: "B", AppliedDate: "10/02/2026"}
	err := in.Normalize()
	if apperror.Fields(err)["applied_date"] == "" {
		t.Errorf("expected applied_date error, got %v", err)
	}
}

func TestPatchNormalize(t *testing.T) {
	blank := "  "
	p := ApplicationPatch{Company: &blank}
	if err := p.Normalize(); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("blank company should fail, got %v", err)
	}

	notes := strings.Repeat("x", MaxNotesLength+1)
	p = ApplicationPatch{Notes: &notes}
	if apperror.Fields(p.Normalize())["notes"] == "" {
		t.Error("overlong notes should fail")
	}

	pos := " SRE "
	p = ApplicationPatch{Position: &pos}
	if err := p.Normalize(); err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if *p.Position != "SRE" {
		t.Errorf("Position = %q, want trimmed", *p.Position)
	}
}
