package model

import (
	"time"
	"unicode/utf16"
	"unicode/utf8"
)

// Application is one tracked job application.
//
// The JSON field names match the wire format the dashboard client has always
// used (snake_case), so existing API consumers keep working.
//
// AppliedDate is kept as the ISO "YYYY-MM-DD" string rather than a
// time.Time: sorting and monthly bucketing both rely on plain string
// ordering of that format, and keeping the string avoids any timezone
// shift when the date is round-tripped.
type Application struct {
	ID          int64     `json:"id"`
	Company     string    `json:"company"`
	Position    string    `json:"position"`
	Status      Status    `json:"status"`
	AppliedDate string    `json:"applied_date"`
	URL         string    `json:"url,omitempty"`
	Notes       string    `json:"notes"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ApplicationInput is the create payload: an Application without the
// fields the server assigns (id and timestamps).
type ApplicationInput struct {
	Company     string `json:"company"`
	Position    string `json:"position"`
	Status      Status `json:"status,omitempty"`
	AppliedDate string `json:"applied_date"`
	URL         string `json:"url,omitempty"`
	Notes       string `json:"notes"`
}

// ApplicationPatch is a partial update. A nil field means "leave unchanged".
type ApplicationPatch struct {
	Company     *string `json:"company,omitempty"`
	Position    *string `json:"position,omitempty"`
	Status      *Status `json:"status,omitempty"`
	AppliedDate *string `json:"applied_date,omitempty"`
	URL         *string `json:"url,omitempty"`
	Notes       *string `json:"notes,omitempty"`
}

// StatusPatch builds the patch sent for a kanban status move.
func StatusPatch(s Status) ApplicationPatch {
	return ApplicationPatch{Status: &s}
}

// Apply copies every non-nil field of p onto a.
func (p ApplicationPatch) Apply(a *Application) {
	if p.Company != nil {
		a.Company = *p.Company
	}
	if p.Position != nil {
		a.Position = *p.Position
	}
	if p.Status != nil {
		a.Status = *p.Status
	}
	if p.AppliedDate != nil {
		a.AppliedDate = *p.AppliedDate
	}
	if p.URL != nil {
		a.URL = *p.URL
	}
	if p.Notes != nil {
		a.Notes = *p.Notes
	}
}

// Empty reports whether the patch changes nothing.
func (p ApplicationPatch) Empty() bool {
	return p.Company == nil && p.Position == nil && p.Status == nil &&
		p.AppliedDate == nil && p.URL == nil && p.Notes == nil
}

// avatarColors is the palette used for the company initial badge.
var avatarColors = [...]string{
	"violet", "blue", "emerald", "amber", "rose", "cyan", "orange", "indigo",
}

// AvatarColor picks a stable palette color from the first character of the
// company name.
//
// The index is the character's UTF-16 code unit, which is what browsers
// key on, so the terminal and the web client agree: "É" (U+00C9 = 201) is
// 201 % 8 = 1. Characters outside the Basic Multilingual Plane use their
// leading surrogate.
func AvatarColor(company string) string {
	r, _ := utf8.DecodeRuneInString(company)
	if r == utf8.RuneError {
		return avatarColors[0]
	}
	if hi, _ := utf16.EncodeRune(r); hi != utf8.RuneError {
		r = hi
	}
	return avatarColors[int(r)%len(avatarColors)]
}
