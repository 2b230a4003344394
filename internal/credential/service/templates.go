package service

import "time"

// Credential type tags with templated demo subjects. Free-form types are
// accepted too; they just require custom claims.
const (
	TypeEducational  = "EducationalCredential"
	TypeEmployment   = "EmploymentCredential"
	TypeGovernmentID = "GovernmentIDCredential"
	TypeMembership   = "MembershipCredential"
)

// governmentIDValidity is the default lifetime applied to government-ID
// credentials issued without an explicit expiry.
const governmentIDValidity = 5 // years

// templateSubject synthesizes canned demo claims for the known credential
// types. Returns nil for unknown types, which therefore require custom
// claims.
func templateSubject(credentialType string, issuerName string, issuedAt time.Time) map[string]any {
	switch credentialType {
	case TypeEducational:
		return map[string]any{
			"degree":         "Bachelor of Science",
			"fieldOfStudy":   "Computer Science",
			"institution":    issuerName,
			"graduationYear": issuedAt.Year(),
		}
	case TypeEmployment:
		return map[string]any{
			"position":  "Software Engineer",
			"employer":  issuerName,
			"startDate": issuedAt.Format("2006-01-02"),
		}
	case TypeGovernmentID:
		return map[string]any{
			"documentType":     "National ID",
			"issuingAuthority": issuerName,
			"issuedDate":       issuedAt.Format("2006-01-02"),
		}
	case TypeMembership:
		return map[string]any{
			"organization": issuerName,
			"memberSince":  issuedAt.Format("2006-01-02"),
			"level":        "standard",
		}
	default:
		return nil
	}
}

// isGovernmentID reports whether the type gets the default five-year expiry.
func isGovernmentID(credentialType string) bool {
	return credentialType == TypeGovernmentID
}
