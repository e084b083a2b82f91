package parser

import (
	"regexp"

	"github.com/locapass/docverify/internal/models"
)

// Label anchors follow the layout of French national identity cards,
// with the English labels the newer biometric cards also print.
var (
	// A plain \b would let "nom" match inside "Prénom": accented
	// letters are not word characters to RE2, so anchor on a real
	// non-letter instead.
	idLastName   = regexp.MustCompile(`(?i)(?:^|[^\p{L}])(?:nom|surname|last name)\b\s*[:.]?\s*([\p{L}' -]+)`)
	idFirstName  = regexp.MustCompile(`(?i)\b(?:prénom|prenom|first name|given name)(?:\(s\))?\s*[:.]?\s*([\p{L}' -]+)`)
	idBirthDate  = regexp.MustCompile(`(?i)(?:né\(e\) le|née? le|date de naiss(?:ance)?|birth date|date of birth)\s*[:.]?\s*(\d{1,2}[./-]\d{1,2}[./-]\d{4})`)
	idExpiryDate = regexp.MustCompile(`(?i)(?:valable jusqu'au|expire le|date d'expiration|expiry date|valid until)\s*[:.]?\s*(\d{1,2}[./-]\d{1,2}[./-]\d{4})`)
	idNumber     = regexp.MustCompile(`(?i)(?:n°|no|numéro|num[ée]ro de document|card no|document no)\s*[:.]?\s*([A-Z0-9]{6,})`)
)

func parseIdentity(text string, fields models.FieldMap) {
	if v, ok := captureName(text, idLastName); ok {
		fields["last_name"] = v
	}
	if v, ok := captureName(text, idFirstName); ok {
		fields["first_name"] = v
	}

	// full_name is derived, not printed on the card.
	first, hasFirst := fields["first_name"].(string)
	last, hasLast := fields["last_name"].(string)
	switch {
	case hasFirst && hasLast:
		fields["full_name"] = first + " " + last
	case hasLast:
		fields["full_name"] = last
	case hasFirst:
		fields["full_name"] = first
	}

	if v, ok := captureDate(text, idBirthDate); ok {
		fields["birth_date"] = v
	}
	if v, ok := captureDate(text, idExpiryDate); ok {
		fields["expiration_date"] = v
	}
	if m := idNumber.FindStringSubmatch(text); m != nil {
		fields["document_number"] = m[1]
	}
}
