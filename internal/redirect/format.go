// Package redirect turns a resolved profile option into a dereferenceable
// URI. Formatting is pure and total: malformed values produce malformed
// URIs, matching the unvalidated inputs upstream.
package redirect

import (
	"strings"

	"github.com/qrlink/qrlink-go/internal/domain"
)

// Format converts a kind + raw value into the URI a scanner navigates to.
// Website and brochure values must already be URLs and pass through
// unchanged.
func Format(kind domain.OptionKind, value string) string {
	switch kind {
	case domain.KindEmail:
		return "mailto:" + value
	case domain.KindPhone:
		return "tel:" + value
	case domain.KindWhatsApp:
		return "https://wa.me/" + digitsOnly(value)
	default:
		return value
	}
}

func digitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}
