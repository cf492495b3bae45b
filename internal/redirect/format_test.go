package redirect_test

import (
	"testing"

	"github.com/qrlink/qrlink-go/internal/domain"
	"github.com/qrlink/qrlink-go/internal/redirect"
)

func TestFormat_Email(t *testing.T) {
	got := redirect.Format(domain.KindEmail, "contact@example.com")
	if got != "mailto:contact@example.com" {
		t.Errorf("expected mailto URI, got '%s'", got)
	}
}

func TestFormat_Phone(t *testing.T) {
	got := redirect.Format(domain.KindPhone, "+1234567890")
	if got != "tel:+1234567890" {
		t.Errorf("expected tel URI, got '%s'", got)
	}
}

func TestFormat_WhatsAppStripsNonDigits(t *testing.T) {
	got := redirect.Format(domain.KindWhatsApp, "+1 (234) 567-8900")
	if got != "https://wa.me/12345678900" {
		t.Errorf("expected wa.me URI with digits only, got '%s'", got)
	}
}

func TestFormat_WebsitePassThrough(t *testing.T) {
	got := redirect.Format(domain.KindWebsite, "https://example.com")
	if got != "https://example.com" {
		t.Errorf("expected URL unchanged, got '%s'", got)
	}
}

func TestFormat_BrochurePassThrough(t *testing.T) {
	got := redirect.Format(domain.KindBrochure, "https://example.com/brochure.pdf")
	if got != "https://example.com/brochure.pdf" {
		t.Errorf("expected URL unchanged, got '%s'", got)
	}
}
