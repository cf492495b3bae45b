package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/qrlink/qrlink-go/internal/domain"
	"github.com/qrlink/qrlink-go/internal/redirect"
	"github.com/qrlink/qrlink-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// QR resolution — the public scan surface
// ============================================================

// resolveHandler serves the JSON contract for the scan page: the active
// option plus the destination URI and the delay the page waits before
// navigating. A miss is a terminal state, not an error worth retrying.
func resolveHandler(resolver *service.Resolver, delay time.Duration, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/resolve/{qrID}")
		defer span.End()

		qrID := chi.URLParam(r, "qrID")

		rec, err := resolver.Resolve(ctx, qrID)
		if err != nil {
			var notFound *domain.ErrNotFound
			if errors.As(err, &notFound) {
				writeError(w, http.StatusNotFound, "qr code not active")
				return
			}
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, domain.ResolveResponse{
			QRID:         rec.QRID,
			Kind:         rec.Kind,
			Label:        rec.Label,
			Value:        rec.Value,
			Destination:  redirect.Format(rec.Kind, rec.Value),
			DelaySeconds: int(delay.Seconds()),
		})
	}
}

// redirectHandler performs the server-side navigation for scanners that
// hit /r/{qrID} directly.
func redirectHandler(resolver *service.Resolver, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /r/{qrID}")
		defer span.End()

		qrID := chi.URLParam(r, "qrID")

		rec, err := resolver.Resolve(ctx, qrID)
		if err != nil {
			var notFound *domain.ErrNotFound
			if errors.As(err, &notFound) {
				writeError(w, http.StatusNotFound, "qr code not active")
				return
			}
			handleServiceError(w, err, logger)
			return
		}

		http.Redirect(w, r, redirect.Format(rec.Kind, rec.Value), http.StatusFound)
	}
}
