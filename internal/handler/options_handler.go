package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/qrlink/qrlink-go/internal/domain"
	"github.com/qrlink/qrlink-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// Profile options
// ============================================================

// ownerFromContext rebuilds the owner from the validated JWT claims.
func ownerFromContext(w http.ResponseWriter, r *http.Request) (*domain.User, bool) {
	userID := UserIDFromContext(r.Context())
	qrID := QRIDFromContext(r.Context())
	if userID == "" || qrID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return nil, false
	}
	return &domain.User{ID: userID, QRID: qrID}, true
}

func listOptionsHandler(optSvc *service.ProfileOptionService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/options")
		defer span.End()

		owner, ok := ownerFromContext(w, r.WithContext(ctx))
		if !ok {
			return
		}

		options, err := optSvc.List(ctx, owner)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, options)
	}
}

func createOptionHandler(optSvc *service.ProfileOptionService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/options")
		defer span.End()

		owner, ok := ownerFromContext(w, r.WithContext(ctx))
		if !ok {
			return
		}

		var req domain.CreateOptionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		opt, err := optSvc.Add(ctx, owner, req.Kind, req.Label, req.Value)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusCreated, opt)
	}
}

func deleteOptionHandler(optSvc *service.ProfileOptionService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/options/{optionID}")
		defer span.End()

		owner, ok := ownerFromContext(w, r.WithContext(ctx))
		if !ok {
			return
		}

		optionID := chi.URLParam(r, "optionID")
		if err := optSvc.Remove(ctx, owner, optionID); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func activateOptionHandler(optSvc *service.ProfileOptionService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/options/{optionID}/activate")
		defer span.End()

		owner, ok := ownerFromContext(w, r.WithContext(ctx))
		if !ok {
			return
		}

		optionID := chi.URLParam(r, "optionID")
		opt, err := optSvc.SetActive(ctx, owner, optionID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, opt)
	}
}

func qrOverviewHandler(optSvc *service.ProfileOptionService, publicBaseURL string, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/me/qr")
		defer span.End()

		owner, ok := ownerFromContext(w, r.WithContext(ctx))
		if !ok {
			return
		}

		options, mapping, err := optSvc.Overview(ctx, owner)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, domain.QROverviewResponse{
			QRID:    owner.QRID,
			ScanURL: fmt.Sprintf("%s/r/%s", publicBaseURL, owner.QRID),
			Options: options,
			Mapping: mapping,
		})
	}
}
