// Copyright (C) 2026 quillchat.dev <security@quillchat.dev>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/quillchat/keybroker/backend/apperrors"
	"github.com/quillchat/keybroker/backend/middleware"
	"github.com/quillchat/keybroker/backend/models"
	"github.com/quillchat/keybroker/backend/service"
)

type KeyHandler struct {
	svc *service.KeyService
	log *logrus.Logger
}

func NewKeyHandler(svc *service.KeyService, log *logrus.Logger) *KeyHandler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &KeyHandler{svc: svc, log: log}
}

// decodeStrict rejects unknown fields so malformed or misnamed payloads
// fail loudly instead of silently dropping key material.
func decodeStrict(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func (h *KeyHandler) RegisterKeys(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		h.respondError(w, apperrors.New(apperrors.CodeUnauthenticated, "no caller identity"))
		return
	}

	var reg models.KeyRegistration
	if err := decodeStrict(r, &reg); err != nil {
		h.respondError(w, apperrors.Wrap(apperrors.CodeInvalidArgument, "invalid request body", err))
		return
	}
	if reg.DeviceID == "" {
		// Fall back to the device claim when the payload omits it.
		reg.DeviceID, _ = middleware.GetDeviceID(r)
	}

	result, err := h.svc.RegisterKeys(r.Context(), userID, reg)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, result)
}

func (h *KeyHandler) GetPreKeyBundle(w http.ResponseWriter, r *http.Request) {
	requesterID, ok := middleware.GetUserID(r)
	if !ok {
		h.respondError(w, apperrors.New(apperrors.CodeUnauthenticated, "no caller identity"))
		return
	}
	targetID := mux.Vars(r)["user_id"]

	bundle, err := h.svc.GetPreKeyBundle(r.Context(), targetID, requesterID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, bundle)
}

func (h *KeyHandler) ReplenishPreKeys(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		h.respondError(w, apperrors.New(apperrors.CodeUnauthenticated, "no caller identity"))
		return
	}

	var req models.ReplenishRequest
	if err := decodeStrict(r, &req); err != nil {
		h.respondError(w, apperrors.Wrap(apperrors.CodeInvalidArgument, "invalid request body", err))
		return
	}

	result, err := h.svc.ReplenishPreKeys(r.Context(), userID, req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, result)
}

func (h *KeyHandler) PreKeyCount(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		h.respondError(w, apperrors.New(apperrors.CodeUnauthenticated, "no caller identity"))
		return
	}

	count, err := h.svc.RemainingPreKeyCount(r.Context(), userID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, count)
}

func (h *KeyHandler) RotateSignedPreKey(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		h.respondError(w, apperrors.New(apperrors.CodeUnauthenticated, "no caller identity"))
		return
	}

	var req models.RotateRequest
	if err := decodeStrict(r, &req); err != nil {
		h.respondError(w, apperrors.Wrap(apperrors.CodeInvalidArgument, "invalid request body", err))
		return
	}

	keyID, err := h.svc.RotateSignedPreKey(r.Context(), userID, req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]int{"signed_pre_key_id": keyID})
}

func (h *KeyHandler) VerifyIdentityKey(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		h.respondError(w, apperrors.New(apperrors.CodeUnauthenticated, "no caller identity"))
		return
	}
	keyID := mux.Vars(r)["key_id"]

	if err := h.svc.VerifyIdentityKey(r.Context(), userID, keyID); err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "verified"})
}

func (h *KeyHandler) RevokeIdentityKey(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		h.respondError(w, apperrors.New(apperrors.CodeUnauthenticated, "no caller identity"))
		return
	}
	keyID := mux.Vars(r)["key_id"]

	if err := h.svc.RevokeIdentityKey(r.Context(), userID, keyID); err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "revoked"})
}

func (h *KeyHandler) SafetyNumber(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		h.respondError(w, apperrors.New(apperrors.CodeUnauthenticated, "no caller identity"))
		return
	}
	peerID := mux.Vars(r)["user_id"]

	sn, err := h.svc.ComputeSafetyNumber(r.Context(), userID, peerID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, sn)
}

func (h *KeyHandler) respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.WithError(err).Error("failed to write response")
	}
}

func (h *KeyHandler) respondError(w http.ResponseWriter, err error) {
	code := apperrors.CodeOf(err)

	status := http.StatusInternalServerError
	switch code {
	case apperrors.CodeInvalidArgument:
		status = http.StatusBadRequest
	case apperrors.CodeNotFound:
		status = http.StatusNotFound
	case apperrors.CodeAlreadyExists, apperrors.CodeConflict:
		status = http.StatusConflict
	case apperrors.CodeUnauthenticated:
		status = http.StatusUnauthorized
	}

	if status >= http.StatusInternalServerError {
		h.log.WithError(err).Error("request failed")
	}

	body := map[string]string{"code": string(code), "message": err.Error()}
	if app, ok := err.(*apperrors.AppError); ok {
		// Keep storage causes out of client responses.
		body["message"] = app.Message
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
