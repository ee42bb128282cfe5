package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-auth-gateway/internal/application/otp"
	"github.com/go-auth-gateway/internal/pkg/validate"
)

// OtpHandler handles one-time-code issuance and verification endpoints.
type OtpHandler struct {
	svc otp.Service
}

func NewOtpHandler(svc otp.Service) *OtpHandler { return &OtpHandler{svc: svc} }

func (h *OtpHandler) Request(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeCodeRequest(w, r)
	if !ok {
		return
	}
	if err := h.svc.RequestCode(r.Context(), req); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "code sent"})
}

func (h *OtpHandler) Resend(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeCodeRequest(w, r)
	if !ok {
		return
	}
	if err := h.svc.ResendCode(r.Context(), req); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "code sent"})
}

func (h *OtpHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req otp.VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	cred, err := h.svc.VerifyCode(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AuthEnvelope{Token: cred, Message: "code verified"})
}

func decodeCodeRequest(w http.ResponseWriter, r *http.Request) (otp.CodeRequest, bool) {
	var req otp.CodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return req, false
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return req, false
	}
	return req, true
}
