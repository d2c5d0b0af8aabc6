package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/estatehub/backend/internal/services"
)

type QRHandler struct {
	service   *services.PaymentQRService
	validator *services.ValidationHelper
}

func NewQRHandler(service *services.PaymentQRService) *QRHandler {
	return &QRHandler{
		service:   service,
		validator: services.NewValidationHelper(),
	}
}

// GeneratePaymentQR generates the UPI QR for a fee or top-up payment
// @Summary Generate payment QR
// @Description Generate a UPI payment QR for the given amount and purpose
// @Tags QR
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{amount=int64,purpose=string} true "QR generation request"
// @Success 200 {object} object{upiString=string,qrImage=string}
// @Failure 400 {object} services.ErrorResponse
// @Failure 401 {object} services.ErrorResponse
// @Router /qr/payment [post]
func (h *QRHandler) GeneratePaymentQR(w http.ResponseWriter, r *http.Request) {
	accountID, ok := r.Context().Value("userID").(string)
	if !ok || accountID == "" {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req struct {
		Amount  int64  `json:"amount" validate:"required,gt=0"`
		Purpose string `json:"purpose" validate:"required,oneof=registration promotion role-upgrade"`
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		services.SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		services.SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return
	}

	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	upiString, qrImage, err := h.service.Generate(r.Context(), accountID, req.Amount, req.Purpose)
	if err != nil {
		services.SendErrorResponse(w, err.Error(), http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success":   true,
		"upiString": upiString,
		"qrImage":   qrImage,
	})
}

// LookupPaymentQR resolves a QR nonce back to its payment instructions
// @Summary Look up payment QR instructions
// @Description Resolve the nonce embedded in a generated payment QR so a submitted proof can be matched to the instructions it was generated for
// @Tags QR
// @Produce json
// @Security BearerAuth
// @Param nonce path string true "QR nonce"
// @Success 200 {object} object{instructions=object}
// @Failure 404 {object} services.ErrorResponse
// @Router /qr/payment/{nonce} [get]
func (h *QRHandler) LookupPaymentQR(w http.ResponseWriter, r *http.Request) {
	accountID, ok := r.Context().Value("userID").(string)
	if !ok || accountID == "" {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	nonce := chi.URLParam(r, "nonce")

	instructions, err := h.service.Lookup(r.Context(), nonce)
	if err != nil {
		services.SendErrorResponse(w, "Invalid or expired QR code", http.StatusNotFound, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"instructions": instructions,
	})
}
