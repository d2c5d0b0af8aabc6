package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/estatehub/backend/internal/services"
)

type CampaignHandler struct {
	service   *services.CampaignService
	validator *services.ValidationHelper
}

func NewCampaignHandler(service *services.CampaignService) *CampaignHandler {
	return &CampaignHandler{
		service:   service,
		validator: services.NewValidationHelper(),
	}
}

type submitCampaignRequest struct {
	PropertyID string   `json:"propertyId" validate:"required"`
	Budget     int64    `json:"budget" validate:"required,gt=0"`
	Platforms  []string `json:"platforms" validate:"required,min=1,dive,required"`
	StartDate  string   `json:"startDate" validate:"required,datetime=2006-01-02"`
}

// SubmitCampaign submits an ad campaign funded from the wallet
// @Summary Submit an ad campaign
// @Description Submit an ad campaign; the budget is deducted from the wallet immediately and the campaign awaits admin review
// @Tags campaigns
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param campaign body submitCampaignRequest true "Campaign data"
// @Success 201 {object} services.CampaignSubmission
// @Failure 400 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Router /campaigns [post]
func (h *CampaignHandler) SubmitCampaign(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := r.Context().Value("userID").(string)
	if !ok || ownerID == "" {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req submitCampaignRequest

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

	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		services.SendErrorResponse(w, "Start date must be formatted as YYYY-MM-DD", http.StatusBadRequest, nil)
		return
	}

	submission, err := h.service.Submit(ownerID, req.PropertyID, req.Budget, req.Platforms, startDate)
	if err != nil {
		if errors.Is(err, services.ErrBelowMinimumBudget) {
			services.SendErrorResponse(w,
				fmt.Sprintf("Minimum advertisement budget is %d", h.service.MinBudget()),
				http.StatusBadRequest, nil)
			return
		}
		if _, ok := services.IsInsufficientBalance(err); ok || errors.Is(err, services.ErrNotFound) {
			services.SendDomainError(w, err)
			return
		}
		log.Printf("[CAMPAIGN] Submission failed for owner %s: %v", ownerID, err)
		services.SendErrorResponse(w, "Failed to submit campaign", http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]any{
		"message":    "Ad request submitted and wallet updated",
		"submission": submission,
	})
}

type reviewCampaignRequest struct {
	Action string `json:"action" validate:"required,oneof=approve reject"`
	Reason string `json:"reason" validate:"omitempty,max=500"`
}

// ReviewCampaign approves or rejects a pending campaign
// @Summary Review an ad campaign
// @Description Approve or reject a pending ad campaign; status-only, the reserved budget is not refunded on rejection
// @Tags campaigns
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Campaign ID"
// @Param review body reviewCampaignRequest true "Review action"
// @Success 200 {object} models.AdCampaign
// @Failure 404 {object} services.ErrorResponse
// @Failure 409 {object} services.ErrorResponse
// @Router /admin/campaigns/{id}/review [post]
func (h *CampaignHandler) ReviewCampaign(w http.ResponseWriter, r *http.Request) {
	reviewerID, ok := r.Context().Value("userID").(string)
	if !ok || reviewerID == "" {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	campaignID := chi.URLParam(r, "id")

	var req reviewCampaignRequest
	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		services.SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	campaign, err := h.service.Review(campaignID, reviewerID, req.Action, req.Reason)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) || errors.Is(err, services.ErrAlreadyReviewed) {
			services.SendDomainError(w, err)
			return
		}
		log.Printf("[CAMPAIGN] Review failed: id=%s: %v", campaignID, err)
		services.SendErrorResponse(w, "Failed to review campaign", http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"message":  "Ad campaign " + campaign.Status,
		"campaign": campaign,
	})
}

// ListMyCampaigns lists the caller's campaigns
// @Summary List my ad campaigns
// @Tags campaigns
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{campaigns=[]models.AdCampaign,count=int}
// @Failure 500 {object} services.ErrorResponse
// @Router /campaigns [get]
func (h *CampaignHandler) ListMyCampaigns(w http.ResponseWriter, r *http.Request) {
	accountID, ok := r.Context().Value("userID").(string)
	if !ok || accountID == "" {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	campaigns, err := h.service.ListByAccount(accountID)
	if err != nil {
		log.Printf("[CAMPAIGN] Failed to fetch campaigns for %s: %v", accountID, err)
		services.SendErrorResponse(w, "Failed to fetch campaigns", http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"campaigns": campaigns,
		"count":     len(campaigns),
	})
}

// ListAllCampaigns lists every campaign for the admin dashboard
// @Summary List all ad campaigns
// @Tags campaigns
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{campaigns=[]models.AdCampaign,count=int}
// @Failure 500 {object} services.ErrorResponse
// @Router /admin/campaigns [get]
func (h *CampaignHandler) ListAllCampaigns(w http.ResponseWriter, r *http.Request) {
	campaigns, err := h.service.ListAll()
	if err != nil {
		log.Printf("[CAMPAIGN] Failed to fetch campaigns: %v", err)
		services.SendErrorResponse(w, "Failed to fetch campaigns", http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"campaigns": campaigns,
		"count":     len(campaigns),
	})
}
