package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"planvault/internal/domain"
	"planvault/internal/domain/model"
)

type initializeRequest struct {
	Admin string `json:"admin"`
}

type createPaymentRequest struct {
	Buyer  string `json:"buyer"`
	PlanID string `json:"plan_id"`
	Amount int64  `json:"amount"`
	Token  string `json:"token"`
}

type adminActionRequest struct {
	Admin string `json:"admin"`
	Token string `json:"token,omitempty"`
}

type mintVoucherRequest struct {
	Admin         string `json:"admin"`
	Owner         string `json:"owner"`
	PlanID        string `json:"plan_id"`
	Code          string `json:"code"`
	DurationHours uint32 `json:"duration_hours"`
}

type activateVoucherRequest struct {
	Owner string `json:"owner"`
}

type transferVoucherRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type paymentResponse struct {
	ID        uint64 `json:"id"`
	Buyer     string `json:"buyer"`
	PlanID    string `json:"plan_id"`
	Amount    int64  `json:"amount"`
	Token     string `json:"token"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

type voucherResponse struct {
	ID            uint64  `json:"id"`
	Owner         string  `json:"owner"`
	PlanID        string  `json:"plan_id"`
	Code          string  `json:"code"`
	IsActive      bool    `json:"is_active"`
	ActivatedAt   *string `json:"activated_at,omitempty"`
	ExpiresAt     string  `json:"expires_at"`
	DurationHours uint32  `json:"duration_hours"`
}

func (s *Server) handleInitializeEscrow(w http.ResponseWriter, r *http.Request) {
	var req initializeRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.escrowUC.Initialize(r.Context(), req.Admin); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]string{"admin": req.Admin})
}

func (s *Server) handleCreatePayment(w http.ResponseWriter, r *http.Request) {
	var req createPaymentRequest
	if !s.decode(w, r, &req) {
		return
	}
	id, err := s.escrowUC.CreatePayment(r.Context(), req.Buyer, req.PlanID, req.Amount, req.Token)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]uint64{"id": id})
}

func (s *Server) handleGetPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	p, err := s.escrowUC.GetPayment(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toPaymentResponse(p))
}

func (s *Server) handleCompletePayment(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	var req adminActionRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.escrowUC.CompletePayment(r.Context(), id, req.Admin); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": string(model.PaymentStatusCompleted)})
}

func (s *Server) handleRefundPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	var req adminActionRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.escrowUC.RefundPayment(r.Context(), id, req.Admin, req.Token); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": string(model.PaymentStatusRefunded)})
}

func (s *Server) handleEscrowBalance(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token parameter", http.StatusBadRequest)
		return
	}
	amount, err := s.escrowUC.EscrowBalance(r.Context(), token)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]int64{"amount": amount})
}

func (s *Server) handleInitializeVouchers(w http.ResponseWriter, r *http.Request) {
	var req initializeRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.voucherUC.Initialize(r.Context(), req.Admin); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]string{"admin": req.Admin})
}

func (s *Server) handleMintVoucher(w http.ResponseWriter, r *http.Request) {
	var req mintVoucherRequest
	if !s.decode(w, r, &req) {
		return
	}
	id, err := s.voucherUC.Mint(r.Context(), req.Admin, req.Owner, req.PlanID, req.Code, req.DurationHours)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]uint64{"id": id})
}

func (s *Server) handleGetVoucher(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	v, err := s.voucherUC.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toVoucherResponse(v))
}

func (s *Server) handleVoucherValid(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	valid, err := s.voucherUC.IsValid(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"valid": valid})
}

func (s *Server) handleActivateVoucher(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	var req activateVoucherRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.voucherUC.Activate(r.Context(), id, req.Owner); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"active": true})
}

func (s *Server) handleTransferVoucher(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	var req transferVoucherRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.voucherUC.Transfer(r.Context(), id, req.From, req.To); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"owner": req.To})
}

// ---- helpers ----

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return false
	}
	return true
}

func (s *Server) pathID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Error().Err(err).Msg("write response failed")
	}
}

// writeError maps the domain taxonomy onto HTTP statuses. Expired gets 410 so
// clients can tell a dead voucher from a conflicting one.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var status int
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrAlreadyInitialized),
		errors.Is(err, domain.ErrNotInitialized),
		errors.Is(err, domain.ErrInvalidState):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrExpired):
		status = http.StatusGone
	case errors.Is(err, domain.ErrTransferFailed):
		status = http.StatusBadGateway
	case errors.Is(err, domain.ErrInvalidArgument):
		status = http.StatusBadRequest
	default:
		status = http.StatusInternalServerError
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func toPaymentResponse(p *model.Payment) paymentResponse {
	return paymentResponse{
		ID:        p.ID,
		Buyer:     p.Buyer,
		PlanID:    p.PlanID,
		Amount:    p.Amount,
		Token:     p.Token,
		Status:    string(p.Status),
		CreatedAt: p.CreatedAt.Format(time.RFC3339),
	}
}

func toVoucherResponse(v *model.Voucher) voucherResponse {
	resp := voucherResponse{
		ID:            v.ID,
		Owner:         v.Owner,
		PlanID:        v.PlanID,
		Code:          v.Code,
		IsActive:      v.IsActive,
		ExpiresAt:     v.ExpiresAt.Format(time.RFC3339),
		DurationHours: v.DurationHours,
	}
	if v.ActivatedAt != nil {
		at := v.ActivatedAt.Format(time.RFC3339)
		resp.ActivatedAt = &at
	}
	return resp
}
