package web

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"planvault/internal/infra/auth"
	"planvault/internal/usecase"
)

// Server exposes the escrow and voucher registries over HTTP. Authorization
// data (the caller's bearer token) is lifted into ctx here; the use cases
// decide whether it authorizes the acting principal.
type Server struct {
	escrowUC  usecase.EscrowUseCase
	voucherUC usecase.VoucherUseCase
	log       *zerolog.Logger
}

func NewServer(escrowUC usecase.EscrowUseCase, voucherUC usecase.VoucherUseCase, logger *zerolog.Logger) *Server {
	l := logger.With().Str("component", "web").Logger()
	return &Server{escrowUC: escrowUC, voucherUC: voucherUC, log: &l}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.bearerToContext)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/escrow", func(r chi.Router) {
			r.Post("/initialize", s.handleInitializeEscrow)
			r.Get("/balance", s.handleEscrowBalance)
		})
		r.Route("/payments", func(r chi.Router) {
			r.Post("/", s.handleCreatePayment)
			r.Get("/{id}", s.handleGetPayment)
			r.Post("/{id}/complete", s.handleCompletePayment)
			r.Post("/{id}/refund", s.handleRefundPayment)
		})
		r.Route("/vouchers", func(r chi.Router) {
			r.Post("/initialize", s.handleInitializeVouchers)
			r.Post("/", s.handleMintVoucher)
			r.Get("/{id}", s.handleGetVoucher)
			r.Get("/{id}/valid", s.handleVoucherValid)
			r.Post("/{id}/activate", s.handleActivateVoucher)
			r.Post("/{id}/transfer", s.handleTransferVoucher)
		})
	})

	return r
}

// bearerToContext stores the raw bearer token for the AuthProvider. A missing
// header is not rejected here: read-only endpoints need no authorization.
func (s *Server) bearerToContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hdr := r.Header.Get("Authorization")
		if strings.HasPrefix(strings.ToLower(hdr), "bearer ") {
			ctx := auth.WithBearerToken(r.Context(), strings.TrimSpace(hdr[7:]))
			r = r.WithContext(ctx)
		}
		next.ServeHTTP(w, r)
	})
}
