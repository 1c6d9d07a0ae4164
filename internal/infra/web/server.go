package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"image-edit-saas/internal/config"
	"image-edit-saas/internal/domain"
	"image-edit-saas/internal/domain/ports/adapter"
	"image-edit-saas/internal/domain/ports/repository"
	"image-edit-saas/internal/infra/logging"
	"image-edit-saas/internal/usecase"
)

type Server struct {
	router   chi.Router
	validate *validator.Validate
	jwt      *JWTManager
	log      *zerolog.Logger

	users       repository.UserRepository
	adminRoleID string
	ipnSecret   string

	userUC    *usecase.UserUseCase
	planUC    *usecase.PlanUseCase
	paymentUC *usecase.PaymentUseCase
	mediaUC   *usecase.MediaUseCase
	presetUC  *usecase.PresetUseCase
}

func NewServer(
	ctx context.Context,
	cfg *config.Config,
	users repository.UserRepository,
	roles repository.RoleRepository,
	userUC *usecase.UserUseCase,
	planUC *usecase.PlanUseCase,
	paymentUC *usecase.PaymentUseCase,
	mediaUC *usecase.MediaUseCase,
	presetUC *usecase.PresetUseCase,
	log *zerolog.Logger,
) (*Server, error) {
	adminRoleID, err := resolveAdminRole(ctx, roles)
	if err != nil {
		return nil, err
	}

	s := &Server{
		validate:    validator.New(),
		jwt:         NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		log:         log,
		users:       users,
		adminRoleID: adminRoleID,
		ipnSecret:   cfg.NOWPayments.IPNSecret,
		userUC:      userUC,
		planUC:      planUC,
		paymentUC:   paymentUC,
		mediaUC:     mediaUC,
		presetUC:    presetUC,
	}
	s.router = s.routes()
	return s, nil
}

func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/users", func(r chi.Router) {
		r.Post("/signup", s.handleSignup)
		r.Post("/verify-otp", s.handleVerifyOTP)
		r.Post("/login", s.handleLogin)
		r.Group(func(r chi.Router) {
			r.Use(s.Authenticate)
			r.Get("/me", s.handleMe)
			r.Post("/delete-account", s.handleDeleteAccount)
		})
	})

	r.Route("/subscriptions", func(r chi.Router) {
		r.Get("/plans", s.handleListPlans)
		r.Post("/ipn-callback", s.handleIPNCallback)
		r.Group(func(r chi.Router) {
			r.Use(s.Authenticate)
			r.Post("/payment-link", s.handlePaymentLink)
			r.Get("/payments/{id}", s.handleGetPayment)
		})
		r.Group(func(r chi.Router) {
			r.Use(s.Authenticate, s.RequireAdmin)
			r.Post("/plans", s.handleCreatePlan)
			r.Put("/plans/{id}", s.handleUpdatePlan)
			r.Delete("/plans/{id}", s.handleDeletePlan)
		})
	})

	r.Route("/media", func(r chi.Router) {
		r.Use(s.Authenticate)
		r.Post("/edit", s.handleMediaEdit)
		r.Post("/inpaint", s.handleMediaInpaint)
		r.Get("/status/{id}", s.handleMediaStatus)
		r.Get("/history", s.handleMediaHistory)
	})

	// Completion callback from the editing API. No auth; strict track lookup.
	r.Post("/webhook/image-processing", s.handleMediaWebhook)

	r.Route("/models", func(r chi.Router) {
		r.Get("/", s.handleListPresets)
		r.Group(func(r chi.Router) {
			r.Use(s.Authenticate, s.RequireAdmin)
			r.Post("/", s.handleCreatePreset)
			r.Put("/{id}", s.handleUpdatePreset)
			r.Delete("/{id}", s.handleDeletePreset)
		})
	})

	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logging.WithRequestID(r.Context(), middleware.GetReqID(r.Context()))
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r.WithContext(ctx))
		logging.With(ctx, s.log).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			s.log.Error().Err(err).Msg("encode response")
		}
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps domain sentinels and gateway errors to HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var gerr *adapter.GatewayError
	status := http.StatusInternalServerError
	msg := "internal error"

	switch {
	case errors.As(err, &gerr):
		status = http.StatusBadGateway
		if gerr.StatusCode >= 400 && gerr.StatusCode < 600 {
			status = gerr.StatusCode
		}
		msg = gerr.Message
	case errors.Is(err, domain.ErrInvalidArgument):
		status, msg = http.StatusBadRequest, "invalid request"
	case errors.Is(err, domain.ErrAmountMismatch):
		status, msg = http.StatusBadRequest, "amount mismatch"
	case errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, domain.ErrAccountNotVerified),
		errors.Is(err, domain.ErrBadSignature),
		errors.Is(err, domain.ErrOTPInvalid):
		status, msg = http.StatusUnauthorized, err.Error()
	case errors.Is(err, domain.ErrAccountDeleted):
		status, msg = http.StatusForbidden, err.Error()
	case errors.Is(err, domain.ErrNotFound):
		status, msg = http.StatusNotFound, "not found"
	case errors.Is(err, domain.ErrAlreadyExists):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrRateLimited):
		status, msg = http.StatusTooManyRequests, err.Error()
	}

	if status >= 500 {
		logging.With(r.Context(), s.log).Error().Err(err).Msg("request failed")
	}
	s.writeJSON(w, status, errorResponse{Error: msg})
}

// decodeAndValidate parses a JSON body into dst and runs struct validation.
func (s *Server) decodeAndValidate(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return domain.ErrInvalidArgument
	}
	if err := s.validate.Struct(dst); err != nil {
		return domain.ErrInvalidArgument
	}
	return nil
}
