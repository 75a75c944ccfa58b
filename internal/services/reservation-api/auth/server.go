package auth

import (
	"context"
	"net/http"

	"github.com/NordCoder/Chateaux/internal/services/reservation-api/httpx"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"go.uber.org/zap"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email,
			validation.Required.Error("email is required"),
			is.Email.Error("email is not valid"),
		),
		validation.Field(&r.Password,
			validation.Required.Error("password is required"),
		),
	)
}

type LoginResponse struct {
	AccessToken string `json:"accessToken"`
}

type Usecase interface {
	Login(ctx context.Context, email, password string) (string, error)
}

type Server struct {
	log        *zap.Logger
	uc         Usecase
	loginLimit httpx.Stage
}

type Opts struct {
	Logger *zap.Logger
	// LoginLimit wraps the login handler, typically a per-IP rate limit.
	LoginLimit httpx.Stage
}

func NewServer(uc Usecase, o Opts) *Server {
	log := o.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		log:        log.With(zap.String("component", "auth.server")),
		uc:         uc,
		loginLimit: o.LoginLimit,
	}
}

func (s *Server) Register(mux *http.ServeMux) {
	mux.Handle("POST /api/auth/login", httpx.Chain(http.HandlerFunc(s.Login), s.loginLimit))
}

func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, r, s.log, err)
		return
	}
	if err := req.Validate(); err != nil {
		httpx.WriteError(w, r, s.log, err)
		return
	}

	token, err := s.uc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		httpx.WriteError(w, r, s.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, LoginResponse{AccessToken: token})
}
