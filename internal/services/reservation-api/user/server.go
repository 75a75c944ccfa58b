package user

import (
	"context"
	"net/http"

	coreauth "github.com/NordCoder/Chateaux/internal/auth"
	"github.com/NordCoder/Chateaux/internal/domain/user"
	"github.com/NordCoder/Chateaux/internal/services/reservation-api/httpx"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"go.uber.org/zap"
)

type RegisterRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, validation.Required.Error("first name is required"), validation.Length(1, 255)),
		validation.Field(&r.LastName, validation.Required.Error("last name is required"), validation.Length(1, 255)),
		validation.Field(&r.Email,
			validation.Required.Error("email is required"),
			is.Email.Error("email is not valid"),
			validation.Length(1, 255),
		),
		validation.Field(&r.Password,
			validation.Required.Error("password is required"),
			validation.Length(6, 0).Error("password must be at least 6 characters"),
		),
	)
}

type Service interface {
	Register(ctx context.Context, in RegisterInput) (*user.User, error)
	Me(ctx context.Context) (*user.User, error)
}

type Server struct {
	log *zap.Logger
	uc  Service
}

func NewServer(uc Service, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{log: log.With(zap.String("component", "user.server")), uc: uc}
}

func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/user/register", s.RegisterUser)
	mux.HandleFunc("GET /api/user/me", s.Me)
	mux.HandleFunc("GET /api/test/hello", s.Hello)
}

func (s *Server) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, r, s.log, err)
		return
	}
	if err := req.Validate(); err != nil {
		httpx.WriteError(w, r, s.log, err)
		return
	}

	u, err := s.uc.Register(r.Context(), RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		httpx.WriteError(w, r, s.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, u)
}

func (s *Server) Me(w http.ResponseWriter, r *http.Request) {
	u, err := s.uc.Me(r.Context())
	if err != nil {
		httpx.WriteError(w, r, s.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, u)
}

// Hello greets the caller by the email of the attached identity.
func (s *Server) Hello(w http.ResponseWriter, r *http.Request) {
	id, ok := coreauth.IdentityFromCtx(r.Context())
	if !ok {
		httpx.WriteError(w, r, s.log, coreauth.ErrUnauthenticated)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("Hello" + id.Email + "!"))
}
