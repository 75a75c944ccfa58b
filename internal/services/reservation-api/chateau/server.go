package chateau

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/NordCoder/Chateaux/internal/domain/chateau"
	"github.com/NordCoder/Chateaux/internal/services/reservation-api/httpx"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"go.uber.org/zap"
)

type Service interface {
	List(ctx context.Context, theme string) ([]*chateau.Chateau, error)
	Get(ctx context.Context, id int64) (*chateau.Chateau, error)
	Create(ctx context.Context, c *chateau.Chateau) (*chateau.Chateau, error)
	Update(ctx context.Context, id int64, upd *chateau.Chateau) (*chateau.Chateau, error)
	Delete(ctx context.Context, id int64) error
}

type Server struct {
	log *zap.Logger
	uc  Service
}

func NewServer(uc Service, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{log: log.With(zap.String("component", "chateau.server")), uc: uc}
}

func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/chateaus", s.List)
	mux.HandleFunc("GET /api/chateaus/{id}", s.Get)
	mux.HandleFunc("POST /api/chateaus", s.Create)
	mux.HandleFunc("PUT /api/chateaus/{id}", s.Update)
	mux.HandleFunc("DELETE /api/chateaus/{id}", s.Delete)
}

func validate(c *chateau.Chateau) error {
	return validation.ValidateStruct(c,
		validation.Field(&c.ChateauName, validation.Required.Error("chateau name is mandatory"), validation.Length(1, 255)),
		validation.Field(&c.ShortDescription, validation.Length(0, 500)),
		validation.Field(&c.ChateauWebsite, validation.Length(0, 2048)),
		validation.Field(&c.OpeningHoursInfo, validation.Length(0, 255)),
		validation.Field(&c.Theme, validation.Length(0, 100)),
		validation.Field(&c.HostPhoneNumber, validation.Length(0, 50)),
		validation.Field(&c.HostEmail, is.Email.Error("invalid email format")),
		validation.Field(&c.Latitude, validation.Min(-90.0), validation.Max(90.0)),
		validation.Field(&c.Longitude, validation.Min(-180.0), validation.Max(180.0)),
		validation.Field(&c.OverallCapacity, validation.Min(int32(0))),
	)
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid id %q", httpx.ErrBadRequest, r.PathValue("id"))
	}
	return id, nil
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request) (*chateau.Chateau, bool) {
	var c chateau.Chateau
	if err := httpx.DecodeJSON(w, r, &c); err != nil {
		httpx.WriteError(w, r, s.log, err)
		return nil, false
	}
	if err := validate(&c); err != nil {
		httpx.WriteError(w, r, s.log, err)
		return nil, false
	}
	return &c, true
}

func (s *Server) List(w http.ResponseWriter, r *http.Request) {
	list, err := s.uc.List(r.Context(), r.URL.Query().Get("theme"))
	if err != nil {
		httpx.WriteError(w, r, s.log, err)
		return
	}
	if list == nil {
		list = []*chateau.Chateau{}
	}
	httpx.WriteJSON(w, http.StatusOK, list)
}

func (s *Server) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.WriteError(w, r, s.log, err)
		return
	}
	c, err := s.uc.Get(r.Context(), id)
	if err != nil {
		httpx.WriteError(w, r, s.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, c)
}

func (s *Server) Create(w http.ResponseWriter, r *http.Request) {
	in, ok := s.decode(w, r)
	if !ok {
		return
	}
	c, err := s.uc.Create(r.Context(), in)
	if err != nil {
		httpx.WriteError(w, r, s.log, err)
		return
	}
	w.Header().Set("Location", "/api/chateaus/"+strconv.FormatInt(c.ID, 10))
	httpx.WriteJSON(w, http.StatusCreated, c)
}

func (s *Server) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.WriteError(w, r, s.log, err)
		return
	}
	in, ok := s.decode(w, r)
	if !ok {
		return
	}
	c, err := s.uc.Update(r.Context(), id, in)
	if err != nil {
		httpx.WriteError(w, r, s.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, c)
}

func (s *Server) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.WriteError(w, r, s.log, err)
		return
	}
	if err := s.uc.Delete(r.Context(), id); err != nil {
		httpx.WriteError(w, r, s.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
