package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/siddharthpatel001/client-health-monitor/internal/httpapi/middleware"
	"github.com/siddharthpatel001/client-health-monitor/internal/repo"
)

// Scheduler is the slice of the monitor loop the health endpoint needs.
type Scheduler interface {
	Running() bool
}

type Server struct {
	Logger    *zap.Logger
	Clients   repo.ClientStore
	Scheduler Scheduler
	Cooldown  time.Duration
	AddRPM    int
	DeleteRPM int

	validate *validator.Validate
}

func NewServer(l *zap.Logger, clients repo.ClientStore, sched Scheduler, cooldown time.Duration, addRPM, deleteRPM int) *Server {
	return &Server{
		Logger:    l,
		Clients:   clients,
		Scheduler: sched,
		Cooldown:  cooldown,
		AddRPM:    addRPM,
		DeleteRPM: deleteRPM,
		validate:  validator.New(),
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.AllowAll().Handler)

	r.Get("/healthz", s.handleHealth)
	r.Get("/api/clients", s.handleListClients)
	r.With(middleware.RateLimit(s.AddRPM, s.AddRPM)).
		Post("/api/clients", s.handleAddClient)
	r.With(middleware.RateLimit(s.DeleteRPM, s.DeleteRPM)).
		Delete("/api/clients/{id}", s.handleDeleteClient)

	return r
}

type addPayload struct {
	Host  string `json:"host" validate:"required,ip"`
	Email string `json:"email" validate:"required,email"`
}

func (s *Server) handleAddClient(w http.ResponseWriter, r *http.Request) {
	var p addPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "bad payload")
		return
	}
	p.Host = strings.TrimSpace(p.Host)
	p.Email = strings.TrimSpace(p.Email)

	if err := s.validate.Struct(p); err != nil {
		s.Logger.Warn("add_client_invalid",
			zap.String("host", p.Host),
			zap.String("email", p.Email),
			zap.Error(err),
		)
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	c, err := s.Clients.Add(r.Context(), p.Host, p.Email)
	if err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			s.Logger.Info("add_client_duplicate", zap.String("host", p.Host), zap.String("email", p.Email))
			writeError(w, http.StatusConflict, "client "+p.Host+" with email "+p.Email+" already exists")
			return
		}
		s.Logger.Error("add_client_error", zap.String("host", p.Host), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not add client")
		return
	}

	s.Logger.Info("added_client", zap.Int64("id", c.ID), zap.String("host", c.Host), zap.String("email", c.Email))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(c)
}

func (s *Server) handleDeleteClient(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad id")
		return
	}
	if err := s.Clients.Delete(r.Context(), id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			s.Logger.Warn("delete_client_not_found", zap.Int64("id", id))
			writeError(w, http.StatusNotFound, "client not found")
			return
		}
		s.Logger.Error("delete_client_error", zap.Int64("id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not delete client")
		return
	}
	s.Logger.Info("deleted_client", zap.Int64("id", id))
	w.WriteHeader(http.StatusNoContent)
}

type clientRow struct {
	ID          int64  `json:"id"`
	Host        string `json:"host"`
	Email       string `json:"email"`
	Ping        string `json:"ping"`
	SSH         string `json:"ssh"`
	Service     string `json:"service"`
	LastUpdated string `json:"last_updated"`
	AlertActive bool   `json:"alert_active"`
}

func (s *Server) handleListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := s.Clients.List(r.Context())
	if err != nil {
		s.Logger.Error("list_clients_error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "list error")
		return
	}

	now := time.Now().UTC()
	rows := make([]clientRow, 0, len(clients))
	for _, c := range clients {
		rows = append(rows, clientRow{
			ID:          c.ID,
			Host:        c.Host,
			Email:       c.Email,
			Ping:        string(c.PingStatus),
			SSH:         string(c.SSHStatus),
			Service:     string(c.ServiceStatus),
			LastUpdated: c.LastUpdated.Format("15:04:05"),
			AlertActive: c.AlertActive(now, s.Cooldown),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(rows)
}

type healthChecks struct {
	Database struct {
		Status      string `json:"status"`
		ClientCount int    `json:"client_count"`
	} `json:"database"`
	Scheduler struct {
		Status string `json:"status"`
	} `json:"scheduler"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	var checks healthChecks

	dbHealthy := s.Clients.PingDB(r.Context()) == nil
	checks.Database.Status = "down"
	if dbHealthy {
		checks.Database.Status = "up"
		if n, err := s.Clients.Count(r.Context()); err == nil {
			checks.Database.ClientCount = n
		}
	}

	checks.Scheduler.Status = "stopped"
	if s.Scheduler != nil && s.Scheduler.Running() {
		checks.Scheduler.Status = "running"
	}

	status := "healthy"
	code := http.StatusOK
	if !dbHealthy {
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    checks,
	})
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// validationMessage turns validator output into a user-correctable message.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid payload"
	}
	fe := verrs[0]
	switch fe.Field() {
	case "Host":
		if fe.Tag() == "required" {
			return "host is required"
		}
		return "host must be a valid IPv4 or IPv6 address"
	case "Email":
		if fe.Tag() == "required" {
			return "email is required"
		}
		return "email is not a valid address"
	}
	return "invalid payload"
}
