package auth

import (
	"net/http"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	admintempl "github.com/codr1/nailbook/internal/templates/components/admin"
	"github.com/codr1/nailbook/internal/templates/layouts"
)

const adminHome = "/admin"

var (
	sessions     *Sessions
	sessionsOnce sync.Once
)

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(s *Sessions) {
	if s == nil {
		return
	}
	sessionsOnce.Do(func() {
		sessions = s
	})
}

// GET /admin/login
func HandleLoginPage(w http.ResponseWriter, r *http.Request) {
	s := loadSessions()
	if s != nil && s.Authenticated(r) {
		http.Redirect(w, r, adminHome, http.StatusSeeOther)
		return
	}
	renderLogin(w, r, http.StatusOK, "")
}

// POST /admin/login
func HandleLogin(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	s := loadSessions()
	if s == nil {
		logger.Error().Msg("Admin sessions not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if !s.Enabled() {
		logger.Warn().Msg("Admin login attempted without ADMIN_PASSWORD_HASH configured")
	}

	r.Body = http.MaxBytesReader(w, r.Body, 4096)
	password := strings.TrimSpace(r.FormValue("password"))
	if password == "" {
		renderLogin(w, r, http.StatusBadRequest, "Informe a senha.")
		return
	}

	if err := s.Login(w, password); err != nil {
		logger.Warn().Err(err).Msg("Admin login failed")
		renderLogin(w, r, http.StatusUnauthorized, "Senha incorreta.")
		return
	}

	logger.Info().Msg("Admin logged in")
	http.Redirect(w, r, adminHome, http.StatusSeeOther)
}

// POST /admin/logout
func HandleLogout(w http.ResponseWriter, r *http.Request) {
	if s := loadSessions(); s != nil {
		s.Logout(w)
	}
	http.Redirect(w, r, adminHome+"/login", http.StatusSeeOther)
}

// Authenticated reports whether r belongs to a logged-in admin.
func Authenticated(r *http.Request) bool {
	s := loadSessions()
	return s != nil && s.Authenticated(r)
}

func renderLogin(w http.ResponseWriter, r *http.Request, status int, message string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	component := layouts.Base("Entrar", admintempl.Login(admintempl.LoginData{Error: message}))
	if err := component.Render(r.Context(), w); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to render login page")
	}
}

func loadSessions() *Sessions {
	return sessions
}
