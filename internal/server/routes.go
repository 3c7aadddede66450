package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"energynexus/internal/handlers"
	"energynexus/internal/middlewares"
)

func (s *Server) RegisterRoutes() http.Handler {
	r := mux.NewRouter()

	r.Use(middlewares.RequestLogger)
	r.Use(s.metrics.Instrument)
	r.Use(middlewares.Cors(s.cfg.AllowedOrigins))
	r.Use(s.rateLimiter.Limit)

	ch := handlers.NewCommonHandler(s.health)
	r.HandleFunc("/", ch.HelloWorldHandler).Methods("GET")
	r.HandleFunc("/health", ch.HealthHandler).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	r.HandleFunc("/api", ch.IndexHandler).Methods("GET", "OPTIONS")
	r.HandleFunc("/api/ping", ch.PingHandler).Methods("GET", "OPTIONS")

	auth := middlewares.NewAuthMiddleware(s.tokenService)
	s.registerAuthRoutes(r, auth)
	s.registerUserRoutes(r, auth)

	r.PathPrefix("/api/").HandlerFunc(ch.NotFoundHandler)

	return r
}

func (s *Server) registerAuthRoutes(r *mux.Router, auth *middlewares.AuthMiddleware) {
	ah := handlers.NewAuthHandler(s.authService)

	r.HandleFunc("/api/auth/signup", ah.Signup).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/auth/verify-otp", ah.VerifyOTP).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/auth/login", ah.Login).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/auth/resend-otp", ah.ResendOTP).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/auth/forgot-password", ah.ForgotPassword).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/auth/reset-password", ah.ResetPassword).Methods("POST", "OPTIONS")
	r.Handle("/api/auth/me", auth.Authenticate(http.HandlerFunc(ah.Me))).Methods("GET", "OPTIONS")
	r.HandleFunc("/api/auth/logout", ah.Logout).Methods("POST", "OPTIONS")
}

func (s *Server) registerUserRoutes(r *mux.Router, auth *middlewares.AuthMiddleware) {
	uh := handlers.NewUserHandler(s.userService)

	r.Handle("/api/users/me", auth.Authenticate(http.HandlerFunc(uh.GetMyProfile))).Methods("GET", "OPTIONS")
	r.Handle("/api/users/me", auth.Authenticate(http.HandlerFunc(uh.UpdateMyProfile))).Methods("PUT", "PATCH", "OPTIONS")

	settings := r.PathPrefix("/api/settings").Subrouter()
	settings.Use(auth.Authenticate)
	settings.HandleFunc("/profile", uh.GetMyProfile).Methods("GET", "OPTIONS")
	settings.HandleFunc("/profile", uh.UpdateMyProfile).Methods("PUT", "OPTIONS")
	settings.HandleFunc("/notifications", uh.GetNotificationSettings).Methods("GET", "OPTIONS")
	settings.HandleFunc("/notifications", uh.UpdateNotificationSettings).Methods("PUT", "OPTIONS")
	settings.HandleFunc("/security", uh.GetSecuritySettings).Methods("GET", "OPTIONS")
	settings.HandleFunc("/security", uh.UpdateSecuritySettings).Methods("PUT", "OPTIONS")
	settings.HandleFunc("/change-password", uh.ChangePassword).Methods("PUT", "OPTIONS")
}
