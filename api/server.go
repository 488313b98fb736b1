/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request, included in log lines
  2. Logger:     zap request logging (logging.RequestLogger)
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for the payroll frontend

ROUTE GROUPS:
  /api/health           Liveness and database check
  /api/employees/*      Employee management
  /api/payroll/*        Pay persons, their leave and derived pay
  /api/leave/*          Leave policy and calculators
  /api/tax/*            Tax and UIF calculators
  /api/scenarios/*      Demo data

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/warp/payroll-leave/logging"
)

// NewRouter creates a new router with all routes configured. An empty
// allowedOrigins allows any origin.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(logging.RequestLogger(h.Logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)

		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.ListEmployees)
			r.Post("/", h.CreateEmployee)
			r.Get("/{id}", h.GetEmployee)
			r.Put("/{id}", h.UpdateEmployee)
			r.Delete("/{id}", h.DeleteEmployee)
		})

		r.Route("/payroll", func(r chi.Router) {
			r.Get("/", h.ListPayPersons)
			r.Post("/", h.CreatePayPerson)
			r.Post("/migrate", h.MigrateEmployees)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetPayPerson)
				r.Put("/", h.UpdatePayPerson)
				r.Delete("/", h.DeletePayPerson)

				r.Get("/leave", h.GetLeaveSummary)
				r.Post("/leave", h.AddLeave)
				r.Delete("/leave/{leaveID}", h.RemoveLeave)
				r.Get("/snapshots", h.ListSnapshots)

				r.Get("/gross-salary", h.GrossSalary)
				r.Get("/net-salary", h.NetSalary)
				r.Get("/unpaid-leave", h.UnpaidLeave)
			})
		})

		r.Route("/leave", func(r chi.Router) {
			r.Get("/policy", h.GetPolicy)
			r.Get("/classify", h.Classify)
			r.Get("/days-in-period", h.DaysInPeriod)
			r.Get("/payout", h.LeavePayout)
		})

		r.Route("/tax", func(r chi.Router) {
			r.Get("/", h.Tax)
			r.Get("/uif", h.UIF)
		})

		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
			r.Post("/reset", h.ResetDatabase)
		})
	})

	return r
}
