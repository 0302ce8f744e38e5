package handlers

import (
	"github.com/go-chi/chi/v5"
)

// Routes mounts the JSON API under /api/v1
func (h *Handler) Routes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", h.HandleHealthCheck)
		r.Post("/solve", h.HandleSolve)
		r.Get("/address-search", h.HandleAddressSearch)

		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.HandleListScenarios)
			r.Post("/", h.HandleCreateScenario)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.HandleGetScenario)
				r.Put("/", h.HandleUpdateScenario)
				r.Delete("/", h.HandleDeleteScenario)

				r.Get("/sites", h.HandleListSites)
				r.Post("/sites", h.HandleCreateSites)
				r.Delete("/sites/{siteID}", h.HandleDeleteSite)

				r.Post("/solve", h.HandleSolveScenario)
				r.Get("/solutions", h.HandleListSolutions)
			})
		})

		r.Get("/solutions/{id}", h.HandleGetSolution)
	})
}
