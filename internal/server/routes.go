package server

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	v1 "github.com/flowdeck/flowdeck/internal/api/v1"
	"github.com/flowdeck/flowdeck/internal/api/ws"
	"github.com/flowdeck/flowdeck/internal/auth"
	"github.com/flowdeck/flowdeck/internal/store/postgres"
)

func registerAuthRoutes(api huma.API, authSvc *auth.Service) {
	v1.RegisterAuthRoutes(api, authSvc)
}

func registerAPIRoutes(api huma.API, store *postgres.Store, hub *ws.Hub) {
	v1.RegisterBoardRoutes(api, store)
	v1.RegisterColumnRoutes(api, store, hub)
	v1.RegisterCardRoutes(api, store, hub)
}

func registerWSRoutes(r chi.Router, hub *ws.Hub) {
	r.Get("/boards", hub.Serve)
}
