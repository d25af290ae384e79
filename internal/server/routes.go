package server

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	v1 "github.com/ohsdesk/mesa/internal/api/v1"
	"github.com/ohsdesk/mesa/internal/api/ws"
)

func registerAPIRoutes(api huma.API, provider v1.EngineProvider, sectors v1.SectorDirectory) {
	v1.RegisterTableRoutes(api, provider)
	v1.RegisterSectorRoutes(api, sectors)
}

func registerWSRoutes(r chi.Router, hub *ws.Hub) {
	r.Get("/table/{scope}", hub.ServeTable)
}
