package handler

import (
	forecastrepo "pestcrm_backend/internal/forecast/repository"
	forecastservice "pestcrm_backend/internal/forecast/service"
	apphttp "pestcrm_backend/internal/http"
	"pestcrm_backend/platform/db"
)

// Module wires the forecast snapshot read routes.
type Module struct {
	handler *HTTPHandler
}

func NewModule(q db.DBTX) *Module {
	svc := forecastservice.New(nil, forecastrepo.New(q), nil, nil)
	return &Module{handler: NewHTTPHandler(svc)}
}

func (m *Module) Name() string {
	return "forecast"
}

func (m *Module) RegisterRoutes(groups *apphttp.RouteGroups) {
	m.handler.RegisterRoutes(groups.Protected.Group("/forecast"))
}

var _ apphttp.Module = (*Module)(nil)
