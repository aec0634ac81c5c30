// Package notification exposes a user's in-app notifications over HTTP.
// Notifications are written by the alert job through inapp.Repository.
package notification

import (
	apphttp "pestcrm_backend/internal/http"
	notifhandler "pestcrm_backend/internal/notification/handler"
	"pestcrm_backend/internal/notification/inapp"
	"pestcrm_backend/platform/db"
	"pestcrm_backend/platform/logger"
)

// Module wires the notification read routes.
type Module struct {
	handler *notifhandler.HTTPHandler
}

func NewModule(q db.DBTX, log *logger.Logger) *Module {
	svc := inapp.NewService(inapp.NewRepository(q), log)
	return &Module{handler: notifhandler.NewHTTPHandler(svc)}
}

func (m *Module) Name() string {
	return "notifications"
}

func (m *Module) RegisterRoutes(groups *apphttp.RouteGroups) {
	m.handler.RegisterRoutes(groups.Protected.Group("/notifications"))
}

var _ apphttp.Module = (*Module)(nil)
