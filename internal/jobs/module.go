package jobs

import apphttp "pestcrm_backend/internal/http"

// Module wires the job trigger routes.
type Module struct {
	handler *HTTPHandler
}

func NewModule(runner *Runner) *Module {
	return &Module{handler: NewHTTPHandler(runner)}
}

func (m *Module) Name() string {
	return "jobs"
}

func (m *Module) RegisterRoutes(groups *apphttp.RouteGroups) {
	m.handler.RegisterRoutes(groups.Jobs)
}

var _ apphttp.Module = (*Module)(nil)
