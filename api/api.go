// Package api exposes the onboarding engine over HTTP using Forge-style
// typed handlers with OpenAPI metadata. The host application mounts the
// routes into its own router or serves Handler directly.
package api

import (
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/onboard/access"
	"github.com/xraph/onboard/engine"
	"github.com/xraph/onboard/saga"
)

// Permissions checked at the API boundary before each operation.
const (
	PermissionStart  = "onboarding.start"
	PermissionNotify = "onboarding.notify"
	PermissionRead   = "onboarding.read"
)

// API wires all onboarding HTTP handlers together.
type API struct {
	eng       *engine.Engine
	evaluator access.Evaluator
	router    forge.Router
}

// New creates an API from an onboarding Engine. A nil evaluator permits
// every caller.
func New(eng *engine.Engine, evaluator access.Evaluator, router forge.Router) *API {
	if evaluator == nil {
		evaluator = access.AllowAll{}
	}
	return &API{eng: eng, evaluator: evaluator, router: router}
}

// Handler returns the fully assembled http.Handler with all routes.
func (a *API) Handler() http.Handler {
	if a.router == nil {
		a.router = forge.NewRouter()
	}
	a.RegisterRoutes(a.router)
	return a.router.Handler()
}

// RegisterRoutes registers all onboarding API routes into the given
// Forge router with full OpenAPI metadata.
func (a *API) RegisterRoutes(router forge.Router) {
	g := router.Group("/v1", forge.WithGroupTags("onboarding"))

	_ = g.POST("/onboarding", a.startOnboarding,
		forge.WithSummary("Start onboarding"),
		forge.WithDescription("Starts a new onboarding run for a subject and returns immediately with the instance handle."),
		forge.WithOperationID("startOnboarding"),
		forge.WithRequestSchema(StartOnboardingRequest{}),
		forge.WithCreatedResponse(StartOnboardingResponse{}),
		forge.WithErrorResponses(),
	)

	_ = g.POST("/onboarding/events", a.notifyEvent,
		forge.WithSummary("Notify platform event"),
		forge.WithDescription("Delivers an external platform event to the onboarding run it correlates with."),
		forge.WithOperationID("notifyOnboardingEvent"),
		forge.WithRequestSchema(NotifyEventRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Delivery result", NotifyEventResponse{}),
		forge.WithErrorResponses(),
	)

	_ = g.GET("/onboarding/runs", a.listOnboarding,
		forge.WithSummary("List onboarding runs"),
		forge.WithDescription("Returns onboarding runs filtered by status and kind."),
		forge.WithOperationID("listOnboardingRuns"),
		forge.WithRequestSchema(ListOnboardingRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Onboarding runs", []*saga.Instance{}),
		forge.WithErrorResponses(),
	)

	_ = g.GET("/onboarding/:instanceId", a.getOnboarding,
		forge.WithSummary("Get onboarding run"),
		forge.WithDescription("Returns details of a specific onboarding run."),
		forge.WithOperationID("getOnboardingRun"),
		forge.WithResponseSchema(http.StatusOK, "Onboarding run details", &saga.Instance{}),
		forge.WithErrorResponses(),
	)

	_ = g.GET("/onboarding/:instanceId/status", a.getStatus,
		forge.WithSummary("Get onboarding status"),
		forge.WithDescription("Returns the queryable status view of an onboarding run, milestones included."),
		forge.WithOperationID("getOnboardingStatus"),
		forge.WithResponseSchema(http.StatusOK, "Onboarding status", StatusResponse{}),
		forge.WithErrorResponses(),
	)
}
