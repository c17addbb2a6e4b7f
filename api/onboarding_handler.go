package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/onboard"
	"github.com/xraph/onboard/engine"
	"github.com/xraph/onboard/id"
	"github.com/xraph/onboard/onboarding"
	"github.com/xraph/onboard/saga"
)

func (a *API) startOnboarding(ctx forge.Context, req *StartOnboardingRequest) (*StartOnboardingResponse, error) {
	if ok, err := a.requirePermission(ctx, PermissionStart); !ok {
		return nil, err
	}

	kind := saga.Kind(req.Kind)
	input := onboarding.Input{
		SubjectID:    req.SubjectID,
		Email:        req.Email,
		Name:         req.Name,
		ResourceID:   req.ResourceID,
		ResourceType: req.ResourceType,
		WorkspaceID:  req.WorkspaceID,
		MembershipID: req.MembershipID,
	}
	if ve := input.Validate(kind); ve != nil {
		return nil, ctx.JSON(http.StatusBadRequest, ValidationErrorResponse{
			Error:  ve.Error(),
			Fields: ve.Fields,
		})
	}

	inst, err := engine.StartSaga(ctx.Context(), a.eng, kind, input.SubjectID, input)
	if err != nil {
		return nil, fmt.Errorf("start onboarding: %w", err)
	}

	resp := &StartOnboardingResponse{
		InstanceID: inst.ID.String(),
		StatusURL:  "/v1/onboarding/" + inst.ID.String() + "/status",
	}
	return resp, ctx.JSON(http.StatusCreated, resp)
}

func (a *API) notifyEvent(ctx forge.Context, req *NotifyEventRequest) (*NotifyEventResponse, error) {
	if ok, err := a.requirePermission(ctx, PermissionNotify); !ok {
		return nil, err
	}

	n := onboarding.Notification{
		EventType:    req.EventType,
		InstanceID:   req.InstanceID,
		ResourceID:   req.ResourceID,
		ResourceType: req.ResourceType,
		MembershipID: req.MembershipID,
	}
	instanceID, ve := n.Validate()
	if ve != nil {
		return nil, ctx.JSON(http.StatusBadRequest, ValidationErrorResponse{
			Error:  ve.Error(),
			Fields: ve.Fields,
		})
	}

	payload, err := n.Payload()
	if err != nil {
		return nil, fmt.Errorf("encode event payload: %w", err)
	}

	// A delivery nothing is waiting for is still accepted: the event is
	// persisted and consumed by the next matching wait on this instance.
	evt, delivered, err := a.eng.PublishEvent(ctx.Context(), instanceID, n.EventType, payload)
	if err != nil {
		return nil, mapStoreError(err)
	}

	resp := &NotifyEventResponse{EventID: evt.ID.String(), Delivered: delivered}
	return resp, ctx.JSON(http.StatusOK, resp)
}

func (a *API) listOnboarding(ctx forge.Context, req *ListOnboardingRequest) ([]*saga.Instance, error) {
	if ok, err := a.requirePermission(ctx, PermissionRead); !ok {
		return nil, err
	}

	instances, err := a.eng.ListInstances(ctx.Context(), saga.ListOpts{
		Status: saga.Status(req.Status),
		Kind:   saga.Kind(req.Kind),
		Limit:  defaultLimit(req.Limit),
		Offset: req.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("list onboarding runs: %w", err)
	}

	return instances, ctx.JSON(http.StatusOK, instances)
}

func (a *API) getOnboarding(ctx forge.Context, _ *GetOnboardingRequest) (*saga.Instance, error) {
	if ok, err := a.requirePermission(ctx, PermissionRead); !ok {
		return nil, err
	}

	instanceID, err := id.ParseSagaID(ctx.Param("instanceId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid instance ID: %v", err))
	}

	inst, err := a.eng.GetInstance(ctx.Context(), instanceID)
	if err != nil {
		return nil, mapStoreError(err)
	}

	return inst, ctx.JSON(http.StatusOK, inst)
}

func (a *API) getStatus(ctx forge.Context, _ *GetStatusRequest) (*StatusResponse, error) {
	if ok, err := a.requirePermission(ctx, PermissionRead); !ok {
		return nil, err
	}

	instanceID, err := id.ParseSagaID(ctx.Param("instanceId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid instance ID: %v", err))
	}

	inst, err := a.eng.GetInstance(ctx.Context(), instanceID)
	if err != nil {
		return nil, mapStoreError(err)
	}

	resp := &StatusResponse{
		ID:              inst.ID.String(),
		Status:          string(inst.Status),
		CreatedTime:     inst.StartedAt,
		LastUpdatedTime: inst.UpdatedAt,
	}
	if inst.Terminal() {
		resp.Output = &StatusOutput{
			ResourceID:   inst.ResourceID,
			ResourceType: inst.ResourceType,
			Error:        inst.Error,
		}
	}

	// Milestones live in the status projection, written best-effort
	// alongside the run. A missing projection degrades the response, it
	// does not fail it.
	p, err := a.eng.Store().FindLatest(ctx.Context(), inst.SubjectID, string(inst.Kind))
	if err == nil {
		resp.CustomStatus = p
	} else if !errors.Is(err, onboard.ErrStatusNotFound) {
		return nil, fmt.Errorf("load status projection: %w", err)
	}

	return resp, ctx.JSON(http.StatusOK, resp)
}

// requirePermission consults the access evaluator for the caller in ctx.
// The bool reports whether the handler may proceed; when false the 403
// response has already been written unless the error is non-nil.
func (a *API) requirePermission(ctx forge.Context, permission string) (bool, error) {
	allowed, err := a.evaluator.Allow(ctx.Context(), permission)
	if err != nil {
		return false, forge.InternalError(fmt.Errorf("evaluate permission %q: %w", permission, err))
	}
	if !allowed {
		return false, ctx.JSON(http.StatusForbidden, map[string]string{
			"error": "permission denied: " + permission,
		})
	}
	return true, nil
}

// mapStoreError converts onboard sentinel errors to forge HTTP errors.
func mapStoreError(err error) error {
	if err == nil {
		return nil
	}
	if isNotFound(err) {
		return forge.NotFound(err.Error())
	}
	return err
}

func isNotFound(err error) bool {
	return errors.Is(err, onboard.ErrInstanceNotFound) ||
		errors.Is(err, onboard.ErrStatusNotFound) ||
		errors.Is(err, onboard.ErrEventNotFound)
}
