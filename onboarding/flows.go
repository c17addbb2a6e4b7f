package onboarding

import (
	"encoding/json"
	"fmt"

	"github.com/xraph/onboard"
	"github.com/xraph/onboard/access"
	"github.com/xraph/onboard/activity"
	"github.com/xraph/onboard/mail"
	"github.com/xraph/onboard/saga"
	"github.com/xraph/onboard/status"
)

// Milestone names surfaced on status projections.
const (
	MilestoneInputValidated       = "input_validated"
	MilestoneAccessGranted        = "access_granted"
	MilestoneWelcomeEmailSent     = "welcome_email_sent"
	MilestoneWorkspaceCreated     = "workspace_created"
	MilestoneWorkspaceInitialized = "workspace_initialized"
	MilestoneProjectCreated       = "project_created"
	MilestoneProjectInitialized   = "project_initialized"
	MilestoneInitialContentReady  = "initial_content_ready"
	MilestoneWelcomeResourcesSent = "welcome_resources_sent"
)

// Deps are the collaborators the onboarding flows are wired with.
type Deps struct {
	Mail    mail.Sender
	Access  access.Granter
	Content ContentInitializer
	Status  *status.Writer
	Config  onboard.Config
}

// Register registers the three onboarding saga definitions and their
// activities. A nil Content initializer defaults to NopContent.
func Register(sagas *saga.Registry, activities *activity.Registry, deps Deps) {
	if deps.Content == nil {
		deps.Content = NopContent{}
	}
	RegisterActivities(activities, deps.Mail, deps.Access, deps.Content)

	f := &flows{status: deps.Status, cfg: deps.Config}
	saga.RegisterDefinition(sagas, saga.NewSaga(saga.KindInvite, f.invite))
	saga.RegisterDefinition(sagas, saga.NewSaga(saga.KindNewWorkspace, f.newWorkspace))
	saga.RegisterDefinition(sagas, saga.NewSaga(saga.KindNewProject, f.newProject))
}

type flows struct {
	status *status.Writer
	cfg    onboard.Config
}

// invite grants the invited user access to the resource the invitation
// targeted and sends follow-up resources. The human action (accepting)
// happened before the saga starts, so there is nothing to wait for.
func (f *flows) invite(sg *saga.Saga, in Input) error {
	ctx := sg.Context()
	typ := string(saga.KindInvite)
	_ = f.status.Begin(ctx, in.SubjectID, typ, []string{
		MilestoneAccessGranted,
		MilestoneWelcomeResourcesSent,
	})

	grantActivity := ActivityGrantWorkspaceAccess
	if in.ResourceType == "project" {
		grantActivity = ActivityGrantProjectAccess
	}
	grant := GrantInput{
		SubjectID:    in.SubjectID,
		ResourceID:   in.ResourceID,
		MembershipID: in.MembershipID,
	}
	if _, err := saga.Do[GrantInput, struct{}](sg, grantActivity, grant); err != nil {
		return f.abandon(sg, typ, MilestoneAccessGranted, err)
	}
	if err := sg.SetResource(in.ResourceID, in.ResourceType); err != nil {
		return f.abandon(sg, typ, MilestoneAccessGranted, err)
	}
	_ = f.status.SetResource(ctx, in.SubjectID, typ, in.ResourceID, in.ResourceType)
	_ = f.status.Milestone(ctx, in.SubjectID, typ, MilestoneAccessGranted, status.MilestoneCompleted, "")

	if _, err := saga.Do[EmailInput, struct{}](sg, ActivitySendWelcomeResources, EmailInput{Email: in.Email, Name: in.Name}); err != nil {
		return f.abandon(sg, typ, MilestoneWelcomeResourcesSent, err)
	}
	_ = f.status.Milestone(ctx, in.SubjectID, typ, MilestoneWelcomeResourcesSent, status.MilestoneCompleted, "")

	_ = f.status.Complete(ctx, in.SubjectID, typ, "completed", "")
	return nil
}

// newWorkspace walks a user through creating their first workspace:
// welcome email, then a reminder-bounded wait for the workspace to be
// created and initialized, then content seeding and follow-up resources.
func (f *flows) newWorkspace(sg *saga.Saga, in Input) error {
	ctx := sg.Context()
	typ := string(saga.KindNewWorkspace)
	_ = f.status.Begin(ctx, in.SubjectID, typ, []string{
		MilestoneWelcomeEmailSent,
		MilestoneWorkspaceCreated,
		MilestoneWorkspaceInitialized,
		MilestoneInitialContentReady,
		MilestoneWelcomeResourcesSent,
	})

	if _, err := saga.Do[EmailInput, struct{}](sg, ActivitySendWelcomeEmail, EmailInput{Email: in.Email, Name: in.Name}); err != nil {
		return f.abandon(sg, typ, MilestoneWelcomeEmailSent, err)
	}
	_ = f.status.Milestone(ctx, in.SubjectID, typ, MilestoneWelcomeEmailSent, status.MilestoneCompleted, "")

	created, err := f.awaitCreation(sg, in, ActivitySendReminderEmail, ActivitySendAbandonedEmail)
	if err != nil {
		return f.abandon(sg, typ, MilestoneWorkspaceCreated, err)
	}
	if created == nil {
		return f.abandon(sg, typ, MilestoneWorkspaceCreated,
			fmt.Errorf("workspace creation not confirmed after %d attempts", f.cfg.CreatedAttempts))
	}

	if err := sg.SetResource(created.ResourceID, "workspace"); err != nil {
		return f.abandon(sg, typ, MilestoneWorkspaceCreated, err)
	}
	_ = f.status.SetResource(ctx, in.SubjectID, typ, created.ResourceID, "workspace")
	_ = f.status.Milestone(ctx, in.SubjectID, typ, MilestoneWorkspaceCreated, status.MilestoneCompleted, "")

	if err := f.awaitInitialization(sg); err != nil {
		return f.abandon(sg, typ, MilestoneWorkspaceInitialized, err)
	}
	_ = f.status.Milestone(ctx, in.SubjectID, typ, MilestoneWorkspaceInitialized, status.MilestoneCompleted, "")

	return f.finish(sg, in, typ, created.ResourceID, "workspace")
}

// newProject mirrors newWorkspace for a project inside an existing
// workspace. The workspace reference is required up front, and the
// creation event must resolve to a project.
func (f *flows) newProject(sg *saga.Saga, in Input) error {
	ctx := sg.Context()
	typ := string(saga.KindNewProject)
	_ = f.status.Begin(ctx, in.SubjectID, typ, []string{
		MilestoneInputValidated,
		MilestoneWelcomeEmailSent,
		MilestoneProjectCreated,
		MilestoneProjectInitialized,
		MilestoneInitialContentReady,
		MilestoneWelcomeResourcesSent,
	})

	if in.WorkspaceID == "" {
		ve := &ValidationError{}
		ve.add("workspaceId", "required for new_project")
		return f.abandon(sg, typ, MilestoneInputValidated, ve)
	}
	_ = f.status.Milestone(ctx, in.SubjectID, typ, MilestoneInputValidated, status.MilestoneCompleted, "")

	if _, err := saga.Do[EmailInput, struct{}](sg, ActivitySendWelcomeEmail, EmailInput{Email: in.Email, Name: in.Name}); err != nil {
		return f.abandon(sg, typ, MilestoneWelcomeEmailSent, err)
	}
	_ = f.status.Milestone(ctx, in.SubjectID, typ, MilestoneWelcomeEmailSent, status.MilestoneCompleted, "")

	created, err := f.awaitCreation(sg, in, ActivitySendProjectReminderEmail, ActivitySendProjectAbandonedEmail)
	if err != nil {
		return f.abandon(sg, typ, MilestoneProjectCreated, err)
	}
	if created == nil {
		return f.abandon(sg, typ, MilestoneProjectCreated,
			fmt.Errorf("project creation not confirmed after %d attempts", f.cfg.CreatedAttempts))
	}
	if created.ResourceType != "project" {
		return f.abandon(sg, typ, MilestoneProjectCreated,
			fmt.Errorf("creation event resolved to resource type %q, expected project", created.ResourceType))
	}

	if err := sg.SetResource(created.ResourceID, "project"); err != nil {
		return f.abandon(sg, typ, MilestoneProjectCreated, err)
	}
	_ = f.status.SetResource(ctx, in.SubjectID, typ, created.ResourceID, "project")
	_ = f.status.Milestone(ctx, in.SubjectID, typ, MilestoneProjectCreated, status.MilestoneCompleted, "")

	if err := f.awaitInitialization(sg); err != nil {
		return f.abandon(sg, typ, MilestoneProjectInitialized, err)
	}
	_ = f.status.Milestone(ctx, in.SubjectID, typ, MilestoneProjectInitialized, status.MilestoneCompleted, "")

	return f.finish(sg, in, typ, created.ResourceID, "project")
}

// awaitCreation waits for the resource.created event, sending reminder
// mail on each timeout and abandonment mail after the final one. A nil
// ResourceCreated with nil error means the wait was exhausted.
func (f *flows) awaitCreation(sg *saga.Saga, in Input, reminderActivity, abandonedActivity string) (*ResourceCreated, error) {
	policy := saga.RetryPolicy{
		TimeoutPerAttempt: f.cfg.CreatedTimeout,
		MaxAttempts:       f.cfg.CreatedAttempts,
	}
	onTimeout := &saga.SideEffect{
		Activity: reminderActivity,
		Input: func(attempt, maxAttempts int) any {
			return ReminderInput{Email: in.Email, Name: in.Name, Attempt: attempt, MaxAttempts: maxAttempts}
		},
	}
	onExhausted := &saga.SideEffect{
		Activity: abandonedActivity,
		Input: func(_, _ int) any {
			return EmailInput{Email: in.Email, Name: in.Name}
		},
	}

	result, err := sg.AwaitEvent(EventResourceCreated, policy, onTimeout, onExhausted)
	if err != nil {
		return nil, err
	}
	if result.Outcome == saga.WaitAbandoned {
		return nil, nil
	}

	var created ResourceCreated
	if err := json.Unmarshal(result.Payload, &created); err != nil {
		return nil, fmt.Errorf("decode resource.created payload: %w", err)
	}
	return &created, nil
}

// awaitInitialization waits for resource.initialized with no reminder
// or abandonment side effects. Exhaustion aborts the saga.
func (f *flows) awaitInitialization(sg *saga.Saga) error {
	policy := saga.RetryPolicy{
		TimeoutPerAttempt: f.cfg.InitializedTimeout,
		MaxAttempts:       f.cfg.InitializedAttempts,
	}
	result, err := sg.AwaitEvent(EventResourceInitialized, policy, nil, nil)
	if err != nil {
		return err
	}
	if result.Outcome == saga.WaitAbandoned {
		return fmt.Errorf("resource initialization not confirmed after %d attempts", policy.MaxAttempts)
	}
	return nil
}

// finish runs the shared tail of the workspace and project flows.
func (f *flows) finish(sg *saga.Saga, in Input, typ, resourceID, resourceType string) error {
	ctx := sg.Context()

	if _, err := saga.Do[ContentInput, struct{}](sg, ActivitySetupInitialContent, ContentInput{ResourceID: resourceID, ResourceType: resourceType}); err != nil {
		return f.abandon(sg, typ, MilestoneInitialContentReady, err)
	}
	_ = f.status.Milestone(ctx, in.SubjectID, typ, MilestoneInitialContentReady, status.MilestoneCompleted, "")

	if _, err := saga.Do[EmailInput, struct{}](sg, ActivitySendWelcomeResources, EmailInput{Email: in.Email, Name: in.Name}); err != nil {
		return f.abandon(sg, typ, MilestoneWelcomeResourcesSent, err)
	}
	_ = f.status.Milestone(ctx, in.SubjectID, typ, MilestoneWelcomeResourcesSent, status.MilestoneCompleted, "")

	_ = f.status.Complete(ctx, in.SubjectID, typ, "completed", "")
	return nil
}

// abandon records the failed milestone and terminal projection, then
// returns the error so the runner abandons the instance.
func (f *flows) abandon(sg *saga.Saga, typ, milestone string, err error) error {
	ctx := sg.Context()
	subject := sg.Instance().SubjectID
	_ = f.status.Milestone(ctx, subject, typ, milestone, status.MilestoneFailed, err.Error())
	_ = f.status.Complete(ctx, subject, typ, "abandoned", err.Error())
	return err
}
