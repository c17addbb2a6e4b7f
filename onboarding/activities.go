package onboarding

import (
	"context"
	"fmt"

	"github.com/xraph/onboard/access"
	"github.com/xraph/onboard/activity"
	"github.com/xraph/onboard/mail"
)

// Activity names used by the onboarding flows.
const (
	ActivitySendWelcomeEmail          = "send-welcome-email"
	ActivitySendReminderEmail         = "send-reminder-email"
	ActivitySendAbandonedEmail        = "send-abandoned-email"
	ActivitySendProjectReminderEmail  = "send-project-reminder-email"
	ActivitySendProjectAbandonedEmail = "send-project-abandoned-email"
	ActivityGrantWorkspaceAccess      = "grant-workspace-access"
	ActivityGrantProjectAccess        = "grant-project-access"
	ActivitySendWelcomeResources      = "send-welcome-resources"
	ActivitySetupInitialContent       = "setup-initial-content"
)

// EmailInput is the payload of the plain notification activities.
type EmailInput struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// ReminderInput extends EmailInput with retry progress, included in
// the reminder copy.
type ReminderInput struct {
	Email       string `json:"email"`
	Name        string `json:"name,omitempty"`
	Attempt     int    `json:"attempt"`
	MaxAttempts int    `json:"maxAttempts"`
}

// GrantInput is the payload of the access-grant activities.
type GrantInput struct {
	SubjectID    string `json:"subjectId"`
	ResourceID   string `json:"resourceId"`
	MembershipID string `json:"membershipId,omitempty"`
}

// ContentInput is the payload of the initial-content activity.
type ContentInput struct {
	ResourceID   string `json:"resourceId"`
	ResourceType string `json:"resourceType"`
}

// ContentInitializer seeds a freshly created resource with starter
// content. Implemented by the host platform; NopContent is the default.
type ContentInitializer interface {
	Setup(ctx context.Context, resourceID, resourceType string) error
}

// NopContent is a ContentInitializer that does nothing.
type NopContent struct{}

func (NopContent) Setup(context.Context, string, string) error { return nil }

// displayName falls back to the email address when no name is known.
func displayName(name, email string) string {
	if name != "" {
		return name
	}
	return email
}

// RegisterActivities registers every onboarding activity against the
// given registry, bound to the injected collaborators.
func RegisterActivities(reg *activity.Registry, sender mail.Sender, granter access.Granter, content ContentInitializer) {
	activity.Register(reg, activity.NewActivity(ActivitySendWelcomeEmail,
		func(ctx context.Context, in EmailInput) (struct{}, error) {
			return struct{}{}, sender.Send(ctx, &mail.Message{
				To:      in.Email,
				Subject: "Welcome aboard",
				Text:    fmt.Sprintf("Hi %s, your account is ready. Create your first workspace to get started.", displayName(in.Name, in.Email)),
			})
		}))

	activity.Register(reg, activity.NewActivity(ActivitySendReminderEmail,
		func(ctx context.Context, in ReminderInput) (struct{}, error) {
			return struct{}{}, sender.Send(ctx, &mail.Message{
				To:      in.Email,
				Subject: "Still there? Your workspace is waiting",
				Text: fmt.Sprintf("Hi %s, you haven't created a workspace yet (reminder %d of %d).",
					displayName(in.Name, in.Email), in.Attempt, in.MaxAttempts-1),
			})
		}))

	activity.Register(reg, activity.NewActivity(ActivitySendAbandonedEmail,
		func(ctx context.Context, in EmailInput) (struct{}, error) {
			return struct{}{}, sender.Send(ctx, &mail.Message{
				To:      in.Email,
				Subject: "Your onboarding has expired",
				Text:    fmt.Sprintf("Hi %s, we've paused your workspace setup. Come back anytime to restart it.", displayName(in.Name, in.Email)),
			})
		}))

	activity.Register(reg, activity.NewActivity(ActivitySendProjectReminderEmail,
		func(ctx context.Context, in ReminderInput) (struct{}, error) {
			return struct{}{}, sender.Send(ctx, &mail.Message{
				To:      in.Email,
				Subject: "Your project setup is waiting",
				Text: fmt.Sprintf("Hi %s, your project hasn't been created yet (reminder %d of %d).",
					displayName(in.Name, in.Email), in.Attempt, in.MaxAttempts-1),
			})
		}))

	activity.Register(reg, activity.NewActivity(ActivitySendProjectAbandonedEmail,
		func(ctx context.Context, in EmailInput) (struct{}, error) {
			return struct{}{}, sender.Send(ctx, &mail.Message{
				To:      in.Email,
				Subject: "Your project setup has expired",
				Text:    fmt.Sprintf("Hi %s, we've paused your project setup. Come back anytime to restart it.", displayName(in.Name, in.Email)),
			})
		}))

	activity.Register(reg, activity.NewActivity(ActivityGrantWorkspaceAccess,
		func(ctx context.Context, in GrantInput) (struct{}, error) {
			return struct{}{}, granter.Grant(ctx, &access.Grant{
				SubjectID:    in.SubjectID,
				ResourceID:   in.ResourceID,
				ResourceType: "workspace",
				MembershipID: in.MembershipID,
			})
		}))

	activity.Register(reg, activity.NewActivity(ActivityGrantProjectAccess,
		func(ctx context.Context, in GrantInput) (struct{}, error) {
			return struct{}{}, granter.Grant(ctx, &access.Grant{
				SubjectID:    in.SubjectID,
				ResourceID:   in.ResourceID,
				ResourceType: "project",
				MembershipID: in.MembershipID,
			})
		}))

	activity.Register(reg, activity.NewActivity(ActivitySendWelcomeResources,
		func(ctx context.Context, in EmailInput) (struct{}, error) {
			return struct{}{}, sender.Send(ctx, &mail.Message{
				To:      in.Email,
				Subject: "Getting started resources",
				Text:    fmt.Sprintf("Hi %s, here are guides and templates to help you get the most out of the platform.", displayName(in.Name, in.Email)),
			})
		}))

	activity.Register(reg, activity.NewActivity(ActivitySetupInitialContent,
		func(ctx context.Context, in ContentInput) (struct{}, error) {
			return struct{}{}, content.Setup(ctx, in.ResourceID, in.ResourceType)
		}))
}
