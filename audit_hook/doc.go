// Package audithook is an onboarding engine extension that bridges
// lifecycle events to an immutable audit trail backend such as Chronicle.
//
// Every saga, event correlation, and status lifecycle hook emits a
// structured audit event through the [Recorder] interface. The extension
// assigns appropriate severity levels (info for normal operations,
// warning for orphaned events and degraded status, critical for
// abandonment) and rich metadata (saga kind, subject, resource, errors).
//
// # Usage with Chronicle
//
//	audithook.New(audithook.RecorderFunc(func(ctx context.Context, evt *audithook.AuditEvent) error {
//	    return chronicle.Info(ctx, evt.Action, evt.Resource, evt.ResourceID).
//	        Category(evt.Category).
//	        Outcome(evt.Outcome).
//	        Record()
//	}))
//
// # Selective filtering
//
//	audithook.New(recorder,
//	    audithook.WithActions(
//	        audithook.ActionSagaAbandoned,
//	        audithook.ActionEventOrphaned,
//	        audithook.ActionStatusDegraded,
//	    ),
//	)
package audithook
