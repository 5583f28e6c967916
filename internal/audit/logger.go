// internal/audit/logger.go

// Package audit records membership mutations. The trail is observational:
// recording failures must never fail the operation being recorded.
package audit

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/parleyhq/parley/internal/perm"
)

// Logger defines the interface for auditing membership operations.
type Logger interface {
	// SignedUp records a new organization signup.
	SignedUp(ctx context.Context, userID uuid.UUID, email string)

	// MemberAdded records a sub-user joining an organization.
	MemberAdded(ctx context.Context, orgID, actorID, memberID uuid.UUID, email string)

	// MemberRemoved records a sub-user being removed from an organization.
	MemberRemoved(ctx context.Context, orgID, actorID, memberID uuid.UUID, email string)

	// PermissionToggled records a permission-bit flip and the resulting mask.
	PermissionToggled(ctx context.Context, actorID, targetID uuid.UUID, bit, result perm.Mask)

	// OrganizationUpdated records an organization profile or plan change.
	OrganizationUpdated(ctx context.Context, orgID, actorID uuid.UUID, subscription string)
}

// SlogLogger writes audit events through a structured logger.
type SlogLogger struct {
	log *slog.Logger
}

func NewSlogLogger(log *slog.Logger) *SlogLogger {
	return &SlogLogger{log: log.With("component", "audit")}
}

func (l *SlogLogger) SignedUp(ctx context.Context, userID uuid.UUID, email string) {
	l.log.InfoContext(ctx, "organization signed up", "userID", userID, "email", email)
}

func (l *SlogLogger) MemberAdded(ctx context.Context, orgID, actorID, memberID uuid.UUID, email string) {
	l.log.InfoContext(ctx, "member added",
		"orgID", orgID, "actorID", actorID, "memberID", memberID, "email", email)
}

func (l *SlogLogger) MemberRemoved(ctx context.Context, orgID, actorID, memberID uuid.UUID, email string) {
	l.log.InfoContext(ctx, "member removed",
		"orgID", orgID, "actorID", actorID, "memberID", memberID, "email", email)
}

func (l *SlogLogger) PermissionToggled(ctx context.Context, actorID, targetID uuid.UUID, bit, result perm.Mask) {
	l.log.InfoContext(ctx, "permission toggled",
		"actorID", actorID, "targetID", targetID, "bit", uint32(bit), "result", uint32(result))
}

func (l *SlogLogger) OrganizationUpdated(ctx context.Context, orgID, actorID uuid.UUID, subscription string) {
	l.log.InfoContext(ctx, "organization updated",
		"orgID", orgID, "actorID", actorID, "subscription", subscription)
}

// Nop discards all audit events. Used in tests.
type Nop struct{}

func (Nop) SignedUp(context.Context, uuid.UUID, string)                          {}
func (Nop) MemberAdded(context.Context, uuid.UUID, uuid.UUID, uuid.UUID, string) {}
func (Nop) MemberRemoved(context.Context, uuid.UUID, uuid.UUID, uuid.UUID, string) {
}
func (Nop) PermissionToggled(context.Context, uuid.UUID, uuid.UUID, perm.Mask, perm.Mask) {}
func (Nop) OrganizationUpdated(context.Context, uuid.UUID, uuid.UUID, string)             {}
