// internal/service/membership.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/parleyhq/parley/internal/audit"
	"github.com/parleyhq/parley/internal/auth"
	"github.com/parleyhq/parley/internal/config"
	"github.com/parleyhq/parley/internal/domain"
	"github.com/parleyhq/parley/internal/email"
	"github.com/parleyhq/parley/internal/email/mailer"
	"github.com/parleyhq/parley/internal/model"
	"github.com/parleyhq/parley/internal/perm"
	"github.com/parleyhq/parley/internal/repository"
)

// DefaultMemberPermissions is the mask assigned to a sub-user when the
// caller supplies none.
const DefaultMemberPermissions = perm.ReadConversations

// OrgResolutionCache is the slice of the identity resolver the membership
// service needs: dropping a cached user→org mapping once it is retired.
type OrgResolutionCache interface {
	Invalidate(userID uuid.UUID)
}

// MembershipService enforces organization seat limits, admin protection and
// cross-org isolation for membership-changing operations, and owns the
// permission check/toggle operations.
type MembershipService struct {
	users        repository.UserRepositoryIface
	orgs         repository.OrganizationRepositoryIface
	provider     auth.Provider
	emailService *email.Service
	auditLog     audit.Logger
	orgCache     OrgResolutionCache
	config       *config.Config
	validate     *validator.Validate
}

func NewMembershipService(
	users repository.UserRepositoryIface,
	orgs repository.OrganizationRepositoryIface,
	provider auth.Provider,
	emailService *email.Service,
	auditLog audit.Logger,
	orgCache OrgResolutionCache,
	config *config.Config,
) *MembershipService {
	if auditLog == nil {
		auditLog = audit.Nop{}
	}
	return &MembershipService{
		users:        users,
		orgs:         orgs,
		provider:     provider,
		emailService: emailService,
		auditLog:     auditLog,
		orgCache:     orgCache,
		config:       config,
		validate:     validator.New(),
	}
}

type SignupInput struct {
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required,min=8"`
	FirstName    string `json:"firstname" validate:"required"`
	LastName     string `json:"lastname"`
	BusinessName string `json:"business_name" validate:"required"`
	Subscription string `json:"subscription" validate:"required"`
}

type SignupOutput struct {
	User         *model.User         `json:"user"`
	Organization *model.Organization `json:"organization"`
	Token        string              `json:"token"`
}

// Signup registers a new organization: one identity, one organization whose
// id is the founder's user id, and one admin user record. The three writes
// span the identity provider and the datastore, so each committed step
// pushes its reversal and any later failure unwinds the earlier ones.
func (s *MembershipService) Signup(ctx context.Context, input SignupInput) (*SignupOutput, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	if _, err := s.provider.FindByEmail(ctx, input.Email); err == nil {
		return nil, domain.ErrEmailAlreadyExists
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderFailure, err)
	}

	// The signup path refuses unknown plans outright.
	maxSeats, err := MaxUsersForPlan(input.Subscription)
	if err != nil {
		return nil, err
	}

	var comp compensator

	userID, err := s.provider.CreateIdentity(ctx, input.Email, input.Password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderFailure, err)
	}
	comp.push("delete identity", func(ctx context.Context) error {
		return s.provider.DeleteIdentity(ctx, userID)
	})

	org := &model.Organization{
		OrgID:         userID,
		BusinessName:  input.BusinessName,
		Subscription:  input.Subscription,
		NumberOfUsers: 1,
		MaxUsers:      maxSeats,
	}
	if err := s.orgs.Create(ctx, org); err != nil {
		comp.run(ctx)
		return nil, fmt.Errorf("creating organization: %w", err)
	}
	comp.push("delete organization", func(ctx context.Context) error {
		return s.orgs.Delete(ctx, org.OrgID)
	})

	user := &model.User{
		UserID:      userID,
		OrgID:       userID,
		Email:       input.Email,
		FirstName:   input.FirstName,
		LastName:    input.LastName,
		Permissions: perm.Admin,
	}
	if err := s.users.Create(ctx, user); err != nil {
		comp.run(ctx)
		return nil, fmt.Errorf("creating user: %w", err)
	}
	comp.push("delete user", func(ctx context.Context) error {
		return s.users.Delete(ctx, user.UserID)
	})

	token, err := s.provider.Authenticate(ctx, input.Email, input.Password)
	if err != nil {
		comp.run(ctx)
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderFailure, err)
	}

	s.auditLog.SignedUp(ctx, userID, input.Email)

	return &SignupOutput{
		User:         user,
		Organization: org,
		Token:        token,
	}, nil
}

type AddMemberInput struct {
	FirstName   string  `json:"firstname" validate:"required"`
	LastName    string  `json:"lastname"`
	Email       string  `json:"email" validate:"required,email"`
	Password    string  `json:"password" validate:"required,min=8"`
	Permissions *uint32 `json:"permissions"`
}

// AddMember creates a sub-user in the acting user's organization. The seat
// check and increment are one conditional update, so two concurrent adds
// against the last free seat cannot both succeed. On any later failure the
// claimed seat and the created identity are compensated away.
func (s *MembershipService) AddMember(ctx context.Context, ident auth.Identity, input AddMemberInput) (*model.User, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	if _, err := s.provider.FindByEmail(ctx, input.Email); err == nil {
		return nil, domain.ErrEmailAlreadyExists
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderFailure, err)
	}

	var comp compensator

	memberID, err := s.provider.CreateIdentity(ctx, input.Email, input.Password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderFailure, err)
	}
	comp.push("delete identity", func(ctx context.Context) error {
		return s.provider.DeleteIdentity(ctx, memberID)
	})

	if err := s.orgs.AddSeat(ctx, ident.EffectiveOrgID); err != nil {
		comp.run(ctx)
		return nil, err
	}
	comp.push("release seat", func(ctx context.Context) error {
		return s.orgs.ReleaseSeat(ctx, ident.EffectiveOrgID)
	})

	permissions := DefaultMemberPermissions
	if input.Permissions != nil {
		permissions = perm.Mask(*input.Permissions)
	}

	user := &model.User{
		UserID:      memberID,
		OrgID:       ident.EffectiveOrgID,
		Email:       input.Email,
		FirstName:   input.FirstName,
		LastName:    input.LastName,
		Permissions: permissions,
	}
	if err := s.users.Create(ctx, user); err != nil {
		comp.run(ctx)
		return nil, fmt.Errorf("creating user: %w", err)
	}

	s.sendInvite(ctx, ident.EffectiveOrgID, user)
	s.auditLog.MemberAdded(ctx, ident.EffectiveOrgID, ident.UserID, memberID, input.Email)

	return user, nil
}

// sendInvite mails the new member a sign-in link. Best-effort: the member
// already exists, so a mail failure is logged and swallowed.
func (s *MembershipService) sendInvite(ctx context.Context, orgID uuid.UUID, user *model.User) {
	if s.emailService == nil {
		return
	}

	businessName := "your organization"
	if org, err := s.orgs.FindByID(ctx, orgID); err == nil {
		businessName = org.BusinessName
	}

	loginLink := s.config.BaseURL + "/login"
	if err := mailer.SendSubuserInvite(s.emailService, user.Email, user.FirstName, businessName, loginLink); err != nil {
		slog.ErrorContext(ctx, "sending invite email", "error", err, "email", user.Email)
	}
}

// RemoveMember deletes a sub-user from the acting user's organization. The
// founding admin (the user whose id is the org id) can never be removed,
// and neither can members of other organizations. A failure to release the
// seat after the member is gone is logged but does not fail the request;
// the removal already succeeded from the caller's perspective and the
// count drift is recoverable.
func (s *MembershipService) RemoveMember(ctx context.Context, ident auth.Identity, targetEmail string) error {
	if targetEmail == "" {
		return fmt.Errorf("%w: email is required", domain.ErrInvalidInput)
	}

	target, err := s.users.FindByEmail(ctx, targetEmail)
	if err != nil {
		return err
	}

	if target.OrgID != ident.EffectiveOrgID {
		return domain.ErrCrossOrgForbidden
	}
	if target.UserID == ident.EffectiveOrgID {
		return domain.ErrCannotDeleteAdmin
	}

	if err := s.provider.DeleteIdentity(ctx, target.UserID); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrProviderFailure, err)
	}

	if err := s.users.Delete(ctx, target.UserID); err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}

	if err := s.orgs.ReleaseSeat(ctx, ident.EffectiveOrgID); err != nil {
		slog.ErrorContext(ctx, "releasing seat after member removal",
			"error", err, "orgID", ident.EffectiveOrgID, "memberID", target.UserID)
	}

	if s.orgCache != nil {
		s.orgCache.Invalidate(target.UserID)
	}
	s.auditLog.MemberRemoved(ctx, ident.EffectiveOrgID, ident.UserID, target.UserID, targetEmail)

	return nil
}

// CheckPermission reports whether the user registered under email holds the
// required permission. required must be one recognized single bit; the
// stored mask may be any union and the admin bit satisfies everything.
func (s *MembershipService) CheckPermission(ctx context.Context, targetEmail string, required uint32) (bool, error) {
	mask := perm.Mask(required)
	if !perm.IsValid(mask) {
		return false, domain.ErrInvalidPermission
	}

	user, err := s.users.FindByEmail(ctx, targetEmail)
	if err != nil {
		return false, err
	}

	return perm.Check(user.Permissions, mask), nil
}

// SetPermission toggles exactly one recognized bit on the user registered
// under email and returns the updated record.
func (s *MembershipService) SetPermission(ctx context.Context, ident auth.Identity, targetEmail string, bit uint32) (*model.User, error) {
	mask := perm.Mask(bit)
	if !perm.IsValid(mask) {
		return nil, domain.ErrInvalidPermission
	}

	user, err := s.users.FindByEmail(ctx, targetEmail)
	if err != nil {
		return nil, err
	}

	user.Permissions = perm.Toggle(user.Permissions, mask)
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("updating user: %w", err)
	}

	s.auditLog.PermissionToggled(ctx, ident.UserID, user.UserID, mask, user.Permissions)

	return user, nil
}

// Organization returns the acting user's organization record.
func (s *MembershipService) Organization(ctx context.Context, ident auth.Identity) (*model.Organization, error) {
	return s.orgs.FindByID(ctx, ident.EffectiveOrgID)
}

type UpdateOrganizationInput struct {
	BusinessName string `json:"business_name"`
	Subscription string `json:"subscription"`
}

// UpdateOrganization changes the organization profile. A plan change
// recomputes the seat capacity; unlike signup, an unrecognized plan here
// falls back to the smallest capacity instead of failing.
func (s *MembershipService) UpdateOrganization(ctx context.Context, ident auth.Identity, input UpdateOrganizationInput) (*model.Organization, error) {
	org, err := s.orgs.FindByID(ctx, ident.EffectiveOrgID)
	if err != nil {
		return nil, err
	}

	if input.BusinessName != "" {
		org.BusinessName = input.BusinessName
	}
	if input.Subscription != "" {
		org.Subscription = input.Subscription
		org.MaxUsers = MaxUsersForPlanOrDefault(input.Subscription)
	}

	if err := s.orgs.Update(ctx, org); err != nil {
		return nil, err
	}

	s.auditLog.OrganizationUpdated(ctx, org.OrgID, ident.UserID, org.Subscription)

	return org, nil
}

// Members lists the acting user's organization members.
func (s *MembershipService) Members(ctx context.Context, ident auth.Identity) ([]*model.User, error) {
	return s.users.FindByOrganization(ctx, ident.EffectiveOrgID)
}
