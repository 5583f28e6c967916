// internal/email/mailer/subuser_invite.go
package mailer

import "github.com/parleyhq/parley/internal/email"

// InviteTemplateData contains data for the sub-user invite template
type InviteTemplateData struct {
	FirstName    string
	BusinessName string
	LoginLink    string
}

// SendSubuserInvite notifies a newly created sub-user that an account was
// opened for them and where to sign in.
func SendSubuserInvite(s *email.Service, to, firstName, businessName, loginLink string) error {
	templateData := InviteTemplateData{
		FirstName:    firstName,
		BusinessName: businessName,
		LoginLink:    loginLink,
	}

	emailData := email.EmailData{
		To:           to,
		FromName:     "Parley",
		Subject:      "You've been added to " + businessName + " on Parley",
		TemplateName: "subuser_invite",
		TemplateData: templateData,
	}

	return s.SendEmail(emailData)
}
