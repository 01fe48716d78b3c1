// Package emailsvc implements core.EmailService.
package emailsvc

import (
	"github.com/Zakaria-Filali-dev/banat-hawaa-school-sub001/core"
)

// New picks the email service from configuration: SendGrid, then SMTP, then the console.
func New(conf *core.Config, logger core.Logger) core.EmailService {
	switch {
	case conf.SendgridApiKey != "":
		return NewSendgridService(conf, logger)
	case conf.SMTP.Host != "":
		return NewSMTPService(conf, logger)
	default:
		return NewConsoleService(conf, logger)
	}
}
