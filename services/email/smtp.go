package emailsvc

import (
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/Zakaria-Filali-dev/banat-hawaa-school-sub001/core"
)

type mailDialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type smtpService struct {
	dialer          mailDialer
	from            string
	subjPrefix      string
	frontendBaseURL string
	logger          core.Logger
}

var _ core.EmailService = (*smtpService)(nil)

// NewSMTPService sends the messages through the SMTP relay configured by SMTP_HOST.
func NewSMTPService(conf *core.Config, logger core.Logger) core.EmailService {
	return &smtpService{
		dialer:          gomail.NewDialer(conf.SMTP.Host, conf.SMTP.Port, conf.SMTP.User, conf.SMTP.Password),
		from:            conf.DefaultFromEmail.String(),
		subjPrefix:      "[" + conf.AppName + "] ",
		frontendBaseURL: conf.FrontendBaseURL,
		logger:          logger,
	}
}

func (svc smtpService) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		msg := msg
		go func() {
			if err := svc.sendMessage(msg); err != nil {
				svc.logger.Error(fmt.Sprintf("sending email: %v", err), err)
			}
		}()
	}
}

func (svc smtpService) sendMessage(msg *core.EmailMessage) error {
	if err := msg.Render(svc.frontendBaseURL); err != nil {
		return err
	}
	if !msg.HasRecipients() || !msg.HasContent() {
		return nil
	}
	return svc.dialer.DialAndSend(svc.prepare(*msg))
}

func (svc smtpService) prepare(msg core.EmailMessage) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", svc.from)
	to := make([]string, 0, len(msg.To))
	for _, addr := range msg.To {
		to = append(to, m.FormatAddress(addr.Address, addr.Name))
	}
	m.SetHeader("To", to...)
	m.SetHeader("Subject", svc.subjPrefix+msg.Subject)
	m.SetBody("text/plain", msg.TextContent)
	if msg.HTMLContent != "" {
		m.AddAlternative("text/html", msg.HTMLContent)
	}
	return m
}
