package notification

import (
	"fmt"
	"net/smtp"

	log "github.com/sirupsen/logrus"

	"github.com/jibbril/setupbot/setup"
)

type Mail struct {
	auth              smtp.Auth
	smtpServerPort    int
	smtpServerAddress string

	to   string
	from string
}

type MailParams struct {
	SMTPServerPort    int
	SMTPServerAddress string

	To       string
	From     string
	Password string
}

func NewMail(params MailParams) Mail {
	return Mail{
		from:              params.From,
		to:                params.To,
		smtpServerPort:    params.SMTPServerPort,
		smtpServerAddress: params.SMTPServerAddress,
		auth: smtp.PlainAuth(
			"",
			params.From,
			params.Password,
			params.SMTPServerAddress,
		),
	}
}

// Notify sends text as the mail body. text may start with a Subject header.
func (t Mail) Notify(text string) {
	serverAddress := fmt.Sprintf("%s:%d", t.smtpServerAddress, t.smtpServerPort)
	message := fmt.Sprintf("To: \"User\" <%s>\r\nFrom: \"SetupBot\" <%s>\r\n%s", t.to, t.from, text)

	err := smtp.SendMail(serverAddress, t.auth, t.from, []string{t.to}, []byte(message))
	if err != nil {
		log.WithError(err).Errorf("notification/mail: couldnt send mail")
	}
}

func (t Mail) OnSetup(s setup.Setup) {
	t.Notify(setupMail(s))
}

func (t Mail) OnError(err error) {
	t.Notify(fmt.Sprintf("Subject: 🛑 ERROR\r\n\r\nError %s", err))
}

func setupMail(s setup.Setup) string {
	return fmt.Sprintf("Subject: %s %s SETUP - %s\r\n\r\n%s", orientationIcon(s), s.Orientation, s.Ticker, s)
}
