package flags

import (
	"os"

	"github.com/spf13/pflag"

	"github.com/nyaysahay/nyaysahay/pkg/mail"
)

// MailFlags configures the incident notification sender.
type MailFlags struct {
	Host            string
	Port            int
	From            string
	AuthoritiesAddr string
}

func NewMailFlags() *MailFlags {
	return &MailFlags{
		Host: os.Getenv("EMAIL_HOST"),
		Port: 587,
	}
}

func (f *MailFlags) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&f.Host, "mail-host", f.Host, "SMTP host for incident notifications")
	fs.IntVar(&f.Port, "mail-port", f.Port, "SMTP port")
	fs.StringVar(&f.From, "mail-from", f.From, "From address for incident notifications")
	fs.StringVar(&f.AuthoritiesAddr, "mail-authorities", f.AuthoritiesAddr, "Address incident reports are forwarded to")
}

// Sender merges flags with the credential environment variables.
func (f *MailFlags) Sender() *mail.Sender {
	return &mail.Sender{
		Host:            f.Host,
		Port:            f.Port,
		Username:        os.Getenv("EMAIL_USER"),
		Password:        os.Getenv("EMAIL_PASS"),
		From:            f.From,
		AuthoritiesAddr: f.AuthoritiesAddr,
	}
}
