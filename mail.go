package reports

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/gogf/gf/v2/os/gtime"
	"gopkg.in/gomail.v2"
)

// MailSink delivers exported reports as mail attachments over SMTP.
// Subject and body are templates, %(report_name)s and %(date)s are
// substituted per delivery.
type MailSink struct {
	dialer  *gomail.Dialer
	from    string
	Subject string
	Body    string
}

func NewMailSink(host string, port int, username, password, from string) *MailSink {
	return &MailSink{
		dialer:  gomail.NewDialer(host, port, username, password),
		from:    from,
		Subject: "Report: %(report_name)s",
		Body:    "<p>Automatically generated report.</p><p>Generated at: <strong>%(date)s</strong></p>",
	}
}

func (s *MailSink) Deliver(ctx context.Context, filename string, content []byte, mimeType string, recipients []string) error {
	if len(recipients) == 0 {
		return fmt.Errorf("mail delivery without recipients")
	}
	reportName := strings.TrimSuffix(filename, "."+filenameExt(filename))

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", recipients...)
	m.SetHeader("Subject", s.expand(s.Subject, reportName))
	m.SetBody("text/html", s.expand(s.Body, reportName))
	m.Attach(filename,
		gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(content)
			return err
		}),
		gomail.SetHeader(map[string][]string{"Content-Type": {mimeType}}),
	)
	return s.dialer.DialAndSend(m)
}

func (s *MailSink) NotifyError(ctx context.Context, reportName string, execErr error, recipients []string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", recipients...)
	m.SetHeader("Subject", fmt.Sprintf("FAILED: %s", reportName))
	m.SetBody("text/html", fmt.Sprintf(
		"<p>Scheduled report failed.</p><p><strong>Report:</strong> %s</p><p><strong>Time:</strong> %s</p><pre>%s</pre>",
		reportName, gtime.Now().Format("d.m.Y H:i"), execErr.Error()))
	return s.dialer.DialAndSend(m)
}

func (s *MailSink) expand(template, reportName string) string {
	out := strings.ReplaceAll(template, "%(report_name)s", reportName)
	out = strings.ReplaceAll(out, "%(date)s", gtime.Now().Format("d.m.Y H:i"))
	return out
}

func filenameExt(filename string) string {
	if i := strings.LastIndex(filename, "."); i >= 0 {
		return filename[i+1:]
	}
	return ""
}
