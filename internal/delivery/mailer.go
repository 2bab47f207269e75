// Package delivery emails rendered report artifacts to their recipients.
package delivery

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/fitops/reportpipe/internal/config"
	"github.com/fitops/reportpipe/internal/report"
)

// SendRequest carries everything needed for one report delivery.
type SendRequest struct {
	Recipients  []string
	ReportName  string
	ReportType  report.Type
	Format      report.Format
	Artifact    []byte
	DownloadURL string
	GeneratedAt time.Time
}

// SendResult reports a delivery attempt. Precondition failures (no
// transport, no recipients) are structured results, not errors: delivery
// never aborts a pipeline run.
type SendResult struct {
	Success    bool
	Recipients []string
	Error      string
}

// Mailer sends report mail over SMTP.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewMailer builds a mailer from SMTP settings. An unconfigured transport
// yields a mailer whose sends fail soft.
func NewMailer(cfg config.EmailConfig) *Mailer {
	m := &Mailer{from: cfg.From}
	if cfg.Configured() {
		m.dialer = gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	}
	return m
}

// Send emails the artifact to all recipients in one message.
func (m *Mailer) Send(req SendRequest) SendResult {
	if m == nil || m.dialer == nil {
		return SendResult{Success: false, Recipients: req.Recipients, Error: "email transport not configured"}
	}
	if len(req.Recipients) == 0 {
		return SendResult{Success: false, Error: "No recipients specified"}
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", req.Recipients...)
	msg.SetHeader("Subject", subject(req))
	msg.SetBody("text/html", body(req))

	artifact := req.Artifact
	msg.Attach(AttachmentName(req.ReportName, req.Format, req.GeneratedAt),
		gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(artifact)
			return err
		}),
	)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return SendResult{Success: false, Recipients: req.Recipients, Error: err.Error()}
	}

	return SendResult{Success: true, Recipients: req.Recipients}
}

func subject(req SendRequest) string {
	return fmt.Sprintf("Scheduled report: %s (%s)", req.ReportName, req.Format)
}

func body(req SendRequest) string {
	var b bytes.Buffer

	fmt.Fprintf(&b, "<h2>%s</h2>", htmlEscape(req.ReportName))
	fmt.Fprintf(&b, "<p>Your scheduled <strong>%s</strong> report is attached as <strong>%s</strong>.</p>",
		htmlEscape(string(req.ReportType)), htmlEscape(string(req.Format)))
	fmt.Fprintf(&b, "<p>Generated at %s.</p>", req.GeneratedAt.UTC().Format("Jan 2, 2006 15:04 MST"))

	if req.DownloadURL != "" {
		fmt.Fprintf(&b, `<p><a href="%s">Download a copy</a></p>`, req.DownloadURL)
	}

	b.WriteString("<p>This is an automated message; replies are not monitored.</p>")

	return b.String()
}

// AttachmentName builds the filename for the emailed artifact.
func AttachmentName(reportName string, format report.Format, generatedAt time.Time) string {
	return fmt.Sprintf("%s_%s.%s",
		sanitizeFilename(reportName),
		generatedAt.UTC().Format("2006-01-02"),
		format.Extension(),
	)
}

// sanitizeFilename keeps report names safe to use as attachment filenames.
func sanitizeFilename(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "report"
	}
	return b.String()
}

func htmlEscape(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
	return r.Replace(s)
}
