package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"
)

type Mailer struct {
	host string
	port int
	user string
	pass string
	from string
	// If true, skip TLS certificate verification (local dev / MailHog).
	InsecureSkipVerify bool
}

func NewMailer(host string, port int, user, pass, from string) *Mailer {
	return &Mailer{host: host, port: port, user: user, pass: pass, from: from}
}

// send delivers a single HTML mail over net/smtp. Works against MailHog
// (no auth) and ordinary servers (PlainAuth + STARTTLS).
func (m *Mailer) send(ctx context.Context, to, subject, htmlBody string) error {
	headers := map[string]string{
		"From":         m.from,
		"To":           to,
		"Subject":      encodeRFC2047(subject),
		"MIME-Version": "1.0",
		"Content-Type": "text/html; charset=UTF-8",
	}
	var sb strings.Builder
	for k, v := range headers {
		sb.WriteString(k + ": " + v + "\r\n")
	}
	sb.WriteString("\r\n")
	sb.WriteString(htmlBody)

	var auth smtp.Auth
	if m.user != "" {
		auth = smtp.PlainAuth("", m.user, m.pass, m.host)
	}

	dialer := &net.Dialer{Timeout: 5 * time.Second}
	if deadline, ok := ctx.Deadline(); ok {
		dialer.Deadline = deadline
	}
	addr := net.JoinHostPort(m.host, strconv.Itoa(m.port))
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	defer conn.Close()

	c, err := smtp.NewClient(conn, m.host)
	if err != nil {
		return err
	}
	defer func() {
		if err := c.Quit(); err != nil {
			fmt.Printf("smtp client quit error: %v\n", err)
		}
	}()

	if err := c.Hello("localhost"); err != nil {
		return err
	}

	// STARTTLS when offered
	if ok, _ := c.Extension("STARTTLS"); ok {
		cfg := &tls.Config{
			ServerName:         m.host,
			InsecureSkipVerify: m.InsecureSkipVerify,
		}
		if err := c.StartTLS(cfg); err != nil {
			return err
		}
		if err := c.Hello("localhost"); err != nil {
			return err
		}
	}

	if auth != nil {
		if ok, _ := c.Extension("AUTH"); ok {
			if err := c.Auth(auth); err != nil {
				return err
			}
		}
	}

	if err := c.Mail(m.from); err != nil {
		return err
	}
	if err := c.Rcpt(to); err != nil {
		return err
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write([]byte(sb.String())); err != nil {
		return err
	}
	return w.Close()
}

func (m *Mailer) SendResetNotice(ctx context.Context, to, token, displayName string) error {
	body := fmt.Sprintf(
		`<h2>Password reset</h2><p>Hi %s,</p><p>Your reset token: <b>%s</b></p><p>It is valid for 1 hour. If you did not request this, ignore this message.</p>`,
		displayName, token)
	return m.send(ctx, to, "VetConnect password reset", body)
}

func (m *Mailer) SendVerificationNotice(ctx context.Context, to, token, displayName string) error {
	body := fmt.Sprintf(
		`<h2>Confirm your e-mail</h2><p>Hi %s,</p><p>Your verification token: <b>%s</b></p><p>It is valid for 1 hour.</p>`,
		displayName, token)
	return m.send(ctx, to, "VetConnect e-mail verification", body)
}

func (m *Mailer) SendOTPNotice(ctx context.Context, to, code, displayName string) error {
	body := fmt.Sprintf(
		`<h2>Sign-in code</h2><p>Hi %s,</p><p>Your one-time code: <b>%s</b></p><p>It is valid for 10 minutes.</p>`,
		displayName, code)
	return m.send(ctx, to, "VetConnect sign-in code", body)
}

// RFC 2047 subject encoding, Q form.
func encodeRFC2047(s string) string {
	return fmt.Sprintf("=?UTF-8?Q?%s?=", qEncode(s))
}

func qEncode(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == ' ' {
			if c == ' ' {
				b.WriteByte('_')
			} else {
				b.WriteByte(c)
			}
		} else {
			b.WriteString(fmt.Sprintf("=%02X", c))
		}
	}
	return b.String()
}
