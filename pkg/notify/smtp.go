package notify

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"
)

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPSender emails the reset code.
type SMTPSender struct {
	host     string
	port     int
	user     string
	password string
	from     string
	codeTTL  time.Duration
	sendMail sendMailFunc
}

func NewSMTPSender(host string, port int, user, password, from string, codeTTL time.Duration) *SMTPSender {
	return &SMTPSender{
		host:     host,
		port:     port,
		user:     user,
		password: password,
		from:     from,
		codeTTL:  codeTTL,
		sendMail: smtp.SendMail,
	}
}

func (s *SMTPSender) SendResetCode(ctx context.Context, email, code string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth smtp.Auth
	if s.user != "" {
		auth = smtp.PlainAuth("", s.user, s.password, s.host)
	}

	addr := net.JoinHostPort(s.host, strconv.Itoa(s.port))
	if err := s.sendMail(addr, auth, s.from, []string{email}, resetCodeMessage(s.from, email, code, s.codeTTL)); err != nil {
		return fmt.Errorf("send reset code to %s: %w", email, err)
	}
	return nil
}

func resetCodeMessage(from, to, code string, ttl time.Duration) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	b.WriteString("Subject: Password Reset Code\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n\r\n")
	fmt.Fprintf(&b, "Your password reset code is: %s\r\n\r\n", code)
	fmt.Fprintf(&b, "This code will expire in %s.\r\n", humanDuration(ttl))
	b.WriteString("If you did not request a password reset, please ignore this email.\r\n")
	return []byte(b.String())
}

func humanDuration(d time.Duration) string {
	switch {
	case d >= time.Hour && d%time.Hour == 0:
		if d == time.Hour {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", d/time.Hour)
	case d >= time.Minute:
		return fmt.Sprintf("%d minutes", d/time.Minute)
	default:
		return d.String()
	}
}
