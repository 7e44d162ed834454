package notify

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"
)

// SMTPConfig holds relay settings for outbound alert email.
type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	Sender    string
	Recipient string
}

// Complete reports whether every field required for sending is set.
func (c SMTPConfig) Complete() bool {
	return c.Host != "" && c.Port > 0 && c.Username != "" &&
		c.Password != "" && c.Sender != "" && c.Recipient != ""
}

// SMTPChannel sends alert email through an SMTP relay with STARTTLS.
type SMTPChannel struct {
	cfg         SMTPConfig
	dialTimeout time.Duration
}

// SMTPOption configures the channel.
type SMTPOption func(*SMTPChannel)

// WithDialTimeout overrides the connection timeout.
func WithDialTimeout(timeout time.Duration) SMTPOption {
	return func(ch *SMTPChannel) {
		if timeout > 0 {
			ch.dialTimeout = timeout
		}
	}
}

// NewSMTPChannel constructs an SMTP channel.
func NewSMTPChannel(cfg SMTPConfig, opts ...SMTPOption) (*SMTPChannel, error) {
	if !cfg.Complete() {
		return nil, errors.New("smtp channel: incomplete relay settings")
	}
	channel := &SMTPChannel{
		cfg:         cfg,
		dialTimeout: 20 * time.Second,
	}
	for _, opt := range opts {
		opt(channel)
	}
	return channel, nil
}

// Send delivers one message. The connection honors the context deadline.
func (ch *SMTPChannel) Send(ctx context.Context, subject, body string) error {
	if ch == nil {
		return errors.New("smtp channel: nil channel")
	}
	addr := net.JoinHostPort(ch.cfg.Host, strconv.Itoa(ch.cfg.Port))
	dialer := net.Dialer{Timeout: ch.dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, ch.cfg.Host)
	if err != nil {
		_ = conn.Close()
		return err
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: ch.cfg.Host}); err != nil {
			return err
		}
	}
	auth := smtp.PlainAuth("", ch.cfg.Username, ch.cfg.Password, ch.cfg.Host)
	if ok, _ := client.Extension("AUTH"); ok {
		if err := client.Auth(auth); err != nil {
			return err
		}
	}

	if err := client.Mail(ch.cfg.Sender); err != nil {
		return err
	}
	if err := client.Rcpt(ch.cfg.Recipient); err != nil {
		return err
	}
	writer, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := writer.Write([]byte(buildMessage(ch.cfg.Sender, ch.cfg.Recipient, subject, body))); err != nil {
		_ = writer.Close()
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}
	return client.Quit()
}

func buildMessage(sender, recipient, subject, body string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", sender)
	fmt.Fprintf(&b, "To: %s\r\n", recipient)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	b.WriteString("\r\n")
	return b.String()
}
