package notify

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"time"

	"github.com/juparave/researchnote/internal/config"
	"github.com/juparave/researchnote/internal/domain"
	"github.com/juparave/researchnote/internal/logger"
	"github.com/juparave/researchnote/internal/report"
	"github.com/juparave/researchnote/internal/retry"
)

const sendTimeout = 30 * time.Second

// Service emails research notes over SMTP
type Service struct {
	config    config.EmailConfig
	logger    *logger.Logger
	formatter *report.Formatter
	policy    retry.Policy
	now       func() time.Time

	// deliver sends one message; replaced in tests
	deliver func(ctx context.Context, addr string, message []byte) error
}

// NewService creates a new notification Service
func NewService(cfg config.EmailConfig, formatter *report.Formatter, policy retry.Policy, log *logger.Logger) *Service {
	s := &Service{
		config:    cfg,
		logger:    log,
		formatter: formatter,
		now:       time.Now,
	}
	s.policy = policy.WithOnRetry(func(err error, wait time.Duration) {
		s.logger.Warnf("Email attempt failed, retrying in %s: %v", wait, err)
	})
	s.deliver = s.sendWithTimeout
	return s
}

// SendReport emails the HTML-rendered note
func (s *Service) SendReport(ctx context.Context, rpt *domain.Report) error {
	htmlBody, err := s.formatter.ToHTML(rpt)
	if err != nil {
		return err
	}

	addr := net.JoinHostPort(s.config.SMTPHost, fmt.Sprint(s.config.SMTPPort))
	message := s.buildMessage(buildSubject(rpt), htmlBody)

	_, err = retry.Do(ctx, s.policy, func() (struct{}, error) {
		return struct{}{}, s.deliver(ctx, addr, message)
	})
	if err != nil {
		return fmt.Errorf("sending email: %w", err)
	}

	s.logger.Infof("Email sent to %s", s.config.ToAddress)
	return nil
}

func buildSubject(rpt *domain.Report) string {
	if !rpt.HasCommits() {
		return fmt.Sprintf("[Research Note] %s - no commits", rpt.NoteDateKST)
	}

	commits := len(rpt.Commits)
	if high := rpt.HighCount(); high > 0 {
		return fmt.Sprintf("[Research Note] %s - %d commits (%d high risk)", rpt.NoteDateKST, commits, high)
	}
	return fmt.Sprintf("[Research Note] %s - %d commits", rpt.NoteDateKST, commits)
}

func (s *Service) buildMessage(subject, htmlBody string) []byte {
	var buf bytes.Buffer
	now := s.now()

	// Headers
	fmt.Fprintf(&buf, "From: %s <%s>\r\n", mime.QEncoding.Encode("UTF-8", s.config.FromName), s.config.FromAddress)
	fmt.Fprintf(&buf, "To: %s\r\n", s.config.ToAddress)
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("UTF-8", subject))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	fmt.Fprintf(&buf, "Date: %s\r\n", now.Format(time.RFC1123Z))
	fmt.Fprintf(&buf, "Message-ID: <%d@%s>\r\n", now.UnixNano(), s.config.SMTPHost)
	buf.WriteString("\r\n")

	// Body
	buf.WriteString(htmlBody)

	return buf.Bytes()
}

func (s *Service) sendWithTimeout(ctx context.Context, addr string, message []byte) error {
	dialer := net.Dialer{Timeout: sendTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("connecting to SMTP server: %w", err)
	}
	defer conn.Close()

	_ = conn.SetDeadline(time.Now().Add(sendTimeout))

	client, err := smtp.NewClient(conn, s.config.SMTPHost)
	if err != nil {
		return fmt.Errorf("creating SMTP client: %w", err)
	}
	defer client.Quit()

	if s.config.SMTPPort == 587 {
		tlsConfig := &tls.Config{ServerName: s.config.SMTPHost}
		if err = client.StartTLS(tlsConfig); err != nil {
			return fmt.Errorf("starting TLS: %w", err)
		}
	}

	if s.config.SMTPUser != "" && s.config.SMTPPassword != "" {
		auth := smtp.PlainAuth("", s.config.SMTPUser, s.config.SMTPPassword, s.config.SMTPHost)
		if err = client.Auth(auth); err != nil {
			return fmt.Errorf("authenticating: %w", err)
		}
	}

	if err = client.Mail(s.config.FromAddress); err != nil {
		return fmt.Errorf("setting sender: %w", err)
	}
	if err = client.Rcpt(s.config.ToAddress); err != nil {
		return fmt.Errorf("setting recipient: %w", err)
	}

	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("getting data writer: %w", err)
	}
	if _, err = writer.Write(message); err != nil {
		return fmt.Errorf("writing message: %w", err)
	}
	return writer.Close()
}
