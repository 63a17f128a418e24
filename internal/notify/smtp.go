package notify

import (
	"context"
	"crypto/tls"
	"fmt"

	mail "github.com/go-mail/mail"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dropDatabas3/stepup/internal/domain/repository"
	"github.com/dropDatabas3/stepup/internal/observability/logger"
	"github.com/dropDatabas3/stepup/internal/util"
)

// Sender es la interfaz para enviar emails. Implementada por SMTPSender.
type Sender interface {
	// Send envía un email multipart/alternative (texto plano + HTML).
	Send(to, subject, htmlBody, textBody string) error
}

// SMTPSender implementa Sender usando SMTP via go-mail.
type SMTPSender struct {
	Host               string
	Port               int
	From               string
	User               string
	Pass               string
	TLSMode            string // "auto" | "starttls" | "ssl" | "none"
	InsecureSkipVerify bool   // solo dev
}

// Send envía un email con contenido HTML y texto plano.
func (s *SMTPSender) Send(to, subject, htmlBody, textBody string) error {
	m := mail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)

	if textBody != "" {
		m.SetBody("text/plain", textBody)
	}
	if htmlBody != "" {
		if textBody == "" {
			m.SetBody("text/html", htmlBody)
		} else {
			m.AddAlternative("text/html", htmlBody)
		}
	}

	d := mail.NewDialer(s.Host, s.Port, s.User, s.Pass)
	d.TLSConfig = &tls.Config{
		ServerName:         s.Host,
		InsecureSkipVerify: s.InsecureSkipVerify,
	}
	switch s.TLSMode {
	case "ssl":
		d.SSL = true
	case "none":
		d.TLSConfig = nil
	case "starttls":
		d.StartTLSPolicy = mail.MandatoryStartTLS
	default:
		// auto: deja que go-mail negocie STARTTLS si el server lo ofrece
		d.StartTLSPolicy = mail.OpportunisticStartTLS
	}

	return d.DialAndSend(m)
}

// EmailNotifier entrega códigos por email resolviendo el destinatario via
// UserDirectory.
type EmailNotifier struct {
	Sender Sender
	Users  repository.UserDirectory

	log *zap.Logger
}

// NewEmailNotifier crea un notifier SMTP.
func NewEmailNotifier(sender Sender, users repository.UserDirectory) *EmailNotifier {
	return &EmailNotifier{
		Sender: sender,
		Users:  users,
		log:    logger.Named("notify"),
	}
}

func (n *EmailNotifier) SendCode(ctx context.Context, userID uuid.UUID, action, code string) error {
	to, err := n.Users.EmailByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("notify: resolve recipient: %w", err)
	}

	subject := "Your verification code"
	text := fmt.Sprintf(
		"Use the code %s to confirm the operation %q.\n\nIf you did not request this, ignore this message.",
		code, action,
	)
	html := fmt.Sprintf(
		`<p>Use the code <strong>%s</strong> to confirm the operation <em>%s</em>.</p><p>If you did not request this, ignore this message.</p>`,
		code, action,
	)

	if err := n.Sender.Send(to, subject, html, text); err != nil {
		return fmt.Errorf("notify: send code: %w", err)
	}
	n.log.Debug("step-up code delivered",
		zap.String("user_id", userID.String()),
		zap.String("to", util.MaskEmail(to)),
		zap.String("action", action),
	)
	return nil
}
