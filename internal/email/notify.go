package email

import (
	"bytes"
	"context"
	"fmt"
	htmltpl "html/template"
	texttpl "text/template"

	"github.com/dropDatabas3/blueprint/internal/messaging"
	"github.com/dropDatabas3/blueprint/internal/observability/logger"
	"github.com/dropDatabas3/blueprint/internal/util"
)

const passwordChangedSubject = "Tu contraseña fue cambiada"

var (
	passwordChangedText = texttpl.Must(texttpl.New("pwd.txt").Parse(
		`Hola {{.Username}},

La contraseña de tu cuenta fue cambiada el {{.At.Format "2006-01-02 15:04 MST"}}.
Si no fuiste vos, contactá al administrador.
`))

	passwordChangedHTML = htmltpl.Must(htmltpl.New("pwd.html").Parse(
		`<p>Hola {{.Username}},</p>
<p>La contraseña de tu cuenta fue cambiada el {{.At.Format "2006-01-02 15:04 MST"}}.</p>
<p>Si no fuiste vos, contactá al administrador.</p>
`))
)

// Notifier traduce eventos del bus a emails.
type Notifier struct {
	sender Sender
}

func NewNotifier(sender Sender) *Notifier {
	if sender == nil {
		sender = NoopSender{}
	}
	return &Notifier{sender: sender}
}

// Register suscribe el notifier a los tópicos que generan email.
func (n *Notifier) Register(bus *messaging.Bus) {
	bus.Subscribe(messaging.TopicPasswordChanged, n.onPasswordChanged)
}

func (n *Notifier) onPasswordChanged(ctx context.Context, msg messaging.Message) error {
	ev, ok := msg.Payload.(messaging.PasswordChanged)
	if !ok {
		return fmt.Errorf("email: unexpected payload %T", msg.Payload)
	}
	if ev.Email == "" {
		return nil
	}

	var text, html bytes.Buffer
	if err := passwordChangedText.Execute(&text, ev); err != nil {
		return fmt.Errorf("email: render text: %w", err)
	}
	if err := passwordChangedHTML.Execute(&html, ev); err != nil {
		return fmt.Errorf("email: render html: %w", err)
	}
	logger.From(ctx).Debug("password change notice",
		logger.Component("email"),
		logger.AccountID(ev.AccountID),
		logger.String("to", util.MaskEmail(ev.Email)),
	)
	return n.sender.Send(ctx, ev.Email, passwordChangedSubject, html.String(), text.String())
}
