// Package audit deja rastro de los eventos de seguridad del gatekeeper en
// un logger dedicado ("audit"), suscripto al bus de eventos.
package audit

import (
	"context"

	"go.uber.org/zap"

	"github.com/dropDatabas3/blueprint/internal/messaging"
	"github.com/dropDatabas3/blueprint/internal/observability/logger"
	"github.com/dropDatabas3/blueprint/internal/util"
)

// Auditor escribe un registro por evento.
type Auditor struct {
	log *zap.Logger
}

// New crea un Auditor; con log nil usa logger.Named("audit").
func New(log *zap.Logger) *Auditor {
	if log == nil {
		log = logger.Named("audit")
	}
	return &Auditor{log: log}
}

// Register suscribe el auditor a los tópicos de dominio.
func (a *Auditor) Register(bus *messaging.Bus) {
	bus.Subscribe(messaging.TopicPasswordChanged, a.handle)
	bus.Subscribe(messaging.TopicAccountDeleted, a.handle)
	bus.Subscribe(messaging.TopicCloudTokenRegistered, a.handle)
}

func (a *Auditor) handle(_ context.Context, msg messaging.Message) error {
	fields := []zap.Field{zap.String("event", msg.Topic), zap.Time("ts", msg.At)}
	switch ev := msg.Payload.(type) {
	case messaging.PasswordChanged:
		fields = append(fields, logger.AccountID(ev.AccountID), zap.String("email", util.MaskEmail(ev.Email)))
	case messaging.AccountDeleted:
		fields = append(fields, logger.AccountID(ev.AccountID))
	case messaging.CloudTokenRegistered:
		fields = append(fields, zap.String("device", util.Mask(ev.Device)))
		if ev.Owner != "" {
			fields = append(fields, logger.AccountID(ev.Owner))
		}
	default:
		fields = append(fields, zap.Any("payload", ev))
	}
	a.log.Info("audit", fields...)
	return nil
}
