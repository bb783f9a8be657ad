// Package messaging es un bus de eventos in-process. Los módulos publican
// eventos de ciclo de vida (app.init, app.start) y de dominio
// (account.password_changed, cloud-token.registered) y otros se suscriben.
package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dropDatabas3/blueprint/internal/observability/logger"
)

// Tópicos conocidos.
const (
	TopicAppInit              = "app.init"
	TopicAppStart             = "app.start"
	TopicAppShutdown          = "app.shutdown"
	TopicPasswordChanged      = "account.password_changed"
	TopicAccountDeleted       = "account.deleted"
	TopicCloudTokenRegistered = "cloud-token.registered"
)

// Message es un evento publicado.
type Message struct {
	Topic   string
	Payload any
	At      time.Time
}

// Handler procesa un mensaje.
type Handler func(ctx context.Context, msg Message) error

// Bus enruta mensajes por tópico.
type Bus struct {
	mu   sync.RWMutex
	subs map[string][]Handler
	wg   sync.WaitGroup
}

func New() *Bus {
	return &Bus{subs: make(map[string][]Handler)}
}

// Subscribe agrega un handler al tópico. Los handlers corren en orden de alta.
func (b *Bus) Subscribe(topic string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[topic] = append(b.subs[topic], h)
}

func (b *Bus) handlers(topic string) []Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	hs := make([]Handler, len(b.subs[topic]))
	copy(hs, b.subs[topic])
	return hs
}

// Publish entrega el mensaje a todos los handlers y espera. Un handler que
// falla no corta a los siguientes; los errores se retornan unidos.
func (b *Bus) Publish(ctx context.Context, topic string, payload any) error {
	msg := Message{Topic: topic, Payload: payload, At: time.Now().UTC()}

	var errs []error
	for _, h := range b.handlers(topic) {
		if err := safeCall(ctx, h, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Go publica sin esperar (fire-and-forget). El contexto del request puede
// cancelarse sin afectar la entrega; los errores sólo se loguean.
func (b *Bus) Go(ctx context.Context, topic string, payload any) {
	detached := context.WithoutCancel(ctx)
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		if err := b.Publish(detached, topic, payload); err != nil {
			logger.From(detached).Warn("async handler failed",
				logger.Component("messaging"),
				logger.Topic(topic),
				logger.Err(err),
			)
		}
	}()
}

// Wait bloquea hasta que terminen las publicaciones asíncronas en curso.
func (b *Bus) Wait() {
	b.wg.Wait()
}

func safeCall(ctx context.Context, h Handler, msg Message) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("messaging: handler panic on %s: %v", msg.Topic, rec)
		}
	}()
	return h(ctx, msg)
}
