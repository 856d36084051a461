package realtime

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Notifier публикует события в фоне. Вызывающий код никогда не ждет доставки
// и не получает ее ошибок: сбой только логируется.
type Notifier struct {
	publisher Publisher
	logger    *logrus.Logger
	timeout   time.Duration
	wg        sync.WaitGroup
}

// NewNotifier создает новый Notifier
func NewNotifier(publisher Publisher, logger *logrus.Logger, timeout time.Duration) *Notifier {
	return &Notifier{
		publisher: publisher,
		logger:    logger,
		timeout:   timeout,
	}
}

// Notify ставит событие на отправку и сразу возвращается
func (n *Notifier) Notify(eventName string, payload any) {
	log := n.logger.WithFields(logrus.Fields{
		"service": "notifier",
		"event":   eventName,
	})

	event, err := NewEvent(eventName, payload)
	if err != nil {
		log.WithError(err).Error("Failed to encode event payload")
		return
	}

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				log.WithField("panic", fmt.Sprint(r)).Error("Event publisher panicked")
			}
		}()

		// Контекст запроса к этому моменту может быть уже отменен
		ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
		defer cancel()

		if err := n.publisher.Publish(ctx, event); err != nil {
			log.WithError(err).Warn("Failed to publish event")
			return
		}
		log.Debug("Event published")
	}()
}

// Wait дожидается отправки уже поставленных событий; вызывается при остановке
func (n *Notifier) Wait() {
	n.wg.Wait()
}
