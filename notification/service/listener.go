package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	checkoutResponse "github.com/Alturino/storefront/checkout/response"
	"github.com/Alturino/storefront/internal/constants"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/metrics"
	inOtel "github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/notification/internal/otel"
)

type Notifier interface {
	OrderPaid(c context.Context, event checkoutResponse.OrderPaid) error
}

// Listener consumes paid order events from redis and hands each one to a worker.
// Events published while no listener is subscribed are lost.
type Listener struct {
	cache    *redis.Client
	notifier Notifier
	workers  int
}

func NewListener(cache *redis.Client, notifier Notifier, workers int) *Listener {
	if workers < 1 {
		workers = 1
	}
	return &Listener{cache: cache, notifier: notifier, workers: workers}
}

// Run blocks until c is done or the subscription closes. In-flight events are
// finished before it returns.
func (l *Listener) Run(c context.Context) error {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Listener Run").
		Str(log.KeyChannel, constants.ChannelOrderPaid).
		Int(log.KeyWorkers, l.workers).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "subscribing").Logger()
	logger.Info().Msg("subscribing to order paid events")
	pubsub := l.cache.Subscribe(c, constants.ChannelOrderPaid)
	defer pubsub.Close()
	if _, err := pubsub.Receive(c); err != nil {
		err = fmt.Errorf("failed subscribing to channel=%s with error=%w", constants.ChannelOrderPaid, err)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Info().Msg("subscribed to order paid events")

	queue := make(chan *redis.Message)
	wg := sync.WaitGroup{}
	for worker := range l.workers {
		wg.Add(1)
		go l.work(c, worker, queue, &wg)
	}
	defer func() {
		close(queue)
		wg.Wait()
		logger.Info().Msg("stopped workers")
	}()

	logger = logger.With().Str(log.KeyProcess, "listening").Logger()
	messages := pubsub.Channel()
	for {
		select {
		case <-c.Done():
			logger.Info().Msg("context done, stop listening")
			return nil
		case msg, ok := <-messages:
			if !ok {
				logger.Warn().Msg("subscription closed")
				return nil
			}
			select {
			case queue <- msg:
			case <-c.Done():
				return nil
			}
		}
	}
}

func (l *Listener) work(c context.Context, worker int, queue <-chan *redis.Message, wg *sync.WaitGroup) {
	defer wg.Done()
	for msg := range queue {
		l.handle(c, worker, msg)
	}
}

func (l *Listener) handle(c context.Context, worker int, msg *redis.Message) {
	requestID := uuid.NewString()
	c = log.AttachRequestIDToContext(c, requestID)
	c, span := otel.Tracer.Start(c, "Listener handle")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Listener handle").
		Str(log.KeyRequestID, requestID).
		Int(log.KeyWorker, worker).
		Logger()
	c = logger.WithContext(c)

	event := checkoutResponse.OrderPaid{}
	if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil || event.OrderNumber == "" {
		if err == nil {
			err = fmt.Errorf("event carries no order number")
		}
		err = fmt.Errorf("failed decoding order paid event with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Warn().Err(err).Str(log.KeyPayload, msg.Payload).Msg("skipping event")
		metrics.Notifications.WithLabelValues(metrics.ResultSkipped).Inc()
		return
	}

	logger = logger.With().Str(log.KeyOrderNumber, event.OrderNumber).Logger()
	logger.Trace().Msg("notifying order paid")
	if err := l.notifier.OrderPaid(c, event); err != nil {
		err = fmt.Errorf("failed notifying order paid with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		metrics.Notifications.WithLabelValues(metrics.ResultFailure).Inc()
		return
	}
	metrics.Notifications.WithLabelValues(metrics.ResultSuccess).Inc()
	logger.Trace().Msg("notified order paid")
}
