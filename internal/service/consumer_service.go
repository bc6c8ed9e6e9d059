package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ai-agent-be/internal/dto"
	"ai-agent-be/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
)

type IConsumerService interface {
	// Consume indexes appended history messages until ctx is done
	Consume(ctx context.Context) error
}

type consumerService struct {
	pubSub    message.Subscriber
	poison    message.Publisher
	topicName string
	indexer   IIndexerService
	logger    logger.ILogger
	wmLogger  watermill.LoggerAdapter
}

func NewConsumerService(
	pubSub message.Subscriber,
	poison message.Publisher,
	topicName string,
	indexer IIndexerService,
	log logger.ILogger,
	wmLogger watermill.LoggerAdapter,
) IConsumerService {
	return &consumerService{
		pubSub:    pubSub,
		poison:    poison,
		topicName: topicName,
		indexer:   indexer,
		logger:    log,
		wmLogger:  wmLogger,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	router, err := message.NewRouter(message.RouterConfig{}, cs.wmLogger)
	if err != nil {
		return fmt.Errorf("create router: %w", err)
	}

	// Messages that still fail after retries are parked, not redelivered forever
	poisonQueue, err := middleware.PoisonQueue(cs.poison, cs.topicName+"_POISON")
	if err != nil {
		return fmt.Errorf("create poison queue: %w", err)
	}
	router.AddMiddleware(
		poisonQueue,
		middleware.Retry{
			MaxRetries:      3,
			InitialInterval: 500 * time.Millisecond,
			Logger:          cs.wmLogger,
		}.Middleware,
		middleware.Recoverer,
	)

	router.AddNoPublisherHandler("index_history", cs.topicName, cs.pubSub, cs.processMessage)

	return router.Run(ctx)
}

func (cs *consumerService) processMessage(msg *message.Message) error {
	var payload dto.HistoryAppendedMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("Consumer", "Failed to unmarshal history message", map[string]interface{}{
			"message_id": msg.UUID,
			"error":      err.Error(),
		})
		// Ack invalid messages to prevent infinite retry
		return nil
	}

	if err := cs.indexer.IndexHistory(msg.Context(), &payload); err != nil {
		cs.logger.Warn("Consumer", "Failed to index history message", map[string]interface{}{
			"dialog_id": payload.DialogId.String(),
			"error":     err.Error(),
		})
		return err
	}

	cs.logger.Debug("Consumer", "History message indexed", map[string]interface{}{
		"dialog_id": payload.DialogId.String(),
		"role":      payload.Role,
	})
	return nil
}
