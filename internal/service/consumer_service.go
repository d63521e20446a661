package service

import (
	"context"
	"encoding/json"
	"log"

	"signaware-be/internal/dto"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService drains the analysis job queue and runs each job through
// the document service.
type consumerService struct {
	pubSub          *gochannel.GoChannel
	topicName       string
	documentService IDocumentService
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	documentService IDocumentService,
) IConsumerService {
	return &consumerService{
		pubSub:          pubSub,
		topicName:       topicName,
		documentService: documentService,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.AnalyzeDocumentMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Printf("[ERROR] Failed to unmarshal analysis job: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	log.Printf("[INFO] Processing analysis for document %s (masked=%v)", payload.DocumentId, payload.UseMaskedContent)

	if err := cs.documentService.RunAnalysis(ctx, payload.DocumentId, payload.UseMaskedContent); err != nil {
		// RunAnalysis records the failure on the document itself, so the
		// job is done either way.
		log.Printf("[ERROR] Analysis for document %s failed: %v", payload.DocumentId, err)
	}
	msg.Ack()
}
