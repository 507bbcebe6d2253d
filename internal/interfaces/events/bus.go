package events

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/components/cqrs"
	"github.com/ThreeDotsLabs/watermill/message"

	"transit/internal/entities"
)

func NewEventBus(
	pub message.Publisher,
	topicPrefix string,
	logger watermill.LoggerAdapter,
) (*cqrs.EventBus, error) {
	return cqrs.NewEventBusWithConfig(
		pub,
		cqrs.EventBusConfig{
			GeneratePublishTopic: func(params cqrs.GenerateEventPublishTopicParams) (string, error) {
				return topicPrefix + params.EventName, nil
			},
			OnPublish: func(params cqrs.OnEventSendParams) error {
				// the bus orders delivery per partition key; settlement
				// events key on the order id
				if ev, ok := params.Event.(entities.Event); ok {
					params.Message.Metadata.Set("partition_key", ev.PartitionKey())
				}
				return nil
			},
			Marshaler: cqrs.JSONMarshaler{
				GenerateName: cqrs.StructName,
			},
			Logger: logger,
		},
	)
}
