package realtime

import "context"

// Broker 按主题发布/订阅，发出去就不管了：不确认、不重试，跨主题不保证顺序
type Broker interface {
	Publish(ctx context.Context, topic string, ev Event) error
	Subscribe(topic string) *Subscription
}
