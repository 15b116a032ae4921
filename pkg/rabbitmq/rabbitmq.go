package rabbitmq

import (
	"context"
	"encoding/json"

	"github.com/streadway/amqp"
)

// 遵循：项目名.业务领域.实体/功能
const QueueUserPurge = "fluxtube.user_purge.queue"

// InitRabbitMQ 初始化RabbitMQ连接
func InitRabbitMQ(url string) (*amqp.Connection, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// DeclareQueue 声明一个持久化队列，有就不用创建（幂等）
func DeclareQueue(conn *amqp.Connection, name string) error {
	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()
	_, err = ch.QueueDeclare(
		name,  // name
		true,  // durable: 服务器重启后队列还在
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,   // args
	)
	return err
}

// Publisher 把任务序列化成JSON投递到指定队列
type Publisher struct {
	conn  *amqp.Connection
	queue string
}

func NewPublisher(conn *amqp.Connection, queue string) (*Publisher, error) {
	if err := DeclareQueue(conn, queue); err != nil {
		return nil, err
	}
	return &Publisher{conn: conn, queue: queue}, nil
}

// Publish 每条消息单独开一个channel，消息之间互不影响，发完即关
func (p *Publisher) Publish(_ context.Context, msg interface{}) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return ch.Publish(
		"",      // exchange默认交换机
		p.queue, // routing key
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent, // 确保消息持久化
		})
}
