package rabbitmq

// QueueConfig описывает очередь и ключ маршрутизации, которым она привязана к обменнику.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

const (
	// EmailQueue очередь почтовых уведомлений.
	EmailQueue = "notification.email"
	// EmailRoutingKey ключ маршрутизации почтовых уведомлений.
	EmailRoutingKey = "email"
)

// NotificationQueues возвращает очереди, которые обслуживает notification-sender.
func NotificationQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: EmailQueue, RoutingKey: EmailRoutingKey},
	}
}
