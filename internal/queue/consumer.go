package queue

import (
    "encoding/json"
    "log"

    amqp "github.com/rabbitmq/amqp091-go"
)

// StartAuditConsumer connects to RabbitMQ and logs every audit event
// delivered on the relay.audit queue. It blocks until the channel is
// closed, so callers run it on its own goroutine. The consumer is a
// convenience sink for deployments without a dedicated audit service;
// events remain in the queue when it is not running.
func StartAuditConsumer(url string) error {
    conn, err := amqp.Dial(url)
    if err != nil {
        log.Printf("rabbitmq: dial failed: %v", err)
        return err
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        log.Printf("rabbitmq: channel open failed: %v", err)
        return err
    }
    defer func() { _ = ch.Close() }()

    if _, err := ch.QueueDeclare(AuditQueueName, true, false, false, false, nil); err != nil {
        log.Printf("rabbitmq: queue declare failed: %v", err)
        return err
    }

    deliveries, err := ch.Consume(AuditQueueName, "", false, false, false, false, nil)
    if err != nil {
        log.Printf("rabbitmq: consume failed: %v", err)
        return err
    }

    log.Printf("audit consumer listening on %s", AuditQueueName)
    for d := range deliveries {
        var ev AuditEvent
        if err := json.Unmarshal(d.Body, &ev); err != nil {
            log.Printf("audit: malformed event: %v", err)
            _ = d.Nack(false, false) // drop, redelivery cannot fix it
            continue
        }
        log.Printf("audit: %s user=%d topic=%d at=%s id=%s",
            ev.Kind, ev.UserID, ev.TopicID, ev.At.Format("2006-01-02T15:04:05Z07:00"), ev.ID)
        _ = d.Ack(false)
    }
    return nil
}
