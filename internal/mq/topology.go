package mq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — тип для имени обменника.
type Exchange string

// Queue — тип для имени очереди.
type Queue string

// RoutingKey — тип для ключа маршрутизации.
type RoutingKey string

// Exchanges — имена обменников.
const (
	ExchangeRuns Exchange = "polyglot.runs"
	ExchangeDLQ  Exchange = "polyglot.dlq"
)

// Queues — имена очередей.
const (
	QueueRunSnapshots    Queue = "runs.snapshots"
	QueueDLQRunSnapshots Queue = "dlq.runs.snapshots"
)

// Routing keys.
const (
	RoutingKeySnapshot    RoutingKey = "snapshot"
	RoutingKeyDLQSnapshot RoutingKey = "snapshots"
)

// snapshotTTL — время жизни snapshot в очереди (мс).
// Устаревшие snapshots presenter'у не нужны.
const snapshotTTL = 10 * 60 * 1000

// SetupTopology объявляет exchanges, queues и bindings. Идемпотентна.
func SetupTopology(ctx context.Context, conn *Connection) error {
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		// 1. Создаём exchanges
		if err := declareExchanges(ch); err != nil {
			return err
		}

		// 2. Создаём queues
		if err := declareQueues(ch); err != nil {
			return err
		}

		// 3. Привязываем queues к exchanges
		return bindQueues(ch)
	})
}

// declareExchanges создаёт обменники.
func declareExchanges(ch *amqp.Channel) error {
	for _, name := range []Exchange{ExchangeRuns, ExchangeDLQ} {
		err := ch.ExchangeDeclare(
			string(name), // name
			"direct",     // type
			true,         // durable
			false,        // auto-deleted
			false,        // internal
			false,        // no-wait
			nil,          // arguments
		)
		if err != nil {
			return fmt.Errorf("declare exchange %s: %w", name, err)
		}
	}

	return nil
}

// queueArgs возвращает аргументы очереди snapshots: DLQ и TTL сообщений.
func queueArgs() amqp.Table {
	return amqp.Table{
		"x-dead-letter-exchange":    string(ExchangeDLQ),
		"x-dead-letter-routing-key": string(RoutingKeyDLQSnapshot),
		"x-message-ttl":             int32(snapshotTTL),
	}
}

// declareQueues создаёт очереди.
func declareQueues(ch *amqp.Channel) error {
	queues := []struct {
		name Queue
		args amqp.Table
	}{
		// runs.snapshots — с DLQ (snapshot, который presenter не смог обработать)
		{QueueRunSnapshots, queueArgs()},

		// dlq.runs.snapshots — сама DLQ очередь
		{QueueDLQRunSnapshots, nil},
	}

	for _, q := range queues {
		_, err := ch.QueueDeclare(
			string(q.name), // name
			true,           // durable
			false,          // delete when unused
			false,          // exclusive
			false,          // no-wait
			q.args,         // arguments
		)
		if err != nil {
			return fmt.Errorf("declare queue %s: %w", q.name, err)
		}
	}

	return nil
}

// bindQueues привязывает очереди к обменникам.
func bindQueues(ch *amqp.Channel) error {
	bindings := []struct {
		queue      Queue
		routingKey RoutingKey
		exchange   Exchange
	}{
		{QueueRunSnapshots, RoutingKeySnapshot, ExchangeRuns},
		{QueueDLQRunSnapshots, RoutingKeyDLQSnapshot, ExchangeDLQ},
	}

	for _, b := range bindings {
		err := ch.QueueBind(
			string(b.queue),      // queue name
			string(b.routingKey), // routing key
			string(b.exchange),   // exchange
			false,                // no-wait
			nil,                  // arguments
		)
		if err != nil {
			return fmt.Errorf("bind queue %s to %s: %w", b.queue, b.exchange, err)
		}
	}

	return nil
}

// TopologyInfo возвращает описание топологии для логирования.
func TopologyInfo() string {
	return `
  Polyglot RabbitMQ Topology:

    polyglot.runs (direct)
    └── runs.snapshots [routing: snapshot]
            Producer: Orchestrator (one message per stage transition)
            Consumer: polyglot-presenter
            DLQ: dlq.runs.snapshots

    polyglot.dlq (direct)
    └── dlq.runs.snapshots [routing: snapshots]
            Manual processing
  `
}
