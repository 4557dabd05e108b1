package events

import (
	"context"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"go.uber.org/zap"
)

const publishTimeout = 5 * time.Second

// notifierActor publishes events one at a time, in the order they were sent.
type notifierActor struct {
	publisher Publisher
	logger    *zap.Logger
}

func (a *notifierActor) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *Event:
		pubCtx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := a.publisher.Publish(pubCtx, *msg); err != nil {
			a.logger.Error("Failed to publish event",
				zap.String("type", string(msg.Type)),
				zap.String("order_number", msg.OrderNumber),
				zap.Error(err))
		}

	case *actor.Started:
		a.logger.Info("Notifier actor started")

	case *actor.Stopped:
		a.logger.Info("Notifier actor stopped")
	}
}

// Notifier hands events to a background actor so publishing never blocks the
// request that produced them.
type Notifier struct {
	system *actor.ActorSystem
	pid    *actor.PID
}

func NewNotifier(publisher Publisher, logger *zap.Logger) (*Notifier, error) {
	system := actor.NewActorSystem()

	props := actor.PropsFromProducer(func() actor.Actor {
		return &notifierActor{publisher: publisher, logger: logger.Named("notifier")}
	})
	pid, err := system.Root.SpawnNamed(props, "order-notifier")
	if err != nil {
		return nil, err
	}

	return &Notifier{system: system, pid: pid}, nil
}

func (n *Notifier) Notify(ev Event) {
	n.system.Root.Send(n.pid, &ev)
}

// Close waits until every event sent before it has been published.
func (n *Notifier) Close(ctx context.Context) error {
	done := make(chan error, 1)
	go func() {
		done <- n.system.Root.PoisonFuture(n.pid).Wait()
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
