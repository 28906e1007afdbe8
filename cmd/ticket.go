package cmd

import (
	"club-registration/common/constant"
	commonJetstream "club-registration/common/jetstream"
	"club-registration/inbound/event"
	"context"
	"github.com/nats-io/nats.go/jetstream"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"log"
	"log/slog"
	"time"
)

func runQueueTicketCmd(ctx context.Context) {
	cfg := newCfg("env")

	natsConn := newNats(cfg)
	defer natsConn.Close()

	js := newJs(natsConn)
	commonJetstream.CreateQueueStream(ctx, js)

	st, err := js.Stream(ctx, constant.QueueStreamName)
	if err != nil {
		log.Fatalln("failed to get stream", err)
	}

	ticketEvent := event.TicketEvent{
		Publisher:            js,
		InrCurrencyFormatter: message.NewPrinter(language.English),
		Timeout:              cfg.GetDuration("queue.ticket.timeout"),
	}

	cons, err := st.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		Durable:       "consumer:ticket",
		FilterSubject: constant.TicketWildcard,
		MaxDeliver:    cfg.GetInt("queue.ticket.max_deliver"),
		AckWait:       cfg.GetDuration("queue.ticket.ack_wait"),
	})
	if err != nil {
		log.Fatalln("failed to create consumer", err)
	}

	iter, err := cons.Messages()
	if err != nil {
		panic(err)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			default:
				msg, err := iter.Next()
				if err != nil && err != jetstream.ErrMsgIteratorClosed {
					slog.ErrorContext(ctx, "Error fetching message", slog.Any(constant.LogFieldErr, err))
					continue
				}

				if msg == nil {
					continue
				}

				var eventErr error
				switch msg.Subject() {
				case constant.SubjectTicketIssued:
					eventErr = ticketEvent.IssuedHandler(ctx, msg.Data())
				}

				if eventErr != nil {
					msg.NakWithDelay(1 * time.Second)
					continue
				}

				if err := msg.Ack(); err != nil {
					slog.ErrorContext(ctx, "Error acknowledging message",
						slog.Any(constant.LogFieldErr, err),
						slog.Any(constant.LogFieldPayload, string(msg.Data())),
						slog.String("subject", msg.Subject()),
					)
					continue
				}
			}
		}
	}()

	slog.InfoContext(ctx, "ticket queue consumer started")

	<-ctx.Done()

	iter.Stop()

	slog.InfoContext(ctx, "ticket queue consumer stopped")
}
