// Command audit tails the session event stream written by the console.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"ai-oneshot-console/pkg/events"
	pktNats "ai-oneshot-console/pkg/nats"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	natsURL := flag.String("nats", os.Getenv("NATS_URL"), "NATS server URL")
	sessionID := flag.String("session", "", "only show events of this session")
	eventType := flag.String("type", "", "only show events of this type (e.g. ANSWER_FAILED)")
	durable := flag.String("durable", "", "durable consumer name; empty replays the whole stream")
	flag.Parse()

	if *natsURL == "" {
		log.Fatal("NATS URL is required (-nats or NATS_URL)")
	}

	subject := pktNats.SubjectPrefix + ".>"
	if *eventType != "" {
		subject = pktNats.SubjectPrefix + "." + *eventType
	}

	sub, err := pktNats.NewSubscriber(*natsURL)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer sub.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cc, err := sub.Subscribe(ctx, subject, *durable, func(ctx context.Context, evt events.BaseEvent) error {
		if *sessionID != "" && evt.SessionID != *sessionID {
			return nil
		}
		printEvent(evt)
		return nil
	})
	if err != nil {
		log.Fatalf("Failed to subscribe: %v", err)
	}
	defer cc.Stop()

	color.Cyan("Tailing %s on stream %s (Ctrl+C to stop)", subject, pktNats.StreamName)
	<-ctx.Done()
}

func printEvent(evt events.BaseEvent) {
	ts := evt.OccurredAt.Format("15:04:05.000")
	switch evt.Type {
	case events.TypeAnswerFailed, events.TypeStaleAnswerDrop:
		color.Red("%s %-22s %s", ts, evt.Type, evt.SessionID)
	case events.TypeAnswerReceived:
		color.Green("%s %-22s %s", ts, evt.Type, evt.SessionID)
	default:
		color.Yellow("%s %-22s %s", ts, evt.Type, evt.SessionID)
	}

	details := make(map[string]interface{}, len(evt.Data))
	for k, v := range evt.Data {
		if k != "session_id" {
			details[k] = v
		}
	}
	if len(details) > 0 {
		out, _ := json.Marshal(details)
		fmt.Printf("    %s\n", out)
	}
}
