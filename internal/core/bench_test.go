package core

import (
	"context"
	"fmt"
	"testing"
)

func benchmarkCodeRelay(b *testing.B, recipients int) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(NewRegistry())
	go hub.Run(ctx)

	sender := NewClient("sender")
	hub.RegisterClient(sender)
	sender.Commands <- &Command{Kind: CommandJoinRoom, Room: "bench", Name: "sender"}

	clients := make([]*Client, 0, recipients)
	for i := 0; i < recipients; i++ {
		c := NewClient(fmt.Sprintf("c%d", i))
		hub.RegisterClient(c)
		c.Commands <- &Command{Kind: CommandJoinRoom, Room: "bench", Name: c.ID}
		clients = append(clients, c)
	}

	// Drain events for all but the first recipient to avoid channel backpressure.
	target := clients[0]
	for _, c := range clients[1:] {
		go func(cl *Client) {
			for range cl.Events {
			}
		}(c)
	}
	go func() {
		for range sender.Events {
		}
	}()

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		sender.Commands <- &Command{Kind: CommandCodeChange, Room: "bench", Text: "payload"}
		for {
			if ev := <-target.Events; ev.Kind == EventCodeUpdate {
				break
			}
		}
	}
}

func BenchmarkCodeRelay_10(b *testing.B)  { benchmarkCodeRelay(b, 10) }
func BenchmarkCodeRelay_100(b *testing.B) { benchmarkCodeRelay(b, 100) }
func BenchmarkCodeRelay_500(b *testing.B) { benchmarkCodeRelay(b, 500) }
