package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/OlharAngolano/MB.olharAngolano/internal/chatclient"
	"github.com/OlharAngolano/MB.olharAngolano/internal/event"
)

var (
	serverURL    = flag.String("url", "ws://localhost:8090/ws", "websocket endpoint")
	numPairs     = flag.Int("pairs", 50, "number of chatting user pairs")
	duration     = flag.Duration("duration", 30*time.Second, "simulation length")
	sendInterval = flag.Duration("interval", time.Second, "delay between messages per sender")
)

type stats struct {
	sync.Mutex
	sent      int64
	received  int64
	latencies []time.Duration
}

func (s *stats) recordSent() {
	s.Lock()
	s.sent++
	s.Unlock()
}

func (s *stats) recordReceived(serverTS string) {
	now := time.Now().UTC()
	s.Lock()
	s.received++
	if ts, err := time.Parse(time.RFC3339, serverTS); err == nil {
		s.latencies = append(s.latencies, now.Sub(ts))
	}
	s.Unlock()
}

func (s *stats) report(elapsed time.Duration) {
	s.Lock()
	defer s.Unlock()

	fmt.Printf("sent:     %d (%.1f/s)\n", s.sent, float64(s.sent)/elapsed.Seconds())
	fmt.Printf("received: %d\n", s.received)

	if len(s.latencies) == 0 {
		return
	}

	sort.Slice(s.latencies, func(i, j int) bool { return s.latencies[i] < s.latencies[j] })
	var total time.Duration
	for _, l := range s.latencies {
		total += l
	}

	p99 := s.latencies[len(s.latencies)*99/100]
	fmt.Printf("latency:  avg=%v p99=%v max=%v\n",
		total/time.Duration(len(s.latencies)), p99, s.latencies[len(s.latencies)-1])
}

// runPair drives one two-party conversation: both users connect, join the
// same room, and one floods messages while the other counts receipts.
func runPair(ctx context.Context, pairID int, st *stats, wg *sync.WaitGroup) {
	defer wg.Done()

	conversationID := fmt.Sprintf("loadtest-conv-%d", pairID)
	senderID := fmt.Sprintf("loadtest-user-%d-a", pairID)
	receiverID := fmt.Sprintf("loadtest-user-%d-b", pairID)

	sender := chatclient.New(chatclient.Options{URL: *serverURL, UserID: senderID})
	receiver := chatclient.New(chatclient.Options{URL: *serverURL, UserID: receiverID})

	receiver.OnNewMessage(func(p event.NewMessagePayload) {
		st.recordReceived(p.Timestamp)
	})

	if err := sender.Connect(ctx); err != nil {
		log.Printf("pair %d: sender connect failed: %v", pairID, err)
		return
	}
	defer sender.Close()

	if err := receiver.Connect(ctx); err != nil {
		log.Printf("pair %d: receiver connect failed: %v", pairID, err)
		return
	}
	defer receiver.Close()

	sender.JoinConversation(conversationID)
	receiver.JoinConversation(conversationID)

	// Stagger senders so the load is not one synchronized burst.
	jitter := time.Duration(rand.Int63n(int64(*sendInterval)))
	select {
	case <-ctx.Done():
		return
	case <-time.After(jitter):
	}

	ticker := time.NewTicker(*sendInterval)
	defer ticker.Stop()

	n := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n++
			sender.SendTypingStatus(conversationID, true)
			sender.SendMessage(conversationID, fmt.Sprintf("message %d from pair %d", n, pairID), receiverID)
			sender.SendTypingStatus(conversationID, false)
			st.recordSent()
		}
	}
}

func main() {
	flag.Parse()

	log.Printf("starting load test: %d pairs against %s for %v", *numPairs, *serverURL, *duration)

	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	st := &stats{}
	var wg sync.WaitGroup

	start := time.Now()
	for i := 0; i < *numPairs; i++ {
		wg.Add(1)
		go runPair(ctx, i, st, &wg)
	}

	wg.Wait()
	st.report(time.Since(start))
}
