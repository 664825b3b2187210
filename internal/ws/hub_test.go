package ws

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestMessageRoundTripProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("stdin messages preserve data integrity", prop.ForAll(
		func(data string) bool {
			msg := Message{Type: MessageTypeStdin, Data: data}

			jsonData, err := json.Marshal(msg)
			if err != nil {
				return false
			}

			var parsed Message
			if err := json.Unmarshal(jsonData, &parsed); err != nil {
				return false
			}
			return parsed.Type == MessageTypeStdin && parsed.Data == data
		},
		gen.AnyString(),
	))

	properties.Property("data messages preserve data integrity", prop.ForAll(
		func(data string) bool {
			msg := Message{Type: MessageTypeData, Data: data}

			jsonData, err := json.Marshal(msg)
			if err != nil {
				return false
			}

			var parsed Message
			if err := json.Unmarshal(jsonData, &parsed); err != nil {
				return false
			}
			return parsed.Type == MessageTypeData && parsed.Data == data
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}

func TestHubBroadcastDeliversToAllClients(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50

	properties := gopter.NewProperties(parameters)

	properties.Property("broadcast reaches every registered client", prop.ForAll(
		func(numClients int, data string) bool {
			if numClients <= 0 || numClients > 10 {
				numClients = 1
			}

			hub := NewHub("test-session")
			defer hub.Close()

			var wg sync.WaitGroup
			received := make([]string, numClients)
			clients := make([]*Client, numClients)

			for i := 0; i < numClients; i++ {
				client := NewClient(nil, "test-session")
				clients[i] = client
				hub.Register(client)

				idx := i
				wg.Add(1)
				go func() {
					defer wg.Done()
					select {
					case msg := <-client.SendChan():
						received[idx] = string(msg)
					case <-time.After(100 * time.Millisecond):
						received[idx] = ""
					}
				}()
			}

			hub.Broadcast([]byte(data))
			wg.Wait()

			for i := 0; i < numClients; i++ {
				if received[i] != data {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 10),
		gen.AnyString(),
	))

	properties.TestingRun(t)
}

func TestClientSlowConsumerDropped(t *testing.T) {
	client := NewClient(nil, "test-session")

	// Fill the send buffer without a consumer; the overflowing send must
	// close the client instead of blocking.
	for i := 0; i < 300; i++ {
		client.Send([]byte("x"))
	}

	client.mu.Lock()
	closed := client.closed
	client.mu.Unlock()
	if !closed {
		t.Error("Client with a full send buffer should be closed")
	}

	// Send after close is a no-op.
	client.Send([]byte("y"))
}

func TestHubUnregisterClosesClient(t *testing.T) {
	hub := NewHub("test-session")
	client := NewClient(nil, "test-session")
	hub.Register(client)

	if hub.ClientCount() != 1 {
		t.Errorf("Expected 1 client, got %d", hub.ClientCount())
	}

	hub.Unregister(client)

	if hub.ClientCount() != 0 {
		t.Errorf("Expected 0 clients, got %d", hub.ClientCount())
	}
	if _, ok := <-client.SendChan(); ok {
		t.Error("Unregistered client's send channel should be closed")
	}
}

func TestHubManager(t *testing.T) {
	m := NewHubManager()

	hub := m.GetOrCreate("s1")
	if hub == nil {
		t.Fatal("GetOrCreate returned nil")
	}
	if m.GetOrCreate("s1") != hub {
		t.Error("GetOrCreate should return the same hub for the same session")
	}
	if m.Get("s2") != nil {
		t.Error("Get of unknown session should return nil")
	}

	m.Remove("s1")
	if m.Get("s1") != nil {
		t.Error("Removed hub should be gone")
	}
}
