package app

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/gorilla/websocket"

	"github.com/relabs-tech/imu_link/internal/config"
	"github.com/relabs-tech/imu_link/internal/imu"
	"github.com/relabs-tech/imu_link/internal/orientation"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

const (
	wsSendQueue    = 16
	wsWriteTimeout = time.Second
)

// webState holds the latest value of every topic.
type webState struct {
	mu          sync.RWMutex
	reading     imu.Reading
	haveReading bool
	fixed       imu.Fixed
	haveFixed   bool
	stats       LinkStats
	haveStats   bool

	clientsMu sync.Mutex
	clients   map[chan []byte]struct{}
}

func newWebState() *webState {
	return &webState{clients: make(map[chan []byte]struct{})}
}

func (s *webState) setReading(r imu.Reading) {
	s.mu.Lock()
	s.reading = r
	s.haveReading = true
	s.mu.Unlock()

	payload, err := json.Marshal(r)
	if err != nil {
		glog.Warningf("web: marshal reading: %v", err)
		return
	}
	s.broadcast(payload)
}

func (s *webState) setFixed(f imu.Fixed) {
	s.mu.Lock()
	s.fixed = f
	s.haveFixed = true
	s.mu.Unlock()
}

func (s *webState) setStats(st LinkStats) {
	s.mu.Lock()
	s.stats = st
	s.haveStats = true
	s.mu.Unlock()
}

// broadcast queues payload for every stream client. Slow clients miss
// messages rather than stall the subscriber.
func (s *webState) broadcast(payload []byte) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	for ch := range s.clients {
		select {
		case ch <- payload:
		default:
		}
	}
}

func (s *webState) addClient() chan []byte {
	ch := make(chan []byte, wsSendQueue)
	s.clientsMu.Lock()
	s.clients[ch] = struct{}{}
	s.clientsMu.Unlock()
	return ch
}

func (s *webState) removeClient(ch chan []byte) {
	s.clientsMu.Lock()
	delete(s.clients, ch)
	s.clientsMu.Unlock()
}

func (s *webState) clientCount() int {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	return len(s.clients)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		glog.Warningf("web: json encode error: %v", err)
	}
}

func (s *webState) handleReading(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	reading, ok := s.reading, s.haveReading
	s.mu.RUnlock()
	if !ok {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, reading)
}

func (s *webState) handleOrientation(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	reading, ok := s.reading, s.haveReading
	s.mu.RUnlock()
	if !ok {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, orientation.FromReading(reading))
}

func (s *webState) handleFixed(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	f, ok := s.fixed, s.haveFixed
	s.mu.RUnlock()
	if !ok {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, f)
}

func (s *webState) handleStats(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	st, ok := s.stats, s.haveStats
	s.mu.RUnlock()
	if !ok {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, st)
}

// handleStream upgrades to a websocket and pushes every reading as JSON,
// starting with the latest one when there is one.
func (s *webState) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		glog.Warningf("web: websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	ch := s.addClient()
	defer s.removeClient(ch)
	glog.Infof("web: stream client connected from %s", r.RemoteAddr)

	s.mu.RLock()
	if s.haveReading {
		if payload, err := json.Marshal(s.reading); err == nil {
			ch <- payload
		}
	}
	s.mu.RUnlock()

	// The reader only notices the peer going away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			glog.Infof("web: stream client %s disconnected", r.RemoteAddr)
			return
		case payload := <-ch:
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				glog.Warningf("web: stream write to %s: %v", r.RemoteAddr, err)
				return
			}
		}
	}
}

func (s *webState) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/reading", s.handleReading)
	mux.HandleFunc("/api/orientation", s.handleOrientation)
	mux.HandleFunc("/api/fixed", s.handleFixed)
	mux.HandleFunc("/api/stats", s.handleStats)
	mux.HandleFunc("/ws", s.handleStream)
	mux.Handle("/", http.FileServer(http.Dir("web")))
	return mux
}

func RunWeb() error {
	cfg := config.Get()
	state := newWebState()

	client, err := connectMQTT(cfg.MQTTBroker, clientID(cfg.MQTTClientIDWeb, "web"))
	if err != nil {
		return fmt.Errorf("web: %w", err)
	}
	defer client.Disconnect(250)

	if err := subscribeJSON(client, cfg.TopicReading, state.setReading); err != nil {
		return fmt.Errorf("web: %w", err)
	}
	if err := subscribeJSON(client, cfg.TopicFixed, state.setFixed); err != nil {
		return fmt.Errorf("web: %w", err)
	}
	if err := subscribeJSON(client, cfg.TopicStats, state.setStats); err != nil {
		return fmt.Errorf("web: %w", err)
	}

	addr := fmt.Sprintf(":%d", cfg.WebServerPort)
	glog.Infof("web: server listening on %s", addr)
	return http.ListenAndServe(addr, state.routes())
}
