package jocp

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/joypados/adapter/internal/device"
	"github.com/joypados/adapter/internal/feedback"
	"github.com/joypados/adapter/internal/input"
	"github.com/joypados/adapter/internal/router"
)

// controllerTimeout matches the transport's liveness contract: a
// controller that stops sending for this long is treated as detached.
const controllerTimeout = 5 * time.Second

const sendBuffer = 16

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Controllers pair on the local network only.
	},
}

type session struct {
	src      input.SourceID
	conn     *websocket.Conn
	cell     *router.Cell
	send     chan []byte
	name     string
	attached bool
	lastSeq  uint16
	lastSeen time.Time
	packets  uint32
	drops    uint32
}

// Driver is the JOCP WiFi transport: one WebSocket per controller.
// Implements device.Driver and the feedback sink capability.
type Driver struct {
	registry *device.Registry
	intake   *router.Intake
	clk      clock.Clock
	log      *zap.SugaredLogger

	mu       sync.Mutex
	sessions map[uint16]*session
	nextAddr uint16
}

// New returns the JOCP driver. Each controller session gets its own
// intake cell so one chatty pad cannot shadow another's samples.
func New(registry *device.Registry, intake *router.Intake, clk clock.Clock, log *zap.SugaredLogger) *Driver {
	return &Driver{
		registry: registry,
		intake:   intake,
		clk:      clk,
		log:      log,
		sessions: make(map[uint16]*session),
	}
}

func (d *Driver) Name() string { return "jocp-wifi" }

func (d *Driver) Claims(info device.Info) bool {
	return info.Source.Transport == input.TransportWiFi
}

func (d *Driver) Attach(device.Info) bool { return true }

func (d *Driver) Detach(input.SourceID) {}

// Process decodes one raw JOCP packet into a canonical event. Non-input
// packets produce no event.
func (d *Driver) Process(src input.SourceID, raw []byte) (input.Event, bool) {
	p, ok := decodePacket(raw)
	if !ok || p.Type != packetInput {
		return input.Event{}, false
	}
	return eventFromPacket(src, p), true
}

// Task sweeps for controllers that went silent and tears their sessions
// down, which detaches them from the registry.
func (d *Driver) Task(now time.Time) {
	d.mu.Lock()
	var stale []*session
	for _, s := range d.sessions {
		if now.Sub(s.lastSeen) > controllerTimeout {
			stale = append(stale, s)
		}
	}
	d.mu.Unlock()

	for _, s := range stale {
		d.log.Infof("controller %s timed out", s.src)
		s.conn.Close() // read pump unwinds and finishes the teardown
	}
}

// ApplyFeedback pushes host feedback to the controller over its socket.
// Non-blocking: if the session's send buffer is full the request is
// dropped, newest-wins like every other path in the core.
func (d *Driver) ApplyFeedback(src input.SourceID, req feedback.Request) {
	d.mu.Lock()
	s, ok := d.sessions[src.Address]
	d.mu.Unlock()
	if !ok {
		return
	}
	pkt := Packet{
		Type:        packetFeedback,
		RumbleLeft:  req.RumbleLeft,
		RumbleRight: req.RumbleRight,
		LEDRed:      req.LEDRed,
		LEDGreen:    req.LEDGreen,
		LEDBlue:     req.LEDBlue,
		PlayerLED:   req.PlayerLED,
	}
	data, err := json.Marshal(pkt)
	if err != nil {
		return
	}
	select {
	case s.send <- data:
	default:
	}
}

// ServeWS upgrades one controller connection and runs its pumps.
func (d *Driver) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		d.log.Warnf("jocp upgrade failed: %v", err)
		return
	}

	d.mu.Lock()
	d.nextAddr++
	addr := d.nextAddr
	s := &session{
		src:      input.SourceID{Transport: input.TransportWiFi, Address: addr},
		conn:     conn,
		cell:     d.intake.NewCell(),
		send:     make(chan []byte, sendBuffer),
		lastSeen: d.clk.Now(),
	}
	d.sessions[addr] = s
	d.mu.Unlock()

	d.log.Infof("jocp controller connected from %s as %s", r.RemoteAddr, s.src)

	go s.writePump()
	d.readPump(s)
}

func (s *session) writePump() {
	defer s.conn.Close()
	for msg := range s.send {
		if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

func (d *Driver) readPump(s *session) {
	defer d.closeSession(s)

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			return
		}

		p, ok := decodePacket(raw)
		if !ok {
			continue
		}

		switch p.Type {
		case packetHello:
			d.mu.Lock()
			s.lastSeen = d.clk.Now()
			d.mu.Unlock()
			d.attachSession(s, p)
		case packetInput:
			if !s.attached {
				d.attachSession(s, Packet{Name: "jocp controller"})
			}
			if !s.attached {
				continue
			}
			d.mu.Lock()
			s.lastSeen = d.clk.Now()
			// Drop duplicates and reordered packets; UDP-heritage
			// sequence numbers wrap at 16 bits.
			stale := p.Seq != 0 && s.packets > 0 && int16(p.Seq-s.lastSeq) <= 0
			if stale {
				s.drops++
			} else {
				s.lastSeq = p.Seq
				s.packets++
			}
			d.mu.Unlock()
			if stale {
				continue
			}
			if ev, ok := d.Process(s.src, raw); ok {
				s.cell.Put(ev)
			}
		}
	}
}

func (d *Driver) attachSession(s *session, p Packet) {
	if s.attached {
		return
	}
	name := p.Name
	if name == "" {
		name = "jocp controller"
	}
	info := device.Info{Source: s.src, Vendor: p.Vendor, Product: p.Product, Name: name}
	if d.registry.Attach(info) != nil {
		s.attached = true
		s.name = name
	}
}

func (d *Driver) closeSession(s *session) {
	s.conn.Close()

	d.mu.Lock()
	_, open := d.sessions[s.src.Address]
	if open {
		delete(d.sessions, s.src.Address)
		close(s.send)
	}
	d.mu.Unlock()
	if !open {
		return
	}

	d.intake.Remove(s.cell)
	if s.attached {
		d.registry.Detach(s.src)
	}
	d.log.Infof("jocp controller %s closed (%d packets, %d dropped)", s.src, s.packets, s.drops)
}

// ConnectedCount returns the number of live controller sessions.
func (d *Driver) ConnectedCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.sessions)
}
