package mdpresent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/ioutil"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const maxMarkdownSize = 4 << 20

var (
	// ErrUnknownCommand is returned for control commands nobody handles.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrNoMarkdownSource is returned when a server is started without a
	// markdown file to present.
	ErrNoMarkdownSource = errors.New("no markdown source given")
)

type command func(s *Session, index *int) error

func simple(fn func(*Session)) command {
	return func(s *Session, _ *int) error {
		fn(s)
		return nil
	}
}

var commands = map[string]command{
	"start":          simple((*Session).Start),
	"stop":           simple((*Session).Stop),
	"next":           simple((*Session).Next),
	"previous":       simple((*Session).Previous),
	"first":          simple((*Session).First),
	"last":           simple((*Session).Last),
	"blackout":       simple((*Session).ToggleBlackout),
	"laser":          simple((*Session).ToggleLaserPointer),
	"drawing":        simple((*Session).ToggleDrawing),
	"presenter-view": simple((*Session).TogglePresenterView),
	"notes":          simple((*Session).ToggleNotes),
	"timer":          simple((*Session).ToggleTimer),
	"next-slide":     simple((*Session).ToggleNextSlide),
	"timer-start":    simple((*Session).StartTimer),
	"timer-pause":    simple((*Session).PauseTimer),
	"timer-resume":   simple((*Session).ResumeTimer),
	"timer-reset":    simple((*Session).ResetTimer),
	"timer-restart":  simple((*Session).RestartTimer),
	"reset-markdown": simple(func(s *Session) { s.ResetMarkdown() }),
	"goto": func(s *Session, index *int) error {
		if index == nil {
			return errors.New("goto needs an index")
		}
		// out of range targets are ignored, not an error
		s.GoTo(*index)
		return nil
	},
}

// RunCommand executes a named control command against the session.
func RunCommand(s *Session, name string, index *int) error {
	cmd, ok := commands[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
	return cmd(s, index)
}

// PresenterServer serves a live session to audience and presenter browsers.
type PresenterServer struct {
	session     *Session
	ctx         context.Context
	cancel      context.CancelFunc
	log         logrus.FieldLogger
	httpServer  *http.Server
	listener    net.Listener
	wsUpgrader  websocket.Upgrader
	hub         *wsHub
	unsubscribe func()
}

func NewPresenterServer(ctx context.Context, session *Session, addr string, log logrus.FieldLogger) (*PresenterServer, error) {
	if session == nil {
		return nil, errors.New("presenter server needs a session")
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	ctx, cancel := context.WithCancel(ctx)
	p := &PresenterServer{
		session:    session,
		ctx:        ctx,
		cancel:     cancel,
		log:        log.WithField("component", "server"),
		httpServer: &http.Server{Addr: addr},
		wsUpgrader: websocket.Upgrader{},
	}
	p.hub = newWSHub(p.log)
	p.httpServer.Handler = p.Router()
	p.unsubscribe = session.Subscribe(func(snap Snapshot) {
		p.hub.broadcastState(snap)
	})
	return p, nil
}

// Router wires all routes, it is exposed for tests and embedding.
func (p *PresenterServer) Router() *mux.Router {
	r := mux.NewRouter()
	r.PathPrefix("/assets/").Handler(http.StripPrefix("/assets/", AssetHandler()))
	r.HandleFunc("/", p.servePage("audience")).Methods(http.MethodGet)
	r.HandleFunc("/presenter", p.servePage("presenter")).Methods(http.MethodGet)
	r.HandleFunc("/ws", p.wsHandler)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/state", p.serveState).Methods(http.MethodGet)
	api.HandleFunc("/presentation", p.servePresentation).Methods(http.MethodGet)
	api.HandleFunc("/markdown", p.serveMarkdown).Methods(http.MethodGet)
	api.HandleFunc("/markdown", p.updateMarkdown).Methods(http.MethodPut, http.MethodPost)
	api.HandleFunc("/commands/{name}", p.runCommand).Methods(http.MethodPost)
	return r
}

func (p *PresenterServer) servePage(view string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := renderLive(p.session.Presentation(), view)
		if err != nil {
			p.log.WithError(err).Error("render page")
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(page)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
}

func (p *PresenterServer) serveState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, p.session.Snapshot())
}

func (p *PresenterServer) servePresentation(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, p.session.Presentation())
}

func (p *PresenterServer) serveMarkdown(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Write([]byte(p.session.Markdown()))
}

func (p *PresenterServer) updateMarkdown(w http.ResponseWriter, r *http.Request) {
	buf, err := ioutil.ReadAll(http.MaxBytesReader(w, r.Body, maxMarkdownSize))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	pres := p.session.UpdateMarkdown(string(buf))
	if pres.Error != "" {
		p.log.WithField("error", pres.Error).Warn("markdown did not parse")
	}
	writeJSON(w, http.StatusOK, pres)
}

func (p *PresenterServer) runCommand(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	var index *int
	if raw := r.URL.Query().Get("index"); raw != "" {
		i, err := strconv.Atoi(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "index must be an integer"})
			return
		}
		index = &i
	}
	if err := RunCommand(p.session, name, index); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, ErrUnknownCommand) {
			status = http.StatusNotFound
		}
		writeJSON(w, status, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, p.session.Snapshot())
}

func (p *PresenterServer) wsHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := p.wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		p.log.WithError(err).Debug("websocket upgrade")
		return
	}
	client := p.hub.add(conn)
	ctx, cancel := context.WithCancel(p.ctx)
	defer cancel()
	defer p.hub.remove(client)
	go ping(ctx, p.hub, client)

	if err := client.writeJSON(WebSocketMessage{Type: MessageHello, ID: client.id}); err != nil {
		return
	}
	if err := p.hub.sendState(client, p.session.Snapshot()); err != nil {
		return
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		msg, err := decodeMessage(data)
		if err != nil {
			client.writeJSON(WebSocketMessage{Type: MessageError, Error: "invalid message: " + err.Error()})
			continue
		}
		if reply, ok := p.handleMessage(msg); ok {
			if err := client.writeJSON(reply); err != nil {
				return
			}
		}
	}
}

func (p *PresenterServer) handleMessage(msg WebSocketMessage) (WebSocketMessage, bool) {
	switch msg.Type {
	case MessageKey:
		prevent := p.session.HandleKey(KeyEvent{Key: msg.Key, Shift: msg.Shift, InputFocused: msg.InputFocused})
		return WebSocketMessage{Type: MessageKey, Key: msg.Key, PreventDefault: prevent}, true
	case MessageCommand:
		if err := RunCommand(p.session, msg.Name, msg.Index); err != nil {
			return WebSocketMessage{Type: MessageError, Name: msg.Name, Error: err.Error()}, true
		}
		return WebSocketMessage{}, false
	default:
		return WebSocketMessage{Type: MessageError, Error: "unknown message type: " + msg.Type}, true
	}
}

// Addr is the listening address once Run was called.
func (p *PresenterServer) Addr() string {
	if p.listener != nil {
		return p.listener.Addr().String()
	}
	return p.httpServer.Addr
}

// Run starts listening and serves in the background.
func (p *PresenterServer) Run() error {
	ln, err := net.Listen("tcp", p.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", p.httpServer.Addr, err)
	}
	p.listener = ln
	go func() {
		if err := p.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			p.log.WithError(err).Error("http server stopped")
		}
	}()
	p.log.WithField("addr", ln.Addr().String()).Info("serving presentation")
	return nil
}

func (p *PresenterServer) Close() error {
	p.unsubscribe()
	p.cancel()
	p.hub.closeAll()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*15)
	defer cancel()
	return p.httpServer.Shutdown(ctx)
}
