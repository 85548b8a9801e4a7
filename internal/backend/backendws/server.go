package backendws

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/AlexZhaoZt/Grid2Op-Resilience/internal/backend"
)

// Server exposes one local backend over websocket. Requests from all
// connections are serialized: the wrapped backend is single-owner.
type Server struct {
	bk  backend.Backend
	log *log.Logger
	mu  sync.Mutex

	upgrader websocket.Upgrader
}

func NewServer(bk backend.Backend, logger *log.Logger) *Server {
	return &Server{
		bk:  bk,
		log: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var req request
			if err := json.Unmarshal(msg, &req); err != nil {
				continue
			}
			resp := s.dispatch(&req)
			_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			b, err := json.Marshal(resp)
			if err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}
		}
	}
}

func (s *Server) dispatch(req *request) response {
	resp := response{Version: Version, Op: req.Op}
	if req.Version != Version {
		resp.Err = "protocol version mismatch"
		return resp
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch req.Op {
	case OpLoadGrid:
		if err := s.bk.LoadGrid(req.Path); err != nil {
			resp.Err = err.Error()
		}
	case OpSchema:
		resp.Schema = s.bk.Schema()
	case OpApply:
		d := &backend.Delta{}
		if req.Delta != nil {
			d.TopoVect = req.Delta.TopoVect
			d.LoadP = req.Delta.LoadP
			d.LoadQ = req.Delta.LoadQ
			d.GenP = req.Delta.GenP
			d.GenV = req.Delta.GenV
		}
		if err := s.bk.ApplyAction(d); err != nil {
			resp.Err = err.Error()
		}
	case OpSolve:
		converged, err := s.bk.Solve()
		if err != nil {
			resp.Err = err.Error()
			break
		}
		resp.Converged = converged
	case OpLineStatus:
		resp.Bools = s.bk.LineStatus()
	case OpRho:
		resp.P = s.bk.RelativeFlow()
	case OpGens:
		resp.P, resp.Q, resp.V = s.bk.GeneratorsInfo()
	case OpLoads:
		resp.P, resp.Q, resp.V = s.bk.LoadsInfo()
	case OpLinesOr:
		resp.P, resp.Q, resp.V, resp.A = s.bk.LinesOrInfo()
	case OpLinesEx:
		resp.P, resp.Q, resp.V, resp.A = s.bk.LinesExInfo()
	case OpTopo:
		resp.Topo = s.bk.TopoVect()
	case OpSetLimits:
		if err := s.bk.SetThermalLimit(req.Limits); err != nil {
			resp.Err = err.Error()
		}
	case OpLimits:
		resp.P = s.bk.ThermalLimit()
	case OpReset:
		if err := s.bk.Reset(req.Path); err != nil {
			resp.Err = err.Error()
		}
	default:
		resp.Err = "unknown op " + req.Op
	}
	return resp
}
