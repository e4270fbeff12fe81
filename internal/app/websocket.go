// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// WSServer pushes snapshots to websocket clients and accepts parameter
// updates from them. It also serves the latest snapshot over plain HTTP
// and the static web UI.
type WSServer struct {
	snaps     SnapshotReader
	params    ParamSink
	interval  time.Duration
	staticDir string
	clk       clock.Clock
	logger    *zap.SugaredLogger

	sessions sync.WaitGroup
}

// NewWSServer creates a server sending one update per interval to each
// client. An empty staticDir disables the file server.
func NewWSServer(snaps SnapshotReader, params ParamSink, interval time.Duration, staticDir string, clk clock.Clock, logger *zap.SugaredLogger) *WSServer {
	return &WSServer{
		snaps:     snaps,
		params:    params,
		interval:  interval,
		staticDir: staticDir,
		clk:       clk,
		logger:    logger,
	}
}

// Handler returns the HTTP routes: /ws, /api/attitude and static files.
func (s *WSServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/api/attitude", s.handleAttitude)
	if s.staticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(s.staticDir)))
	}
	return mux
}

// Serve accepts connections on ln until ctx is cancelled. Request
// contexts derive from ctx, so websocket sessions end with it too.
func (s *WSServer) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:     s.Handler(),
		BaseContext: func(net.Listener) context.Context { return ctx },
	}
	shutdown := make(chan struct{})
	go func() {
		defer close(shutdown)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Infow("web server listening", "addr", ln.Addr().String())
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-shutdown
	// hijacked websocket connections are not tracked by Shutdown
	s.sessions.Wait()
	return nil
}

func (s *WSServer) handleAttitude(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.snaps.Snapshot()); err != nil {
		s.logger.Warnw("json encode error", "error", err)
	}
}

func (s *WSServer) handleWS(w http.ResponseWriter, r *http.Request) {
	s.sessions.Add(1)
	defer s.sessions.Done()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warnw("websocket upgrade error", "error", err)
		return
	}
	remote := conn.RemoteAddr().String()
	s.logger.Infow("client connected", "remote", remote)

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.receive(conn, remote)
	}()

	s.send(r.Context(), conn, done)
	conn.Close()
	<-done
	s.logger.Infow("client disconnected", "remote", remote)
}

// send writes an update every interval until ctx is done, the receiver
// finishes or a write fails.
func (s *WSServer) send(ctx context.Context, conn *websocket.Conn, done <-chan struct{}) {
	ticker := s.clk.Ticker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
			_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
			return
		case <-done:
			return
		case <-ticker.C:
			msg, err := encodeUpdate(s.snaps.Snapshot())
			if err != nil {
				s.logger.Warnw("encode update", "error", err)
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				s.logger.Debugw("websocket write", "error", err)
				return
			}
		}
	}
}

// receive applies params messages until the connection fails. Anything
// that is not a valid params message is ignored.
func (s *WSServer) receive(conn *websocket.Conn, remote string) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			s.logger.Debugw("websocket read", "remote", remote, "error", err)
			return
		}
		values, err := decodeParams(data)
		if err != nil {
			s.logger.Debugw("ignoring client message", "remote", remote, "error", err)
			continue
		}
		s.params.ApplyParameters(values)
	}
}
