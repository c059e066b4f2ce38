package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"time"

	quic "github.com/quic-go/quic-go"

	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/sink"
)

// Server accepts QUIC connections and bridges each one to the engine as
// one session: the first bidirectional stream carries the whole
// conversation, a read loop dispatches inbound envelopes, and a writer
// goroutine drains the session sink back onto the stream.
type Server struct {
	log         *slog.Logger
	engine      contract.IEngine
	tlsConf     *tls.Config
	bufferSize  int
	sinkTimeout time.Duration
}

func NewServer(log *slog.Logger, engine contract.IEngine, tlsConf *tls.Config,
	bufferSize int, sinkTimeout time.Duration) *Server {
	return &Server{
		log:         log,
		engine:      engine,
		tlsConf:     tlsConf,
		bufferSize:  bufferSize,
		sinkTimeout: sinkTimeout,
	}
}

func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	listener, err := quic.ListenAddr(addr, s.tlsConf, nil)
	if err != nil {
		return fmt.Errorf("quic listen on %s: %w", addr, err)
	}
	go func() {
		<-ctx.Done()
		_ = listener.Close()
	}()
	s.log.Info("QUIC listener ready", "address", addr)

	for {
		conn, err := listener.Accept(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("quic accept: %w", err)
		}
		go s.handleConn(ctx, conn)
	}
}

func (s *Server) handleConn(ctx context.Context, conn *quic.Conn) {
	stream, err := conn.AcceptStream(ctx)
	if err != nil {
		s.log.Debug("No stream before connection closed", "error", err)
		_ = conn.CloseWithError(0, "no stream")
		return
	}

	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	connSink := sink.NewConnSink(s.log, s.bufferSize, s.sinkTimeout)
	sessionID := s.engine.Connect(connCtx, remoteHost(conn.RemoteAddr()), connSink)
	// Disconnect is idempotent: the transport may observe the closure
	// through both loops, cleanup still happens exactly once.
	defer s.engine.Disconnect(sessionID)
	s.log.Info("Session connected", "session_id", sessionID)

	go func() {
		// Unblocks the read loop when the writer or the parent stops
		<-connCtx.Done()
		_ = conn.CloseWithError(0, "session closed")
	}()
	go s.writeLoop(connCtx, stream, connSink, cancel)
	s.readLoop(connCtx, stream, sessionID)
	s.log.Info("Session disconnected", "session_id", sessionID)
}

func (s *Server) readLoop(ctx context.Context, stream *quic.Stream, sessionID domain.SessionID) {
	for {
		payload, err := ReadFrame(stream)
		if err != nil {
			s.log.Debug("Read loop finished", "session_id", sessionID, "error", err)
			return
		}
		env, err := DecodeEnvelope(payload)
		if err != nil {
			s.log.Warn("Malformed envelope", "session_id", sessionID, "error", err)
			continue
		}
		select {
		case <-ctx.Done():
			return
		default:
		}
		switch env.Type {
		case TypeJoin:
			s.engine.Announce(sessionID, env.Name)
		case TypeMessage:
			if err := s.engine.PostMessage(sessionID, env.Text); err != nil {
				// Rejections are silent to the sender
				s.log.Debug("Message rejected", "session_id", sessionID, "reason", err)
			}
		case TypeTypingStart:
			s.engine.SetTyping(sessionID, true)
		case TypeTypingStop:
			s.engine.SetTyping(sessionID, false)
		default:
			s.log.Debug("Unknown envelope type", "session_id", sessionID, "type", env.Type)
		}
	}
}

func (s *Server) writeLoop(ctx context.Context, stream *quic.Stream, connSink *sink.ConnSink, cancel context.CancelFunc) {
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-connSink.Events:
			env, ok := FromEvent(evt)
			if !ok {
				continue
			}
			frame, err := env.Encode()
			if err != nil {
				s.log.Warn("Envelope encoding failed", "error", err)
				continue
			}
			if _, err := stream.Write(frame); err != nil {
				s.log.Debug("Write loop finished", "error", err)
				return
			}
		}
	}
}

// remoteHost strips the ephemeral port so redaction keys on the address
// itself, not on each connection.
func remoteHost(addr net.Addr) string {
	if addr == nil {
		return ""
	}
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	return host
}
