// Package server wires the reactor, listener, keyspace, and command
// registry into one running goredis instance, the way the teacher's
// GoFastServer ties its listener and background goroutines together.
package server

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/multierr"

	"github.com/armandparser/goredis/internal/bufpool"
	"github.com/armandparser/goredis/internal/client"
	"github.com/armandparser/goredis/internal/command"
	"github.com/armandparser/goredis/internal/config"
	"github.com/armandparser/goredis/internal/connection"
	"github.com/armandparser/goredis/internal/eventloop"
	"github.com/armandparser/goredis/internal/keyspace"
)

const activeExpireTimeEventID = "active-expire"

// Server owns the listening socket, the event loop, and the keyspace.
type Server struct {
	cfg *config.Config
	log zerolog.Logger

	loop     *eventloop.Loop
	listener *connection.Connection
	db       *keyspace.DB
	registry *command.Registry
	bufs     *bufpool.Pool

	Stats *Stats
}

// New constructs a Server bound to cfg; the listening socket and event
// loop are created lazily in Start.
func New(cfg *config.Config, logger zerolog.Logger) *Server {
	return &Server{
		cfg:      cfg,
		log:      logger,
		db:       keyspace.New(),
		registry: command.NewRegistry(),
		bufs:     bufpool.New(),
		Stats:    &Stats{},
	}
}

// Start binds the listening socket, installs the accept handler and the
// active-expire cron, then runs the single-threaded reactor loop until
// Stop is called. It blocks until the loop exits.
func (s *Server) Start() error {
	loop, err := eventloop.New()
	if err != nil {
		return fmt.Errorf("creating event loop: %w", err)
	}
	s.loop = loop

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	listener, err := connection.BindAndListen(addr, s.cfg.ListenBacklog)
	if err != nil {
		return fmt.Errorf("binding listener: %w", err)
	}
	s.listener = listener

	if err := s.installAcceptHandler(); err != nil {
		return err
	}
	s.installActiveExpireCron()

	s.log.Info().Str("addr", addr).Msg("listening")
	return s.loop.Run()
}

func (s *Server) installAcceptHandler() error {
	s.listener.SetReadHandler(func(*connection.Connection) {
		conn, err := s.listener.Accept()
		if err != nil {
			s.log.Warn().Err(err).Msg("accept failed")
			return
		}
		s.newClientFor(conn)
	})
	return s.listener.Attach(s.loop)
}

func (s *Server) installActiveExpireCron() {
	intervalMs := int64(s.cfg.ActiveExpireCycleMs)
	if intervalMs <= 0 {
		intervalMs = 100
	}
	s.loop.CreateTimeEvent(intervalMs, func(int64, any) int {
		if s.db.ShouldActiveExpire() {
			s.db.ScanExpires(time.Second, func(key string) {
				s.log.Debug().Str("key", key).Msg("active-expired key")
			})
		}
		return int(intervalMs / 1000)
	}, nil, activeExpireTimeEventID)
}

// Stop requests the reactor to halt and closes the listener and event
// loop, aggregating every teardown error with go.uber.org/multierr.
func (s *Server) Stop() error {
	s.loop.Stop()
	var err error
	if s.listener != nil {
		err = multierr.Append(err, s.listener.Close())
	}
	if s.loop != nil {
		err = multierr.Append(err, s.loop.Close())
	}
	return err
}

// DB exposes the keyspace, mainly for tests and administrative tooling.
func (s *Server) DB() *keyspace.DB { return s.db }

// newClientFor wires a fresh Client onto an accepted connection.
func (s *Server) newClientFor(conn *connection.Connection) {
	conn.Attach(s.loop)
	s.Stats.Connections.Inc()
	client.New(conn, s.db, s.registry, s.bufs, s.Stats.IncrementOp)
}
