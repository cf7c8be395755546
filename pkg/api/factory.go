package api

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/ssargent/bitwire/pkg/wire"
)

// ServerStarter runs the API server until ctx is cancelled
type ServerStarter interface {
	StartServer(ctx context.Context, deps Dependencies, config ServerConfig) error
}

// ServerFactory creates server instances
type ServerFactory interface {
	CreateServerStarter() ServerStarter
}

// Dependencies are the collaborators a server needs
type Dependencies struct {
	Registry *wire.Registry
	Recorder MessageRecorder
	Index    InventoryLookup
	Logger   zerolog.Logger
}

// DefaultServerFactory is the default implementation of ServerFactory
type DefaultServerFactory struct{}

// NewServerFactory creates a new server factory
func NewServerFactory() ServerFactory {
	return &DefaultServerFactory{}
}

// CreateServerStarter creates a server starter
func (f *DefaultServerFactory) CreateServerStarter() ServerStarter {
	return &DefaultServerStarter{}
}

// DefaultServerStarter is the default implementation of ServerStarter
type DefaultServerStarter struct{}

// StartServer builds a Server from deps and serves until ctx is done
func (s *DefaultServerStarter) StartServer(ctx context.Context, deps Dependencies, config ServerConfig) error {
	server := NewServer(deps.Registry, deps.Recorder, deps.Index, config, NewMetrics(), deps.Logger)
	return server.Serve(ctx)
}
