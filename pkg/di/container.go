// Package di provides dependency injection container
package di

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/ssargent/bitwire/pkg/api" //nolint:depguard
	"github.com/ssargent/bitwire/pkg/capture"
	"github.com/ssargent/bitwire/pkg/codec"
	"github.com/ssargent/bitwire/pkg/config"
	"github.com/ssargent/bitwire/pkg/inventory"
	"github.com/ssargent/bitwire/pkg/logging"
	"github.com/ssargent/bitwire/pkg/wire"
)

// Container holds all the dependencies for the application
type Container struct {
	config        *config.Config
	logger        zerolog.Logger
	registry      *wire.Registry
	serverFactory api.ServerFactory
}

// NewContainer creates a container with the default configuration and a
// silent logger. Call Configure to apply a loaded configuration.
func NewContainer() *Container {
	cfg := config.DefaultConfig()
	return &Container{
		config:        cfg,
		logger:        zerolog.Nop(),
		registry:      wire.NewRegistry(registryOptions(cfg)),
		serverFactory: api.NewServerFactory(),
	}
}

// Configure validates cfg and rebuilds the logger and schema registry from it.
// Logs go to logOut.
func (c *Container) Configure(cfg *config.Config, logOut io.Writer) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	logger, err := logging.New(cfg.Logging, logOut)
	if err != nil {
		return err
	}
	c.config = cfg
	c.logger = logger
	c.registry = wire.NewRegistry(registryOptions(cfg))
	return nil
}

// Config returns the active configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the application logger
func (c *Container) Logger() zerolog.Logger {
	return c.logger
}

// Registry returns the schema registry built with the configured policies
func (c *Container) Registry() *wire.Registry {
	return c.registry
}

// GetServerFactory returns the server factory
func (c *Container) GetServerFactory() api.ServerFactory {
	return c.serverFactory
}

// SetServerFactory allows overriding the server factory (for testing)
func (c *Container) SetServerFactory(factory api.ServerFactory) {
	c.serverFactory = factory
}

// CaptureStore opens the session directory under the data directory
func (c *Container) CaptureStore() (*capture.Store, error) {
	return capture.NewStore(capture.StoreConfig{
		Dir:           filepath.Join(c.config.DataDir, "capture"),
		FsyncInterval: c.config.Capture.FsyncInterval,
		BufferSize:    c.config.Capture.BufferSize,
		Records: capture.RecordOptions{
			RequireCommandTerminator: c.config.Codec.RequireCommandTerminator,
			MaxPayloadSize:           c.config.Codec.MaxPayloadSize,
		},
	})
}

// OpenIndex opens the inventory index under the data directory
func (c *Container) OpenIndex() (*inventory.Index, error) {
	return inventory.Open(filepath.Join(c.config.DataDir, "inventory"))
}

// Recording is a recorder together with the index it writes to
type Recording struct {
	*capture.Recorder
	Index *inventory.Index
}

// Close closes the session and the index
func (r *Recording) Close() error {
	return errors.Join(r.Recorder.Close(), r.Index.Close())
}

// OpenRecording opens a recorder on a new session, or resumes sessionID
// when it is not empty.
func (c *Container) OpenRecording(sessionID string) (*Recording, error) {
	store, err := c.CaptureStore()
	if err != nil {
		return nil, err
	}

	var session *capture.Session
	if sessionID == "" {
		session, err = store.Create()
	} else {
		session, err = store.Resume(sessionID)
	}
	if err != nil {
		return nil, err
	}

	index, err := c.OpenIndex()
	if err != nil {
		session.Close()
		return nil, err
	}

	return &Recording{
		Recorder: capture.NewRecorder(session, index, c.logger),
		Index:    index,
	}, nil
}

// ServerConfig derives the API server settings from the configuration
func (c *Container) ServerConfig() api.ServerConfig {
	return api.ServerConfig{
		Bind:           c.config.Server.Bind,
		Port:           c.config.Server.Port,
		APIKey:         c.config.Server.APIKey,
		MaxPayloadSize: c.config.Codec.MaxPayloadSize,
	}
}

func registryOptions(cfg *config.Config) wire.RegistryOptions {
	// Validate has already accepted the mode.
	text, _ := codec.ParseTextMode(cfg.Codec.TextMode)
	return wire.RegistryOptions{
		RequireCommandTerminator: cfg.Codec.RequireCommandTerminator,
		Text:                     text,
	}
}
