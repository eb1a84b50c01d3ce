package arangotp

import (
	"time"

	driver "github.com/arangodb/go-driver"
)

// Options configures the ArangoDB connector.
//
// Defaults:
// - Endpoints:      http://localhost:8529
// - Database:       _system
// - QueryTimeout:   10s (used only if incoming context has no deadline)
// - ConnectTimeout: 30s
//
// Authentication is basic when Username is set, none otherwise.

type Options struct {
	Endpoints []string
	Database  string
	Username  string
	Password  string

	QueryTimeout   time.Duration
	ConnectTimeout time.Duration

	// BatchSize is the cursor batch size sent with every query; 0 leaves it
	// to the server.
	BatchSize int
}

type Option func(*Options)

func defaultOptions() *Options {
	return &Options{
		Endpoints:      []string{"http://localhost:8529"},
		Database:       "_system",
		QueryTimeout:   10 * time.Second,
		ConnectTimeout: 30 * time.Second,
	}
}

func WithEndpoints(endpoints ...string) Option { return func(o *Options) { o.Endpoints = endpoints } }
func WithDatabase(name string) Option          { return func(o *Options) { o.Database = name } }
func WithQueryTimeout(d time.Duration) Option  { return func(o *Options) { o.QueryTimeout = d } }
func WithConnectTimeout(d time.Duration) Option {
	return func(o *Options) { o.ConnectTimeout = d }
}
func WithBatchSize(n int) Option { return func(o *Options) { o.BatchSize = n } }
func WithBasicAuth(username, password string) Option {
	return func(o *Options) {
		o.Username = username
		o.Password = password
	}
}

func (o *Options) authentication() driver.Authentication {
	if o.Username == "" {
		return nil
	}
	return driver.BasicAuthentication(o.Username, o.Password)
}
