// Copyright 2021-2022, Offchain Labs, Inc.
// For license information, see https://github.com/nitro/blob/master/LICENSE

package rpcserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/node"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/spf13/pflag"

	"github.com/offchainlabs/ctc/util/stopwaiter"
)

type Config struct {
	Enable       bool          `koanf:"enable"`
	Addr         string        `koanf:"addr"`
	Port         int           `koanf:"port"`
	CORSDomain   []string      `koanf:"corsdomain"`
	VHosts       []string      `koanf:"vhosts"`
	JWTSecret    string        `koanf:"jwtsecret"`
	ReadTimeout  time.Duration `koanf:"read-timeout"`
	WriteTimeout time.Duration `koanf:"write-timeout"`
	IdleTimeout  time.Duration `koanf:"idle-timeout"`

	BatchRequestLimit    int `koanf:"batch-request-limit"`
	BatchResponseMaxSize int `koanf:"batch-response-max-size"`
}

var DefaultConfig = Config{
	Enable:       true,
	Addr:         "localhost",
	Port:         8547,
	CORSDomain:   []string{},
	VHosts:       []string{"localhost"},
	JWTSecret:    "",
	ReadTimeout:  rpc.DefaultHTTPTimeouts.ReadTimeout,
	WriteTimeout: rpc.DefaultHTTPTimeouts.WriteTimeout,
	IdleTimeout:  rpc.DefaultHTTPTimeouts.IdleTimeout,

	BatchRequestLimit:    1000,
	BatchResponseMaxSize: 10_000_000, // 10MB
}

func ConfigAddOptions(prefix string, f *pflag.FlagSet) {
	f.Bool(prefix+".enable", DefaultConfig.Enable, "serve the ledger over http json-rpc")
	f.String(prefix+".addr", DefaultConfig.Addr, "http-rpc server listening interface")
	f.Int(prefix+".port", DefaultConfig.Port, "http-rpc server listening port (0 = any free port)")
	f.StringSlice(prefix+".corsdomain", DefaultConfig.CORSDomain, "comma separated list of domains from which to accept cross origin requests (browser enforced)")
	f.StringSlice(prefix+".vhosts", DefaultConfig.VHosts, "comma separated list of virtual hostnames from which to accept requests (server enforced). Accepts '*' wildcard")
	f.String(prefix+".jwtsecret", DefaultConfig.JWTSecret, "path to a file holding a hex encoded jwt secret (empty = no authentication)")
	f.Duration(prefix+".read-timeout", DefaultConfig.ReadTimeout, "the maximum duration for reading the entire request")
	f.Duration(prefix+".write-timeout", DefaultConfig.WriteTimeout, "the maximum duration before timing out writes of the response")
	f.Duration(prefix+".idle-timeout", DefaultConfig.IdleTimeout, "the maximum amount of time to wait for the next request when keep-alives are enabled")
	f.Int(prefix+".batch-request-limit", DefaultConfig.BatchRequestLimit, "the maximum number of requests in a JSON-RPC batch")
	f.Int(prefix+".batch-response-max-size", DefaultConfig.BatchResponseMaxSize, "the maximum response size for a JSON-RPC batch measured in bytes")
}

func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	return nil
}

func readJWTSecret(path string) ([]byte, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading jwt secret: %w", err)
	}
	secret := common.FromHex(strings.TrimSpace(string(data)))
	if len(secret) != 32 {
		return nil, fmt.Errorf("jwt secret in %s must be 32 hex encoded bytes", path)
	}
	return secret, nil
}

// Server serves a set of rpc.APIs over http until stopped.
type Server struct {
	stopwaiter.StopWaiter
	config   *Config
	rpc      *rpc.Server
	http     *http.Server
	listener net.Listener
}

func NewServer(config *Config, apis []rpc.API) (*Server, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	secret, err := readJWTSecret(config.JWTSecret)
	if err != nil {
		return nil, err
	}
	rpcServer := rpc.NewServer()
	rpcServer.SetBatchLimits(config.BatchRequestLimit, config.BatchResponseMaxSize)
	for _, api := range apis {
		if err := rpcServer.RegisterName(api.Namespace, api.Service); err != nil {
			return nil, fmt.Errorf("registering %s api: %w", api.Namespace, err)
		}
	}
	handler := node.NewHTTPHandlerStack(rpcServer, config.CORSDomain, config.VHosts, secret)
	return &Server{
		config: config,
		rpc:    rpcServer,
		http: &http.Server{
			Handler:           handler,
			ReadTimeout:       config.ReadTimeout,
			ReadHeaderTimeout: config.ReadTimeout,
			WriteTimeout:      config.WriteTimeout,
			IdleTimeout:       config.IdleTimeout,
		},
	}, nil
}

// Start binds the listening socket before returning, so Addr is valid once
// Start succeeds.
func (s *Server) Start(ctxIn context.Context) error {
	listener, err := net.Listen("tcp", net.JoinHostPort(s.config.Addr, fmt.Sprint(s.config.Port)))
	if err != nil {
		return err
	}
	s.listener = listener
	s.StopWaiter.Start(ctxIn, s)
	s.LaunchThread(func(ctx context.Context) {
		log.Info("http-rpc server listening", "addr", listener.Addr())
		if err := s.http.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http-rpc server failed", "err", err)
		}
	})
	s.LaunchThread(func(ctx context.Context) {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.http.Shutdown(shutdownCtx); err != nil {
			log.Warn("error shutting down http-rpc server", "err", err)
		}
		s.rpc.Stop()
	})
	return nil
}

func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}
