package server

import (
	"context"
	"net"
	"net/http"
)

type Server struct {
	HTTP *http.Server
}

// NewServer は handler を addr で提供するサーバーを作ります。
// リクエストのコンテキストは base から派生するため、base を止めると観戦接続も閉じます。
func NewServer(base context.Context, addr string, handler http.Handler) *Server {
	httpServer := &http.Server{
		Addr:        addr,
		Handler:     handler,
		BaseContext: func(net.Listener) context.Context { return base },
	}
	return &Server{
		HTTP: httpServer,
	}
}

func (s *Server) Serve() error                       { return s.HTTP.ListenAndServe() }
func (s *Server) Shutdown(ctx context.Context) error { return s.HTTP.Shutdown(ctx) }
func (s *Server) Close() error                       { return s.HTTP.Close() }
func (s *Server) Addr() string                       { return s.HTTP.Addr }
