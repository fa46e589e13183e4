package http

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// Server: это обёртка над стандартным http.Server, общая для всех трёх сервисов
type Server struct {
	httpServer *http.Server
}

// NewServer создает и конфигурирует экземпляр Server
// timeout ограничивает чтение и запись; заголовки читаются не дольше timeout
func NewServer(port string, handler http.Handler, timeout time.Duration) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              port,
			Handler:           handler,
			ReadTimeout:       timeout,
			ReadHeaderTimeout: timeout,
			WriteTimeout:      timeout,
			IdleTimeout:       4 * timeout,
		},
	}
}

// Run запускает HTTP-сервер и блокирует до его остановки
// штатная остановка через Shutdown не считается ошибкой
func (s *Server) Run() error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Addr возвращает адрес, на котором слушает сервер
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Shutdown останавливает сервер, дожидаясь активных запросов
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
