// Copyright (c) 2026 SiChat and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sichat-io/matrix-server/internal/lifecycle"

	"github.com/stretchr/testify/assert"
)

// startRuntime runs rt in the background and reports the bound
// address once the listener is up.
func startRuntime(t *testing.T, rt *Runtime) (string, <-chan error) {
	t.Helper()

	addrCh := make(chan net.Addr, 1)
	listen := rt.listen
	rt.listen = func(network, addr string) (net.Listener, error) {
		ls, err := listen(network, addr)
		if err != nil {
			return nil, err
		}
		addrCh <- ls.Addr()
		return ls, nil
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- rt.Run(context.Background())
	}()

	select {
	case addr := <-addrCh:
		return addr.String(), errCh
	case err := <-errCh:
		t.Fatalf("server exited before listening: %v", err)
		return "", nil
	}
}

func TestRuntime_Run(t *testing.T) {
	t.Run("will fail fast", func(t *testing.T) {
		t.Run("if the address can not be bound", func(t *testing.T) {
			listenErr := errors.New("address in use")

			rt := NewRuntime(http.NewServeMux(), ListenOn("127.0.0.1", 0))
			rt.listen = func(network, addr string) (net.Listener, error) {
				return nil, listenErr
			}

			err := rt.Run(context.Background())
			if !assert.Equal(t, listenErr, err) {
				return
			}
		})

		t.Run("if the tls material can not be loaded", func(t *testing.T) {
			rt := NewRuntime(
				http.NewServeMux(),
				ListenOn("127.0.0.1", 0),
				TLS("testdata/no-such-cert.pem", "testdata/no-such-key.pem"),
			)

			err := rt.Run(context.Background())
			if !assert.NotNil(t, err) {
				return
			}
		})
	})

	t.Run("will serve requests", func(t *testing.T) {
		t.Run("if the handler answers", func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("/ping", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})

			rt := NewRuntime(mux, ListenOn("127.0.0.1", 0), IdleShutdown(time.Second, 0))
			addr, errCh := startRuntime(t, rt)

			resp, err := http.Get(fmt.Sprintf("http://%s/ping", addr))
			if !assert.Nil(t, err) {
				return
			}
			defer resp.Body.Close()
			if !assert.Equal(t, http.StatusOK, resp.StatusCode) {
				return
			}

			err = rt.Handle().GracefulShutdown(context.Background(), time.Second)
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Nil(t, <-errCh) {
				return
			}
		})
	})

	t.Run("will stop on its own", func(t *testing.T) {
		t.Run("if no connection is open past the idle threshold", func(t *testing.T) {
			rt := NewRuntime(
				http.NewServeMux(),
				ListenOn("127.0.0.1", 0),
				IdleShutdown(10*time.Millisecond, 20*time.Millisecond),
			)
			_, errCh := startRuntime(t, rt)

			select {
			case err := <-errCh:
				if !assert.Nil(t, err) {
					return
				}
			case <-time.After(5 * time.Second):
				t.Error("server did not stop on idle")
				return
			}

			if !assert.Equal(t, PhaseStopped, rt.Handle().Phase()) {
				return
			}
		})
	})

	t.Run("will keep running", func(t *testing.T) {
		t.Run("if a connection is open across the idle threshold", func(t *testing.T) {
			rt := NewRuntime(
				http.NewServeMux(),
				ListenOn("127.0.0.1", 0),
				IdleShutdown(10*time.Millisecond, 50*time.Millisecond),
			)
			addr, errCh := startRuntime(t, rt)

			conn, err := net.Dial("tcp", addr)
			if !assert.Nil(t, err) {
				return
			}

			// the open connection resets the idle clock on every check
			select {
			case runErr := <-errCh:
				t.Errorf("server stopped with an open connection: %v", runErr)
				_ = conn.Close()
				return
			case <-time.After(200 * time.Millisecond):
			}

			_ = conn.Close()

			select {
			case runErr := <-errCh:
				if !assert.Nil(t, runErr) {
					return
				}
			case <-time.After(5 * time.Second):
				t.Error("server did not stop after the connection closed")
			}
		})
	})

	t.Run("will cut a request past the grace period", func(t *testing.T) {
		t.Run("if it does not finish in time", func(t *testing.T) {
			inHandler := make(chan struct{})

			mux := http.NewServeMux()
			mux.HandleFunc("/stuck", func(w http.ResponseWriter, r *http.Request) {
				close(inHandler)
				<-r.Context().Done()
			})

			rt := NewRuntime(mux, ListenOn("127.0.0.1", 0), IdleShutdown(time.Second, 0))
			addr, errCh := startRuntime(t, rt)

			respCh := make(chan error, 1)
			go func() {
				resp, err := http.Get(fmt.Sprintf("http://%s/stuck", addr))
				if resp != nil {
					resp.Body.Close()
				}
				respCh <- err
			}()

			<-inHandler

			err := rt.Handle().GracefulShutdown(context.Background(), 50*time.Millisecond)
			if !assert.Nil(t, err) {
				return
			}
			if !assert.NotNil(t, <-respCh) {
				return
			}
			if !assert.Nil(t, <-errCh) {
				return
			}
		})
	})

	t.Run("will wait for in-flight requests", func(t *testing.T) {
		t.Run("if they finish within the grace period", func(t *testing.T) {
			inHandler := make(chan struct{})
			release := make(chan struct{})

			mux := http.NewServeMux()
			mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
				close(inHandler)
				<-release
				w.WriteHeader(http.StatusOK)
			})

			rt := NewRuntime(mux, ListenOn("127.0.0.1", 0), IdleShutdown(time.Second, 0))
			addr, errCh := startRuntime(t, rt)

			respCh := make(chan *http.Response, 1)
			go func() {
				resp, err := http.Get(fmt.Sprintf("http://%s/slow", addr))
				if err != nil {
					respCh <- nil
					return
				}
				respCh <- resp
			}()

			<-inHandler

			shutdownDone := make(chan error, 1)
			go func() {
				shutdownDone <- rt.Handle().GracefulShutdown(context.Background(), 5*time.Second)
			}()

			time.Sleep(10 * time.Millisecond)
			close(release)

			resp := <-respCh
			if !assert.NotNil(t, resp) {
				return
			}
			defer resp.Body.Close()
			if !assert.Equal(t, http.StatusOK, resp.StatusCode) {
				return
			}

			if !assert.Nil(t, <-shutdownDone) {
				return
			}
			if !assert.Nil(t, <-errCh) {
				return
			}
		})
	})
}

func TestHandle(t *testing.T) {
	t.Run("will run the drain hooks exactly once", func(t *testing.T) {
		t.Run("if graceful and immediate shutdown race", func(t *testing.T) {
			var drains atomic.Int64

			rt := NewRuntime(
				http.NewServeMux(),
				ListenOn("127.0.0.1", 0),
				IdleShutdown(time.Second, 0),
				OnDrain(lifecycle.HookFunc(func(ctx context.Context) error {
					drains.Add(1)
					return nil
				})),
			)
			_, errCh := startRuntime(t, rt)

			h := rt.Handle()
			done := make(chan struct{}, 2)
			go func() {
				_ = h.GracefulShutdown(context.Background(), time.Second)
				done <- struct{}{}
			}()
			go func() {
				_ = h.Shutdown(context.Background())
				done <- struct{}{}
			}()

			<-done
			<-done
			if !assert.Nil(t, <-errCh) {
				return
			}
			if !assert.Equal(t, int64(1), drains.Load()) {
				return
			}
		})
	})

	t.Run("will track open connections", func(t *testing.T) {
		t.Run("if a client holds a connection open", func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("/ping", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})

			rt := NewRuntime(mux, ListenOn("127.0.0.1", 0), IdleShutdown(time.Second, 0))
			addr, errCh := startRuntime(t, rt)

			conn, err := net.Dial("tcp", addr)
			if !assert.Nil(t, err) {
				return
			}
			defer conn.Close()

			// ConnState fires asynchronously on accept
			if !assert.Eventually(t, func() bool {
				return rt.Handle().ConnCount() == 1
			}, time.Second, 10*time.Millisecond) {
				return
			}

			_ = conn.Close()
			if !assert.Eventually(t, func() bool {
				return rt.Handle().ConnCount() == 0
			}, time.Second, 10*time.Millisecond) {
				return
			}

			_ = rt.Handle().Shutdown(context.Background())
			if !assert.Nil(t, <-errCh) {
				return
			}
		})
	})
}

func TestPhase(t *testing.T) {
	t.Run("will render a stable name", func(t *testing.T) {
		t.Run("if formatted as a string", func(t *testing.T) {
			if !assert.Equal(t, "running", PhaseRunning.String()) {
				return
			}
			if !assert.Equal(t, "draining", PhaseDraining.String()) {
				return
			}
			if !assert.Equal(t, "stopped", PhaseStopped.String()) {
				return
			}
		})
	})
}
