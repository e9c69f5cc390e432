package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	sim "github.com/outbreak-sim/outbreak-sim/sim"
)

// maxFormBytes caps the size of a /simulate request body.
const maxFormBytes = 1 << 20

var (
	serveAddr    string // Listen address
	serveEnvFile string // Optional .env file
)

// serveCmd exposes the simulation over HTTP.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve POST /simulate over HTTP",
	Run: func(cmd *cobra.Command, args []string) {
		env, err := LoadEnvConfig(serveEnvFile)
		if err != nil {
			logrus.Fatalf("Invalid environment: %v", err)
		}
		setLogLevel(env.LogLevel)
		if cmd.Flags().Changed("addr") {
			env.Addr = serveAddr
		}

		svc, err := sim.NewService(env.ServiceConfig())
		if err != nil {
			logrus.Fatalf("Invalid integrator configuration: %v", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if err := listenAndServe(ctx, env.Addr, NewRouter(svc)); err != nil {
			logrus.Fatalf("Server failed: %v", err)
		}
		logrus.Info("Server stopped.")
	},
}

// NewRouter wires the HTTP routes to svc.
func NewRouter(svc *sim.Service) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", healthHandler).Methods(http.MethodGet)
	r.Handle("/simulate", simulateHandler(svc)).Methods(http.MethodPost)
	return r
}

func listenAndServe(ctx context.Context, addr string, router http.Handler) error {
	logged := handlers.LoggingHandler(logrus.StandardLogger().Writer(), router)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(logged),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logrus.Infof("Listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// errorResponse is the body returned for rejected or failed simulations.
type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func simulateHandler(svc *sim.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", reqID)
		log := logrus.WithField("request", reqID)

		r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
		if err := r.ParseForm(); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed form body: " + err.Error()})
			return
		}

		res, err := svc.SimulateForm(r.PostForm)
		if err != nil {
			var ve *sim.ValidationError
			if errors.As(err, &ve) {
				log.Debugf("rejected: %v", err)
				writeJSON(w, http.StatusBadRequest, errorResponse{Error: ve.Error(), Field: ve.Field})
				return
			}
			log.Errorf("simulation failed: %v", err)
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal simulation error"})
			return
		}
		log.WithField("run", res.RunID).Debugf("simulated %d points", len(res.Time))
		writeJSON(w, http.StatusOK, res)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.Warnf("writing response: %v", err)
	}
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", defaultAddr, "Listen address (overrides OUTBREAK_ADDR)")
	serveCmd.Flags().StringVar(&serveEnvFile, "env-file", ".env", "Optional .env file with OUTBREAK_* settings")
}
