// Command irmaseal-server exposes HTTP seal/unseal endpoints backed by
// the local keystore and an S3 bucket, using gorilla/mux for routing
// the way the teacher's internal/proxy handlers do, and following the
// same cobra-rooted, graceful-shutdown bootstrap as
// cmd/s3-encryption-proxy/main.go.
package main

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/privacybydesign/irmaseal-go/internal/config"
	"github.com/privacybydesign/irmaseal-go/internal/keystore"
	"github.com/privacybydesign/irmaseal-go/internal/logging"
	"github.com/privacybydesign/irmaseal-go/internal/metrics"
	"github.com/privacybydesign/irmaseal-go/internal/monitoring"
	"github.com/privacybydesign/irmaseal-go/internal/s3io"
	"github.com/privacybydesign/irmaseal-go/pkg/irmaseal"
	"github.com/privacybydesign/irmaseal-go/pkg/kem"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"

	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "irmaseal-server",
		Short: "Serve HTTP seal/unseal endpoints backed by S3 and a local keystore",
		RunE:  runServer,
	}
)

func init() {
	cobra.OnInitialize(func() { config.InitConfig(cfgFile) })
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to configuration file (YAML format)")
}

// server wires the codec, keystore, and S3 client into HTTP handlers.
type server struct {
	store   *keystore.Store
	s3      *s3io.Client
	scheme  kem.Scheme
	metrics metrics.Recorder
	bufCap  int
	logger  *logrus.Entry
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := logging.Configure(cfg.LogLevel, cfg.LogFormat); err != nil {
		return err
	}
	logger := logging.For("irmaseal-server")
	monitoring.SetServerInfo(version, commit, buildTime)

	store, err := keystore.Open(cfg.Keystore.KeysetPath, cfg.Keystore.DataDir)
	if err != nil {
		return fmt.Errorf("failed to open keystore: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s3Client, err := s3io.NewClient(ctx, cfg.S3)
	if err != nil {
		return fmt.Errorf("failed to create S3 client: %w", err)
	}

	srv := &server{
		store:   store,
		s3:      s3Client,
		scheme:  kem.NewECDHScheme(),
		metrics: metrics.NewRecorder(),
		bufCap:  cfg.StreamBufferSize,
		logger:  logger,
	}

	router := mux.NewRouter()
	router.Use(monitoring.HTTPMiddleware)
	router.HandleFunc("/seal/{attrType}/{attrValue}", srv.handleSeal).Methods(http.MethodPost)
	router.HandleFunc("/unseal/{attrType}/{attrValue}/{key}", srv.handleUnseal).Methods(http.MethodGet)

	httpServer := &http.Server{
		Addr:    ":8080",
		Handler: router,
	}

	monitorCtx, monitorCancel := context.WithCancel(context.Background())
	defer monitorCancel()
	if cfg.Monitoring.Enabled {
		monitor := monitoring.NewServer(&monitoring.Config{
			BindAddress: cfg.Monitoring.BindAddress,
			MetricsPath: cfg.Monitoring.MetricsPath,
		})
		go func() {
			if err := monitor.Start(monitorCtx); err != nil {
				logger.WithError(err).Error("monitoring server failed")
			}
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.WithField("address", httpServer.Addr).Info("starting irmaseal-server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("server failed")
		}
	}()

	sig := <-sigChan
	logger.WithField("signal", sig.String()).Info("received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("graceful shutdown did not complete cleanly")
	}
	monitorCancel()
	return nil
}

// handleSeal seals the request body for the identity in the path and
// uploads the envelope to S3 under a key it returns, honoring the
// identity's master public key supplied as a header so this demo
// server never needs to hold sealing secrets itself.
func (s *server) handleSeal(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	pkB64 := r.Header.Get("X-Master-Public-Key")
	pk, err := base64.StdEncoding.DecodeString(pkB64)
	if err != nil {
		http.Error(w, "missing or invalid X-Master-Public-Key header", http.StatusBadRequest)
		return
	}

	attrValue := vars["attrValue"]
	identity := &irmaseal.Identity{
		Timestamp:      uint64(time.Now().Unix()),
		AttributeType:  vars["attrType"],
		AttributeValue: &attrValue,
	}

	sealer, err := irmaseal.NewSealerWithCapacity(identity, kem.PublicKey(pk), s.scheme, rand.Reader, s.bufCap)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to initialize sealer: %v", err), http.StatusInternalServerError)
		return
	}
	sealer = sealer.WithMetrics(s.metrics)

	pr, pw := io.Pipe()
	go func() {
		pw.CloseWithError(sealer.Seal(r.Context(), r.Body, pw))
	}()

	key := fmt.Sprintf("%s/%s/%d.irmaseal", identity.AttributeType, attrValue, identity.Timestamp)
	if err := s.s3.PutSealed(r.Context(), key, pr); err != nil {
		http.Error(w, fmt.Sprintf("failed to store envelope: %v", err), http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, key)
}

// handleUnseal fetches the envelope at the given S3 key, resolves a
// cached UserSecretKey for the path identity, and streams plaintext
// back as it is decrypted. The trailing MAC is checked only after the
// body has been sent; a failure is logged, not reported to the client.
func (s *server) handleUnseal(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	attrValue := vars["attrValue"]
	identity := irmaseal.Identity{
		AttributeType:  vars["attrType"],
		AttributeValue: &attrValue,
	}

	usk, err := s.store.Get(identity)
	if err != nil {
		http.Error(w, "no cached user secret key for this identity", http.StatusNotFound)
		return
	}

	body, err := s.s3.GetSealed(r.Context(), vars["key"])
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to fetch envelope: %v", err), http.StatusNotFound)
		return
	}
	defer body.Close()

	_, opener, err := irmaseal.NewOpenerWithCapacity(body, s.scheme, s.bufCap)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to parse envelope header: %v", err), http.StatusBadRequest)
		return
	}
	opener = opener.WithMetrics(s.metrics)

	valid, err := opener.Unseal(r.Context(), usk, w)
	if err != nil {
		s.logger.WithError(err).Error("unseal failed mid-stream")
		return
	}
	if !valid {
		s.logger.Warn("MAC verification failed; response body already streamed is not authenticated")
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
