package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/psavelis/safelynx/internal/blobstore"
	"github.com/psavelis/safelynx/internal/blobstore/fsstore"
	"github.com/psavelis/safelynx/internal/blobstore/miniostore"
	"github.com/psavelis/safelynx/internal/capture"
	"github.com/psavelis/safelynx/internal/config"
	"github.com/psavelis/safelynx/internal/ingest"
	"github.com/psavelis/safelynx/internal/observability"
	"github.com/psavelis/safelynx/internal/queue"
)

// frameKeyPrefix namespaces raw captured frames in the blob store,
// separate from the thumbnails and snapshots the vision worker derives
// from them.
const frameKeyPrefix = "frames/"

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	observability.SetupLogger(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting capture service", "cameras", len(cfg.Cameras))

	blobs, err := newBlobStore(cfg)
	if err != nil {
		slog.Error("init blob store", "error", err)
		os.Exit(1)
	}

	producer, err := queue.NewProducer(cfg.NATS.URL)
	if err != nil {
		slog.Error("connect to nats", "error", err)
		os.Exit(1)
	}
	defer producer.Close()

	if err := producer.EnsureStreams(context.Background()); err != nil {
		slog.Warn("ensure nats streams", "error", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var loops []*capture.Loop
	for _, camCfg := range cfg.Cameras {
		if !camCfg.IsEnabled {
			continue
		}

		streamURL, ok := resolveStreamURL(camCfg)
		if !ok {
			slog.Warn("skipping camera with no pullable stream source",
				"camera_id", camCfg.ID, "type", camCfg.Type)
			continue
		}

		if camCfg.Type == "youtube" {
			resolved, err := ingest.ResolveYouTubeURL(ctx, streamURL)
			if err != nil {
				slog.Error("resolve youtube url", "camera_id", camCfg.ID, "error", err)
				continue
			}
			streamURL = resolved
		}

		loop := capture.New(capture.Config{
			CameraID:  camCfg.ID,
			StreamURL: streamURL,
			FPS:       camCfg.FPS,
			Width:     camCfg.Width,
		})

		if err := loop.Start(ctx); err != nil {
			slog.Error("start capture loop", "camera_id", camCfg.ID, "error", err)
			continue
		}
		loops = append(loops, loop)
		observability.ActiveCameras.Inc()

		go publishFrames(ctx, loop, camCfg.ID, blobs, producer)
	}

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		})
		addr := fmt.Sprintf(":%d", cfg.Server.MetricsPort)
		slog.Info("capture metrics listening", "addr", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			slog.Error("metrics server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down capture service...")
	cancel()
	for _, loop := range loops {
		loop.Stop()
	}
	time.Sleep(1 * time.Second)
	slog.Info("capture service stopped")
}

// resolveStreamURL turns a statically configured camera into the source
// argument FFmpeg expects. Browser-sourced cameras push frames through the
// excluded HTTP ingress surface rather than being pulled here.
func resolveStreamURL(cam config.CameraConfig) (string, bool) {
	switch cam.Type {
	case "rtsp", "youtube":
		return cam.RTSPURL, cam.RTSPURL != ""
	case "builtin", "usb":
		if cam.DeviceID == "" {
			return "/dev/video0", true
		}
		return cam.DeviceID, true
	default:
		return "", false
	}
}

// publishFrames uploads every frame the loop produces to the blob store
// and publishes a reference-only FrameTask, so NATS messages stay small
// regardless of resolution.
func publishFrames(ctx context.Context, loop *capture.Loop, cameraID uuid.UUID, blobs blobstore.Store, producer *queue.Producer) {
	sub := loop.Subscribe()
	defer loop.Unsubscribe(sub)

	for frame := range sub.Frames() {
		key := fmt.Sprintf("%s%s/%s.jpg", frameKeyPrefix, cameraID, uuid.New())

		if err := blobs.Put(ctx, key, frame.FrameData, "image/jpeg"); err != nil {
			slog.Warn("store captured frame", "camera_id", cameraID, "error", err)
			continue
		}

		task := queue.FrameTask{
			CameraID:    cameraID,
			FrameKey:    key,
			FrameNumber: frame.FrameNumber,
			TimestampMs: frame.TimestampMs,
		}

		if err := producer.PublishFrame(ctx, cameraID.String(), task); err != nil {
			slog.Warn("publish frame task", "camera_id", cameraID, "error", err)
			_ = blobs.Delete(ctx, key)
		}
	}
}

func newBlobStore(cfg *config.Config) (blobstore.Store, error) {
	switch cfg.Storage.Backend {
	case "minio":
		store, err := miniostore.New(miniostore.Config{
			Endpoint:  cfg.Storage.MinIO.Endpoint,
			AccessKey: cfg.Storage.MinIO.AccessKey,
			SecretKey: cfg.Storage.MinIO.SecretKey,
			Bucket:    cfg.Storage.MinIO.Bucket,
			UseSSL:    cfg.Storage.MinIO.UseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("init minio store: %w", err)
		}
		if err := store.EnsureBucket(context.Background()); err != nil {
			return nil, fmt.Errorf("ensure minio bucket: %w", err)
		}
		return store, nil
	default:
		store, err := fsstore.New(cfg.Storage.LocalBaseDir)
		if err != nil {
			return nil, fmt.Errorf("init fs store: %w", err)
		}
		return store, nil
	}
}
