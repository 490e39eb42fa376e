package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"image"
	_ "image/jpeg"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/psavelis/safelynx/internal/blobstore"
	"github.com/psavelis/safelynx/internal/blobstore/fsstore"
	"github.com/psavelis/safelynx/internal/blobstore/miniostore"
	"github.com/psavelis/safelynx/internal/config"
	"github.com/psavelis/safelynx/internal/domain/entity"
	"github.com/psavelis/safelynx/internal/eventbus"
	"github.com/psavelis/safelynx/internal/matcher"
	"github.com/psavelis/safelynx/internal/observability"
	"github.com/psavelis/safelynx/internal/orchestrator"
	"github.com/psavelis/safelynx/internal/queue"
	"github.com/psavelis/safelynx/internal/recording"
	"github.com/psavelis/safelynx/internal/storage/postgres"
	"github.com/psavelis/safelynx/internal/storagequota"
	"github.com/psavelis/safelynx/internal/vision"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	observability.SetupLogger(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("starting safelynx detection worker",
		"workers", cfg.Vision.WorkerCount,
		"cpu_cores", runtime.NumCPU(),
	)

	ort.SetSharedLibraryPath(getONNXLibPath())
	if err := ort.InitializeEnvironment(); err != nil {
		slog.Error("init onnx runtime", "error", err)
		os.Exit(1)
	}
	defer ort.DestroyEnvironment()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		slog.Error("connect to postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	profiles := postgres.NewProfileRepo(pool)
	sightings := postgres.NewSightingRepo(pool)
	recordings := postgres.NewRecordingRepo(pool)

	blobs, err := newBlobStore(cfg)
	if err != nil {
		slog.Error("init blob store", "error", err)
		os.Exit(1)
	}

	detector, err := vision.NewDetector(
		filepath.Join(cfg.Vision.ModelsDir, cfg.Vision.DetectorModel),
		cfg.Detection.MinConfidence,
		nil,
	)
	if err != nil {
		slog.Error("load detector model", "error", err)
		os.Exit(1)
	}
	defer detector.Close()
	detectorWorker := vision.NewDetectorWorker(detector, cfg.Vision.DetectorQueueLen)
	defer detectorWorker.Close()

	embedder, err := vision.NewEmbedder(
		filepath.Join(cfg.Vision.ModelsDir, cfg.Vision.EmbedderModel),
		nil,
	)
	if err != nil {
		slog.Error("load embedder model", "error", err)
		os.Exit(1)
	}
	defer embedder.Close()
	embedderSvc := vision.NewEmbedderService(embedder)

	var attrs orchestrator.Attributor
	if cfg.Vision.EnableAttributes {
		predictor, err := vision.NewAttributePredictor(
			filepath.Join(cfg.Vision.ModelsDir, cfg.Vision.AttributeModel),
			nil,
		)
		if err != nil {
			slog.Warn("load attribute model, continuing without attributes", "error", err)
		} else {
			defer predictor.Close()
			attrs = vision.NewAttributeService(predictor)
		}
	}

	cache := matcher.New(profiles, cfg.Detection.MatchThreshold)
	if err := cache.Load(ctx); err != nil {
		slog.Error("warm matcher cache", "error", err)
		os.Exit(1)
	}
	observability.MatcherCacheSize.Set(float64(cache.CacheSize()))

	bus := eventbus.New()

	detectionSvc := orchestrator.New(profiles, sightings, cache, bus, blobs, attrs, orchestrator.Config{
		MinConfidence:        cfg.Detection.MinConfidence,
		MatchThreshold:       cfg.Detection.MatchThreshold,
		SightingCooldownSecs: cfg.Detection.SightingCooldownSecs,
	})

	recordingSvc := recording.New(recordings, bus, recording.Config{
		DetectionTriggered: cfg.Recording.DetectionTriggered,
		PreTriggerSecs:     cfg.Recording.PreTriggerSecs,
		PostTriggerSecs:    cfg.Recording.PostTriggerSecs,
		MaxSegmentSecs:     cfg.Recording.MaxSegmentSecs,
	})

	quotaMgr := storagequota.New(recordings, blobs, storagequota.Config{
		MaxStorageBytes:       cfg.Storage.MaxStorageBytes,
		AutoCleanup:           cfg.Storage.AutoCleanup,
		CleanupTargetFraction: storagequota.DefaultConfig().CleanupTargetFraction,
	})

	producer, err := queue.NewProducer(cfg.NATS.URL)
	if err != nil {
		slog.Error("connect to nats producer", "error", err)
		os.Exit(1)
	}
	defer producer.Close()
	if err := producer.EnsureStreams(ctx); err != nil {
		slog.Warn("ensure nats streams", "error", err)
	}
	go queue.RelayEvents(ctx, bus, producer)

	consumer, err := queue.NewConsumer(cfg.NATS.URL)
	if err != nil {
		slog.Error("create consumer", "error", err)
		os.Exit(1)
	}
	defer consumer.Close()

	handler := newFrameHandler(blobs, detectorWorker, embedderSvc, detectionSvc, recordingSvc, cfg)

	err = consumer.ConsumeFrames(ctx, "vision-workers", func(ctx context.Context, msg jetstream.Msg) error {
		var task queue.FrameTask
		if err := json.Unmarshal(msg.Data(), &task); err != nil {
			slog.Error("unmarshal frame task", "error", err)
			return nil
		}
		if err := handler(ctx, task); err != nil {
			return fmt.Errorf("process frame %d for camera %s: %w", task.FrameNumber, task.CameraID, err)
		}
		return nil
	}, cfg.Vision.WorkerCount)
	if err != nil {
		slog.Error("start frame consumer", "error", err)
		os.Exit(1)
	}

	go runTimeoutSweeper(ctx, recordingSvc)
	go runQuotaSweeper(ctx, quotaMgr)
	go runMetricsServer(ctx, cfg.Server.MetricsPort, producer)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down worker...")
	cancel()
	time.Sleep(2 * time.Second)
	slog.Info("worker stopped")
}

// frameHandler processes one queued FrameTask: fetch the stored JPEG,
// run detection, extract embeddings per face, feed the orchestrator and
// the detection-triggered recording service.
type frameHandler func(ctx context.Context, task queue.FrameTask) error

func newFrameHandler(
	blobs blobstore.Store,
	detectorWorker *vision.DetectorWorker,
	embedderSvc *vision.EmbedderService,
	detectionSvc *orchestrator.Service,
	recordingSvc *recording.Service,
	cfg *config.Config,
) frameHandler {
	return func(ctx context.Context, task queue.FrameTask) error {
		jpegData, err := blobs.Get(ctx, task.FrameKey)
		if err != nil {
			return fmt.Errorf("fetch frame %s: %w", task.FrameKey, err)
		}

		img, _, err := image.Decode(bytes.NewReader(jpegData))
		if err != nil {
			return fmt.Errorf("decode frame %s: %w", task.FrameKey, err)
		}

		bounds := img.Bounds()
		width, height := bounds.Dx(), bounds.Dy()
		pixels := imageToPackedRGB(img)

		start := time.Now()
		results, ok := detectorWorker.Submit(ctx, pixels, width, height)
		observability.InferenceDuration.WithLabelValues("detect").Observe(time.Since(start).Seconds())
		if !ok {
			observability.DetectorQueueDrops.Inc()
			return nil
		}

		frame := entity.NewFrameDetections(task.CameraID, task.FrameNumber, task.TimestampMs)
		frame.SetFrameData(jpegData)

		for _, r := range results {
			if r.Confidence < cfg.Detection.MinConfidence {
				continue
			}
			det := entity.NewDetection(r.BoundingBox, r.Confidence)

			embedStart := time.Now()
			if embedding, ok := embedderSvc.Extract(jpegData, r.BoundingBox); ok {
				det.SetEmbedding(embedding)
			}
			observability.InferenceDuration.WithLabelValues("embed").Observe(time.Since(embedStart).Seconds())

			frame.AddDetection(det)
		}

		if _, err := detectionSvc.ProcessFrame(ctx, frame, nil); err != nil {
			return fmt.Errorf("process frame detections: %w", err)
		}
		if frame.HasFaces() {
			if err := recordingSvc.OnDetection(ctx, task.CameraID); err != nil {
				slog.Warn("start detection-triggered recording", "camera_id", task.CameraID, "error", err)
			}
		}

		return nil
	}
}

// imageToPackedRGB converts a decoded image into the w*h*3 packed RGB
// layout decodePixelBuffer expects, matching the byte order a raw camera
// frame would carry.
func imageToPackedRGB(img image.Image) []byte {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	out := make([]byte, width*height*3)

	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			out[i] = byte(r >> 8)
			out[i+1] = byte(g >> 8)
			out[i+2] = byte(b >> 8)
			i += 3
		}
	}
	return out
}

// runTimeoutSweeper periodically closes recording sessions whose
// post-trigger buffer or max segment duration has elapsed, since nothing
// else drives CheckTimeout for cameras that have gone quiet.
func runTimeoutSweeper(ctx context.Context, svc *recording.Service) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, rec := range svc.AllActiveRecordings() {
				if _, err := svc.CheckTimeout(ctx, rec.CameraID); err != nil {
					slog.Warn("check recording timeout", "camera_id", rec.CameraID, "error", err)
				}
			}
			observability.ActiveRecordingSessions.Set(float64(len(svc.AllActiveRecordings())))
		}
	}
}

// runQuotaSweeper periodically enforces the configured storage quota.
func runQuotaSweeper(ctx context.Context, mgr *storagequota.Manager) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := mgr.CheckAndCleanup(ctx); err != nil {
				slog.Warn("storage quota cleanup", "error", err)
			}
		}
	}
}

// runMetricsServer serves /metrics and /healthz, and periodically
// samples the FRAMES stream depth into a gauge.
func runMetricsServer(ctx context.Context, port int, producer *queue.Producer) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		slog.Info("worker metrics listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server error", "error", err)
		}
	}()

	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			_ = srv.Close()
			return
		case <-ticker.C:
			depth, err := producer.QueueDepth(ctx)
			if err == nil {
				observability.FramesQueueDepth.Set(float64(depth))
			}
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

// getONNXLibPath returns the ONNX Runtime shared library path based on
// the operating system.
func getONNXLibPath() string {
	switch runtime.GOOS {
	case "windows":
		return "onnxruntime.dll"
	case "linux":
		return "libonnxruntime.so"
	case "darwin":
		return "libonnxruntime.dylib"
	default:
		return "onnxruntime.dll"
	}
}
