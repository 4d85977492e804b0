package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"github.com/inkpost/inkpost/internal/cache"
	"github.com/inkpost/inkpost/internal/compress"
	"github.com/inkpost/inkpost/internal/config"
	"github.com/inkpost/inkpost/internal/jobs"
	"github.com/inkpost/inkpost/internal/markdown"
	"github.com/inkpost/inkpost/internal/notify"
	"github.com/inkpost/inkpost/internal/service"
	"github.com/inkpost/inkpost/internal/store"
)

// Server represents the server
type Server struct {
	httpPort string
}

// NewServer creates a new server
func NewServer(httpPort string) *Server {
	return &Server{
		httpPort: httpPort,
	}
}

// Start starts the server
func (s *Server) Start() {
	if err := Start(s.httpPort); err != nil {
		logrus.Fatalf("error starting server: %v", err)
	}
}

// Start wires the storage, caches, services and background sweeps together and
// serves the HTTP API until interrupted.
func Start(httpPort string) error {
	httpPort = ":" + httpPort

	cnf := config.LoadConfig()
	rdb := config.GetDb(cnf)

	rl, err := net.Listen("tcp", httpPort)
	if err != nil {
		return err
	}

	postStore := store.NewGormStore(rdb)
	if err := postStore.Migrate(); err != nil {
		return err
	}

	redis := cache.NewRedis(cnf.RedisAddr, cnf.RedisPassword)
	versionCache := cache.NewVersionCache(redis)
	presence := cache.NewSessionCache(redis)

	var notifier notify.Notifier
	if cnf.KafkaBrokers != "" {
		kafkaNotifier, err := notify.NewKafkaNotifier(cnf.KafkaBrokers, cnf.KafkaTopic)
		if err != nil {
			return err
		}
		defer kafkaNotifier.Close()
		notifier = kafkaNotifier
	} else {
		logrus.Info("no kafka brokers configured, publish events are logged only")
		notifier = notify.NewLogNotifier()
	}

	codec := compress.ForName(cnf.Compression)
	renderer := markdown.NewRenderer()

	versionService := service.NewVersionService(codec, postStore, versionCache)
	postService := service.NewPostService(postStore, renderer, versionCache, presence)
	sessionService := service.NewSessionService(postStore, presence, cnf.SessionTTL)
	publishService := service.NewPublishService(postStore, notifier, cnf.SiteURL, cnf.SitemapPath, cnf.QueueMaxRetries)

	executor := jobs.NewTaskExecutor([]jobs.CronJob{
		jobs.NewPublishSweep(publishService, cnf.PublishSweep),
		jobs.NewSessionCleanup(sessionService, cnf.SessionSweep),
	})
	executor.Run()
	defer executor.Stop()

	if cnf.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery(), RequestTime())

	v1 := router.Group("/v1", Auth(cnf.JWTSecret))
	NewPostHandler(postService).Register(v1)
	NewVersionHandler(versionService).Register(v1)
	NewSessionHandler(sessionService).Register(v1)
	NewPublishHandler(publishService).Register(v1)

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"}, // All origins are allowed
		AllowedMethods:   []string{"GET", "POST", "DELETE", "PUT"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-User-ID"},
		AllowCredentials: true,
	})

	restServer := &http.Server{
		Addr:    httpPort,
		Handler: c.Handler(router),
	}

	// make sure to wait for the server to stop before exiting
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		logrus.Info("starting http server on: ", httpPort)
		if err := restServer.Serve(rl); err != nil {
			if !errors.Is(err, http.ErrServerClosed) {
				logrus.Errorf("error starting http server: %v", err)
			}
		}
		logrus.Infof("http server stopped")
	}()

	time.Sleep(1 * time.Second)
	logrus.Infof("Press Ctrl+C to stop the server")

	// listen for interrupt signal to gracefully shut down the server
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, unix.SIGTERM, unix.SIGINT, unix.SIGTSTP)
	<-sigs
	// clean Ctrl+C output
	fmt.Println()

	if err := restServer.Shutdown(context.Background()); err != nil {
		logrus.Errorf("error stopping http server: %v", err)
	}

	wg.Wait()

	return nil
}
