// Package server wires the plantops stores, services and transports together
// and runs them until shutdown.
package server

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/dmitrijs2005/plantops/internal/clock"
	"github.com/dmitrijs2005/plantops/internal/logging"
	"github.com/dmitrijs2005/plantops/internal/server/authz"
	"github.com/dmitrijs2005/plantops/internal/server/config"
	"github.com/dmitrijs2005/plantops/internal/server/httpapi"
	"github.com/dmitrijs2005/plantops/internal/server/scheduler"
	"github.com/dmitrijs2005/plantops/internal/server/services"

	gs "github.com/dmitrijs2005/plantops/internal/server/grpc"
)

type App struct {
	config    *config.Config
	logger    logging.Logger
	stores    *Stores
	http      *httpapi.Server
	grpc      *gs.GRPCServer
	scheduler *scheduler.Scheduler
}

func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	clk := clock.Real{}

	loc, err := c.Location()
	if err != nil {
		return nil, err
	}

	stores, err := OpenStores(ctx, c, clk)
	if err != nil {
		return nil, err
	}

	gen, err := NewGenerator(stores, c, logger)
	if err != nil {
		stores.Close(ctx)
		return nil, err
	}

	resolver := authz.NewResolver(stores.Repos.Users(stores.DB))

	plantService := services.NewPlantService(stores.DB, stores.Repos, resolver)

	h := httpapi.NewHandler(logger)
	h.Users = services.NewUserService(stores.DB, stores.Repos, resolver)
	h.Plants = plantService
	h.TaskMasters = services.NewTaskMasterService(resolver, stores.TaskMasters, plantService, clk)
	h.Instances = services.NewTaskInstanceService(resolver, stores.TaskMasters, stores.Instances, clk, loc)
	h.Attachments = services.NewAttachmentService(resolver, stores.Instances, c, clk)
	h.Generation = services.NewGenerationService(resolver, gen, clk)

	router := httpapi.NewRouter(h, httpapi.RouterConfig{
		SecretKey:      []byte(c.SecretKey),
		RateLimitRPS:   c.RateLimitRPS,
		RateLimitBurst: c.RateLimitBurst,
	})

	probes := map[string]gs.Probe{
		"postgres": stores.DB.PingContext,
		"mongo": func(ctx context.Context) error {
			return stores.Mongo.Ping(ctx, readpref.Primary())
		},
	}
	if stores.Redis != nil {
		probes["redis"] = func(ctx context.Context) error {
			return stores.Redis.Ping(ctx).Err()
		}
	}

	return &App{
		config:    c,
		logger:    logger,
		stores:    stores,
		http:      httpapi.NewServer(c.EndpointAddrHTTP, router, logger),
		grpc:      gs.NewGRPCServer(c.EndpointAddrGRPC, logger, probes),
		scheduler: scheduler.New(gen, clk, c.GenerationInterval, logger),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// run starts one component; its failure brings the whole app down.
func (app *App) run(ctx context.Context, cancelFunc context.CancelFunc, name string, fn func(context.Context) error) {
	if err := fn(ctx); err != nil {
		app.logger.Error(ctx, "component failed", "component", name, "error", err)
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	components := map[string]func(context.Context) error{
		"http":      app.http.Run,
		"grpc":      app.grpc.Run,
		"scheduler": app.scheduler.Run,
	}
	for name, fn := range components {
		name, fn := name, fn
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.run(ctx, cancelFunc, name, fn)
		}()
	}

	wg.Wait()

	app.stores.Close(ctx)
	app.logger.Info(ctx, "App stopped")
}
