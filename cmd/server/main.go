package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/diancan-pos/api/internal/binstore"
	"github.com/diancan-pos/api/internal/config"
	"github.com/diancan-pos/api/internal/imagecache"
	"github.com/diancan-pos/api/internal/imghost"
	"github.com/diancan-pos/api/internal/model"
	"github.com/diancan-pos/api/internal/router"
	"github.com/diancan-pos/api/internal/service"
	"github.com/diancan-pos/api/internal/state"
	"github.com/diancan-pos/api/internal/syncer"
	"github.com/diancan-pos/api/internal/uploader"
	"github.com/diancan-pos/api/internal/ws"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cache, err := imagecache.Open(cfg.ImageDBPath, cfg.MaxImageBytes)
	if err != nil {
		log.Fatalf("Failed to open image cache: %v", err)
	}

	bin := binstore.New(cfg.BinURL, cfg.BinAccessKey)
	store := state.New()

	// Initial load. A dead or empty bin starts the device with a blank
	// document rather than refusing to boot.
	loadCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	store.LoadDocument(bin.Load(loadCtx, model.Document{}))
	cancel()

	hub := ws.NewHub()
	go hub.Run()
	store.SetNotify(func(event string) {
		hub.Broadcast(ws.Event{Type: event})
	})

	orderSvc := service.NewOrderService(store, bin, time.Now)
	menuSvc := service.NewMenuService(store, bin)

	host := imghost.New(cfg.ImageHostURL, cfg.ImageHostKey)
	uploads := uploader.New(host, cache, menuSvc)
	defer uploads.Stop()

	// Re-queue images that were cached but never made it to the cloud,
	// e.g. after a crash mid-upload.
	if recs, err := cache.List(); err == nil {
		for _, rec := range recs {
			if !rec.UploadedToCloud {
				uploads.Enqueue(rec.DishID, rec.Filename, rec.Payload)
			}
		}
	}

	reconciler := syncer.New(store, bin, cfg.PollInterval)
	go reconciler.Run(ctx)

	r := router.New(router.Deps{
		Store:      store,
		OrderSvc:   orderSvc,
		MenuSvc:    menuSvc,
		ImageCache: cache,
		Uploads:    uploads,
		Hub:        hub,
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: r,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("ERROR: server shutdown: %v", err)
		}
	}()

	log.Printf("Starting server on :%s (poll interval %s)", cfg.Port, cfg.PollInterval)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}

	// Flush the current document once on the way out so another device
	// polling the bin sees the latest state.
	flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := bin.Save(flushCtx, store.Document()); err != nil {
		log.Printf("ERROR: final push to bin failed: %v", err)
	}
}
