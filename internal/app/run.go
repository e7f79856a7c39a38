package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"
)

// Serve runs the HTTP service, plus the inbox watcher when an inbox is
// configured, until ctx is done.
func (a *App) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.cfg.ListenAddr,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Printf("Application started, listening on http://%s", trimHostPrefix(a.cfg.ListenAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Println("Shutting down application")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if a.cfg.InboxDir != "" {
		g.Go(func() error {
			return a.Watch(gctx, a.cfg.InboxDir)
		})
	}

	return g.Wait()
}

// Watch splits every file that lands in dir and removes it from dir once it
// is processed. Files already present are handled first. Producers should
// move finished files into dir rather than write them there in place.
func (a *App) Watch(ctx context.Context, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create inbox: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	log.Printf("👀 [watch] watching %s", dir)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read inbox: %w", err)
	}
	for _, e := range entries {
		a.handleFile(ctx, filepath.Join(dir, e.Name()))
	}

	for {
		select {
		case <-ctx.Done():
			log.Println("[watch] stopped")
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				a.handleFile(ctx, event.Name)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("⚠️  [watch] %v", err)
		}
	}
}

// handleFile ingests one inbox file. Failed files stay in the inbox.
func (a *App) handleFile(ctx context.Context, path string) {
	if strings.HasPrefix(filepath.Base(path), ".") {
		return
	}
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return
	}

	log.Printf("[watch] received %s", path)

	res, err := a.IngestFile(ctx, path)
	if err != nil {
		log.Printf("❌ [watch] processing %s failed: %v", path, err)
		return
	}

	if err := os.Remove(path); err != nil {
		log.Printf("⚠️  [watch] failed to remove %s from inbox: %v", path, err)
		return
	}
	log.Printf("✅ [watch] %s -> upload %s", filepath.Base(path), res.ID)
}
