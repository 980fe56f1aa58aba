package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/meshvault/meshvault-backend/internal/pkg/logger"
)

const defaultRenderSessionTTL = 5 * time.Minute

// RenderWorker consumes fire-and-forget render dispatches from the upload
// path. Each asset id is processed once under the session ceiling; failures
// are logged and dropped, never retried.
type RenderWorker struct {
	log        *logger.Logger
	render     RenderService
	queue      chan uuid.UUID
	sessionTTL time.Duration
}

func NewRenderWorker(log *logger.Logger, render RenderService, queueSize int, sessionTTL time.Duration) *RenderWorker {
	if queueSize < 1 {
		queueSize = 64
	}
	if sessionTTL <= 0 {
		sessionTTL = defaultRenderSessionTTL
	}
	return &RenderWorker{
		log:        log.With("component", "RenderWorker"),
		render:     render,
		queue:      make(chan uuid.UUID, queueSize),
		sessionTTL: sessionTTL,
	}
}

// Enqueue is a non-blocking one-way send. It reports false when the queue is
// full; the caller logs and moves on.
func (w *RenderWorker) Enqueue(id uuid.UUID) bool {
	select {
	case w.queue <- id:
		return true
	default:
		return false
	}
}

func (w *RenderWorker) Start(ctx context.Context, concurrency int) {
	if concurrency < 1 {
		concurrency = 1
	}
	w.log.Info("Starting render worker pool", "concurrency", concurrency)
	for i := 0; i < concurrency; i++ {
		workerID := i + 1
		go w.runLoop(ctx, workerID)
	}
}

func (w *RenderWorker) runLoop(ctx context.Context, workerID int) {
	for {
		select {
		case <-ctx.Done():
			w.log.Info("Render worker stopped", "worker_id", workerID)
			return
		case id := <-w.queue:
			w.process(ctx, workerID, id)
		}
	}
}

func (w *RenderWorker) process(ctx context.Context, workerID int, id uuid.UUID) {
	defer func() {
		if r := recover(); r != nil {
			w.log.Error("Render handler panic", "worker_id", workerID, "asset_id", id.String(), "panic", r)
		}
	}()

	sessionCtx, cancel := context.WithTimeout(ctx, w.sessionTTL)
	defer cancel()

	if _, err := w.render.RenderThumbnail(sessionCtx, id); err != nil {
		w.log.Warn("Render dispatch failed", "worker_id", workerID, "asset_id", id.String(), "error", err)
		return
	}
	w.log.Info("Thumbnail rendered", "worker_id", workerID, "asset_id", id.String())
}
