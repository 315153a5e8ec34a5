package main

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/meikuraledutech/graphplan"
	"github.com/meikuraledutech/graphplan/engine"
	"github.com/meikuraledutech/graphplan/logger"
	"github.com/meikuraledutech/graphplan/metrics"
)

type server struct {
	engine   *engine.Engine
	sessions *sessions
	metrics  *metrics.Metrics
	log      *slog.Logger
}

type viewRequest struct {
	Viewport graphplan.Viewport `json:"viewport"`
	Bounds   graphplan.Bounds   `json:"bounds"`
}

type selectionRequest struct {
	IDs []string `json:"ids"`
}

type historyResponse struct {
	Batches []graphplan.HistoryBatch `json:"batches"`
	CanUndo bool                     `json:"can_undo"`
	CanRedo bool                     `json:"can_redo"`
}

func (s *server) routes() *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: errorHandler(s.log)})

	app.Get("/healthz", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(s.metrics.Handler()))

	// ── Workspace state ───────────────────────────────────────────────
	app.Get("/workspaces/:id", func(c fiber.Ctx) error {
		sess, err := s.sessions.get(c.Context(), c.Params("id"))
		if err != nil {
			return err
		}
		return c.JSON(sess.ws.Snapshot())
	})

	app.Put("/workspaces/:id/viewport", func(c fiber.Ctx) error {
		var req viewRequest
		if err := c.Bind().JSON(&req); err != nil {
			return errBadRequest.withInternal(err)
		}
		sess, err := s.sessions.get(c.Context(), c.Params("id"))
		if err != nil {
			return err
		}
		sess.ws.SetView(req.Viewport, req.Bounds)
		return c.SendStatus(fiber.StatusNoContent)
	})

	app.Put("/workspaces/:id/selection", func(c fiber.Ctx) error {
		var req selectionRequest
		if err := c.Bind().JSON(&req); err != nil {
			return errBadRequest.withInternal(err)
		}
		sess, err := s.sessions.get(c.Context(), c.Params("id"))
		if err != nil {
			return err
		}
		sess.ws.SetSelection(req.IDs)
		return c.SendStatus(fiber.StatusNoContent)
	})

	// ── Plans ─────────────────────────────────────────────────────────
	app.Post("/workspaces/:id/preview", func(c fiber.Ctx) error {
		var plan graphplan.MutationPlan
		if err := c.Bind().JSON(&plan); err != nil {
			return errBadRequest.withInternal(err)
		}
		sess, err := s.sessions.get(c.Context(), c.Params("id"))
		if err != nil {
			return err
		}
		ps, err := s.engine.Preview(&plan, sess.ws.Snapshot())
		if err != nil {
			return err
		}
		s.metrics.ObservePreview(ps)
		return c.JSON(ps)
	})

	app.Post("/workspaces/:id/execute", func(c fiber.Ctx) error {
		var plan graphplan.MutationPlan
		if err := c.Bind().JSON(&plan); err != nil {
			return errBadRequest.withInternal(err)
		}
		sess, err := s.sessions.get(c.Context(), c.Params("id"))
		if err != nil {
			return err
		}

		sess.mu.Lock()
		start := time.Now()
		res := s.engine.Execute(&plan, sess.commitTarget(c.Context(), graphplan.KindExecute), sess.stack)
		s.metrics.ObserveExecution(res, time.Since(start))
		sess.mu.Unlock()

		if !res.Success {
			return res.Error
		}
		return c.JSON(res)
	})

	// ── History ───────────────────────────────────────────────────────
	app.Get("/workspaces/:id/history", func(c fiber.Ctx) error {
		sess, err := s.sessions.get(c.Context(), c.Params("id"))
		if err != nil {
			return err
		}
		batches := sess.stack.Batches()
		if n, err := strconv.Atoi(c.Query("limit")); err == nil && n >= 0 && n < len(batches) {
			batches = batches[len(batches)-n:]
		}
		return c.JSON(historyResponse{
			Batches: batches,
			CanUndo: sess.stack.CanUndo(),
			CanRedo: sess.stack.CanRedo(),
		})
	})

	app.Post("/workspaces/:id/undo", func(c fiber.Ctx) error {
		return s.revert(c, true)
	})

	app.Post("/workspaces/:id/redo", func(c fiber.Ctx) error {
		return s.revert(c, false)
	})

	return app
}

// revert undoes or redoes one batch and responds with the batch that was
// applied to the workspace.
func (s *server) revert(c fiber.Ctx, undo bool) error {
	sess, err := s.sessions.get(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	kind := graphplan.KindRedo
	var (
		batch graphplan.HistoryBatch
		ok    bool
	)
	if undo {
		kind = graphplan.KindUndo
		batch, ok = sess.stack.Undo()
		if !ok {
			return errNothingToUndo
		}
		batch = batch.Invert()
	} else {
		batch, ok = sess.stack.Redo()
		if !ok {
			return errNothingToRedo
		}
	}

	if err := sess.commitTarget(c.Context(), kind).Commit(batch); err != nil {
		sess.stack.Revert(undo)
		s.log.Error("history revert failed",
			slog.String("workspace", sess.id),
			slog.Bool("undo", undo),
			logger.Error(err))
		return err
	}
	return c.JSON(batch)
}
