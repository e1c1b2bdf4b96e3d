package worker

import (
	"context"
	"time"

	"inventory/internal/logger"

	"github.com/hibiken/asynq"
)

type Mux struct{ mux *asynq.ServeMux }

func NewMux() *Mux { return &Mux{mux: asynq.NewServeMux()} }

func (m *Mux) HandleFunc(t string, h func(ctx context.Context, task *asynq.Task) error) {
	m.mux.HandleFunc(t, h)
}

func (m *Mux) Use(mw asynq.MiddlewareFunc) { m.mux.Use(mw) }

func (m *Mux) Mux() *asynq.ServeMux { return m.mux }

// Logging returns middleware that logs every task's type, duration and outcome.
func Logging(log *logger.Logger) asynq.MiddlewareFunc {
	return func(next asynq.Handler) asynq.Handler {
		return asynq.HandlerFunc(func(ctx context.Context, t *asynq.Task) error {
			start := time.Now()
			log.LogInfof("task %s started", t.Type())
			err := next.ProcessTask(ctx, t)
			if err != nil {
				log.LogErrorf("task %s failed after %v: %v", t.Type(), time.Since(start), err)
				return err
			}
			log.LogSuccessf("task %s finished in %v", t.Type(), time.Since(start))
			return nil
		})
	}
}
