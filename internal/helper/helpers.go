package helper

import (
	"log/slog"
	"sync"
)

type HelperRepository struct {
	baseUrl *string
	WG      *sync.WaitGroup
	logger  *slog.Logger
}

func New(baseUrl *string, wg *sync.WaitGroup, logger *slog.Logger) *HelperRepository {
	return &HelperRepository{
		baseUrl: baseUrl,
		WG:      wg,
		logger:  logger,
	}
}

func (h *HelperRepository) NewEmailData() map[string]any {
	data := map[string]any{
		"BaseURL": h.baseUrl,
	}

	return data
}

// BackgroundTask runs fn in a goroutine tracked by the application wait
// group, so in-flight tasks finish before shutdown. Used for activity logs
// and other side work the response must not wait on.
func (h *HelperRepository) BackgroundTask(fn func() error) {
	h.WG.Add(1)

	go func() {
		defer h.WG.Done()

		defer func() {
			if err := recover(); err != nil {
				h.logger.Error("background task panic", "error", err)
			}
		}()

		if err := fn(); err != nil {
			h.logger.Error("background task", "error", err)
		}
	}()
}
