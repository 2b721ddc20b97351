package retry

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Mihklz/casetrail/internal/logger"
)

// RetryConfig конфигурация для retry-логики
type RetryConfig struct {
	MaxAttempts int             // Максимальное количество попыток (включая первую)
	Delays      []time.Duration // Задержки между попытками
	Classifier  ErrorClassifier // Классификатор ошибок
}

// DefaultRetryConfig возвращает конфигурацию по умолчанию.
// Задержки короче таймаута записи аудита, чтобы повтор успевал уложиться в него.
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts: 3, // 1 основная + 2 повтора
		Delays:      []time.Duration{200 * time.Millisecond, 1 * time.Second},
		Classifier:  NewDefaultErrorClassifier(),
	}
}

// delay задержка перед попыткой attempt+1. Если задержек меньше, чем попыток,
// повторяется последняя.
func (c *RetryConfig) delay(attempt int) time.Duration {
	if len(c.Delays) == 0 {
		return 0
	}
	if attempt >= len(c.Delays) {
		return c.Delays[len(c.Delays)-1]
	}
	return c.Delays[attempt]
}

// Execute выполняет функцию с retry-логикой
func Execute(ctx context.Context, config *RetryConfig, operation func() error) error {
	if config == nil {
		config = DefaultRetryConfig()
	}
	classifier := config.Classifier
	if classifier == nil {
		classifier = NewDefaultErrorClassifier()
	}

	var lastErr error

	for attempt := 0; attempt < config.MaxAttempts; attempt++ {
		// Проверяем контекст перед каждой попыткой
		select {
		case <-ctx.Done():
			if lastErr != nil {
				return fmt.Errorf("operation cancelled: %w (last error: %v)", ctx.Err(), lastErr)
			}
			return fmt.Errorf("operation cancelled: %w", ctx.Err())
		default:
		}

		err := operation()
		if err == nil {
			if attempt > 0 {
				logger.Log.Info("Operation succeeded after retry",
					zap.Int("attempt", attempt+1),
					zap.Int("max_attempts", config.MaxAttempts),
				)
			}
			return nil
		}

		lastErr = err

		// Если это последняя попытка, не ждем
		if attempt == config.MaxAttempts-1 {
			break
		}

		if classifier.Classify(err) == NonRetriable {
			logger.Log.Warn("Non-retriable error encountered, stopping retries",
				zap.Error(err),
				zap.Int("attempt", attempt+1),
			)
			return err
		}

		delay := config.delay(attempt)
		logger.Log.Warn("Retriable error encountered, will retry",
			zap.Error(err),
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", config.MaxAttempts),
			zap.Duration("delay", delay),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("operation cancelled during retry delay: %w", ctx.Err())
		case <-timer.C:
		}
	}

	// Все попытки исчерпаны
	return fmt.Errorf("operation failed after %d attempts: %w", config.MaxAttempts, lastErr)
}

// ExecuteWithTimeout выполняет операцию с retry-логикой и общим таймаутом
func ExecuteWithTimeout(ctx context.Context, config *RetryConfig, timeout time.Duration, operation func() error) error {
	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return Execute(timeoutCtx, config, operation)
}
