package audit

import (
	"context"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/Mihklz/casetrail/internal/logger"
	"github.com/Mihklz/casetrail/internal/model"
)

// FileStore дописывает записи аудита в файл, по одной JSON-строке на запись.
type FileStore struct {
	filePath string
	mu       sync.Mutex
}

// NewFileStore создает хранилище поверх файла.
func NewFileStore(filePath string) *FileStore {
	return &FileStore{
		filePath: filePath,
	}
}

// AppendEntry записывает запись аудита в файл.
func (f *FileStore) AppendEntry(ctx context.Context, entry Entry, cases model.CaseSet) error {
	// Преобразуем запись в JSON вне критической секции
	data, err := ToJSON(entry, cases)
	if err != nil {
		logger.Log.Error("Failed to marshal audit entry to JSON", zap.Error(err))
		return err
	}

	// Добавляем новую строку после JSON
	data = append(data, '\n')

	if err := ctx.Err(); err != nil {
		return err
	}

	// Критическая секция: только операция записи в файл
	f.mu.Lock()
	file, err := os.OpenFile(f.filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		f.mu.Unlock()
		logger.Log.Error("Failed to open audit file",
			zap.String("file", f.filePath),
			zap.Error(err),
		)
		return err
	}

	_, err = file.Write(data)
	closeErr := file.Close()
	f.mu.Unlock()

	if err == nil {
		err = closeErr
	}
	if err != nil {
		logger.Log.Error("Failed to write audit entry to file",
			zap.String("file", f.filePath),
			zap.Error(err),
		)
		return err
	}

	logger.Log.Debug("Audit entry written to file",
		zap.String("file", f.filePath),
		zap.String("entry_id", entry.ID.String()),
	)

	return nil
}
