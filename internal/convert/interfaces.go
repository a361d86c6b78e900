package convert

import (
	"github.com/sandsound/sandsound/internal/model"
)

// Converter defines the interface for the transcode service.
type Converter interface {
	SetUpdateCallback(func(*model.ConversionTask))
	SetFFmpegDirectory(dir string)
	StartConversion(inputPath, targetFormat string) (*model.ConversionTask, error)
	StopConversion(taskID string) error
	GetTask(taskID string) (*model.ConversionTask, bool)
}
