package pipeline

import (
	"path/filepath"

	"filekeeper/internal/model"
	"filekeeper/internal/util"
)

// Filter keeps the events that concern targetPath. Overflow events carry no
// path and always pass.
func Filter(inCh <-chan model.FileEvent, targetPath string) <-chan model.FileEvent {
	outCh := make(chan model.FileEvent, cap(inCh))
	targetPath = filepath.Clean(targetPath)

	go func() {
		defer close(outCh)

		for event := range inCh {
			if !relevant(event, targetPath) {
				continue
			}
			outCh <- event
		}
	}()

	return outCh
}

func relevant(event model.FileEvent, targetPath string) bool {
	if event.Type == model.EventOverflow {
		return true
	}

	if util.IsTempFile(event.Path) {
		return false
	}

	return filepath.Clean(event.Path) == targetPath
}
