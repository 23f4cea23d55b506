package controller

import (
	"context"
	"encoding/json"
	"runtime/debug"
	"time"

	logger "github.com/sirupsen/logrus"

	"ordermonitor/src/model"
)

// ExceptionRecorder persists captured exceptions.
type ExceptionRecorder interface {
	Create(ctx context.Context, exc *model.Exception) error
}

// Capture records a system exception, logs it locally, and optionally
// persists it in the database.
func Capture(
	ctx context.Context,
	repo ExceptionRecorder,
	service string,
	module string,
	method string,
	level string,
	err error,
	contextData map[string]interface{},
) {

	if err == nil {
		return
	}

	var ctxJSON string
	if len(contextData) > 0 {
		if b, e := json.Marshal(contextData); e == nil {
			ctxJSON = string(b)
		}
	}

	exc := &model.Exception{
		Service:   service,
		Module:    module,
		Method:    method,
		Message:   err.Error(),
		Stack:     string(debug.Stack()),
		Level:     level,
		Context:   ctxJSON,
		CreatedAt: time.Now().UTC(),
	}

	logger.WithFields(logger.Fields{
		"service": service,
		"module":  module,
		"method":  method,
		"level":   level,
	}).WithError(err).Error("System exception captured")

	if repo == nil {
		return
	}
	if e := repo.Create(ctx, exc); e != nil {
		logger.WithError(e).Error("Failed to persist exception")
	}
}

// Capturer binds Capture to one module so components can report failures
// without knowing about the journal.
func Capturer(repo ExceptionRecorder, module string) func(ctx context.Context, method string, err error, data map[string]interface{}) {
	config := GetConfig()
	return func(ctx context.Context, method string, err error, data map[string]interface{}) {
		Capture(ctx, repo, config.ServiceName, module, method, config.CaptureLevel, err, data)
	}
}
