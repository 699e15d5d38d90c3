// Package infrastructure provides reusable infrastructure components
// for Go applications.
package infrastructure

import (
	"strings"

	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// FxLoggerAdapter routes Fx's internal lifecycle events through a
// zap.Logger so the dependency container and the application share one
// log stream.
type FxLoggerAdapter struct {
	logger *zap.Logger
}

// NewFxLoggerAdapter creates an fxevent.Logger backed by logger.
func NewFxLoggerAdapter(logger *zap.Logger) fxevent.Logger {
	return &FxLoggerAdapter{logger: logger}
}

// LogEvent implements fxevent.Logger.
func (p *FxLoggerAdapter) LogEvent(event fxevent.Event) {
	switch e := event.(type) {
	case *fxevent.OnStartExecuting:
		p.logger.Debug("hook OnStart executing",
			zap.String("caller", e.CallerName),
			zap.String("function", e.FunctionName))
	case *fxevent.OnStartExecuted:
		p.hookExecuted("hook OnStart", e.CallerName, e.FunctionName, e.Runtime.String(), e.Err)
	case *fxevent.OnStopExecuting:
		p.logger.Debug("hook OnStop executing",
			zap.String("caller", e.CallerName),
			zap.String("function", e.FunctionName))
	case *fxevent.OnStopExecuted:
		p.hookExecuted("hook OnStop", e.CallerName, e.FunctionName, e.Runtime.String(), e.Err)
	case *fxevent.Supplied:
		if e.Err != nil {
			p.logger.Error("supply failed", zap.String("type", e.TypeName), zap.Error(e.Err))
		} else {
			p.logger.Debug("supplied", zap.String("type", e.TypeName))
		}
	case *fxevent.Provided:
		if e.Err != nil {
			p.logger.Error("provide failed", zap.Error(e.Err))
		} else {
			p.logger.Debug("provided", zap.String("types", strings.Join(e.OutputTypeNames, ", ")))
		}
	case *fxevent.Invoking:
		p.logger.Debug("invoking", zap.String("function", e.FunctionName))
	case *fxevent.Invoked:
		if e.Err != nil {
			p.logger.Error("invoke failed", zap.String("function", e.FunctionName), zap.Error(e.Err))
		} else {
			p.logger.Debug("invoked", zap.String("function", e.FunctionName))
		}
	case *fxevent.Stopping:
		p.logger.Info("stopping", zap.String("signal", strings.ToUpper(e.Signal.String())))
	case *fxevent.Stopped:
		p.simple("stopped", e.Err)
	case *fxevent.RollingBack:
		p.logger.Error("rolling back", zap.Error(e.StartErr))
	case *fxevent.RolledBack:
		p.simple("rolled back", e.Err)
	case *fxevent.Started:
		p.simple("started", e.Err)
	case *fxevent.LoggerInitialized:
		if e.Err != nil {
			p.logger.Error("logger initialization failed", zap.Error(e.Err))
		} else {
			p.logger.Debug("logger initialized", zap.String("constructor", e.ConstructorName))
		}
	default:
		p.logger.Debug("unhandled fx event", zap.Any("event", event))
	}
}

func (p *FxLoggerAdapter) hookExecuted(action, caller, function, runtime string, err error) {
	if err != nil {
		p.logger.Error(action+" failed",
			zap.String("caller", caller),
			zap.String("function", function),
			zap.Error(err))
		return
	}
	p.logger.Debug(action+" executed",
		zap.String("caller", caller),
		zap.String("function", function),
		zap.String("runtime", runtime))
}

func (p *FxLoggerAdapter) simple(action string, err error) {
	if err != nil {
		p.logger.Error(action, zap.Error(err))
		return
	}
	p.logger.Info(action)
}
