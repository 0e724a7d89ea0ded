package logger

import "sync"

var (
	globalLogger *SystemLogger
	mu           sync.RWMutex
)

// InitGlobalLogger installs the process wide logger.
func InitGlobalLogger(sink Sink, config SystemLoggerConfig) {
	if config.Service == "" {
		config.Service = "thaipay"
	}
	if config.Version == "" {
		config.Version = "1.0.0"
	}
	l := NewSystemLogger(sink, config)

	mu.Lock()
	globalLogger = l
	mu.Unlock()
}

// GetGlobalLogger returns the global logger instance
func GetGlobalLogger() *SystemLogger {
	mu.RLock()
	l := globalLogger
	mu.RUnlock()
	if l != nil {
		return l
	}

	mu.Lock()
	defer mu.Unlock()
	if globalLogger == nil {
		// Console only until InitGlobalLogger runs.
		globalLogger = NewSystemLogger(nil, SystemLoggerConfig{
			MinLevel:    LevelInfo,
			Service:     "thaipay",
			Version:     "1.0.0",
			Environment: "development",
		})
	}
	return globalLogger
}

// Debug logs a debug message using the global logger
func Debug(message string, ctx ...LogContext) {
	GetGlobalLogger().log(LevelDebug, message, nil, ctx...)
}

// Info logs an info message using the global logger
func Info(message string, ctx ...LogContext) {
	GetGlobalLogger().log(LevelInfo, message, nil, ctx...)
}

// Warn logs a warning message using the global logger
func Warn(message string, ctx ...LogContext) {
	GetGlobalLogger().log(LevelWarn, message, nil, ctx...)
}

// Error logs an error message using the global logger
func Error(message string, err error, ctx ...LogContext) {
	GetGlobalLogger().log(LevelError, message, err, ctx...)
}

// Fatal logs a fatal message using the global logger and exits
func Fatal(message string, err error, ctx ...LogContext) {
	GetGlobalLogger().Fatal(message, err, ctx...)
}

// WithContext creates a context logger from the global logger
func WithContext(ctx LogContext) *ContextLogger {
	return GetGlobalLogger().WithContext(ctx)
}

// WithMerchant creates a context logger for one merchant and provider.
func WithMerchant(merchantID, provider string) *ContextLogger {
	return WithContext(LogContext{MerchantID: merchantID, Provider: provider})
}
