// Package logger предоставляет структурированное логирование на базе zerolog.
// JSON формат для production, pretty-print для локальной разработки.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// log - глобальный экземпляр логгера.
// Инициализируется при вызове Init() или автоматически при импорте пакета.
var log zerolog.Logger

// Config содержит настройки логгера.
type Config struct {
	// Level задает минимальный уровень логирования:
	// "debug", "info", "warn", "error". По умолчанию: "info".
	Level string

	// Pretty включает форматированный цветной вывод для разработки.
	// При Pretty=false логи выводятся в JSON формате.
	Pretty bool

	// Output задает writer для вывода логов. По умолчанию: os.Stderr.
	// SDK пишет в stderr, чтобы не мешать выводу приложения в stdout.
	Output io.Writer
}

// init настраивает логгер из переменных окружения при импорте пакета.
func init() {
	Init(Config{
		Level:  os.Getenv("LOG_LEVEL"),
		Pretty: strings.ToLower(os.Getenv("LOG_PRETTY")) == "true",
	})
}

// Init инициализирует глобальный логгер с заданной конфигурацией.
// Приложение, использующее SDK, вызывает Init() на старте;
// без явного вызова действуют настройки из окружения.
func Init(cfg Config) {
	var output io.Writer = os.Stderr
	if cfg.Output != nil {
		output = cfg.Output
	}

	if cfg.Pretty {
		output = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
		}
	}

	level := parseLevel(cfg.Level)

	log = zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Logger()

	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339
}

// parseLevel преобразует строку в zerolog.Level.
// При пустом или неизвестном значении возвращает InfoLevel.
func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}

// Debug создает событие лога уровня debug.
func Debug() *zerolog.Event {
	return log.Debug()
}

// Info создает событие лога уровня info.
func Info() *zerolog.Event {
	return log.Info()
}

// Warn создает событие лога уровня warn.
func Warn() *zerolog.Event {
	return log.Warn()
}

// Error создает событие лога уровня error.
func Error() *zerolog.Event {
	return log.Error()
}

// Fatal создает событие лога уровня fatal и завершает процесс.
// Используется только в cmd/, библиотечный код не должен вызывать Fatal.
func Fatal() *zerolog.Event {
	return log.Fatal()
}

// With создает новый логгер с дополнительными полями.
//
// Пример:
//
//	apiLog := logger.With().Str("component", "saleor-api").Logger()
func With() zerolog.Context {
	return log.With()
}

// Logger возвращает глобальный экземпляр zerolog.Logger.
func Logger() zerolog.Logger {
	return log
}

// SetGlobalLogger подменяет глобальный логгер.
// Используется в тестах для перехвата вывода.
func SetGlobalLogger(l zerolog.Logger) {
	log = l
}
