package clients

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

type levelWriter struct {
	writer io.Writer
	level  zerolog.Level
}

func (lw *levelWriter) Write(p []byte) (n int, err error) {
	return lw.writer.Write(p)
}

func (lw *levelWriter) WriteLevel(level zerolog.Level, p []byte) (n int, err error) {
	if level >= lw.level {
		return lw.writer.Write(p)
	}
	return len(p), nil
}

// InitLog configura o logger global do zerolog para escrever no console e,
// a partir do nível info, em <rootDir>/log/<fileName> com rotação via lumberjack.
// Com debug=true o console também recebe mensagens de debug.
// O chamador deve fechar o *lumberjack.Logger retornado.
func InitLog(fileName, rootDir string, debug ...bool) (*lumberjack.Logger, string, error) {
	logDir := filepath.Join(rootDir, "log")
	logFilePath := filepath.Join(logDir, fileName)

	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, "", fmt.Errorf("falha ao criar o diretório de logs: %w", err)
	}

	lumberjackLogger := &lumberjack.Logger{
		Filename:   logFilePath,
		MaxSize:    100,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	}

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	consoleWriter := zerolog.ConsoleWriter{Out: os.Stdout}

	fileLevelWriter := &levelWriter{
		writer: lumberjackLogger,
		level:  zerolog.InfoLevel,
	}

	multi := zerolog.MultiLevelWriter(consoleWriter, fileLevelWriter)
	logger := zerolog.New(multi).With().Timestamp().Logger()

	if len(debug) > 0 && debug[0] {
		logger = logger.Level(zerolog.DebugLevel)
	} else {
		logger = logger.Level(zerolog.InfoLevel)
	}

	log.Logger = logger

	log.Debug().Msg("Logger configurado com sucesso")
	log.Info().Str("log_file", logFilePath).Msg("Logs serão gravados neste arquivo")
	return lumberjackLogger, logFilePath, nil
}
