package logger

import (
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"
)

// Init installs the default logger at the given level
func Init(level log.Level, noColor bool) {
	log.SetDefault(log.NewWithOptions(io.MultiWriter(os.Stderr),
		log.Options{
			ReportCaller:    level == log.DebugLevel,
			ReportTimestamp: level == log.DebugLevel,
			TimeFormat:      time.TimeOnly,
			Prefix:          "STEPVIZ",
			Level:           level,
		}))

	log.SetColorProfile(termenv.ANSI256)
	if noColor {
		log.SetColorProfile(termenv.Ascii)
	}
}
