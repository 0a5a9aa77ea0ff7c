package logger

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Log はプロセス共通のロガー。Init 前でも使えるよう初期値を入れておく
var Log = logrus.New()

func Init(level string) {
	Log = logrus.New()
	Log.SetOutput(os.Stdout)
	Log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	lv, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		lv = logrus.InfoLevel
		Log.Warnf("unknown log level %q, falling back to info", level)
	}
	Log.SetLevel(lv)
}
