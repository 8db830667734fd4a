package journal

import (
	"fmt"

	"github.com/rustyeddy/spottrader/pkg/id"
	"github.com/sirupsen/logrus"
)

// Hook mirrors log entries at info level and above into a Journal.
type Hook struct {
	j Journal
}

var _ logrus.Hook = (*Hook)(nil)

func NewHook(j Journal) *Hook {
	return &Hook{j: j}
}

func (h *Hook) Levels() []logrus.Level {
	return []logrus.Level{
		logrus.PanicLevel,
		logrus.FatalLevel,
		logrus.ErrorLevel,
		logrus.WarnLevel,
		logrus.InfoLevel,
	}
}

func (h *Hook) Fire(e *logrus.Entry) error {
	ev := Event{
		ID:      id.At(e.Time),
		Time:    e.Time,
		Level:   levelOf(e.Level),
		Message: e.Message,
	}

	for k, v := range e.Data {
		switch k {
		case "component":
			ev.Component = fmt.Sprint(v)
		case "symbol":
			ev.Symbol = fmt.Sprint(v)
		default:
			if ev.Fields == nil {
				ev.Fields = make(map[string]string, len(e.Data))
			}
			ev.Fields[k] = fmt.Sprint(v)
		}
	}
	return h.j.RecordEvent(ev)
}

func levelOf(l logrus.Level) Level {
	switch l {
	case logrus.InfoLevel:
		return LevelInfo
	case logrus.WarnLevel:
		return LevelWarning
	}
	return LevelError
}
