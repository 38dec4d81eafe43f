package log

import (
	"strings"

	"github.com/sirupsen/logrus"
)

func init() {
	logrus.AddHook(new(TaggedHook))
}

// NewLogger returns an entry whose messages are prefixed with "[tag]: ".
func NewLogger(tag string) *logrus.Entry {
	return logrus.NewEntry(logrus.StandardLogger()).WithField("tag", tag)
}

// SetVerbose switches the standard logger between info and trace output.
func SetVerbose(verbose bool) {
	if verbose {
		logrus.SetLevel(logrus.TraceLevel)
	} else {
		logrus.SetLevel(logrus.InfoLevel)
	}
}

type TaggedHook struct{}

func (h *TaggedHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *TaggedHook) Fire(entry *logrus.Entry) error {
	tagObj, loaded := entry.Data["tag"]
	if !loaded {
		return nil
	}
	tag, isString := tagObj.(string)
	if !isString {
		return nil
	}
	delete(entry.Data, "tag")
	entry.Message = strings.ReplaceAll(entry.Message, tag+": ", "")
	entry.Message = "[" + tag + "]: " + entry.Message
	return nil
}
