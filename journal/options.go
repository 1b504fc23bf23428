package journal

import (
	"time"

	"github.com/rustyeddy/tradejournal/pkg/id"
	"github.com/sirupsen/logrus"
)

// Options are shared by the store implementations. Zero fields get
// defaults: the standard logrus logger, time.Now and ULID ids.
type Options struct {
	Log   *logrus.Entry
	Now   func() time.Time
	NewID func() string
}

func (o Options) withDefaults() Options {
	if o.Log == nil {
		o.Log = logrus.NewEntry(logrus.StandardLogger())
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.NewID == nil {
		o.NewID = id.New
	}
	return o
}

func (o Options) logger(scope Scope, id string) *logrus.Entry {
	e := o.Log.WithField("scope", string(scope))
	if id != "" {
		e = e.WithField("id", id)
	}
	return e
}
