package log

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

var std = newLogger(os.Stdout, logrus.InfoLevel)

func newLogger(w io.Writer, lvl logrus.Level) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(lvl)
	l.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime: "ts",
			logrus.FieldKeyMsg:  "action",
		},
	})
	return l
}

// Setup points the package logger at w. Unknown levels fall back to info.
func Setup(w io.Writer, level string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	std = newLogger(w, lvl)
}

// Logger exposes the underlying logger for middleware that wants a writer.
func Logger() *logrus.Logger { return std }

// Request identifies the inbound request a log line belongs to.
type Request struct {
	ID     string
	IP     string
	Method string
	Path   string
}

type requestKey struct{}

func WithRequest(ctx context.Context, r Request) context.Context {
	return context.WithValue(ctx, requestKey{}, r)
}

func RequestFrom(ctx context.Context) (Request, bool) {
	if ctx == nil {
		return Request{}, false
	}
	r, ok := ctx.Value(requestKey{}).(Request)
	return r, ok
}

// FromFiber returns the request's user context stamped with its id and
// origin, so code below the handler logs with the same req_id.
func FromFiber(c *fiber.Ctx) context.Context {
	r := Request{IP: c.IP(), Method: c.Method(), Path: c.Path()}
	if rid, ok := c.Locals("requestid").(string); ok {
		r.ID = rid
	}
	return WithRequest(c.UserContext(), r)
}

func entry(ctx context.Context, kind string, err error, fields map[string]any) *logrus.Entry {
	e := logrus.NewEntry(std)
	if r, ok := RequestFrom(ctx); ok {
		f := logrus.Fields{}
		if r.ID != "" {
			f["req_id"] = r.ID
		}
		if r.IP != "" {
			f["ip"] = r.IP
		}
		if r.Method != "" {
			f["method"] = r.Method
		}
		if r.Path != "" {
			f["path"] = r.Path
		}
		e = e.WithFields(f)
	}
	if kind != "" {
		e = e.WithField("kind", kind)
	}
	if err != nil {
		e = e.WithField("err", err.Error())
	}
	if len(fields) > 0 {
		e = e.WithField("fields", fields)
	}
	return e
}

func Debug(ctx context.Context, action string, fields map[string]any) {
	entry(ctx, "", nil, fields).Debug(action)
}

func Info(ctx context.Context, action string, fields map[string]any) {
	entry(ctx, "", nil, fields).Info(action)
}

// Audit records a state change made on behalf of the administrator.
func Audit(ctx context.Context, action string, fields map[string]any) {
	entry(ctx, "audit", nil, fields).Info(action)
}

func Security(ctx context.Context, action string, fields map[string]any) {
	entry(ctx, "security", nil, fields).Warn(action)
}

func Error(ctx context.Context, action string, err error, fields map[string]any) {
	entry(ctx, "", err, fields).Error(action)
}
