package middleware

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/dzonerzy/go-optparse/internal/pool"
)

// RequestInfo describes one run of a Program's action.
type RequestInfo struct {
	Program   string
	Args      []string
	Values    []keyValue
	StartTime time.Time
	Duration  time.Duration
	Error     error
}

type keyValue struct {
	key   string
	value any
}

var requestInfoPool = pool.NewPoolWithReset(
	func() *RequestInfo { return &RequestInfo{} },
	func(info *RequestInfo) {
		info.Program = ""
		info.Args = info.Args[:0]
		info.Values = info.Values[:0]
		info.StartTime = time.Time{}
		info.Duration = 0
		info.Error = nil
	},
)

// Logger logs every run to stderr.
func Logger(options ...MiddlewareOption) Middleware {
	return LoggerWithWriter(os.Stderr, options...)
}

// LoggerWithWriter logs every run to writer. Successful runs are logged at
// info level, failures at error level and a start line at debug level.
func LoggerWithWriter(writer io.Writer, options ...MiddlewareOption) Middleware {
	config := newConfig(options)

	return func(next ActionFunc) ActionFunc {
		return func(ctx Context) error {
			if config.LogLevel == LogLevelNone {
				return next(ctx)
			}

			info := requestInfoPool.Get()
			defer requestInfoPool.Put(info)

			info.Program = programName(ctx)
			if config.IncludeArgs {
				info.Args = append(info.Args, ctx.Args()...)
			}
			if config.IncludeValues {
				for _, key := range ctx.Keys() {
					v, _ := ctx.Lookup(key)
					info.Values = append(info.Values, keyValue{key, v})
				}
			}
			info.StartTime = time.Now()

			if config.LogLevel >= LogLevelDebug {
				writeLog(writer, config, info, "START")
			}

			err := next(ctx)

			info.Duration = time.Since(info.StartTime)
			info.Error = err
			switch {
			case err != nil && config.LogLevel >= LogLevelError:
				writeLog(writer, config, info, "ERROR")
			case err == nil && config.LogLevel >= LogLevelInfo:
				writeLog(writer, config, info, "SUCCESS")
			}
			return err
		}
	}
}

func writeLog(writer io.Writer, config *MiddlewareConfig, info *RequestInfo, level string) {
	buf := pool.GetBuffer(256)
	defer pool.PutBuffer(buf)

	switch config.LogFormat { // exhaustive over LogFormat
	case LogFormatJSON:
		*buf = appendJSON(*buf, info, level)
	case LogFormatText:
		*buf = appendText(*buf, info, level)
	default:
		*buf = appendText(*buf, info, level)
	}

	//nolint:errcheck,gosec // logging is best-effort
	writer.Write(*buf)
}

func appendText(buf []byte, info *RequestInfo, level string) []byte {
	buf = append(buf, '[')
	buf = info.StartTime.AppendFormat(buf, "2006-01-02 15:04:05")
	buf = append(buf, "] "...)
	buf = append(buf, level...)
	buf = append(buf, " prog="...)
	buf = append(buf, info.Program...)

	if info.Duration > 0 {
		buf = append(buf, " duration="...)
		buf = append(buf, info.Duration.String()...)
	}
	if len(info.Args) > 0 {
		buf = append(buf, " args="...)
		for i, arg := range info.Args {
			if i > 0 {
				buf = append(buf, ' ')
			}
			buf = append(buf, arg...)
		}
	}
	for _, kv := range info.Values {
		buf = append(buf, ' ')
		buf = append(buf, kv.key...)
		buf = append(buf, '=')
		buf = fmt.Append(buf, kv.value)
	}
	if info.Error != nil {
		buf = append(buf, " error="...)
		buf = strconv.AppendQuote(buf, info.Error.Error())
	}
	return append(buf, '\n')
}

func appendJSON(buf []byte, info *RequestInfo, level string) []byte {
	buf = append(buf, `{"timestamp":"`...)
	buf = info.StartTime.AppendFormat(buf, time.RFC3339)
	buf = append(buf, `","level":"`...)
	buf = append(buf, level...)
	buf = append(buf, `","prog":`...)
	buf = appendJSONValue(buf, info.Program)

	if info.Duration > 0 {
		buf = append(buf, `,"duration_ms":`...)
		buf = strconv.AppendInt(buf, info.Duration.Milliseconds(), 10)
	}
	if len(info.Args) > 0 {
		buf = append(buf, `,"args":[`...)
		for i, arg := range info.Args {
			if i > 0 {
				buf = append(buf, ',')
			}
			buf = appendJSONValue(buf, arg)
		}
		buf = append(buf, ']')
	}
	if len(info.Values) > 0 {
		buf = append(buf, `,"values":{`...)
		for i, kv := range info.Values {
			if i > 0 {
				buf = append(buf, ',')
			}
			buf = appendJSONValue(buf, kv.key)
			buf = append(buf, ':')
			buf = appendJSONValue(buf, kv.value)
		}
		buf = append(buf, '}')
	}
	if info.Error != nil {
		buf = append(buf, `,"error":`...)
		buf = appendJSONValue(buf, info.Error.Error())
	}
	return append(buf, "}\n"...)
}

func appendJSONValue(buf []byte, v any) []byte {
	enc, err := json.Marshal(v)
	if err != nil {
		enc, _ = json.Marshal(fmt.Sprint(v))
	}
	return append(buf, enc...)
}

// DebugLogger logs start lines as well as outcomes.
func DebugLogger() Middleware { return Logger(WithLogLevel(LogLevelDebug)) }

// ErrorLogger logs failed runs only.
func ErrorLogger() Middleware { return Logger(WithLogLevel(LogLevelError)) }

// JSONLogger logs one JSON object per line.
func JSONLogger() Middleware { return Logger(WithLogFormat(LogFormatJSON)) }
