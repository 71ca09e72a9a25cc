package logging

import (
	"time"
)

// Common field constructors
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

func Int64(key string, value int64) Field {
	return Field{Key: key, Value: value}
}

func Uint64(key string, value uint64) Field {
	return Field{Key: key, Value: value}
}

func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

func Error(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

func Any(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Field helpers for names this project logs over and over

func Component(name string) Field {
	return String("component", name)
}

func Endpoint(addr string) Field {
	return String("endpoint", addr)
}

func Step(name string) Field {
	return String("step", name)
}

func Option(name string) Field {
	return String("option", name)
}

func TxnID(id string) Field {
	return String("txn_id", id)
}

func Key(k []byte) Field {
	return String("key", string(k))
}

func Code(code int) Field {
	return Int("code", code)
}

func SizeBytes(n int64) Field {
	return Int64("size_bytes", n)
}

func Operation(op string) Field {
	return String("operation", op)
}

func Latency(d time.Duration) Field {
	return Duration("latency", d)
}

func Count(n int) Field {
	return Int("count", n)
}
