package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Port        string
	LogLevel    string
	PublicURL   string
	CORSOrigins []string

	SpinRate  float64 // spin requests per second per connection
	SpinBurst int

	RedisURL          string
	EventStream       string
	EventStreamMaxLen int64
}

func FromEnv() Config {
	c := Config{}
	c.Port = getenv("PORT", "8080")
	c.LogLevel = getenv("LOG_LEVEL", "info")
	c.PublicURL = strings.TrimRight(getenv("PUBLIC_URL", "http://localhost:"+c.Port), "/")
	c.CORSOrigins = splitList(getenv("CORS_ORIGINS", "*"))
	if len(c.CORSOrigins) == 0 {
		c.CORSOrigins = []string{"*"}
	}
	c.SpinRate = getfloat("SPIN_RATE", 2)
	c.SpinBurst = int(getint("SPIN_BURST", 3))
	c.RedisURL = os.Getenv("REDIS_URL")
	c.EventStream = getenv("EVENT_STREAM", "ruota:events")
	c.EventStreamMaxLen = getint("EVENT_STREAM_MAXLEN", 10000)
	return c
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int64) int64 {
	n, err := strconv.ParseInt(os.Getenv(k), 10, 64)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func getfloat(k string, def float64) float64 {
	f, err := strconv.ParseFloat(os.Getenv(k), 64)
	if err != nil || f <= 0 {
		return def
	}
	return f
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
