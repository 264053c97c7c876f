package main

import (
    "context"
    "errors"
    "flag"
    "fmt"
    "net/http"
    "os"
    "os/signal"
    "strings"
    "syscall"
    "time"

    "github.com/gin-contrib/cors"
    "github.com/gin-gonic/gin"
    "github.com/kiliankoe/ruota/internal/api"
    "github.com/kiliankoe/ruota/internal/config"
    "github.com/kiliankoe/ruota/internal/events"
    "github.com/kiliankoe/ruota/internal/game"
    "github.com/kiliankoe/ruota/internal/ws"
    staticserver "github.com/kiliankoe/ruota/static"
    "github.com/rs/zerolog"
    zerologlog "github.com/rs/zerolog/log"
)

var version = "dev" // Set at build time via -ldflags

func main() {
    var (
        showHelp    = flag.Bool("help", false, "Show help message")
        showVersion = flag.Bool("version", false, "Show version information")
        portFlag    = flag.String("port", "", "Port to listen on (overrides PORT env var)")
    )
    flag.BoolVar(showHelp, "h", false, "Show help message (shorthand)")
    flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
    flag.Parse()

    if *showHelp {
        fmt.Printf(`Ruota - spin-the-wheel party game server

Usage: %s [options]

Options:
  -h, --help      Show this help message
  -v, --version   Show version information
  --port PORT     Port to listen on (default: 8080 or PORT env var)

Environment Variables:
  PORT                 Port to listen on (default: 8080)
  LOG_LEVEL            debug, info, warn, error (default: info)
  PUBLIC_URL           Base URL used in invite links and QR codes
  CORS_ORIGINS         Comma-separated allowed origins (default: *)
  SPIN_RATE            Spin requests per second per connection (default: 2)
  SPIN_BURST           Spin burst per connection (default: 3)
  REDIS_URL            Mirror room events to a Redis stream (optional)
  EVENT_STREAM         Redis stream key (default: ruota:events)
  EVENT_STREAM_MAXLEN  Approximate stream length cap (default: 10000)

Visit http://localhost:8080 after starting the server.
`, os.Args[0])
        return
    }

    if *showVersion {
        fmt.Printf("Ruota %s\n", version)
        return
    }

    cfg := config.FromEnv()
    if *portFlag != "" {
        cfg.Port = *portFlag
    }

    zerolog.TimeFieldFormat = time.RFC3339
    cw := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
    zerologlog.Logger = zerologlog.Output(cw)
    if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil && lvl != zerolog.NoLevel {
        zerolog.SetGlobalLevel(lvl)
    }

    gin.SetMode(gin.ReleaseMode)
    r := gin.New()
    r.Use(gin.Recovery())
    r.Use(func(c *gin.Context) {
        start := time.Now()
        c.Next()
        path := c.Request.URL.Path
        if strings.HasPrefix(path, "/socket.io") {
            return
        }
        zerologlog.Info().Str("path", path).Int("status", c.Writer.Status()).Dur("dur", time.Since(start)).Msg("http")
    })
    r.Use(cors.New(cors.Config{
        AllowOrigins: cfg.CORSOrigins,
        AllowMethods: []string{"GET", "POST", "OPTIONS"},
        AllowHeaders: []string{"Origin", "Content-Type"},
        MaxAge:       12 * time.Hour,
    }))

    rm := game.NewRoomManager()
    sock := ws.New(rm, cfg)

    if cfg.RedisURL != "" {
        ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
        client, err := events.Dial(ctx, cfg.RedisURL)
        cancel()
        if err != nil {
            zerologlog.Fatal().Err(err).Msg("event stream unavailable")
        }
        sink := events.NewRedisSink(client, cfg.EventStream, cfg.EventStreamMaxLen)
        sock.SetSink(sink)
        defer func() {
            if err := sink.Close(); err != nil {
                zerologlog.Error().Err(err).Msg("closing event stream")
            }
        }()
        zerologlog.Info().Str("stream", cfg.EventStream).Msg("mirroring room events to redis")
    }

    io := sock.Mount(r)
    defer io.Close()

    r.GET("/health", func(c *gin.Context) {
        c.JSON(http.StatusOK, gin.H{
            "ok":          true,
            "time":        time.Now().UTC(),
            "rooms":       rm.Count(),
            "connections": sock.Hub().Connections(),
        })
    })
    api.Mount(r, rm, cfg)

    r.NoRoute(func(c *gin.Context) {
        staticserver.Handler().ServeHTTP(c.Writer, c.Request)
    })

    srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
    go func() {
        zerologlog.Info().Str("port", cfg.Port).Str("version", version).Msg("listening")
        if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
            zerologlog.Fatal().Err(err).Msg("http server")
        }
    }()

    sigCh := make(chan os.Signal, 1)
    signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
    <-sigCh
    zerologlog.Info().Msg("shutting down")

    ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
    defer cancel()
    if err := srv.Shutdown(ctx); err != nil {
        zerologlog.Error().Err(err).Msg("http shutdown")
    }
}
