package ws

import (
    "github.com/gin-gonic/gin"
    socketio "github.com/googollee/go-socket.io"
    "github.com/kiliankoe/ruota/internal/config"
    "github.com/kiliankoe/ruota/internal/events"
    "github.com/kiliankoe/ruota/internal/game"
    "github.com/rs/zerolog/log"
)

type Server struct {
    RM  *game.RoomManager
    hub *Hub
}

func New(rm *game.RoomManager, cfg config.Config) *Server {
    return &Server{RM: rm, hub: NewHub(rm, cfg)}
}

func (srv *Server) SetSink(s events.Sink) { srv.hub.SetSink(s) }
func (srv *Server) Hub() *Hub             { return srv.hub }

// Mount attaches the Socket.IO server with handlers to the given Gin engine.
func (srv *Server) Mount(r *gin.Engine) *socketio.Server {
    io := socketio.NewServer(nil)

    io.OnConnect("/", func(s socketio.Conn) error {
        srv.hub.Connect(s)
        log.Info().Str("sid", s.ID()).Msg("socket connected")
        return nil
    })

    io.OnEvent("/", evCreateRoom, func(s socketio.Conn, payload createRoomRequest) {
        if err := srv.hub.CreateRoom(s.ID(), payload.Nickname, payload.Voci, payload.Punizioni); err != nil {
            srv.err(s, evCreateRoom, err)
        }
    })

    io.OnEvent("/", evJoinRoom, func(s socketio.Conn, payload joinRoomRequest) {
        if err := srv.hub.JoinRoom(s.ID(), payload.RoomCode, payload.Nickname, payload.IsRejoin); err != nil {
            srv.err(s, evJoinRoom, err)
        }
    })

    io.OnEvent("/", evSpinWheel, func(s socketio.Conn, payload spinWheelRequest) {
        if err := srv.hub.Spin(s.ID(), payload.RoomCode); err != nil {
            srv.err(s, evSpinWheel, err)
        }
    })

    io.OnError("/", func(s socketio.Conn, e error) {
        if s == nil {
            log.Error().Err(e).Msg("socket error")
            return
        }
        log.Error().Str("sid", s.ID()).Err(e).Msg("socket error")
    })
    io.OnDisconnect("/", func(s socketio.Conn, reason string) {
        srv.hub.Disconnect(s.ID())
        log.Info().Str("sid", s.ID()).Str("reason", reason).Msg("socket disconnected")
    })

    go func() {
        if err := io.Serve(); err != nil {
            log.Error().Err(err).Msg("socket.io serve stopped")
        }
    }()

    r.GET("/socket.io/*any", gin.WrapH(io))
    r.POST("/socket.io/*any", gin.WrapH(io))

    return io
}

func (srv *Server) err(s socketio.Conn, event string, err error) {
    msg := errorMessage(err)
    log.Warn().Str("sid", s.ID()).Str("event", event).Str("code", msg.Code).Msg(msg.Message)
    s.Emit(evError, msg)
}
