package api

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/kiliankoe/ruota/internal/config"
	"github.com/kiliankoe/ruota/internal/game"
	"github.com/rs/zerolog/log"
	"github.com/skip2/go-qrcode"
)

const qrSize = 256

type user struct {
	SID      string `json:"sid"`
	Nickname string `json:"nickname"`
}

type roomResponse struct {
	RoomCode    string   `json:"room_code"`
	Voci        []string `json:"voci"`
	Punizioni   []string `json:"punizioni"`
	CurrentTurn string   `json:"current_turn"`
	Users       []user   `json:"users"`
}

type handler struct {
	rooms     *game.RoomManager
	publicURL string
}

// Mount registers the room lookup and invite QR routes.
func Mount(r gin.IRouter, rm *game.RoomManager, cfg config.Config) {
	h := &handler{rooms: rm, publicURL: cfg.PublicURL}
	g := r.Group("/api/rooms")
	g.GET("/:code", h.room)
	g.GET("/:code/qr.png", h.qr)
}

func (h *handler) room(c *gin.Context) {
	room, ok := h.lookup(c)
	if !ok {
		return
	}
	s := room.Snapshot()
	resp := roomResponse{
		RoomCode:    s.Code,
		Voci:        s.Voci,
		Punizioni:   s.Punizioni,
		CurrentTurn: s.CurrentConnID(),
		Users:       make([]user, 0, len(s.Participants)),
	}
	for _, p := range s.Participants {
		resp.Users = append(resp.Users, user{SID: p.ConnID, Nickname: p.Nickname})
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handler) qr(c *gin.Context) {
	room, ok := h.lookup(c)
	if !ok {
		return
	}
	png, err := qrcode.Encode(InviteURL(h.publicURL, room.Code), qrcode.Medium, qrSize)
	if err != nil {
		log.Error().Err(err).Str("code", room.Code).Msg("qr generation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"code": "qr_failed", "message": "qr generation failed"})
		return
	}
	c.Header("Cache-Control", "no-cache")
	c.Data(http.StatusOK, "image/png", png)
}

func (h *handler) lookup(c *gin.Context) (*game.Room, bool) {
	room, err := h.rooms.Get(c.Param("code"))
	switch {
	case err == nil:
		return room, true
	case errors.Is(err, game.ErrMalformedRoomCode):
		c.JSON(http.StatusBadRequest, gin.H{"code": "malformed_room_code", "message": err.Error()})
	case errors.Is(err, game.ErrRoomNotFound):
		c.JSON(http.StatusNotFound, gin.H{"code": "room_not_found", "message": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"code": "internal", "message": err.Error()})
	}
	return nil, false
}

// InviteURL is the link a new player opens to land on the join form.
func InviteURL(publicURL, code string) string {
	return publicURL + "/?code=" + url.QueryEscape(code)
}
