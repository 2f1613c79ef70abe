package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/rahul-charaki/chat-app-be/internal/config"
	"github.com/rahul-charaki/chat-app-be/internal/domain"
	"github.com/rahul-charaki/chat-app-be/internal/hub"
	"github.com/rahul-charaki/chat-app-be/internal/service"
	"github.com/rahul-charaki/chat-app-be/pkg/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSHandler upgrades connections and routes inbound events through the
// dispatch table to the chat service.
type WSHandler struct {
	hub     *hub.Hub
	service service.ChatService
	wsCfg   config.WebSocketConfig
}

// NewWSHandler creates a websocket handler.
func NewWSHandler(h *hub.Hub, svc service.ChatService, wsCfg config.WebSocketConfig) *WSHandler {
	return &WSHandler{hub: h, service: svc, wsCfg: wsCfg}
}

// HandleWebSocket upgrades the request and starts the client pumps.
func (h *WSHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.L().Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := hub.NewClient(uuid.New().String(), h.hub, conn, h.wsCfg)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump(h.handleMessage, h.handleClose)
}

// handleMessage is the dispatch table: one arm per inbound event type.
func (h *WSHandler) handleMessage(client *hub.Client, message []byte) {
	var base domain.BaseEvent
	if err := json.Unmarshal(message, &base); err != nil {
		client.Send(domain.NewErrorEvent(domain.ErrCodeBadRequest, "invalid message format"))
		return
	}

	ctx := context.Background()

	switch base.Type {
	case domain.MsgTypeAuth:
		var evt domain.AuthEvent
		if err := json.Unmarshal(message, &evt); err != nil {
			client.Send(domain.NewErrorEvent(domain.ErrCodeBadRequest, "invalid authenticate event"))
			return
		}
		if err := h.service.HandleAuth(ctx, client, evt.Token); err != nil {
			log.L().Debug().Err(err).Str(log.FieldConnID, client.ID).Msg("authenticate failed")
		}

	case domain.MsgTypeJoinRoom:
		var evt domain.JoinRoomEvent
		if err := json.Unmarshal(message, &evt); err != nil {
			client.Send(domain.NewErrorEvent(domain.ErrCodeBadRequest, "invalid join_room event"))
			return
		}
		if err := h.service.HandleJoinRoom(ctx, client, evt.Room); err != nil {
			log.L().Debug().Err(err).Str(log.FieldConnID, client.ID).Msg("join_room failed")
		}

	case domain.MsgTypeSendMessage:
		var evt domain.SendMessageEvent
		if err := json.Unmarshal(message, &evt); err != nil {
			client.Send(domain.NewErrorEvent(domain.ErrCodeBadRequest, "invalid send_message event"))
			return
		}
		if err := h.service.HandleSendMessage(ctx, client, evt.Room, evt.Body, evt.Attachment); err != nil {
			log.L().Debug().Err(err).Str(log.FieldConnID, client.ID).Msg("send_message failed")
		}

	case domain.MsgTypeSendPrivate:
		var evt domain.SendPrivateEvent
		if err := json.Unmarshal(message, &evt); err != nil {
			client.Send(domain.NewErrorEvent(domain.ErrCodeBadRequest, "invalid send_private_message event"))
			return
		}
		if err := h.service.HandleSendPrivate(ctx, client, evt.RecipientID, evt.Body, evt.Attachment); err != nil {
			log.L().Debug().Err(err).Str(log.FieldConnID, client.ID).Msg("send_private_message failed")
		}

	case domain.MsgTypeTyping:
		var evt domain.TypingEvent
		if err := json.Unmarshal(message, &evt); err != nil {
			client.Send(domain.NewErrorEvent(domain.ErrCodeBadRequest, "invalid typing event"))
			return
		}
		h.service.HandleTyping(ctx, client, evt.Room, evt.IsTyping)

	case domain.MsgTypeAddReaction:
		var evt domain.AddReactionEvent
		if err := json.Unmarshal(message, &evt); err != nil {
			client.Send(domain.NewErrorEvent(domain.ErrCodeBadRequest, "invalid add_reaction event"))
			return
		}
		if err := h.service.HandleAddReaction(ctx, client, evt.MessageID, evt.Emoji); err != nil {
			log.L().Debug().Err(err).Str(log.FieldConnID, client.ID).Msg("add_reaction failed")
		}

	default:
		client.Send(domain.NewErrorEvent(domain.ErrCodeBadRequest, "unknown event type"))
	}
}

// handleClose runs once when the read pump exits, for explicit disconnect
// and dropped connections alike.
func (h *WSHandler) handleClose(client *hub.Client) {
	h.service.HandleDisconnect(context.Background(), client)
}
