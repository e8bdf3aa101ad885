package ws_room

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	http_common "github.com/humanbelnik/storypoker/internal/delivery/http/common"
	http_auth_middleware "github.com/humanbelnik/storypoker/internal/delivery/http/middleware/auth"
	"github.com/humanbelnik/storypoker/internal/model"
	usecase_room "github.com/humanbelnik/storypoker/internal/usecase/room"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type TicketStore interface {
	Issue(ctx context.Context, viewer model.Viewer, ttl time.Duration) (string, error)
	Redeem(ctx context.Context, ticket string) (model.Viewer, error)
}

type VoteReader interface {
	RevealedVotes(ctx context.Context, roomID, storyID string) ([]model.Vote, error)
}

// Controller is the relay: publish endpoints for the gateway, the ticket exchange
// and the stream itself.
type Controller struct {
	hub        *Hub
	tickets    TicketStore
	votes      VoteReader
	middleware *http_auth_middleware.Middleware
	ticketTTL  time.Duration

	logger *slog.Logger
}

type ControllerOption func(*Controller)

func WithLogger(logger *slog.Logger) ControllerOption {
	return func(c *Controller) {
		c.logger = logger
	}
}

func New(
	hub *Hub,
	tickets TicketStore,
	votes VoteReader,
	middleware *http_auth_middleware.Middleware,
	ticketTTL time.Duration,
	opts ...ControllerOption,
) *Controller {
	c := &Controller{
		hub:        hub,
		tickets:    tickets,
		votes:      votes,
		middleware: middleware,
		ticketTTL:  ticketTTL,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/ws", c.stream)

	authed := router.Group("", c.middleware.CredentialRequired())
	authed.POST("/token", c.token)
	authed.POST(model.EventUserVoted.Path(), c.userVoted)
	authed.POST(model.EventAddStory.Path(), c.newStory)
	authed.POST(model.EventCompleteStory.Path(), c.revealStory)
	authed.POST(model.EventUncompleteStory.Path(), c.unrevealStory)
	authed.POST(model.EventMembersJoined.Path(), c.memberJoined)
	authed.POST(model.EventNextStory.Path(), c.nextStory)
}

func (c *Controller) token(ctx *gin.Context) {
	viewer, _ := http_auth_middleware.Viewer(ctx)

	ticket, err := c.tickets.Issue(ctx, viewer, c.ticketTTL)
	if err != nil {
		c.logger.Error("failed to issue ticket", slog.String("room_id", viewer.RoomID), slog.String("error", err.Error()))
		ctx.JSON(http.StatusInternalServerError, http_common.ErrorResponse{
			Message: "internal error",
		})
		return
	}

	ctx.String(http.StatusOK, ticket)
}

func (c *Controller) stream(ctx *gin.Context) {
	viewer, err := c.tickets.Redeem(ctx, ctx.Query("token"))
	if err != nil {
		c.logger.Warn("rejected stream ticket", slog.String("error", err.Error()))
		ctx.JSON(http.StatusUnauthorized, http_common.ErrorResponse{
			Message: "invalid or expired token",
		})
		return
	}

	conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		c.logger.Error("failed to upgrade connection", slog.String("error", err.Error()))
		return
	}

	client := newClient(c.hub, conn, viewer)
	if !c.hub.Register(client) {
		_ = conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

func (c *Controller) userVoted(ctx *gin.Context) {
	viewer, _ := http_auth_middleware.Viewer(ctx)

	var req model.UserVotedPayload
	if !c.bind(ctx, &req) {
		return
	}
	if req.MemberID != viewer.MemberID {
		ctx.JSON(http.StatusForbidden, http_common.ErrorResponse{
			Message: "can only publish own votes",
		})
		return
	}

	c.hub.SendToMember(viewer.RoomID, viewer.MemberID, model.Frame{
		Action:   model.ActionSelfVoted,
		MemberID: req.MemberID,
		StoryID:  req.StoryID,
		Value:    req.Value,
	})
	c.hub.BroadcastToRoom(viewer.RoomID, model.Frame{
		Action:   model.ActionUserVoted,
		MemberID: req.MemberID,
		StoryID:  req.StoryID,
	}, func(v model.Viewer) bool {
		return v.MemberID != viewer.MemberID
	})

	ctx.Status(http.StatusNoContent)
}

func (c *Controller) newStory(ctx *gin.Context) {
	viewer, _ := http_auth_middleware.Viewer(ctx)

	var req model.AddStoryPayload
	if !c.bind(ctx, &req) {
		return
	}
	if req.Story.ID == "" || req.Story.RoomID != viewer.RoomID {
		ctx.JSON(http.StatusBadRequest, http_common.ErrorResponse{
			Message: "story of another room",
		})
		return
	}

	story := req.Story
	c.hub.BroadcastToRoom(viewer.RoomID, model.Frame{
		Action: model.ActionNewStory,
		Story:  &story,
	}, nil)

	ctx.Status(http.StatusNoContent)
}

func (c *Controller) revealStory(ctx *gin.Context) {
	viewer, _ := http_auth_middleware.Viewer(ctx)

	var req model.StoryRefPayload
	if !c.bind(ctx, &req) {
		return
	}

	votes, err := c.votes.RevealedVotes(ctx, viewer.RoomID, req.StoryID)
	if err != nil {
		c.logger.Error("failed to load votes", slog.String("story_id", req.StoryID), slog.String("error", err.Error()))
		switch {
		case errors.Is(err, usecase_room.ErrResourceNotFound):
			ctx.JSON(http.StatusNotFound, http_common.ErrorResponse{Message: "not found"})
		case errors.Is(err, usecase_room.ErrUnauthorized):
			ctx.JSON(http.StatusForbidden, http_common.ErrorResponse{Message: "story of another room"})
		case errors.Is(err, usecase_room.ErrConflict):
			ctx.JSON(http.StatusConflict, http_common.ErrorResponse{Message: "story is not revealed"})
		default:
			ctx.JSON(http.StatusInternalServerError, http_common.ErrorResponse{Message: "internal error"})
		}
		return
	}

	c.hub.BroadcastToRoom(viewer.RoomID, model.Frame{
		Action:  model.ActionRevealStory,
		StoryID: req.StoryID,
		Votes:   votes,
	}, nil)

	ctx.Status(http.StatusNoContent)
}

func (c *Controller) unrevealStory(ctx *gin.Context) {
	c.storyRef(ctx, model.ActionUnrevealStory)
}

func (c *Controller) nextStory(ctx *gin.Context) {
	c.storyRef(ctx, model.ActionNextStory)
}

func (c *Controller) storyRef(ctx *gin.Context, action model.Action) {
	viewer, _ := http_auth_middleware.Viewer(ctx)

	var req model.StoryRefPayload
	if !c.bind(ctx, &req) {
		return
	}

	c.hub.BroadcastToRoom(viewer.RoomID, model.Frame{
		Action:  action,
		StoryID: req.StoryID,
	}, nil)

	ctx.Status(http.StatusNoContent)
}

func (c *Controller) memberJoined(ctx *gin.Context) {
	viewer, _ := http_auth_middleware.Viewer(ctx)

	var req model.MembersJoinedPayload
	if !c.bind(ctx, &req) {
		return
	}
	if req.RoomID != viewer.RoomID {
		ctx.JSON(http.StatusForbidden, http_common.ErrorResponse{
			Message: "room mismatch",
		})
		return
	}

	member := req.Member
	c.hub.BroadcastToRoom(viewer.RoomID, model.Frame{
		Action: model.ActionMemberJoined,
		Member: &member,
	}, nil)

	ctx.Status(http.StatusNoContent)
}

func (c *Controller) bind(ctx *gin.Context, req any) bool {
	if err := ctx.ShouldBindJSON(req); err != nil {
		ctx.JSON(http.StatusBadRequest, http_common.ErrorResponse{
			Message: "invalid request body",
		})
		return false
	}
	return true
}
