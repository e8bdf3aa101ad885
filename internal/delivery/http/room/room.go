package http_room

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	http_common "github.com/humanbelnik/storypoker/internal/delivery/http/common"
	"github.com/humanbelnik/storypoker/internal/model"
	usecase_room "github.com/humanbelnik/storypoker/internal/usecase/room"
)

type Controller struct {
	usecase *usecase_room.Usecase
	logger  *slog.Logger
}

type ControllerOption func(*Controller)

func WithLogger(logger *slog.Logger) ControllerOption {
	return func(c *Controller) {
		c.logger = logger
	}
}

func New(usecase *usecase_room.Usecase, opts ...ControllerOption) *Controller {
	c := &Controller{
		usecase: usecase,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	rooms := router.Group("/rooms")
	{
		rooms.POST("", c.create)
		rooms.GET("/:room_id", c.snapshot)
		rooms.POST("/:room_id/members", c.join)
		rooms.POST("/:room_id/stories", c.addStory)
		rooms.POST("/:room_id/next-story", c.nextStory)
	}
}

type CreateRequestDTO struct {
	Name       string             `json:"name" binding:"required"`
	MemberName string             `json:"memberName" binding:"required"`
	Stories    []model.StoryDraft `json:"stories" binding:"required,min=1,dive"`
}

type CreateResponseDTO struct {
	Room       model.Room    `json:"room"`
	Member     model.Member  `json:"member"`
	Credential string        `json:"credential"`
	Stories    []model.Story `json:"stories"`
	Stale      bool          `json:"stale"`
}

// create
// @Summary Create a room
// @Description Creates a room with its first stories and the creator as its first member
// @Tags Rooms
// @Accept json
// @Produce json
// @Param request body CreateRequestDTO true "Room"
// @Success 201 {object} CreateResponseDTO
// @Failure 400 {object} http_common.ErrorResponse
// @Failure 500 {object} http_common.ErrorResponse
// @Router /rooms [post]
func (c *Controller) create(ctx *gin.Context) {
	var req CreateRequestDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, http_common.ErrorResponse{
			Message: "invalid request format",
		})
		return
	}

	result, err := c.usecase.CreateRoom(ctx, req.Name, req.MemberName, req.Stories)
	if err != nil {
		c.logger.Error("failed to create room", slog.String("error", err.Error()))
		http_common.AbortWithError(ctx, err)
		return
	}

	http_common.MarkStale(ctx, result.Stale)
	ctx.JSON(http.StatusCreated, CreateResponseDTO{
		Room:       result.Room,
		Member:     result.Member,
		Credential: result.Credential,
		Stories:    result.Stories,
		Stale:      result.Stale,
	})
}

type JoinRequestDTO struct {
	Name string `json:"name" binding:"required"`
}

type JoinResponseDTO struct {
	Member     model.Member `json:"member"`
	Credential string       `json:"credential"`
	Stale      bool         `json:"stale"`
}

// join
// @Summary Join a room
// @Description Presenting a credential of this room returns the same member again
// @Tags Rooms
// @Param room_id path string true "Room id"
// @Param request body JoinRequestDTO true "Member"
// @Success 201 {object} JoinResponseDTO "New member"
// @Success 200 {object} JoinResponseDTO "Existing member"
// @Failure 404 {object} http_common.ErrorResponse
// @Router /rooms/{room_id}/members [post]
func (c *Controller) join(ctx *gin.Context) {
	roomID := ctx.Param("room_id")

	var req JoinRequestDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, http_common.ErrorResponse{
			Message: "invalid request format",
		})
		return
	}

	result, err := c.usecase.JoinRoom(ctx, roomID, req.Name, http_common.BearerToken(ctx))
	if err != nil {
		c.logger.Error("failed to join room", slog.String("room_id", roomID), slog.String("error", err.Error()))
		http_common.AbortWithError(ctx, err)
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	http_common.MarkStale(ctx, result.Stale)
	ctx.JSON(status, JoinResponseDTO{
		Member:     result.Member,
		Credential: result.Credential,
		Stale:      result.Stale,
	})
}

// snapshot
// @Summary Room snapshot
// @Description Returns the room as the caller may see it: unrevealed votes of others carry no value
// @Tags Rooms
// @Param room_id path string true "Room id"
// @Success 200 {object} model.Snapshot
// @Failure 401 {object} http_common.ErrorResponse
// @Failure 404 {object} http_common.ErrorResponse
// @Security Bearer
// @Router /rooms/{room_id} [get]
func (c *Controller) snapshot(ctx *gin.Context) {
	roomID := ctx.Param("room_id")

	snap, err := c.usecase.Snapshot(ctx, http_common.BearerToken(ctx), roomID)
	if err != nil {
		c.logger.Error("failed to load snapshot", slog.String("room_id", roomID), slog.String("error", err.Error()))
		http_common.AbortWithError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, snap)
}

type AddStoryRequestDTO struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
}

type AddStoryResponseDTO struct {
	Story model.Story `json:"story"`
	Stale bool        `json:"stale"`
}

func (c *Controller) addStory(ctx *gin.Context) {
	roomID := ctx.Param("room_id")

	var req AddStoryRequestDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, http_common.ErrorResponse{
			Message: "invalid request format",
		})
		return
	}

	story, stale, err := c.usecase.AddStory(ctx, http_common.BearerToken(ctx), roomID, req.Title, req.Description)
	if err != nil {
		c.logger.Error("failed to add story", slog.String("room_id", roomID), slog.String("error", err.Error()))
		http_common.AbortWithError(ctx, err)
		return
	}

	http_common.MarkStale(ctx, stale)
	ctx.JSON(http.StatusCreated, AddStoryResponseDTO{
		Story: story,
		Stale: stale,
	})
}

type NextStoryResponseDTO struct {
	StoryID string `json:"storyId"`
	Stale   bool   `json:"stale"`
}

func (c *Controller) nextStory(ctx *gin.Context) {
	roomID := ctx.Param("room_id")

	story, stale, err := c.usecase.NextStory(ctx, http_common.BearerToken(ctx), roomID)
	if err != nil {
		c.logger.Error("failed to move to next story", slog.String("room_id", roomID), slog.String("error", err.Error()))
		http_common.AbortWithError(ctx, err)
		return
	}

	http_common.MarkStale(ctx, stale)
	ctx.JSON(http.StatusOK, NextStoryResponseDTO{
		StoryID: story.ID,
		Stale:   stale,
	})
}
