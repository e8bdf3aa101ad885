package http_voting

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	http_common "github.com/humanbelnik/storypoker/internal/delivery/http/common"
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
	stories := router.Group("/stories/:story_id")
	stories.PUT("/vote", c.vote)
	stories.POST("/complete", c.complete)
	stories.POST("/uncomplete", c.uncomplete)
}

// VoteRequestDTO carries the card. A null value abstains.
type VoteRequestDTO struct {
	Value *int `json:"value"`
}

type MutationResponseDTO struct {
	Stale bool `json:"stale"`
}

// vote
// @Summary Vote for a story
// @Tags Voting
// @Param story_id path string true "Story id"
// @Param request body VoteRequestDTO true "Card, null to abstain"
// @Success 200 {object} MutationResponseDTO
// @Failure 400 {object} http_common.ErrorResponse "Value out of range"
// @Failure 401 {object} http_common.ErrorResponse "Not a member of the story's room"
// @Failure 404 {object} http_common.ErrorResponse "Story not found"
// @Failure 409 {object} http_common.ErrorResponse "Story already revealed"
// @Security Bearer
// @Router /stories/{story_id}/vote [put]
func (c *Controller) vote(ctx *gin.Context) {
	storyID := ctx.Param("story_id")

	var req VoteRequestDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, http_common.ErrorResponse{
			Message: "invalid request format",
		})
		return
	}

	stale, err := c.usecase.VoteForStory(ctx, http_common.BearerToken(ctx), storyID, req.Value)
	c.respond(ctx, "vote", storyID, stale, err)
}

func (c *Controller) complete(ctx *gin.Context) {
	storyID := ctx.Param("story_id")

	stale, err := c.usecase.CompleteStory(ctx, http_common.BearerToken(ctx), storyID)
	c.respond(ctx, "complete story", storyID, stale, err)
}

func (c *Controller) uncomplete(ctx *gin.Context) {
	storyID := ctx.Param("story_id")

	stale, err := c.usecase.UncompleteStory(ctx, http_common.BearerToken(ctx), storyID)
	c.respond(ctx, "uncomplete story", storyID, stale, err)
}

func (c *Controller) respond(ctx *gin.Context, op, storyID string, stale bool, err error) {
	if err != nil {
		c.logger.Error("failed to "+op, slog.String("story_id", storyID), slog.String("error", err.Error()))
		http_common.AbortWithError(ctx, err)
		return
	}

	http_common.MarkStale(ctx, stale)
	ctx.JSON(http.StatusOK, MutationResponseDTO{
		Stale: stale,
	})
}
