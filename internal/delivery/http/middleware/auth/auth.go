package http_auth_middleware

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	http_common "github.com/humanbelnik/storypoker/internal/delivery/http/common"
	"github.com/humanbelnik/storypoker/internal/model"
)

const (
	viewerKey     = "viewer"
	credentialKey = "credential"
)

type CredentialParser interface {
	Parse(credential string) (model.Viewer, error)
}

type Middleware struct {
	parser CredentialParser
	logger *slog.Logger
}

func New(
	parser CredentialParser,
) *Middleware {
	return &Middleware{
		parser: parser,
		logger: slog.Default(),
	}
}

// CredentialRequired resolves the bearer credential into a viewer and stores it in the context.
func (m *Middleware) CredentialRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		credential := http_common.BearerToken(ctx)
		if credential == "" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, http_common.ErrorResponse{
				Message: "bearer credential required",
			})
			return
		}

		viewer, err := m.parser.Parse(credential)
		if err != nil {
			m.logger.Warn("rejected credential", slog.String("path", ctx.FullPath()), slog.String("error", err.Error()))
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, http_common.ErrorResponse{
				Message: "invalid credential",
			})
			return
		}

		ctx.Set(viewerKey, viewer)
		ctx.Set(credentialKey, credential)
		ctx.Next()
	}
}

func Viewer(ctx *gin.Context) (model.Viewer, bool) {
	v, ok := ctx.Get(viewerKey)
	if !ok {
		return model.Viewer{}, false
	}
	viewer, ok := v.(model.Viewer)
	return viewer, ok
}

func Credential(ctx *gin.Context) string {
	return ctx.GetString(credentialKey)
}
