package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/halal_inventory_api/internal/utils"
)

const (
	defaultPage  = 1
	defaultLimit = 50
	maxLimit     = 200
)

// respondError writes a classified error, or a generic 500 for anything else.
func respondError(c *gin.Context, err error, message string) {
	if appErr, ok := utils.AsAppError(err); ok {
		utils.ErrorWithInfo(c, utils.HTTPStatus(appErr), utils.ErrorInfoFrom(appErr))
		return
	}
	log.Error().Err(err).
		Str("request_id", c.GetString("request_id")).
		Str("path", c.FullPath()).
		Msg(message)
	utils.Error(c, 500, "INTERNAL_ERROR", message)
}

func invalidRequest(c *gin.Context) {
	utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
}

func paramUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		utils.ErrorWithInfo(c, 400, &utils.ErrorInfo{Code: "INVALID_ID", Message: "Invalid id", Field: name})
		return uuid.Nil, false
	}
	return id, true
}

func paramInt64(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		utils.ErrorWithInfo(c, 400, &utils.ErrorInfo{Code: "INVALID_ID", Message: "Invalid id", Field: name})
		return 0, false
	}
	return id, true
}

// queryInt64 returns nil when the parameter is absent or malformed.
func queryInt64(c *gin.Context, name string) *int64 {
	v := c.Query(name)
	if v == "" {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil
	}
	return &n
}

func queryUUID(c *gin.Context, name string) (*uuid.UUID, bool) {
	v := c.Query(name)
	if v == "" {
		return nil, true
	}
	id, err := uuid.Parse(v)
	if err != nil {
		utils.ErrorWithInfo(c, 400, &utils.ErrorInfo{Code: "INVALID_ID", Message: "Invalid id", Field: name})
		return nil, false
	}
	return &id, true
}

func pagination(c *gin.Context) (page, limit int) {
	page, limit = defaultPage, defaultLimit
	if p, err := strconv.Atoi(c.Query("page")); err == nil && p > 0 {
		page = p
	}
	if l, err := strconv.Atoi(c.Query("limit")); err == nil && l > 0 {
		limit = l
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return page, limit
}
