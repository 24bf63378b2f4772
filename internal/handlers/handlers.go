package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"healthcare-risk-platform/internal/config"
	"healthcare-risk-platform/internal/store"
	"healthcare-risk-platform/internal/utils"
)

// base carries what every record handler needs.
type base struct {
	Store      *store.Store
	Pagination config.PaginationConfig
	Logger     *zap.Logger
}

func newBase(s *store.Store, cfg *config.Config, logger *zap.Logger) base {
	if logger == nil {
		logger = zap.NewNop()
	}
	return base{Store: s, Pagination: cfg.Pagination, Logger: logger}
}

// pathID reads a UUID path parameter. Anything that is not a UUID cannot
// name a record, so it is answered with 404.
func pathID(c *gin.Context, param, entity string) (string, bool) {
	raw := c.Param(param)
	id, err := uuid.Parse(raw)
	if err != nil {
		utils.NotFound(c, entity+" not found")
		return "", false
	}
	return id.String(), true
}

// page parses pagination or answers 400.
func (b base) page(c *gin.Context) (store.Page, utils.Pagination, bool) {
	page, meta, err := utils.ParsePagination(c, b.Pagination)
	if err != nil {
		utils.BadRequest(c, err.Error())
		return store.Page{}, utils.Pagination{}, false
	}
	return page, meta, true
}

func (b base) fail(c *gin.Context, err error) {
	utils.StoreError(c, b.Logger, err)
}
