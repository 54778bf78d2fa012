package transaction

import (
	"errors"
	"scalpbot/internal/model"
	"scalpbot/internal/service"
	"scalpbot/internal/transaction"
	pkgerrors "scalpbot/pkg/errors"
	"scalpbot/pkg/errors/ecode"
	"scalpbot/pkg/response"
	"scalpbot/pkg/validator"
	"strconv"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *service.TransactionService
	feed    *Feed
}

func NewHandler(s *service.TransactionService, feed *Feed) *Handler {
	return &Handler{service: s, feed: feed}
}

func (h *Handler) TransactionGetList() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		var q model.TransactionQuery
		if err := ctx.ShouldBindQuery(&q); err != nil {
			response.JSON(ctx, pkgerrors.WithCode(ecode.ValidateErr, validator.Translate(err)), nil)
			return
		}
		list, err := h.service.List(ctx, q)
		if err != nil {
			response.JSON(ctx, pkgerrors.Wrap(err, ecode.Unknown, "接口调用失败"), nil)
			return
		}
		response.JSON(ctx, nil, list)
	}
}

func (h *Handler) TransactionGetByID() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
		if err != nil {
			response.JSON(ctx, pkgerrors.WithCode(ecode.ValidateErr, "id must be an integer"), nil)
			return
		}
		rec, err := h.service.Get(ctx, id)
		if errors.Is(err, transaction.ErrNotFound) {
			response.JSON(ctx, pkgerrors.WithCode(ecode.NotFoundErr, err.Error()), nil)
			return
		}
		if err != nil {
			response.JSON(ctx, pkgerrors.Wrap(err, ecode.Unknown, "接口调用失败"), nil)
			return
		}
		response.JSON(ctx, nil, rec)
	}
}

// ServeWS 实时推送新产生的流水，可用 side/market 查询参数过滤
func (h *Handler) ServeWS(c *gin.Context) {
	var q model.TransactionQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.JSON(c, pkgerrors.WithCode(ecode.ValidateErr, validator.Translate(err)), nil)
		return
	}
	h.feed.Serve(c.Writer, c.Request, q)
}
