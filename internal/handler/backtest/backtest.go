package backtest

import (
	"errors"
	"scalpbot/internal/model"
	"scalpbot/internal/service"
	pkgerrors "scalpbot/pkg/errors"
	"scalpbot/pkg/errors/ecode"
	"scalpbot/pkg/response"
	"scalpbot/pkg/validator"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *service.BacktestService
}

func NewHandler(s *service.BacktestService) *Handler {
	return &Handler{service: s}
}

// ScenariosGet 可用的价格场景和策略
func (h *Handler) ScenariosGet() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		response.JSON(ctx, nil, gin.H{
			"scenarios":  h.service.Scenarios(),
			"strategies": h.service.Strategies(),
		})
	}
}

func (h *Handler) BacktestRun() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		var req model.BacktestReq
		if err := ctx.ShouldBindJSON(&req); err != nil {
			response.JSON(ctx, pkgerrors.WithCode(ecode.ValidateErr, validator.Translate(err)), nil)
			return
		}
		report, err := h.service.Run(ctx, req)
		if err != nil {
			if service.IsBadRequest(err) {
				response.JSON(ctx, pkgerrors.WithCode(ecode.ValidateErr, err.Error()), nil)
				return
			}
			response.JSON(ctx, pkgerrors.Wrap(err, ecode.BacktestErr, "回测失败"), nil)
			return
		}
		response.JSON(ctx, nil, report)
	}
}

func (h *Handler) ReportGetList() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		var req model.BacktestListReq
		if err := ctx.ShouldBindQuery(&req); err != nil {
			response.JSON(ctx, pkgerrors.WithCode(ecode.ValidateErr, validator.Translate(err)), nil)
			return
		}
		list, total, err := h.service.List(ctx, req.Page, req.Limit)
		if err != nil {
			response.JSON(ctx, pkgerrors.Wrap(err, ecode.Unknown, "接口调用失败"), nil)
			return
		}
		response.JSON(ctx, nil, gin.H{"list": list, "total": total})
	}
}

func (h *Handler) ReportGet() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		var req model.BacktestReportReq
		if err := ctx.ShouldBindUri(&req); err != nil {
			response.JSON(ctx, pkgerrors.WithCode(ecode.ValidateErr, validator.Translate(err)), nil)
			return
		}
		report, err := h.service.Get(ctx, req.RunID)
		if err != nil {
			response.JSON(ctx, reportErr(err), nil)
			return
		}
		response.JSON(ctx, nil, report)
	}
}

func (h *Handler) ReportDelete() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		var req model.BacktestReportReq
		if err := ctx.ShouldBindUri(&req); err != nil {
			response.JSON(ctx, pkgerrors.WithCode(ecode.ValidateErr, validator.Translate(err)), nil)
			return
		}
		if err := h.service.Delete(ctx, req.RunID); err != nil {
			response.JSON(ctx, reportErr(err), nil)
			return
		}
		response.JSON(ctx, nil, nil)
	}
}

func reportErr(err error) error {
	if errors.Is(err, service.ErrReportNotFound) {
		return pkgerrors.WithCode(ecode.NotFoundErr, err.Error())
	}
	return pkgerrors.Wrap(err, ecode.Unknown, "接口调用失败")
}
