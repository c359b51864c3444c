package controller

import (
	"errors"
	"strconv"

	"fitcoach_backend/internal/model"
	"fitcoach_backend/internal/service"
	"fitcoach_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type GamificationController struct {
	GamificationService *service.GamificationService
}

func NewGamificationController(gamificationService *service.GamificationService) *GamificationController {
	return &GamificationController{GamificationService: gamificationService}
}

// GetProfile godoc
// @Summary 查询激励面板
// @Tags 激励
// @Router /api/gamification/profile [get]
func (c *GamificationController) GetProfile(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	userID := claims.UserID
	if query := ctx.Query("userId"); query != "" && claims.Role != model.Client {
		parsed, err := strconv.ParseUint(query, 10, 64)
		if err != nil {
			util.BadRequest(ctx, "invalid userId")
			return
		}
		userID = uint(parsed)
	}

	profile, err := c.GamificationService.GetProfile(userID)
	if err != nil {
		if errors.Is(err, util.ErrUserNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, profile)
}

// GetTransactions godoc
// @Summary 分页查询积分流水
// @Tags 激励
// @Router /api/gamification/transactions [get]
func (c *GamificationController) GetTransactions(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	transactions, total, err := c.GamificationService.GetTransactions(claims.UserID, page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, util.PageResponse{
		List:  transactions,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}

// GetLeaderboard godoc
// @Summary 查询积分排行榜
// @Tags 激励
// @Router /api/gamification/leaderboard [get]
func (c *GamificationController) GetLeaderboard(ctx *gin.Context) {
	entries, err := c.GamificationService.GetLeaderboard(ctx.Request.Context())
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, entries)
}

// AdjustPointsRequest 管理员手工加分请求
type AdjustPointsRequest struct {
	UserID uint   `json:"userId" binding:"required"`
	Points int    `json:"points" binding:"required,min=1"`
	Reason string `json:"reason" binding:"required"`
}

// AdjustPoints godoc
// @Summary 管理员手工加分
// @Tags 激励
// @Router /api/admin/gamification/adjust [post]
func (c *GamificationController) AdjustPoints(ctx *gin.Context) {
	var req AdjustPointsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	txRecord, err := c.GamificationService.AdjustPoints(req.UserID, req.Points, req.Reason)
	if err != nil {
		if errors.Is(err, util.ErrUserNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Created(ctx, txRecord)
}
