package controller

import (
	"errors"
	"strconv"

	"fitcoach_backend/internal/model"
	"fitcoach_backend/internal/service"
	"fitcoach_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type MilestoneController struct {
	MilestoneService *service.MilestoneService
}

func NewMilestoneController(milestoneService *service.MilestoneService) *MilestoneController {
	return &MilestoneController{MilestoneService: milestoneService}
}

// List godoc
// @Summary 查询里程碑目录
// @Tags 里程碑
// @Router /api/milestones [get]
func (c *MilestoneController) List(ctx *gin.Context) {
	milestones, err := c.MilestoneService.List()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, milestones)
}

// MilestoneRequest 里程碑创建/更新请求
type MilestoneRequest struct {
	Name         string `json:"name" binding:"required"`
	Icon         string `json:"icon"`
	TargetPoints int    `json:"targetPoints" binding:"required,min=1"`
	IsActive     *bool  `json:"isActive"`
}

// Create godoc
// @Summary 创建里程碑
// @Tags 里程碑
// @Router /api/admin/milestones [post]
func (c *MilestoneController) Create(ctx *gin.Context) {
	var req MilestoneRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	milestone := &model.Milestone{
		Name:         req.Name,
		Icon:         req.Icon,
		TargetPoints: req.TargetPoints,
		IsActive:     true,
	}
	if req.IsActive != nil {
		milestone.IsActive = *req.IsActive
	}

	if err := c.MilestoneService.Create(milestone); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	util.Created(ctx, milestone)
}

// Update godoc
// @Summary 更新里程碑
// @Tags 里程碑
// @Router /api/admin/milestones/:id [put]
func (c *MilestoneController) Update(ctx *gin.Context) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		util.BadRequest(ctx, "invalid milestone id")
		return
	}

	var req MilestoneRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	updates := &model.Milestone{
		Name:         req.Name,
		Icon:         req.Icon,
		TargetPoints: req.TargetPoints,
		IsActive:     true,
	}
	if req.IsActive != nil {
		updates.IsActive = *req.IsActive
	}

	milestone, err := c.MilestoneService.Update(uint(id), updates)
	if err != nil {
		if errors.Is(err, util.ErrMilestoneNotFound) {
			util.NotFound(ctx)
		} else {
			util.BadRequest(ctx, err.Error())
		}
		return
	}
	util.Success(ctx, milestone)
}

// Delete godoc
// @Summary 删除里程碑
// @Tags 里程碑
// @Router /api/admin/milestones/:id [delete]
func (c *MilestoneController) Delete(ctx *gin.Context) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		util.BadRequest(ctx, "invalid milestone id")
		return
	}

	if err := c.MilestoneService.Delete(uint(id)); err != nil {
		if errors.Is(err, util.ErrMilestoneNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, gin.H{"deleted": id})
}
