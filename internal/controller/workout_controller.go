package controller

import (
	"strconv"
	"time"

	"fitcoach_backend/internal/model"
	"fitcoach_backend/internal/service"
	"fitcoach_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type WorkoutController struct {
	WorkoutService *service.WorkoutService
}

func NewWorkoutController(workoutService *service.WorkoutService) *WorkoutController {
	return &WorkoutController{WorkoutService: workoutService}
}

// LogWorkoutRequest 训练打卡请求
type LogWorkoutRequest struct {
	UserID             uint   `json:"userId"`
	WorkoutDate        string `json:"workoutDate" binding:"required"`
	DurationMinutes    int    `json:"durationMinutes" binding:"required,min=1"`
	ExercisesCompleted int    `json:"exercisesCompleted" binding:"min=0"`
	CaloriesBurned     int    `json:"caloriesBurned" binding:"min=0"`
	Notes              string `json:"notes"`
}

// LogWorkout godoc
// @Summary 记录一次训练并触发积分奖励
// @Tags 训练
// @Router /api/workouts [post]
func (c *WorkoutController) LogWorkout(ctx *gin.Context) {
	var req LogWorkoutRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	workoutDate, err := time.Parse(util.DateFormat, req.WorkoutDate)
	if err != nil {
		util.BadRequest(ctx, "workoutDate must be in YYYY-MM-DD format")
		return
	}

	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	// 学员只能为自己打卡；教练和管理员可代学员记录
	targetUserID := claims.UserID
	var trainerID *uint
	if req.UserID != 0 && req.UserID != claims.UserID {
		if claims.Role == model.Client {
			util.Forbidden(ctx)
			return
		}
		targetUserID = req.UserID
		if claims.Role == model.Trainer {
			id := claims.UserID
			trainerID = &id
		}
	}

	session, reward, err := c.WorkoutService.LogWorkout(service.LogWorkoutInput{
		UserID:             targetUserID,
		TrainerID:          trainerID,
		WorkoutDate:        workoutDate,
		DurationMinutes:    req.DurationMinutes,
		ExercisesCompleted: req.ExercisesCompleted,
		CaloriesBurned:     req.CaloriesBurned,
		Notes:              req.Notes,
	})
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	resp := gin.H{
		"session": session,
		"reward":  nil,
	}
	if reward != nil && reward.Status == service.AwardStatusAwarded {
		resp["reward"] = reward
	}
	util.Created(ctx, resp)
}

// GetHistory godoc
// @Summary 分页查询训练历史
// @Tags 训练
// @Router /api/workouts [get]
func (c *WorkoutController) GetHistory(ctx *gin.Context) {
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

	userID := claims.UserID
	if query := ctx.Query("userId"); query != "" && claims.Role != model.Client {
		parsed, err := strconv.ParseUint(query, 10, 64)
		if err != nil {
			util.BadRequest(ctx, "invalid userId")
			return
		}
		userID = uint(parsed)
	}

	sessions, total, err := c.WorkoutService.GetHistory(userID, page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, util.PageResponse{
		List:  sessions,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}
