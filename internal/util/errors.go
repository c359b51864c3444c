package util

import "errors"

var (
	ErrUserNotFound      = errors.New("用户不存在")
	ErrEmailRegistered   = errors.New("该邮箱已被注册")
	ErrPermissionDenied  = errors.New("permission denied")
	ErrWorkoutNotFound   = errors.New("workout session not found")
	ErrMilestoneNotFound = errors.New("milestone not found")
)
