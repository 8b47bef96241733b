// AngelaMos | 2026
// dto.go

package user

import (
	"time"

	"github.com/carterperez-dev/canteen-backend/internal/core"
)

type CreateStaffRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Password string `json:"password" validate:"required,min=8,max=128"`
	Role     string `json:"role"     validate:"required,oneof=cook admin"`
}

type UserResponse struct {
	ID              string     `json:"id"`
	Username        string     `json:"username"`
	Role            core.Role  `json:"role"`
	Balance         float64    `json:"balance"`
	SubscriptionEnd *time.Time `json:"subscription_end,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

type StaffResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Role      core.Role `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type ListUsersParams struct {
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
	Search   string `json:"search"`
	Role     string `json:"role"`
}

func (p *ListUsersParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
}

func (p *ListUsersParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

func ToUserResponse(u *User) UserResponse {
	return UserResponse{
		ID:              u.ID,
		Username:        u.Username,
		Role:            u.Role,
		Balance:         u.Balance,
		SubscriptionEnd: u.SubscriptionEnd,
		CreatedAt:       u.CreatedAt,
	}
}

func ToUserResponseList(users []User) []UserResponse {
	responses := make([]UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, ToUserResponse(&users[i]))
	}
	return responses
}

func ToStaffResponseList(users []User) []StaffResponse {
	responses := make([]StaffResponse, 0, len(users))
	for _, u := range users {
		responses = append(responses, StaffResponse{
			ID:        u.ID,
			Username:  u.Username,
			Role:      u.Role,
			CreatedAt: u.CreatedAt,
		})
	}
	return responses
}
