package models

import (
	"time"

	"github.com/google/uuid"
)

type Group struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedBy   uuid.UUID `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	MemberCount int       `json:"member_count"`
}

// GroupMembership is a group as seen from one of its members.
type GroupMembership struct {
	Group
	JoinedAt time.Time `json:"joined_at"`
}

// GroupMember is a member row joined with the fields ranking needs.
type GroupMember struct {
	UserID        uuid.UUID `json:"user_id"`
	Username      string    `json:"username"`
	UserCreatedAt time.Time `json:"user_created_at"`
	JoinedAt      time.Time `json:"joined_at"`
	Timezone      string    `json:"-"`
}

type CreateGroupRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=100"`
	Description string `json:"description" validate:"max=1000"`
}

type Accomplishment struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	GroupID     uuid.UUID `json:"group_id"`
	Username    string    `json:"username,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	CreatedAt   time.Time `json:"created_at"`
}

type CreateAccomplishmentRequest struct {
	GroupID     string `json:"group_id" validate:"required,uuid"`
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
	Category    string `json:"category" validate:"max=50"`
}
