package schema

import (
	"time"
)

// User represents the users table. Identity is established by an external
// OAuth provider; the pipeline only reads users, never writes them.
type User struct {
	// ID is the internal database primary key
	ID int64 `gorm:"column:id;primaryKey;autoIncrement"`
	// Username is the stable handle assigned at first login
	Username string `gorm:"column:username;not null;uniqueIndex;type:text"`
	// Email is the address reported by the identity provider
	Email string `gorm:"column:email;not null;type:text"`
	// DisplayName is the human-readable name
	DisplayName string `gorm:"column:display_name;type:text"`
	// ImageURL is the avatar URL
	ImageURL *string `gorm:"column:image_url;type:text"`
	// CreatedAt is the timestamp of first login
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}

// Follow represents the follows table - a directed follower edge.
type Follow struct {
	// ID is the internal database primary key
	ID int64 `gorm:"column:id;primaryKey;autoIncrement"`
	// FollowerID is the user doing the following
	FollowerID int64 `gorm:"column:follower_id;not null;uniqueIndex:idx_follows_pair,priority:1"`
	// FollowedID is the user being followed
	FollowedID int64 `gorm:"column:followed_id;not null;uniqueIndex:idx_follows_pair,priority:2;index"`
	// Active toggles the edge without deleting its history
	Active bool `gorm:"column:active;not null;default:true"`
	// CreatedAt is the timestamp the edge was first created
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	// UpdatedAt is the timestamp the edge was last toggled
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`

	// Associations
	Follower User `gorm:"foreignKey:FollowerID;constraint:OnDelete:CASCADE"`
	Followed User `gorm:"foreignKey:FollowedID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for the Follow model
func (Follow) TableName() string {
	return "follows"
}

// Block represents the blocks table - a directed block edge. Visibility is
// denied when either direction of a pair is blocked.
type Block struct {
	// ID is the internal database primary key
	ID int64 `gorm:"column:id;primaryKey;autoIncrement"`
	// BlockerID is the user doing the blocking
	BlockerID int64 `gorm:"column:blocker_id;not null;uniqueIndex:idx_blocks_pair,priority:1"`
	// BlockedID is the user being blocked
	BlockedID int64 `gorm:"column:blocked_id;not null;uniqueIndex:idx_blocks_pair,priority:2;index"`
	// Active toggles the edge without deleting its history
	Active bool `gorm:"column:active;not null;default:true"`
	// CreatedAt is the timestamp the edge was first created
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	// UpdatedAt is the timestamp the edge was last toggled
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`

	// Associations
	Blocker User `gorm:"foreignKey:BlockerID;constraint:OnDelete:CASCADE"`
	Blocked User `gorm:"foreignKey:BlockedID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for the Block model
func (Block) TableName() string {
	return "blocks"
}
