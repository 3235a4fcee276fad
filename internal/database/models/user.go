package models

type User struct {
	Base
	Email     string `gorm:"uniqueIndex;not null" json:"email"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

func (User) TableName() string {
	return "users"
}
