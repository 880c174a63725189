package model

// swagger:model User
type User struct {
	UUIDBase
	Email    string `gorm:"size:100;uniqueIndex;not null" json:"email"`
	Password string `gorm:"size:100;not null" json:"-"`
	Name     string `gorm:"size:255;not null" json:"name"`
	IsActive bool   `gorm:"default:true" json:"isActive"`
	IsStaff  bool   `gorm:"default:false" json:"isStaff"`

	Profile *UserProfile `gorm:"foreignKey:UserID" json:"profile,omitempty"`
}

func (User) TableName() string {
	return "users"
}

// UserProfile 与 User 一对一，注册事务内同步创建
// swagger:model UserProfile
type UserProfile struct {
	BaseModel
	UserID           string  `gorm:"size:36;uniqueIndex;not null" json:"userId"`
	Username         *string `gorm:"size:150;uniqueIndex" json:"username"`
	CurrentLevel     Level   `gorm:"size:10;default:'A1'" json:"currentLevel"`
	TotalStars       int     `gorm:"default:0" json:"totalStars"`
	CompletedModules int     `gorm:"default:0" json:"completedModules"`
}

func (UserProfile) TableName() string {
	return "user_profiles"
}
