package database

import "projectarium/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Project{},
		&models.Comment{},
		&models.ChatThread{},
		&models.ChatMessage{},
		&models.ReportUser{},
		&models.ReportProject{},
		&models.Follow{},
		&models.ProjectLike{},
		&models.CommentLike{},
		&models.PrivateChat{},
		&models.FollowerMilestone{},
		&models.ProjectLikeMilestone{},
	}
}
