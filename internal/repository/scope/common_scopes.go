package scope

import "gorm.io/gorm"

// OrderByCreatedDesc sorts newest first. Session listings, notification
// inboxes and recent-history windows share it so "latest" means the
// same thing everywhere.
func OrderByCreatedDesc(db *gorm.DB) *gorm.DB {
	return db.Order("created_at DESC")
}
