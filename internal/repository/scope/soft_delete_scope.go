package scope

import "gorm.io/gorm"

// WithSoftDelete includes soft-deleted rows, turning Delete into a hard delete.
func WithSoftDelete(db *gorm.DB) *gorm.DB {
	return db.Unscoped()
}

// ExcludeSoftDelete filters deleted rows on raw Table() queries where the
// model hooks do not apply.
func ExcludeSoftDelete(db *gorm.DB) *gorm.DB {
	return db.Where("deleted_at IS NULL")
}
