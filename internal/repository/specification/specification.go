package specification

import "gorm.io/gorm"

// Specification is a composable query fragment. Repositories accept any
// number of them, so services can describe what they want without
// writing SQL in the service layer.
type Specification interface {
	Apply(db *gorm.DB) *gorm.DB
}
