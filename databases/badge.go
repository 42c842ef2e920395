package databases

import "github.com/lengapp/leng-api/models"

const (
	badgeCollectionName     = "badges"
	userBadgeCollectionName = "userBadges"
)

// BadgeDatabase contains the methods to use with the badges collection
type BadgeDatabase interface {
	Store[models.Badge]
}

// NewBadgeDatabase initializes a new instance of badge database with the provided db connection
func NewBadgeDatabase(db DatabaseHelper) BadgeDatabase {
	return newCollection[models.Badge](db, badgeCollectionName)
}

// UserBadgeDatabase contains the methods to use with the userBadges collection
type UserBadgeDatabase interface {
	Store[models.UserBadge]
}

// NewUserBadgeDatabase initializes a new instance of user badge database with the provided db connection
func NewUserBadgeDatabase(db DatabaseHelper) UserBadgeDatabase {
	return newCollection[models.UserBadge](db, userBadgeCollectionName)
}
