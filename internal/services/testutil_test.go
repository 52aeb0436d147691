package services

import (
	"io"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/kurbezz/shared-lists/internal/models"
	"github.com/kurbezz/shared-lists/pkg/logger"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	logger.SetOutput(io.Discard)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{TwitchID: "twitch-" + username, Username: username}
	require.NoError(t, db.Create(user).Error)
	return user
}

func seedPage(t *testing.T, db *gorm.DB, creator *models.User, title string) *models.Page {
	t.Helper()
	page := &models.Page{Title: title, CreatorID: creator.ID}
	require.NoError(t, db.Create(page).Error)
	return page
}

func seedList(t *testing.T, db *gorm.DB, pageID uuid.UUID, title string, position int) *models.List {
	t.Helper()
	list := &models.List{PageID: pageID, Title: title, Position: position, ShowCheckboxes: true, ShowProgress: true}
	require.NoError(t, db.Create(list).Error)
	return list
}

func seedItem(t *testing.T, db *gorm.DB, listID uuid.UUID, content string, position int, checked bool) *models.ListItem {
	t.Helper()
	item := &models.ListItem{ListID: listID, Content: content, Position: position, Checked: checked}
	require.NoError(t, db.Create(item).Error)
	return item
}

func seedPermission(t *testing.T, db *gorm.DB, page *models.Page, user *models.User, canEdit bool) *models.PagePermission {
	t.Helper()
	permission := &models.PagePermission{PageID: page.ID, UserID: user.ID, CanEdit: canEdit, GrantedBy: page.CreatorID}
	require.NoError(t, db.Create(permission).Error)
	return permission
}
