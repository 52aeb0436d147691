package models

// All lists every model managed by auto-migration.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Page{},
		&PagePermission{},
		&List{},
		&ListItem{},
		&APIKey{},
		&AuditLog{},
		&AuditExportCursor{},
		&OAuthState{},
		&RevokedToken{},
	}
}
