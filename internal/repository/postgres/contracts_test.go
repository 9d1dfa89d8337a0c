package postgres

import (
	"github.com/swiftloan/backend/internal/domain/admin"
	"github.com/swiftloan/backend/internal/domain/application"
	"github.com/swiftloan/backend/internal/feed"
)

var (
	_ admin.AuditRepository  = (*AdminAuditRepository)(nil)
	_ application.Repository = (*ApplicationRepository)(nil)
	_ feed.ChangeSource      = (*ChangeListener)(nil)
	_ feed.ApplicationLoader = (*ApplicationRepository)(nil)
)
