package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/timecapsule/capsule-engine/internal/repository"
	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "000001_create_users",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&repository.UserModel{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&repository.UserModel{})
			},
		},
		{
			ID: "000002_create_capsules",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&repository.CapsuleModel{}); err != nil {
					return err
				}
				indexes := []string{
					`CREATE INDEX IF NOT EXISTS idx_capsules_due ON capsules (schedule_date) WHERE status = 'pending'`,
					`CREATE INDEX IF NOT EXISTS idx_capsules_reminder_due ON capsules (schedule_date) WHERE status = 'pending' AND reminder_enabled AND NOT reminder_sent`,
					`CREATE INDEX IF NOT EXISTS idx_capsules_creator ON capsules (creator_id)`,
				}
				for _, sql := range indexes {
					if err := tx.Exec(sql).Error; err != nil {
						return err
					}
				}
				return nil
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&repository.CapsuleModel{})
			},
		},
		{
			ID: "000003_create_activity_logs",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&repository.ActivityLogModel{}); err != nil {
					return err
				}
				return tx.Exec(`CREATE INDEX IF NOT EXISTS idx_activity_user_created ON activity_logs (user_id, created_at DESC)`).Error
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&repository.ActivityLogModel{})
			},
		},
	})

	return m.Migrate()
}
