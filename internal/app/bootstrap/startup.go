// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	userstore "github.com/necros240/campusfeedback/internal/app/store/users"
	"github.com/necros240/campusfeedback/internal/domain/models"
	"go.uber.org/zap"
)

// Startup runs one-time initialization after DB connections and schema setup,
// before the HTTP handler is built. It guarantees the configured master admin
// exists so a fresh deployment is never locked out of user administration.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	return ensureMasterAdmin(ctx, appCfg, deps, logger)
}

// ensureMasterAdmin promotes the configured email to master, creating the
// account if it does not exist yet. A created account has no password; the
// owner signs in with Google.
func ensureMasterAdmin(ctx context.Context, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if appCfg.MasterAdminEmail == "" {
		return nil
	}

	users := userstore.New(deps.MongoDatabase)

	user, err := users.GetByEmailCI(ctx, appCfg.MasterAdminEmail)
	if err == userstore.ErrNotFound {
		user, err = users.Create(ctx, models.User{
			Email:      appCfg.MasterAdminEmail,
			Role:       models.RoleMaster,
			AuthMethod: models.AuthGoogle,
		})
		if err != nil {
			return err
		}
		logger.Info("master admin created",
			zap.String("email", appCfg.MasterAdminEmail),
			zap.String("user_id", user.ID.Hex()))
		return nil
	}
	if err != nil {
		return err
	}

	if user.Role == models.RoleMaster {
		return nil
	}
	if err := users.UpdateRole(ctx, user.ID, models.RoleMaster); err != nil {
		return err
	}
	logger.Info("master admin promoted",
		zap.String("email", appCfg.MasterAdminEmail),
		zap.String("previous_role", user.Role))
	return nil
}
