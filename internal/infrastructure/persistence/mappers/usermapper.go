package mappers

import (
	"github.com/orris-inc/trafficstat/internal/domain/user"
	"github.com/orris-inc/trafficstat/internal/infrastructure/persistence/models"
	"github.com/orris-inc/trafficstat/internal/shared/mapper"
)

// UserToEntity converts a user model to a domain account.
func UserToEntity(m *models.UserModel) (*user.Account, error) {
	return user.ReconstructAccount(
		m.ID,
		m.Email,
		m.U,
		m.D,
		m.T,
		m.TransferEnable,
		m.InviteUserID,
		m.CreatedAt,
	)
}

// UsersToEntities converts user models to domain accounts.
func UsersToEntities(ms []*models.UserModel) ([]*user.Account, error) {
	return mapper.MapSliceWithError(ms, UserToEntity)
}
