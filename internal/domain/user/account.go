package user

import (
	"fmt"

	"github.com/orris-inc/trafficstat/internal/shared/utils"
)

// Account is the traffic-relevant view of a panel user. Upload and download
// are all-time counters; this subsystem only ever adds to them.
type Account struct {
	id             uint
	email          string
	upload         uint64
	download       uint64
	lastTrafficAt  int64
	transferEnable uint64
	inviteUserID   *uint
	createdAt      int64
}

// ReconstructAccount reconstructs an account from persistence
func ReconstructAccount(
	id uint,
	email string,
	upload, download uint64,
	lastTrafficAt int64,
	transferEnable uint64,
	inviteUserID *uint,
	createdAt int64,
) (*Account, error) {
	if id == 0 {
		return nil, fmt.Errorf("account ID cannot be zero")
	}
	return &Account{
		id:             id,
		email:          email,
		upload:         upload,
		download:       download,
		lastTrafficAt:  lastTrafficAt,
		transferEnable: transferEnable,
		inviteUserID:   inviteUserID,
		createdAt:      createdAt,
	}, nil
}

func (a *Account) ID() uint {
	return a.id
}

func (a *Account) Email() string {
	return a.email
}

func (a *Account) Upload() uint64 {
	return a.upload
}

func (a *Account) Download() uint64 {
	return a.download
}

// LastTrafficAt returns the epoch second of the last applied delta.
func (a *Account) LastTrafficAt() int64 {
	return a.lastTrafficAt
}

// TransferEnable returns the quota in bytes.
func (a *Account) TransferEnable() uint64 {
	return a.transferEnable
}

func (a *Account) InviteUserID() *uint {
	return a.inviteUserID
}

func (a *Account) CreatedAt() int64 {
	return a.createdAt
}

// Used returns upload plus download.
func (a *Account) Used() uint64 {
	return utils.SaturatingAdd(a.upload, a.download)
}

// OverQuota reports whether usage has reached the quota. A zero quota never
// counts as exceeded.
func (a *Account) OverQuota() bool {
	return a.transferEnable > 0 && a.Used() >= a.transferEnable
}
