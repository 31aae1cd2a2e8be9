package domain

import "strconv"

// UID 布局常量, 与平台保持一致
const (
	PerUserRange              = 100000
	RootUID                   = 0
	SystemUID                 = 1000
	LogUID                    = 1007
	MediaUID                  = 1013
	FirstApplicationUID       = 10000
	LastApplicationUID        = 19999
	FirstSharedApplicationGID = 50000
	LastSharedApplicationGID  = 59999

	// UserSystem 设备主用户, 共享 GID 的功耗归到该用户名下的应用
	UserSystem = 0
)

// OwnerKind 归属方类型, 由 UID 所在区间推导
type OwnerKind string

const (
	OwnerKindRoot        OwnerKind = "ROOT"
	OwnerKindSystem      OwnerKind = "SYSTEM"       // 沙箱化的系统组件 (mediaserver, logd, nfc ...)
	OwnerKindSharedGroup OwnerKind = "SHARED_GROUP" // 多用户共享的应用 GID (如 dex2oat)
	OwnerKindApplication OwnerKind = "APPLICATION"
)

// Owner 功耗记录的归属方
type Owner struct {
	UID int `json:"uid" yaml:"uid"`
}

func NewOwner(uid int) *Owner {
	return &Owner{UID: uid}
}

func (o *Owner) Kind() OwnerKind {
	switch {
	case o.UID == RootUID:
		return OwnerKindRoot
	case IsSharedAppGID(o.UID):
		return OwnerKindSharedGroup
	case IsSystemUID(o.UID):
		return OwnerKindSystem
	default:
		return OwnerKindApplication
	}
}

func (o *Owner) String() string {
	return strconv.Itoa(o.UID)
}

// AppID strips the user part of a uid.
func AppID(uid int) int {
	return uid % PerUserRange
}

// UserID returns the user a uid belongs to.
func UserID(uid int) int {
	return uid / PerUserRange
}

// UIDFor composes a uid from a user and an app id.
func UIDFor(userID, appID int) int {
	return userID*PerUserRange + appID%PerUserRange
}

// SharedAppGID returns the shared gid of an application id.
func SharedAppGID(appID int) int {
	return FirstSharedApplicationGID + appID%PerUserRange - FirstApplicationUID
}

// AppIDFromSharedAppGID 由共享 GID 反推应用 ID; 不是共享 GID 时返回 -1
func AppIDFromSharedAppGID(gid int) int {
	appID := AppID(gid) + FirstApplicationUID - FirstSharedApplicationGID
	if appID < 0 || appID >= FirstSharedApplicationGID {
		return -1
	}
	return appID
}

func IsSharedAppGID(uid int) bool {
	return AppIDFromSharedAppGID(uid) > 0
}

// IsSystemUID 系统保留区间 [SystemUID, FirstApplicationUID)
func IsSystemUID(uid int) bool {
	return uid >= SystemUID && uid < FirstApplicationUID
}
