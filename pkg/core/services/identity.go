package services

import "github.com/renjie/prism-power/pkg/core/domain"

// MediaServerLabel mediaserver 虽然运行在系统 UID 区间, 但作为独立条目展示
const MediaServerLabel = "mediaserver"

// PlatformResolver 基于 UID 布局的归属方规范化
type PlatformResolver struct {
	// PrimaryUser 共享 GID 的功耗归到该用户名下的应用
	PrimaryUser int
	// ExemptLabel 带此标签的系统 UID 不折叠
	ExemptLabel string
}

// NewIdentityResolver 创建默认的解析器 (主用户 + mediaserver 例外)
func NewIdentityResolver() *PlatformResolver {
	return &PlatformResolver{
		PrimaryUser: domain.UserSystem,
		ExemptLabel: MediaServerLabel,
	}
}

// Canonicalize 实现 ports.IdentityResolver 接口
func (p *PlatformResolver) Canonicalize(uid int, dominantPackage string) int {
	canonical := uid

	// 共享 GID (例如 dex2oat 在所有用户下共用) 合并到主用户的应用 UID
	if domain.NewOwner(uid).Kind() == domain.OwnerKindSharedGroup {
		canonical = domain.UIDFor(p.PrimaryUser, domain.AppIDFromSharedAppGID(uid))
	}

	// 沙箱化的系统组件 (logd, nfc, drm ...) 统一归到 system
	if domain.NewOwner(canonical).Kind() == domain.OwnerKindSystem && dominantPackage != p.ExemptLabel {
		canonical = domain.SystemUID
	}
	return canonical
}
