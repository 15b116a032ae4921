package model

type Role string

const (
	RoleViewer    Role = "viewer"
	RoleCreator   Role = "creator"
	RoleModerator Role = "moderator"
)

// Capability 是一项可以被授予的操作权限，代替原来写死用户名的管理员判断
type Capability string

const (
	CapVote     Capability = "vote"
	CapComment  Capability = "comment"
	CapUpload   Capability = "upload"
	CapModerate Capability = "moderate"
)

var roleCapabilities = map[Role][]Capability{
	RoleViewer:    {CapVote, CapComment},
	RoleCreator:   {CapVote, CapComment, CapUpload},
	RoleModerator: {CapVote, CapComment, CapUpload, CapModerate},
}

func (r Role) Valid() bool {
	_, ok := roleCapabilities[r]
	return ok
}

// Can 判断角色是否拥有某项权限，未知角色什么都不能做
func (r Role) Can(c Capability) bool {
	for _, have := range roleCapabilities[r] {
		if have == c {
			return true
		}
	}
	return false
}
