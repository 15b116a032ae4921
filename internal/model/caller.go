package model

// Caller 是认证中间件从token里解析出的当前请求者，显式传给需要知道“谁在操作”的服务
// Role只用于路由层的快速拦截，服务层仍以数据库里的角色为准
type Caller struct {
	UserID   uint64
	Username string
	Role     Role
}

func (c Caller) Can(capability Capability) bool {
	return c.Role.Can(capability)
}
