package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"FluxTube/internal/model"
	"FluxTube/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

const callerKey = "caller"

// 中间件工厂，secret由配置注入
// 流程：1、从http请求中取出"Authorization"字段 2、验证"Bearer [token]" 3、通过secretKey验证token有效性 4、若成功，把解析出的Caller放入context
func AuthMiddleware(secret string) gin.HandlerFunc {
	secretKey := []byte(secret)
	return func(c *gin.Context) {
		// 拿到http协议请求头中的Authorization字段
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			// 立刻调用c.Abort()，阻止后续的任何处理器（包括其他中间件和最终的handler）被执行
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "请求未包含授权令牌"})
			return
		}

		tokenString, ok := bearerToken(authHeader)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "授权令牌格式不正确"})
			return
		}

		caller, err := parseCaller(tokenString, secretKey)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "无效的授权令牌"})
			return
		}

		// Token验证成功！将用户信息存入Context，以便后续使用
		c.Set(callerKey, caller)
		// 放行，继续处理请求
		c.Next()
	}
}

// OptionalAuth 用在公开接口上：带了有效token就解析出Caller，没带或者无效都按访客处理
func OptionalAuth(secret string) gin.HandlerFunc {
	secretKey := []byte(secret)
	return func(c *gin.Context) {
		if tokenString, ok := bearerToken(c.GetHeader("Authorization")); ok {
			if caller, err := parseCaller(tokenString, secretKey); err == nil {
				c.Set(callerKey, caller)
			}
		}
		c.Next()
	}
}

// RoleSource 按ID取用户当前的角色，传UserRepository即可
type RoleSource interface {
	FindByID(ctx context.Context, userID uint64) (*model.User, error)
}

// RequireCapability 必须放在AuthMiddleware之后
// token里的角色是签发时的快照，这里按数据库里的角色判断，并把最新角色写回Caller
func RequireCapability(users RoleSource, capability model.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := CurrentCaller(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "用户未认证"})
			return
		}
		user, err := users.FindByID(c.Request.Context(), caller.UserID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "用户不存在"})
			return
		}
		if err != nil {
			logger.Log.WithError(err).WithField("user_id", caller.UserID).Error("权限校验时查询用户失败")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "权限校验失败"})
			return
		}
		caller.Role = user.Role
		c.Set(callerKey, caller)
		if !caller.Can(capability) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "没有权限执行该操作"})
			return
		}
		c.Next()
	}
}

// CurrentCaller 取出认证中间件放进去的Caller
func CurrentCaller(c *gin.Context) (model.Caller, bool) {
	v, exists := c.Get(callerKey)
	if !exists {
		return model.Caller{}, false
	}
	caller, ok := v.(model.Caller)
	return caller, ok
}

// 通常Token的格式是 "Bearer [token]"
func bearerToken(header string) (string, bool) {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func parseCaller(tokenString string, secretKey []byte) (model.Caller, error) {
	// 解析Token，返回加密前的token（Header.Payload.Signature），还附带valid判断是否有效
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// 确保签名方法是对称加密族
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("非预期的签名方法")
		}
		return secretKey, nil
	})
	if err != nil || !token.Valid {
		return model.Caller{}, errors.New("无效的授权令牌")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return model.Caller{}, errors.New("无效的载荷")
	}
	// jwt.MapClaims中的数字会被解析为float64
	userID, ok := claims["user_id"].(float64)
	if !ok || userID <= 0 {
		return model.Caller{}, errors.New("缺少用户ID")
	}
	username, _ := claims["username"].(string)
	role, _ := claims["role"].(string)
	return model.Caller{
		UserID:   uint64(userID),
		Username: username,
		Role:     model.Role(role),
	}, nil
}
