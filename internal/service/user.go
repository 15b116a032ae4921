package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"FluxTube/internal/dto"
	"FluxTube/internal/model"
	"FluxTube/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	minUsernameLength = 3
	maxUsernameLength = 32
	defaultTokenTTL   = 72 * time.Hour
)

// 用户服务接口：1、注册 2、登录 3、个人资料 4、频道页
type UserService interface {
	Register(ctx context.Context, username, password, avatar string) (*model.User, error)
	Login(ctx context.Context, username, password string) (string, *model.User, error)
	GetProfile(ctx context.Context, userID uint64) (*model.User, error)
	UpdateAvatar(ctx context.Context, userID uint64, avatar string) (*model.User, error)
	// viewerID为0表示未登录访客
	GetChannel(ctx context.Context, channelID, viewerID uint64) (*dto.ChannelResponse, error)
}

// 用户服务包装
type userService struct {
	userRepo  repository.UserRepository
	videoRepo repository.VideoRepository
	subs      SubscriptionService

	jwtSecret []byte
	tokenTTL  time.Duration
}

// 包装函数
func NewUserService(userRepo repository.UserRepository, videoRepo repository.VideoRepository, subs SubscriptionService, jwtSecret string, tokenTTL time.Duration) UserService {
	if tokenTTL <= 0 {
		tokenTTL = defaultTokenTTL
	}
	return &userService{
		userRepo:  userRepo,
		videoRepo: videoRepo,
		subs:      subs,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
	}
}

// 注册逻辑：1、检查参数 2、检查是否重名 3、密码加密存储 4、插入数据库，唯一索引兜底并发注册
func (s *userService) Register(ctx context.Context, username, password, avatar string) (*model.User, error) {
	username = strings.TrimSpace(username)
	n := utf8.RuneCountInString(username)
	if n < minUsernameLength || n > maxUsernameLength || password == "" {
		return nil, ErrInvalidArgument
	}
	avatar = strings.TrimSpace(avatar)
	if avatar == "" {
		avatar = model.DefaultAvatar
	}

	_, err := s.userRepo.FindByUsername(ctx, username)
	if err == nil {
		return nil, ErrUsernameTaken
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Wrap(err, "查询用户名失败")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Wrap(err, "密码加密失败")
	}

	newUser := &model.User{
		Username: username,
		Password: string(hashedPassword),
		Avatar:   avatar,
		Role:     model.RoleCreator,
	}
	if err := s.userRepo.Create(ctx, newUser); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUsernameTaken
		}
		return nil, errors.Wrap(err, "创建用户失败")
	}
	return newUser, nil
}

// 登录逻辑：1、检查库中是否有该用户名 2、加密后密码和输入密码比对 3、生成jwt签名
// 用户不存在、密码错误、已被封禁统一返回ErrInvalidCredentials，不暴露用户名是否存在
func (s *userService) Login(ctx context.Context, username, password string) (string, *model.User, error) {
	user, err := s.userRepo.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, errors.Wrap(err, "查询用户失败")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}
	if user.Blocked {
		return "", nil, ErrInvalidCredentials
	}

	now := time.Now()
	// token对象的Payload，不能将密码放在其中，Payload不加密
	claims := jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Username,
		"role":     string(user.Role),
		"exp":      now.Add(s.tokenTTL).Unix(), // 过期时间
		"iat":      now.Unix(),                 // 签发时间
	}
	// token加上Header，算法信息HS256，对称加密
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	// 对token对象中的Header和Payload进行签名，用于防伪（Header.Payload.Signature）
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", nil, errors.Wrap(err, "生成token失败")
	}
	return tokenString, user, nil
}

func (s *userService) GetProfile(ctx context.Context, userID uint64) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound, "查询用户失败")
	}
	return user, nil
}

func (s *userService) UpdateAvatar(ctx context.Context, userID uint64, avatar string) (*model.User, error) {
	avatar = strings.TrimSpace(avatar)
	if avatar == "" {
		return nil, ErrInvalidArgument
	}
	if _, err := activeUser(ctx, s.userRepo, userID, ""); err != nil {
		return nil, err
	}
	if err := s.userRepo.UpdateAvatar(ctx, userID, avatar); err != nil {
		return nil, notFound(err, ErrUserNotFound, "更新头像失败")
	}
	return s.GetProfile(ctx, userID)
}

// 频道页：1、频道主必须存在且未被封禁 2、视频按时间倒序 3、展示订阅数 4、访客是否已订阅
func (s *userService) GetChannel(ctx context.Context, channelID, viewerID uint64) (*dto.ChannelResponse, error) {
	channel, err := s.userRepo.FindByID(ctx, channelID)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound, "查询频道失败")
	}
	if channel.Blocked {
		return nil, ErrUserNotFound
	}

	videos, err := s.videoRepo.FindByAuthor(ctx, channelID)
	if err != nil {
		return nil, errors.Wrap(err, "查询频道视频失败")
	}
	// 频道页的视频作者都是频道主，不用再逐个preload
	for i := range videos {
		videos[i].Author = *channel
	}

	count, err := s.subs.DisplayedSubscriberCount(ctx, channel)
	if err != nil {
		return nil, err
	}
	subscribed, err := s.subs.IsSubscribed(ctx, viewerID, channelID)
	if err != nil {
		return nil, err
	}
	return &dto.ChannelResponse{
		Channel:         dto.ToUserInfo(channel),
		SubscriberCount: count,
		IsSubscribed:    subscribed,
		Videos:          dto.ToVideoResponses(videos),
	}, nil
}
