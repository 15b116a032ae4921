package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"FluxTube/internal/bootstrap"
	"FluxTube/internal/config"
	"FluxTube/internal/model"
	"FluxTube/pkg/database"
	"FluxTube/pkg/logger"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// 运维命令直接连库，不经过HTTP，也不需要Redis和RabbitMQ
func openRepos() (*bootstrap.Repositories, *bootstrap.Services, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, errors.Wrap(err, "读取配置失败")
	}
	logger.InitLogger(cfg.Log.Level, cfg.Log.File)

	db, err := database.Open(cfg.Database)
	if err != nil {
		return nil, nil, errors.Wrap(err, "连接数据库失败")
	}
	repos := bootstrap.NewRepositories(db, nil)
	return repos, bootstrap.NewServices(repos, bootstrap.Options{}), nil
}

// 参数可以是用户名也可以是数字ID
func lookupUser(ctx context.Context, repos *bootstrap.Repositories, ref string) (*model.User, error) {
	var (
		user *model.User
		err  error
	)
	if id, convErr := strconv.ParseUint(ref, 10, 64); convErr == nil {
		user, err = repos.User.FindByID(ctx, id)
	} else {
		user, err = repos.User.FindByUsername(ctx, ref)
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("用户 %q 不存在", ref)
	}
	return user, err
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	timeout, _ := cmd.Flags().GetDuration("timeout")
	return context.WithTimeout(cmd.Context(), timeout)
}

var rootCmd = &cobra.Command{
	Use:   "fluxctl",
	Short: "FluxTube 运维工具",
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "创建或补齐数据库表",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return errors.Wrap(err, "读取配置失败")
		}
		db, err := database.Open(cfg.Database)
		if err != nil {
			return errors.Wrap(err, "连接数据库失败")
		}
		if err := database.Migrate(db); err != nil {
			return errors.Wrap(err, "数据库迁移失败")
		}
		fmt.Printf("迁移完成 (%s)\n", cfg.Database.Driver)
		return nil
	},
}

// 第一个管理员只能从这里提拔，HTTP接口要求操作者本身就是管理员
var roleCmd = &cobra.Command{
	Use:   "role <user> <viewer|creator|moderator>",
	Short: "修改用户角色",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		role := model.Role(args[1])
		if !role.Valid() {
			return fmt.Errorf("未知角色: %s", args[1])
		}
		repos, _, err := openRepos()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()

		user, err := lookupUser(ctx, repos, args[0])
		if err != nil {
			return err
		}
		if err := repos.User.SetRole(ctx, user.ID, role); err != nil {
			return errors.Wrap(err, "修改角色失败")
		}
		fmt.Printf("%s (#%d): %s -> %s\n", user.Username, user.ID, user.Role, role)
		return nil
	},
}

var blockCmd = &cobra.Command{
	Use:   "block <user>",
	Short: "封禁用户并同步清理其全部数据",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repos, svc, err := openRepos()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()

		user, err := lookupUser(ctx, repos, args[0])
		if err != nil {
			return err
		}
		if err := repos.User.SetBlocked(ctx, user.ID, true); err != nil {
			return errors.Wrap(err, "封禁失败")
		}
		if err := svc.Moderation.PurgeUser(ctx, user.ID); err != nil {
			return errors.Wrap(err, "清理用户数据失败")
		}
		fmt.Printf("%s (#%d) 已封禁，数据已清理\n", user.Username, user.ID)
		return nil
	},
}

var unblockCmd = &cobra.Command{
	Use:   "unblock <user>",
	Short: "解除封禁，已清理的数据不会恢复",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repos, _, err := openRepos()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()

		user, err := lookupUser(ctx, repos, args[0])
		if err != nil {
			return err
		}
		if err := repos.User.SetBlocked(ctx, user.ID, false); err != nil {
			return errors.Wrap(err, "解除封禁失败")
		}
		fmt.Printf("%s (#%d) 已解除封禁\n", user.Username, user.ID)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().Duration("timeout", time.Minute, "单条命令的超时时间")
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(roleCmd)
	rootCmd.AddCommand(blockCmd)
	rootCmd.AddCommand(unblockCmd)
}
